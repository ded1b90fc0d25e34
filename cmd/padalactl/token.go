package main

import (
	"time"

	"github.com/padala-next/internal/authz"
	"github.com/padala-next/internal/provider"

	"github.com/spf13/cobra"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "API token management",
	}

	var (
		userID   uint
		role     string
		driverID uint
	)
	issue := &cobra.Command{
		Use:   "issue",
		Short: "Bind a role to a user and issue a bearer token",
		RunE: withContainer(func(cmd *cobra.Command, _ []string, c *provider.Container) error {
			if err := c.AuthzService.SetUserRoles(userID, []string{role}); err != nil {
				return err
			}
			token, expiresAt, err := c.TokenService.Issue(userID, role, driverID)
			if err != nil {
				return err
			}
			roles, err := c.AuthzService.GetUserRoles(userID)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]interface{}{
				"user_id":    userID,
				"subject":    authz.SubjectForUser(userID),
				"roles":      roles,
				"token":      token,
				"expires_at": expiresAt.Format(time.RFC3339),
			})
		}),
	}
	issue.Flags().UintVar(&userID, "user", 0, "user id")
	issue.Flags().StringVar(&role, "role", "", "ops, finance or driver")
	issue.Flags().UintVar(&driverID, "driver", 0, "driver id, required for the driver role")
	_ = issue.MarkFlagRequired("user")
	_ = issue.MarkFlagRequired("role")

	cmd.AddCommand(issue)
	return cmd
}

package main

import (
	"fmt"

	"github.com/padala-next/internal/provider"

	"github.com/spf13/cobra"
)

func newAuthzCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "authz",
		Short: "Casbin role and policy management",
	}

	roles := &cobra.Command{
		Use:   "roles",
		Short: "List roles and their policies",
		RunE: withContainer(func(cmd *cobra.Command, _ []string, c *provider.Container) error {
			names, err := c.AuthzService.ListRoles()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, role := range names {
				fmt.Fprintln(out, role)
				policies, err := c.AuthzService.GetRolePolicies(role)
				if err != nil {
					return err
				}
				for _, p := range policies {
					fmt.Fprintf(out, "  %-6s %s\n", p.Action, p.Object)
				}
			}
			return nil
		}),
	}

	grant := &cobra.Command{
		Use:   "grant <role> <method> <path>",
		Short: "Allow a role to call an API path",
		Args:  cobra.ExactArgs(3),
		RunE: withContainer(func(cmd *cobra.Command, args []string, c *provider.Container) error {
			if err := c.AuthzService.GrantRolePolicy(args[0], args[2], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "granted %s %s to %s\n", args[1], args[2], args[0])
			return nil
		}),
	}

	revoke := &cobra.Command{
		Use:   "revoke <role> <method> <path>",
		Short: "Remove an API permission from a role",
		Args:  cobra.ExactArgs(3),
		RunE: withContainer(func(cmd *cobra.Command, args []string, c *provider.Container) error {
			if err := c.AuthzService.RevokeRolePolicy(args[0], args[2], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "revoked %s %s from %s\n", args[1], args[2], args[0])
			return nil
		}),
	}

	var userID uint
	userRoles := &cobra.Command{
		Use:   "user-roles",
		Short: "Show the roles bound to a user",
		RunE: withContainer(func(cmd *cobra.Command, _ []string, c *provider.Container) error {
			names, err := c.AuthzService.GetUserRoles(userID)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]interface{}{"user_id": userID, "roles": names})
		}),
	}
	userRoles.Flags().UintVar(&userID, "user", 0, "user id")
	_ = userRoles.MarkFlagRequired("user")

	cmd.AddCommand(roles, grant, revoke, userRoles)
	return cmd
}

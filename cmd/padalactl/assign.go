package main

import (
	"github.com/padala-next/internal/provider"

	"github.com/spf13/cobra"
)

func newAssignCmd() *cobra.Command {
	var rejectedBy uint
	cmd := &cobra.Command{
		Use:   "assign <order-id>",
		Short: "Assign the best available driver to a pending order",
		Long:  `assign picks a driver for a pending order. With --rejected-by it reassigns an order the given driver turned down.`,
		Args:  cobra.ExactArgs(1),
		RunE: withContainer(func(cmd *cobra.Command, args []string, c *provider.Container) error {
			orderID, err := parseID(args[0])
			if err != nil {
				return err
			}
			if rejectedBy > 0 {
				result, err := c.AssignmentService.Reassign(cmd.Context(), orderID, rejectedBy)
				if err != nil {
					return err
				}
				return printJSON(cmd, result)
			}
			result, err := c.AssignmentService.Assign(cmd.Context(), orderID)
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		}),
	}
	cmd.Flags().UintVar(&rejectedBy, "rejected-by", 0, "driver id that rejected the order")
	return cmd
}

package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/padala-next/internal/provider"
	"github.com/padala-next/internal/service"

	"github.com/spf13/cobra"
)

func newSettleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settle",
		Short: "Settlement jobs",
	}

	var at string
	run := &cobra.Command{
		Use:   "run",
		Short: "Process every pending settlement due at the given time",
		RunE: withContainer(func(cmd *cobra.Command, _ []string, c *provider.Container) error {
			when, err := parseAt(at)
			if err != nil {
				return err
			}
			result, err := c.SettlementService.ProcessDue(cmd.Context(), when)
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		}),
	}
	run.Flags().StringVar(&at, "at", "", "RFC3339 time, defaults to now")

	retry := &cobra.Command{
		Use:   "retry <settlement-id>",
		Short: "Move a failed settlement back to pending",
		Args:  cobra.ExactArgs(1),
		RunE: withContainer(func(cmd *cobra.Command, args []string, c *provider.Container) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			row, err := c.SettlementService.RetryFailed(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd, row)
		}),
	}

	var (
		schedule string
		timezone string
		hour     int
	)
	next := &cobra.Command{
		Use:   "schedule",
		Short: "Print the next payout time for a schedule",
		RunE: func(cmd *cobra.Command, _ []string) error {
			when, err := parseAt(at)
			if err != nil {
				return err
			}
			payoutAt, err := service.NextPayoutTime(schedule, when, service.LoadLocation(timezone), hour)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), payoutAt.Format(time.RFC3339))
			return nil
		},
	}
	next.Flags().StringVar(&schedule, "schedule", "daily", "daily, weekly or monthly")
	next.Flags().StringVar(&timezone, "timezone", "Asia/Manila", "payout timezone")
	next.Flags().IntVar(&hour, "hour", 9, "payout hour of day")
	next.Flags().StringVar(&at, "at", "", "RFC3339 time, defaults to now")

	cmd.AddCommand(run, retry, next)
	return cmd
}

func parseAt(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Now(), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --at %q: %w", raw, err)
	}
	return t, nil
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return uint(id), nil
}

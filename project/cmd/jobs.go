package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"timebot/project/infrastructure/config"
)

func newRemindCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remind",
		Short: "Send time report reminders that are due now and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, config.ServiceTypeJob)
			if err != nil {
				return err
			}
			defer a.close(context.Background())

			sent, err := a.reminders.RunDue(ctx, time.Now())
			if err != nil {
				return err
			}
			slog.InfoContext(ctx, "reminders sent", "count", sent)
			return nil
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, config.ServiceTypeJob)
			if err != nil {
				return err
			}
			defer a.close(context.Background())

			if err := a.db.Migrate(ctx); err != nil {
				return err
			}
			slog.InfoContext(ctx, "schema migrated")
			return nil
		},
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var (
		flagTime     string
		flagTimezone string
		flagDryRun   bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the daily warmup scheduler in the foreground",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if flagTime != "" {
				cfg.TriggerTime = flagTime
			}
			if flagTimezone != "" {
				cfg.Timezone = flagTimezone
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			if flagDryRun {
				// Schedule preview only; no credential or network access.
				sched, err := buildSchedule(cfg)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), scheduleText(sched, time.Now()))
				return nil
			}

			a, err := buildApp(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := a.scheduler().Run(ctx); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&flagTime, "time", "", "daily trigger time, HH:MM (overrides config)")
	cmd.Flags().StringVar(&flagTimezone, "timezone", "", "IANA timezone for the trigger time (overrides config)")
	cmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "print the computed schedule and exit")
	return cmd
}

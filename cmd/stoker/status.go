package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"stoker/internal/codeassist"
	"stoker/internal/scheduler"
	"stoker/internal/warmup"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the schedule and a live quota snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			a, err := buildApp(cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprint(out, scheduleText(a.schedule, time.Now()))

			// Read-only snapshot: probe and fetch, never trigger.
			ctx := cmd.Context()
			token, err := a.auth.Exchange(ctx, a.refreshToken)
			if err != nil {
				return err
			}
			ep, err := a.gateway.Probe(ctx, token, a.gateway.Endpoints())
			if err != nil {
				return err
			}
			pools, err := a.gateway.FetchQuota(ctx, token, ep)
			if err != nil {
				return err
			}

			fmt.Fprint(out, quotaText(ep, pools))
			return nil
		},
	}
}

// scheduleText renders the schedule section. Pure in now and the schedule, so
// repeated calls with the same inputs print the same text.
func scheduleText(s *scheduler.Schedule, now time.Time) string {
	trigger := s.NextTrigger(now)
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", bold("Schedule:"), s)
	fmt.Fprintf(&b, "%s %s\n", bold("Next trigger:"), trigger.Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(&b, "%s ~%s\n", bold("Quota refresh:"), s.RefreshEstimate(trigger).Format("2006-01-02 15:04 MST"))
	return b.String()
}

func quotaText(ep codeassist.Endpoint, pools []codeassist.QuotaPool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s (project %s)\n", bold("Endpoint:"), ep.BaseURL, ep.ProjectID)
	if len(pools) == 0 {
		b.WriteString("  no recognized model pools\n")
		return b.String()
	}
	for _, p := range pools {
		fmt.Fprintf(&b, "  %-14s %s\n", p.Pool.ID, remainingLabel(p))
	}
	return b.String()
}

func remainingLabel(p codeassist.QuotaPool) string {
	if !p.HasRemaining {
		return gray("unknown")
	}
	// Stored as a fraction; shown as a percentage.
	text := fmt.Sprintf("%5.1f%%", p.Remaining*100)
	if p.ResetTime != nil {
		text += fmt.Sprintf("  resets %s", p.ResetTime.Format("15:04 MST"))
	}
	if p.Remaining >= warmup.DefaultWarmThreshold {
		return green(text)
	}
	return yellow(text)
}

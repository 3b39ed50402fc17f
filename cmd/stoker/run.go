package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"stoker/internal/codeassist"
	"stoker/internal/warmup"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run one warmup pass immediately",
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

			run, err := a.scheduler().RunNow(cmd.Context())
			if err != nil {
				return &ExitCodeError{Code: 2, Err: err}
			}
			printRun(cmd.OutOrStdout(), run)
			return nil
		},
	}
}

func printRun(w io.Writer, run *warmup.PipelineRun) {
	fmt.Fprintf(w, "%s %s (project %s)\n", bold("Endpoint:"), run.Endpoint, run.ProjectID)
	for _, r := range run.Results {
		fmt.Fprintf(w, "  %-14s %s\n", r.Pool, outcomeLabel(r))
	}
}

func outcomeLabel(r codeassist.TriggerResult) string {
	switch r.Outcome {
	case codeassist.OutcomeSuccess:
		return green("triggered")
	case codeassist.OutcomeSkippedCycleActive:
		return green("cycle already active")
	case codeassist.OutcomeSkippedNoInfo:
		return gray("skipped (no quota info)")
	case codeassist.OutcomeRateLimited:
		return yellow("rate limited")
	default:
		if r.HTTPStatus != 0 {
			return red(fmt.Sprintf("failed (HTTP %d)", r.HTTPStatus))
		}
		return red("failed: " + r.Message)
	}
}

package main

import (
	"github.com/spf13/cobra"

	"stoker/internal/config"
	"stoker/internal/logging"
)

var (
	flagConfig  string
	flagVerbose bool
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "stoker",
		Short: "Keep Code Assist quota windows warm",
		Long: "stoker fires one minimal billed request per model pool at a fixed\n" +
			"local time each day, so the rolling quota window is already running\n" +
			"when the workday starts.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flagVerbose {
				logging.SetLevel(logging.LevelDebug)
			}
		},
	}

	root.PersistentFlags().StringVar(&flagConfig, "config", "", "config file path (default ~/.config/stoker/config.yaml)")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newRunCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newStatusCmd())
	root.AddCommand(newCredentialCmd())
	root.AddCommand(&cobra.Command{
		Use:   "export-credential",
		Short: "Print the refresh token that would be used",
		Args:  cobra.NoArgs,
		RunE:  exportCredential,
	})
	return root
}

func loadConfig() (config.Config, error) {
	return config.Load(flagConfig)
}

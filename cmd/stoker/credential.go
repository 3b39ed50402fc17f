package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"stoker/internal/credstore"
)

func newCredentialCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credential",
		Short: "Manage the stored refresh token",
	}
	cmd.AddCommand(newCredentialSetCmd())
	cmd.AddCommand(newCredentialExportCmd())
	cmd.AddCommand(newCredentialClearCmd())
	return cmd
}

func newCredentialSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set",
		Short: "Store a refresh token in the OS keyring (read from stdin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reader := bufio.NewReader(cmd.InOrStdin())
			line, err := reader.ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("read token from stdin: %w", err)
			}
			token := strings.TrimSpace(line)
			if err := credstore.NewStore().Set(token); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Refresh token stored in keyring")
			return nil
		},
	}
}

func newCredentialExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Print the refresh token that would be used",
		Args:  cobra.NoArgs,
		RunE:  exportCredential,
	}
}

func newCredentialClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove the refresh token from the OS keyring",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := credstore.NewStore().Delete(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Refresh token removed from keyring")
			return nil
		},
	}
}

// exportCredential prints the resolved token: configuration and environment
// win over the keyring, matching the runtime resolution order.
func exportCredential(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	token, err := credstore.NewStore().Resolve(cfg.RefreshToken)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}

// Package cli wires configuration, storage and the terminal UI into the
// tiempo command tree.
package cli

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sadopc/tiempo/internal/auth"
	"github.com/sadopc/tiempo/internal/tui"
	"github.com/sadopc/tiempo/internal/version"
)

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
}

// NewRootCommand creates the top-level Cobra command. Without a subcommand it
// launches the TUI.
func NewRootCommand(ctx context.Context) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:     "tiempo",
		Short:   "Track working time per client and task from your terminal.",
		Version: version.Info(),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts.configPath)
			if err != nil {
				return err
			}

			closeLog, err := setupLogging(cfg)
			if err != nil {
				return err
			}
			defer closeLog()

			b, err := openBackend(ctx, cfg)
			if err != nil {
				return err
			}
			defer b.Close()

			app := tui.NewApp(ctx, tui.Options{
				Repo:             b.repo,
				Auth:             b.auth,
				Session:          auth.SessionFile{Path: cfg.SessionPath},
				ReminderInterval: cfg.ReminderInterval,
				ExportDir:        cfg.ExportDir,
			})
			if _, err := tea.NewProgram(app, tea.WithAltScreen()).Run(); err != nil {
				return fmt.Errorf("run TUI: %w", err)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetVersionTemplate("{{.Version}}\n")
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default ~/.config/tiempo/tiempo.yaml)")

	cmd.AddCommand(
		newServeCommand(ctx, opts),
		newExportCommand(ctx, opts),
		newGrantAdminCommand(ctx, opts),
		newVersionCommand(),
	)

	return cmd
}

// ExecuteCommand is a thin wrapper that executes the Cobra root command.
func ExecuteCommand(ctx context.Context) error {
	return NewRootCommand(ctx).Execute()
}

// Main is a helper used by main.go to keep wiring contained in one package.
func Main(ctx context.Context) {
	if err := ExecuteCommand(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Info())
		},
	}
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sadopc/tiempo/internal/api"
	"github.com/sadopc/tiempo/internal/auth"
	"github.com/sadopc/tiempo/internal/config"
)

func newServeCommand(ctx context.Context, opts *rootOptions) *cobra.Command {
	var addrFlag string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API over the local database.",
		Long:  "serve exposes the configured SQLite or Postgres database to remote TUI clients until interrupted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts.configPath)
			if err != nil {
				return err
			}
			if cfg.Backend == config.BackendRemote {
				return errors.New("serve needs a local database backend (sqlite or postgres)")
			}

			s, err := openLocal(ctx, cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			addr := cfg.ServerAddress
			if addrFlag != "" {
				addr = addrFlag
			}

			runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			svc := auth.NewService(s, cfg.AuthConfig(), cfg.RegistrationPassphrase)
			serverCfg := api.DefaultServerConfig(addr)
			server := api.NewServer(serverCfg, api.NewHandler(s, svc).Routes())

			fmt.Fprintf(cmd.OutOrStdout(), "Serving %s database on %s\n", cfg.Backend, addr)
			return api.Serve(runCtx, server, serverCfg.ShutdownTimeout)
		},
	}
	cmd.Flags().StringVar(&addrFlag, "addr", "", "listen address (overrides server.address)")

	return cmd
}

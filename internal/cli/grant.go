package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sadopc/tiempo/internal/auth"
	"github.com/sadopc/tiempo/internal/config"
	"github.com/sadopc/tiempo/internal/store"
)

func newGrantAdminCommand(ctx context.Context, opts *rootOptions) *cobra.Command {
	var roleFlag string

	cmd := &cobra.Command{
		Use:   "grant-admin <email>",
		Short: "Set the role of a registered user.",
		Long:  "grant-admin changes a role directly in the local database. Use it to appoint the first administrator.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts.configPath)
			if err != nil {
				return err
			}
			if cfg.Backend == config.BackendRemote {
				return errors.New("grant-admin needs a local database backend; run it where the server runs")
			}

			s, err := openLocal(ctx, cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			p, err := auth.SetRole(ctx, s, args[0], roleFlag)
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("no user registered with email %q", args[0])
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", p.Email, p.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&roleFlag, "role", store.RoleAdmin, "role to set: admin|user")

	return cmd
}

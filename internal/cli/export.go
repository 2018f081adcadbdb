package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sadopc/tiempo/internal/auth"
	"github.com/sadopc/tiempo/internal/duration"
	"github.com/sadopc/tiempo/internal/export"
	"github.com/sadopc/tiempo/internal/timesheet"
	"github.com/sadopc/tiempo/internal/tui"
)

func newExportCommand(ctx context.Context, opts *rootOptions) *cobra.Command {
	var (
		formatFlag   string
		outputFlag   string
		emailFlag    string
		passwordFlag string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export your time history to a file.",
		Long:  "export writes every entry of the signed-in user. Without --email it reuses the session saved by the TUI.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := parseFormat(formatFlag)
			if err != nil {
				return err
			}

			cfg, err := loadConfig(opts.configPath)
			if err != nil {
				return err
			}

			b, err := openBackend(ctx, cfg)
			if err != nil {
				return err
			}
			defer b.Close()

			sess, err := authenticate(ctx, b.auth, auth.SessionFile{Path: cfg.SessionPath}, emailFlag, passwordFlag)
			if err != nil {
				return err
			}

			entries, err := b.repo.ListEntries(ctx, sess.Profile.ID)
			if err != nil {
				return fmt.Errorf("list entries: %w", err)
			}
			name := sess.Profile.DisplayName()
			timesheet.StampUsername(entries, name)

			path := outputFlag
			if path == "" {
				path = filepath.Join(cfg.ExportDir, export.FileName(f, time.Now()))
			}
			if err := export.Write(f, entries, name, path); err != nil {
				if errors.Is(err, export.ErrNoEntries) {
					return errors.New("no entries to export")
				}
				return err
			}

			sum := timesheet.Summarize(entries)
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d entries (%s) to %s\n",
				sum.Count, duration.FormatHoursMinutes(sum.TotalSeconds), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&formatFlag, "format", string(export.FormatXLSX), "file format: xlsx|csv|json")
	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "output path (default export_dir/registro-tiempo-<date>.<format>)")
	cmd.Flags().StringVar(&emailFlag, "email", "", "sign in with this email instead of the saved session")
	cmd.Flags().StringVar(&passwordFlag, "password", "", "password for --email")

	return cmd
}

func parseFormat(value string) (export.Format, error) {
	switch f := export.Format(strings.ToLower(strings.TrimSpace(value))); f {
	case export.FormatXLSX, export.FormatCSV, export.FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("invalid format %q (expected xlsx|csv|json)", value)
	}
}

// authenticate signs in with the given credentials, or resumes the session
// the TUI saved when email is empty.
func authenticate(ctx context.Context, a tui.Authenticator, session auth.SessionFile, email, password string) (*auth.Session, error) {
	if email != "" {
		s, err := a.SignIn(ctx, email, password)
		if err != nil {
			return nil, fmt.Errorf("sign in: %w", err)
		}
		return s, nil
	}

	token, err := session.Load()
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, errors.New("not signed in: pass --email and --password or sign in from the TUI first")
	}
	s, err := a.Resume(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("resume session: %w", err)
	}
	return s, nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/thorsignia/backend/internal/config"
	"github.com/thorsignia/backend/internal/database"
	"github.com/thorsignia/backend/internal/logging"
	"github.com/thorsignia/backend/internal/repository"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFiles []string

	root := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the contacts schema",
		Long: `Applies, inspects or resets the contacts schema on the engine the
server would select (DATABASE_URL, VERCEL, SQLITE_PATH).`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, ".env files to load (default: ./.env)")

	withDB := func(run func(ctx context.Context, cfg *config.Config, db database.DB, out io.Writer) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(envFiles...)
			if err != nil {
				return err
			}
			logger := logging.Setup(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: cmd.ErrOrStderr()})

			opts := cfg.DatabaseOptions()
			opts.Logger = logger
			db, err := database.Open(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer db.Close()
			return run(cmd.Context(), cfg, db, cmd.OutOrStdout())
		}
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Create the contacts table if it is missing",
			Args:  cobra.NoArgs,
			RunE:  withDB(runUp),
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show the selected engine and the contacts table state",
			Args:  cobra.NoArgs,
			RunE:  withDB(runStatus),
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Drop and recreate the contacts table (refused in production)",
			Args:  cobra.NoArgs,
			RunE:  withDB(runReset),
		},
	)
	return root
}

// runUp only reports: Open has already bootstrapped the schema.
func runUp(_ context.Context, _ *config.Config, db database.DB, out io.Writer) error {
	fmt.Fprintf(out, "schema ready on %s\n", db.Kind())
	return nil
}

func runStatus(ctx context.Context, _ *config.Config, db database.DB, out io.Writer) error {
	stats, err := repository.NewSQLContactRepository(db).Stats(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "engine:  %s\n", db.Kind())
	fmt.Fprintf(out, "table:   %s (exists=%t)\n", database.ContactsTable, stats.TableExists)
	fmt.Fprintf(out, "rows:    %d\n", stats.RowCount)
	if stats.Latest != nil {
		fmt.Fprintf(out, "latest:  #%d %s\n", stats.Latest.ID, stats.Latest.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func runReset(ctx context.Context, cfg *config.Config, db database.DB, out io.Writer) error {
	if cfg.Hosted() {
		return errors.New("reset refused: APP_ENV is production")
	}
	if err := database.ResetSchema(ctx, db); err != nil {
		return err
	}
	fmt.Fprintf(out, "contacts table recreated on %s\n", db.Kind())
	return nil
}

package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"footprint/internal/cli"
	"footprint/internal/config"
	"footprint/internal/storage"
)

type rootOptions struct {
	dbPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "footprintctl",
		Short:         "footprintctl manages emission factors and inspects user footprints",
		Long:          "footprintctl works directly on the footprint SQLite database: it imports factor tables and prints the same summaries the API serves.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.dbPath, "db", "", "Path to SQLite database (default $SQLITE_DB_PATH)")

	root.AddCommand(newFactorsCmd(opts))
	root.AddCommand(newSummaryCmd(opts))
	return root
}

// withRepo opens the database, applying migrations, for the duration of run.
func withRepo(ctx context.Context, opts *rootOptions, run func(*storage.SQLiteRepository) error) error {
	path := strings.TrimSpace(opts.dbPath)
	if path == "" {
		cli.LoadEnvFile()
		path = config.Load().SQLiteDBPath
	}
	repo, err := storage.NewSQLiteRepository(path)
	if err != nil {
		return err
	}
	defer repo.Close()

	if err := ctx.Err(); err != nil {
		return err
	}
	return run(repo)
}

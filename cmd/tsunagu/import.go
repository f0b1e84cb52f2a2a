package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/tsunagu/internal/catalog"
	"github.com/hyperjump/tsunagu/internal/storage"
)

func importCmd(opts *globalOptions) *cobra.Command {
	var (
		from   string
		dbPath string
	)
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Validate catalog data and store it as a SQLite snapshot",
		Long: `Load a catalog (the embedded seed data, or a directory of YAML files),
validate it, and replace the SQLite snapshot with it. Set catalog.source to
sqlite to serve from the snapshot.`,
		Example: `  tsunagu import
  tsunagu import --from data/catalog --db /var/lib/tsunagu/catalog.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			defer e.logger.Sync()
			if dbPath == "" {
				dbPath = e.cfg.Storage.DatabasePath
			}

			var cat *catalog.Catalog
			if from == "" {
				cat, err = catalog.Default(e.logger)
			} else {
				cat, err = catalog.Load(from, e.logger)
			}
			if err != nil {
				return err
			}

			store, err := storage.NewSQLiteStorage(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.SaveCatalog(cmd.Context(), cat.Snapshot()); err != nil {
				return fmt.Errorf("failed to save catalog: %w", err)
			}
			chapters, err := store.CountChapters(cmd.Context())
			if err != nil {
				return err
			}
			verses, err := store.CountVerses(cmd.Context())
			if err != nil {
				return err
			}
			e.logger.Info("catalog imported", zap.String("db", dbPath), zap.Int64("chapters", chapters), zap.Int64("verses", verses))
			fmt.Fprintf(e.out, "Imported %d chapters (%d verses) into %s\n", chapters, verses, dbPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "directory of catalog YAML files (default: embedded seed data)")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (default from config)")
	return cmd
}

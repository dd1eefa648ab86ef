package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brandon-relentnet/vector-tasks/internal/config"
	"github.com/brandon-relentnet/vector-tasks/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Long: `Apply the Vector Tasks schema to the configured SQLite database.

The schema is additive: existing rows are never touched, and running
migrate against an up-to-date database is a no-op.

Examples:
  vector-tasks migrate
  vector-tasks migrate --config ./config.yaml`,
	RunE: runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer st.Close()

	if err := st.Migrate(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	fmt.Printf("Schema up to date: %s\n", cfg.Database.Path)
	return nil
}

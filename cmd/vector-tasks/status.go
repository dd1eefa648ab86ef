package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/brandon-relentnet/vector-tasks/internal/config"
	"github.com/brandon-relentnet/vector-tasks/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and database statistics",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	fmt.Println("Vector Tasks Status")
	fmt.Println(strings.Repeat("=", 40))

	fmt.Println("\nConfiguration:")
	fmt.Printf("  Server:    %s\n", cfg.Server.Addr)
	fmt.Printf("  Database:  %s\n", cfg.Database.Path)
	fmt.Printf("  Cache:     %s\n", cfg.Cache.Backend)
	fmt.Printf("  Timezone:  %s (rollover %02d:00)\n", cfg.Calendar.Timezone, cfg.Calendar.RolloverHour)

	fmt.Println("\nConnecting to database...")

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		fmt.Printf("  Status:    FAILED (%s)\n", err)
		return nil // report status, don't fail the command
	}
	defer st.Close()

	fmt.Println("  Status:    CONNECTED")

	stats, err := st.Stats()
	if err != nil {
		fmt.Printf("\nRow counts: error (%s)\n", err)
		return nil
	}

	fmt.Println("\nRow counts:")
	total := 0
	for _, table := range []string{"projects", "tasks", "daily_logs", "briefings"} {
		fmt.Printf("  %-12s %d\n", table+":", stats[table])
		total += stats[table]
	}
	fmt.Printf("  %-12s %d\n", "TOTAL:", total)

	return nil
}

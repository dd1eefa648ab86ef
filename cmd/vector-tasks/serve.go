package main

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/brandon-relentnet/vector-tasks/internal/cache"
	"github.com/brandon-relentnet/vector-tasks/internal/calendar"
	"github.com/brandon-relentnet/vector-tasks/internal/config"
	"github.com/brandon-relentnet/vector-tasks/internal/notify"
	"github.com/brandon-relentnet/vector-tasks/internal/store"
	"github.com/brandon-relentnet/vector-tasks/internal/web"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long: `Start the Vector Tasks API server.

Examples:
  vector-tasks serve
  vector-tasks serve --addr :9090
  vector-tasks serve --config ~/.vector-tasks/config.yaml`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	clock, err := calendar.NewClock(cfg.Calendar.Timezone, cfg.Calendar.RolloverHour)
	if err != nil {
		return fmt.Errorf("calendar config: %w", err)
	}

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer st.Close()

	backend, err := openCacheBackend(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	cacheSvc := cache.NewService(backend)
	defer cacheSvc.Close()

	server := web.NewServer(st, cacheSvc, notify.NewNotifier(), clock)

	fmt.Printf("Starting Vector Tasks at http://localhost%s\n", cfg.Server.Addr)
	return server.Run(cfg.Server.Addr)
}

func openCacheBackend(ctx context.Context, cfg *config.Config) (cache.Cache, error) {
	switch cfg.Cache.Backend {
	case "redis":
		backend, err := cache.NewRedis(ctx, cfg.Cache.Redis.Addr, cfg.Cache.Redis.Password, cfg.Cache.Redis.DB)
		if err != nil {
			return nil, fmt.Errorf("connect redis %s: %w", cfg.Cache.Redis.Addr, err)
		}
		return backend, nil
	default:
		return cache.NewMemory(), nil
	}
}

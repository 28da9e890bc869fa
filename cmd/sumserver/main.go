package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/sumctl/internal/admin"
	"github.com/danmuck/sumctl/internal/config"
	"github.com/danmuck/sumctl/internal/exchange"
	"github.com/danmuck/sumctl/internal/observability"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	_ = godotenv.Load()
	logger := observability.InitLogger("sumserver")

	configPath, required := os.LookupEnv(config.EnvServerConfig)
	if !required {
		configPath = config.ServerConfigPath
	}
	cfg, err := config.LoadServerConfig(configPath, required)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load server config")
	}
	log.Info().Str("path", configPath).Str("listen", cfg.ListenAddr).Msg("loaded server config")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := exchange.Listen(ctx, cfg.ListenAddr, exchange.ServerConfig{
		Name:       cfg.Name,
		PrefixSums: cfg.WithPrefixSums(),
		Workers:    cfg.Workers,
	}, logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to bind")
	}

	if cfg.AdminAddr != "" {
		a := admin.New(cfg.Name, cfg.AdminAddr, cfg.CorsOrigins, admin.Info{
			ListenAddr: srv.Addr().String(),
			PrefixSums: cfg.WithPrefixSums(),
			Workers:    cfg.Workers,
		})
		a.SetReady(true)
		go func() {
			if err := a.Serve(ctx); err != nil {
				log.Error().Err(err).Msg("admin stopped")
			}
		}()
	}

	if err := srv.Serve(ctx); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

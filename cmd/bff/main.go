// Package main is the entry point for the storefront session BFF. It loads
// configuration, picks the durable session store backing, and starts the HTTP
// surface the SPA talks to.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/mesavista/storefront-core/internal/api"
	apiruntime "github.com/mesavista/storefront-core/internal/api/runtime"
	"github.com/mesavista/storefront-core/internal/core/ports"
	"github.com/mesavista/storefront-core/internal/infrastructure/backend"
	"github.com/mesavista/storefront-core/internal/infrastructure/config"
	"github.com/mesavista/storefront-core/internal/infrastructure/store"
	"github.com/mesavista/storefront-core/pkg/logger"
)

func main() {
	// Best-effort .env load for local development; real deployments set the
	// environment directly.
	_ = godotenv.Load()

	ctx := context.Background()
	cfg, err := config.Load(ctx)
	if err != nil {
		panic(err)
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.Env == "development",
		Service: "storefront-bff",
	})

	secret := cfg.SessionSecret
	if secret == "" {
		if cfg.Env != "development" {
			log.Fatal().Msg("SESSION_SECRET is required outside development")
		}
		secret = randomSecret()
		log.Warn().Msg("SESSION_SECRET not set, using a throwaway secret; cookies will not survive restarts")
	}

	// --- Durable session store ---
	var rdb *redis.Client
	var stores apiruntime.StoreFactory
	switch cfg.Store.Backend {
	case "redis":
		rdb, err = store.Connect(ctx, cfg.Redis.Addr, cfg.Redis.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer rdb.Close()
		stores = func(ns string) ports.SessionStore {
			return store.NewRedis(rdb, ns, cfg.Runtime.IdleTTL, logger.Named("store"))
		}
		log.Info().Str("addr", cfg.Redis.Addr).Msg("session store: redis")
	default:
		stores = func(ns string) ports.SessionStore {
			return store.NewFile(cfg.Store.Dir, ns, logger.Named("store"))
		}
		log.Info().Str("dir", cfg.Store.Dir).Msg("session store: file")
	}

	// --- Per-browser runtimes ---
	manager := apiruntime.NewManager(apiruntime.Config{
		BackendBaseURL: cfg.Backend.BaseURL,
		BackendTimeout: cfg.Backend.Timeout,
		IdleTTL:        cfg.Runtime.IdleTTL,
	}, stores, logger.Named("runtime"))

	sweepCtx, stopSweeper := context.WithCancel(ctx)
	defer stopSweeper()
	manager.StartSweeper(sweepCtx)

	// --- HTTP surface ---
	probe := backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout)
	e := api.NewRouter(api.RouterConfig{
		SessionSecret: secret,
		CookieTTL:     cfg.Runtime.CookieTTL,
	}, manager, probe, rdb, log)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("forced shutdown")
		}
	}()

	log.Info().
		Str("port", cfg.Port).
		Str("backend", cfg.Backend.BaseURL).
		Msg("storefront BFF listening")

	if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func randomSecret() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

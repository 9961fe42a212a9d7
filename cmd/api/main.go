package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/naydelinzavala7/back-login-mongo/internal/account"
	"github.com/naydelinzavala7/back-login-mongo/internal/auth"
	"github.com/naydelinzavala7/back-login-mongo/internal/config"
	"github.com/naydelinzavala7/back-login-mongo/internal/db"
	httpx "github.com/naydelinzavala7/back-login-mongo/internal/http"
	"github.com/naydelinzavala7/back-login-mongo/internal/observability"
	"github.com/naydelinzavala7/back-login-mongo/internal/redisclient"
	"github.com/naydelinzavala7/back-login-mongo/internal/repo/memory"
	"github.com/naydelinzavala7/back-login-mongo/internal/repo/mongodb"
	"github.com/naydelinzavala7/back-login-mongo/internal/repo/postgres"
)

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid config", "err", err)
		os.Exit(1)
	}

	shutdownTracer, err := observability.InitTracer(context.Background(), "accounts-api", cfg.OTLPEndpoint)
	if err != nil {
		log.Error("tracer init failed", "err", err)
		os.Exit(1)
	}

	prom := observability.NewProm(observability.NewRegistry())

	store, closeStore, err := openStore(cfg, prom, log)
	if err != nil {
		log.Error("store init failed", "driver", cfg.StoreDriver, "err", err)
		os.Exit(1)
	}

	revocations, closeRevocations, err := openRevocations(cfg, log)
	if err != nil {
		log.Error("redis init failed", "addr", cfg.RedisAddr, "err", err)
		os.Exit(1)
	}

	tokens := auth.NewManager(cfg.TokenSecret, cfg.TokenTTL, revocations, cfg.TokenRevokeRetention)
	accounts := account.NewService(store, tokens)

	var shuttingDown atomic.Bool

	router := httpx.NewRouter(httpx.Deps{
		Log:          log,
		Config:       cfg,
		Accounts:     accounts,
		Tokens:       tokens,
		Prom:         prom,
		ShuttingDown: shuttingDown.Load,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.StoreDriver)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	// readiness goes red before the listener closes
	shuttingDown.Store(true)

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}

		closeRevocations()
		closeStore(ctx)

		if err := shutdownTracer(ctx); err != nil {
			log.Error("tracer shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}

// openStore builds the user store selected by STORE_DRIVER and returns its closer.
func openStore(cfg config.Config, prom *observability.Prom, log *slog.Logger) (account.Store, func(context.Context), error) {
	switch cfg.StoreDriver {
	case "mongo":
		client, err := db.NewMongoClient(cfg.MongoURI)
		if err != nil {
			return nil, nil, fmt.Errorf("connect mongo: %w", err)
		}

		repo := mongodb.NewUsersRepo(client.Database(cfg.MongoDatabase), prom)

		ctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, fmt.Errorf("ensure indexes: %w", err)
		}

		log.Info("connected to mongo", "db", cfg.MongoDatabase)

		return repo, func(ctx context.Context) {
			if err := client.Disconnect(ctx); err != nil {
				log.Error("mongo disconnect failed", "err", err)
			}
		}, nil

	case "postgres":
		pool, err := db.NewPool(cfg.DBURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}

		ctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := db.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("ensure schema: %w", err)
		}

		log.Info("connected to postgres")

		return postgres.NewUsersRepo(pool, prom), func(context.Context) { pool.Close() }, nil

	case "memory":
		log.Warn("using in-memory user store, data is lost on restart")
		return memory.NewUsersRepo(), func(context.Context) {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// openRevocations uses redis when REDIS_ADDR is set and falls back to process memory.
func openRevocations(cfg config.Config, log *slog.Logger) (auth.Revocations, func(), error) {
	if cfg.RedisAddr == "" {
		return auth.NewMemoryRevocations(), func() {}, nil
	}

	rdb := redisclient.New(redisclient.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	if err := rdb.Ping(ctx); err != nil {
		_ = rdb.Close()
		return nil, nil, err
	}

	return auth.NewRedisRevocations(rdb), func() {
		if err := rdb.Close(); err != nil {
			log.Error("redis close failed", "err", err)
		}
	}, nil
}

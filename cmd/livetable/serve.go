package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"LiveTable/internal/config"
	"LiveTable/internal/db"
	"LiveTable/internal/handler"
	"LiveTable/internal/logger"
	"LiveTable/internal/query"
	"LiveTable/internal/resolver"
	"LiveTable/internal/router"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the table endpoints over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := logger.Init("."); err != nil {
				return fmt.Errorf("log init: %w", err)
			}
			return serve(cmd.Context(), config.LoadConfig())
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	dialect, err := query.ParseDialect(cfg.Dialect)
	if err != nil {
		return err
	}
	tables, app, err := loadTables(cfg)
	if err != nil {
		return err
	}

	exec, closeDB, err := openExecutor(ctx, cfg, dialect)
	if err != nil {
		return err
	}
	defer closeDB()

	if cfg.PageCache.RedisAddr != "" {
		db.InitRedis(cfg.PageCache.RedisAddr)
		if err := db.PingRedis(ctx); err != nil {
			logger.Warn("redis_unavailable", map[string]any{"error": err.Error()})
			_ = db.RDB.Close()
			db.RDB = nil
		}
	}
	if cache := resolver.NewCache(cfg.PageCache, db.RDB); cache != nil {
		exec = resolver.CachedExecutor{
			Next:  exec,
			Cache: cache,
			TTL:   time.Duration(cfg.PageCache.TTLSec) * time.Second,
		}
	}

	mux, err := router.InitRoutes(cfg, &handler.Tables{
		Tables:  tables,
		App:     app,
		Dialect: dialect,
		Exec:    exec,
	})
	if err != nil {
		return fmt.Errorf("routes: %w", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		logger.Info("server_start", map[string]any{"port": cfg.Port, "dialect": string(dialect)})
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server_error", map[string]any{"error": err.Error()})
			return err
		}
		return nil
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logger.Info("server_stop", nil)
	return srv.Shutdown(shutdownCtx)
}

// openExecutor connects to the configured database.
func openExecutor(ctx context.Context, cfg *config.Config, dialect query.Dialect) (resolver.Executor, func(), error) {
	switch dialect {
	case query.SQLite:
		path := cfg.SQLitePath
		if path == "" {
			path = "livetable.db"
		}
		conn, err := sql.Open("sqlite", path)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		if err := conn.PingContext(ctx); err != nil {
			_ = conn.Close()
			return nil, nil, fmt.Errorf("ping sqlite: %w", err)
		}
		logger.Info("sqlite_connected", map[string]any{"path": path})
		return resolver.SQLExecutor{DB: conn}, func() { _ = conn.Close() }, nil
	default:
		if err := db.InitPostgres(ctx, cfg.PostgresDSN); err != nil {
			return nil, nil, err
		}
		logger.Info("postgres_connected", nil)
		return resolver.PgxExecutor{Pool: db.Pool}, db.ClosePostgres, nil
	}
}

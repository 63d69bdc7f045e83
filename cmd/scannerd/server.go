package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"github.com/kyoo-project/scanner/internal/api"
	"github.com/kyoo-project/scanner/internal/catalog"
	"github.com/kyoo-project/scanner/internal/config"
	"github.com/kyoo-project/scanner/internal/migrations"
	"github.com/kyoo-project/scanner/internal/providers"
	"github.com/kyoo-project/scanner/internal/providers/anilist"
	"github.com/kyoo-project/scanner/internal/providers/composite"
	"github.com/kyoo-project/scanner/internal/providers/thexem"
	"github.com/kyoo-project/scanner/internal/providers/tmdb"
	"github.com/kyoo-project/scanner/internal/providers/tvdb"
	"github.com/kyoo-project/scanner/internal/queue"
	"github.com/kyoo-project/scanner/internal/scanner"
	"github.com/kyoo-project/scanner/internal/worker"
)

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return fmt.Errorf("config: %w", &config.ConfigError{Errors: errs})
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(getenv("SCANNER_LOG_LEVEL", "info")),
	}))

	db, err := sql.Open("postgres", cfg.Postgres.URL)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := migrations.Run(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	electionConn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire election connection: %w", err)
	}
	defer func() { _ = electionConn.Close() }()

	isMaster, err := scanner.TryAcquireMaster(ctx, electionConn)
	if err != nil {
		return fmt.Errorf("master election: %w", err)
	}

	var isHTTPOnly bool
	if !isMaster {
		isHTTPOnly, err = scanner.TryAcquireReplica(ctx, electionConn)
		if err != nil {
			return fmt.Errorf("replica election: %w", err)
		}
	}
	logger.Info("election result", "master", isMaster, "http_only_replica", isHTTPOnly)

	tmdbProvider := buildTMDB(cfg, logger)
	tvdbProvider := buildTVDB(cfg, logger)
	anilistProvider := buildAniList(cfg, logger)
	comp := composite.New(tmdbProvider, tvdbProvider, anilistProvider, logger)

	catalogClient := catalog.NewClient(cfg.Catalog.URL, cfg.Catalog.APIKey, catalog.WithLogger(logger))
	queueStore := queue.NewStore(db)

	if isMaster {
		// Recover requests a previous master claimed but never finished
		// before the worker's first drain.
		if err := queueStore.ResetRunning(); err != nil {
			return fmt.Errorf("reset running requests: %w", err)
		}
	}

	var w *worker.Worker
	if !isHTTPOnly {
		listener, err := queue.NewListener(cfg.Postgres.URL, logger)
		if err != nil {
			return fmt.Errorf("queue listener: %w", err)
		}
		defer func() { _ = listener.Close() }()
		w = worker.New(queueStore, listener, comp, catalogClient, logger)
	}

	var sc *scanner.Scanner
	if isMaster {
		xemClient := thexem.NewClient(thexem.WithLogger(logger))
		sc = scanner.New(scanner.Config{
			Root:          cfg.Library.Root,
			IgnorePattern: cfg.Library.IgnorePattern,
		}, catalogClient, queueStore, xemClient, logger)
	}

	var auth *api.Authenticator
	if cfg.Auth.JWKSURL != "" {
		keyfunc, err := api.NewJWKSKeyfunc(ctx, cfg.Auth.JWKSURL)
		if err != nil {
			return fmt.Errorf("jwks: %w", err)
		}
		auth = api.NewAuthenticator(cfg.Auth.JWTIssuer, keyfunc)
	}

	srv := api.New(sc, auth, logger)
	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)

	httpServer := &http.Server{
		Addr:              cfg.Server.BindAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("admin api listening", "addr", cfg.Server.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("admin api: %w", err)
		}
		return nil
	})

	if w != nil {
		g.Go(func() error {
			logger.Info("starting request worker")
			if err := w.Run(gctx); err != nil && gctx.Err() == nil {
				return fmt.Errorf("worker: %w", err)
			}
			return nil
		})
	} else {
		logger.Info("http-only replica, request worker not started")
	}

	if sc != nil {
		g.Go(func() error {
			logger.Info("starting filesystem monitor")
			if err := sc.Monitor(gctx); err != nil && gctx.Err() == nil {
				return fmt.Errorf("monitor: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			logger.Info("running initial full scan")
			if err := sc.Scan(gctx, true); err != nil {
				logger.Error("initial scan failed", "error", err)
			}
			return nil
		})
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig.String())
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("scannerd stopped")
	return nil
}

func buildTMDB(cfg *config.Config, log *slog.Logger) providers.Provider {
	if cfg.TMDB.Disabled {
		log.Warn("tmdb disabled, no access token configured")
		return providers.Disabled{SourceName: "themoviedatabase"}
	}
	return tmdb.NewClient(cfg.TMDB.AccessToken, tmdb.WithLogger(log))
}

func buildTVDB(cfg *config.Config, log *slog.Logger) providers.Provider {
	if cfg.TVDB.Disabled {
		log.Warn("tvdb disabled, no api key configured")
		return providers.Disabled{SourceName: "thetvdb"}
	}
	return tvdb.NewClient(cfg.TVDB.APIKey, cfg.TVDB.PIN, tvdb.WithLogger(log))
}

func buildAniList(cfg *config.Config, log *slog.Logger) providers.Provider {
	if cfg.AniList.Disabled {
		return providers.Disabled{SourceName: "anilist"}
	}
	return anilist.NewClient(anilist.WithLogger(log))
}

func getenv(name, def string) string {
	if v, ok := os.LookupEnv(name); ok && v != "" {
		return v
	}
	return def
}

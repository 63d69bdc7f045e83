package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/kyoo-project/scanner/internal/autosync"
	"github.com/kyoo-project/scanner/internal/autosync/services"
	"github.com/kyoo-project/scanner/internal/config"
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
	if cfg.RabbitMQ.URL == "" {
		return fmt.Errorf("config: rabbitmq.url is required (RABBITMQ_URL or RABBITMQ_HOST/...)")
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(getenv("SCANNER_LOG_LEVEL", "info")),
	}))

	conn, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		return fmt.Errorf("dial rabbitmq: %w", err)
	}
	defer conn.Close()

	var svcs []services.Service
	simkl := services.NewSimkl(cfg.Simkl.ClientID)
	if simkl.Enabled() {
		logger.Info("simkl sync enabled")
	} else {
		logger.Info("simkl sync disabled, no client id configured")
	}
	svcs = append(svcs, simkl)

	aggregate := services.NewAggregate(logger, svcs...)
	consumer := autosync.NewConsumer(conn, aggregate, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig.String())
		cancel()
	}()

	logger.Info("autosyncd starting")
	if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("consumer: %w", err)
	}
	logger.Info("autosyncd stopped")
	return nil
}

func getenv(name, def string) string {
	if v, ok := os.LookupEnv(name); ok && v != "" {
		return v
	}
	return def
}

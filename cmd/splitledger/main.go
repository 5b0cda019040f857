package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/splitledger/internal/amqp"
	"github.com/mmynk/splitledger/internal/api"
	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/cli"
	"github.com/mmynk/splitledger/internal/config"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/notify"
	"github.com/mmynk/splitledger/internal/service"
	"github.com/mmynk/splitledger/internal/session"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/internal/storage/sqlite"
	"github.com/mmynk/splitledger/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.Setup(os.Stderr, cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("Exiting", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	sess := session.New(auth.NewDecoder(cfg.JWTSecret), logger)
	client := api.New(cfg.APIURL, sess.Token,
		api.WithTimeout(cfg.HTTPTimeout),
		api.WithMetrics(m),
		api.WithLogger(logger),
	)
	defer client.Close()

	store, err := openStore(cfg, client, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	notifier, closeNotifier, err := openNotifier(cfg, client, logger)
	if err != nil {
		return err
	}
	defer closeNotifier()

	authSvc := service.NewAuthService(client, sess, session.NewFileTokenStore(cfg.TokenFile), logger)
	dist := service.NewDistributionService(sess, store, notifier, m, logger)

	restored, err := authSvc.Restore()
	if err != nil {
		logger.Warn("Failed to restore session", "error", err)
	}
	if restored {
		if _, err := dist.Load(ctx); err != nil {
			logger.Warn("Failed to load saved distribution", "error", err)
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	shell := cli.New(authSvc, dist, sess, os.Stdin, os.Stdout, logger)
	g.Go(func() error {
		defer cancel()
		fmt.Fprintln(os.Stdout, "splitledger: type \"help\" for commands")
		err := shell.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if cfg.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Info("Metrics server starting", "address", cfg.MetricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server failed: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	return g.Wait()
}

func openStore(cfg *config.Config, client *api.Client, logger *slog.Logger) (storage.Store, error) {
	switch cfg.DataBackend {
	case config.BackendSQLite:
		store, err := sqlite.New(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		logger.Info("Storage initialized", "backend", cfg.DataBackend, "database", cfg.SQLiteDBPath)
		return store, nil
	default:
		logger.Info("Storage initialized", "backend", cfg.DataBackend, "url", cfg.APIURL)
		return client, nil
	}
}

func openNotifier(cfg *config.Config, client *api.Client, logger *slog.Logger) (notify.Notifier, func() error, error) {
	switch cfg.Notifier {
	case config.NotifierAMQP:
		publisher, err := amqp.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to message broker: %w", err)
		}
		return publisher, publisher.Close, nil
	default:
		return client, func() error { return nil }, nil
	}
}

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/zpages/internal/config"
	"github.com/hamed0406/zpages/internal/health"
	"github.com/hamed0406/zpages/internal/httpapi"
	"github.com/hamed0406/zpages/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := logging.NewLogger(cfg.LogDir, cfg.Debug)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	// A bad dependency descriptor is fatal here, before the listener
	// ever opens.
	reg, err := health.BuildRegistry(
		cfg.Probes.Dependencies,
		cfg.Probes.Scheme,
		cfg.Probes.Prefix,
		cfg.Probes.CheckTimeoutDuration(),
		nil,
	)
	if err != nil {
		logger.Error("registry_build_failed", zap.Error(err))
		log.Fatal(err)
	}

	agg := health.NewAggregator(
		logger,
		reg,
		cfg.Probes.CheckTimeoutDuration(),
		cfg.Probes.AggregateTimeoutDuration(),
		cfg.Probes.Concurrency,
	)

	api := httpapi.NewServer(logger, agg, httpapi.Options{
		Prefix:                  cfg.Probes.Prefix,
		AppName:                 cfg.Info.AppName,
		EnableServiceInstanceID: cfg.Info.EnableServiceInstanceID,
	})

	srv := &http.Server{Addr: cfg.Addr, Handler: api.Router()}

	errC := make(chan error, 1)
	go func() {
		logger.Info("api_listen",
			zap.String("addr", cfg.Addr),
			zap.String("prefix", cfg.Probes.Prefix),
			zap.Int("dependencies", reg.Len()),
		)
		errC <- srv.ListenAndServe()
	}()

	termC := make(chan os.Signal, 1)
	signal.Notify(termC, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-termC:
		logger.Info("shutdown_signal", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("shutdown_error", zap.Error(err))
		}
	case err := <-errC:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("listen_failed", zap.Error(err))
			log.Fatal(err)
		}
	}
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"platewatch-service/internal/config"
	"platewatch-service/internal/db"
	httpapi "platewatch-service/internal/http"
	"platewatch-service/internal/logger"
	"platewatch-service/internal/metrics"
	"platewatch-service/internal/notify"
	"platewatch-service/internal/repository"
	"platewatch-service/internal/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", os.Getenv("PLATEWATCH_CONFIG"), "path to an optional YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log)
	if cfg.OnLogLevelChange(func(level string) {
		logger.SetLevel(level)
		log.Info().Str("level", level).Msg("log level changed")
	}) {
		log.Info().Str("file", *configPath).Msg("watching config file")
	}

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("platewatch stopped")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}

	uploadRepo, err := repository.NewUploadRepository(cfg.Uploads.Dir)
	if err != nil {
		return err
	}

	m := metrics.New()
	broadcaster := notify.NewBroadcaster(cfg.Stream.Buffer, log.With().Str("component", "broadcaster").Logger(), m)

	handler := httpapi.NewHandler(
		service.NewDetectionService(store, broadcaster, m, log.With().Str("component", "detections").Logger()),
		service.NewCameraService(store, log.With().Str("component", "camera").Logger()),
		service.NewUploadService(uploadRepo, m, log.With().Str("component", "uploads").Logger()),
		broadcaster,
		cfg,
		log,
	)

	gin.SetMode(gin.ReleaseMode)
	router, err := httpapi.NewRouter(cfg, handler, m, log.With().Str("component", "http").Logger())
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().
			Str("addr", srv.Addr).
			Str("store_driver", cfg.Store.Driver).
			Str("uploads_dir", cfg.Uploads.Dir).
			Msg("platewatch API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (repository.Store, error) {
	storeLog := log.With().Str("component", "store").Str("driver", cfg.Store.Driver).Logger()

	switch cfg.Store.Driver {
	case config.DriverPostgres:
		gdb, err := db.Open(cfg.Store.DSN, storeLog)
		if err != nil {
			return nil, err
		}
		return repository.NewPostgresStore(ctx, gdb, storeLog)
	case config.DriverMemory:
		return repository.NewMemoryStore(repository.SeedState(time.Now())), nil
	default:
		return repository.NewJSONStore(cfg.Store.Path, storeLog)
	}
}

package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/study-helper/internal/adapter/provider/freedict"
	"github.com/heartmarshall/study-helper/internal/config"
	"github.com/heartmarshall/study-helper/internal/service/background"
	"github.com/heartmarshall/study-helper/internal/transport/message"
	"github.com/heartmarshall/study-helper/internal/transport/middleware"
	"github.com/heartmarshall/study-helper/internal/transport/rest"
)

// Run is the server entry point. It loads configuration, opens storage,
// wires the background handlers behind the REST transport and serves
// until ctx is cancelled.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)

	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
		slog.String("storage", cfg.Storage.Driver),
	)

	store, closeStore, err := OpenStore(ctx, cfg.Storage, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	gw := NewGateway(cfg, store, logger)

	sweepDays := 0
	if cfg.Cleanup.OnStartup {
		sweepDays = cfg.Cleanup.StartupDays
	}
	if err := Prepare(ctx, gw, sweepDays, logger); err != nil {
		logger.Error("startup maintenance failed, serving anyway", slog.String("error", err.Error()))
	}

	d := message.NewDispatcher(logger)
	dict := freedict.NewProvider(cfg.Dictionary, logger)
	background.NewService(logger, dict, gw, cfg.Cleanup.DefaultDays).Register(d)

	limiter := middleware.NewRateLimiter(cfg.RateLimit.CleanupInterval, clockwork.NewRealClock())
	defer limiter.Stop()

	var limit middleware.Middleware
	if cfg.RateLimit.Enabled {
		limit = limiter.Limit(cfg.RateLimit.RequestsPerMinute)
	}

	router := rest.NewRouter(rest.Handlers{
		Messages: rest.NewMessageHandler(d, cfg.Server.MaxBodyBytes, logger),
		Health:   rest.NewHealthHandler(gw, BuildVersion()),
		Admin:    rest.NewAdminHandler(gw, cfg.Cleanup.DefaultDays, logger),
	}, limit)

	handler := middleware.Chain(
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Recovery(logger),
		middleware.CORS(cfg.CORS),
	)(router)

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down", slog.Duration("timeout", cfg.Server.ShutdownTimeout))

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}

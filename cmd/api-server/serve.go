package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"procurelink/db"
	"procurelink/db/memstore"
	"procurelink/db/migrations"
	"procurelink/internal/auth"
	"procurelink/internal/config"
	"procurelink/internal/handlers"
	"procurelink/internal/lifecycle"
	"procurelink/internal/notify"
	"procurelink/internal/ratelimit"
	"procurelink/internal/router"
)

func serveCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return serve(cfg, migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", true, "apply pending migrations before serving")
	return cmd
}

func serve(cfg *config.Config, migrate bool) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var background sync.WaitGroup

	store, closeStore, err := openStore(ctx, cfg, migrate)
	if err != nil {
		return err
	}
	defer closeStore()

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = newRedis(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rdb.Close()
	}

	// Without Redis, notifications are logged and limits are per instance.
	var (
		notifier notify.Notifier = notify.LogNotifier{Logger: log.Logger}
		limiter  ratelimit.Limiter
	)
	if rdb != nil {
		notifier = notify.NewQueueNotifier(rdb)
		limiter = ratelimit.NewRedisLimiter(rdb)

		var sender notify.Sender = notify.LogSender{Logger: log.Logger}
		if cfg.SMTPEnabled() {
			sender = notify.NewSMTPSender(notify.SMTPConfig{
				Host:     cfg.SMTPHost,
				Port:     cfg.SMTPPort,
				User:     cfg.SMTPUser,
				Password: cfg.SMTPPassword,
				From:     cfg.NotifyFrom,
			})
		}
		worker := notify.NewWorker(rdb, sender, log.Logger)
		background.Add(1)
		go func() {
			defer background.Done()
			worker.Run(ctx, cfg.WorkerPoolSize)
		}()
	} else {
		mem := ratelimit.NewMemoryLimiter(nil)
		limiter = mem
		background.Add(1)
		go func() {
			defer background.Done()
			mem.Run(ctx, 0)
		}()
		log.Warn().Msg("REDIS_URL not set: rate limits are per instance and notifications are only logged")
	}

	mgr := lifecycle.New(store, lifecycle.WithNotifier(notifier), lifecycle.WithLogger(log.Logger))
	limits := router.Limits{
		RFQCreate:   ratelimit.Config{MaxRequests: cfg.RateRFQCreatePerHour, Interval: time.Hour},
		QuoteSubmit: ratelimit.Config{MaxRequests: cfg.RateQuoteSubmitPerHour, Interval: time.Hour},
		RFQList:     ratelimit.Config{MaxRequests: cfg.RateRFQListPerMinute, Interval: time.Minute},
	}
	r := router.New(handlers.NewHandler(mgr), auth.NewVerifier(cfg.JWTSecret), limiter, limits)

	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.ServerAddress).Str("storage", cfg.StorageDriver).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	}

	log.Info().Msg("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	cancel()
	background.Wait()
	log.Info().Msg("server exited")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, migrate bool) (lifecycle.Store, func(), error) {
	if cfg.StorageDriver == config.DriverMemory {
		log.Warn().Msg("using in-memory storage, data is lost on exit")
		return memstore.New(), func() {}, nil
	}
	conn, err := db.Connect(ctx, cfg.PostgresConn)
	if err != nil {
		return nil, nil, err
	}
	if migrate {
		if err := migrations.Run(ctx, conn.DB); err != nil {
			conn.Close()
			return nil, nil, err
		}
	}
	return db.NewStorage(conn), func() { conn.Close() }, nil
}

func newRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

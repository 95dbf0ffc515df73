package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"splitledger/cache"
	"splitledger/config"
	"splitledger/database"
	"splitledger/handlers"
	"splitledger/ledger"
	"splitledger/logger"
	"splitledger/middleware"
	"splitledger/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "splitledger:", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Directory and journal: postgres when configured, memory otherwise
	var registry ledger.Registry = ledger.NewMemoryDirectory()
	opts := []ledger.Option{ledger.WithLogger(log)}
	if cfg.InMemory() {
		log.Warn("⚠️  DATABASE_URL not set, running with in-memory storage")
	} else {
		db, err := database.Connect(cfg.DatabaseURL, log)
		if err != nil {
			return err
		}
		registry = database.NewDirectory(db)
		opts = append(opts, ledger.WithJournal(database.NewJournal(db)))
	}

	l, err := ledger.Open(ctx, opts...)
	if err != nil {
		return err
	}
	log.Info("✅ Ledger restored", zap.Uint64("head", l.Head()))

	// Connect to Redis (optional, won't crash if unavailable)
	rdb := database.ConnectRedis(ctx, cfg.RedisURL, log)
	if rdb != nil {
		defer rdb.Close()
	}
	balanceCache := cache.NewBalanceCache(rdb, cfg.BalanceCacheTTL, log)

	worker := services.NewWorker(notificationService(ctx, cfg, registry, log), cfg.NotifyBuffer, log)
	worker.Start()
	defer worker.Shutdown()

	// Setup router
	if cfg.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log), middleware.CORSMiddleware(cfg.CORSOrigins))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": cfg.AppName,
			"events":  l.Head(),
		})
	})

	h := handlers.New(registry, l, balanceCache, worker, cfg.Currency, log)
	h.Register(r.Group("/api"))

	// Start server
	srv := &http.Server{Addr: "0.0.0.0:" + cfg.Port, Handler: r}
	errCh := make(chan error, 1)
	go func() {
		log.Info("🚀 server starting", zap.String("service", cfg.AppName), zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("start server: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	return nil
}

// notificationService enables e-mail and push for whichever credentials are
// configured.
func notificationService(ctx context.Context, cfg *config.Config, dir ledger.Directory, log *zap.Logger) *services.NotificationService {
	var mailer services.Mailer
	if cfg.SendGridAPIKey != "" {
		mailer = services.NewSendGridMailer(cfg.SendGridAPIKey, cfg.SendGridFrom, cfg.AppName)
	} else {
		log.Warn("⚠️  SendGrid API key not set, email notifications disabled")
	}

	var pusher services.Pusher
	if cfg.FirebaseCreds != "" {
		p, err := services.NewFCMPusher(ctx, cfg.FirebaseCreds)
		if err != nil {
			log.Warn("⚠️  Firebase unavailable, push notifications disabled", zap.Error(err))
		} else {
			pusher = p
		}
	} else {
		log.Warn("⚠️  Firebase credentials not set, push notifications disabled")
	}

	return services.NewNotificationService(dir, mailer, pusher, cfg.AppName, cfg.Currency, log)
}

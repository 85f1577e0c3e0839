package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/partypallet/decor-booking-backend/internal/app"
	"github.com/partypallet/decor-booking-backend/internal/config"
	"github.com/partypallet/decor-booking-backend/internal/db"
	"github.com/partypallet/decor-booking-backend/internal/notify"
	"github.com/partypallet/decor-booking-backend/internal/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.IsProduction)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	var mailer notify.Mailer = notify.NopMailer{}
	if cfg.SMTPHost != "" {
		mailer = notify.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.EmailFrom)
	} else {
		log.Warn("SMTP not configured, notifications will be dropped")
	}

	container := app.New(cfg, pool, mailer, log)
	container.Dispatcher.Start()

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: container.Router,
	}

	go func() {
		log.Info("server listening", zap.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
	container.Dispatcher.Stop()
	log.Info("server stopped")
}

// Package app wires repositories, services and HTTP handlers together.
package app

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/partypallet/decor-booking-backend/internal/api"
	"github.com/partypallet/decor-booking-backend/internal/auth"
	"github.com/partypallet/decor-booking-backend/internal/availability"
	availabilityhttp "github.com/partypallet/decor-booking-backend/internal/availability/http"
	"github.com/partypallet/decor-booking-backend/internal/booking"
	bookinghttp "github.com/partypallet/decor-booking-backend/internal/booking/http"
	"github.com/partypallet/decor-booking-backend/internal/config"
	"github.com/partypallet/decor-booking-backend/internal/db"
	"github.com/partypallet/decor-booking-backend/internal/notify"
	"github.com/partypallet/decor-booking-backend/internal/payment"
	paymenthttp "github.com/partypallet/decor-booking-backend/internal/payment/http"
	"github.com/partypallet/decor-booking-backend/internal/scheduling"
)

// Container holds the assembled application.
type Container struct {
	Router     *gin.Engine
	Dispatcher *notify.Dispatcher
	JWTManager *auth.JWTManager
}

func New(cfg *config.Config, pool *pgxpool.Pool, mailer notify.Mailer, logger *zap.Logger) *Container {
	runner := db.NewPoolRunner(pool)

	availabilityRepo := availability.NewPgxRepository(pool)
	bookingRepo := booking.NewPgxRepository(pool)
	paymentRepo := payment.NewPgxRepository(pool)

	dispatcher := notify.NewDispatcher(mailer, cfg.NotifyQueueSize, logger)
	notifier := notify.NewService(dispatcher, cfg.BaseURL, cfg.AdminEmail, logger)

	engine := scheduling.NewEngine(runner, bookingRepo, availabilityRepo, logger)

	provider := payment.NewPaystackClient(cfg.PaystackBaseURL, cfg.PaystackSecretKey)
	paymentService := payment.NewService(
		paymentRepo, bookingRepo, runner, provider,
		cfg.PaystackSecretKey, cfg.PaystackCallbackURL,
		notifier, logger,
	)

	availabilityService := availability.NewService(availabilityRepo, runner)
	bookingService := booking.NewService(bookingRepo, engine, paymentService, notifier, logger)

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessTokenTTL)

	router := api.NewRouter(cfg.IsProduction, cfg.ProdOrigins, jwtManager, api.Handlers{
		Availability: availabilityhttp.NewHandler(availabilityService),
		Booking:      bookinghttp.NewHandler(bookingService),
		Payment:      paymenthttp.NewHandler(paymentService),
	})

	return &Container{
		Router:     router,
		Dispatcher: dispatcher,
		JWTManager: jwtManager,
	}
}

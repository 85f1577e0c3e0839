package api

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/partypallet/decor-booking-backend/internal/auth"
	availabilityhttp "github.com/partypallet/decor-booking-backend/internal/availability/http"
	bookinghttp "github.com/partypallet/decor-booking-backend/internal/booking/http"
	paymenthttp "github.com/partypallet/decor-booking-backend/internal/payment/http"
)

var requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "decor_booking",
	Subsystem: "http",
	Name:      "requests_total",
	Help:      "HTTP requests by method, route and status.",
}, []string{"method", "route", "status"})

func countRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		requestsTotal.WithLabelValues(
			c.Request.Method,
			route,
			strconv.Itoa(c.Writer.Status()),
		).Inc()
	}
}

type Handlers struct {
	Availability *availabilityhttp.Handler
	Booking      *bookinghttp.Handler
	Payment      *paymenthttp.Handler
}

func NewRouter(isProduction bool, prodOrigins string, jwtManager *auth.JWTManager, h Handlers) *gin.Engine {
	if isProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), countRequests())

	corsConfig := cors.DefaultConfig()
	if isProduction && prodOrigins != "" {
		corsConfig.AllowOrigins = splitOrigins(prodOrigins)
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization", "x-paystack-signature")
	corsConfig.MaxAge = 12 * time.Hour
	r.Use(cors.New(corsConfig))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authMiddleware := auth.AuthRequired(jwtManager)
	adminMiddleware := auth.AdminRequired()

	v1 := r.Group("/v1")
	availabilityhttp.RegisterRoutes(v1, h.Availability, authMiddleware, adminMiddleware)
	bookinghttp.RegisterRoutes(v1, h.Booking, authMiddleware, adminMiddleware)
	paymenthttp.RegisterRoutes(v1, h.Payment, authMiddleware, adminMiddleware)

	return r
}

func splitOrigins(s string) []string {
	var out []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

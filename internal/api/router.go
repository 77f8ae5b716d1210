package api

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nekogravitycat/cage-booking-backend/internal/audit"
	auditHttp "github.com/nekogravitycat/cage-booking-backend/internal/audit/http"
	"github.com/nekogravitycat/cage-booking-backend/internal/auth"
	"github.com/nekogravitycat/cage-booking-backend/internal/availability"
	availabilityHttp "github.com/nekogravitycat/cage-booking-backend/internal/availability/http"
	"github.com/nekogravitycat/cage-booking-backend/internal/booking"
	bookingHttp "github.com/nekogravitycat/cage-booking-backend/internal/booking/http"
	"github.com/nekogravitycat/cage-booking-backend/internal/cancellation"
	cancellationHttp "github.com/nekogravitycat/cage-booking-backend/internal/cancellation/http"
	"github.com/nekogravitycat/cage-booking-backend/internal/hold"
	holdHttp "github.com/nekogravitycat/cage-booking-backend/internal/hold/http"
	"github.com/nekogravitycat/cage-booking-backend/internal/payment"
	paymentHttp "github.com/nekogravitycat/cage-booking-backend/internal/payment/http"
	"github.com/nekogravitycat/cage-booking-backend/internal/pkg/clock"
)

// Config carries everything the router needs to build handlers.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	Logger       *logrus.Logger
	Clock        clock.Clock

	AvailabilityService availability.Service
	BookingService      booking.Service
	HoldService         hold.Service
	Coordinator         *payment.Coordinator
	Verifier            *payment.Verifier
	CancelService       cancellation.Service
	AuditRepo           audit.Repository
	JWTManager          *auth.JWTManager
}

// NewRouter initializes the HTTP router engine.
// It is responsible for assembling middleware (CORS, Logger, Auth) and registering routes for various modules.
func NewRouter(cfg Config) *gin.Engine {
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global Middleware:
	// - RequestID/RequestLogger: one structured log line per request.
	// - Recovery: Captures panics to prevent server crashes and returns a 500 error.
	r.Use(RequestID(), RequestLogger(cfg.Logger), gin.Recovery())

	// Configure CORS (Cross-Origin Resource Sharing).
	config := cors.DefaultConfig()
	config.AllowOrigins = []string{
		"http://localhost:3000", // Web client
		"http://localhost:8081", // Swagger
	}
	if cfg.IsProduction {
		config.AllowOrigins = splitOrigins(cfg.ProdOrigins)
	}
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", RequestIDHeader}
	config.ExposeHeaders = []string{RequestIDHeader}
	r.Use(cors.New(config))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// authMiddleware: Validates if the request contains a valid JWT.
	authMiddleware := auth.AuthRequired(cfg.JWTManager)
	// optionalAuth: Attaches the identity when present, lets anonymous requests through.
	optionalAuth := auth.OptionalAuth(cfg.JWTManager)

	// Initialize HTTP Handlers for each module (injecting Service dependencies).
	availabilityHandler := availabilityHttp.NewHandler(cfg.AvailabilityService)
	bookingHandler := bookingHttp.NewHandler(cfg.BookingService)
	holdHandler := holdHttp.NewHandler(cfg.HoldService, cfg.Clock)
	paymentHandler := paymentHttp.NewHandler(cfg.HoldService, cfg.Coordinator, cfg.Verifier)
	cancellationHandler := cancellationHttp.NewHandler(cfg.CancelService)
	auditHandler := auditHttp.NewHandler(cfg.AuditRepo)

	// Register API routes under /v1
	v1 := r.Group("/v1")
	{
		availabilityHttp.RegisterRoutes(v1, availabilityHandler)
		bookingHttp.RegisterRoutes(v1, bookingHandler, authMiddleware)
		holdHttp.RegisterRoutes(v1, holdHandler, authMiddleware)
		paymentHttp.RegisterRoutes(v1, paymentHandler, optionalAuth, authMiddleware)
		cancellationHttp.RegisterRoutes(v1, cancellationHandler, authMiddleware)
		auditHttp.RegisterRoutes(v1, auditHandler, authMiddleware)
	}

	return r
}

func splitOrigins(s string) []string {
	var origins []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

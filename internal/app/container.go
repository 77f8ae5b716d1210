package app

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/nekogravitycat/cage-booking-backend/internal/api"
	"github.com/nekogravitycat/cage-booking-backend/internal/audit"
	"github.com/nekogravitycat/cage-booking-backend/internal/auth"
	"github.com/nekogravitycat/cage-booking-backend/internal/availability"
	"github.com/nekogravitycat/cage-booking-backend/internal/booking"
	"github.com/nekogravitycat/cage-booking-backend/internal/cancellation"
	"github.com/nekogravitycat/cage-booking-backend/internal/events"
	"github.com/nekogravitycat/cage-booking-backend/internal/hold"
	"github.com/nekogravitycat/cage-booking-backend/internal/payment"
	"github.com/nekogravitycat/cage-booking-backend/internal/pkg/clock"
	"github.com/nekogravitycat/cage-booking-backend/internal/slot"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	Location     *time.Location

	DBPool    *pgxpool.Pool
	Redis     *redis.Client
	Publisher events.Publisher
	Gateway   payment.Gateway
	Logger    *logrus.Logger

	JWTSecret string
	JWTTTL    time.Duration

	SlotCacheTTL        time.Duration
	Hold                hold.Config
	Cancellation        cancellation.Config
	Breaker             payment.BreakerConfig
	RefundSweepSchedule string
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router        *gin.Engine
	JWTManager    *auth.JWTManager
	HoldService   hold.Service
	RefundSweeper *cancellation.RefundSweeper
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) (*Container, error) {
	// Init Components
	clk := clock.NewRealClock()
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)

	// Audit Module
	auditRepo := audit.NewPgxRepository(cfg.DBPool)
	recorder := audit.NewRecorder(auditRepo, cfg.Logger)

	// Slot Module
	slotRepo := slot.NewCachedRepository(slot.NewPgxRepository(cfg.DBPool), cfg.Redis, cfg.SlotCacheTTL, cfg.Logger)

	// Booking Module
	bookingRepo := booking.NewPgxRepository(cfg.DBPool)
	bookingService := booking.NewService(bookingRepo)

	// Availability Module
	availabilityService := availability.NewService(slotRepo, bookingRepo, clk, cfg.Location, cfg.Logger)

	// Hold Module
	holdStore := hold.NewRedisStore(cfg.Redis)
	holdService := hold.NewService(cfg.Hold, holdStore, slotRepo, bookingService, clk, recorder, cfg.Publisher, cfg.Logger)

	// Payment Module
	gateway := payment.NewBreakerGateway(cfg.Gateway, cfg.Breaker, cfg.Logger)
	coordinator := payment.NewCoordinator(gateway, holdService, recorder, clk, cfg.Logger)
	verifier := payment.NewVerifier(gateway, bookingService, holdService, recorder, cfg.Publisher, cfg.Logger)

	// Cancellation Module
	tokenStore := cancellation.NewRedisTokenStore(cfg.Redis)
	cancelService := cancellation.NewService(cfg.Cancellation, bookingRepo, tokenStore, clk, recorder, cfg.Publisher, cfg.Logger)
	sweeper, err := cancellation.NewRefundSweeper(cfg.RefundSweepSchedule, bookingRepo, clk, cfg.Logger)
	if err != nil {
		return nil, err
	}

	// API Router Config
	routerParams := api.Config{
		IsProduction:        cfg.IsProduction,
		ProdOrigins:         cfg.ProdOrigins,
		Logger:              cfg.Logger,
		Clock:               clk,
		AvailabilityService: availabilityService,
		BookingService:      bookingService,
		HoldService:         holdService,
		Coordinator:         coordinator,
		Verifier:            verifier,
		CancelService:       cancelService,
		AuditRepo:           auditRepo,
		JWTManager:          jwtManager,
	}

	// Router
	router := api.NewRouter(routerParams)

	return &Container{
		Router:        router,
		JWTManager:    jwtManager,
		HoldService:   holdService,
		RefundSweeper: sweeper,
	}, nil
}

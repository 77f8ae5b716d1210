package config

import (
	"fmt"
	"log"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const PROD_STRING = "prod"

// Config holds all application configuration loaded from environment.
type Config struct {
	AppEnv       string `envconfig:"APP_ENV" default:"dev"`
	IsProduction bool   `ignored:"true"`
	ProdOrigins  string `envconfig:"PROD_ORIGINS"`
	HTTPAddr     string `envconfig:"HTTP_ADDR" default:":8080"`
	LogLevel     string `envconfig:"LOG_LEVEL" default:"info"`

	// Wall-clock zone of the cages; decides what "today" means for slot times
	Timezone string         `envconfig:"APP_TIMEZONE" default:"Asia/Kolkata"`
	Location *time.Location `ignored:"true"`

	DBDSN         string `envconfig:"DB_DSN"`
	DBAutoMigrate bool   `envconfig:"DB_AUTO_MIGRATE" default:"false"`

	JWTSecret         string        `envconfig:"JWT_SECRET"`
	JWTAccessTokenTTL time.Duration `envconfig:"JWT_ACCESS_TOKEN_TTL" default:"15m"`

	// Redis keeps holds, cancellation tickets and the slot cache
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// Empty AMQP_URL disables event publishing
	AMQPURL string `envconfig:"AMQP_URL"`

	StripeSecretKey    string `envconfig:"STRIPE_SECRET_KEY"`
	StripeCurrency     string `envconfig:"STRIPE_CURRENCY" default:"inr"`
	CheckoutSuccessURL string `envconfig:"CHECKOUT_SUCCESS_URL" default:"http://localhost:3000/payment/success"`
	CheckoutCancelURL  string `envconfig:"CHECKOUT_CANCEL_URL" default:"http://localhost:3000/payment/cancel"`

	HoldDuration        time.Duration `envconfig:"HOLD_DURATION" default:"60s"`
	HoldTickInterval    time.Duration `envconfig:"HOLD_TICK_INTERVAL" default:"1s"`
	CancelConfirmTTL    time.Duration `envconfig:"CANCEL_CONFIRM_TTL" default:"5m"`
	RefundWindow        time.Duration `envconfig:"REFUND_WINDOW" default:"168h"`
	RefundSweepSchedule string        `envconfig:"REFUND_SWEEP_SCHEDULE" default:"@hourly"`
	SlotCacheTTL        time.Duration `envconfig:"SLOT_CACHE_TTL" default:"30s"`
}

// Load loads configuration from .env (optional) and environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Printf("failed to load .env file: %v", err)
	}

	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to process env config: %w", err)
	}

	cfg.IsProduction = cfg.AppEnv == PROD_STRING

	// Database DSN is required
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required")
	}

	// JWT secret is required for validating tokens
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	// The countdown must tick at least once before it expires
	if cfg.HoldTickInterval <= 0 || cfg.HoldDuration < cfg.HoldTickInterval {
		return nil, fmt.Errorf("invalid HOLD_DURATION/HOLD_TICK_INTERVAL: %s/%s", cfg.HoldDuration, cfg.HoldTickInterval)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE %q: %w", cfg.Timezone, err)
	}
	cfg.Location = loc

	if cfg.IsProduction && cfg.StripeSecretKey == "" {
		return nil, fmt.Errorf("STRIPE_SECRET_KEY is required in production")
	}

	// CORS has no fallback origins in production
	if cfg.IsProduction && cfg.ProdOrigins == "" {
		return nil, fmt.Errorf("PROD_ORIGINS is required in production")
	}

	return cfg, nil
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAppName        = "PaieCashWallet"
	defaultAppEnv         = "development"
	defaultPort           = "8080"
	defaultLogLevel       = "info"
	defaultCurrency       = "XAF"
	defaultShutdownDelay  = 10 * time.Second
	defaultIdempotencyTTL = 24 * time.Hour
	defaultPayLinkTTL     = 24 * time.Hour
	defaultAccessTokenTTL = 12 * time.Hour
	// Fixed CFA franc peg against the euro. Overridable because the gateway
	// settlement currency is a deployment concern, not a ledger one.
	defaultSettlementRate = 655.957
)

// OAuth holds the identity provider endpoints and client credentials.
type OAuth struct {
	Issuer       string
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// Gateway holds the payment processor credentials and settlement parameters.
type Gateway struct {
	BaseURL       string
	SecretKey     string
	WebhookSecret string
	// SettlementCurrency is what the processor actually charges in.
	SettlementCurrency string
	// SettlementRate converts one settlement major unit into ledger minor units.
	SettlementRate float64
	SuccessURL     string
	CancelURL      string
}

// SMTP holds the mail relay settings for transaction emails. Notifications
// fall back to log output when Host is empty.
type SMTP struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName        string
	AppEnv         string
	Port           string
	LogLevel       string
	DatabaseURL    string
	RedisURL       string
	Currency       string
	AdminEmail     string
	JWTSecret      string
	AccessTokenTTL time.Duration
	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration
	PayLinkTTL     time.Duration
	OAuth          OAuth
	Gateway        Gateway
	SMTP           SMTP
}

// Load reads configuration values from the environment and populates a Config
// instance. A local .env file is honoured when present.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		AppName:        getEnv("APP_NAME", defaultAppName),
		AppEnv:         getEnv("APP_ENV", defaultAppEnv),
		Port:           getEnv("PORT", defaultPort),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		Currency:       getEnv("LEDGER_CURRENCY", defaultCurrency),
		AdminEmail:     os.Getenv("ADMIN_EMAIL"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		AccessTokenTTL: defaultAccessTokenTTL,
		ShutdownPeriod: defaultShutdownDelay,
		IdempotencyTTL: defaultIdempotencyTTL,
		PayLinkTTL:     defaultPayLinkTTL,
		OAuth: OAuth{
			Issuer:       os.Getenv("OAUTH_ISSUER"),
			ClientID:     os.Getenv("OAUTH_CLIENT_ID"),
			ClientSecret: os.Getenv("OAUTH_CLIENT_SECRET"),
			RedirectURI:  os.Getenv("OAUTH_REDIRECT_URI"),
		},
		Gateway: Gateway{
			BaseURL:            os.Getenv("GATEWAY_BASE_URL"),
			SecretKey:          os.Getenv("GATEWAY_SECRET_KEY"),
			WebhookSecret:      os.Getenv("GATEWAY_WEBHOOK_SECRET"),
			SettlementCurrency: getEnv("GATEWAY_SETTLEMENT_CURRENCY", "EUR"),
			SettlementRate:     defaultSettlementRate,
			SuccessURL:         os.Getenv("GATEWAY_SUCCESS_URL"),
			CancelURL:          os.Getenv("GATEWAY_CANCEL_URL"),
		},
		SMTP: SMTP{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     getEnv("SMTP_PORT", "587"),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     os.Getenv("SMTP_FROM"),
		},
	}

	var err error
	if cfg.ShutdownPeriod, err = durationEnv("SHUTDOWN_TIMEOUT", cfg.ShutdownPeriod); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = durationEnv("IDEMPOTENCY_TTL", cfg.IdempotencyTTL); err != nil {
		return Config{}, err
	}
	if cfg.PayLinkTTL, err = durationEnv("PAYMENT_LINK_TTL", cfg.PayLinkTTL); err != nil {
		return Config{}, err
	}
	if cfg.AccessTokenTTL, err = durationEnv("ACCESS_TOKEN_TTL", cfg.AccessTokenTTL); err != nil {
		return Config{}, err
	}

	if v := os.Getenv("GATEWAY_SETTLEMENT_RATE"); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil || rate <= 0 {
			return Config{}, fmt.Errorf("invalid GATEWAY_SETTLEMENT_RATE: %q", v)
		}
		cfg.Gateway.SettlementRate = rate
	}

	if !cfg.IsDev() {
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL must be set")
		}
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL must be set")
		}
		if cfg.JWTSecret == "" {
			return Config{}, fmt.Errorf("JWT_SECRET must be set")
		}
		if cfg.Gateway.WebhookSecret == "" {
			return Config{}, fmt.Errorf("GATEWAY_WEBHOOK_SECRET must be set")
		}
	}

	return cfg, nil
}

// IsDev reports whether the app runs in a development-like environment.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	if v := os.Getenv(key + "_SECONDS"); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s_SECONDS: %w", key, err)
		}
		return time.Duration(seconds) * time.Second, nil
	}
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", key, err)
		}
		return d, nil
	}
	return fallback, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

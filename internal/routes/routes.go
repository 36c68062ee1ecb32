package routes

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/paiecash/wallet-api/internal/admin"
	"github.com/paiecash/wallet-api/internal/auth"
	"github.com/paiecash/wallet-api/internal/config"
	"github.com/paiecash/wallet-api/internal/funding"
	"github.com/paiecash/wallet-api/internal/gateway"
	"github.com/paiecash/wallet-api/internal/identity"
	"github.com/paiecash/wallet-api/internal/ledger"
	"github.com/paiecash/wallet-api/internal/middleware"
	"github.com/paiecash/wallet-api/internal/notification"
	"github.com/paiecash/wallet-api/internal/paylink"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though main also checks.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	// Plain text access log: [HH:MM:SS] 200 -  145ms METHOD /path
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))

	// Health
	RegisterHealthRoutes(app, d)

	// Storage backends, with in-memory fallbacks for dev runs without Postgres.
	var ledgerBackend ledger.Ledger
	var identityRepo identity.Repository
	var linkRepo paylink.Repository
	if d.DB != nil {
		ledgerBackend = ledger.NewPostgres(d.DB)
		identityRepo = identity.NewPostgresRepository(d.DB)
		linkRepo = paylink.NewPostgresRepository(d.DB)
	} else {
		ledgerBackend = ledger.NewInMemory()
		identityRepo = identity.NewMemoryRepository()
		linkRepo = paylink.NewMemoryRepository()
	}

	var notifier notification.Notifier
	if d.Cfg.SMTP.Host != "" {
		notifier = notification.NewEmailNotifier(notification.SMTPConfig{
			Host:     d.Cfg.SMTP.Host,
			Port:     d.Cfg.SMTP.Port,
			Username: d.Cfg.SMTP.Username,
			Password: d.Cfg.SMTP.Password,
			From:     d.Cfg.SMTP.From,
		})
	} else {
		notifier = notification.NewLoggerNotifier(d.Logger)
	}
	notifier = notification.WithEmailLookup(notifier, func(ctx context.Context, userID string) (string, error) {
		user, err := identityRepo.FindByID(ctx, userID)
		if err != nil {
			return "", err
		}
		return user.Email, nil
	})

	// Services and handlers
	identitySvc := identity.NewService(identityRepo, ledgerBackend, d.Cfg.Currency)
	authSvc := auth.NewService(d.Cfg, nil, identitySvc)
	authHandler := auth.NewHandler(authSvc, identitySvc)
	var gw gateway.Gateway
	if d.Cfg.Gateway.BaseURL != "" && d.Cfg.Gateway.SecretKey != "" {
		gw = gateway.NewHTTP(d.Cfg.Gateway)
	}
	fundingSvc := funding.NewService(ledgerBackend, gw, notifier, d.Cfg, d.Logger)
	reconciler := funding.NewReconciler(ledgerBackend, d.Cfg.Gateway.WebhookSecret, notifier, d.Logger)
	fundingHandler := funding.NewHandler(fundingSvc, reconciler)
	linkSvc := paylink.NewService(linkRepo, ledgerBackend, notifier, d.Cfg.PayLinkTTL, d.Logger)
	linkHandler := paylink.NewHandler(linkSvc)
	adminHandler := admin.NewHandler(admin.NewService(ledgerBackend, d.Cfg.AdminEmail))

	// Public routes
	api := app.Group("/api/v1")
	RegisterAuthRoutes(api, authHandler)
	RegisterWebhookRoute(api, fundingHandler)
	api.Get("/pay/:reference", linkHandler.Resolve)

	// Protected routes. Idempotency stays off the public surface so the
	// gateway can deliver webhooks without an Idempotency-Key header.
	jwtmw := middleware.JWTAuth(authSvc.Tokens())
	protected := api.Group("", jwtmw)
	protected.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		protected.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}
	protected.Get("/me", authHandler.Me)
	RegisterFundingRoutes(protected, fundingHandler, middleware.DepositRateLimit(d.Cache, 10))
	RegisterPaymentLinkRoutes(protected, linkHandler)
	protected.Get("/admin/stats", adminHandler.Stats)

	return nil
}

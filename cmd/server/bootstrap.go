package main

import (
	"os"
	"time"

	"authgate/internal/config"
	"authgate/internal/handlers"
	"authgate/internal/middleware"
	"authgate/internal/models"
	"authgate/internal/services"
	"authgate/internal/store"
	"authgate/internal/utils"
	"authgate/pkg/logger"
	"github.com/gin-gonic/gin"
)

const productCacheTTL = 5 * time.Minute

// appServices holds the initialized dependencies the router needs.
type appServices struct {
	codec          *utils.TokenCodec
	kv             store.Store
	redisStore     *store.RedisStore
	limiter        gin.HandlerFunc
	idempotencyTTL time.Duration
	purger         *services.SessionPurger
	authHandler    *handlers.AuthHandler
	productHandler *handlers.ProductHandler
	healthHandler  *handlers.HealthHandler
}

// bootstrap initializes the database, the shared store, services and
// handlers. When Redis is disabled the store and rate limiter fall back to
// in-process equivalents, so a single instance still behaves correctly.
func bootstrap(cfg *config.Config) *appServices {
	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}
	db := models.GetDB()

	codec := utils.NewTokenCodec(cfg.JWT.AccessSecret, cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTTL(), cfg.JWT.RefreshTTL())
	sessions := services.NewSessionService(db, codec)
	auth := services.NewAuthService(db, sessions, codec)

	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminEmail != "" && adminPassword != "" {
		if err := auth.SeedAdminIfNotExists(adminEmail, adminPassword); err != nil {
			logger.Warn().Err(err).Msg("Failed to seed admin user")
		}
	}

	svc := &appServices{
		codec:          codec,
		idempotencyTTL: cfg.Idempotency.TTL(),
	}

	if cfg.Redis.Enabled {
		rs, err := store.NewRedisStore(&cfg.Redis)
		if err != nil {
			logger.Fatalf("Failed to connect to Redis: %v", err)
		}
		svc.redisStore = rs
		svc.kv = rs
		svc.limiter = middleware.NewRateLimiter(rs, cfg.RateLimit).Middleware()
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("Using Redis shared store")
	} else {
		svc.kv = store.NewMemoryStore()
		svc.limiter = middleware.NewLocalRateLimiter(cfg.RateLimit).Middleware()
		logger.Info().Msg("Redis disabled, using in-process store and rate limiter")
	}

	products := services.NewProductService(db, svc.kv, productCacheTTL)

	svc.purger = services.NewSessionPurger(sessions, 10*time.Minute)
	svc.purger.Start()

	svc.authHandler = handlers.NewAuthHandler(auth, cfg)
	svc.productHandler = handlers.NewProductHandler(products)
	svc.healthHandler = handlers.NewHealthHandler(db, svc.kv)

	return svc
}

// shutdown stops background work and releases external connections.
func (s *appServices) shutdown() {
	s.purger.Stop()
	if s.redisStore != nil {
		if err := s.redisStore.Close(); err != nil {
			logger.Warn().Err(err).Msg("Error closing Redis connection")
		}
	}
	logger.Info().Msg("Background services stopped")
}

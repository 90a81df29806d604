package main

import (
	"authgate/internal/middleware"
	"authgate/pkg/logger"
	"authgate/pkg/response"
	"github.com/gin-gonic/gin"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())

	r.GET("/api/health", svc.healthHandler.CheckHealth)

	api := r.Group("/api/v1")
	api.Use(svc.limiter)
	api.Use(middleware.Idempotency(svc.kv, svc.idempotencyTTL))
	{
		auth := api.Group("/auth")
		auth.Use(middleware.AuditLog())
		{
			auth.POST("/register", svc.authHandler.Register)
			auth.POST("/login", svc.authHandler.Login)
			auth.POST("/refresh", svc.authHandler.Refresh)
			auth.POST("/logout", svc.authHandler.Logout)

			protected := auth.Group("")
			protected.Use(middleware.AuthRequired(svc.codec))
			{
				protected.POST("/logout-all", svc.authHandler.LogoutAll)
				protected.GET("/devices", svc.authHandler.Devices)
				protected.DELETE("/devices/:sessionId", svc.authHandler.LogoutDevice)
				protected.GET("/profile", svc.authHandler.Profile)
			}
		}

		products := api.Group("/products")
		{
			products.GET("", svc.productHandler.List)
			products.GET("/:id", svc.productHandler.Get)

			owned := products.Group("")
			owned.Use(middleware.AuthRequired(svc.codec))
			{
				owned.POST("", svc.productHandler.Create)
				owned.PUT("/:id", svc.productHandler.Update)
				owned.DELETE("/:id", svc.productHandler.Delete)
			}
		}
	}

	r.NoRoute(func(c *gin.Context) {
		response.Fail(c, response.NotFound("Route not found"))
	})
}

// Package handlers contains the HTTP handlers and routing.
package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/axeelhrz/casinoescolarnuevo-sub002/internal/logger"
)

// RouterConfig carries the router-level settings.
type RouterConfig struct {
	GinMode       string
	ServiceAPIKey string
	Log           *zap.Logger
}

// SetupRouter configures the Gin router with all routes.
func SetupRouter(payments *PaymentHandler, orders *OrderHandler, cfg RouterConfig) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())
	router.Use(logger.RequestLog(cfg.Log))
	router.Use(CORSMiddleware())

	// Health check (public)
	router.GET("/health", payments.Health)

	// Checkout and provider callbacks (public; callbacks are verified per provider)
	payment := router.Group("/payment")
	{
		payment.POST("/create", payments.CreatePayment)
		payment.POST("/notify", payments.Notify)
		payment.GET("/notify", payments.NotifyProbe)
		payment.POST("/notify/:provider", payments.Notify)
		payment.GET("/notify/:provider", payments.NotifyProbe)
	}

	// Order endpoints (service-to-service)
	if orders != nil {
		o := router.Group("/orders")
		o.Use(ServiceAuthMiddleware(cfg.ServiceAPIKey))
		{
			o.POST("", orders.CreateOrder)
			o.GET("/:id", orders.GetOrder)
		}
	}

	return router
}

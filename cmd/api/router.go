package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"storefront-backend/internal/shared/middleware"
	"storefront-backend/pkg/container"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	// Global middlewares
	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.CORS(c.Config.App.AllowedOrigins),
		middleware.ClientIPMiddleware(),
	)

	sessionConfig := middleware.DefaultSessionConfig()
	if c.Config.App.Environment != "production" {
		sessionConfig.CookieSecure = false
	}

	router.GET("/health", healthCheckHandler(c))

	v1 := router.Group("/api/v1")
	{
		setupAuthRoutes(v1, c)
		setupCheckoutRoutes(v1, c, sessionConfig)
		setupOrderRoutes(v1, c, sessionConfig)
		setupPaymentRoutes(v1, c, sessionConfig)
		setupAddressRoutes(v1, c)
		setupAdminRoutes(v1, c)
	}

	return router
}

// ========================================
// AUTH ROUTES
// ========================================
func setupAuthRoutes(v1 *gin.RouterGroup, c *container.Container) {
	auth := v1.Group("/auth")
	{
		auth.POST("/register", c.UserHandler.Register)
		auth.POST("/login", c.UserHandler.Login)
	}

	users := v1.Group("/users")
	users.Use(middleware.AuthMiddleware(c.Config.JWT.Secret))
	{
		users.GET("/me", c.UserHandler.Me)
	}
}

// ========================================
// CHECKOUT ROUTES
// ========================================
// Guests check out too: the session middleware mints the ownership
// key and OptionalAuth attaches the user when a JWT is present.
func setupCheckoutRoutes(v1 *gin.RouterGroup, c *container.Container, sessionConfig middleware.SessionConfig) {
	checkout := v1.Group("/checkout-intent")
	checkout.Use(
		middleware.Session(sessionConfig),
		middleware.OptionalAuth(c.Config.JWT.Secret),
	)
	{
		checkout.POST("", c.CheckoutHandler.CreateIntent)
	}
}

// ========================================
// ORDER ROUTES
// ========================================
func setupOrderRoutes(v1 *gin.RouterGroup, c *container.Container, sessionConfig middleware.SessionConfig) {
	orders := v1.Group("/orders")
	orders.Use(
		middleware.Session(sessionConfig),
		middleware.OptionalAuth(c.Config.JWT.Secret),
	)
	{
		orders.POST("", c.OrderHandler.CreateOrder)
		orders.GET("", c.OrderHandler.ListOrders)
		orders.GET("/:orderId", c.OrderHandler.GetOrderDetail)
		orders.POST("/:orderId/cancel", c.OrderHandler.CancelOrder)
	}
}

// ========================================
// PAYMENT ROUTES
// ========================================
func setupPaymentRoutes(v1 *gin.RouterGroup, c *container.Container, sessionConfig middleware.SessionConfig) {
	payments := v1.Group("/payments")
	payments.Use(
		middleware.Session(sessionConfig),
		middleware.OptionalAuth(c.Config.JWT.Secret),
	)
	{
		payments.GET("/order-info/:orderId", c.PaymentHandler.GetOrderInfo)
		payments.GET("/:provider/return", c.PaymentHandler.HandleReturn)
		payments.POST("/:provider/retry", c.PaymentHandler.RetryPayment)
	}
}

// ========================================
// ADDRESS ROUTES
// ========================================
func setupAddressRoutes(v1 *gin.RouterGroup, c *container.Container) {
	addresses := v1.Group("/addresses")
	addresses.Use(middleware.AuthMiddleware(c.Config.JWT.Secret))
	{
		addresses.POST("", c.AddressHandler.CreateAddress)
		addresses.GET("", c.AddressHandler.ListAddresses)
		addresses.GET("/:addressId", c.AddressHandler.GetAddress)
		addresses.PUT("/:addressId", c.AddressHandler.UpdateAddress)
		addresses.PUT("/:addressId/set-default", c.AddressHandler.SetDefaultAddress)
		addresses.DELETE("/:addressId", c.AddressHandler.DeleteAddress)
	}
}

// ========================================
// ADMIN ROUTES
// ========================================
func setupAdminRoutes(v1 *gin.RouterGroup, c *container.Container) {
	admin := v1.Group("/admin")
	admin.Use(
		middleware.AuthMiddleware(c.Config.JWT.Secret),
		middleware.AdminMiddleware(),
	)
	{
		admin.GET("/payments/report", c.PaymentHandler.SettlementReport)
	}
}

// ========================================
// HEALTH CHECK HANDLER
// ========================================
func healthCheckHandler(appCtx *container.Container) gin.HandlerFunc {
	return func(c *gin.Context) {
		health := gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
			"version":   appCtx.Config.App.Version,
		}

		dbStatus := "ok"
		if err := appCtx.DB.Ping(c.Request.Context()); err != nil {
			dbStatus = "error"
			health["status"] = "degraded"
		}

		redisStatus := "ok"
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := appCtx.Cache.Ping(ctx); err != nil {
			redisStatus = "error"
		}

		health["services"] = gin.H{
			"database": dbStatus,
			"redis":    redisStatus,
		}

		statusCode := http.StatusOK
		if dbStatus != "ok" {
			statusCode = http.StatusServiceUnavailable
		}

		c.JSON(statusCode, health)
	}
}

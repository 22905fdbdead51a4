package http

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/centralmei/backend/internal/config"
	"github.com/centralmei/backend/internal/http/middleware"
)

// NewRouter wires the public intake surface, the authenticated account
// routes and the staff back-office under one gin engine.
func NewRouter(handler *Handler, authMiddleware, optionalAuth gin.HandlerFunc, cfg *config.Config) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.HTTP.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.HTTP.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	}
	router.Use(cors.New(corsConfig))

	router.GET("/healthz", handler.health)

	api := router.Group("/api")
	{
		api.POST("/auth/register", handler.register)
		api.POST("/auth/login", handler.login)

		api.GET("/services", handler.listServices)
		api.GET("/services/:slug", handler.getService)

		api.POST("/requests", optionalAuth, handler.createRequest)
		api.GET("/requests/:id", handler.getRequest)

		api.POST("/payments/checkout", handler.startCheckout)
		api.POST("/payments/card", handler.processCardPayment)
		api.GET("/payments/:id", handler.getPayment)
		api.POST("/webhooks/mercadopago", handler.mercadoPagoWebhook)
	}

	account := api.Group("/me")
	account.Use(authMiddleware)
	{
		account.GET("", handler.profile)
		account.GET("/requests", handler.listOwnRequests)
	}

	admin := api.Group("/admin")
	admin.Use(authMiddleware, middleware.RequireStaff())
	{
		admin.GET("/requests", handler.adminListRequests)
		admin.GET("/requests/:id", handler.adminGetRequest)
		admin.PATCH("/requests/:id/status", handler.adminSetRequestStatus)

		admin.POST("/services", handler.adminCreateService)
		admin.PUT("/services/:id", handler.adminUpdateService)

		admin.GET("/sales", handler.listSales)
		admin.POST("/sales", handler.createSale)
		admin.GET("/sales/:id", handler.getSale)
		admin.POST("/sales/:id/pay", handler.markSalePaid)

		admin.GET("/movements", handler.listMovements)
		admin.POST("/movements", handler.createMovement)
		admin.GET("/movements/:id", handler.getMovement)
		admin.PUT("/movements/:id", handler.updateMovement)
		admin.DELETE("/movements/:id", handler.deleteMovement)

		admin.GET("/balances", handler.getBalance)

		admin.GET("/categories", handler.listCategories)
		admin.POST("/categories", handler.createCategory)
		admin.PUT("/categories/:id", handler.updateCategory)
		admin.DELETE("/categories/:id", handler.deleteCategory)

		admin.GET("/subcategories", handler.listSubcategories)
		admin.POST("/subcategories", handler.createSubcategory)
		admin.PUT("/subcategories/:id", handler.updateSubcategory)
		admin.DELETE("/subcategories/:id", handler.deleteSubcategory)

		admin.GET("/products", handler.listProducts)
		admin.POST("/products", handler.createProduct)
		admin.PUT("/products/:id", handler.updateProduct)

		admin.GET("/reports", handler.generateReport)
		admin.GET("/reports/export", handler.exportReport)
		admin.GET("/reports/summary", handler.reportSummary)
	}

	return router
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(200, gin.H{"status": "ok"})
}

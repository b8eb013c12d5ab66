package router

import (
	"github.com/gin-gonic/gin"

	"kvitto/internal/handler"
	"kvitto/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	receiptH *handler.ReceiptHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS())

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")

	receipts := v1.Group("/receipts")
	receipts.POST("/extract", receiptH.Extract)
	receipts.POST("/reconcile", receiptH.Reconcile)
	receipts.POST("/export", receiptH.Export)

	return r
}

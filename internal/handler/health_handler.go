package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kvitto/internal/port"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	geometry port.GeometryService // optional, may be nil
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(geometrySvc port.GeometryService) *HealthHandler {
	return &HealthHandler{geometry: geometrySvc}
}

// Liveness handles GET /healthz
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness handles GET /readyz. The geometry microservice is an optional
// collaborator, so its absence degrades the report but never the status code.
func (h *HealthHandler) Readiness(c *gin.Context) {
	components := gin.H{}
	if h.geometry != nil {
		components["geometry_service"] = h.geometry.Healthy(c.Request.Context())
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "components": components})
}

package handler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"kvitto/internal/handler"
	"kvitto/mocks"
)

func TestLiveness(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/healthz", handler.NewHealthHandler(nil).Liveness)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestReadiness_NoGeometryService(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/readyz", handler.NewHealthHandler(nil).Readiness)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "geometry_service")
}

func TestReadiness_GeometryServiceDown(t *testing.T) {
	geometry := &mocks.MockGeometryService{}
	geometry.On("Healthy", mock.Anything).Return(false)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/readyz", handler.NewHealthHandler(geometry).Readiness)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	// a degraded collaborator never fails readiness
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"geometry_service":false`)
}

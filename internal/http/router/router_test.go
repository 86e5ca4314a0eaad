package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	apphttp "offerte_delivery_backend/internal/http"
	"offerte_delivery_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

type testRouterConfig struct{}

func (testRouterConfig) GetHTTPAddr() string        { return ":0" }
func (testRouterConfig) GetCORSAllowAll() bool      { return false }
func (testRouterConfig) GetCORSOrigins() []string   { return []string{"http://localhost:4200"} }
func (testRouterConfig) GetCORSAllowCreds() bool    { return true }
func (testRouterConfig) GetJWTAccessSecret() string { return "router-test-secret" }

type stubHealth struct{ err error }

func (s stubHealth) Ping(_ context.Context) error { return s.err }

type stubModule struct{}

func (stubModule) Name() string { return "quotes" }

func (stubModule) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/quotes")
	group.POST("/deliver", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
}

func newTestEngine(healthErr error) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return New(&apphttp.App{
		Config:  testRouterConfig{},
		Logger:  logger.New("development"),
		Health:  stubHealth{err: healthErr},
		Modules: []apphttp.Module{stubModule{}},
	})
}

func TestRouterMethodNotAllowed(t *testing.T) {
	engine := newTestEngine(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/quotes/deliver", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error != "method not allowed" {
		t.Errorf("error = %q", body.Error)
	}
}

func TestRouterUnknownPathIsNotFound(t *testing.T) {
	engine := newTestEngine(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestRouterHealth(t *testing.T) {
	engine := newTestEngine(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestRouterHealthDegraded(t *testing.T) {
	engine := newTestEngine(errors.New("pool exhausted"))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestRouterProtectedRequiresToken(t *testing.T) {
	engine := newTestEngine(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/quotes/deliver", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

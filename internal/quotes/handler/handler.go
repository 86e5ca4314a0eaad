// Package handler exposes the quotes module's HTTP endpoints.
package handler

import (
	"net/http"

	"offerte_delivery_backend/internal/quotes/service"
	"offerte_delivery_backend/internal/quotes/transport"
	"offerte_delivery_backend/platform/httpkit"
	"offerte_delivery_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// Handler handles quotes HTTP requests.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new quotes handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes mounts the quotes routes on the given (authenticated) group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/deliver", h.Deliver)
}

// Deliver handles POST /api/v1/quotes/deliver.
func (h *Handler) Deliver(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var req transport.DeliverQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "quoteId is required")
		return
	}

	resp, err := h.svc.Deliver(c.Request.Context(), identity.UserID(), requestOrigin(c), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, resp)
}

// requestOrigin reconstructs the scheme and host the client used, honoring
// the proxy headers gin trusts. It is only a fallback; a configured base URL
// takes precedence in the service.
func requestOrigin(c *gin.Context) string {
	if c.Request.Host == "" {
		return ""
	}
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if forwarded := c.GetHeader("X-Forwarded-Proto"); forwarded != "" {
		scheme = forwarded
	}
	return scheme + "://" + c.Request.Host
}

// Package quotes provides the quote delivery domain module.
package quotes

import (
	"offerte_delivery_backend/internal/email"
	apphttp "offerte_delivery_backend/internal/http"
	"offerte_delivery_backend/internal/pdf"
	"offerte_delivery_backend/internal/quotes/handler"
	"offerte_delivery_backend/internal/quotes/repository"
	"offerte_delivery_backend/internal/quotes/service"
	"offerte_delivery_backend/platform/logger"
	"offerte_delivery_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the quotes domain module.
type Module struct {
	handler *handler.Handler
}

// NewModule creates the quotes module with all dependencies wired. The
// sender may be nil when mail delivery is not configured; the service then
// answers with a warning instead of sending.
func NewModule(
	pool *pgxpool.Pool,
	profiles service.ProfileReader,
	renderer pdf.Renderer,
	brand service.BrandFetcher,
	sender email.Sender,
	cfg service.OriginConfig,
	val *validator.Validator,
	log *logger.Logger,
) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, profiles, renderer, brand, sender, cfg, log)
	h := handler.New(svc, val)

	return &Module{handler: h}
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "quotes"
}

// RegisterRoutes registers the module's routes. All quote operations require
// an authenticated caller; role checks happen in the service.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/quotes")
	m.handler.RegisterRoutes(group)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

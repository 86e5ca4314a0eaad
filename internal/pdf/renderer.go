// Package pdf renders quote proposals to PDF. Two implementations exist: a
// local one built on gofpdf and a Gotenberg-backed one for deployments that
// run the conversion service.
package pdf

import (
	"context"
	"time"

	"offerte_delivery_backend/internal/quotes/repository"
)

// RenderInput is everything a renderer needs to produce the proposal
// document. Logo slices may be nil; the renderers skip missing artwork.
type RenderInput struct {
	PublicID      string
	Title         string
	Customer      string
	ContactName   string
	CreatedAt     time.Time
	TotalCents    int64
	AcceptanceURL string
	SLAURL        string
	LogoDark      []byte
	LogoLight     []byte
	Items         []repository.LineItem
}

// Renderer produces the proposal PDF. A render failure is fatal for the
// delivery call; there is no fallback document.
type Renderer interface {
	Render(ctx context.Context, input RenderInput) ([]byte, error)
}

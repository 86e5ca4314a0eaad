// Package service implements the quote delivery orchestration: authorization,
// aggregate loading, presentation derivation, document rendering, email
// dispatch, and the final status commit. The pipeline is strictly linear;
// every stage either completes or the whole call fails.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"offerte_delivery_backend/internal/email"
	"offerte_delivery_backend/internal/pdf"
	"offerte_delivery_backend/internal/quotes/repository"
	"offerte_delivery_backend/internal/quotes/transport"
	"offerte_delivery_backend/platform/apperr"
	"offerte_delivery_backend/platform/logger"

	"github.com/google/uuid"
)

const adminRole = "admin"

const warningDeliveryNotConfigured = "email delivery is not configured"

const (
	acceptancePathFmt = "/quotes/%s/accept"
	termsPathFmt      = "/quotes/%s/terms"
)

// QuoteStore is the narrow repository interface the delivery pipeline needs:
// one aggregate read and one conditional status update.
type QuoteStore interface {
	GetByPublicID(ctx context.Context, publicID string) (*repository.Quote, error)
	GetItemsByQuoteID(ctx context.Context, quoteID uuid.UUID) ([]repository.LineItem, error)
	MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error
}

// Profile is the resolved caller identity used for the role check.
type Profile struct {
	UserID uuid.UUID
	Email  string
	Name   string
	Role   string
}

// ProfileReader resolves an authenticated user ID to its stored profile.
// Implemented by an adapter in internal/adapters wrapping the auth service.
type ProfileReader interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*Profile, error)
}

// BrandFetcher retrieves the dark/light logo pair for an origin.
// Both fetches are best-effort; a nil slice means "no logo".
type BrandFetcher interface {
	FetchPair(ctx context.Context, origin string) (dark, light []byte)
}

// OriginConfig supplies the configured base-URL override for derived links.
type OriginConfig interface {
	GetAppBaseURL() string
}

// Service orchestrates quote delivery.
type Service struct {
	store    QuoteStore
	profiles ProfileReader
	renderer pdf.Renderer
	brand    BrandFetcher
	sender   email.Sender // nil means delivery is not configured
	cfg      OriginConfig
	log      *logger.Logger
}

// New creates a new quotes delivery service. A nil sender is valid and puts
// the service into the degraded warning path instead of failing calls.
func New(store QuoteStore, profiles ProfileReader, renderer pdf.Renderer, brand BrandFetcher, sender email.Sender, cfg OriginConfig, log *logger.Logger) *Service {
	return &Service{
		store:    store,
		profiles: profiles,
		renderer: renderer,
		brand:    brand,
		sender:   sender,
		cfg:      cfg,
		log:      log,
	}
}

// Deliver runs the full delivery pipeline for one quote.
//
// Ordering is load-bearing: authorization before any data access, the full
// aggregate before rendering, rendering before dispatch, dispatch before the
// status commit. Logo fetches are the only tolerated failures. A dispatch
// that succeeds but whose commit fails leaves the quote in Draft despite
// having been emailed; that window is reported as an error, not repaired.
func (s *Service) Deliver(ctx context.Context, userID uuid.UUID, requestOrigin string, req transport.DeliverQuoteRequest) (*transport.DeliverQuoteResponse, error) {
	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile.Role != adminRole {
		return nil, apperr.Forbidden("administrator role required")
	}

	if strings.TrimSpace(req.QuoteID) == "" {
		return nil, apperr.Validation("quoteId is required")
	}

	quote, err := s.store.GetByPublicID(ctx, req.QuoteID)
	if err != nil {
		if typed, ok := err.(*apperr.Error); ok {
			return nil, typed
		}
		return nil, apperr.Wrap(apperr.KindInternal, "quote could not be loaded", err)
	}
	items, err := s.store.GetItemsByQuoteID(ctx, quote.ID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "quote items could not be loaded", err)
	}

	origin := s.resolveOrigin(requestOrigin)
	acceptanceURL := deriveURL(origin, acceptancePathFmt, quote.PublicID)
	slaURL := deriveSLAURL(quote, origin)
	logoDark, logoLight := s.brand.FetchPair(ctx, origin)

	document, err := s.renderer.Render(ctx, pdf.RenderInput{
		PublicID:      quote.PublicID,
		Title:         quote.Title,
		Customer:      quote.Customer,
		ContactName:   recipientName(quote),
		CreatedAt:     quote.CreatedAt,
		TotalCents:    quote.TotalCents,
		AcceptanceURL: acceptanceURL,
		SLAURL:        slaURL,
		LogoDark:      logoDark,
		LogoLight:     logoLight,
		Items:         items,
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "proposal rendering failed", err)
	}

	if s.sender == nil {
		s.log.Warn("quote delivery skipped", "quote", quote.PublicID, "reason", warningDeliveryNotConfigured)
		return &transport.DeliverQuoteResponse{OK: true, DryRun: req.DryRun, Warning: warningDeliveryNotConfigured}, nil
	}

	if req.DryRun {
		return &transport.DeliverQuoteResponse{OK: true, DryRun: true}, nil
	}

	attachment := email.Attachment{
		Content:  document,
		FileName: fmt.Sprintf("offerte-%s.pdf", quote.PublicID),
		MIMEType: "application/pdf",
	}
	err = s.sender.SendQuoteProposalEmail(ctx, quote.ContactEmail, email.ProposalData{
		RecipientName: recipientName(quote),
		QuoteTitle:    quote.Title,
		QuoteNumber:   quote.PublicID,
		AcceptanceURL: acceptanceURL,
		SLAURL:        slaURL,
	}, attachment)
	if err != nil {
		s.log.MailEvent("quote_proposal", quote.ContactEmail, false, err.Error())
		return nil, apperr.Wrap(apperr.KindInternal, "email dispatch failed", err)
	}
	s.log.MailEvent("quote_proposal", quote.ContactEmail, true, "")

	if err := s.store.MarkSent(ctx, quote.ID, time.Now()); err != nil {
		// The mail is already out; the quote stays Draft until someone
		// intervenes. Retrying here could double-send, so we surface it.
		s.log.DatabaseError("quotes.MarkSent", err)
		if typed, ok := err.(*apperr.Error); ok {
			return nil, typed
		}
		return nil, apperr.Wrap(apperr.KindInternal, "delivery succeeded but could not be recorded", err)
	}

	return &transport.DeliverQuoteResponse{OK: true, DryRun: false}, nil
}

// resolveOrigin prefers the configured base URL over the inbound request's
// origin. Empty means no origin could be determined; derived URLs collapse
// to empty strings and logos are skipped.
func (s *Service) resolveOrigin(requestOrigin string) string {
	if base := strings.TrimRight(s.cfg.GetAppBaseURL(), "/"); base != "" {
		return base
	}
	return strings.TrimRight(requestOrigin, "/")
}

func deriveURL(origin, pathFmt, publicID string) string {
	if origin == "" {
		return ""
	}
	return origin + fmt.Sprintf(pathFmt, publicID)
}

// deriveSLAURL prefers the quote's stored SLA reference, then falls back to
// the origin-derived terms page, then to empty.
func deriveSLAURL(quote *repository.Quote, origin string) string {
	if quote.SLAURL != nil && *quote.SLAURL != "" {
		return *quote.SLAURL
	}
	return deriveURL(origin, termsPathFmt, quote.PublicID)
}

// recipientName falls back from the contact name to the customer name.
func recipientName(quote *repository.Quote) string {
	if quote.ContactName != nil && strings.TrimSpace(*quote.ContactName) != "" {
		return *quote.ContactName
	}
	return quote.Customer
}

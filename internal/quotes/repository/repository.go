package repository

import (
	"context"
	"fmt"
	"time"

	"offerte_delivery_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// =============================================================================
// Domain Models
// =============================================================================

// Quote is the database model for a quote header.
type Quote struct {
	ID           uuid.UUID  `db:"id"`
	PublicID     string     `db:"public_id"`
	Customer     string     `db:"customer"`
	ContactName  *string    `db:"contact_name"`
	ContactEmail string     `db:"contact_email"`
	Title        string     `db:"title"`
	Status       string     `db:"status"`
	SLAURL       *string    `db:"sla_url"`
	SentAt       *time.Time `db:"sent_at"`
	TotalCents   int64      `db:"total_cents"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

// LineItem is the database model for a quote line item.
type LineItem struct {
	ID             uuid.UUID `db:"id"`
	QuoteID        uuid.UUID `db:"quote_id"`
	Description    string    `db:"description"`
	Quantity       float64   `db:"quantity"`
	UnitPriceCents int64     `db:"unit_price_cents"`
	LineTotalCents int64     `db:"line_total_cents"`
	SortOrder      int       `db:"sort_order"`
	CreatedAt      time.Time `db:"created_at"`
}

// =============================================================================
// Repository
// =============================================================================

const quoteNotFoundMsg = "quote not found"

// Repository provides database operations for quotes.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new quotes repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByPublicID fetches the quote with the given public identifier.
// Uniqueness of public_id is assumed but checked: zero or multiple matches
// both resolve to not-found, so a corrupted index can never leak the wrong
// quote to a customer.
func (r *Repository) GetByPublicID(ctx context.Context, publicID string) (*Quote, error) {
	query := `
		SELECT id, public_id, customer, contact_name, contact_email, title,
			status, sla_url, sent_at, total_cents, created_at, updated_at
		FROM quotes WHERE public_id = $1`

	rows, err := r.pool.Query(ctx, query, publicID)
	if err != nil {
		return nil, fmt.Errorf("failed to query quote: %w", err)
	}
	defer rows.Close()

	var matches []Quote
	for rows.Next() {
		var q Quote
		if err := rows.Scan(
			&q.ID, &q.PublicID, &q.Customer, &q.ContactName, &q.ContactEmail, &q.Title,
			&q.Status, &q.SLAURL, &q.SentAt, &q.TotalCents, &q.CreatedAt, &q.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan quote: %w", err)
		}
		matches = append(matches, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate quotes: %w", err)
	}

	if len(matches) != 1 {
		return nil, apperr.NotFound(quoteNotFoundMsg)
	}
	return &matches[0], nil
}

// GetItemsByQuoteID retrieves all line items for a quote, in sort order.
// An empty result is valid: a quote may have no items.
func (r *Repository) GetItemsByQuoteID(ctx context.Context, quoteID uuid.UUID) ([]LineItem, error) {
	query := `
		SELECT id, quote_id, description, quantity, unit_price_cents,
			line_total_cents, sort_order, created_at
		FROM quote_items WHERE quote_id = $1
		ORDER BY sort_order ASC`

	rows, err := r.pool.Query(ctx, query, quoteID)
	if err != nil {
		return nil, fmt.Errorf("failed to query quote items: %w", err)
	}
	defer rows.Close()

	var items []LineItem
	for rows.Next() {
		var it LineItem
		if err := rows.Scan(
			&it.ID, &it.QuoteID, &it.Description, &it.Quantity,
			&it.UnitPriceCents, &it.LineTotalCents, &it.SortOrder, &it.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan quote item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate quote items: %w", err)
	}
	return items, nil
}

// MarkSent records the delivery: status becomes Sent and sent_at is set.
// This runs only after a successful dispatch; a failure here leaves an
// emailed quote in Draft, which the caller surfaces as a server error.
func (r *Repository) MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error {
	query := `UPDATE quotes SET status = 'Sent', sent_at = $2, updated_at = $2 WHERE id = $1`
	result, err := r.pool.Exec(ctx, query, id, sentAt)
	if err != nil {
		return fmt.Errorf("failed to mark quote sent: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.Internal("quote delivery could not be recorded")
	}
	return nil
}

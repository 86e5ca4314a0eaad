// Package transport defines the request/response DTOs for the quotes module.
package transport

// QuoteStatus is the lifecycle status of a quote.
type QuoteStatus string

const (
	QuoteStatusDraft    QuoteStatus = "Draft"
	QuoteStatusSent     QuoteStatus = "Sent"
	QuoteStatusAccepted QuoteStatus = "Accepted"
	QuoteStatusRejected QuoteStatus = "Rejected"
)

// DeliverQuoteRequest is the payload for POST /quotes/deliver.
type DeliverQuoteRequest struct {
	QuoteID string `json:"quoteId" validate:"required"`
	DryRun  bool   `json:"dryRun"`
}

// DeliverQuoteResponse reports the outcome of a delivery call.
// Warning is set only on the unconfigured-delivery path, where the call
// succeeds without sending anything.
type DeliverQuoteResponse struct {
	OK      bool   `json:"ok"`
	DryRun  bool   `json:"dryRun"`
	Warning string `json:"warning,omitempty"`
}

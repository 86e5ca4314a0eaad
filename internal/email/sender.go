// Package email renders and dispatches outbound mail for the delivery
// service. Transport is SMTP via go-mail; templates are embedded HTML with a
// generated plaintext alternative.
package email

import "context"

// Attachment represents a file attachment for an email.
type Attachment struct {
	Content  []byte // raw file bytes, encoded by the transport
	FileName string // e.g. "offerte-Q-00042.pdf"
	MIMEType string // e.g. "application/pdf"
}

// ProposalData carries the fields rendered into the proposal email.
type ProposalData struct {
	RecipientName string
	QuoteTitle    string
	QuoteNumber   string
	AcceptanceURL string
	SLAURL        string
}

// Sender dispatches the outbound mails this service sends. A nil Sender at
// the call site means mail delivery is not configured for this deployment.
type Sender interface {
	SendQuoteProposalEmail(ctx context.Context, toEmail string, data ProposalData, attachments ...Attachment) error
}

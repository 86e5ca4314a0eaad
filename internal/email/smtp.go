package email

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"time"

	"offerte_delivery_backend/platform/config"

	gomail "github.com/wneessen/go-mail"
)

// SMTPSender implements the Sender interface using a direct SMTP connection
// via go-mail. Every message carries a plaintext body with the HTML template
// as alternative, so the proposal survives text-only clients.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewSMTPSender creates a new SMTPSender from the email configuration.
// Callers must only construct one when delivery is actually configured.
func NewSMTPSender(cfg config.EmailConfig) *SMTPSender {
	return &SMTPSender{
		host:      cfg.GetSMTPHost(),
		port:      cfg.GetSMTPPort(),
		username:  cfg.GetSMTPUsername(),
		password:  cfg.GetSMTPPassword(),
		fromName:  cfg.GetEmailFromName(),
		fromEmail: cfg.GetEmailFromAddress(),
	}
}

func (s *SMTPSender) send(ctx context.Context, toEmail, subject, textContent, htmlContent string, attachments ...Attachment) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, textContent)
	msg.AddAlternativeString(gomail.TypeTextHTML, htmlContent)

	for _, att := range attachments {
		msg.AttachReader(att.FileName, bytes.NewReader(att.Content))
	}

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}

// SendQuoteProposalEmail sends the proposal to the quote's contact, with the
// rendered PDF attached.
func (s *SMTPSender) SendQuoteProposalEmail(ctx context.Context, toEmail string, data ProposalData, attachments ...Attachment) error {
	subject := fmt.Sprintf(subjectQuoteProposalFmt, data.QuoteNumber, data.QuoteTitle)
	content, err := renderEmailTemplate("quote_proposal.html", quoteProposalEmailData{
		baseEmailData: baseEmailData{
			Title:    "Uw offerte is klaar",
			Heading:  "Uw offerte is klaar",
			CTALabel: "Offerte accepteren",
			CTAURL:   data.AcceptanceURL,
		},
		RecipientName: data.RecipientName,
		QuoteTitle:    data.QuoteTitle,
		QuoteNumber:   data.QuoteNumber,
		SLAURL:        data.SLAURL,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subject, proposalPlaintext(data), content, attachments...)
}

var _ Sender = (*SMTPSender)(nil)

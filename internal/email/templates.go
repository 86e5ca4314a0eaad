package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title    string
	Heading  string
	CTALabel string
	CTAURL   string
}

type quoteProposalEmailData struct {
	baseEmailData
	RecipientName string
	QuoteTitle    string
	QuoteNumber   string
	SLAURL        string
}

func renderEmailTemplate(name string, data any) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.New("base.html").ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}

// proposalPlaintext builds the text/plain alternative so the mail stays
// readable in clients that never render HTML.
func proposalPlaintext(data ProposalData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Beste %s,\n\n", data.RecipientName)
	fmt.Fprintf(&b, "Hierbij ontvangt u offerte %s (%s) als PDF-bijlage.\n\n", data.QuoteNumber, data.QuoteTitle)
	if data.AcceptanceURL != "" {
		fmt.Fprintf(&b, "Accepteer de offerte online: %s\n", data.AcceptanceURL)
	}
	if data.SLAURL != "" {
		fmt.Fprintf(&b, "Voorwaarden en SLA: %s\n", data.SLAURL)
	}
	b.WriteString("\nMet vriendelijke groet\n")
	return b.String()
}

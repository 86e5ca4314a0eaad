package pdf

import (
	"bytes"
	"context"
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"offerte_delivery_backend/internal/quotes/repository"
)

//go:embed templates/*.html
var proposalTemplateFS embed.FS

// GotenbergClient converts HTML to PDF via a Gotenberg instance.
type GotenbergClient struct {
	baseURL  string
	username string
	password string
	http     *http.Client
}

// NewGotenbergClient creates a client pointing at the given Gotenberg URL.
// If username and password are non-empty, every request includes Basic Auth.
func NewGotenbergClient(baseURL, username, password string) *GotenbergClient {
	return &GotenbergClient{
		baseURL:  baseURL,
		username: username,
		password: password,
		http: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// ConvertHTML sends index.html to Gotenberg and returns the resulting PDF bytes.
func (g *GotenbergClient) ConvertHTML(ctx context.Context, indexHTML []byte) ([]byte, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	fields := map[string]string{
		"paperWidth":      "8.27",
		"paperHeight":     "11.7",
		"marginTop":       "0.5",
		"marginBottom":    "0.7",
		"marginLeft":      "0.5",
		"marginRight":     "0.5",
		"printBackground": "true",
	}
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("write field %s: %w", k, err)
		}
	}

	if err := addFilePart(writer, "index.html", "text/html", indexHTML); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	url := g.baseURL + "/forms/chromium/convert/html"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if g.username != "" && g.password != "" {
		req.SetBasicAuth(g.username, g.password)
	}

	resp, err := g.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gotenberg convert: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("gotenberg convert returned %d: %s", resp.StatusCode, string(errBody))
	}

	result, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read gotenberg response: %w", err)
	}
	return result, nil
}

func addFilePart(w *multipart.Writer, filename, mimeType string, content []byte) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename="%s"`, filename))
	h.Set("Content-Type", mimeType)

	part, err := w.CreatePart(h)
	if err != nil {
		return fmt.Errorf("create part %s: %w", filename, err)
	}
	if _, err := part.Write(content); err != nil {
		return fmt.Errorf("write part %s: %w", filename, err)
	}
	return nil
}

// GotenbergRenderer implements Renderer by rendering the proposal HTML
// template and converting it through Gotenberg.
type GotenbergRenderer struct {
	client *GotenbergClient
	tmpl   *template.Template
}

// NewGotenbergRenderer parses the embedded proposal template and wires it to
// the given client.
func NewGotenbergRenderer(client *GotenbergClient) (*GotenbergRenderer, error) {
	tmpl, err := template.ParseFS(proposalTemplateFS, "templates/proposal.html")
	if err != nil {
		return nil, fmt.Errorf("parse proposal template: %w", err)
	}
	return &GotenbergRenderer{client: client, tmpl: tmpl}, nil
}

type proposalTemplateData struct {
	PublicID      string
	Title         string
	Customer      string
	ContactName   string
	Date          string
	Total         string
	AcceptanceURL string
	SLAURL        string
	LogoDarkURI   template.URL
	LogoLightURI  template.URL
	Items         []proposalTemplateItem
}

type proposalTemplateItem struct {
	Description string
	Quantity    string
	UnitPrice   string
	LineTotal   string
}

// Render produces the proposal PDF through Gotenberg.
func (r *GotenbergRenderer) Render(ctx context.Context, input RenderInput) ([]byte, error) {
	data := proposalTemplateData{
		PublicID:      input.PublicID,
		Title:         input.Title,
		Customer:      input.Customer,
		ContactName:   input.ContactName,
		Date:          input.CreatedAt.Format("02-01-2006"),
		Total:         formatEUR(input.TotalCents),
		AcceptanceURL: input.AcceptanceURL,
		SLAURL:        input.SLAURL,
		LogoDarkURI:   logoDataURI(input.LogoDark),
		LogoLightURI:  logoDataURI(input.LogoLight),
		Items:         templateItems(input.Items),
	}

	var html bytes.Buffer
	if err := r.tmpl.Execute(&html, data); err != nil {
		return nil, fmt.Errorf("render proposal html: %w", err)
	}
	return r.client.ConvertHTML(ctx, html.Bytes())
}

func templateItems(items []repository.LineItem) []proposalTemplateItem {
	out := make([]proposalTemplateItem, 0, len(items))
	for _, item := range items {
		out = append(out, proposalTemplateItem{
			Description: item.Description,
			Quantity:    formatQuantity(item.Quantity),
			UnitPrice:   formatEUR(item.UnitPriceCents),
			LineTotal:   formatEUR(item.LineTotalCents),
		})
	}
	return out
}

// logoDataURI inlines the logo so Gotenberg needs no network access to
// render it. Empty input yields an empty URI and the template skips the tag.
func logoDataURI(data []byte) template.URL {
	if len(data) == 0 {
		return ""
	}
	mime := http.DetectContentType(data)
	return template.URL(fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(data)))
}

var _ Renderer = (*GotenbergRenderer)(nil)

package pdf

import (
	"bytes"
	"context"
	"fmt"
	"image"

	_ "image/jpeg"
	_ "image/png"

	"github.com/jung-kurt/gofpdf"
)

// LocalRenderer renders the proposal with gofpdf using the built-in core
// fonts, so it needs no font files and no external service.
type LocalRenderer struct{}

// NewLocalRenderer creates the gofpdf-backed renderer.
func NewLocalRenderer() *LocalRenderer {
	return &LocalRenderer{}
}

// Render produces an A4 proposal document: header with logo, quote metadata,
// the line item table, the total, and the acceptance and SLA links.
func (r *LocalRenderer) Render(_ context.Context, input RenderInput) ([]byte, error) {
	doc := gofpdf.New("P", "mm", "A4", "")
	tr := doc.UnicodeTranslatorFromDescriptor("")
	doc.SetTitle(fmt.Sprintf("Offerte %s", input.PublicID), true)
	doc.AddPage()

	y := 15.0
	if name, ok := registerLogo(doc, "logo-dark", input.LogoDark); ok {
		doc.ImageOptions(name, 15, y, 40, 0, false, gofpdf.ImageOptions{}, 0, "")
		y += 22
	}

	doc.SetXY(15, y)
	doc.SetFont("Helvetica", "B", 18)
	doc.Cell(0, 10, tr(fmt.Sprintf("Offerte %s", input.PublicID)))
	doc.Ln(10)
	doc.SetFont("Helvetica", "", 12)
	doc.Cell(0, 7, tr(input.Title))
	doc.Ln(12)

	doc.SetFont("Helvetica", "", 10)
	writeMetaRow(doc, tr, "Klant", input.Customer)
	writeMetaRow(doc, tr, "Ter attentie van", input.ContactName)
	writeMetaRow(doc, tr, "Datum", input.CreatedAt.Format("02-01-2006"))
	doc.Ln(8)

	r.writeItemTable(doc, tr, input)

	doc.Ln(10)
	doc.SetFont("Helvetica", "", 10)
	if input.AcceptanceURL != "" {
		doc.SetTextColor(37, 99, 235)
		doc.CellFormat(0, 6, tr("Offerte online accepteren"), "", 1, "L", false, 0, input.AcceptanceURL)
	}
	if input.SLAURL != "" {
		doc.SetTextColor(37, 99, 235)
		doc.CellFormat(0, 6, tr("Voorwaarden en service level agreement"), "", 1, "L", false, 0, input.SLAURL)
	}
	doc.SetTextColor(0, 0, 0)

	if name, ok := registerLogo(doc, "logo-light", input.LogoLight); ok {
		doc.ImageOptions(name, 170, 275, 25, 0, false, gofpdf.ImageOptions{}, 0, "")
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render proposal pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *LocalRenderer) writeItemTable(doc *gofpdf.Fpdf, tr func(string) string, input RenderInput) {
	const (
		descW  = 90.0
		qtyW   = 20.0
		priceW = 35.0
		lineW  = 35.0
	)

	doc.SetFont("Helvetica", "B", 10)
	doc.SetFillColor(26, 26, 46)
	doc.SetTextColor(255, 255, 255)
	doc.CellFormat(descW, 8, tr("Omschrijving"), "1", 0, "L", true, 0, "")
	doc.CellFormat(qtyW, 8, tr("Aantal"), "1", 0, "R", true, 0, "")
	doc.CellFormat(priceW, 8, tr("Prijs per stuk"), "1", 0, "R", true, 0, "")
	doc.CellFormat(lineW, 8, tr("Totaal"), "1", 1, "R", true, 0, "")

	doc.SetFont("Helvetica", "", 10)
	doc.SetTextColor(0, 0, 0)
	for _, item := range input.Items {
		doc.CellFormat(descW, 7, tr(item.Description), "1", 0, "L", false, 0, "")
		doc.CellFormat(qtyW, 7, tr(formatQuantity(item.Quantity)), "1", 0, "R", false, 0, "")
		doc.CellFormat(priceW, 7, tr(formatEUR(item.UnitPriceCents)), "1", 0, "R", false, 0, "")
		doc.CellFormat(lineW, 7, tr(formatEUR(item.LineTotalCents)), "1", 1, "R", false, 0, "")
	}

	doc.SetFont("Helvetica", "B", 10)
	doc.CellFormat(descW+qtyW+priceW, 8, tr("Totaal"), "1", 0, "R", false, 0, "")
	doc.CellFormat(lineW, 8, tr(formatEUR(input.TotalCents)), "1", 1, "R", false, 0, "")
}

func writeMetaRow(doc *gofpdf.Fpdf, tr func(string) string, label, value string) {
	doc.SetFont("Helvetica", "B", 10)
	doc.CellFormat(40, 6, tr(label), "", 0, "L", false, 0, "")
	doc.SetFont("Helvetica", "", 10)
	doc.CellFormat(0, 6, tr(value), "", 1, "L", false, 0, "")
}

// registerLogo validates the image bytes before handing them to gofpdf so a
// corrupt logo degrades to "no logo" instead of poisoning the document state.
func registerLogo(doc *gofpdf.Fpdf, name string, data []byte) (string, bool) {
	if len(data) == 0 {
		return "", false
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", false
	}
	var imageType string
	switch format {
	case "png":
		imageType = "PNG"
	case "jpeg":
		imageType = "JPG"
	default:
		return "", false
	}
	doc.RegisterImageOptionsReader(name, gofpdf.ImageOptions{ImageType: imageType}, bytes.NewReader(data))
	if doc.Err() {
		doc.ClearError()
		return "", false
	}
	return name, true
}

func formatEUR(cents int64) string {
	return fmt.Sprintf("€ %.2f", float64(cents)/100)
}

func formatQuantity(q float64) string {
	if q == float64(int64(q)) {
		return fmt.Sprintf("%d", int64(q))
	}
	return fmt.Sprintf("%.2f", q)
}

var _ Renderer = (*LocalRenderer)(nil)

package report

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/go-pdf/fpdf"
)

const (
	pdfFont  = "Helvetica"
	logoName = "logo"
)

// PDFRenderer replays composed blocks onto an fpdf document
type PDFRenderer struct {
	layout Layout
	logo   *Logo
}

// NewPDFRenderer creates a renderer. logo may be nil.
func NewPDFRenderer(layout Layout, logo *Logo) *PDFRenderer {
	return &PDFRenderer{layout: layout, logo: logo}
}

// HasLogo reports whether a logo image will be drawn.
func (r *PDFRenderer) HasLogo() bool {
	return r.logo != nil && len(r.logo.PNG) > 0
}

// Render writes doc as PDF to w.
func (r *PDFRenderer) Render(doc Document, w io.Writer) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(r.layout.Margin, r.layout.Margin, r.layout.Margin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(doc.Header.Title, true)
	pdf.SetCreator("fleet-analytics", true)
	if !doc.Header.GeneratedAt.IsZero() {
		pdf.SetCreationDate(doc.Header.GeneratedAt)
		pdf.SetModificationDate(doc.Header.GeneratedAt)
	}
	pdf.SetCatalogSort(true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	logoOpts := fpdf.ImageOptions{ImageType: "PNG"}
	hasLogo := false
	if r.HasLogo() {
		pdf.RegisterImageOptionsReader(logoName, logoOpts, bytes.NewReader(r.logo.PNG))
		hasLogo = pdf.Ok()
		if !hasLogo {
			// a bad logo must not sink the report
			pdf.ClearError()
		}
	}

	page := 0
	for _, b := range doc.Blocks {
		for page < b.Page {
			pdf.AddPage()
			page++
		}
		switch b.Kind {
		case BlockRect:
			red, green, blue := rgb(b.Fill)
			pdf.SetFillColor(red, green, blue)
			pdf.Rect(b.X, b.Y, b.W, b.H, "F")
		case BlockLine:
			red, green, blue := rgb(b.Color)
			pdf.SetDrawColor(red, green, blue)
			pdf.SetLineWidth(0.3)
			pdf.Line(b.X, b.Y, b.X+b.W, b.Y+b.H)
		case BlockImage:
			if hasLogo {
				pdf.ImageOptions(logoName, b.X, b.Y, b.W, b.H, false, logoOpts, 0, "")
			}
		case BlockText:
			style := ""
			if b.Bold {
				style = "B"
			}
			pdf.SetFont(pdfFont, style, b.Size)
			red, green, blue := rgb(b.Color)
			pdf.SetTextColor(red, green, blue)
			pdf.SetXY(b.X, b.Y)
			pdf.CellFormat(b.W, b.H, tr(b.Text), "", 0, string(b.Align)+"M", false, 0, "")
		}
	}
	for page < doc.Pages {
		pdf.AddPage()
		page++
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

// FPDFMeasure measures text with fpdf's core Helvetica metrics, so that the
// composer wraps and truncates exactly as the renderer prints.
func FPDFMeasure() Measure {
	var mu sync.Mutex
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	return func(text string, size float64, bold bool) float64 {
		mu.Lock()
		defer mu.Unlock()
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont(pdfFont, style, size)
		return pdf.GetStringWidth(tr(text))
	}
}

// rgb parses "#rrggbb"; anything else is black.
func rgb(hex string) (int, int, int) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return 0, 0, 0
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, 0, 0
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)
}

package report

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/signintech/gopdf"
)

// ErrFontUnavailable means none of the configured font paths could be loaded.
var ErrFontUnavailable = errors.New("no usable font for PDF rendering")

// DefaultFontPaths covers the DejaVu locations of common Linux images.
var DefaultFontPaths = []string{
	"/usr/share/fonts/ttf-dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
}

const (
	fontFamily = "DejaVu"
	textWidth  = 500
)

// Renderer lays out a Document as an A4 PDF.
type Renderer struct {
	fontPaths []string
}

func NewRenderer(fontPaths []string) *Renderer {
	if len(fontPaths) == 0 {
		fontPaths = DefaultFontPaths
	}
	return &Renderer{fontPaths: fontPaths}
}

func (r *Renderer) Render(d Document) ([]byte, error) {
	pdf := gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	pdf.AddPage()

	var fontErr error
	fontLoaded := false
	for _, path := range r.fontPaths {
		if err := pdf.AddTTFFont(fontFamily, path); err == nil {
			fontLoaded = true
			break
		} else {
			fontErr = err
		}
	}
	if !fontLoaded {
		return nil, fmt.Errorf("%w: last error: %v", ErrFontUnavailable, fontErr)
	}

	if err := r.heading(&pdf, "Triage Summary", 20); err != nil {
		return nil, err
	}
	pdf.Br(30)

	if err := pdf.SetFont(fontFamily, "", 12); err != nil {
		return nil, err
	}
	r.line(&pdf, fmt.Sprintf("Date: %s", d.CreatedAt.Format("02.01.2006 15:04 MST")), 15)
	r.line(&pdf, fmt.Sprintf("Session: %s", d.SessionID), 15)
	if d.AgeGroup != "" {
		r.line(&pdf, fmt.Sprintf("Age group: %s", d.AgeGroup), 15)
	}
	r.line(&pdf, fmt.Sprintf("Urgency: %s (score %d, confidence %.0f%%)", d.UrgencyLevel, d.TotalScore, d.Confidence*100), 15)
	if d.ResponseTime != "" {
		r.line(&pdf, fmt.Sprintf("Expected response: %s", d.ResponseTime), 15)
	}
	pdf.Br(10)

	if err := r.section(&pdf, "Reported symptoms:"); err != nil {
		return nil, err
	}
	for _, s := range d.Symptoms {
		text := fmt.Sprintf("- %s (%s)", s.Name, s.Severity)
		if s.Duration != "" {
			text += ", " + s.Duration
		}
		r.wrapped(&pdf, text)
	}
	pdf.Br(10)

	if len(d.RedFlags) > 0 {
		if err := r.section(&pdf, "Red flags:"); err != nil {
			return nil, err
		}
		for _, f := range d.RedFlags {
			r.wrapped(&pdf, "- "+f)
		}
		pdf.Br(10)
	}

	if err := r.section(&pdf, "Possible conditions:"); err != nil {
		return nil, err
	}
	if len(d.Conditions) == 0 {
		r.wrapped(&pdf, "- No matching conditions.")
	}
	for _, c := range d.Conditions {
		r.wrapped(&pdf, fmt.Sprintf("- %s [%s] (match %.0f%%)", c.Name, c.Urgency, c.MatchScore*100))
	}
	pdf.Br(10)

	if d.Recommendation != "" {
		if err := r.section(&pdf, "Recommendation:"); err != nil {
			return nil, err
		}
		r.wrapped(&pdf, d.Recommendation)
		pdf.Br(10)
	}
	if d.Reasoning != "" {
		if err := r.section(&pdf, "Reasoning:"); err != nil {
			return nil, err
		}
		r.wrapped(&pdf, d.Reasoning)
		pdf.Br(10)
	}

	if d.Disclaimer != "" {
		if err := pdf.SetFont(fontFamily, "", 9); err != nil {
			return nil, err
		}
		r.wrapped(&pdf, d.Disclaimer)
	}

	var buf bytes.Buffer
	if _, err := pdf.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) heading(pdf *gopdf.GoPdf, text string, size float64) error {
	if err := pdf.SetFont(fontFamily, "", size); err != nil {
		return err
	}
	return pdf.Cell(nil, text)
}

func (r *Renderer) section(pdf *gopdf.GoPdf, title string) error {
	if err := r.heading(pdf, title, 14); err != nil {
		return err
	}
	pdf.Br(15)
	return pdf.SetFont(fontFamily, "", 11)
}

func (r *Renderer) line(pdf *gopdf.GoPdf, text string, gap float64) {
	_ = pdf.Cell(nil, text)
	pdf.Br(gap)
}

// wrapped splits text on newlines and page width.
func (r *Renderer) wrapped(pdf *gopdf.GoPdf, text string) {
	for _, para := range splitParagraphs(text) {
		lines, err := pdf.SplitText(para, textWidth)
		if err != nil {
			lines = []string{para}
		}
		for _, l := range lines {
			_ = pdf.Cell(nil, l)
			pdf.Br(12)
		}
	}
}

func splitParagraphs(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool { return r == '\n' })
}

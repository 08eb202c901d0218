package report

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"
)

// ErrArtifactDegraded marks a sub-artifact that was left out of a document.
var ErrArtifactDegraded = errors.New("report artifact degraded")

// Artifacts that can be dropped without failing the document.
const (
	ArtifactLogo  = "logo"
	ArtifactFont  = "font"
	ArtifactChart = "chart"
	ArtifactQR    = "qr"
)

// Degradation records one omitted artifact.
type Degradation struct {
	Artifact string
	Err      error
}

func (d Degradation) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrArtifactDegraded, d.Artifact, d.Err)
}

func (d Degradation) Unwrap() []error { return []error{ErrArtifactDegraded, d.Err} }

// Document is a rendered report.
type Document struct {
	Filename string
	Bytes    []byte
	Degraded []Degradation
}

// Layout, in points on A4.
const (
	pageMargin   = 36.0
	logoMaxWidth = 140.0
	tableLabelW  = 220.0
	tableScoreW  = 150.0
	tableRowH    = 18.0
	chartWidth   = 420.0
	chartLabelW  = 150.0
	chartBarH    = 22.0
	chartMax     = 5.0
	ctaTextW     = 430.0
	ctaCellW     = 80.0
	qrSize       = 60.0
	qrPixels     = 256
	bodyFamily   = "body"
	coreFamily   = "Helvetica"
)

var (
	brandFill    = [3]int{0xf0, 0xf7, 0xf7}
	stripeFill   = [3]int{245, 245, 245}
	barFill      = [3]int{31, 119, 180}
	gridDraw     = [3]int{200, 200, 200}
	tableBorders = [3]int{128, 128, 128}
)

// PDFRenderer turns a Model into a one-page A4 PDF.
type PDFRenderer struct {
	FontPath string
	LogoPath string
	logger   *slog.Logger
}

func NewPDFRenderer(fontPath, logoPath string, logger *slog.Logger) *PDFRenderer {
	return &PDFRenderer{FontPath: fontPath, LogoPath: logoPath, logger: logger}
}

// renderState carries one rendering pass.
type renderState struct {
	pdf      *fpdf.Fpdf
	family   string
	boldable bool
	tr       func(string) string
	degraded []Degradation
}

func (s *renderState) degrade(artifact string, err error) {
	s.degraded = append(s.degraded, Degradation{Artifact: artifact, Err: err})
}

func (s *renderState) font(bold bool, size float64) {
	style := ""
	if bold && s.boldable {
		style = "B"
	}
	s.pdf.SetFont(s.family, style, size)
}

// Render produces the document. Logo, font, chart and QR code are each
// optional: a failure there is reported in Document.Degraded and the rest of
// the document is still produced. An error is returned only when the document
// itself cannot be written.
func (r *PDFRenderer) Render(m Model) (Document, error) {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.SetTitle(m.Title, true)

	st := &renderState{pdf: pdf}
	r.setupFont(st)
	pdf.AddPage()

	r.drawLogo(st)
	drawHeader(st, m)
	drawTable(st, m.Table)
	if err := drawChart(st, m.Chart); err != nil {
		st.degrade(ArtifactChart, err)
	}
	drawCTA(st, m.CTA)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return Document{}, fmt.Errorf("write pdf: %w", err)
	}

	for _, d := range st.degraded {
		r.logger.Warn("report artifact omitted", "artifact", d.Artifact, "error", d.Err)
	}
	return Document{Filename: m.Filename, Bytes: buf.Bytes(), Degraded: st.degraded}, nil
}

func (r *PDFRenderer) setupFont(st *renderState) {
	pdf := st.pdf
	if r.FontPath != "" {
		data, err := os.ReadFile(r.FontPath)
		if err == nil {
			pdf.AddUTF8FontFromBytes(bodyFamily, "", data)
			err = pdf.Error()
			pdf.ClearError()
		}
		if err == nil {
			st.family = bodyFamily
			st.tr = func(s string) string { return s }
			return
		}
		st.degrade(ArtifactFont, err)
	}
	st.family = coreFamily
	st.boldable = true
	st.tr = pdf.UnicodeTranslatorFromDescriptor("")
}

func (r *PDFRenderer) drawLogo(st *renderState) {
	if r.LogoPath == "" {
		return
	}
	pdf := st.pdf

	data, err := os.ReadFile(r.LogoPath)
	if err != nil {
		st.degrade(ArtifactLogo, err)
		return
	}
	opts := fpdf.ImageOptions{ImageType: imageType(r.LogoPath), ReadDpi: false}
	info := pdf.RegisterImageOptionsReader("logo", opts, bytes.NewReader(data))
	if err := pdf.Error(); err != nil || info == nil {
		pdf.ClearError()
		if err == nil {
			err = errors.New("unreadable image")
		}
		st.degrade(ArtifactLogo, err)
		return
	}

	w, h := info.Width(), info.Height()
	if w > logoMaxWidth {
		h = h * logoMaxWidth / w
		w = logoMaxWidth
	}
	pdf.ImageOptions("logo", pageMargin, pdf.GetY(), w, h, true, opts, 0, "")
	pdf.Ln(8)
}

func imageType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "JPG"
	case ".gif":
		return "GIF"
	default:
		return "PNG"
	}
}

func drawHeader(st *renderState, m Model) {
	pdf := st.pdf
	width := contentWidth(pdf)

	st.font(true, 20)
	pdf.CellFormat(width, 28, st.tr(m.Title), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	st.font(false, 10)
	meta := fmt.Sprintf("Company: %s  /  Date: %s  /  Signal: %s  /  Type: %s",
		m.Company, m.Timestamp, m.Signal, m.Archetype)
	pdf.MultiCell(width, 14, st.tr(meta), "", "L", false)
	pdf.Ln(8)

	heading(st, "Diagnosis comment")
	st.font(false, 10)
	pdf.MultiCell(width, 14, st.tr(m.Narrative), "", "L", false)
	pdf.Ln(8)
}

func heading(st *renderState, text string) {
	st.font(true, 13)
	st.pdf.CellFormat(contentWidth(st.pdf), 20, st.tr(text), "", 1, "L", false, 0, "")
}

func drawTable(st *renderState, rows []Row) {
	pdf := st.pdf
	pdf.SetDrawColor(tableBorders[0], tableBorders[1], tableBorders[2])
	pdf.SetLineWidth(0.3)

	st.font(true, 10)
	pdf.SetFillColor(brandFill[0], brandFill[1], brandFill[2])
	pdf.CellFormat(tableLabelW, tableRowH, st.tr("Category"), "1", 0, "L", true, 0, "")
	pdf.CellFormat(tableScoreW, tableRowH, st.tr("Mean score (0-5)"), "1", 1, "C", true, 0, "")

	st.font(false, 10)
	for i, row := range rows {
		fill := stripeFill
		if i%2 == 1 {
			fill = [3]int{255, 255, 255}
		}
		pdf.SetFillColor(fill[0], fill[1], fill[2])
		pdf.CellFormat(tableLabelW, tableRowH, st.tr(row.Label), "1", 0, "L", true, 0, "")
		pdf.CellFormat(tableScoreW, tableRowH, row.Display, "1", 1, "C", true, 0, "")
	}
	pdf.Ln(8)
}

// drawChart draws horizontal bars on a 0-5 axis, rows in the given order from
// the bottom up so the lowest score sits at the bottom.
func drawChart(st *renderState, rows []Row) error {
	if len(rows) == 0 {
		return errors.New("no scores to chart")
	}
	for _, row := range rows {
		if math.IsNaN(row.Score) || row.Score < 0 || row.Score > chartMax {
			return fmt.Errorf("score %v for %s outside 0-%g", row.Score, row.Label, chartMax)
		}
	}

	pdf := st.pdf
	heading(st, "Scores by category")

	left, top := pageMargin, pdf.GetY()+4
	plotX := left + chartLabelW
	plotW := chartWidth - chartLabelW
	plotH := chartBarH * float64(len(rows))

	pdf.SetDrawColor(gridDraw[0], gridDraw[1], gridDraw[2])
	pdf.SetLineWidth(0.5)
	pdf.SetDashPattern([]float64{2, 2}, 0)
	for tick := 0; tick <= int(chartMax); tick++ {
		x := plotX + plotW*float64(tick)/chartMax
		pdf.Line(x, top, x, top+plotH)
	}
	pdf.SetDashPattern([]float64{}, 0)

	st.font(false, 9)
	pdf.SetFillColor(barFill[0], barFill[1], barFill[2])
	for i, row := range rows {
		y := top + plotH - chartBarH*float64(i+1)
		pdf.SetXY(left, y)
		pdf.CellFormat(chartLabelW-6, chartBarH, st.tr(row.Label), "", 0, "R", false, 0, "")
		if w := plotW * row.Score / chartMax; w > 0 {
			pdf.Rect(plotX, y+4, w, chartBarH-8, "F")
		}
	}

	for tick := 0; tick <= int(chartMax); tick++ {
		x := plotX + plotW*float64(tick)/chartMax
		pdf.SetXY(x-10, top+plotH+2)
		pdf.CellFormat(20, 12, fmt.Sprintf("%d", tick), "", 0, "C", false, 0, "")
	}
	pdf.SetXY(plotX, top+plotH+14)
	pdf.CellFormat(plotW, 12, st.tr("Mean score (0-5)"), "", 1, "C", false, 0, "")
	pdf.SetX(left)
	pdf.Ln(8)
	return nil
}

func drawCTA(st *renderState, cta CallToAction) {
	pdf := st.pdf
	heading(st, cta.Heading)

	x, y := pdf.GetX(), pdf.GetY()
	st.font(false, 10)
	pdf.CellFormat(ctaTextW, qrSize, st.tr("Details and booking: "+cta.URL), "", 0, "LM", false, 0, cta.URL)

	png, err := qrcode.Encode(cta.URL, qrcode.Medium, qrPixels)
	if err != nil {
		st.degrade(ArtifactQR, err)
		pdf.SetXY(x, y+qrSize)
		return
	}
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("cta-qr", opts, bytes.NewReader(png))
	if err := pdf.Error(); err != nil {
		pdf.ClearError()
		st.degrade(ArtifactQR, err)
		pdf.SetXY(x, y+qrSize)
		return
	}
	qrX := x + ctaTextW + (ctaCellW - qrSize)
	pdf.ImageOptions("cta-qr", qrX, y, qrSize, qrSize, false, opts, 0, "")
	pdf.SetXY(x, y+qrSize)
}

func contentWidth(pdf *fpdf.Fpdf) float64 {
	w, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	return w - left - right
}

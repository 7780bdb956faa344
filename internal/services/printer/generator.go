package printer

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/skip2/go-qrcode"
)

// MaxLabels caps a single print job
const MaxLabels = 500

// LabelConfig holds the sheet layout for PDF generation
type LabelConfig struct {
	Count      int     `json:"count"`
	Cols       int     `json:"cols"`
	Rows       int     `json:"rows"`
	MarginTop  float64 `json:"marginTop"`
	MarginLeft float64 `json:"marginLeft"`
	GapX       float64 `json:"gapX"`
	GapY       float64 `json:"gapY"`
}

// DefaultLabelConfig is a 3x8 sheet of adhesive labels
func DefaultLabelConfig() LabelConfig {
	return LabelConfig{Count: 1, Cols: 3, Rows: 8, MarginTop: 10, MarginLeft: 7, GapX: 2.5, GapY: 0}
}

// ItemLabel is the content printed on every label of a job
type ItemLabel struct {
	Name     string
	Location string
	URL      string
}

// Validate rejects layouts that cannot be printed
func (c LabelConfig) Validate() error {
	switch {
	case c.Count < 1 || c.Count > MaxLabels:
		return fmt.Errorf("count must be between 1 and %d", MaxLabels)
	case c.Cols < 1 || c.Rows < 1:
		return errors.New("cols and rows must be positive")
	case c.MarginTop < 0 || c.MarginLeft < 0 || c.GapX < 0 || c.GapY < 0:
		return errors.New("margins and gaps cannot be negative")
	}
	return nil
}

// GenerateItemLabelsPDF lays out cfg.Count copies of an item label on A4
// pages. Each label carries a QR code of label.URL with the name and
// location underneath.
func GenerateItemLabelsPDF(label ItemLabel, cfg LabelConfig) ([]byte, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetFont("Arial", "B", 10)

	// A4 dimensions
	pageWidth, pageHeight := 210.0, 297.0

	totalGapX := float64(cfg.Cols-1) * cfg.GapX
	totalGapY := float64(cfg.Rows-1) * cfg.GapY

	// Margins are symmetric
	availW := pageWidth - (cfg.MarginLeft * 2)
	availH := pageHeight - (cfg.MarginTop * 2)

	labelW := (availW - totalGapX) / float64(cfg.Cols)
	labelH := (availH - totalGapY) / float64(cfg.Rows)
	if labelW <= 0 || labelH <= 0 {
		return nil, errors.New("layout leaves no room for labels")
	}

	// Every label shows the same code, so the image is registered once
	qrPng, err := qrcode.Encode(label.URL, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR code: %w", err)
	}
	imgOptions := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
	pdf.RegisterImageOptionsReader("qr", imgOptions, bytes.NewReader(qrPng))

	qrSize := labelH * 0.65
	if qrSize > labelW*0.9 {
		qrSize = labelW * 0.9
	}

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	labelsPerPage := cfg.Cols * cfg.Rows

	for i := 0; i < cfg.Count; i++ {
		if i%labelsPerPage == 0 {
			pdf.AddPage()
		}

		indexOnPage := i % labelsPerPage
		col := indexOnPage % cfg.Cols
		row := indexOnPage / cfg.Cols

		// Top-left of label
		x := cfg.MarginLeft + float64(col)*(labelW+cfg.GapX)
		y := cfg.MarginTop + float64(row)*(labelH+cfg.GapY)

		qrX := x + (labelW-qrSize)/2
		qrY := y + 1
		pdf.ImageOptions("qr", qrX, qrY, qrSize, qrSize, false, imgOptions, 0, "")

		pdf.SetXY(x, qrY+qrSize)
		pdf.SetFontSize(8)
		pdf.CellFormat(labelW, 4, tr(truncate(label.Name, 32)), "", 0, "C", false, 0, "")

		if label.Location != "" {
			pdf.SetXY(x, qrY+qrSize+4)
			pdf.SetFontSize(6)
			pdf.CellFormat(labelW, 3, tr(label.Location), "", 0, "C", false, 0, "")
		}
	}

	if err := pdf.Error(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

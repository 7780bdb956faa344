package printer

import (
	"bytes"
	"testing"
)

func TestGenerateItemLabelsPDF(t *testing.T) {
	cfg := DefaultLabelConfig()
	cfg.Count = 30

	pdf, err := GenerateItemLabelsPDF(ItemLabel{Name: "Pallet wrap 500mm", Location: "A / 3 / 2", URL: "http://localhost:3000/i/abc"}, cfg)
	if err != nil {
		t.Fatalf("GenerateItemLabelsPDF failed: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF-")) {
		t.Errorf("Output is not a PDF")
	}
	// 30 labels on a 3x8 sheet need two pages
	pages := bytes.Count(pdf, []byte("/Type /Page")) - bytes.Count(pdf, []byte("/Type /Pages"))
	if pages != 2 {
		t.Errorf("Expected 2 pages, got %d", pages)
	}
}

func TestLabelConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*LabelConfig)
	}{
		{"zero count", func(c *LabelConfig) { c.Count = 0 }},
		{"too many", func(c *LabelConfig) { c.Count = MaxLabels + 1 }},
		{"no columns", func(c *LabelConfig) { c.Cols = 0 }},
		{"negative gap", func(c *LabelConfig) { c.GapY = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultLabelConfig()
			tt.mutate(&cfg)
			if _, err := GenerateItemLabelsPDF(ItemLabel{Name: "x", URL: "x"}, cfg); err == nil {
				t.Errorf("Expected error")
			}
		})
	}
}

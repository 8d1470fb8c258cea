package parser

import (
	"path/filepath"
	"testing"
)

func TestBuildWorkbook_RoundTripThroughNormalizer(t *testing.T) {
	t.Parallel()

	wb, err := BuildWorkbook(SampleData())
	if err != nil {
		t.Fatalf("BuildWorkbook: %v", err)
	}
	path := filepath.Join(t.TempDir(), "sample.xlsx")
	if err := wb.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	_ = wb.Close()

	raw, err := OpenWorkbook(path)
	if err != nil {
		t.Fatalf("OpenWorkbook: %v", err)
	}
	if len(raw) != 5 {
		t.Fatalf("sheets=%d, want 5", len(raw))
	}

	tables, report, err := NewNormalizer().Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if report.ErrorRows != 0 {
		t.Fatalf("unexpected error rows: %+v", report.Sheets)
	}

	sales, costs, products := SampleData()
	total := 0
	for _, name := range []string{"sales_fr", "sales_de", "sales_pl"} {
		total += len(tables[name].Rows)
	}
	if total != len(sales) {
		t.Fatalf("sales rows=%d, want %d", total, len(sales))
	}
	if n := len(tables["cost"].Rows); n != len(costs) {
		t.Fatalf("cost rows=%d, want %d", n, len(costs))
	}
	if n := len(tables["product_reference"].Rows); n != len(products) {
		t.Fatalf("reference rows=%d, want %d", n, len(products))
	}
}

func TestReadWorkbook_HeaderAfterBlankRows(t *testing.T) {
	t.Parallel()

	wb := buildRawWorkbook(t, map[string][][]any{
		"Vente_France": {{}, {}, {"Produit", "Annee", "CA"}, {"P1", 2019, 1}},
	})
	raw, err := ReadWorkbook(wb)
	if err != nil {
		t.Fatalf("ReadWorkbook: %v", err)
	}
	sheet := raw["Vente_France"]
	if len(sheet.Header) != 3 || sheet.Header[0] != "Produit" {
		t.Fatalf("unexpected header: %v", sheet.Header)
	}
	if len(sheet.Rows) != 1 || sheet.HeaderRow < 1 {
		t.Fatalf("unexpected sheet: header row=%d rows=%d", sheet.HeaderRow, len(sheet.Rows))
	}
}

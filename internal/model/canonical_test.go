package model

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestCanonicalSchema_FiveTablesInOrder(t *testing.T) {
	t.Parallel()

	want := []string{TableSalesFR, TableSalesDE, TableSalesPL, TableCost, TableProductReference}
	got := CanonicalSchema()
	if len(got) != len(want) {
		t.Fatalf("schema tables=%d, want %d", len(got), len(want))
	}
	for i, s := range got {
		if s.Name != want[i] {
			t.Fatalf("schema[%d]=%s, want %s", i, s.Name, want[i])
		}
	}
}

func TestCountryDerivedIdentifiers(t *testing.T) {
	t.Parallel()

	if SalesTable(CountryDE) != TableSalesDE {
		t.Fatalf("SalesTable(DE)=%s", SalesTable(CountryDE))
	}
	if CostColumn(CountryPL) != "cost_pl" {
		t.Fatalf("CostColumn(PL)=%s", CostColumn(CountryPL))
	}
	if MarginColumn(CountryFR) != "margin_fr" {
		t.Fatalf("MarginColumn(FR)=%s", MarginColumn(CountryFR))
	}
}

func TestColumnMatches_Alias(t *testing.T) {
	t.Parallel()

	s, ok := LookupSchema(TableProductReference)
	if !ok {
		t.Fatalf("product_reference schema missing")
	}
	if !s.Columns[1].Matches("lib_produit") {
		t.Fatalf("lib_produit should map to display_name")
	}
	if s.Columns[1].Matches("produit") {
		t.Fatalf("produit must not map to display_name")
	}
}

func TestBuildTables_RoutesSalesByCountry(t *testing.T) {
	t.Parallel()

	tables := BuildTables(
		[]SalesRecord{
			{Country: CountryFR, ProductID: "P1", Year: 2019, Revenue: decimal.NewFromInt(100)},
			{Country: CountryPL, ProductID: "P1", Year: 2020, Revenue: decimal.NewFromInt(5)},
		},
		[]CostRecord{{ProductID: "P1", CostByCountry: map[Country]decimal.Decimal{CountryFR: decimal.NewFromInt(1)}}},
		[]ProductReference{{ProductID: "P1", DisplayName: "Widget"}},
	)

	if n := len(tables[TableSalesFR].Rows); n != 1 {
		t.Fatalf("sales_fr rows=%d", n)
	}
	if n := len(tables[TableSalesDE].Rows); n != 0 {
		t.Fatalf("sales_de rows=%d", n)
	}
	cost := tables[TableCost].Rows[0]
	if len(cost) != 4 {
		t.Fatalf("cost row width=%d", len(cost))
	}
	if !cost[2].(decimal.Decimal).IsZero() {
		t.Fatalf("missing DE cost should be zero, got %v", cost[2])
	}
}

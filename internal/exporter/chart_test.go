package exporter

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"salesreport/internal/model"
	"salesreport/internal/query"
)

func resultTable(kind query.Kind, columns []string, rows ...[]any) *query.ResultTable {
	t := &query.ResultTable{Metric: query.Of(kind)}
	for i, c := range columns {
		typ := model.ColumnDecimal
		if i == 0 {
			typ = model.ColumnText
		}
		t.Columns = append(t.Columns, query.ColumnSpec{Name: c, Type: typ})
	}
	for _, r := range rows {
		out := make([]any, len(r))
		out[0] = r[0]
		for i := 1; i < len(r); i++ {
			out[i] = decimal.RequireFromString(r[i].(string))
		}
		t.Rows = append(t.Rows, out)
	}
	return t
}

func countryLabel(code string) string {
	return model.Country(code).DisplayName()
}

func TestBuildChart_Bar(t *testing.T) {
	t.Parallel()

	spec := ChartSpec{
		Slot:           SlotRevenueByCountry,
		Kind:           KindBar,
		CategoryColumn: "country",
		ValueColumns:   []string{"total_revenue"},
		CategoryLabel:  countryLabel,
	}
	c, err := BuildChart(spec, resultTable(query.RevenueByCountry, []string{"country", "total_revenue"},
		[]any{"FR", "250"}, []any{"DE", "160.5"}), "note")
	if err != nil {
		t.Fatalf("BuildChart: %v", err)
	}
	if len(c.Categories) != 2 || c.Categories[0] != "France" || c.Categories[1] != "Germany" {
		t.Fatalf("categories=%v", c.Categories)
	}
	if c.Series[0][1] != 160.5 || c.Annotation != "note" {
		t.Fatalf("chart=%+v", c)
	}
}

func TestBuildChart_GroupedBar(t *testing.T) {
	t.Parallel()

	spec := ChartSpec{
		Slot:           SlotRevenueEvolution,
		Kind:           KindGroupedBar,
		CategoryColumn: "country",
		ValueColumns:   []string{"revenue_2019", "revenue_2020"},
		SeriesNames:    []string{"2019", "2020"},
	}
	c, err := BuildChart(spec, resultTable(query.RevenueEvolution, []string{"country", "revenue_2019", "revenue_2020"},
		[]any{"DE", "80", "80"}, []any{"FR", "100", "150"}), "")
	if err != nil {
		t.Fatalf("BuildChart: %v", err)
	}
	if len(c.Series) != 2 || c.Series[1][1] != 150 {
		t.Fatalf("series=%v", c.Series)
	}

	spec.Kind = KindBar
	if _, err := BuildChart(spec, resultTable(query.RevenueEvolution, []string{"country", "revenue_2019", "revenue_2020"},
		[]any{"DE", "80", "80"}), ""); err == nil {
		t.Fatalf("plain bar with two value columns should fail")
	}
}

func TestBuildChart_Errors(t *testing.T) {
	t.Parallel()

	pie := ChartSpec{Slot: SlotMarginDistribution, Kind: KindPie, CategoryColumn: "country", ValueColumns: []string{"margin"}}
	cols := []string{"country", "margin"}

	if _, err := BuildChart(pie, resultTable(query.MarginDistribution, cols), ""); !errors.Is(err, ErrNoData) {
		t.Fatalf("empty: want ErrNoData, got %v", err)
	}
	if _, err := BuildChart(pie, resultTable(query.MarginDistribution, cols, []any{"FR", "90"}, []any{"DE", "-1"}), ""); !errors.Is(err, ErrNegativeSlice) {
		t.Fatalf("negative: want ErrNegativeSlice, got %v", err)
	}
	if _, err := BuildChart(pie, resultTable(query.MarginDistribution, cols, []any{"FR", "90"}, []any{"DE", "60"}), ""); err != nil {
		t.Fatalf("valid pie: %v", err)
	}

	missing := pie
	missing.ValueColumns = []string{"nope"}
	if _, err := BuildChart(missing, resultTable(query.MarginDistribution, cols, []any{"FR", "1"}), ""); err == nil {
		t.Fatalf("unknown column should fail")
	}
}

func distributionPie() ChartSpec {
	return ChartSpec{
		Slot:           SlotMarginDistribution,
		Kind:           KindPie,
		CategoryColumn: "country",
		ValueColumns:   []string{"margin"},
		CategoryLabel:  countryLabel,
		CategoryOrder:  []string{"FR", "DE", "PL"},
	}
}

func TestBuildChart_PieCategoriesMustLineUp(t *testing.T) {
	t.Parallel()

	cols := []string{"country", "margin"}
	cases := map[string][][]any{
		"duplicate":    {{"PL", "5"}, {"FR", "9"}, {"FR", "3"}},
		"out of order": {{"DE", "5"}, {"FR", "9"}},
		"unknown":      {{"FR", "5"}, {"IT", "9"}},
	}
	for name, rows := range cases {
		table := resultTable(query.MarginDistribution, cols)
		for _, r := range rows {
			table.Rows = append(table.Rows, []any{r[0], decimal.RequireFromString(r[1].(string))})
		}
		if _, err := BuildChart(distributionPie(), table, ""); !errors.Is(err, ErrSeriesMismatch) {
			t.Fatalf("%s: want ErrSeriesMismatch, got %v", name, err)
		}
	}

	// 无规定顺序时只检查重复
	free := distributionPie()
	free.CategoryOrder = nil
	if _, err := BuildChart(free, resultTable(query.MarginDistribution, cols, []any{"DE", "1"}, []any{"FR", "2"}), ""); err != nil {
		t.Fatalf("unordered pie without order: %v", err)
	}
	if _, err := BuildChart(free, resultTable(query.MarginDistribution, cols, []any{"FR", "1"}, []any{"FR", "2"}), ""); !errors.Is(err, ErrSeriesMismatch) {
		t.Fatalf("duplicate without order: want ErrSeriesMismatch, got %v", err)
	}
}

func TestBuildChart_PieLabelsPairWithValues(t *testing.T) {
	t.Parallel()

	// 仅法国与德国有销售
	c, err := BuildChart(distributionPie(), resultTable(query.MarginDistribution, []string{"country", "margin"},
		[]any{"FR", "1900"}, []any{"DE", "1550"}), "")
	if err != nil {
		t.Fatalf("BuildChart: %v", err)
	}
	want := map[string]float64{"France": 1900, "Germany": 1550}
	if len(c.Categories) != 2 || len(c.Series[0]) != 2 {
		t.Fatalf("chart=%+v", c)
	}
	for i, label := range c.Categories {
		if c.Series[0][i] != want[label] {
			t.Fatalf("slice %d: %s=%g, want %g", i, label, c.Series[0][i], want[label])
		}
	}
	if c.Categories[0] != "France" || c.Categories[1] != "Germany" {
		t.Fatalf("categories=%v", c.Categories)
	}
}

package report

import (
	"fmt"
	"image/color"

	"salesreport/internal/calculator"
	"salesreport/internal/exporter"
	"salesreport/internal/model"
	"salesreport/internal/query"
)

var (
	colorPrior   = color.RGBA{R: 70, G: 130, B: 180, A: 255}
	colorCurrent = color.RGBA{R: 255, G: 140, B: 0, A: 255}
	colorMargin  = color.RGBA{R: 60, G: 160, B: 90, A: 255}
)

func countryName(code string) string {
	return model.Country(code).DisplayName()
}

func countryOrder() []string {
	codes := make([]string, len(model.Countries))
	for i, c := range model.Countries {
		codes[i] = string(c)
	}
	return codes
}

func revenueByCountrySpec() exporter.ChartSpec {
	return exporter.ChartSpec{
		Slot:           exporter.SlotRevenueByCountry,
		Kind:           exporter.KindBar,
		Title:          "Revenue by country",
		XLabel:         "Country",
		YLabel:         "Revenue",
		CategoryColumn: model.ColCountry,
		ValueColumns:   []string{query.ColTotalRevenue},
		Colors:         []color.Color{colorPrior},
		CategoryLabel:  countryName,
	}
}

func revenueEvolutionSpec(opts query.Options) exporter.ChartSpec {
	return exporter.ChartSpec{
		Slot:           exporter.SlotRevenueEvolution,
		Kind:           exporter.KindGroupedBar,
		Title:          fmt.Sprintf("Revenue evolution %d vs %d", opts.PriorYear, opts.CurrentYear),
		XLabel:         "Country",
		YLabel:         "Revenue",
		CategoryColumn: model.ColCountry,
		ValueColumns:   []string{query.RevenueColumn(opts.PriorYear), query.RevenueColumn(opts.CurrentYear)},
		SeriesNames:    []string{fmt.Sprint(opts.PriorYear), fmt.Sprint(opts.CurrentYear)},
		Colors:         []color.Color{colorPrior, colorCurrent},
		CategoryLabel:  countryName,
	}
}

func marginByProductSpec() exporter.ChartSpec {
	return exporter.ChartSpec{
		Slot:           exporter.SlotMarginByProduct,
		Kind:           exporter.KindBar,
		Title:          "Margin by product (all countries)",
		XLabel:         "Product",
		YLabel:         "Margin",
		CategoryColumn: model.ColDisplayName,
		ValueColumns:   []string{query.ColMarginTotal},
		Colors:         []color.Color{colorMargin},
	}
}

func marginDistributionSpec(productName string) exporter.ChartSpec {
	return exporter.ChartSpec{
		Slot:           exporter.SlotMarginDistribution,
		Kind:           exporter.KindPie,
		Title:          "Margin distribution for: " + productName,
		CategoryColumn: model.ColCountry,
		ValueColumns:   []string{model.ColMargin},
		CategoryLabel:  countryName,
		CategoryOrder:  countryOrder(),
	}
}

func revenueAnnotation(e calculator.Extremum) string {
	return fmt.Sprintf("Country with the highest revenue: %s - %s (%s)",
		countryName(e.Label), calculator.FormatAmount(e.Value), calculator.FormatPercent(e.Percentage))
}

func increaseAnnotation(inc calculator.Increase) string {
	return fmt.Sprintf("Country with the biggest revenue increase: %s - %s (%s)",
		countryName(inc.Label), calculator.FormatAmount(inc.Delta), calculator.FormatPercent(inc.Percentage))
}

func marginAnnotation(e calculator.Extremum) string {
	return fmt.Sprintf("Product with the highest margin: %s - %s (%s)",
		e.Label, calculator.FormatAmount(e.Value), calculator.FormatPercent(e.Percentage))
}

func distributionAnnotation(e calculator.Extremum) string {
	return fmt.Sprintf("Country with the largest share of margin: %s - %s (%s)",
		countryName(e.Label), calculator.FormatAmount(e.Value), calculator.FormatPercent(e.Percentage))
}

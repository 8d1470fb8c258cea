package parser

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"salesreport/internal/model"
)

// 源文件表头（与原始工作簿一致）
var (
	salesHeader     = []string{"Produit", "Annee", "CA"}
	costHeader      = []string{"Produit", "Cout France", "Cout Allemagne", "Cout Pologne"}
	referenceHeader = []string{"Produit", "Lib Produit"}
)

// BuildWorkbook 按源文件格式生成工作簿（五个必需 sheet）
func BuildWorkbook(sales []model.SalesRecord, costs []model.CostRecord, products []model.ProductReference) (*excelize.File, error) {
	f := excelize.NewFile()

	defaultSheet := f.GetSheetName(f.GetActiveSheetIndex())

	schemas := model.CanonicalSchema()
	headers := map[string][]string{
		model.TableSalesFR:          salesHeader,
		model.TableSalesDE:          salesHeader,
		model.TableSalesPL:          salesHeader,
		model.TableCost:             costHeader,
		model.TableProductReference: referenceHeader,
	}

	rows := make(map[string][][]any, len(schemas))
	for _, r := range sales {
		t := model.SalesTable(r.Country)
		rows[t] = append(rows[t], []any{r.ProductID, r.Year, r.Revenue.InexactFloat64()})
	}
	for _, c := range costs {
		row := []any{c.ProductID}
		for _, country := range model.Countries {
			row = append(row, c.CostByCountry[country].InexactFloat64())
		}
		rows[model.TableCost] = append(rows[model.TableCost], row)
	}
	for _, p := range products {
		rows[model.TableProductReference] = append(rows[model.TableProductReference], []any{p.ProductID, p.DisplayName})
	}

	for _, s := range schemas {
		if _, err := f.NewSheet(s.SourceSheet); err != nil {
			return nil, fmt.Errorf("failed to create sheet %s: %w", s.SourceSheet, err)
		}
		header := make([]any, 0, len(headers[s.Name]))
		for _, h := range headers[s.Name] {
			header = append(header, h)
		}
		if err := f.SetSheetRow(s.SourceSheet, "A1", &header); err != nil {
			return nil, fmt.Errorf("failed to write header %s: %w", s.SourceSheet, err)
		}
		for i, row := range rows[s.Name] {
			cell, err := excelize.CoordinatesToCellName(1, i+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetSheetRow(s.SourceSheet, cell, &row); err != nil {
				return nil, fmt.Errorf("failed to write row %s: %w", s.SourceSheet, err)
			}
		}
	}

	if defaultSheet != "" {
		_ = f.DeleteSheet(defaultSheet)
	}

	return f, nil
}

// SampleData 演示数据：三国两年销售、四个产品（P4 无成本行）
func SampleData() ([]model.SalesRecord, []model.CostRecord, []model.ProductReference) {
	dec := decimal.RequireFromString
	sales := []model.SalesRecord{
		{Country: model.CountryFR, ProductID: "P1", Year: 2019, Revenue: dec("1200")},
		{Country: model.CountryFR, ProductID: "P1", Year: 2020, Revenue: dec("1500")},
		{Country: model.CountryFR, ProductID: "P2", Year: 2019, Revenue: dec("800")},
		{Country: model.CountryFR, ProductID: "P2", Year: 2020, Revenue: dec("750")},
		{Country: model.CountryDE, ProductID: "P1", Year: 2019, Revenue: dec("900")},
		{Country: model.CountryDE, ProductID: "P1", Year: 2020, Revenue: dec("1300")},
		{Country: model.CountryDE, ProductID: "P3", Year: 2020, Revenue: dec("400")},
		{Country: model.CountryPL, ProductID: "P2", Year: 2019, Revenue: dec("300")},
		{Country: model.CountryPL, ProductID: "P2", Year: 2020, Revenue: dec("450")},
		{Country: model.CountryPL, ProductID: "P4", Year: 2020, Revenue: dec("600")},
		{Country: model.CountryPL, ProductID: "P1", Year: 2021, Revenue: dec("200")},
	}
	costs := []model.CostRecord{
		{ProductID: "P1", CostByCountry: map[model.Country]decimal.Decimal{model.CountryFR: dec("400"), model.CountryDE: dec("350"), model.CountryPL: dec("150")}},
		{ProductID: "P2", CostByCountry: map[model.Country]decimal.Decimal{model.CountryFR: dec("300"), model.CountryDE: dec("250"), model.CountryPL: dec("100")}},
		{ProductID: "P3", CostByCountry: map[model.Country]decimal.Decimal{model.CountryFR: dec("100"), model.CountryDE: dec("120"), model.CountryPL: dec("90")}},
	}
	products := []model.ProductReference{
		{ProductID: "P1", DisplayName: "Alpha"},
		{ProductID: "P2", DisplayName: "Bravo"},
		{ProductID: "P3", DisplayName: "Charlie"},
		{ProductID: "P4", DisplayName: "Delta"},
	}
	return sales, costs, products
}

package model

import "github.com/shopspring/decimal"

// Table 规范化后的暂存表
// Rows 中每个单元格的 Go 类型由列类型决定：ColumnText→string，ColumnInteger→int64，ColumnDecimal→decimal.Decimal
type Table struct {
	Name        string
	SourceSheet string
	Columns     []Column
	Rows        [][]any
}

// NewTable 按规范定义创建空表
func NewTable(schema TableSchema) *Table {
	return &Table{
		Name:        schema.Name,
		SourceSheet: schema.SourceSheet,
		Columns:     schema.Columns,
	}
}

// Append 追加一行
func (t *Table) Append(row ...any) {
	t.Rows = append(t.Rows, row)
}

// SalesRecord 某国家某产品某年份的销售观测
type SalesRecord struct {
	Country   Country
	ProductID string
	Year      int
	Revenue   decimal.Decimal
}

// CostRecord 产品在各国的成本
type CostRecord struct {
	ProductID     string
	CostByCountry map[Country]decimal.Decimal
}

// ProductReference 产品参照
type ProductReference struct {
	ProductID   string
	DisplayName string
}

// BuildTables 由记录构造五张规范表（用于测试夹具与程序化输入）
// 销售记录按 Country 分配到对应销售表，缺失的国家得到空表
func BuildTables(sales []SalesRecord, costs []CostRecord, products []ProductReference) map[string]*Table {
	tables := make(map[string]*Table, len(canonicalSchema))
	for _, s := range canonicalSchema {
		tables[s.Name] = NewTable(s)
	}

	for _, r := range sales {
		t, ok := tables[SalesTable(r.Country)]
		if !ok {
			continue
		}
		t.Append(r.ProductID, int64(r.Year), r.Revenue)
	}

	for _, c := range costs {
		row := []any{c.ProductID}
		for _, country := range Countries {
			row = append(row, c.CostByCountry[country])
		}
		tables[TableCost].Append(row...)
	}

	for _, p := range products {
		tables[TableProductReference].Append(p.ProductID, p.DisplayName)
	}

	return tables
}

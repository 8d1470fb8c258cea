package model

import "strings"

// Country 国家代码
type Country string

const (
	CountryFR Country = "FR" // 法国
	CountryDE Country = "DE" // 德国
	CountryPL Country = "PL" // 波兰
)

// Countries 规范国家顺序，所有 UNION 查询、饼图标签与数值均按此顺序排列
var Countries = []Country{CountryFR, CountryDE, CountryPL}

// DisplayName 图表展示名
func (c Country) DisplayName() string {
	switch c {
	case CountryFR:
		return "France"
	case CountryDE:
		return "Germany"
	case CountryPL:
		return "Poland"
	default:
		return string(c)
	}
}

func (c Country) suffix() string {
	return strings.ToLower(string(c))
}

// 规范表名
const (
	TableSalesFR          = "sales_fr"
	TableSalesDE          = "sales_de"
	TableSalesPL          = "sales_pl"
	TableCost             = "cost"
	TableProductReference = "product_reference"
)

// 规范列名（Normalizer 与 Metric Query Set 共享，避免标识符漂移）
const (
	ColProductID   = "product_id"
	ColYear        = "year"
	ColRevenue     = "revenue"
	ColDisplayName = "display_name"
	ColCountry     = "country"
	ColMargin      = "margin"
)

// SalesTable 国家对应的销售暂存表名
func SalesTable(c Country) string {
	return "sales_" + c.suffix()
}

// CostColumn 成本表中国家对应的成本列
func CostColumn(c Country) string {
	return "cost_" + c.suffix()
}

// MarginColumn 产品毛利结果中国家对应的毛利列
func MarginColumn(c Country) string {
	return "margin_" + c.suffix()
}

// ColumnType 列的存储类型
type ColumnType int

const (
	ColumnText ColumnType = iota
	ColumnInteger
	ColumnDecimal
)

func (t ColumnType) String() string {
	switch t {
	case ColumnInteger:
		return "integer"
	case ColumnDecimal:
		return "decimal"
	default:
		return "text"
	}
}

// Column 规范列定义
type Column struct {
	Name    string
	Type    ColumnType
	Aliases []string // 规范化后的源表头别名
}

// Matches 判断规范化后的表头是否指向该列
func (c Column) Matches(normalizedHeader string) bool {
	if normalizedHeader == c.Name {
		return true
	}
	for _, a := range c.Aliases {
		if normalizedHeader == a {
			return true
		}
	}
	return false
}

// TableSchema 规范暂存表定义
type TableSchema struct {
	Name         string
	SourceSheet  string   // 默认源 sheet 名
	SheetAliases []string // 规范化后的 sheet 名别名
	Columns      []Column
}

// ColumnNames 列名列表
func (s TableSchema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

var productIDColumn = Column{
	Name:    ColProductID,
	Type:    ColumnText,
	Aliases: []string{"produit", "product", "id_produit", "product_code", "code_produit"},
}

func salesSchema(c Country, sheet string, aliases ...string) TableSchema {
	return TableSchema{
		Name:         SalesTable(c),
		SourceSheet:  sheet,
		SheetAliases: append(aliases, SalesTable(c)),
		Columns: []Column{
			productIDColumn,
			{Name: ColYear, Type: ColumnInteger, Aliases: []string{"annee", "année", "an", "yr"}},
			{Name: ColRevenue, Type: ColumnDecimal, Aliases: []string{"ca", "chiffre_d'affaires", "chiffre_affaires", "sales", "turnover"}},
		},
	}
}

var canonicalSchema = []TableSchema{
	salesSchema(CountryFR, "Vente_France", "sales_france", "ventes_france"),
	salesSchema(CountryDE, "Vente_Allemagne", "sales_germany", "ventes_allemagne"),
	salesSchema(CountryPL, "Vente_Pologne", "sales_poland", "ventes_pologne"),
	{
		Name:         TableCost,
		SourceSheet:  "Cout",
		SheetAliases: []string{"coût", "couts", "costs", "cost"},
		Columns: []Column{
			productIDColumn,
			{Name: CostColumn(CountryFR), Type: ColumnDecimal, Aliases: []string{"cout_france", "coût_france", "cost_france"}},
			{Name: CostColumn(CountryDE), Type: ColumnDecimal, Aliases: []string{"cout_allemagne", "coût_allemagne", "cost_germany"}},
			{Name: CostColumn(CountryPL), Type: ColumnDecimal, Aliases: []string{"cout_pologne", "coût_pologne", "cost_poland"}},
		},
	},
	{
		Name:         TableProductReference,
		SourceSheet:  "Referentiel_Produit",
		SheetAliases: []string{"référentiel_produit", "products", "product_reference"},
		Columns: []Column{
			productIDColumn,
			{Name: ColDisplayName, Type: ColumnText, Aliases: []string{"lib_produit", "libelle_produit", "libellé_produit", "product_name", "name"}},
		},
	},
}

// CanonicalSchema 返回五张暂存表定义（固定顺序：三张销售表、成本表、产品参照表）
func CanonicalSchema() []TableSchema {
	out := make([]TableSchema, len(canonicalSchema))
	copy(out, canonicalSchema)
	return out
}

// LookupSchema 按规范表名查找定义
func LookupSchema(name string) (TableSchema, bool) {
	for _, s := range canonicalSchema {
		if s.Name == name {
			return s, true
		}
	}
	return TableSchema{}, false
}

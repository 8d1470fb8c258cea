package query

import (
	"fmt"
	"strconv"
	"strings"

	"salesreport/internal/model"
)

// 结果列名
const (
	ColTotalRevenue = "total_revenue"
	ColMarginTotal  = "margin_total"
)

// RevenueColumn 年度营收列名，如 revenue_2019
func RevenueColumn(year int) string {
	return model.ColRevenue + "_" + strconv.Itoa(year)
}

func ident(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func qualified(alias, column string) string {
	return alias + "." + ident(column)
}

func countryLiteral(c model.Country) string {
	return "'" + string(c) + "'"
}

// salesUnion 三张销售表按国家打标签后 UNION ALL
func salesUnion(columns ...string) string {
	cols := make([]string, len(columns))
	for i, c := range columns {
		cols[i] = ident(c)
	}
	parts := make([]string, 0, len(model.Countries))
	for _, c := range model.Countries {
		parts = append(parts, fmt.Sprintf("SELECT %s AS %s, %s FROM %s",
			countryLiteral(c), ident(model.ColCountry), strings.Join(cols, ", "), ident(model.SalesTable(c))))
	}
	return strings.Join(parts, "\n\tUNION ALL\n\t")
}

func revenueByCountrySQL() (string, []ColumnSpec) {
	q := fmt.Sprintf(`SELECT %[1]s, SUM(%[2]s) AS %[3]s
FROM (
	%[4]s
) AS s
GROUP BY %[1]s
ORDER BY %[3]s DESC, %[1]s ASC`,
		ident(model.ColCountry), ident(model.ColRevenue), ident(ColTotalRevenue),
		salesUnion(model.ColRevenue))

	return q, []ColumnSpec{
		{Name: model.ColCountry, Type: model.ColumnText},
		{Name: ColTotalRevenue, Type: model.ColumnDecimal},
	}
}

func revenueEvolutionSQL(priorYear, currentYear int) (string, []any, []ColumnSpec) {
	bucket := func(alias string) string {
		return fmt.Sprintf("SUM(CASE WHEN %s = ? THEN %s ELSE 0 END) AS %s",
			ident(model.ColYear), ident(model.ColRevenue), ident(alias))
	}

	q := fmt.Sprintf(`SELECT %[1]s,
	%[2]s,
	%[3]s
FROM (
	%[4]s
) AS s
GROUP BY %[1]s
ORDER BY %[1]s ASC`,
		ident(model.ColCountry),
		bucket(RevenueColumn(priorYear)),
		bucket(RevenueColumn(currentYear)),
		salesUnion(model.ColYear, model.ColRevenue))

	return q, []any{priorYear, currentYear}, []ColumnSpec{
		{Name: model.ColCountry, Type: model.ColumnText},
		{Name: RevenueColumn(priorYear), Type: model.ColumnDecimal},
		{Name: RevenueColumn(currentYear), Type: model.ColumnDecimal},
	}
}

// countryMarginSQL 某国家按产品聚合的毛利：SUM(revenue - cost_<country>)，成本按销售观测计
func countryMarginSQL(c model.Country, selectList, where string) string {
	q := fmt.Sprintf(`SELECT %s
		FROM %s AS s
		JOIN %s AS c ON c.%s = s.%s`,
		selectList,
		ident(model.SalesTable(c)),
		ident(model.TableCost), ident(model.ColProductID), ident(model.ColProductID))
	if where != "" {
		q += "\n\t\tWHERE " + where
	}
	return q + "\n\t\tGROUP BY " + qualified("s", model.ColProductID)
}

func marginExpr(c model.Country) string {
	return fmt.Sprintf("SUM(%s - %s)", qualified("s", model.ColRevenue), qualified("c", model.CostColumn(c)))
}

func marginByProductSQL() (string, []ColumnSpec) {
	var (
		selects []string
		joins   []string
		totals  []string
	)
	cols := []ColumnSpec{
		{Name: model.ColProductID, Type: model.ColumnText},
		{Name: model.ColDisplayName, Type: model.ColumnText},
	}

	for _, c := range model.Countries {
		alias := "m_" + strings.ToLower(string(c))
		margin := fmt.Sprintf("COALESCE(%s, 0)", qualified(alias, model.ColMargin))

		selects = append(selects, fmt.Sprintf("%s AS %s", margin, ident(model.MarginColumn(c))))
		totals = append(totals, margin)

		inner := countryMarginSQL(c,
			fmt.Sprintf("%s, %s AS %s", qualified("s", model.ColProductID), marginExpr(c), ident(model.ColMargin)), "")
		joins = append(joins, fmt.Sprintf("LEFT JOIN (\n\t\t%s\n) AS %s ON %s = %s",
			inner, alias, qualified(alias, model.ColProductID), qualified("rp", model.ColProductID)))

		cols = append(cols, ColumnSpec{Name: model.MarginColumn(c), Type: model.ColumnDecimal})
	}
	cols = append(cols, ColumnSpec{Name: ColMarginTotal, Type: model.ColumnDecimal})

	q := fmt.Sprintf(`SELECT %s, %s,
	%s,
	%s AS %s
FROM %s AS rp
JOIN %s AS ct ON %s = %s
%s
ORDER BY %s DESC, %s ASC`,
		qualified("rp", model.ColProductID), qualified("rp", model.ColDisplayName),
		strings.Join(selects, ",\n\t"),
		strings.Join(totals, " + "), ident(ColMarginTotal),
		ident(model.TableProductReference),
		ident(model.TableCost), qualified("ct", model.ColProductID), qualified("rp", model.ColProductID),
		strings.Join(joins, "\n"),
		ident(ColMarginTotal), qualified("rp", model.ColProductID))

	return q, cols
}

func marginDistributionSQL(productID string) (string, []any, []ColumnSpec) {
	parts := make([]string, 0, len(model.Countries))
	args := make([]any, 0, len(model.Countries))
	for i, c := range model.Countries {
		selectList := fmt.Sprintf("%s AS %s, %d AS %s, %s AS %s",
			countryLiteral(c), ident(model.ColCountry),
			i, ident("ord"),
			marginExpr(c), ident(model.ColMargin))
		parts = append(parts, countryMarginSQL(c, selectList, qualified("s", model.ColProductID)+" = ?"))
		args = append(args, productID)
	}

	q := fmt.Sprintf(`SELECT %[1]s, %[2]s
FROM (
		%[3]s
) AS d
ORDER BY %[4]s ASC`,
		ident(model.ColCountry), ident(model.ColMargin),
		strings.Join(parts, "\n\tUNION ALL\n\t\t"),
		ident("ord"))

	return q, args, []ColumnSpec{
		{Name: model.ColCountry, Type: model.ColumnText},
		{Name: model.ColMargin, Type: model.ColumnDecimal},
	}
}

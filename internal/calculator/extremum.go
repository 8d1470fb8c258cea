package calculator

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"salesreport/internal/query"
)

// ErrEmptyResult 结果表为空，无法计算极值
var ErrEmptyResult = errors.New("empty result table")

var (
	hundred = decimal.NewFromInt(100)
	zero    = decimal.Zero
)

// Extremum 最大值所在行及其占比
type Extremum struct {
	Row        int             `json:"row"`        // 行号
	Label      string          `json:"label"`      // 标签（国家或产品）
	Value      decimal.Decimal `json:"value"`      // 最大值
	Total      decimal.Decimal `json:"total"`      // 列合计
	Percentage decimal.Decimal `json:"percentage"` // 占比，两位小数，[0, 100]
}

// Increase 两年之间的最大增幅
type Increase struct {
	Row        int             `json:"row"`
	Label      string          `json:"label"`
	Prior      decimal.Decimal `json:"prior"`
	Current    decimal.Decimal `json:"current"`
	Delta      decimal.Decimal `json:"delta"`      // current - prior
	Percentage decimal.Decimal `json:"percentage"` // delta / prior × 100，不截断
}

// PickExtremum 取指标列最大值所在行（并列取首行）及其占全列合计的百分比
func PickExtremum(table *query.ResultTable, labelColumn, metricColumn string) (Extremum, error) {
	if table == nil || table.Len() == 0 {
		return Extremum{}, ErrEmptyResult
	}

	labels, err := table.TextColumn(labelColumn)
	if err != nil {
		return Extremum{}, err
	}
	values, err := table.DecimalColumn(metricColumn)
	if err != nil {
		return Extremum{}, err
	}

	best := 0
	total := zero
	for i, v := range values {
		total = total.Add(v)
		if v.GreaterThan(values[best]) {
			best = i
		}
	}

	return Extremum{
		Row:        best,
		Label:      labels[best],
		Value:      values[best],
		Total:      total,
		Percentage: Share(values[best], total),
	}, nil
}

// Share value 占 total 的百分比，保留两位小数并限制在 [0, 100]
func Share(value, total decimal.Decimal) decimal.Decimal {
	if total.IsZero() {
		return zero.Round(2)
	}
	pct := value.Div(total).Mul(hundred)
	if pct.LessThan(zero) {
		pct = zero
	}
	if pct.GreaterThan(hundred) {
		pct = hundred
	}
	return pct.Round(2)
}

// BiggestIncrease 取 current - prior 最大的行；增速以上一年为基数，上一年为 0 时记 0
func BiggestIncrease(table *query.ResultTable, labelColumn, priorColumn, currentColumn string) (Increase, error) {
	if table == nil || table.Len() == 0 {
		return Increase{}, ErrEmptyResult
	}

	labels, err := table.TextColumn(labelColumn)
	if err != nil {
		return Increase{}, err
	}
	prior, err := table.DecimalColumn(priorColumn)
	if err != nil {
		return Increase{}, err
	}
	current, err := table.DecimalColumn(currentColumn)
	if err != nil {
		return Increase{}, err
	}

	best := 0
	bestDelta := current[0].Sub(prior[0])
	for i := 1; i < len(labels); i++ {
		if d := current[i].Sub(prior[i]); d.GreaterThan(bestDelta) {
			best, bestDelta = i, d
		}
	}

	rate := zero
	if !prior[best].IsZero() {
		rate = bestDelta.Div(prior[best]).Mul(hundred)
	}

	return Increase{
		Row:        best,
		Label:      labels[best],
		Prior:      prior[best],
		Current:    current[best],
		Delta:      bestDelta,
		Percentage: rate.Round(2),
	}, nil
}

// FormatPercent 渲染为 NN.NN%
func FormatPercent(p decimal.Decimal) string {
	return p.StringFixed(2) + "%"
}

// FormatAmount 金额保留两位小数
func FormatAmount(v decimal.Decimal) string {
	return v.StringFixed(2)
}

func (e Extremum) String() string {
	return fmt.Sprintf("%s %s (%s)", e.Label, FormatAmount(e.Value), FormatPercent(e.Percentage))
}

package exporter

import (
	"errors"
	"fmt"
	"image/color"

	"salesreport/internal/query"
)

// Slot 报告中的图表位置
type Slot string

const (
	SlotRevenueByCountry   Slot = "revenue_by_country"
	SlotRevenueEvolution   Slot = "revenue_evolution"
	SlotMarginByProduct    Slot = "margin_by_product"
	SlotMarginDistribution Slot = "margin_distribution"
)

// Slots 固定顺序
var Slots = []Slot{SlotRevenueByCountry, SlotRevenueEvolution, SlotMarginByProduct, SlotMarginDistribution}

// ChartKind 图表类型
type ChartKind int

const (
	KindBar ChartKind = iota
	KindGroupedBar
	KindPie
)

func (k ChartKind) String() string {
	switch k {
	case KindBar:
		return "bar"
	case KindGroupedBar:
		return "grouped_bar"
	case KindPie:
		return "pie"
	default:
		return fmt.Sprintf("chart_kind(%d)", int(k))
	}
}

// ChartSpec 图表定义：类型、标题、轴标签与取数列
type ChartSpec struct {
	Slot           Slot
	Kind           ChartKind
	Title          string
	XLabel         string
	YLabel         string
	CategoryColumn string
	ValueColumns   []string
	SeriesNames    []string // 分组柱状图图例，与 ValueColumns 一一对应
	Colors         []color.Color

	// CategoryLabel 类目显示名，如国家代码转国家名；为空时原样显示
	CategoryLabel func(string) string

	// CategoryOrder 饼图类目的规定顺序；非空时类目必须是它的有序子集
	CategoryOrder []string
}

// Chart 绑定数据后的图表
type Chart struct {
	Spec       ChartSpec
	Categories []string
	Series     [][]float64 // Series[i][j]：第 i 个数值列、第 j 个类目
	Annotation string
}

var (
	// ErrNoData 结果表为空
	ErrNoData = errors.New("no data to chart")
	// ErrSeriesMismatch 饼图类目重复、未知或顺序错乱，标签无法与数值对应
	ErrSeriesMismatch = errors.New("labels and values do not line up")
	// ErrNegativeSlice 饼图不接受负值
	ErrNegativeSlice = errors.New("pie chart cannot show negative values")
)

// EmitError 单个图表生成失败；Fatal 为 true 时表示报告保存失败
type EmitError struct {
	Slot  Slot
	Fatal bool
	Err   error
}

func (e *EmitError) Error() string {
	if e.Fatal {
		return fmt.Sprintf("save report failed: %v", e.Err)
	}
	return fmt.Sprintf("emit %s failed: %v", e.Slot, e.Err)
}

func (e *EmitError) Unwrap() error {
	return e.Err
}

// BuildChart 将结果表绑定到图表
func BuildChart(spec ChartSpec, table *query.ResultTable, annotation string) (*Chart, error) {
	if table == nil || table.Len() == 0 {
		return nil, ErrNoData
	}
	if len(spec.ValueColumns) == 0 {
		return nil, fmt.Errorf("chart %s has no value column", spec.Slot)
	}
	if spec.Kind != KindGroupedBar && len(spec.ValueColumns) != 1 {
		return nil, fmt.Errorf("%s chart takes one value column, got %d", spec.Kind, len(spec.ValueColumns))
	}

	keys, err := table.TextColumn(spec.CategoryColumn)
	if err != nil {
		return nil, err
	}
	categories := make([]string, len(keys))
	for i, k := range keys {
		categories[i] = k
		if spec.CategoryLabel != nil {
			categories[i] = spec.CategoryLabel(k)
		}
	}

	series := make([][]float64, 0, len(spec.ValueColumns))
	for _, col := range spec.ValueColumns {
		values, err := table.DecimalColumn(col)
		if err != nil {
			return nil, err
		}
		s := make([]float64, len(values))
		for i, v := range values {
			s[i] = v.InexactFloat64()
		}
		series = append(series, s)
	}

	if spec.Kind == KindPie {
		if err := checkPie(keys, spec.CategoryOrder, series[0]); err != nil {
			return nil, err
		}
	}

	return &Chart{Spec: spec, Categories: categories, Series: series, Annotation: annotation}, nil
}

// checkPie 类目唯一，且按 order 的顺序出现；数值非负
func checkPie(keys, order []string, values []float64) error {
	if len(keys) != len(values) {
		return fmt.Errorf("%w: %d labels, %d values", ErrSeriesMismatch, len(keys), len(values))
	}

	rank := make(map[string]int, len(order))
	for i, k := range order {
		rank[k] = i
	}
	seen := make(map[string]struct{}, len(keys))
	last := -1
	for i, k := range keys {
		if _, dup := seen[k]; dup {
			return fmt.Errorf("%w: duplicate category %q at row %d", ErrSeriesMismatch, k, i)
		}
		seen[k] = struct{}{}

		if len(order) > 0 {
			r, ok := rank[k]
			if !ok {
				return fmt.Errorf("%w: unknown category %q at row %d", ErrSeriesMismatch, k, i)
			}
			if r < last {
				return fmt.Errorf("%w: category %q out of order at row %d", ErrSeriesMismatch, k, i)
			}
			last = r
		}

		if values[i] < 0 {
			return fmt.Errorf("%w: %s=%g", ErrNegativeSlice, k, values[i])
		}
	}
	return nil
}

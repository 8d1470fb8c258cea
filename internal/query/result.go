package query

import (
	"fmt"

	"github.com/shopspring/decimal"

	"salesreport/internal/model"
)

// ColumnSpec 结果列定义
type ColumnSpec struct {
	Name string
	Type model.ColumnType
}

// ResultTable 指标查询结果，行内单元格为 string 或 decimal.Decimal
type ResultTable struct {
	Metric  Metric
	Columns []ColumnSpec
	Rows    [][]any
}

// Len 行数
func (t *ResultTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// ColumnIndex 列下标，不存在返回 -1
func (t *ResultTable) ColumnIndex(name string) int {
	if t == nil {
		return -1
	}
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Text 读取文本单元格
func (t *ResultTable) Text(row int, column string) (string, error) {
	v, err := t.cell(row, column)
	if err != nil {
		return "", err
	}
	switch x := v.(type) {
	case string:
		return x, nil
	case decimal.Decimal:
		return x.String(), nil
	default:
		return fmt.Sprint(x), nil
	}
}

// Decimal 读取数值单元格
func (t *ResultTable) Decimal(row int, column string) (decimal.Decimal, error) {
	v, err := t.cell(row, column)
	if err != nil {
		return decimal.Zero, err
	}
	d, ok := v.(decimal.Decimal)
	if !ok {
		return decimal.Zero, fmt.Errorf("column %s is not numeric", column)
	}
	return d, nil
}

// TextColumn 整列文本
func (t *ResultTable) TextColumn(column string) ([]string, error) {
	out := make([]string, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		v, err := t.Text(i, column)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// DecimalColumn 整列数值
func (t *ResultTable) DecimalColumn(column string) ([]decimal.Decimal, error) {
	out := make([]decimal.Decimal, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		v, err := t.Decimal(i, column)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (t *ResultTable) cell(row int, column string) (any, error) {
	idx := t.ColumnIndex(column)
	if idx < 0 {
		return nil, fmt.Errorf("unknown column %s", column)
	}
	if row < 0 || row >= t.Len() {
		return nil, fmt.Errorf("row %d out of range", row)
	}
	return t.Rows[row][idx], nil
}

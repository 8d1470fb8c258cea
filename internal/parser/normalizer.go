package parser

import (
	"fmt"
	"sort"

	"salesreport/internal/model"
)

// Normalizer 将原始 sheet 规范化为暂存表
type Normalizer struct {
	recognizer *SheetRecognizer
}

// NewNormalizer 创建规范化器
func NewNormalizer() *Normalizer {
	return &Normalizer{recognizer: NewSheetRecognizer()}
}

// Normalize 规范化入口
// 必需 sheet 缺失或缺少必需列时返回 *SchemaError；未映射的 sheet 仅记为 skipped
func (n *Normalizer) Normalize(raw map[string]RawTable) (map[string]*model.Table, *NormalizeReport, error) {
	report := &NormalizeReport{TotalSheets: len(raw)}

	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	// 规范表名 → sheet 名
	assigned := make(map[string]string)
	for _, name := range names {
		rec := n.recognizer.Recognize(name)
		if !rec.Matched {
			report.SkippedSheets++
			report.Sheets = append(report.Sheets, SheetResult{
				SheetName: name,
				Status:    model.SheetSkipped,
				Errors:    []string{"unmapped sheet"},
			})
			continue
		}
		if prev, dup := assigned[rec.Table]; dup {
			report.SkippedSheets++
			report.Sheets = append(report.Sheets, SheetResult{
				SheetName: name,
				Table:     rec.Table,
				Status:    model.SheetSkipped,
				Errors:    []string{fmt.Sprintf("table %s already sourced from sheet %s", rec.Table, prev)},
			})
			continue
		}
		assigned[rec.Table] = name
	}

	var missing []string
	for _, s := range model.CanonicalSchema() {
		if _, ok := assigned[s.Name]; !ok {
			missing = append(missing, s.SourceSheet)
		}
	}
	if len(missing) > 0 {
		return nil, report, &SchemaError{MissingSheets: missing}
	}

	tables := make(map[string]*model.Table, len(assigned))
	for _, s := range model.CanonicalSchema() {
		sheet := raw[assigned[s.Name]]
		table, result, err := n.normalizeSheet(s, sheet)
		if err != nil {
			return nil, report, err
		}
		tables[s.Name] = table
		report.MappedSheets++
		report.TotalRows += result.ImportedRows + result.ErrorRows
		report.ErrorRows += result.ErrorRows
		report.Sheets = append(report.Sheets, result)
	}

	return tables, report, nil
}

// normalizeSheet 按列类型转换单个 sheet 的数据行
func (n *Normalizer) normalizeSheet(schema model.TableSchema, sheet RawTable) (*model.Table, SheetResult, error) {
	result := SheetResult{
		SheetName: sheet.SheetName,
		Table:     schema.Name,
		Status:    model.SheetImported,
	}

	mapping, missingCol, ok := n.recognizer.MapColumns(schema, sheet.Header)
	if !ok {
		return nil, result, &SchemaError{Sheet: sheet.SheetName, Column: missingCol}
	}

	table := model.NewTable(schema)
	table.SourceSheet = sheet.SheetName

	for i, row := range sheet.Rows {
		if isBlankRow(row) {
			continue
		}
		rowNo := sheet.HeaderRow + 1 + i

		values, err := convertRow(schema, mapping, row)
		if err != nil {
			result.ErrorRows++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", rowNo, err))
			continue
		}
		table.Rows = append(table.Rows, values)
		result.ImportedRows++
	}

	return table, result, nil
}

func convertRow(schema model.TableSchema, mapping map[int]int, row []string) ([]any, error) {
	values := make([]any, len(schema.Columns))
	for ci, col := range schema.Columns {
		cell := getCell(row, mapping[ci])

		switch col.Type {
		case model.ColumnInteger:
			v, err := parseYear(cell)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", col.Name, err)
			}
			values[ci] = v
		case model.ColumnDecimal:
			v, err := parseDecimal(cell)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", col.Name, err)
			}
			if col.Name == model.ColRevenue && v.IsNegative() {
				return nil, fmt.Errorf("%s: negative revenue %s", col.Name, v)
			}
			values[ci] = v
		default:
			if col.Name == model.ColProductID {
				cell = normalizeProductID(cell)
			}
			if cell == "" {
				return nil, fmt.Errorf("%s: empty value", col.Name)
			}
			values[ci] = cell
		}
	}
	return values, nil
}

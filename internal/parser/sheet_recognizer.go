package parser

import (
	"salesreport/internal/model"
)

// SheetRecognizer sheet 名到规范表的固定映射
type SheetRecognizer struct {
	schemas []model.TableSchema
}

// NewSheetRecognizer 创建识别器
func NewSheetRecognizer() *SheetRecognizer {
	return &SheetRecognizer{schemas: model.CanonicalSchema()}
}

// Recognize 识别 sheet 对应的规范表；未映射的 sheet 返回 Matched=false
func (r *SheetRecognizer) Recognize(sheetName string) model.SheetRecognition {
	name := NormalizeColumnName(sheetName)
	for _, s := range r.schemas {
		if name == NormalizeColumnName(s.SourceSheet) {
			return model.SheetRecognition{SheetName: sheetName, Table: s.Name, Matched: true}
		}
		for _, alias := range s.SheetAliases {
			if name == alias {
				return model.SheetRecognition{SheetName: sheetName, Table: s.Name, Matched: true}
			}
		}
	}
	return model.SheetRecognition{SheetName: sheetName}
}

// MapColumns 将表头映射到规范列，返回 规范列下标 → 表头下标
// 缺失的规范列以 ok=false 与列名返回
func (r *SheetRecognizer) MapColumns(schema model.TableSchema, header []string) (map[int]int, string, bool) {
	normalized := make([]string, len(header))
	for i, h := range header {
		normalized[i] = NormalizeColumnName(h)
	}

	mapping := make(map[int]int, len(schema.Columns))
	for ci, col := range schema.Columns {
		found := -1
		for hi, h := range normalized {
			if h != "" && col.Matches(h) {
				found = hi
				break
			}
		}
		if found < 0 {
			return nil, col.Name, false
		}
		mapping[ci] = found
	}
	return mapping, "", true
}

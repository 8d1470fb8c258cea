package parser

import (
	"fmt"
	"strings"

	"salesreport/internal/model"
)

// RawTable 从工作簿读出的原始 sheet
type RawTable struct {
	SheetName string
	HeaderRow int // 表头所在行号（1 起）
	Header    []string
	Rows      [][]string
}

// SheetResult 单个 sheet 的规范化结果
type SheetResult struct {
	SheetName    string            `json:"sheetName"`
	Table        string            `json:"table,omitempty"`
	Status       model.SheetStatus `json:"status"`
	ImportedRows int               `json:"importedRows"`
	ErrorRows    int               `json:"errorRows"`
	Errors       []string          `json:"errors,omitempty"`
}

// NormalizeReport 规范化报告
type NormalizeReport struct {
	TotalSheets   int           `json:"totalSheets"`
	MappedSheets  int           `json:"mappedSheets"`
	SkippedSheets int           `json:"skippedSheets"`
	TotalRows     int           `json:"totalRows"`
	ErrorRows     int           `json:"errorRows"`
	Sheets        []SheetResult `json:"sheets"`
}

// SchemaError 缺少必需的 sheet 或列，属于致命错误
type SchemaError struct {
	MissingSheets []string
	Sheet         string
	Column        string
}

func (e *SchemaError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("schema error: sheet %q has no column for %q", e.Sheet, e.Column)
	}
	return fmt.Sprintf("schema error: missing required sheet(s): %s", strings.Join(e.MissingSheets, ", "))
}

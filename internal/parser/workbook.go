package parser

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ReadWorkbook 读取工作簿中所有 sheet；首个非空行为表头
func ReadWorkbook(f *excelize.File) (map[string]RawTable, error) {
	sheets := make(map[string]RawTable)
	if f == nil {
		return sheets, nil
	}

	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", name, err)
		}

		raw := RawTable{SheetName: name}
		for i, row := range rows {
			if raw.Header == nil {
				if isBlankRow(row) {
					continue
				}
				raw.Header = row
				raw.HeaderRow = i + 1
				continue
			}
			raw.Rows = append(raw.Rows, row)
		}
		sheets[name] = raw
	}

	return sheets, nil
}

// OpenWorkbook 打开 Excel 文件并读取全部 sheet
func OpenWorkbook(path string) (map[string]RawTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open excel: %w", err)
	}
	defer f.Close()

	return ReadWorkbook(f)
}

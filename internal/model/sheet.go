package model

// SheetStatus sheet 处理状态
type SheetStatus string

const (
	SheetImported SheetStatus = "imported"
	SheetSkipped  SheetStatus = "skipped"
	SheetError    SheetStatus = "error"
)

// SheetRecognition 单个 sheet 的识别结果
type SheetRecognition struct {
	SheetName string `json:"sheetName"`
	Table     string `json:"table"` // 对应规范表名，未识别为空
	Matched   bool   `json:"matched"`
}

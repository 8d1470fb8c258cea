package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// NormalizeColumnName 规范化列名：去首尾空白、转小写、空白串合并为单个下划线
// 结果同时用作暂存表列名与 SQL 标识符
func NormalizeColumnName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "_")
}

var (
	// Excel 数值型编号的浮点形式，如 "12.0"
	excelIntegerFloat = regexp.MustCompile(`^\d+\.0+$`)
	// 千分位逗号必须按三位分组
	thousandsGrouped = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})+(\.\d+)?$`)
)

// normalizeProductID 产品编号统一为文本；只把 "12.0" 归一为 "12"，"007" 等原样保留
func normalizeProductID(s string) string {
	s = strings.TrimSpace(s)
	if excelIntegerFloat.MatchString(s) {
		return s[:strings.IndexByte(s, '.')]
	}
	return s
}

// parseDecimal 解析金额，允许空格与按三位分组的千分位逗号
// "12,5" 这类小数逗号视为非法，由调用方计入错误行
func parseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty value")
	}
	s = strings.ReplaceAll(s, " ", "")
	if strings.Contains(s, ",") {
		if !thousandsGrouped.MatchString(s) {
			return decimal.Zero, fmt.Errorf("invalid number %q", s)
		}
		s = strings.ReplaceAll(s, ",", "")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid number %q", s)
	}
	return d, nil
}

// parseYear 解析年份，兼容 "2019" 与 "2019.0"
func parseYear(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty year")
	}
	if y, err := strconv.ParseInt(s, 10, 64); err == nil {
		return y, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsInteger() {
		return 0, fmt.Errorf("invalid year %q", s)
	}
	return d.IntPart(), nil
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

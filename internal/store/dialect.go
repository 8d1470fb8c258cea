package store

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"salesreport/internal/model"
)

// 支持的驱动
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
	DriverDuckDB   = "duckdb"
)

// Dialect 各 SQL 引擎差异：占位符、列类型与参数绑定
type Dialect struct {
	Name          string
	NumberedBinds bool // $1, $2 ... 风格占位符
	TextType      string
	IntegerType   string
	DecimalType   string
	FloatDecimals bool // 以 float64 绑定金额
	SingleConn    bool
}

var dialects = map[string]Dialect{
	DriverSQLite: {
		Name:        DriverSQLite,
		TextType:    "TEXT",
		IntegerType: "INTEGER",
		DecimalType: "NUMERIC",
		SingleConn:  true,
	},
	DriverPostgres: {
		Name:          DriverPostgres,
		NumberedBinds: true,
		TextType:      "TEXT",
		IntegerType:   "INTEGER",
		DecimalType:   "NUMERIC",
	},
	DriverDuckDB: {
		Name:          DriverDuckDB,
		TextType:      "VARCHAR",
		IntegerType:   "INTEGER",
		DecimalType:   "DOUBLE",
		FloatDecimals: true,
		SingleConn:    true,
	},
}

// LookupDialect 按驱动名获取方言，空值默认 SQLite
func LookupDialect(driver string) (Dialect, error) {
	if driver == "" {
		driver = DriverSQLite
	}
	d, ok := dialects[driver]
	if !ok {
		return Dialect{}, fmt.Errorf("unsupported driver %q", driver)
	}
	return d, nil
}

// QuoteIdent 双引号包裹标识符
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// ColumnType 规范列类型对应的 SQL 类型
func (d Dialect) ColumnType(t model.ColumnType) string {
	switch t {
	case model.ColumnInteger:
		return d.IntegerType
	case model.ColumnDecimal:
		return d.DecimalType
	default:
		return d.TextType
	}
}

// CreateTable 生成建表语句
func (d Dialect) CreateTable(name string, columns []model.Column) string {
	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = QuoteIdent(c.Name) + " " + d.ColumnType(c.Type)
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", QuoteIdent(name), strings.Join(defs, ", "))
}

// Rebind 将 ? 占位符改写为方言风格；引号内的 ? 保持不变
func (d Dialect) Rebind(query string) string {
	if !d.NumberedBinds {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	var quote rune
	for _, r := range query {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
		case r == '?':
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// BindArgs 转换绑定参数
func (d Dialect) BindArgs(args []any) []any {
	if !d.FloatDecimals {
		return args
	}
	out := make([]any, len(args))
	for i, a := range args {
		if v, ok := a.(decimal.Decimal); ok {
			out[i] = v.InexactFloat64()
			continue
		}
		out[i] = a
	}
	return out
}

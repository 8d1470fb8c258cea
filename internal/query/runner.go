package query

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"salesreport/internal/model"
)

// 浮点后端（SQLite REAL、DuckDB DOUBLE）求和的噪声在此精度截断
const resultScale = 6

// Querier 执行带绑定参数的查询
type Querier interface {
	Query(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Options 查询参数
type Options struct {
	PriorYear   int
	CurrentYear int
}

// DefaultOptions 默认对比 2019 与 2020
func DefaultOptions() Options {
	return Options{PriorYear: 2019, CurrentYear: 2020}
}

// Runner 指标查询执行器
type Runner struct {
	db     Querier
	opts   Options
	logger *zap.Logger
}

// NewRunner 创建执行器
func NewRunner(db Querier, opts Options, logger *zap.Logger) *Runner {
	if opts.PriorYear == 0 && opts.CurrentYear == 0 {
		opts = DefaultOptions()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{db: db, opts: opts, logger: logger}
}

// Options 当前查询参数
func (r *Runner) Options() Options {
	return r.opts
}

// Build 生成指标 SQL、参数与结果列
func (r *Runner) Build(m Metric) (string, []any, []ColumnSpec, error) {
	switch m.Kind {
	case RevenueByCountry:
		q, cols := revenueByCountrySQL()
		return q, nil, cols, nil
	case RevenueEvolution:
		if r.opts.PriorYear == r.opts.CurrentYear {
			return "", nil, nil, fmt.Errorf("prior and current year are both %d", r.opts.CurrentYear)
		}
		q, args, cols := revenueEvolutionSQL(r.opts.PriorYear, r.opts.CurrentYear)
		return q, args, cols, nil
	case MarginByProduct:
		q, cols := marginByProductSQL()
		return q, nil, cols, nil
	case MarginDistribution:
		if m.ProductID == "" {
			return "", nil, nil, errors.New("margin distribution requires a product id")
		}
		q, args, cols := marginDistributionSQL(m.ProductID)
		return q, args, cols, nil
	default:
		return "", nil, nil, fmt.Errorf("unknown metric %s", m.Kind)
	}
}

// Run 执行指标查询
// 执行失败时记录告警，返回空结果表与 *QueryError，由调用方跳过该指标
func (r *Runner) Run(ctx context.Context, m Metric) (*ResultTable, error) {
	q, args, cols, err := r.Build(m)
	result := &ResultTable{Metric: m, Columns: cols}
	if err != nil {
		return result, r.fail(m, err)
	}

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return result, r.fail(m, err)
	}
	defer rows.Close()

	for rows.Next() {
		values, err := scanRow(rows, cols)
		if err != nil {
			return &ResultTable{Metric: m, Columns: cols}, r.fail(m, err)
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return &ResultTable{Metric: m, Columns: cols}, r.fail(m, err)
	}

	r.logger.Debug("metric query done",
		zap.Stringer("metric", m),
		zap.Int("rows", result.Len()),
	)
	return result, nil
}

func (r *Runner) fail(m Metric, err error) error {
	qe := &QueryError{Metric: m, Err: err}
	fields := []zap.Field{zap.String("metric", m.Kind.String()), zap.Error(err)}
	if m.ProductID != "" {
		fields = append(fields, zap.String("product_id", m.ProductID))
	}
	r.logger.Warn("metric query failed", fields...)
	return qe
}

func scanRow(rows *sql.Rows, cols []ColumnSpec) ([]any, error) {
	texts := make([]sql.NullString, len(cols))
	decs := make([]decimal.NullDecimal, len(cols))
	dest := make([]any, len(cols))
	for i, c := range cols {
		if c.Type == model.ColumnDecimal {
			dest[i] = &decs[i]
		} else {
			dest[i] = &texts[i]
		}
	}
	if err := rows.Scan(dest...); err != nil {
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}

	values := make([]any, len(cols))
	for i, c := range cols {
		if c.Type == model.ColumnDecimal {
			v := decimal.Zero
			if decs[i].Valid {
				v = decs[i].Decimal.Round(resultScale)
			}
			values[i] = v
			continue
		}
		values[i] = texts[i].String
	}
	return values, nil
}

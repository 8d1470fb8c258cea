package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"salesreport/internal/model"
)

// ErrStoreUnavailable 暂存库无法打开或连接，整次运行致命
var ErrStoreUnavailable = errors.New("staging store unavailable")

// Options 暂存库连接参数
type Options struct {
	Driver string // sqlite3 / postgres / duckdb
	DSN    string
}

// Store 单次运行的暂存库句柄
type Store struct {
	db      *sql.DB
	dialect Dialect
}

// DefaultDSN 未配置 DSN 时的默认值：SQLite 使用按 runID 命名的共享内存库，DuckDB 使用内存库
func DefaultDSN(driver, runID string) string {
	switch driver {
	case DriverSQLite, "":
		return fmt.Sprintf("file:salesreport-%s?mode=memory&cache=shared", runID)
	default:
		return ""
	}
}

// Open 打开暂存库并测试连接
func Open(ctx context.Context, opts Options) (*Store, error) {
	d, err := LookupDialect(opts.Driver)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if d.Name == DriverPostgres && opts.DSN == "" {
		return nil, fmt.Errorf("%w: postgres requires a dsn", ErrStoreUnavailable)
	}

	// 文件型 SQLite 确保目录存在
	if d.Name == DriverSQLite && opts.DSN != "" && !strings.HasPrefix(opts.DSN, "file:") && !strings.Contains(opts.DSN, ":memory:") {
		if err := os.MkdirAll(filepath.Dir(opts.DSN), 0755); err != nil {
			return nil, fmt.Errorf("%w: failed to create data directory: %v", ErrStoreUnavailable, err)
		}
	}

	db, err := sql.Open(d.Name, opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database: %v", ErrStoreUnavailable, err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: failed to ping database: %v", ErrStoreUnavailable, err)
	}

	if d.SingleConn {
		db.SetMaxOpenConns(1) // 内存库依赖同一连接存活
		db.SetMaxIdleConns(1)
	}

	return &Store{db: db, dialect: d}, nil
}

// Close 关闭数据库连接
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// DB 获取原始数据库连接
func (s *Store) DB() *sql.DB {
	return s.db
}

// Dialect 当前方言
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// Query 执行查询；SQL 中使用 ? 占位，由方言改写
func (s *Store) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.dialect.Rebind(query), s.dialect.BindArgs(args)...)
}

// ReplaceTable 以表为单位原子替换：DROP → CREATE → 批量 INSERT 在同一事务内完成
func (s *Store) ReplaceTable(ctx context.Context, t *model.Table) error {
	if t == nil || t.Name == "" {
		return errors.New("table is empty")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	name := QuoteIdent(t.Name)
	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+name); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", t.Name, err)
	}
	if _, err := tx.ExecContext(ctx, s.dialect.CreateTable(t.Name, t.Columns)); err != nil {
		return fmt.Errorf("failed to create table %s: %w", t.Name, err)
	}

	if len(t.Rows) > 0 {
		cols := make([]string, len(t.Columns))
		marks := make([]string, len(t.Columns))
		for i, c := range t.Columns {
			cols[i] = QuoteIdent(c.Name)
			marks[i] = "?"
		}
		insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", name, strings.Join(cols, ", "), strings.Join(marks, ", "))

		stmt, err := tx.PrepareContext(ctx, s.dialect.Rebind(insert))
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for i, row := range t.Rows {
			if len(row) != len(t.Columns) {
				return fmt.Errorf("table %s row %d: %d values for %d columns", t.Name, i+1, len(row), len(t.Columns))
			}
			if _, err := stmt.ExecContext(ctx, s.dialect.BindArgs(row)...); err != nil {
				return fmt.Errorf("failed to insert record: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// CountRows 统计表行数
func (s *Store) CountRows(ctx context.Context, table string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+QuoteIdent(table)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}

package importer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"salesreport/internal/model"
)

// TableReplacer 暂存库的整表替换能力
type TableReplacer interface {
	ReplaceTable(ctx context.Context, t *model.Table) error
}

// Coordinator 暂存加载协调器
type Coordinator struct {
	store  TableReplacer
	logger *zap.Logger
}

// NewCoordinator 创建加载协调器
func NewCoordinator(store TableReplacer, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		store:  store,
		logger: logger,
	}
}

// LoadOptions 加载选项
type LoadOptions struct {
	OnProgress func(ProgressEvent)
}

// ProgressEvent 进度事件
type ProgressEvent struct {
	Type      string    `json:"type"` // start/table_done/table_error/done
	Message   string    `json:"message"`
	Table     string    `json:"table,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// TableResult 单表加载结果
type TableResult struct {
	Table       string            `json:"table"`
	SourceSheet string            `json:"sourceSheet"`
	Status      model.SheetStatus `json:"status"` // imported/error
	Rows        int               `json:"rows"`
	Error       string            `json:"error,omitempty"`
	Duration    time.Duration     `json:"duration"`
}

// LoadReport 加载报告
type LoadReport struct {
	TotalTables  int           `json:"totalTables"`
	LoadedTables int           `json:"loadedTables"`
	FailedTables int           `json:"failedTables"`
	LoadedRows   int           `json:"loadedRows"`
	Duration     time.Duration `json:"duration"`
	Tables       []TableResult `json:"tables"`
}

// Loaded 表是否加载成功
func (r *LoadReport) Loaded(table string) bool {
	for _, t := range r.Tables {
		if t.Table == table {
			return t.Status == model.SheetImported
		}
	}
	return false
}

// Load 按规范顺序逐表替换；单表失败记录并继续，不中断其余表
func (c *Coordinator) Load(ctx context.Context, tables map[string]*model.Table, opts LoadOptions) *LoadReport {
	startTime := time.Now()
	report := &LoadReport{}

	c.sendProgress(opts, ProgressEvent{
		Type:    "start",
		Message: fmt.Sprintf("loading %d tables into staging store", len(tables)),
	})

	for _, schema := range model.CanonicalSchema() {
		t, ok := tables[schema.Name]
		if !ok {
			continue
		}
		c.recordTableResult(report, c.loadTable(ctx, t, opts))
	}

	report.Duration = time.Since(startTime)

	c.sendProgress(opts, ProgressEvent{
		Type:    "done",
		Message: fmt.Sprintf("staging load finished: %d/%d tables", report.LoadedTables, report.TotalTables),
	})

	return report
}

// loadTable 加载单表
func (c *Coordinator) loadTable(ctx context.Context, t *model.Table, opts LoadOptions) TableResult {
	tableStartTime := time.Now()

	result := TableResult{
		Table:       t.Name,
		SourceSheet: t.SourceSheet,
		Rows:        len(t.Rows),
	}

	if err := c.store.ReplaceTable(ctx, t); err != nil {
		result.Status = model.SheetError
		result.Error = err.Error()
		result.Duration = time.Since(tableStartTime)

		c.logger.Warn("staging table load failed",
			zap.String("table", t.Name),
			zap.String("sheet", t.SourceSheet),
			zap.Error(err),
		)
		c.sendProgress(opts, ProgressEvent{
			Type:    "table_error",
			Message: fmt.Sprintf("failed to load table %s: %v", t.Name, err),
			Table:   t.Name,
		})
		return result
	}

	result.Status = model.SheetImported
	result.Duration = time.Since(tableStartTime)

	c.logger.Info("staging table loaded",
		zap.String("table", t.Name),
		zap.String("sheet", t.SourceSheet),
		zap.Int("rows", result.Rows),
	)
	c.sendProgress(opts, ProgressEvent{
		Type:    "table_done",
		Message: fmt.Sprintf("table %s loaded (%d rows)", t.Name, result.Rows),
		Table:   t.Name,
	})
	return result
}

// recordTableResult 记录单表结果
func (c *Coordinator) recordTableResult(report *LoadReport, result TableResult) {
	report.Tables = append(report.Tables, result)
	report.TotalTables++

	if result.Status == model.SheetImported {
		report.LoadedTables++
		report.LoadedRows += result.Rows
	} else {
		report.FailedTables++
	}
}

// sendProgress 发送进度事件
func (c *Coordinator) sendProgress(opts LoadOptions, event ProgressEvent) {
	if opts.OnProgress == nil {
		return
	}
	event.Timestamp = time.Now()
	opts.OnProgress(event)
}

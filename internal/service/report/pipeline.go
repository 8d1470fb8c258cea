package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"salesreport/internal/calculator"
	"salesreport/internal/exporter"
	"salesreport/internal/importer"
	"salesreport/internal/model"
	"salesreport/internal/parser"
	"salesreport/internal/query"
	"salesreport/internal/store"
)

// Options 流水线参数
type Options struct {
	Store store.Options
	Query query.Options
	// Summary 为 true 时在输出文件旁写出运行汇总 JSON
	Summary bool
	// OnProgress 每个图表位置出图或留空时回调
	OnProgress func(exporter.ProgressEvent)
}

// Pipeline 规范化 → 入库 → 指标查询 → 极值计算 → 出图
//
// 每次 Run 独立打开存储（默认以运行 ID 命名的内存 SQLite），结束时关闭，可并发调用。
type Pipeline struct {
	opts     Options
	renderer exporter.Renderer
	logger   *zap.Logger
	metrics  *Metrics
}

// NewPipeline 创建流水线
func NewPipeline(opts Options, renderer exporter.Renderer, logger *zap.Logger, metrics *Metrics) *Pipeline {
	if renderer == nil {
		renderer = exporter.NewGonumRenderer()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Pipeline{opts: opts, renderer: renderer, logger: logger, metrics: metrics}
}

// Run 执行一次完整的报告生成
// 致命错误（SchemaError、ErrStoreUnavailable、保存失败）直接返回；单个图表失败只留空对应位置
func (p *Pipeline) Run(ctx context.Context, workbookPath string, sink exporter.Sink, output string) (rep *RunReport, err error) {
	runID := uuid.NewString()
	logger := p.logger.With(zap.String("run_id", runID))
	rep = &RunReport{RunID: runID, Input: workbookPath, Output: output, StartedAt: time.Now()}

	defer func() {
		rep.FinishedAt = time.Now()
		status := "ok"
		switch {
		case err != nil:
			status = "failed"
			logger.Error("report run failed", zap.Error(err))
		case len(rep.Skipped()) > 0:
			status = "partial"
		}
		p.metrics.Runs.WithLabelValues(status).Inc()
	}()

	logger.Info("report run started", zap.String("input", workbookPath), zap.String("output", output))

	raw, err := parser.OpenWorkbook(workbookPath)
	if err != nil {
		return rep, fmt.Errorf("read workbook: %w", err)
	}
	tables, nrep, err := parser.NewNormalizer().Normalize(raw)
	rep.Normalize = nrep
	if err != nil {
		return rep, fmt.Errorf("normalize workbook: %w", err)
	}
	logger.Info("workbook normalized",
		zap.Int("sheets", nrep.MappedSheets),
		zap.Int("rows", nrep.TotalRows),
		zap.Int("error_rows", nrep.ErrorRows),
	)

	storeOpts := p.opts.Store
	if storeOpts.DSN == "" {
		storeOpts.DSN = store.DefaultDSN(storeOpts.Driver, runID)
	}
	st, err := store.Open(ctx, storeOpts)
	if err != nil {
		return rep, err
	}
	defer st.Close()

	rep.Load = importer.NewCoordinator(st, logger).Load(ctx, tables, importer.LoadOptions{})

	emitter := exporter.NewEmitter(p.renderer, sink, logger)
	emitter.OnProgress = p.opts.OnProgress

	r := &run{
		ctx:     ctx,
		runner:  query.NewRunner(st, p.opts.Query, logger),
		emitter: emitter,
		report:  rep,
		logger:  logger,
		metrics: p.metrics,
	}
	r.revenueByCountry()
	r.revenueEvolution()
	top, ok := r.marginByProduct()
	r.marginDistribution(top, ok)

	if err := ctx.Err(); err != nil {
		return rep, err
	}
	if err := r.emitter.Save(output); err != nil {
		return rep, err
	}

	if p.opts.Summary {
		rep.FinishedAt = time.Now()
		if err := writeJSONAtomic(SummaryPath(output), rep); err != nil {
			logger.Warn("write run summary failed", zap.Error(err))
		}
	}

	logger.Info("report run finished",
		zap.Int("rendered", len(rep.Rendered())),
		zap.Int("skipped", len(rep.Skipped())),
	)
	return rep, nil
}

// run 单次运行中逐个图表的生成状态
type run struct {
	ctx     context.Context
	runner  *query.Runner
	emitter *exporter.Emitter
	report  *RunReport
	logger  *zap.Logger
	metrics *Metrics
}

type topProduct struct {
	id   string
	name string
}

func (r *run) skip(slot exporter.Slot, reason string, err error) {
	res := ChartResult{Slot: slot, Status: ChartSkipped, Reason: reason}
	if err != nil {
		res.Error = err.Error()
	}
	r.report.Charts = append(r.report.Charts, res)
	r.metrics.ChartSkips.WithLabelValues(string(slot), reason).Inc()
	r.emitter.Skip(slot)

	// 查询与出图失败已由各自组件告警
	log := r.logger.Warn
	if reason == ReasonQueryError || reason == ReasonEmitError {
		log = r.logger.Info
	}
	log("chart slot left blank", zap.String("slot", string(slot)), zap.String("reason", reason))
}

func (r *run) query(slot exporter.Slot, m query.Metric) (*query.ResultTable, bool) {
	res, err := r.runner.Run(r.ctx, m)
	if err != nil {
		r.skip(slot, ReasonQueryError, err)
		return nil, false
	}
	return res, true
}

func (r *run) resolveFailed(slot exporter.Slot, err error) {
	if errors.Is(err, calculator.ErrEmptyResult) {
		r.skip(slot, ReasonEmptyResult, err)
		return
	}
	r.logger.Warn("extremum resolution failed", zap.String("slot", string(slot)), zap.Error(err))
	r.skip(slot, ReasonEmitError, err)
}

func (r *run) emit(spec exporter.ChartSpec, table *query.ResultTable, annotation string) bool {
	if err := r.emitter.Emit(spec, table, annotation); err != nil {
		r.skip(spec.Slot, ReasonEmitError, err)
		return false
	}
	r.report.Charts = append(r.report.Charts, ChartResult{Slot: spec.Slot, Status: ChartRendered, Annotation: annotation})
	return true
}

func (r *run) revenueByCountry() {
	slot := exporter.SlotRevenueByCountry
	res, ok := r.query(slot, query.Of(query.RevenueByCountry))
	if !ok {
		return
	}
	ext, err := calculator.PickExtremum(res, model.ColCountry, query.ColTotalRevenue)
	if err != nil {
		r.resolveFailed(slot, err)
		return
	}
	r.emit(revenueByCountrySpec(), res, revenueAnnotation(ext))
}

func (r *run) revenueEvolution() {
	slot := exporter.SlotRevenueEvolution
	opts := r.runner.Options()
	res, ok := r.query(slot, query.Of(query.RevenueEvolution))
	if !ok {
		return
	}
	inc, err := calculator.BiggestIncrease(res, model.ColCountry,
		query.RevenueColumn(opts.PriorYear), query.RevenueColumn(opts.CurrentYear))
	if err != nil {
		r.resolveFailed(slot, err)
		return
	}
	r.emit(revenueEvolutionSpec(opts), res, increaseAnnotation(inc))
}

// marginByProduct 返回毛利最高的产品供分布图使用；图表本身失败不影响分布图
func (r *run) marginByProduct() (topProduct, bool) {
	slot := exporter.SlotMarginByProduct
	res, ok := r.query(slot, query.Of(query.MarginByProduct))
	if !ok {
		return topProduct{}, false
	}
	ext, err := calculator.PickExtremum(res, model.ColDisplayName, query.ColMarginTotal)
	if err != nil {
		r.resolveFailed(slot, err)
		return topProduct{}, false
	}
	id, err := res.Text(ext.Row, model.ColProductID)
	if err != nil {
		r.resolveFailed(slot, err)
		return topProduct{}, false
	}
	r.emit(marginByProductSpec(), res, marginAnnotation(ext))
	return topProduct{id: id, name: ext.Label}, true
}

func (r *run) marginDistribution(top topProduct, ok bool) {
	slot := exporter.SlotMarginDistribution
	if !ok {
		r.skip(slot, ReasonUpstream, nil)
		return
	}
	res, ok := r.query(slot, query.DistributionFor(top.id))
	if !ok {
		return
	}
	ext, err := calculator.PickExtremum(res, model.ColCountry, model.ColMargin)
	if err != nil {
		r.resolveFailed(slot, err)
		return
	}
	r.emit(marginDistributionSpec(top.name), res, distributionAnnotation(ext))
}

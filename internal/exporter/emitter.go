package exporter

import (
	"go.uber.org/zap"

	"salesreport/internal/query"
)

// ProgressEvent 某个位置已有结果（放置或留空）
type ProgressEvent struct {
	Slot    Slot
	Placed  bool
	Done    int // 已有结果的位置数
	Total   int
	Percent int
}

// Emitter 渲染图表并放入输出目标
type Emitter struct {
	renderer Renderer
	sink     Sink
	logger   *zap.Logger

	// OnProgress 每个位置第一次有结果时回调
	OnProgress func(ProgressEvent)
	placed     int
	settled    map[Slot]bool
}

// NewEmitter 创建 Emitter
func NewEmitter(renderer Renderer, sink Sink, logger *zap.Logger) *Emitter {
	if renderer == nil {
		renderer = NewGonumRenderer()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Emitter{renderer: renderer, sink: sink, logger: logger, settled: make(map[Slot]bool, len(Slots))}
}

// Sink 输出目标
func (e *Emitter) Sink() Sink {
	return e.sink
}

// Emit 渲染 spec.Slot 位置的图表；任何失败都以 *EmitError 返回，调用方跳过该位置
func (e *Emitter) Emit(spec ChartSpec, table *query.ResultTable, annotation string) error {
	c, err := BuildChart(spec, table, annotation)
	if err != nil {
		return e.fail(spec.Slot, err)
	}

	if !e.sink.InlineAnnotation() {
		c.Annotation = ""
	}
	img, err := e.renderer.Render(c)
	if err != nil {
		return e.fail(spec.Slot, err)
	}
	if err := e.sink.Place(spec.Slot, img, annotation); err != nil {
		return e.fail(spec.Slot, err)
	}

	e.placed++
	e.settle(spec.Slot, true)
	e.logger.Info("chart placed",
		zap.String("slot", string(spec.Slot)),
		zap.Stringer("kind", spec.Kind),
		zap.Int("rows", table.Len()),
	)
	return nil
}

// Save 写出报告；失败为致命错误
func (e *Emitter) Save(path string) error {
	if err := e.sink.Save(path); err != nil {
		return &EmitError{Fatal: true, Err: err}
	}
	e.logger.Info("report saved", zap.String("path", path), zap.Int("charts", e.placed))
	return nil
}

// Skip 记录上游未能出图的位置，只用于进度
func (e *Emitter) Skip(slot Slot) {
	e.settle(slot, false)
}

func (e *Emitter) fail(slot Slot, err error) error {
	e.logger.Warn("chart skipped", zap.String("slot", string(slot)), zap.Error(err))
	e.settle(slot, false)
	return &EmitError{Slot: slot, Err: err}
}

func (e *Emitter) settle(slot Slot, placed bool) {
	if e.settled[slot] {
		return
	}
	e.settled[slot] = true
	if e.OnProgress == nil {
		return
	}
	done := len(e.settled)
	e.OnProgress(ProgressEvent{
		Slot:    slot,
		Placed:  placed,
		Done:    done,
		Total:   len(Slots),
		Percent: min(done*100/len(Slots), 100),
	})
}

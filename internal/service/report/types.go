package report

import (
	"time"

	"salesreport/internal/exporter"
	"salesreport/internal/importer"
	"salesreport/internal/parser"
)

// ChartStatus 图表结果
type ChartStatus string

const (
	ChartRendered ChartStatus = "rendered"
	ChartSkipped  ChartStatus = "skipped"
)

// 跳过原因
const (
	ReasonQueryError  = "query_error"
	ReasonEmptyResult = "empty_result"
	ReasonEmitError   = "emit_error"
	ReasonUpstream    = "upstream_skipped"
)

// ChartResult 单个位置的生成结果
type ChartResult struct {
	Slot       exporter.Slot `json:"slot"`
	Status     ChartStatus   `json:"status"`
	Reason     string        `json:"reason,omitempty"`
	Error      string        `json:"error,omitempty"`
	Annotation string        `json:"annotation,omitempty"`
}

// RunReport 一次流水线运行的汇总
type RunReport struct {
	RunID      string                  `json:"runId"`
	Input      string                  `json:"input"`
	Output     string                  `json:"output"`
	StartedAt  time.Time               `json:"startedAt"`
	FinishedAt time.Time               `json:"finishedAt"`
	Normalize  *parser.NormalizeReport `json:"normalize,omitempty"`
	Load       *importer.LoadReport    `json:"load,omitempty"`
	Charts     []ChartResult           `json:"charts"`
}

// Rendered 已生成的位置
func (r *RunReport) Rendered() []exporter.Slot {
	return r.slots(ChartRendered)
}

// Skipped 被跳过的位置
func (r *RunReport) Skipped() []exporter.Slot {
	return r.slots(ChartSkipped)
}

func (r *RunReport) slots(status ChartStatus) []exporter.Slot {
	var out []exporter.Slot
	for _, c := range r.Charts {
		if c.Status == status {
			out = append(out, c.Slot)
		}
	}
	return out
}

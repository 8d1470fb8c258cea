package report

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics 运行计数
type Metrics struct {
	Runs       *prometheus.CounterVec
	ChartSkips *prometheus.CounterVec
}

// NewMetrics 注册到 reg；reg 为空时不注册
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "salesreport_runs_total",
			Help: "Pipeline runs by final status.",
		}, []string{"status"}),
		ChartSkips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "salesreport_chart_skips_total",
			Help: "Chart slots left blank, by slot and reason.",
		}, []string{"slot", "reason"}),
	}
	if reg != nil {
		reg.MustRegister(m.Runs, m.ChartSkips)
	}
	return m
}

package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"salesreport/internal/config"
	"salesreport/internal/exporter"
	"salesreport/internal/service/report"
	"salesreport/internal/util"
)

var runFlags struct {
	input    string
	sink     string
	output   string
	template string
	driver   string
	dsn      string
	summary  bool
	open     bool
}

var runCmd = &cobra.Command{
	Use:   "run [workbook.xlsx]",
	Short: "Generate one report from a workbook",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runReport,
}

func init() {
	f := runCmd.Flags()
	f.StringVarP(&runFlags.input, "input", "i", "", "input workbook (overrides config)")
	f.StringVar(&runFlags.sink, "sink", "", "image or deck")
	f.StringVarP(&runFlags.output, "output", "o", "", "output file")
	f.StringVar(&runFlags.template, "template", "", "deck template (.pptx)")
	f.StringVar(&runFlags.driver, "driver", "", "staging store driver: sqlite3, postgres or duckdb")
	f.StringVar(&runFlags.dsn, "dsn", "", "staging store DSN")
	f.BoolVar(&runFlags.summary, "summary", false, "write <output>.run.json next to the report")
	f.BoolVar(&runFlags.open, "open", false, "open the report when done")

	rootCmd.AddCommand(runCmd)
}

// 命令行参数覆盖配置
func applyRunFlags(cfg *config.AppConfig, args []string) error {
	if len(args) == 1 {
		cfg.Input.Workbook = args[0]
	}
	if runFlags.input != "" {
		cfg.Input.Workbook = runFlags.input
	}
	if runFlags.sink != "" {
		cfg.Report.Sink = runFlags.sink
	}
	if runFlags.output != "" {
		cfg.Report.Output = runFlags.output
	} else if cfg.Report.Sink == report.SinkDeck && strings.HasSuffix(cfg.Report.Output, ".png") {
		cfg.Report.Output = strings.TrimSuffix(cfg.Report.Output, ".png") + ".pptx"
	}
	if runFlags.template != "" {
		cfg.Report.Template = runFlags.template
	}
	if runFlags.driver != "" {
		cfg.Store.Driver = runFlags.driver
	}
	if runFlags.dsn != "" {
		cfg.Store.DSN = runFlags.dsn
	}
	if runFlags.summary {
		cfg.Report.Summary = true
	}

	if cfg.Input.Workbook == "" {
		return errors.New("no input workbook: pass it as an argument, --input or " + config.EnvInput)
	}
	return cfg.Validate()
}

func printProgress(ev exporter.ProgressEvent) {
	state := "placed"
	if !ev.Placed {
		state = "left blank"
	}
	fmt.Printf("[%3d%%] %d/%d %s %s\n", ev.Percent, ev.Done, ev.Total, ev.Slot, state)
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, logger := app.cfg, app.logger
	if err := applyRunFlags(cfg, args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	renderer := exporter.NewGonumRenderer()
	sink, err := report.NewSink(report.SinkOptions{
		Kind:       cfg.Report.Sink,
		Template:   cfg.Report.Template,
		Placements: cfg.DeckPlacements(),
	}, renderer)
	if err != nil {
		return err
	}

	pipeline := report.NewPipeline(report.Options{
		Store:      cfg.StoreOptions(),
		Query:      cfg.QueryOptions(),
		Summary:    cfg.Report.Summary,
		OnProgress: printProgress,
	}, renderer, logger, nil)

	rep, err := pipeline.Run(ctx, cfg.Input.Workbook, sink, cfg.Report.Output)
	if err != nil {
		return err
	}

	for _, c := range rep.Charts {
		if c.Status == report.ChartSkipped {
			fmt.Printf("  - %-20s skipped (%s)\n", c.Slot, c.Reason)
			continue
		}
		fmt.Printf("  + %-20s %s\n", c.Slot, c.Annotation)
	}
	fmt.Printf("报告已生成: %s\n", cfg.Report.Output)

	if runFlags.open {
		if err := util.OpenWithFallback(cfg.Report.Output); err != nil {
			logger.Warn("open report failed", zap.Error(err))
		}
	}
	return nil
}

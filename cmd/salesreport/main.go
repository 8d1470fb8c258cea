package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"salesreport/internal/config"
)

var rootFlags struct {
	configPath string
	logLevel   string
	logFormat  string
}

// app 由 PersistentPreRunE 初始化
var app struct {
	cfg    *config.AppConfig
	info   config.LoadConfigInfo
	logger *zap.Logger
}

var rootCmd = &cobra.Command{
	Use:           "salesreport",
	Short:         "Multi-country sales spreadsheet to chart report",
	Long:          "salesreport normalizes a FR/DE/PL sales workbook, stages it in SQL, computes revenue and margin metrics, and renders a 2x2 chart panel or a slide deck.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, info, err := config.LoadConfigWithInfo(rootFlags.configPath)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}
		if rootFlags.logLevel != "" {
			cfg.Log.Level = rootFlags.logLevel
		}
		if rootFlags.logFormat != "" {
			cfg.Log.Format = rootFlags.logFormat
		}
		logger, err := config.NewLogger(cfg.Log)
		if err != nil {
			return fmt.Errorf("初始化日志失败: %w", err)
		}
		app.cfg, app.info, app.logger = cfg, info, logger
		if info.Found {
			logger.Debug("config loaded", zap.String("path", info.Path))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if app.logger != nil {
			_ = app.logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&rootFlags.configPath, "config", "c", "", "config.toml path (defaults to the executable directory)")
	rootCmd.PersistentFlags().StringVar(&rootFlags.logLevel, "log-level", "", "debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&rootFlags.logFormat, "log-format", "", "console or json")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

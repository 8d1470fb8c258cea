package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"salesreport/internal/server"
)

var serveFlags struct {
	port    int
	devMode bool
	dataDir string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the report pipeline over HTTP",
	RunE:  runServe,
}

func init() {
	f := serveCmd.Flags()
	f.IntVar(&serveFlags.port, "port", 0, "服务端口 (config.toml 优先；仅当未显式配置 port 时生效)")
	f.BoolVar(&serveFlags.devMode, "dev", false, "开发模式")
	f.StringVar(&serveFlags.dataDir, "data-dir", "", "数据目录 (覆盖配置文件)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger := app.cfg, app.logger

	// 命令行参数覆盖配置
	if serveFlags.port > 0 && !app.info.PortSpecified {
		cfg.Server.Port = serveFlags.port
	}
	if serveFlags.devMode {
		cfg.Server.DevMode = true
	}
	if serveFlags.dataDir != "" {
		cfg.Data.DataDir = serveFlags.dataDir
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	srv, err := server.NewServer(cfg, logger)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", addr))
		errCh <- srv.Run(addr)
	}()

	// 等待信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("服务启动失败: %w", err)
	case <-quit:
		logger.Info("server stopping")
		return nil
	}
}

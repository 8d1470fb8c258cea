package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"

	"salesreport/internal/exporter"
	"salesreport/internal/query"
	"salesreport/internal/store"
)

// 环境变量
const (
	EnvInput        = "SALESREPORT_INPUT"
	EnvStoreDriver  = "SALESREPORT_STORE_DRIVER"
	EnvStoreDSN     = "SALESREPORT_STORE_DSN"
	EnvDeckTemplate = "SALESREPORT_DECK_TEMPLATE"
)

// AppConfig 应用配置
type AppConfig struct {
	Server ServerConfig `toml:"server"`
	Data   DataConfig   `toml:"data"`
	Input  InputConfig  `toml:"input"`
	Store  StoreConfig  `toml:"store"`
	Report ReportConfig `toml:"report"`
	Log    LogConfig    `toml:"log"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port    int  `toml:"port" validate:"min=1,max=65535"`
	DevMode bool `toml:"dev_mode"`
}

// DataConfig 数据目录（上传与导出文件）
type DataConfig struct {
	DataDir string `toml:"data_dir" validate:"required"`
}

// InputConfig 输入工作簿
type InputConfig struct {
	Workbook string `toml:"workbook"`
}

// StoreConfig 暂存库；DSN 为空时使用按运行 ID 命名的内存库
type StoreConfig struct {
	Driver string `toml:"driver" validate:"oneof=sqlite3 postgres duckdb"`
	DSN    string `toml:"dsn"`
}

// ReportConfig 报告输出
type ReportConfig struct {
	Sink        string `toml:"sink" validate:"oneof=image deck"`
	Output      string `toml:"output" validate:"required"`
	Template    string `toml:"template" validate:"required_if=Sink deck"`
	PriorYear   int    `toml:"prior_year" validate:"min=1900"`
	CurrentYear int    `toml:"current_year" validate:"min=1900,nefield=PriorYear"`
	Summary     bool   `toml:"summary"`

	// Slides 图表位置到幻灯片形状的映射，键为 revenue_by_country 等
	Slides map[string]exporter.DeckPlacement `toml:"slides" validate:"dive"`
}

// LogConfig 日志
type LogConfig struct {
	Level  string `toml:"level" validate:"oneof=debug info warn error"`
	Format string `toml:"format" validate:"oneof=console json"`
}

// LoadConfigInfo 配置加载元信息
type LoadConfigInfo struct {
	Path          string
	Found         bool
	PortSpecified bool
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	q := query.DefaultOptions()
	return &AppConfig{
		Server: ServerConfig{
			Port:    20261,
			DevMode: false,
		},
		Data: DataConfig{
			DataDir: "data",
		},
		Store: StoreConfig{
			Driver: store.DriverSQLite,
		},
		Report: ReportConfig{
			Sink:        "image",
			Output:      "report.png",
			PriorYear:   q.PriorYear,
			CurrentYear: q.CurrentYear,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

func isPortSpecifiedInToml(data []byte) bool {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return false
	}

	serverAny, ok := raw["server"]
	if !ok {
		return false
	}

	serverMap, ok := serverAny.(map[string]any)
	if !ok {
		return false
	}

	_, ok = serverMap["port"]
	return ok
}

// GetExeDir 获取可执行文件所在目录
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// DefaultConfigPath 可执行文件同目录下的 config.toml
func DefaultConfigPath() string {
	exeDir, err := GetExeDir()
	if err != nil {
		// 无法获取可执行文件目录，使用当前目录
		exeDir = "."
	}
	return filepath.Join(exeDir, "config.toml")
}

// LoadConfigWithInfo 从 config.toml 加载配置并返回元信息；path 为空时读取可执行文件同目录下的文件
func LoadConfigWithInfo(path string) (*AppConfig, LoadConfigInfo, error) {
	if path == "" {
		path = DefaultConfigPath()
	}
	info := LoadConfigInfo{Path: path}
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		info.Found = true
		info.PortSpecified = isPortSpecifiedInToml(data)
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, info, fmt.Errorf("parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// 配置文件不存在，使用默认配置
	default:
		return nil, info, err
	}

	applyEnv(config)

	if err := config.Validate(); err != nil {
		return nil, info, err
	}
	return config, info, nil
}

// LoadConfig 从 config.toml 加载配置
func LoadConfig(path string) (*AppConfig, error) {
	config, _, err := LoadConfigWithInfo(path)
	return config, err
}

// 环境变量覆盖（用于 CI / 本地运行）
func applyEnv(config *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvInput)); v != "" {
		config.Input.Workbook = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvStoreDriver)); v != "" {
		config.Store.Driver = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvStoreDSN)); v != "" {
		config.Store.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvDeckTemplate)); v != "" {
		config.Report.Template = v
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate 校验配置
func (c *AppConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}

	known := make(map[string]bool, len(exporter.Slots))
	for _, s := range exporter.Slots {
		known[string(s)] = true
	}
	var unknown []string
	for k := range c.Report.Slides {
		if !known[k] {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("invalid config: unknown report slot(s) %s", strings.Join(unknown, ", "))
	}
	return nil
}

// StoreOptions 暂存库参数
func (c *AppConfig) StoreOptions() store.Options {
	return store.Options{Driver: c.Store.Driver, DSN: c.Store.DSN}
}

// QueryOptions 指标查询参数
func (c *AppConfig) QueryOptions() query.Options {
	return query.Options{PriorYear: c.Report.PriorYear, CurrentYear: c.Report.CurrentYear}
}

// DeckPlacements 未配置的位置使用默认映射
func (c *AppConfig) DeckPlacements() map[exporter.Slot]exporter.DeckPlacement {
	out := exporter.DefaultDeckPlacements()
	for k, v := range c.Report.Slides {
		out[exporter.Slot(k)] = v
	}
	return out
}

// SaveConfig 保存配置到 path
func SaveConfig(config *AppConfig, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// EnsureDataDir 确保数据目录存在；相对路径基于可执行文件所在目录
func EnsureDataDir(config *AppConfig) (string, error) {
	dataDir := config.Data.DataDir
	if !filepath.IsAbs(dataDir) {
		exeDir, err := GetExeDir()
		if err != nil {
			exeDir = "."
		}
		dataDir = filepath.Join(exeDir, dataDir)
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}

	// 创建子目录
	subdirs := []string{"uploads", "exports"}
	for _, subdir := range subdirs {
		path := filepath.Join(dataDir, subdir)
		if err := os.MkdirAll(path, 0755); err != nil {
			return "", err
		}
	}

	return dataDir, nil
}

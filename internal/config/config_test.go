package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"salesreport/internal/exporter"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, info, err := LoadConfigWithInfo(filepath.Join(t.TempDir(), "none.toml"))
	if err != nil {
		t.Fatalf("LoadConfigWithInfo: %v", err)
	}
	if info.Found || info.PortSpecified {
		t.Fatalf("info=%+v", info)
	}
	if cfg.Store.Driver != "sqlite3" || cfg.Report.Sink != "image" || cfg.Report.PriorYear != 2019 || cfg.Report.CurrentYear != 2020 {
		t.Fatalf("defaults=%+v", cfg)
	}
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	path := writeFile(t, `
[server]
port = 8088

[input]
workbook = "from-file.xlsx"

[report]
sink = "deck"
output = "out/report.pptx"
template = "deck.pptx"
prior_year = 2020
current_year = 2021

[report.slides.margin_distribution]
slide = 7
picture = "Pie"
text = "PieCaption"
`)
	t.Setenv(EnvInput, "from-env.xlsx")
	t.Setenv(EnvStoreDriver, "duckdb")

	cfg, info, err := LoadConfigWithInfo(path)
	if err != nil {
		t.Fatalf("LoadConfigWithInfo: %v", err)
	}
	if !info.Found || !info.PortSpecified || cfg.Server.Port != 8088 {
		t.Fatalf("server=%+v info=%+v", cfg.Server, info)
	}
	if cfg.Input.Workbook != "from-env.xlsx" || cfg.Store.Driver != "duckdb" {
		t.Fatalf("env overrides not applied: %+v %+v", cfg.Input, cfg.Store)
	}
	if q := cfg.QueryOptions(); q.PriorYear != 2020 || q.CurrentYear != 2021 {
		t.Fatalf("query options=%+v", q)
	}

	placements := cfg.DeckPlacements()
	if p := placements[exporter.SlotMarginDistribution]; p.Slide != 7 || p.Picture != "Pie" {
		t.Fatalf("configured placement=%+v", p)
	}
	if p := placements[exporter.SlotRevenueByCountry]; p.Slide != 1 || p.Picture != "Chart1" {
		t.Fatalf("default placement=%+v", p)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	cases := map[string]string{
		"unknown driver":   "[store]\ndriver = \"oracle\"\n",
		"deck no template": "[report]\nsink = \"deck\"\n",
		"same years":       "[report]\nprior_year = 2020\ncurrent_year = 2020\n",
		"bad slot":         "[report.slides.bogus]\nslide = 1\npicture = \"x\"\n",
		"bad slide":        "[report.slides.revenue_by_country]\nslide = 0\npicture = \"x\"\n",
		"bad level":        "[log]\nlevel = \"loud\"\n",
		"not toml":         "[report\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadConfig(writeFile(t, body)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoadConfig_DeckTemplateFromEnv(t *testing.T) {
	t.Setenv(EnvDeckTemplate, "env-deck.pptx")
	cfg, err := LoadConfig(writeFile(t, "[report]\nsink = \"deck\"\noutput = \"r.pptx\"\n"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Report.Template != "env-deck.pptx" {
		t.Fatalf("template=%s", cfg.Report.Template)
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := DefaultConfig()
	cfg.Report.Output = "custom.png"
	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || !strings.Contains(string(data), "custom.png") {
		t.Fatalf("saved=%s err=%v", data, err)
	}
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	if _, err := NewLogger(LogConfig{Level: "debug", Format: "json"}); err != nil {
		t.Fatalf("json logger: %v", err)
	}
	if _, err := NewLogger(LogConfig{Level: "nope", Format: "console"}); err == nil {
		t.Fatalf("bad level should fail")
	}
}

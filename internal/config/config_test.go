package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if cfg.DataSource.Provider != "yahoo" || cfg.DataSource.Days != 365 {
		t.Errorf("unexpected data source defaults %+v", cfg.DataSource)
	}
	if got := cfg.Indicators.Windows; len(got) != 4 || got[0] != 8 || got[3] != 200 {
		t.Errorf("unexpected windows %v", got)
	}
	if cfg.Rule.RSILower != 50 || cfg.Rule.RSIUpper != 70 {
		t.Errorf("unexpected rsi bounds %v/%v", cfg.Rule.RSILower, cfg.Rule.RSIUpper)
	}
	if cfg.MailEnabled() || cfg.TelegramEnabled() {
		t.Error("mail and telegram are off by default")
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `
data_source:
  provider: rest
  base_url: http://bars.local
watchlist:
  source: store
indicators:
  windows: [10, 30]
rule:
  trend_windows: [30, 10]
  rsi_lower: 45
  rsi_upper: 75
smtp:
  host: smtp.example.com
  from: alerts@example.com
`)
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("DATA_API_KEY", "k")
	t.Setenv("LOG_FORMAT", "console")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.DataSource.APIKey != "k" || cfg.SMTP.Port != 2525 || cfg.Log.Format != "console" {
		t.Errorf("env overrides not applied: %+v", cfg)
	}
	if cfg.Rule.RSILower != 45 || cfg.Indicators.Windows[1] != 30 {
		t.Errorf("file values lost: %+v", cfg.Rule)
	}
	if !cfg.MailEnabled() {
		t.Error("mail should be enabled")
	}
}

func TestLoad_BadValues(t *testing.T) {
	if _, err := Load(writeConfig(t, "data_source: [")); err == nil {
		t.Error("expected a parse error")
	}
	t.Setenv("SMTP_PORT", "abc")
	if _, err := Load(filepath.Join(t.TempDir(), "none.yaml")); err == nil {
		t.Error("expected an error for a non-numeric SMTP_PORT")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"rsi bounds inverted", func(c *Config) { c.Rule.RSILower, c.Rule.RSIUpper = 70, 50 }, "RSIUpper"},
		{"rest without url", func(c *Config) { c.DataSource.Provider = "rest" }, "BaseURL"},
		{"unknown provider", func(c *Config) { c.DataSource.Provider = "bloomberg" }, "Provider"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "Format"},
		{"chat id missing", func(c *Config) { c.Telegram.BotToken = "t" }, "ChatID"},
		{"trend window not computed", func(c *Config) { c.Rule.TrendWindows = []int{100} }, "MA100"},
		{"no windows", func(c *Config) { c.Indicators.Windows = []int{} }, "Windows"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			cfg.applyDefaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected a validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

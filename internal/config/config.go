package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	DataSource struct {
		Provider string `yaml:"provider" validate:"oneof=yahoo rest static"`
		BaseURL  string `yaml:"base_url" validate:"required_if=Provider rest,omitempty,url"`
		APIKey   string `yaml:"api_key"`
		Days     int    `yaml:"days" validate:"min=1"`
		Workers  int    `yaml:"workers" validate:"min=1,max=64"`
	} `yaml:"data_source"`
	Watchlist struct {
		Source  string `yaml:"source" validate:"oneof=csv store"`
		CSVPath string `yaml:"csv_path" validate:"required_if=Source csv"`
	} `yaml:"watchlist"`
	Indicators struct {
		Windows []int `yaml:"windows" validate:"min=1,dive,min=1"`
	} `yaml:"indicators"`
	Rule struct {
		TrendWindows []int   `yaml:"trend_windows" validate:"min=1,dive,min=1"`
		RSILower     float64 `yaml:"rsi_lower" validate:"gte=0,lte=100"`
		RSIUpper     float64 `yaml:"rsi_upper" validate:"gtfield=RSILower,lte=100"`
	} `yaml:"rule"`
	Schedule struct {
		RunCron string `yaml:"run_cron" validate:"required"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	ArtifactPath string `yaml:"artifact_path" validate:"required"`
	SMTP         struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port" validate:"min=0,max=65535"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		From     string `yaml:"from" validate:"required_with=Host,omitempty,email"`
	} `yaml:"smtp"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id" validate:"required_with=BotToken"`
	} `yaml:"telegram"`
	Events struct {
		WebhookURL    string `yaml:"webhook_url" validate:"omitempty,url"`
		WebhookToken  string `yaml:"webhook_token"`
		RedisAddr     string `yaml:"redis_addr" validate:"omitempty,hostname_port"`
		RedisPassword string `yaml:"redis_password"`
		RedisChannel  string `yaml:"redis_channel"`
	} `yaml:"events"`
	Server struct {
		Addr    string `yaml:"addr" validate:"required"`
		SiteURL string `yaml:"site_url" validate:"omitempty,url"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level" validate:"oneof=debug info warn error"`
		Format string `yaml:"format" validate:"oneof=json console"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies .env and environment variable
// overrides and fills defaults. A missing file or .env is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Variables already set in the environment win over .env.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	str := map[string]*string{
		"DATA_PROVIDER":      &c.DataSource.Provider,
		"DATA_BASE_URL":      &c.DataSource.BaseURL,
		"DATA_API_KEY":       &c.DataSource.APIKey,
		"WATCHLIST_SOURCE":   &c.Watchlist.Source,
		"WATCHLIST_CSV":      &c.Watchlist.CSVPath,
		"CRON_RUN":           &c.Schedule.RunCron,
		"SQLITE_PATH":        &c.Database.SQLitePath,
		"ARTIFACT_PATH":      &c.ArtifactPath,
		"SMTP_SERVER":        &c.SMTP.Host,
		"EMAIL":              &c.SMTP.Username,
		"PASSWORD":           &c.SMTP.Password,
		"TELEGRAM_BOT_TOKEN": &c.Telegram.BotToken,
		"TELEGRAM_CHAT_ID":   &c.Telegram.ChatID,
		"NOTIFY_URL":         &c.Events.WebhookURL,
		"NOTIFY_TOKEN":       &c.Events.WebhookToken,
		"REDIS_ADDR":         &c.Events.RedisAddr,
		"REDIS_PASSWORD":     &c.Events.RedisPassword,
		"LISTEN_ADDR":        &c.Server.Addr,
		"LOG_LEVEL":          &c.Log.Level,
		"LOG_FORMAT":         &c.Log.Format,
		"HTTPS_PROXY":        &c.Proxy,
	}
	for key, dst := range str {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("SMTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SMTP_PORT: %w", err)
		}
		c.SMTP.Port = port
	}
	if v := os.Getenv("MA_WINDOWS"); v != "" {
		windows, err := parseInts(v)
		if err != nil {
			return fmt.Errorf("MA_WINDOWS: %w", err)
		}
		c.Indicators.Windows = windows
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.DataSource.Provider == "" {
		c.DataSource.Provider = "yahoo"
	}
	if c.DataSource.Days == 0 {
		c.DataSource.Days = 365
	}
	if c.DataSource.Workers == 0 {
		c.DataSource.Workers = 8
	}
	if c.Watchlist.Source == "" {
		c.Watchlist.Source = "csv"
	}
	if c.Watchlist.Source == "csv" && c.Watchlist.CSVPath == "" {
		c.Watchlist.CSVPath = "data/fortune500_all.csv"
	}
	if len(c.Indicators.Windows) == 0 {
		c.Indicators.Windows = []int{8, 20, 50, 200}
	}
	if len(c.Rule.TrendWindows) == 0 {
		c.Rule.TrendWindows = []int{200, 50, 8}
	}
	if c.Rule.RSILower == 0 && c.Rule.RSIUpper == 0 {
		c.Rule.RSILower, c.Rule.RSIUpper = 50, 70
	}
	if c.Schedule.RunCron == "" {
		c.Schedule.RunCron = "0 30 16 * * 1-5"
	}
	if c.ArtifactPath == "" {
		c.ArtifactPath = "data/stock_data.json"
	}
	if c.SMTP.Host != "" && c.SMTP.Port == 0 {
		c.SMTP.Port = 587
	}
	if c.SMTP.From == "" {
		c.SMTP.From = c.SMTP.Username
	}
	if c.Events.RedisChannel == "" {
		c.Events.RedisChannel = "stocksentinel:snapshots"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":5000"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
}

// Validate checks field constraints and that every trend window is computed.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, len(verrs))
			for i, fe := range verrs {
				msgs[i] = fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag())
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return err
	}

	computed := make(map[int]bool, len(c.Indicators.Windows))
	for _, w := range c.Indicators.Windows {
		computed[w] = true
	}
	for _, w := range c.Rule.TrendWindows {
		if !computed[w] {
			return fmt.Errorf("rule.trend_windows: MA%d is not in indicators.windows", w)
		}
	}
	return nil
}

// MailEnabled reports whether an SMTP server is configured.
func (c *Config) MailEnabled() bool { return c.SMTP.Host != "" }

// TelegramEnabled reports whether the Telegram ops channel is configured.
func (c *Config) TelegramEnabled() bool { return c.Telegram.BotToken != "" }

func parseInts(s string) ([]int, error) {
	var out []int
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

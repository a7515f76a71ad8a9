package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"MineralTracker/internal/chart"
	"MineralTracker/internal/model"
)

const dateLayout = "2006-01-02"

// Config holds all application configuration.
type Config struct {
	Mode    string         `yaml:"mode"` // backfill, current, schedule, recent
	Symbols []model.Symbol `yaml:"symbols"`
	Periods []string       `yaml:"periods"`
	Batch   struct {
		StartDate string `yaml:"start_date"`
		EndDate   string `yaml:"end_date"`
		Workers   int    `yaml:"workers"`
	} `yaml:"batch"`
	DataSource struct {
		Provider     string `yaml:"provider"` // yahoo or alpaca
		AlpacaKey    string `yaml:"alpaca_key"`
		AlpacaSecret string `yaml:"alpaca_secret"`
		AlpacaURL    string `yaml:"alpaca_url"`
		AlpacaFeed   string `yaml:"alpaca_feed"`
	} `yaml:"data_source"`
	Output struct {
		DataDir  string   `yaml:"data_dir"`
		ImageDir string   `yaml:"image_dir"`
		SaveJSON *bool    `yaml:"save_json"`
		Modes    []string `yaml:"modes"`
	} `yaml:"output"`
	Chart struct {
		Title              string  `yaml:"title"`
		WidthPx            int     `yaml:"width_px"`
		HeightPx           int     `yaml:"height_px"`
		DPI                int     `yaml:"dpi"`
		YPadding           *float64 `yaml:"y_padding"`
		ThousandsThreshold float64 `yaml:"thousands_threshold"`
	} `yaml:"chart"`
	Upload struct {
		Enabled         bool   `yaml:"enabled"`
		Bucket          string `yaml:"bucket"`
		Prefix          string `yaml:"prefix"`
		CredentialsFile string `yaml:"credentials_file"`
		URLLog          string `yaml:"url_log"`
		Retries         int    `yaml:"retries"`
		RecentCount     int    `yaml:"recent_count"`
	} `yaml:"upload"`
	Schedule struct {
		Cron       string `yaml:"cron"`
		RunOnStart bool   `yaml:"run_on_start"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
		Commands bool   `yaml:"commands"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies .env and environment variable overrides.
// A missing file is not an error; defaults cover every field.
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

	envFile := ".env"
	if v := os.Getenv("ENV_FILE"); v != "" {
		envFile = v
	}
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		log.Printf("[WARN] load %s: %v", envFile, err)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MODE"); v != "" {
		cfg.Mode = v
	}
	if v := os.Getenv("DATA_PROVIDER"); v != "" {
		cfg.DataSource.Provider = v
	}
	if v := os.Getenv("ALPACA_KEY"); v != "" {
		cfg.DataSource.AlpacaKey = v
	}
	if v := os.Getenv("ALPACA_SECRET"); v != "" {
		cfg.DataSource.AlpacaSecret = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Output.DataDir = v
	}
	if v := os.Getenv("IMAGE_DIR"); v != "" {
		cfg.Output.ImageDir = v
	}
	if v := os.Getenv("BATCH_START"); v != "" {
		cfg.Batch.StartDate = v
	}
	if v := os.Getenv("BATCH_END"); v != "" {
		cfg.Batch.EndDate = v
	}
	if v := os.Getenv("BATCH_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Batch.Workers = n
		}
	}
	if v := os.Getenv("UPLOAD_BUCKET"); v != "" {
		cfg.Upload.Bucket = v
	}
	if v := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); v != "" && cfg.Upload.CredentialsFile == "" {
		cfg.Upload.CredentialsFile = v
	}
	if v := os.Getenv("CRON_SCHEDULE"); v != "" {
		cfg.Schedule.Cron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("RUN_ON_START"); v != "" {
		cfg.Schedule.RunOnStart = v == "true"
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Mode == "" {
		cfg.Mode = "backfill"
	}
	if len(cfg.Symbols) == 0 {
		cfg.Symbols = append([]model.Symbol(nil), model.DefaultSymbols...)
	}
	if len(cfg.Periods) == 0 {
		for _, p := range model.AllPeriods {
			cfg.Periods = append(cfg.Periods, string(p))
		}
	}
	if cfg.Batch.StartDate == "" {
		cfg.Batch.StartDate = "2025-01-01"
	}
	if cfg.Batch.EndDate == "" {
		cfg.Batch.EndDate = "2025-02-04"
	}
	if cfg.Batch.Workers <= 0 {
		cfg.Batch.Workers = 1
	}
	if cfg.DataSource.Provider == "" {
		cfg.DataSource.Provider = "yahoo"
	}
	if cfg.Output.DataDir == "" {
		cfg.Output.DataDir = "data"
	}
	if cfg.Output.ImageDir == "" {
		cfg.Output.ImageDir = "images"
	}
	if cfg.Output.SaveJSON == nil {
		t := true
		cfg.Output.SaveJSON = &t
	}
	if len(cfg.Output.Modes) == 0 {
		cfg.Output.Modes = []string{string(chart.ModePNG), string(chart.ModeHTML)}
	}
	if cfg.Chart.Title == "" {
		cfg.Chart.Title = "Metal and Rare Earth Prices"
	}
	if cfg.Chart.WidthPx == 0 {
		cfg.Chart.WidthPx = 1500
	}
	if cfg.Chart.HeightPx == 0 {
		cfg.Chart.HeightPx = 1500
	}
	if cfg.Chart.DPI == 0 {
		cfg.Chart.DPI = 96
	}
	if cfg.Chart.YPadding == nil {
		p := chart.DefaultYPadding
		cfg.Chart.YPadding = &p
	}
	if cfg.Chart.ThousandsThreshold == 0 {
		cfg.Chart.ThousandsThreshold = chart.DefaultThousandsThreshold
	}
	if cfg.Upload.Prefix == "" {
		cfg.Upload.Prefix = "mineral_prices"
	}
	if cfg.Upload.URLLog == "" {
		cfg.Upload.URLLog = "mineral_prices_urls.txt"
	}
	if cfg.Upload.Retries == 0 {
		cfg.Upload.Retries = 2
	}
	if cfg.Upload.RecentCount == 0 {
		cfg.Upload.RecentCount = 5
	}
	if cfg.Schedule.Cron == "" {
		cfg.Schedule.Cron = "0 0 18 * * 1-5"
	}
}

// Validate checks that all required fields are set and well formed.
func (c *Config) Validate() error {
	switch c.Mode {
	case "backfill", "current", "schedule", "recent":
	default:
		return fmt.Errorf("mode %q must be one of backfill, current, schedule, recent", c.Mode)
	}
	if _, err := c.ParsedPeriods(); err != nil {
		return err
	}
	start, end, err := c.Window()
	if err != nil {
		return err
	}
	if end.Before(start) {
		return fmt.Errorf("batch.end_date %s is before batch.start_date %s", c.Batch.EndDate, c.Batch.StartDate)
	}
	for i, s := range c.Symbols {
		if s.Name == "" || s.Ticker == "" {
			return fmt.Errorf("symbols[%d]: name and ticker are required", i)
		}
	}
	if _, err := c.RenderModes(); err != nil {
		return err
	}
	switch c.DataSource.Provider {
	case "yahoo":
	case "alpaca":
		if c.DataSource.AlpacaKey == "" || c.DataSource.AlpacaSecret == "" {
			return fmt.Errorf("data_source.alpaca_key and alpaca_secret are required for the alpaca provider")
		}
	default:
		return fmt.Errorf("data_source.provider %q must be yahoo or alpaca", c.DataSource.Provider)
	}
	if c.Upload.Enabled && c.Upload.Bucket == "" {
		return fmt.Errorf("upload.bucket is required when upload is enabled")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	if c.Chart.YPadding != nil && *c.Chart.YPadding < 0 {
		return fmt.Errorf("chart.y_padding must not be negative")
	}
	return nil
}

// NotifyEnabled reports whether run summaries go to Telegram.
func (c *Config) NotifyEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// ParsedPeriods returns the configured period codes.
func (c *Config) ParsedPeriods() ([]model.Period, error) {
	out := make([]model.Period, 0, len(c.Periods))
	for _, s := range c.Periods {
		p, err := model.ParsePeriod(s)
		if err != nil {
			return nil, fmt.Errorf("periods: %w", err)
		}
		out = append(out, p)
	}
	return out, nil
}

// Window returns the back-fill range as UTC dates.
func (c *Config) Window() (start, end time.Time, err error) {
	start, err = time.Parse(dateLayout, c.Batch.StartDate)
	if err != nil {
		return start, end, fmt.Errorf("batch.start_date: %w", err)
	}
	end, err = time.Parse(dateLayout, c.Batch.EndDate)
	if err != nil {
		return start, end, fmt.Errorf("batch.end_date: %w", err)
	}
	return start, end, nil
}

// RenderModes returns the configured chart output modes.
func (c *Config) RenderModes() ([]chart.Mode, error) {
	out := make([]chart.Mode, 0, len(c.Output.Modes))
	for _, s := range c.Output.Modes {
		m, err := chart.ParseMode(s)
		if err != nil {
			return nil, fmt.Errorf("output.modes: %w", err)
		}
		out = append(out, m)
	}
	return out, nil
}

// ChartOptions converts the chart section for the renderer.
func (c *Config) ChartOptions() chart.Options {
	padding := chart.DefaultYPadding
	if c.Chart.YPadding != nil {
		padding = *c.Chart.YPadding
	}
	return chart.Options{
		Dir:                c.Output.ImageDir,
		Title:              c.Chart.Title,
		WidthPx:            c.Chart.WidthPx,
		HeightPx:           c.Chart.HeightPx,
		DPI:                c.Chart.DPI,
		YPadding:           padding,
		ThousandsThreshold: c.Chart.ThousandsThreshold,
	}
}

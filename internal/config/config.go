package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"auto_briefing/internal/models"
	"auto_briefing/internal/sources"
)

const (
	DefaultListenAddr          = ":8080"
	DefaultFetchTimeoutSeconds = 8
	DefaultSummaryLength       = 280
	DefaultLimit               = 8
	DefaultMaxLimit            = 20
	DefaultUserAgent           = "auto-briefing/1.0 (+https://github.com/auto-briefing)"
	DefaultTelegramAPIEndpoint = "https://api.telegram.org/bot%s/%s"
)

// Config хранит настройки HTTP-сервера, конвейера лент и реестр источников.
// Нулевые значения заменяются значениями по умолчанию при загрузке.
type Config struct {
	ListenAddr           string          `json:"listen_addr"`
	FetchTimeoutSeconds  int             `json:"fetch_timeout_seconds"`
	SummaryLength        int             `json:"summary_length"`
	DefaultLimit         int             `json:"default_limit"`
	MaxLimit             int             `json:"max_limit"`
	MaxConcurrentFetches int             `json:"max_concurrent_fetches"`
	UserAgent            string          `json:"user_agent"`
	TelegramAPIEndpoint  string          `json:"telegram_api_endpoint"`
	PollInterval         int             `json:"poll_interval"`
	Sources              []models.Source `json:"sources"`
}

// Default возвращает конфигурацию со встроенным реестром источников.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// FetchTimeout — бюджет времени на загрузку одной ленты.
func (cfg *Config) FetchTimeout() time.Duration {
	return time.Duration(cfg.FetchTimeoutSeconds) * time.Second
}

// Validate проверяет числовые ограничения, endpoint Telegram и реестр источников.
func (cfg *Config) Validate() error {
	if cfg.FetchTimeoutSeconds < 1 {
		return errors.New("fetch timeout must be ≥ 1 second")
	}
	if cfg.SummaryLength < 16 {
		return errors.New("summary length must be ≥ 16 characters")
	}
	if cfg.MaxLimit < 1 || cfg.MaxLimit > DefaultMaxLimit {
		return fmt.Errorf("max limit must be within 1..%d", DefaultMaxLimit)
	}
	if cfg.DefaultLimit < 1 || cfg.DefaultLimit > cfg.MaxLimit {
		return errors.New("default limit must be within 1..max_limit")
	}
	if cfg.MaxConcurrentFetches < 0 {
		return errors.New("max concurrent fetches must not be negative")
	}
	if cfg.PollInterval < 0 {
		return errors.New("poll interval must not be negative")
	}
	if strings.Count(cfg.TelegramAPIEndpoint, "%s") != 2 {
		return fmt.Errorf("invalid telegram API endpoint: %s", cfg.TelegramAPIEndpoint)
	}
	if _, err := url.ParseRequestURI(fmt.Sprintf(cfg.TelegramAPIEndpoint, "token", "method")); err != nil {
		return fmt.Errorf("invalid telegram API endpoint: %s", cfg.TelegramAPIEndpoint)
	}
	return sources.Validate(cfg.Sources)
}

// LoadConfig читает JSON-файл по пути path, декодирует его в Config и
// подставляет значения по умолчанию.
func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// LoadOrDefault ведёт себя как LoadConfig, но при отсутствии файла
// возвращает Default.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

func (cfg *Config) applyDefaults() {
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultListenAddr
	}
	if cfg.FetchTimeoutSeconds == 0 {
		cfg.FetchTimeoutSeconds = DefaultFetchTimeoutSeconds
	}
	if cfg.SummaryLength == 0 {
		cfg.SummaryLength = DefaultSummaryLength
	}
	if cfg.MaxLimit == 0 {
		cfg.MaxLimit = DefaultMaxLimit
	}
	if cfg.DefaultLimit == 0 {
		cfg.DefaultLimit = min(DefaultLimit, cfg.MaxLimit)
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.TelegramAPIEndpoint == "" {
		cfg.TelegramAPIEndpoint = DefaultTelegramAPIEndpoint
	}
	if len(cfg.Sources) == 0 {
		cfg.Sources = append([]models.Source(nil), sources.Defaults...)
	}
}

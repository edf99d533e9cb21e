package config

import (
	"errors"
	"fmt"
	"os"

	"studioz/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App          AppConfig         `yaml:"app"`
	Database     DatabaseConfig    `yaml:"database"`
	Redis        RedisConfig       `yaml:"redis"`
	Backup       BackupConfig      `yaml:"backup"`
	Monitoring   MonitoringConfig  `yaml:"monitoring"`
	Logging      LoggingConfig     `yaml:"logging"`
	API          APIConfig         `yaml:"api"`
	Reservations ReservationConfig `yaml:"reservations"`
	Exports      ExportConfig      `yaml:"exports"`
	Telegram     TelegramConfig    `yaml:"telegram"`
	CatalogPath  string            `yaml:"catalog_path"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
	CacheTTL int    `yaml:"cache_ttl_seconds"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type APIConfig struct {
	Enabled   bool               `yaml:"enabled"`
	HTTP      APIHTTPConfig      `yaml:"http"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIHTTPConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

type APIAuthConfig struct {
	Enabled      bool           `yaml:"enabled"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	HeaderExtra  string         `yaml:"header_extra"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key         string   `yaml:"key"`
	Extra       string   `yaml:"extra"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// ReservationConfig tunes the hold and expiry machinery.
type ReservationConfig struct {
	HoldMinutes          int `yaml:"hold_minutes"`
	SweepIntervalSeconds int `yaml:"sweep_interval_seconds"`
	CleanupHour          int `yaml:"cleanup_hour"`
	RetentionDays        int `yaml:"retention_days"`
	MaxBookingDays       int `yaml:"max_booking_days"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

type TelegramConfig struct {
	Enabled      bool   `yaml:"enabled"`
	BotToken     string `yaml:"bot_token"`
	VendorChatID int64  `yaml:"vendor_chat_id"`
	Debug        bool   `yaml:"debug"`
}

func Load(configPath string) (*Config, error) {
	// Загружаем .env файл если существует
	_ = godotenv.Load(".env")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Предварительная замена переменных окружения в YAML
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	if c.Telegram.Enabled && c.Telegram.BotToken == "" {
		return errors.New("telegram bot token is required when telegram alerts are enabled")
	}

	if c.Redis.Enabled && c.Redis.Address == "" {
		return errors.New("redis address is required when redis is enabled")
	}

	if c.Reservations.CleanupHour < 0 || c.Reservations.CleanupHour > 23 {
		return fmt.Errorf("cleanup_hour %d is out of range", c.Reservations.CleanupHour)
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if !c.API.HTTP.Enabled && c.API.Enabled {
		c.API.HTTP.Enabled = true
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.API.Auth.HeaderExtra == "" {
		c.API.Auth.HeaderExtra = "x-api-extra"
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}

	if c.Reservations.HoldMinutes == 0 {
		c.Reservations.HoldMinutes = models.DefaultHoldMinutes
	}
	if c.Reservations.SweepIntervalSeconds == 0 {
		c.Reservations.SweepIntervalSeconds = models.DefaultSweepIntervalSeconds
	}
	if c.Reservations.CleanupHour == 0 {
		c.Reservations.CleanupHour = models.DefaultCleanupHour
	}
	if c.Reservations.RetentionDays == 0 {
		c.Reservations.RetentionDays = models.DefaultRetentionDays
	}
	if c.Reservations.MaxBookingDays == 0 {
		c.Reservations.MaxBookingDays = 365
	}

	if c.Redis.CacheTTL == 0 {
		c.Redis.CacheTTL = models.DefaultCacheTTL
	}
	if c.Redis.PoolSize == 0 {
		c.Redis.PoolSize = 10
	}

	if c.Exports.Path == "" {
		c.Exports.Path = "./exports"
	}
	if c.CatalogPath == "" {
		c.CatalogPath = "configs/studios.yaml"
	}
}

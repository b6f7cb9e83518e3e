package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	StorageInMemory = "in-memory"
	StorageSQL      = "sql"
)

// Config - настройки сервиса (qa-forum.yaml).
type Config struct {
	Server struct {
		Addr            string        `yaml:"addr"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Storage struct {
		// Type: in-memory или sql
		Type string `yaml:"type"`
		// SeedMockData заполняет in-memory хранилище тестовыми данными
		SeedMockData bool `yaml:"seed_mock_data"`
	} `yaml:"storage"`

	Database struct {
		Driver            string        `yaml:"driver"`
		URL               string        `yaml:"url"`
		MaxOpenConns      int           `yaml:"max_open_conns"`
		MaxIdleConns      int           `yaml:"max_idle_conns"`
		ConnMaxLifetime   time.Duration `yaml:"conn_max_lifetime"`
		ConnectRetries    int           `yaml:"connect_retries"`
		ConnectRetryDelay time.Duration `yaml:"connect_retry_delay"`
		AutoMigrate       bool          `yaml:"auto_migrate"`
	} `yaml:"database"`

	AI struct {
		URL     string        `yaml:"url"`
		APIKey  string        `yaml:"api_key"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"ai"`

	Auth struct {
		JWTSecret         string        `yaml:"jwt_secret"`
		TokenTTL          time.Duration `yaml:"token_ttl"`
		AllowClientUserID bool          `yaml:"allow_client_user_id"`
	} `yaml:"auth"`

	Live struct {
		SubscriberBuffer int `yaml:"subscriber_buffer"`
	} `yaml:"live"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Default возвращает конфигурацию по умолчанию.
func Default() *Config {
	cfg := &Config{}
	cfg.Server.Addr = ":3000"
	cfg.Server.ShutdownTimeout = 10 * time.Second
	cfg.Storage.Type = StorageInMemory
	cfg.Storage.SeedMockData = true
	cfg.Database.Driver = "postgres"
	cfg.Database.MaxOpenConns = 10
	cfg.Database.MaxIdleConns = 5
	cfg.Database.ConnMaxLifetime = 30 * time.Minute
	cfg.Database.ConnectRetries = 10
	cfg.Database.ConnectRetryDelay = 3 * time.Second
	cfg.AI.Timeout = 30 * time.Second
	cfg.Auth.TokenTTL = 24 * time.Hour
	cfg.Live.SubscriberBuffer = 16
	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	return cfg
}

// Path возвращает путь к файлу конфигурации: QA_CONFIG или qa-forum.yaml, если он есть.
func Path() string {
	if path := os.Getenv("QA_CONFIG"); path != "" {
		return path
	}
	for _, loc := range []string{"qa-forum.yaml", "qa-forum.yml"} {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}
	return ""
}

// Load читает YAML (если path не пустой), затем .env и переменные окружения.
// Переменные окружения имеют приоритет над файлом.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// .env не обязателен
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Addr = ":" + v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
		cfg.Storage.Type = StorageSQL
	}
	if v := os.Getenv("DB_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("AI_URL"); v != "" {
		cfg.AI.URL = v
	}
	if v := os.Getenv("AI_API_KEY"); v != "" {
		cfg.AI.APIKey = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

// Validate проверяет согласованность настроек.
func (c *Config) Validate() error {
	switch c.Storage.Type {
	case StorageInMemory:
	case StorageSQL:
		if c.Database.URL == "" {
			return errors.New("database.url (DATABASE_URL) must be set for sql storage")
		}
		switch c.Database.Driver {
		case "postgres", "mysql":
		default:
			return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
		}
	default:
		return fmt.Errorf("unknown storage type %q", c.Storage.Type)
	}

	if c.Auth.JWTSecret == "" && !c.Auth.AllowClientUserID {
		return errors.New("auth.jwt_secret (JWT_SECRET) must be set unless auth.allow_client_user_id is enabled")
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Provider struct {
		Name         string        `yaml:"name"`
		BaseURL      string        `yaml:"base_url"`
		APIKey       string        `yaml:"api_key"`
		WebSocketURL string        `yaml:"websocket_url"`
		Symbols      []string      `yaml:"symbols"`
		RateLimit    float64       `yaml:"rate_limit"` // requests per second
		RateBurst    int           `yaml:"rate_burst"`
		Timeout      time.Duration `yaml:"timeout"`
		CacheTTL     time.Duration `yaml:"cache_ttl"`

		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
	} `yaml:"provider"`
	Forecast struct {
		DefaultModel    string        `yaml:"default_model"`
		DefaultHorizon  int           `yaml:"default_horizon"`
		DefaultPeriod   string        `yaml:"default_period"`
		TrendLookback   int           `yaml:"trend_lookback"`
		EnsembleMembers []string      `yaml:"ensemble_members"`
		RetrainInterval time.Duration `yaml:"retrain_interval"`
		RetrainWorkers  int           `yaml:"retrain_workers"`
	} `yaml:"forecast"`
	Kafka struct {
		Brokers       []string `yaml:"brokers"`
		TicksTopic    string   `yaml:"ticks_topic"`
		ForecastTopic string   `yaml:"forecast_topic"`
		RequiredAcks  int      `yaml:"required_acks"`
		Compression   string   `yaml:"compression"`
		Producer      struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			Enabled    bool          `yaml:"enabled"`
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("PROVIDER_API_KEY"); v != "" {
		c.Provider.APIKey = v
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Provider.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Redis.Host = v
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Forecast.DefaultModel == "" {
		c.Forecast.DefaultModel = "ensemble"
	}
	if c.Forecast.DefaultHorizon <= 0 {
		c.Forecast.DefaultHorizon = 30
	}
	if c.Forecast.DefaultPeriod == "" {
		c.Forecast.DefaultPeriod = "1y"
	}
	if c.Forecast.TrendLookback <= 0 {
		c.Forecast.TrendLookback = 30
	}
	if len(c.Forecast.EnsembleMembers) == 0 {
		c.Forecast.EnsembleMembers = []string{"lstm", "arima"}
	}
	if c.Forecast.RetrainWorkers <= 0 {
		c.Forecast.RetrainWorkers = 2
	}
	if c.Provider.RateLimit <= 0 {
		c.Provider.RateLimit = 2
	}
	if c.Provider.RateBurst <= 0 {
		c.Provider.RateBurst = 5
	}
	if c.Provider.CacheTTL <= 0 {
		c.Provider.CacheTTL = 5 * time.Minute
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Provider.BaseURL == "" && c.Provider.WebSocketURL == "" {
		return fmt.Errorf("provider.base_url or provider.websocket_url is required")
	}
	if len(c.Provider.Symbols) == 0 {
		return fmt.Errorf("provider.symbols cannot be empty")
	}
	if c.Forecast.DefaultHorizon > 365 {
		return fmt.Errorf("forecast.default_horizon must be <= 365, got %d", c.Forecast.DefaultHorizon)
	}
	return nil
}

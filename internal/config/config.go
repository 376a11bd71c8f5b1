package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Environment string `toml:"-"`
	Host        string `toml:"host"`
	Port        int    `toml:"port"`

	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`

	// metrics
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`

	// redis
	RedisHost string `toml:"redis_host"`
	RedisPort string `toml:"redis_port"`

	// postgres
	PostgresHost   string `toml:"postgres_host"`
	PostgresPort   string `toml:"postgres_port"`
	PostgresUser   string `toml:"postgres_user"`
	PostgresDBName string `toml:"postgres_db_name"`

	RateLimitPerMin int `toml:"rate_limit_per_min"`

	GenAI     GenAI     `toml:"genai"`
	Retrieval Retrieval `toml:"retrieval"`
	Video     Video     `toml:"video"`
	Features  Features  `toml:"features"`
}

type GenAI struct {
	BaseURL        string   `toml:"base_url"`
	Model          string   `toml:"model"`
	EmbeddingModel string   `toml:"embedding_model"`
	Temperature    float64  `toml:"temperature"`
	Timeout        Duration `toml:"timeout"`
	MaxRetries     int      `toml:"max_retries"`
	CacheTTL       Duration `toml:"cache_ttl"`
	EmbedPerSecond float64  `toml:"embed_per_second"`
}

type Retrieval struct {
	WorkoutCsvPath string  `toml:"workout_csv_path"`
	DietCsvPath    string  `toml:"diet_csv_path"`
	ScoreThreshold float64 `toml:"score_threshold"`
	TopK           int     `toml:"top_k"`
}

type Video struct {
	Endpoint string   `toml:"endpoint"`
	CacheTTL Duration `toml:"cache_ttl"`
}

// Features toggles the optional parts of the service.
type Features struct {
	Retrieval       bool `toml:"retrieval"`
	VideoSearch     bool `toml:"video_search"`
	PersistInsights bool `toml:"persist_insights"`
}

// Duration lets durations be written as strings ("30s", "1h") in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

type Toml struct {
	Development *Config
	Production  *Config
	DockerDev   *Config `toml:"dockerdev"`
}

func (t *Toml) Get(env string) (*Config, error) {
	var cfg *Config
	switch strings.ToLower(env) {
	case "dev", "development":
		cfg = t.Development
	case "prod", "production":
		cfg = t.Production
	case "ddev", "dockerdev":
		cfg = t.DockerDev
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
	if cfg == nil {
		return nil, fmt.Errorf("config section for env [%s] missing", env)
	}
	return cfg, nil
}

func Load(env, configPath string) (*Config, error) {
	configBytes, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(env, string(configBytes))
}

func Parse(env, tomlData string) (*Config, error) {
	var t Toml
	if _, err := toml.Decode(tomlData, &t); err != nil {
		return nil, fmt.Errorf("decode toml config: %w", err)
	}

	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}
	cfg.Environment = strings.ToLower(env)
	cfg.setDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c *Config) setDefaults() {
	if c.GenAI.Temperature == 0 {
		c.GenAI.Temperature = 0.7
	}
	if c.GenAI.Timeout.Duration == 0 {
		c.GenAI.Timeout.Duration = 30 * time.Second
	}
	if c.GenAI.EmbedPerSecond == 0 {
		c.GenAI.EmbedPerSecond = 5
	}
	if c.Retrieval.ScoreThreshold == 0 {
		c.Retrieval.ScoreThreshold = 0.7
	}
	if c.Retrieval.TopK == 0 {
		c.Retrieval.TopK = 4
	}
	if c.RateLimitPerMin == 0 {
		c.RateLimitPerMin = 30
	}
	if c.PostgresUser == "" {
		c.PostgresUser = "postgres"
	}
}

func (c *Config) validate() error {
	if c.Port <= 0 {
		return errors.New("port must be set")
	}
	if c.GenAI.BaseURL == "" || c.GenAI.Model == "" {
		return errors.New("genai base_url and model must be set")
	}
	if c.Features.Retrieval {
		if c.GenAI.EmbeddingModel == "" {
			return errors.New("genai embedding_model must be set when retrieval is enabled")
		}
		if c.Retrieval.WorkoutCsvPath == "" || c.Retrieval.DietCsvPath == "" {
			return errors.New("retrieval csv paths must be set when retrieval is enabled")
		}
	}
	if c.Features.PersistInsights && (c.PostgresHost == "" || c.PostgresDBName == "") {
		return errors.New("postgres host and db name must be set when persist_insights is enabled")
	}
	if c.Retrieval.TopK < 1 {
		return fmt.Errorf("retrieval top_k must be positive, got %d", c.Retrieval.TopK)
	}
	if c.GenAI.MaxRetries < 0 {
		return fmt.Errorf("genai max_retries must not be negative, got %d", c.GenAI.MaxRetries)
	}
	if c.Retrieval.ScoreThreshold < 0 || c.Retrieval.ScoreThreshold > 1 {
		return fmt.Errorf("retrieval score threshold must be in [0, 1], got %v", c.Retrieval.ScoreThreshold)
	}
	return nil
}

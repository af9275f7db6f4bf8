package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/errors"
)

// DefaultPath is read when no config file is named explicitly. It is
// optional.
const DefaultPath = "configs/config.yaml"

// EnvPrefix marks environment overrides. A double underscore separates
// nested keys: FRAUD_INTEL__RATE_LIMIT sets intel.rate_limit.
const EnvPrefix = "FRAUD_"

// Feedback backends.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

type Config struct {
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
	LogLevel    string `koanf:"log_level"`

	Policy    PolicyConfig    `koanf:"policy"`
	Feedback  FeedbackConfig  `koanf:"feedback"`
	Database  DatabaseConfig  `koanf:"database"`
	Redis     RedisConfig     `koanf:"redis"`
	Model     ModelConfig     `koanf:"model"`
	Training  TrainingConfig  `koanf:"training"`
	Intel     IntelConfig     `koanf:"intel"`
	Batch     BatchConfig     `koanf:"batch"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Metrics   MetricsConfig   `koanf:"metrics"`
}

type PolicyConfig struct {
	// Path to a JSON or YAML policy file. Empty selects the built-in policy.
	Path string `koanf:"path"`
}

type FeedbackConfig struct {
	Backend string `koanf:"backend"`
	Path    string `koanf:"path"`
}

type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxConns        int32         `koanf:"max_conns"`
	MinConns        int32         `koanf:"min_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
}

type RedisConfig struct {
	// URL is host:port or redis://... Empty disables the intel cache.
	URL          string        `koanf:"url"`
	Password     string        `koanf:"password"`
	DB           int           `koanf:"db"`
	PoolSize     int           `koanf:"pool_size"`
	MinIdleConns int           `koanf:"min_idle_conns"`
	MaxRetries   int           `koanf:"max_retries"`
	DialTimeout  time.Duration `koanf:"dial_timeout"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
}

type ModelConfig struct {
	Dir     string `koanf:"dir"`
	Enabled bool   `koanf:"enabled"`
}

type TrainingConfig struct {
	MinRecords      int     `koanf:"min_records"`
	MinClassRecords int     `koanf:"min_class_records"`
	MinClassRatio   float64 `koanf:"min_class_ratio"`
	MinNewRecords   int     `koanf:"min_new_records"`
	Epochs          int     `koanf:"epochs"`
	LearningRate    float64 `koanf:"learning_rate"`
	L2              float64 `koanf:"l2"`
	Tolerance       float64 `koanf:"tolerance"`
}

type IntelConfig struct {
	Enabled          bool          `koanf:"enabled"`
	Timeout          time.Duration `koanf:"timeout"`
	RateLimit        float64       `koanf:"rate_limit"`
	Burst            int           `koanf:"burst"`
	MaxURLs          int           `koanf:"max_urls"`
	MaxBodyBytes     int64         `koanf:"max_body_bytes"`
	UserAgent        string        `koanf:"user_agent"`
	CacheTTL         time.Duration `koanf:"cache_ttl"`
	FailureThreshold int           `koanf:"failure_threshold"`
	ResetTimeout     time.Duration `koanf:"reset_timeout"`
	// RDAPURL is the registration data service queried for WHOIS state.
	// Empty skips WHOIS lookups.
	RDAPURL string `koanf:"rdap_url"`
}

type BatchConfig struct {
	Workers int `koanf:"workers"`
}

type TelemetryConfig struct {
	Enabled      bool    `koanf:"enabled"`
	ServiceName  string  `koanf:"service_name"`
	OTLPEndpoint string  `koanf:"otlp_endpoint"`
	SamplingRate float64 `koanf:"sampling_rate"`
}

type MetricsConfig struct {
	// Addr serves /metrics when set, e.g. ":9090".
	Addr string `koanf:"addr"`
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		Version:     "dev",
		Environment: "development",
		LogLevel:    "info",
		Feedback: FeedbackConfig{
			Backend: BackendFile,
			Path:    "data/feedback.jsonl",
		},
		Database: DatabaseConfig{
			MaxConns:        10,
			MinConns:        1,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Redis: RedisConfig{
			DB:           0,
			PoolSize:     10,
			MinIdleConns: 1,
			MaxRetries:   3,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Model: ModelConfig{
			Dir:     "data/models",
			Enabled: true,
		},
		Training: TrainingConfig{
			MinRecords:      20,
			MinClassRecords: 5,
			MinClassRatio:   0.1,
			MinNewRecords:   25,
			Epochs:          500,
			LearningRate:    0.5,
			L2:              0.001,
			Tolerance:       1e-7,
		},
		Intel: IntelConfig{
			Enabled:          false,
			Timeout:          8 * time.Second,
			RateLimit:        5,
			Burst:            10,
			MaxURLs:          3,
			MaxBodyBytes:     512 << 10,
			UserAgent:        "fraud-agent/1.0 (+account-review)",
			CacheTTL:         6 * time.Hour,
			FailureThreshold: 5,
			ResetTimeout:     30 * time.Second,
			RDAPURL:          "https://rdap.org",
		},
		Batch: BatchConfig{
			Workers: 4,
		},
		Telemetry: TelemetryConfig{
			ServiceName:  "fraud-agent",
			OTLPEndpoint: "localhost:4317",
			SamplingRate: 1.0,
		},
	}
}

// Load reads defaults, then the YAML file at path (or DefaultPath when
// path is empty), then FRAUD_ environment overrides. An explicitly named
// file must exist.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.NewConfigurationError("CONFIG_MALFORMED",
				fmt.Sprintf("config file %s could not be parsed", path)).WithCause(err)
		}
	} else if explicit {
		return nil, errors.NewConfigurationError("CONFIG_NOT_FOUND",
			fmt.Sprintf("config file %s does not exist", path)).WithCause(err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.NewConfigurationError("CONFIG_MALFORMED", "config could not be decoded").WithCause(err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.Feedback.Backend {
	case BackendFile:
		if strings.TrimSpace(c.Feedback.Path) == "" {
			return invalid("feedback.path", "feedback.path is required for the file backend")
		}
	case BackendPostgres:
		if strings.TrimSpace(c.Database.URL) == "" {
			return invalid("database.url", "database.url is required for the postgres backend")
		}
	default:
		return invalid("feedback.backend", fmt.Sprintf("unknown feedback backend %q", c.Feedback.Backend))
	}

	if c.Batch.Workers < 1 {
		return invalid("batch.workers", "batch.workers must be at least 1")
	}
	if c.Training.MinRecords < 1 || c.Training.MinClassRecords < 1 {
		return invalid("training.min_records", "training minimums must be at least 1")
	}
	if c.Training.MinClassRatio < 0 || c.Training.MinClassRatio > 0.5 {
		return invalid("training.min_class_ratio", "training.min_class_ratio must be within [0, 0.5]")
	}
	if c.Training.Epochs < 1 || c.Training.LearningRate <= 0 || c.Training.L2 < 0 {
		return invalid("training.epochs", "training.epochs and training.learning_rate must be positive")
	}
	if c.Intel.Enabled {
		if c.Intel.Timeout <= 0 {
			return invalid("intel.timeout", "intel.timeout must be positive")
		}
		if c.Intel.RateLimit <= 0 || c.Intel.Burst < 1 {
			return invalid("intel.rate_limit", "intel.rate_limit and intel.burst must be positive")
		}
	}
	if c.Telemetry.SamplingRate < 0 || c.Telemetry.SamplingRate > 1 {
		return invalid("telemetry.sampling_rate", "telemetry.sampling_rate must be within [0, 1]")
	}
	return nil
}

func invalid(field, msg string) error {
	return errors.NewConfigurationError("INVALID_CONFIG", msg).
		WithDetails(map[string]interface{}{"field": field})
}

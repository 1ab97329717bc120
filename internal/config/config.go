package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type StorageBackend string

const (
	StorageFile      StorageBackend = "file"
	StorageFirestore StorageBackend = "firestore"
	StorageMemory    StorageBackend = "memory"
)

type Config struct {
	Port      string `mapstructure:"port"`
	LogLevel  string `mapstructure:"log_level"`
	StaticDir string `mapstructure:"static_dir"`

	// Completion API
	LLMBackend      string        `mapstructure:"llm_backend"` // "gemini" or "vertex"
	GeminiAPIKey    string        `mapstructure:"gemini_api_key"`
	ModelName       string        `mapstructure:"model_name"`
	GCPProjectID    string        `mapstructure:"gcp_project"`
	GCPLocation     string        `mapstructure:"gcp_location"`
	UseMockLLM      bool          `mapstructure:"use_mock_llm"`
	UpstreamTimeout time.Duration `mapstructure:"upstream_timeout"`

	// Storage
	StorageBackend      StorageBackend `mapstructure:"storage_backend"`
	HistoryDir          string         `mapstructure:"history_dir"`
	FirestoreCollection string         `mapstructure:"firestore_collection"`

	// Per-session serialization of conversation turns.
	SerializeTurns bool `mapstructure:"serialize_turns"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "3000")
	v.SetDefault("log_level", "info")
	v.SetDefault("static_dir", "public")

	v.SetDefault("llm_backend", "gemini")
	v.SetDefault("gemini_api_key", "")
	v.SetDefault("model_name", "gemini-2.0-flash")
	v.SetDefault("gcp_project", "")
	v.SetDefault("gcp_location", "us-central1")
	v.SetDefault("use_mock_llm", false)
	v.SetDefault("upstream_timeout", time.Duration(0))

	v.SetDefault("storage_backend", string(StorageFile))
	v.SetDefault("history_dir", "chat_history")
	v.SetDefault("firestore_collection", "sessions")

	v.SetDefault("serialize_turns", true)
}

// Load builds the config from, in increasing priority: defaults, an optional
// .env file in the working directory, the file named by SWEEP_CONFIG, and
// SWEEP_* environment variables. GEMINI_API_KEY and PORT are also honored
// without the prefix.
func Load() (*Config, error) {
	return load(".env", os.Getenv("SWEEP_CONFIG"))
}

func load(dotenvPath, configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if dotenvPath != "" {
		if err := mergeFile(v, dotenvPath, "env"); err != nil {
			return nil, err
		}
	}
	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			return nil, fmt.Errorf("config file %s: %w", configPath, err)
		}
		if err := mergeFile(v, configPath, ""); err != nil {
			return nil, err
		}
	}

	v.SetEnvPrefix("SWEEP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// unprefixed names kept for parity with plain .env setups
	if err := v.BindEnv("gemini_api_key", "SWEEP_GEMINI_API_KEY", "GEMINI_API_KEY"); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}
	if err := v.BindEnv("port", "SWEEP_PORT", "PORT"); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeFile merges a config file if it exists. An empty configType is taken
// from the file extension.
func mergeFile(v *viper.Viper, path, configType string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	if configType == "" {
		configType = strings.TrimPrefix(filepath.Ext(path), ".")
	}

	v.SetConfigFile(path)
	v.SetConfigType(configType)
	if err := v.MergeInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.Port == "" {
		errs = append(errs, errors.New("port must be set"))
	}

	switch c.StorageBackend {
	case StorageFile:
		if c.HistoryDir == "" {
			errs = append(errs, errors.New("history_dir must be set for the file storage backend"))
		}
	case StorageFirestore:
		if c.GCPProjectID == "" {
			errs = append(errs, errors.New("gcp_project must be set for the firestore storage backend"))
		}
	case StorageMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown storage_backend %q", c.StorageBackend))
	}

	if !c.UseMockLLM {
		switch c.LLMBackend {
		case "gemini":
			if c.GeminiAPIKey == "" {
				errs = append(errs, errors.New("GEMINI_API_KEY must be set (or SWEEP_USE_MOCK_LLM=true)"))
			}
		case "vertex":
			if c.GCPProjectID == "" || c.GCPLocation == "" {
				errs = append(errs, errors.New("gcp_project and gcp_location must be set for the vertex backend"))
			}
		default:
			errs = append(errs, fmt.Errorf("unknown llm_backend %q", c.LLMBackend))
		}
	}

	if c.UpstreamTimeout < 0 {
		errs = append(errs, errors.New("upstream_timeout must not be negative"))
	}

	return errors.Join(errs...)
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

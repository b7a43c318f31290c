package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the full service configuration.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	LLM    LLMConfig    `mapstructure:"llm"`
	Agent  AgentConfig  `mapstructure:"agent"`
	Memory MemoryConfig `mapstructure:"memory"`
	Log    LogConfig    `mapstructure:"log"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr           string   `mapstructure:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	Debug          bool     `mapstructure:"debug"`
}

// LLMConfig configures the completion service client.
type LLMConfig struct {
	Model          string `mapstructure:"model"`
	APIKey         string `mapstructure:"api_key"`
	BaseURL        string `mapstructure:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	MaxRetries     int    `mapstructure:"max_retries"`
	MaxTokens      int    `mapstructure:"max_tokens"`
}

// Timeout returns the per-call completion timeout.
func (c LLMConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// AgentConfig bounds the planning loop.
type AgentConfig struct {
	PlannerMaxIterations int `mapstructure:"planner_max_iterations"`
	LoopMaxIterations    int `mapstructure:"loop_max_iterations"`
	MemoryRecallLimit    int `mapstructure:"memory_recall_limit"`
}

// MemoryConfig configures conversation persistence and retention.
type MemoryConfig struct {
	DBPath        string `mapstructure:"db_path"`
	MaxPerUser    int    `mapstructure:"max_per_user"`
	RetentionDays int    `mapstructure:"retention_days"`
}

// LogConfig configures logging output.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from an optional YAML file and TALON_* environment
// variables. Environment values override file values.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.debug", false)
	v.SetDefault("llm.model", "claude-3-5-sonnet-20241022")
	// Unmarshal only sees keys viper knows about; the empty default makes
	// TALON_LLM_API_KEY visible without putting a secret in any file.
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "https://api.anthropic.com/v1")
	v.SetDefault("llm.timeout_seconds", 60)
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.max_tokens", 4096)
	v.SetDefault("agent.planner_max_iterations", 5)
	v.SetDefault("agent.loop_max_iterations", 10)
	v.SetDefault("agent.memory_recall_limit", 3)
	v.SetDefault("memory.db_path", "talon.db")
	v.SetDefault("memory.max_per_user", 10)
	v.SetDefault("memory.retention_days", 7)
	v.SetDefault("log.level", "info")

	v.SetEnvPrefix("TALON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Agent.PlannerMaxIterations <= 0 {
		return fmt.Errorf("agent.planner_max_iterations must be positive, got %d", c.Agent.PlannerMaxIterations)
	}
	if c.Agent.LoopMaxIterations <= 0 {
		return fmt.Errorf("agent.loop_max_iterations must be positive, got %d", c.Agent.LoopMaxIterations)
	}
	if c.Memory.MaxPerUser < 0 || c.Memory.RetentionDays < 0 {
		return fmt.Errorf("memory retention settings must be non-negative")
	}
	return nil
}

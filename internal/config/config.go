// Package config loads the worker configuration from a YAML file with
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Worker   WorkerConfig   `mapstructure:"worker"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Agent    AgentConfig    `mapstructure:"agent"`
	Judge    JudgeConfig    `mapstructure:"judge"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

type WorkerConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Addr string `mapstructure:"addr"`
}

type AgentConfig struct {
	EndpointURL string        `mapstructure:"endpoint_url"`
	KBSearchURL string        `mapstructure:"kb_search_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type JudgeConfig struct {
	Strictness  string  `mapstructure:"strictness"`
	CombineRule string  `mapstructure:"combine_rule"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

type LLMConfig struct {
	Provider          string        `mapstructure:"provider"`
	APIKey            string        `mapstructure:"api_key"`
	Model             string        `mapstructure:"model"`
	BaseURL           string        `mapstructure:"base_url"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	Timeout           time.Duration `mapstructure:"timeout"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// Load reads config.yaml from path, environment variables taking
// precedence. A missing file is fine: defaults plus environment cover
// a full deployment.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("ARENA")
	v.AutomaticEnv()

	v.SetDefault("worker.concurrency", 5)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("agent.timeout", 60*time.Second)
	v.SetDefault("agent.kb_search_url", "http://localhost:8006/api/kb")
	v.SetDefault("judge.strictness", "fair")
	v.SetDefault("judge.combine_rule", "best")
	v.SetDefault("judge.temperature", 0.1)
	v.SetDefault("judge.max_tokens", 512)
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.requests_per_second", 5)
	v.SetDefault("llm.burst", 10)
	v.SetDefault("llm.timeout", 30*time.Second)
	v.SetDefault("metrics.addr", ":9090")

	v.BindEnv("database.dsn", "DATABASE_URL")
	v.BindEnv("redis.addr", "REDIS_ADDR")
	v.BindEnv("agent.endpoint_url", "AGENT_ENDPOINT_URL")
	v.BindEnv("agent.kb_search_url", "KB_SEARCH_URL")
	v.BindEnv("llm.provider", "LLM_PROVIDER")
	v.BindEnv("llm.api_key", "LLM_API_KEY")
	v.BindEnv("llm.model", "LLM_MODEL")
	v.BindEnv("judge.strictness", "JUDGE_STRICTNESS")
	v.BindEnv("judge.combine_rule", "JUDGE_COMBINE_RULE")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config aggregates everything read from the environment. The agent roster
// and router tunables live in config.yaml (see loader.go).
type Config struct {
	Log   LogConfig
	Model ModelConfig
	Redis RedisConfig
	Slack SlackConfig
}

type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Format string `envconfig:"LOG_FORMAT" default:"console"`
	Output string `envconfig:"LOG_OUTPUT" default:"stdout"`
}

// ModelConfig selects and configures the generation provider.
type ModelConfig struct {
	Provider    string        `envconfig:"MODEL_PROVIDER" default:"openai"`
	Model       string        `envconfig:"MODEL_NAME" default:"openai/gpt-3.5-turbo"`
	APIKey      string        `envconfig:"MODEL_API_KEY"`
	BaseURL     string        `envconfig:"MODEL_BASE_URL" default:"https://openrouter.ai/api/v1"`
	MaxTokens   int           `envconfig:"MODEL_MAX_TOKENS" default:"1500"`
	Temperature float64       `envconfig:"MODEL_TEMPERATURE" default:"0.1"`
	Timeout     time.Duration `envconfig:"MODEL_TIMEOUT" default:"30s"`
}

type RedisConfig struct {
	URL string `envconfig:"REDIS_URL"`
}

type SlackConfig struct {
	BotToken      string `envconfig:"SLACK_BOT_TOKEN"`
	AppToken      string `envconfig:"SLACK_APP_TOKEN"`
	SigningSecret string `envconfig:"SLACK_SIGNING_SECRET"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return nil, fmt.Errorf("error processing environment configuration: %w", err)
	}
	return &config, nil
}

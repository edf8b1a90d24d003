package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// YAMLConfig represents the structure of config.yaml: the agent roster,
// router tunables, and the Slack bot allowlist.
type YAMLConfig struct {
	Agents []AgentEntry `yaml:"agents"`
	Router struct {
		MaxTurns         int    `yaml:"max_turns"`
		SessionCacheSize int64  `yaml:"session_cache_size"`
		FallbackReply    string `yaml:"fallback_reply"`
		AutoApprove      bool   `yaml:"auto_approve"`
	} `yaml:"router"`
	Slack struct {
		AllowedBotIDs []string `yaml:"allowed_bot_ids"`
	} `yaml:"slack"`
}

// AgentEntry overrides or extends the built-in agent roster.
type AgentEntry struct {
	Name         string `yaml:"name"`
	Description  string `yaml:"description"`
	Instructions string `yaml:"instructions"`
}

// LoadYAML loads the roster configuration from config.yaml.
func LoadYAML(filepath string) (*YAMLConfig, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config YAMLConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing YAML: %w", err)
	}

	if config.Router.MaxTurns <= 0 {
		config.Router.MaxTurns = 10
	}
	if config.Router.SessionCacheSize <= 0 {
		config.Router.SessionCacheSize = 1024
	}

	return &config, nil
}

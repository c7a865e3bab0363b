package config

import (
	"github.com/spf13/viper"
)

type LLMConfig struct {
	APIKey               string  `mapstructure:"api_key"`
	MaxRequestsPerMinute float32 `mapstructure:"max_requests_per_minute"`
	MaxRequestsPerDay    float32 `mapstructure:"max_requests_per_day"`
}

func (config LLMConfig) bindEnvironmentVariables() error {
	return viper.BindEnv("llm.api_key", "LLM_API_KEY")
}

package config

import (
	"sync"
	"time"
)

var (
	openAIOnce   sync.Once
	openAIConfig *OpenAIConfig
)

type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	MaxChars    int
	Timeout     time.Duration
	RateLimit   float64
	Burst       int
}

// GetOpenAIConfig also serves OpenAI compatible endpoints such as a
// local Ollama through OPENAI_BASE_URL.
func GetOpenAIConfig() *OpenAIConfig {
	openAIOnce.Do(func() {
		loadEnv()
		openAIConfig = &OpenAIConfig{
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			BaseURL:     getEnv("OPENAI_BASE_URL", ""),
			Model:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			Temperature: float32(getEnvAsFloat("OPENAI_TEMPERATURE", 0)),
			MaxTokens:   getEnvAsInt("OPENAI_MAX_TOKENS", 300),
			MaxChars:    getEnvAsInt("OPENAI_MAX_CHARS", 12000),
			Timeout:     getEnvAsDuration("OPENAI_TIMEOUT", 30*time.Second),
			RateLimit:   getEnvAsFloat("OPENAI_RPS", 2),
			Burst:       getEnvAsInt("OPENAI_BURST", 2),
		}
	})
	return openAIConfig
}

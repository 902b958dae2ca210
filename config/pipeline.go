package config

import (
	"sync"
	"time"
)

var (
	pipelineOnce   sync.Once
	pipelineConfig *PipelineConfig
)

type PipelineConfig struct {
	ServerAddr       string
	StorageBackend   string
	ElementsFile     string
	TesseractLangs   []string
	EnableComprehend bool
	EnableSentiment  bool
	EnableOpenAI     bool
	EnableTFN        bool
	StageTimeout     time.Duration
	PatternCacheTTL  time.Duration
	LogLevel         string
	LogEncoding      string
	LogFile          string
	AllowedOrigins   []string
}

func GetPipelineConfig() *PipelineConfig {
	pipelineOnce.Do(func() {
		loadEnv()
		pipelineConfig = &PipelineConfig{
			ServerAddr:       getEnv("SERVER_ADDR", ":8080"),
			StorageBackend:   getEnv("STORAGE_BACKEND", "minio"),
			ElementsFile:     getEnv("ELEMENTS_FILE", ""),
			TesseractLangs:   getEnvAsList("TESSERACT_LANGS", []string{"eng"}),
			EnableComprehend: getEnvAsBool("ENABLE_COMPREHEND", true),
			EnableSentiment:  getEnvAsBool("ENABLE_SENTIMENT", true),
			EnableOpenAI:     getEnvAsBool("ENABLE_OPENAI", true),
			EnableTFN:        getEnvAsBool("ENABLE_TFN", true),
			StageTimeout:     getEnvAsDuration("STAGE_TIMEOUT", 60*time.Second),
			PatternCacheTTL:  getEnvAsDuration("PATTERN_CACHE_TTL", 30*time.Minute),
			LogLevel:         getEnv("LOG_LEVEL", "info"),
			LogEncoding:      getEnv("LOG_ENCODING", "json"),
			LogFile:          getEnv("LOG_FILE", ""),
			AllowedOrigins:   getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		}
	})
	return pipelineConfig
}

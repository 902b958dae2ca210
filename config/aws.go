package config

import (
	"sync"
)

var (
	textractOnce   sync.Once
	textractConfig *TextractConfig

	comprehendOnce   sync.Once
	comprehendConfig *ComprehendConfig

	s3Once   sync.Once
	s3Config *S3Config
)

type TextractConfig struct {
	Region        string
	AccessKey     string
	SecretKey     string
	MinConfidence float64
	MaxImageBytes int
	MaxImageSide  int
}

type ComprehendConfig struct {
	Region       string
	AccessKey    string
	SecretKey    string
	LanguageCode string
	RateLimit    float64
	Burst        int
}

type S3Config struct {
	BucketName string
	Region     string
	Endpoint   string
	AccessKey  string
	SecretKey  string
}

func GetTextractConfig() *TextractConfig {
	textractOnce.Do(func() {
		loadEnv()
		textractConfig = &TextractConfig{
			Region:        getEnv("AWS_REGION", "us-east-1"),
			AccessKey:     getEnv("AWS_ACCESS_KEY", ""),
			SecretKey:     getEnv("AWS_SECRET_KEY", ""),
			MinConfidence: getEnvAsFloat("TEXTRACT_MIN_CONFIDENCE", 0),
			MaxImageBytes: getEnvAsInt("TEXTRACT_MAX_IMAGE_BYTES", 5*1024*1024),
			MaxImageSide:  getEnvAsInt("TEXTRACT_MAX_IMAGE_SIDE", 10000),
		}
	})
	return textractConfig
}

func GetComprehendConfig() *ComprehendConfig {
	comprehendOnce.Do(func() {
		loadEnv()
		comprehendConfig = &ComprehendConfig{
			Region:       getEnv("COMPREHEND_REGION", getEnv("AWS_REGION", "us-east-1")),
			AccessKey:    getEnv("AWS_ACCESS_KEY", ""),
			SecretKey:    getEnv("AWS_SECRET_KEY", ""),
			LanguageCode: getEnv("COMPREHEND_LANGUAGE", "en"),
			RateLimit:    getEnvAsFloat("COMPREHEND_RPS", 10),
			Burst:        getEnvAsInt("COMPREHEND_BURST", 5),
		}
	})
	return comprehendConfig
}

func GetS3Config() *S3Config {
	s3Once.Do(func() {
		loadEnv()
		s3Config = &S3Config{
			BucketName: getEnv("AWS_S3_BUCKET_NAME", ""),
			Region:     getEnv("AWS_REGION", "us-east-1"),
			Endpoint:   getEnv("AWS_ENDPOINT", ""),
			AccessKey:  getEnv("AWS_ACCESS_KEY", ""),
			SecretKey:  getEnv("AWS_SECRET_KEY", ""),
		}
	})
	return s3Config
}

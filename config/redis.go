package config

import (
	"sync"
	"time"
)

var (
	redisOnce   sync.Once
	redisConfig *RedisConfig
)

type RedisConfig struct {
	Addr           string
	Password       string
	DB             int
	MaxRetries     int
	RetryDelay     time.Duration
	ProcessTimeout time.Duration
	Concurrency    int
	StatusTTL      time.Duration
}

func GetRedisConfig() *RedisConfig {
	redisOnce.Do(func() {
		loadEnv()
		redisConfig = &RedisConfig{
			Addr:           getEnv("REDIS_ADDR", "localhost:6379"),
			Password:       getEnv("REDIS_PASSWORD", ""),
			DB:             getEnvAsInt("REDIS_DB", 0),
			MaxRetries:     getEnvAsInt("QUEUE_MAX_RETRIES", 3),
			RetryDelay:     getEnvAsDuration("QUEUE_RETRY_DELAY", time.Minute),
			ProcessTimeout: getEnvAsDuration("QUEUE_PROCESS_TIMEOUT", 30*time.Minute),
			Concurrency:    getEnvAsInt("WORKER_CONCURRENCY", 10),
			StatusTTL:      getEnvAsDuration("TASK_STATUS_TTL", 24*time.Hour),
		}
	})
	return redisConfig
}

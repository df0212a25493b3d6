package config

import (
	"os"
	"strconv"
)

// RedisConfig Redis 连接配置
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Config 记录处理服务配置
type Config struct {
	Redis RedisConfig

	// 存储配置
	Storage struct {
		// 命名空间（集合键前缀），默认 "privemr"
		Namespace string
	}

	// 管道配置
	Pipeline struct {
		// 单阶段模拟延迟区间（毫秒）
		StageDelayMinMs int
		StageDelayMaxMs int
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load 加载配置
func Load() (*Config, error) {
	cfg := &Config{}

	// 从环境变量加载（默认值）
	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = 0

	cfg.Storage.Namespace = getEnv("STORAGE_NAMESPACE", "privemr")

	cfg.Pipeline.StageDelayMinMs = getEnvInt("PIPELINE_STAGE_DELAY_MIN_MS", 200)
	cfg.Pipeline.StageDelayMaxMs = getEnvInt("PIPELINE_STAGE_DELAY_MAX_MS", 600)

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.Atoi(value); err == nil && v >= 0 {
			return v
		}
	}
	return defaultValue
}

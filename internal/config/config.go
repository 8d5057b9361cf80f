package config

import (
	"os"
	"strconv"
	"time"
)

type AppConfig struct {
	HTTPPort            string
	PostgresDSN         string
	RedisURL            string
	GenerateCron        string        // 生成器触发周期（cron 表达式）
	GenerateConcurrency int           // 单次生成扫描的并行度
	GenerateLockTTL     time.Duration // 生成运行锁的过期时间
}

func Load() AppConfig {
	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "host=localhost port=5432 user=maint dbname=maintenance_hub sslmode=disable"
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}

	genCron := os.Getenv("GENERATE_CRON")
	if genCron == "" {
		genCron = "@hourly"
	}

	concurrency := 4
	if v := os.Getenv("GENERATE_CONCURRENCY"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			concurrency = parsed
		}
	}

	lockTTL := 2 * time.Minute
	if v := os.Getenv("GENERATE_LOCK_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			lockTTL = d
		}
	}

	return AppConfig{
		HTTPPort:            port,
		PostgresDSN:         dsn,
		RedisURL:            redisURL,
		GenerateCron:        genCron,
		GenerateConcurrency: concurrency,
		GenerateLockTTL:     lockTTL,
	}
}

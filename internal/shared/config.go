package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string
	MarketBase  string
	MarketRPS   int
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	SessionDir  string
	CacheTTL    time.Duration
	WarmWorkers int
	WarmLimit   int
}

func Load() Config {
	// optional .env for local runs; real environments set vars directly
	_ = godotenv.Load()

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ":9100"),
		MarketBase:  env("MARKET_BASE_URL", "https://api.noroff.dev/api/v1/holidaze"),
		MarketRPS:   atoi("MARKET_RPS", 5),
		RedisAddr:   env("REDIS_ADDR", "localhost:6379"),
		RedisPass:   env("REDIS_PASSWORD", ""),
		RedisDB:     atoi("REDIS_DB", 0),
		SessionDir:  env("SESSION_DIR", ".holidaze/session"),
		CacheTTL:    time.Duration(atoi("CACHE_TTL_SECONDS", 300)) * time.Second,
		WarmWorkers: atoi("WARM_WORKERS", 8),
		WarmLimit:   atoi("WARM_LIMIT", 100),
	}
	if c.MarketBase == "" {
		log.Warn().Msg("MARKET_BASE_URL is empty")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

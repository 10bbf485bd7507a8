package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	infraconfig "assetsync-service/internal/infrastructure/config"
)

type Config struct {
	// Common
	Env      string
	LogLevel string
	// API
	Port string
	// Storage backends: pg, redis, sqlite or memory.
	Storage      string
	QuotaStorage string
	DatabaseURL  string
	SQLitePath   string
	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisTTL      time.Duration
	// Provider
	Provider   string
	FMPBaseURL string
	FMPAPIKey  string
	// Pipeline
	PipelineConfig   string
	FreshTTL         time.Duration
	DegradedTTL      time.Duration
	UpstreamTimeout  time.Duration
	CacheWriteBuffer int
	// SeedUsers is "user:role,user:role", applied at startup.
	SeedUsers string
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoiDef(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func msDef(key string) time.Duration {
	return time.Duration(atoiDef(getEnv(key, ""), 0)) * time.Millisecond
}

// Load reads environment variables and applies defaults. Unset TTL variables stay zero so the
// pipeline file values survive.
func Load() Config {
	storage := getEnv("STORAGE", "memory")
	return Config{
		Env:              getEnv("ENV", "local"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		Port:             getEnv("PORT", infraconfig.DefaultHTTPPort),
		Storage:          storage,
		QuotaStorage:     getEnv("QUOTA_STORAGE", storage),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		SQLitePath:       getEnv("SQLITE_PATH", infraconfig.DefaultSQLitePath),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisDB:          atoiDef(getEnv("REDIS_DB", "0"), 0),
		RedisTTL:         msDef("REDIS_TTL_MS"),
		Provider:         getEnv("PROVIDER", "fake"),
		FMPBaseURL:       getEnv("FMP_BASE_URL", infraconfig.DefaultFMPBaseURL),
		FMPAPIKey:        getEnv("FMP_API_KEY", ""),
		PipelineConfig:   getEnv("PIPELINE_CONFIG", ""),
		FreshTTL:         msDef("FRESH_TTL_MS"),
		DegradedTTL:      msDef("DEGRADED_TTL_MS"),
		UpstreamTimeout:  msDef("UPSTREAM_TIMEOUT_MS"),
		CacheWriteBuffer: atoiDef(getEnv("CACHE_WRITE_BUFFER", ""), infraconfig.DefaultCacheWriteBuffer),
		SeedUsers:        getEnv("SEED_USERS", ""),
	}
}

// ParseSeedUsers splits SEED_USERS into user to role pairs.
func ParseSeedUsers(s string) (map[string]string, error) {
	out := map[string]string{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		user, role, ok := strings.Cut(part, ":")
		user, role = strings.TrimSpace(user), strings.ToLower(strings.TrimSpace(role))
		if !ok || user == "" || role == "" {
			return nil, fmt.Errorf("SEED_USERS: bad entry %q, want user:role", part)
		}
		out[user] = role
	}
	return out, nil
}

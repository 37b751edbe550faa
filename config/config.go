// Package config reads the service configuration from the environment.
package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/nasermirzaei89/env"
)

type StorageMode string

const (
	StorageInMemory StorageMode = "inmemory"
	StorageMongo    StorageMode = "mongo"
	StorageCached   StorageMode = "cached"
	StorageStub     StorageMode = "stub"
)

const (
	DefaultHTTPAddr = "0.0.0.0:8080"
	DefaultCacheTTL = 10 * time.Minute
)

type Config struct {
	StorageMode StorageMode
	MongoURL    string
	MongoDBName string
	RedisURL    string
	CacheTTL    time.Duration
	HTTPAddr    string
	Log         LogConfig
}

type LogConfig struct {
	Level      string
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Load reads the configuration. Unknown storage modes and malformed
// numbers or durations are errors.
func Load() (Config, error) {
	cfg := Config{
		StorageMode: StorageMode(env.GetString("STORAGE_MODE", string(StorageInMemory))),
		MongoURL:    env.GetString("MONGO_URL", "mongodb://localhost:27017"),
		MongoDBName: env.GetString("MONGO_DB_NAME", "socialcademy"),
		RedisURL:    env.GetString("REDIS_URL", "localhost:6379"),
		HTTPAddr:    env.GetString("HTTP_ADDR", DefaultHTTPAddr),
		Log: LogConfig{
			Level:    env.GetString("LOG_LEVEL", "info"),
			Path:     env.GetString("LOG_PATH", ""),
			Compress: env.GetBool("LOG_COMPRESS", false),
		},
	}

	switch cfg.StorageMode {
	case StorageInMemory, StorageMongo, StorageCached, StorageStub:
	default:
		return Config{}, fmt.Errorf("unknown STORAGE_MODE %q", cfg.StorageMode)
	}

	ttl, err := time.ParseDuration(env.GetString("CACHE_TTL", DefaultCacheTTL.String()))
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse CACHE_TTL: %w", err)
	}
	if ttl <= 0 {
		return Config{}, fmt.Errorf("CACHE_TTL must be positive, got %s", ttl)
	}
	cfg.CacheTTL = ttl

	ints := []struct {
		key string
		def int
		dst *int
	}{
		{key: "LOG_MAX_SIZE_MB", def: 100, dst: &cfg.Log.MaxSizeMB},
		{key: "LOG_MAX_BACKUPS", def: 3, dst: &cfg.Log.MaxBackups},
		{key: "LOG_MAX_AGE_DAYS", def: 7, dst: &cfg.Log.MaxAgeDays},
	}
	for _, i := range ints {
		v, err := strconv.Atoi(env.GetString(i.key, strconv.Itoa(i.def)))
		if err != nil {
			return Config{}, fmt.Errorf("failed to parse %s: %w", i.key, err)
		}
		*i.dst = v
	}

	return cfg, nil
}

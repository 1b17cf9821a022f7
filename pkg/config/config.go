package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Bunny     BunnyConfig
	Storage   StorageConfig
	ViewCache ViewCacheConfig
	Media     MediaConfig
	RateLimit RateLimitConfig
	Activity  ActivityConfig
	Log       LogConfig
}

type AppConfig struct {
	Name string `validate:"required"`
	Port string `validate:"required,numeric"`
	Env  string `validate:"required,oneof=development staging production test"`
}

type DatabaseConfig struct {
	Host     string `validate:"required"`
	Port     string `validate:"required"`
	User     string `validate:"required"`
	Password string
	DBName   string `validate:"required"`
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string `validate:"required"`
}

type BunnyConfig struct {
	StorageZone string
	AccessKey   string
	BaseURL     string
	CDNUrl      string
}

type StorageConfig struct {
	Driver   string `validate:"oneof=bunny local"`
	LocalDir string
	LocalURL string // public URL prefix the local directory is served under
}

type ViewCacheConfig struct {
	Driver    string        `validate:"oneof=memory redis"`
	Window    time.Duration `validate:"gt=0"`
	SweepCron string        // empty disables the background sweep
}

type MediaConfig struct {
	MaxBytes int64 `validate:"gt=0"`
}

type RateLimitConfig struct {
	Enabled       bool
	MaxRequests   int
	WindowSeconds int
}

type ActivityConfig struct {
	RetentionDays int    `validate:"gte=0"` // 0 keeps the audit trail forever
	CleanupCron   string
}

type LogConfig struct {
	Dir     string
	Console bool
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists (optional for production)
	_ = godotenv.Load()

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))

	window, err := time.ParseDuration(getEnv("VIEW_DEDUP_WINDOW", "15s"))
	if err != nil {
		return nil, fmt.Errorf("invalid VIEW_DEDUP_WINDOW: %w", err)
	}

	maxBytes, err := strconv.ParseInt(getEnv("MEDIA_MAX_BYTES", "52428800"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid MEDIA_MAX_BYTES: %w", err)
	}

	rateMax, _ := strconv.Atoi(getEnv("RATE_LIMIT_MAX_REQUESTS", "120"))
	rateWindow, _ := strconv.Atoi(getEnv("RATE_LIMIT_WINDOW_SECONDS", "60"))

	retentionDays, err := strconv.Atoi(getEnv("ACTIVITY_RETENTION_DAYS", "180"))
	if err != nil {
		return nil, fmt.Errorf("invalid ACTIVITY_RETENTION_DAYS: %w", err)
	}

	config := &Config{
		App: AppConfig{
			Name: getEnv("APP_NAME", "Music School News API"),
			Port: getEnv("APP_PORT", "3000"),
			Env:  getEnv("APP_ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "music_school"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", ""),
		},
		Bunny: BunnyConfig{
			StorageZone: getEnv("BUNNY_STORAGE_ZONE", ""),
			AccessKey:   getEnv("BUNNY_ACCESS_KEY", ""),
			BaseURL:     getEnv("BUNNY_BASE_URL", "https://storage.bunnycdn.com"),
			CDNUrl:      getEnv("BUNNY_CDN_URL", ""),
		},
		Storage: StorageConfig{
			Driver:   getEnv("STORAGE_DRIVER", "local"),
			LocalDir: getEnv("LOCAL_STORAGE_DIR", "uploads"),
			LocalURL: getEnv("LOCAL_STORAGE_URL", "/uploads"),
		},
		ViewCache: ViewCacheConfig{
			Driver:    getEnv("VIEW_CACHE_DRIVER", "memory"),
			Window:    window,
			SweepCron: getEnv("VIEW_SWEEP_CRON", "*/1 * * * *"),
		},
		Media: MediaConfig{
			MaxBytes: maxBytes,
		},
		RateLimit: RateLimitConfig{
			Enabled:       getEnv("RATE_LIMIT_ENABLED", "true") == "true",
			MaxRequests:   rateMax,
			WindowSeconds: rateWindow,
		},
		Activity: ActivityConfig{
			RetentionDays: retentionDays,
			CleanupCron:   getEnv("ACTIVITY_CLEANUP_CRON", "0 3 * * *"),
		},
		Log: LoadLogConfig(),
	}

	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if config.Storage.Driver == "bunny" && (config.Bunny.StorageZone == "" || config.Bunny.AccessKey == "") {
		return nil, fmt.Errorf("invalid configuration: BUNNY_STORAGE_ZONE and BUNNY_ACCESS_KEY are required for the bunny storage driver")
	}

	return config, nil
}

// LoadLogConfig reads only the logging settings, so the logger can start before the rest is validated.
func LoadLogConfig() LogConfig {
	_ = godotenv.Load()
	return LogConfig{
		Dir:     getEnv("LOG_DIR", "logs"),
		Console: getEnv("LOG_CONSOLE", "true") == "true",
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

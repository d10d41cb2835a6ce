package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv   string
	LogLevel string

	HTTPPort int

	BackendURL  string
	HTTPTimeout time.Duration

	StoreDriver string
	StorePath   string
	RedisURL    string

	Currency    string
	DeliveryFee int64

	SeedFile string
}

// Load reads the process environment. A .env file in the working directory,
// when present, fills in variables that are not already set.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppEnv:      getEnv("APP_ENV", "dev"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		HTTPPort:    getEnvInt("HTTP_PORT", 4000),
		BackendURL:  getEnv("SHOP_BACKEND_URL", "http://localhost:4000"),
		HTTPTimeout: getEnvDuration("SHOP_HTTP_TIMEOUT", 10*time.Second),
		StoreDriver: getEnv("SHOP_STORE_DRIVER", "sqlite"),
		StorePath:   getEnv("SHOP_STORE_PATH", defaultStorePath()),
		RedisURL:    getEnv("SHOP_REDIS_URL", "localhost:6379"),
		Currency:    getEnv("SHOP_CURRENCY", "₹ "),
		DeliveryFee: int64(getEnvInt("SHOP_DELIVERY_FEE", 50)),
		SeedFile:    getEnv("SHOP_SEED_FILE", ""),
	}
}

func defaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "shopctl", "state.db")
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)

	if v == "" {
		return def
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}

	return n
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}

	return d
}

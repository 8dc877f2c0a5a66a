package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the runtime settings shared by the local server, the lambdas
// and the cmd tools.
type Config struct {
	Port string

	DBServer   string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string
	// DBAutoMigrate creates the schema on startup when true.
	DBAutoMigrate bool

	// RedisURL enables Idempotency-Key support when set.
	RedisURL       string
	IdempotencyTTL time.Duration

	JWTSecret          string
	CheckInTokenSecret string

	BookingMaxAttempts int
	BookingBackoff     time.Duration
	PromoSweepInterval time.Duration
	QRSize             int
}

// DefaultConfig returns the settings used when no environment is present.
func DefaultConfig() *Config {
	return &Config{
		Port:               "8080",
		DBServer:           "127.0.0.1",
		DBPort:             3306,
		DBName:             "eventhive",
		DBUser:             "root",
		IdempotencyTTL:     24 * time.Hour,
		BookingMaxAttempts: 3,
		BookingBackoff:     25 * time.Millisecond,
		PromoSweepInterval: 10 * time.Minute,
		QRSize:             300,
	}
}

var (
	globalConfig *Config
	configMutex  sync.RWMutex
)

// Load reads .env (if any) and the process environment once and caches the result.
func Load() (*Config, error) {
	configMutex.RLock()
	if globalConfig != nil {
		configMutex.RUnlock()
		return globalConfig, nil
	}
	configMutex.RUnlock()

	configMutex.Lock()
	defer configMutex.Unlock()

	if globalConfig != nil {
		return globalConfig, nil
	}

	loadEnvFiles(".env")

	cfg, err := FromEnv()
	if err != nil {
		return nil, err
	}
	globalConfig = cfg
	return globalConfig, nil
}

// FromEnv builds a Config from the current environment without caching.
func FromEnv() (*Config, error) {
	cfg := DefaultConfig()

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.DBServer = getEnv("DB_SERVER", cfg.DBServer)
	cfg.DBName = getEnv("DB_NAME", cfg.DBName)
	cfg.DBUser = getEnv("DB_USER", cfg.DBUser)
	cfg.DBPassword = getEnv("DB_PASSWORD", cfg.DBPassword)
	cfg.RedisURL = os.Getenv("REDIS_URL")
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	cfg.CheckInTokenSecret = os.Getenv("CHECKIN_TOKEN_SECRET")

	var err error
	if cfg.DBPort, err = getEnvInt("DB_PORT", cfg.DBPort); err != nil {
		return nil, err
	}
	if cfg.BookingMaxAttempts, err = getEnvInt("BOOKING_MAX_ATTEMPTS", cfg.BookingMaxAttempts); err != nil {
		return nil, err
	}
	if cfg.QRSize, err = getEnvInt("QR_SIZE", cfg.QRSize); err != nil {
		return nil, err
	}
	if cfg.PromoSweepInterval, err = getEnvDuration("PROMO_SWEEP_INTERVAL", cfg.PromoSweepInterval); err != nil {
		return nil, err
	}
	if cfg.BookingBackoff, err = getEnvDuration("BOOKING_BACKOFF", cfg.BookingBackoff); err != nil {
		return nil, err
	}
	if cfg.IdempotencyTTL, err = getEnvDuration("IDEMPOTENCY_TTL", cfg.IdempotencyTTL); err != nil {
		return nil, err
	}
	cfg.DBAutoMigrate = os.Getenv("DB_AUTO_MIGRATE") == "true"

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the booking engine cannot run with.
func (c *Config) Validate() error {
	if c.BookingMaxAttempts < 1 || c.BookingMaxAttempts > 10 {
		return fmt.Errorf("BOOKING_MAX_ATTEMPTS must be between 1 and 10, got %d", c.BookingMaxAttempts)
	}
	if c.QRSize < 64 || c.QRSize > 2048 {
		return fmt.Errorf("QR_SIZE must be between 64 and 2048, got %d", c.QRSize)
	}
	if c.PromoSweepInterval <= 0 {
		return fmt.Errorf("PROMO_SWEEP_INTERVAL must be positive")
	}
	return nil
}

// CheckInSecret falls back to the JWT secret when no dedicated secret is set.
func (c *Config) CheckInSecret() string {
	if c.CheckInTokenSecret != "" {
		return c.CheckInTokenSecret
	}
	return c.JWTSecret
}

// Reset drops the cached config. Used by tests.
func Reset() {
	configMutex.Lock()
	globalConfig = nil
	configMutex.Unlock()
}

// loadEnvFiles tries the working directory first, then the executable directory.
// Variables already present in the environment win.
func loadEnvFiles(filename string) {
	if err := godotenv.Load(filename); err == nil {
		return
	}
	execPath, err := os.Executable()
	if err != nil {
		return
	}
	_ = godotenv.Load(filepath.Join(filepath.Dir(execPath), filename))
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return d, nil
}

package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	App        *AppConfig
	Database   *DatabaseConfig
	Redis      *RedisConfig
	Security   *SecurityConfig
	Commission *CommissionConfig
	Wallet     *WalletConfig
	Sweeper    *SweeperConfig
}

type AppConfig struct {
	Name        string
	Version     string
	Environment string
	Port        int
	Host        string
	Debug       bool
	LogLevel    string
	LogFormat   string
	Currency    string
}

type DatabaseConfig struct {
	URI            string
	Database       string
	MaxPoolSize    int
	MinPoolSize    int
	ConnectTimeout time.Duration
	SocketTimeout  time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	Enabled  bool
}

type SecurityConfig struct {
	JWTSecret          string
	JWTAccessTokenTTL  time.Duration
	RateLimitPerMinute int
	CORSAllowedOrigins []string
}

// CommissionConfig is the environment-derived commission fallback used when no
// settings row resolves. Model is "flat" or "percent".
type CommissionConfig struct {
	Model        string
	FlatValue    float64
	PercentValue float64
	AppliesCash  bool
	ChargeStage  string
}

type WalletConfig struct {
	PrechargeEnabled          bool
	MinRechargeAmount         int64
	MinTopUpAmount            int64
	MinRemainingAfterTransfer int64
}

type SweeperConfig struct {
	Enabled     bool
	Interval    time.Duration
	MaxAttempts int
}

func Load() (*Config, error) {
	config := &Config{
		App:        loadAppConfig(),
		Database:   loadDatabaseConfig(),
		Redis:      loadRedisConfig(),
		Security:   loadSecurityConfig(),
		Commission: loadCommissionConfig(),
		Wallet:     loadWalletConfig(),
		Sweeper:    loadSweeperConfig(),
	}

	return config, nil
}

func loadAppConfig() *AppConfig {
	return &AppConfig{
		Name:        getEnv("APP_NAME", "stp-backend"),
		Version:     getEnv("APP_VERSION", "1.0.0"),
		Environment: getEnv("APP_ENV", "development"),
		Port:        getEnvAsInt("APP_PORT", 8080),
		Host:        getEnv("APP_HOST", "0.0.0.0"),
		Debug:       getEnvAsBool("APP_DEBUG", true),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "json"),
		Currency:    getEnv("APP_CURRENCY", "SYP"),
	}
}

func loadDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		URI:            getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		Database:       getEnv("MONGODB_DATABASE", "stp"),
		MaxPoolSize:    getEnvAsInt("MONGODB_MAX_POOL_SIZE", 100),
		MinPoolSize:    getEnvAsInt("MONGODB_MIN_POOL_SIZE", 5),
		ConnectTimeout: getEnvAsDuration("MONGODB_CONNECT_TIMEOUT", 10*time.Second),
		SocketTimeout:  getEnvAsDuration("MONGODB_SOCKET_TIMEOUT", 30*time.Second),
	}
}

func loadRedisConfig() *RedisConfig {
	return &RedisConfig{
		Host:     getEnv("REDIS_HOST", "localhost"),
		Port:     getEnvAsInt("REDIS_PORT", 6379),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvAsInt("REDIS_DB", 0),
		Enabled:  getEnvAsBool("REDIS_ENABLED", true),
	}
}

func loadSecurityConfig() *SecurityConfig {
	return &SecurityConfig{
		JWTSecret:          getEnv("JWT_SECRET", "change-me"),
		JWTAccessTokenTTL:  getEnvAsDuration("JWT_ACCESS_TOKEN_TTL", 24*time.Hour),
		RateLimitPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 100),
		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
	}
}

func loadCommissionConfig() *CommissionConfig {
	return &CommissionConfig{
		Model:        strings.ToLower(getEnv("COMMISSION_MODEL", "flat")),
		FlatValue:    getEnvAsFloat("COMMISSION_FLAT", 0),
		PercentValue: getEnvAsFloat("COMMISSION_PERCENT", 0),
		AppliesCash:  getEnvAsBool("CASH_COMMISSION_APPLIES", false),
		ChargeStage:  strings.ToLower(getEnv("COMMISSION_CHARGE_STAGE", "completed")),
	}
}

func loadWalletConfig() *WalletConfig {
	return &WalletConfig{
		PrechargeEnabled:          getEnvAsBool("PRECHARGE_WALLET", false),
		MinRechargeAmount:         getEnvAsInt64("MIN_RECHARGE_AMOUNT", 1000),
		MinTopUpAmount:            getEnvAsInt64("MIN_TOPUP_AMOUNT", 1000),
		MinRemainingAfterTransfer: getEnvAsInt64("MIN_REMAINING_AFTER_TRANSFER", 20000),
	}
}

func loadSweeperConfig() *SweeperConfig {
	return &SweeperConfig{
		Enabled:     getEnvAsBool("SWEEPER_ENABLED", true),
		Interval:    getEnvAsDuration("SWEEPER_INTERVAL", 2*time.Minute),
		MaxAttempts: getEnvAsInt("SWEEPER_MAX_ATTEMPTS", 10),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}

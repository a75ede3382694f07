package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	// Insecure fallbacks accepted only when APP_ENV=development.
	devJWTSecret = "supersecretkey123"
	devAdminKey  = "boss123"
)

type Config struct {
	Env       string
	Server    ServerConfig
	Log       LogConfig
	Storage   StorageConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Redis     RedisConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	BodyLimit    int
	CORSOrigins  string
}

type LogConfig struct {
	File  string
	Level string
}

type StorageConfig struct {
	UsersFile    string
	RequestsFile string
}

type AuthConfig struct {
	JWTSecret  string
	AdminKey   string
	TokenTTL   time.Duration
	BcryptCost int

	// UsingDevSecrets is set when Load substituted the insecure fallbacks.
	UsingDevSecrets bool
}

type RateLimitConfig struct {
	Capacity     int64
	RefillRate   int64
	RefillPeriod time.Duration
}

// RedisConfig is optional. An empty Address keeps rate limiting in memory.
type RedisConfig struct {
	Address  string
	Username string
	Password string
	DB       int
}

func (r RedisConfig) Enabled() bool {
	return r.Address != ""
}

// resolvePath makes a relative path absolute against the working directory
// (or PROJECT_ROOT when set, which tests use).
func resolvePath(path string) (string, error) {
	if filepath.IsAbs(path) {
		return path, nil
	}

	root := os.Getenv("PROJECT_ROOT")
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		root = wd
	}

	return filepath.Join(root, path), nil
}

func Load() (*Config, error) {
	usersFile, err := resolvePath(getEnv("USERS_FILE", "users.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve users file: %w", err)
	}

	requestsFile, err := resolvePath(getEnv("REQUESTS_FILE", "requests.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve requests file: %w", err)
	}

	logFile := getEnv("LOG_FILE", "stdout")
	if logFile != "stdout" && logFile != "-" {
		if logFile, err = resolvePath(logFile); err != nil {
			return nil, fmt.Errorf("failed to resolve log file: %w", err)
		}
	}

	cfg := &Config{
		Env: getEnv("APP_ENV", "production"),
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnvAsInt("SERVER_PORT", 3000),
			ReadTimeout:  getEnvAsDuration("READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getEnvAsDuration("WRITE_TIMEOUT", 30*time.Second),
			BodyLimit:    getEnvAsInt("BODY_LIMIT", 1024*1024),
			CORSOrigins:  getEnv("CORS_ORIGINS", "*"),
		},
		Log: LogConfig{
			File:  logFile,
			Level: getEnv("LOG_LEVEL", "INFO"),
		},
		Storage: StorageConfig{
			UsersFile:    usersFile,
			RequestsFile: requestsFile,
		},
		Auth: AuthConfig{
			JWTSecret:  os.Getenv("JWT_SECRET"),
			AdminKey:   os.Getenv("ADMIN_KEY"),
			TokenTTL:   getEnvAsDuration("TOKEN_TTL", 7*24*time.Hour),
			BcryptCost: getEnvAsInt("BCRYPT_COST", 10),
		},
		RateLimit: RateLimitConfig{
			Capacity:     getEnvAsInt64("RATE_LIMIT_CAPACITY", 100),
			RefillRate:   getEnvAsInt64("RATE_LIMIT_REFILL", 10),
			RefillPeriod: getEnvAsDuration("RATE_LIMIT_PERIOD", time.Second),
		},
		Redis: RedisConfig{
			Address:  getEnv("REDIS_ADDR", ""),
			Username: getEnv("REDIS_USERNAME", "default"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
	}

	cfg.applyDevelopmentSecrets()

	return cfg, cfg.Validate()
}

func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}

// applyDevelopmentSecrets fills missing secrets with the insecure fallbacks,
// but only in development. Elsewhere Validate rejects the empty values.
func (c *Config) applyDevelopmentSecrets() {
	if !c.IsDevelopment() {
		return
	}
	if c.Auth.JWTSecret == "" {
		c.Auth.JWTSecret = devJWTSecret
		c.Auth.UsingDevSecrets = true
	}
	if c.Auth.AdminKey == "" {
		c.Auth.AdminKey = devAdminKey
		c.Auth.UsingDevSecrets = true
	}
}

func (c *Config) Validate() error {
	var errors []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid server port: %d (must be 1-65535)", c.Server.Port))
	}
	if c.Server.BodyLimit <= 0 {
		errors = append(errors, "body limit (BODY_LIMIT) must be > 0")
	}

	if c.Storage.UsersFile == "" {
		errors = append(errors, "users file (USERS_FILE) is required")
	}
	if c.Storage.RequestsFile == "" {
		errors = append(errors, "requests file (REQUESTS_FILE) is required")
	}
	if c.Storage.UsersFile != "" && c.Storage.UsersFile == c.Storage.RequestsFile {
		errors = append(errors, "USERS_FILE and REQUESTS_FILE must differ")
	}

	if c.Auth.JWTSecret == "" {
		errors = append(errors, "token signing secret (JWT_SECRET) is required outside development")
	}
	if c.Auth.AdminKey == "" {
		errors = append(errors, "admin key (ADMIN_KEY) is required outside development")
	}
	if c.Auth.TokenTTL <= 0 {
		errors = append(errors, "token TTL must be > 0")
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		errors = append(errors, fmt.Sprintf("invalid bcrypt cost: %d (must be 4-31)", c.Auth.BcryptCost))
	}

	if c.RateLimit.Capacity <= 0 {
		errors = append(errors, "rate limit capacity must be > 0")
	}
	if c.RateLimit.RefillRate <= 0 {
		errors = append(errors, "rate limit refill rate must be > 0")
	}
	if c.RateLimit.RefillPeriod <= 0 {
		errors = append(errors, "rate limit refill period must be > 0")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Summary returns a human readable summary of the loaded configuration with secrets masked
func (c *Config) Summary() string {
	var b strings.Builder
	b.WriteString("Configuration Summary:\n")
	fmt.Fprintf(&b, "  Environment: %s\n", c.Env)
	fmt.Fprintf(&b, "  Server: %s\n", c.ServerAddress())
	fmt.Fprintf(&b, "  Users file: %s\n", c.Storage.UsersFile)
	fmt.Fprintf(&b, "  Requests file: %s\n", c.Storage.RequestsFile)
	fmt.Fprintf(&b, "  JWT secret: %s\n", maskSecret(c.Auth.JWTSecret))
	fmt.Fprintf(&b, "  Admin key: %s\n", maskSecret(c.Auth.AdminKey))
	fmt.Fprintf(&b, "  Token TTL: %s\n", c.Auth.TokenTTL)
	if c.Redis.Enabled() {
		fmt.Fprintf(&b, "  Redis: %s (DB: %d)\n", c.Redis.Address, c.Redis.DB)
	} else {
		b.WriteString("  Redis: disabled (in-memory rate limiting)\n")
	}
	fmt.Fprintf(&b, "  Rate Limit: %d requests/%s (capacity: %d)",
		c.RateLimit.RefillRate, c.RateLimit.RefillPeriod, c.RateLimit.Capacity)
	return b.String()
}

func maskSecret(s string) string {
	if len(s) < 8 {
		return "***"
	}
	return s[:2] + "***" + s[len(s)-2:]
}

// Helper functions to read environment variables with defaults
func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	valStr := os.Getenv(key)
	if val, err := strconv.Atoi(valStr); err == nil {
		return val
	}
	return defaultVal
}

func getEnvAsInt64(key string, defaultVal int64) int64 {
	valStr := os.Getenv(key)
	if val, err := strconv.ParseInt(valStr, 10, 64); err == nil {
		return val
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	valStr := os.Getenv(key)
	if val, err := time.ParseDuration(valStr); err == nil {
		return val
	}
	return defaultVal
}

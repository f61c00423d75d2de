// Package config loads settings from the environment, with .env support for
// local development.
//
// Load serves the gateway server; LoadClient serves the dashboard client.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/harikrishnanklcs24-creator/vitalytics-ai/pkg/logger"
)

// Config is the gateway server configuration.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Lockout   LockoutConfig
	RateLimit RateLimitConfig
	Email     EmailConfig
	Log       logger.Config
	CORS      CORSConfig

	// BootstrapAdmins are emails promoted to admin when they register.
	BootstrapAdmins []string
}

type ServerConfig struct {
	Host string
	Port int
}

type DatabaseConfig struct {
	Path string
}

type JWTConfig struct {
	Secret             string
	AccessTokenExpiry  int // minutes
	RefreshTokenExpiry int // days
}

// LockoutConfig controls per-account lockout after repeated bad passwords.
type LockoutConfig struct {
	Threshold int
	Window    time.Duration
	Backend   string // memory or redis
	RedisURL  string
}

// RateLimitConfig bounds auth attempts per client IP.
type RateLimitConfig struct {
	LoginAttempts int
	LoginWindow   time.Duration
}

// EmailConfig enables the welcome mail. An empty ResendAPIKey disables it.
type EmailConfig struct {
	ResendAPIKey string
	From         string
	AppURL       string
}

type CORSConfig struct {
	AllowedOrigins []string
}

// Load reads the server configuration. JWT_SECRET is required.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port, err := getInt("SERVER_PORT", 9090)
	if err != nil {
		return nil, err
	}
	accessExpiry, err := getInt("JWT_ACCESS_EXPIRY_MINUTES", 15)
	if err != nil {
		return nil, err
	}
	refreshExpiry, err := getInt("JWT_REFRESH_EXPIRY_DAYS", 7)
	if err != nil {
		return nil, err
	}
	threshold, err := getInt("LOCKOUT_THRESHOLD", 5)
	if err != nil {
		return nil, err
	}
	lockWindow, err := getDuration("LOCKOUT_WINDOW", 15*time.Minute)
	if err != nil {
		return nil, err
	}
	loginAttempts, err := getInt("RATE_LIMIT_LOGIN_ATTEMPTS", 10)
	if err != nil {
		return nil, err
	}
	loginWindow, err := getDuration("RATE_LIMIT_LOGIN_WINDOW", 2*time.Minute)
	if err != nil {
		return nil, err
	}
	logCfg, err := loadLog()
	if err != nil {
		return nil, err
	}

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	backend := strings.ToLower(getEnv("LOCKOUT_BACKEND", "memory"))
	redisURL := getEnv("REDIS_URL", "")
	switch backend {
	case "memory":
	case "redis":
		if redisURL == "" {
			return nil, fmt.Errorf("REDIS_URL is required when LOCKOUT_BACKEND=redis")
		}
	default:
		return nil, fmt.Errorf("invalid LOCKOUT_BACKEND %q: want memory or redis", backend)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: port,
		},
		Database: DatabaseConfig{
			Path: getEnv("DATABASE_PATH", "./data/vitalyx.db"),
		},
		JWT: JWTConfig{
			Secret:             jwtSecret,
			AccessTokenExpiry:  accessExpiry,
			RefreshTokenExpiry: refreshExpiry,
		},
		Lockout: LockoutConfig{
			Threshold: threshold,
			Window:    lockWindow,
			Backend:   backend,
			RedisURL:  redisURL,
		},
		RateLimit: RateLimitConfig{
			LoginAttempts: loginAttempts,
			LoginWindow:   loginWindow,
		},
		Email: EmailConfig{
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
			From:         getEnv("RESEND_FROM", "VITALYX <noreply@vitalyx.app>"),
			AppURL:       getEnv("APP_URL", "http://localhost:5173"),
		},
		Log: logCfg,
		CORS: CORSConfig{
			AllowedOrigins: getList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		},
		BootstrapAdmins: getList("GATEWAY_BOOTSTRAP_ADMIN", nil),
	}

	return cfg, nil
}

// Addr returns host:port for net.Listen.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ClientConfig configures the dashboard's session client.
type ClientConfig struct {
	GatewayURL     string
	VaultPath      string
	VaultKey       string // 64 hex chars; empty keeps the credential in memory
	RequestTimeout time.Duration
	Policy         string // reject or queue
	Language       string
	Log            logger.Config
}

// LoadClient reads the client configuration.
func LoadClient() (*ClientConfig, error) {
	_ = godotenv.Load()

	timeout, err := getDuration("VITALYX_REQUEST_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}
	logCfg, err := loadLog()
	if err != nil {
		return nil, err
	}

	policy := strings.ToLower(getEnv("VITALYX_CONCURRENCY", "reject"))
	if policy != "reject" && policy != "queue" {
		return nil, fmt.Errorf("invalid VITALYX_CONCURRENCY %q: want reject or queue", policy)
	}

	key := getEnv("VITALYX_VAULT_KEY", "")
	if key != "" && len(key) != 64 {
		return nil, fmt.Errorf("VITALYX_VAULT_KEY must be 64 hex characters")
	}

	return &ClientConfig{
		GatewayURL:     getEnv("VITALYX_GATEWAY_URL", "http://localhost:9090"),
		VaultPath:      getEnv("VITALYX_VAULT_PATH", "./data/session.vault"),
		VaultKey:       key,
		RequestTimeout: timeout,
		Policy:         policy,
		Language:       getEnv("VITALYX_LANG", "en"),
		Log:            logCfg,
	}, nil
}

func loadLog() (logger.Config, error) {
	maxSize, err := getInt("LOG_MAX_SIZE_MB", 50)
	if err != nil {
		return logger.Config{}, err
	}
	maxBackups, err := getInt("LOG_MAX_BACKUPS", 5)
	if err != nil {
		return logger.Config{}, err
	}
	maxAge, err := getInt("LOG_MAX_AGE_DAYS", 28)
	if err != nil {
		return logger.Config{}, err
	}
	return logger.Config{
		Level:      getEnv("LOG_LEVEL", "info"),
		Format:     getEnv("LOG_FORMAT", "text"),
		Output:     getEnv("LOG_OUTPUT", "stdout"),
		FilePath:   getEnv("LOG_FILE", "./data/logs/vitalyx.log"),
		MaxSizeMB:  maxSize,
		MaxBackups: maxBackups,
		MaxAgeDays: maxAge,
	}, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

// getList splits a comma-separated variable, dropping blanks.
func getList(key string, fallback []string) []string {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// developmentJWTSecret is only accepted outside production
const developmentJWTSecret = "evenup-development-secret"

// Config holds all configuration for the application
type Config struct {
	// Server
	Port        string
	CORSOrigins []string
	Env         string

	// Event access tokens
	JWTSecret string
	JWTIssuer string
	TokenTTL  time.Duration

	// Email delivery
	SMTP SMTPConfig

	// Rate limiting for write endpoints
	RateLimitPerMinute int
	RateLimitBurst     int

	// Proxies allowed to report the client address in X-Forwarded-For.
	// Empty means the connection address is the client.
	TrustedProxies []*net.IPNet
}

// SMTPConfig holds outgoing mail configuration
type SMTPConfig struct {
	Server    string
	Port      int
	FromEmail string
	Password  string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	tokenTTL, err := time.ParseDuration(getEnv("TOKEN_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("TOKEN_TTL is invalid: %w", err)
	}
	smtpPort, err := getEnvInt("SMTP_PORT", 587)
	if err != nil {
		return nil, err
	}
	ratePerMinute, err := getEnvInt("RATE_LIMIT_PER_MINUTE", 30)
	if err != nil {
		return nil, err
	}
	rateBurst, err := getEnvInt("RATE_LIMIT_BURST", 10)
	if err != nil {
		return nil, err
	}
	trustedProxies, err := parseCIDRs(getEnv("TRUSTED_PROXIES", ""))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000"), ","),
		Env:         getEnv("ENV", "development"),
		JWTSecret:   getEnv("JWT_SECRET", ""),
		JWTIssuer:   getEnv("JWT_ISSUER", "evenup"),
		TokenTTL:    tokenTTL,
		SMTP: SMTPConfig{
			Server:    getEnv("SMTP_SERVER", "smtp.gmail.com"),
			Port:      smtpPort,
			FromEmail: getEnv("SMTP_FROM_EMAIL", ""),
			Password:  getEnv("SMTP_PASSWORD", ""),
		},
		RateLimitPerMinute: ratePerMinute,
		RateLimitBurst:     rateBurst,
		TrustedProxies:     trustedProxies,
	}

	if cfg.JWTSecret == "" && !cfg.IsProduction() {
		cfg.JWTSecret = developmentJWTSecret
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	if c.SMTP.Port <= 0 || c.SMTP.Port > 65535 {
		return fmt.Errorf("SMTP_PORT must be between 1 and 65535")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

// parseCIDRs parses a comma-separated list of CIDR ranges, a bare IP is taken as a single host
func parseCIDRs(value string) ([]*net.IPNet, error) {
	var ranges []*net.IPNet
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !strings.Contains(part, "/") {
			ip := net.ParseIP(part)
			if ip == nil {
				return nil, fmt.Errorf("TRUSTED_PROXIES has an invalid address: %q", part)
			}
			bits := 128
			if ip.To4() != nil {
				bits = 32
			}
			part = fmt.Sprintf("%s/%d", part, bits)
		}
		_, ipNet, err := net.ParseCIDR(part)
		if err != nil {
			return nil, fmt.Errorf("TRUSTED_PROXIES has an invalid range: %w", err)
		}
		ranges = append(ranges, ipNet)
	}
	return ranges, nil
}

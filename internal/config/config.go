package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// MinBcryptCost is the lowest password hashing cost the server accepts.
const MinBcryptCost = 12

// devJWTSecret is the fallback signing key for local runs. Production refuses it.
const devJWTSecret = "dev-secret-change-me"

type Config struct {
	AppEnv     string        `yaml:"app_env"`
	ServerPort string        `yaml:"server_port"`
	DBHost     string        `yaml:"db_host"`
	DBPort     string        `yaml:"db_port"`
	DBUser     string        `yaml:"db_user"`
	DBPassword string        `yaml:"db_password"`
	DBName     string        `yaml:"db_name"`
	RedisURL   string        `yaml:"redis_url"`
	JWTSecret  string        `yaml:"jwt_secret"`
	TokenTTL   time.Duration `yaml:"token_ttl"`
	BcryptCost int           `yaml:"bcrypt_cost"`

	CORSOrigins []string `yaml:"cors_origins"`

	RegisterRateLimit  int           `yaml:"register_rate_limit"`
	RegisterRateWindow time.Duration `yaml:"register_rate_window"`
	// TrustProxyHeaders makes the rate limiter key on X-Forwarded-For and
	// X-Real-IP. Only enable it behind a proxy that overwrites them.
	TrustProxyHeaders bool `yaml:"trust_proxy_headers"`
}

// Load reads an optional .env file, then the environment, then the YAML file
// named by CONFIG_FILE. Later sources win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		ServerPort:         getEnv("SERVER_PORT", "3000"),
		DBHost:             getEnv("DB_HOST", "localhost"),
		DBPort:             getEnv("DB_PORT", "5432"),
		DBUser:             getEnv("DB_USER", "projectdesk"),
		DBPassword:         getEnv("DB_PASSWORD", "projectdesk_dev_password"),
		DBName:             getEnv("DB_NAME", "projectdesk"),
		RedisURL:           getEnv("REDIS_URL", ""),
		JWTSecret:          getEnv("JWT_SECRET", devJWTSecret),
		TokenTTL:           getDuration("TOKEN_TTL", 24*time.Hour),
		BcryptCost:         getInt("BCRYPT_COST", MinBcryptCost),
		CORSOrigins:        getList("CORS_ORIGINS", []string{"http://localhost:8080", "http://127.0.0.1:8080"}),
		RegisterRateLimit:  getInt("REGISTER_RATE_LIMIT", 10),
		RegisterRateWindow: getDuration("REGISTER_RATE_WINDOW", time.Minute),
		TrustProxyHeaders:  getBool("TRUST_PROXY_HEADERS", false),
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("config: JWT_SECRET must not be empty")
	}
	if c.IsProduction() && c.JWTSecret == devJWTSecret {
		return fmt.Errorf("config: JWT_SECRET must be set in production")
	}
	if c.BcryptCost < MinBcryptCost {
		return fmt.Errorf("config: BCRYPT_COST must be at least %d, got %d", MinBcryptCost, c.BcryptCost)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("config: TOKEN_TTL must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// DatabaseURL builds the postgres DSN used by pgx.
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	val, exists := os.LookupEnv(key)

	if exists {
		return val
	}

	return fallback
}

func getInt(key string, fallback int) int {
	val, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	val, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return fallback
	}
	return d
}

func getBool(key string, fallback bool) bool {
	val, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return b
}

func getList(key string, fallback []string) []string {
	val, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

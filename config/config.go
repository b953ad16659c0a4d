package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every setting the service reads from the environment
type Config struct {
	Port        string
	CORSOrigins []string
	Database    DatabaseConfig
	Auth        AuthConfig
	OTP         OTPConfig
	SMTP        SMTPConfig
	RedisURL    string
	Storage     StorageConfig
	NewRelic    NewRelicConfig
}

// DatabaseConfig describes the PostgreSQL connection
type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

// DSN returns a lib/pq keyword/value connection string
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// URL returns the postgres:// form golang-migrate expects
func (c DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

// AuthConfig configures the bearer token gate
type AuthConfig struct {
	JWTSecret string
	// DemoUserID lets a development build run without tokens; zero disables it
	DemoUserID int64
}

// OTPConfig governs one-time code issuance
type OTPConfig struct {
	TTL         time.Duration
	MaxAttempts int
	Sender      string
	IssueLimit  int
	IssueWindow time.Duration
	BcryptCost  int
}

// SMTPConfig configures the email code sender
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Sender   string
}

// StorageConfig selects where uploaded documents live
type StorageConfig struct {
	Driver          string
	UploadDir       string
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// NewRelicConfig configures the APM agent
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
}

// Load reads .env (if present) and the process environment
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	return &Config{
		Port:        getEnvOrDefault("PORT", "8080"),
		CORSOrigins: splitList(getEnvOrDefault("CORS_ORIGINS", "*"), "*"),
		Database: DatabaseConfig{
			Host:         getEnvOrDefault("DB_HOST", "localhost"),
			Port:         getEnvOrDefault("DB_PORT", "5432"),
			User:         getEnvOrDefault("DB_USER", "postgres"),
			Password:     getEnvOrDefault("DB_PASSWORD", "postgres"),
			Name:         getEnvOrDefault("DB_NAME", "egov"),
			SSLMode:      getEnvOrDefault("DB_SSLMODE", "disable"),
			MaxOpenConns: getIntOrDefault("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getIntOrDefault("DB_MAX_IDLE_CONNS", 5),
		},
		Auth: AuthConfig{
			JWTSecret:  getEnvOrDefault("JWT_SECRET", "egov-portal-dev-secret"),
			DemoUserID: int64(getIntOrDefault("DEMO_USER_ID", 0)),
		},
		OTP: OTPConfig{
			TTL:         getDurationOrDefault("OTP_TTL", 10*time.Minute),
			MaxAttempts: getIntOrDefault("OTP_MAX_ATTEMPTS", 5),
			Sender:      getEnvOrDefault("OTP_SENDER", "log"),
			IssueLimit:  getIntOrDefault("OTP_ISSUE_LIMIT", 5),
			IssueWindow: getDurationOrDefault("OTP_ISSUE_WINDOW", 15*time.Minute),
			BcryptCost:  getIntOrDefault("OTP_BCRYPT_COST", 10),
		},
		SMTP: SMTPConfig{
			Host:     getEnvOrDefault("SMTP_HOST", ""),
			Port:     getEnvOrDefault("SMTP_PORT", "587"),
			Username: getEnvOrDefault("SMTP_USERNAME", ""),
			Password: getEnvOrDefault("SMTP_PASSWORD", ""),
			Sender:   getEnvOrDefault("SMTP_SENDER", ""),
		},
		RedisURL: getEnvOrDefault("REDIS_URL", ""),
		Storage: StorageConfig{
			Driver:          getEnvOrDefault("STORAGE_DRIVER", "local"),
			UploadDir:       getEnvOrDefault("UPLOAD_DIR", "uploads"),
			Bucket:          getEnvOrDefault("S3_BUCKET", ""),
			Region:          getEnvOrDefault("S3_REGION", "us-east-1"),
			Endpoint:        getEnvOrDefault("S3_ENDPOINT", ""),
			AccessKeyID:     getEnvOrDefault("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnvOrDefault("S3_SECRET_ACCESS_KEY", ""),
		},
		NewRelic: NewRelicConfig{
			AppName:    getEnvOrDefault("NEW_RELIC_APP_NAME", "eGov Portal API"),
			LicenseKey: getEnvOrDefault("NEW_RELIC_LICENSE_KEY", ""),
		},
	}
}

// Helper function to get environment variable with default value
func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Warning: %s=%q is not a number, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Warning: %s=%q is not a duration, using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}

// splitList splits a comma separated value, trimming entries and dropping empty ones
func splitList(value, fallback string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return []string{fallback}
	}
	return items
}

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Snapshot store drivers.
const (
	StoreRedis    = "redis"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
	StoreMemory   = "memory"
)

// Config holds all application configuration.
type Config struct {
	ServerPort  string
	GinMode     string
	LogLevel    string
	LogFormat   string
	DatabaseURL string
	MaxDBConns  int32
	RedisURL    string
	SQLitePath  string
	JWTSecret   string
	JWTExpiry   time.Duration
	// AllowedOrigins controls HTTP CORS and WebSocket origin validation.
	// Empty slice means all origins are permitted (dev default).
	AllowedOrigins []string
	// MonitorToken guards the proctor monitor stream. Empty disables the route.
	MonitorToken string

	SnapshotStore    string
	SnapshotTTL      time.Duration
	QuestionBankPath string

	Exam ExamConfig
}

// ExamConfig holds the options recognised by the exam session.
type ExamConfig struct {
	TotalTimeSeconds  int
	PassingPercentage int
	MaxViolations     int
	PersistenceKey    string
	TickInterval      time.Duration
}

// Exam defaults.
const (
	DefaultTotalTimeSeconds  = 30 * 60
	DefaultPassingPercentage = 60
	DefaultMaxViolations     = 3
	DefaultPersistenceKey    = "exam_session_v1"
	DefaultTickInterval      = time.Second
)

// DefaultExamConfig returns the exam configuration used when nothing is overridden.
func DefaultExamConfig() ExamConfig {
	return ExamConfig{
		TotalTimeSeconds:  DefaultTotalTimeSeconds,
		PassingPercentage: DefaultPassingPercentage,
		MaxViolations:     DefaultMaxViolations,
		PersistenceKey:    DefaultPersistenceKey,
		TickInterval:      DefaultTickInterval,
	}
}

// Load reads configuration from environment variables with sensible defaults.
// It loads .env file if present but does not fail if missing.
func Load() *Config {
	_ = godotenv.Load() // .env is optional

	return &Config{
		ServerPort:       getEnv("SERVER_PORT", "8080"),
		GinMode:          getEnv("GIN_MODE", "debug"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "pretty"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		MaxDBConns:       int32(getEnvInt("MAX_DB_CONNS", 4)),
		RedisURL:         getEnv("REDIS_URL", "redis://localhost:6379/0"),
		SQLitePath:       getEnv("SQLITE_PATH", "exam.db"),
		JWTSecret:        getEnv("JWT_SECRET", "change-this-to-a-secure-random-string"),
		JWTExpiry:        time.Duration(getEnvInt("JWT_EXPIRY_HOURS", 6)) * time.Hour,
		AllowedOrigins:   parseOrigins(getEnv("ALLOWED_ORIGINS", "")),
		MonitorToken:     os.Getenv("MONITOR_TOKEN"),
		SnapshotStore:    strings.ToLower(getEnv("SNAPSHOT_STORE", StoreRedis)),
		SnapshotTTL:      time.Duration(getEnvInt("SNAPSHOT_TTL_HOURS", 24)) * time.Hour,
		QuestionBankPath: os.Getenv("QUESTION_BANK_PATH"),
		Exam: ExamConfig{
			TotalTimeSeconds:  getEnvInt("EXAM_TOTAL_TIME_SECONDS", DefaultTotalTimeSeconds),
			PassingPercentage: getEnvInt("EXAM_PASSING_PERCENTAGE", DefaultPassingPercentage),
			MaxViolations:     getEnvInt("EXAM_MAX_VIOLATIONS", DefaultMaxViolations),
			PersistenceKey:    getEnv("EXAM_PERSISTENCE_KEY", DefaultPersistenceKey),
			TickInterval:      time.Duration(getEnvInt("EXAM_TICK_INTERVAL_MS", 1000)) * time.Millisecond,
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// parseOrigins splits a comma-separated origins string into a trimmed slice.
// Returns nil (allow-all) if the input is empty.
func parseOrigins(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

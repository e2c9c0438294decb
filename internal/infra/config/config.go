package config

import (
	"fmt"
	"os"
	"strconv"
	"strings" // For LogLevel normalization
	"time"

	"github.com/joho/godotenv"
)

const (
	EmailProviderSendGrid = "sendgrid"
	EmailProviderSES      = "ses"
)

var defaultCORSOrigins = []string{"https://chanjo-chonjo.netlify.app", "http://localhost:5173"}

// AppConfig holds all configuration for the application
type AppConfig struct {
	DatabaseURL       string
	DBMaxOpenConns    int
	DBConnectAttempts int // pings before giving up at startup
	LogLevel    string
	Environment string

	HTTPAddr           string
	JWTSecret          string
	CORSAllowedOrigins []string

	CronSpecWeeklyReminders string
	CronSpecDailyReminders  string
	SweepTimeout            time.Duration
	Location                *time.Location // wall clock for reminder times and cron

	EmailProvider    string
	SendGridAPIKey   string
	EmailFromAddress string
	EmailFromName    string
	AWSRegion        string

	TelegramToken   string // optional, enables the operator bot
	AdminTelegramID int64
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	cfg.DBMaxOpenConns, err = intFromEnv("DB_MAX_OPEN_CONNS", 25)
	if err != nil {
		return nil, err
	}
	cfg.DBConnectAttempts, err = intFromEnv("DB_CONNECT_ATTEMPTS", 5)
	if err != nil {
		return nil, err
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is not set")
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	cfg.HTTPAddr = os.Getenv("HTTP_ADDR")
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":3000"
	}

	cfg.CORSAllowedOrigins = splitList(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = defaultCORSOrigins
	}

	cfg.CronSpecWeeklyReminders = os.Getenv("CRON_SPEC_WEEKLY_REMINDERS")
	if cfg.CronSpecWeeklyReminders == "" {
		cfg.CronSpecWeeklyReminders = "0 14 * * *" // Default: 2 PM daily
	}
	cfg.CronSpecDailyReminders = os.Getenv("CRON_SPEC_DAILY_REMINDERS")
	if cfg.CronSpecDailyReminders == "" {
		cfg.CronSpecDailyReminders = "0 14 * * *" // Default: 2 PM daily
	}

	cfg.SweepTimeout = 5 * time.Minute
	if v := os.Getenv("SWEEP_TIMEOUT"); v != "" {
		cfg.SweepTimeout, err = time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SWEEP_TIMEOUT: %w", err)
		}
	}

	cfg.Location = time.Local
	if tz := os.Getenv("TIMEZONE"); tz != "" {
		cfg.Location, err = time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
		}
	}

	cfg.EmailProvider = strings.ToLower(os.Getenv("EMAIL_PROVIDER"))
	if cfg.EmailProvider == "" {
		cfg.EmailProvider = EmailProviderSendGrid
	}
	cfg.EmailFromAddress = os.Getenv("EMAIL_FROM_ADDRESS")
	if cfg.EmailFromAddress == "" {
		return nil, fmt.Errorf("EMAIL_FROM_ADDRESS is not set")
	}
	cfg.EmailFromName = os.Getenv("EMAIL_FROM_NAME")
	if cfg.EmailFromName == "" {
		cfg.EmailFromName = "Chanjo Chonjo"
	}

	switch cfg.EmailProvider {
	case EmailProviderSendGrid:
		cfg.SendGridAPIKey = os.Getenv("SENDGRID_API_KEY")
		if cfg.SendGridAPIKey == "" {
			return nil, fmt.Errorf("SENDGRID_API_KEY is not set")
		}
	case EmailProviderSES:
		cfg.AWSRegion = os.Getenv("AWS_REGION")
		if cfg.AWSRegion == "" {
			return nil, fmt.Errorf("AWS_REGION is not set")
		}
	default:
		return nil, fmt.Errorf("unsupported EMAIL_PROVIDER %q", cfg.EmailProvider)
	}

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if cfg.TelegramToken != "" {
		adminIDStr := os.Getenv("ADMIN_TELEGRAM_ID")
		if adminIDStr == "" {
			return nil, fmt.Errorf("ADMIN_TELEGRAM_ID is not set")
		}
		cfg.AdminTelegramID, err = strconv.ParseInt(adminIDStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID: %w", err)
		}
	}

	return cfg, nil
}

// intFromEnv reads a positive integer, falling back to def when the variable is unset.
func intFromEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid %s: must be a positive integer", key)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

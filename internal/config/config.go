package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	BackendREST   = "rest"
	BackendMemory = "memory"

	HolidaysBrasilAPI = "brasilapi"
	HolidaysGoogle    = "google"
	HolidaysNone      = "none"
)

type Config struct {
	// HTTP Server
	Port     string
	LogLevel string

	// REST backend
	DataBackend string
	APIBaseURL  string
	APITimeout  time.Duration

	// Local state (acknowledged notifications, session flag, holiday cache)
	StateDBPath string

	// Holidays
	HolidaySource    string
	HolidayBaseURL   string
	GoogleAPIKey     string
	GoogleCalendarID string
	HolidayCacheTTL  time.Duration

	// Read cache
	CacheTTL  time.Duration
	CacheSize int

	// AMQP (optional, cross-device acknowledgment sync)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Domain
	UpcomingWindowDays      int
	RecurrenceHorizonMonths int
}

func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8081"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DataBackend: getEnv("DATA_BACKEND", BackendREST),
		APIBaseURL:  getEnv("API_BASE_URL", "http://localhost:8000/api"),
		APITimeout:  getEnvDuration("API_TIMEOUT", 10*time.Second),

		StateDBPath: getEnv("STATE_DB_PATH", "./data/easyfinances.db"),

		HolidaySource:    getEnv("HOLIDAY_SOURCE", HolidaysBrasilAPI),
		HolidayBaseURL:   getEnv("HOLIDAY_BASE_URL", "https://brasilapi.com.br/api/feriados/v1"),
		GoogleAPIKey:     getEnv("GOOGLE_API_KEY", ""),
		GoogleCalendarID: getEnv("GOOGLE_HOLIDAY_CALENDAR_ID", "pt-br.brazilian#holiday@group.v.calendar.google.com"),
		HolidayCacheTTL:  getEnvDuration("HOLIDAY_CACHE_TTL", 24*time.Hour),

		CacheTTL:  getEnvDuration("CACHE_TTL", 30*time.Second),
		CacheSize: getEnvInt("CACHE_SIZE", 128),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "easyfinances"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "notification_acks"),

		UpcomingWindowDays:      getEnvInt("UPCOMING_WINDOW_DAYS", 30),
		RecurrenceHorizonMonths: getEnvInt("RECURRENCE_HORIZON_MONTHS", 24),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.DataBackend {
	case BackendREST:
		if u, err := url.Parse(c.APIBaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errors = append(errors, fmt.Sprintf("invalid API base URL '%s': must be an absolute http(s) URL", c.APIBaseURL))
		}
	case BackendMemory:
	default:
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of [%s %s]", c.DataBackend, BackendREST, BackendMemory))
	}

	if c.APITimeout < time.Second || c.APITimeout > 2*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid API timeout %v: must be between 1s and 2m", c.APITimeout))
	}

	if strings.TrimSpace(c.StateDBPath) == "" {
		errors = append(errors, "state database path cannot be empty")
	}

	switch c.HolidaySource {
	case HolidaysBrasilAPI:
		if _, err := url.Parse(c.HolidayBaseURL); err != nil || c.HolidayBaseURL == "" {
			errors = append(errors, fmt.Sprintf("invalid holiday base URL '%s'", c.HolidayBaseURL))
		}
	case HolidaysGoogle:
		if c.GoogleAPIKey == "" {
			errors = append(errors, "GOOGLE_API_KEY is required when HOLIDAY_SOURCE=google")
		}
		if c.GoogleCalendarID == "" {
			errors = append(errors, "GOOGLE_HOLIDAY_CALENDAR_ID cannot be empty when HOLIDAY_SOURCE=google")
		}
	case HolidaysNone:
	default:
		errors = append(errors, fmt.Sprintf("invalid holiday source '%s': must be one of [%s %s %s]", c.HolidaySource, HolidaysBrasilAPI, HolidaysGoogle, HolidaysNone))
	}

	if c.CacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid cache size %d: must be at least 1", c.CacheSize))
	}
	if c.CacheTTL <= 0 {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must be positive", c.CacheTTL))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.UpcomingWindowDays < 1 || c.UpcomingWindowDays > 366 {
		errors = append(errors, fmt.Sprintf("invalid upcoming window %d: must be between 1 and 366 days", c.UpcomingWindowDays))
	}
	if c.RecurrenceHorizonMonths < 1 || c.RecurrenceHorizonMonths > 120 {
		errors = append(errors, fmt.Sprintf("invalid recurrence horizon %d: must be between 1 and 120 months", c.RecurrenceHorizonMonths))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

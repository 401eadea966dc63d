package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port               string
	Env                string
	LogLevel           string
	CORSAllowedOrigins []string

	// Estimator catalog (YAML or JSON); empty uses the built-in catalog.
	CatalogPath string

	// Quote sessions
	SessionTTL           time.Duration
	SessionSweepInterval time.Duration
	NotifyTimeout        time.Duration
	MaxSessions          int
	SubmitRateLimit      float64
	SubmitRateBurst      int
	SessionRateLimit     float64
	SessionRateBurst     int

	// Lead archive
	DatabaseURL string

	// Session snapshots
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	AdminJWTSecret string

	// Notifications: "sendgrid", "ses" or "stub"
	EmailProvider       string
	LeadRecipient       string
	LeadRecipientName   string
	LeadTemplateID      string
	ContactRecipient    string
	SendGridAPIKey      string
	SendGridFromEmail   string
	SendGridFromName    string
	SESFromEmail        string
	SESFromName         string
	SESConfigurationSet string
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", nil),

		CatalogPath: getEnv("CATALOG_PATH", ""),

		SessionTTL:           getEnvAsDuration("SESSION_TTL", 2*time.Hour),
		SessionSweepInterval: getEnvAsDuration("SESSION_SWEEP_INTERVAL", 5*time.Minute),
		NotifyTimeout:        getEnvAsDuration("NOTIFY_TIMEOUT", 5*time.Second),
		MaxSessions:          getEnvAsInt("MAX_SESSIONS", 10000),
		SubmitRateLimit:      getEnvAsFloat("SUBMIT_RATE_LIMIT", 0.2),
		SubmitRateBurst:      getEnvAsInt("SUBMIT_RATE_BURST", 5),
		SessionRateLimit:     getEnvAsFloat("SESSION_RATE_LIMIT", 0.5),
		SessionRateBurst:     getEnvAsInt("SESSION_RATE_BURST", 10),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),

		EmailProvider:       strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "stub"))),
		LeadRecipient:       getEnv("LEAD_RECIPIENT_EMAIL", ""),
		LeadRecipientName:   getEnv("LEAD_RECIPIENT_NAME", ""),
		LeadTemplateID:      getEnv("LEAD_TEMPLATE_ID", "quote_request"),
		ContactRecipient:    getEnv("CONTACT_RECIPIENT_EMAIL", ""),
		SendGridAPIKey:      getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail:   getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:    getEnv("SENDGRID_FROM_NAME", "Site Quotes"),
		SESFromEmail:        getEnv("SES_FROM_EMAIL", ""),
		SESFromName:         getEnv("SES_FROM_NAME", "Site Quotes"),
		SESConfigurationSet: getEnv("SES_CONFIGURATION_SET", ""),
		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
	}
}

// ContactRecipientOrDefault falls back to the lead inbox when no separate
// contact inbox is configured.
func (c *Config) ContactRecipientOrDefault() string {
	if strings.TrimSpace(c.ContactRecipient) != "" {
		return c.ContactRecipient
	}
	return c.LeadRecipient
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma separated variable, dropping blanks.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

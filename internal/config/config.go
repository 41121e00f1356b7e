package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"beloop-server/internal/domain"
)

// AppConfig implements the domain.Config interface
type AppConfig struct {
	ServerPort         string
	LogLevel           string
	JWTSecret          string
	SessionTTL         time.Duration
	SupabaseURL        string
	SupabaseKey        string
	GeminiAPIKey       string
	GeminiModel        string
	GCPProjectID       string
	GCPLocation        string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	FrontendURL        string
	AllowedOrigins     []string
	PaymentDelay       time.Duration
	PaymentFailureRate float64
	DemoUserEmail      string
	DemoUserPassword   string
}

// NewConfig creates a new configuration instance with default values
func NewConfig() domain.Config {
	return &AppConfig{
		// Cloud Run (and many PaaS) provide the listening port via PORT.
		// Keep SERVER_PORT for local/dev compatibility.
		ServerPort:         getEnvOrDefault("PORT", getEnvOrDefault("SERVER_PORT", "8080")),
		LogLevel:           getEnvOrDefault("LOG_LEVEL", "info"),
		JWTSecret:          getEnvOrDefault("JWT_SECRET", ""),
		SessionTTL:         getEnvDurationOrDefault("SESSION_TTL", 30*24*time.Hour),
		SupabaseURL:        getEnvOrDefault("SUPABASE_URL", ""),
		SupabaseKey:        getEnvOrDefault("SUPABASE_SERVICE_KEY", getEnvOrDefault("SUPABASE_ANON_KEY", "")),
		GeminiAPIKey:       getEnvOrDefault("GEMINI_API_KEY", getEnvOrDefault("GOOGLE_API_KEY", "")),
		GeminiModel:        getEnvOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),
		GCPProjectID:       getEnvOrDefault("GCP_PROJECT_ID", ""),
		GCPLocation:        getEnvOrDefault("GCP_LOCATION", "us-central1"),
		GoogleClientID:     getEnvOrDefault("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnvOrDefault("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnvOrDefault("GOOGLE_REDIRECT_URL", "http://localhost:8080/api/v1/auth/google/callback"),
		FrontendURL:        getEnvOrDefault("FRONTEND_URL", "http://localhost:3000"),
		AllowedOrigins: getEnvListOrDefault("CORS_ALLOWED_ORIGINS", []string{
			"http://localhost:3000", // Next.js dev server
			"http://localhost:3001",
		}),
		PaymentDelay:       getEnvDurationOrDefault("PAYMENT_DELAY", 1500*time.Millisecond),
		PaymentFailureRate: getEnvFloatOrDefault("PAYMENT_FAILURE_RATE", 0.1),
		DemoUserEmail:      getEnvOrDefault("DEMO_USER_EMAIL", ""),
		DemoUserPassword:   getEnvOrDefault("DEMO_USER_PASSWORD", ""),
	}
}

// GetServerPort returns the server port
func (c *AppConfig) GetServerPort() string {
	return c.ServerPort
}

// GetLogLevel returns the logging level
func (c *AppConfig) GetLogLevel() string {
	return c.LogLevel
}

// GetJWTSecret returns the session signing secret
func (c *AppConfig) GetJWTSecret() string {
	return c.JWTSecret
}

// GetSessionTTL returns how long issued session tokens stay valid
func (c *AppConfig) GetSessionTTL() time.Duration {
	return c.SessionTTL
}

// GetSupabaseURL returns the Supabase URL
func (c *AppConfig) GetSupabaseURL() string {
	return c.SupabaseURL
}

// GetSupabaseKey returns the Supabase key
func (c *AppConfig) GetSupabaseKey() string {
	return c.SupabaseKey
}

func (c *AppConfig) GetGeminiAPIKey() string {
	return c.GeminiAPIKey
}

func (c *AppConfig) GetGeminiModel() string {
	return c.GeminiModel
}

func (c *AppConfig) GetGCPProjectID() string {
	return c.GCPProjectID
}

func (c *AppConfig) GetGCPLocation() string {
	return c.GCPLocation
}

func (c *AppConfig) GetGoogleClientID() string {
	return c.GoogleClientID
}

func (c *AppConfig) GetGoogleClientSecret() string {
	return c.GoogleClientSecret
}

func (c *AppConfig) GetGoogleRedirectURL() string {
	return c.GoogleRedirectURL
}

// GetFrontendURL is where OAuth callbacks send the browser back to
func (c *AppConfig) GetFrontendURL() string {
	return c.FrontendURL
}

func (c *AppConfig) GetAllowedOrigins() []string {
	return c.AllowedOrigins
}

func (c *AppConfig) GetPaymentDelay() time.Duration {
	return c.PaymentDelay
}

func (c *AppConfig) GetPaymentFailureRate() float64 {
	return c.PaymentFailureRate
}

func (c *AppConfig) GetDemoUserEmail() string {
	return c.DemoUserEmail
}

func (c *AppConfig) GetDemoUserPassword() string {
	return c.DemoUserPassword
}

// Helper functions for environment variable handling
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil && f >= 0 && f <= 1 {
			return f
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d >= 0 {
			return d
		}
	}
	return defaultValue
}

func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

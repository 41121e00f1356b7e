package domain

import "time"

// Logger defines the interface for logging operations
type Logger interface {
	Info(msg string, fields ...interface{})
	Error(msg string, err error, fields ...interface{})
	Debug(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
}

// Config defines the interface for configuration management
type Config interface {
	GetServerPort() string
	GetLogLevel() string
	GetJWTSecret() string
	GetSessionTTL() time.Duration
	GetSupabaseURL() string
	GetSupabaseKey() string
	GetGeminiAPIKey() string
	GetGeminiModel() string
	GetGCPProjectID() string
	GetGCPLocation() string
	GetGoogleClientID() string
	GetGoogleClientSecret() string
	GetGoogleRedirectURL() string
	GetFrontendURL() string
	GetAllowedOrigins() []string
	GetPaymentDelay() time.Duration
	GetPaymentFailureRate() float64
	GetDemoUserEmail() string
	GetDemoUserPassword() string
}

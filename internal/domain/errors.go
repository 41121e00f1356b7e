package domain

import "errors"

// Domain errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrOAuthNotConfigured = errors.New("google sign-in is not configured")
	ErrAccessDenied       = errors.New("access denied")

	ErrTierNotFound             = errors.New("membership tier not found")
	ErrDailyLimitReached        = errors.New("daily message limit reached")
	ErrConversationLimitReached = errors.New("conversation limit reached")
	ErrMessageTooLong           = errors.New("message exceeds tier length limit")
	ErrModelNotAllowed          = errors.New("model not available on current tier")

	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrPaymentDeclined      = errors.New("payment declined")
	ErrTierNotPurchasable   = errors.New("tier cannot be purchased")
	ErrIdempotencyKeyReused = errors.New("idempotency key was used for a different checkout")

	ErrConversationNotFound = errors.New("conversation not found")
	ErrModelUnavailable     = errors.New("chat model unavailable")

	ErrFavoriteNotFound = errors.New("favorite not found")
	ErrFavoriteExists   = errors.New("item already in favorites")
)

// ValidationError represents a validation error with field and message information.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return e.Field + ": " + e.Message
	}
	return e.Message
}

// NewValidationError is a shorthand for a field-level ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"beloop-server/internal/domain"
	apperrors "beloop-server/pkg/errors"
)

type contextKey string

const (
	userContextKey  contextKey = "user"
	tokenContextKey contextKey = "token"
)

const maxBodyBytes = 1 << 20

// GetUserFromContext extracts the authenticated user from request context
func GetUserFromContext(r *http.Request) (*domain.User, bool) {
	user, ok := r.Context().Value(userContextKey).(*domain.User)
	return user, ok && user != nil
}

// GetTokenFromContext extracts the authentication token from request context
func GetTokenFromContext(r *http.Request) (string, bool) {
	token, ok := r.Context().Value(tokenContextKey).(string)
	return token, ok
}

// writeError writes an error response (helper function)
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

// respondError maps err to an HTTP status and writes {"error","type"}.
// Server-side failures are logged; client errors are not.
func respondError(w http.ResponseWriter, logger domain.Logger, err error) {
	appErr := toAppError(err)
	if appErr.StatusCode >= http.StatusInternalServerError && logger != nil {
		logger.Error("Request failed", err, "type", appErr.Type)
	}
	writeJSON(w, appErr.StatusCode, map[string]string{
		"error": appErr.Message,
		"type":  string(appErr.Type),
	})
}

func toAppError(err error) *apperrors.AppError {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		return apperrors.NewValidationError(vErr.Message, vErr.Field)
	}

	switch {
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrConversationNotFound),
		errors.Is(err, domain.ErrSubscriptionNotFound),
		errors.Is(err, domain.ErrPaymentNotFound),
		errors.Is(err, domain.ErrFavoriteNotFound),
		errors.Is(err, domain.ErrTierNotFound):
		return apperrors.NewNotFoundError(err.Error())
	case errors.Is(err, domain.ErrEmailTaken),
		errors.Is(err, domain.ErrFavoriteExists),
		errors.Is(err, domain.ErrIdempotencyKeyReused):
		return apperrors.NewConflictError(err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrInvalidToken):
		return apperrors.NewUnauthorizedError(err.Error())
	case errors.Is(err, domain.ErrAccessDenied):
		return apperrors.NewForbiddenError(err.Error())
	case errors.Is(err, domain.ErrDailyLimitReached):
		return apperrors.NewRateLimitedError(err.Error())
	case errors.Is(err, domain.ErrConversationLimitReached),
		errors.Is(err, domain.ErrModelNotAllowed),
		errors.Is(err, domain.ErrPaymentDeclined):
		return apperrors.NewPaymentRequiredError(err.Error(), err)
	case errors.Is(err, domain.ErrMessageTooLong),
		errors.Is(err, domain.ErrTierNotPurchasable):
		return apperrors.NewValidationError(err.Error())
	case errors.Is(err, domain.ErrOAuthNotConfigured),
		errors.Is(err, domain.ErrModelUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewNetworkError("service temporarily unavailable", err)
	default:
		return apperrors.NewInternalError("internal server error", err)
	}
}

// pageFromQuery reads ?limit= and ?offset=.
func pageFromQuery(r *http.Request) (domain.PageRequest, error) {
	var page domain.PageRequest
	q := r.URL.Query()
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return page, domain.NewValidationError("limit", "limit must be a non-negative integer")
		}
		page.Limit = n
	}
	if raw := q.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return page, domain.NewValidationError("offset", "offset must be a non-negative integer")
		}
		page.Offset = n
	}
	return page.Normalize(), nil
}

package handler

import (
	"errors"
	"net/http"
	"strings"

	"beloop-server/internal/domain"
)

type SubscriptionHandler struct {
	payments domain.PaymentService
	logger   domain.Logger
}

func NewSubscriptionHandler(payments domain.PaymentService, logger domain.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{payments: payments, logger: logger}
}

func (h *SubscriptionHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := GetUserFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "User not found in context")
		return
	}

	sub, err := h.payments.GetSubscription(r.Context(), user.ID)
	if errors.Is(err, domain.ErrSubscriptionNotFound) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"subscription": nil})
		return
	}
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"subscription": sub})
}

// Create runs checkout. The Idempotency-Key header is used when the body
// does not carry a key.
func (h *SubscriptionHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := GetUserFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "User not found in context")
		return
	}

	var req domain.CreateSubscriptionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	}

	result, err := h.payments.CreateSubscription(r.Context(), user.ID, req)
	if err != nil {
		if errors.Is(err, domain.ErrPaymentDeclined) && result != nil {
			writeJSON(w, http.StatusPaymentRequired, map[string]interface{}{
				"error":   err.Error(),
				"type":    "payment_required",
				"payment": result.Payment,
			})
			return
		}
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

type cancelRequest struct {
	Immediate bool `json:"immediate"`
}

func (h *SubscriptionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	user, ok := GetUserFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "User not found in context")
		return
	}

	var req cancelRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	sub, err := h.payments.CancelSubscription(r.Context(), user.ID, req.Immediate)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"subscription": sub})
}

func (h *SubscriptionHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	user, ok := GetUserFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "User not found in context")
		return
	}

	payments, err := h.payments.ListPayments(r.Context(), user.ID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"payments": payments})
}

package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"beloop-server/internal/domain"
)

func checkoutBody(card string) map[string]interface{} {
	return map[string]interface{}{
		"tier_id":       "pro",
		"billing_cycle": "monthly",
		"payment_method": map[string]interface{}{
			"type":        "card",
			"card_number": card,
			"exp_month":   12,
			"exp_year":    time.Now().Year() + 1,
			"cvc":         "123",
		},
	}
}

func TestSubscriptionHandler_CheckoutAndCancel(t *testing.T) {
	app := newTestApp(t)
	token := app.signUp(t, "buyer@example.com")

	rr := app.do(t, http.MethodGet, "/api/v1/subscription", token, nil)
	expectStatus(t, rr, http.StatusOK)
	if !strings.Contains(rr.Body.String(), `"subscription":null`) {
		t.Fatalf("expected no subscription, got %s", rr.Body.String())
	}

	rr = app.do(t, http.MethodPost, "/api/v1/subscription", token, checkoutBody("4242424242424242"))
	expectStatus(t, rr, http.StatusCreated)
	var result domain.SubscriptionResult
	decodeBody(t, rr, &result)
	if result.Subscription == nil || result.Subscription.TierID != domain.TierPro {
		t.Fatalf("unexpected result: %s", rr.Body.String())
	}
	if strings.Contains(rr.Body.String(), "4242424242424242") {
		t.Fatalf("full card number leaked: %s", rr.Body.String())
	}

	rr = app.do(t, http.MethodGet, "/api/v1/membership/usage", token, nil)
	expectStatus(t, rr, http.StatusOK)
	var usage domain.UsageStatus
	decodeBody(t, rr, &usage)
	if usage.TierID != domain.TierPro || usage.MessagesPerDay != 200 {
		t.Fatalf("expected pro usage, got %+v", usage)
	}

	rr = app.do(t, http.MethodPost, "/api/v1/subscription/cancel", token, map[string]bool{"immediate": true})
	expectStatus(t, rr, http.StatusOK)

	rr = app.do(t, http.MethodGet, "/api/v1/membership", token, nil)
	expectStatus(t, rr, http.StatusOK)
	if !strings.Contains(rr.Body.String(), `"tier_id":"free"`) {
		t.Fatalf("expected free tier after cancel, got %s", rr.Body.String())
	}

	rr = app.do(t, http.MethodPost, "/api/v1/subscription/cancel", token, nil)
	expectStatus(t, rr, http.StatusNotFound)
}

func TestSubscriptionHandler_Declined(t *testing.T) {
	app := newTestApp(t)
	token := app.signUp(t, "declined@example.com")

	rr := app.do(t, http.MethodPost, "/api/v1/subscription", token, checkoutBody("4000 0000 0000 0002"))
	expectStatus(t, rr, http.StatusPaymentRequired)
	if !strings.Contains(rr.Body.String(), "card_declined") {
		t.Fatalf("expected decline reason, got %s", rr.Body.String())
	}

	rr = app.do(t, http.MethodGet, "/api/v1/payments", token, nil)
	expectStatus(t, rr, http.StatusOK)
	if !strings.Contains(rr.Body.String(), `"status":"failed"`) {
		t.Fatalf("expected failed payment in history, got %s", rr.Body.String())
	}
}

func TestSubscriptionHandler_IdempotencyHeader(t *testing.T) {
	app := newTestApp(t)
	token := app.signUp(t, "retry@example.com")

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/subscription",
			strings.NewReader(`{"tier_id":"premium","payment_method":{"card_number":"4242424242424242","exp_month":12,"exp_year":2099,"cvc":"123"}}`))
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Idempotency-Key", "retry-1")
		rr := httptest.NewRecorder()
		app.router.ServeHTTP(rr, req)
		return rr
	}

	first := send()
	expectStatus(t, first, http.StatusCreated)
	second := send()
	expectStatus(t, second, http.StatusCreated)

	var a, b domain.SubscriptionResult
	decodeBody(t, first, &a)
	decodeBody(t, second, &b)
	if a.Subscription.ID != b.Subscription.ID || a.Payment.ID != b.Payment.ID {
		t.Fatalf("expected replayed result, got %s and %s", a.Subscription.ID, b.Subscription.ID)
	}
}

func TestSubscriptionHandler_RejectsFreeTier(t *testing.T) {
	app := newTestApp(t)
	token := app.signUp(t, "free@example.com")

	body := checkoutBody("4242424242424242")
	body["tier_id"] = "free"
	rr := app.do(t, http.MethodPost, "/api/v1/subscription", token, body)
	expectStatus(t, rr, http.StatusBadRequest)
}

func TestSubscriptionHandler_IdempotencyKeyConflict(t *testing.T) {
	app := newTestApp(t)
	token := app.signUp(t, "conflict@example.com")

	body := checkoutBody("4242424242424242")
	body["idempotency_key"] = "checkout-1"
	expectStatus(t, app.do(t, http.MethodPost, "/api/v1/subscription", token, body), http.StatusCreated)

	body["tier_id"] = "enterprise"
	expectStatus(t, app.do(t, http.MethodPost, "/api/v1/subscription", token, body), http.StatusConflict)
}

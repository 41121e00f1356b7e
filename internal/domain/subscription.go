package domain

import (
	"context"
	"strings"
	"time"
)

type BillingCycle string

const (
	BillingMonthly BillingCycle = "monthly"
	BillingYearly  BillingCycle = "yearly"
)

// Valid reports whether c is a known billing cycle.
func (c BillingCycle) Valid() bool {
	return c == BillingMonthly || c == BillingYearly
}

// PeriodEnd returns the end of a period that starts at start.
func (c BillingCycle) PeriodEnd(start time.Time) time.Time {
	if c == BillingYearly {
		return start.AddDate(1, 0, 0)
	}
	return start.AddDate(0, 1, 0)
}

type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionCanceled SubscriptionStatus = "canceled"
)

// Subscription is a paid membership created by the payment flow.
type Subscription struct {
	ID                 string             `json:"id"`
	UserID             string             `json:"user_id"`
	TierID             TierID             `json:"tier_id"`
	BillingCycle       BillingCycle       `json:"billing_cycle"`
	Status             SubscriptionStatus `json:"status"`
	AmountCents        int64              `json:"amount_cents"`
	Currency           string             `json:"currency"`
	PaymentMethodLast4 string             `json:"payment_method_last4,omitempty"`
	CurrentPeriodStart time.Time          `json:"current_period_start"`
	CurrentPeriodEnd   time.Time          `json:"current_period_end"`
	CancelAtPeriodEnd  bool               `json:"cancel_at_period_end"`
	CreatedAt          time.Time          `json:"created_at"`
	CanceledAt         *time.Time         `json:"canceled_at,omitempty"`
}

type PaymentStatus string

const (
	PaymentSucceeded PaymentStatus = "succeeded"
	PaymentFailed    PaymentStatus = "failed"
)

// Payment records one charge attempt.
type Payment struct {
	ID             string        `json:"id"`
	UserID         string        `json:"user_id"`
	SubscriptionID string        `json:"subscription_id,omitempty"`
	TierID         TierID        `json:"tier_id"`
	BillingCycle   BillingCycle  `json:"billing_cycle"`
	TransactionID  string        `json:"transaction_id"`
	AmountCents    int64         `json:"amount_cents"`
	Currency       string        `json:"currency"`
	Status         PaymentStatus `json:"status"`
	FailureReason  string        `json:"failure_reason,omitempty"`
	IdempotencyKey string        `json:"-"`
	CreatedAt      time.Time     `json:"created_at"`
}

// PaymentMethod is the card data submitted by the checkout form.
// Only the last four digits are ever stored.
type PaymentMethod struct {
	Type       string `json:"type"`
	CardNumber string `json:"card_number"`
	ExpMonth   int    `json:"exp_month"`
	ExpYear    int    `json:"exp_year"`
	CVC        string `json:"cvc"`
}

// Digits returns the card number with spaces and dashes removed.
func (p PaymentMethod) Digits() string {
	return strings.NewReplacer(" ", "", "-", "").Replace(p.CardNumber)
}

// Last4 returns the last four digits of the card number.
func (p PaymentMethod) Last4() string {
	d := p.Digits()
	if len(d) < 4 {
		return d
	}
	return d[len(d)-4:]
}

// Validate checks the card fields against now for expiry.
func (p PaymentMethod) Validate(now time.Time) error {
	d := p.Digits()
	if len(d) < 12 || len(d) > 19 {
		return NewValidationError("payment_method.card_number", "invalid card number")
	}
	for _, r := range d {
		if r < '0' || r > '9' {
			return NewValidationError("payment_method.card_number", "invalid card number")
		}
	}
	if p.ExpMonth < 1 || p.ExpMonth > 12 {
		return NewValidationError("payment_method.exp_month", "invalid expiry month")
	}
	if p.ExpYear < now.Year() || (p.ExpYear == now.Year() && p.ExpMonth < int(now.Month())) {
		return NewValidationError("payment_method.exp_year", "card expired")
	}
	if len(p.CVC) < 3 || len(p.CVC) > 4 {
		return NewValidationError("payment_method.cvc", "invalid cvc")
	}
	return nil
}

type ChargeRequest struct {
	UserID      string
	AmountCents int64
	Currency    string
	Method      PaymentMethod
	Description string
}

type ChargeResult struct {
	TransactionID string
	Status        PaymentStatus
	FailureReason string
}

// PaymentProcessor charges a payment method. A declined charge returns a
// result with PaymentFailed status and ErrPaymentDeclined.
type PaymentProcessor interface {
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
}

type SubscriptionRepository interface {
	Save(ctx context.Context, sub *Subscription) error
	Get(ctx context.Context, id string) (*Subscription, error)
	GetActive(ctx context.Context, userID string) (*Subscription, error)
	SavePayment(ctx context.Context, payment *Payment) error
	FindPaymentByKey(ctx context.Context, userID, key string) (*Payment, error)
	ListPayments(ctx context.Context, userID string) ([]*Payment, error)
}

type CreateSubscriptionRequest struct {
	TierID         TierID        `json:"tier_id"`
	BillingCycle   BillingCycle  `json:"billing_cycle"`
	PaymentMethod  PaymentMethod `json:"payment_method"`
	IdempotencyKey string        `json:"idempotency_key,omitempty"`
}

type SubscriptionResult struct {
	Subscription *Subscription `json:"subscription"`
	Payment      *Payment      `json:"payment"`
}

type PaymentService interface {
	CreateSubscription(ctx context.Context, userID string, req CreateSubscriptionRequest) (*SubscriptionResult, error)
	CancelSubscription(ctx context.Context, userID string, immediate bool) (*Subscription, error)
	GetSubscription(ctx context.Context, userID string) (*Subscription, error)
	ListPayments(ctx context.Context, userID string) ([]*Payment, error)
}

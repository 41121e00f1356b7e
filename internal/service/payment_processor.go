package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"beloop-server/internal/domain"

	"github.com/google/uuid"
)

// DeclineCardSuffix marks the test card that is always declined.
const DeclineCardSuffix = "0002"

// MockProcessor simulates a card processor with latency and random failures.
type MockProcessor struct {
	delay       time.Duration
	failureRate float64
	random      func() float64
	logger      domain.Logger
}

func NewMockProcessor(delay time.Duration, failureRate float64, logger domain.Logger) *MockProcessor {
	return &MockProcessor{
		delay:       delay,
		failureRate: failureRate,
		random:      rand.Float64,
		logger:      logger,
	}
}

func (p *MockProcessor) Charge(ctx context.Context, req domain.ChargeRequest) (*domain.ChargeResult, error) {
	if p.delay > 0 {
		timer := time.NewTimer(p.delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	result := &domain.ChargeResult{TransactionID: "txn_" + uuid.NewString()}

	switch {
	case req.Method.Last4() == DeclineCardSuffix:
		result.Status = domain.PaymentFailed
		result.FailureReason = "card_declined"
	case p.failureRate > 0 && p.random() < p.failureRate:
		result.Status = domain.PaymentFailed
		result.FailureReason = "processing_error"
	default:
		result.Status = domain.PaymentSucceeded
	}

	if result.Status == domain.PaymentFailed {
		p.logger.Warn("Mock charge declined", "user_id", req.UserID, "amount_cents", req.AmountCents, "reason", result.FailureReason)
		return result, fmt.Errorf("%w: %s", domain.ErrPaymentDeclined, result.FailureReason)
	}

	p.logger.Info("Mock charge succeeded", "user_id", req.UserID, "amount_cents", req.AmountCents, "transaction_id", result.TransactionID)
	return result, nil
}

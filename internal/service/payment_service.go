package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"beloop-server/internal/domain"
	"beloop-server/pkg/keymutex"
)

const currencyUSD = "usd"

type paymentService struct {
	subs       domain.SubscriptionRepository
	processor  domain.PaymentProcessor
	membership domain.MembershipService
	logger     domain.Logger
	now        func() time.Time

	// locks serializes checkout and cancel per user so idempotency lookups
	// and subscription swaps do not race.
	locks *keymutex.KeyMutex
}

func NewPaymentService(
	subs domain.SubscriptionRepository,
	processor domain.PaymentProcessor,
	membership domain.MembershipService,
	logger domain.Logger,
) *paymentService {
	return &paymentService{
		subs:       subs,
		processor:  processor,
		membership: membership,
		logger:     logger,
		now:        time.Now,
		locks:      keymutex.New(),
	}
}

func (s *paymentService) CreateSubscription(ctx context.Context, userID string, req domain.CreateSubscriptionRequest) (*domain.SubscriptionResult, error) {
	tier, ok := domain.LookupTier(req.TierID)
	if !ok {
		return nil, domain.ErrTierNotFound
	}
	if !tier.Purchasable() {
		return nil, domain.ErrTierNotPurchasable
	}
	cycle := req.BillingCycle
	if cycle == "" {
		cycle = domain.BillingMonthly
	}
	if !cycle.Valid() {
		return nil, domain.NewValidationError("billing_cycle", "billing cycle must be monthly or yearly")
	}
	if err := req.PaymentMethod.Validate(s.now().UTC()); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	if req.IdempotencyKey != "" {
		prior, err := s.subs.FindPaymentByKey(ctx, userID, req.IdempotencyKey)
		switch {
		case err == nil:
			if prior.TierID != tier.ID || prior.BillingCycle != cycle {
				return nil, domain.ErrIdempotencyKeyReused
			}
			return s.replay(ctx, prior)
		case !errors.Is(err, domain.ErrPaymentNotFound):
			return nil, fmt.Errorf("failed to look up idempotency key: %w", err)
		}
	}

	amount := tier.PriceCents(cycle)
	charge, err := s.processor.Charge(ctx, domain.ChargeRequest{
		UserID:      userID,
		AmountCents: amount,
		Currency:    currencyUSD,
		Method:      req.PaymentMethod,
		Description: fmt.Sprintf("Beloop AI %s (%s)", tier.Name, cycle),
	})
	if charge == nil {
		return nil, fmt.Errorf("payment processing failed: %w", err)
	}

	now := s.now().UTC()
	payment := &domain.Payment{
		UserID:         userID,
		TierID:         tier.ID,
		BillingCycle:   cycle,
		TransactionID:  charge.TransactionID,
		AmountCents:    amount,
		Currency:       currencyUSD,
		Status:         charge.Status,
		FailureReason:  charge.FailureReason,
		IdempotencyKey: req.IdempotencyKey,
		CreatedAt:      now,
	}

	if charge.Status != domain.PaymentSucceeded {
		if saveErr := s.subs.SavePayment(ctx, payment); saveErr != nil {
			s.logger.Error("Failed to record declined payment", saveErr, "user_id", userID)
		}
		if err == nil {
			err = fmt.Errorf("%w: %s", domain.ErrPaymentDeclined, charge.FailureReason)
		}
		return &domain.SubscriptionResult{Payment: payment}, err
	}

	if prev, err := s.subs.GetActive(ctx, userID); err == nil {
		prev.Status = domain.SubscriptionCanceled
		prev.CanceledAt = &now
		if err := s.subs.Save(ctx, prev); err != nil {
			return nil, fmt.Errorf("failed to cancel previous subscription: %w", err)
		}
		s.logger.Info("Previous subscription replaced", "user_id", userID, "subscription_id", prev.ID)
	} else if !errors.Is(err, domain.ErrSubscriptionNotFound) {
		return nil, fmt.Errorf("failed to load active subscription: %w", err)
	}

	sub := &domain.Subscription{
		UserID:             userID,
		TierID:             tier.ID,
		BillingCycle:       cycle,
		Status:             domain.SubscriptionActive,
		AmountCents:        amount,
		Currency:           currencyUSD,
		PaymentMethodLast4: req.PaymentMethod.Last4(),
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   cycle.PeriodEnd(now),
		CreatedAt:          now,
	}
	if err := s.subs.Save(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to save subscription: %w", err)
	}

	payment.SubscriptionID = sub.ID
	if err := s.subs.SavePayment(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	periodEnd := sub.CurrentPeriodEnd
	if _, err := s.membership.SetTier(ctx, userID, tier.ID, &periodEnd); err != nil {
		return nil, fmt.Errorf("failed to upgrade membership: %w", err)
	}

	s.logger.Info("Subscription created", "user_id", userID, "subscription_id", sub.ID, "tier", tier.ID, "cycle", cycle)
	return &domain.SubscriptionResult{Subscription: sub, Payment: payment}, nil
}

// replay returns the outcome recorded for an earlier request with the same key.
func (s *paymentService) replay(ctx context.Context, prior *domain.Payment) (*domain.SubscriptionResult, error) {
	s.logger.Debug("Replaying idempotent checkout", "user_id", prior.UserID, "payment_id", prior.ID)
	if prior.Status != domain.PaymentSucceeded {
		return &domain.SubscriptionResult{Payment: prior}, fmt.Errorf("%w: %s", domain.ErrPaymentDeclined, prior.FailureReason)
	}
	sub, err := s.subs.Get(ctx, prior.SubscriptionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load subscription for replay: %w", err)
	}
	return &domain.SubscriptionResult{Subscription: sub, Payment: prior}, nil
}

// CancelSubscription ends the active subscription. An immediate cancel drops
// the user to the free tier now; otherwise access runs to the period end.
func (s *paymentService) CancelSubscription(ctx context.Context, userID string, immediate bool) (*domain.Subscription, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	sub, err := s.activeSubscription(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if immediate {
		sub.Status = domain.SubscriptionCanceled
		sub.CanceledAt = &now
	} else {
		sub.CancelAtPeriodEnd = true
	}
	if err := s.subs.Save(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to update subscription: %w", err)
	}

	if immediate {
		if _, err := s.membership.SetTier(ctx, userID, domain.TierFree, nil); err != nil {
			return nil, fmt.Errorf("failed to downgrade membership: %w", err)
		}
	}

	s.logger.Info("Subscription canceled", "user_id", userID, "subscription_id", sub.ID, "immediate", immediate)
	return sub, nil
}

func (s *paymentService) GetSubscription(ctx context.Context, userID string) (*domain.Subscription, error) {
	return s.activeSubscription(ctx, userID)
}

func (s *paymentService) ListPayments(ctx context.Context, userID string) ([]*domain.Payment, error) {
	return s.subs.ListPayments(ctx, userID)
}

// activeSubscription returns the user's active subscription, closing it out
// first if its period has ended. Subscriptions do not auto-renew.
func (s *paymentService) activeSubscription(ctx context.Context, userID string) (*domain.Subscription, error) {
	sub, err := s.subs.GetActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if now.Before(sub.CurrentPeriodEnd) {
		return sub, nil
	}

	end := sub.CurrentPeriodEnd
	sub.Status = domain.SubscriptionCanceled
	sub.CanceledAt = &end
	if err := s.subs.Save(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to close lapsed subscription: %w", err)
	}
	s.logger.Info("Subscription lapsed", "user_id", userID, "subscription_id", sub.ID)
	return nil, domain.ErrSubscriptionNotFound
}

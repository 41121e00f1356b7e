package repository

import (
	"context"
	"sort"
	"sync"

	"beloop-server/internal/domain"

	"github.com/google/uuid"
)

// MemorySubscriptionRepository stores subscriptions and payment attempts.
type MemorySubscriptionRepository struct {
	mu            sync.RWMutex
	subscriptions map[string]*domain.Subscription
	payments      []*domain.Payment
}

func NewMemorySubscriptionRepository() *MemorySubscriptionRepository {
	return &MemorySubscriptionRepository{
		subscriptions: make(map[string]*domain.Subscription),
	}
}

func (r *MemorySubscriptionRepository) Save(ctx context.Context, sub *domain.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sub.ID == "" {
		sub.ID = "sub_" + uuid.NewString()
	}
	stored := *sub
	r.subscriptions[sub.ID] = &stored
	return nil
}

func (r *MemorySubscriptionRepository) Get(ctx context.Context, id string) (*domain.Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sub, ok := r.subscriptions[id]
	if !ok {
		return nil, domain.ErrSubscriptionNotFound
	}
	out := *sub
	return &out, nil
}

// GetActive returns the most recently created active subscription.
func (r *MemorySubscriptionRepository) GetActive(ctx context.Context, userID string) (*domain.Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *domain.Subscription
	for _, sub := range r.subscriptions {
		if sub.UserID != userID || sub.Status != domain.SubscriptionActive {
			continue
		}
		if latest == nil || sub.CreatedAt.After(latest.CreatedAt) {
			latest = sub
		}
	}
	if latest == nil {
		return nil, domain.ErrSubscriptionNotFound
	}
	out := *latest
	return &out, nil
}

func (r *MemorySubscriptionRepository) SavePayment(ctx context.Context, payment *domain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if payment.ID == "" {
		payment.ID = "pay_" + uuid.NewString()
	}
	stored := *payment
	for i, p := range r.payments {
		if p.ID == payment.ID {
			r.payments[i] = &stored
			return nil
		}
	}
	r.payments = append(r.payments, &stored)
	return nil
}

func (r *MemorySubscriptionRepository) FindPaymentByKey(ctx context.Context, userID, key string) (*domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if key == "" {
		return nil, domain.ErrPaymentNotFound
	}
	for _, p := range r.payments {
		if p.UserID == userID && p.IdempotencyKey == key {
			out := *p
			return &out, nil
		}
	}
	return nil, domain.ErrPaymentNotFound
}

// ListPayments returns the user's payments newest first.
func (r *MemorySubscriptionRepository) ListPayments(ctx context.Context, userID string) ([]*domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Payment, 0)
	for _, p := range r.payments {
		if p.UserID == userID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

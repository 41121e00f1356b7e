package repository

import (
	"context"
	"sync"

	"beloop-server/internal/domain"
)

// MemoryMembershipRepository stores memberships per user. Update holds the
// write lock for the whole read-modify-write so quota checks are atomic.
type MemoryMembershipRepository struct {
	mu          sync.RWMutex
	memberships map[string]*domain.Membership
}

func NewMemoryMembershipRepository() *MemoryMembershipRepository {
	return &MemoryMembershipRepository{
		memberships: make(map[string]*domain.Membership),
	}
}

// Get returns the stored membership, or nil when the user has none yet.
func (r *MemoryMembershipRepository) Get(ctx context.Context, userID string) (*domain.Membership, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.memberships[userID]
	if !ok {
		return nil, nil
	}
	out := *m
	return &out, nil
}

func (r *MemoryMembershipRepository) Update(ctx context.Context, userID string, fn func(m *domain.Membership) error) (*domain.Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	working := domain.Membership{UserID: userID}
	if existing, ok := r.memberships[userID]; ok {
		working = *existing
	}
	if err := fn(&working); err != nil {
		return nil, err
	}

	stored := working
	r.memberships[userID] = &stored
	out := working
	return &out, nil
}

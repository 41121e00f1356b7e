package service

import (
	"context"
	"fmt"
	"time"

	"beloop-server/internal/domain"
)

const usageDateLayout = "2006-01-02"

type membershipService struct {
	repo   domain.MembershipRepository
	logger domain.Logger
	now    func() time.Time
}

func NewMembershipService(repo domain.MembershipRepository, logger domain.Logger) *membershipService {
	return &membershipService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

func (s *membershipService) ListTiers() []domain.Tier {
	return domain.Tiers()
}

func (s *membershipService) GetTier(id domain.TierID) (*domain.Tier, error) {
	tier, ok := domain.LookupTier(id)
	if !ok {
		return nil, domain.ErrTierNotFound
	}
	return &tier, nil
}

// GetMembership returns the user's membership, creating a free one on first use.
func (s *membershipService) GetMembership(ctx context.Context, userID string) (*domain.Membership, error) {
	now := s.now().UTC()
	return s.repo.Update(ctx, userID, func(m *domain.Membership) error {
		s.normalize(m, now)
		return nil
	})
}

func (s *membershipService) GetUsage(ctx context.Context, userID string) (*domain.UsageStatus, error) {
	m, err := s.GetMembership(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.usageStatus(m), nil
}

// CheckMessage validates a message against the tier's length and model limits
// without consuming quota.
func (s *membershipService) CheckMessage(ctx context.Context, userID string, length int, model string) error {
	m, err := s.GetMembership(ctx, userID)
	if err != nil {
		return err
	}
	tier := tierFor(m)
	if max := tier.Limits.MaxMessageLength; max != domain.Unlimited && length > max {
		return fmt.Errorf("%w: %d characters allowed on %s", domain.ErrMessageTooLong, max, tier.Name)
	}
	if !tier.Limits.AllowsModel(model) {
		return fmt.Errorf("%w: %s", domain.ErrModelNotAllowed, model)
	}
	return nil
}

// ConsumeMessage atomically checks the daily limit and counts one message.
func (s *membershipService) ConsumeMessage(ctx context.Context, userID string) (*domain.UsageStatus, error) {
	now := s.now().UTC()
	m, err := s.repo.Update(ctx, userID, func(m *domain.Membership) error {
		s.normalize(m, now)
		limit := tierFor(m).Limits.MessagesPerDay
		if limit != domain.Unlimited && m.MessagesToday >= limit {
			return domain.ErrDailyLimitReached
		}
		m.MessagesToday++
		m.TotalMessages++
		m.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.usageStatus(m), nil
}

// RefundMessage gives back one unit of today's quota.
func (s *membershipService) RefundMessage(ctx context.Context, userID string) error {
	now := s.now().UTC()
	_, err := s.repo.Update(ctx, userID, func(m *domain.Membership) error {
		s.normalize(m, now)
		if m.MessagesToday > 0 {
			m.MessagesToday--
		}
		if m.TotalMessages > 0 {
			m.TotalMessages--
		}
		m.UpdatedAt = now
		return nil
	})
	return err
}

func (s *membershipService) CanCreateConversation(ctx context.Context, userID string, current int) error {
	m, err := s.GetMembership(ctx, userID)
	if err != nil {
		return err
	}
	tier := tierFor(m)
	if max := tier.Limits.MaxConversations; max != domain.Unlimited && current >= max {
		return fmt.Errorf("%w: %d conversations allowed on %s", domain.ErrConversationLimitReached, max, tier.Name)
	}
	return nil
}

// SetTier moves the user to tier. Today's usage counter is kept.
func (s *membershipService) SetTier(ctx context.Context, userID string, tier domain.TierID, expiresAt *time.Time) (*domain.Membership, error) {
	if _, ok := domain.LookupTier(tier); !ok {
		return nil, domain.ErrTierNotFound
	}
	now := s.now().UTC()
	m, err := s.repo.Update(ctx, userID, func(m *domain.Membership) error {
		s.normalize(m, now)
		m.TierID = tier
		m.StartedAt = now
		m.ExpiresAt = expiresAt
		if tier == domain.TierFree {
			m.ExpiresAt = nil
		}
		m.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Membership tier changed", "user_id", userID, "tier", tier)
	return m, nil
}

// normalize fills defaults, downgrades lapsed memberships and rolls the
// daily counter over at UTC midnight.
func (s *membershipService) normalize(m *domain.Membership, now time.Time) {
	if m.TierID == "" {
		m.TierID = domain.TierFree
		m.StartedAt = now
		m.UpdatedAt = now
	}
	if m.TierID != domain.TierFree && m.Expired(now) {
		s.logger.Info("Membership expired", "user_id", m.UserID, "tier", m.TierID)
		m.TierID = domain.TierFree
		m.ExpiresAt = nil
		m.StartedAt = now
	}
	if today := now.Format(usageDateLayout); m.UsageDate != today {
		m.UsageDate = today
		m.MessagesToday = 0
	}
}

func (s *membershipService) usageStatus(m *domain.Membership) *domain.UsageStatus {
	tier := tierFor(m)
	limit := tier.Limits.MessagesPerDay
	remaining := domain.Unlimited
	if limit != domain.Unlimited {
		remaining = limit - m.MessagesToday
		if remaining < 0 {
			remaining = 0
		}
	}

	day, err := time.Parse(usageDateLayout, m.UsageDate)
	if err != nil {
		day = s.now().UTC().Truncate(24 * time.Hour)
	}

	return &domain.UsageStatus{
		TierID:         tier.ID,
		TierName:       tier.Name,
		MessagesToday:  m.MessagesToday,
		MessagesPerDay: limit,
		Remaining:      remaining,
		ResetsAt:       day.AddDate(0, 0, 1),
		TotalMessages:  m.TotalMessages,
		ExpiresAt:      m.ExpiresAt,
	}
}

func tierFor(m *domain.Membership) domain.Tier {
	if tier, ok := domain.LookupTier(m.TierID); ok {
		return tier
	}
	tier, _ := domain.LookupTier(domain.TierFree)
	return tier
}

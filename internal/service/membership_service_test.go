package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"beloop-server/internal/domain"
	"beloop-server/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestMembershipService(start time.Time) (*membershipService, *fakeClock) {
	clock := &fakeClock{t: start}
	svc := NewMembershipService(repository.NewMemoryMembershipRepository(), NewMockLogger())
	svc.now = clock.Now
	return svc, clock
}

func TestMembershipService_DefaultsToFree(t *testing.T) {
	svc, _ := newTestMembershipService(time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC))

	usage, err := svc.GetUsage(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, domain.TierFree, usage.TierID)
	assert.Equal(t, 20, usage.MessagesPerDay)
	assert.Equal(t, 20, usage.Remaining)
	assert.Equal(t, time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC), usage.ResetsAt)
}

func TestMembershipService_ConsumeUntilLimit(t *testing.T) {
	svc, _ := newTestMembershipService(time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC))
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		_, err := svc.ConsumeMessage(ctx, "user-1")
		require.NoError(t, err, "message %d", i+1)
	}
	_, err := svc.ConsumeMessage(ctx, "user-1")
	assert.ErrorIs(t, err, domain.ErrDailyLimitReached)

	usage, err := svc.GetUsage(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 20, usage.MessagesToday)
	assert.Equal(t, 0, usage.Remaining)
	assert.EqualValues(t, 20, usage.TotalMessages)
}

func TestMembershipService_ConcurrentConsumeNeverExceedsLimit(t *testing.T) {
	svc, _ := newTestMembershipService(time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC))
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.ConsumeMessage(ctx, "user-1"); err == nil {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, allowed)
}

func TestMembershipService_DailyReset(t *testing.T) {
	svc, clock := newTestMembershipService(time.Date(2026, 3, 10, 23, 59, 0, 0, time.UTC))
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		_, _ = svc.ConsumeMessage(ctx, "user-1")
	}
	_, err := svc.ConsumeMessage(ctx, "user-1")
	require.ErrorIs(t, err, domain.ErrDailyLimitReached)

	clock.Advance(2 * time.Minute)
	usage, err := svc.ConsumeMessage(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, usage.MessagesToday)
	assert.EqualValues(t, 21, usage.TotalMessages)
}

func TestMembershipService_Refund(t *testing.T) {
	svc, _ := newTestMembershipService(time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC))
	ctx := context.Background()

	_, _ = svc.ConsumeMessage(ctx, "user-1")
	require.NoError(t, svc.RefundMessage(ctx, "user-1"))
	require.NoError(t, svc.RefundMessage(ctx, "user-1"))

	usage, _ := svc.GetUsage(ctx, "user-1")
	assert.Equal(t, 0, usage.MessagesToday)
	assert.EqualValues(t, 0, usage.TotalMessages)
}

func TestMembershipService_EnterpriseIsUnlimited(t *testing.T) {
	svc, _ := newTestMembershipService(time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC))
	ctx := context.Background()

	_, err := svc.SetTier(ctx, "user-1", domain.TierEnterprise, nil)
	require.NoError(t, err)

	for i := 0; i < 1500; i++ {
		_, err := svc.ConsumeMessage(ctx, "user-1")
		require.NoError(t, err)
	}
	usage, _ := svc.GetUsage(ctx, "user-1")
	assert.Equal(t, domain.Unlimited, usage.Remaining)
	assert.NoError(t, svc.CanCreateConversation(ctx, "user-1", 10_000))
	assert.NoError(t, svc.CheckMessage(ctx, "user-1", 1_000_000, "gemini-2.5-pro"))
}

func TestMembershipService_CheckMessage(t *testing.T) {
	svc, _ := newTestMembershipService(time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC))
	ctx := context.Background()

	assert.NoError(t, svc.CheckMessage(ctx, "user-1", 2000, ""))
	assert.ErrorIs(t, svc.CheckMessage(ctx, "user-1", 2001, ""), domain.ErrMessageTooLong)
	assert.ErrorIs(t, svc.CheckMessage(ctx, "user-1", 10, "gemini-2.5-pro"), domain.ErrModelNotAllowed)
}

func TestMembershipService_ConversationLimit(t *testing.T) {
	svc, _ := newTestMembershipService(time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC))
	ctx := context.Background()

	assert.NoError(t, svc.CanCreateConversation(ctx, "user-1", 4))
	assert.ErrorIs(t, svc.CanCreateConversation(ctx, "user-1", 5), domain.ErrConversationLimitReached)
}

func TestMembershipService_SetTierAndExpiry(t *testing.T) {
	start := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	svc, clock := newTestMembershipService(start)
	ctx := context.Background()

	_, err := svc.SetTier(ctx, "user-1", "gold", nil)
	assert.ErrorIs(t, err, domain.ErrTierNotFound)

	expires := start.Add(24 * time.Hour)
	m, err := svc.SetTier(ctx, "user-1", domain.TierPro, &expires)
	require.NoError(t, err)
	assert.Equal(t, domain.TierPro, m.TierID)

	usage, _ := svc.GetUsage(ctx, "user-1")
	assert.Equal(t, 200, usage.MessagesPerDay)

	clock.Advance(25 * time.Hour)
	m, err = svc.GetMembership(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, domain.TierFree, m.TierID)
	assert.Nil(t, m.ExpiresAt)
}

func TestMembershipService_SetFreeClearsExpiry(t *testing.T) {
	start := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	svc, _ := newTestMembershipService(start)
	expires := start.Add(time.Hour)

	m, err := svc.SetTier(context.Background(), "user-1", domain.TierFree, &expires)
	require.NoError(t, err)
	assert.Nil(t, m.ExpiresAt)
}

func TestMembershipService_ListTiers(t *testing.T) {
	svc, _ := newTestMembershipService(time.Now())
	assert.Len(t, svc.ListTiers(), 4)
}

func TestMembershipService_GetTier(t *testing.T) {
	svc, _ := newTestMembershipService(time.Now())

	tier, err := svc.GetTier(domain.TierPremium)
	require.NoError(t, err)
	assert.Equal(t, int64(2999), tier.PriceMonthlyCents)

	_, err = svc.GetTier("gold")
	assert.ErrorIs(t, err, domain.ErrTierNotFound)
}

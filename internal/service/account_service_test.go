package service

import (
	"context"
	"testing"

	"beloop-server/internal/domain"
	"beloop-server/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountService_Overview(t *testing.T) {
	ctx := context.Background()
	logger := NewMockLogger()
	users := repository.NewMemoryUserRepository()
	favorites := repository.NewMemoryFavoriteRepository()
	chats := repository.NewMemoryChatRepository()
	membership := NewMembershipService(repository.NewMemoryMembershipRepository(), logger)
	payments := NewPaymentService(repository.NewMemorySubscriptionRepository(), NewMockProcessor(0, 0, logger), membership, logger)
	svc := NewAccountService(users, membership, payments, favorites, chats)

	user := &domain.User{Email: "ada@example.com", Name: "Ada", Provider: domain.ProviderCredentials}
	require.NoError(t, users.Create(ctx, user))

	overview, err := svc.Overview(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", overview.User.Name)
	assert.Equal(t, domain.TierFree, overview.Usage.TierID)
	assert.Nil(t, overview.Subscription)
	assert.Zero(t, overview.FavoriteCount)

	_, err = payments.CreateSubscription(ctx, user.ID, domain.CreateSubscriptionRequest{TierID: domain.TierPro, PaymentMethod: validCard()})
	require.NoError(t, err)
	require.NoError(t, favorites.Create(ctx, &domain.Favorite{UserID: user.ID, ItemType: domain.FavoritePrompt, ItemID: "p1"}))
	require.NoError(t, chats.CreateConversation(ctx, &domain.Conversation{UserID: user.ID, Title: "t"}))

	overview, err = svc.Overview(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, overview.Subscription)
	assert.Equal(t, domain.TierPro, overview.Usage.TierID)
	assert.Equal(t, 1, overview.FavoriteCount)
	assert.Equal(t, 1, overview.ConversationCount)
}

func TestAccountService_OverviewUnknownUser(t *testing.T) {
	logger := NewMockLogger()
	membership := NewMembershipService(repository.NewMemoryMembershipRepository(), logger)
	payments := NewPaymentService(repository.NewMemorySubscriptionRepository(), NewMockProcessor(0, 0, logger), membership, logger)
	svc := NewAccountService(repository.NewMemoryUserRepository(), membership, payments,
		repository.NewMemoryFavoriteRepository(), repository.NewMemoryChatRepository())

	_, err := svc.Overview(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

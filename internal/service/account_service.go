package service

import (
	"context"
	"errors"

	"beloop-server/internal/domain"

	"golang.org/x/sync/errgroup"
)

type accountService struct {
	users      domain.UserRepository
	membership domain.MembershipService
	payments   domain.PaymentService
	favorites  domain.FavoriteRepository
	chats      domain.ChatRepository
}

func NewAccountService(
	users domain.UserRepository,
	membership domain.MembershipService,
	payments domain.PaymentService,
	favorites domain.FavoriteRepository,
	chats domain.ChatRepository,
) *accountService {
	return &accountService{
		users:      users,
		membership: membership,
		payments:   payments,
		favorites:  favorites,
		chats:      chats,
	}
}

// Overview gathers everything the dashboard shows in one round of parallel reads.
func (s *accountService) Overview(ctx context.Context, userID string) (*domain.AccountOverview, error) {
	var out domain.AccountOverview
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		user, err := s.users.GetByID(gctx, userID)
		if err != nil {
			return err
		}
		out.User = user
		return nil
	})
	g.Go(func() error {
		usage, err := s.membership.GetUsage(gctx, userID)
		if err != nil {
			return err
		}
		out.Usage = usage
		return nil
	})
	g.Go(func() error {
		sub, err := s.payments.GetSubscription(gctx, userID)
		if errors.Is(err, domain.ErrSubscriptionNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		out.Subscription = sub
		return nil
	})
	g.Go(func() error {
		n, err := s.favorites.Count(gctx, userID)
		if err != nil {
			return err
		}
		out.FavoriteCount = n
		return nil
	})
	g.Go(func() error {
		n, err := s.chats.CountConversations(gctx, userID)
		if err != nil {
			return err
		}
		out.ConversationCount = n
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}

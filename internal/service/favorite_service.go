package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"beloop-server/internal/domain"
)

const (
	maxFavoriteTitle   = 200
	maxFavoriteContent = 20000
)

type favoriteService struct {
	favorites domain.FavoriteRepository
	logger    domain.Logger
}

func NewFavoriteService(favorites domain.FavoriteRepository, logger domain.Logger) *favoriteService {
	return &favoriteService{favorites: favorites, logger: logger}
}

func (s *favoriteService) List(ctx context.Context, userID string, itemType domain.FavoriteType) ([]*domain.Favorite, error) {
	if itemType != "" && !itemType.Valid() {
		return nil, domain.NewValidationError("type", "unknown favorite type")
	}
	return s.favorites.List(ctx, userID, itemType)
}

func (s *favoriteService) Add(ctx context.Context, userID string, input domain.FavoriteInput) (*domain.Favorite, error) {
	if !input.ItemType.Valid() {
		return nil, domain.NewValidationError("item_type", "item_type must be message, conversation or prompt")
	}
	itemID := strings.TrimSpace(input.ItemID)
	if itemID == "" {
		return nil, domain.NewValidationError("item_id", "item_id is required")
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = domain.TitleFromMessage(input.Content)
	}
	if utf8.RuneCountInString(title) > maxFavoriteTitle {
		return nil, domain.NewValidationError("title", "title is too long")
	}
	if utf8.RuneCountInString(input.Content) > maxFavoriteContent {
		return nil, domain.NewValidationError("content", "content is too long")
	}

	fav := &domain.Favorite{
		UserID:    userID,
		ItemType:  input.ItemType,
		ItemID:    itemID,
		Title:     title,
		Content:   input.Content,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.favorites.Create(ctx, fav); err != nil {
		if errors.Is(err, domain.ErrFavoriteExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to save favorite: %w", err)
	}
	s.logger.Debug("Favorite added", "user_id", userID, "item_type", fav.ItemType, "item_id", fav.ItemID)
	return fav, nil
}

func (s *favoriteService) Remove(ctx context.Context, userID, id string) error {
	return s.favorites.Delete(ctx, userID, id)
}

func (s *favoriteService) IsFavorite(ctx context.Context, userID string, itemType domain.FavoriteType, itemID string) (bool, error) {
	_, err := s.favorites.Find(ctx, userID, itemType, itemID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, domain.ErrFavoriteNotFound):
		return false, nil
	default:
		return false, err
	}
}

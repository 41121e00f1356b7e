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

const maxRenameLength = 100

type chatHistoryService struct {
	chats      domain.ChatRepository
	membership domain.MembershipService
	logger     domain.Logger
}

func NewChatHistoryService(chats domain.ChatRepository, membership domain.MembershipService, logger domain.Logger) *chatHistoryService {
	return &chatHistoryService{
		chats:      chats,
		membership: membership,
		logger:     logger,
	}
}

// CreateConversation starts an empty conversation if the tier allows another one.
func (s *chatHistoryService) CreateConversation(ctx context.Context, userID, title string) (*domain.Conversation, error) {
	now := time.Now().UTC()
	conv := &domain.Conversation{
		UserID:    userID,
		Title:     domain.TitleFromMessage(title),
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := s.chats.CreateConversationWithin(ctx, conv, func(count int) error {
		return s.membership.CanCreateConversation(ctx, userID, count)
	})
	if errors.Is(err, domain.ErrConversationLimitReached) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	s.logger.Info("Conversation created", "user_id", userID, "conversation_id", conv.ID)
	return conv, nil
}

func (s *chatHistoryService) ListConversations(ctx context.Context, userID string, page domain.PageRequest) (*domain.Page[*domain.Conversation], error) {
	page = page.Normalize()
	items, total, err := s.chats.ListConversations(ctx, userID, page)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	return domain.NewPage(items, total, page), nil
}

// GetConversation returns the conversation if userID owns it. A conversation
// owned by someone else is reported as not found.
func (s *chatHistoryService) GetConversation(ctx context.Context, userID, id string) (*domain.Conversation, error) {
	conv, err := s.chats.GetConversation(ctx, id)
	if err != nil {
		return nil, err
	}
	if conv.UserID != userID {
		return nil, domain.ErrConversationNotFound
	}
	return conv, nil
}

func (s *chatHistoryService) RenameConversation(ctx context.Context, userID, id, title string) (*domain.Conversation, error) {
	title = strings.Join(strings.Fields(title), " ")
	if title == "" {
		return nil, domain.NewValidationError("title", "title is required")
	}
	if utf8.RuneCountInString(title) > maxRenameLength {
		return nil, domain.NewValidationError("title", "title must be at most 100 characters")
	}

	conv, err := s.GetConversation(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	conv.Title = title
	conv.UpdatedAt = time.Now().UTC()
	if err := s.chats.UpdateConversation(ctx, conv); err != nil {
		return nil, fmt.Errorf("failed to rename conversation: %w", err)
	}
	return conv, nil
}

func (s *chatHistoryService) DeleteConversation(ctx context.Context, userID, id string) error {
	if _, err := s.GetConversation(ctx, userID, id); err != nil {
		return err
	}
	if err := s.chats.DeleteConversation(ctx, id); err != nil {
		if errors.Is(err, domain.ErrConversationNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	s.logger.Info("Conversation deleted", "user_id", userID, "conversation_id", id)
	return nil
}

func (s *chatHistoryService) ListMessages(ctx context.Context, userID, id string, page domain.PageRequest) (*domain.Page[*domain.Message], error) {
	if _, err := s.GetConversation(ctx, userID, id); err != nil {
		return nil, err
	}
	page = page.Normalize()
	items, total, err := s.chats.ListMessages(ctx, id, page)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return domain.NewPage(items, total, page), nil
}

func (s *chatHistoryService) ClearHistory(ctx context.Context, userID string) (int, error) {
	n, err := s.chats.DeleteUserConversations(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear history: %w", err)
	}
	s.logger.Info("Chat history cleared", "user_id", userID, "deleted", n)
	return n, nil
}

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

// historyTurns is how many prior messages are sent to the model as context.
const historyTurns = 20

type chatService struct {
	chats        domain.ChatRepository
	membership   domain.MembershipService
	model        domain.ChatModel
	defaultModel string
	logger       domain.Logger
}

func NewChatService(
	chats domain.ChatRepository,
	membership domain.MembershipService,
	model domain.ChatModel,
	defaultModel string,
	logger domain.Logger,
) *chatService {
	return &chatService{
		chats:        chats,
		membership:   membership,
		model:        model,
		defaultModel: defaultModel,
		logger:       logger,
	}
}

// Send runs one chat turn: quota, conversation, model call and persistence.
// When the model fails the consumed message is refunded and only the user's
// message stays in the conversation.
func (s *chatService) Send(ctx context.Context, userID string, req domain.ChatRequest) (*domain.ChatResponse, error) {
	text := strings.TrimSpace(req.Message)
	if text == "" {
		return nil, domain.NewValidationError("message", "message is required")
	}
	if err := s.membership.CheckMessage(ctx, userID, utf8.RuneCountInString(text), req.Model); err != nil {
		return nil, err
	}

	var conv *domain.Conversation
	if req.ConversationID != "" {
		existing, err := s.chats.GetConversation(ctx, req.ConversationID)
		if err != nil {
			return nil, err
		}
		if existing.UserID != userID {
			return nil, domain.ErrConversationNotFound
		}
		conv = existing
	} else {
		// Early rejection before quota is spent; the insert rechecks under lock.
		count, err := s.chats.CountConversations(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to count conversations: %w", err)
		}
		if err := s.membership.CanCreateConversation(ctx, userID, count); err != nil {
			return nil, err
		}
	}

	usage, err := s.membership.ConsumeMessage(ctx, userID)
	if err != nil {
		return nil, err
	}

	model := req.Model
	if model == "" {
		model = s.defaultModel
	}

	if conv == nil {
		now := time.Now().UTC()
		conv = &domain.Conversation{
			UserID:    userID,
			Title:     domain.TitleFromMessage(text),
			Model:     model,
			CreatedAt: now,
			UpdatedAt: now,
		}
		err := s.chats.CreateConversationWithin(ctx, conv, func(count int) error {
			return s.membership.CanCreateConversation(ctx, userID, count)
		})
		if err != nil {
			s.refund(ctx, userID)
			if errors.Is(err, domain.ErrConversationLimitReached) {
				return nil, err
			}
			return nil, fmt.Errorf("failed to create conversation: %w", err)
		}
	}

	var history []domain.ChatTurn
	recent, err := s.chats.RecentMessages(ctx, conv.ID, historyTurns)
	if err != nil {
		s.logger.Warn("Failed to load conversation history", "conversation_id", conv.ID, "error", err)
	}
	for _, m := range recent {
		history = append(history, domain.ChatTurn{Role: m.Role, Content: m.Content})
	}

	userMsg := &domain.Message{
		ConversationID: conv.ID,
		Role:           domain.RoleUser,
		Content:        text,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.chats.AppendMessage(ctx, userMsg); err != nil {
		s.refund(ctx, userID)
		return nil, fmt.Errorf("failed to save message: %w", err)
	}

	reply, err := s.model.Generate(ctx, model, history, text)
	if err != nil {
		s.logger.Error("Chat model call failed", err, "user_id", userID, "conversation_id", conv.ID, "backend", s.model.Name(), "model", model)
		s.refund(ctx, userID)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrModelUnavailable, err)
	}

	modelMsg := &domain.Message{
		ConversationID: conv.ID,
		Role:           domain.RoleModel,
		Content:        reply.Text,
		TokenCount:     reply.ReplyTokens,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.chats.AppendMessage(ctx, modelMsg); err != nil {
		s.logger.Warn("Failed to save model response", "conversation_id", conv.ID, "error", err)
	}

	s.logger.Debug("Chat turn completed", "user_id", userID, "conversation_id", conv.ID,
		"prompt_tokens", reply.PromptTokens, "reply_tokens", reply.ReplyTokens)

	return &domain.ChatResponse{
		ConversationID: conv.ID,
		Message:        modelMsg,
		Usage:          usage,
	}, nil
}

func (s *chatService) refund(ctx context.Context, userID string) {
	if err := s.membership.RefundMessage(context.WithoutCancel(ctx), userID); err != nil {
		s.logger.Error("Failed to refund message quota", err, "user_id", userID)
	}
}

package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"beloop-server/internal/domain"

	"github.com/google/uuid"
)

// MemoryChatRepository keeps conversations and their messages in memory.
// Messages for a conversation are kept in insertion (chronological) order.
type MemoryChatRepository struct {
	mu            sync.RWMutex
	conversations map[string]*domain.Conversation
	messages      map[string][]*domain.Message
}

func NewMemoryChatRepository() *MemoryChatRepository {
	return &MemoryChatRepository{
		conversations: make(map[string]*domain.Conversation),
		messages:      make(map[string][]*domain.Message),
	}
}

func (r *MemoryChatRepository) CreateConversation(ctx context.Context, conv *domain.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.insertConversation(conv)
	return nil
}

func (r *MemoryChatRepository) CreateConversationWithin(ctx context.Context, conv *domain.Conversation, allow func(count int) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := allow(r.countLocked(conv.UserID)); err != nil {
		return err
	}
	r.insertConversation(conv)
	return nil
}

func (r *MemoryChatRepository) insertConversation(conv *domain.Conversation) {
	if conv.ID == "" {
		conv.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = now
	}
	if conv.UpdatedAt.IsZero() {
		conv.UpdatedAt = conv.CreatedAt
	}
	stored := *conv
	r.conversations[conv.ID] = &stored
}

func (r *MemoryChatRepository) GetConversation(ctx context.Context, id string) (*domain.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conv, ok := r.conversations[id]
	if !ok {
		return nil, domain.ErrConversationNotFound
	}
	out := *conv
	return &out, nil
}

// ListConversations returns the user's conversations, most recently updated first.
func (r *MemoryChatRepository) ListConversations(ctx context.Context, userID string, page domain.PageRequest) ([]*domain.Conversation, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var all []*domain.Conversation
	for _, conv := range r.conversations {
		if conv.UserID == userID {
			all = append(all, conv)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].UpdatedAt.Equal(all[j].UpdatedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].UpdatedAt.After(all[j].UpdatedAt)
	})

	window := paginate(all, page)
	out := make([]*domain.Conversation, 0, len(window))
	for _, conv := range window {
		cp := *conv
		out = append(out, &cp)
	}
	return out, len(all), nil
}

func (r *MemoryChatRepository) CountConversations(ctx context.Context, userID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.countLocked(userID), nil
}

func (r *MemoryChatRepository) countLocked(userID string) int {
	n := 0
	for _, conv := range r.conversations {
		if conv.UserID == userID {
			n++
		}
	}
	return n
}

func (r *MemoryChatRepository) UpdateConversation(ctx context.Context, conv *domain.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conversations[conv.ID]; !ok {
		return domain.ErrConversationNotFound
	}
	stored := *conv
	r.conversations[conv.ID] = &stored
	return nil
}

func (r *MemoryChatRepository) DeleteConversation(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conversations[id]; !ok {
		return domain.ErrConversationNotFound
	}
	delete(r.conversations, id)
	delete(r.messages, id)
	return nil
}

func (r *MemoryChatRepository) DeleteUserConversations(ctx context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for id, conv := range r.conversations {
		if conv.UserID == userID {
			delete(r.conversations, id)
			delete(r.messages, id)
			n++
		}
	}
	return n, nil
}

func (r *MemoryChatRepository) AppendMessage(ctx context.Context, msg *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conv, ok := r.conversations[msg.ConversationID]
	if !ok {
		return domain.ErrConversationNotFound
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	stored := *msg
	r.messages[msg.ConversationID] = append(r.messages[msg.ConversationID], &stored)

	conv.MessageCount++
	if msg.CreatedAt.After(conv.UpdatedAt) {
		conv.UpdatedAt = msg.CreatedAt
	}
	return nil
}

// ListMessages returns a window of the conversation, oldest first.
func (r *MemoryChatRepository) ListMessages(ctx context.Context, conversationID string, page domain.PageRequest) ([]*domain.Message, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := r.messages[conversationID]
	window := paginate(all, page)
	out := make([]*domain.Message, 0, len(window))
	for _, m := range window {
		cp := *m
		out = append(out, &cp)
	}
	return out, len(all), nil
}

func (r *MemoryChatRepository) RecentMessages(ctx context.Context, conversationID string, limit int) ([]*domain.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := r.messages[conversationID]
	start := 0
	if limit > 0 && len(all) > limit {
		start = len(all) - limit
	}
	out := make([]*domain.Message, 0, len(all)-start)
	for _, m := range all[start:] {
		cp := *m
		out = append(out, &cp)
	}
	return out, nil
}

func paginate[T any](items []T, page domain.PageRequest) []T {
	page = page.Normalize()
	if page.Offset >= len(items) {
		return nil
	}
	end := page.Offset + page.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[page.Offset:end]
}

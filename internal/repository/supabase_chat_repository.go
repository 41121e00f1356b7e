package repository

import (
	"context"
	"fmt"
	"time"

	"beloop-server/internal/domain"
	"beloop-server/pkg/keymutex"

	"github.com/google/uuid"
	"github.com/supabase-community/postgrest-go"
)

// SupabaseChatRepository persists chat history in the `conversations` and
// `messages` tables. Messages reference conversations with ON DELETE CASCADE.
type SupabaseChatRepository struct {
	supabaseClient domain.SupabaseClient
	logger         domain.Logger
	creates        *keymutex.KeyMutex
}

func NewSupabaseChatRepository(supabaseClient domain.SupabaseClient, logger domain.Logger) *SupabaseChatRepository {
	return &SupabaseChatRepository{
		supabaseClient: supabaseClient,
		logger:         logger,
		creates:        keymutex.New(),
	}
}

type conversationRow struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Title        string    `json:"title"`
	Model        string    `json:"model"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (row conversationRow) toDomain() *domain.Conversation {
	return &domain.Conversation{
		ID:           row.ID,
		UserID:       row.UserID,
		Title:        row.Title,
		Model:        row.Model,
		MessageCount: row.MessageCount,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

type messageRow struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	TokenCount     int       `json:"token_count"`
	CreatedAt      time.Time `json:"created_at"`
}

func (row messageRow) toDomain() *domain.Message {
	return &domain.Message{
		ID:             row.ID,
		ConversationID: row.ConversationID,
		Role:           domain.Role(row.Role),
		Content:        row.Content,
		TokenCount:     row.TokenCount,
		CreatedAt:      row.CreatedAt,
	}
}

func (r *SupabaseChatRepository) CreateConversation(ctx context.Context, conv *domain.Conversation) error {
	client, err := dbClient(r.supabaseClient)
	if err != nil {
		return err
	}

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

	data := map[string]interface{}{
		"id":            conv.ID,
		"user_id":       conv.UserID,
		"title":         conv.Title,
		"model":         conv.Model,
		"message_count": conv.MessageCount,
		"created_at":    conv.CreatedAt,
		"updated_at":    conv.UpdatedAt,
	}
	if _, _, err := client.From("conversations").Insert(data, false, "", "minimal", "").Execute(); err != nil {
		return fmt.Errorf("failed to create conversation: %w", err)
	}
	return nil
}

// CreateConversationWithin serializes count and insert per user inside this
// process. Instances sharing one database are not coordinated.
func (r *SupabaseChatRepository) CreateConversationWithin(ctx context.Context, conv *domain.Conversation, allow func(count int) error) error {
	unlock := r.creates.Lock(conv.UserID)
	defer unlock()

	count, err := r.CountConversations(ctx, conv.UserID)
	if err != nil {
		return err
	}
	if err := allow(count); err != nil {
		return err
	}
	return r.CreateConversation(ctx, conv)
}

func (r *SupabaseChatRepository) GetConversation(ctx context.Context, id string) (*domain.Conversation, error) {
	client, err := dbClient(r.supabaseClient)
	if err != nil {
		return nil, err
	}

	data, _, err := client.From("conversations").Select("*", "", false).Eq("id", id).Limit(1, "").Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	rows, err := decodeRows[conversationRow](data)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.ErrConversationNotFound
	}
	return rows[0].toDomain(), nil
}

func (r *SupabaseChatRepository) ListConversations(ctx context.Context, userID string, page domain.PageRequest) ([]*domain.Conversation, int, error) {
	client, err := dbClient(r.supabaseClient)
	if err != nil {
		return nil, 0, err
	}

	page = page.Normalize()
	data, total, err := client.From("conversations").
		Select("*", "exact", false).
		Eq("user_id", userID).
		Order("updated_at", &postgrest.OrderOpts{Ascending: false}).
		Range(page.Offset, page.Offset+page.Limit-1, "").
		Execute()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list conversations: %w", err)
	}
	rows, err := decodeRows[conversationRow](data)
	if err != nil {
		return nil, 0, err
	}
	out := make([]*domain.Conversation, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, int(total), nil
}

func (r *SupabaseChatRepository) CountConversations(ctx context.Context, userID string) (int, error) {
	client, err := dbClient(r.supabaseClient)
	if err != nil {
		return 0, err
	}

	_, total, err := client.From("conversations").Select("id", "exact", true).Eq("user_id", userID).Execute()
	if err != nil {
		return 0, fmt.Errorf("failed to count conversations: %w", err)
	}
	return int(total), nil
}

func (r *SupabaseChatRepository) UpdateConversation(ctx context.Context, conv *domain.Conversation) error {
	client, err := dbClient(r.supabaseClient)
	if err != nil {
		return err
	}

	data := map[string]interface{}{
		"title":         conv.Title,
		"model":         conv.Model,
		"message_count": conv.MessageCount,
		"updated_at":    conv.UpdatedAt,
	}
	resp, _, err := client.From("conversations").Update(data, "representation", "").Eq("id", conv.ID).Execute()
	if err != nil {
		return fmt.Errorf("failed to update conversation: %w", err)
	}
	rows, err := decodeRows[conversationRow](resp)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return domain.ErrConversationNotFound
	}
	return nil
}

func (r *SupabaseChatRepository) DeleteConversation(ctx context.Context, id string) error {
	client, err := dbClient(r.supabaseClient)
	if err != nil {
		return err
	}

	resp, _, err := client.From("conversations").Delete("representation", "").Eq("id", id).Execute()
	if err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	rows, err := decodeRows[conversationRow](resp)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return domain.ErrConversationNotFound
	}
	return nil
}

func (r *SupabaseChatRepository) DeleteUserConversations(ctx context.Context, userID string) (int, error) {
	client, err := dbClient(r.supabaseClient)
	if err != nil {
		return 0, err
	}

	resp, _, err := client.From("conversations").Delete("representation", "").Eq("user_id", userID).Execute()
	if err != nil {
		return 0, fmt.Errorf("failed to delete conversations: %w", err)
	}
	rows, err := decodeRows[conversationRow](resp)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// AppendMessage inserts the message and then bumps the conversation counters.
// The two writes are not transactional; a failed counter update is logged.
func (r *SupabaseChatRepository) AppendMessage(ctx context.Context, msg *domain.Message) error {
	client, err := dbClient(r.supabaseClient)
	if err != nil {
		return err
	}

	conv, err := r.GetConversation(ctx, msg.ConversationID)
	if err != nil {
		return err
	}

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	data := map[string]interface{}{
		"id":              msg.ID,
		"conversation_id": msg.ConversationID,
		"role":            string(msg.Role),
		"content":         msg.Content,
		"token_count":     msg.TokenCount,
		"created_at":      msg.CreatedAt,
	}
	if _, _, err := client.From("messages").Insert(data, false, "", "minimal", "").Execute(); err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}

	conv.MessageCount++
	if msg.CreatedAt.After(conv.UpdatedAt) {
		conv.UpdatedAt = msg.CreatedAt
	}
	if err := r.UpdateConversation(ctx, conv); err != nil {
		r.logger.Warn("Failed to update conversation counters", "error", err, "conversation_id", conv.ID)
	}
	return nil
}

func (r *SupabaseChatRepository) ListMessages(ctx context.Context, conversationID string, page domain.PageRequest) ([]*domain.Message, int, error) {
	client, err := dbClient(r.supabaseClient)
	if err != nil {
		return nil, 0, err
	}

	page = page.Normalize()
	data, total, err := client.From("messages").
		Select("*", "exact", false).
		Eq("conversation_id", conversationID).
		Order("created_at", &postgrest.OrderOpts{Ascending: true}).
		Range(page.Offset, page.Offset+page.Limit-1, "").
		Execute()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list messages: %w", err)
	}
	rows, err := decodeRows[messageRow](data)
	if err != nil {
		return nil, 0, err
	}
	out := make([]*domain.Message, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, int(total), nil
}

func (r *SupabaseChatRepository) RecentMessages(ctx context.Context, conversationID string, limit int) ([]*domain.Message, error) {
	client, err := dbClient(r.supabaseClient)
	if err != nil {
		return nil, err
	}

	data, _, err := client.From("messages").
		Select("*", "", false).
		Eq("conversation_id", conversationID).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		Limit(limit, "").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get recent messages: %w", err)
	}
	rows, err := decodeRows[messageRow](data)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Message, len(rows))
	for i, row := range rows {
		out[len(rows)-1-i] = row.toDomain()
	}
	return out, nil
}

package domain

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100

	MaxTitleLength = 50
)

// Conversation is a chat thread owned by one user.
type Conversation struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Title        string    `json:"title"`
	Model        string    `json:"model,omitempty"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Message is a single turn in a conversation.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Role           Role      `json:"role"`
	Content        string    `json:"content"`
	TokenCount     int       `json:"token_count,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// PageRequest selects a window of a list.
type PageRequest struct {
	Limit  int
	Offset int
}

// Normalize clamps the request to sane bounds.
func (p PageRequest) Normalize() PageRequest {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// Page is one window of a list plus the total size.
type Page[T any] struct {
	Items   []T  `json:"items"`
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
}

// NewPage builds a Page for items fetched with req out of total.
func NewPage[T any](items []T, total int, req PageRequest) *Page[T] {
	if items == nil {
		items = []T{}
	}
	return &Page[T]{
		Items:   items,
		Total:   total,
		Limit:   req.Limit,
		Offset:  req.Offset,
		HasMore: req.Offset+len(items) < total,
	}
}

// TitleFromMessage derives a conversation title from the first message: at
// most MaxTitleLength runes with whitespace collapsed.
func TitleFromMessage(msg string) string {
	msg = strings.Join(strings.Fields(msg), " ")
	if msg == "" {
		return "New Chat"
	}
	if utf8.RuneCountInString(msg) <= MaxTitleLength {
		return msg
	}
	runes := []rune(msg)
	return strings.TrimSpace(string(runes[:MaxTitleLength]))
}

type ChatRepository interface {
	CreateConversation(ctx context.Context, conv *Conversation) error
	// CreateConversationWithin stores conv only if allow accepts the owner's
	// current conversation count. Count and insert are serialized per user.
	CreateConversationWithin(ctx context.Context, conv *Conversation, allow func(count int) error) error
	GetConversation(ctx context.Context, id string) (*Conversation, error)
	ListConversations(ctx context.Context, userID string, page PageRequest) ([]*Conversation, int, error)
	CountConversations(ctx context.Context, userID string) (int, error)
	UpdateConversation(ctx context.Context, conv *Conversation) error
	DeleteConversation(ctx context.Context, id string) error
	DeleteUserConversations(ctx context.Context, userID string) (int, error)
	// AppendMessage stores msg and bumps the conversation's count and UpdatedAt.
	AppendMessage(ctx context.Context, msg *Message) error
	ListMessages(ctx context.Context, conversationID string, page PageRequest) ([]*Message, int, error)
	// RecentMessages returns up to limit of the newest messages, oldest first.
	RecentMessages(ctx context.Context, conversationID string, limit int) ([]*Message, error)
}

// ChatTurn is a history entry passed to a model.
type ChatTurn struct {
	Role    Role
	Content string
}

// ModelReply is a model's answer plus token accounting.
type ModelReply struct {
	Text         string
	PromptTokens int
	ReplyTokens  int
}

// ChatModel generates a reply for prompt given prior history.
type ChatModel interface {
	Name() string
	Generate(ctx context.Context, model string, history []ChatTurn, prompt string) (*ModelReply, error)
}

type ChatRequest struct {
	ConversationID string `json:"conversation_id,omitempty"`
	Message        string `json:"message"`
	Model          string `json:"model,omitempty"`
}

type ChatResponse struct {
	ConversationID string       `json:"conversation_id"`
	Message        *Message     `json:"message"`
	Usage          *UsageStatus `json:"usage,omitempty"`
}

type ChatService interface {
	Send(ctx context.Context, userID string, req ChatRequest) (*ChatResponse, error)
}

type ChatHistoryService interface {
	CreateConversation(ctx context.Context, userID, title string) (*Conversation, error)
	ListConversations(ctx context.Context, userID string, page PageRequest) (*Page[*Conversation], error)
	GetConversation(ctx context.Context, userID, id string) (*Conversation, error)
	RenameConversation(ctx context.Context, userID, id, title string) (*Conversation, error)
	DeleteConversation(ctx context.Context, userID, id string) error
	ListMessages(ctx context.Context, userID, id string, page PageRequest) (*Page[*Message], error)
	ClearHistory(ctx context.Context, userID string) (int, error)
}

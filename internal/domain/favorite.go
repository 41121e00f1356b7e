package domain

import (
	"context"
	"time"
)

type FavoriteType string

const (
	FavoriteMessage      FavoriteType = "message"
	FavoriteConversation FavoriteType = "conversation"
	FavoritePrompt       FavoriteType = "prompt"
)

// Valid reports whether t is a known favorite type.
func (t FavoriteType) Valid() bool {
	switch t {
	case FavoriteMessage, FavoriteConversation, FavoritePrompt:
		return true
	}
	return false
}

// Favorite is an item a user pinned for later.
type Favorite struct {
	ID        string       `json:"id"`
	UserID    string       `json:"user_id"`
	ItemType  FavoriteType `json:"item_type"`
	ItemID    string       `json:"item_id"`
	Title     string       `json:"title"`
	Content   string       `json:"content,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

type FavoriteInput struct {
	ItemType FavoriteType `json:"item_type"`
	ItemID   string       `json:"item_id"`
	Title    string       `json:"title"`
	Content  string       `json:"content"`
}

type FavoriteRepository interface {
	// List returns the user's favorites newest first; an empty itemType lists all.
	List(ctx context.Context, userID string, itemType FavoriteType) ([]*Favorite, error)
	Find(ctx context.Context, userID string, itemType FavoriteType, itemID string) (*Favorite, error)
	Create(ctx context.Context, fav *Favorite) error
	Delete(ctx context.Context, userID, id string) error
	Count(ctx context.Context, userID string) (int, error)
}

type FavoriteService interface {
	List(ctx context.Context, userID string, itemType FavoriteType) ([]*Favorite, error)
	Add(ctx context.Context, userID string, input FavoriteInput) (*Favorite, error)
	Remove(ctx context.Context, userID, id string) error
	IsFavorite(ctx context.Context, userID string, itemType FavoriteType, itemID string) (bool, error)
}

// AccountOverview is the dashboard summary for one user.
type AccountOverview struct {
	User              *User         `json:"user"`
	Usage             *UsageStatus  `json:"usage"`
	Subscription      *Subscription `json:"subscription,omitempty"`
	FavoriteCount     int           `json:"favorite_count"`
	ConversationCount int           `json:"conversation_count"`
}

type AccountService interface {
	Overview(ctx context.Context, userID string) (*AccountOverview, error)
}

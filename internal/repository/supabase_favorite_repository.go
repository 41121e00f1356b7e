package repository

import (
	"context"
	"fmt"
	"time"

	"beloop-server/internal/domain"

	"github.com/google/uuid"
	"github.com/supabase-community/postgrest-go"
)

// SupabaseFavoriteRepository stores favorites in the `favorites` table, which
// carries a unique index on (user_id, item_type, item_id).
type SupabaseFavoriteRepository struct {
	supabaseClient domain.SupabaseClient
	logger         domain.Logger
}

func NewSupabaseFavoriteRepository(supabaseClient domain.SupabaseClient, logger domain.Logger) *SupabaseFavoriteRepository {
	return &SupabaseFavoriteRepository{
		supabaseClient: supabaseClient,
		logger:         logger,
	}
}

type favoriteRow struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ItemType  string    `json:"item_type"`
	ItemID    string    `json:"item_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func (row favoriteRow) toDomain() *domain.Favorite {
	return &domain.Favorite{
		ID:        row.ID,
		UserID:    row.UserID,
		ItemType:  domain.FavoriteType(row.ItemType),
		ItemID:    row.ItemID,
		Title:     row.Title,
		Content:   row.Content,
		CreatedAt: row.CreatedAt,
	}
}

func (r *SupabaseFavoriteRepository) List(ctx context.Context, userID string, itemType domain.FavoriteType) ([]*domain.Favorite, error) {
	client, err := dbClient(r.supabaseClient)
	if err != nil {
		return nil, err
	}

	query := client.From("favorites").Select("*", "", false).Eq("user_id", userID)
	if itemType != "" {
		query = query.Eq("item_type", string(itemType))
	}
	data, _, err := query.Order("created_at", &postgrest.OrderOpts{Ascending: false}).Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	rows, err := decodeRows[favoriteRow](data)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Favorite, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *SupabaseFavoriteRepository) Find(ctx context.Context, userID string, itemType domain.FavoriteType, itemID string) (*domain.Favorite, error) {
	client, err := dbClient(r.supabaseClient)
	if err != nil {
		return nil, err
	}

	data, _, err := client.From("favorites").
		Select("*", "", false).
		Eq("user_id", userID).
		Eq("item_type", string(itemType)).
		Eq("item_id", itemID).
		Limit(1, "").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to find favorite: %w", err)
	}
	rows, err := decodeRows[favoriteRow](data)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.ErrFavoriteNotFound
	}
	return rows[0].toDomain(), nil
}

func (r *SupabaseFavoriteRepository) Create(ctx context.Context, fav *domain.Favorite) error {
	client, err := dbClient(r.supabaseClient)
	if err != nil {
		return err
	}

	if fav.ID == "" {
		fav.ID = uuid.NewString()
	}
	if fav.CreatedAt.IsZero() {
		fav.CreatedAt = time.Now().UTC()
	}
	data := map[string]interface{}{
		"id":         fav.ID,
		"user_id":    fav.UserID,
		"item_type":  string(fav.ItemType),
		"item_id":    fav.ItemID,
		"title":      fav.Title,
		"content":    fav.Content,
		"created_at": fav.CreatedAt,
	}
	_, _, err = client.From("favorites").Insert(data, false, "", "minimal", "").Execute()
	if isUniqueViolation(err) {
		return domain.ErrFavoriteExists
	}
	if err != nil {
		return fmt.Errorf("failed to create favorite: %w", err)
	}
	return nil
}

func (r *SupabaseFavoriteRepository) Delete(ctx context.Context, userID, id string) error {
	client, err := dbClient(r.supabaseClient)
	if err != nil {
		return err
	}

	resp, _, err := client.From("favorites").Delete("representation", "").Eq("id", id).Eq("user_id", userID).Execute()
	if err != nil {
		return fmt.Errorf("failed to delete favorite: %w", err)
	}
	rows, err := decodeRows[favoriteRow](resp)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return domain.ErrFavoriteNotFound
	}
	return nil
}

func (r *SupabaseFavoriteRepository) Count(ctx context.Context, userID string) (int, error) {
	client, err := dbClient(r.supabaseClient)
	if err != nil {
		return 0, err
	}

	_, total, err := client.From("favorites").Select("id", "exact", true).Eq("user_id", userID).Execute()
	if err != nil {
		return 0, fmt.Errorf("failed to count favorites: %w", err)
	}
	return int(total), nil
}

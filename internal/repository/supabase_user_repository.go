package repository

import (
	"context"
	"fmt"
	"time"

	"beloop-server/internal/domain"

	"github.com/google/uuid"
)

// SupabaseUserRepository stores accounts in the `app_users` table.
type SupabaseUserRepository struct {
	supabaseClient domain.SupabaseClient
	logger         domain.Logger
}

func NewSupabaseUserRepository(supabaseClient domain.SupabaseClient, logger domain.Logger) *SupabaseUserRepository {
	return &SupabaseUserRepository{
		supabaseClient: supabaseClient,
		logger:         logger,
	}
}

type userRow struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Image        string    `json:"image"`
	Provider     string    `json:"provider"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (row userRow) toDomain() *domain.User {
	return &domain.User{
		ID:           row.ID,
		Email:        row.Email,
		Name:         row.Name,
		Image:        row.Image,
		Provider:     row.Provider,
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

func (r *SupabaseUserRepository) Create(ctx context.Context, user *domain.User) error {
	client, err := dbClient(r.supabaseClient)
	if err != nil {
		return err
	}

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	user.Email = domain.NormalizeEmail(user.Email)

	data := map[string]interface{}{
		"id":            user.ID,
		"email":         user.Email,
		"name":          user.Name,
		"image":         user.Image,
		"provider":      user.Provider,
		"password_hash": user.PasswordHash,
		"created_at":    user.CreatedAt,
		"updated_at":    user.UpdatedAt,
	}
	_, _, err = client.From("app_users").Insert(data, false, "", "minimal", "").Execute()
	if isUniqueViolation(err) {
		return domain.ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *SupabaseUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getBy("id", id)
}

func (r *SupabaseUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getBy("email", domain.NormalizeEmail(email))
}

func (r *SupabaseUserRepository) getBy(column, value string) (*domain.User, error) {
	client, err := dbClient(r.supabaseClient)
	if err != nil {
		return nil, err
	}

	data, _, err := client.From("app_users").
		Select("*", "", false).
		Eq(column, value).
		Limit(1, "").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	rows, err := decodeRows[userRow](data)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.ErrUserNotFound
	}
	return rows[0].toDomain(), nil
}

func (r *SupabaseUserRepository) Update(ctx context.Context, user *domain.User) error {
	client, err := dbClient(r.supabaseClient)
	if err != nil {
		return err
	}

	user.Email = domain.NormalizeEmail(user.Email)
	user.UpdatedAt = time.Now().UTC()
	data := map[string]interface{}{
		"email":         user.Email,
		"name":          user.Name,
		"image":         user.Image,
		"provider":      user.Provider,
		"password_hash": user.PasswordHash,
		"updated_at":    user.UpdatedAt,
	}
	resp, _, err := client.From("app_users").Update(data, "representation", "").Eq("id", user.ID).Execute()
	if isUniqueViolation(err) {
		return domain.ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	rows, err := decodeRows[userRow](resp)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

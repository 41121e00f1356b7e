package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"beloop-server/internal/domain"

	"github.com/google/uuid"
)

type MemoryFavoriteRepository struct {
	mu        sync.RWMutex
	favorites map[string]*domain.Favorite
}

func NewMemoryFavoriteRepository() *MemoryFavoriteRepository {
	return &MemoryFavoriteRepository{
		favorites: make(map[string]*domain.Favorite),
	}
}

func (r *MemoryFavoriteRepository) List(ctx context.Context, userID string, itemType domain.FavoriteType) ([]*domain.Favorite, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Favorite, 0)
	for _, f := range r.favorites {
		if f.UserID != userID || (itemType != "" && f.ItemType != itemType) {
			continue
		}
		cp := *f
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryFavoriteRepository) Find(ctx context.Context, userID string, itemType domain.FavoriteType, itemID string) (*domain.Favorite, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if f := r.findLocked(userID, itemType, itemID); f != nil {
		cp := *f
		return &cp, nil
	}
	return nil, domain.ErrFavoriteNotFound
}

func (r *MemoryFavoriteRepository) Create(ctx context.Context, fav *domain.Favorite) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.findLocked(fav.UserID, fav.ItemType, fav.ItemID) != nil {
		return domain.ErrFavoriteExists
	}
	if fav.ID == "" {
		fav.ID = uuid.NewString()
	}
	if fav.CreatedAt.IsZero() {
		fav.CreatedAt = time.Now().UTC()
	}
	stored := *fav
	r.favorites[fav.ID] = &stored
	return nil
}

// Delete removes a favorite owned by userID; other users' ids are reported as not found.
func (r *MemoryFavoriteRepository) Delete(ctx context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.favorites[id]
	if !ok || f.UserID != userID {
		return domain.ErrFavoriteNotFound
	}
	delete(r.favorites, id)
	return nil
}

func (r *MemoryFavoriteRepository) Count(ctx context.Context, userID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, f := range r.favorites {
		if f.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (r *MemoryFavoriteRepository) findLocked(userID string, itemType domain.FavoriteType, itemID string) *domain.Favorite {
	for _, f := range r.favorites {
		if f.UserID == userID && f.ItemType == itemType && f.ItemID == itemID {
			return f
		}
	}
	return nil
}

package handler

import (
	"net/http"

	"beloop-server/internal/domain"

	"github.com/gorilla/mux"
)

type FavoriteHandler struct {
	favorites domain.FavoriteService
	logger    domain.Logger
}

func NewFavoriteHandler(favorites domain.FavoriteService, logger domain.Logger) *FavoriteHandler {
	return &FavoriteHandler{favorites: favorites, logger: logger}
}

// List returns the user's favorites, optionally filtered by ?type=.
func (h *FavoriteHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := GetUserFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "User not found in context")
		return
	}

	itemType := domain.FavoriteType(r.URL.Query().Get("type"))
	favorites, err := h.favorites.List(r.Context(), user.ID, itemType)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"favorites": favorites})
}

func (h *FavoriteHandler) Add(w http.ResponseWriter, r *http.Request) {
	user, ok := GetUserFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "User not found in context")
		return
	}

	var input domain.FavoriteInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	fav, err := h.favorites.Add(r.Context(), user.ID, input)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, fav)
}

func (h *FavoriteHandler) Remove(w http.ResponseWriter, r *http.Request) {
	user, ok := GetUserFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "User not found in context")
		return
	}

	if err := h.favorites.Remove(r.Context(), user.ID, mux.Vars(r)["id"]); err != nil {
		respondError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

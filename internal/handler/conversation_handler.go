package handler

import (
	"net/http"

	"beloop-server/internal/domain"

	"github.com/gorilla/mux"
)

type ConversationHandler struct {
	history domain.ChatHistoryService
	logger  domain.Logger
}

func NewConversationHandler(history domain.ChatHistoryService, logger domain.Logger) *ConversationHandler {
	return &ConversationHandler{history: history, logger: logger}
}

type conversationTitleRequest struct {
	Title string `json:"title"`
}

func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := GetUserFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "User not found in context")
		return
	}
	page, err := pageFromQuery(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	result, err := h.history.ListConversations(r.Context(), user.ID, page)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *ConversationHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := GetUserFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "User not found in context")
		return
	}

	var req conversationTitleRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	conv, err := h.history.CreateConversation(r.Context(), user.ID, req.Title)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, conv)
}

// Clear deletes every conversation of the current user.
func (h *ConversationHandler) Clear(w http.ResponseWriter, r *http.Request) {
	user, ok := GetUserFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "User not found in context")
		return
	}

	n, err := h.history.ClearHistory(r.Context(), user.ID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deleted": n})
}

func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := GetUserFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "User not found in context")
		return
	}

	conv, err := h.history.GetConversation(r.Context(), user.ID, mux.Vars(r)["id"])
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

func (h *ConversationHandler) Rename(w http.ResponseWriter, r *http.Request) {
	user, ok := GetUserFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "User not found in context")
		return
	}

	var req conversationTitleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	conv, err := h.history.RenameConversation(r.Context(), user.ID, mux.Vars(r)["id"], req.Title)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

func (h *ConversationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := GetUserFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "User not found in context")
		return
	}

	if err := h.history.DeleteConversation(r.Context(), user.ID, mux.Vars(r)["id"]); err != nil {
		respondError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ConversationHandler) Messages(w http.ResponseWriter, r *http.Request) {
	user, ok := GetUserFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "User not found in context")
		return
	}
	page, err := pageFromQuery(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	result, err := h.history.ListMessages(r.Context(), user.ID, mux.Vars(r)["id"], page)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

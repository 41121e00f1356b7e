package handler

import (
	"net/http"

	"beloop-server/internal/domain"
)

type ChatHandler struct {
	chat   domain.ChatService
	logger domain.Logger
}

func NewChatHandler(chat domain.ChatService, logger domain.Logger) *ChatHandler {
	return &ChatHandler{chat: chat, logger: logger}
}

// Send handles one chat turn.
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	user, ok := GetUserFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "User not found in context")
		return
	}

	var req domain.ChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.chat.Send(r.Context(), user.ID, req)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

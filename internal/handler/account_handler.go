package handler

import (
	"net/http"

	"beloop-server/internal/domain"
)

type AccountHandler struct {
	account domain.AccountService
	logger  domain.Logger
}

func NewAccountHandler(account domain.AccountService, logger domain.Logger) *AccountHandler {
	return &AccountHandler{account: account, logger: logger}
}

func (h *AccountHandler) Overview(w http.ResponseWriter, r *http.Request) {
	user, ok := GetUserFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "User not found in context")
		return
	}

	overview, err := h.account.Overview(r.Context(), user.ID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

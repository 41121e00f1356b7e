package handler

import (
	"net/http"

	"beloop-server/internal/domain"
)

type MembershipHandler struct {
	membership domain.MembershipService
	logger     domain.Logger
}

func NewMembershipHandler(membership domain.MembershipService, logger domain.Logger) *MembershipHandler {
	return &MembershipHandler{membership: membership, logger: logger}
}

// ListTiers is public so the pricing page can render without a session.
func (h *MembershipHandler) ListTiers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tiers": h.membership.ListTiers(),
	})
}

func (h *MembershipHandler) GetMembership(w http.ResponseWriter, r *http.Request) {
	user, ok := GetUserFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "User not found in context")
		return
	}

	m, err := h.membership.GetMembership(r.Context(), user.ID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	tier, err := h.membership.GetTier(m.TierID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"membership": m,
		"tier":       tier,
	})
}

func (h *MembershipHandler) GetUsage(w http.ResponseWriter, r *http.Request) {
	user, ok := GetUserFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "User not found in context")
		return
	}

	usage, err := h.membership.GetUsage(r.Context(), user.ID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, usage)
}

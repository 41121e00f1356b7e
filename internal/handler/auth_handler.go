package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"beloop-server/internal/domain"

	"github.com/google/uuid"
)

const (
	oauthStateCookie = "beloop_oauth_state"
	oauthStateTTL    = 10 * time.Minute
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	auth        domain.AuthService
	frontendURL string
	logger      domain.Logger
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(auth domain.AuthService, frontendURL string, logger domain.Logger) *AuthHandler {
	return &AuthHandler{
		auth:        auth,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		logger:      logger,
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session, err := h.auth.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	session, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// GoogleLogin sets a state cookie and redirects to Google's consent screen.
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	authURL, err := h.auth.GoogleAuthURL(state)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/api/v1/auth/google",
		MaxAge:   int(oauthStateTTL.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, authURL, http.StatusFound)
}

// GoogleCallback checks the state, finishes the code exchange and hands the
// session token to the frontend in the URL fragment.
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(oauthStateCookie)
	state := r.URL.Query().Get("state")
	if err != nil || state == "" || cookie.Value != state {
		h.logger.Warn("OAuth state mismatch")
		h.redirectLoginError(w, r, "invalid_state")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:   oauthStateCookie,
		Path:   "/api/v1/auth/google",
		MaxAge: -1,
	})

	if oauthErr := r.URL.Query().Get("error"); oauthErr != "" {
		h.redirectLoginError(w, r, oauthErr)
		return
	}
	code := r.URL.Query().Get("code")
	if code == "" {
		h.redirectLoginError(w, r, "missing_code")
		return
	}

	session, err := h.auth.GoogleCallback(r.Context(), code)
	if err != nil {
		h.logger.Error("Google sign-in failed", err)
		reason := "oauth_failed"
		if errors.Is(err, domain.ErrAccessDenied) {
			reason = "access_denied"
		}
		h.redirectLoginError(w, r, reason)
		return
	}

	fragment := url.Values{}
	fragment.Set("token", session.Token)
	fragment.Set("expires_at", session.ExpiresAt.UTC().Format(time.RFC3339))
	http.Redirect(w, r, h.frontendURL+"/auth/callback#"+fragment.Encode(), http.StatusFound)
}

func (h *AuthHandler) redirectLoginError(w http.ResponseWriter, r *http.Request, reason string) {
	http.Redirect(w, r, h.frontendURL+"/login?error="+url.QueryEscape(reason), http.StatusFound)
}

// Session returns the signed-in user for the current token.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	user, ok := GetUserFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "User not found in context")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"authenticated": true,
		"user":          user,
	})
}

// GetProfile returns the current user's profile information
func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := GetUserFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "User not found in context")
		return
	}

	profile, err := h.auth.GetProfile(r.Context(), user.ID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// UpdateProfile updates the current user's profile information
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := GetUserFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "User not found in context")
		return
	}

	var update domain.ProfileUpdate
	if err := decodeJSON(w, r, &update); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	profile, err := h.auth.UpdateProfile(r.Context(), user.ID, update)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

package handler

import (
	"net/http"

	"beloop-server/internal/domain"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// Handlers groups the route handlers mounted by NewRouter.
type Handlers struct {
	Auth         *AuthHandler
	Account      *AccountHandler
	Membership   *MembershipHandler
	Chat         *ChatHandler
	Conversation *ConversationHandler
	Subscription *SubscriptionHandler
	Favorite     *FavoriteHandler
}

// NewRouter creates a new HTTP router with all routes configured
func NewRouter(h Handlers, authMiddleware func(http.Handler) http.Handler, allowedOrigins []string, logger domain.Logger) http.Handler {
	router := mux.NewRouter()
	router.Use(RecoveryMiddleware(logger), LoggingMiddleware(logger))

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "beloop-server"})
	}).Methods("GET")

	api := router.PathPrefix("/api/v1").Subrouter()

	// Public routes
	api.HandleFunc("/auth/register", h.Auth.Register).Methods("POST")
	api.HandleFunc("/auth/login", h.Auth.Login).Methods("POST")
	api.HandleFunc("/auth/google/login", h.Auth.GoogleLogin).Methods("GET")
	api.HandleFunc("/auth/google/callback", h.Auth.GoogleCallback).Methods("GET")
	api.HandleFunc("/membership/tiers", h.Membership.ListTiers).Methods("GET")

	// Protected routes (require authentication)
	protected := api.PathPrefix("").Subrouter()
	protected.Use(authMiddleware)

	protected.HandleFunc("/auth/session", h.Auth.Session).Methods("GET")
	protected.HandleFunc("/auth/profile", h.Auth.GetProfile).Methods("GET")
	protected.HandleFunc("/auth/profile", h.Auth.UpdateProfile).Methods("PUT")

	protected.HandleFunc("/account/overview", h.Account.Overview).Methods("GET")

	protected.HandleFunc("/membership", h.Membership.GetMembership).Methods("GET")
	protected.HandleFunc("/membership/usage", h.Membership.GetUsage).Methods("GET")

	protected.HandleFunc("/chat", h.Chat.Send).Methods("POST")

	protected.HandleFunc("/conversations", h.Conversation.List).Methods("GET")
	protected.HandleFunc("/conversations", h.Conversation.Create).Methods("POST")
	protected.HandleFunc("/conversations", h.Conversation.Clear).Methods("DELETE")
	protected.HandleFunc("/conversations/{id}", h.Conversation.Get).Methods("GET")
	protected.HandleFunc("/conversations/{id}", h.Conversation.Rename).Methods("PATCH")
	protected.HandleFunc("/conversations/{id}", h.Conversation.Delete).Methods("DELETE")
	protected.HandleFunc("/conversations/{id}/messages", h.Conversation.Messages).Methods("GET")

	protected.HandleFunc("/subscription", h.Subscription.Get).Methods("GET")
	protected.HandleFunc("/subscription", h.Subscription.Create).Methods("POST")
	protected.HandleFunc("/subscription/cancel", h.Subscription.Cancel).Methods("POST")
	protected.HandleFunc("/payments", h.Subscription.ListPayments).Methods("GET")

	protected.HandleFunc("/favorites", h.Favorite.List).Methods("GET")
	protected.HandleFunc("/favorites", h.Favorite.Add).Methods("POST")
	protected.HandleFunc("/favorites/{id}", h.Favorite.Remove).Methods("DELETE")

	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"Idempotency-Key",
		},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	})

	return c.Handler(router)
}

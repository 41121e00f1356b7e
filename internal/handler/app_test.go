package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"beloop-server/internal/domain"
	"beloop-server/internal/repository"
	"beloop-server/internal/service"
)

// testApp wires the real services over in-memory stores behind the router.
type testApp struct {
	router     http.Handler
	auth       domain.AuthService
	membership domain.MembershipService
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	logger := NewMockHandlerLogger()

	users := repository.NewMemoryUserRepository()
	chats := repository.NewMemoryChatRepository()
	favorites := repository.NewMemoryFavoriteRepository()

	auth := service.NewAuthService(users, service.NewTokenService("handler-test-secret", time.Hour), nil, logger)
	membership := service.NewMembershipService(repository.NewMemoryMembershipRepository(), logger)
	payments := service.NewPaymentService(repository.NewMemorySubscriptionRepository(), service.NewMockProcessor(0, 0, logger), membership, logger)
	favoriteService := service.NewFavoriteService(favorites, logger)

	handlers := Handlers{
		Auth:         NewAuthHandler(auth, "http://localhost:3000", logger),
		Account:      NewAccountHandler(service.NewAccountService(users, membership, payments, favorites, chats), logger),
		Membership:   NewMembershipHandler(membership, logger),
		Chat:         NewChatHandler(service.NewChatService(chats, membership, service.NewEchoModel(), "gemini-2.0-flash", logger), logger),
		Conversation: NewConversationHandler(service.NewChatHistoryService(chats, membership, logger), logger),
		Subscription: NewSubscriptionHandler(payments, logger),
		Favorite:     NewFavoriteHandler(favoriteService, logger),
	}

	return &testApp{
		router:     NewRouter(handlers, NewAuthMiddleware(auth, logger).Middleware, []string{"http://localhost:3000"}, logger),
		auth:       auth,
		membership: membership,
	}
}

// signUp registers a user and returns its session token.
func (a *testApp) signUp(t *testing.T, email string) string {
	t.Helper()
	session, err := a.auth.Register(context.Background(), email, "password123", "")
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return session.Token
}

func (a *testApp) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to decode response %q: %v", rr.Body.String(), err)
	}
}

func expectStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rr.Code, rr.Body.String())
	}
}

func createContextWithUser(req *http.Request, user *domain.User) *http.Request {
	ctx := context.WithValue(req.Context(), userContextKey, user)
	return req.WithContext(ctx)
}

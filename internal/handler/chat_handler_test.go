package handler

import (
	"net/http"
	"strings"
	"testing"

	"beloop-server/internal/domain"
)

func TestChatHandler_SendAndHistory(t *testing.T) {
	app := newTestApp(t)
	token := app.signUp(t, "chat@example.com")

	rr := app.do(t, http.MethodPost, "/api/v1/chat", token, map[string]string{"message": "Hello Beloop"})
	expectStatus(t, rr, http.StatusOK)

	var resp domain.ChatResponse
	decodeBody(t, rr, &resp)
	if resp.ConversationID == "" || !strings.Contains(resp.Message.Content, "Hello Beloop") {
		t.Fatalf("unexpected chat response: %+v", resp)
	}
	if resp.Usage == nil || resp.Usage.MessagesToday != 1 || resp.Usage.Remaining != 19 {
		t.Fatalf("unexpected usage: %+v", resp.Usage)
	}

	rr = app.do(t, http.MethodGet, "/api/v1/conversations/"+resp.ConversationID+"/messages", token, nil)
	expectStatus(t, rr, http.StatusOK)

	var page domain.Page[*domain.Message]
	decodeBody(t, rr, &page)
	if page.Total != 2 || page.Items[0].Role != domain.RoleUser || page.Items[1].Role != domain.RoleModel {
		t.Fatalf("unexpected messages page: %+v", page)
	}
}

func TestChatHandler_Errors(t *testing.T) {
	app := newTestApp(t)
	token := app.signUp(t, "chat@example.com")

	rr := app.do(t, http.MethodPost, "/api/v1/chat", token, map[string]string{"message": "   "})
	expectStatus(t, rr, http.StatusBadRequest)

	rr = app.do(t, http.MethodPost, "/api/v1/chat", token, map[string]string{"message": strings.Repeat("x", 2001)})
	expectStatus(t, rr, http.StatusBadRequest)

	rr = app.do(t, http.MethodPost, "/api/v1/chat", token, map[string]string{"message": "hi", "model": "gemini-2.5-pro"})
	expectStatus(t, rr, http.StatusPaymentRequired)

	rr = app.do(t, http.MethodPost, "/api/v1/chat", token, map[string]string{"message": "hi", "conversation_id": "nope"})
	expectStatus(t, rr, http.StatusNotFound)
}

func TestChatHandler_DailyLimit(t *testing.T) {
	app := newTestApp(t)
	token := app.signUp(t, "limit@example.com")

	rr := app.do(t, http.MethodPost, "/api/v1/chat", token, map[string]string{"message": "first"})
	expectStatus(t, rr, http.StatusOK)
	var first domain.ChatResponse
	decodeBody(t, rr, &first)

	for i := 1; i < 20; i++ {
		rr = app.do(t, http.MethodPost, "/api/v1/chat", token, map[string]string{
			"message":         "again",
			"conversation_id": first.ConversationID,
		})
		expectStatus(t, rr, http.StatusOK)
	}

	rr = app.do(t, http.MethodPost, "/api/v1/chat", token, map[string]string{
		"message":         "over",
		"conversation_id": first.ConversationID,
	})
	expectStatus(t, rr, http.StatusTooManyRequests)
	if !strings.Contains(rr.Body.String(), "rate_limited") {
		t.Fatalf("unexpected body: %s", rr.Body.String())
	}
}

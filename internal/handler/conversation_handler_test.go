package handler

import (
	"net/http"
	"testing"

	"beloop-server/internal/domain"
)

func TestConversationHandler_Lifecycle(t *testing.T) {
	app := newTestApp(t)
	token := app.signUp(t, "owner@example.com")
	other := app.signUp(t, "other@example.com")

	rr := app.do(t, http.MethodPost, "/api/v1/conversations", token, map[string]string{"title": "Recipes"})
	expectStatus(t, rr, http.StatusCreated)
	var conv domain.Conversation
	decodeBody(t, rr, &conv)

	rr = app.do(t, http.MethodGet, "/api/v1/conversations/"+conv.ID, other, nil)
	expectStatus(t, rr, http.StatusNotFound)

	rr = app.do(t, http.MethodPatch, "/api/v1/conversations/"+conv.ID, token, map[string]string{"title": "Dinner ideas"})
	expectStatus(t, rr, http.StatusOK)
	decodeBody(t, rr, &conv)
	if conv.Title != "Dinner ideas" {
		t.Fatalf("expected renamed conversation, got %q", conv.Title)
	}

	rr = app.do(t, http.MethodGet, "/api/v1/conversations?limit=10", token, nil)
	expectStatus(t, rr, http.StatusOK)
	var page domain.Page[*domain.Conversation]
	decodeBody(t, rr, &page)
	if page.Total != 1 || page.Limit != 10 {
		t.Fatalf("unexpected page: %+v", page)
	}

	rr = app.do(t, http.MethodDelete, "/api/v1/conversations/"+conv.ID, other, nil)
	expectStatus(t, rr, http.StatusNotFound)

	rr = app.do(t, http.MethodDelete, "/api/v1/conversations/"+conv.ID, token, nil)
	expectStatus(t, rr, http.StatusNoContent)

	rr = app.do(t, http.MethodGet, "/api/v1/conversations/"+conv.ID, token, nil)
	expectStatus(t, rr, http.StatusNotFound)
}

func TestConversationHandler_CreateWithoutBodyAndLimit(t *testing.T) {
	app := newTestApp(t)
	token := app.signUp(t, "many@example.com")

	for i := 0; i < 5; i++ {
		rr := app.do(t, http.MethodPost, "/api/v1/conversations", token, nil)
		expectStatus(t, rr, http.StatusCreated)
	}
	rr := app.do(t, http.MethodPost, "/api/v1/conversations", token, nil)
	expectStatus(t, rr, http.StatusPaymentRequired)

	rr = app.do(t, http.MethodDelete, "/api/v1/conversations", token, nil)
	expectStatus(t, rr, http.StatusOK)
	var cleared map[string]int
	decodeBody(t, rr, &cleared)
	if cleared["deleted"] != 5 {
		t.Fatalf("expected 5 deleted, got %v", cleared)
	}
}

func TestConversationHandler_BadPaging(t *testing.T) {
	app := newTestApp(t)
	token := app.signUp(t, "paging@example.com")

	rr := app.do(t, http.MethodGet, "/api/v1/conversations?offset=x", token, nil)
	expectStatus(t, rr, http.StatusBadRequest)
}

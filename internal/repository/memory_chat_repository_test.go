package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"beloop-server/internal/domain"
)

func TestMemoryChatRepository_AppendMessageUpdatesConversation(t *testing.T) {
	repo := NewMemoryChatRepository()
	ctx := context.Background()

	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	conv := &domain.Conversation{UserID: "user-1", Title: "Hello", CreatedAt: created}
	if err := repo.CreateConversation(ctx, conv); err != nil {
		t.Fatalf("create conversation: %v", err)
	}
	if conv.ID == "" {
		t.Fatal("expected generated conversation id")
	}

	msgTime := created.Add(time.Minute)
	msg := &domain.Message{ConversationID: conv.ID, Role: domain.RoleUser, Content: "hi", CreatedAt: msgTime}
	if err := repo.AppendMessage(ctx, msg); err != nil {
		t.Fatalf("append message: %v", err)
	}

	got, err := repo.GetConversation(ctx, conv.ID)
	if err != nil {
		t.Fatalf("get conversation: %v", err)
	}
	if got.MessageCount != 1 {
		t.Fatalf("expected message count 1, got %d", got.MessageCount)
	}
	if !got.UpdatedAt.Equal(msgTime) {
		t.Fatalf("expected updated_at %v, got %v", msgTime, got.UpdatedAt)
	}
}

func TestMemoryChatRepository_AppendToMissingConversation(t *testing.T) {
	repo := NewMemoryChatRepository()
	err := repo.AppendMessage(context.Background(), &domain.Message{ConversationID: "nope"})
	if !errors.Is(err, domain.ErrConversationNotFound) {
		t.Fatalf("expected ErrConversationNotFound, got %v", err)
	}
}

func TestMemoryChatRepository_ListConversationsNewestFirst(t *testing.T) {
	repo := NewMemoryChatRepository()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, title := range []string{"old", "middle", "new"} {
		ts := base.Add(time.Duration(i) * time.Hour)
		_ = repo.CreateConversation(ctx, &domain.Conversation{UserID: "user-1", Title: title, CreatedAt: ts, UpdatedAt: ts})
	}
	_ = repo.CreateConversation(ctx, &domain.Conversation{UserID: "user-2", Title: "other"})

	items, total, err := repo.ListConversations(ctx, "user-1", domain.PageRequest{Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 3 {
		t.Fatalf("expected total 3, got %d", total)
	}
	if len(items) != 2 || items[0].Title != "new" || items[1].Title != "middle" {
		t.Fatalf("unexpected order: %+v", items)
	}

	items, _, _ = repo.ListConversations(ctx, "user-1", domain.PageRequest{Limit: 2, Offset: 2})
	if len(items) != 1 || items[0].Title != "old" {
		t.Fatalf("unexpected second page: %+v", items)
	}
}

func TestMemoryChatRepository_MessagesPagingAndRecent(t *testing.T) {
	repo := NewMemoryChatRepository()
	ctx := context.Background()
	conv := &domain.Conversation{UserID: "user-1"}
	_ = repo.CreateConversation(ctx, conv)

	for _, content := range []string{"one", "two", "three", "four"} {
		_ = repo.AppendMessage(ctx, &domain.Message{ConversationID: conv.ID, Role: domain.RoleUser, Content: content})
	}

	page, total, err := repo.ListMessages(ctx, conv.ID, domain.PageRequest{Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if total != 4 || len(page) != 2 || page[0].Content != "two" || page[1].Content != "three" {
		t.Fatalf("unexpected page: total=%d %+v", total, page)
	}

	recent, err := repo.RecentMessages(ctx, conv.ID, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 2 || recent[0].Content != "three" || recent[1].Content != "four" {
		t.Fatalf("unexpected recent messages: %+v", recent)
	}
}

func TestMemoryChatRepository_DeleteCascades(t *testing.T) {
	repo := NewMemoryChatRepository()
	ctx := context.Background()

	a := &domain.Conversation{UserID: "user-1"}
	b := &domain.Conversation{UserID: "user-1"}
	c := &domain.Conversation{UserID: "user-2"}
	for _, conv := range []*domain.Conversation{a, b, c} {
		_ = repo.CreateConversation(ctx, conv)
		_ = repo.AppendMessage(ctx, &domain.Message{ConversationID: conv.ID, Role: domain.RoleUser, Content: "x"})
	}

	if err := repo.DeleteConversation(ctx, a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, total, _ := repo.ListMessages(ctx, a.ID, domain.PageRequest{}); total != 0 {
		t.Fatalf("expected messages to be removed, got %d", total)
	}

	n, err := repo.DeleteUserConversations(ctx, "user-1")
	if err != nil || n != 1 {
		t.Fatalf("expected 1 deleted conversation, got %d (%v)", n, err)
	}
	if count, _ := repo.CountConversations(ctx, "user-2"); count != 1 {
		t.Fatalf("other user's conversations must survive, got %d", count)
	}
}

func TestMemoryChatRepository_CreateConversationWithin(t *testing.T) {
	repo := NewMemoryChatRepository()
	ctx := context.Background()
	limitReached := errors.New("limit reached")
	allowThree := func(count int) error {
		if count >= 3 {
			return limitReached
		}
		return nil
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conv := &domain.Conversation{UserID: "user-1", Title: fmt.Sprintf("chat %d", i)}
			if err := repo.CreateConversationWithin(ctx, conv, allowThree); err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			} else if !errors.Is(err, limitReached) {
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if created != 3 {
		t.Fatalf("expected 3 conversations created, got %d", created)
	}
	if n, _ := repo.CountConversations(ctx, "user-1"); n != 3 {
		t.Fatalf("expected 3 stored conversations, got %d", n)
	}
	if err := repo.CreateConversationWithin(ctx, &domain.Conversation{UserID: "user-2"}, allowThree); err != nil {
		t.Fatalf("other users are not limited: %v", err)
	}
}

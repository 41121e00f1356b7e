package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"beloop-server/internal/domain"
)

// EchoModel answers without any upstream call. It is used when no Gemini
// credentials are configured so the API stays usable in demo mode.
type EchoModel struct{}

func NewEchoModel() *EchoModel {
	return &EchoModel{}
}

func (EchoModel) Name() string { return "echo" }

func (EchoModel) Generate(ctx context.Context, model string, history []domain.ChatTurn, prompt string) (*domain.ModelReply, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "You said: %s", strings.TrimSpace(prompt))
	if n := len(history); n > 0 {
		fmt.Fprintf(&sb, "\n\n(%d earlier messages in this conversation)", n)
	}
	sb.WriteString("\n\nBeloop AI is running in demo mode. Configure GEMINI_API_KEY for real answers.")

	text := sb.String()
	return &domain.ModelReply{
		Text:         text,
		PromptTokens: approxTokens(prompt),
		ReplyTokens:  approxTokens(text),
	}, nil
}

// approxTokens estimates tokens at roughly four characters each.
func approxTokens(s string) int {
	n := utf8.RuneCountInString(s)
	if n == 0 {
		return 0
	}
	return (n + 3) / 4
}

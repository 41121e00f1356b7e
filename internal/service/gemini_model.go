package service

import (
	"context"
	"fmt"
	"strings"

	"beloop-server/internal/domain"

	"google.golang.org/genai"
)

const systemPrompt = "You are Beloop AI, a friendly and concise assistant. " +
	"Answer in the language the user writes in and format code with Markdown."

// GeminiModel talks to the Gemini API with an API key.
type GeminiModel struct {
	client *genai.Client
}

func NewGeminiModel(ctx context.Context, apiKey string) (*GeminiModel, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiModel{client: client}, nil
}

func (g *GeminiModel) Name() string { return "gemini" }

func (g *GeminiModel) Generate(ctx context.Context, model string, history []domain.ChatTurn, prompt string) (*domain.ModelReply, error) {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, turn := range history {
		contents = append(contents, genai.NewContentFromText(turn.Content, geminiRole(turn.Role)))
	}
	contents = append(contents, genai.NewContentFromText(prompt, genai.RoleUser))

	result, err := g.client.Models.GenerateContent(ctx, model, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0.7),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return nil, fmt.Errorf("empty response from model")
	}

	reply := &domain.ModelReply{Text: text}
	if um := result.UsageMetadata; um != nil {
		reply.PromptTokens = int(um.PromptTokenCount)
		reply.ReplyTokens = int(um.CandidatesTokenCount)
	}
	return reply, nil
}

func geminiRole(role domain.Role) genai.Role {
	if role == domain.RoleModel {
		return genai.RoleModel
	}
	return genai.RoleUser
}

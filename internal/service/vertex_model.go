package service

import (
	"context"
	"fmt"
	"strings"

	"beloop-server/internal/domain"

	"cloud.google.com/go/vertexai/genai"
)

// VertexModel serves chat through Vertex AI using application default credentials.
type VertexModel struct {
	client *genai.Client
}

func NewVertexModel(ctx context.Context, projectID, location string) (*VertexModel, error) {
	client, err := genai.NewClient(ctx, projectID, location)
	if err != nil {
		return nil, fmt.Errorf("failed to create vertex ai client: %w", err)
	}
	return &VertexModel{client: client}, nil
}

func (v *VertexModel) Name() string { return "vertex" }

func (v *VertexModel) Close() error {
	return v.client.Close()
}

func (v *VertexModel) Generate(ctx context.Context, model string, history []domain.ChatTurn, prompt string) (*domain.ModelReply, error) {
	gm := v.client.GenerativeModel(model)
	gm.SetTemperature(0.7)
	gm.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemPrompt)},
	}

	chat := gm.StartChat()
	for _, turn := range history {
		role := "user"
		if turn.Role == domain.RoleModel {
			role = "model"
		}
		chat.History = append(chat.History, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(turn.Content)},
		})
	}

	resp, err := chat.SendMessage(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("gemini call failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("empty response from model")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return nil, fmt.Errorf("empty response from model")
	}

	reply := &domain.ModelReply{Text: text}
	if um := resp.UsageMetadata; um != nil {
		reply.PromptTokens = int(um.PromptTokenCount)
		reply.ReplyTokens = int(um.CandidatesTokenCount)
	}
	return reply, nil
}

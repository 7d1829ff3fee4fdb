package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

type GeminiClient struct {
	client *genai.Client
	model  string
}

func NewGemini(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is empty")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init gemini client: %w", err)
	}
	return &GeminiClient{client: client, model: model}, nil
}

func (c *GeminiClient) Generate(ctx context.Context, messages []Message) (Response, error) {
	var (
		system   []string
		contents []*genai.Content
	)
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			system = append(system, m.Content)
		case RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}

	var config *genai.GenerateContentConfig
	if len(system) > 0 {
		config = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser),
		}
	}

	res, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return Response{}, fmt.Errorf("gemini generate content: %w", err)
	}

	// Blocked or empty candidates
	if len(res.Candidates) == 0 || res.Candidates[0].Content == nil || len(res.Candidates[0].Content.Parts) == 0 {
		return Response{}, fmt.Errorf("gemini returned no candidates")
	}

	var sb strings.Builder
	for _, part := range res.Candidates[0].Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}

	out := Response{Content: sb.String(), Model: c.model}
	if u := res.UsageMetadata; u != nil {
		out.PromptTokens = int(u.PromptTokenCount)
		out.CompletionTokens = int(u.CandidatesTokenCount)
		out.TotalTokens = int(u.TotalTokenCount)
	}
	return out, nil
}

package llm

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/maisonverre/concierge/domain/entities"
	"github.com/maisonverre/concierge/domain/repositories"
)

const (
	defaultModel       = "gemini-2.0-flash"
	defaultTemperature = 0.6
	defaultTopP        = 0.9
	defaultMaxTokens   = 1024
	maxAttempts        = 3
)

// systemPrompt is the text-mode persona. Unlike the realtime voice
// instructions, text replies may run a little longer, but the concierge
// register is the same.
const systemPrompt = `You are the packaging concierge at Maison Verre, a premium glass packaging supplier for beauty, fragrance, and wellness brands. You are warm, knowledgeable, and efficient.

Answer in plain conversational prose without markdown formatting. Keep replies short, three sentences at most. Never guess product names, specifications, prices, or availability; if you are not sure, say so and suggest browsing the catalog. End with one short follow-up question when it helps move the conversation forward.`

// GeminiReasoner is the non-streaming reasoning backend used when no live
// realtime session exists.
type GeminiReasoner struct {
	client *genai.Client
	logger *zap.Logger
	model  string
}

// NewGeminiReasoner creates a Gemini-backed reasoner.
func NewGeminiReasoner(apiKey string, logger *zap.Logger) (*GeminiReasoner, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiReasoner{
		client: client,
		logger: logger,
		model:  defaultModel,
	}, nil
}

// Respond sends the full role-mapped transcript and returns a single reply.
// The caller bounds the wait through ctx; transient upstream failures are
// retried before giving up.
func (g *GeminiReasoner) Respond(ctx context.Context, history []repositories.ChatMessage) (string, error) {
	contents := make([]*genai.Content, 0, len(history)+1)
	contents = append(contents, genai.NewContentFromText(systemPrompt, genai.RoleUser))
	for _, msg := range history {
		var role genai.Role = genai.RoleUser
		if msg.Role == entities.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(msg.Content, role))
	}

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(defaultTemperature)),
		TopP:            genai.Ptr(float32(defaultTopP)),
		MaxOutputTokens: int32(defaultMaxTokens),
	}

	var response *genai.GenerateContentResponse
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		response, err = g.client.Models.GenerateContent(ctx, g.model, contents, config)
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			return "", fmt.Errorf("reasoning request cancelled: %w", ctx.Err())
		}

		g.logger.Warn("Failed to generate content, retrying",
			zap.Int("attempt", attempt+1),
			zap.Error(err))
		if attempt < maxAttempts-1 {
			select {
			case <-time.After(time.Duration(attempt+1) * time.Second):
			case <-ctx.Done():
				return "", fmt.Errorf("reasoning request cancelled: %w", ctx.Err())
			}
		}
	}
	if err != nil {
		return "", fmt.Errorf("reasoning backend failed after %d attempts: %w", maxAttempts, err)
	}

	if len(response.Candidates) == 0 || response.Candidates[0].Content == nil {
		return "", fmt.Errorf("reasoning backend returned no candidates")
	}

	var text string
	for _, part := range response.Candidates[0].Content.Parts {
		text += part.Text
	}
	if text == "" {
		return "", fmt.Errorf("reasoning backend returned empty content")
	}

	g.logger.Info("Fallback reply generated",
		zap.Int("history_length", len(history)),
		zap.Int("reply_chars", len(text)))
	return text, nil
}

package llm

import (
	"context"
	"fmt"

	"github.com/maisonverre/concierge/domain/repositories"
)

// MockReasoner is a canned-response reasoner for local development when no
// Gemini key is configured.
type MockReasoner struct{}

// NewMockReasoner creates a mock reasoner.
func NewMockReasoner() *MockReasoner {
	return &MockReasoner{}
}

// Respond echoes the last user message.
func (m *MockReasoner) Respond(ctx context.Context, history []repositories.ChatMessage) (string, error) {
	if len(history) == 0 {
		return "Welcome to Maison Verre. What kind of packaging are you looking for?", nil
	}
	last := history[len(history)-1]
	return fmt.Sprintf("I heard %q. Our catalog has glass bottles in fifteen families. Which size interests you?", last.Content), nil
}

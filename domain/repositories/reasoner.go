package repositories

import (
	"context"

	"github.com/maisonverre/concierge/domain/entities"
)

// ChatMessage is one role-mapped turn handed to the fallback reasoning
// backend.
type ChatMessage struct {
	Role    entities.Role `json:"role"`
	Content string        `json:"content"`
}

// Reasoner is the non-streaming request/response backend used when no live
// realtime session exists. Respond receives the full prior transcript and
// returns a single reply. Implementations must honor ctx cancellation; the
// orchestrator imposes the hard fallback timeout through ctx.
type Reasoner interface {
	Respond(ctx context.Context, history []ChatMessage) (string, error)
}

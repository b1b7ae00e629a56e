package entities

import (
	"time"

	"github.com/google/uuid"
)

// Status reflects who is expected to act next in the conversation:
// the customer (listening), the assistant (thinking/speaking), or nobody
// (idle). Exactly one component, the orchestrator, writes it.
type Status string

const (
	StatusIdle         Status = "idle"
	StatusConnecting   Status = "connecting"
	StatusListening    Status = "listening"
	StatusTranscribing Status = "transcribing"
	StatusThinking     Status = "thinking"
	StatusSpeaking     Status = "speaking"
	StatusError        Status = "error"
)

// Role identifies the sender of a transcript message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ActionType tags the renderable side-effect payload attached to a message.
type ActionType string

const (
	ActionShowProducts    ActionType = "showProducts"
	ActionCompareProducts ActionType = "compareProducts"
	ActionBuildKit        ActionType = "buildKit"
	ActionProposeCartAdd  ActionType = "proposeCartAdd"
	ActionNavigateToPage  ActionType = "navigateToPage"
	ActionPrefillForm     ActionType = "prefillForm"
)

// ProductCard is the minimal product view rendered inside action cards.
type ProductCard struct {
	SKU            string   `json:"sku"`
	ItemName       string   `json:"item_name"`
	Family         string   `json:"family,omitempty"`
	Category       string   `json:"category,omitempty"`
	Capacity       string   `json:"capacity,omitempty"`
	Color          string   `json:"color,omitempty"`
	NeckThreadSize string   `json:"neck_thread_size,omitempty"`
	UnitPrice      *float64 `json:"unit_price,omitempty"`
	BulkPrice      *float64 `json:"bulk_price,omitempty"`
	Slug           string   `json:"slug,omitempty"`
}

// CartProposalItem is one line of a proposed cart addition.
type CartProposalItem struct {
	SKU       string   `json:"sku"`
	ItemName  string   `json:"item_name"`
	Quantity  int      `json:"quantity"`
	UnitPrice *float64 `json:"unit_price,omitempty"`
}

// KitItem pairs a product with its role in an assembled kit
// (bottle, closure, applicator).
type KitItem struct {
	Role    string      `json:"role"`
	Product ProductCard `json:"product"`
}

// Action is a tagged variant; only the fields of the tagged type are set.
type Action struct {
	Type ActionType `json:"type"`

	// showProducts / compareProducts
	Products []ProductCard `json:"products,omitempty"`

	// proposeCartAdd
	CartItems            []CartProposalItem `json:"cart_items,omitempty"`
	AwaitingConfirmation bool               `json:"awaiting_confirmation,omitempty"`

	// buildKit
	KitItems   []KitItem `json:"kit_items,omitempty"`
	TotalPrice *float64  `json:"total_price,omitempty"`

	// navigateToPage
	Path         string `json:"path,omitempty"`
	Title        string `json:"title,omitempty"`
	Description  string `json:"description,omitempty"`
	AutoNavigate bool   `json:"auto_navigate,omitempty"`

	// prefillForm
	FormType string            `json:"form_type,omitempty"`
	Fields   map[string]string `json:"fields,omitempty"`
}

// Message is immutable once appended to the transcript, except that a
// proposeCartAdd action's AwaitingConfirmation flag may be flipped to false
// exactly once by the confirmation gate.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Action    *Action   `json:"action,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage creates a transcript message with a fresh identifier.
func NewMessage(role Role, content string, action *Action) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Action:    action,
		Timestamp: time.Now(),
	}
}

// Transcript is the ordered conversation history, oldest first. Messages are
// appended in the order their underlying events are finalized; no reordering
// is imposed. Not safe for concurrent use; the owning orchestrator
// serializes access.
type Transcript struct {
	messages []Message
}

// Append adds a message and returns it.
func (t *Transcript) Append(msg Message) Message {
	t.messages = append(t.messages, msg)
	return msg
}

// Len returns the number of messages.
func (t *Transcript) Len() int {
	return len(t.messages)
}

// Snapshot returns a copy of the message sequence.
func (t *Transcript) Snapshot() []Message {
	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Find returns a pointer to the message with the given id, or nil.
// The pointer aliases transcript storage; callers must only use it for the
// sanctioned AwaitingConfirmation flip.
func (t *Transcript) Find(id string) *Message {
	for i := range t.messages {
		if t.messages[i].ID == id {
			return &t.messages[i]
		}
	}
	return nil
}

// ResolveProposal flips AwaitingConfirmation to false on the identified
// proposeCartAdd message. It reports whether this call performed the flip:
// false when the message does not exist, carries no cart proposal, or was
// already resolved. Re-resolving is a no-op, which is what makes the
// confirmation gate idempotent.
func (t *Transcript) ResolveProposal(id string) (Message, bool) {
	msg := t.Find(id)
	if msg == nil || msg.Action == nil || msg.Action.Type != ActionProposeCartAdd {
		return Message{}, false
	}
	if !msg.Action.AwaitingConfirmation {
		return Message{}, false
	}
	msg.Action.AwaitingConfirmation = false
	return *msg, true
}

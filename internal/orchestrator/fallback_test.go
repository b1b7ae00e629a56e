package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/maisonverre/concierge/domain/entities"
	"github.com/maisonverre/concierge/domain/repositories"
)

func newFallbackOrchestrator(reasoner *fakeReasoner) *Orchestrator {
	return New(testConfig(), Deps{
		Issuer:     &fakeIssuer{},
		Transport:  func() SessionTransport { return newFakeTransport() },
		Dispatcher: NewDispatcher(&fakeCatalog{}, nil),
		Cart:       &fakeCart{},
		Reasoner:   reasoner,
	})
}

func TestFallbackSendAppendsBothTurns(t *testing.T) {
	o := newFallbackOrchestrator(&fakeReasoner{reply: "The **Cylinder** family has six sizes."})

	if err := o.Send(context.Background(), "tell me about cylinders"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	msgs := o.Messages()
	if len(msgs) != 2 {
		t.Fatalf("transcript has %d messages, want 2", len(msgs))
	}
	if msgs[0].Role != entities.RoleUser || msgs[0].Content != "tell me about cylinders" {
		t.Errorf("user turn = %#v", msgs[0])
	}
	if msgs[1].Role != entities.RoleAssistant || msgs[1].Content != "The Cylinder family has six sizes." {
		t.Errorf("assistant turn = %#v, want markdown stripped", msgs[1])
	}
	if got := o.Status(); got != entities.StatusIdle {
		t.Errorf("Status = %q, want idle after fallback success", got)
	}
}

func TestFallbackSendCarriesRoleMappedHistory(t *testing.T) {
	var captured []repositories.ChatMessage
	reasoner := &capturingReasoner{reply: "ok", captured: &captured}
	o := New(testConfig(), Deps{
		Issuer:     &fakeIssuer{},
		Transport:  func() SessionTransport { return newFakeTransport() },
		Dispatcher: NewDispatcher(&fakeCatalog{}, nil),
		Cart:       &fakeCart{},
		Reasoner:   reasoner,
	})

	o.Send(context.Background(), "first question")
	o.Send(context.Background(), "second question")

	if len(captured) != 3 {
		t.Fatalf("history length = %d, want prior turns plus the new message", len(captured))
	}
	if captured[0].Role != entities.RoleUser || captured[1].Role != entities.RoleAssistant {
		t.Errorf("history roles = %v, %v", captured[0].Role, captured[1].Role)
	}
	if captured[2].Content != "second question" {
		t.Errorf("last history entry = %#v", captured[2])
	}
}

type capturingReasoner struct {
	reply    string
	captured *[]repositories.ChatMessage
}

func (c *capturingReasoner) Respond(ctx context.Context, history []repositories.ChatMessage) (string, error) {
	*c.captured = append([]repositories.ChatMessage(nil), history...)
	return c.reply, nil
}

func TestFallbackTimeoutSurfacesErrorAndRecovers(t *testing.T) {
	o := newFallbackOrchestrator(&fakeReasoner{reply: "late", delay: time.Second})

	err := o.Send(context.Background(), "anyone there?")
	if !errors.Is(err, ErrFallbackTimeout) {
		t.Fatalf("err = %v, want ErrFallbackTimeout", err)
	}
	if got := o.Status(); got != entities.StatusError {
		t.Errorf("Status = %q, want error, not a dangling thinking", got)
	}

	msgs := assistantMessages(o)
	if len(msgs) != 1 || msgs[0].Content != fallbackTimeoutText {
		t.Errorf("error transcript = %#v", msgs)
	}

	waitFor(t, func() bool { return o.Status() == entities.StatusIdle },
		"error status never auto-recovered to idle")
}

func TestFallbackBackendFailureRecovers(t *testing.T) {
	o := newFallbackOrchestrator(&fakeReasoner{err: errors.New("backend exploded")})

	if err := o.Send(context.Background(), "hello"); err == nil {
		t.Fatal("expected error from failing backend")
	}
	if got := o.Status(); got != entities.StatusError {
		t.Errorf("Status = %q, want error", got)
	}
	msgs := assistantMessages(o)
	if len(msgs) != 1 || msgs[0].Content != fallbackErrorText {
		t.Errorf("error transcript = %#v", msgs)
	}
	waitFor(t, func() bool { return o.Status() == entities.StatusIdle },
		"error status never auto-recovered to idle")
}

func TestFallbackIgnoresBlankInput(t *testing.T) {
	o := newFallbackOrchestrator(&fakeReasoner{reply: "should not be called"})

	if err := o.Send(context.Background(), "   \n "); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if n := len(o.Messages()); n != 0 {
		t.Errorf("blank input appended %d messages, want 0", n)
	}
	if got := o.Status(); got != entities.StatusIdle {
		t.Errorf("Status = %q, want idle", got)
	}
}

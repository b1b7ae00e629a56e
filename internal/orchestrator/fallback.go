package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/maisonverre/concierge/domain/entities"
	"github.com/maisonverre/concierge/domain/repositories"
)

// ErrFallbackTimeout marks a fallback request that exceeded the hard
// timeout. The timeout always wins the race against the backend call.
var ErrFallbackTimeout = errors.New("reasoning backend took too long to respond")

const fallbackErrorText = "I had trouble connecting just now. Please try again in a moment."
const fallbackTimeoutText = "I took too long to respond. Please try again."

// sendFallback is the request/response path used when no live session
// exists: append the user message, go thinking, issue one request carrying
// the full role-mapped transcript, and come back to idle. The orchestrator
// lock is released for the duration of the backend call.
func (o *Orchestrator) sendFallback(ctx context.Context, text string) error {
	o.mu.Lock()
	o.appendLocked(entities.NewMessage(entities.RoleUser, text, nil))
	o.setStatusLocked(entities.StatusThinking)
	history := make([]repositories.ChatMessage, 0, o.transcript.Len())
	for _, msg := range o.transcript.Snapshot() {
		if msg.Content == "" {
			continue
		}
		history = append(history, repositories.ChatMessage{Role: msg.Role, Content: msg.Content})
	}
	o.mu.Unlock()

	reqCtx, cancel := context.WithTimeout(ctx, o.cfg.FallbackTimeout)
	defer cancel()

	reply, err := o.reasoner.Respond(reqCtx, history)
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %v", ErrFallbackTimeout, err)
		}
		o.failFallback(err)
		return err
	}

	o.mu.Lock()
	if text := stripMarkdown(reply); text != "" {
		o.appendLocked(entities.NewMessage(entities.RoleAssistant, text, nil))
	}
	o.setStatusLocked(entities.StatusIdle)
	o.mu.Unlock()
	return nil
}

// failFallback surfaces the failure both ways: a transient error status that
// auto-recovers to idle, and an assistant-role message so the failure stays
// visible in history after the status chip disappears.
func (o *Orchestrator) failFallback(err error) {
	o.logger.Error("Fallback request failed", zap.Error(err))

	text := fallbackErrorText
	if errors.Is(err, ErrFallbackTimeout) {
		text = fallbackTimeoutText
	}

	o.mu.Lock()
	o.appendLocked(entities.NewMessage(entities.RoleAssistant, text, nil))
	o.setStatusLocked(entities.StatusError)
	o.scheduleRecoveryLocked(o.cfg.ErrorDisplayDelay)
	o.mu.Unlock()
}

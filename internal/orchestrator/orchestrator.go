// Package orchestrator is the conversation state machine: it owns the single
// authoritative status value, the ordered transcript, the live realtime
// session handle, and the fallback request/response path used when no live
// session exists. All status writes happen here and nowhere else.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/maisonverre/concierge/domain/entities"
	"github.com/maisonverre/concierge/domain/repositories"
	"github.com/maisonverre/concierge/internal/realtime"
)

// Observer receives conversation updates. Methods are invoked while the
// orchestrator holds its internal lock: implementations must be non-blocking
// and must not call back into the Orchestrator synchronously.
type Observer interface {
	StatusChanged(status entities.Status)
	MessageAppended(msg entities.Message)
	MessageUpdated(msg entities.Message)
	AssistantAudio(pcm []byte)
	Navigated(path string)
}

// SessionTransport is the live-connection seam, satisfied by
// realtime.Transport.
type SessionTransport interface {
	Open(ctx context.Context, cred realtime.Credential) error
	Events() <-chan []byte
	Send(ev realtime.Event)
	AppendAudio(pcm []byte)
	Close()
}

// CredentialIssuer mints short-lived session credentials, satisfied by
// realtime.CredentialBroker.
type CredentialIssuer interface {
	Issue(ctx context.Context, instructions string) (realtime.Credential, error)
}

// TransportFactory builds a fresh transport per conversation.
type TransportFactory func() SessionTransport

// Config carries the policy constants: how long the fallback path waits and
// how long the error status stays visible before auto-recovery.
type Config struct {
	FallbackTimeout       time.Duration
	ErrorDisplayDelay     time.Duration
	LiveErrorDisplayDelay time.Duration
}

// Deps bundles the orchestrator's collaborators.
type Deps struct {
	Issuer     CredentialIssuer
	Transport  TransportFactory
	Dispatcher *Dispatcher
	Cart       repositories.Cart
	Reasoner   repositories.Reasoner
	Observer   Observer
	Logger     *zap.Logger
}

// Orchestrator drives one conversation for one client. A single goroutine
// consumes control-channel events in arrival order; public methods may be
// called from any goroutine.
type Orchestrator struct {
	cfg        Config
	issuer     CredentialIssuer
	transportF TransportFactory
	dispatcher *Dispatcher
	cart       repositories.Cart
	reasoner   repositories.Reasoner
	observer   Observer
	logger     *zap.Logger

	mu         sync.Mutex
	status     entities.Status
	transcript entities.Transcript
	transport  SessionTransport
	live       bool

	// Assistant transcript accumulator for the in-flight turn. discardTurn
	// marks the turn as cancelled by barge-in: its trailing deltas and done
	// are dropped instead of flushed.
	acc         string
	discardTurn bool

	// errGen invalidates scheduled error auto-recovery when a newer
	// transition supersedes it.
	errGen int

	// startGen invalidates an in-flight handshake when EndConversation (or a
	// later StartConversation) supersedes it while the lock was released
	// across Issue and Open.
	startGen int
}

type noopObserver struct{}

func (noopObserver) StatusChanged(entities.Status)    {}
func (noopObserver) MessageAppended(entities.Message) {}
func (noopObserver) MessageUpdated(entities.Message)  {}
func (noopObserver) AssistantAudio([]byte)            {}
func (noopObserver) Navigated(string)                 {}

// New creates an idle orchestrator.
func New(cfg Config, deps Deps) *Orchestrator {
	obs := deps.Observer
	if obs == nil {
		obs = noopObserver{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		cfg:        cfg,
		issuer:     deps.Issuer,
		transportF: deps.Transport,
		dispatcher: deps.Dispatcher,
		cart:       deps.Cart,
		reasoner:   deps.Reasoner,
		observer:   obs,
		logger:     logger,
		status:     entities.StatusIdle,
	}
}

// Status returns the current conversation status.
func (o *Orchestrator) Status() entities.Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

// Messages returns a copy of the transcript.
func (o *Orchestrator) Messages() []entities.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.transcript.Snapshot()
}

// StartConversation acquires a live session: mints a credential, opens the
// transport, and starts consuming control events. On failure the status
// shows error briefly, then auto-recovers to idle.
func (o *Orchestrator) StartConversation(ctx context.Context) error {
	o.mu.Lock()
	if o.live || o.status == entities.StatusConnecting {
		o.mu.Unlock()
		return fmt.Errorf("conversation already active")
	}
	o.startGen++
	gen := o.startGen
	o.setStatusLocked(entities.StatusConnecting)
	o.mu.Unlock()

	cred, err := o.issuer.Issue(ctx, "")
	if err != nil {
		return o.failStart(gen, fmt.Errorf("credential issuance failed: %w", err))
	}

	transport := o.transportF()
	if err := transport.Open(ctx, cred); err != nil {
		return o.failStart(gen, err)
	}

	o.mu.Lock()
	if o.startGen != gen {
		// The user ended (or restarted) the conversation while the handshake
		// was in flight; do not bring the superseded session alive.
		o.mu.Unlock()
		transport.Close()
		return fmt.Errorf("conversation ended during connect")
	}
	o.transport = transport
	o.live = true
	o.acc = ""
	o.discardTurn = false
	o.mu.Unlock()

	go o.consume(transport)
	return nil
}

func (o *Orchestrator) failStart(gen int, err error) error {
	o.logger.Error("Failed to start conversation", zap.Error(err))
	o.mu.Lock()
	if o.startGen != gen {
		// Superseded mid-handshake; the current state is not ours to touch.
		o.mu.Unlock()
		return err
	}
	o.setStatusLocked(entities.StatusError)
	o.appendLocked(entities.NewMessage(entities.RoleAssistant,
		"I couldn't start our voice conversation just now. Please try again in a moment.", nil))
	o.scheduleRecoveryLocked(o.cfg.ErrorDisplayDelay)
	o.mu.Unlock()
	return err
}

// EndConversation tears the live session down and returns to idle.
func (o *Orchestrator) EndConversation() {
	o.mu.Lock()
	transport := o.transport
	o.transport = nil
	o.live = false
	o.acc = ""
	o.discardTurn = false
	o.errGen++
	o.startGen++
	o.setStatusLocked(entities.StatusIdle)
	o.mu.Unlock()

	if transport != nil {
		transport.Close()
	}
}

// Close releases everything; the orchestrator must not be used afterwards.
func (o *Orchestrator) Close() {
	o.EndConversation()
}

// Send routes a typed user message. In live-session mode it is injected into
// the conversation as if it were a finalized transcript; otherwise it goes
// through the fallback request/response path.
func (o *Orchestrator) Send(ctx context.Context, text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	o.mu.Lock()
	if o.live {
		transport := o.transport
		o.appendLocked(entities.NewMessage(entities.RoleUser, trimmed, nil))
		o.discardTurn = false
		o.setStatusLocked(entities.StatusThinking)
		o.mu.Unlock()

		transport.Send(realtime.TextItemEvent(trimmed))
		transport.Send(realtime.ResponseCreateEvent())
		return nil
	}
	o.mu.Unlock()

	return o.sendFallback(ctx, trimmed)
}

// Interrupt is the barge-in entry point: while the assistant is speaking it
// requests cancellation of the in-flight turn and returns to listening
// immediately, without waiting for the remote done. The cancelled turn's
// trailing events are discarded.
func (o *Orchestrator) Interrupt() {
	o.mu.Lock()
	if o.status != entities.StatusSpeaking {
		o.mu.Unlock()
		return
	}
	transport := o.transport
	o.acc = ""
	o.discardTurn = true
	o.setStatusLocked(entities.StatusListening)
	o.mu.Unlock()

	if transport != nil {
		transport.Send(realtime.ResponseCancelEvent())
	}
}

// AppendAudio forwards one captured microphone chunk into the live session.
// Dropped when no session is open.
func (o *Orchestrator) AppendAudio(pcm []byte) {
	o.mu.Lock()
	transport := o.transport
	o.mu.Unlock()
	if transport != nil {
		transport.AppendAudio(pcm)
	}
}

// consume is the single event consumer for one live session. Events are
// handled in arrival order; the loop ends when the transport closes its
// stream.
func (o *Orchestrator) consume(transport SessionTransport) {
	for raw := range transport.Events() {
		sig, err := realtime.Interpret(raw)
		if err != nil {
			o.logger.Warn("Dropping undecodable control event", zap.Error(err))
			continue
		}
		if sig == nil {
			continue
		}
		o.handle(transport, sig)
	}

	// Stream closed. If this transport is still the active one, the session
	// ended without EndConversation: mark it dead so any pending error
	// recovery lands on idle instead of listening.
	o.mu.Lock()
	if o.transport == transport {
		o.transport = nil
		o.live = false
		if o.status != entities.StatusError {
			o.errGen++
			o.setStatusLocked(entities.StatusIdle)
		}
	}
	o.mu.Unlock()

	// Release the connection; a no-op when EndConversation already did.
	transport.Close()
}

func (o *Orchestrator) handle(transport SessionTransport, sig realtime.Signal) {
	o.mu.Lock()
	defer o.mu.Unlock()

	// Ignore events from a superseded transport.
	if o.transport != transport {
		return
	}

	switch s := sig.(type) {
	case realtime.SessionReady:
		o.setStatusLocked(entities.StatusListening)

	case realtime.UserSpeaking:
		o.setStatusLocked(entities.StatusListening)

	case realtime.UserSpeechEnded:
		o.discardTurn = false
		o.setStatusLocked(entities.StatusThinking)

	case realtime.UserTranscript:
		if s.Text != "" {
			o.appendLocked(entities.NewMessage(entities.RoleUser, s.Text, nil))
		}

	case realtime.AssistantTextDelta:
		if o.discardTurn {
			return
		}
		o.acc += s.Delta
		o.setStatusLocked(entities.StatusSpeaking)

	case realtime.AssistantTranscriptDone:
		if o.discardTurn {
			o.acc = ""
			return
		}
		if text := stripMarkdown(o.acc); text != "" {
			o.appendLocked(entities.NewMessage(entities.RoleAssistant, text, nil))
		}
		o.acc = ""
		o.setStatusLocked(entities.StatusListening)

	case realtime.AssistantAudioDelta:
		o.observer.AssistantAudio(s.Audio)

	case realtime.ToolInvocation:
		o.setStatusLocked(entities.StatusThinking)
		go o.dispatch(transport, s)

	case realtime.TurnDone:
		if s.Failed {
			o.logger.Error("Assistant turn failed")
		}
		if o.discardTurn {
			o.discardTurn = false
			return
		}
		o.setStatusLocked(entities.StatusListening)

	case realtime.TransportFailure:
		o.logger.Error("Realtime session error", zap.String("message", s.Message))
		o.setStatusLocked(entities.StatusError)
		o.appendLocked(entities.NewMessage(entities.RoleAssistant, s.Message, nil))
		o.scheduleRecoveryLocked(o.cfg.LiveErrorDisplayDelay)
	}
}

// dispatch runs one tool invocation off the event goroutine so a second
// invocation or a barge-in can be handled while the fetch is in flight. Every
// invocation produces exactly one tool result on the control channel.
func (o *Orchestrator) dispatch(transport SessionTransport, inv realtime.ToolInvocation) {
	result := o.dispatcher.Execute(context.Background(), inv.Name, inv.Args)

	if result.Action != nil {
		o.mu.Lock()
		if o.transport == transport {
			o.appendLocked(entities.NewMessage(entities.RoleAssistant, "", result.Action))
			if result.Action.Type == entities.ActionNavigateToPage && result.Action.AutoNavigate {
				o.observer.Navigated(result.Action.Path)
			}
		}
		o.mu.Unlock()
	}

	transport.Send(realtime.ToolResultEvent(inv.CallID, result.Output))
	transport.Send(realtime.ResponseCreateEvent())
}

// scheduleRecoveryLocked arms the auto-recovery timer for the error status:
// back to listening if a session is still open, to idle otherwise. A newer
// transition invalidates the pending recovery via errGen.
func (o *Orchestrator) scheduleRecoveryLocked(delay time.Duration) {
	o.errGen++
	gen := o.errGen
	time.AfterFunc(delay, func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		if o.errGen != gen || o.status != entities.StatusError {
			return
		}
		if o.live {
			o.setStatusLocked(entities.StatusListening)
		} else {
			o.setStatusLocked(entities.StatusIdle)
		}
	})
}

func (o *Orchestrator) setStatusLocked(s entities.Status) {
	if o.status == s {
		return
	}
	o.status = s
	o.observer.StatusChanged(s)
}

func (o *Orchestrator) appendLocked(msg entities.Message) {
	o.transcript.Append(msg)
	o.observer.MessageAppended(msg)
}

package realtime

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// Signal is the decoded, application-facing form of an inbound control
// event. The interpreter is pure: it never mutates status or transcript.
type Signal interface {
	signal()
}

// SessionReady fires once the remote session is configured.
type SessionReady struct{}

// UserSpeaking fires when server-side voice activity detection opens a turn.
type UserSpeaking struct{}

// UserSpeechEnded fires when voice activity detection closes the turn.
type UserSpeechEnded struct{}

// UserTranscript carries the finalized transcription of a user utterance.
type UserTranscript struct {
	Text string
}

// AssistantTextDelta carries one fragment of the assistant's spoken text.
// Fragments accumulate until AssistantTranscriptDone flushes them.
type AssistantTextDelta struct {
	Delta string
}

// AssistantTranscriptDone marks the end of one assistant turn's transcript.
type AssistantTranscriptDone struct{}

// AssistantAudioDelta carries one decoded chunk of the assistant's voice.
type AssistantAudioDelta struct {
	Audio []byte
}

// ToolInvocation asks the application to run a named tool. Consumed exactly
// once by the dispatcher; terminated by a tool result correlated by CallID.
type ToolInvocation struct {
	CallID string
	Name   string
	Args   map[string]any
}

// TurnDone marks the completion of an assistant response.
type TurnDone struct {
	Failed bool
}

// TransportFailure carries a mid-session error reported by the service.
type TransportFailure struct {
	Message string
}

func (SessionReady) signal()            {}
func (UserSpeaking) signal()            {}
func (UserSpeechEnded) signal()         {}
func (UserTranscript) signal()          {}
func (AssistantTextDelta) signal()      {}
func (AssistantTranscriptDone) signal() {}
func (AssistantAudioDelta) signal()     {}
func (ToolInvocation) signal()          {}
func (TurnDone) signal()                {}
func (TransportFailure) signal()        {}

// Interpret decodes a raw control-channel frame into a Signal. Event types
// outside the behavior table yield (nil, nil) and are ignored by the caller.
// A frame that is not valid JSON yields an error.
func Interpret(raw []byte) (Signal, error) {
	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, fmt.Errorf("unparseable control event: %w", err)
	}

	switch ev.Type {
	case eventSessionCreated, eventSessionUpdated:
		return SessionReady{}, nil

	case eventSpeechStarted:
		return UserSpeaking{}, nil

	case eventSpeechStopped:
		return UserSpeechEnded{}, nil

	case eventUserTranscript:
		return UserTranscript{Text: strings.TrimSpace(ev.Transcript)}, nil

	case eventTranscriptDelta:
		return AssistantTextDelta{Delta: ev.Delta}, nil

	case eventTranscriptDone:
		return AssistantTranscriptDone{}, nil

	case eventAudioDelta:
		audio, err := base64.StdEncoding.DecodeString(ev.Audio)
		if err != nil {
			return nil, fmt.Errorf("malformed audio delta: %w", err)
		}
		return AssistantAudioDelta{Audio: audio}, nil

	case eventToolArgsDone:
		if ev.CallID == "" || ev.Name == "" {
			return nil, nil
		}
		args := map[string]any{}
		if ev.Arguments != "" {
			if err := json.Unmarshal([]byte(ev.Arguments), &args); err != nil {
				return nil, fmt.Errorf("malformed tool arguments for %q: %w", ev.Name, err)
			}
		}
		return ToolInvocation{CallID: ev.CallID, Name: ev.Name, Args: args}, nil

	case eventResponseDone:
		failed := ev.Response != nil && ev.Response.Status == "failed"
		return TurnDone{Failed: failed}, nil

	case eventError:
		msg := "connection error"
		if ev.Error != nil && ev.Error.Message != "" {
			msg = ev.Error.Message
		}
		return TransportFailure{Message: msg}, nil
	}

	return nil, nil
}

// Package realtime owns the live connection to the hosted conversational-AI
// service: credential issuance, the websocket control channel, and the
// decoding of inbound control events into typed signals. It knows nothing
// about transcripts, carts, or tools beyond their wire shapes.
//
// Audio rides the same channel: microphone capture arrives from the client
// bridge and is appended as base64 buffer events; the remote voice comes back
// as audio delta events and is relayed out for playback.
package realtime

import "encoding/base64"

// Inbound control event types the interpreter understands. Anything else is
// ignored.
const (
	eventSessionCreated  = "session.created"
	eventSessionUpdated  = "session.updated"
	eventSpeechStarted   = "input_audio_buffer.speech_started"
	eventSpeechStopped   = "input_audio_buffer.speech_stopped"
	eventUserTranscript  = "conversation.item.input_audio_transcription.completed"
	eventTranscriptDelta = "response.audio_transcript.delta"
	eventTranscriptDone  = "response.audio_transcript.done"
	eventAudioDelta      = "response.audio.delta"
	eventToolArgsDone    = "response.function_call_arguments.done"
	eventResponseDone    = "response.done"
	eventError           = "error"
)

// Outbound control event types.
const (
	eventItemCreate     = "conversation.item.create"
	eventResponseCreate = "response.create"
	eventResponseCancel = "response.cancel"
	eventAudioAppend    = "input_audio_buffer.append"
)

// Event is the wire shape of a control-channel event, inbound or outbound.
// Only the fields relevant to the event's type are populated.
type Event struct {
	Type       string            `json:"type"`
	EventID    string            `json:"event_id,omitempty"`
	Delta      string            `json:"delta,omitempty"`
	Transcript string            `json:"transcript,omitempty"`
	CallID     string            `json:"call_id,omitempty"`
	Name       string            `json:"name,omitempty"`
	Arguments  string            `json:"arguments,omitempty"`
	Audio      string            `json:"audio,omitempty"`
	Item       *ConversationItem `json:"item,omitempty"`
	Response   *ResponseStatus   `json:"response,omitempty"`
	Error      *EventError       `json:"error,omitempty"`
}

// ConversationItem is the payload of a conversation.item.create event.
type ConversationItem struct {
	Type    string        `json:"type"`
	Role    string        `json:"role,omitempty"`
	CallID  string        `json:"call_id,omitempty"`
	Output  string        `json:"output,omitempty"`
	Content []ContentPart `json:"content,omitempty"`
}

// ContentPart is one piece of a conversation item's content.
type ContentPart struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// ResponseStatus carries the terminal status of a completed response.
type ResponseStatus struct {
	Status string `json:"status,omitempty"`
}

// EventError is the error payload of an inbound error event.
type EventError struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// TextItemEvent injects a typed user message into the live conversation.
func TextItemEvent(text string) Event {
	return Event{
		Type: eventItemCreate,
		Item: &ConversationItem{
			Type:    "message",
			Role:    "user",
			Content: []ContentPart{{Type: "input_text", Text: text}},
		},
	}
}

// ToolResultEvent answers a tool invocation, correlated by call id.
func ToolResultEvent(callID, output string) Event {
	return Event{
		Type: eventItemCreate,
		Item: &ConversationItem{
			Type:   "function_call_output",
			CallID: callID,
			Output: output,
		},
	}
}

// ResponseCreateEvent asks the assistant to produce its next turn.
func ResponseCreateEvent() Event {
	return Event{Type: eventResponseCreate}
}

// ResponseCancelEvent requests cancellation of the in-flight assistant turn.
func ResponseCancelEvent() Event {
	return Event{Type: eventResponseCancel}
}

// AudioAppendEvent wraps a captured audio chunk for the input buffer.
func AudioAppendEvent(pcm []byte) Event {
	return Event{
		Type:  eventAudioAppend,
		Audio: base64.StdEncoding.EncodeToString(pcm),
	}
}

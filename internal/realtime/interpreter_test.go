package realtime

import (
	"encoding/base64"
	"testing"
)

func TestInterpretSessionLifecycle(t *testing.T) {
	for _, raw := range []string{
		`{"type":"session.created"}`,
		`{"type":"session.updated"}`,
	} {
		sig, err := Interpret([]byte(raw))
		if err != nil {
			t.Fatalf("Interpret(%s) returned error: %v", raw, err)
		}
		if _, ok := sig.(SessionReady); !ok {
			t.Errorf("Interpret(%s) = %T, want SessionReady", raw, sig)
		}
	}
}

func TestInterpretSpeechBoundaries(t *testing.T) {
	sig, err := Interpret([]byte(`{"type":"input_audio_buffer.speech_started"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := sig.(UserSpeaking); !ok {
		t.Errorf("speech_started = %T, want UserSpeaking", sig)
	}

	sig, err = Interpret([]byte(`{"type":"input_audio_buffer.speech_stopped"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := sig.(UserSpeechEnded); !ok {
		t.Errorf("speech_stopped = %T, want UserSpeechEnded", sig)
	}
}

func TestInterpretUserTranscriptTrimsWhitespace(t *testing.T) {
	sig, err := Interpret([]byte(`{"type":"conversation.item.input_audio_transcription.completed","transcript":"  show me roll-ons \n"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ut, ok := sig.(UserTranscript)
	if !ok {
		t.Fatalf("got %T, want UserTranscript", sig)
	}
	if ut.Text != "show me roll-ons" {
		t.Errorf("Text = %q, want trimmed transcript", ut.Text)
	}
}

func TestInterpretTranscriptDeltaAndDone(t *testing.T) {
	sig, err := Interpret([]byte(`{"type":"response.audio_transcript.delta","delta":"Of course"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d, ok := sig.(AssistantTextDelta)
	if !ok {
		t.Fatalf("got %T, want AssistantTextDelta", sig)
	}
	if d.Delta != "Of course" {
		t.Errorf("Delta = %q", d.Delta)
	}

	sig, err = Interpret([]byte(`{"type":"response.audio_transcript.done"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := sig.(AssistantTranscriptDone); !ok {
		t.Errorf("got %T, want AssistantTranscriptDone", sig)
	}
}

func TestInterpretAudioDelta(t *testing.T) {
	pcm := []byte{0x01, 0x02, 0x03, 0x04}
	raw := `{"type":"response.audio.delta","delta":"","audio":"` + base64.StdEncoding.EncodeToString(pcm) + `"}`
	sig, err := Interpret([]byte(raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a, ok := sig.(AssistantAudioDelta)
	if !ok {
		t.Fatalf("got %T, want AssistantAudioDelta", sig)
	}
	if string(a.Audio) != string(pcm) {
		t.Errorf("Audio = %v, want %v", a.Audio, pcm)
	}
}

func TestInterpretAudioDeltaRejectsBadBase64(t *testing.T) {
	_, err := Interpret([]byte(`{"type":"response.audio.delta","audio":"!!!not-base64!!!"}`))
	if err == nil {
		t.Error("expected error for malformed audio payload")
	}
}

func TestInterpretToolInvocation(t *testing.T) {
	raw := `{"type":"response.function_call_arguments.done","call_id":"call_1","name":"searchCatalog","arguments":"{\"searchTerm\":\"9ml cobalt\"}"}`
	sig, err := Interpret([]byte(raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	inv, ok := sig.(ToolInvocation)
	if !ok {
		t.Fatalf("got %T, want ToolInvocation", sig)
	}
	if inv.CallID != "call_1" || inv.Name != "searchCatalog" {
		t.Errorf("CallID=%q Name=%q", inv.CallID, inv.Name)
	}
	if inv.Args["searchTerm"] != "9ml cobalt" {
		t.Errorf("Args = %v", inv.Args)
	}
}

func TestInterpretToolInvocationWithoutIdentityIsIgnored(t *testing.T) {
	sig, err := Interpret([]byte(`{"type":"response.function_call_arguments.done","arguments":"{}"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sig != nil {
		t.Errorf("got %T, want nil for invocation without call id", sig)
	}
}

func TestInterpretToolInvocationRejectsMalformedArguments(t *testing.T) {
	raw := `{"type":"response.function_call_arguments.done","call_id":"c","name":"searchCatalog","arguments":"{not json"}`
	if _, err := Interpret([]byte(raw)); err == nil {
		t.Error("expected error for malformed tool arguments")
	}
}

func TestInterpretResponseDone(t *testing.T) {
	sig, err := Interpret([]byte(`{"type":"response.done","response":{"status":"completed"}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	done, ok := sig.(TurnDone)
	if !ok {
		t.Fatalf("got %T, want TurnDone", sig)
	}
	if done.Failed {
		t.Error("completed response reported as failed")
	}

	sig, _ = Interpret([]byte(`{"type":"response.done","response":{"status":"failed"}}`))
	if done, ok := sig.(TurnDone); !ok || !done.Failed {
		t.Errorf("failed response: got %#v, want TurnDone{Failed:true}", sig)
	}
}

func TestInterpretErrorEvent(t *testing.T) {
	sig, err := Interpret([]byte(`{"type":"error","error":{"message":"rate limit"}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tf, ok := sig.(TransportFailure)
	if !ok {
		t.Fatalf("got %T, want TransportFailure", sig)
	}
	if tf.Message != "rate limit" {
		t.Errorf("Message = %q", tf.Message)
	}

	sig, _ = Interpret([]byte(`{"type":"error"}`))
	if tf, ok := sig.(TransportFailure); !ok || tf.Message == "" {
		t.Errorf("empty error payload: got %#v, want default message", sig)
	}
}

func TestInterpretIgnoresUnknownTypes(t *testing.T) {
	sig, err := Interpret([]byte(`{"type":"rate_limits.updated"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sig != nil {
		t.Errorf("unknown type yielded %T, want nil", sig)
	}
}

func TestInterpretRejectsInvalidJSON(t *testing.T) {
	if _, err := Interpret([]byte(`not json at all`)); err == nil {
		t.Error("expected error for unparseable frame")
	}
}

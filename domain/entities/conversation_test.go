package entities

import (
	"testing"
)

func TestTranscriptAppendOrder(t *testing.T) {
	var transcript Transcript

	first := transcript.Append(NewMessage(RoleUser, "do you have 30ml amber bottles?", nil))
	second := transcript.Append(NewMessage(RoleAssistant, "We do, several families carry 30ml amber.", nil))

	if transcript.Len() != 2 {
		t.Fatalf("expected 2 messages, got %d", transcript.Len())
	}

	snapshot := transcript.Snapshot()
	if snapshot[0].ID != first.ID {
		t.Errorf("expected first appended message first, got %s", snapshot[0].ID)
	}
	if snapshot[1].ID != second.ID {
		t.Errorf("expected second appended message second, got %s", snapshot[1].ID)
	}
	if snapshot[0].Role != RoleUser || snapshot[1].Role != RoleAssistant {
		t.Error("roles not preserved in order")
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	var transcript Transcript
	transcript.Append(NewMessage(RoleUser, "hello", nil))

	snapshot := transcript.Snapshot()
	snapshot[0].Content = "mutated"

	if transcript.Snapshot()[0].Content != "hello" {
		t.Error("mutating a snapshot must not affect the transcript")
	}
}

func TestResolveProposalFlipsExactlyOnce(t *testing.T) {
	var transcript Transcript
	price := 4.5
	msg := transcript.Append(NewMessage(RoleAssistant, "", &Action{
		Type: ActionProposeCartAdd,
		CartItems: []CartProposalItem{
			{SKU: "MV-30-AMB", ItemName: "30ml Amber Boston Round", Quantity: 12, UnitPrice: &price},
		},
		AwaitingConfirmation: true,
	}))

	resolved, ok := transcript.ResolveProposal(msg.ID)
	if !ok {
		t.Fatal("first resolve should perform the flip")
	}
	if resolved.Action.AwaitingConfirmation {
		t.Error("resolved message should no longer await confirmation")
	}

	if _, ok := transcript.ResolveProposal(msg.ID); ok {
		t.Error("second resolve must be a no-op")
	}
}

func TestResolveProposalIgnoresNonProposals(t *testing.T) {
	var transcript Transcript
	plain := transcript.Append(NewMessage(RoleAssistant, "just text", nil))
	card := transcript.Append(NewMessage(RoleAssistant, "", &Action{
		Type:     ActionShowProducts,
		Products: []ProductCard{{SKU: "MV-9-CLR", ItemName: "9ml Clear Cylinder"}},
	}))

	if _, ok := transcript.ResolveProposal(plain.ID); ok {
		t.Error("plain message must not resolve")
	}
	if _, ok := transcript.ResolveProposal(card.ID); ok {
		t.Error("showProducts action must not resolve")
	}
	if _, ok := transcript.ResolveProposal("no-such-id"); ok {
		t.Error("unknown id must not resolve")
	}
}

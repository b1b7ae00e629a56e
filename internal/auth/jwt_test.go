package auth

import (
	"testing"
	"time"
)

func TestNewManagerRequiresSecret(t *testing.T) {
	if _, err := NewManager(""); err == nil {
		t.Error("expected error for empty secret")
	}
}

func TestIssueAndValidateClientToken(t *testing.T) {
	m, err := NewManager("test-secret")
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	token, expiresAt, err := m.IssueClientToken("client-123")
	if err != nil {
		t.Fatalf("IssueClientToken failed: %v", err)
	}
	if token == "" {
		t.Fatal("empty token")
	}
	if !expiresAt.After(time.Now()) {
		t.Errorf("expiresAt %v is not in the future", expiresAt)
	}

	claims, err := m.Validate(token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if claims.ClientID != "client-123" {
		t.Errorf("ClientID = %q, want %q", claims.ClientID, "client-123")
	}
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	issuer, _ := NewManager("secret-a")
	verifier, _ := NewManager("secret-b")

	token, _, err := issuer.IssueClientToken("client-123")
	if err != nil {
		t.Fatalf("IssueClientToken failed: %v", err)
	}
	if _, err := verifier.Validate(token); err == nil {
		t.Error("expected validation to fail with a different secret")
	}
}

func TestValidateRejectsGarbage(t *testing.T) {
	m, _ := NewManager("test-secret")
	if _, err := m.Validate("not-a-token"); err == nil {
		t.Error("expected error for malformed token")
	}
}

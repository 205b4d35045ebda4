package cardlink

import (
	"strings"
	"testing"
)

func TestEditLinkRoundTrip(t *testing.T) {
	s := NewSigner("secret", "https://card.example.com")

	url, err := s.EditLink("abcdef0123")
	if err != nil {
		t.Fatalf("EditLink: %v", err)
	}
	const prefix = "https://card.example.com/edit?token="
	if !strings.HasPrefix(url, prefix) {
		t.Fatalf("url = %q", url)
	}

	key, err := s.ParseKey(strings.TrimPrefix(url, prefix))
	if err != nil {
		t.Fatalf("ParseKey: %v", err)
	}
	if key != "abcdef0123" {
		t.Fatalf("key = %q", key)
	}
}

func TestPayLinkPath(t *testing.T) {
	s := NewSigner("secret", "https://card.example.com")
	url, err := s.PayLink("k")
	if err != nil {
		t.Fatalf("PayLink: %v", err)
	}
	if !strings.HasPrefix(url, "https://card.example.com/card?token=") {
		t.Fatalf("url = %q", url)
	}
}

func TestParseKeyRejectsWrongSecret(t *testing.T) {
	signer := NewSigner("secret", "https://card.example.com")
	other := NewSigner("wrong-secret", "https://card.example.com")

	url, err := signer.EditLink("k")
	if err != nil {
		t.Fatal(err)
	}
	token := strings.TrimPrefix(url, "https://card.example.com/edit?token=")
	if _, err := other.ParseKey(token); err == nil {
		t.Fatal("token signed with another secret must not validate")
	}
}

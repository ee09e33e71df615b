//go:build !integration

package web

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSessionRoundTrip(t *testing.T) {
	m := NewSessionManager("secret", time.Hour)

	tok, err := m.Mint("a@example.com")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	email, err := m.Parse(tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if email != "a@example.com" {
		t.Errorf("email = %q", email)
	}
}

func TestSessionRejectsTampering(t *testing.T) {
	m := NewSessionManager("secret", time.Hour)
	other := NewSessionManager("other-secret", time.Hour)

	tok, err := other.Mint("a@example.com")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := m.Parse(tok); !errors.Is(err, ErrNoSession) {
		t.Fatalf("err = %v, want ErrNoSession for foreign signature", err)
	}
	if _, err := m.Parse("not.a.jwt"); !errors.Is(err, ErrNoSession) {
		t.Fatalf("err = %v, want ErrNoSession for garbage", err)
	}
}

func TestSessionExpiry(t *testing.T) {
	m := NewSessionManager("secret", time.Minute)
	minted := time.Now()
	m.now = func() time.Time { return minted }

	tok, err := m.Mint("a@example.com")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	m.now = func() time.Time { return minted.Add(2 * time.Minute) }
	if _, err := m.Parse(tok); !errors.Is(err, ErrNoSession) {
		t.Fatalf("err = %v, want ErrNoSession after expiry", err)
	}
}

func TestParseFromRequest(t *testing.T) {
	m := NewSessionManager("secret", time.Hour)
	tok, err := m.Mint("a@example.com")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Authorization", "Bearer "+tok)
	if email, err := m.ParseFromRequest(r); err != nil || email != "a@example.com" {
		t.Fatalf("email=%q err=%v", email, err)
	}

	for _, header := range []string{"", "Basic abc", "Bearer"} {
		r := httptest.NewRequest("GET", "/", nil)
		if header != "" {
			r.Header.Set("Authorization", header)
		}
		if _, err := m.ParseFromRequest(r); !errors.Is(err, ErrNoSession) {
			t.Errorf("header %q: err = %v, want ErrNoSession", header, err)
		}
	}
}
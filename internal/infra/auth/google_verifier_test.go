package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTokeninfoServer(t *testing.T, status int, body string) (*httptest.Server, *GoogleVerifier) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id_token") == "" {
			t.Error("id_token query parameter missing")
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	v, err := NewGoogleVerifier("client-123")
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	v.baseURL = srv.URL
	return srv, v
}

func TestGoogleVerifier(t *testing.T) {
	ctx := context.Background()

	t.Run("verified token yields normalized email", func(t *testing.T) {
		_, v := newTokeninfoServer(t, http.StatusOK,
			`{"aud":"client-123","email":"User@Example.COM","email_verified":"true"}`)
		email, err := v.Verify(ctx, "token")
		if err != nil {
			t.Fatalf("verify: %v", err)
		}
		if email != "user@example.com" {
			t.Errorf("email = %q", email)
		}
	})

	t.Run("audience mismatch rejected", func(t *testing.T) {
		_, v := newTokeninfoServer(t, http.StatusOK,
			`{"aud":"someone-else","email":"a@b.com","email_verified":"true"}`)
		if _, err := v.Verify(ctx, "token"); !errors.Is(err, ErrTokenRejected) {
			t.Fatalf("err = %v, want ErrTokenRejected", err)
		}
	})

	t.Run("unverified email rejected", func(t *testing.T) {
		_, v := newTokeninfoServer(t, http.StatusOK,
			`{"aud":"client-123","email":"a@b.com","email_verified":"false"}`)
		if _, err := v.Verify(ctx, "token"); !errors.Is(err, ErrTokenRejected) {
			t.Fatalf("err = %v, want ErrTokenRejected", err)
		}
	})

	t.Run("non-200 from tokeninfo rejected", func(t *testing.T) {
		_, v := newTokeninfoServer(t, http.StatusBadRequest, `{"error":"invalid_token"}`)
		if _, err := v.Verify(ctx, "token"); !errors.Is(err, ErrTokenRejected) {
			t.Fatalf("err = %v, want ErrTokenRejected", err)
		}
	})

	t.Run("empty token rejected locally", func(t *testing.T) {
		v, err := NewGoogleVerifier("client-123")
		if err != nil {
			t.Fatalf("new verifier: %v", err)
		}
		if _, err := v.Verify(ctx, ""); !errors.Is(err, ErrTokenRejected) {
			t.Fatalf("err = %v, want ErrTokenRejected", err)
		}
	})
}

func TestDevVerifier(t *testing.T) {
	ctx := context.Background()

	v := NewDevVerifier("Dev@Example.com")
	email, err := v.Verify(ctx, "anything")
	if err != nil || email != "dev@example.com" {
		t.Fatalf("email=%q err=%v", email, err)
	}
	if _, err := v.Verify(ctx, ""); !errors.Is(err, ErrTokenRejected) {
		t.Fatalf("empty token err = %v, want ErrTokenRejected", err)
	}
	if v := NewDevVerifier(""); v.email != "dev@localhost" {
		t.Errorf("default email = %q", v.email)
	}
}

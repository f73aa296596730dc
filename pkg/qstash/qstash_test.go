package qstash

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestPublish(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		if r.URL.Path != "/v2/publish/https://hooks.example.com/calls" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("unexpected auth: %q", got)
		}
		if got := r.Header.Get("Upstash-Retries"); got != "2" {
			t.Errorf("unexpected retries header: %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"room_name":"room-1"}` {
			t.Errorf("unexpected body: %s", body)
		}
		_, _ = w.Write([]byte(`{"messageId":"msg_123"}`))
	}))
	defer srv.Close()

	client, err := NewClient(Config{URL: srv.URL, Token: "tok", Retries: 2})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	out, err := client.Publish(context.Background(), "https://hooks.example.com/calls", []byte(`{"room_name":"room-1"}`))
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if out.MessageID != "msg_123" {
		t.Fatalf("unexpected message id: %q", out.MessageID)
	}
}

func TestPublishErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
	}))
	defer srv.Close()

	client, err := NewClient(Config{URL: srv.URL, Token: "tok"})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	if _, err := client.Publish(context.Background(), "calls", []byte(`{}`)); err == nil {
		t.Fatal("expected error on 401")
	}
}

func TestNewClientValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(Config{URL: "", Token: "tok"}); err == nil {
		t.Fatal("expected error for empty url")
	}
	if _, err := NewClient(Config{URL: "https://qstash.upstash.io", Token: " "}); err == nil {
		t.Fatal("expected error for empty token")
	}
}

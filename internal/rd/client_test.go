package rd_test

// It uses a mock HTTP server to avoid making real network requests.

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/discoduckasaurus/duckflix-lite-sub004/internal/rd"
)

func setupTestServer() *httptest.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Header.Get("Authorization") {
		case "Bearer premium-token":
			fmt.Fprint(w, `{"id":1,"username":"duckfan","type":"premium","premium":2592000,"expiration":"2026-09-30T12:00:00Z"}`)
		case "Bearer free-token":
			fmt.Fprint(w, `{"id":2,"username":"cheapskate","type":"free","premium":0}`)
		case "Bearer revoked-token":
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"error":"bad_token","error_code":8}`)
		default:
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"error":"internal"}`)
		}
	})

	mux.HandleFunc("/unrestrict/link", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Header.Get("Authorization") != "Bearer premium-token" {
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprint(w, `{"error":"permission_denied","error_code":9}`)
			return
		}
		r.ParseForm()
		if r.PostFormValue("link") == "https://hoster.test/broken" {
			fmt.Fprint(w, `{"error":"hoster_unavailable","error_code":24}`)
			return
		}
		fmt.Fprint(w, `{"id":"ABC123","filename":"matrix.1080p.mkv","filesize":1073741824,"link":"https://dl.test/d/ABC123"}`)
	})

	return httptest.NewServer(mux)
}

func TestClient_User(t *testing.T) {
	server := setupTestServer()
	defer server.Close()

	client := rd.New(server.URL, 5*time.Second)
	ctx := context.Background()

	t.Run("Premium account", func(t *testing.T) {
		account, err := client.User(ctx, "premium-token")
		if err != nil {
			t.Fatalf("User() failed: %v", err)
		}
		if account.Username != "duckfan" {
			t.Errorf("Expected username 'duckfan', got '%s'", account.Username)
		}
		if !account.Premium {
			t.Error("Expected a premium account")
		}
		if account.ExpiresAt == nil {
			t.Fatal("Expected an expiration to be parsed")
		}
		want := time.Date(2026, 9, 30, 12, 0, 0, 0, time.UTC)
		if !account.ExpiresAt.Equal(want) {
			t.Errorf("Expected expiration %v, got %v", want, account.ExpiresAt)
		}
	})

	t.Run("Free account", func(t *testing.T) {
		account, err := client.User(ctx, "free-token")
		if err != nil {
			t.Fatalf("User() failed: %v", err)
		}
		if account.Premium {
			t.Error("Expected a non-premium account")
		}
		if account.ExpiresAt != nil {
			t.Errorf("Expected no expiration, got %v", account.ExpiresAt)
		}
	})

	t.Run("Revoked token is a rejection", func(t *testing.T) {
		_, err := client.User(ctx, "revoked-token")
		if err == nil {
			t.Fatal("Expected an error for a revoked token")
		}
		if !rd.IsRejected(err) {
			t.Fatalf("Expected a rejection, got: %v", err)
		}
	})

	t.Run("Server error is not a rejection", func(t *testing.T) {
		_, err := client.User(ctx, "unknown-token")
		if err == nil {
			t.Fatal("Expected an error for a server failure")
		}
		if rd.IsRejected(err) {
			t.Fatalf("Expected a transient error, got a rejection: %v", err)
		}
	})

	t.Run("Unreachable host is not a rejection", func(t *testing.T) {
		dead := rd.New("http://127.0.0.1:1", 500*time.Millisecond)
		_, err := dead.User(ctx, "premium-token")
		if err == nil {
			t.Fatal("Expected an error for an unreachable host")
		}
		if rd.IsRejected(err) {
			t.Fatalf("Expected a transient error, got a rejection: %v", err)
		}
	})
}

func TestClient_UnrestrictLink(t *testing.T) {
	server := setupTestServer()
	defer server.Close()

	client := rd.New(server.URL, 5*time.Second)
	ctx := context.Background()

	t.Run("Successful unrestrict", func(t *testing.T) {
		result, err := client.UnrestrictLink(ctx, "premium-token", "https://hoster.test/file")
		if err != nil {
			t.Fatalf("UnrestrictLink() failed: %v", err)
		}
		if result.URL != "https://dl.test/d/ABC123" {
			t.Errorf("Expected download URL 'https://dl.test/d/ABC123', got '%s'", result.URL)
		}
		if result.Filename != "matrix.1080p.mkv" {
			t.Errorf("Expected filename 'matrix.1080p.mkv', got '%s'", result.Filename)
		}
		if result.Filesize != 1073741824 {
			t.Errorf("Expected filesize 1073741824, got %d", result.Filesize)
		}
	})

	t.Run("Error body on 200", func(t *testing.T) {
		_, err := client.UnrestrictLink(ctx, "premium-token", "https://hoster.test/broken")
		if err == nil {
			t.Fatal("Expected an error when the provider reports one")
		}
		if rd.IsRejected(err) {
			t.Fatalf("Expected a plain error, got a rejection: %v", err)
		}
	})

	t.Run("Forbidden token is a rejection", func(t *testing.T) {
		_, err := client.UnrestrictLink(ctx, "free-token", "https://hoster.test/file")
		if err == nil {
			t.Fatal("Expected an error for a forbidden token")
		}
		if !rd.IsRejected(err) {
			t.Fatalf("Expected a rejection, got: %v", err)
		}
	})
}

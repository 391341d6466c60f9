package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/discoduckasaurus/duckflix-lite-sub004/internal/api"
	"github.com/discoduckasaurus/duckflix-lite-sub004/internal/auth"
)

// GetAuthCookie creates a user, logs them in, and returns a valid session cookie.
func GetAuthCookie(t *testing.T, s *api.Server, username, password, role string) *http.Cookie {
	t.Helper()

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("Failed to hash password for test user: %v", err)
	}
	// The store's CreateUser expects a hash, not a plaintext password.
	_, err = s.Store().CreateUser(username, passwordHash, role, nil, "")
	if err != nil {
		t.Fatalf("Failed to create test user '%s': %v", username, err)
	}

	return LoginAs(t, s, username, password)
}

// LoginAs logs an existing user in and returns the session cookie.
func LoginAs(t *testing.T, s *api.Server, username, password string) *http.Cookie {
	t.Helper()

	loginPayload := map[string]string{"username": username, "password": password}
	payloadBytes, _ := json.Marshal(loginPayload)
	req, _ := http.NewRequest("POST", "/api/users/login", bytes.NewBuffer(payloadBytes))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Fatalf("Login failed within test helper for user '%s': got status %d, want 200", username, status)
	}

	cookies := rr.Result().Cookies()
	for _, cookie := range cookies {
		if cookie.Name == "session_token" {
			return cookie
		}
	}

	t.Fatal("Failed to get session cookie after successful login for test user")
	return nil
}

// A fake debrid provider for tests. It speaks just enough of the real
// API for the client, validator and playback paths to run against it.

package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

// FakeAccount describes how the fake provider answers for one token.
type FakeAccount struct {
	Username  string
	Premium   bool
	ExpiresAt time.Time // zero means the provider reports no expiration
	Rejected  bool      // respond 401 as for a revoked token
	Broken    bool      // respond 500 as for a provider outage
}

// FakeDebrid is an httptest server standing in for the provider API.
type FakeDebrid struct {
	Server *httptest.Server

	mu              sync.Mutex
	accounts        map[string]FakeAccount
	downloadURL     string
	fileName        string
	unrestrictCalls int
	failUnrestrict  bool
}

// NewFakeDebrid starts the fake provider and registers its shutdown
// with the test.
func NewFakeDebrid(t *testing.T) *FakeDebrid {
	t.Helper()

	f := &FakeDebrid{
		accounts:    make(map[string]FakeAccount),
		downloadURL: "https://dl.test/file.mkv",
		fileName:    "file.mkv",
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/user", f.handleUser)
	mux.HandleFunc("/unrestrict/link", f.handleUnrestrict)
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the fake provider's base URL.
func (f *FakeDebrid) URL() string {
	return f.Server.URL
}

// SetAccount configures the answer for a token.
func (f *FakeDebrid) SetAccount(token string, acc FakeAccount) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[token] = acc
}

// SetDownload configures the link handed out by unrestrict.
func (f *FakeDebrid) SetDownload(url, fileName string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.downloadURL = url
	f.fileName = fileName
}

// FailUnrestrict makes unrestrict answer with a provider error body.
func (f *FakeDebrid) FailUnrestrict(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failUnrestrict = fail
}

// UnrestrictCalls reports how many unrestrict requests arrived.
func (f *FakeDebrid) UnrestrictCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unrestrictCalls
}

func (f *FakeDebrid) authorize(r *http.Request) (FakeAccount, bool) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	f.mu.Lock()
	defer f.mu.Unlock()
	acc, ok := f.accounts[token]
	if !ok || acc.Rejected {
		return FakeAccount{}, false
	}
	return acc, true
}

func (f *FakeDebrid) handleUser(w http.ResponseWriter, r *http.Request) {
	acc, ok := f.authorize(r)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]interface{}{"error": "bad_token", "error_code": 8})
		return
	}
	if acc.Broken {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]interface{}{"error": "internal"})
		return
	}

	accType := "free"
	if acc.Premium {
		accType = "premium"
	}
	expiration := ""
	if !acc.ExpiresAt.IsZero() {
		expiration = acc.ExpiresAt.Format(time.RFC3339)
	}
	json.NewEncoder(w).Encode(map[string]string{
		"username":   acc.Username,
		"type":       accType,
		"expiration": expiration,
	})
}

func (f *FakeDebrid) handleUnrestrict(w http.ResponseWriter, r *http.Request) {
	_, ok := f.authorize(r)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]interface{}{"error": "bad_token", "error_code": 8})
		return
	}

	f.mu.Lock()
	f.unrestrictCalls++
	fail := f.failUnrestrict
	url, name := f.downloadURL, f.fileName
	f.mu.Unlock()

	if fail {
		json.NewEncoder(w).Encode(map[string]interface{}{"error": "hoster_unavailable", "error_code": 24})
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"link":     url,
		"filename": name,
		"filesize": int64(1 << 30),
	})
}

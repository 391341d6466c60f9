package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/discoduckasaurus/duckflix-lite-sub004/internal/auth"
	"github.com/discoduckasaurus/duckflix-lite-sub004/internal/testutil"
)

func postStreamResolve(t *testing.T, router http.Handler, payload string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req, _ := http.NewRequest("POST", "/api/stream/resolve", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestStreamResolve(t *testing.T) {
	fake := testutil.NewFakeDebrid(t)
	fake.SetAccount("token-a", testutil.FakeAccount{Username: "alice", Premium: true})
	fake.SetDownload("https://dl.test/matrix.mkv", "matrix.mkv")

	server, _ := testutil.SetupTestServerWithUpstream(t, fake.URL())
	router := server.Router()
	s := server.Store()

	hash, err := auth.HashPassword("password")
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	s.CreateUser("alice", hash, "user", nil, "token-a")
	s.CreateUser("dave", hash, "user", nil, "")

	aliceCookie := testutil.LoginAs(t, server, "alice", "password")
	daveCookie := testutil.LoginAs(t, server, "dave", "password")

	moviePayload := `{"tmdb_id":603,"media_type":"movie","resolution":1080,"link":"https://hoster.test/matrix"}`

	t.Run("Resolve through the provider", func(t *testing.T) {
		rr := postStreamResolve(t, router, moviePayload, aliceCookie)
		if rr.Code != http.StatusOK {
			t.Fatalf("handler returned wrong status code: got %v want %v %s", rr.Code, http.StatusOK, rr.Body.String())
		}
		var resp struct {
			URL      string `json:"url"`
			FileName string `json:"file_name"`
			Cached   bool   `json:"cached"`
		}
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("Could not unmarshal response body: %v", err)
		}
		if resp.URL != "https://dl.test/matrix.mkv" {
			t.Errorf("Expected the unrestricted URL, got '%s'", resp.URL)
		}
		if resp.Cached {
			t.Error("Expected a fresh resolution, not a cache hit")
		}
	})

	t.Run("Second resolve hits the cache", func(t *testing.T) {
		rr := postStreamResolve(t, router, moviePayload, aliceCookie)
		if rr.Code != http.StatusOK {
			t.Fatalf("handler returned wrong status code: got %v want %v %s", rr.Code, http.StatusOK, rr.Body.String())
		}
		var resp struct {
			Cached bool `json:"cached"`
		}
		json.Unmarshal(rr.Body.Bytes(), &resp)
		if !resp.Cached {
			t.Error("Expected a cache hit on the second resolve")
		}
		if fake.UnrestrictCalls() != 1 {
			t.Errorf("Expected 1 unrestrict call, got %d", fake.UnrestrictCalls())
		}
	})

	t.Run("Episodes are cached separately", func(t *testing.T) {
		rr := postStreamResolve(t, router, `{"tmdb_id":1396,"media_type":"tv","season":3,"episode":12,"resolution":1080,"link":"https://hoster.test/bb"}`, aliceCookie)
		if rr.Code != http.StatusOK {
			t.Fatalf("handler returned wrong status code: got %v want %v %s", rr.Code, http.StatusOK, rr.Body.String())
		}
		if fake.UnrestrictCalls() != 2 {
			t.Errorf("Expected a separate resolution for the episode, got %d calls", fake.UnrestrictCalls())
		}
	})

	t.Run("Invalid content key", func(t *testing.T) {
		rr := postStreamResolve(t, router, `{"tmdb_id":0,"media_type":"movie","resolution":1080}`, aliceCookie)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusBadRequest)
		}

		rr = postStreamResolve(t, router, `{"tmdb_id":1396,"media_type":"tv","resolution":1080}`, aliceCookie)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("Expected an episode key without season/episode to be rejected, got %v", rr.Code)
		}
	})

	t.Run("Missing resolution", func(t *testing.T) {
		rr := postStreamResolve(t, router, `{"tmdb_id":603,"media_type":"movie","link":"https://hoster.test/matrix"}`, aliceCookie)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusBadRequest)
		}
	})

	t.Run("Uncached content without a link", func(t *testing.T) {
		rr := postStreamResolve(t, router, `{"tmdb_id":550,"media_type":"movie","resolution":1080}`, aliceCookie)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("handler returned wrong status code: got %v want %v %s", rr.Code, http.StatusBadRequest, rr.Body.String())
		}
	})

	t.Run("Provider failure answers bad gateway", func(t *testing.T) {
		fake.FailUnrestrict(true)
		defer fake.FailUnrestrict(false)

		rr := postStreamResolve(t, router, `{"tmdb_id":680,"media_type":"movie","resolution":1080,"link":"https://hoster.test/pulp"}`, aliceCookie)
		if rr.Code != http.StatusBadGateway {
			t.Errorf("handler returned wrong status code: got %v want %v %s", rr.Code, http.StatusBadGateway, rr.Body.String())
		}
	})

	t.Run("Account without a credential", func(t *testing.T) {
		rr := postStreamResolve(t, router, moviePayload, daveCookie)
		if rr.Code != http.StatusForbidden {
			t.Fatalf("handler returned wrong status code: got %v want %v %s", rr.Code, http.StatusForbidden, rr.Body.String())
		}
		var resp map[string]string
		json.Unmarshal(rr.Body.Bytes(), &resp)
		if resp["error"] != "no_credential" {
			t.Errorf("Expected error 'no_credential', got '%s'", resp["error"])
		}
	})

	t.Run("Disabled account is blocked", func(t *testing.T) {
		alice, _ := s.GetUserByUsername("alice")
		s.SetUserEnabled(alice.ID, false)
		defer s.SetUserEnabled(alice.ID, true)

		rr := postStreamResolve(t, router, moviePayload, aliceCookie)
		if rr.Code != http.StatusForbidden {
			t.Errorf("handler returned wrong status code: got %v want %v %s", rr.Code, http.StatusForbidden, rr.Body.String())
		}
	})

	t.Run("Unauthenticated", func(t *testing.T) {
		rr := postStreamResolve(t, router, moviePayload, nil)
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusUnauthorized)
		}
	})
}

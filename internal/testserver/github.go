package testserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// GitHub fakes the device flow endpoints and the REST user lookup.
type GitHub struct {
	Server *httptest.Server

	// PendingPolls is how many token checks answer authorization_pending
	// before the token is granted.
	PendingPolls int
	// Deny makes token checks answer access_denied.
	Deny bool

	UserCode   string
	DeviceCode string
	Token      string
	Login      string

	mu    sync.Mutex
	polls int
}

// NewGitHub starts a fake GitHub that grants "ghp_test" to "octocat".
func NewGitHub(t *testing.T) *GitHub {
	t.Helper()

	gh := &GitHub{
		UserCode:   "ABCD-1234",
		DeviceCode: "dev-test",
		Token:      "ghp_test",
		Login:      "octocat",
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /login/device/code", gh.deviceCode)
	mux.HandleFunc("POST /login/oauth/access_token", gh.accessToken)
	mux.HandleFunc("GET /api/v3/user", gh.user)

	gh.Server = httptest.NewServer(mux)
	t.Cleanup(gh.Server.Close)
	return gh
}

// URL is the web base of the fake.
func (gh *GitHub) URL() string {
	return gh.Server.URL
}

// APIURL is the REST root of the fake.
func (gh *GitHub) APIURL() string {
	return gh.Server.URL + "/api/v3/"
}

// Polls reports how many token checks were answered.
func (gh *GitHub) Polls() int {
	gh.mu.Lock()
	defer gh.mu.Unlock()
	return gh.polls
}

func (gh *GitHub) deviceCode(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]any{
		"user_code":        gh.UserCode,
		"device_code":      gh.DeviceCode,
		"verification_uri": gh.Server.URL + "/login/device",
		"expires_in":       900,
	})
}

func (gh *GitHub) accessToken(w http.ResponseWriter, r *http.Request) {
	var body struct {
		DeviceCode string `json:"device_code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.DeviceCode != gh.DeviceCode {
		writeJSON(w, map[string]any{"error": "incorrect_device_code"})
		return
	}

	gh.mu.Lock()
	gh.polls++
	polls := gh.polls
	gh.mu.Unlock()

	switch {
	case gh.Deny:
		writeJSON(w, map[string]any{"error": "access_denied"})
	case polls <= gh.PendingPolls:
		writeJSON(w, map[string]any{"error": "authorization_pending"})
	default:
		writeJSON(w, map[string]any{"access_token": gh.Token, "token_type": "bearer", "scope": "repo"})
	}
}

func (gh *GitHub) user(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer "+gh.Token {
		w.WriteHeader(http.StatusUnauthorized)
		writeJSON(w, map[string]any{"message": "Bad credentials"})
		return
	}
	writeJSON(w, map[string]any{"login": gh.Login, "id": 1})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

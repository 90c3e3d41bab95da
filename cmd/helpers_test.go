package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"

	"github.com/Gyana491/contentflow/internal/keychain"
	"github.com/Gyana491/contentflow/internal/kv"
)

var testUser = map[string]any{
	"id":            "user-1",
	"email":         "test@example.com",
	"firstName":     "Test",
	"lastName":      "User",
	"emailVerified": true,
}

// testBackend is a fake contentflow backend. Routes are keyed by
// "METHOD /path"; GET /auth/me answers with testUser unless overridden.
type testBackend struct {
	*httptest.Server

	mu   sync.Mutex
	hits []string
	body map[string][]byte
}

func newTestBackend(t *testing.T, routes map[string]http.HandlerFunc) *testBackend {
	t.Helper()
	b := &testBackend{body: make(map[string][]byte)}
	b.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path

		data, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(data))

		b.mu.Lock()
		b.hits = append(b.hits, key)
		b.body[key] = data
		b.mu.Unlock()

		if h, ok := routes[key]; ok {
			h(w, r)
			return
		}
		if key == "GET /auth/me" {
			writeJSON(w, http.StatusOK, map[string]any{"user": testUser})
			return
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Not found"})
	}))
	t.Cleanup(b.Close)
	return b
}

// count returns how many requests hit key
func (b *testBackend) count(key string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, h := range b.hits {
		if h == key {
			n++
		}
	}
	return n
}

// lastBody returns the last request body sent to key
func (b *testBackend) lastBody(key string) []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.body[key]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonHandler(status int, v any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, status, v)
	}
}

// setupTestConfig points HOME at a temp dir and writes a config for serverURL.
func setupTestConfig(t *testing.T, serverURL string) string {
	t.Helper()
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configDir := filepath.Join(tempHome, ".contentflow")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}

	configYAML := `server:
  url: ` + serverURL + `
  timeout: 5s
storage:
  backend: file
  directory: ` + filepath.Join(configDir, "state") + `
linkedin:
  callback_addr: 127.0.0.1:0
  redirect_delay: 1ms
logging:
  level: error
`
	configPath := filepath.Join(configDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(configYAML), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return tempHome
}

// useMemoryKeychain swaps the keychain for the duration of the test.
func useMemoryKeychain(t *testing.T) *keychain.MemoryKeychain {
	t.Helper()
	mockKC := keychain.NewMemoryKeychain()
	origFactory := keychainFactory
	keychainFactory = func() keychain.Keychain {
		return mockKC
	}
	t.Cleanup(func() {
		keychainFactory = origFactory
	})
	return mockKC
}

// loggedIn stores a session token; the backend's /auth/me validates it.
func loggedIn(t *testing.T, kc *keychain.MemoryKeychain) {
	t.Helper()
	if err := kc.Set(keychain.KeyAuthToken, "test-token"); err != nil {
		t.Fatalf("failed to store token: %v", err)
	}
}

// stateStore opens the file store of scope under the test HOME.
func stateStore(t *testing.T, home, scope string) kv.Store {
	t.Helper()
	s, err := kv.Open(kv.Options{Directory: filepath.Join(home, ".contentflow", "state")}, scope)
	if err != nil {
		t.Fatalf("failed to open %s store: %v", scope, err)
	}
	return s
}

// executeCommand runs sub under a fresh root with the given stdin.
func executeCommand(sub *cobra.Command, input string, args ...string) (string, error) {
	cmd := &cobra.Command{Use: "contentflow"}
	cmd.AddCommand(sub)

	output := &bytes.Buffer{}
	cmd.SetOut(output)
	cmd.SetErr(output)
	cmd.SetIn(strings.NewReader(input))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return output.String(), err
}

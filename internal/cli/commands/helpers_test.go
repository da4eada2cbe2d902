package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"

	"github.com/payhub-dev/payhub/internal/auth"
	"github.com/payhub-dev/payhub/internal/cli/config"
	"github.com/payhub-dev/payhub/internal/storage"
)

const (
	testEmail    = "a@b.com"
	testPassword = "secret1"
)

// testEnv isolates HOME, the working directory and PAYHUB_* variables, and
// returns options whose storage and I/O are in memory
type testEnv struct {
	opts    *Options
	out     *bytes.Buffer
	store   *storage.MemoryStore
	opened  []string
	prompts []string
}

func newTestEnv(t *testing.T, apiURL string) *testEnv {
	t.Helper()

	t.Setenv("HOME", t.TempDir())
	chdir(t, t.TempDir())
	for _, name := range []string{"PAYHUB_API_URL", "PAYHUB_EMAIL", "PAYHUB_PASSWORD", "PAYHUB_HTTP_TIMEOUT"} {
		t.Setenv(name, "")
	}

	te := &testEnv{
		out:   &bytes.Buffer{},
		store: storage.NewMemoryStore(),
	}
	te.opts = &Options{
		Server:    apiURL,
		NoSpinner: true,
		Out:       te.out,
		Err:       &bytes.Buffer{},
		OpenBrowser: func(url string) error {
			te.opened = append(te.opened, url)
			return nil
		},
		ReadPassword: func(prompt string) (string, error) {
			te.prompts = append(te.prompts, prompt)
			return testPassword, nil
		},
		NewStore: func(config.Server, bool) (storage.Store, error) {
			return te.store, nil
		},
	}
	return te
}

func (te *testEnv) run(t *testing.T, cmd *cobra.Command, args ...string) error {
	t.Helper()
	cmd.SetArgs(args)
	cmd.SetOut(te.out)
	cmd.SetErr(te.out)
	return cmd.ExecuteContext(context.Background())
}

func (te *testEnv) token() string {
	token, _ := storage.GetString(te.store, storage.KeyAccessToken)
	return token
}

func mintToken(t *testing.T, subject string, exp time.Time, roles ...string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		UserID:    json.RawMessage(`7`),
		FirstName: "Test",
		LastName:  "User",
		Roles:     auth.NewRoleSet(roles...),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}).SignedString([]byte("server-secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

// mockAuthAPI is an in-memory auth service with one account
type mockAuthAPI struct {
	token  string
	server *httptest.Server

	mu    sync.Mutex
	hits  map[string]int
	auths map[string]string
}

func newMockAuthAPI(t *testing.T) *mockAuthAPI {
	t.Helper()

	m := &mockAuthAPI{
		token: mintToken(t, testEmail, time.Now().Add(time.Hour), "USER"),
		hits:  make(map[string]int),
		auths: make(map[string]string),
	}
	m.server = httptest.NewServer(http.HandlerFunc(m.handle))
	t.Cleanup(m.server.Close)
	return m
}

// URL is the auth API base URL
func (m *mockAuthAPI) URL() string {
	return m.server.URL + "/api/v1/auth"
}

func (m *mockAuthAPI) hitCount(endpoint string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hits[endpoint]
}

func (m *mockAuthAPI) lastAuth(endpoint string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.auths[endpoint]
}

func (m *mockAuthAPI) handle(w http.ResponseWriter, r *http.Request) {
	endpoint := strings.TrimPrefix(r.URL.Path, "/api/v1/auth/")
	authHeader := r.Header.Get("Authorization")

	m.mu.Lock()
	m.hits[endpoint]++
	m.auths[endpoint] = authHeader
	m.mu.Unlock()

	var body map[string]any
	if r.Body != nil && r.Method != http.MethodGet {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}

	authorized := authHeader == "Bearer "+m.token

	switch endpoint {
	case "login":
		if body["email"] != testEmail || body["password"] != testPassword {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte("Bad credentials"))
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"token": m.token,
			"user":  map[string]any{"id": "7", "email": testEmail, "firstName": "Test", "lastName": "User"},
		})
	case "register":
		if body["email"] == testEmail {
			w.WriteHeader(http.StatusConflict)
			w.Write([]byte("Email already exists"))
			return
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{"userId": 8, "email": body["email"], "firstName": body["firstName"], "lastName": body["lastName"]})
	case "profile":
		if !authorized {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte("Unauthorized"))
			return
		}
		first := "Test"
		if r.Method == http.MethodPut && body["firstName"] != nil {
			first = body["firstName"].(string)
		}
		json.NewEncoder(w).Encode(map[string]any{"id": 7, "email": testEmail, "firstName": first, "lastName": "User"})
	case "refresh-token":
		if !authorized {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(m.token))
	case "forgot-password":
		w.Write([]byte("Password reset link sent"))
	case "reset-password", "verify-email":
		json.NewEncoder(w).Encode(map[string]string{"message": "Done"})
	case "change-password":
		if !authorized {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if body["oldPassword"] != testPassword {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte("Old password is incorrect"))
			return
		}
		w.Write([]byte("Password changed successfully"))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// login signs te in against api through the login command
func login(t *testing.T, te *testEnv) {
	t.Helper()
	if err := te.run(t, NewLoginCmd(te.opts), "--email", testEmail, "--password", testPassword); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	te.out.Reset()
}

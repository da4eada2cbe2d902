package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/payhub-dev/payhub/internal/auth"
	"github.com/payhub-dev/payhub/internal/cli/client"
	"github.com/payhub-dev/payhub/internal/storage"
)

func mintToken(t *testing.T, email string, exp time.Time, roles ...string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		UserID:    json.RawMessage(`"user-123"`),
		FirstName: "Test",
		LastName:  "User",
		Roles:     auth.NewRoleSet(roles...),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}).SignedString([]byte("server-secret"))
	require.NoError(t, err)
	return token
}

// fakeAuthServer is a minimal auth API: one account, bearer-checked profile
type fakeAuthServer struct {
	email    string
	password string
	token    string
	refresh  string

	mu       sync.Mutex
	lastAuth string
}

func (f *fakeAuthServer) authHeader() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastAuth
}

func (f *fakeAuthServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.lastAuth = r.Header.Get("Authorization")
	f.mu.Unlock()

	switch r.URL.Path {
	case "/api/v1/auth/login":
		var req client.LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if req.Email != f.email || req.Password != f.password {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte("Bad credentials"))
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"token": f.token,
			"user":  map[string]any{"id": "user-123", "email": req.Email, "firstName": "Test", "lastName": "User", "isActive": true},
		})
	case "/api/v1/auth/refresh-token":
		json.NewEncoder(w).Encode(map[string]string{"token": f.refresh})
	case "/api/v1/auth/profile":
		if r.Header.Get("Authorization") != "Bearer "+f.token {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"id": "user-123", "email": f.email, "firstName": "Renamed", "lastName": "User"})
	case "/api/v1/auth/register":
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"userId":9,"email":"new@b.com","firstName":"New","lastName":"Person"}`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type navRecorder struct {
	routes []Route
}

func (n *navRecorder) Navigate(r Route) { n.routes = append(n.routes, r) }

func setup(t *testing.T) (*Manager, *storage.MemoryStore, *fakeAuthServer, *navRecorder) {
	t.Helper()
	fake := &fakeAuthServer{
		email:    "a@b.com",
		password: "secret1",
		token:    mintToken(t, "a@b.com", time.Now().Add(time.Hour), "USER"),
		refresh:  mintToken(t, "a@b.com", time.Now().Add(2*time.Hour), "USER"),
	}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	store := storage.NewMemoryStore()
	api := client.New(srv.URL+"/api/v1/auth", client.WithTokenSource(StoredToken{Store: store}))
	nav := &navRecorder{}
	return NewManager(store, api, WithNavigator(nav)), store, fake, nav
}

func TestLogin_Success(t *testing.T) {
	m, store, fake, _ := setup(t)

	user, err := m.Login(context.Background(), client.LoginRequest{Email: "a@b.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", user.Email)

	assert.True(t, m.IsAuthenticated())
	assert.False(t, m.IsTokenExpired())
	assert.Equal(t, "Test User", m.FullName())

	stored, ok := storage.GetString(store, storage.KeyAccessToken)
	require.True(t, ok)
	assert.Equal(t, fake.token, stored)
	assert.Equal(t, stored, m.Token())

	var details auth.Identity
	require.True(t, store.GetItem(storage.KeyUserDetails, &details))
	assert.Equal(t, "user-123", details.ID)
}

func TestLogin_FailureLeavesSessionEmpty(t *testing.T) {
	m, store, _, _ := setup(t)

	_, err := m.Login(context.Background(), client.LoginRequest{Email: "a@b.com", Password: "wrong-pass"})
	apiErr, ok := client.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "Bad credentials", apiErr.Message)

	assert.False(t, m.IsAuthenticated())
	assert.Nil(t, m.CurrentUser())
	_, stored := storage.GetString(store, storage.KeyAccessToken)
	assert.False(t, stored)
}

func TestLogin_StaleTokenIsNotSent(t *testing.T) {
	m, store, fake, _ := setup(t)
	require.NoError(t, store.StoreItem(storage.KeyAccessToken, "stale"))

	_, err := m.Login(context.Background(), client.LoginRequest{Email: "a@b.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Empty(t, fake.authHeader())
}

func TestLogout_ClearsEverything(t *testing.T) {
	t.Run("after login", func(t *testing.T) {
		m, store, _, nav := setup(t)
		_, err := m.Login(context.Background(), client.LoginRequest{Email: "a@b.com", Password: "secret1"})
		require.NoError(t, err)
		require.NoError(t, store.StoreItem(storage.KeyRememberMe, true))
		require.NoError(t, store.StoreItem(storage.KeyRememberedEmail, "a@b.com"))

		require.NoError(t, m.Logout())
		assertCleared(t, m, store)
		assert.Equal(t, []Route{RouteLogin}, nav.routes)
	})

	t.Run("without prior session", func(t *testing.T) {
		m, store, _, nav := setup(t)
		require.NoError(t, m.Logout())
		assertCleared(t, m, store)
		assert.Equal(t, []Route{RouteLogin}, nav.routes)
	})
}

func assertCleared(t *testing.T, m *Manager, store storage.Store) {
	t.Helper()
	assert.False(t, m.IsAuthenticated())
	assert.Nil(t, m.CurrentUser())
	for _, key := range []string{storage.KeyAccessToken, storage.KeyUserDetails, storage.KeyRememberMe, storage.KeyRememberedEmail} {
		assert.False(t, store.GetItem(key, nil), key)
	}
}

// failingStore refuses removals
type failingStore struct {
	*storage.MemoryStore
}

func (failingStore) RemoveItem(string) error { return errors.New("disk full") }

func TestLogout_StorageErrorStillClearsMemory(t *testing.T) {
	store := failingStore{storage.NewMemoryStore()}
	require.NoError(t, store.StoreItem(storage.KeyAccessToken, "tok"))

	m := NewManager(store, nil)
	require.True(t, m.IsAuthenticated())

	err := m.Logout()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.False(t, m.IsAuthenticated())
}

func TestIsTokenExpired(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{"no token", "", true},
		{"undecodable", "garbage", true},
		{"past expiry", mintToken(t, "a@b.com", now.Add(-time.Minute)), true},
		{"future expiry", mintToken(t, "a@b.com", now.Add(time.Minute)), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := storage.NewMemoryStore()
			if tt.token != "" {
				require.NoError(t, store.StoreItem(storage.KeyAccessToken, tt.token))
			}
			m := NewManager(store, nil, WithClock(func() time.Time { return now }))
			assert.Equal(t, tt.want, m.IsTokenExpired())
		})
	}
}

func TestRefreshToken(t *testing.T) {
	m, store, fake, _ := setup(t)

	require.ErrorIs(t, m.RefreshToken(context.Background()), ErrNotAuthenticated)

	_, err := m.Login(context.Background(), client.LoginRequest{Email: "a@b.com", Password: "secret1"})
	require.NoError(t, err)

	require.NoError(t, m.RefreshToken(context.Background()))
	assert.Equal(t, "Bearer "+fake.token, fake.authHeader(), "refresh is sent with the current token")
	assert.Equal(t, fake.refresh, m.Token())
	stored, _ := storage.GetString(store, storage.KeyAccessToken)
	assert.Equal(t, fake.refresh, stored)
}

func TestProfile_UpdatesIdentity(t *testing.T) {
	m, store, _, _ := setup(t)
	_, err := m.Login(context.Background(), client.LoginRequest{Email: "a@b.com", Password: "secret1"})
	require.NoError(t, err)

	user, err := m.Profile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Renamed", user.FirstName)
	assert.Equal(t, "Renamed User", m.FullName())

	var details auth.Identity
	require.True(t, store.GetItem(storage.KeyUserDetails, &details))
	assert.Equal(t, "Renamed", details.FirstName)
}

func TestRegister_WithoutTokenKeepsSignedOut(t *testing.T) {
	m, _, _, _ := setup(t)

	resp, err := m.Register(context.Background(), client.RegisterRequest{Email: "new@b.com"})
	require.NoError(t, err)
	require.NotNil(t, resp.User)
	assert.Equal(t, "9", resp.User.ID)
	assert.False(t, m.IsAuthenticated())
}

func TestAdoptToken(t *testing.T) {
	m, store, _, nav := setup(t)
	token := mintToken(t, "oauth@b.com", time.Now().Add(time.Hour), "USER", "ADMIN")

	user, err := m.AdoptToken(token)
	require.NoError(t, err)
	assert.Equal(t, "oauth@b.com", user.Email)
	assert.Equal(t, "user-123", user.ID)
	assert.Equal(t, []Route{RouteDashboard}, nav.routes)

	stored, _ := storage.GetString(store, storage.KeyAccessToken)
	assert.Equal(t, token, stored)

	assert.True(t, m.HasRole("ADMIN"))
	assert.True(t, m.HasAnyRole("AUDITOR", "USER"))
	assert.False(t, m.HasAllRoles("USER", "AUDITOR"))

	_, err = m.AdoptToken("not-a-token")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestRoles_WithoutTokenAreFalse(t *testing.T) {
	m := NewManager(storage.NewMemoryStore(), nil)
	assert.False(t, m.HasRole("USER"))
	assert.False(t, m.HasAnyRole("USER"))
	assert.True(t, m.HasAllRoles(), "an empty requirement is trivially met")
}

func TestNewManager_Rehydrates(t *testing.T) {
	store := storage.NewMemoryStore()
	require.NoError(t, store.StoreItem(storage.KeyAccessToken, "tok"))
	require.NoError(t, store.StoreItem(storage.KeyUserDetails, auth.Identity{ID: "1", Email: "a@b.com", FirstName: "Ada"}))

	m := NewManager(store, nil)
	assert.True(t, m.IsAuthenticated())
	assert.Equal(t, "Ada", m.CurrentUser().FirstName)
}

func TestNewManager_MalformedIdentityIsAbsent(t *testing.T) {
	store := storage.NewMemoryStore()
	store.SetRaw(storage.KeyUserDetails, "{broken")

	m := NewManager(store, nil)
	assert.Nil(t, m.CurrentUser())
	assert.Equal(t, "User", m.FullName())
}

// Package session holds the signed-in identity and its bearer token,
// persisted through a storage.Store so it survives between runs.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/payhub-dev/payhub/internal/auth"
	"github.com/payhub-dev/payhub/internal/cli/client"
	"github.com/payhub-dev/payhub/internal/storage"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated. Please run 'payhub login' first")
	ErrNoToken          = errors.New("response did not include a token")
	ErrInvalidToken     = errors.New("token could not be decoded")
)

// Route is a navigation target
type Route string

const (
	RouteLogin     Route = "/login"
	RouteDashboard Route = "/dashboard"
)

// Navigator moves the user to another screen
type Navigator interface {
	Navigate(Route)
}

// NavigatorFunc adapts a function to Navigator
type NavigatorFunc func(Route)

func (f NavigatorFunc) Navigate(r Route) { f(r) }

// API is the part of the auth API the session needs
type API interface {
	Login(ctx context.Context, req client.LoginRequest) (*client.AuthResponse, error)
	Register(ctx context.Context, req client.RegisterRequest) (*client.AuthResponse, error)
	ForgotPassword(ctx context.Context, email string) (*client.MessageResponse, error)
	ResetPassword(ctx context.Context, token, newPassword string) (*client.MessageResponse, error)
	VerifyEmail(ctx context.Context, token string) (*client.MessageResponse, error)
	RefreshToken(ctx context.Context) (*client.AuthResponse, error)
	GetProfile(ctx context.Context) (*auth.Identity, error)
	UpdateProfile(ctx context.Context, update client.ProfileUpdate) (*auth.Identity, error)
	ChangePassword(ctx context.Context, oldPassword, newPassword string) (*client.MessageResponse, error)
}

// Manager is the session state of one API origin
type Manager struct {
	mu    sync.RWMutex
	token string
	user  *auth.Identity

	store  storage.Store
	api    API
	nav    Navigator
	logger zerolog.Logger
	now    func() time.Time
}

// Option configures a Manager
type Option func(*Manager)

// WithNavigator sets where logout and token adoption navigate to
func WithNavigator(n Navigator) Option {
	return func(m *Manager) { m.nav = n }
}

// WithLogger sets the session logger
func WithLogger(l zerolog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithClock overrides time.Now for expiry checks
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a session rehydrated from store
func NewManager(store storage.Store, api API, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		api:    api,
		nav:    NavigatorFunc(func(Route) {}),
		logger: zerolog.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.Reload()
	return m
}

// Reload re-reads token and identity from storage
func (m *Manager) Reload() {
	token, _ := storage.GetString(m.store, storage.KeyAccessToken)

	var user *auth.Identity
	var stored auth.Identity
	if m.store.GetItem(storage.KeyUserDetails, &stored) {
		user = &stored
	}

	m.mu.Lock()
	m.token = token
	m.user = user
	m.mu.Unlock()
}

// Login sends credentials; on success the token and identity are stored.
// Server errors are returned unchanged.
func (m *Manager) Login(ctx context.Context, req client.LoginRequest) (*auth.Identity, error) {
	resp, err := m.api.Login(ctx, req)
	if err != nil {
		m.logger.Debug().Err(err).Str("email", req.Email).Msg("Login rejected")
		return nil, err
	}
	if resp.Token == "" {
		return nil, ErrNoToken
	}

	user := resp.User
	if user == nil {
		user = m.identityFromToken(resp.Token, req.Email)
	}
	if err := m.establish(resp.Token, user); err != nil {
		return nil, err
	}

	m.logger.Info().Str("email", user.Email).Msg("User logged in")
	return user, nil
}

// Register creates an account. When the service answers with a token the
// new user is signed in right away.
func (m *Manager) Register(ctx context.Context, req client.RegisterRequest) (*client.AuthResponse, error) {
	resp, err := m.api.Register(ctx, req)
	if err != nil {
		return nil, err
	}

	if resp.Token != "" {
		user := resp.User
		if user == nil {
			user = m.identityFromToken(resp.Token, req.Email)
		}
		if err := m.establish(resp.Token, user); err != nil {
			return nil, err
		}
	}

	m.logger.Info().Str("email", req.Email).Msg("User registered")
	return resp, nil
}

// AdoptToken signs in with a token issued out of band (e.g. the redirect
// after Google sign-in). The identity is taken from the token's claims.
func (m *Manager) AdoptToken(raw string) (*auth.Identity, error) {
	raw = strings.TrimSpace(raw)
	payload, ok := auth.Decode(raw)
	if !ok {
		return nil, ErrInvalidToken
	}

	user := auth.IdentityFromPayload(payload)
	if err := m.establish(raw, user); err != nil {
		return nil, err
	}
	m.nav.Navigate(RouteDashboard)
	return user, nil
}

// Logout forgets token, identity and remembered login. The in-memory
// session is always cleared; storage errors are reported together.
func (m *Manager) Logout() error {
	var errs []error
	for _, key := range []string{
		storage.KeyAccessToken,
		storage.KeyUserDetails,
		storage.KeyRememberMe,
		storage.KeyRememberedEmail,
	} {
		if err := m.store.RemoveItem(key); err != nil {
			errs = append(errs, fmt.Errorf("failed to remove %s: %w", key, err))
		}
	}

	m.mu.Lock()
	m.token = ""
	m.user = nil
	m.mu.Unlock()

	m.logger.Info().Msg("User logged out")
	m.nav.Navigate(RouteLogin)
	return errors.Join(errs...)
}

// RefreshToken asks the service for a new token and stores it
func (m *Manager) RefreshToken(ctx context.Context) error {
	if !m.IsAuthenticated() {
		return ErrNotAuthenticated
	}

	resp, err := m.api.RefreshToken(ctx)
	if err != nil {
		return err
	}
	if resp.Token == "" {
		return ErrNoToken
	}

	if err := m.store.StoreItem(storage.KeyAccessToken, resp.Token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	m.mu.Lock()
	m.token = resp.Token
	m.mu.Unlock()

	m.logger.Debug().Msg("Token refreshed")
	return nil
}

// Profile fetches the current profile and stores it as the identity
func (m *Manager) Profile(ctx context.Context) (*auth.Identity, error) {
	user, err := m.api.GetProfile(ctx)
	if err != nil {
		return nil, err
	}
	return user, m.setUser(user)
}

// UpdateProfile changes the profile and stores the result as the identity
func (m *Manager) UpdateProfile(ctx context.Context, update client.ProfileUpdate) (*auth.Identity, error) {
	user, err := m.api.UpdateProfile(ctx, update)
	if err != nil {
		return nil, err
	}
	return user, m.setUser(user)
}

// ForgotPassword requests a password reset mail
func (m *Manager) ForgotPassword(ctx context.Context, email string) (*client.MessageResponse, error) {
	return m.api.ForgotPassword(ctx, email)
}

// ResetPassword sets a new password with a reset token
func (m *Manager) ResetPassword(ctx context.Context, token, newPassword string) (*client.MessageResponse, error) {
	return m.api.ResetPassword(ctx, token, newPassword)
}

// VerifyEmail confirms an email address
func (m *Manager) VerifyEmail(ctx context.Context, token string) (*client.MessageResponse, error) {
	return m.api.VerifyEmail(ctx, token)
}

// ChangePassword replaces the password of the signed-in user
func (m *Manager) ChangePassword(ctx context.Context, oldPassword, newPassword string) (*client.MessageResponse, error) {
	if !m.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}
	return m.api.ChangePassword(ctx, oldPassword, newPassword)
}

// Token returns the current bearer token, or ""
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// CurrentUser returns the signed-in identity, or nil
func (m *Manager) CurrentUser() *auth.Identity {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

// FullName returns the user's display name, "User" when unknown
func (m *Manager) FullName() string {
	return m.CurrentUser().FullName()
}

// IsAuthenticated reports whether a token is present
func (m *Manager) IsAuthenticated() bool {
	return m.Token() != ""
}

// IsTokenExpired reports whether the token's expiry has passed. Missing or
// undecodable tokens count as expired.
func (m *Manager) IsTokenExpired() bool {
	return auth.IsTokenExpired(m.Token(), m.now())
}

// Claims returns the decoded, unverified token payload
func (m *Manager) Claims() (*auth.Payload, bool) {
	return auth.Decode(m.Token())
}

// HasRole reports whether the token lists role.
// Informational only: the server enforces authorization.
func (m *Manager) HasRole(role string) bool {
	return m.roles().Has(role)
}

// HasAnyRole reports whether the token lists at least one of roles
func (m *Manager) HasAnyRole(roles ...string) bool {
	return m.roles().HasAny(roles...)
}

// HasAllRoles reports whether the token lists every one of roles
func (m *Manager) HasAllRoles(roles ...string) bool {
	return m.roles().HasAll(roles...)
}

func (m *Manager) roles() auth.RoleSet {
	p, ok := m.Claims()
	if !ok {
		return auth.RoleSet{}
	}
	return p.Roles
}

func (m *Manager) establish(token string, user *auth.Identity) error {
	if err := m.store.StoreItem(storage.KeyAccessToken, token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	if err := m.store.StoreItem(storage.KeyUserDetails, user); err != nil {
		return fmt.Errorf("failed to save user details: %w", err)
	}

	m.mu.Lock()
	m.token = token
	m.user = user
	m.mu.Unlock()
	return nil
}

func (m *Manager) setUser(user *auth.Identity) error {
	if err := m.store.StoreItem(storage.KeyUserDetails, user); err != nil {
		return fmt.Errorf("failed to save user details: %w", err)
	}
	m.mu.Lock()
	m.user = user
	m.mu.Unlock()
	return nil
}

// identityFromToken falls back to the token claims, then to the email used
func (m *Manager) identityFromToken(token, email string) *auth.Identity {
	if p, ok := auth.Decode(token); ok {
		user := auth.IdentityFromPayload(p)
		if user.Email == "" {
			user.Email = email
		}
		return user
	}
	return &auth.Identity{Email: email, IsActive: true}
}

// StoredToken reads the bearer token from storage on every call, so every
// client sharing the store sees logins and logouts immediately.
type StoredToken struct {
	Store storage.Store
}

func (s StoredToken) Token() string {
	token, _ := storage.GetString(s.Store, storage.KeyAccessToken)
	return token
}

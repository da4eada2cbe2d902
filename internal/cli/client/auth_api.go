package client

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/payhub-dev/payhub/internal/auth"
)

// Auth API paths, relative to the base URL
const (
	PathLogin          = "login"
	PathRegister       = "register"
	PathForgotPassword = "forgot-password"
	PathResetPassword  = "reset-password"
	PathVerifyEmail    = "verify-email"
	PathRefreshToken   = "refresh-token"
	PathProfile        = "profile"
	PathChangePassword = "change-password"
	PathGoogleLogin    = "google/login"
)

// rawDecoder is implemented by responses that accept non-JSON bodies
type rawDecoder interface {
	decodeRaw(body []byte) error
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe"`
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Username        string `json:"username"`
	Email           string `json:"email"`
	PhoneNumber     string `json:"phoneNumber"`
	PasswordHash    string `json:"passwordHash"`
	ConfirmPassword string `json:"confirmPassword"`
	AgreeTerms      bool   `json:"agreeTerms"`
}

// ProfileUpdate carries the profile fields to change; empty fields are left out
type ProfileUpdate struct {
	Email     string `json:"email,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

// AuthResponse is returned by login, register and refresh-token.
//
// The services answer in several shapes: {token, user},
// {access_token, user_details}, a bare user object, or the token as plain
// text. All of them decode into this struct.
type AuthResponse struct {
	Token   string         `json:"token"`
	User    *auth.Identity `json:"user,omitempty"`
	Title   string         `json:"title,omitempty"`
	Message string         `json:"message,omitempty"`
}

func (r *AuthResponse) decodeRaw(body []byte) error {
	trimmed := bytes.TrimSpace(body)
	*r = AuthResponse{}
	if len(trimmed) == 0 {
		return nil
	}

	switch trimmed[0] {
	case '{':
		var raw struct {
			Token       string         `json:"token"`
			AccessToken string         `json:"access_token"`
			User        *auth.Identity `json:"user"`
			UserDetails *auth.Identity `json:"user_details"`
			Title       string         `json:"title"`
			Message     string         `json:"message"`
			Email       string         `json:"email"`
		}
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return err
		}
		r.Token = firstNonEmpty(raw.Token, raw.AccessToken)
		r.User = raw.User
		if r.User == nil {
			r.User = raw.UserDetails
		}
		r.Title = raw.Title
		r.Message = raw.Message

		// a bare user object (registration echoes the saved user)
		if r.User == nil && r.Token == "" && raw.Email != "" {
			var u auth.Identity
			if err := json.Unmarshal(trimmed, &u); err != nil {
				return err
			}
			r.User = &u
		}
	case '"':
		return json.Unmarshal(trimmed, &r.Token)
	default:
		r.Token = string(trimmed)
	}
	return nil
}

// MessageResponse is the {title?, message} answer of the password and
// verification endpoints; a plain-text body becomes the message.
type MessageResponse struct {
	Title   string `json:"title,omitempty"`
	Message string `json:"message"`
}

func (r *MessageResponse) decodeRaw(body []byte) error {
	trimmed := bytes.TrimSpace(body)
	*r = MessageResponse{}
	if len(trimmed) == 0 {
		return nil
	}
	if trimmed[0] == '{' {
		type plain MessageResponse
		return json.Unmarshal(trimmed, (*plain)(r))
	}
	if trimmed[0] == '"' {
		return json.Unmarshal(trimmed, &r.Message)
	}
	r.Message = strings.TrimSpace(string(trimmed))
	return nil
}

// Login authenticates the user. The call is anonymous: a stale stored
// token is never sent along with credentials.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.Post(SkipAuth(ctx), PathLogin, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates an account; the call is anonymous
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.Post(SkipAuth(ctx), PathRegister, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ForgotPassword requests a password reset mail
func (c *Client) ForgotPassword(ctx context.Context, email string) (*MessageResponse, error) {
	var resp MessageResponse
	body := map[string]string{"email": email}
	if err := c.Post(ctx, PathForgotPassword, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ResetPassword sets a new password using a reset token
func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) (*MessageResponse, error) {
	var resp MessageResponse
	body := map[string]string{"token": token, "newPassword": newPassword}
	if err := c.Post(ctx, PathResetPassword, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// VerifyEmail confirms an email address using a verification token
func (c *Client) VerifyEmail(ctx context.Context, token string) (*MessageResponse, error) {
	var resp MessageResponse
	body := map[string]string{"token": token}
	if err := c.Post(ctx, PathVerifyEmail, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RefreshToken exchanges the current session token for a new one
func (c *Client) RefreshToken(ctx context.Context) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.Post(ctx, PathRefreshToken, struct{}{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetProfile returns the signed-in user's profile
func (c *Client) GetProfile(ctx context.Context) (*auth.Identity, error) {
	var user auth.Identity
	if err := c.Get(ctx, PathProfile, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile changes the signed-in user's profile
func (c *Client) UpdateProfile(ctx context.Context, update ProfileUpdate) (*auth.Identity, error) {
	var user auth.Identity
	if err := c.Put(ctx, PathProfile, update, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ChangePassword replaces the password of the signed-in user
func (c *Client) ChangePassword(ctx context.Context, oldPassword, newPassword string) (*MessageResponse, error) {
	var resp MessageResponse
	body := map[string]string{"oldPassword": oldPassword, "newPassword": newPassword}
	if err := c.Post(ctx, PathChangePassword, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GoogleLoginURL is where the browser is sent for Google sign-in; the
// service redirects back with the issued token.
func (c *Client) GoogleLoginURL() string {
	return c.URL(PathGoogleLogin)
}

// Package auth reads bearer tokens on the client side.
//
// Tokens are decoded WITHOUT signature verification. The decoded payload is
// for display and UI gating only and must never be used for access-control
// decisions; the server is the only party that verifies tokens.
package auth

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims mirrors the payload issued by the user service
type Claims struct {
	UserID    json.RawMessage `json:"user_id,omitempty"`
	FirstName string          `json:"firstname,omitempty"`
	LastName  string          `json:"lastname,omitempty"`
	Roles     RoleSet         `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// Payload is the typed, unverified view of a token's claims
type Payload struct {
	Subject   string
	UserID    string
	FirstName string
	LastName  string
	IssuedAt  *time.Time
	ExpiresAt *time.Time
	Roles     RoleSet
}

var parser = jwt.NewParser(jwt.WithPaddingAllowed())

// Decode reads the payload segment of a three-part token.
// It returns false for any malformed input.
func Decode(raw string) (*Payload, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, false
	}

	// header and signature are not looked at
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return nil, false
	}
	data, err := parser.DecodeSegment(parts[1])
	if err != nil {
		return nil, false
	}
	claims := &Claims{}
	if err := json.Unmarshal(data, claims); err != nil {
		return nil, false
	}

	p := &Payload{
		Subject:   claims.Subject,
		UserID:    idString(claims.UserID),
		FirstName: claims.FirstName,
		LastName:  claims.LastName,
		Roles:     claims.Roles,
	}
	if claims.IssuedAt != nil {
		t := claims.IssuedAt.Time
		p.IssuedAt = &t
	}
	if claims.ExpiresAt != nil {
		t := claims.ExpiresAt.Time
		p.ExpiresAt = &t
	}
	if p.Roles == nil {
		p.Roles = RoleSet{}
	}
	return p, true
}

// Expired reports whether the token is past its expiry at now.
// A payload without an expiry claim counts as expired.
func (p *Payload) Expired(now time.Time) bool {
	if p == nil || p.ExpiresAt == nil {
		return true
	}
	return !p.ExpiresAt.After(now)
}

// IsTokenExpired decodes raw and reports whether it is expired at now.
// Missing or undecodable tokens count as expired.
func IsTokenExpired(raw string, now time.Time) bool {
	p, ok := Decode(raw)
	if !ok {
		return true
	}
	return p.Expired(now)
}

// RoleSet is the set of role names carried by a token
type RoleSet map[string]struct{}

// NewRoleSet builds a set from role names
func NewRoleSet(roles ...string) RoleSet {
	s := make(RoleSet, len(roles))
	for _, r := range roles {
		s[r] = struct{}{}
	}
	return s
}

// Has reports whether role is in the set
func (s RoleSet) Has(role string) bool {
	_, ok := s[role]
	return ok
}

// HasAny reports whether at least one of roles is in the set
func (s RoleSet) HasAny(roles ...string) bool {
	for _, r := range roles {
		if s.Has(r) {
			return true
		}
	}
	return false
}

// HasAll reports whether every one of roles is in the set
func (s RoleSet) HasAll(roles ...string) bool {
	for _, r := range roles {
		if !s.Has(r) {
			return false
		}
	}
	return true
}

// Slice returns the roles in no particular order
func (s RoleSet) Slice() []string {
	out := make([]string, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	return out
}

// UnmarshalJSON accepts a list of roles or a single role string
func (s *RoleSet) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		var single string
		if err := json.Unmarshal(data, &single); err != nil {
			return err
		}
		list = strings.Fields(strings.ReplaceAll(single, ",", " "))
	}
	*s = NewRoleSet(list...)
	return nil
}

// MarshalJSON writes the roles as a list
func (s RoleSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Slice())
}

// Package storage persists small client-side values (token, identity,
// remember-me state) as JSON text under string keys, one namespace per API
// origin.
package storage

import (
	"encoding/json"
	"net/url"
	"regexp"
	"strings"
)

// Well-known keys written by the session and login flow
const (
	KeyAccessToken     = "access_token"
	KeyUserDetails     = "user_details"
	KeyRememberMe      = "rememberMe"
	KeyRememberedEmail = "billhub_remembered_email"
)

// Store is a key-value store with JSON-serialized values.
//
// GetItem reports false when the key is missing or the stored text cannot be
// decoded into out; it never returns an error for either case.
type Store interface {
	StoreItem(key string, value any) error
	GetItem(key string, out any) bool
	RemoveItem(key string) error
}

// GetString reads a string value
func GetString(s Store, key string) (string, bool) {
	var v string
	if !s.GetItem(key, &v) {
		return "", false
	}
	return v, true
}

// decodeInto unmarshals raw into out, treating null and garbage as absent
func decodeInto(raw []byte, out any) bool {
	if len(raw) == 0 || string(raw) == "null" {
		return false
	}
	if out == nil {
		return true
	}
	return json.Unmarshal(raw, out) == nil
}

var unsafeOriginChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// OriginKey turns an API URL into a filesystem and keyring safe namespace,
// mirroring the browser's per-origin storage (scheme + host + port).
func OriginKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return unsafeOriginChars.ReplaceAllString(strings.TrimSpace(rawURL), "_")
	}
	scheme := u.Scheme
	if scheme == "" {
		scheme = "https"
	}
	return unsafeOriginChars.ReplaceAllString(scheme+"_"+u.Host, "_")
}

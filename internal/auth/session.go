package auth

import (
	"encoding/json"
	"strings"
)

// Identity is the signed-in user as known to the client
type Identity struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	IsActive  bool   `json:"isActive"`
}

// UnmarshalJSON accepts the user shapes returned by the auth and user
// services (id/userId/user_id, firstName/firstname, ...).
func (i *Identity) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID        json.RawMessage `json:"id"`
		UserID    json.RawMessage `json:"userId"`
		UserIDAlt json.RawMessage `json:"user_id"`
		Email     string          `json:"email"`
		FirstName string          `json:"firstName"`
		FirstAlt  string          `json:"firstname"`
		LastName  string          `json:"lastName"`
		LastAlt   string          `json:"lastname"`
		IsActive  *bool           `json:"isActive"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*i = Identity{
		ID:        firstNonEmpty(idString(raw.ID), idString(raw.UserID), idString(raw.UserIDAlt)),
		Email:     raw.Email,
		FirstName: firstNonEmpty(raw.FirstName, raw.FirstAlt),
		LastName:  firstNonEmpty(raw.LastName, raw.LastAlt),
		IsActive:  raw.IsActive == nil || *raw.IsActive,
	}
	return nil
}

// idString renders a JSON string or number id as text
func idString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// FullName returns "First Last", or "User" when no name is known
func (i *Identity) FullName() string {
	if i == nil {
		return "User"
	}
	name := strings.TrimSpace(i.FirstName + " " + i.LastName)
	if name == "" {
		return "User"
	}
	return name
}

// IdentityFromPayload derives an identity from token claims; the subject
// carries the email address.
func IdentityFromPayload(p *Payload) *Identity {
	if p == nil {
		return nil
	}
	return &Identity{
		ID:        p.UserID,
		Email:     p.Subject,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		IsActive:  true,
	}
}

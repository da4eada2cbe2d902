package auth

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, claims jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-signing-key"))
	require.NoError(t, err)
	return token
}

func TestDecode_ReadsClaimsWithoutVerification(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token := signToken(t, Claims{
		UserID:    json.RawMessage(`42`),
		FirstName: "Ada",
		LastName:  "Lovelace",
		Roles:     NewRoleSet("USER", "ADMIN"),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "ada@example.com",
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(exp.Add(-2 * time.Hour)),
		},
	})

	p, ok := Decode(token)
	require.True(t, ok)
	assert.Equal(t, "ada@example.com", p.Subject)
	assert.Equal(t, "42", p.UserID)
	assert.Equal(t, "Ada", p.FirstName)
	assert.Equal(t, "Lovelace", p.LastName)
	require.NotNil(t, p.ExpiresAt)
	assert.True(t, exp.Equal(*p.ExpiresAt))
	require.NotNil(t, p.IssuedAt)
	assert.True(t, p.Roles.HasAll("USER", "ADMIN"))
	assert.False(t, p.Expired(time.Now()))
}

func TestDecode_SignatureIsIgnored(t *testing.T) {
	token := signToken(t, jwt.RegisteredClaims{Subject: "a@b.com"})
	tampered := token[:len(token)-4] + "AAAA"

	p, ok := Decode(tampered)
	require.True(t, ok)
	assert.Equal(t, "a@b.com", p.Subject)
}

func TestDecode_HeaderIsIgnored(t *testing.T) {
	exp := time.Now().Add(time.Hour).Unix()
	payload := base64.RawURLEncoding.EncodeToString([]byte(fmt.Sprintf(`{"sub":"a@b.com","exp":%d,"roles":["ADMIN"]}`, exp)))
	enc := func(s string) string { return base64.RawURLEncoding.EncodeToString([]byte(s)) }

	headers := map[string]string{
		"known alg":     enc(`{"alg":"HS256"}`),
		"no alg":        enc(`{"typ":"JWT"}`),
		"unknown alg":   enc(`{"alg":"HS999"}`),
		"garbage":       "xx",
		"empty segment": "",
	}
	for name, header := range headers {
		t.Run(name, func(t *testing.T) {
			p, ok := Decode(header + "." + payload + ".sig")
			require.True(t, ok)
			assert.Equal(t, "a@b.com", p.Subject)
			assert.False(t, p.Expired(time.Now()))
			assert.True(t, p.Roles.Has("ADMIN"))
		})
	}
}

func TestDecode_MalformedInput(t *testing.T) {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	tests := map[string]string{
		"empty":            "",
		"whitespace":       "   ",
		"one segment":      "abc",
		"two segments":     "abc.def",
		"four segments":    "a.b.c.d",
		"payload not b64":  header + ".!!!.sig",
		"payload not json": header + "." + base64.RawURLEncoding.EncodeToString([]byte("hello")) + ".sig",
		"empty payload":    header + "..sig",
		"all garbage":      "xx.!!!.sig",
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			p, ok := Decode(raw)
			assert.False(t, ok)
			assert.Nil(t, p)
		})
	}
}

func TestDecode_SingleRoleString(t *testing.T) {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	payload := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"a@b.com","roles":"USER,AUDITOR"}`))

	p, ok := Decode(header + "." + payload + ".sig")
	require.True(t, ok)
	assert.True(t, p.Roles.HasAll("USER", "AUDITOR"))
}

func TestIsTokenExpired(t *testing.T) {
	now := time.Now()
	past := signToken(t, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute))})
	future := signToken(t, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute))})
	noExp := signToken(t, jwt.RegisteredClaims{Subject: "a@b.com"})

	assert.True(t, IsTokenExpired(past, now))
	assert.False(t, IsTokenExpired(future, now))
	assert.True(t, IsTokenExpired(noExp, now))
	assert.True(t, IsTokenExpired("", now))
	assert.True(t, IsTokenExpired("not-a-token", now))
}

func TestRoleSet(t *testing.T) {
	roles := NewRoleSet("USER", "BILLING")

	assert.True(t, roles.Has("USER"))
	assert.False(t, roles.Has("ADMIN"))
	assert.True(t, roles.HasAny("ADMIN", "BILLING"))
	assert.False(t, roles.HasAny("ADMIN"))
	assert.False(t, roles.HasAny())
	assert.True(t, roles.HasAll("USER", "BILLING"))
	assert.False(t, roles.HasAll("USER", "ADMIN"))
	assert.True(t, roles.HasAll())
	assert.ElementsMatch(t, []string{"USER", "BILLING"}, roles.Slice())
}

func TestIdentity_FullName(t *testing.T) {
	var nilIdentity *Identity
	assert.Equal(t, "User", nilIdentity.FullName())
	assert.Equal(t, "User", (&Identity{}).FullName())
	assert.Equal(t, "Ada Lovelace", (&Identity{FirstName: "Ada", LastName: "Lovelace"}).FullName())
}

func TestIdentityFromPayload(t *testing.T) {
	id := IdentityFromPayload(&Payload{Subject: "a@b.com", UserID: "7", FirstName: "A", LastName: "B"})
	require.NotNil(t, id)
	assert.Equal(t, "a@b.com", id.Email)
	assert.Equal(t, "7", id.ID)
	assert.Nil(t, IdentityFromPayload(nil))
}

func TestIdentity_UnmarshalAliases(t *testing.T) {
	tests := []struct {
		name string
		body string
		want Identity
	}{
		{
			name: "auth service shape",
			body: `{"id":"u-1","email":"a@b.com","firstName":"Ada","lastName":"L","isActive":false}`,
			want: Identity{ID: "u-1", Email: "a@b.com", FirstName: "Ada", LastName: "L", IsActive: false},
		},
		{
			name: "user service shape with numeric id",
			body: `{"userId":17,"email":"a@b.com","firstName":"Ada","lastName":"L"}`,
			want: Identity{ID: "17", Email: "a@b.com", FirstName: "Ada", LastName: "L", IsActive: true},
		},
		{
			name: "token-derived details",
			body: `{"user_id":"9","email":"a@b.com","firstname":"Ada","lastname":"L"}`,
			want: Identity{ID: "9", Email: "a@b.com", FirstName: "Ada", LastName: "L", IsActive: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Identity
			require.NoError(t, json.Unmarshal([]byte(tt.body), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

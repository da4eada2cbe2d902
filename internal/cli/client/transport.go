package client

import (
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/payhub-dev/payhub/internal/busy"
)

const (
	bearerPrefix    = "Bearer "
	requestIDHeader = "X-Request-ID"
)

// TokenSource yields the current bearer token, or "" when signed out
type TokenSource interface {
	Token() string
}

// StaticToken is a fixed TokenSource
type StaticToken string

func (s StaticToken) Token() string { return string(s) }

// AuthTransport attaches the bearer token to every call not marked SkipAuth.
// With Origin set, only requests to that scheme and host get the token, so
// redirect hops to other servers go out without it.
type AuthTransport struct {
	Source TokenSource
	Origin *url.URL
	Next   http.RoundTripper
}

func (t *AuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Source == nil || IsSkipAuth(req.Context()) {
		return t.next().RoundTrip(req)
	}
	if t.Origin != nil && !sameOrigin(t.Origin, req.URL) {
		return t.next().RoundTrip(req)
	}

	token := t.Source.Token()
	if token == "" {
		return t.next().RoundTrip(req)
	}

	// RoundTrippers must not modify the caller's request
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", bearerPrefix+token)
	return t.next().RoundTrip(req)
}

// sameOrigin compares scheme, host name and effective port
func sameOrigin(a, b *url.URL) bool {
	return strings.EqualFold(a.Scheme, b.Scheme) &&
		strings.EqualFold(a.Hostname(), b.Hostname()) &&
		effectivePort(a) == effectivePort(b)
}

func effectivePort(u *url.URL) string {
	if p := u.Port(); p != "" {
		return p
	}
	switch strings.ToLower(u.Scheme) {
	case "https":
		return "443"
	case "http":
		return "80"
	}
	return ""
}

func (t *AuthTransport) next() http.RoundTripper {
	if t.Next == nil {
		return http.DefaultTransport
	}
	return t.Next
}

// BusyTransport holds a busy scope for the lifetime of every call not
// marked SkipIndicator. The scope is released when the call fails or when
// the response body is closed or fully read.
type BusyTransport struct {
	Tracker *busy.Tracker
	Next    http.RoundTripper
}

func (t *BusyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	next := t.Next
	if next == nil {
		next = http.DefaultTransport
	}
	if t.Tracker == nil || IsSkipIndicator(req.Context()) {
		return next.RoundTrip(req)
	}

	scope := t.Tracker.Acquire()
	resp, err := next.RoundTrip(req)
	if err != nil {
		scope.Release()
		return nil, err
	}
	if resp.Body == nil {
		scope.Release()
		return resp, nil
	}

	resp.Body = &releasingBody{ReadCloser: resp.Body, scope: scope}
	return resp, nil
}

// releasingBody releases its scope at EOF or Close, whichever comes first
type releasingBody struct {
	io.ReadCloser
	scope *busy.Scope
	once  sync.Once
}

func (b *releasingBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	if err != nil {
		b.release()
	}
	return n, err
}

func (b *releasingBody) Close() error {
	err := b.ReadCloser.Close()
	b.release()
	return err
}

func (b *releasingBody) release() {
	b.once.Do(b.scope.Release)
}

// RequestIDTransport stamps X-Request-ID and logs each exchange
type RequestIDTransport struct {
	Logger zerolog.Logger
	Next   http.RoundTripper
}

func (t *RequestIDTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	next := t.Next
	if next == nil {
		next = http.DefaultTransport
	}

	id := req.Header.Get(requestIDHeader)
	if id == "" {
		id = ulid.Make().String()
		req = req.Clone(req.Context())
		req.Header.Set(requestIDHeader, id)
	}

	start := time.Now()
	resp, err := next.RoundTrip(req)

	event := t.Logger.Debug().
		Str("request_id", id).
		Str("method", req.Method).
		Str("url", req.URL.Redacted()).
		Dur("elapsed", time.Since(start))
	if err != nil {
		event.Err(err).Msg("Request failed")
		return nil, err
	}
	event.Int("status", resp.StatusCode).Msg("Request completed")
	return resp, nil
}

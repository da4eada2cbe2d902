package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError is a non-2xx response. Message is the server's own text,
// surfaced to the user unchanged.
type APIError struct {
	StatusCode int
	Title      string
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("request failed (status %d): %s", e.StatusCode, e.Message)
}

// newAPIError reads title and message from a JSON body when it has them,
// otherwise the raw body text is the message.
func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status, Body: body}

	trimmed := bytes.TrimSpace(body)
	var payload struct {
		Title   string `json:"title"`
		Message string `json:"message"`
		Error   string `json:"error"`
		Detail  string `json:"detail"`
	}
	if len(trimmed) > 0 && trimmed[0] == '{' && json.Unmarshal(trimmed, &payload) == nil {
		apiErr.Title = payload.Title
		apiErr.Message = firstNonEmpty(payload.Message, payload.Error, payload.Detail)
	} else {
		apiErr.Message = strings.TrimSpace(string(trimmed))
	}

	if apiErr.Title == "" {
		apiErr.Title = http.StatusText(status)
	}
	return apiErr
}

// AsAPIError unwraps err into an *APIError
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsUnauthorized reports whether err is a 401 from the server
func IsUnauthorized(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.StatusCode == http.StatusUnauthorized
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

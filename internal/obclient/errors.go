package obclient

import (
	"fmt"
	"regexp"
	"strings"
)

// TokenError means the upstream auth endpoint failed or returned no usable
// token. The orchestration layer never retries these automatically.
type TokenError struct {
	BaseURL    string
	StatusCode int
	Body       string
	Err        error
}

func (e *TokenError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("bank token request to %s failed: HTTP %d: %s", e.BaseURL, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("bank token request to %s failed: %v", e.BaseURL, e.Err)
}

func (e *TokenError) Unwrap() error { return e.Err }

// APIError is any non-2xx answer from a resource, consent or payment call.
// Body is already truncated and safe to show in a UI.
type APIError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: HTTP %d", e.Operation, e.StatusCode)
	}
	return fmt.Sprintf("%s: HTTP %d: %s", e.Operation, e.StatusCode, e.Body)
}

// ShapeError is a 2xx answer whose body does not contain the minimal
// expected shape. It is a hard failure, distinct from a rejected or pending
// business outcome.
type ShapeError struct {
	Operation string
	Detail    string
	Err       error
}

func (e *ShapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: unexpected response shape: %s: %v", e.Operation, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: unexpected response shape: %s", e.Operation, e.Detail)
}

func (e *ShapeError) Unwrap() error { return e.Err }

const maxErrorBody = 400

var (
	htmlTags   = regexp.MustCompile(`<[^>]+>`)
	whitespace = regexp.MustCompile(`\s+`)
)

// sanitizeBody strips markup and collapses whitespace so upstream error
// bodies stay loggable, then truncates. Upstream bodies are treated as
// potentially large and sensitive.
func sanitizeBody(body []byte) string {
	s := string(body)
	s = htmlTags.ReplaceAllString(s, " ")
	s = strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
	if len(s) > maxErrorBody {
		return s[:maxErrorBody] + "…"
	}
	return s
}

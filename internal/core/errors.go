package core

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrSourceUnavailable is returned when the mail source cannot be reached or opened
	ErrSourceUnavailable = errors.New("mail source unavailable")
	// ErrCacheMiss is returned by cache repositories when no live entry exists
	ErrCacheMiss = errors.New("cache entry not found")
)

// ClassificationFault is a recoverable failure while extracting fields from one item
type ClassificationFault struct {
	Stage string
	Err   error
}

func (f *ClassificationFault) Error() string {
	return fmt.Sprintf("%s: %v", f.Stage, f.Err)
}

func (f *ClassificationFault) Unwrap() error { return f.Err }

// ItemReadError is returned by a mail folder when a single item cannot be read.
// The folder stays usable.
type ItemReadError struct {
	ID  string
	Err error
}

func (e *ItemReadError) Error() string {
	return fmt.Sprintf("failed to read item %s: %v", e.ID, e.Err)
}

func (e *ItemReadError) Unwrap() error { return e.Err }

// CallKind classifies a failed model call
type CallKind string

const (
	KindRateLimited       CallKind = "rate_limited"
	KindTimeout           CallKind = "timeout"
	KindTransport         CallKind = "transport"
	KindMalformedResponse CallKind = "malformed_response"
)

// CallError is a failed model call tagged with its kind
type CallError struct {
	Kind CallKind
	Err  error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

// NewCallError wraps err with the given kind
func NewCallError(kind CallKind, err error) error {
	return &CallError{Kind: kind, Err: err}
}

// KindOf returns the call kind carried by err, defaulting to transport
func KindOf(err error) CallKind {
	var ce *CallError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindTransport
}

// RetryExhaustedError is the terminal failure of a record after all attempts
type RetryExhaustedError struct {
	Attempts int
	Last     error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("retry exhausted after %d attempts: %v", e.Attempts, e.Last)
}

func (e *RetryExhaustedError) Unwrap() error { return e.Last }

var (
	bearerTokenRe = regexp.MustCompile(`(?i)\bBearer\s+[^\s"']+`)
	apiKeyKVRe    = regexp.MustCompile(`(?i)\b(api[_-]?key|openrouter[_-]?api[_-]?key|openai[_-]?api[_-]?key|key)\b\s*[:=]\s*[^\s"'&]+`)
	openAIKeyRe   = regexp.MustCompile(`\bsk-[A-Za-z0-9_\-]{8,}`)
)

// RedactSecrets masks API keys and bearer tokens in an error detail string
func RedactSecrets(s string) string {
	if s == "" {
		return ""
	}
	out := bearerTokenRe.ReplaceAllString(s, "Bearer <redacted>")
	out = apiKeyKVRe.ReplaceAllString(out, "<redacted_kv>")
	out = openAIKeyRe.ReplaceAllString(out, "<redacted_key>")
	return strings.TrimSpace(out)
}

// Package errs defines the failure taxonomy shared by the upstream clients
// and the analysis pipelines.
package errs

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound means the account, channel or video does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAccessDenied means the target is private or requires login.
	ErrAccessDenied = errors.New("access denied")
	// ErrRateLimited means the upstream throttled us.
	ErrRateLimited = errors.New("rate limited")
	// ErrTransientNetwork covers other connection and server failures.
	ErrTransientNetwork = errors.New("transient network error")
	// ErrMalformedUpstream means a record lacked or garbled a required field.
	ErrMalformedUpstream = errors.New("malformed upstream data")
	// ErrProviderUnavailable means a summarization provider failed or is not configured.
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrConfig is the only fatal class: the run cannot start.
	ErrConfig = errors.New("invalid configuration")
)

// rateLimitWords are matched case-insensitively against error text.
var rateLimitWords = []string{"429", "too many requests", "rate limit", "quota", "resource_exhausted"}

// IsRateLimited reports whether err is ErrRateLimited or reads like a
// throttling response from a provider that only hands back text.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	return ContainsAny(err.Error(), rateLimitWords...)
}

// ContainsAny reports whether s contains any of words, ignoring case.
func ContainsAny(s string, words ...string) bool {
	lower := strings.ToLower(s)
	for _, w := range words {
		if strings.Contains(lower, strings.ToLower(w)) {
			return true
		}
	}
	return false
}

// Reason maps err to the short label used in logs and failed-account lists.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "not found"
	case errors.Is(err, ErrAccessDenied):
		return "private or login required"
	case errors.Is(err, ErrRateLimited):
		return "rate limited"
	case errors.Is(err, ErrTransientNetwork):
		return "connection error"
	case errors.Is(err, ErrMalformedUpstream):
		return "malformed data"
	case errors.Is(err, ErrProviderUnavailable):
		return "provider unavailable"
	default:
		msg := err.Error()
		if r := []rune(msg); len(r) > 50 {
			msg = string(r[:50]) + "..."
		}
		return "error: " + msg
	}
}

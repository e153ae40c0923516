// Package apikey validates and masks weather provider API keys.
//
// The key format belongs to the provider, so validation only rejects input
// that cannot be a key at all: nothing but whitespace, or something far too
// long to be anything but an accidental paste.
package apikey

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxLength is the longest candidate, in characters, that Validate accepts.
const MaxLength = 100

// Result is the outcome of validating a candidate key.
type Result struct {
	Valid  bool
	Reason string
}

// Err returns nil for a valid result, or an error carrying Reason.
func (r Result) Err() error {
	if r.Valid {
		return nil
	}
	return fmt.Errorf("%s", r.Reason)
}

func invalid(reason string) Result {
	return Result{Reason: reason}
}

// Validate checks that candidate is plausible as an API key.
func Validate(candidate string) Result {
	if strings.TrimSpace(candidate) == "" {
		return invalid("key is empty")
	}
	if utf8.RuneCountInString(candidate) > MaxLength {
		return invalid(fmt.Sprintf("key exceeds maximum length of %d characters", MaxLength))
	}
	return Result{Valid: true}
}

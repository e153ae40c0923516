// Package keychain stores the weather API key in the operating system's
// secret service.
//
// Exactly one Backend implementation is compiled per platform:
//   - darwin: macOS Keychain generic password, scoped with
//     kSecAttrAccessibleWhenUnlockedThisDeviceOnly and never synchronized
//   - linux and the BSDs: Secret Service over D-Bus (gnome-keyring, KWallet)
//   - windows: Credential Manager
//
// Every other platform gets a backend that reports ErrUnavailable.
//
// The secret is addressed by a fixed Name. A missing item is never an error:
// Retrieve reports it as absent and Delete treats it as already done.
package keychain

import (
	"errors"
	"fmt"
)

const (
	// DefaultService and DefaultAccount form the logical name of the API key.
	DefaultService = "open-weather-wizard"
	DefaultAccount = "default"
)

// Failure kinds. Every error returned by a Backend matches exactly one of
// these with errors.Is.
var (
	ErrUnavailable  = errors.New("secret service unavailable")
	ErrAccessDenied = errors.New("access to secret service denied")
	ErrFailed       = errors.New("secret service operation failed")
)

// Name identifies the secret inside the OS secret service.
type Name struct {
	Service string
	Account string
}

// DefaultName returns the logical name used when no override is configured.
func DefaultName() Name {
	return Name{Service: DefaultService, Account: DefaultAccount}
}

func (n Name) String() string {
	return n.Service + "/" + n.Account
}

// Label is the human-visible item label (Keychain Access, Seahorse).
func (n Name) Label() string {
	return fmt.Sprintf("%s: %s", n.Service, n.Account)
}

// Backend persists one secret under a fixed Name.
type Backend interface {
	// Name returns the logical name this backend reads and writes.
	Name() Name

	// Store saves secret, replacing any previous value.
	Store(secret string) error

	// Retrieve returns the stored secret. ok is false when nothing is stored.
	Retrieve() (secret string, ok bool, err error)

	// Delete removes the secret. Deleting an absent secret succeeds.
	Delete() error

	// Exists reports whether a secret is stored without returning it.
	Exists() (bool, error)
}

// Error is a classified secret service failure.
type Error struct {
	Kind error  // one of ErrUnavailable, ErrAccessDenied, ErrFailed
	Op   string // "store", "retrieve", "delete"
	Err  error  // platform error, if any
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("keychain %s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("keychain %s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Reason is the most specific description available, preferring the
// platform's own message.
func (e *Error) Reason() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.Error()
}

func newError(kind error, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// exists derives presence from a retrieve call, dropping the value.
func exists(b Backend) (bool, error) {
	_, ok, err := b.Retrieve()
	if err != nil {
		return false, err
	}
	return ok, nil
}

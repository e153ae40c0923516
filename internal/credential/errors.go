package credential

import (
	"errors"
	"fmt"

	"github.com/benaskins/weatherwizard/internal/keychain"
)

// Outcome kinds. Match with errors.Is.
var (
	ErrValidationFailed   = errors.New("api key failed validation")
	ErrBackendUnavailable = errors.New("secure storage unavailable")
	ErrPersistenceFailed  = errors.New("secure storage operation failed")
	ErrNotConfigured      = errors.New("no API key is configured")
)

// ValidationError is returned by Configure when the candidate key is
// rejected before the secret service is contacted.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func (e *ValidationError) Is(target error) bool { return target == ErrValidationFailed }

// StorageError is a secret service failure with the platform detail
// flattened to text.
type StorageError struct {
	Kind   error // ErrBackendUnavailable or ErrPersistenceFailed
	Op     string
	Reason string
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%v: %s", e.Kind, e.Reason)
}

func (e *StorageError) Unwrap() error { return e.Kind }

// storageError converts a backend error. Only the reason text survives;
// platform error values stay below this package.
func storageError(op string, err error) *StorageError {
	reason := err.Error()
	var kerr *keychain.Error
	if errors.As(err, &kerr) {
		reason = kerr.Reason()
	}
	kind := ErrPersistenceFailed
	if errors.Is(err, keychain.ErrUnavailable) {
		kind = ErrBackendUnavailable
	}
	return &StorageError{Kind: kind, Op: op, Reason: reason}
}

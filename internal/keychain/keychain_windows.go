//go:build windows

package keychain

import (
	"errors"
	"log/slog"

	"github.com/zalando/go-keyring"
	"golang.org/x/sys/windows"
)

// NewSystemBackend returns the Credential Manager Backend for name.
func NewSystemBackend(name Name) Backend {
	return &SystemBackend{
		name:   name,
		logger: slog.With("component", "keychain"),
	}
}

func (s *SystemBackend) classify(op string, err error) error {
	switch {
	case errors.Is(err, keyring.ErrUnsupportedPlatform),
		errors.Is(err, windows.ERROR_NO_SUCH_LOGON_SESSION):
		// Services and SSH sessions without a loaded profile have no vault.
		return newError(ErrUnavailable, op, err)
	case errors.Is(err, windows.ERROR_ACCESS_DENIED):
		return newError(ErrAccessDenied, op, err)
	default:
		return newError(ErrFailed, op, err)
	}
}

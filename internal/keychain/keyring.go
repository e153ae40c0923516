//go:build windows || linux || freebsd || openbsd || netbsd || dragonfly

package keychain

import (
	"errors"
	"log/slog"

	"github.com/zalando/go-keyring"
)

// SystemBackend stores the secret through go-keyring, which talks to the
// Secret Service on Unix-like systems and Credential Manager on Windows.
// Platform files supply NewSystemBackend and classify.
type SystemBackend struct {
	name   Name
	logger *slog.Logger
	// probe reports why the secret service cannot be reached, or nil.
	probe func() error
}

func (s *SystemBackend) Name() Name { return s.name }

func (s *SystemBackend) Store(secret string) error {
	if err := keyring.Set(s.name.Service, s.name.Account, secret); err != nil {
		return s.classify("store", err)
	}
	return nil
}

func (s *SystemBackend) Retrieve() (string, bool, error) {
	secret, err := keyring.Get(s.name.Service, s.name.Account)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", false, nil
		}
		return "", false, s.classify("retrieve", err)
	}
	return secret, true, nil
}

func (s *SystemBackend) Delete() error {
	err := keyring.Delete(s.name.Service, s.name.Account)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return s.classify("delete", err)
	}
	return nil
}

func (s *SystemBackend) Exists() (bool, error) {
	return exists(s)
}

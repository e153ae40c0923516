//go:build !darwin && !windows && !linux && !freebsd && !openbsd && !netbsd && !dragonfly

package keychain

import (
	"fmt"
	"runtime"
)

// unsupportedBackend is used where no OS secret service exists. Every call
// fails with ErrUnavailable; the key is never kept anywhere else.
type unsupportedBackend struct {
	name Name
}

// NewSystemBackend returns a Backend that reports the platform as unsupported.
func NewSystemBackend(name Name) Backend {
	return &unsupportedBackend{name: name}
}

func (u *unsupportedBackend) Name() Name { return u.name }

func (u *unsupportedBackend) unsupported(op string) error {
	return newError(ErrUnavailable, op, fmt.Errorf("no secret service on %s", runtime.GOOS))
}

func (u *unsupportedBackend) Store(string) error { return u.unsupported("store") }

func (u *unsupportedBackend) Retrieve() (string, bool, error) {
	return "", false, u.unsupported("retrieve")
}

func (u *unsupportedBackend) Delete() error { return u.unsupported("delete") }

func (u *unsupportedBackend) Exists() (bool, error) { return exists(u) }

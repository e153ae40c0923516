//go:build linux || freebsd || openbsd || netbsd || dragonfly

package keychain

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/godbus/dbus/v5"
	"github.com/zalando/go-keyring"
)

const secretServiceBusName = "org.freedesktop.secrets"

// NewSystemBackend returns the Secret Service Backend for name.
func NewSystemBackend(name Name) Backend {
	return &SystemBackend{
		name:   name,
		logger: slog.With("component", "keychain"),
		probe:  probeSecretService,
	}
}

// classify sorts a go-keyring failure into a kind. go-keyring does not
// distinguish a missing daemon from a failed call, so the session bus is
// probed only once something has already gone wrong.
func (s *SystemBackend) classify(op string, err error) error {
	if errors.Is(err, keyring.ErrUnsupportedPlatform) {
		return newError(ErrUnavailable, op, err)
	}
	if perr := s.probe(); perr != nil {
		s.logger.Debug("secret service probe failed", "op", op, "error", perr)
		return newError(ErrUnavailable, op, fmt.Errorf("%w (%v)", err, perr))
	}
	if deniedByBus(err) {
		return newError(ErrAccessDenied, op, err)
	}
	return newError(ErrFailed, op, err)
}

func deniedByBus(err error) bool {
	var name string
	var value dbus.Error
	var ptr *dbus.Error
	switch {
	case errors.As(err, &value):
		name = value.Name
	case errors.As(err, &ptr):
		name = ptr.Name
	default:
		// Unlock prompts dismissed by the user surface as plain errors.
		return strings.Contains(strings.ToLower(err.Error()), "dismissed")
	}
	switch name {
	case "org.freedesktop.DBus.Error.AccessDenied",
		"org.freedesktop.Secret.Error.IsLocked":
		return true
	}
	return false
}

// probeSecretService checks that something owns, or can be activated as,
// org.freedesktop.secrets on the session bus.
func probeSecretService() error {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("connecting to session bus: %w", err)
	}
	defer conn.Close()

	var owned bool
	if err := conn.BusObject().Call("org.freedesktop.DBus.NameHasOwner", 0, secretServiceBusName).Store(&owned); err != nil {
		return fmt.Errorf("querying %s owner: %w", secretServiceBusName, err)
	}
	if owned {
		return nil
	}

	var activatable []string
	if err := conn.BusObject().Call("org.freedesktop.DBus.ListActivatableNames", 0).Store(&activatable); err != nil {
		return fmt.Errorf("listing activatable names: %w", err)
	}
	if slices.Contains(activatable, secretServiceBusName) {
		return nil
	}
	return fmt.Errorf("no service provides %s", secretServiceBusName)
}

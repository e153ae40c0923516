//go:build linux

package keychain

import (
	"errors"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/zalando/go-keyring"
)

func mockedBackend(t *testing.T, probe func() error) *SystemBackend {
	t.Helper()
	keyring.MockInit()
	b := NewSystemBackend(testName()).(*SystemBackend)
	b.probe = probe
	return b
}

func TestSecretServiceContractWithMockKeyring(t *testing.T) {
	exerciseBackend(t, mockedBackend(t, func() error { return nil }))
}

func TestSecretServiceClassify(t *testing.T) {
	reachable := func() error { return nil }
	unreachable := func() error { return errors.New("no session bus") }

	tests := []struct {
		name  string
		probe func() error
		err   error
		kind  error
	}{
		{"unsupported platform", reachable, keyring.ErrUnsupportedPlatform, ErrUnavailable},
		{"bus missing", unreachable, errors.New("dbus: connection closed"), ErrUnavailable},
		{"locked collection", reachable, dbus.Error{Name: "org.freedesktop.Secret.Error.IsLocked"}, ErrAccessDenied},
		{"access denied", reachable, &dbus.Error{Name: "org.freedesktop.DBus.Error.AccessDenied"}, ErrAccessDenied},
		{"prompt dismissed", reachable, errors.New("failed to unlock correct collection: prompt dismissed"), ErrAccessDenied},
		{"other", reachable, errors.New("something odd"), ErrFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := mockedBackend(t, tt.probe)
			err := b.classify("store", tt.err)
			if !errors.Is(err, tt.kind) {
				t.Errorf("classify(%v) = %v, want kind %v", tt.err, err, tt.kind)
			}
		})
	}
}

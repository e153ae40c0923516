// Package bootstrap turns the credential store's answer at startup into the
// notice the application shows its user.
package bootstrap

import (
	"errors"
	"log/slog"

	"github.com/benaskins/weatherwizard/internal/credential"
)

// State is the application's readiness after trying to load the API key.
type State int

const (
	StateReady State = iota
	StateNeedsSetup
	StateStorageUnavailable
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateNeedsSetup:
		return "needs_setup"
	case StateStorageUnavailable:
		return "storage_unavailable"
	default:
		return "failed"
	}
}

// MarshalText lets State appear by name in JSON output.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Notice is shown to the user once Start returns.
type Notice struct {
	State   State  `json:"state"`
	Title   string `json:"title"`
	Message string `json:"message,omitempty"`
}

// KeySource is satisfied by *credential.Store.
type KeySource interface {
	ActiveKey() (string, error)
}

// Adapter loads the key once per call and hands it to the caller.
type Adapter struct {
	source KeySource
	logger *slog.Logger
}

// New creates an Adapter reading from source.
func New(source KeySource) *Adapter {
	return &Adapter{
		source: source,
		logger: slog.With("component", "bootstrap"),
	}
}

// Start reads the active key and passes it to use. The key is not retained.
func (a *Adapter) Start(use func(key string) error) Notice {
	key, err := a.source.ActiveKey()
	switch {
	case errors.Is(err, credential.ErrNotConfigured):
		a.logger.Info("no API key configured")
		return Notice{
			State:   StateNeedsSetup,
			Title:   "API key required",
			Message: "Run 'configure-api-key set <your-api-key>' to store your weather API key.",
		}
	case errors.Is(err, credential.ErrBackendUnavailable):
		a.logger.Warn("secure storage unavailable", "error", err)
		return Notice{
			State:   StateStorageUnavailable,
			Title:   "Secure storage unavailable",
			Message: "secure storage unavailable on this system",
		}
	case err != nil:
		a.logger.Error("loading API key failed", "error", err)
		return Notice{
			State:   StateFailed,
			Title:   "Could not load API key",
			Message: err.Error(),
		}
	}

	if err := use(key); err != nil {
		a.logger.Error("starting with API key failed", "error", err)
		return Notice{
			State:   StateFailed,
			Title:   "Could not start",
			Message: err.Error(),
		}
	}
	return Notice{State: StateReady, Title: "Ready"}
}

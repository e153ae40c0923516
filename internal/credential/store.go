// Package credential is the single entry point to the weather API key.
//
// Store validates keys before they reach the OS secret service, hands out
// only masked projections for display, and normalizes every backend failure
// into ErrBackendUnavailable or ErrPersistenceFailed. ActiveKey is the one
// method that returns the raw key.
//
// Calls block on the OS secret service, which may be waiting on an unlock
// prompt. Nothing is retried.
package credential

import (
	"log/slog"
	"sync"
	"time"

	"github.com/benaskins/weatherwizard/internal/apikey"
	"github.com/benaskins/weatherwizard/internal/audit"
	"github.com/benaskins/weatherwizard/internal/keychain"
)

// Presence is what Check reports. It never carries the raw key.
type Presence struct {
	Configured   bool          `json:"configured"`
	Masked       apikey.Masked `json:"masked,omitempty"`
	ConfiguredAt time.Time     `json:"configured_at,omitzero"`
	UpdatedAt    time.Time     `json:"updated_at,omitzero"`
}

// Store wraps one keychain.Backend for the lifetime of the process.
type Store struct {
	mu       sync.Mutex // serializes backend calls
	backend  keychain.Backend
	audit    *audit.Logger
	metadata *MetadataStore
	actor    string
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithAudit records every operation to l.
func WithAudit(l *audit.Logger) Option {
	return func(s *Store) {
		s.audit = l
	}
}

// WithMetadata tracks when the key was configured.
func WithMetadata(m *MetadataStore) Option {
	return func(s *Store) {
		s.metadata = m
	}
}

// WithActor names the caller in audit entries ("cli", "app").
func WithActor(actor string) Option {
	return func(s *Store) {
		s.actor = actor
	}
}

// New creates a Store over backend.
func New(backend keychain.Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		logger:  slog.With("component", "credential"),
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the logical name of the managed key.
func (s *Store) Name() keychain.Name {
	return s.backend.Name()
}

// Configure validates candidate and stores it, replacing any existing key.
// A rejected candidate never reaches the backend.
func (s *Store) Configure(candidate string) error {
	if res := apikey.Validate(candidate); !res.Valid {
		s.record(audit.Entry{Action: audit.ActionKeyWrite, Outcome: "rejected", Error: res.Reason})
		return &ValidationError{Reason: res.Reason}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.Store(candidate); err != nil {
		serr := storageError("store", err)
		s.logger.Error("storing API key failed", "name", s.Name(), "error", serr)
		s.record(audit.Entry{Action: audit.ActionKeyWrite, Error: serr.Error()})
		return serr
	}

	s.record(audit.Entry{Action: audit.ActionKeyWrite})
	if s.metadata != nil {
		if err := s.metadata.Touch(s.Name().String(), s.now()); err != nil {
			s.logger.Warn("saving key metadata failed", "path", s.metadata.Path(), "error", err)
		}
	}
	s.logger.Info("API key stored", "name", s.Name(), "key", apikey.Mask(candidate))
	return nil
}

// Check reports whether a key is stored and, if so, its masked form.
func (s *Store) Check() (Presence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	secret, ok, err := s.backend.Retrieve()
	if err != nil {
		serr := storageError("retrieve", err)
		s.logger.Error("checking API key failed", "name", s.Name(), "error", serr)
		s.record(audit.Entry{Action: audit.ActionKeyRead, Error: serr.Error()})
		return Presence{}, serr
	}
	if !ok {
		s.record(audit.Entry{Action: audit.ActionKeyRead, Outcome: "absent"})
		return Presence{}, nil
	}

	s.record(audit.Entry{Action: audit.ActionKeyRead, Outcome: "present"})
	p := Presence{Configured: true, Masked: apikey.Mask(secret)}
	if s.metadata != nil {
		if meta := s.metadata.Get(s.Name().String()); meta != nil {
			p.ConfiguredAt = meta.ConfiguredAt
			p.UpdatedAt = meta.UpdatedAt
		}
	}
	return p, nil
}

// Configured reports whether a key is stored without returning it.
func (s *Store) Configured() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ok, err := s.backend.Exists()
	if err != nil {
		return false, storageError("retrieve", err)
	}
	return ok, nil
}

// ActiveKey returns the raw key for immediate use by the weather client.
// Callers must not log, persist, or retain it. Returns ErrNotConfigured
// when no key is stored.
func (s *Store) ActiveKey() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	secret, ok, err := s.backend.Retrieve()
	if err != nil {
		serr := storageError("retrieve", err)
		s.logger.Error("reading API key failed", "name", s.Name(), "error", serr)
		s.record(audit.Entry{Action: audit.ActionKeyRead, Error: serr.Error()})
		return "", serr
	}
	if !ok {
		s.record(audit.Entry{Action: audit.ActionKeyRead, Outcome: "absent"})
		return "", ErrNotConfigured
	}

	s.record(audit.Entry{Action: audit.ActionKeyRead, Outcome: "present"})
	s.logger.Debug("API key loaded", "name", s.Name(), "key", apikey.Mask(secret))
	return secret, nil
}

// Remove deletes the key. Removing an absent key succeeds.
func (s *Store) Remove() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.Delete(); err != nil {
		serr := storageError("delete", err)
		s.logger.Error("removing API key failed", "name", s.Name(), "error", serr)
		s.record(audit.Entry{Action: audit.ActionKeyDelete, Error: serr.Error()})
		return serr
	}

	s.record(audit.Entry{Action: audit.ActionKeyDelete})
	if s.metadata != nil {
		if err := s.metadata.Delete(s.Name().String()); err != nil {
			s.logger.Warn("deleting key metadata failed", "path", s.metadata.Path(), "error", err)
		}
	}
	s.logger.Info("API key removed", "name", s.Name())
	return nil
}

// Audit appends an entry for an operation performed on the store's behalf,
// such as a migration.
func (s *Store) Audit(e audit.Entry) {
	s.record(e)
}

// record is best-effort: a failure to audit does not fail the operation.
func (s *Store) record(e audit.Entry) {
	if s.audit == nil {
		return
	}
	e.Name = s.Name().String()
	if e.Actor == "" {
		e.Actor = s.actor
	}
	if err := s.audit.Log(e); err != nil {
		s.logger.Warn("audit write failed", "path", s.audit.Path(), "error", err)
	}
}

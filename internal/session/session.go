// Package session assembles the credential store a binary works with from
// its loaded config: the platform backend, the audit log and key metadata.
package session

import (
	"errors"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/benaskins/weatherwizard/internal/audit"
	"github.com/benaskins/weatherwizard/internal/config"
	"github.com/benaskins/weatherwizard/internal/credential"
	"github.com/benaskins/weatherwizard/internal/keychain"
)

const auditFile = "audit.log"

// Session owns the store and the files opened alongside it.
type Session struct {
	Store    *credential.Store
	StateDir string

	audit *audit.Logger
}

// Open builds a store over the platform secret service. Failing to open the
// audit log or metadata file is logged and the store runs without them.
func Open(cfg *config.Config, actor string) *Session {
	return OpenWith(cfg, actor, keychain.NewSystemBackend(cfg.Name()))
}

// OpenWith is Open with an explicit backend.
func OpenWith(cfg *config.Config, actor string, backend keychain.Backend) *Session {
	logger := slog.With("component", "session")
	s := &Session{StateDir: cfg.ResolvedStateDir()}

	opts := []credential.Option{credential.WithActor(actor)}
	if s.StateDir != "" {
		if cfg.AuditEnabled() {
			l, err := audit.NewLogger(filepath.Join(s.StateDir, auditFile))
			if err != nil {
				logger.Warn("audit log disabled", "error", err)
			} else {
				s.audit = l
				opts = append(opts, credential.WithAudit(l))
			}
		}
		m, err := credential.NewMetadataStore(filepath.Join(s.StateDir, credential.MetadataFile))
		if err != nil {
			logger.Warn("key metadata disabled", "error", err)
		} else {
			opts = append(opts, credential.WithMetadata(m))
		}
	}

	s.Store = credential.New(backend, opts...)
	logger.Debug("session opened", "backend", backend.Name(), "state_dir", s.StateDir, "actor", actor)
	return s
}

// Close releases the audit log.
func (s *Session) Close() error {
	if s.audit == nil {
		return nil
	}
	return s.audit.Close()
}

// SetupLogging installs a text handler on w as the default slog logger.
func SetupLogging(w io.Writer, level slog.Level) {
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// LoadConfig loads path, or the default location when path is empty.
func LoadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = config.DefaultPath()
	}
	if path == "" {
		return nil, errors.New("cannot determine config directory; pass --config")
	}
	return config.Load(path)
}

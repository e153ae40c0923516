// Package audit records every access to the API key in an append-only log.
//
// Entries are newline-delimited JSON in <state_dir>/audit.log. They name the
// secret and the outcome, never its value.
package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Action describes what happened.
type Action string

const (
	ActionKeyRead    Action = "key_read"
	ActionKeyWrite   Action = "key_write"
	ActionKeyDelete  Action = "key_delete"
	ActionKeyMigrate Action = "key_migrate"
)

// Entry is a single audit log record.
type Entry struct {
	Timestamp time.Time `json:"ts"`
	Action    Action    `json:"action"`
	Name      string    `json:"name"`              // logical name, service/account
	Actor     string    `json:"actor,omitempty"`   // "cli", "app"
	Outcome   string    `json:"outcome,omitempty"` // "present", "absent", "rejected"
	Source    string    `json:"source,omitempty"`  // migration source file
	Error     string    `json:"error,omitempty"`
}

// ErrClosed is returned by a Logger after Close.
var ErrClosed = errors.New("audit log closed")

// Logger appends one JSON line per entry. Each line goes to the file in a
// single write so concurrent processes appending to the same log do not
// interleave entries.
type Logger struct {
	mu   sync.Mutex
	path string
	file *os.File
	enc  *json.Encoder
	now  func() time.Time
}

// LoggerOption configures a Logger.
type LoggerOption func(*Logger)

// WithClock stamps entries that carry no timestamp using now.
func WithClock(now func() time.Time) LoggerOption {
	return func(l *Logger) {
		l.now = now
	}
}

// NewLogger opens path for appending, creating it and its directory with
// owner-only permissions if needed.
func NewLogger(path string, opts ...LoggerOption) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating audit dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("opening audit log: %w", err)
	}
	l := &Logger{
		path: path,
		file: f,
		enc:  json.NewEncoder(f),
		now:  func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Path returns the file the logger appends to.
func (l *Logger) Path() string {
	return l.path
}

// Log appends entry, stamping it if Timestamp is zero.
func (l *Logger) Log(entry Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return ErrClosed
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = l.now()
	}
	if err := l.enc.Encode(entry); err != nil {
		return fmt.Errorf("writing audit entry to %s: %w", l.path, err)
	}
	return nil
}

// Close releases the file. Closing twice returns ErrClosed.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return ErrClosed
	}
	err := l.file.Close()
	l.file, l.enc = nil, nil
	return err
}

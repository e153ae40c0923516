// Package legacy moves the API key out of configuration files written by
// earlier releases, which kept it base64-encoded in plain JSON under
// "api_token_encoded".
package legacy

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/benaskins/weatherwizard/internal/apikey"
	"github.com/benaskins/weatherwizard/internal/audit"
)

const tokenField = "api_token_encoded"

// ErrNoLegacyKey is returned when there is nothing to migrate.
var ErrNoLegacyKey = errors.New("no legacy API key found")

// DefaultPath returns <UserConfigDir>/open-weather-wizard/config.json.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "open-weather-wizard", "config.json")
}

// File is a legacy config file with its fields kept verbatim so they can be
// written back unchanged.
type File struct {
	path   string
	mode   fs.FileMode
	fields map[string]json.RawMessage
}

// Open reads a legacy config. A missing file, or one without a token field,
// yields ErrNoLegacyKey.
func Open(path string) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s does not exist", ErrNoLegacyKey, path)
		}
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	f := &File{path: path, mode: info.Mode().Perm()}
	if err := json.Unmarshal(data, &f.fields); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if _, ok := f.fields[tokenField]; !ok {
		return nil, fmt.Errorf("%w in %s", ErrNoLegacyKey, path)
	}
	return f, nil
}

// Path returns the file location.
func (f *File) Path() string {
	return f.path
}

// Token decodes the stored key.
func (f *File) Token() (string, error) {
	var encoded string
	if err := json.Unmarshal(f.fields[tokenField], &encoded); err != nil {
		return "", fmt.Errorf("%s is not a string: %w", tokenField, err)
	}
	if strings.TrimSpace(encoded) == "" {
		return "", fmt.Errorf("%w: %s is empty", ErrNoLegacyKey, tokenField)
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decoding %s: %w", tokenField, err)
	}
	return string(raw), nil
}

// Scrub rewrites the file without the token, keeping every other field.
// The write goes through a temporary file so a crash leaves either the old
// or the new file, never a truncated one.
func (f *File) Scrub() error {
	delete(f.fields, tokenField)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(f.fields); err != nil {
		return fmt.Errorf("encoding %s: %w", f.path, err)
	}

	mode := f.mode
	if mode == 0 || mode&0077 != 0 {
		mode = 0600
	}
	tmpPath := f.path + ".tmp"
	if err := os.WriteFile(tmpPath, buf.Bytes(), mode); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

// Target is where a migrated key is stored. *credential.Store satisfies it.
type Target interface {
	Configure(candidate string) error
	Audit(e audit.Entry)
}

// Result describes a completed migration.
type Result struct {
	Source   string
	Key      apikey.Masked
	Scrubbed bool
}

// Migrate stores the key found at path in target and, unless keep is set,
// removes it from the file. The file is only scrubbed after the key has been
// stored successfully.
func Migrate(target Target, path string, keep bool) (Result, error) {
	logger := slog.With("component", "legacy")

	f, err := Open(path)
	if err != nil {
		return Result{}, err
	}
	token, err := f.Token()
	if err != nil {
		return Result{}, err
	}
	if err := target.Configure(token); err != nil {
		target.Audit(audit.Entry{Action: audit.ActionKeyMigrate, Source: path, Error: err.Error()})
		return Result{}, err
	}

	res := Result{Source: path, Key: apikey.Mask(token)}
	if !keep {
		if err := f.Scrub(); err != nil {
			target.Audit(audit.Entry{Action: audit.ActionKeyMigrate, Source: path, Error: err.Error()})
			return res, fmt.Errorf("key stored, but removing it from %s failed: %w", path, err)
		}
		res.Scrubbed = true
	}

	target.Audit(audit.Entry{Action: audit.ActionKeyMigrate, Source: path})
	logger.Info("migrated legacy API key", "source", path, "key", res.Key, "scrubbed", res.Scrubbed)
	return res, nil
}

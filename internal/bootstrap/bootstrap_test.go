package bootstrap

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benaskins/weatherwizard/internal/config"
	"github.com/benaskins/weatherwizard/internal/credential"
	"github.com/benaskins/weatherwizard/internal/keychain"
	"github.com/benaskins/weatherwizard/internal/session"
)

const sampleKey = "a836db2d273c0b50a2376d6a31750064"

func newStore(t *testing.T) (*credential.Store, *keychain.MemoryBackend) {
	t.Helper()
	b := keychain.NewMemoryBackend(keychain.DefaultName())
	return credential.New(b), b
}

func TestStartReady(t *testing.T) {
	store, _ := newStore(t)
	if err := store.Configure(sampleKey); err != nil {
		t.Fatal(err)
	}

	var got string
	n := New(store).Start(func(key string) error {
		got = key
		return nil
	})
	if n.State != StateReady {
		t.Fatalf("expected ready, got %v (%s)", n.State, n.Message)
	}
	if got != sampleKey {
		t.Errorf("use received %q", got)
	}
}

func TestStartNeedsSetup(t *testing.T) {
	store, _ := newStore(t)
	called := false
	n := New(store).Start(func(string) error {
		called = true
		return nil
	})
	if n.State != StateNeedsSetup {
		t.Fatalf("expected needs_setup, got %v", n.State)
	}
	if !strings.Contains(n.Message, "configure-api-key set") {
		t.Errorf("message should point at the CLI: %q", n.Message)
	}
	if called {
		t.Error("use called without a key")
	}
}

func TestStartStorageUnavailable(t *testing.T) {
	store, b := newStore(t)
	b.FailWith(keychain.ErrUnavailable)

	n := New(store).Start(func(string) error { return nil })
	if n.State != StateStorageUnavailable {
		t.Fatalf("expected storage_unavailable, got %v", n.State)
	}
	if n.Message != "secure storage unavailable on this system" {
		t.Errorf("message = %q", n.Message)
	}
}

func TestStartPersistenceFailure(t *testing.T) {
	store, b := newStore(t)
	b.FailWith(keychain.ErrAccessDenied)

	n := New(store).Start(func(string) error { return nil })
	if n.State != StateFailed {
		t.Fatalf("expected failed, got %v", n.State)
	}
}

func TestStartUseError(t *testing.T) {
	store, _ := newStore(t)
	store.Configure(sampleKey)

	n := New(store).Start(func(string) error { return errors.New("provider rejected key") })
	if n.State != StateFailed {
		t.Fatalf("expected failed, got %v", n.State)
	}
	if strings.Contains(n.Message, sampleKey) {
		t.Error("notice leaked the key")
	}
}

func TestNoticeJSON(t *testing.T) {
	data, err := json.Marshal(Notice{State: StateNeedsSetup, Title: "t"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"state":"needs_setup"`) {
		t.Errorf("unexpected JSON %s", data)
	}
}

func TestWaitForKeyReturnsImmediatelyWhenReady(t *testing.T) {
	store, _ := newStore(t)
	store.Configure(sampleKey)

	n, err := New(store).WaitForKey(context.Background(), t.TempDir(), func(string) error { return nil })
	if err != nil || n.State != StateReady {
		t.Fatalf("WaitForKey = %v, %v", n.State, err)
	}
}

func TestWaitForKeyPicksUpNewKey(t *testing.T) {
	store, _ := newStore(t)
	dir := t.TempDir()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	type result struct {
		n   Notice
		err error
	}
	done := make(chan result, 1)
	keys := make(chan string, 1)
	go func() {
		n, err := New(store).WaitForKey(ctx, dir, func(key string) error {
			keys <- key
			return nil
		})
		done <- result{n, err}
	}()

	// Keep touching the dir until the watcher is up and sees a change.
	if err := store.Configure(sampleKey); err != nil {
		t.Fatal(err)
	}
	marker := filepath.Join(dir, credential.MetadataFile)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case r := <-done:
			if r.err != nil || r.n.State != StateReady {
				t.Fatalf("WaitForKey = %v, %v", r.n.State, r.err)
			}
			if got := <-keys; got != sampleKey {
				t.Errorf("use received %q", got)
			}
			return
		case <-ticker.C:
			os.WriteFile(marker, []byte("{}"), 0600)
		case <-ctx.Done():
			t.Fatal("timed out waiting for key")
		}
	}
}

func TestWaitForKeyCancelled(t *testing.T) {
	store, _ := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n, err := New(store).WaitForKey(ctx, t.TempDir(), func(string) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if n.State != StateNeedsSetup {
		t.Errorf("expected last notice needs_setup, got %v", n.State)
	}
}

func TestWaitForKeyStopsOnFailure(t *testing.T) {
	store, b := newStore(t)
	b.FailWith(keychain.ErrFailed)

	n, err := New(store).WaitForKey(context.Background(), t.TempDir(), func(string) error { return nil })
	if err != nil || n.State != StateFailed {
		t.Errorf("WaitForKey = %v, %v", n.State, err)
	}
}

type countingSource struct {
	KeySource
	calls atomic.Int32
}

func (c *countingSource) ActiveKey() (string, error) {
	c.calls.Add(1)
	return c.KeySource.ActiveKey()
}

func TestWaitForKeyIgnoresUnrelatedChanges(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{StateDir: dir}
	s := session.OpenWith(cfg, "app", keychain.NewMemoryBackend(cfg.Name()))
	defer s.Close()

	src := &countingSource{KeySource: s.Store}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	go func() {
		time.Sleep(300 * time.Millisecond)
		os.WriteFile(filepath.Join(dir, "unrelated"), []byte("x"), 0600)
		os.WriteFile(filepath.Join(dir, credential.MetadataFile+".tmp"), []byte("{}"), 0600)
	}()

	n, err := New(src).WaitForKey(ctx, s.StateDir, func(string) error { return nil })
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline, got %v", err)
	}
	if n.State != StateNeedsSetup {
		t.Errorf("expected needs_setup, got %v", n.State)
	}
	// Only the initial Start; the audit entry it appends must not retrigger.
	if got := src.calls.Load(); got != 1 {
		t.Errorf("ActiveKey called %d times, want 1", got)
	}

	data, err := os.ReadFile(filepath.Join(dir, "audit.log"))
	if err != nil {
		t.Fatal(err)
	}
	if lines := strings.Count(string(data), "\n"); lines != 1 {
		t.Errorf("audit log has %d entries, want 1", lines)
	}
}

func TestWaitForKeyPicksUpConfigureFromAnotherStore(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{StateDir: dir}
	backend := keychain.NewMemoryBackend(cfg.Name())
	s := session.OpenWith(cfg, "app", backend)
	defer s.Close()

	src := &countingSource{KeySource: s.Store}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	done := make(chan Notice, 1)
	go func() {
		n, _ := New(src).WaitForKey(ctx, dir, func(string) error { return nil })
		done <- n
	}()

	// A second store over the same backend and state dir stands in for the CLI.
	cli := session.OpenWith(cfg, "cli", backend)
	defer cli.Close()
	deadline := time.After(5 * time.Second)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case n := <-done:
			if n.State != StateReady {
				t.Fatalf("expected ready, got %v", n.State)
			}
			return
		case <-ticker.C:
			if err := cli.Store.Configure(sampleKey); err != nil {
				t.Fatal(err)
			}
		case <-deadline:
			t.Fatalf("timed out; ActiveKey called %d times", src.calls.Load())
		}
	}
}

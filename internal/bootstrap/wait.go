package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/benaskins/weatherwizard/internal/credential"
	"github.com/fsnotify/fsnotify"
)

const waitDebounce = 250 * time.Millisecond

// WaitForKey calls Start, and while the key is missing or storage is
// unavailable, retries each time the key metadata file in dir settles after
// a change. Configuring a key rewrites that file; nothing else in dir
// triggers a retry, including the audit entries Start itself appends.
// It returns the first notice that is neither, or ctx.Err() with the last
// notice when ctx is cancelled.
func (a *Adapter) WaitForKey(ctx context.Context, dir string, use func(key string) error) (Notice, error) {
	notice := a.Start(use)
	if !waiting(notice.State) {
		return notice, nil
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return notice, err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return notice, err
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return notice, err
	}

	a.logger.Info("waiting for API key", "dir", dir, "state", notice.State)

	retry := make(chan struct{}, 1)
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return notice, ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return notice, nil
			}
			if !keyChanged(event) {
				continue
			}
			a.logger.Debug("key metadata changed", "file", event.Name, "op", event.Op)

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(waitDebounce, func() {
				select {
				case retry <- struct{}{}:
				default:
				}
			})

		case <-retry:
			notice = a.Start(use)
			if !waiting(notice.State) {
				return notice, nil
			}
			a.logger.Debug("API key still unavailable", "state", notice.State)

		case err, ok := <-watcher.Errors:
			if !ok {
				return notice, nil
			}
			a.logger.Error("file watcher error", "error", err)
		}
	}
}

// keyChanged matches the metadata file being written in place or renamed
// into place from its temporary file.
func keyChanged(event fsnotify.Event) bool {
	if filepath.Base(event.Name) != credential.MetadataFile {
		return false
	}
	return event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0
}

func waiting(s State) bool {
	return s == StateNeedsSetup || s == StateStorageUnavailable
}

package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/okian/graphboard/pkg/logger"
)

const defaultDebounce = 100 * time.Millisecond

// Watch calls onChange whenever the file at path is created, written or
// renamed into place. The parent directory is watched because an atomic
// replace swaps the inode. Bursts of events within the debounce window
// produce a single call. Watch blocks until ctx is done.
func Watch(ctx context.Context, path string, debounce time.Duration, log logger.Logger, onChange func(context.Context)) error {
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	if log == nil {
		log = logger.Nop()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			timerC = timer.C
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn(ctx, "watcher error", logger.String("path", abs), logger.Error(err))
		case <-timerC:
			timerC = nil
			onChange(ctx)
		}
	}
}

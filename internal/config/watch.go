package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vango-dev/sharedstate/internal/errors"
)

// WatchDebounce is how long Watch waits for writes to settle.
var WatchDebounce = 100 * time.Millisecond

// Watch reloads path whenever it changes and calls onChange with the new
// config, or with the load error. It blocks until ctx is done.
//
// The parent directory is watched rather than the file, so editors that
// save by rename are handled.
func Watch(ctx context.Context, path string, onChange func(*Config, error)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return errors.New(errors.CodeConfigWatch).Wrap(err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.New(errors.CodeConfigWatch).Wrap(err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return errors.New(errors.CodeConfigWatch).WithDetail("cannot watch " + filepath.Dir(abs)).Wrap(err)
	}

	timer := time.NewTimer(WatchDebounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case e, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(e.Name) != abs {
				continue
			}
			if e.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			timer.Reset(WatchDebounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			onChange(nil, errors.New(errors.CodeConfigWatch).Wrap(err))

		case <-timer.C:
			onChange(LoadFile(abs))
		}
	}
}

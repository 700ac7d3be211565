package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/uhppoted/eo-backup/log"
)

const DEBOUNCE = 500 * time.Millisecond

// watch signals on the returned channel when the configuration file is written, created
// or replaced. The parent directory is watched so that editors that save by renaming a
// temporary file are also detected. Bursts of events are coalesced.
func watch(ctx context.Context, path string) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create configuration file watcher (%w)", err)
	}

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %v (%w)", path, err)
	}

	file := filepath.Clean(path)
	reload := make(chan struct{}, 1)

	go func() {
		var timer *time.Timer

		defer func() {
			if timer != nil {
				timer.Stop()
			}

			watcher.Close()
		}()

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}

				if filepath.Clean(event.Name) != file {
					continue
				}

				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}

				log.Debugf("Configuration file %v changed (%v)", event.Name, event.Op)

				if timer != nil {
					timer.Stop()
				}

				timer = time.AfterFunc(DEBOUNCE, func() {
					select {
					case reload <- struct{}{}:
					default:
					}
				})

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}

				log.Warnf("Configuration file watcher error (%v)", err)
			}
		}
	}()

	return reload, nil
}

package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"github.com/uhppoted/eo-backup/log"
)

// lock takes an exclusive non-blocking lock on <workdir>/eo-backup.lock. A second
// backup or prune started while the first is still running fails instead of waiting.
func lock(workdir string) (func(), error) {
	if err := os.MkdirAll(workdir, 0770); err != nil {
		return nil, fmt.Errorf("unable to create working directory %v (%w)", workdir, err)
	}

	path := filepath.Join(workdir, APP+".lock")

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0660)
	if err != nil {
		return nil, fmt.Errorf("unable to open lock file %v (%w)", path, err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()

		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, fmt.Errorf("%v is already running (%v is locked)", APP, path)
		}

		return nil, fmt.Errorf("unable to lock %v (%w)", path, err)
	}

	log.Debugf("Acquired lock %v", path)

	return func() {
		unix.Flock(int(f.Fd()), unix.LOCK_UN)
		f.Close()
		log.Debugf("Released lock %v", path)
	}, nil
}

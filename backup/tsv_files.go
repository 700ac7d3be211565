package backup

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const TRASH = ".trash"

var suffix = regexp.MustCompile(`\.\d+$`)

// Search lists the backup directories last modified before the cutoff. The file ID is
// the directory path and the file name is the document name, i.e. without the numeric
// suffix added to same-day duplicates.
func (s *TSVStore) Search(ctx context.Context, before time.Time) iter.Seq2[File, error] {
	return func(yield func(File, error) bool) {
		entries, err := os.ReadDir(s.dir)
		if errors.Is(err, os.ErrNotExist) {
			return
		} else if err != nil {
			yield(File{}, err)
			return
		}

		for _, entry := range entries {
			if !entry.IsDir() || !strings.Contains(entry.Name(), PREFIX) {
				continue
			}

			info, err := entry.Info()
			if err != nil {
				yield(File{}, err)
				return
			}

			if !info.ModTime().Before(before) {
				continue
			}

			file := File{
				ID:       filepath.Join(s.dir, entry.Name()),
				Name:     suffix.ReplaceAllString(entry.Name(), ""),
				Modified: info.ModTime(),
			}

			if !yield(file, nil) {
				return
			}
		}
	}
}

// Trash moves a backup directory to the .trash subdirectory, from which it can still be
// recovered.
func (s *TSVStore) Trash(ctx context.Context, id string) error {
	if filepath.Dir(id) != filepath.Clean(s.dir) {
		return fmt.Errorf("%v is not a backup in %v", id, s.dir)
	}

	if _, err := os.Stat(id); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	trash := filepath.Join(s.dir, TRASH)
	if err := os.MkdirAll(trash, 0770); err != nil {
		return err
	}

	name := filepath.Base(id)
	path := filepath.Join(trash, name)
	for i := 1; ; i++ {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			break
		}

		path = filepath.Join(trash, fmt.Sprintf("%v.%v", name, i))
	}

	return os.Rename(id, path)
}

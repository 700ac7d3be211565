package backup

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/uhppoted/eo-backup/log"
)

const DEFAULT_KEEP_DAYS = 365

var backupFile = regexp.MustCompile(`^EO-export-\d{8}$`)

// Result is the outcome of a retention sweep.
type Result struct {
	Removed int
	Failed  int
	Errors  []error
}

type Sweeper struct {
	store FileStore
	keep  int
	now   func() time.Time
}

type SweeperOption func(*Sweeper)

func WithSweeperClock(now func() time.Time) SweeperOption {
	return func(s *Sweeper) {
		s.now = now
	}
}

func NewSweeper(store FileStore, keepDays int, options ...SweeperOption) *Sweeper {
	if keepDays < 1 {
		keepDays = DEFAULT_KEEP_DAYS
	}

	s := Sweeper{
		store: store,
		keep:  keepDays,
		now:   time.Now,
	}

	for _, option := range options {
		option(&s)
	}

	return &s
}

// Cutoff returns midnight GMT of the date 'keep days' ago. Backups last modified
// before the cutoff have expired.
func (s *Sweeper) Cutoff() time.Time {
	threshold := s.now().Add(-time.Duration(s.keep) * 24 * time.Hour).UTC()

	return time.Date(threshold.Year(), threshold.Month(), threshold.Day(), 0, 0, 0, 0, time.UTC)
}

// ListExpiredBackupFiles returns the backup documents modified before the cutoff. Only
// files named like EO-export-YYYYMMDD are considered.
func (s *Sweeper) ListExpiredBackupFiles(ctx context.Context) ([]File, error) {
	cutoff := s.Cutoff()
	files := []File{}

	log.Debugf("Searching for backups modified before %v", cutoff.Format("2006-01-02"))

	for file, err := range s.store.Search(ctx, cutoff) {
		if err != nil {
			return nil, fmt.Errorf("error searching for expired backups (%w)", err)
		}

		if file.Modified.Before(cutoff) && backupFile.MatchString(file.Name) {
			files = append(files, file)
		}
	}

	return files, nil
}

// RemoveExpiredBackups trashes every expired backup. A failure to trash one file does
// not stop the sweep: the failures are counted and returned as a joined error.
func (s *Sweeper) RemoveExpiredBackups(ctx context.Context, dryrun bool) (Result, error) {
	result := Result{}

	files, err := s.ListExpiredBackupFiles(ctx)
	if err != nil {
		return result, err
	}

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			result.Errors = append(result.Errors, err)
			break
		}

		log.Debugf("Trashing %v (%v, last modified %v)", file.ID, file.Name, file.Modified.Format("2006-01-02"))

		if dryrun {
			log.Infof("Dry run - not trashing %v (%v)", file.Name, file.ID)
			continue
		}

		if err := s.store.Trash(ctx, file.ID); err != nil {
			log.Warnf("Failed to trash %v (%v)", file.Name, err)
			result.Failed++
			result.Errors = append(result.Errors, fmt.Errorf("%v: %w", file.ID, err))
		} else {
			result.Removed++
		}
	}

	log.Infof("Cleaned up %v old EO backups", result.Removed)

	if result.Failed > 0 {
		log.Warnf("Failed to clean up %v old EO backups", result.Failed)
	}

	return result, errors.Join(result.Errors...)
}

// IDs returns the file IDs.
func IDs(files []File) []string {
	ids := make([]string, 0, len(files))
	for _, f := range files {
		ids = append(ids, f.ID)
	}

	return ids
}

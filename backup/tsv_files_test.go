package backup

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/uhppoted/eo-backup/octopus"
)

func mkbackup(t *testing.T, dir, name string, modified time.Time) string {
	path := filepath.Join(dir, name)

	if err := os.MkdirAll(path, 0770); err != nil {
		t.Fatalf("Error creating %v (%v)", path, err)
	}

	if err := os.Chtimes(path, modified, modified); err != nil {
		t.Fatalf("Error setting modified time for %v (%v)", path, err)
	}

	return path
}

func TestTSVStoreSearch(t *testing.T) {
	dir := t.TempDir()
	store := NewTSVStore(dir)

	mkbackup(t, dir, "EO-export-20220101", daysAgo(400))
	mkbackup(t, dir, "EO-export-20240101", daysAgo(40))
	mkbackup(t, dir, "notes", daysAgo(400))

	files := []string{}
	for f, err := range store.Search(context.Background(), daysAgo(365)) {
		if err != nil {
			t.Fatalf("Unexpected error (%v)", err)
		}

		files = append(files, f.Name)
	}

	if !reflect.DeepEqual(files, []string{"EO-export-20220101"}) {
		t.Errorf("Incorrect search results\n   expected: %v\n   got:      %v", []string{"EO-export-20220101"}, files)
	}
}

func TestTSVStoreSearchWithMissingDirectory(t *testing.T) {
	store := NewTSVStore(filepath.Join(t.TempDir(), "missing"))

	for f, err := range store.Search(context.Background(), time.Now()) {
		t.Errorf("Expected no results, got %v (%v)", f, err)
	}
}

func TestTSVStoreTrash(t *testing.T) {
	dir := t.TempDir()
	store := NewTSVStore(dir)

	path := mkbackup(t, dir, "EO-export-20220101", daysAgo(400))
	if err := store.Trash(context.Background(), path); err != nil {
		t.Fatalf("Unexpected error (%v)", err)
	}

	// ... same name again
	path = mkbackup(t, dir, "EO-export-20220101", daysAgo(400))
	if err := store.Trash(context.Background(), path); err != nil {
		t.Fatalf("Unexpected error (%v)", err)
	}

	for _, p := range []string{"EO-export-20220101", "EO-export-20220101.1"} {
		if _, err := os.Stat(filepath.Join(dir, TRASH, p)); err != nil {
			t.Errorf("Expected %v in trash (%v)", p, err)
		}
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("Expected %v to have been moved, got %v", path, err)
	}
}

func TestTSVStoreTrashOutsideStore(t *testing.T) {
	store := NewTSVStore(t.TempDir())

	if err := store.Trash(context.Background(), "/etc"); err == nil {
		t.Errorf("Expected error trashing a directory outside the store, got %v", err)
	}
}

func TestRemoveExpiredBackupsFromTSVStore(t *testing.T) {
	dir := t.TempDir()
	store := NewTSVStore(dir)

	mkbackup(t, dir, "EO-export-20220101", daysAgo(400))
	mkbackup(t, dir, "EO-export-20240101", daysAgo(40))

	sweeper := NewSweeper(store, 365, WithSweeperClock(func() time.Time { return today }))

	result, err := sweeper.RemoveExpiredBackups(context.Background(), false)
	if err != nil {
		t.Fatalf("Unexpected error (%v)", err)
	}

	if result.Removed != 1 {
		t.Errorf("Incorrect removed count - expected:%v, got:%v", 1, result.Removed)
	}

	if _, err := os.Stat(filepath.Join(dir, "EO-export-20240101")); err != nil {
		t.Errorf("Expected recent backup to be kept (%v)", err)
	}
}

func TestRemoveExpiredBackupsFromTSVStoreWithSameDayBackups(t *testing.T) {
	source := memSource{
		lists: []octopus.List{newsletter},
		pages: map[string][]*octopus.Page{
			"L1": {{Data: contacts("a@x.com")}},
		},
	}

	dir := t.TempDir()
	store := NewTSVStore(dir)
	writer := NewWriter(store, &source, WithClock(march7))

	for i := 0; i < 2; i++ {
		summary, err := writer.BackupAllLists(context.Background())
		if err != nil {
			t.Fatalf("Unexpected error (%v)", err)
		}

		if err := os.Chtimes(summary.ID, daysAgo(400), daysAgo(400)); err != nil {
			t.Fatalf("Error setting modified time for %v (%v)", summary.ID, err)
		}
	}

	sweeper := NewSweeper(store, 365, WithSweeperClock(func() time.Time { return today }))

	result, err := sweeper.RemoveExpiredBackups(context.Background(), false)
	if err != nil {
		t.Fatalf("Unexpected error (%v)", err)
	}

	if result.Removed != 2 {
		t.Errorf("Incorrect removed count - expected:%v, got:%v", 2, result.Removed)
	}

	for _, p := range []string{"EO-export-20240307", "EO-export-20240307.1"} {
		if _, err := os.Stat(filepath.Join(dir, p)); !os.IsNotExist(err) {
			t.Errorf("Expected %v to have been moved to the trash, got %v", p, err)
		}
	}
}

func TestTSVStoreSearchReportsDocumentName(t *testing.T) {
	dir := t.TempDir()
	store := NewTSVStore(dir)

	path := mkbackup(t, dir, "EO-export-20220101.1", daysAgo(400))

	for f, err := range store.Search(context.Background(), daysAgo(365)) {
		if err != nil {
			t.Fatalf("Unexpected error (%v)", err)
		}

		if f.Name != "EO-export-20220101" || f.ID != path {
			t.Errorf("Incorrect search result - expected:%v (%v), got:%v (%v)", "EO-export-20220101", path, f.Name, f.ID)
		}
	}
}

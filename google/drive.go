package google

import (
	"context"
	"fmt"
	"iter"
	"time"

	"google.golang.org/api/drive/v3"

	"github.com/uhppoted/eo-backup/backup"
	"github.com/uhppoted/eo-backup/log"
)

// DriveFiles is a backup.FileStore for backup spreadsheets stored in Google Drive.
type DriveFiles struct {
	service *drive.Service
}

func NewDriveFiles(service *drive.Service) *DriveFiles {
	return &DriveFiles{
		service: service,
	}
}

// Search lists the untrashed files with names containing the backup prefix that were last
// modified before the cutoff, following the Drive page tokens until the listing is complete.
func (d *DriveFiles) Search(ctx context.Context, before time.Time) iter.Seq2[backup.File, error] {
	q := fmt.Sprintf("modifiedTime < '%v' and name contains '%v' and trashed = false",
		before.UTC().Format(time.RFC3339),
		backup.PREFIX)

	return func(yield func(backup.File, error) bool) {
		page := ""

		for {
			call := d.service.Files.List().
				Q(q).
				Fields("nextPageToken, files(id, name, modifiedTime)").
				PageSize(100).
				Context(ctx)

			if page != "" {
				call.PageToken(page)
			}

			files, err := call.Do()
			if err != nil {
				yield(backup.File{}, WrapError(err))
				return
			}

			for _, f := range files.Files {
				modified, err := time.Parse(time.RFC3339, f.ModifiedTime)
				if err != nil {
					yield(backup.File{}, fmt.Errorf("invalid modified time '%v' for file %v (%w)", f.ModifiedTime, f.Id, err))
					return
				}

				if !yield(backup.File{ID: f.Id, Name: f.Name, Modified: modified}, nil) {
					return
				}
			}

			if page = files.NextPageToken; page == "" {
				return
			}
		}
	}
}

// Trash moves a file to the Drive bin. A file that no longer exists is treated as
// already trashed.
func (d *DriveFiles) Trash(ctx context.Context, id string) error {
	update := drive.File{
		Trashed: true,
	}

	if _, err := d.service.Files.Update(id, &update).Fields("id, trashed").Context(ctx).Do(); err != nil {
		if IsNotFound(err) {
			log.Debugf("File %v not found - already deleted", id)
			return nil
		}

		return WrapError(err)
	}

	return nil
}

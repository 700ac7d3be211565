package backup

import (
	"context"
	"iter"
	"time"

	"github.com/uhppoted/eo-backup/octopus"
)

// Source is the mailing list data being backed up. It is implemented by octopus.Client.
type Source interface {
	ListAllMailingLists(ctx context.Context) ([]octopus.List, error)
	Contacts(ctx context.Context, list octopus.List) iter.Seq2[*octopus.Page, error]
}

// Store creates backup documents. Each call to Create returns a new document, even if
// a document with the same name already exists.
type Store interface {
	Create(ctx context.Context, name string) (Document, error)
}

type Document interface {
	ID() string
	Name() string
	URL() string
	FirstSheet() Sheet
	AddSheet(ctx context.Context, title string) (Sheet, error)
}

// Sheet is a single worksheet. Rows and columns are 1-based.
type Sheet interface {
	Title() string
	Rename(ctx context.Context, title string) error
	AppendRow(ctx context.Context, values []any) error
	WriteRange(ctx context.Context, row, col int, values [][]any) error
}

// File is a backup document as listed by a FileStore.
type File struct {
	ID       string
	Name     string
	Modified time.Time
}

// FileStore lists and trashes previously created backup documents.
type FileStore interface {
	Search(ctx context.Context, before time.Time) iter.Seq2[File, error]
	Trash(ctx context.Context, id string) error
}

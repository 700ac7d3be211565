package backup

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/uhppoted/eo-backup/octopus"
)

type memStore struct {
	documents []*memDocument
}

type memDocument struct {
	id     string
	name   string
	sheets []*memSheet
}

type memSheet struct {
	title  string
	rows   [][]any
	writes int
}

func (s *memStore) Create(ctx context.Context, name string) (Document, error) {
	doc := memDocument{
		id:     fmt.Sprintf("doc-%v", len(s.documents)+1),
		name:   name,
		sheets: []*memSheet{{title: "Sheet1"}},
	}

	s.documents = append(s.documents, &doc)

	return &doc, nil
}

func (d *memDocument) ID() string        { return d.id }
func (d *memDocument) Name() string      { return d.name }
func (d *memDocument) URL() string       { return "mem://" + d.id }
func (d *memDocument) FirstSheet() Sheet { return d.sheets[0] }

func (d *memDocument) AddSheet(ctx context.Context, title string) (Sheet, error) {
	for _, s := range d.sheets {
		if s.title == title {
			return nil, fmt.Errorf("duplicate sheet '%v'", title)
		}
	}

	sheet := memSheet{title: title}
	d.sheets = append(d.sheets, &sheet)

	return &sheet, nil
}

func (d *memDocument) sheet(title string) *memSheet {
	for _, s := range d.sheets {
		if s.title == title {
			return s
		}
	}

	return nil
}

func (s *memSheet) Title() string { return s.title }

func (s *memSheet) Rename(ctx context.Context, title string) error {
	s.title = title
	return nil
}

func (s *memSheet) AppendRow(ctx context.Context, values []any) error {
	s.rows = append(s.rows, values)
	return nil
}

func (s *memSheet) WriteRange(ctx context.Context, row, col int, values [][]any) error {
	if len(values) == 0 {
		return fmt.Errorf("empty range")
	}

	if row != len(s.rows)+1 || col != 1 {
		return fmt.Errorf("unexpected range start (%v,%v)", row, col)
	}

	s.writes++
	s.rows = append(s.rows, values...)

	return nil
}

// memSource serves pages from a fixed set and counts how many were fetched.
type memSource struct {
	lists   []octopus.List
	pages   map[string][]*octopus.Page
	fetches int
	err     error
}

func (s *memSource) ListAllMailingLists(ctx context.Context) ([]octopus.List, error) {
	return s.lists, s.err
}

func (s *memSource) Contacts(ctx context.Context, list octopus.List) iter.Seq2[*octopus.Page, error] {
	return func(yield func(*octopus.Page, error) bool) {
		for _, page := range s.pages[list.ID] {
			s.fetches++
			if !yield(page, nil) || page.Paging.Next == "" {
				return
			}
		}
	}
}

type memFileStore struct {
	files   []File
	trashed []string
	fail    map[string]error
}

func (s *memFileStore) Search(ctx context.Context, before time.Time) iter.Seq2[File, error] {
	return func(yield func(File, error) bool) {
		for _, f := range s.files {
			if f.Modified.Before(before) {
				if !yield(f, nil) {
					return
				}
			}
		}
	}
}

func (s *memFileStore) Trash(ctx context.Context, id string) error {
	if err := s.fail[id]; err != nil {
		return err
	}

	s.trashed = append(s.trashed, id)

	return nil
}

package backup

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// TSVStore is a Store that writes each backup document to a local directory, with one
// tab-separated file per worksheet. Worksheets must be written sequentially.
type TSVStore struct {
	dir string
}

type tsvDocument struct {
	name   string
	dir    string
	sheets []*tsvSheet
}

type tsvSheet struct {
	title string
	path  string
	rows  int
}

func NewTSVStore(dir string) *TSVStore {
	return &TSVStore{
		dir: dir,
	}
}

// Create makes a new directory for the document. If a directory with the same name
// already exists a numeric suffix is added, e.g. EO-export-20240307.1.
func (s *TSVStore) Create(ctx context.Context, name string) (Document, error) {
	if err := os.MkdirAll(s.dir, 0770); err != nil {
		return nil, err
	}

	dir := filepath.Join(s.dir, name)
	for i := 1; ; i++ {
		if err := os.Mkdir(dir, 0770); err == nil {
			break
		} else if !errors.Is(err, os.ErrExist) {
			return nil, err
		}

		dir = filepath.Join(s.dir, fmt.Sprintf("%v.%v", name, i))
	}

	doc := tsvDocument{
		name: name,
		dir:  dir,
	}

	if _, err := doc.AddSheet(ctx, "Sheet1"); err != nil {
		return nil, err
	}

	return &doc, nil
}

func (d *tsvDocument) ID() string {
	return d.dir
}

func (d *tsvDocument) Name() string {
	return d.name
}

func (d *tsvDocument) URL() string {
	if abs, err := filepath.Abs(d.dir); err == nil {
		return "file://" + abs
	}

	return "file://" + d.dir
}

func (d *tsvDocument) FirstSheet() Sheet {
	return d.sheets[0]
}

func (d *tsvDocument) AddSheet(ctx context.Context, title string) (Sheet, error) {
	for _, s := range d.sheets {
		if normalise(s.title) == normalise(title) {
			return nil, fmt.Errorf("a sheet with the name '%v' already exists", title)
		}
	}

	sheet := tsvSheet{
		title: title,
	}

	// distinct titles can map to the same file name e.g. A/B and A_B
	base := strings.TrimSuffix(filename(title), ".tsv")
	path := filepath.Join(d.dir, base+".tsv")
	for i := 1; ; i++ {
		if f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0660); err == nil {
			f.Close()
			break
		} else if !errors.Is(err, os.ErrExist) {
			return nil, err
		}

		path = filepath.Join(d.dir, fmt.Sprintf("%v.%v.tsv", base, i))
	}

	sheet.path = path

	d.sheets = append(d.sheets, &sheet)

	return &sheet, nil
}

func (s *tsvSheet) Title() string {
	return s.title
}

func (s *tsvSheet) Rename(ctx context.Context, title string) error {
	path := filepath.Join(filepath.Dir(s.path), filename(title))

	if err := os.Rename(s.path, path); err != nil {
		return err
	}

	s.title = title
	s.path = path

	return nil
}

func (s *tsvSheet) AppendRow(ctx context.Context, values []any) error {
	if err := s.write([][]string{record(values, 1)}); err != nil {
		return err
	}

	s.rows++

	return nil
}

// WriteRange writes the values starting at (row,col). Rows between the last row written
// and 'row' are left empty. Overwriting previously written rows is not supported.
func (s *tsvSheet) WriteRange(ctx context.Context, row, col int, values [][]any) error {
	if row <= s.rows {
		return fmt.Errorf("%v: row %v has already been written", s.title, row)
	}

	if col < 1 {
		return fmt.Errorf("%v: invalid column %v", s.title, col)
	}

	records := [][]string{}
	for i := s.rows + 1; i < row; i++ {
		records = append(records, []string{})
	}

	for _, v := range values {
		records = append(records, record(v, col))
	}

	if err := s.write(records); err != nil {
		return err
	}

	s.rows += len(records)

	return nil
}

func (s *tsvSheet) write(records [][]string) error {
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0660)
	if err != nil {
		return err
	}

	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = '\t'

	if err := w.WriteAll(records); err != nil {
		return err
	}

	return f.Close()
}

func record(values []any, col int) []string {
	record := make([]string, col-1, col-1+len(values))
	for _, v := range values {
		if v == nil {
			record = append(record, "")
		} else {
			record = append(record, fmt.Sprintf("%v", v))
		}
	}

	return record
}

func filename(title string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', 0:
			return '_'
		default:
			return r
		}
	}, title)

	return name + ".tsv"
}

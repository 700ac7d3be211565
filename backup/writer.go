package backup

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/uhppoted/eo-backup/log"
	"github.com/uhppoted/eo-backup/octopus"
)

const (
	PREFIX  = "EO-export-"
	SUMMARY = "Summary"
	TITLE   = "This is an export of all the lists in Email Octopus"
)

// Summary describes the backup document created by a run. ID is empty if there were
// no lists to export and hence no document was created.
type Summary struct {
	Document string
	ID       string
	URL      string
	Lists    int
	Contacts int
}

type Writer struct {
	store  Store
	source Source
	now    func() time.Time
}

type WriterOption func(*Writer)

// WithClock replaces time.Now as the source of the document date and 'Generated' timestamp.
func WithClock(now func() time.Time) WriterOption {
	return func(w *Writer) {
		w.now = now
	}
}

func NewWriter(store Store, source Source, options ...WriterOption) *Writer {
	w := Writer{
		store:  store,
		source: source,
		now:    time.Now,
	}

	for _, option := range options {
		option(&w)
	}

	return &w
}

// DocumentName returns the backup document name for the local date of t,
// e.g. EO-export-20240307.
func DocumentName(t time.Time) string {
	return PREFIX + t.Format("20060102")
}

// BackupAllLists exports every mailing list to a new backup document. Every run creates
// a new document, even if a backup with the same name was already created today.
func (w *Writer) BackupAllLists(ctx context.Context) (*Summary, error) {
	lists, err := w.source.ListAllMailingLists(ctx)
	if err != nil {
		return nil, err
	}

	log.Infof("Exporting %v lists", len(lists))

	if len(lists) == 0 {
		return &Summary{}, nil
	}

	_, summary, err := w.MakeNewBackup(ctx, lists)

	return summary, err
}

// MakeNewBackup creates a new backup document with a summary sheet and one sheet
// per list.
func (w *Writer) MakeNewBackup(ctx context.Context, lists []octopus.List) (Document, *Summary, error) {
	now := w.now()
	name := DocumentName(now)

	doc, err := w.store.Create(ctx, name)
	if err != nil {
		return nil, nil, fmt.Errorf("error creating backup document '%v' (%w)", name, err)
	}

	log.Infof("Created backup document '%v' (%v)", doc.Name(), doc.ID())

	summary := Summary{
		Document: doc.Name(),
		ID:       doc.ID(),
		URL:      doc.URL(),
	}

	sheet := doc.FirstSheet()
	if err := sheet.Rename(ctx, SUMMARY); err != nil {
		return doc, &summary, fmt.Errorf("error renaming summary sheet (%w)", err)
	}

	if err := sheet.AppendRow(ctx, []any{TITLE}); err != nil {
		return doc, &summary, fmt.Errorf("error writing summary sheet (%w)", err)
	}

	if err := sheet.AppendRow(ctx, []any{"Generated", now.Format("2006-01-02 15:04:05")}); err != nil {
		return doc, &summary, fmt.Errorf("error writing summary sheet (%w)", err)
	}

	titles := map[string]bool{
		normalise(SUMMARY): true,
	}

	for _, list := range lists {
		if err := sheet.AppendRow(ctx, []any{list.Name, SumCounts(list.Counts)}); err != nil {
			return doc, &summary, fmt.Errorf("error writing summary for list '%v' (%w)", list.Name, err)
		}

		count, err := w.backupToSheet(ctx, doc, list, uniqueTitle(list.Name, titles))
		if err != nil {
			return doc, &summary, err
		}

		summary.Lists++
		summary.Contacts += count

		log.Infof("Exported %v contacts from list '%v'", count, list.Name)
	}

	return doc, &summary, nil
}

// BackupToSheet adds a worksheet for the list to the document and populates it with
// the list contacts, one page at a time. Returns the number of contacts written.
func (w *Writer) BackupToSheet(ctx context.Context, doc Document, list octopus.List) (int, error) {
	return w.backupToSheet(ctx, doc, list, list.Name)
}

func (w *Writer) backupToSheet(ctx context.Context, doc Document, list octopus.List, title string) (int, error) {
	sheet, err := doc.AddSheet(ctx, title)
	if err != nil {
		return 0, fmt.Errorf("error adding sheet for list '%v' (%w)", list.Name, err)
	}

	if err := sheet.AppendRow(ctx, HeaderRow(list)); err != nil {
		return 0, fmt.Errorf("error writing header for list '%v' (%w)", list.Name, err)
	}

	rowsAdded := 1
	for page, err := range w.source.Contacts(ctx, list) {
		if err != nil {
			return rowsAdded - 1, err
		}

		rows := make([][]any, 0, len(page.Data))
		for _, contact := range page.Data {
			rows = append(rows, ContactRow(contact, list))
		}

		if len(rows) == 0 {
			continue
		}

		if err := sheet.WriteRange(ctx, rowsAdded+1, 1, rows); err != nil {
			return rowsAdded - 1, fmt.Errorf("error writing contacts for list '%v' (%w)", list.Name, err)
		}

		rowsAdded += len(rows)
	}

	return rowsAdded - 1, nil
}

// uniqueTitle returns a worksheet title that does not collide with any title already
// used in the document. Sheet titles are case-insensitive.
func uniqueTitle(name string, titles map[string]bool) string {
	base := strings.TrimSpace(name)
	if base == "" {
		base = "Untitled"
	}

	title := base
	for i := 2; titles[normalise(title)]; i++ {
		title = fmt.Sprintf("%v (%v)", base, i)
	}

	titles[normalise(title)] = true

	return title
}

func normalise(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

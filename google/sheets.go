package google

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/time/rate"
	"google.golang.org/api/sheets/v4"

	"github.com/uhppoted/eo-backup/backup"
	"github.com/uhppoted/eo-backup/log"
)

// Spreadsheets is a backup.Store that creates Google Sheets spreadsheets. All requests
// are paced to stay inside the Sheets API per-user write quota.
type Spreadsheets struct {
	service *sheets.Service
	limiter *rate.Limiter
}

type spreadsheet struct {
	store  *Spreadsheets
	id     string
	name   string
	url    string
	sheets []*worksheet
}

type worksheet struct {
	spreadsheet *spreadsheet
	id          int64
	title       string
	rows        int64
	columns     int64
}

func NewSpreadsheets(service *sheets.Service, rps float64) *Spreadsheets {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}

	return &Spreadsheets{
		service: service,
		limiter: rate.NewLimiter(limit, 1),
	}
}

func (s *Spreadsheets) Create(ctx context.Context, name string) (backup.Document, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	rq := sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{
			Title: name,
		},
	}

	response, err := s.service.Spreadsheets.Create(&rq).Context(ctx).Do()
	if err != nil {
		return nil, WrapError(err)
	}

	doc := spreadsheet{
		store: s,
		id:    response.SpreadsheetId,
		name:  name,
		url:   response.SpreadsheetUrl,
	}

	for _, sheet := range response.Sheets {
		if sheet.Properties != nil {
			doc.sheets = append(doc.sheets, doc.worksheet(sheet.Properties))
		}
	}

	if len(doc.sheets) == 0 {
		return nil, fmt.Errorf("spreadsheet %v created without a worksheet", doc.id)
	}

	return &doc, nil
}

func (s *spreadsheet) ID() string {
	return s.id
}

func (s *spreadsheet) Name() string {
	return s.name
}

func (s *spreadsheet) URL() string {
	return s.url
}

func (s *spreadsheet) FirstSheet() backup.Sheet {
	return s.sheets[0]
}

func (s *spreadsheet) AddSheet(ctx context.Context, title string) (backup.Sheet, error) {
	rq := sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{
						Title: title,
					},
				},
			},
		},
	}

	response, err := s.batchUpdate(ctx, &rq)
	if err != nil {
		return nil, err
	}

	if len(response.Replies) == 0 || response.Replies[0].AddSheet == nil || response.Replies[0].AddSheet.Properties == nil {
		return nil, fmt.Errorf("invalid response adding worksheet '%v'", title)
	}

	sheet := s.worksheet(response.Replies[0].AddSheet.Properties)
	s.sheets = append(s.sheets, sheet)

	return sheet, nil
}

func (s *spreadsheet) worksheet(properties *sheets.SheetProperties) *worksheet {
	sheet := worksheet{
		spreadsheet: s,
		id:          properties.SheetId,
		title:       properties.Title,
	}

	if properties.GridProperties != nil {
		sheet.rows = properties.GridProperties.RowCount
		sheet.columns = properties.GridProperties.ColumnCount
	}

	return &sheet
}

func (s *spreadsheet) batchUpdate(ctx context.Context, rq *sheets.BatchUpdateSpreadsheetRequest) (*sheets.BatchUpdateSpreadsheetResponse, error) {
	if err := s.store.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	response, err := s.store.service.Spreadsheets.BatchUpdate(s.id, rq).Context(ctx).Do()
	if err != nil {
		return nil, WrapError(err)
	}

	return response, nil
}

func (w *worksheet) Title() string {
	return w.title
}

func (w *worksheet) Rename(ctx context.Context, title string) error {
	rq := sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{
				UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
					Properties: &sheets.SheetProperties{
						SheetId:         w.id,
						Title:           title,
						ForceSendFields: []string{"SheetId"},
					},
					Fields: "title",
				},
			},
		},
	}

	if _, err := w.spreadsheet.batchUpdate(ctx, &rq); err != nil {
		return err
	}

	w.title = title

	return nil
}

func (w *worksheet) AppendRow(ctx context.Context, values []any) error {
	if err := w.spreadsheet.store.limiter.Wait(ctx); err != nil {
		return err
	}

	rq := sheets.ValueRange{
		Values: [][]any{values},
	}

	if _, err := w.spreadsheet.store.service.Spreadsheets.Values.Append(w.spreadsheet.id, w.a1(1, 1, 1, 1), &rq).
		ValueInputOption("RAW").
		InsertDataOption("OVERWRITE").
		Context(ctx).
		Do(); err != nil {
		return WrapError(err)
	}

	// append expands the grid to fit the row
	w.columns = max(w.columns, int64(len(values)))

	return nil
}

// WriteRange writes a block of values with the top left corner at (row,col), growing the
// worksheet grid first if the block extends past it.
func (w *worksheet) WriteRange(ctx context.Context, row, col int, values [][]any) error {
	if len(values) == 0 {
		return nil
	}

	width := 0
	for _, v := range values {
		width = max(width, len(v))
	}

	bottom := int64(row + len(values) - 1)
	right := int64(col + width - 1)

	if err := w.grow(ctx, bottom, right); err != nil {
		return err
	}

	if err := w.spreadsheet.store.limiter.Wait(ctx); err != nil {
		return err
	}

	area := w.a1(int64(row), int64(col), bottom, right)
	rq := sheets.ValueRange{
		Range:  area,
		Values: values,
	}

	log.Debugf("Writing %v rows to %v", len(values), area)

	if _, err := w.spreadsheet.store.service.Spreadsheets.Values.Update(w.spreadsheet.id, area, &rq).
		ValueInputOption("RAW").
		Context(ctx).
		Do(); err != nil {
		return WrapError(err)
	}

	return nil
}

func (w *worksheet) grow(ctx context.Context, rows, columns int64) error {
	requests := []*sheets.Request{}

	if rows > w.rows {
		requests = append(requests, &sheets.Request{
			AppendDimension: &sheets.AppendDimensionRequest{
				SheetId:         w.id,
				Dimension:       "ROWS",
				Length:          rows - w.rows,
				ForceSendFields: []string{"SheetId"},
			},
		})
	}

	if columns > w.columns {
		requests = append(requests, &sheets.Request{
			AppendDimension: &sheets.AppendDimensionRequest{
				SheetId:         w.id,
				Dimension:       "COLUMNS",
				Length:          columns - w.columns,
				ForceSendFields: []string{"SheetId"},
			},
		})
	}

	if len(requests) == 0 {
		return nil
	}

	rq := sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}

	if _, err := w.spreadsheet.batchUpdate(ctx, &rq); err != nil {
		return fmt.Errorf("error resizing worksheet '%v' (%w)", w.title, err)
	}

	w.rows = max(w.rows, rows)
	w.columns = max(w.columns, columns)

	return nil
}

func (w *worksheet) a1(top, left, bottom, right int64) string {
	title := strings.ReplaceAll(w.title, "'", "''")

	return fmt.Sprintf("'%v'!%v%v:%v%v", title, column(left), top, column(right), bottom)
}

// column converts a 1-based column number to a column letter, e.g. 1 -> A, 27 -> AA.
func column(n int64) string {
	s := ""
	for n > 0 {
		n--
		s = string(rune('A'+n%26)) + s
		n /= 26
	}

	return s
}

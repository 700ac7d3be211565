package commands

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"google.golang.org/api/sheets/v4"
)

// sheetToTSV writes a worksheet range as tab-separated values. Short rows are padded to
// the width of the widest row.
func sheetToTSV(f io.Writer, data *sheets.ValueRange) error {
	if len(data.Values) == 0 {
		return fmt.Errorf("Empty sheet")
	}

	width := 0
	for _, row := range data.Values {
		width = max(width, len(row))
	}

	if width == 0 {
		return fmt.Errorf("Missing/invalid header row")
	}

	w := csv.NewWriter(f)
	w.Comma = '\t'

	for _, row := range data.Values {
		record := make([]string, width)
		for i, v := range row {
			record[i] = clean(v)
		}

		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()

	return w.Error()
}

// clean converts a cell value to a single line string.
func clean(v any) string {
	if v == nil {
		return ""
	}

	s := fmt.Sprintf("%v", v)
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\t", " ")

	return strings.TrimSpace(s)
}

package backup

import (
	"github.com/uhppoted/eo-backup/octopus"
)

// HeaderRow returns the column headings for a list worksheet: 'Status' followed by the
// field labels, starting with the email address field.
func HeaderRow(list octopus.List) []any {
	row := []any{"Status"}
	for _, f := range list.Fields {
		row = append(row, f.Label)
	}

	return row
}

// ContactRow returns the worksheet row for a contact. The first list field is the email
// address, which is emitted positionally and so is skipped when iterating over the fields.
// Missing and null field values are written as empty cells.
func ContactRow(contact octopus.Contact, list octopus.List) []any {
	row := []any{contact.Status, contact.EmailAddress}

	if len(list.Fields) > 1 {
		for _, f := range list.Fields[1:] {
			if v, ok := contact.Fields[f.Tag]; ok && v != nil {
				row = append(row, v)
			} else {
				row = append(row, "")
			}
		}
	}

	return row
}

// SumCounts returns the total number of contacts across all statuses. An empty
// map sums to 0.
func SumCounts(counts map[string]int) int {
	sum := 0
	for _, v := range counts {
		sum += v
	}

	return sum
}

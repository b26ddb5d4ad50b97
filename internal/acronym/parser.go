package acronym

import "strings"

const (
	rowDelimiter   = "\n"
	fieldDelimiter = ","

	// minFields is the floor below which a line counts as blank.
	minFields = 2
)

// Parse builds a Table from raw dataset text. Lines that do not have exactly
// four fields are skipped. Parse never fails.
func Parse(raw string) Table {
	table := make(Table)
	for _, row := range wellFormed(nonBlank(splitRows(raw))) {
		key := row.Key()
		table[key] = append(table[key], row.Entry())
	}
	return table
}

// splitRows splits raw text into rows of fields.
func splitRows(raw string) []Row {
	lines := strings.Split(raw, rowDelimiter)
	rows := make([]Row, 0, len(lines))
	for _, line := range lines {
		rows = append(rows, Row(strings.Split(line, fieldDelimiter)))
	}
	return rows
}

// nonBlank keeps rows carrying at least minFields fields.
func nonBlank(rows []Row) []Row {
	return filterRows(rows, func(r Row) bool { return len(r) >= minFields })
}

// wellFormed keeps rows with exactly rowWidth fields.
func wellFormed(rows []Row) []Row {
	return filterRows(rows, func(r Row) bool { return len(r) == rowWidth })
}

func filterRows(rows []Row, keep func(Row) bool) []Row {
	out := rows[:0:0]
	for _, r := range rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

package acronym

import (
	"sort"
	"strings"
)

// Column positions of a dataset row.
const (
	colAcronym = iota
	colDefinition
	colContext
	colNotes

	rowWidth = 4
)

// bulletPrefix introduces a context or notes line below a definition.
const bulletPrefix = "\n\t- "

// Row is one line of the dataset split into fields.
type Row []string

// Key returns the lookup key for the row: the acronym field lowercased.
// The field is not trimmed.
func (r Row) Key() string {
	return strings.ToLower(r[colAcronym])
}

// Entry renders the row as a definition followed by optional context and
// notes bullets. The row must have rowWidth fields.
func (r Row) Entry() Entry {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(r[colDefinition]))
	for _, extra := range []string{r[colContext], r[colNotes]} {
		if v := strings.TrimSpace(extra); v != "" {
			b.WriteString(bulletPrefix)
			b.WriteString(v)
		}
	}
	return Entry(b.String())
}

// Entry is a single rendered definition of an acronym.
type Entry string

// Table maps a lowercased acronym to its definitions in source order.
type Table map[string][]Entry

// Len returns the number of distinct acronyms.
func (t Table) Len() int {
	return len(t)
}

// Keys returns the acronyms in sorted order.
func (t Table) Keys() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Entries returns the definitions stored for key, or nil.
func (t Table) Entries(key string) []Entry {
	return t[key]
}

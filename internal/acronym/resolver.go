package acronym

import (
	"fmt"
	"strings"
)

const (
	entryPrefix    = " - "
	entrySeparator = "; \n - "

	// ContributeURL is where missing acronyms can be added.
	ContributeURL = "https://github.com/department-of-veterans-affairs/acronyms"

	notFoundTemplate = "\n        Entry for '%s' not found! Acronyms may be added at\n        " +
		ContributeURL + "\n        "
)

// Outcome tells whether a lookup found any definitions.
type Outcome int

const (
	// NotFound means the table has no entry for the query.
	NotFound Outcome = iota
	// Found means at least one definition matched.
	Found
)

// String returns the outcome name used in lookup statistics.
func (o Outcome) String() string {
	switch o {
	case Found:
		return "resolved"
	case NotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Result is the outcome of looking up a query in a Table.
type Result struct {
	Query   string
	Key     string
	Outcome Outcome
	Entries []Entry
}

// Found reports whether the query matched at least one definition.
func (r Result) Found() bool {
	return r.Outcome == Found
}

// String renders the result as the plain-text answer.
func (r Result) String() string {
	if !r.Found() {
		return fmt.Sprintf(notFoundTemplate, r.Query)
	}

	parts := make([]string, len(r.Entries))
	for i, e := range r.Entries {
		parts[i] = string(e)
	}
	return r.Query + "\n" + entryPrefix + strings.Join(parts, entrySeparator)
}

// Lookup finds the definitions for query. The query is lowercased but not
// trimmed.
func Lookup(table Table, query string) Result {
	key := strings.ToLower(query)
	entries, ok := table[key]
	if !ok || len(entries) == 0 {
		return Result{Query: query, Key: key, Outcome: NotFound}
	}
	return Result{Query: query, Key: key, Outcome: Found, Entries: entries}
}

// Resolve looks up query in table and returns the rendered answer.
func Resolve(table Table, query string) string {
	return Lookup(table, query).String()
}

// Package acronym turns the four-column acronym dataset into a lookup table
// and renders plain-text answers for a queried acronym.
//
// The dataset is comma separated with one row per line:
//
//	Acronym,Definition,Context,Notes
//
// Parsing is naive: lines are split on "\n" and fields on ",".
// Quoted fields with embedded commas are not supported and such rows end up
// with the wrong field count, which drops them.
//
// Keys are the acronym field lowercased without trimming, while queries are
// lowercased as given. A row written as " FOO" is therefore only reachable
// with a query of " foo".
//
// Both Parse and Resolve are pure; a Table is built per request and thrown
// away afterwards.
package acronym

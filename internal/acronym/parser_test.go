package acronym

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Table
	}{
		{
			name: "empty input",
			raw:  "",
			want: Table{},
		},
		{
			name: "single row",
			raw:  "FOO,bar,,\n",
			want: Table{"foo": {"bar"}},
		},
		{
			name: "context and notes",
			raw:  "Y,defn,ctx,note\n",
			want: Table{"y": {"defn\n\t- ctx\n\t- note"}},
		},
		{
			name: "notes without context",
			raw:  "Y,defn,,note",
			want: Table{"y": {"defn\n\t- note"}},
		},
		{
			name: "blank context and notes omitted",
			raw:  "Z,defn, \t , \n",
			want: Table{"z": {"defn"}},
		},
		{
			name: "fields trimmed",
			raw:  "VA,  Veterans Affairs , federal ,  \r\n",
			want: Table{"va": {"Veterans Affairs\n\t- federal"}},
		},
		{
			name: "empty definition kept",
			raw:  "E,,,\n",
			want: Table{"e": {""}},
		},
		{
			name: "key is not trimmed",
			raw:  " FOO ,bar,,\n",
			want: Table{" foo ": {"bar"}},
		},
		{
			name: "multiple definitions keep source order",
			raw:  "X,def1,,\nx,def2,,\nX,def1,,\n",
			want: Table{"x": {"def1", "def2", "def1"}},
		},
		{
			name: "header row is an ordinary row",
			raw:  "Acronym,Definition,Context,Notes\nAPI,Application Programming Interface,,\n",
			want: Table{
				"acronym": {"Definition\n\t- Context\n\t- Notes"},
				"api":     {"Application Programming Interface"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.raw)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParse_SkipsMalformedRows(t *testing.T) {
	raw := "\n" +
		"ONE\n" +
		"TWO,two\n" +
		"THREE,three,ctx\n" +
		"FIVE,five,ctx,notes,extra\n" +
		"QUOTED,\"a, b\",,\n" +
		"FOUR,four,,\n"

	table := Parse(raw)

	assert.Equal(t, []string{"four"}, table.Keys())
	assert.Equal(t, []Entry{"four"}, table.Entries("four"))
}

func TestParse_NeverEmptySequences(t *testing.T) {
	table := Parse("A,1,,\nB,2,,\nA,3,x,y\nC,bad\n")

	require.Equal(t, 2, table.Len())
	for _, key := range table.Keys() {
		assert.NotEmpty(t, table.Entries(key), "key %q", key)
	}
}

func TestSplitRows(t *testing.T) {
	rows := splitRows("a,b\n\nc")

	want := []Row{{"a", "b"}, {""}, {"c"}}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("splitRows() mismatch (-want +got):\n%s", diff)
	}
}

func TestRowFilters(t *testing.T) {
	rows := []Row{
		{""},
		{"a"},
		{"a", "b"},
		{"a", "b", "c"},
		{"a", "b", "c", "d"},
		{"a", "b", "c", "d", "e"},
	}

	assert.Len(t, nonBlank(rows), 4)
	assert.Equal(t, []Row{{"a", "b", "c", "d"}}, wellFormed(nonBlank(rows)))
	assert.Len(t, rows, 6, "filters must not modify their input")
}

func TestRow_Entry(t *testing.T) {
	tests := []struct {
		row  Row
		want Entry
	}{
		{Row{"K", "def", "", ""}, "def"},
		{Row{"K", "def", "ctx", ""}, "def\n\t- ctx"},
		{Row{"K", "def", "", "note"}, "def\n\t- note"},
		{Row{"K", " def ", " ctx ", " note "}, "def\n\t- ctx\n\t- note"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.row.Entry())
	}
}

func TestTable_Keys(t *testing.T) {
	table := Table{"b": {"2"}, "a": {"1"}, "c": {"3"}}
	assert.Equal(t, []string{"a", "b", "c"}, table.Keys())
	assert.Nil(t, table.Entries("missing"))
}

// Package search finds rows of a parsed table that contain a target value.
//
// A query scans either every field of every row, or a single column picked by
// zero-based index or by header name. Matching is substring containment after
// both sides are normalized (see [Normalize]).
package search

import (
	"strings"

	"github.com/JonMunkholm/csvmaps/internal/csvdata"
)

// Selector picks the column a query is restricted to.
// It is implemented only by [ByIndex] and [ByName]; a nil Selector scans
// whole rows.
type Selector interface {
	selector()
}

// ByIndex selects the column at a zero-based position.
type ByIndex int

// ByName selects the first header column whose normalized text equals the
// normalized name.
type ByName string

func (ByIndex) selector() {}
func (ByName) selector()  {}

// Query describes one search.
type Query struct {
	Target    string
	HasHeader bool
	Column    Selector
}

// Normalize lower-cases s and replaces underscores with spaces.
func Normalize(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), "_", " ")
}

// Search returns the rows of table that match q, in table order.
//
// An empty table yields an empty result. Structural problems with the table
// (ragged rows under a header, an index past a row's width) are reported as
// a *StructuralError and no rows are returned. Neither table nor q is
// modified.
func Search(table csvdata.Table, q Query) (csvdata.Table, error) {
	out := make(csvdata.Table, 0)
	if len(table) == 0 {
		return out, nil
	}

	if _, ok := q.Column.(ByName); ok && !q.HasHeader {
		return nil, ErrHeaderRequired
	}

	if q.HasHeader {
		if err := checkShape(table); err != nil {
			return nil, err
		}
	}

	target := Normalize(q.Target)

	switch col := q.Column.(type) {
	case nil:
		for _, row := range table {
			if rowContains(row, target) {
				out = append(out, row)
			}
		}
		return out, nil

	case ByIndex:
		return scanColumn(table, int(col), q.HasHeader, target)

	case ByName:
		idx := ColumnIndex(table.Header(), string(col))
		if idx < 0 {
			return out, nil
		}
		return scanColumn(table, idx, true, target)

	default:
		return nil, ErrInvalidSelector
	}
}

// ColumnIndex returns the position of the first header cell equal to name
// after normalization, or -1.
func ColumnIndex(header csvdata.Row, name string) int {
	want := Normalize(name)
	for i, cell := range header {
		if Normalize(cell) == want {
			return i
		}
	}
	return -1
}

func checkShape(table csvdata.Table) error {
	want := len(table[0])
	for i, row := range table[1:] {
		if len(row) != want {
			return &StructuralError{Row: i + 1, Width: len(row), Want: want, Err: ErrRowWidthMismatch}
		}
	}
	return nil
}

func scanColumn(table csvdata.Table, idx int, skipHeader bool, target string) (csvdata.Table, error) {
	rows := table
	offset := 0
	if skipHeader {
		rows = table[1:]
		offset = 1
	}

	out := make(csvdata.Table, 0)
	for i, row := range rows {
		if idx < 0 || idx >= len(row) {
			return nil, &StructuralError{Row: i + offset, Width: len(row), Want: idx + 1, Err: ErrIndexOutOfRange}
		}
		if strings.Contains(Normalize(row[idx]), target) {
			out = append(out, row)
		}
	}
	return out, nil
}

func rowContains(row csvdata.Row, target string) bool {
	for _, field := range row {
		if strings.Contains(Normalize(field), target) {
			return true
		}
	}
	return false
}

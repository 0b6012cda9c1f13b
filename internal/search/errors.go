package search

import (
	"errors"
	"fmt"
)

var (
	// ErrIndexOutOfRange means a column index does not exist in a scanned row.
	ErrIndexOutOfRange = errors.New("column index out of range")

	// ErrRowWidthMismatch means a row's width differs from the header's.
	ErrRowWidthMismatch = errors.New("row width does not match header")

	// ErrHeaderRequired means a name selector was used on a table without a header.
	ErrHeaderRequired = errors.New("column name requires a header row")

	// ErrInvalidSelector is returned for a Selector this package does not know.
	ErrInvalidSelector = errors.New("invalid column selector")
)

// StructuralError reports a table whose shape does not fit the query.
// Row is the zero-based table row that failed.
type StructuralError struct {
	Row   int
	Width int
	Want  int
	Err   error
}

func (e *StructuralError) Error() string {
	if errors.Is(e.Err, ErrIndexOutOfRange) {
		return fmt.Sprintf("row %d: %v (row has %d fields, need at least %d)", e.Row, e.Err, e.Width, e.Want)
	}
	return fmt.Sprintf("row %d: %v (got %d fields, header has %d)", e.Row, e.Err, e.Width, e.Want)
}

func (e *StructuralError) Unwrap() error {
	return e.Err
}

// IsStructural reports whether err describes a malformed table rather than a
// malformed query.
func IsStructural(err error) bool {
	var se *StructuralError
	return errors.As(err, &se)
}

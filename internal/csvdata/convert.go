package csvdata

import (
	"fmt"
	"strings"
)

// Row is one parsed line: an ordered sequence of string fields.
type Row []string

// Table is every row produced by one parse call, in file order.
// A Table is never modified after it is returned; callers that need to
// change rows must copy them first.
type Table []Row

// Header returns the first row, or nil for an empty table.
func (t Table) Header() Row {
	if len(t) == 0 {
		return nil
	}
	return t[0]
}

// RowConverter turns the raw fields of one line into an application record.
// Returning an error aborts the whole parse.
type RowConverter[T any] func(fields []string) (T, error)

// ConversionError reports fields that could not be mapped to the target type.
type ConversionError struct {
	Reason string
	Fields []string
}

// NewConversionError copies fields so the error stays valid after the parser
// reuses its buffers.
func NewConversionError(reason string, fields []string) *ConversionError {
	cp := make([]string, len(fields))
	copy(cp, fields)
	return &ConversionError{Reason: reason, Fields: cp}
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("conversion failed: %s [%s]", e.Reason, strings.Join(e.Fields, ","))
}

// Identity returns the fields unchanged. It never fails.
func Identity(fields []string) (Row, error) {
	return Row(fields), nil
}

// FixedWidth returns a converter that only accepts rows with exactly n fields.
func FixedWidth(n int) RowConverter[Row] {
	return func(fields []string) (Row, error) {
		if len(fields) != n {
			return nil, NewConversionError(
				fmt.Sprintf("expected %d fields, got %d", n, len(fields)), fields)
		}
		return Row(fields), nil
	}
}

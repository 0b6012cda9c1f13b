// Package csvdata parses comma-delimited text into rows.
//
// The parser is simpler than encoding/csv: it works one line at
// a time, never lets a quoted span cross a newline, and strips every quote
// character from the produced fields. Quotes only serve to protect commas.
// Re-joining a parsed row with commas therefore reproduces the unquoted
// content, not the original bytes.
//
// Each line is handed to a [RowConverter]; [Identity] keeps the raw fields.
//
//	table, err := csvdata.ParseTable(f)
//
//	people, err := csvdata.Parse(f, func(fields []string) (Person, error) {
//	    if len(fields) != 2 {
//	        return Person{}, csvdata.NewConversionError("want name,age", fields)
//	    }
//	    return Person{Name: fields[0], Age: fields[1]}, nil
//	})
package csvdata

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ParseError reports the line at which parsing stopped.
// Err is either the I/O error from the reader or the converter's error.
type ParseError struct {
	Line int // 1-based
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// quoteStripper removes both quote styles from a field.
var quoteStripper = strings.NewReplacer(`"`, "", `'`, "")

// Parser converts lines with a fixed converter.
type Parser[T any] struct {
	convert RowConverter[T]
}

// NewParser returns a parser that feeds every line to convert.
func NewParser[T any](convert RowConverter[T]) *Parser[T] {
	return &Parser[T]{convert: convert}
}

// Parse reads r to EOF. See [Parse].
func (p *Parser[T]) Parse(r io.Reader) ([]T, error) {
	return Parse(r, p.convert)
}

// Parse reads r line by line, splits each line with [SplitLine] and passes the
// fields to convert. The first failure aborts the parse and no partial result
// is returned. An empty reader yields an empty, non-nil slice.
func Parse[T any](r io.Reader, convert RowConverter[T]) ([]T, error) {
	br := bufio.NewReader(r)
	out := make([]T, 0)

	for lineNo := 1; ; lineNo++ {
		line, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, &ParseError{Line: lineNo, Err: err}
		}
		if line == "" && err != nil {
			// EOF right after a newline: no further line.
			break
		}

		line = strings.TrimSuffix(line, "\n")
		line = strings.TrimSuffix(line, "\r")

		rec, convErr := convert(SplitLine(line))
		if convErr != nil {
			return nil, &ParseError{Line: lineNo, Err: convErr}
		}
		out = append(out, rec)

		if err != nil {
			break
		}
	}

	return out, nil
}

// ParseTable parses r with the identity converter.
func ParseTable(r io.Reader) (Table, error) {
	rows, err := Parse(r, Identity)
	if err != nil {
		return nil, err
	}
	return Table(rows), nil
}

// SplitLine splits one line on commas that sit outside double-quoted spans
// and strips all quote characters from the resulting fields.
//
// A comma separates fields only when an even number of '"' follow it on the
// line. Fields keep surrounding whitespace; empty fields, leading or
// trailing, are kept.
func SplitLine(line string) []string {
	remaining := strings.Count(line, `"`)

	fields := make([]string, 0, strings.Count(line, ",")+1)
	start := 0
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '"':
			remaining--
		case ',':
			if remaining%2 == 0 {
				fields = append(fields, quoteStripper.Replace(line[start:i]))
				start = i + 1
			}
		}
	}
	fields = append(fields, quoteStripper.Replace(line[start:]))

	return fields
}

// JoinRow rebuilds the unquoted text of a row.
func JoinRow(row Row) string {
	return strings.Join(row, ",")
}

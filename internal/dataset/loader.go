package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/csvmaps/internal/csvdata"
)

var (
	// ErrOutsideDataRoot is returned for paths that escape the data directory.
	ErrOutsideDataRoot = errors.New("path is outside the data directory")

	// ErrUnsupportedFormat is returned for extensions other than .csv and .xlsx.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrFileTooLarge is returned when a file exceeds the configured size limit.
	ErrFileTooLarge = errors.New("file exceeds maximum size")

	// ErrEmptyPath is returned when no path is given.
	ErrEmptyPath = errors.New("file path is required")
)

// Loader reads datasets from files under Root.
type Loader struct {
	// Root confines loads to one directory tree. Empty means no restriction.
	Root string

	// MaxBytes caps the size of a loaded file. Zero means no cap.
	MaxBytes int64

	// Limiter bounds concurrent loads. Nil means unbounded.
	Limiter *LoadLimiter
}

// NewLoader returns a loader rooted at root.
func NewLoader(root string, maxBytes int64, limiter *LoadLimiter) *Loader {
	return &Loader{Root: root, MaxBytes: maxBytes, Limiter: limiter}
}

// Resolve maps a user-supplied path to a file path inside Root.
// Relative paths are taken relative to Root.
func (l *Loader) Resolve(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", ErrEmptyPath
	}
	if l.Root == "" {
		return filepath.Clean(path), nil
	}

	root, err := filepath.Abs(l.Root)
	if err != nil {
		return "", fmt.Errorf("resolve data root: %w", err)
	}

	full := path
	if !filepath.IsAbs(full) {
		full = filepath.Join(root, full)
	}
	full = filepath.Clean(full)

	rel, err := filepath.Rel(root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrOutsideDataRoot
	}
	return full, nil
}

// Load opens path, parses it and returns a new Dataset. The file is always
// closed before Load returns.
func (l *Loader) Load(ctx context.Context, path string) (*Dataset, error) {
	full, err := l.Resolve(path)
	if err != nil {
		return nil, err
	}

	format := strings.ToLower(strings.TrimPrefix(filepath.Ext(full), "."))
	if format != "csv" && format != "xlsx" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(full))
	}

	if l.Limiter != nil {
		if err := l.Limiter.Acquire(ctx); err != nil {
			return nil, err
		}
		defer l.Limiter.Release()
	}

	f, err := os.Open(full)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if l.MaxBytes > 0 {
		info, err := f.Stat()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", path, err)
		}
		if info.Size() > l.MaxBytes {
			return nil, fmt.Errorf("%w: %d bytes (limit %d)", ErrFileTooLarge, info.Size(), l.MaxBytes)
		}
	}

	var (
		table csvdata.Table
		size  int64
	)
	switch format {
	case "xlsx":
		counter := csvdata.NewCountingReader(f)
		table, err = readWorkbook(counter)
		size = counter.BytesRead
	default:
		r, counter := csvdata.WrapSource(f)
		table, err = csvdata.ParseTable(r)
		size = counter.BytesRead
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	return &Dataset{
		ID:       uuid.NewString(),
		Source:   path,
		Format:   format,
		Bytes:    size,
		LoadedAt: time.Now().UTC(),
		Table:    table,
	}, nil
}

// readWorkbook returns the first sheet of an xlsx workbook as a table.
// Rows are padded to the widest row since excelize omits trailing empty cells.
func readWorkbook(r io.Reader) (csvdata.Table, error) {
	wb, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return csvdata.Table{}, nil
	}

	rows, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}

	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}

	table := make(csvdata.Table, 0, len(rows))
	for _, row := range rows {
		padded := make(csvdata.Row, width)
		copy(padded, row)
		table = append(table, padded)
	}
	return table, nil
}

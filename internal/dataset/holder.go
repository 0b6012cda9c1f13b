// Package dataset holds the table that the load, view and search endpoints
// share, and loads it from disk.
package dataset

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/JonMunkholm/csvmaps/internal/csvdata"
)

// ErrNotLoaded is returned by Holder.Current before any successful load.
var ErrNotLoaded = errors.New("no dataset loaded")

// Dataset is one successfully parsed source file.
type Dataset struct {
	ID       string
	Source   string
	Format   string
	Bytes    int64
	LoadedAt time.Time
	Table    csvdata.Table
}

// Rows returns the number of rows in the table.
func (d *Dataset) Rows() int {
	return len(d.Table)
}

// Holder is a single slot for the most recently loaded dataset.
// Replace swaps the whole dataset; a Dataset is never modified after it is
// stored, so readers do not block writers.
type Holder struct {
	current atomic.Pointer[Dataset]
}

// NewHolder returns an empty holder.
func NewHolder() *Holder {
	return &Holder{}
}

// Replace stores d and returns the dataset it displaced, if any.
func (h *Holder) Replace(d *Dataset) *Dataset {
	return h.current.Swap(d)
}

// Current returns the held dataset or ErrNotLoaded.
func (h *Holder) Current() (*Dataset, error) {
	d := h.current.Load()
	if d == nil {
		return nil, ErrNotLoaded
	}
	return d, nil
}

// Clear empties the slot.
func (h *Holder) Clear() {
	h.current.Store(nil)
}

package core

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/JonMunkholm/csvmaps/internal/audit"
	"github.com/JonMunkholm/csvmaps/internal/census"
	"github.com/JonMunkholm/csvmaps/internal/csvdata"
	"github.com/JonMunkholm/csvmaps/internal/dataset"
	"github.com/JonMunkholm/csvmaps/internal/geo"
	"github.com/JonMunkholm/csvmaps/internal/logging"
	"github.com/JonMunkholm/csvmaps/internal/search"
)

// Service is the entry point for every dataset, map and census operation.
type Service struct {
	holder  *dataset.Holder
	loader  *dataset.Loader
	audit   audit.Store
	maps    *geo.FeatureCollection
	history *geo.History
	census  census.DataSource
}

// Options configures a Service. Nil fields get in-memory defaults, except
// Maps and Census, which disable their operations when nil.
type Options struct {
	Holder  *dataset.Holder
	Loader  *dataset.Loader
	Audit   audit.Store
	Maps    *geo.FeatureCollection
	History *geo.History
	Census  census.DataSource
}

// NewService creates a service.
func NewService(opts Options) *Service {
	s := &Service{
		holder:  opts.Holder,
		loader:  opts.Loader,
		audit:   opts.Audit,
		maps:    opts.Maps,
		history: opts.History,
		census:  opts.Census,
	}
	if s.holder == nil {
		s.holder = dataset.NewHolder()
	}
	if s.loader == nil {
		s.loader = dataset.NewLoader("", 0, nil)
	}
	if s.audit == nil {
		s.audit = audit.NewMemoryStore(0)
	}
	if s.history == nil {
		s.history = geo.NewHistory(0)
	}
	return s
}

// ----------------------------------------------------------------------------
// Datasets
// ----------------------------------------------------------------------------

// Load parses path and makes it the current dataset. On failure the current
// dataset is left as it was.
func (s *Service) Load(ctx context.Context, path string) (*dataset.Dataset, error) {
	ds, err := s.loader.Load(ctx, path)
	s.record(ctx, audit.Entry{Action: audit.ActionLoad, Source: path, Rows: rowsOf(ds)}, err)
	if err != nil {
		return nil, err
	}

	s.holder.Replace(ds)
	logging.FromContext(ctx).Info("dataset loaded",
		"dataset_id", ds.ID,
		"source", ds.Source,
		"rows", ds.Rows(),
		"bytes", ds.Bytes,
	)
	return ds, nil
}

// View returns the current dataset.
func (s *Service) View(_ context.Context) (*dataset.Dataset, error) {
	return s.holder.Current()
}

// SearchOutcome is the result of a dataset search.
type SearchOutcome struct {
	DatasetID string
	Rows      csvdata.Table

	// Suggestion is the closest header name when a name selector matched
	// no column.
	Suggestion string
}

// Search runs q against the current dataset.
func (s *Service) Search(ctx context.Context, q search.Query) (SearchOutcome, error) {
	ds, err := s.holder.Current()
	if err != nil {
		return SearchOutcome{}, err
	}

	rows, err := search.Search(ds.Table, q)
	s.record(ctx, audit.Entry{
		Action: audit.ActionSearch,
		Source: ds.Source,
		Query:  describeQuery(q),
		Rows:   len(rows),
	}, err)
	if err != nil {
		return SearchOutcome{}, err
	}

	out := SearchOutcome{DatasetID: ds.ID, Rows: rows}
	if name, ok := q.Column.(search.ByName); ok && q.HasHeader {
		header := ds.Table.Header()
		if search.ColumnIndex(header, string(name)) < 0 {
			out.Suggestion = search.SuggestColumn(header, string(name))
		}
	}
	return out, nil
}

// LoadStatus describes the current dataset and load capacity.
type LoadStatus struct {
	Loaded   bool                   `json:"loaded"`
	ID       string                 `json:"id,omitempty"`
	Source   string                 `json:"source,omitempty"`
	Rows     int                    `json:"rows"`
	LoadedAt *time.Time             `json:"loaded_at,omitempty"`
	Limiter  *dataset.LimiterStatus `json:"limiter,omitempty"`
}

// LoadStatus reports what is loaded.
func (s *Service) LoadStatus() LoadStatus {
	var st LoadStatus
	if ds, err := s.holder.Current(); err == nil {
		at := ds.LoadedAt
		st = LoadStatus{Loaded: true, ID: ds.ID, Source: ds.Source, Rows: ds.Rows(), LoadedAt: &at}
	}
	if s.loader.Limiter != nil {
		ls := s.loader.Limiter.Status()
		st.Limiter = &ls
	}
	return st
}

// WaitForLoads blocks until in-flight loads finish or ctx is done.
func (s *Service) WaitForLoads(ctx context.Context) error {
	if s.loader.Limiter == nil {
		return nil
	}
	return s.loader.Limiter.WaitForDrain(ctx)
}

// ----------------------------------------------------------------------------
// Maps
// ----------------------------------------------------------------------------

// FilterByBox returns the map areas inside box.
func (s *Service) FilterByBox(ctx context.Context, box geo.BoundingBox) (*geo.FeatureCollection, error) {
	if s.maps == nil {
		return nil, ErrMapsUnavailable
	}
	fc, err := geo.FilterByBox(s.maps, box)
	s.record(ctx, audit.Entry{
		Action: audit.ActionBoundingBox,
		Query:  fmt.Sprintf("lat=[%g,%g] lng=[%g,%g]", box.MinLat, box.MaxLat, box.MinLng, box.MaxLng),
		Rows:   featureCount(fc),
	}, err)
	return fc, err
}

// FilterByKeyword returns the map areas whose description mentions keyword
// and adds the search to the keyword history.
func (s *Service) FilterByKeyword(ctx context.Context, keyword string) (*geo.FeatureCollection, error) {
	if s.maps == nil {
		return nil, ErrMapsUnavailable
	}
	fc, err := geo.FilterByKeyword(s.maps, keyword)
	s.record(ctx, audit.Entry{Action: audit.ActionKeyword, Query: keyword, Rows: featureCount(fc)}, err)
	if err != nil {
		return nil, err
	}
	s.history.Record(keyword, len(fc.Features))
	return fc, nil
}

// KeywordHistory returns recent keyword searches, newest first.
func (s *Service) KeywordHistory() []geo.HistoryEntry {
	return s.history.Entries()
}

// ----------------------------------------------------------------------------
// Census
// ----------------------------------------------------------------------------

// BroadbandResult is a broadband lookup and when it was made.
type BroadbandResult struct {
	Location  census.Location
	Retrieved time.Time
	Data      census.BroadbandData
}

// Broadband looks up broadband coverage for loc.
func (s *Service) Broadband(ctx context.Context, loc census.Location) (BroadbandResult, error) {
	if s.census == nil {
		return BroadbandResult{}, ErrCensusUnavailable
	}

	data, err := s.census.Broadband(ctx, loc)
	s.record(ctx, audit.Entry{
		Action: audit.ActionBroadband,
		Query:  loc.State + "/" + loc.County,
		Rows:   max(len(data.Rows)-1, 0),
	}, err)
	if err != nil {
		return BroadbandResult{}, err
	}
	return BroadbandResult{Location: loc, Retrieved: time.Now(), Data: data}, nil
}

// ----------------------------------------------------------------------------
// Audit
// ----------------------------------------------------------------------------

// AuditLog returns recent audit entries, newest first.
func (s *Service) AuditLog(ctx context.Context, limit int) ([]audit.Entry, error) {
	return s.audit.Recent(ctx, limit)
}

// record writes an audit entry. A failed write is logged and otherwise
// ignored so it never fails the operation being audited.
func (s *Service) record(ctx context.Context, e audit.Entry, opErr error) {
	if opErr != nil {
		e.Error = opErr.Error()
	}
	if err := s.audit.Record(ctx, e); err != nil {
		logging.FromContext(ctx).Warn("failed to record audit entry",
			"action", e.Action,
			"error", err,
		)
	}
}

func describeQuery(q search.Query) string {
	desc := "target=" + q.Target + " header=" + strconv.FormatBool(q.HasHeader)
	switch col := q.Column.(type) {
	case search.ByIndex:
		desc += " index=" + strconv.Itoa(int(col))
	case search.ByName:
		desc += " name=" + string(col)
	}
	return desc
}

func rowsOf(ds *dataset.Dataset) int {
	if ds == nil {
		return 0
	}
	return ds.Rows()
}

func featureCount(fc *geo.FeatureCollection) int {
	if fc == nil {
		return 0
	}
	return len(fc.Features)
}

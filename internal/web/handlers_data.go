package web

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/csvmaps/internal/core"
	"github.com/JonMunkholm/csvmaps/internal/csvdata"
	"github.com/JonMunkholm/csvmaps/internal/search"
)

// LoadResponse reports a successful load.
type LoadResponse struct {
	Type     string    `json:"type"`
	Data     string    `json:"data"`
	ID       string    `json:"id"`
	Format   string    `json:"format"`
	Rows     int       `json:"rows"`
	Bytes    int64     `json:"bytes"`
	LoadedAt time.Time `json:"loaded_at"`
}

// TableResponse carries rows from /view and /search.
type TableResponse struct {
	Type    string        `json:"type"`
	ID      string        `json:"id,omitempty"`
	Data    csvdata.Table `json:"data"`
	Details string        `json:"details,omitempty"`
}

// handleLoad parses ?filepath= and makes it the current dataset.
func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	ds, err := s.service.Load(r.Context(), r.URL.Query().Get("filepath"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, LoadResponse{
		Type:     "success",
		Data:     ds.Source,
		ID:       ds.ID,
		Format:   ds.Format,
		Rows:     ds.Rows(),
		Bytes:    ds.Bytes,
		LoadedAt: ds.LoadedAt,
	})
}

// handleView returns every row of the current dataset.
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	ds, err := s.service.View(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, TableResponse{Type: "success", ID: ds.ID, Data: ds.Table})
}

// handleSearch runs ?target= against the current dataset.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q, err := parseSearchQuery(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	out, err := s.service.Search(r.Context(), q)
	if err != nil {
		respondError(w, r, err)
		return
	}

	resp := TableResponse{Type: "success", ID: out.DatasetID, Data: out.Rows}
	if name, ok := q.Column.(search.ByName); ok && out.Suggestion != "" {
		resp.Details = fmt.Sprintf("no column named %q; did you mean %q?", string(name), out.Suggestion)
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleStatus reports the loaded dataset and load capacity.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.LoadStatus())
}

// parseSearchQuery reads target, header and the column selector.
//
// index and name are mutually exclusive. The older column= parameter is
// still accepted when neither is given: an integer selects by index,
// anything else by name.
func parseSearchQuery(r *http.Request) (search.Query, error) {
	params := r.URL.Query()

	if !params.Has("target") {
		return search.Query{}, fmt.Errorf("%w: missing target", core.ErrInvalidQuery)
	}
	hasHeader, err := parseBoolParam(r, "header")
	if err != nil {
		return search.Query{}, fmt.Errorf("%w: %v", core.ErrInvalidQuery, err)
	}

	q := search.Query{Target: params.Get("target"), HasHeader: hasHeader}

	index, name := params.Get("index"), params.Get("name")
	switch {
	case index != "" && name != "":
		return search.Query{}, fmt.Errorf("%w: give index or name, not both", core.ErrInvalidQuery)
	case index != "":
		i, err := strconv.Atoi(strings.TrimSpace(index))
		if err != nil {
			return search.Query{}, fmt.Errorf("%w: index must be an integer, got %q", core.ErrInvalidQuery, index)
		}
		q.Column = search.ByIndex(i)
	case name != "":
		q.Column = search.ByName(name)
	case params.Get("column") != "":
		col := params.Get("column")
		if i, err := strconv.Atoi(strings.TrimSpace(col)); err == nil {
			q.Column = search.ByIndex(i)
		} else {
			q.Column = search.ByName(col)
		}
	}

	return q, nil
}

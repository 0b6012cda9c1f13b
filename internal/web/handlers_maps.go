package web

import (
	"fmt"
	"net/http"

	"github.com/JonMunkholm/csvmaps/internal/geo"
)

// MapsResponse wraps a filtered feature collection.
type MapsResponse struct {
	Type string                 `json:"type"`
	Data *geo.FeatureCollection `json:"data"`
}

// handleBoundingBox returns the areas inside the four query bounds.
func (s *Server) handleBoundingBox(w http.ResponseWriter, r *http.Request) {
	box, err := parseBoundingBox(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	fc, err := s.service.FilterByBox(r.Context(), box)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MapsResponse{Type: "success", Data: fc})
}

// handleKeyword returns the areas whose description mentions ?Area=.
func (s *Server) handleKeyword(w http.ResponseWriter, r *http.Request) {
	fc, err := s.service.FilterByKeyword(r.Context(), r.URL.Query().Get("Area"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MapsResponse{Type: "success", Data: fc})
}

// handleKeywordHistory lists recent keyword searches, newest first.
func (s *Server) handleKeywordHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"type": "success",
		"data": s.service.KeywordHistory(),
	})
}

func parseBoundingBox(r *http.Request) (geo.BoundingBox, error) {
	var box geo.BoundingBox
	fields := []struct {
		name string
		dst  *float64
	}{
		{"lowerLatitude", &box.MinLat},
		{"upperLatitude", &box.MaxLat},
		{"lowerLongitude", &box.MinLng},
		{"upperLongitude", &box.MaxLng},
	}
	for _, f := range fields {
		v, err := parseFloatParam(r, f.name)
		if err != nil {
			return geo.BoundingBox{}, fmt.Errorf("%w: %v", geo.ErrInvalidBoundingBox, err)
		}
		*f.dst = v
	}
	return box, nil
}

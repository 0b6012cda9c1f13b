package web

import (
	"net/http"
	"time"

	"github.com/JonMunkholm/csvmaps/internal/census"
)

// BroadbandResponse reports county broadband coverage.
type BroadbandResponse struct {
	Type      string     `json:"type"`
	Retrieved time.Time  `json:"retrieved"`
	State     string     `json:"state"`
	County    string     `json:"county"`
	Percent   string     `json:"percent,omitempty"`
	Data      [][]string `json:"data"`
}

// handleBroadband looks up ?state=&county= in the ACS.
func (s *Server) handleBroadband(w http.ResponseWriter, r *http.Request) {
	loc := census.Location{
		State:  r.URL.Query().Get("state"),
		County: r.URL.Query().Get("county"),
	}

	res, err := s.service.Broadband(r.Context(), loc)
	if err != nil {
		respondError(w, r, err)
		return
	}

	resp := BroadbandResponse{
		Type:      "success",
		Retrieved: res.Retrieved,
		State:     res.Location.State,
		County:    res.Location.County,
		Data:      res.Data.Rows,
	}
	if pct, ok := res.Data.Percent(); ok {
		resp.Percent = pct
	}
	writeJSON(w, http.StatusOK, resp)
}

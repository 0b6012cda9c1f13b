package web

import (
	"net/http"

	"github.com/JonMunkholm/csvmaps/internal/audit"
)

// maxAuditLimit caps ?limit= on /audit.
const maxAuditLimit = 500

// handleAuditLog returns recent audit entries, newest first.
func (s *Server) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	limit := min(parseIntParam(r, "limit", audit.DefaultLimit), maxAuditLimit)

	entries, err := s.service.AuditLog(r.Context(), limit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"type": "success",
		"data": entries,
	})
}

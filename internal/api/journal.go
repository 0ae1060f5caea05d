package api

import (
	"net/http"
	"strconv"

	"github.com/nerrad567/gray-logic-sockclient/internal/journal"
)

// JournalResponse is the body of GET /journal.
type JournalResponse struct {
	Entries []journal.Entry `json:"entries"`
	Count   int             `json:"count"`
}

// handleJournal lists recent journalled messages, newest first.
func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		writeNotFound(w, "journal is disabled")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeBadRequest(w, "limit must be a positive integer")
			return
		}
		limit = n
	}

	entries, err := s.journal.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error("reading journal failed", "error", err)
		writeInternalError(w, "failed to read journal")
		return
	}
	writeJSON(w, http.StatusOK, JournalResponse{Entries: entries, Count: len(entries)})
}

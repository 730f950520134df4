package http

import (
	"net/http"

	"fintrack/internal/log"
	"fintrack/internal/recurrence"
)

// handlePending lists the occurrences due this month and not yet recorded.
func (s *Server) handlePending(w http.ResponseWriter, r *http.Request) {
	pending, err := s.svc.Recurring.Pending(r.Context(), s.today())
	if err != nil {
		writeServiceError(w, r, "pending", err)
		return
	}
	if pending == nil {
		pending = []recurrence.Occurrence{}
	}
	writeJSON(w, http.StatusOK, pending)
}

// handleGenerate records the current occurrence of one template, or answers
// 409 when it is already recorded.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	tx, err := s.svc.Recurring.Generate(r.Context(), r.PathValue("id"), s.today())
	if err != nil {
		writeServiceError(w, r, log.OpGenerate, err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

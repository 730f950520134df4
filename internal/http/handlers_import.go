package http

import (
	"fmt"
	"net/http"
	"strings"

	"fintrack/internal/importer"
	"fintrack/internal/log"
)

type commitRequest struct {
	Candidates []importer.Candidate `json:"candidates"`
	// Assignments maps a source row number to the subcategory chosen by the user.
	Assignments map[int]string `json:"assignments,omitempty"`
}

// handleImportPreview normalizes an uploaded CSV or XLSX file. The optional
// "mapping" form field holds a JSON or YAML mapping; without it the mapping
// is detected from the header row.
func (s *Server) handleImportPreview(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		writeError(w, r, statusForDecode(err), fmt.Sprintf("invalid upload: %v", err))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	var mapping *importer.Mapping
	if raw := strings.TrimSpace(r.FormValue("mapping")); raw != "" {
		m, err := importer.ParseMapping([]byte(raw))
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		mapping = &m
	}

	table, err := importer.Read(file, header.Filename, sanitizeInput(r.FormValue("sheet")))
	if err != nil {
		writeServiceError(w, r, log.OpPreview, err)
		return
	}
	preview, err := s.svc.Import.Preview(r.Context(), table, mapping)
	if err != nil {
		writeServiceError(w, r, log.OpPreview, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

// handleImportCommit writes previewed candidates. Partial failures are
// reported in the body with a 200; only a broken request is an error.
func (s *Server) handleImportCommit(w http.ResponseWriter, r *http.Request) {
	var req commitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, statusForDecode(err), err.Error())
		return
	}
	candidates := make([]importer.Candidate, len(req.Candidates))
	for i, c := range req.Candidates {
		if sub, ok := req.Assignments[c.Row]; ok {
			c = c.Assign(sub)
		}
		candidates[i] = c
	}

	res, err := s.svc.Import.Commit(r.Context(), candidates, nil)
	if err != nil {
		writeServiceError(w, r, log.OpCommit, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

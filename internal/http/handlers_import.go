package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"fintrack/internal/importer"
)

// handleImport accepts a multipart CSV upload. Without a "mapping" form
// field it answers with the column mapper's proposal (preview mode); with
// one it runs the import pipeline and answers with the outcome report.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "upload too large or malformed")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading upload failed")
		return
	}

	mappingJSON := r.FormValue("mapping")
	if mappingJSON == "" {
		proposal, err := importer.Inspect(raw)
		if err != nil {
			writeImportError(w, err)
			return
		}
		s.logger.InfoContext(r.Context(), "Import preview generated",
			"filename", header.Filename,
			"rows", proposal.TotalRows)
		writeJSON(w, http.StatusOK, map[string]any{"preview": true, "proposal": proposal})
		return
	}

	var mapping importer.Mapping
	if err := json.Unmarshal([]byte(mappingJSON), &mapping); err != nil {
		writeError(w, http.StatusBadRequest, "invalid mapping")
		return
	}

	// Classification is best-effort: a broken rule load imports rows
	// uncategorized rather than failing the upload.
	var classifier importer.Classifier
	if c, err := s.transactions.Categorizer(r.Context()); err != nil {
		s.logger.WarnContext(r.Context(), "Categorizer unavailable for import", "error", err)
	} else {
		classifier = c
	}

	pipeline := importer.NewPipeline(s.repo, classifier)
	report, err := pipeline.Run(r.Context(), raw, mapping)
	if err != nil {
		writeImportError(w, err)
		return
	}
	s.invalidateReports()

	writeJSON(w, http.StatusOK, report)
}

func writeImportError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, importer.ErrNoHeader), errors.Is(err, importer.ErrNoRows):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, importer.ErrUnmappedField):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeDomainError(w, err)
	}
}

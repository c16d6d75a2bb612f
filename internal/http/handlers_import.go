package http

import (
	"bytes"
	"mime"
	"net/http"
	"strings"

	applog "razhodi/internal/log"
	"razhodi/internal/services"
)

func (s *Server) handleImportPreview(w http.ResponseWriter, r *http.Request) {
	text, err := readUpload(w, r, s.maxUploadBytes)
	if err != nil {
		s.writeError(w, r, err, applog.OpPreview)
		return
	}
	apartmentID := sanitizeInput(r.FormValue("apartment_id"))

	ctx, cancel := s.storeContext(r.Context())
	defer cancel()

	preview, err := s.imports.Preview(ctx, apartmentID, text)
	if err != nil {
		s.writeError(w, r, err, applog.OpPreview)
		return
	}
	applog.FromContext(ctx).DebugContext(ctx, "Import previewed",
		applog.FieldApartmentID, apartmentID,
		applog.FieldBytes, len(text),
		"records", len(preview.Result.Expenses))
	NewJSONResponse().Body(preview).Write(w)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	text, err := readUpload(w, r, s.maxUploadBytes)
	if err != nil {
		s.writeError(w, r, err, applog.OpImport)
		return
	}
	apartmentID := r.PathValue("id")

	ctx, cancel := s.storeContext(r.Context())
	defer cancel()

	report, err := s.imports.Import(ctx, apartmentID, text)
	if err != nil {
		s.writeError(w, r, err, applog.OpImport)
		return
	}
	s.importDone(r, apartmentID, "upload", report)
	NewJSONResponse().Body(report).Write(w)
}

func (s *Server) handleImportSheet(w http.ResponseWriter, r *http.Request) {
	if !s.sheetsEnabled {
		s.writeError(w, r, services.ErrSheetsDisabled, applog.OpImport)
		return
	}
	sheet := sanitizeInput(r.URL.Query().Get("sheet"))
	if sheet == "" {
		s.writeError(w, r, badRequest("sheet is required"), applog.OpImport)
		return
	}
	apartmentID := r.PathValue("id")

	ctx, cancel := s.storeContext(r.Context())
	defer cancel()

	report, err := s.imports.ImportSheet(ctx, apartmentID, sheet)
	if err != nil {
		s.writeError(w, r, err, applog.OpImport)
		return
	}
	s.importDone(r, apartmentID, sheet, report)
	NewJSONResponse().Body(report).Write(w)
}

func (s *Server) importDone(r *http.Request, apartmentID, source string, report services.ImportReport) {
	s.appMetrics.imported.Add(int64(report.Imported))
	applog.NewStructuredLogger(applog.FromContext(r.Context())).
		LogImport(r.Context(), apartmentID, source, report.Imported, report.SkippedCategories, report.Years)
}

// handleExport renders the whole file before answering so that a failure
// still gets a JSON error.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	year, err := queryYear(r)
	if err != nil {
		s.writeError(w, r, err, applog.OpExport)
		return
	}
	ctx, cancel := s.storeContext(r.Context())
	defer cancel()

	var buf bytes.Buffer
	name, err := s.exports.Export(ctx, r.PathValue("id"), year, &buf)
	if err != nil {
		s.writeError(w, r, err, applog.OpExport)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", contentDisposition(name))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// contentDisposition names an attachment. Non-ASCII names such as Cyrillic
// apartment names are sent in the RFC 2231 filename* form.
func contentDisposition(name string) string {
	name = strings.NewReplacer(`"`, "", "\r", "", "\n", "").Replace(name)
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": name}); v != "" {
		return v
	}
	return "attachment"
}

package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/lexin-ta/lexin-api/internal/core/ingestion_engine"
	"github.com/lexin-ta/lexin-api/internal/services"
)

// maxArchiveSize caps uploaded archives at 256 MB.
const maxArchiveSize = 256 << 20

type DocumentHandler struct {
	ingestor ingestion_engine.Ingestor
	docs     *services.LegalDocumentService
}

func NewDocumentHandler(ingestor ingestion_engine.Ingestor, docs *services.LegalDocumentService) *DocumentHandler {
	return &DocumentHandler{ingestor: ingestor, docs: docs}
}

// CreateMapping creates the document index with its field mappings.
func (h *DocumentHandler) CreateMapping(w http.ResponseWriter, r *http.Request) {
	if err := h.docs.CreateMapping(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"detail": "mapping created"})
}

// DeleteMapping deletes the document index. Administrative teardown only.
func (h *DocumentHandler) DeleteMapping(w http.ResponseWriter, r *http.Request) {
	if err := h.docs.DeleteMapping(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"detail": "mapping deleted"})
}

// UploadArchive ingests a zip of legal document PDFs plus metadata.json.
func (h *DocumentHandler) UploadArchive(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxArchiveSize); err != nil {
		writeError(w, fmt.Errorf("parse multipart form: %w", err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid file"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, fmt.Errorf("read upload: %w", err))
		return
	}

	result, err := h.ingestor.IngestArchive(r.Context(), data, header.Header.Get("Content-Type"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Search serves the paginated, facet-filterable relevance query.
func (h *DocumentHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	params := services.SearchParams{
		Query:      q.Get("query"),
		Page:       intQueryParam(q.Get("page"), 1),
		Size:       intQueryParam(q.Get("size"), 10),
		Categories: q["category"],
		Status:     q.Get("status"),
		SortField:  q.Get("sort"),
	}

	page, err := h.docs.Search(r.Context(), params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// GetDetail returns one document minus its bulky text arrays.
func (h *DocumentHandler) GetDetail(w http.ResponseWriter, r *http.Request) {
	doc, err := h.docs.GetDocumentDetail(r.Context(), chi.URLParam(r, "documentID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// GetContent pages through the classified lines of one document file.
func (h *DocumentHandler) GetContent(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	lines, err := h.docs.GetDocumentContentPage(
		r.Context(),
		chi.URLParam(r, "documentID"),
		intQueryParam(q.Get("file_index"), 0),
		intQueryParam(q.Get("page"), 1),
		intQueryParam(q.Get("page_size"), 10),
	)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lines)
}

// Download streams one original PDF, inline when view=true.
func (h *DocumentHandler) Download(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	data, filename, err := h.docs.DownloadDocumentFile(
		r.Context(),
		chi.URLParam(r, "documentID"),
		intQueryParam(q.Get("file_index"), 0),
	)
	if err != nil {
		writeError(w, err)
		return
	}

	disposition := "attachment"
	if q.Get("view") == "true" {
		disposition = "inline"
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		return
	}
}

type bulkRequest struct {
	IDs []string `json:"ids"`
}

// Bulk returns concise projections for a list of document ids.
func (h *DocumentHandler) Bulk(w http.ResponseWriter, r *http.Request) {
	var req bulkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid request body"})
		return
	}

	docs, err := h.docs.GetDocumentsByIDList(r.Context(), req.IDs)
	if err != nil {
		writeError(w, err)
		return
	}
	if docs == nil {
		docs = []json.RawMessage{}
	}
	writeJSON(w, http.StatusOK, docs)
}

// Distinct returns the most frequent values of a field, for filter UIs.
func (h *DocumentHandler) Distinct(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	field := q.Get("field")
	if field == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "field is required"})
		return
	}

	buckets, err := h.docs.GetDistinctFieldValues(r.Context(), field, intQueryParam(q.Get("size"), 10))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, buckets)
}

func intQueryParam(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}

// Package handler provides HTTP handlers for the API.
package handler

import (
	"net/http"

	"pdf-intake/internal/domain"

	"github.com/gorilla/mux"
)

// DocumentHandler serves the JSON document API
type DocumentHandler struct {
	service     domain.IntakeService
	maxFileSize int64
	logger      domain.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(service domain.IntakeService, maxFileSize int64, logger domain.Logger) *DocumentHandler {
	return &DocumentHandler{
		service:     service,
		maxFileSize: maxFileSize,
		logger:      logger,
	}
}

// UploadDocument handles POST /documents
func (h *DocumentHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	upload, cleanup, err := readUpload(w, r, h.maxFileSize)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	defer cleanup()

	doc, err := h.service.Upload(r.Context(), upload)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, doc)
}

// SearchDocuments handles GET /documents?q=
func (h *DocumentHandler) SearchDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.service.Search(r.Context(), searchQuery(r))
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	// Ensure JSON is [] not null when there are no documents.
	if docs == nil {
		docs = make([]*domain.Document, 0)
	}
	writeJSON(w, http.StatusOK, docs)
}

// DownloadDocument handles GET /documents/{id}/download
func (h *DocumentHandler) DownloadDocument(w http.ResponseWriter, r *http.Request) {
	obj, err := h.service.Download(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	if err := writeObject(w, obj); err != nil {
		h.logger.Warn("Download interrupted", "name", obj.Name, "error", err)
	}
}

// ResetDocuments handles DELETE /documents
func (h *DocumentHandler) ResetDocuments(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Reset(r.Context()); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

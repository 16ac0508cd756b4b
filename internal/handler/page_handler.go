package handler

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"pdf-intake/internal/domain"
	apperrors "pdf-intake/pkg/errors"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/mux"
	"github.com/yuin/goldmark"
)

//go:embed templates/*.html templates/legal.md
var templateFS embed.FS

var templateFuncs = template.FuncMap{
	"bytes": func(n int64) string {
		if n < 0 {
			n = 0
		}
		return humanize.IBytes(uint64(n))
	},
	"ago": humanize.Time,
}

// pageData is passed to every HTML template
type pageData struct {
	Title        string
	Error        string
	ResetEnabled bool

	// add
	Object   string
	Keywords []string

	// search
	Query    string
	Searched bool
	Results  []*domain.Document

	// legal
	Legal template.HTML
}

// PageHandler serves the HTML pages
type PageHandler struct {
	service      domain.IntakeService
	maxFileSize  int64
	resetEnabled bool
	pages        map[string]*template.Template
	legal        template.HTML
	logger       domain.Logger
}

// NewPageHandler parses the page templates and renders the legal page once
func NewPageHandler(
	service domain.IntakeService,
	maxFileSize int64,
	resetEnabled bool,
	logger domain.Logger,
) (*PageHandler, error) {
	pages := make(map[string]*template.Template)
	for _, name := range []string{"add", "search", "legal", "error"} {
		tmpl, err := template.New(name).Funcs(templateFuncs).ParseFS(
			templateFS,
			"templates/layout.html",
			"templates/"+name+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", name, err)
		}
		pages[name] = tmpl
	}

	source, err := templateFS.ReadFile("templates/legal.md")
	if err != nil {
		return nil, fmt.Errorf("failed to read legal page: %w", err)
	}
	var legal bytes.Buffer
	if err := goldmark.New().Convert(source, &legal); err != nil {
		return nil, fmt.Errorf("failed to render legal page: %w", err)
	}

	return &PageHandler{
		service:      service,
		maxFileSize:  maxFileSize,
		resetEnabled: resetEnabled,
		pages:        pages,
		legal:        template.HTML(legal.String()),
		logger:       logger,
	}, nil
}

// Index redirects to the search page
func (h *PageHandler) Index(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "search", http.StatusMovedPermanently)
}

// AddForm renders the upload form
func (h *PageHandler) AddForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "add", &pageData{Title: "Add document"})
}

// Add processes an uploaded PDF and shows its keywords
func (h *PageHandler) Add(w http.ResponseWriter, r *http.Request) {
	data := &pageData{Title: "Add document"}

	upload, cleanup, err := readUpload(w, r, h.maxFileSize)
	if err != nil {
		h.renderError(w, r, "add", data, err)
		return
	}
	defer cleanup()

	doc, err := h.service.Upload(r.Context(), upload)
	if err != nil {
		h.renderError(w, r, "add", data, err)
		return
	}

	data.Object = doc.Name
	data.Keywords = doc.Keywords
	h.render(w, http.StatusOK, "add", data)
}

// Search renders the search form and, when q was sent, its results
func (h *PageHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := searchQuery(r)
	data := &pageData{
		Title:    "Search",
		Query:    query.Text,
		Searched: query.Present,
	}

	results, err := h.service.Search(r.Context(), query)
	if err != nil {
		h.renderError(w, r, "search", data, err)
		return
	}
	data.Results = results
	h.render(w, http.StatusOK, "search", data)
}

// Download streams an archived PDF
func (h *PageHandler) Download(w http.ResponseWriter, r *http.Request) {
	obj, err := h.service.Download(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.renderError(w, r, "error", &pageData{Title: "Download failed"}, err)
		return
	}
	if err := writeObject(w, obj); err != nil {
		h.logger.Warn("Download interrupted", "name", obj.Name, "error", err)
	}
}

// Legal renders the terms of use
func (h *PageHandler) Legal(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "legal", &pageData{Title: "Legal", Legal: h.legal})
}

// Reset removes every document and returns to the search page
func (h *PageHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Reset(r.Context()); err != nil {
		h.renderError(w, r, "error", &pageData{Title: "Reset failed"}, err)
		return
	}
	http.Redirect(w, r, "search", http.StatusMovedPermanently)
}

func (h *PageHandler) renderError(w http.ResponseWriter, r *http.Request, page string, data *pageData, err error) {
	status := apperrors.GetStatusCode(err)
	logServerError(h.logger, r, status, err)
	data.Error = apperrors.PublicMessage(err)
	h.render(w, status, page, data)
}

func (h *PageHandler) render(w http.ResponseWriter, status int, page string, data *pageData) {
	data.ResetEnabled = h.resetEnabled

	var buf bytes.Buffer
	if err := h.pages[page].ExecuteTemplate(&buf, "layout", data); err != nil {
		h.logger.Error("Failed to render page", err, "page", page)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

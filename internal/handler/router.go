package handler

import (
	"net/http"
	"time"

	"pdf-intake/internal/domain"

	"github.com/go-chi/httprate"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// RouterOptions holds the settings that change which routes are served
type RouterOptions struct {
	AllowedOrigins  []string
	UploadRateLimit int // uploads per client IP per minute, 0 disables
	ResetEnabled    bool
}

// NewRouter creates a new HTTP router with all routes configured
func NewRouter(
	pages *PageHandler,
	documents *DocumentHandler,
	opts RouterOptions,
	logger domain.Logger,
) http.Handler {
	router := mux.NewRouter()
	notFound := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})

	limitUploads := func(h http.HandlerFunc) http.Handler { return h }
	if opts.UploadRateLimit > 0 {
		limiter := httprate.LimitByIP(opts.UploadRateLimit, time.Minute)
		limitUploads = func(h http.HandlerFunc) http.Handler { return limiter(h) }
	}

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok","service":"pdf-intake"}`))
	}).Methods("GET")

	// HTML pages
	router.HandleFunc("/", pages.Index).Methods("GET")
	router.HandleFunc("/add", pages.AddForm).Methods("GET")
	router.Handle("/add", limitUploads(pages.Add)).Methods("POST")
	router.HandleFunc("/search", pages.Search).Methods("GET")
	router.HandleFunc("/download/{id}", pages.Download).Methods("GET")
	router.HandleFunc("/legal", pages.Legal).Methods("GET")
	if opts.ResetEnabled {
		router.HandleFunc("/reset", pages.Reset).Methods("GET")
	}

	// API prefix
	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/documents", documents.SearchDocuments).Methods("GET")
	api.Handle("/documents", limitUploads(documents.UploadDocument)).Methods("POST")
	api.HandleFunc("/documents/{id}/download", documents.DownloadDocument).Methods("GET")
	if opts.ResetEnabled {
		api.HandleFunc("/documents", documents.ResetDocuments).Methods("DELETE")
	} else {
		// Disabled reset answers like GET /reset does, not with 405.
		api.Handle("/documents", notFound).Methods("DELETE")
	}

	router.NotFoundHandler = notFound

	// Configure CORS
	c := cors.New(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			RequestIDHeader,
		},
		ExposedHeaders: []string{
			"Content-Disposition",
			RequestIDHeader,
		},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	})

	var handler http.Handler = c.Handler(router)
	handler = Recover(logger)(handler)
	handler = AccessLog(logger)(handler)
	return RequestID(handler)
}

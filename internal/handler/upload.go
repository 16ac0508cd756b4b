package handler

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"pdf-intake/internal/domain"
	apperrors "pdf-intake/pkg/errors"

	"github.com/dustin/go-humanize"
)

const (
	// multipartMemory is how much of a multipart body is buffered in memory
	// before parts spill to temporary files.
	multipartMemory = 32 << 20
	// multipartOverhead allows for form fields and part headers on top of the file.
	multipartOverhead = 1 << 20
)

// readUpload parses the multipart form and returns the uploaded file. The
// file is read from the "upload" field, falling back to "file". The returned
// cleanup func must be called once the upload has been consumed.
func readUpload(w http.ResponseWriter, r *http.Request, maxFileSize int64) (*domain.Upload, func(), error) {
	noop := func() {}
	if maxFileSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxFileSize+multipartOverhead)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return nil, noop, apperrors.NewValidationError(
				"File too large",
				"maximum size is "+humanize.IBytes(uint64(maxFileSize)),
			)
		case errors.Is(err, http.ErrNotMultipart):
			return nil, noop, apperrors.NewValidationError("No file uploaded")
		default:
			return nil, noop, apperrors.NewValidationError("Invalid upload", err.Error())
		}
	}
	removeForm := func() { _ = r.MultipartForm.RemoveAll() }

	file, header, err := formFile(r, "upload", "file")
	if err != nil {
		removeForm()
		return nil, noop, apperrors.NewValidationError("No file uploaded")
	}

	upload := &domain.Upload{
		Name:        header.Filename,
		Size:        header.Size,
		Content:     file,
		Description: r.FormValue("description"),
	}
	return upload, func() {
		_ = file.Close()
		removeForm()
	}, nil
}

func formFile(r *http.Request, fields ...string) (multipart.File, *multipart.FileHeader, error) {
	err := http.ErrMissingFile
	for _, field := range fields {
		var (
			file   multipart.File
			header *multipart.FileHeader
		)
		file, header, err = r.FormFile(field)
		if err == nil {
			return file, header, nil
		}
		if !errors.Is(err, http.ErrMissingFile) {
			return nil, nil, err
		}
	}
	return nil, nil, err
}

// searchQuery reads q, telling an absent parameter apart from an empty one
func searchQuery(r *http.Request) domain.SearchQuery {
	values, present := r.URL.Query()["q"]
	if !present {
		return domain.SearchQuery{}
	}
	text := ""
	if len(values) > 0 {
		text = values[0]
	}
	return domain.SearchQuery{Text: text, Present: true}
}

// writeObject streams a stored PDF as an attachment
func writeObject(w http.ResponseWriter, obj *domain.StoredObject) error {
	defer obj.Body.Close()

	h := w.Header()
	h.Set("Content-Type", "application/pdf")
	h.Set("Content-Disposition", contentDisposition(obj.Name))
	h.Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	h.Set("Expires", "0")
	h.Set("Cache-Control", "must-revalidate")
	h.Set("Pragma", "public")
	w.WriteHeader(http.StatusOK)

	_, err := io.Copy(w, obj.Body)
	return err
}

var dispositionEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\r", "", "\n", "")

func contentDisposition(name string) string {
	return `attachment; filename="` + dispositionEscaper.Replace(name) + `"`
}

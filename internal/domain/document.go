package domain

import (
	"context"
	"io"
	"strings"
	"time"
)

// ContainerName is the default object storage container for archived PDFs.
const ContainerName = "documents"

// Document is the metadata record kept for every uploaded PDF.
// Name is the trimmed original file name and doubles as the object key.
type Document struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Keywords    []string  `json:"keywords"`
	Description string    `json:"description"`
	Title       string    `json:"title,omitempty"`
	Author      string    `json:"author,omitempty"`
	PageCount   int       `json:"page_count,omitempty"`
	FileSize    int64     `json:"file_size"`
	Updated     time.Time `json:"updated"`
}

// Validate checks the fields every stored record must carry.
func (d *Document) Validate() error {
	if d.ID == "" {
		return &ValidationError{Field: "id", Message: "document ID is required"}
	}
	if strings.TrimSpace(d.Name) == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	if d.FileSize < 0 {
		return &ValidationError{Field: "file_size", Message: "file size cannot be negative"}
	}
	if d.PageCount < 0 {
		return &ValidationError{Field: "page_count", Message: "page count cannot be negative"}
	}
	return nil
}

// Upload is a single file received from a client.
type Upload struct {
	Name        string
	Size        int64
	Content     io.Reader
	Description string
}

// SearchQuery describes a search request. Present is false when the client
// did not send a query at all, which yields no results.
type SearchQuery struct {
	Text    string
	Present bool
}

// StoredObject is a blob opened for reading.
type StoredObject struct {
	Name string
	Size int64
	Body io.ReadCloser
}

// PDFInfo is the metadata read from the PDF itself.
type PDFInfo struct {
	Title     string
	Author    string
	PageCount int
}

// DocumentRepository defines persistence operations for document records.
type DocumentRepository interface {
	FindByName(ctx context.Context, name string) (*Document, error)
	Save(ctx context.Context, document *Document) error
	Search(ctx context.Context, query string) ([]*Document, error)
	List(ctx context.Context) ([]*Document, error)
	DeleteAll(ctx context.Context) error
}

// BlobStore archives original files in object storage.
type BlobStore interface {
	EnsureContainer(ctx context.Context) error
	Put(ctx context.Context, name string, content io.Reader, size int64, contentType string) error
	Get(ctx context.Context, name string) (*StoredObject, error)
	Clear(ctx context.Context) error
}

// Converter turns a PDF into normalized plain text.
type Converter interface {
	Convert(ctx context.Context, name string, pdf []byte) (string, error)
}

// KeywordExtractor ranks the keywords of a text, most relevant first.
type KeywordExtractor interface {
	ExtractKeywords(ctx context.Context, text string) ([]string, error)
}

// PDFInspector reads embedded metadata from a PDF.
type PDFInspector interface {
	Inspect(pdf []byte) (*PDFInfo, error)
}

// IntakeService defines the use-case operations exposed over HTTP.
type IntakeService interface {
	Upload(ctx context.Context, upload *Upload) (*Document, error)
	Search(ctx context.Context, query SearchQuery) ([]*Document, error)
	Download(ctx context.Context, name string) (*StoredObject, error)
	Reset(ctx context.Context) error
}

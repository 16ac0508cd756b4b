package handler

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"sync"
	"testing"
	"time"

	"pdf-intake/internal/domain"
	apperrors "pdf-intake/pkg/errors"
)

// Mock logger used by handler package tests.
type MockHandlerLogger struct{}

func NewMockHandlerLogger() domain.Logger {
	return &MockHandlerLogger{}
}

func (l *MockHandlerLogger) Info(msg string, fields ...interface{})             {}
func (l *MockHandlerLogger) Error(msg string, err error, fields ...interface{}) {}
func (l *MockHandlerLogger) Debug(msg string, fields ...interface{})            {}
func (l *MockHandlerLogger) Warn(msg string, fields ...interface{})             {}

// recordingLogger keeps messages so tests can assert on what was logged.
type recordingLogger struct {
	mu     sync.Mutex
	infos  []string
	warns  []string
	errors []string
}

func (l *recordingLogger) Info(msg string, fields ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infos = append(l.infos, msg)
}

func (l *recordingLogger) Error(msg string, err error, fields ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, msg)
}

func (l *recordingLogger) Debug(msg string, fields ...interface{}) {}

func (l *recordingLogger) Warn(msg string, fields ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

type mockIntakeService struct {
	documents []*domain.Document
	objects   map[string][]byte

	uploadErr error
	searchErr error
	resetErr  error

	lastUpload *domain.Upload
	uploaded   []byte
	lastQuery  domain.SearchQuery
	resets     int
}

func newMockIntakeService() *mockIntakeService {
	return &mockIntakeService{objects: make(map[string][]byte)}
}

func (m *mockIntakeService) Upload(ctx context.Context, upload *domain.Upload) (*domain.Document, error) {
	m.lastUpload = upload
	if m.uploadErr != nil {
		return nil, m.uploadErr
	}
	data, err := io.ReadAll(upload.Content)
	if err != nil {
		return nil, err
	}
	m.uploaded = data
	doc := &domain.Document{
		ID:          "doc-1",
		Name:        upload.Name,
		Keywords:    []string{"cloud storage", "pricing"},
		Description: upload.Description,
		FileSize:    int64(len(data)),
		Updated:     time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	m.documents = append(m.documents, doc)
	m.objects[doc.Name] = data
	return doc, nil
}

func (m *mockIntakeService) Search(ctx context.Context, query domain.SearchQuery) ([]*domain.Document, error) {
	m.lastQuery = query
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if !query.Present {
		return []*domain.Document{}, nil
	}
	return m.documents, nil
}

func (m *mockIntakeService) Download(ctx context.Context, name string) (*domain.StoredObject, error) {
	data, ok := m.objects[name]
	if !ok {
		return nil, apperrors.NewNotFoundError("Document not found")
	}
	return &domain.StoredObject{Name: name, Size: int64(len(data)), Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (m *mockIntakeService) Reset(ctx context.Context) error {
	if m.resetErr != nil {
		return m.resetErr
	}
	m.resets++
	m.documents = nil
	m.objects = make(map[string][]byte)
	return nil
}

// multipartBody builds a form with one file part plus plain fields
func multipartBody(t *testing.T, field, filename string, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("failed to write field: %v", err)
		}
	}
	if field != "" {
		part, err := mw.CreateFormFile(field, filename)
		if err != nil {
			t.Fatalf("failed to create file part: %v", err)
		}
		if _, err := part.Write(content); err != nil {
			t.Fatalf("failed to write file part: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

var samplePDF = []byte("%PDF-1.4\n%%EOF\n")

func newTestRouter(t *testing.T, svc domain.IntakeService, opts RouterOptions) http.Handler {
	t.Helper()
	logger := NewMockHandlerLogger()
	pages, err := NewPageHandler(svc, 1<<20, opts.ResetEnabled, logger)
	if err != nil {
		t.Fatalf("failed to create page handler: %v", err)
	}
	return NewRouter(pages, NewDocumentHandler(svc, 1<<20, logger), opts, logger)
}

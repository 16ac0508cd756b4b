package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"time"

	"pdf-intake/internal/domain"
	apperrors "pdf-intake/pkg/errors"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const pdfMimeType = "application/pdf"

// DocumentService runs the intake pipeline: validate, convert, extract
// keywords, save the record, archive the original.
type DocumentService struct {
	repo        domain.DocumentRepository
	storage     domain.BlobStore
	converter   domain.Converter
	keywords    domain.KeywordExtractor
	inspector   domain.PDFInspector
	maxFileSize int64
	logger      domain.Logger

	now   func() time.Time
	newID func() string
}

func NewDocumentService(
	repo domain.DocumentRepository,
	storage domain.BlobStore,
	converter domain.Converter,
	keywords domain.KeywordExtractor,
	inspector domain.PDFInspector,
	maxFileSize int64,
	logger domain.Logger,
) *DocumentService {
	return &DocumentService{
		repo:        repo,
		storage:     storage,
		converter:   converter,
		keywords:    keywords,
		inspector:   inspector,
		maxFileSize: maxFileSize,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
		newID:       func() string { return uuid.New().String() },
	}
}

// Upload processes one uploaded PDF. Steps run strictly in order and the
// first failure aborts the upload.
func (s *DocumentService) Upload(ctx context.Context, upload *domain.Upload) (*domain.Document, error) {
	if upload == nil || upload.Content == nil {
		return nil, apperrors.NewValidationError("No file uploaded")
	}

	name := CleanName(upload.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("No file uploaded")
	}

	data, err := s.readUpload(upload.Content, upload.Size)
	if err != nil {
		return nil, err
	}

	if mtype := mimetype.Detect(data); !mtype.Is(pdfMimeType) {
		return nil, apperrors.NewValidationError("Invalid file format", mtype.String())
	}

	info, err := s.inspector.Inspect(data)
	if err != nil {
		s.logger.Warn("PDF inspection failed", "name", name, "error", err)
		info = &domain.PDFInfo{}
	}

	text, err := s.converter.Convert(ctx, name, data)
	if err != nil {
		s.logger.Error("Document conversion failed", err, "name", name)
		return nil, asAppError(err, "Document conversion failed")
	}

	keywords := []string{}
	if plain := StripTags(text); plain != "" {
		keywords, err = s.keywords.ExtractKeywords(ctx, plain)
		if err != nil {
			s.logger.Error("Keyword extraction failed", err, "name", name)
			return nil, asAppError(err, "Keyword extraction failed")
		}
	} else {
		s.logger.Warn("Conversion produced no text, skipping keyword extraction", "name", name)
	}

	doc, err := s.saveRecord(ctx, name, upload.Description, keywords, info, int64(len(data)))
	if err != nil {
		return nil, err
	}

	if err := s.storage.EnsureContainer(ctx); err != nil {
		s.logger.Error("Failed to prepare storage container", err, "name", name)
		return nil, apperrors.NewInternalError("Failed to store document", err)
	}
	if err := s.storage.Put(ctx, name, bytes.NewReader(data), int64(len(data)), pdfMimeType); err != nil {
		s.logger.Error("Failed to store document", err, "name", name)
		return nil, apperrors.NewInternalError("Failed to store document", err)
	}

	s.logger.Info("Document processed",
		"id", doc.ID,
		"name", doc.Name,
		"size", doc.FileSize,
		"pages", doc.PageCount,
		"keywords", len(doc.Keywords),
	)
	return doc, nil
}

// Search returns no results when no query was sent, every document for a
// blank query and full-text matches otherwise.
func (s *DocumentService) Search(ctx context.Context, query domain.SearchQuery) ([]*domain.Document, error) {
	if !query.Present {
		return []*domain.Document{}, nil
	}

	var (
		documents []*domain.Document
		err       error
	)
	if text := StripTags(query.Text); text != "" {
		documents, err = s.repo.Search(ctx, text)
	} else {
		documents, err = s.repo.List(ctx)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to search documents", err)
	}
	if documents == nil {
		documents = []*domain.Document{}
	}
	return documents, nil
}

// Download opens the archived original stored under name
func (s *DocumentService) Download(ctx context.Context, name string) (*domain.StoredObject, error) {
	name = CleanName(name)
	if name == "" {
		return nil, apperrors.NewNotFoundError("Document not found")
	}

	obj, err := s.storage.Get(ctx, name)
	if errors.Is(err, domain.ErrObjectNotFound) {
		return nil, apperrors.NewNotFoundError("Document not found")
	}
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to download document", err)
	}
	return obj, nil
}

// Reset removes every document record and every archived original
func (s *DocumentService) Reset(ctx context.Context) error {
	if err := s.repo.DeleteAll(ctx); err != nil {
		return apperrors.NewInternalError("Failed to delete documents", err)
	}
	if err := s.storage.Clear(ctx); err != nil {
		return apperrors.NewInternalError("Failed to delete stored files", err)
	}
	s.logger.Warn("All documents and stored files removed")
	return nil
}

// readUpload reads the whole upload. A declared size over the limit is
// rejected before anything is read.
func (s *DocumentService) readUpload(content io.Reader, declared int64) ([]byte, error) {
	limit := s.maxFileSize
	if limit > 0 && declared > limit {
		return nil, tooLarge(limit)
	}
	if limit <= 0 {
		data, err := io.ReadAll(content)
		if err != nil {
			return nil, apperrors.NewValidationError("Failed to read upload", err.Error())
		}
		if len(data) == 0 {
			return nil, apperrors.NewValidationError("No file uploaded")
		}
		return data, nil
	}

	data, err := io.ReadAll(io.LimitReader(content, limit+1))
	if err != nil {
		return nil, apperrors.NewValidationError("Failed to read upload", err.Error())
	}
	if int64(len(data)) > limit {
		return nil, tooLarge(limit)
	}
	if len(data) == 0 {
		return nil, apperrors.NewValidationError("No file uploaded")
	}
	return data, nil
}

func tooLarge(limit int64) error {
	return apperrors.NewValidationError("File too large", "maximum size is "+humanize.IBytes(uint64(limit)))
}

// saveRecord upserts the record keyed by name, reusing the ID of an earlier upload.
func (s *DocumentService) saveRecord(
	ctx context.Context,
	name string,
	description string,
	keywords []string,
	info *domain.PDFInfo,
	size int64,
) (*domain.Document, error) {
	id := ""
	existing, err := s.repo.FindByName(ctx, name)
	switch {
	case err == nil:
		id = existing.ID
	case errors.Is(err, domain.ErrDocumentNotFound):
		id = s.newID()
	default:
		s.logger.Error("Failed to look up document", err, "name", name)
		return nil, apperrors.NewInternalError("Failed to save document", err)
	}

	doc := &domain.Document{
		ID:          id,
		Name:        name,
		Keywords:    keywords,
		Description: StripTags(description),
		Title:       info.Title,
		Author:      info.Author,
		PageCount:   info.PageCount,
		FileSize:    size,
		Updated:     s.now(),
	}

	if err := s.repo.Save(ctx, doc); err != nil {
		return nil, apperrors.NewInternalError("Failed to save document", err)
	}
	return doc, nil
}

// asAppError keeps errors that already carry an HTTP mapping and wraps the rest.
func asAppError(err error, message string) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.NewProcessingError(message, err)
}

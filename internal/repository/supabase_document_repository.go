package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"pdf-intake/internal/domain"

	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"
)

const (
	docsTable   = "docs"
	docsColumns = "id,name,keywords,description,title,author,page_count,file_size,updated"
)

// docRow is the wire shape of a docs row in PostgREST responses.
type docRow struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Keywords    []string  `json:"keywords"`
	Description string    `json:"description"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	PageCount   int       `json:"page_count"`
	FileSize    int64     `json:"file_size"`
	Updated     time.Time `json:"updated"`
}

func (r docRow) toDocument() *domain.Document {
	keywords := r.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	return &domain.Document{
		ID:          r.ID,
		Name:        r.Name,
		Keywords:    keywords,
		Description: r.Description,
		Title:       r.Title,
		Author:      r.Author,
		PageCount:   r.PageCount,
		FileSize:    r.FileSize,
		Updated:     r.Updated,
	}
}

func rowFromDocument(d *domain.Document) docRow {
	keywords := d.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	return docRow{
		ID:          d.ID,
		Name:        d.Name,
		Keywords:    keywords,
		Description: d.Description,
		Title:       d.Title,
		Author:      d.Author,
		PageCount:   d.PageCount,
		FileSize:    d.FileSize,
		Updated:     d.Updated.UTC(),
	}
}

// SupabaseDocumentRepository implements the domain.DocumentRepository interface
type SupabaseDocumentRepository struct {
	supabaseClient domain.SupabaseClient
	logger         domain.Logger
}

// NewSupabaseDocumentRepository creates a new Supabase document repository
func NewSupabaseDocumentRepository(supabaseClient domain.SupabaseClient, logger domain.Logger) domain.DocumentRepository {
	return &SupabaseDocumentRepository{
		supabaseClient: supabaseClient,
		logger:         logger,
	}
}

func (r *SupabaseDocumentRepository) client() (*supabase.Client, error) {
	if err := r.supabaseClient.Initialize(); err != nil {
		return nil, err
	}
	client := r.supabaseClient.DB()
	if client == nil {
		return nil, fmt.Errorf("supabase client not initialized")
	}
	return client, nil
}

// FindByName returns the record stored under name or domain.ErrDocumentNotFound
func (r *SupabaseDocumentRepository) FindByName(ctx context.Context, name string) (*domain.Document, error) {
	client, err := r.client()
	if err != nil {
		return nil, err
	}

	data, _, err := client.From(docsTable).
		Select(docsColumns, "", false).
		Eq("name", name).
		Limit(1, "").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to find document: %w", err)
	}

	rows, err := decodeRows(data)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.ErrDocumentNotFound
	}
	return rows[0].toDocument(), nil
}

// Save inserts the document or replaces the row with the same ID
func (r *SupabaseDocumentRepository) Save(ctx context.Context, document *domain.Document) error {
	if err := document.Validate(); err != nil {
		return err
	}

	client, err := r.client()
	if err != nil {
		return err
	}

	_, _, err = client.From(docsTable).
		Insert(rowFromDocument(document), true, "id", "minimal", "").
		Execute()
	if err != nil {
		r.logger.Error("Failed to save document in Supabase", err, "id", document.ID, "name", document.Name)
		return fmt.Errorf("failed to save document: %w", err)
	}

	r.logger.Info("Document saved", "id", document.ID, "name", document.Name, "keywords", len(document.Keywords))
	return nil
}

// Search runs a websearch-style full-text query against the generated fts column
func (r *SupabaseDocumentRepository) Search(ctx context.Context, query string) ([]*domain.Document, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return r.List(ctx)
	}

	client, err := r.client()
	if err != nil {
		return nil, err
	}

	data, _, err := client.From(docsTable).
		Select(docsColumns, "", false).
		TextSearch("fts", query, "english", "websearch").
		Order("updated", &postgrest.OrderOpts{Ascending: false}).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to search documents: %w", err)
	}

	return toDocuments(data)
}

// List returns every document, most recently updated first
func (r *SupabaseDocumentRepository) List(ctx context.Context) ([]*domain.Document, error) {
	client, err := r.client()
	if err != nil {
		return nil, err
	}

	data, _, err := client.From(docsTable).
		Select(docsColumns, "", false).
		Order("updated", &postgrest.OrderOpts{Ascending: false}).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	return toDocuments(data)
}

// DeleteAll removes every document record
func (r *SupabaseDocumentRepository) DeleteAll(ctx context.Context) error {
	client, err := r.client()
	if err != nil {
		return err
	}

	// PostgREST refuses unfiltered deletes, so filter on a condition every row satisfies.
	_, _, err = client.From(docsTable).
		Delete("minimal", "").
		Neq("id", "").
		Execute()
	if err != nil {
		return fmt.Errorf("failed to delete documents: %w", err)
	}

	r.logger.Info("All documents deleted")
	return nil
}

func decodeRows(data []byte) ([]docRow, error) {
	var rows []docRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return rows, nil
}

func toDocuments(data []byte) ([]*domain.Document, error) {
	rows, err := decodeRows(data)
	if err != nil {
		return nil, err
	}
	documents := make([]*domain.Document, 0, len(rows))
	for _, row := range rows {
		documents = append(documents, row.toDocument())
	}
	return documents, nil
}

package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"pdf-intake/internal/domain"

	"github.com/lib/pq"
)

//go:embed schema.sql
var schemaSQL string

// PostgresDocumentRepository stores document records directly in Postgres.
type PostgresDocumentRepository struct {
	db     *sql.DB
	logger domain.Logger
}

// NewPostgresDocumentRepository creates a repository on an open database handle
func NewPostgresDocumentRepository(db *sql.DB, logger domain.Logger) *PostgresDocumentRepository {
	return &PostgresDocumentRepository{db: db, logger: logger}
}

// OpenPostgres opens and pings the database at dsn
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping failed: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the docs table and its indexes when missing
func (r *PostgresDocumentRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

const selectDocs = `
	SELECT id, name, keywords, description, title, author, page_count, file_size, updated
	FROM docs`

func (r *PostgresDocumentRepository) FindByName(ctx context.Context, name string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, selectDocs+` WHERE name = $1`, name)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find document: %w", err)
	}
	return doc, nil
}

func (r *PostgresDocumentRepository) Save(ctx context.Context, document *domain.Document) error {
	if err := document.Validate(); err != nil {
		return err
	}

	keywords := document.Keywords
	if keywords == nil {
		keywords = []string{}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO docs (id, name, keywords, description, title, author, page_count, file_size, updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			keywords = EXCLUDED.keywords,
			description = EXCLUDED.description,
			title = EXCLUDED.title,
			author = EXCLUDED.author,
			page_count = EXCLUDED.page_count,
			file_size = EXCLUDED.file_size,
			updated = EXCLUDED.updated
	`,
		document.ID,
		document.Name,
		pq.Array(keywords),
		document.Description,
		document.Title,
		document.Author,
		document.PageCount,
		document.FileSize,
		document.Updated.UTC(),
	)
	if err != nil {
		r.logger.Error("Failed to save document in Postgres", err, "id", document.ID, "name", document.Name)
		return fmt.Errorf("failed to save document: %w", err)
	}

	r.logger.Info("Document saved", "id", document.ID, "name", document.Name, "keywords", len(keywords))
	return nil
}

func (r *PostgresDocumentRepository) Search(ctx context.Context, query string) ([]*domain.Document, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return r.List(ctx)
	}
	return r.query(ctx, selectDocs+`
		WHERE fts @@ websearch_to_tsquery('english', $1)
		ORDER BY updated DESC`, query)
}

func (r *PostgresDocumentRepository) List(ctx context.Context) ([]*domain.Document, error) {
	return r.query(ctx, selectDocs+` ORDER BY updated DESC`)
}

func (r *PostgresDocumentRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM docs`); err != nil {
		return fmt.Errorf("failed to delete documents: %w", err)
	}
	r.logger.Info("All documents deleted")
	return nil
}

func (r *PostgresDocumentRepository) query(ctx context.Context, q string, args ...interface{}) ([]*domain.Document, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	documents := make([]*domain.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		documents = append(documents, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return documents, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(s scanner) (*domain.Document, error) {
	var doc domain.Document
	var keywords []string
	if err := s.Scan(
		&doc.ID,
		&doc.Name,
		pq.Array(&keywords),
		&doc.Description,
		&doc.Title,
		&doc.Author,
		&doc.PageCount,
		&doc.FileSize,
		&doc.Updated,
	); err != nil {
		return nil, err
	}
	if keywords == nil {
		keywords = []string{}
	}
	doc.Keywords = keywords
	return &doc, nil
}

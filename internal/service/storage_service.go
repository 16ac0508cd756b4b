package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"

	"pdf-intake/internal/domain"

	storage_go "github.com/supabase-community/storage-go"
)

const storageListPage = 100

// SupabaseStorage archives files in a Supabase Storage bucket
type SupabaseStorage struct {
	supabaseClient domain.SupabaseClient
	container      string
	logger         domain.Logger
}

// NewStorageService creates a blob store on the shared Supabase client
func NewStorageService(
	supabaseClient domain.SupabaseClient,
	container string,
	logger domain.Logger,
) *SupabaseStorage {
	if container == "" {
		container = domain.ContainerName
	}
	return &SupabaseStorage{
		supabaseClient: supabaseClient,
		container:      container,
		logger:         logger,
	}
}

func (s *SupabaseStorage) storage() (*storage_go.Client, error) {
	if err := s.supabaseClient.Initialize(); err != nil {
		return nil, err
	}
	client := s.supabaseClient.DB()
	if client == nil || client.Storage == nil {
		return nil, fmt.Errorf("supabase storage not initialized")
	}
	return client.Storage, nil
}

// EnsureContainer creates the bucket when it does not exist yet
func (s *SupabaseStorage) EnsureContainer(ctx context.Context) error {
	storage, err := s.storage()
	if err != nil {
		return err
	}

	buckets, err := storage.ListBuckets()
	if err != nil {
		return fmt.Errorf("failed to list buckets: %w", err)
	}
	for _, b := range buckets {
		if b.Name == s.container {
			return nil
		}
	}

	if _, err := storage.CreateBucket(s.container, storage_go.BucketOptions{Public: false}); err != nil {
		return fmt.Errorf("failed to create bucket %q: %w", s.container, err)
	}
	s.logger.Info("Storage bucket created", "bucket", s.container)
	return nil
}

// Put uploads content under name, replacing an existing object.
// Each upload runs on its own client; the shared one keeps JSON headers.
func (s *SupabaseStorage) Put(
	ctx context.Context,
	name string,
	content io.Reader,
	size int64,
	contentType string,
) error {
	uploader, err := s.supabaseClient.NewStorageClient()
	if err != nil {
		return err
	}

	upsert := true
	_, err = uploader.UploadFile(s.container, objectPath(name), content, storage_go.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return fmt.Errorf("storage upload failed: %w", err)
	}

	s.logger.Debug("Object stored", "bucket", s.container, "name", name, "size", size)
	return nil
}

// Get downloads the object stored under name
func (s *SupabaseStorage) Get(ctx context.Context, name string) (*domain.StoredObject, error) {
	storage, err := s.storage()
	if err != nil {
		return nil, err
	}

	data, err := storage.DownloadFile(s.container, objectPath(name))
	if err == nil {
		err = storageErrorBody(data)
	}
	if err != nil {
		if isStorageNotFound(err) {
			return nil, domain.ErrObjectNotFound
		}
		return nil, fmt.Errorf("storage download failed: %w", err)
	}

	return &domain.StoredObject{
		Name: name,
		Size: int64(len(data)),
		Body: io.NopCloser(bytes.NewReader(data)),
	}, nil
}

// Clear removes every object in the bucket, one listing page at a time
func (s *SupabaseStorage) Clear(ctx context.Context) error {
	storage, err := s.storage()
	if err != nil {
		return err
	}

	removed := 0
	previous := ""
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		files, err := storage.ListFiles(s.container, "", storage_go.FileSearchOptions{Limit: storageListPage})
		if err != nil {
			if isStorageNotFound(err) {
				return nil
			}
			return fmt.Errorf("failed to list objects: %w", err)
		}
		if len(files) == 0 {
			break
		}

		paths := make([]string, 0, len(files))
		for _, f := range files {
			paths = append(paths, f.Name)
		}
		// A listing that starts where the last one did means nothing was removed.
		if paths[0] == previous {
			return fmt.Errorf("failed to remove objects: %q is still listed", previous)
		}
		previous = paths[0]
		if _, err := storage.RemoveFile(s.container, paths); err != nil {
			return fmt.Errorf("failed to remove objects: %w", err)
		}
		removed += len(paths)

		if len(files) < storageListPage {
			break
		}
	}

	s.logger.Info("Storage bucket cleared", "bucket", s.container, "removed", removed)
	return nil
}

// objectPath escapes name for use as the last segment of an object URL.
// Listing and removal take raw names in JSON bodies.
func objectPath(name string) string {
	return url.PathEscape(name)
}

// storageErrorBody detects an error payload returned in place of the object.
// Only PDFs are stored, so a JSON object body is never a real file.
func storageErrorBody(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}
	var payload struct {
		StatusCode string `json:"statusCode"`
		Error      string `json:"error"`
		Message    string `json:"message"`
	}
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		return nil
	}
	if payload.Error == "" && payload.Message == "" {
		return nil
	}
	return fmt.Errorf("storage error %s: %s %s", payload.StatusCode, payload.Error, payload.Message)
}

func isStorageNotFound(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") || strings.Contains(msg, "404")
}

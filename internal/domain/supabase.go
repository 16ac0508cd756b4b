package domain

import (
	storage_go "github.com/supabase-community/storage-go"
	"github.com/supabase-community/supabase-go"
)

// SupabaseClient exposes the shared Supabase connection used by the
// document repository and the storage-backed blob store.
type SupabaseClient interface {
	Initialize() error
	DB() *supabase.Client
	// NewStorageClient returns a storage client owned by the caller.
	// Uploads set headers on the client, so each upload needs its own.
	NewStorageClient() (*storage_go.Client, error)
}

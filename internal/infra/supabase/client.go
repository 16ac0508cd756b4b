package supabase

import (
	"fmt"
	"strings"
	"sync"

	"pdf-intake/internal/domain"

	storage_go "github.com/supabase-community/storage-go"
	"github.com/supabase-community/supabase-go"
)

const storagePath = "/storage/v1"

// SupabaseClient implements the domain.SupabaseClient interface
type SupabaseClient struct {
	mu     sync.Mutex
	client *supabase.Client
	config domain.Config
	logger domain.Logger
}

// NewSupabaseClient creates a new Supabase client instance
func NewSupabaseClient(config domain.Config, logger domain.Logger) domain.SupabaseClient {
	return &SupabaseClient{
		config: config,
		logger: logger,
	}
}

// DB returns the underlying client, nil until Initialize succeeded
func (s *SupabaseClient) DB() *supabase.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client
}

// Initialize establishes a connection to Supabase.
// The service key is used so row-level security does not hide records from the server.
func (s *SupabaseClient) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		return nil
	}

	supabaseURL := s.config.GetSupabaseURL()
	supabaseKey := s.config.GetSupabaseKey()

	if supabaseURL == "" || supabaseKey == "" {
		return fmt.Errorf("supabase URL and key must be provided")
	}

	client, err := supabase.NewClient(supabaseURL, supabaseKey, &supabase.ClientOptions{})
	if err != nil {
		return fmt.Errorf("failed to create Supabase client: %w", err)
	}

	s.client = client
	s.logger.Info("Supabase client initialized successfully", "url", supabaseURL)
	return nil
}

// NewStorageClient creates a storage client that shares nothing with DB()
func (s *SupabaseClient) NewStorageClient() (*storage_go.Client, error) {
	supabaseURL := s.config.GetSupabaseURL()
	supabaseKey := s.config.GetSupabaseKey()
	if supabaseURL == "" || supabaseKey == "" {
		return nil, fmt.Errorf("supabase URL and key must be provided")
	}

	return storage_go.NewClient(
		strings.TrimSuffix(supabaseURL, "/")+storagePath,
		supabaseKey,
		map[string]string{"apikey": supabaseKey},
	), nil
}

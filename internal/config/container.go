package config

import (
	"context"
	"database/sql"
	"fmt"

	"pdf-intake/internal/domain"
	supabaseinfra "pdf-intake/internal/infra/supabase"
	"pdf-intake/internal/repository"
	"pdf-intake/internal/service"
	"pdf-intake/pkg/logger"
)

// Container holds all application dependencies
type Container struct {
	Config           domain.Config
	Logger           domain.Logger
	SupabaseClient   domain.SupabaseClient
	DocumentRepo     domain.DocumentRepository
	BlobStore        domain.BlobStore
	Converter        domain.Converter
	KeywordExtractor domain.KeywordExtractor
	DocumentService  domain.IntakeService

	db *sql.DB
}

// NewContainer creates a new dependency injection container from the environment
func NewContainer(ctx context.Context) (*Container, error) {
	cfg := NewConfig()
	return NewContainerWith(ctx, cfg, logger.NewLogger(cfg.GetLogLevel(), cfg.GetLogFormat()))
}

// NewContainerWith wires the backends selected by cfg
func NewContainerWith(ctx context.Context, cfg domain.Config, appLogger domain.Logger) (*Container, error) {
	c := &Container{
		Config: cfg,
		Logger: appLogger,
	}

	// The Supabase client connects lazily, so it is cheap to create even
	// when neither store uses it.
	c.SupabaseClient = supabaseinfra.NewSupabaseClient(cfg, appLogger)

	var err error
	if c.DocumentRepo, err = c.newDocumentRepository(ctx); err != nil {
		return nil, err
	}
	if c.BlobStore, err = c.newBlobStore(); err != nil {
		c.Close()
		return nil, err
	}
	if c.Converter, err = c.newConverter(); err != nil {
		c.Close()
		return nil, err
	}
	if c.KeywordExtractor, err = c.newKeywordExtractor(); err != nil {
		c.Close()
		return nil, err
	}

	c.DocumentService = service.NewDocumentService(
		c.DocumentRepo,
		c.BlobStore,
		c.Converter,
		c.KeywordExtractor,
		service.NewPDFProcessor(appLogger),
		cfg.GetMaxFileSize(),
		appLogger,
	)

	appLogger.Info("Container initialized",
		"document_store", cfg.GetDocumentStore(),
		"blob_store", cfg.GetBlobStore(),
		"converter", cfg.GetConverter(),
		"keyword_extractor", cfg.GetKeywordExtractor(),
	)
	return c, nil
}

func (c *Container) newDocumentRepository(ctx context.Context) (domain.DocumentRepository, error) {
	switch c.Config.GetDocumentStore() {
	case "supabase":
		return repository.NewSupabaseDocumentRepository(c.SupabaseClient, c.Logger), nil
	case "postgres":
		db, err := repository.OpenPostgres(ctx, c.Config.GetDatabaseURL())
		if err != nil {
			return nil, err
		}
		repo := repository.NewPostgresDocumentRepository(db, c.Logger)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		c.db = db
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown DOCUMENT_STORE %q (want supabase or postgres)", c.Config.GetDocumentStore())
	}
}

func (c *Container) newBlobStore() (domain.BlobStore, error) {
	switch c.Config.GetBlobStore() {
	case "supabase":
		return service.NewStorageService(c.SupabaseClient, c.Config.GetStorageContainer(), c.Logger), nil
	case "s3":
		return service.NewS3Storage(service.S3Options{
			Endpoint:  c.Config.GetS3Endpoint(),
			AccessKey: c.Config.GetS3AccessKey(),
			SecretKey: c.Config.GetS3SecretKey(),
			Region:    c.Config.GetS3Region(),
			UseSSL:    c.Config.GetS3UseSSL(),
			Bucket:    c.Config.GetStorageContainer(),
		}, c.Logger)
	default:
		return nil, fmt.Errorf("unknown BLOB_STORE %q (want supabase or s3)", c.Config.GetBlobStore())
	}
}

func (c *Container) newConverter() (domain.Converter, error) {
	switch c.Config.GetConverter() {
	case "watson":
		if c.Config.GetConversionUser() == "" {
			c.Logger.Warn("CONVERSION_USER is empty, conversion requests will not be authenticated")
		}
		return service.NewConversionService(
			c.Config.GetConversionURL(),
			c.Config.GetConversionUser(),
			c.Config.GetConversionPass(),
			c.Config.GetConversionVersion(),
			c.Config.GetUpstreamTimeout(),
			c.Logger,
		), nil
	case "local":
		return service.NewPDFProcessor(c.Logger), nil
	default:
		return nil, fmt.Errorf("unknown CONVERTER %q (want watson or local)", c.Config.GetConverter())
	}
}

func (c *Container) newKeywordExtractor() (domain.KeywordExtractor, error) {
	switch c.Config.GetKeywordExtractor() {
	case "alchemy":
		if c.Config.GetAlchemyAPIKey() == "" {
			c.Logger.Warn("ALCHEMY_API_KEY is empty, keyword requests will be rejected")
		}
		return service.NewAlchemyKeywordService(
			c.Config.GetAlchemyURL(),
			c.Config.GetAlchemyAPIKey(),
			c.Config.GetMaxKeywords(),
			c.Config.GetUpstreamTimeout(),
			c.Logger,
		), nil
	case "openai":
		if c.Config.GetOpenAIAPIKey() == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY must be set when KEYWORD_EXTRACTOR=openai")
		}
		return service.NewOpenAIKeywordService(
			c.Config.GetOpenAIAPIKey(),
			c.Config.GetOpenAIBaseURL(),
			c.Config.GetOpenAIModel(),
			c.Config.GetMaxKeywords(),
			c.Config.GetUpstreamTimeout(),
			c.Logger,
		), nil
	default:
		return nil, fmt.Errorf("unknown KEYWORD_EXTRACTOR %q (want alchemy or openai)", c.Config.GetKeywordExtractor())
	}
}

// Close releases the database handle, if one was opened
func (c *Container) Close() {
	if c.db != nil {
		_ = c.db.Close()
		c.db = nil
	}
}

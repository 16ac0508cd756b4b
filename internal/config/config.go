package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"pdf-intake/internal/domain"
)

// AppConfig implements the domain.Config interface
type AppConfig struct {
	ServerPort      string
	MaxFileSize     int64
	LogLevel        string
	LogFormat       string
	AllowedOrigins  []string
	UploadRateLimit int
	ResetEnabled    bool
	UpstreamTimeout time.Duration

	DocumentStore string
	DatabaseURL   string
	SupabaseURL   string
	SupabaseKey   string

	BlobStore        string
	StorageContainer string
	S3Endpoint       string
	S3AccessKey      string
	S3SecretKey      string
	S3Region         string
	S3UseSSL         bool

	Converter         string
	ConversionURL     string
	ConversionUser    string
	ConversionPass    string
	ConversionVersion string

	KeywordExtractor string
	AlchemyURL       string
	AlchemyAPIKey    string
	OpenAIAPIKey     string
	OpenAIBaseURL    string
	OpenAIModel      string
	MaxKeywords      int
}

// NewConfig creates a new configuration instance with default values
func NewConfig() domain.Config {
	return &AppConfig{
		// Cloud Run (and many PaaS) provide the listening port via PORT.
		// Keep SERVER_PORT for local/dev compatibility.
		ServerPort:      getEnvOrDefault("PORT", getEnvOrDefault("SERVER_PORT", "8080")),
		MaxFileSize:     getEnvInt64OrDefault("MAX_FILE_SIZE", 50*1024*1024), // 50MB default
		LogLevel:        getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       getEnvOrDefault("LOG_FORMAT", "json"),
		AllowedOrigins:  getEnvListOrDefault("ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
		UploadRateLimit: int(getEnvInt64OrDefault("UPLOAD_RATE_LIMIT", 20)),
		ResetEnabled:    getEnvBoolOrDefault("ENABLE_RESET", true),
		// Conversion of large scans can take minutes.
		UpstreamTimeout: getEnvDurationOrDefault("UPSTREAM_TIMEOUT", 10*time.Minute),

		DocumentStore: strings.ToLower(getEnvOrDefault("DOCUMENT_STORE", "supabase")),
		DatabaseURL:   getEnvOrDefault("DATABASE_URL", ""),
		SupabaseURL:   getEnvOrDefault("SUPABASE_URL", ""),
		SupabaseKey:   getEnvOrDefault("SUPABASE_SERVICE_KEY", ""),

		BlobStore:        strings.ToLower(getEnvOrDefault("BLOB_STORE", "supabase")),
		StorageContainer: getEnvOrDefault("STORAGE_CONTAINER", domain.ContainerName),
		S3Endpoint:       getEnvOrDefault("S3_ENDPOINT", ""),
		S3AccessKey:      getEnvOrDefault("S3_ACCESS_KEY", ""),
		S3SecretKey:      getEnvOrDefault("S3_SECRET_KEY", ""),
		S3Region:         getEnvOrDefault("S3_REGION", ""),
		S3UseSSL:         getEnvBoolOrDefault("S3_USE_SSL", true),

		Converter:         strings.ToLower(getEnvOrDefault("CONVERTER", "watson")),
		ConversionURL:     getEnvOrDefault("CONVERSION_URL", "https://gateway.watsonplatform.net/document-conversion/api/"),
		ConversionUser:    getEnvOrDefault("CONVERSION_USER", ""),
		ConversionPass:    getEnvOrDefault("CONVERSION_PASS", ""),
		ConversionVersion: getEnvOrDefault("CONVERSION_VERSION", "2015-12-15"),

		KeywordExtractor: strings.ToLower(getEnvOrDefault("KEYWORD_EXTRACTOR", "alchemy")),
		AlchemyURL:       getEnvOrDefault("ALCHEMY_URL", "http://gateway-a.watsonplatform.net/calls/"),
		AlchemyAPIKey:    getEnvOrDefault("ALCHEMY_API_KEY", ""),
		OpenAIAPIKey:     getEnvOrDefault("OPENAI_API_KEY", ""),
		OpenAIBaseURL:    getEnvOrDefault("OPENAI_BASE_URL", ""),
		OpenAIModel:      getEnvOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		MaxKeywords:      int(getEnvInt64OrDefault("MAX_KEYWORDS", 50)),
	}
}

// GetServerPort returns the server port
func (c *AppConfig) GetServerPort() string {
	return c.ServerPort
}

// GetMaxFileSize returns the maximum allowed file size
func (c *AppConfig) GetMaxFileSize() int64 {
	return c.MaxFileSize
}

// GetLogLevel returns the logging level
func (c *AppConfig) GetLogLevel() string {
	return c.LogLevel
}

// GetLogFormat returns the log encoding (json or console)
func (c *AppConfig) GetLogFormat() string {
	return c.LogFormat
}

// GetAllowedOrigins returns the CORS origins
func (c *AppConfig) GetAllowedOrigins() []string {
	return c.AllowedOrigins
}

// GetUploadRateLimit returns the number of uploads allowed per client IP and minute
func (c *AppConfig) GetUploadRateLimit() int {
	return c.UploadRateLimit
}

// IsResetEnabled reports whether the reset route is served
func (c *AppConfig) IsResetEnabled() bool {
	return c.ResetEnabled
}

// GetUpstreamTimeout returns the timeout for calls to external APIs
func (c *AppConfig) GetUpstreamTimeout() time.Duration {
	return c.UpstreamTimeout
}

func (c *AppConfig) GetDocumentStore() string {
	return c.DocumentStore
}

func (c *AppConfig) GetDatabaseURL() string {
	return c.DatabaseURL
}

// GetSupabaseURL returns the Supabase URL
func (c *AppConfig) GetSupabaseURL() string {
	return c.SupabaseURL
}

// GetSupabaseKey returns the Supabase service key
func (c *AppConfig) GetSupabaseKey() string {
	return c.SupabaseKey
}

func (c *AppConfig) GetBlobStore() string {
	return c.BlobStore
}

func (c *AppConfig) GetStorageContainer() string {
	return c.StorageContainer
}

func (c *AppConfig) GetS3Endpoint() string {
	return c.S3Endpoint
}

func (c *AppConfig) GetS3AccessKey() string {
	return c.S3AccessKey
}

func (c *AppConfig) GetS3SecretKey() string {
	return c.S3SecretKey
}

func (c *AppConfig) GetS3Region() string {
	return c.S3Region
}

func (c *AppConfig) GetS3UseSSL() bool {
	return c.S3UseSSL
}

func (c *AppConfig) GetConverter() string {
	return c.Converter
}

func (c *AppConfig) GetConversionURL() string {
	return c.ConversionURL
}

func (c *AppConfig) GetConversionUser() string {
	return c.ConversionUser
}

func (c *AppConfig) GetConversionPass() string {
	return c.ConversionPass
}

func (c *AppConfig) GetConversionVersion() string {
	return c.ConversionVersion
}

func (c *AppConfig) GetKeywordExtractor() string {
	return c.KeywordExtractor
}

func (c *AppConfig) GetAlchemyURL() string {
	return c.AlchemyURL
}

func (c *AppConfig) GetAlchemyAPIKey() string {
	return c.AlchemyAPIKey
}

func (c *AppConfig) GetOpenAIAPIKey() string {
	return c.OpenAIAPIKey
}

func (c *AppConfig) GetOpenAIBaseURL() string {
	return c.OpenAIBaseURL
}

func (c *AppConfig) GetOpenAIModel() string {
	return c.OpenAIModel
}

// GetMaxKeywords returns the cap on stored keywords per document
func (c *AppConfig) GetMaxKeywords() int {
	return c.MaxKeywords
}

// Helper functions for environment variable handling
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}

func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

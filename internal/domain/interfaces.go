package domain

import "time"

// Logger defines the interface for logging operations
type Logger interface {
	Info(msg string, fields ...interface{})
	Error(msg string, err error, fields ...interface{})
	Debug(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
}

// Config defines the interface for configuration management
type Config interface {
	GetServerPort() string
	GetMaxFileSize() int64
	GetLogLevel() string
	GetLogFormat() string
	GetAllowedOrigins() []string
	GetUploadRateLimit() int
	IsResetEnabled() bool
	GetUpstreamTimeout() time.Duration

	GetDocumentStore() string
	GetDatabaseURL() string
	GetSupabaseURL() string
	GetSupabaseKey() string

	GetBlobStore() string
	GetStorageContainer() string
	GetS3Endpoint() string
	GetS3AccessKey() string
	GetS3SecretKey() string
	GetS3Region() string
	GetS3UseSSL() bool

	GetConverter() string
	GetConversionURL() string
	GetConversionUser() string
	GetConversionPass() string
	GetConversionVersion() string

	GetKeywordExtractor() string
	GetAlchemyURL() string
	GetAlchemyAPIKey() string
	GetOpenAIAPIKey() string
	GetOpenAIBaseURL() string
	GetOpenAIModel() string
	GetMaxKeywords() int
}

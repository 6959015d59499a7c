package filestore

import (
	"time"

	"github.com/koustreak/talenttrack/internal/errs"
)

// Provider identifies the file storage backend.
type Provider string

const (
	ProviderMinIO Provider = "minio"
	ProviderNone  Provider = "none"
)

// Config holds the settings for the HR document store.
type Config struct {
	// Provider is the storage backend. ProviderNone disables document
	// downloads.
	Provider Provider

	// Endpoint is the host:port of the storage server.
	// Example: "localhost:9000" for local MinIO.
	Endpoint string

	AccessKey string
	SecretKey string

	// UseSSL controls whether TLS is used for the connection.
	UseSSL bool

	// Region is used by region-aware backends. Leave empty for MinIO.
	Region string

	// Bucket holds every uploaded HR document.
	Bucket string

	// PresignTTL is how long a download link stays valid.
	PresignTTL time.Duration
}

// DefaultConfig returns a local-dev config for MinIO.
func DefaultConfig() Config {
	return Config{
		Provider:   ProviderMinIO,
		Endpoint:   "localhost:9000",
		AccessKey:  "minioadmin",
		SecretKey:  "minioadmin",
		Bucket:     "talenttrack-documents",
		PresignTTL: 15 * time.Minute,
	}
}

// Enabled reports whether a backend is configured.
func (c Config) Enabled() bool {
	return c.Provider != "" && c.Provider != ProviderNone
}

// Validate checks the settings of an enabled backend.
func (c Config) Validate() error {
	if !c.Enabled() {
		return nil
	}
	if c.Provider != ProviderMinIO {
		return errs.New(errs.ErrKindInvalidInput, "unsupported file store provider "+string(c.Provider))
	}
	if c.Endpoint == "" {
		return errs.New(errs.ErrKindInvalidInput, "file store endpoint is required")
	}
	if c.Bucket == "" {
		return errs.New(errs.ErrKindInvalidInput, "file store bucket is required")
	}
	if c.PresignTTL <= 0 || c.PresignTTL > 7*24*time.Hour {
		return errs.New(errs.ErrKindInvalidInput, "presign ttl must be between 1s and 7 days")
	}
	return nil
}

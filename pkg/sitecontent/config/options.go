package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/tendant/site-content/pkg/sitecontent/offload"
)

// WithEnv reads every tagged field from the environment. Variables that are
// unset fall back to their env-default, so WithEnv replaces anything applied
// before it; put programmatic options after it.
//
// Environment variables:
//
//	DATABASE_URL, DB_SCHEMA - "memory" (default) or postgresql://...
//	STORAGE_BACKEND - "s3" (default), "fs" under STORAGE_DIR, or "memory"
//	STORAGE_HOST, STORAGE_ENDPOINT, STORAGE_REGION - public host and S3 API
//	GCS_PROJECT_ID, GCS_CLIENT_EMAIL, GCS_PRIVATE_KEY, GCS_BUCKET_NAME
//	TEXT_CODEC, INLINE_TEXT_BUDGET, BLOB_FETCH, BLOB_FETCH_TIMEOUT
//	IMAGE_TARGET_BYTES, IMAGE_MAX_DIMENSION, IMAGE_MAX_PIXELS, MAX_UPLOAD_BYTES
//	REDIS_URL, CACHE_TTL, CACHE_MAX_ENTRIES
//	SMTP_HOST, SMTP_PORT, SMTP_USER, SMTP_PASSWORD, SMTP_FROM
//	SITE_NAME, SITE_URL, SITE_ADDRESS, SITE_PHONE, ADMIN_EMAIL
//	JWT_SECRET, JWT_TTL, CORS_ALLOWED_ORIGINS
//	ENVIRONMENT, LOG_LEVEL, LOG_FORMAT
func WithEnv() Option {
	return func(c *ServerConfig) error {
		var env ServerConfig
		if err := cleanenv.ReadEnv(&env); err != nil {
			return fmt.Errorf("read environment: %w", err)
		}
		*c = env
		return nil
	}
}

// WithDatabaseURL selects the repository. Empty or "memory" keeps rows in
// process.
func WithDatabaseURL(url string) Option {
	return func(c *ServerConfig) error {
		c.DatabaseURL = url
		return nil
	}
}

// WithStorageBackend selects "s3", "fs" or "memory".
func WithStorageBackend(backend string) Option {
	return func(c *ServerConfig) error {
		c.Storage.Backend = backend
		return nil
	}
}

// WithCredentials sets the bucket credentials.
func WithCredentials(creds offload.Credentials) Option {
	return func(c *ServerConfig) error {
		c.Storage.ProjectID = creds.ProjectID
		c.Storage.ClientEmail = creds.ClientEmail
		c.Storage.PrivateKey = creds.PrivateKey
		c.Storage.BucketName = creds.BucketName
		return nil
	}
}

// WithJWTSecret enables the admin routes.
func WithJWTSecret(secret string) Option {
	return func(c *ServerConfig) error {
		c.Auth.JWTSecret = secret
		return nil
	}
}

// WithTextCodec selects the text codec by name.
func WithTextCodec(name string) Option {
	return func(c *ServerConfig) error {
		c.Text.Codec = name
		return nil
	}
}

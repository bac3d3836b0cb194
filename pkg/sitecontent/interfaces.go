package sitecontent

import (
	"context"
	"io"
	"time"
)

// BlobStore defines the interface for object storage backends
type BlobStore interface {
	// UploadWithParams uploads content under params.ObjectKey
	UploadWithParams(ctx context.Context, reader io.Reader, params UploadParams) error

	// Download downloads content directly
	Download(ctx context.Context, objectKey string) (io.ReadCloser, error)

	// Delete deletes content
	Delete(ctx context.Context, objectKey string) error

	// GetObjectMeta retrieves metadata for an object
	GetObjectMeta(ctx context.Context, objectKey string) (*ObjectMeta, error)

	// List enumerates objects whose key starts with prefix
	List(ctx context.Context, prefix string) ([]ObjectMeta, error)
}

// ObjectMeta contains metadata about an object in storage
type ObjectMeta struct {
	Key         string
	Size        int64
	ContentType string
	UpdatedAt   time.Time
	ETag        string
	Metadata    map[string]string
}

// UploadParams contains parameters for uploading an object
type UploadParams struct {
	ObjectKey string
	MimeType  string
}

// Row is a single relational row keyed by column name.
type Row map[string]any

// Filter is an equality predicate on one column.
type Filter struct {
	Column string
	Value  any
}

// Query selects rows from a table.
type Query struct {
	Table      string
	Columns    []string
	Filters    []Filter
	OrderBy    string
	Descending bool
	Limit      int
}

// Repository defines the interface for relational persistence. Every
// method addresses a single table and matches rows by equality filters.
type Repository interface {
	// Insert stores row and returns it with generated columns filled in
	Insert(ctx context.Context, table string, row Row) (Row, error)

	// Select returns the rows matching q
	Select(ctx context.Context, q Query) ([]Row, error)

	// Update sets columns on every row matching filters and returns the number of rows changed.
	// At least one filter is required.
	Update(ctx context.Context, table string, set Row, filters ...Filter) (int64, error)

	// Delete removes every row matching filters and returns the number of rows removed.
	// At least one filter is required.
	Delete(ctx context.Context, table string, filters ...Filter) (int64, error)
}

// BlobCache caches fetched blob bodies by public URL.
type BlobCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
}

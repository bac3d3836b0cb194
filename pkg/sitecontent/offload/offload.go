// Package offload is the only code that talks to object storage. It moves
// images and oversized text into the bucket, mints their public URLs, lists
// them and deletes them again.
package offload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/tendant/site-content/pkg/sitecontent"
	"github.com/tendant/site-content/pkg/sitecontent/objectkey"
	"github.com/tendant/site-content/pkg/sitecontent/urlstrategy"
)

// DefaultHost serves public objects for GCS buckets.
const DefaultHost = "storage.googleapis.com"

// Environment names reported when a credential is missing.
const (
	EnvProjectID   = "GCS_PROJECT_ID"
	EnvClientEmail = "GCS_CLIENT_EMAIL"
	EnvPrivateKey  = "GCS_PRIVATE_KEY"
	EnvBucketName  = "GCS_BUCKET_NAME"
)

// Credentials identify the bucket and the account allowed to write to it.
type Credentials struct {
	ProjectID   string
	ClientEmail string
	PrivateKey  string
	BucketName  string
}

// Missing lists the environment names of absent credential values.
func (c Credentials) Missing() []string {
	var missing []string
	if c.ProjectID == "" {
		missing = append(missing, EnvProjectID)
	}
	if c.ClientEmail == "" {
		missing = append(missing, EnvClientEmail)
	}
	if c.PrivateKey == "" {
		missing = append(missing, EnvPrivateKey)
	}
	if c.BucketName == "" {
		missing = append(missing, EnvBucketName)
	}
	return missing
}

// Companion is a relational column that may hold a blob URL and is cleaned
// up when the blob is deleted.
type Companion struct {
	Table  string
	Column string
}

// Warning reports a companion cleanup that did not complete.
type Warning struct {
	Table   string `json:"table"`
	Column  string `json:"column"`
	Message string `json:"message"`
}

// DeleteResult describes a completed delete.
type DeleteResult struct {
	Path        string    `json:"path"`
	RowsDeleted int64     `json:"rows_deleted"`
	Warnings    []Warning `json:"warnings,omitempty"`
}

// Gateway moves payloads into object storage. It keeps no mutable state and
// is safe for concurrent use.
type Gateway struct {
	store      sitecontent.BlobStore
	repo       sitecontent.Repository
	creds      Credentials
	host       string
	urls       urlstrategy.URLStrategy
	keys       objectkey.Generator
	cache      sitecontent.BlobCache
	companions []Companion
	logger     *slog.Logger
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithHost sets the public host of the default bucket URL strategy. A value
// carrying a scheme is used as the URL base verbatim.
func WithHost(host string) Option {
	return func(g *Gateway) {
		if host != "" {
			g.host = host
		}
	}
}

// WithURLStrategy replaces the bucket URL strategy, e.g. with a CDN.
func WithURLStrategy(s urlstrategy.URLStrategy) Option {
	return func(g *Gateway) {
		g.urls = s
	}
}

// WithKeyGenerator replaces the object key generator.
func WithKeyGenerator(k objectkey.Generator) Option {
	return func(g *Gateway) {
		g.keys = k
	}
}

// WithCache evicts deleted objects from the blob body cache.
func WithCache(c sitecontent.BlobCache) Option {
	return func(g *Gateway) {
		g.cache = c
	}
}

// WithRepository enables companion-row cleanup on delete.
func WithRepository(repo sitecontent.Repository) Option {
	return func(g *Gateway) {
		g.repo = repo
	}
}

// WithCompanions replaces the default companion columns.
func WithCompanions(companions ...Companion) Option {
	return func(g *Gateway) {
		g.companions = companions
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) {
		g.logger = l
	}
}

// WithClock overrides the time source and id generator of the default key
// generator.
func WithClock(now func() time.Time, newID func() string) Option {
	return func(g *Gateway) {
		g.keys = &objectkey.TimestampGenerator{Now: now, NewID: newID}
	}
}

// New returns a Gateway over store. Credentials are checked on every call,
// not here, so a misconfigured deployment still serves everything else.
func New(store sitecontent.BlobStore, creds Credentials, opts ...Option) *Gateway {
	g := &Gateway{
		store:      store,
		creds:      creds,
		host:       DefaultHost,
		keys:       objectkey.NewRecommendedGenerator(),
		companions: []Companion{{Table: sitecontent.TableGallery, Column: "image_url"}},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.urls == nil {
		g.urls = urlstrategy.NewBucketStrategy(g.host, creds.BucketName)
	}
	return g
}

// URLPrefix returns the public URL prefix of every object in the bucket.
func (g *Gateway) URLPrefix() string {
	return g.urls.Prefix()
}

// PublicURL returns the public URL of objectPath.
func (g *Gateway) PublicURL(objectPath string) string {
	return g.urls.PublicURL(objectPath)
}

// PathFromURL reverses PublicURL. The URL must start with this bucket's
// prefix exactly.
func (g *Gateway) PathFromURL(url string) (string, error) {
	return g.urls.ObjectKey(url)
}

func (g *Gateway) configured() error {
	if missing := g.creds.Missing(); len(missing) > 0 {
		return &sitecontent.ConfigurationError{Missing: missing}
	}
	return nil
}

// PutImage uploads image bytes under images/ and returns their public URL.
func (g *Gateway) PutImage(ctx context.Context, name, mimeType string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", sitecontent.NewValidationError("file", "No file provided")
	}
	if err := g.configured(); err != nil {
		return "", err
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	objectPath := g.keys.GenerateKey(&objectkey.KeyMetadata{Kind: objectkey.KindImage, FileName: name})
	if err := g.put(ctx, objectPath, mimeType, data); err != nil {
		return "", err
	}
	return g.PublicURL(objectPath), nil
}

// PutText uploads already-encoded text under blogs/ and returns its public
// URL. The gateway does not compress.
func (g *Gateway) PutText(ctx context.Context, content string) (string, error) {
	if content == "" {
		return "", sitecontent.NewValidationError("content", "No content provided")
	}
	if err := g.configured(); err != nil {
		return "", err
	}

	objectPath := g.keys.GenerateKey(&objectkey.KeyMetadata{Kind: objectkey.KindText})
	if err := g.put(ctx, objectPath, "text/plain; charset=utf-8", []byte(content)); err != nil {
		return "", err
	}
	return g.PublicURL(objectPath), nil
}

func (g *Gateway) put(ctx context.Context, objectPath, mimeType string, data []byte) error {
	err := g.store.UploadWithParams(ctx, bytes.NewReader(data), sitecontent.UploadParams{
		ObjectKey: objectPath,
		MimeType:  mimeType,
	})
	if err != nil {
		g.logger.Error("blob upload failed", "path", objectPath, "err", err)
		return fmt.Errorf("upload %s: %w", objectPath, err)
	}
	g.logger.Debug("blob uploaded", "path", objectPath, "bytes", len(data))
	return nil
}

// List returns the objects under prefix, newest first.
func (g *Gateway) List(ctx context.Context, prefix string) ([]sitecontent.StoredObject, error) {
	if err := g.configured(); err != nil {
		return nil, err
	}

	metas, err := g.store.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", prefix, err)
	}

	objects := make([]sitecontent.StoredObject, 0, len(metas))
	for _, m := range metas {
		objects = append(objects, sitecontent.StoredObject{
			Path:      m.Key,
			URL:       g.PublicURL(m.Key),
			UpdatedAt: m.UpdatedAt,
		})
	}
	sort.SliceStable(objects, func(i, j int) bool {
		if !objects[i].UpdatedAt.Equal(objects[j].UpdatedAt) {
			return objects[i].UpdatedAt.After(objects[j].UpdatedAt)
		}
		return objects[i].Path > objects[j].Path
	})
	return objects, nil
}

// Delete removes the object behind url, evicts its cached body, then
// removes companion rows that still reference it. A URL outside this bucket is rejected before anything
// is touched. Companion failures do not fail the delete; they are logged and
// returned as warnings so callers can reconcile orphaned rows.
func (g *Gateway) Delete(ctx context.Context, url string) (*DeleteResult, error) {
	if url == "" {
		return nil, sitecontent.NewValidationError("url", "No URL provided")
	}
	if err := g.configured(); err != nil {
		return nil, err
	}
	objectPath, err := g.PathFromURL(url)
	if err != nil {
		return nil, err
	}

	if err := g.store.Delete(ctx, objectPath); err != nil {
		g.logger.Error("blob delete failed", "path", objectPath, "err", err)
		return nil, fmt.Errorf("delete %s: %w", objectPath, err)
	}

	if g.cache != nil {
		if err := g.cache.Delete(ctx, url); err != nil {
			g.logger.Warn("blob cache eviction failed", "url", url, "err", err)
		}
	}

	result := &DeleteResult{Path: objectPath}
	if g.repo == nil {
		return result, nil
	}
	for _, c := range g.companions {
		n, err := g.repo.Delete(ctx, c.Table, sitecontent.Filter{Column: c.Column, Value: url})
		if err != nil {
			g.logger.Error("companion row cleanup failed", "table", c.Table, "column", c.Column, "url", url, "err", err)
			result.Warnings = append(result.Warnings, Warning{
				Table:   c.Table,
				Column:  c.Column,
				Message: fmt.Sprintf("failed to delete rows referencing the object: %v", err),
			})
			continue
		}
		result.RowsDeleted += n
	}
	return result, nil
}

// Fetch downloads the body behind a public URL through the store, so
// private buckets resolve the same way public ones do.
func (g *Gateway) Fetch(ctx context.Context, url string) (string, error) {
	if err := g.configured(); err != nil {
		return "", err
	}
	objectPath, err := g.PathFromURL(url)
	if err != nil {
		return "", err
	}

	rc, err := g.store.Download(ctx, objectPath)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", objectPath, err)
	}
	defer rc.Close()

	body, err := io.ReadAll(rc)
	if err != nil {
		return "", &sitecontent.TransientIOError{Op: "fetch", Key: objectPath, Err: err}
	}
	return string(body), nil
}

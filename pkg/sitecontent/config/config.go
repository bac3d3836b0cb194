// Package config builds a site.Service and its collaborators from
// environment-driven settings.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tendant/site-content/pkg/sitecontent"
	"github.com/tendant/site-content/pkg/sitecontent/auth"
	"github.com/tendant/site-content/pkg/sitecontent/cache"
	"github.com/tendant/site-content/pkg/sitecontent/codec"
	"github.com/tendant/site-content/pkg/sitecontent/mail"
	"github.com/tendant/site-content/pkg/sitecontent/media"
	"github.com/tendant/site-content/pkg/sitecontent/objectkey"
	"github.com/tendant/site-content/pkg/sitecontent/offload"
	"github.com/tendant/site-content/pkg/sitecontent/repo/memory"
	repopg "github.com/tendant/site-content/pkg/sitecontent/repo/postgres"
	"github.com/tendant/site-content/pkg/sitecontent/resolver"
	"github.com/tendant/site-content/pkg/sitecontent/site"
	fsstorage "github.com/tendant/site-content/pkg/sitecontent/storage/fs"
	memorystorage "github.com/tendant/site-content/pkg/sitecontent/storage/memory"
	s3storage "github.com/tendant/site-content/pkg/sitecontent/storage/s3"
	"github.com/tendant/site-content/pkg/sitecontent/urlstrategy"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of
// library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// defaults mirrors the env-default tags so Load without WithEnv behaves
// like an empty environment.
func defaults() ServerConfig {
	return ServerConfig{
		Environment: "development",
		LogLevel:    "info",
		LogFormat:   "text",
		DBSchema:    "public",
		Storage: StorageConfig{
			Backend:      "s3",
			Dir:          "./data/storage",
			Host:         offload.DefaultHost,
			Endpoint:     s3storage.GCSEndpoint,
			Region:       "auto",
			UsePathStyle: true,
			Timeout:      30 * time.Second,
		},
		Text: TextConfig{
			Codec:        codec.Default,
			InlineBudget: site.DefaultInlineBudget,
			Fetch:        "store",
			FetchTimeout: resolver.DefaultFetchTimeout,
		},
		Image: ImageConfig{
			TargetBytes:    100 * 1024,
			MaxDimension:   1920,
			MaxUploadBytes: 20 << 20,
			MaxPixels:      media.DefaultMaxPixels,
		},
		Cache: CacheConfig{
			TTL:        cache.DefaultTTL,
			MaxEntries: 1024,
		},
		Mail: MailConfig{
			Port:          587,
			MaxConcurrent: 10,
		},
		Site: SiteConfig{
			Name: "Hope Foundation",
		},
		Auth: AuthConfig{
			TokenTTL: auth.DefaultTokenTTL,
		},
	}
}

// ServerConfig represents configuration for the site content service
type ServerConfig struct {
	Environment string `env:"ENVIRONMENT" env-default:"development"` // development, production, testing
	LogLevel    string `env:"LOG_LEVEL" env-default:"info"`
	LogFormat   string `env:"LOG_FORMAT" env-default:"text"` // text, json

	// Database configuration. Empty or "memory" selects the in-memory
	// repository.
	DatabaseURL string `env:"DATABASE_URL"`
	DBSchema    string `env:"DB_SCHEMA" env-default:"public"`

	Storage StorageConfig
	Text    TextConfig
	Image   ImageConfig
	Cache   CacheConfig
	Mail    MailConfig
	Site    SiteConfig
	Auth    AuthConfig

	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" env-separator:","`
}

// StorageConfig selects the blob store and the bucket credentials.
type StorageConfig struct {
	Backend      string        `env:"STORAGE_BACKEND" env-default:"s3"` // s3, fs, memory
	Dir          string        `env:"STORAGE_DIR" env-default:"./data/storage"`
	Host         string        `env:"STORAGE_HOST" env-default:"storage.googleapis.com"`
	PublicURL    string        `env:"STORAGE_PUBLIC_URL"` // CDN or custom domain serving the bucket
	Endpoint     string        `env:"STORAGE_ENDPOINT" env-default:"https://storage.googleapis.com"`
	Region       string        `env:"STORAGE_REGION" env-default:"auto"`
	UsePathStyle bool          `env:"STORAGE_PATH_STYLE" env-default:"true"`
	Timeout      time.Duration `env:"STORAGE_TIMEOUT" env-default:"30s"`

	ProjectID   string `env:"GCS_PROJECT_ID"`
	ClientEmail string `env:"GCS_CLIENT_EMAIL"`
	PrivateKey  string `env:"GCS_PRIVATE_KEY"`
	BucketName  string `env:"GCS_BUCKET_NAME"`
}

// Credentials returns the bucket credentials. Escaped newlines in the
// private key are expanded, since env files usually carry it on one line.
func (s StorageConfig) Credentials() offload.Credentials {
	return offload.Credentials{
		ProjectID:   s.ProjectID,
		ClientEmail: s.ClientEmail,
		PrivateKey:  strings.ReplaceAll(s.PrivateKey, `\n`, "\n"),
		BucketName:  s.BucketName,
	}
}

// TextConfig controls text encoding and blob-backed bodies.
type TextConfig struct {
	Codec        string        `env:"TEXT_CODEC" env-default:"lzstring"`
	InlineBudget int           `env:"INLINE_TEXT_BUDGET" env-default:"4096"`
	Fetch        string        `env:"BLOB_FETCH" env-default:"store"` // store, http
	FetchTimeout time.Duration `env:"BLOB_FETCH_TIMEOUT" env-default:"10s"`
}

// ImageConfig controls the media compressor and upload size.
type ImageConfig struct {
	TargetBytes    int   `env:"IMAGE_TARGET_BYTES" env-default:"102400"`
	MaxDimension   int   `env:"IMAGE_MAX_DIMENSION" env-default:"1920"`
	MaxUploadBytes int64 `env:"MAX_UPLOAD_BYTES" env-default:"20971520"`
	MaxPixels      int   `env:"IMAGE_MAX_PIXELS" env-default:"40000000"`
}

// CacheConfig selects the blob body cache. An empty RedisURL keeps the
// cache in process.
type CacheConfig struct {
	RedisURL   string        `env:"REDIS_URL"`
	TTL        time.Duration `env:"CACHE_TTL" env-default:"10m"`
	MaxEntries int           `env:"CACHE_MAX_ENTRIES" env-default:"1024"`
}

// MailConfig configures outgoing mail. Without SMTP_HOST mail is logged
// instead of sent.
type MailConfig struct {
	Host          string `env:"SMTP_HOST"`
	Port          int    `env:"SMTP_PORT" env-default:"587"`
	Username      string `env:"SMTP_USER"`
	Password      string `env:"SMTP_PASSWORD"`
	From          string `env:"SMTP_FROM"`
	MaxConcurrent int    `env:"MAIL_MAX_CONCURRENT" env-default:"10"`
}

// SiteConfig carries the organisation details shown in emails.
type SiteConfig struct {
	Name       string `env:"SITE_NAME" env-default:"Hope Foundation"`
	URL        string `env:"SITE_URL"`
	Address    string `env:"SITE_ADDRESS"`
	Phone      string `env:"SITE_PHONE"`
	AdminEmail string `env:"ADMIN_EMAIL"`
}

// AuthConfig configures admin tokens. Without JWT_SECRET the admin routes
// answer 401.
type AuthConfig struct {
	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"JWT_TTL" env-default:"24h"`
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	switch c.Storage.Backend {
	case "s3", "fs", "memory":
	default:
		return errors.New("storage backend must be 's3', 'fs' or 'memory'")
	}

	if c.DatabaseURL != "" && c.DatabaseURL != "memory" &&
		!strings.HasPrefix(c.DatabaseURL, "postgres://") && !strings.HasPrefix(c.DatabaseURL, "postgresql://") {
		return errors.New("unsupported DATABASE_URL format (use 'memory' or 'postgresql://...')")
	}

	if _, err := codec.Lookup(c.Text.Codec); err != nil {
		return err
	}

	if c.Text.Fetch != "store" && c.Text.Fetch != "http" {
		return errors.New("blob fetch must be 'store' or 'http'")
	}

	if c.Storage.Host == "" && c.Storage.PublicURL == "" {
		return errors.New("storage host or public URL is required")
	}

	if c.Text.InlineBudget <= 0 {
		return errors.New("inline text budget must be positive")
	}

	if c.Image.TargetBytes <= 0 || c.Image.MaxDimension <= 0 || c.Image.MaxPixels <= 0 {
		return errors.New("image target bytes, max dimension and max pixels must be positive")
	}

	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unsupported log format: %s", c.LogFormat)
	}

	return nil
}

// UsesPostgres reports whether DatabaseURL selects Postgres.
func (c *ServerConfig) UsesPostgres() bool {
	return c.DatabaseURL != "" && c.DatabaseURL != "memory"
}

// Level parses LogLevel, defaulting to info.
func (c *ServerConfig) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Codec returns the configured text codec.
func (c *ServerConfig) Codec() (codec.Codec, error) {
	return codec.Lookup(c.Text.Codec)
}

// ImageOptions returns the compressor options.
func (c *ServerConfig) ImageOptions() media.Options {
	opts := media.DefaultOptions()
	opts.TargetBytes = c.Image.TargetBytes
	opts.MaxDimension = c.Image.MaxDimension
	opts.MaxPixels = c.Image.MaxPixels
	return opts
}

// BuildRepository creates a Repository based on the configuration
func (c *ServerConfig) BuildRepository(ctx context.Context) (sitecontent.Repository, func(), error) {
	if !c.UsesPostgres() {
		return memory.New(), func() {}, nil
	}
	cfg, err := pgxpool.ParseConfig(c.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
	}
	schema := c.DBSchema
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		if schema == "" {
			return nil
		}
		_, err := conn.Exec(ctx, fmt.Sprintf("SET search_path TO %s", pgx.Identifier{schema}.Sanitize()))
		return err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	return repopg.NewWithPool(pool), pool.Close, nil
}

// PingPostgres verifies connectivity to Postgres.
func PingPostgres(ctx context.Context, databaseURL string) error {
	if databaseURL == "" {
		return errors.New("database_url is required")
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to create pgx pool: %w", err)
	}
	defer pool.Close()
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// BuildBlobStore creates the BlobStore. The s3 backend talks to the
// bucket's S3-compatible API with the service account's HMAC key. Without
// credentials a memory store stands in, and the gateway refuses every call
// before reaching it.
func (c *ServerConfig) BuildBlobStore() (sitecontent.BlobStore, error) {
	switch c.Storage.Backend {
	case "memory":
		return memorystorage.New(), nil
	case "fs":
		return fsstorage.New(fsstorage.Config{BaseDir: c.Storage.Dir})
	case "s3":
		creds := c.Storage.Credentials()
		if len(creds.Missing()) > 0 {
			return memorystorage.New(), nil
		}
		return s3storage.New(s3storage.Config{
			Region:          c.Storage.Region,
			Bucket:          creds.BucketName,
			AccessKeyID:     creds.ClientEmail,
			SecretAccessKey: creds.PrivateKey,
			Endpoint:        c.Storage.Endpoint,
			UsePathStyle:    c.Storage.UsePathStyle,
			ProjectID:       creds.ProjectID,
			Timeout:         c.Storage.Timeout,
		})
	default:
		return nil, fmt.Errorf("unsupported storage backend type: %s", c.Storage.Backend)
	}
}

// BuildCache creates the blob body cache.
func (c *ServerConfig) BuildCache(ctx context.Context) (sitecontent.BlobCache, error) {
	if c.Cache.RedisURL == "" {
		return cache.NewMemoryCache(c.Cache.TTL, c.Cache.MaxEntries), nil
	}
	return cache.NewRedisCacheFromURL(ctx, c.Cache.RedisURL, c.Cache.TTL)
}

// BuildSender creates the mail sender.
func (c *ServerConfig) BuildSender(logger *slog.Logger) mail.Sender {
	if c.Mail.Host == "" {
		return mail.LogSender{Logger: logger}
	}
	return mail.NewSMTPSender(mail.SMTPConfig{
		Host:     c.Mail.Host,
		Port:     c.Mail.Port,
		Username: c.Mail.Username,
		Password: c.Mail.Password,
		From:     c.Mail.From,
	})
}

// BuildTemplates creates the email templates.
func (c *ServerConfig) BuildTemplates() *mail.Templates {
	return mail.NewTemplates(mail.Site{
		Name:       c.Site.Name,
		Address:    c.Site.Address,
		Phone:      c.Site.Phone,
		AdminEmail: c.Site.AdminEmail,
		URL:        c.Site.URL,
	})
}

// BuildURLStrategy creates the public URL strategy: path-style bucket URLs
// on STORAGE_HOST, or STORAGE_PUBLIC_URL when a CDN fronts the bucket.
func (c *ServerConfig) BuildURLStrategy() (urlstrategy.URLStrategy, error) {
	if c.Storage.PublicURL != "" {
		return urlstrategy.NewURLStrategy(urlstrategy.Config{
			Type:       urlstrategy.StrategyTypeCDN,
			CDNBaseURL: c.Storage.PublicURL,
		})
	}
	return urlstrategy.NewURLStrategy(urlstrategy.Config{
		Type:   urlstrategy.StrategyTypeBucket,
		Host:   c.Storage.Host,
		Bucket: c.Storage.BucketName,
	})
}

// BuildGateway creates the blob offload gateway over store. Deleted objects
// are evicted from bodyCache when it is not nil.
func (c *ServerConfig) BuildGateway(store sitecontent.BlobStore, repo sitecontent.Repository, bodyCache sitecontent.BlobCache, logger *slog.Logger) (*offload.Gateway, error) {
	urls, err := c.BuildURLStrategy()
	if err != nil {
		return nil, err
	}
	opts := []offload.Option{
		offload.WithURLStrategy(urls),
		offload.WithKeyGenerator(objectkey.NewRecommendedGenerator()),
		offload.WithRepository(repo),
	}
	if bodyCache != nil {
		opts = append(opts, offload.WithCache(bodyCache))
	}
	if logger != nil {
		opts = append(opts, offload.WithLogger(logger))
	}
	return offload.New(store, c.Storage.Credentials(), opts...), nil
}

// BuildResolver creates the representation resolver. Blob bodies are read
// through the gateway, or over plain HTTP when BLOB_FETCH=http.
func (c *ServerConfig) BuildResolver(cd codec.Codec, gateway *offload.Gateway, bodyCache sitecontent.BlobCache, logger *slog.Logger) *resolver.Resolver {
	var fetcher resolver.Fetcher = resolver.FetcherFunc(gateway.Fetch)
	if c.Text.Fetch == "http" {
		fetcher = resolver.NewHTTPFetcher(c.Text.FetchTimeout)
	}
	opts := []resolver.Option{
		resolver.WithBlobPrefix(gateway.URLPrefix()),
		resolver.WithFetcher(fetcher),
		resolver.WithLogger(logger),
	}
	if bodyCache != nil {
		opts = append(opts, resolver.WithCache(bodyCache))
	}
	return resolver.New(cd, opts...)
}

// BuildAuthenticator creates the admin token authenticator, or nil when no
// secret is configured.
func (c *ServerConfig) BuildAuthenticator() (*auth.Authenticator, error) {
	if c.Auth.JWTSecret == "" {
		return nil, nil
	}
	return auth.New(c.Auth.JWTSecret, c.Auth.TokenTTL)
}

// Built holds a service and the resources that must be released with it.
type Built struct {
	Service *site.Service
	Gateway *offload.Gateway
	Close   func()
}

// BuildService creates a Service instance from the server configuration
func (c *ServerConfig) BuildService(ctx context.Context, logger *slog.Logger) (*Built, error) {
	if logger == nil {
		logger = slog.Default()
	}

	cd, err := c.Codec()
	if err != nil {
		return nil, err
	}

	repo, closeRepo, err := c.BuildRepository(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build repository: %w", err)
	}

	store, err := c.BuildBlobStore()
	if err != nil {
		closeRepo()
		return nil, fmt.Errorf("failed to build blob store: %w", err)
	}

	bodyCache, err := c.BuildCache(ctx)
	if err != nil {
		closeRepo()
		return nil, fmt.Errorf("failed to build cache: %w", err)
	}

	gateway, err := c.BuildGateway(store, repo, bodyCache, logger)
	if err != nil {
		closeRepo()
		return nil, fmt.Errorf("failed to build gateway: %w", err)
	}
	svc, err := site.New(
		site.WithRepository(repo),
		site.WithCodec(cd),
		site.WithResolver(c.BuildResolver(cd, gateway, bodyCache, logger)),
		site.WithGateway(gateway),
		site.WithMailer(c.BuildSender(logger), c.BuildTemplates()),
		site.WithInlineBudget(c.Text.InlineBudget),
		site.WithImageOptions(c.ImageOptions()),
		site.WithMaxConcurrentSends(c.Mail.MaxConcurrent),
		site.WithLogger(logger),
	)
	if err != nil {
		closeRepo()
		return nil, err
	}
	return &Built{Service: svc, Gateway: gateway, Close: closeRepo}, nil
}

// Package resolver decides how a stored string should be read back.
//
// Rows carry no tag saying whether a column holds plain text, codec output
// or a blob URL. Resolver infers it per field, in this order:
//
//  1. empty input resolves to "";
//  2. an email field containing '@' is returned as-is;
//  3. a blob-candidate field starting with the bucket's public URL prefix is
//     fetched, and the body continues at step 4;
//  4. a successful decode returns the decoded text;
//  5. anything else is returned verbatim.
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tendant/site-content/pkg/sitecontent"
	"github.com/tendant/site-content/pkg/sitecontent/codec"
)

// Resolved is the readable text of a stored value and the representation it
// was found in.
type Resolved struct {
	Text string
	Kind sitecontent.Kind
}

// Resolver maps stored strings to readable text. It holds no mutable state
// and is safe for concurrent use.
type Resolver struct {
	codec     codec.Codec
	urlPrefix string
	fetcher   Fetcher
	cache     sitecontent.BlobCache
	logger    *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithBlobPrefix sets the public URL prefix that marks blob pointers, e.g.
// "https://storage.googleapis.com/my-bucket/".
func WithBlobPrefix(prefix string) Option {
	return func(r *Resolver) {
		r.urlPrefix = prefix
	}
}

// WithFetcher sets how blob bodies are retrieved.
func WithFetcher(f Fetcher) Option {
	return func(r *Resolver) {
		r.fetcher = f
	}
}

// WithCache caches fetched blob bodies.
func WithCache(c sitecontent.BlobCache) Option {
	return func(r *Resolver) {
		r.cache = c
	}
}

// WithLogger sets the logger used for ambiguity and cache warnings.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = l
	}
}

// New returns a Resolver decoding with c.
func New(c codec.Codec, opts ...Option) *Resolver {
	r := &Resolver{
		codec:  c,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.fetcher == nil {
		r.fetcher = NewHTTPFetcher(DefaultFetchTimeout)
	}
	return r
}

// Codec returns the codec used for decoding.
func (r *Resolver) Codec() codec.Codec {
	return r.codec
}

// IsBlobPointer reports whether stored points into the configured bucket.
func (r *Resolver) IsBlobPointer(stored string) bool {
	return r.urlPrefix != "" && strings.HasPrefix(stored, r.urlPrefix)
}

// Classify infers the representation of stored without fetching anything.
func (r *Resolver) Classify(field Field, stored string) sitecontent.Kind {
	if stored == "" {
		return sitecontent.KindEmpty
	}
	policy := field.Policy()
	if policy.Email && strings.Contains(stored, "@") {
		return sitecontent.KindPlain
	}
	if policy.BlobCandidate && r.IsBlobPointer(stored) {
		return sitecontent.KindBlobPointer
	}
	if r.codec.Decode(stored) != "" {
		return sitecontent.KindCompressedInline
	}
	return sitecontent.KindPlain
}

// Text resolves an inline value. Blob pointers are returned unchanged; use
// Resolve for fields that may be offloaded.
func (r *Resolver) Text(field Field, stored string) string {
	return r.inline(field, stored).Text
}

// Resolve returns the readable text for stored. Blob pointers are fetched,
// retrying once on transient failure. A fetch failure is returned as an
// error and never as empty text.
func (r *Resolver) Resolve(ctx context.Context, field Field, stored string) (Resolved, error) {
	if stored == "" || !field.Policy().BlobCandidate || !r.IsBlobPointer(stored) {
		return r.inline(field, stored), nil
	}

	body, err := r.fetch(ctx, stored)
	if err != nil {
		return Resolved{}, fmt.Errorf("resolve %s: %w", field, err)
	}
	if decoded := r.codec.Decode(body); decoded != "" {
		return Resolved{Text: decoded, Kind: sitecontent.KindBlobPointer}, nil
	}
	return Resolved{Text: body, Kind: sitecontent.KindBlobPointer}, nil
}

func (r *Resolver) inline(field Field, stored string) Resolved {
	if stored == "" {
		return Resolved{Kind: sitecontent.KindEmpty}
	}

	policy := field.Policy()
	if policy.Email && strings.Contains(stored, "@") {
		if r.codec.Decode(stored) != "" {
			r.logger.Warn("stored value is both a plain email and valid codec output",
				"field", string(field), "codec", r.codec.Name())
		}
		return Resolved{Text: stored, Kind: sitecontent.KindPlain}
	}
	if policy.BlobCandidate && r.IsBlobPointer(stored) {
		return Resolved{Text: stored, Kind: sitecontent.KindBlobPointer}
	}

	if decoded := r.codec.Decode(stored); decoded != "" {
		return Resolved{Text: decoded, Kind: sitecontent.KindCompressedInline}
	}
	return Resolved{Text: stored, Kind: sitecontent.KindPlain}
}

func (r *Resolver) fetch(ctx context.Context, url string) (string, error) {
	if r.cache != nil {
		body, ok, err := r.cache.Get(ctx, url)
		if err != nil {
			r.logger.Warn("blob cache read failed", "url", url, "err", err)
		} else if ok {
			return body, nil
		}
	}

	body, err := r.fetcher.Fetch(ctx, url)
	if err != nil && sitecontent.IsTransient(err) && ctx.Err() == nil {
		r.logger.Warn("blob fetch failed, retrying", "url", url, "err", err)
		body, err = r.fetcher.Fetch(ctx, url)
	}
	if err != nil {
		return "", err
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, url, body); err != nil {
			r.logger.Warn("blob cache write failed", "url", url, "err", err)
		}
	}
	return body, nil
}

// Package site implements the site's content operations on top of the
// relational store, the text codec, the resolver and the offload gateway.
// Text columns are encoded on write and resolved on read; callers only ever
// see readable text.
package site

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tendant/site-content/pkg/sitecontent"
	"github.com/tendant/site-content/pkg/sitecontent/codec"
	"github.com/tendant/site-content/pkg/sitecontent/mail"
	"github.com/tendant/site-content/pkg/sitecontent/media"
	"github.com/tendant/site-content/pkg/sitecontent/offload"
	"github.com/tendant/site-content/pkg/sitecontent/resolver"
)

// DefaultInlineBudget is the largest encoded blog body kept in the row.
const DefaultInlineBudget = 4096

// Service holds the site's collaborators. It keeps no mutable state of its
// own and is safe for concurrent use.
type Service struct {
	repo         sitecontent.Repository
	codec        codec.Codec
	resolver     *resolver.Resolver
	gateway      *offload.Gateway
	sender       mail.Sender
	templates    *mail.Templates
	inlineBudget int
	imageOptions media.Options
	maxSends     int
	now          func() time.Time
	logger       *slog.Logger
}

// Option represents a functional option for configuring the service
type Option func(*Service)

// WithRepository sets the relational store
func WithRepository(repo sitecontent.Repository) Option {
	return func(s *Service) {
		s.repo = repo
	}
}

// WithCodec sets the codec used to encode text columns
func WithCodec(c codec.Codec) Option {
	return func(s *Service) {
		s.codec = c
	}
}

// WithResolver sets the resolver used on the read path
func WithResolver(r *resolver.Resolver) Option {
	return func(s *Service) {
		s.resolver = r
	}
}

// WithGateway sets the offload gateway for blog bodies and gallery images
func WithGateway(g *offload.Gateway) Option {
	return func(s *Service) {
		s.gateway = g
	}
}

// WithMailer sets the email sender and templates
func WithMailer(sender mail.Sender, templates *mail.Templates) Option {
	return func(s *Service) {
		s.sender = sender
		s.templates = templates
	}
}

// WithInlineBudget sets the encoded size above which blog bodies are offloaded
func WithInlineBudget(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.inlineBudget = n
		}
	}
}

// WithImageOptions sets how uploaded images are recompressed
func WithImageOptions(opts media.Options) Option {
	return func(s *Service) {
		s.imageOptions = opts
	}
}

// WithMaxConcurrentSends bounds the newsletter fan-out
func WithMaxConcurrentSends(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxSends = n
		}
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (*Service, error) {
	s := &Service{
		inlineBudget: DefaultInlineBudget,
		imageOptions: media.DefaultOptions(),
		maxSends:     10,
		now:          func() time.Time { return time.Now().UTC() },
		logger:       slog.Default(),
	}
	for _, option := range options {
		option(s)
	}

	if s.repo == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if s.codec == nil {
		c, err := codec.Lookup(codec.Default)
		if err != nil {
			return nil, err
		}
		s.codec = c
	}
	if s.resolver == nil {
		s.resolver = resolver.New(s.codec, resolver.WithLogger(s.logger))
	}
	if s.sender == nil {
		s.sender = mail.LogSender{Logger: s.logger}
	}
	if s.templates == nil {
		s.templates = mail.NewTemplates(mail.Site{Name: "Hope Foundation"})
	}
	return s, nil
}

// Codec returns the codec used for text columns.
func (s *Service) Codec() codec.Codec {
	return s.codec
}

// Gateway returns the offload gateway, or nil when none is configured.
func (s *Service) Gateway() *offload.Gateway {
	return s.gateway
}

func (s *Service) encode(text string) string {
	if text == "" {
		return ""
	}
	return s.codec.Encode(text)
}

func (s *Service) requireGateway() (*offload.Gateway, error) {
	if s.gateway == nil {
		return nil, &sitecontent.ConfigurationError{Missing: []string{offload.EnvBucketName}}
	}
	return s.gateway, nil
}

// send delivers msg, logging instead of failing when delivery is not
// essential to the operation.
func (s *Service) send(ctx context.Context, msg mail.Message) error {
	if msg.To == "" {
		s.logger.Warn("email skipped, no recipient", "subject", msg.Subject)
		return nil
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		s.logger.Error("email send failed", "to", msg.To, "subject", msg.Subject, "err", err)
		return err
	}
	return nil
}

// changed maps "no rows affected" onto a NotFoundError.
func changed(n int64, err error, what string) error {
	if err != nil {
		return err
	}
	if n == 0 {
		return &sitecontent.NotFoundError{Message: what + " not found"}
	}
	return nil
}

// required takes name/value pairs and reports the first blank value.
func required(message string, pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			return &sitecontent.ValidationError{Field: pairs[i], Message: message}
		}
	}
	return nil
}

func oneOf(field, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return sitecontent.NewValidationError(field, fmt.Sprintf("invalid %s %q", field, value))
}

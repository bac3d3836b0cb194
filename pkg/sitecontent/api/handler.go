// Package api serves the site over HTTP.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/klauspost/compress/gzhttp"

	"github.com/tendant/site-content/pkg/sitecontent/auth"
	"github.com/tendant/site-content/pkg/sitecontent/site"
)

// DefaultMaxUploadBytes bounds multipart image uploads.
const DefaultMaxUploadBytes = 20 << 20

// Handler serves the public site routes, the admin console routes and the
// upload routes.
type Handler struct {
	svc            *site.Service
	auth           *auth.Authenticator
	logger         *slog.Logger
	maxUploadBytes int64
	allowedOrigins []string
}

// Option configures a Handler.
type Option func(*Handler)

// WithAuthenticator enables the admin routes. Without it every admin route
// answers 401.
func WithAuthenticator(a *auth.Authenticator) Option {
	return func(h *Handler) {
		h.auth = a
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = l
	}
}

// WithMaxUploadBytes bounds image uploads.
func WithMaxUploadBytes(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxUploadBytes = n
		}
	}
}

// WithAllowedOrigins sets the CORS origins.
func WithAllowedOrigins(origins ...string) Option {
	return func(h *Handler) {
		h.allowedOrigins = origins
	}
}

// NewHandler returns a Handler over svc.
func NewHandler(svc *site.Service, opts ...Option) *Handler {
	h := &Handler{
		svc:            svc,
		logger:         slog.Default(),
		maxUploadBytes: DefaultMaxUploadBytes,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes returns the router for every endpoint
func (h *Handler) Routes() chi.Router {
	adminOnly := h.adminOnlyChain()

	r := chi.NewRouter()
	r.Use(RequestIDMiddleware)
	r.Use(RecoveryMiddleware(h.logger))
	r.Use(LoggingMiddleware(h.logger))
	r.Use(CORSMiddleware(h.allowedOrigins))
	r.Use(RequestSizeLimitMiddleware(h.maxUploadBytes))
	r.Use(func(next http.Handler) http.Handler { return gzhttp.GzipHandler(next) })

	r.Post("/contact", h.SubmitContact)
	r.Route("/comments", func(r chi.Router) {
		r.Get("/", h.ListApprovedComments)
		r.Post("/", h.SubmitComment)
	})
	r.Route("/newsletter", func(r chi.Router) {
		r.Post("/subscribe", h.Subscribe)
		r.Post("/unsubscribe", h.Unsubscribe)
		r.With(adminOnly...).Post("/notify", h.NotifySubscribers)
	})
	r.Route("/blogs", func(r chi.Router) {
		r.Get("/", h.ListPublishedBlogs)
		r.Get("/{slug}", h.GetBlog)
		r.Post("/{slug}/view", h.IncrementViews)
	})
	r.Get("/gallery", h.ListGallery)
	r.Get("/pages/{name}", h.GetPage)
	r.Get("/settings", h.GetSettings)

	r.Group(func(r chi.Router) {
		r.Use(adminOnly...)
		r.Route("/upload", func(r chi.Router) {
			r.Post("/image", h.UploadImage)
			r.Post("/text", h.UploadText)
			r.Get("/list", h.ListUploads)
			r.Post("/delete", h.DeleteUpload)
		})
		r.Mount("/admin", h.adminRoutes())
	})
	return r
}

func (h *Handler) adminRoutes() chi.Router {
	r := chi.NewRouter()
	r.Route("/contacts", func(r chi.Router) {
		r.Get("/", h.ListContacts)
		r.Put("/{id}/status", h.SetContactStatus)
		r.Delete("/{id}", h.DeleteContact)
	})
	r.Route("/comments", func(r chi.Router) {
		r.Get("/", h.ListComments)
		r.Put("/{id}/status", h.ModerateComment)
		r.Delete("/{id}", h.DeleteComment)
	})
	r.Route("/subscribers", func(r chi.Router) {
		r.Get("/", h.ListSubscribers)
		r.Put("/{id}/status", h.SetSubscriberStatus)
		r.Delete("/{id}", h.DeleteSubscriber)
	})
	r.Route("/notifications", func(r chi.Router) {
		r.Get("/", h.ListNotifications)
		r.Post("/", h.CreateNotification)
		r.Post("/read-all", h.MarkAllNotificationsRead)
		r.Put("/{id}/read", h.MarkNotificationRead)
		r.Delete("/{id}", h.DeleteNotification)
	})
	r.Route("/blogs", func(r chi.Router) {
		r.Get("/", h.ListBlogs)
		r.Post("/", h.CreateBlog)
		r.Get("/{id}", h.GetBlogByID)
		r.Put("/{id}", h.UpdateBlog)
		r.Delete("/{id}", h.DeleteBlog)
	})
	r.Route("/gallery", func(r chi.Router) {
		r.Post("/", h.AddGalleryImage)
		r.Delete("/{id}", h.RemoveGalleryImage)
	})
	r.Route("/pages", func(r chi.Router) {
		r.Get("/", h.ListPages)
		r.Put("/{name}", h.SavePage)
	})
	r.Put("/settings", h.SaveSettings)
	return r
}

func (h *Handler) adminOnlyChain() []func(http.Handler) http.Handler {
	if h.auth == nil {
		return []func(http.Handler) http.Handler{auth.RequireAdmin}
	}
	return []func(http.Handler) http.Handler{h.auth.Verifier(), auth.RequireAdmin}
}

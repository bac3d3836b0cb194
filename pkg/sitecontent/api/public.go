package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/tendant/site-content/pkg/sitecontent"
	"github.com/tendant/site-content/pkg/sitecontent/site"
)

// SuccessResponse acknowledges a request that returns no data.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// EmailRequest carries a newsletter address.
type EmailRequest struct {
	Email string `json:"email"`
}

// ViewsResponse carries a post's view count.
type ViewsResponse struct {
	Views int64 `json:"views"`
}

// SubmitContact stores a contact form message.
func (h *Handler) SubmitContact(w http.ResponseWriter, r *http.Request) {
	var req site.ContactRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if _, err := h.svc.SubmitContact(r.Context(), req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, SuccessResponse{Success: true})
}

// SubmitComment stores a comment for moderation.
func (h *Handler) SubmitComment(w http.ResponseWriter, r *http.Request) {
	var req site.CommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	comment, err := h.svc.SubmitComment(r.Context(), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, comment)
}

// ListApprovedComments returns the approved comments of ?blogId=.
func (h *Handler) ListApprovedComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.svc.ApprovedComments(r.Context(), r.URL.Query().Get("blogId"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, comments)
}

// Subscribe adds an address to the newsletter.
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req EmailRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if _, err := h.svc.Subscribe(r.Context(), req.Email); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, SuccessResponse{Success: true})
}

// Unsubscribe removes an address from the newsletter.
func (h *Handler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	var req EmailRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.Unsubscribe(r.Context(), req.Email); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, SuccessResponse{Success: true})
}

// NotifySubscribers announces a post to every active subscriber.
func (h *Handler) NotifySubscribers(w http.ResponseWriter, r *http.Request) {
	var req site.NotifyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.svc.NotifySubscribers(r.Context(), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if result.Count == 0 {
		render.JSON(w, r, map[string]string{"message": "No active subscribers to notify"})
		return
	}
	render.JSON(w, r, map[string]any{
		"success": true,
		"count":   result.Count,
		"sent":    result.Sent,
		"failed":  result.Failed,
	})
}

// ListPublishedBlogs returns published posts without bodies.
func (h *Handler) ListPublishedBlogs(w http.ResponseWriter, r *http.Request) {
	blogs, err := h.svc.ListBlogs(r.Context(), sitecontent.BlogStatusPublished)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, blogs)
}

// GetBlog returns a published post by slug.
func (h *Handler) GetBlog(w http.ResponseWriter, r *http.Request) {
	blog, err := h.svc.GetPublishedBlog(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, blog)
}

// IncrementViews counts a view of the post with slug.
func (h *Handler) IncrementViews(w http.ResponseWriter, r *http.Request) {
	views, err := h.svc.IncrementViews(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, ViewsResponse{Views: views})
}

// ListGallery returns gallery images, optionally filtered by ?category=.
func (h *Handler) ListGallery(w http.ResponseWriter, r *http.Request) {
	images, err := h.svc.ListGallery(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, images)
}

// GetPage returns the editable content of a public page.
func (h *Handler) GetPage(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.GetPage(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, page)
}

// GetSettings returns the site settings.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.svc.GetSettings(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, settings)
}

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/tendant/site-content/pkg/sitecontent"
	"github.com/tendant/site-content/pkg/sitecontent/auth"
	"github.com/tendant/site-content/pkg/sitecontent/site"
)

// StatusRequest changes the status of a row.
type StatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request, set func(id, status string) error) {
	var req StatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := set(chi.URLParam(r, "id"), req.Status); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, SuccessResponse{Success: true})
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request, del func(id string) error) {
	if err := del(chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, SuccessResponse{Success: true})
}

// ListContacts returns contact submissions, optionally filtered by ?status=.
func (h *Handler) ListContacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.svc.ListContacts(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, contacts)
}

func (h *Handler) SetContactStatus(w http.ResponseWriter, r *http.Request) {
	h.status(w, r, func(id, status string) error { return h.svc.SetContactStatus(r.Context(), id, status) })
}

func (h *Handler) DeleteContact(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, func(id string) error { return h.svc.DeleteContact(r.Context(), id) })
}

// ListComments returns comments, optionally filtered by ?status=.
func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.svc.ListComments(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, comments)
}

func (h *Handler) ModerateComment(w http.ResponseWriter, r *http.Request) {
	h.status(w, r, func(id, status string) error { return h.svc.ModerateComment(r.Context(), id, status) })
}

func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, func(id string) error { return h.svc.DeleteComment(r.Context(), id) })
}

// ListSubscribers returns subscribers, optionally filtered by ?status=.
func (h *Handler) ListSubscribers(w http.ResponseWriter, r *http.Request) {
	subs, err := h.svc.ListSubscribers(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, subs)
}

func (h *Handler) SetSubscriberStatus(w http.ResponseWriter, r *http.Request) {
	h.status(w, r, func(id, status string) error { return h.svc.SetSubscriberStatus(r.Context(), id, status) })
}

func (h *Handler) DeleteSubscriber(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, func(id string) error { return h.svc.DeleteSubscriber(r.Context(), id) })
}

// ListNotifications returns notifications; ?unread=true skips read ones.
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	notes, err := h.svc.ListNotifications(r.Context(), r.URL.Query().Get("unread") == "true")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, notes)
}

func (h *Handler) CreateNotification(w http.ResponseWriter, r *http.Request) {
	var req site.NotificationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	note, err := h.svc.CreateNotification(r.Context(), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, note)
}

func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, func(id string) error { return h.svc.MarkNotificationRead(r.Context(), id) })
}

func (h *Handler) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.MarkAllNotificationsRead(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, map[string]any{"success": true, "updated": n})
}

func (h *Handler) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, func(id string) error { return h.svc.DeleteNotification(r.Context(), id) })
}

// ListBlogs returns every post, optionally filtered by ?status=.
func (h *Handler) ListBlogs(w http.ResponseWriter, r *http.Request) {
	blogs, err := h.svc.ListBlogs(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, blogs)
}

func (h *Handler) CreateBlog(w http.ResponseWriter, r *http.Request) {
	var req site.BlogRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	blog, err := h.svc.CreateBlog(r.Context(), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, blog)
}

func (h *Handler) GetBlogByID(w http.ResponseWriter, r *http.Request) {
	blog, err := h.svc.GetBlogByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, blog)
}

func (h *Handler) UpdateBlog(w http.ResponseWriter, r *http.Request) {
	var req site.BlogRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	blog, err := h.svc.UpdateBlog(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, blog)
}

func (h *Handler) DeleteBlog(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, func(id string) error { return h.svc.DeleteBlog(r.Context(), id) })
}

func (h *Handler) AddGalleryImage(w http.ResponseWriter, r *http.Request) {
	var req site.GalleryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	img, err := h.svc.AddGalleryImage(r.Context(), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, img)
}

// RemoveGalleryImage deletes a gallery entry and its stored image.
func (h *Handler) RemoveGalleryImage(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.RemoveGalleryImage(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, DeleteUploadResponse{Success: true, Warnings: result.Warnings})
}

func (h *Handler) ListPages(w http.ResponseWriter, r *http.Request) {
	pages, err := h.svc.ListPages(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, pages)
}

// SavePage replaces a page's content. The editor is recorded from the token.
func (h *Handler) SavePage(w http.ResponseWriter, r *http.Request) {
	var req site.PageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if caller, ok := auth.CallerFromContext(r.Context()); ok {
		req.UpdatedBy = caller.ID
	}
	page, err := h.svc.SavePage(r.Context(), chi.URLParam(r, "name"), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, page)
}

func (h *Handler) SaveSettings(w http.ResponseWriter, r *http.Request) {
	var req sitecontent.SiteSettings
	if !decodeJSON(w, r, &req) {
		return
	}
	settings, err := h.svc.SaveSettings(r.Context(), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, settings)
}

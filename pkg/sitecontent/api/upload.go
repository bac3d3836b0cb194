package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/tendant/site-content/pkg/sitecontent"
	"github.com/tendant/site-content/pkg/sitecontent/offload"
)

// URLResponse carries the public URL of a stored object.
type URLResponse struct {
	URL string `json:"url"`
}

// UploadTextRequest carries already-encoded text.
type UploadTextRequest struct {
	Content string `json:"content"`
}

// DeleteUploadRequest names the object to delete by its public URL.
type DeleteUploadRequest struct {
	URL string `json:"url"`
}

// DeleteUploadResponse reports a completed delete and any companion rows
// that could not be cleaned up.
type DeleteUploadResponse struct {
	Success  bool              `json:"success"`
	Warnings []offload.Warning `json:"warnings,omitempty"`
}

// FileEntry is one stored object in a listing.
type FileEntry struct {
	Name    string    `json:"name"`
	URL     string    `json:"url"`
	Updated time.Time `json:"updated"`
}

// FileListResponse lists stored objects newest first.
type FileListResponse struct {
	Files []FileEntry `json:"files"`
}

func (h *Handler) gateway() (*offload.Gateway, error) {
	g := h.svc.Gateway()
	if g == nil {
		return nil, &sitecontent.ConfigurationError{Missing: []string{
			offload.EnvProjectID, offload.EnvClientEmail, offload.EnvPrivateKey, offload.EnvBucketName,
		}}
	}
	return g, nil
}

// UploadImage stores the multipart "file" field under images/, recompressed
// when the compressor accepts it.
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			render.Status(r, http.StatusRequestEntityTooLarge)
			render.JSON(w, r, ErrorResponse{Error: "File too large"})
			return
		}
		badRequest(w, r, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		badRequest(w, r, "No file provided")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, r, h.logger, &sitecontent.TransientIOError{Op: "read upload", Key: header.Filename, Err: err})
		return
	}

	upload, err := h.svc.UploadImage(r.Context(), header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, upload)
}

// UploadText stores already-encoded text under blogs/.
func (h *Handler) UploadText(w http.ResponseWriter, r *http.Request) {
	var req UploadTextRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	g, err := h.gateway()
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	url, err := g.PutText(r.Context(), req.Content)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, URLResponse{URL: url})
}

// ListUploads lists images, or blog bodies with ?prefix=blogs/, newest
// first.
func (h *Handler) ListUploads(w http.ResponseWriter, r *http.Request) {
	prefix := sitecontent.ImagePrefix
	switch p := r.URL.Query().Get("prefix"); p {
	case "", sitecontent.ImagePrefix:
	case sitecontent.BlogPrefix:
		prefix = p
	default:
		badRequest(w, r, "Unknown prefix")
		return
	}

	g, err := h.gateway()
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	objects, err := g.List(r.Context(), prefix)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	resp := FileListResponse{Files: make([]FileEntry, 0, len(objects))}
	for _, o := range objects {
		resp.Files = append(resp.Files, FileEntry{Name: o.Path, URL: o.URL, Updated: o.UpdatedAt})
	}
	render.JSON(w, r, resp)
}

// DeleteUpload deletes an object by public URL, then the rows that
// reference it.
func (h *Handler) DeleteUpload(w http.ResponseWriter, r *http.Request) {
	var req DeleteUploadRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	g, err := h.gateway()
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	result, err := g.Delete(r.Context(), req.URL)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, DeleteUploadResponse{Success: true, Warnings: result.Warnings})
}

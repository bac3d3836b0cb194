package site

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/tendant/site-content/pkg/sitecontent"
	"github.com/tendant/site-content/pkg/sitecontent/media"
	"github.com/tendant/site-content/pkg/sitecontent/offload"
	"github.com/tendant/site-content/pkg/sitecontent/resolver"
)

// DefaultGalleryCategory is used for images added without a category.
const DefaultGalleryCategory = "general"

// UploadedImage describes an image stored through UploadImage.
type UploadedImage struct {
	URL          string `json:"url"`
	Size         int    `json:"size"`
	OriginalSize int    `json:"original_size"`
	Compressed   bool   `json:"compressed"`
}

// UploadImage recompresses an image towards the size target and stores it.
// Images declaring more pixels than allowed are refused. Other input the
// compressor rejects, or output that would not be smaller, is stored as
// uploaded.
func (s *Service) UploadImage(ctx context.Context, name, mimeType string, data []byte) (*UploadedImage, error) {
	if len(data) == 0 {
		return nil, sitecontent.NewValidationError("file", "No file provided")
	}
	gateway, err := s.requireGateway()
	if err != nil {
		return nil, err
	}

	upload := &UploadedImage{Size: len(data), OriginalSize: len(data)}
	result, err := media.Compress(data, s.imageOptions)
	switch {
	case errors.Is(err, media.ErrImageTooLarge):
		return nil, &sitecontent.ValidationError{Field: "file", Message: "Image dimensions are too large", Err: err}
	case err != nil:
		s.logger.Warn("image not recompressed, storing original", "name", name, "err", err)
	case len(result.Data) < len(data):
		s.logger.Debug("image recompressed", "name", name,
			"from", len(data), "to", len(result.Data), "quality", result.Quality,
			"saved_pct", media.CompressionRatio(len(data), len(result.Data)))
		data = result.Data
		mimeType = result.MimeType
		name = strings.TrimSuffix(name, path.Ext(name)) + ".jpg"
		upload.Size = len(data)
		upload.Compressed = true
	}

	upload.URL, err = gateway.PutImage(ctx, name, mimeType, data)
	if err != nil {
		return nil, err
	}
	return upload, nil
}

// GalleryRequest adds an image to the gallery.
type GalleryRequest struct {
	ImageURL    string `json:"image_url"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
}

// AddGalleryImage records an uploaded image in the gallery.
func (s *Service) AddGalleryImage(ctx context.Context, req GalleryRequest) (*sitecontent.GalleryImage, error) {
	if err := required("Image URL and title are required", "image_url", req.ImageURL, "title", req.Title); err != nil {
		return nil, err
	}
	if req.Category == "" {
		req.Category = DefaultGalleryCategory
	}

	row, err := s.repo.Insert(ctx, sitecontent.TableGallery, sitecontent.Row{
		"image_url":   req.ImageURL,
		"title":       req.Title,
		"description": nullable(s.encode(req.Description)),
		"category":    req.Category,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store gallery image: %w", err)
	}
	return s.galleryFromRow(row), nil
}

// ListGallery returns gallery images newest first, optionally limited to
// one category.
func (s *Service) ListGallery(ctx context.Context, category string) ([]*sitecontent.GalleryImage, error) {
	q := sitecontent.Query{
		Table:      sitecontent.TableGallery,
		OrderBy:    "created_at",
		Descending: true,
	}
	if category != "" {
		q.Filters = append(q.Filters, sitecontent.Filter{Column: "category", Value: category})
	}
	rows, err := s.repo.Select(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list gallery: %w", err)
	}

	result := make([]*sitecontent.GalleryImage, 0, len(rows))
	for _, row := range rows {
		result = append(result, s.galleryFromRow(row))
	}
	return result, nil
}

// RemoveGalleryImage deletes a gallery entry and the object it shows. The
// gateway removes every row pointing at the object; an image hosted
// elsewhere only loses its row.
func (s *Service) RemoveGalleryImage(ctx context.Context, id string) (*offload.DeleteResult, error) {
	rows, err := s.repo.Select(ctx, sitecontent.Query{
		Table:   sitecontent.TableGallery,
		Filters: []sitecontent.Filter{{Column: "id", Value: id}},
		Limit:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to look up gallery image: %w", err)
	}
	if len(rows) == 0 {
		return nil, &sitecontent.NotFoundError{Message: "Gallery image not found"}
	}
	url := stringOf(rows[0], "image_url")

	if s.gateway != nil {
		if _, perr := s.gateway.PathFromURL(url); perr == nil {
			result, err := s.gateway.Delete(ctx, url)
			if err != nil {
				return nil, err
			}
			if result.RowsDeleted == 0 {
				n, err := s.repo.Delete(ctx, sitecontent.TableGallery, sitecontent.Filter{Column: "id", Value: id})
				if err != nil {
					s.logger.Error("gallery row cleanup failed", "id", id, "err", err)
					result.Warnings = append(result.Warnings, offload.Warning{
						Table:   sitecontent.TableGallery,
						Column:  "id",
						Message: fmt.Sprintf("failed to delete gallery row: %v", err),
					})
				}
				result.RowsDeleted += n
			}
			return result, nil
		}
	}

	n, err := s.repo.Delete(ctx, sitecontent.TableGallery, sitecontent.Filter{Column: "id", Value: id})
	if err := changed(n, err, "Gallery image"); err != nil {
		return nil, err
	}
	return &offload.DeleteResult{RowsDeleted: n}, nil
}

func (s *Service) galleryFromRow(row sitecontent.Row) *sitecontent.GalleryImage {
	return &sitecontent.GalleryImage{
		ID:          stringOf(row, "id"),
		ImageURL:    stringOf(row, "image_url"),
		Title:       stringOf(row, "title"),
		Description: s.resolver.Text(resolver.FieldGalleryDescription, stringOf(row, "description")),
		Category:    stringOf(row, "category"),
		CreatedAt:   timeOf(row, "created_at"),
	}
}

package site

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/tendant/site-content/pkg/sitecontent"
)

var pageNamePattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// PageRequest replaces the content of a page.
type PageRequest struct {
	Content   map[string]any `json:"content"`
	UpdatedBy string         `json:"updated_by,omitempty"`
}

// ListPages returns every editable page ordered by name.
func (s *Service) ListPages(ctx context.Context) ([]*sitecontent.Page, error) {
	rows, err := s.repo.Select(ctx, sitecontent.Query{
		Table:   sitecontent.TablePages,
		OrderBy: "page_name",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}

	pages := make([]*sitecontent.Page, 0, len(rows))
	for _, row := range rows {
		pages = append(pages, pageFromRow(row))
	}
	return pages, nil
}

// GetPage returns the page called name.
func (s *Service) GetPage(ctx context.Context, name string) (*sitecontent.Page, error) {
	if !pageNamePattern.MatchString(name) {
		return nil, sitecontent.NewValidationError("page_name", "Invalid page name")
	}
	row, err := s.pageRow(ctx, name)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, &sitecontent.NotFoundError{Message: "Page not found"}
	}
	return pageFromRow(row), nil
}

// SavePage replaces the content of the page called name, creating the page
// on first save.
func (s *Service) SavePage(ctx context.Context, name string, req PageRequest) (*sitecontent.Page, error) {
	if !pageNamePattern.MatchString(name) {
		return nil, sitecontent.NewValidationError("page_name", "Invalid page name")
	}
	if req.Content == nil {
		return nil, sitecontent.NewValidationError("content", "Content is required")
	}

	existing, err := s.pageRow(ctx, name)
	if err != nil {
		return nil, err
	}

	set := sitecontent.Row{
		"content":    req.Content,
		"updated_by": nullable(req.UpdatedBy),
		"updated_at": s.now(),
	}
	if existing == nil {
		set["page_name"] = name
		row, err := s.repo.Insert(ctx, sitecontent.TablePages, set)
		if err != nil {
			return nil, fmt.Errorf("failed to store page: %w", err)
		}
		s.logger.Info("page created", "page", name)
		return pageFromRow(row), nil
	}

	id := stringOf(existing, "id")
	n, err := s.repo.Update(ctx, sitecontent.TablePages, set, sitecontent.Filter{Column: "id", Value: id})
	if err := changed(n, err, "Page"); err != nil {
		return nil, err
	}
	for k, v := range set {
		existing[k] = v
	}
	s.logger.Info("page updated", "page", name)
	return pageFromRow(existing), nil
}

func (s *Service) pageRow(ctx context.Context, name string) (sitecontent.Row, error) {
	rows, err := s.repo.Select(ctx, sitecontent.Query{
		Table:   sitecontent.TablePages,
		Filters: []sitecontent.Filter{{Column: "page_name", Value: name}},
		Limit:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to look up page: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func pageFromRow(row sitecontent.Row) *sitecontent.Page {
	return &sitecontent.Page{
		ID:        stringOf(row, "id"),
		PageName:  stringOf(row, "page_name"),
		Content:   jsonObjectOf(row, "content"),
		UpdatedBy: stringOf(row, "updated_by"),
		UpdatedAt: timeOf(row, "updated_at"),
	}
}

// jsonObjectOf reads a JSON object column. Drivers hand jsonb back either
// decoded or as raw bytes.
func jsonObjectOf(row sitecontent.Row, col string) map[string]any {
	var raw []byte
	switch v := row[col].(type) {
	case map[string]any:
		return v
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return map[string]any{}
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil || out == nil {
		return map[string]any{}
	}
	return out
}

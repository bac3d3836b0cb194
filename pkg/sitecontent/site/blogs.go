package site

import (
	"context"
	"fmt"
	"time"

	"github.com/tendant/site-content/pkg/sitecontent"
	"github.com/tendant/site-content/pkg/sitecontent/resolver"
)

// BlogRequest creates or updates a blog post. Empty fields are left
// unchanged on update.
type BlogRequest struct {
	Title         string     `json:"title"`
	Slug          string     `json:"slug,omitempty"`
	Content       string     `json:"content"`
	Excerpt       string     `json:"excerpt,omitempty"`
	FeaturedImage string     `json:"featured_image,omitempty"`
	AuthorName    string     `json:"author_name,omitempty"`
	Category      string     `json:"category,omitempty"`
	Tags          []string   `json:"tags,omitempty"`
	Status        string     `json:"status,omitempty"`
	PublishDate   *time.Time `json:"publish_date,omitempty"`
}

func validBlogStatus(status string) error {
	return oneOf("status", status, sitecontent.BlogStatusDraft, sitecontent.BlogStatusPublished, sitecontent.BlogStatusScheduled)
}

// CreateBlog stores a new post. The body is encoded and kept in the row
// while it fits the inline budget; larger bodies are offloaded to object
// storage and the row keeps the URL.
func (s *Service) CreateBlog(ctx context.Context, req BlogRequest) (*sitecontent.Blog, error) {
	if err := required("Title and content are required", "title", req.Title, "content", req.Content); err != nil {
		return nil, err
	}
	slug := req.Slug
	if slug == "" {
		slug = GenerateSlug(req.Title)
	}
	if slug == "" {
		return nil, sitecontent.NewValidationError("slug", "A slug could not be derived from the title")
	}
	status := req.Status
	if status == "" {
		status = sitecontent.BlogStatusDraft
	}
	if err := validBlogStatus(status); err != nil {
		return nil, err
	}
	if err := s.ensureSlugFree(ctx, slug, ""); err != nil {
		return nil, err
	}

	body, err := s.storeBody(ctx, req.Content)
	if err != nil {
		return nil, err
	}

	now := s.now()
	row := sitecontent.Row{
		"title":          req.Title,
		"slug":           slug,
		"content":        body,
		"excerpt":        nullable(req.Excerpt),
		"featured_image": nullable(req.FeaturedImage),
		"author_name":    nullable(req.AuthorName),
		"category":       nullable(req.Category),
		"status":         status,
		"views":          int64(0),
		"reading_time":   ReadingTime(StripTags(req.Content)),
		"updated_at":     now,
	}
	if len(req.Tags) > 0 {
		row["tags"] = req.Tags
	}
	if req.PublishDate != nil {
		row["publish_date"] = *req.PublishDate
	} else if status == sitecontent.BlogStatusPublished {
		row["publish_date"] = now
	}

	stored, err := s.repo.Insert(ctx, sitecontent.TableBlogs, row)
	if err != nil {
		s.discardBody(ctx, body)
		return nil, fmt.Errorf("failed to store blog: %w", err)
	}

	blog := s.blogFromRow(stored)
	blog.Content = req.Content
	s.logger.Info("blog created", "id", blog.ID, "slug", slug, "offloaded", s.resolver.IsBlobPointer(body))
	return blog, nil
}

// UpdateBlog changes a post. A replaced offloaded body is deleted from
// object storage once the row points at the new one.
func (s *Service) UpdateBlog(ctx context.Context, id string, req BlogRequest) (*sitecontent.Blog, error) {
	existing, err := s.blogRow(ctx, sitecontent.Filter{Column: "id", Value: id})
	if err != nil {
		return nil, err
	}

	set := sitecontent.Row{"updated_at": s.now()}
	if req.Title != "" {
		set["title"] = req.Title
	}
	if req.Slug != "" && req.Slug != stringOf(existing, "slug") {
		if err := s.ensureSlugFree(ctx, req.Slug, id); err != nil {
			return nil, err
		}
		set["slug"] = req.Slug
	}
	if req.Status != "" {
		if err := validBlogStatus(req.Status); err != nil {
			return nil, err
		}
		set["status"] = req.Status
		if req.Status == sitecontent.BlogStatusPublished && timePtrOf(existing, "publish_date") == nil && req.PublishDate == nil {
			set["publish_date"] = s.now()
		}
	}
	if req.PublishDate != nil {
		set["publish_date"] = *req.PublishDate
	}
	for col, value := range map[string]string{
		"excerpt":        req.Excerpt,
		"featured_image": req.FeaturedImage,
		"author_name":    req.AuthorName,
		"category":       req.Category,
	} {
		if value != "" {
			set[col] = value
		}
	}
	if req.Tags != nil {
		set["tags"] = req.Tags
	}

	oldBody := stringOf(existing, "content")
	var newBody string
	if req.Content != "" {
		newBody, err = s.storeBody(ctx, req.Content)
		if err != nil {
			return nil, err
		}
		set["content"] = newBody
		set["reading_time"] = ReadingTime(StripTags(req.Content))
	}

	n, err := s.repo.Update(ctx, sitecontent.TableBlogs, set, sitecontent.Filter{Column: "id", Value: id})
	if err := changed(n, err, "Blog"); err != nil {
		if newBody != "" {
			s.discardBody(ctx, newBody)
		}
		return nil, err
	}
	if newBody != "" && newBody != oldBody {
		s.discardBody(ctx, oldBody)
	}

	for k, v := range set {
		existing[k] = v
	}
	blog := s.blogFromRow(existing)
	if req.Content != "" {
		blog.Content = req.Content
	} else if blog.Content, err = s.blogText(ctx, oldBody); err != nil {
		return nil, err
	}
	return blog, nil
}

// GetBlog returns the post with slug, fetching an offloaded body. A failed
// fetch is an error, never an empty body.
func (s *Service) GetBlog(ctx context.Context, slug string) (*sitecontent.Blog, error) {
	row, err := s.blogRow(ctx, sitecontent.Filter{Column: "slug", Value: slug})
	if err != nil {
		return nil, err
	}
	blog := s.blogFromRow(row)
	if blog.Content, err = s.blogText(ctx, stringOf(row, "content")); err != nil {
		return nil, err
	}
	return blog, nil
}

// GetPublishedBlog returns the published post with slug. Drafts and
// scheduled posts are reported as not found before their body is resolved.
func (s *Service) GetPublishedBlog(ctx context.Context, slug string) (*sitecontent.Blog, error) {
	row, err := s.blogRow(ctx, sitecontent.Filter{Column: "slug", Value: slug})
	if err != nil {
		return nil, err
	}
	if stringOf(row, "status") != sitecontent.BlogStatusPublished {
		return nil, &sitecontent.NotFoundError{Message: "Blog not found"}
	}
	blog := s.blogFromRow(row)
	if blog.Content, err = s.blogText(ctx, stringOf(row, "content")); err != nil {
		return nil, err
	}
	return blog, nil
}

// GetBlogByID returns the post with id.
func (s *Service) GetBlogByID(ctx context.Context, id string) (*sitecontent.Blog, error) {
	row, err := s.blogRow(ctx, sitecontent.Filter{Column: "id", Value: id})
	if err != nil {
		return nil, err
	}
	blog := s.blogFromRow(row)
	if blog.Content, err = s.blogText(ctx, stringOf(row, "content")); err != nil {
		return nil, err
	}
	return blog, nil
}

// ListBlogs returns posts in status, or every post when status is empty,
// newest first. Bodies are left out.
func (s *Service) ListBlogs(ctx context.Context, status string) ([]*sitecontent.Blog, error) {
	q := sitecontent.Query{
		Table:      sitecontent.TableBlogs,
		OrderBy:    "created_at",
		Descending: true,
	}
	if status != "" {
		q.Filters = append(q.Filters, sitecontent.Filter{Column: "status", Value: status})
	}
	rows, err := s.repo.Select(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list blogs: %w", err)
	}

	result := make([]*sitecontent.Blog, 0, len(rows))
	for _, row := range rows {
		result = append(result, s.blogFromRow(row))
	}
	return result, nil
}

// IncrementViews adds one view to the post with slug and returns the new
// count.
func (s *Service) IncrementViews(ctx context.Context, slug string) (int64, error) {
	rows, err := s.repo.Select(ctx, sitecontent.Query{
		Table:   sitecontent.TableBlogs,
		Columns: []string{"id", "views"},
		Filters: []sitecontent.Filter{{Column: "slug", Value: slug}},
		Limit:   1,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to look up blog: %w", err)
	}
	if len(rows) == 0 {
		return 0, &sitecontent.NotFoundError{Message: "Blog not found"}
	}

	id := stringOf(rows[0], "id")
	views := int64Of(rows[0], "views") + 1
	n, err := s.repo.Update(ctx, sitecontent.TableBlogs, sitecontent.Row{"views": views}, sitecontent.Filter{Column: "id", Value: id})
	if err := changed(n, err, "Blog"); err != nil {
		return 0, fmt.Errorf("failed to update views: %w", err)
	}
	return views, nil
}

// DeleteBlog removes a post and its comments, then its offloaded body.
func (s *Service) DeleteBlog(ctx context.Context, id string) error {
	row, err := s.blogRow(ctx, sitecontent.Filter{Column: "id", Value: id})
	if err != nil {
		return err
	}
	n, err := s.repo.Delete(ctx, sitecontent.TableBlogs, sitecontent.Filter{Column: "id", Value: id})
	if err := changed(n, err, "Blog"); err != nil {
		return err
	}
	if _, err := s.repo.Delete(ctx, sitecontent.TableComments, sitecontent.Filter{Column: "blog_id", Value: id}); err != nil {
		s.logger.Warn("failed to delete blog comments", "blog_id", id, "err", err)
	}
	s.discardBody(ctx, stringOf(row, "content"))
	return nil
}

func (s *Service) blogRow(ctx context.Context, filter sitecontent.Filter) (sitecontent.Row, error) {
	rows, err := s.repo.Select(ctx, sitecontent.Query{
		Table:   sitecontent.TableBlogs,
		Filters: []sitecontent.Filter{filter},
		Limit:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to look up blog: %w", err)
	}
	if len(rows) == 0 {
		return nil, &sitecontent.NotFoundError{Message: "Blog not found"}
	}
	return rows[0], nil
}

func (s *Service) ensureSlugFree(ctx context.Context, slug, id string) error {
	rows, err := s.repo.Select(ctx, sitecontent.Query{
		Table:   sitecontent.TableBlogs,
		Columns: []string{"id"},
		Filters: []sitecontent.Filter{{Column: "slug", Value: slug}},
		Limit:   1,
	})
	if err != nil {
		return fmt.Errorf("failed to check slug: %w", err)
	}
	if len(rows) > 0 && stringOf(rows[0], "id") != id {
		return sitecontent.NewValidationError("slug", "A blog with this slug already exists")
	}
	return nil
}

// storeBody encodes content and offloads it when the encoded form exceeds
// the inline budget.
func (s *Service) storeBody(ctx context.Context, content string) (string, error) {
	encoded := s.encode(content)
	if len(encoded) <= s.inlineBudget {
		return encoded, nil
	}
	gateway, err := s.requireGateway()
	if err != nil {
		return "", err
	}
	url, err := gateway.PutText(ctx, encoded)
	if err != nil {
		return "", fmt.Errorf("failed to offload blog content: %w", err)
	}
	return url, nil
}

// discardBody deletes an offloaded body. Failures leave an orphaned object
// and are only logged.
func (s *Service) discardBody(ctx context.Context, stored string) {
	if s.gateway == nil || !s.resolver.IsBlobPointer(stored) {
		return
	}
	if _, err := s.gateway.Delete(ctx, stored); err != nil {
		s.logger.Warn("failed to delete offloaded blog content", "url", stored, "err", err)
	}
}

func (s *Service) blogText(ctx context.Context, stored string) (string, error) {
	resolved, err := s.resolver.Resolve(ctx, resolver.FieldBlogContent, stored)
	if err != nil {
		return "", err
	}
	return resolved.Text, nil
}

func (s *Service) blogFromRow(row sitecontent.Row) *sitecontent.Blog {
	return &sitecontent.Blog{
		ID:            stringOf(row, "id"),
		Title:         stringOf(row, "title"),
		Slug:          stringOf(row, "slug"),
		Excerpt:       stringOf(row, "excerpt"),
		FeaturedImage: stringOf(row, "featured_image"),
		AuthorName:    stringOf(row, "author_name"),
		Category:      stringOf(row, "category"),
		Tags:          stringsOf(row, "tags"),
		Status:        stringOf(row, "status"),
		PublishDate:   timePtrOf(row, "publish_date"),
		Views:         int64Of(row, "views"),
		ReadingTime:   int(int64Of(row, "reading_time")),
		CreatedAt:     timeOf(row, "created_at"),
		UpdatedAt:     timeOf(row, "updated_at"),
	}
}

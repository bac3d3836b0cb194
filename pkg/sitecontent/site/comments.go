package site

import (
	"context"
	"fmt"

	"github.com/tendant/site-content/pkg/sitecontent"
	"github.com/tendant/site-content/pkg/sitecontent/resolver"
)

// CommentRequest is a visitor comment awaiting moderation.
type CommentRequest struct {
	BlogID   string `json:"blogId"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Content  string `json:"content"`
	ParentID string `json:"parentId,omitempty"`
}

// SubmitComment stores a comment as pending.
func (s *Service) SubmitComment(ctx context.Context, req CommentRequest) (*sitecontent.Comment, error) {
	if err := required("All fields are required",
		"blogId", req.BlogID, "name", req.Name, "email", req.Email, "content", req.Content); err != nil {
		return nil, err
	}

	row, err := s.repo.Insert(ctx, sitecontent.TableComments, sitecontent.Row{
		"blog_id":      req.BlogID,
		"author_name":  req.Name,
		"author_email": req.Email,
		"content":      s.encode(req.Content),
		"parent_id":    nullable(req.ParentID),
		"status":       sitecontent.CommentStatusPending,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store comment: %w", err)
	}
	return s.commentFromRow(row), nil
}

// ApprovedComments returns the approved comments of a blog, newest first.
func (s *Service) ApprovedComments(ctx context.Context, blogID string) ([]*sitecontent.Comment, error) {
	if blogID == "" {
		return nil, sitecontent.NewValidationError("blogId", "Blog ID is required")
	}
	return s.listComments(ctx,
		sitecontent.Filter{Column: "blog_id", Value: blogID},
		sitecontent.Filter{Column: "status", Value: sitecontent.CommentStatusApproved})
}

// ListComments returns comments in status, or all comments when status is
// empty, newest first.
func (s *Service) ListComments(ctx context.Context, status string) ([]*sitecontent.Comment, error) {
	var filters []sitecontent.Filter
	if status != "" {
		filters = append(filters, sitecontent.Filter{Column: "status", Value: status})
	}
	return s.listComments(ctx, filters...)
}

func (s *Service) listComments(ctx context.Context, filters ...sitecontent.Filter) ([]*sitecontent.Comment, error) {
	rows, err := s.repo.Select(ctx, sitecontent.Query{
		Table:      sitecontent.TableComments,
		Filters:    filters,
		OrderBy:    "created_at",
		Descending: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	result := make([]*sitecontent.Comment, 0, len(rows))
	for _, row := range rows {
		result = append(result, s.commentFromRow(row))
	}
	return result, nil
}

// ModerateComment sets a comment's status.
func (s *Service) ModerateComment(ctx context.Context, id, status string) error {
	if err := oneOf("status", status,
		sitecontent.CommentStatusPending, sitecontent.CommentStatusApproved, sitecontent.CommentStatusRejected); err != nil {
		return err
	}
	n, err := s.repo.Update(ctx, sitecontent.TableComments,
		sitecontent.Row{"status": status}, sitecontent.Filter{Column: "id", Value: id})
	return changed(n, err, "Comment")
}

// DeleteComment removes a comment.
func (s *Service) DeleteComment(ctx context.Context, id string) error {
	n, err := s.repo.Delete(ctx, sitecontent.TableComments, sitecontent.Filter{Column: "id", Value: id})
	return changed(n, err, "Comment")
}

func (s *Service) commentFromRow(row sitecontent.Row) *sitecontent.Comment {
	return &sitecontent.Comment{
		ID:          stringOf(row, "id"),
		BlogID:      stringOf(row, "blog_id"),
		AuthorName:  stringOf(row, "author_name"),
		AuthorEmail: stringOf(row, "author_email"),
		Content:     s.resolver.Text(resolver.FieldCommentContent, stringOf(row, "content")),
		ParentID:    stringOf(row, "parent_id"),
		Status:      stringOf(row, "status"),
		CreatedAt:   timeOf(row, "created_at"),
	}
}

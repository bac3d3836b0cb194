package site

import (
	"context"
	"fmt"

	"github.com/tendant/site-content/pkg/sitecontent"
	"github.com/tendant/site-content/pkg/sitecontent/resolver"
)

// ContactRequest is a contact form submission.
type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// SubmitContact stores a contact message and forwards it to the admin. A
// failed notification email is logged and does not fail the submission.
func (s *Service) SubmitContact(ctx context.Context, req ContactRequest) (*sitecontent.ContactSubmission, error) {
	if err := required("All fields are required",
		"name", req.Name, "email", req.Email, "subject", req.Subject, "message", req.Message); err != nil {
		return nil, err
	}

	row, err := s.repo.Insert(ctx, sitecontent.TableContactSubmissions, sitecontent.Row{
		"name":    req.Name,
		"email":   req.Email,
		"subject": s.encode(req.Subject),
		"message": s.encode(req.Message),
		"status":  sitecontent.ContactStatusUnread,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store contact submission: %w", err)
	}

	msg, err := s.templates.ContactNotification(req.Name, req.Email, req.Subject, req.Message)
	if err != nil {
		s.logger.Error("failed to render contact notification", "err", err)
	} else {
		_ = s.send(ctx, msg)
	}

	s.logger.Info("contact submission stored", "id", stringOf(row, "id"))
	return s.contactFromRow(row), nil
}

// ListContacts returns every submission, newest first, with readable text.
func (s *Service) ListContacts(ctx context.Context, status string) ([]*sitecontent.ContactSubmission, error) {
	q := sitecontent.Query{
		Table:      sitecontent.TableContactSubmissions,
		OrderBy:    "created_at",
		Descending: true,
	}
	if status != "" {
		q.Filters = append(q.Filters, sitecontent.Filter{Column: "status", Value: status})
	}
	rows, err := s.repo.Select(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list contact submissions: %w", err)
	}

	result := make([]*sitecontent.ContactSubmission, 0, len(rows))
	for _, row := range rows {
		result = append(result, s.contactFromRow(row))
	}
	return result, nil
}

// SetContactStatus marks a submission unread, read or replied.
func (s *Service) SetContactStatus(ctx context.Context, id, status string) error {
	if err := oneOf("status", status,
		sitecontent.ContactStatusUnread, sitecontent.ContactStatusRead, sitecontent.ContactStatusReplied); err != nil {
		return err
	}
	n, err := s.repo.Update(ctx, sitecontent.TableContactSubmissions,
		sitecontent.Row{"status": status}, sitecontent.Filter{Column: "id", Value: id})
	return changed(n, err, "Contact submission")
}

// DeleteContact removes a submission.
func (s *Service) DeleteContact(ctx context.Context, id string) error {
	n, err := s.repo.Delete(ctx, sitecontent.TableContactSubmissions, sitecontent.Filter{Column: "id", Value: id})
	return changed(n, err, "Contact submission")
}

func (s *Service) contactFromRow(row sitecontent.Row) *sitecontent.ContactSubmission {
	return &sitecontent.ContactSubmission{
		ID:        stringOf(row, "id"),
		Name:      stringOf(row, "name"),
		Email:     stringOf(row, "email"),
		Subject:   s.resolver.Text(resolver.FieldContactSubject, stringOf(row, "subject")),
		Message:   s.resolver.Text(resolver.FieldContactMessage, stringOf(row, "message")),
		Status:    stringOf(row, "status"),
		CreatedAt: timeOf(row, "created_at"),
	}
}

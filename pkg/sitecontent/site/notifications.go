package site

import (
	"context"
	"fmt"

	"github.com/tendant/site-content/pkg/sitecontent"
	"github.com/tendant/site-content/pkg/sitecontent/resolver"
)

// NotificationRequest creates an admin notification.
type NotificationRequest struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Type    string `json:"type"`
	Link    string `json:"link,omitempty"`
}

// CreateNotification stores a notification with its title and message
// encoded.
func (s *Service) CreateNotification(ctx context.Context, req NotificationRequest) (*sitecontent.Notification, error) {
	if err := required("Title and message are required", "title", req.Title, "message", req.Message); err != nil {
		return nil, err
	}
	if req.Type == "" {
		req.Type = sitecontent.NotificationInfo
	}
	if err := oneOf("type", req.Type,
		sitecontent.NotificationInfo, sitecontent.NotificationSuccess,
		sitecontent.NotificationWarning, sitecontent.NotificationError); err != nil {
		return nil, err
	}

	row, err := s.repo.Insert(ctx, sitecontent.TableNotifications, sitecontent.Row{
		"title":   s.encode(req.Title),
		"message": s.encode(req.Message),
		"type":    req.Type,
		"read":    false,
		"link":    nullable(req.Link),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store notification: %w", err)
	}
	return s.notificationFromRow(row), nil
}

// ListNotifications returns notifications newest first. With unreadOnly set,
// read ones are skipped.
func (s *Service) ListNotifications(ctx context.Context, unreadOnly bool) ([]*sitecontent.Notification, error) {
	q := sitecontent.Query{
		Table:      sitecontent.TableNotifications,
		OrderBy:    "created_at",
		Descending: true,
	}
	if unreadOnly {
		q.Filters = append(q.Filters, sitecontent.Filter{Column: "read", Value: false})
	}
	rows, err := s.repo.Select(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	result := make([]*sitecontent.Notification, 0, len(rows))
	for _, row := range rows {
		result = append(result, s.notificationFromRow(row))
	}
	return result, nil
}

// MarkNotificationRead flags a notification as read.
func (s *Service) MarkNotificationRead(ctx context.Context, id string) error {
	n, err := s.repo.Update(ctx, sitecontent.TableNotifications,
		sitecontent.Row{"read": true}, sitecontent.Filter{Column: "id", Value: id})
	return changed(n, err, "Notification")
}

// MarkAllNotificationsRead flags every unread notification as read and
// returns how many changed.
func (s *Service) MarkAllNotificationsRead(ctx context.Context) (int64, error) {
	return s.repo.Update(ctx, sitecontent.TableNotifications,
		sitecontent.Row{"read": true}, sitecontent.Filter{Column: "read", Value: false})
}

// DeleteNotification removes a notification.
func (s *Service) DeleteNotification(ctx context.Context, id string) error {
	n, err := s.repo.Delete(ctx, sitecontent.TableNotifications, sitecontent.Filter{Column: "id", Value: id})
	return changed(n, err, "Notification")
}

func (s *Service) notificationFromRow(row sitecontent.Row) *sitecontent.Notification {
	return &sitecontent.Notification{
		ID:        stringOf(row, "id"),
		Title:     s.resolver.Text(resolver.FieldNotificationTitle, stringOf(row, "title")),
		Message:   s.resolver.Text(resolver.FieldNotificationMessage, stringOf(row, "message")),
		Type:      stringOf(row, "type"),
		Read:      boolOf(row, "read"),
		Link:      stringOf(row, "link"),
		CreatedAt: timeOf(row, "created_at"),
	}
}

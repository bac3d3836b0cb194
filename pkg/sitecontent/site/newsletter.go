package site

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tendant/site-content/pkg/sitecontent"
	"github.com/tendant/site-content/pkg/sitecontent/mail"
	"github.com/tendant/site-content/pkg/sitecontent/resolver"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// DefaultExcerpt is used in announcements of posts without an excerpt.
const DefaultExcerpt = "Check out our new blog post!"

// ValidEmail reports whether email looks like an address.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// Subscribe adds email to the newsletter. An unsubscribed address is
// reactivated; an active one is rejected. New subscribers get a welcome
// email and the admin is told about them; delivery failures are logged.
func (s *Service) Subscribe(ctx context.Context, email string) (*sitecontent.Subscriber, error) {
	email = strings.TrimSpace(email)
	if !ValidEmail(email) {
		return nil, sitecontent.NewValidationError("email", "Valid email is required")
	}

	existing, err := s.findSubscriber(ctx, email)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if existing != nil {
		if stringOf(existing, "status") == sitecontent.SubscriberStatusActive {
			return nil, &sitecontent.ValidationError{
				Field:   "email",
				Message: "Email already subscribed",
				Err:     sitecontent.ErrAlreadySubscribed,
			}
		}
		set := sitecontent.Row{
			"status":          sitecontent.SubscriberStatusActive,
			"confirmed_at":    now,
			"unsubscribed_at": nil,
		}
		id := stringOf(existing, "id")
		n, err := s.repo.Update(ctx, sitecontent.TableNewsletterSubscribers, set, sitecontent.Filter{Column: "id", Value: id})
		if err := changed(n, err, "Subscriber"); err != nil {
			return nil, fmt.Errorf("failed to reactivate subscriber: %w", err)
		}
		for k, v := range set {
			existing[k] = v
		}
		s.logger.Info("subscriber reactivated", "id", id)
		return s.subscriberFromRow(existing), nil
	}

	row, err := s.repo.Insert(ctx, sitecontent.TableNewsletterSubscribers, sitecontent.Row{
		"email":         s.encode(email),
		"status":        sitecontent.SubscriberStatusActive,
		"subscribed_at": now,
		"confirmed_at":  now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	s.welcome(ctx, email, now)
	if _, err := s.CreateNotification(ctx, NotificationRequest{
		Title:   "New newsletter subscriber",
		Message: email + " subscribed to the newsletter",
		Type:    sitecontent.NotificationInfo,
		Link:    "/admin/newsletter",
	}); err != nil {
		s.logger.Error("failed to record subscriber notification", "err", err)
	}

	s.logger.Info("subscriber added", "id", stringOf(row, "id"))
	return s.subscriberFromRow(row), nil
}

// Unsubscribe deactivates email.
func (s *Service) Unsubscribe(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if !ValidEmail(email) {
		return sitecontent.NewValidationError("email", "Valid email is required")
	}
	existing, err := s.findSubscriber(ctx, email)
	if err != nil {
		return err
	}
	if existing == nil {
		return &sitecontent.NotFoundError{Message: "Subscriber not found"}
	}
	return s.SetSubscriberStatus(ctx, stringOf(existing, "id"), sitecontent.SubscriberStatusUnsubscribed)
}

// findSubscriber looks email up by its encoded form, then by the plain
// address for rows written before emails were encoded.
func (s *Service) findSubscriber(ctx context.Context, email string) (sitecontent.Row, error) {
	for _, candidate := range []string{s.encode(email), email} {
		rows, err := s.repo.Select(ctx, sitecontent.Query{
			Table:   sitecontent.TableNewsletterSubscribers,
			Filters: []sitecontent.Filter{{Column: "email", Value: candidate}},
			Limit:   1,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to look up subscriber: %w", err)
		}
		if len(rows) > 0 {
			return rows[0], nil
		}
	}
	return nil, nil
}

// welcome sends the welcome and admin emails concurrently.
func (s *Service) welcome(ctx context.Context, email string, at time.Time) {
	var msgs []mail.Message
	if msg, err := s.templates.Welcome(email); err != nil {
		s.logger.Error("failed to render welcome email", "err", err)
	} else {
		msgs = append(msgs, msg)
	}
	if msg, err := s.templates.AdminNewSubscriber(email, at); err != nil {
		s.logger.Error("failed to render admin notification", "err", err)
	} else {
		msgs = append(msgs, msg)
	}
	s.sendAll(ctx, msgs)
}

// ListSubscribers returns subscribers in status, or all of them when status
// is empty, newest first.
func (s *Service) ListSubscribers(ctx context.Context, status string) ([]*sitecontent.Subscriber, error) {
	q := sitecontent.Query{
		Table:      sitecontent.TableNewsletterSubscribers,
		OrderBy:    "created_at",
		Descending: true,
	}
	if status != "" {
		q.Filters = append(q.Filters, sitecontent.Filter{Column: "status", Value: status})
	}
	rows, err := s.repo.Select(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}

	result := make([]*sitecontent.Subscriber, 0, len(rows))
	for _, row := range rows {
		result = append(result, s.subscriberFromRow(row))
	}
	return result, nil
}

// SetSubscriberStatus changes a subscriber's status.
func (s *Service) SetSubscriberStatus(ctx context.Context, id, status string) error {
	if err := oneOf("status", status,
		sitecontent.SubscriberStatusPending, sitecontent.SubscriberStatusActive, sitecontent.SubscriberStatusUnsubscribed); err != nil {
		return err
	}
	set := sitecontent.Row{"status": status}
	switch status {
	case sitecontent.SubscriberStatusUnsubscribed:
		set["unsubscribed_at"] = s.now()
	case sitecontent.SubscriberStatusActive:
		set["confirmed_at"] = s.now()
		set["unsubscribed_at"] = nil
	}
	n, err := s.repo.Update(ctx, sitecontent.TableNewsletterSubscribers, set, sitecontent.Filter{Column: "id", Value: id})
	return changed(n, err, "Subscriber")
}

// DeleteSubscriber removes a subscriber.
func (s *Service) DeleteSubscriber(ctx context.Context, id string) error {
	n, err := s.repo.Delete(ctx, sitecontent.TableNewsletterSubscribers, sitecontent.Filter{Column: "id", Value: id})
	return changed(n, err, "Subscriber")
}

// NotifyRequest announces a published blog post.
type NotifyRequest struct {
	BlogID  string `json:"blogId"`
	Title   string `json:"title"`
	Slug    string `json:"slug"`
	Excerpt string `json:"excerpt,omitempty"`
}

// SendFailure is an announcement that could not be delivered.
type SendFailure struct {
	Email string `json:"email"`
	Error string `json:"error"`
}

// NotifyResult reports the outcome of every send.
type NotifyResult struct {
	Count  int           `json:"count"`
	Sent   int           `json:"sent"`
	Failed []SendFailure `json:"failed,omitempty"`
}

// NotifySubscribers emails every active subscriber about a post. Sends run
// concurrently and independently; a failed send never cancels the others.
func (s *Service) NotifySubscribers(ctx context.Context, req NotifyRequest) (*NotifyResult, error) {
	if err := required("Missing blog details", "blogId", req.BlogID, "title", req.Title, "slug", req.Slug); err != nil {
		return nil, err
	}
	excerpt := req.Excerpt
	if excerpt == "" {
		excerpt = DefaultExcerpt
	}

	rows, err := s.repo.Select(ctx, sitecontent.Query{
		Table:   sitecontent.TableNewsletterSubscribers,
		Columns: []string{"email"},
		Filters: []sitecontent.Filter{{Column: "status", Value: sitecontent.SubscriberStatusActive}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch subscribers: %w", err)
	}
	if len(rows) == 0 {
		return &NotifyResult{}, nil
	}

	msgs := make([]mail.Message, 0, len(rows))
	for _, row := range rows {
		email := s.resolver.Text(resolver.FieldSubscriberEmail, stringOf(row, "email"))
		msg, err := s.templates.NewBlogPost(email, req.Title, req.Slug, excerpt)
		if err != nil {
			return nil, fmt.Errorf("failed to render announcement: %w", err)
		}
		msgs = append(msgs, msg)
	}

	s.logger.Info("notifying subscribers", "blog_id", req.BlogID, "title", req.Title, "count", len(msgs))
	errs := s.sendAll(ctx, msgs)

	result := &NotifyResult{Count: len(msgs)}
	for i, err := range errs {
		if err != nil {
			result.Failed = append(result.Failed, SendFailure{Email: msgs[i].To, Error: err.Error()})
			continue
		}
		result.Sent++
	}
	if len(result.Failed) > 0 {
		s.logger.Warn("some announcements failed", "blog_id", req.BlogID, "failed", len(result.Failed), "sent", result.Sent)
	}
	return result, nil
}

// sendAll sends msgs concurrently, at most maxSends at a time, and returns
// each send's error at the message's index.
func (s *Service) sendAll(ctx context.Context, msgs []mail.Message) []error {
	errs := make([]error, len(msgs))
	var g errgroup.Group
	g.SetLimit(s.maxSends)
	for i, msg := range msgs {
		g.Go(func() error {
			errs[i] = s.send(ctx, msg)
			return nil
		})
	}
	_ = g.Wait()
	return errs
}

func (s *Service) subscriberFromRow(row sitecontent.Row) *sitecontent.Subscriber {
	subscribedAt := timeOf(row, "subscribed_at")
	if subscribedAt.IsZero() {
		subscribedAt = timeOf(row, "created_at")
	}
	return &sitecontent.Subscriber{
		ID:             stringOf(row, "id"),
		Email:          s.resolver.Text(resolver.FieldSubscriberEmail, stringOf(row, "email")),
		Status:         stringOf(row, "status"),
		SubscribedAt:   subscribedAt,
		ConfirmedAt:    timePtrOf(row, "confirmed_at"),
		UnsubscribedAt: timePtrOf(row, "unsubscribed_at"),
	}
}

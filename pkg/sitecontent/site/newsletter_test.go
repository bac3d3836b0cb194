package site

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/site-content/pkg/sitecontent"
	"github.com/tendant/site-content/pkg/sitecontent/mail"
)

func TestSubscribe_New(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sub, err := f.svc.Subscribe(ctx, " donor@example.org ")
	require.NoError(t, err)
	assert.Equal(t, "donor@example.org", sub.Email)
	assert.Equal(t, sitecontent.SubscriberStatusActive, sub.Status)
	assert.NotNil(t, sub.ConfirmedAt)

	rows := f.rows(t, sitecontent.TableNewsletterSubscribers)
	require.Len(t, rows, 1)
	stored := rows[0]["email"].(string)
	assert.NotContains(t, stored, "@")
	assert.Equal(t, "donor@example.org", f.codec.Decode(stored))

	var to []string
	for _, m := range f.outbox.Messages() {
		to = append(to, m.To)
	}
	assert.ElementsMatch(t, []string{"donor@example.org", adminEmail}, to)

	notes, err := f.svc.ListNotifications(ctx, true)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Contains(t, notes[0].Message, "donor@example.org")
}

func TestSubscribe_InvalidEmail(t *testing.T) {
	f := newFixture(t)

	for _, email := range []string{"", "not-an-email", "a@b", "a b@example.org", "@example.org"} {
		_, err := f.svc.Subscribe(context.Background(), email)
		var valErr *sitecontent.ValidationError
		require.ErrorAs(t, err, &valErr, email)
		assert.Equal(t, "Valid email is required", valErr.Message)
	}
	assert.Empty(t, f.outbox.Messages())
}

func TestSubscribe_AlreadyActive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Subscribe(ctx, "donor@example.org")
	require.NoError(t, err)

	_, err = f.svc.Subscribe(ctx, "donor@example.org")
	assert.ErrorIs(t, err, sitecontent.ErrAlreadySubscribed)
	assert.Equal(t, 400, sitecontent.StatusCode(err))
	assert.Len(t, f.rows(t, sitecontent.TableNewsletterSubscribers), 1)
}

func TestSubscribe_Reactivates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Subscribe(ctx, "donor@example.org")
	require.NoError(t, err)
	require.NoError(t, f.svc.Unsubscribe(ctx, "donor@example.org"))

	subs, err := f.svc.ListSubscribers(ctx, sitecontent.SubscriberStatusUnsubscribed)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.NotNil(t, subs[0].UnsubscribedAt)

	sent := len(f.outbox.Messages())
	again, err := f.svc.Subscribe(ctx, "donor@example.org")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, sitecontent.SubscriberStatusActive, again.Status)
	assert.Nil(t, again.UnsubscribedAt)
	assert.Len(t, f.rows(t, sitecontent.TableNewsletterSubscribers), 1)
	assert.Len(t, f.outbox.Messages(), sent)
}

func TestSubscribe_FindsPlainLegacyRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.repo.Insert(ctx, sitecontent.TableNewsletterSubscribers, sitecontent.Row{
		"email":  "old@example.org",
		"status": sitecontent.SubscriberStatusActive,
	})
	require.NoError(t, err)

	_, err = f.svc.Subscribe(ctx, "old@example.org")
	assert.ErrorIs(t, err, sitecontent.ErrAlreadySubscribed)

	subs, err := f.svc.ListSubscribers(ctx, "")
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "old@example.org", subs[0].Email)
}

func TestUnsubscribe_Unknown(t *testing.T) {
	f := newFixture(t)
	err := f.svc.Unsubscribe(context.Background(), "ghost@example.org")
	assert.ErrorIs(t, err, sitecontent.ErrNotFound)
}

func TestSubscribe_MailFailureStillSubscribes(t *testing.T) {
	f := newFixture(t)
	f.outbox.Fail = func(mail.Message) error { return errors.New("smtp down") }

	sub, err := f.svc.Subscribe(context.Background(), "donor@example.org")
	require.NoError(t, err)
	assert.Equal(t, sitecontent.SubscriberStatusActive, sub.Status)
}

func TestNotifySubscribers_FanOut(t *testing.T) {
	f := newFixture(t, WithMaxConcurrentSends(2))
	ctx := context.Background()

	for _, email := range []string{"a@example.org", "b@example.org", "c@example.org", "gone@example.org"} {
		_, err := f.svc.Subscribe(ctx, email)
		require.NoError(t, err)
	}
	require.NoError(t, f.svc.Unsubscribe(ctx, "gone@example.org"))

	var attempts atomic.Int64
	f.outbox.Fail = func(m mail.Message) error {
		if !strings.HasPrefix(m.Subject, "New Blog Post") {
			return nil
		}
		attempts.Add(1)
		if m.To == "b@example.org" {
			return fmt.Errorf("mailbox full")
		}
		return nil
	}

	result, err := f.svc.NotifySubscribers(ctx, NotifyRequest{BlogID: "blog-1", Title: "Clean Water", Slug: "clean-water"})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Count)
	assert.Equal(t, 2, result.Sent)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "b@example.org", result.Failed[0].Email)
	assert.Equal(t, int64(3), attempts.Load())

	var announced []string
	for _, m := range f.outbox.Messages() {
		if strings.HasPrefix(m.Subject, "New Blog Post") {
			announced = append(announced, m.To)
			assert.Contains(t, m.HTML, DefaultExcerpt)
			assert.Contains(t, m.HTML, "https://hope.example.org/blogs/clean-water")
		}
	}
	assert.ElementsMatch(t, []string{"a@example.org", "c@example.org"}, announced)
}

func TestNotifySubscribers_BoundedConcurrency(t *testing.T) {
	f := newFixture(t, WithMaxConcurrentSends(3))
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		_, err := f.svc.Subscribe(ctx, fmt.Sprintf("donor%d@example.org", i))
		require.NoError(t, err)
	}

	var inFlight, peak atomic.Int64
	f.outbox.Fail = func(m mail.Message) error {
		if !strings.HasPrefix(m.Subject, "New Blog Post") {
			return nil
		}
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		if m.To == "donor0@example.org" {
			return errors.New("mailbox full")
		}
		return nil
	}

	result, err := f.svc.NotifySubscribers(ctx, NotifyRequest{BlogID: "blog-1", Title: "Harvest", Slug: "harvest"})
	require.NoError(t, err)
	assert.Equal(t, 12, result.Count)
	assert.Equal(t, 11, result.Sent)
	assert.Len(t, result.Failed, 1)
	assert.LessOrEqual(t, peak.Load(), int64(3))
	assert.Positive(t, peak.Load())
}

func TestNotifySubscribers_NoSubscribers(t *testing.T) {
	f := newFixture(t)

	result, err := f.svc.NotifySubscribers(context.Background(), NotifyRequest{BlogID: "b", Title: "T", Slug: "t"})
	require.NoError(t, err)
	assert.Zero(t, result.Count)
	assert.Empty(t, f.outbox.Messages())
}

func TestNotifySubscribers_MissingDetails(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.NotifySubscribers(context.Background(), NotifyRequest{BlogID: "b", Title: "T"})
	var valErr *sitecontent.ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "Missing blog details", valErr.Message)
}

func TestSetSubscriberStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sub, err := f.svc.Subscribe(ctx, "donor@example.org")
	require.NoError(t, err)

	assert.Equal(t, 400, sitecontent.StatusCode(f.svc.SetSubscriberStatus(ctx, sub.ID, "bounced")))
	require.NoError(t, f.svc.SetSubscriberStatus(ctx, sub.ID, sitecontent.SubscriberStatusPending))

	active, err := f.svc.ListSubscribers(ctx, sitecontent.SubscriberStatusActive)
	require.NoError(t, err)
	assert.Empty(t, active)

	require.NoError(t, f.svc.DeleteSubscriber(ctx, sub.ID))
	assert.ErrorIs(t, f.svc.DeleteSubscriber(ctx, sub.ID), sitecontent.ErrNotFound)
}

func TestNotifications(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	n, err := f.svc.CreateNotification(ctx, NotificationRequest{Title: "Storage", Message: "Bucket quota at 80%", Type: sitecontent.NotificationWarning})
	require.NoError(t, err)
	assert.Equal(t, "Storage", n.Title)
	assert.False(t, n.Read)

	_, err = f.svc.CreateNotification(ctx, NotificationRequest{Title: "Hello", Message: "World"})
	require.NoError(t, err)

	_, err = f.svc.CreateNotification(ctx, NotificationRequest{Title: "x", Message: "y", Type: "fatal"})
	assert.Equal(t, 400, sitecontent.StatusCode(err))

	rows := f.rows(t, sitecontent.TableNotifications)
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.NotEqual(t, "Storage", row["title"])
	}

	require.NoError(t, f.svc.MarkNotificationRead(ctx, n.ID))
	unread, err := f.svc.ListNotifications(ctx, true)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, "Hello", unread[0].Title)
	assert.Equal(t, sitecontent.NotificationInfo, unread[0].Type)

	changedRows, err := f.svc.MarkAllNotificationsRead(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), changedRows)

	all, err := f.svc.ListNotifications(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, f.svc.DeleteNotification(ctx, n.ID))
	assert.ErrorIs(t, f.svc.DeleteNotification(ctx, n.ID), sitecontent.ErrNotFound)
	assert.ErrorIs(t, f.svc.MarkNotificationRead(ctx, n.ID), sitecontent.ErrNotFound)
}

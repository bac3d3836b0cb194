package site

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/site-content/pkg/sitecontent"
	"github.com/tendant/site-content/pkg/sitecontent/codec"
	"github.com/tendant/site-content/pkg/sitecontent/mail"
	"github.com/tendant/site-content/pkg/sitecontent/offload"
	repomemory "github.com/tendant/site-content/pkg/sitecontent/repo/memory"
	"github.com/tendant/site-content/pkg/sitecontent/resolver"
	"github.com/tendant/site-content/pkg/sitecontent/storage/memory"
)

const adminEmail = "admin@hope.example.org"

type fixture struct {
	svc     *Service
	repo    *repomemory.Repository
	store   *memory.Backend
	gateway *offload.Gateway
	outbox  *mail.Outbox
	codec   codec.Codec
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	c, err := codec.Lookup(codec.Default)
	require.NoError(t, err)

	f := &fixture{
		repo:   repomemory.New(),
		store:  memory.New(),
		outbox: &mail.Outbox{},
		codec:  c,
	}
	f.gateway = offload.New(f.store, offload.Credentials{
		ProjectID:   "hope",
		ClientEmail: "uploader@hope.iam.gserviceaccount.com",
		PrivateKey:  "secret",
		BucketName:  "hope-site",
	}, offload.WithRepository(f.repo))
	res := resolver.New(c,
		resolver.WithBlobPrefix(f.gateway.URLPrefix()),
		resolver.WithFetcher(resolver.FetcherFunc(f.gateway.Fetch)))

	base := []Option{
		WithRepository(f.repo),
		WithCodec(c),
		WithResolver(res),
		WithGateway(f.gateway),
		WithMailer(f.outbox, mail.NewTemplates(mail.Site{
			Name:       "Hope Foundation",
			AdminEmail: adminEmail,
			URL:        "https://hope.example.org",
		})),
	}
	f.svc, err = New(append(base, opts...)...)
	require.NoError(t, err)
	return f
}

func (f *fixture) rows(t *testing.T, table string, filters ...sitecontent.Filter) []sitecontent.Row {
	t.Helper()
	rows, err := f.repo.Select(context.Background(), sitecontent.Query{Table: table, Filters: filters})
	require.NoError(t, err)
	return rows
}

func TestNew_RequiresRepository(t *testing.T) {
	_, err := New()
	assert.Error(t, err)
}

func TestNew_Defaults(t *testing.T) {
	svc, err := New(WithRepository(repomemory.New()))
	require.NoError(t, err)
	assert.Equal(t, codec.Default, svc.Codec().Name())
	assert.Nil(t, svc.Gateway())
}

func TestContact_Submit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	got, err := f.svc.SubmitContact(ctx, ContactRequest{
		Name:    "Asha",
		Email:   "asha@example.org",
		Subject: "Volunteer day",
		Message: "Can I bring\ntwo friends?",
	})
	require.NoError(t, err)
	assert.Equal(t, "Volunteer day", got.Subject)
	assert.Equal(t, "Can I bring\ntwo friends?", got.Message)
	assert.Equal(t, sitecontent.ContactStatusUnread, got.Status)

	rows := f.rows(t, sitecontent.TableContactSubmissions)
	require.Len(t, rows, 1)
	assert.NotEqual(t, "Volunteer day", rows[0]["subject"])
	assert.Equal(t, "Volunteer day", f.codec.Decode(rows[0]["subject"].(string)))
	assert.Equal(t, "asha@example.org", rows[0]["email"])

	msgs := f.outbox.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, adminEmail, msgs[0].To)
	assert.Contains(t, msgs[0].Subject, "Volunteer day")
}

func TestContact_SubmitRequiresAllFields(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.SubmitContact(context.Background(), ContactRequest{Name: "Asha", Email: "asha@example.org", Subject: "Hi"})
	var valErr *sitecontent.ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "All fields are required", valErr.Message)
	assert.Equal(t, 400, sitecontent.StatusCode(err))
	assert.Empty(t, f.rows(t, sitecontent.TableContactSubmissions))
}

func TestContact_EmailFailureDoesNotFailSubmission(t *testing.T) {
	f := newFixture(t)
	f.outbox.Fail = func(mail.Message) error { return errors.New("smtp down") }

	_, err := f.svc.SubmitContact(context.Background(), ContactRequest{
		Name: "Asha", Email: "asha@example.org", Subject: "Hi", Message: "Hello",
	})
	require.NoError(t, err)
	assert.Len(t, f.rows(t, sitecontent.TableContactSubmissions), 1)
}

func TestContact_ListAndStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.SubmitContact(ctx, ContactRequest{Name: "A", Email: "a@example.org", Subject: "One", Message: "First"})
	require.NoError(t, err)

	// rows written before encoding was introduced
	_, err = f.repo.Insert(ctx, sitecontent.TableContactSubmissions, sitecontent.Row{
		"name": "B", "email": "b@example.org", "subject": "Legacy", "message": "plain text", "status": "read",
	})
	require.NoError(t, err)

	all, err := f.svc.ListContacts(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	subjects := []string{all[0].Subject, all[1].Subject}
	assert.ElementsMatch(t, []string{"One", "Legacy"}, subjects)

	require.NoError(t, f.svc.SetContactStatus(ctx, created.ID, sitecontent.ContactStatusReplied))
	replied, err := f.svc.ListContacts(ctx, sitecontent.ContactStatusReplied)
	require.NoError(t, err)
	require.Len(t, replied, 1)
	assert.Equal(t, "First", replied[0].Message)

	err = f.svc.SetContactStatus(ctx, created.ID, "archived")
	assert.Equal(t, 400, sitecontent.StatusCode(err))

	err = f.svc.SetContactStatus(ctx, "missing", sitecontent.ContactStatusRead)
	assert.ErrorIs(t, err, sitecontent.ErrNotFound)

	require.NoError(t, f.svc.DeleteContact(ctx, created.ID))
	assert.ErrorIs(t, f.svc.DeleteContact(ctx, created.ID), sitecontent.ErrNotFound)
}

func TestComments_SubmitAndModerate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.svc.SubmitComment(ctx, CommentRequest{
		BlogID: "blog-1", Name: "Ravi", Email: "ravi@example.org", Content: "Lovely work!",
	})
	require.NoError(t, err)
	assert.Equal(t, sitecontent.CommentStatusPending, c.Status)
	assert.Equal(t, "Lovely work!", c.Content)
	assert.Empty(t, c.ParentID)

	rows := f.rows(t, sitecontent.TableComments)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0]["parent_id"])
	assert.NotEqual(t, "Lovely work!", rows[0]["content"])

	approved, err := f.svc.ApprovedComments(ctx, "blog-1")
	require.NoError(t, err)
	assert.Empty(t, approved)

	require.NoError(t, f.svc.ModerateComment(ctx, c.ID, sitecontent.CommentStatusApproved))
	approved, err = f.svc.ApprovedComments(ctx, "blog-1")
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, "Lovely work!", approved[0].Content)
	assert.Equal(t, "Ravi", approved[0].AuthorName)

	other, err := f.svc.ApprovedComments(ctx, "blog-2")
	require.NoError(t, err)
	assert.Empty(t, other)

	assert.Equal(t, 400, sitecontent.StatusCode(f.svc.ModerateComment(ctx, c.ID, "spam")))
	assert.ErrorIs(t, f.svc.ModerateComment(ctx, "nope", sitecontent.CommentStatusRejected), sitecontent.ErrNotFound)
}

func TestComments_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.SubmitComment(ctx, CommentRequest{BlogID: "b", Name: "n", Email: "e@example.org"})
	assert.Equal(t, 400, sitecontent.StatusCode(err))

	_, err = f.svc.ApprovedComments(ctx, "")
	var valErr *sitecontent.ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "Blog ID is required", valErr.Message)
}

func TestComments_NewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	for i, text := range []string{"first", "second", "third"} {
		_, err := f.repo.Insert(ctx, sitecontent.TableComments, sitecontent.Row{
			"blog_id":    "b",
			"content":    f.codec.Encode(text),
			"status":     sitecontent.CommentStatusApproved,
			"created_at": base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	got, err := f.svc.ApprovedComments(ctx, "b")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "third", got[0].Content)
	assert.Equal(t, "first", got[2].Content)
}

func TestGenerateSlug(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Hello World", "hello-world"},
		{"  Clean Water for 200 Families!  ", "clean-water-for-200-families"},
		{"Rock & Roll -- Night", "rock-roll-night"},
		{"---", ""},
		{"snake_case stays", "snake_case-stays"},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, GenerateSlug(tt.title))
		})
	}
}

func TestReadingTime(t *testing.T) {
	assert.Equal(t, 1, ReadingTime(""))
	assert.Equal(t, 1, ReadingTime("just a few words"))
	assert.Equal(t, 1, ReadingTime(strings.Repeat("word ", 200)))
	assert.Equal(t, 2, ReadingTime(strings.Repeat("word ", 201)))
	assert.Equal(t, 3, ReadingTime(StripTags(strings.Repeat("<p>word</p> ", 450))))
}

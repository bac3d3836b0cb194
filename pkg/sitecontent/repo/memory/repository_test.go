package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/site-content/pkg/sitecontent"
)

func TestRepositoryInsertFillsGeneratedColumns(t *testing.T) {
	repo := New()
	ctx := context.Background()

	row, err := repo.Insert(ctx, sitecontent.TableComments, sitecontent.Row{"content": "hi"})
	require.NoError(t, err)
	assert.NotEmpty(t, row["id"])
	assert.IsType(t, time.Time{}, row["created_at"])

	row["content"] = "mutated"
	rows, err := repo.Select(ctx, sitecontent.Query{Table: sitecontent.TableComments})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "hi", rows[0]["content"])
}

func TestRepositorySelect(t *testing.T) {
	repo := New()
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, status := range []string{"approved", "pending", "approved", "approved"} {
		_, err := repo.Insert(ctx, sitecontent.TableComments, sitecontent.Row{
			"blog_id":    "b1",
			"status":     status,
			"content":    status,
			"seq":        i,
			"created_at": base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}

	rows, err := repo.Select(ctx, sitecontent.Query{
		Table:      sitecontent.TableComments,
		Columns:    []string{"seq", "status"},
		Filters:    []sitecontent.Filter{{Column: "blog_id", Value: "b1"}, {Column: "status", Value: "approved"}},
		OrderBy:    "created_at",
		Descending: true,
		Limit:      2,
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 3, rows[0]["seq"])
	assert.Equal(t, 2, rows[1]["seq"])
	assert.NotContains(t, rows[0], "content")

	rows, err = repo.Select(ctx, sitecontent.Query{
		Table:   sitecontent.TableComments,
		Filters: []sitecontent.Filter{{Column: "seq", Value: int64(1)}},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "pending", rows[0]["status"])
}

func TestRepositoryUpdateAndDelete(t *testing.T) {
	repo := New()
	ctx := context.Background()

	for _, url := range []string{"u1", "u2", "u1"} {
		_, err := repo.Insert(ctx, sitecontent.TableGallery, sitecontent.Row{"image_url": url, "title": "t"})
		require.NoError(t, err)
	}

	n, err := repo.Update(ctx, sitecontent.TableGallery, sitecontent.Row{"title": "new"}, sitecontent.Filter{Column: "image_url", Value: "u2"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = repo.Update(ctx, sitecontent.TableGallery, sitecontent.Row{})
	assert.Error(t, err)

	_, err = repo.Update(ctx, sitecontent.TableGallery, sitecontent.Row{"title": "everything"})
	assert.ErrorIs(t, err, sitecontent.ErrNoFilter)
	_, err = repo.Delete(ctx, sitecontent.TableGallery)
	assert.ErrorIs(t, err, sitecontent.ErrNoFilter)

	n, err = repo.Delete(ctx, sitecontent.TableGallery, sitecontent.Filter{Column: "image_url", Value: "u1"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	rows, err := repo.Select(ctx, sitecontent.Query{Table: sitecontent.TableGallery})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "new", rows[0]["title"])
}

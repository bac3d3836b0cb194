package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/site-content/pkg/sitecontent"
)

const testSchema = `
CREATE SCHEMA IF NOT EXISTS site_test;
SET search_path TO site_test;
DROP TABLE IF EXISTS comments;
CREATE TABLE comments (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	blog_id TEXT NOT NULL,
	author_name TEXT NOT NULL,
	content TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'pending',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

func newTestRepository(t *testing.T) *Repository {
	t.Helper()

	connString := os.Getenv("TEST_DATABASE_URL")
	if connString == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	cfg, err := pgxpool.ParseConfig(connString)
	require.NoError(t, err)
	cfg.ConnConfig.RuntimeParams["search_path"] = "site_test"

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	require.NoError(t, err, "Failed to connect to test database")
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, testSchema)
	require.NoError(t, err, "Failed to create test schema")

	return NewWithPool(pool)
}

func TestWhere(t *testing.T) {
	clause, args := where([]sitecontent.Filter{
		{Column: "blog_id", Value: "b1"},
		{Column: "parent_id", Value: nil},
		{Column: "status", Value: "approved"},
	}, 2, []any{"x"})
	assert.Equal(t, ` WHERE "blog_id" = $2 AND "parent_id" IS NULL AND "status" = $3`, clause)
	assert.Equal(t, []any{"x", "b1", "approved"}, args)

	clause, args = where(nil, 1, nil)
	assert.Empty(t, clause)
	assert.Nil(t, args)
}

func TestUnfilteredWritesRejected(t *testing.T) {
	repo := New(nil)
	ctx := context.Background()

	_, err := repo.Update(ctx, sitecontent.TableComments, sitecontent.Row{"status": "approved"})
	assert.ErrorIs(t, err, sitecontent.ErrNoFilter)

	_, err = repo.Delete(ctx, sitecontent.TableComments)
	assert.ErrorIs(t, err, sitecontent.ErrNoFilter)
}

func TestIdentQuotesNames(t *testing.T) {
	assert.Equal(t, `"gallery"`, ident("gallery"))
	assert.Equal(t, `"a""b"`, ident(`a"b`))
}

func TestNormalizeUUID(t *testing.T) {
	row := normalize(map[string]any{
		"id":   [16]byte{0x12, 0x34, 0x56, 0x78, 0x9a, 0xbc, 0xde, 0xf0, 0x12, 0x34, 0x56, 0x78, 0x9a, 0xbc, 0xde, 0xf0},
		"name": "x",
	})
	assert.Equal(t, "12345678-9abc-def0-1234-56789abcdef0", row["id"])
	assert.Equal(t, "x", row["name"])
}

func TestRepositoryLifecycle(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	first, err := repo.Insert(ctx, sitecontent.TableComments, sitecontent.Row{
		"blog_id": "b1", "author_name": "Ana", "content": "first",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, first["id"])
	assert.IsType(t, time.Time{}, first["created_at"])

	_, err = repo.Insert(ctx, sitecontent.TableComments, sitecontent.Row{
		"blog_id": "b1", "author_name": "Ben", "content": "second", "status": "approved",
	})
	require.NoError(t, err)

	rows, err := repo.Select(ctx, sitecontent.Query{
		Table:   sitecontent.TableComments,
		Columns: []string{"author_name", "status"},
		Filters: []sitecontent.Filter{{Column: "blog_id", Value: "b1"}},
		OrderBy: "author_name",
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Ana", rows[0]["author_name"])
	assert.Equal(t, "pending", rows[0]["status"])

	n, err := repo.Update(ctx, sitecontent.TableComments, sitecontent.Row{"status": "approved"},
		sitecontent.Filter{Column: "id", Value: first["id"]})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repo.Delete(ctx, sitecontent.TableComments, sitecontent.Filter{Column: "status", Value: "approved"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = repo.Insert(ctx, sitecontent.TableComments, sitecontent.Row{"blog_id": "b1"})
	var valErr *sitecontent.ValidationError
	assert.ErrorAs(t, err, &valErr)
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tendant/site-content/pkg/sitecontent"
)

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements sitecontent.Repository using PostgreSQL
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL repository
func New(db DBTX) *Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

// Error handling helper
func (r *Repository) handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return &sitecontent.ValidationError{Field: pgErr.ConstraintName, Message: "duplicate entry", Err: err}
		case "23503": // foreign_key_violation
			return &sitecontent.ValidationError{Field: pgErr.ConstraintName, Message: "referenced record not found", Err: err}
		case "23502": // not_null_violation
			return &sitecontent.ValidationError{Field: pgErr.ColumnName, Message: "is required", Err: err}
		case "22P02": // invalid_text_representation
			return &sitecontent.ValidationError{Message: pgErr.Message, Err: err}
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required: %w", err)
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", operation, sitecontent.ErrNotFound)
	}

	return &sitecontent.TransientIOError{Op: operation, Key: "postgres", Err: err}
}

func ident(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

// sortedColumns returns row's keys in a stable order so statements are
// cacheable.
func sortedColumns(row sitecontent.Row) []string {
	cols := make([]string, 0, len(row))
	for k := range row {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

// where renders filters as "WHERE a = $n AND ..." starting at placeholder
// start, appending the values to args.
func where(filters []sitecontent.Filter, start int, args []any) (string, []any) {
	if len(filters) == 0 {
		return "", args
	}
	clauses := make([]string, 0, len(filters))
	n := start
	for _, f := range filters {
		if f.Value == nil {
			clauses = append(clauses, ident(f.Column)+" IS NULL")
			continue
		}
		clauses = append(clauses, fmt.Sprintf("%s = $%d", ident(f.Column), n))
		args = append(args, f.Value)
		n++
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (r *Repository) Insert(ctx context.Context, table string, row sitecontent.Row) (sitecontent.Row, error) {
	cols := sortedColumns(row)
	names := make([]string, len(cols))
	placeholders := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, c := range cols {
		names[i] = ident(c)
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = row[c]
	}

	var query string
	if len(cols) == 0 {
		query = fmt.Sprintf("INSERT INTO %s DEFAULT VALUES RETURNING *", ident(table))
	} else {
		query = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
			ident(table), strings.Join(names, ", "), strings.Join(placeholders, ", "))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, r.handlePostgresError("insert "+table, err)
	}
	inserted, err := pgx.CollectOneRow(rows, pgx.RowToMap)
	if err != nil {
		return nil, r.handlePostgresError("insert "+table, err)
	}
	return normalize(inserted), nil
}

func (r *Repository) Select(ctx context.Context, q sitecontent.Query) ([]sitecontent.Row, error) {
	columns := "*"
	if len(q.Columns) > 0 {
		names := make([]string, len(q.Columns))
		for i, c := range q.Columns {
			names[i] = ident(c)
		}
		columns = strings.Join(names, ", ")
	}

	clause, args := where(q.Filters, 1, nil)
	query := fmt.Sprintf("SELECT %s FROM %s%s", columns, ident(q.Table), clause)
	if q.OrderBy != "" {
		query += " ORDER BY " + ident(q.OrderBy)
		if q.Descending {
			query += " DESC"
		}
	}
	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", q.Limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, r.handlePostgresError("select "+q.Table, err)
	}
	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, r.handlePostgresError("select "+q.Table, err)
	}

	result := make([]sitecontent.Row, len(maps))
	for i, m := range maps {
		result[i] = normalize(m)
	}
	return result, nil
}

func (r *Repository) Update(ctx context.Context, table string, set sitecontent.Row, filters ...sitecontent.Filter) (int64, error) {
	if len(set) == 0 {
		return 0, fmt.Errorf("update %s: no columns to set", table)
	}
	if len(filters) == 0 {
		return 0, fmt.Errorf("update %s: %w", table, sitecontent.ErrNoFilter)
	}

	cols := sortedColumns(set)
	assignments := make([]string, len(cols))
	args := make([]any, 0, len(cols)+len(filters))
	for i, c := range cols {
		assignments[i] = fmt.Sprintf("%s = $%d", ident(c), i+1)
		args = append(args, set[c])
	}
	clause, args := where(filters, len(cols)+1, args)

	query := fmt.Sprintf("UPDATE %s SET %s%s", ident(table), strings.Join(assignments, ", "), clause)
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, r.handlePostgresError("update "+table, err)
	}
	return tag.RowsAffected(), nil
}

func (r *Repository) Delete(ctx context.Context, table string, filters ...sitecontent.Filter) (int64, error) {
	if len(filters) == 0 {
		return 0, fmt.Errorf("delete %s: %w", table, sitecontent.ErrNoFilter)
	}
	clause, args := where(filters, 1, nil)
	query := fmt.Sprintf("DELETE FROM %s%s", ident(table), clause)

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, r.handlePostgresError("delete "+table, err)
	}
	return tag.RowsAffected(), nil
}

// normalize converts driver-specific values into the plain Go types the rest
// of the module works with. UUID columns arrive as [16]byte.
func normalize(m map[string]any) sitecontent.Row {
	row := make(sitecontent.Row, len(m))
	for k, v := range m {
		if b, ok := v.([16]byte); ok {
			v = fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:16])
		}
		row[k] = v
	}
	return row
}

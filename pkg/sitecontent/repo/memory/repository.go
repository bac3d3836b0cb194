package memory

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tendant/site-content/pkg/sitecontent"
)

// Repository implements sitecontent.Repository using in-memory storage
type Repository struct {
	mu     sync.RWMutex
	tables map[string][]sitecontent.Row
	now    func() time.Time
}

// New creates a new in-memory repository
func New() *Repository {
	return &Repository{
		tables: make(map[string][]sitecontent.Row),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Insert stores a copy of row, filling id and created_at when absent
func (r *Repository) Insert(ctx context.Context, table string, row sitecontent.Row) (sitecontent.Row, error) {
	if table == "" {
		return nil, fmt.Errorf("insert: table is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := copyRow(row)
	if _, ok := stored["id"]; !ok {
		stored["id"] = uuid.NewString()
	}
	if _, ok := stored["created_at"]; !ok {
		stored["created_at"] = r.now()
	}
	r.tables[table] = append(r.tables[table], stored)

	return copyRow(stored), nil
}

// Select returns copies of the rows matching q
func (r *Repository) Select(ctx context.Context, q sitecontent.Query) ([]sitecontent.Row, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var rows []sitecontent.Row
	for _, row := range r.tables[q.Table] {
		if matches(row, q.Filters) {
			rows = append(rows, row)
		}
	}

	if q.OrderBy != "" {
		sort.SliceStable(rows, func(i, j int) bool {
			c := compare(rows[i][q.OrderBy], rows[j][q.OrderBy])
			if q.Descending {
				return c > 0
			}
			return c < 0
		})
	}
	if q.Limit > 0 && len(rows) > q.Limit {
		rows = rows[:q.Limit]
	}

	result := make([]sitecontent.Row, 0, len(rows))
	for _, row := range rows {
		result = append(result, project(row, q.Columns))
	}
	return result, nil
}

// Update sets columns on every matching row
func (r *Repository) Update(ctx context.Context, table string, set sitecontent.Row, filters ...sitecontent.Filter) (int64, error) {
	if len(set) == 0 {
		return 0, fmt.Errorf("update %s: no columns to set", table)
	}
	if len(filters) == 0 {
		return 0, fmt.Errorf("update %s: %w", table, sitecontent.ErrNoFilter)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for _, row := range r.tables[table] {
		if !matches(row, filters) {
			continue
		}
		for k, v := range set {
			row[k] = v
		}
		n++
	}
	return n, nil
}

// Delete removes every matching row
func (r *Repository) Delete(ctx context.Context, table string, filters ...sitecontent.Filter) (int64, error) {
	if len(filters) == 0 {
		return 0, fmt.Errorf("delete %s: %w", table, sitecontent.ErrNoFilter)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	rows := r.tables[table]
	kept := rows[:0]
	var n int64
	for _, row := range rows {
		if matches(row, filters) {
			n++
			continue
		}
		kept = append(kept, row)
	}
	r.tables[table] = kept
	return n, nil
}

func copyRow(row sitecontent.Row) sitecontent.Row {
	c := make(sitecontent.Row, len(row))
	for k, v := range row {
		c[k] = v
	}
	return c
}

func project(row sitecontent.Row, columns []string) sitecontent.Row {
	if len(columns) == 0 {
		return copyRow(row)
	}
	c := make(sitecontent.Row, len(columns))
	for _, col := range columns {
		if v, ok := row[col]; ok {
			c[col] = v
		}
	}
	return c
}

func matches(row sitecontent.Row, filters []sitecontent.Filter) bool {
	for _, f := range filters {
		if !equal(row[f.Column], f.Value) {
			return false
		}
	}
	return true
}

func equal(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
	}
	return reflect.DeepEqual(a, b)
}

// compare orders nil first, then numbers, times and strings by value.
func compare(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}
	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			return ta.Compare(tb)
		}
	}
	sa, sb := fmt.Sprint(a), fmt.Sprint(b)
	switch {
	case sa < sb:
		return -1
	case sa > sb:
		return 1
	}
	return 0
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

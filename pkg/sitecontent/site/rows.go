package site

import (
	"fmt"
	"math"
	"time"

	"github.com/tendant/site-content/pkg/sitecontent"
)

func stringOf(row sitecontent.Row, col string) string {
	switch v := row[col].(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func int64Of(row sitecontent.Row, col string) int64 {
	switch v := row[col].(type) {
	case int:
		return int64(v)
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	case int64:
		return v
	case float32:
		return int64(math.Round(float64(v)))
	case float64:
		return int64(math.Round(v))
	default:
		return 0
	}
}

func boolOf(row sitecontent.Row, col string) bool {
	v, _ := row[col].(bool)
	return v
}

func timeOf(row sitecontent.Row, col string) time.Time {
	switch v := row[col].(type) {
	case time.Time:
		return v
	case *time.Time:
		if v != nil {
			return *v
		}
	case string:
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return t
		}
	}
	return time.Time{}
}

func timePtrOf(row sitecontent.Row, col string) *time.Time {
	t := timeOf(row, col)
	if t.IsZero() {
		return nil
	}
	return &t
}

func stringsOf(row sitecontent.Row, col string) []string {
	switch v := row[col].(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// nullable stores empty strings as NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

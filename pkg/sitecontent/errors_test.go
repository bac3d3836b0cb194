package sitecontent

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", NewValidationError("url", "is required"), http.StatusBadRequest},
		{"wrapped validation", fmt.Errorf("delete: %w", NewValidationError("url", "bad")), http.StatusBadRequest},
		{"invalid blob url", fmt.Errorf("delete: %w", ErrInvalidBlobURL), http.StatusBadRequest},
		{"already subscribed", ErrAlreadySubscribed, http.StatusBadRequest},
		{"not found", fmt.Errorf("blog: %w", ErrNotFound), http.StatusNotFound},
		{"named not found", &NotFoundError{Message: "Blog not found"}, http.StatusNotFound},
		{"configuration", &ConfigurationError{Missing: []string{"GCS_BUCKET_NAME"}}, http.StatusInternalServerError},
		{"transient", &TransientIOError{Op: "upload", Key: "k", Err: errors.New("boom")}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusCode(tt.err))
		})
	}
}

func TestTransientIOError(t *testing.T) {
	cause := errors.New("connection reset")
	err := fmt.Errorf("fetch: %w", &TransientIOError{Op: "download", Key: "blogs/1.txt", Err: cause})

	assert.True(t, IsTransient(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "download failed for blogs/1.txt")
	assert.False(t, IsTransient(cause))
}

func TestConfigurationErrorMessage(t *testing.T) {
	err := &ConfigurationError{Missing: []string{"GCS_PROJECT_ID", "GCS_PRIVATE_KEY"}}
	assert.Equal(t, "storage is not configured: missing GCS_PROJECT_ID, GCS_PRIVATE_KEY", err.Error())
}

func TestNotFoundError(t *testing.T) {
	err := fmt.Errorf("increment views: %w", &NotFoundError{Message: "Blog not found"})

	assert.ErrorIs(t, err, ErrNotFound)
	var nf *NotFoundError
	assert.True(t, errors.As(err, &nf))
	assert.Equal(t, "Blog not found", nf.Error())
}

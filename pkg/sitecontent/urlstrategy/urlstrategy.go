package urlstrategy

import (
	"strings"

	"github.com/tendant/site-content/pkg/sitecontent"
)

// URLStrategy maps object keys to the public URLs stored in rows, and back.
type URLStrategy interface {
	// Prefix is the part every public URL of the bucket starts with
	Prefix() string

	// PublicURL returns the public URL of objectKey
	PublicURL(objectKey string) string

	// ObjectKey reverses PublicURL. URLs outside Prefix are rejected.
	ObjectKey(url string) (string, error)
}

// objectKey strips prefix from url. The URL must start with prefix exactly
// and name an object below it.
func objectKey(prefix, url string) (string, error) {
	if prefix == "" || !strings.HasPrefix(url, prefix) || len(url) == len(prefix) {
		return "", &sitecontent.ValidationError{Field: "url", Message: "Invalid URL for this bucket", Err: sitecontent.ErrInvalidBlobURL}
	}
	return strings.TrimPrefix(url, prefix), nil
}

// withScheme defaults a bare host to https and drops trailing slashes.
func withScheme(base string) string {
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}
	return strings.TrimSuffix(base, "/")
}

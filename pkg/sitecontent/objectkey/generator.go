package objectkey

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tendant/site-content/pkg/sitecontent"
)

// Generator defines the interface for object key generation strategies
type Generator interface {
	// GenerateKey creates an object key for a new upload
	GenerateKey(metadata *KeyMetadata) string
}

// Kind selects the bucket prefix of a key.
type Kind string

const (
	KindImage Kind = "image"
	KindText  Kind = "text"
)

// KeyMetadata contains information that influences key generation
type KeyMetadata struct {
	Kind     Kind
	FileName string
}

// Prefix returns the bucket prefix objects of kind live under.
func Prefix(kind Kind) string {
	if kind == KindText {
		return sitecontent.BlogPrefix
	}
	return sitecontent.ImagePrefix
}

// TimestampGenerator produces keys that sort by upload time:
//
//	images/{epochMillis}-{uid}-{sanitized name}
//	blogs/{epochMillis}-{uid}.txt
//
// The uid keeps two uploads in the same millisecond apart.
type TimestampGenerator struct {
	Now   func() time.Time
	NewID func() string
}

func NewTimestampGenerator() *TimestampGenerator {
	return &TimestampGenerator{
		Now:   time.Now,
		NewID: uuid.NewString,
	}
}

func (g *TimestampGenerator) GenerateKey(metadata *KeyMetadata) string {
	now, newID := g.Now, g.NewID
	if now == nil {
		now = time.Now
	}
	if newID == nil {
		newID = uuid.NewString
	}

	kind := KindImage
	name := ""
	if metadata != nil {
		kind = metadata.Kind
		name = metadata.FileName
	}

	stem := fmt.Sprintf("%s%d-%s", Prefix(kind), now().UnixMilli(), newID())
	if kind == KindText {
		return stem + ".txt"
	}
	return stem + "-" + SanitizeName(name)
}

// CustomFuncGenerator allows callers to provide their own key generation function
type CustomFuncGenerator struct {
	GenerateFunc func(metadata *KeyMetadata) string
}

func NewCustomFuncGenerator(fn func(metadata *KeyMetadata) string) *CustomFuncGenerator {
	return &CustomFuncGenerator{
		GenerateFunc: fn,
	}
}

func (g *CustomFuncGenerator) GenerateKey(metadata *KeyMetadata) string {
	return g.GenerateFunc(metadata)
}

const maxNameLength = 100

// SanitizeName reduces an uploaded file name to a safe path segment.
func SanitizeName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	clean := strings.Trim(b.String(), "._")
	if clean == "" {
		return "upload"
	}
	if len(clean) > maxNameLength {
		ext := path.Ext(clean)
		if len(ext) > 10 {
			ext = ""
		}
		clean = clean[:maxNameLength-len(ext)] + ext
	}
	return clean
}

// NewRecommendedGenerator returns the generator used when none is configured
func NewRecommendedGenerator() Generator {
	return NewTimestampGenerator()
}

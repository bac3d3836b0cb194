// Package codec turns user-entered text into a shorter, equally valid text
// string and back.
//
// Encode never fails: on any internal problem it returns its input. Decode
// returns "" whenever the input is not output of the same codec, which the
// resolver treats as "already plain".
package codec

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Codec is a reversible text compressor.
type Codec interface {
	Name() string
	Encode(plain string) string
	Decode(maybeEncoded string) string
}

// Default is the codec name used when none is configured.
const Default = "lzstring"

var (
	registryMu sync.RWMutex
	registry   = map[string]Codec{}
)

func init() {
	Register(LZString{})
	z, err := NewZstd64()
	if err != nil {
		slog.Error("zstd64 codec unavailable", "err", err)
		return
	}
	Register(z)
}

// Register makes c available to Lookup under c.Name().
func Register(c Codec) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[c.Name()] = c
}

// Lookup returns the codec registered under name. An empty name selects
// Default.
func Lookup(name string) (Codec, error) {
	if name == "" {
		name = Default
	}
	registryMu.RLock()
	defer registryMu.RUnlock()
	c, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown text codec %q (available: %v)", name, namesLocked())
	}
	return c, nil
}

// Names lists the registered codec names in sorted order.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return namesLocked()
}

func namesLocked() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// safeEncode runs fn and falls back to plain if it panics.
func safeEncode(name, plain string, fn func(string) string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("text encode failed, storing input unchanged", "codec", name, "panic", r)
			out = plain
		}
	}()
	return fn(plain)
}

// safeDecode runs fn and reports "" if it panics.
func safeDecode(s string, fn func(string) string) (out string) {
	defer func() {
		if recover() != nil {
			out = ""
		}
	}()
	return fn(s)
}

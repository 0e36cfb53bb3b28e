// Package keys builds the storage keys for vector tiles.
package keys

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
	"github.com/paulmach/orb/maptile"
)

const DefaultPrefix = "mvt"

var ErrBadKey = errors.New("malformed tile key")

// Tile returns "<prefix>:<z>:<x>:<y>". An empty prefix uses DefaultPrefix.
func Tile(prefix string, t maptile.Tile) string {
	return fmt.Sprintf("%s:%d:%d:%d", normPrefix(prefix), t.Z, t.X, t.Y)
}

// Versioned appends a content hash so a rewritten tile gets a fresh key.
func Versioned(prefix string, t maptile.Tile, data []byte) string {
	return fmt.Sprintf("%s:h=%016x", Tile(prefix, t), xxhash.Sum64(data))
}

// Parse splits a key produced by Tile or Versioned.
func Parse(key string) (prefix string, t maptile.Tile, err error) {
	base, _, _ := strings.Cut(key, ":h=")
	parts := strings.Split(base, ":")
	if len(parts) < 4 {
		return "", maptile.Tile{}, fmt.Errorf("%w: %q", ErrBadKey, key)
	}
	n := len(parts)
	z, errZ := strconv.ParseUint(parts[n-3], 10, 32)
	x, errX := strconv.ParseUint(parts[n-2], 10, 32)
	y, errY := strconv.ParseUint(parts[n-1], 10, 32)
	if err := errors.Join(errZ, errX, errY); err != nil {
		return "", maptile.Tile{}, fmt.Errorf("%w: %q: %w", ErrBadKey, key, err)
	}
	return strings.Join(parts[:n-3], ":"), maptile.New(uint32(x), uint32(y), maptile.Zoom(z)), nil
}

func normPrefix(s string) string {
	s = sanitizeForKey(strings.TrimSpace(s))
	if s == "" {
		return DefaultPrefix
	}
	return strings.TrimSuffix(s, ":")
}

func sanitizeForKey(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))

	var prev rune
	for _, r := range s {
		out := rune(0)
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f':
			out = '_'
		case isAlphaNum(r) || r == ':' || r == '_' || r == '-':
			out = r
		default:
			// Any other rune (including non-ASCII) becomes '-'
			out = '-'
		}
		if (out == '_' || out == '-') && out == prev {
			continue
		}
		b.WriteRune(out)
		prev = out
	}
	return b.String()
}

func isAlphaNum(r rune) bool {
	return (r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		unicode.IsDigit(r)
}

// Package version provides dotted-version parsing and comparison for the
// app/plugin version gates in the authentication handshake.
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a parsed dotted version such as "1.4.2". Missing components
// compare as zero, so "1.4" equals "1.4.0".
type Version []uint64

// Parse parses a dotted numeric version string.
func Parse(s string) (Version, error) {
	if s == "" {
		return nil, fmt.Errorf("empty version")
	}
	parts := strings.Split(s, ".")
	v := make(Version, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid version %q: bad component %q", s, p)
		}
		v = append(v, n)
	}
	return v, nil
}

// String returns the version in dotted form.
func (v Version) String() string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = strconv.FormatUint(n, 10)
	}
	return strings.Join(parts, ".")
}

// Compare returns -1, 0 or 1 as v is older than, equal to, or newer
// than other.
func (v Version) Compare(other Version) int {
	n := len(v)
	if len(other) > n {
		n = len(other)
	}
	for i := 0; i < n; i++ {
		var a, b uint64
		if i < len(v) {
			a = v[i]
		}
		if i < len(other) {
			b = other[i]
		}
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
	}
	return 0
}

// Older reports whether version a is strictly older than version b.
// Unparseable inputs are treated as not-older, so a malformed client
// version never trips a version gate on its own.
func Older(a, b string) bool {
	va, err := Parse(a)
	if err != nil {
		return false
	}
	vb, err := Parse(b)
	if err != nil {
		return false
	}
	return va.Compare(vb) < 0
}

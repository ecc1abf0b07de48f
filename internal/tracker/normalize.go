package tracker

import (
	"path"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// NormalizePath returns the canonical key for an asset path: backslashes become
// forward slashes, duplicate separators and "." / ".." segments are resolved
// lexically, and the result is NFC-composed and case-folded.
//
// The empty path stays empty. Paths declared by scripts and paths reported by
// the asset processor both go through here so they collide on one key.
func NormalizePath(p string) string {
	if p == "" {
		return p
	}
	s := path.Clean(strings.ReplaceAll(p, `\`, "/"))
	if !isASCII(s) {
		s = norm.NFC.String(s)
	}
	// Casers carry state; one per call.
	return cases.Fold().String(s)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

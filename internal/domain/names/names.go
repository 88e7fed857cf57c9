// Package names canonicalizes player display names so records from different
// sources can be matched.
package names

import (
	"regexp"
	"strings"
)

var (
	suffixPattern     = regexp.MustCompile(`\s+(jr|sr|ii|iii|iv|v)\.?$`)
	disallowedPattern = regexp.MustCompile(`[^a-z0-9\s]`)
	spacePattern      = regexp.MustCompile(`\s+`)
)

// Normalize returns the matching key for a display name: lower-cased, without
// a trailing generational suffix, punctuation or repeated whitespace.
// Normalize(Normalize(x)) == Normalize(x) for every x.
func Normalize(name string) string {
	out := normalizeOnce(name)
	// Punctuation removal can expose a suffix ("Beckham Jr.," -> "beckham jr"),
	// so repeat until the key is stable.
	for {
		next := normalizeOnce(out)
		if next == out {
			return out
		}
		out = next
	}
}

func normalizeOnce(name string) string {
	s := strings.ToLower(name)
	s = suffixPattern.ReplaceAllString(s, "")
	s = disallowedPattern.ReplaceAllString(s, "")
	s = spacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Equal reports whether two display names refer to the same player.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

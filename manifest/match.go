package manifest

import (
	"strings"

	"github.com/gobwas/glob"
)

// MatchKeywords reports whether any keyword occurs in text as a
// case-insensitive substring. Empty keywords never match.
func MatchKeywords(text string, keywords []string) bool {
	if text == "" || len(keywords) == 0 {
		return false
	}
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// IsExcluded reports whether text matches any global or domain-specific
// exclude pattern. Patterns with glob metacharacters are compiled with
// gobwas/glob; plain patterns match as substrings. Patterns that fail to
// compile are ignored rather than erroring, per the never-fail contract.
func IsExcluded(text string, globalPatterns, domainPatterns []string) bool {
	if text == "" {
		return false
	}
	lower := strings.ToLower(text)
	for _, patterns := range [][]string{globalPatterns, domainPatterns} {
		for _, p := range patterns {
			if matchPattern(lower, p) {
				return true
			}
		}
	}
	return false
}

// UpperSnake normalizes an identifier into the upper-snake form manifest
// keys use: "aios-master" becomes "AIOS_MASTER".
func UpperSnake(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToUpper(strings.TrimSpace(s)) {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

func matchPattern(lowerText, pattern string) bool {
	pattern = strings.ToLower(strings.TrimSpace(pattern))
	if pattern == "" {
		return false
	}
	if !strings.ContainsAny(pattern, "*?[{") {
		return strings.Contains(lowerText, pattern)
	}
	g, err := glob.Compile(pattern)
	if err != nil {
		return false
	}
	return g.Match(lowerText)
}

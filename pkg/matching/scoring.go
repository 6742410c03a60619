package matching

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Scorer provides the string comparison algorithms used by match strategies
type Scorer struct{}

// NewScorer creates a new Scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// ExactMatch returns 1.0 for exact match, 0.0 otherwise
func (s *Scorer) ExactMatch(a, b string, caseSensitive bool) float64 {
	if !caseSensitive {
		a = strings.ToLower(a)
		b = strings.ToLower(b)
	}
	if a == b {
		return 1.0
	}
	return 0.0
}

// SequenceRatio returns the Ratcliff/Obershelp similarity of two strings,
// compared case-insensitively. Returns a value between 0.0 and 1.0.
// The inputs are put in a canonical order first so the ratio is symmetric.
func (s *Scorer) SequenceRatio(a, b string) float64 {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	if a == b {
		return 1.0
	}
	if a > b {
		a, b = b, a
	}

	matcher := difflib.NewMatcher(splitRunes(a), splitRunes(b))
	return matcher.Ratio()
}

// DomainMatch compares the domains of two emails or URLs.
// Returns 0.0 when either side has no extractable domain.
func (s *Scorer) DomainMatch(a, b string) float64 {
	da := ExtractDomain(a)
	db := ExtractDomain(b)
	if da == "" || db == "" {
		return 0.0
	}
	if da == db {
		return 1.0
	}
	return 0.0
}

// ExtractDomain returns the lowercased domain of an email address or URL.
// For emails this is everything after the last '@'. For URLs the scheme,
// a leading "www.", any port and everything after the host are removed.
func ExtractDomain(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return ""
	}

	if idx := strings.Index(value, "://"); idx >= 0 {
		value = value[idx+3:]
	} else if at := strings.LastIndex(value, "@"); at >= 0 {
		return strings.TrimSuffix(value[at+1:], ".")
	}

	if idx := strings.IndexAny(value, "/?#"); idx >= 0 {
		value = value[:idx]
	}
	if at := strings.LastIndex(value, "@"); at >= 0 {
		value = value[at+1:]
	}
	if idx := strings.LastIndex(value, ":"); idx >= 0 {
		value = value[:idx]
	}
	value = strings.TrimPrefix(value, "www.")

	return strings.TrimSuffix(value, ".")
}

func splitRunes(s string) []string {
	result := make([]string, 0, len(s))
	for _, r := range s {
		result = append(result, string(r))
	}
	return result
}

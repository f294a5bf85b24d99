package searchutil

import (
	"regexp"
	"strings"
)

var (
	latinAlnumPattern    = regexp.MustCompile(`[a-z0-9]`)
	// RE2's \s is ASCII only; \p{Z} and U+FEFF add the Unicode spaces.
	slugStripPattern     = regexp.MustCompile(`[^a-z0-9\s\p{Z}\x{FEFF}-]`)
	whitespaceRunPattern = regexp.MustCompile(`[\s\p{Z}\x{FEFF}]+`)
	nonAlnumPattern      = regexp.MustCompile(`[^a-z0-9]`)

	typographicQuoteReplacer = strings.NewReplacer(
		"‘", "'",
		"’", "'",
		"‚", "'",
		"‛", "'",
		"“", `"`,
		"”", `"`,
		"„", `"`,
		"‟", `"`,
	)
)

// Slugify turns a free-text title into a URL path slug. The boolean is false
// when the title has no Latin letters or digits; callers skip slug based
// lookups for that title.
func Slugify(title string) (string, bool) {
	lower := strings.TrimSpace(strings.ToLower(title))
	if !latinAlnumPattern.MatchString(lower) {
		return "", false
	}

	slug := slugStripPattern.ReplaceAllString(lower, "")
	slug = whitespaceRunPattern.ReplaceAllString(slug, "-")
	return slug, true
}

// NormalizeAlnum lower-cases value and drops everything outside [a-z0-9].
func NormalizeAlnum(value string) string {
	return nonAlnumPattern.ReplaceAllString(strings.ToLower(value), "")
}

func NormalizePunctuation(value string) string {
	return typographicQuoteReplacer.Replace(value)
}

// IsEnglish reports whether value is entirely printable ASCII once curly
// quotes are folded to their ASCII forms.
func IsEnglish(value string) bool {
	normalized := NormalizePunctuation(value)
	if normalized == "" {
		return false
	}
	for i := 0; i < len(normalized); i++ {
		if normalized[i] < 0x20 || normalized[i] > 0x7E {
			return false
		}
	}
	return true
}

// UniqueNonEmpty drops empty strings and exact duplicates, keeping the first
// occurrence order.
func UniqueNonEmpty(values []string) []string {
	if len(values) == 0 {
		return nil
	}

	unique := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		if value == "" {
			continue
		}
		if _, exists := seen[value]; exists {
			continue
		}
		seen[value] = struct{}{}
		unique = append(unique, value)
	}

	return unique
}

package catalog

import "github.com/gabriel/manga-link-finder/internal/models"

const (
	// AdultRuleFlag trusts the media's own adult flag.
	AdultRuleFlag = "flag"
	// AdultRuleFlagWithNonAdultTag additionally requires at least one tag
	// that is not adult. Entries whose tags are all adult are classified as
	// non-adult under this rule.
	AdultRuleFlagWithNonAdultTag = "flag-with-non-adult-tag"
)

// IsAdult classifies entry under rule. Unknown rules fall back to AdultRuleFlag.
func IsAdult(entry models.CatalogEntry, rule string) bool {
	if !entry.Media.IsAdult {
		return false
	}
	if rule != AdultRuleFlagWithNonAdultTag {
		return true
	}

	for _, tag := range entry.Media.Tags {
		if !tag.IsAdult {
			return true
		}
	}
	return false
}

package catalog

import (
	"github.com/gabriel/manga-link-finder/internal/models"
	"github.com/gabriel/manga-link-finder/internal/searchutil"
)

// BuildCandidateTitles orders the search strings for one entry: a distinct
// English title, the preferred title, the native title, then English
// synonyms. Exact duplicates and empty strings are dropped.
func BuildCandidateTitles(entry models.CatalogEntry) []string {
	title := entry.Media.Title
	candidates := make([]string, 0, 3+len(entry.Media.Synonyms))

	if title.English != "" && title.English != title.UserPreferred && searchutil.IsEnglish(title.English) {
		candidates = append(candidates, title.English)
	}
	candidates = append(candidates, title.UserPreferred, title.Native)

	for _, synonym := range entry.Media.Synonyms {
		if searchutil.IsEnglish(synonym) {
			candidates = append(candidates, synonym)
		}
	}

	return searchutil.UniqueNonEmpty(candidates)
}

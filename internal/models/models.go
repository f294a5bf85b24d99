package models

import "time"

// CatalogCollection mirrors the catalog API's MediaListCollection payload.
type CatalogCollection struct {
	Lists []CatalogList `json:"lists"`
}

type CatalogList struct {
	Name    string         `json:"name"`
	Entries []CatalogEntry `json:"entries"`
}

type CatalogEntry struct {
	ID        int64   `json:"id"`
	Progress  int     `json:"progress"`
	Status    string  `json:"status"`
	Score     float64 `json:"score"`
	UpdatedAt int64   `json:"updatedAt"`
	Media     Media   `json:"media"`
}

type Media struct {
	ID          int64      `json:"id"`
	Title       MediaTitle `json:"title"`
	Synonyms    []string   `json:"synonyms"`
	Description string     `json:"description"`
	IsAdult     bool       `json:"isAdult"`
	Tags        []MediaTag `json:"tags"`
	CoverImage  CoverImage `json:"coverImage"`
}

type MediaTitle struct {
	Romaji        string `json:"romaji"`
	English       string `json:"english"`
	Native        string `json:"native"`
	UserPreferred string `json:"userPreferred"`
}

type MediaTag struct {
	Name    string `json:"name"`
	IsAdult bool   `json:"isAdult"`
}

type CoverImage struct {
	ExtraLarge string `json:"extraLarge,omitempty"`
	Large      string `json:"large,omitempty"`
	Medium     string `json:"medium,omitempty"`
	Color      string `json:"color,omitempty"`
}

// CatalogSnapshot is one cached collection fetch for a catalog user.
type CatalogSnapshot struct {
	UserName   string            `json:"userName"`
	Collection CatalogCollection `json:"collection"`
	FetchedAt  time.Time         `json:"fetchedAt"`
}

// Entries flattens every list in the collection, keeping list order.
func (c CatalogCollection) Entries() []CatalogEntry {
	total := 0
	for _, list := range c.Lists {
		total += len(list.Entries)
	}

	entries := make([]CatalogEntry, 0, total)
	for _, list := range c.Lists {
		entries = append(entries, list.Entries...)
	}
	return entries
}

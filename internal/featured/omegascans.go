package featured

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/gabriel/manga-link-finder/internal/fetch"
)

const omegascansPerPage = 20

type omegascansResponse struct {
	Data []struct {
		Title       string `json:"title"`
		SeriesSlug  string `json:"series_slug"`
		Thumbnail   string `json:"thumbnail"`
		Description string `json:"description"`
	} `json:"data"`
}

// Omegascans returns the most viewed comic series.
func (c *Client) Omegascans(ctx context.Context) ([]Item, error) {
	query := url.Values{}
	query.Set("query_string", "")
	query.Set("order", "desc")
	query.Set("orderBy", "total_views")
	query.Set("series_type", "Comic")
	query.Set("page", "1")
	query.Set("perPage", fmt.Sprintf("%d", omegascansPerPage))
	query.Set("tags_ids", "[]")
	query.Set("adult", "true")
	endpoint := c.opts.OmegascansAPIURL + "/query?" + query.Encode()

	res, err := c.fetcher.Get(ctx, endpoint, fetch.JSONHeaders(c.opts.OmegascansSiteURL))
	if err != nil {
		return nil, fmt.Errorf("fetch omegascans featured: %w", err)
	}
	defer res.Close()

	if !res.OK() {
		return nil, fmt.Errorf("omegascans featured status %d", res.StatusCode)
	}

	var payload omegascansResponse
	if err := res.DecodeJSON(&payload); err != nil {
		return nil, err
	}
	if payload.Data == nil {
		return nil, fmt.Errorf("omegascans featured response has no data")
	}

	items := make([]Item, 0, len(payload.Data))
	for _, series := range payload.Data {
		link := ""
		if slug := strings.TrimSpace(series.SeriesSlug); slug != "" {
			link = c.opts.OmegascansSiteURL + "/series/" + url.PathEscape(slug)
		}
		items = append(items, Item{
			Title:   strings.TrimSpace(series.Title),
			URL:     link,
			Cover:   strings.TrimSpace(series.Thumbnail),
			Summary: plainText(series.Description),
		})
	}
	return items, nil
}

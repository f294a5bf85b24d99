package featured

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Asurascans scrapes one page of the series grid. Pages start at 1.
func (c *Client) Asurascans(ctx context.Context, page int) (Page, error) {
	if page < 1 {
		page = 1
	}
	endpoint := c.opts.AsurascansURL + "/series?page=" + strconv.Itoa(page)

	res, err := c.fetcher.Get(ctx, endpoint, nil)
	if err != nil {
		return Page{}, fmt.Errorf("fetch asurascans series: %w", err)
	}
	defer res.Close()

	if !res.OK() {
		return Page{}, fmt.Errorf("asurascans series status %d", res.StatusCode)
	}

	body, err := res.Text()
	if err != nil {
		return Page{}, err
	}
	return parseAsurascansPage(body, c.opts.AsurascansURL, page)
}

func parseAsurascansPage(body string, baseURL string, page int) (Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return Page{}, fmt.Errorf("parse asurascans html: %w", err)
	}

	items := make([]Item, 0)
	doc.Find(`div.flex > a[href^="/series/"]`).Each(func(_ int, anchor *goquery.Selection) {
		href, _ := anchor.Attr("href")

		title := strings.TrimSpace(anchor.Find("div.block > span.block").First().Text())
		if title == "" {
			title = strings.Join(strings.Fields(anchor.Text()), " ")
		}

		cover, _ := anchor.Find("img").First().Attr("src")

		items = append(items, Item{
			Title: title,
			URL:   absoluteURL(baseURL, href),
			Cover: absoluteURL(baseURL, cover),
		})
	})

	hasMore := false
	doc.Find("a.flex.bg-themecolor").EachWithBreak(func(_ int, link *goquery.Selection) bool {
		if strings.Contains(strings.ToLower(link.Text()), "next") {
			hasMore = true
			return false
		}
		return true
	})

	return Page{Items: items, Page: page, HasMore: hasMore}, nil
}

package pipeline

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jimezsa/jobharvest/internal/proxy"
	"github.com/jimezsa/jobharvest/internal/scraper"
	"github.com/jimezsa/jobharvest/internal/validate"
)

// Discoverer produces candidate posting URLs grouped by site key.
type Discoverer interface {
	Discover(ctx context.Context) (map[string][]scraper.URLPair, error)
}

// URLList is the static discoverer: explicit URLs from the command
// line or a file, routed to their site by host.
type URLList struct {
	URLs []string
}

func (d *URLList) Discover(context.Context) (map[string][]scraper.URLPair, error) {
	grouped := map[string][]string{}
	for _, raw := range d.URLs {
		site, ok := scraper.SiteForURL(raw)
		if !ok {
			continue
		}
		grouped[site] = append(grouped[site], raw)
	}

	return cleanGrouped(grouped), nil
}

// BoardCrawl discovers postings by fetching board listing pages and
// collecting the job links they expose.
type BoardCrawl struct {
	Fetcher  Fetcher
	Sessions *Sessions
	Boards   []string // listing page URLs, e.g. https://jobs.lever.co/acme
}

// Discover walks every board, skipping boards that fail so one blocked
// listing does not starve the rest. An error is returned only when
// nothing at all could be discovered.
func (d *BoardCrawl) Discover(ctx context.Context) (map[string][]scraper.URLPair, error) {
	grouped := map[string][]string{}
	var lastErr error

	for _, board := range d.Boards {
		site, ok := scraper.SiteForURL(board)
		if !ok {
			continue
		}

		links, err := d.crawlBoard(ctx, board)
		if err != nil {
			lastErr = fmt.Errorf("board %s: %w", board, err)
			continue
		}
		grouped[site] = append(grouped[site], links...)
	}

	out := cleanGrouped(grouped)
	if len(out) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return out, nil
}

func (d *BoardCrawl) crawlBoard(ctx context.Context, board string) ([]string, error) {
	id := d.Sessions.Identity(proxy.Domain(board))
	page, err := d.Fetcher.Fetch(ctx, board, id)
	if err != nil {
		return nil, err
	}
	if err := validate.Valid(page, validate.KindListing); err != nil {
		return nil, err
	}

	doc, err := page.Document()
	if err != nil {
		return nil, err
	}

	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		if href := s.AttrOr("href", ""); href != "" {
			links = append(links, resolveHref(board, href))
		}
	})
	return links, nil
}

func cleanGrouped(grouped map[string][]string) map[string][]scraper.URLPair {
	out := map[string][]scraper.URLPair{}
	for site, urls := range grouped {
		if pairs := scraper.CleanURLs(urls, site); len(pairs) > 0 {
			out[site] = pairs
		}
	}
	return out
}

func resolveHref(base, href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return baseURL.ResolveReference(ref).String()
}

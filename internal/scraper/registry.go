package scraper

import (
	"net/url"
	"strings"
)

const (
	SiteLever      = "lever"
	SiteGreenhouse = "greenhouse"
	SiteAshby      = "ashby"
	SiteWellfound  = "wellfound"
)

func Registry() map[string]Extractor {
	return map[string]Extractor{
		SiteLever:      NewLever(),
		SiteGreenhouse: NewGreenhouse(),
		SiteAshby:      NewAshby(),
		SiteWellfound:  NewWellfound(),
	}
}

// SiteForURL maps a board URL to its extractor key.
func SiteForURL(rawURL string) (string, bool) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	host := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
	switch host {
	case "jobs.lever.co":
		return SiteLever, true
	case "boards.greenhouse.io", "job-boards.greenhouse.io":
		return SiteGreenhouse, true
	case "jobs.ashbyhq.com":
		return SiteAshby, true
	case "wellfound.com", "angel.co":
		return SiteWellfound, true
	}
	return "", false
}

func NormalizeSites(sites []string) []string {
	out := make([]string, 0, len(sites))
	for _, site := range sites {
		site = strings.ToLower(strings.TrimSpace(site))
		if site == "" {
			continue
		}
		out = append(out, site)
	}
	return out
}

package scraper

import (
	"fmt"
	"regexp"
)

// URLPair couples the canonical posting URL with the direct
// application URL derived from it.
type URLPair struct {
	DescriptionURL string
	ApplyURL       string
}

// Canonical patterns keep the company and posting segments and drop
// query decoration, tracking fragments, and trailing path noise.
var sitePatterns = map[string]*regexp.Regexp{
	SiteLever:      regexp.MustCompile(`https://jobs\.lever\.co/([^/?#]+)/([^/?#]+)`),
	SiteGreenhouse: regexp.MustCompile(`https://boards\.greenhouse\.io/([^/?#]+)/jobs/([^/?#]+)`),
	SiteAshby:      regexp.MustCompile(`https://jobs\.ashbyhq\.com/([^/?#]+)/([^/?#]+)`),
	SiteWellfound:  regexp.MustCompile(`https://wellfound\.com/jobs/([^/?#]+)`),
}

// CleanURLs canonicalizes a batch of raw URLs for one site, derives
// direct apply URLs, skips anything off-pattern, and dedupes while
// preserving order. Running the output back through is a no-op.
func CleanURLs(raw []string, site string) []URLPair {
	seen := map[string]struct{}{}
	out := make([]URLPair, 0, len(raw))
	for _, u := range raw {
		pair, ok := Canonical(u, site)
		if !ok {
			continue
		}
		if _, dup := seen[pair.DescriptionURL]; dup {
			continue
		}
		seen[pair.DescriptionURL] = struct{}{}
		out = append(out, pair)
	}
	return out
}

// Canonical reduces one raw URL to its canonical form and apply URL.
func Canonical(rawURL, site string) (URLPair, bool) {
	pattern, ok := sitePatterns[site]
	if !ok {
		return URLPair{}, false
	}
	match := pattern.FindStringSubmatch(rawURL)
	if match == nil {
		return URLPair{}, false
	}

	canonical := match[0]
	switch site {
	case SiteLever:
		return URLPair{DescriptionURL: canonical, ApplyURL: canonical + "/apply"}, true
	case SiteGreenhouse:
		company, token := match[1], match[2]
		apply := fmt.Sprintf("https://boards.greenhouse.io/embed/job_app?for=%s&token=%s", company, token)
		return URLPair{DescriptionURL: canonical, ApplyURL: apply}, true
	case SiteAshby:
		return URLPair{DescriptionURL: canonical, ApplyURL: canonical + "/application?embed=js"}, true
	case SiteWellfound:
		return URLPair{DescriptionURL: canonical, ApplyURL: canonical}, true
	}
	return URLPair{}, false
}

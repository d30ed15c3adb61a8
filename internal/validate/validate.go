// Package validate decides whether a fetched page is real board
// content or an error page, interstitial, or bot wall dressed up as a
// 200. Extraction only runs on pages that pass.
package validate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jimezsa/jobharvest/internal/network"
)

// ErrInvalidContent wraps every rejection, so callers can match the
// class without caring which check fired.
var ErrInvalidContent = errors.New("invalid content")

// Kind names the page shape being checked.
type Kind string

const (
	KindCompany Kind = "company"
	KindListing Kind = "listing"
	KindDetail  Kind = "detail"
)

// blockingPhrases mark pages served by anti-bot layers rather than the
// board itself. Matched case-insensitively against the raw body.
var blockingPhrases = []string{
	"access denied",
	"rate limit",
	"too many requests",
	"blocked",
	"captcha",
	"security check",
	"verify you are human",
	"automated access",
	"suspicious activity",
}

var minTextLength = map[Kind]int{
	KindCompany: 1000,
	KindListing: 500,
	KindDetail:  200,
}

var applyPattern = regexp.MustCompile(`(?i)apply|submit|send`)

// Valid reports whether the page looks like genuine content of the
// given kind. A nil error means the page can be handed to an
// extractor.
func Valid(page *network.Page, kind Kind) error {
	if err := check(page, kind); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidContent, err)
	}
	return nil
}

func check(page *network.Page, kind Kind) error {
	if page.StatusCode != 200 {
		return fmt.Errorf("status %d", page.StatusCode)
	}
	if !page.IsHTML() {
		return fmt.Errorf("content type %q is not html", page.ContentType)
	}
	if strings.TrimSpace(page.Body) == "" {
		return fmt.Errorf("empty body")
	}

	lower := strings.ToLower(page.Body)
	for _, phrase := range blockingPhrases {
		if strings.Contains(lower, phrase) {
			return fmt.Errorf("blocking phrase %q", phrase)
		}
	}

	doc, err := page.Document()
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}

	if err := checkSkeleton(doc); err != nil {
		return err
	}

	text := doc.Find("body").Text()
	if min := minTextLength[kind]; len(text) < min {
		return fmt.Errorf("body text %d chars, need %d", len(text), min)
	}

	return checkIntegrity(doc, kind)
}

// checkSkeleton rejects truncated or synthetic documents. A real board
// page always carries the full html/head/body frame, a title, and at
// least one meta tag.
func checkSkeleton(doc *goquery.Document) error {
	for _, sel := range []string{"html", "head", "body", "title", "meta"} {
		if doc.Find(sel).Length() == 0 {
			return fmt.Errorf("missing <%s>", sel)
		}
	}
	return nil
}

func checkIntegrity(doc *goquery.Document, kind Kind) error {
	switch kind {
	case KindDetail:
		if !hasNonEmpty(doc, "h1, h2") {
			return fmt.Errorf("detail page has no heading")
		}
		if !hasLongBlock(doc, 200) {
			return fmt.Errorf("detail page has no description block")
		}
		if !hasApplyAffordance(doc) {
			return fmt.Errorf("detail page has no way to apply")
		}
	case KindListing:
		if n := countJobLinks(doc); n < 2 {
			return fmt.Errorf("listing has %d job links, need 2", n)
		}
	case KindCompany:
		if !hasNonEmpty(doc, "h1, h2") {
			return fmt.Errorf("company page has no heading")
		}
		if doc.Find("img[src]").Length() == 0 && !hasLongBlock(doc, 100) {
			return fmt.Errorf("company page has neither logo nor description")
		}
	}
	return nil
}

func hasNonEmpty(doc *goquery.Document, selector string) bool {
	found := false
	doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.TrimSpace(s.Text()) != "" {
			found = true
			return false
		}
		return true
	})
	return found
}

func hasLongBlock(doc *goquery.Document, min int) bool {
	found := false
	doc.Find("div, p").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if len(strings.TrimSpace(s.Text())) >= min {
			found = true
			return false
		}
		return true
	})
	return found
}

func hasApplyAffordance(doc *goquery.Document) bool {
	if doc.Find("form").Length() > 0 {
		return true
	}
	found := false
	doc.Find("a, button").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if applyPattern.MatchString(s.Text()) {
			found = true
			return false
		}
		return true
	})
	return found
}

func countJobLinks(doc *goquery.Document) int {
	n := 0
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if strings.Contains(strings.ToLower(href), "job") {
			n++
		}
	})
	return n
}

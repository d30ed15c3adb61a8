package network

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Page is a fetched document, decoded to UTF-8.
type Page struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        string
}

// Document parses the page body.
func (p *Page) Document() (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(p.Body))
}

// IsHTML reports whether the response declared an HTML content type.
func (p *Page) IsHTML() bool {
	return strings.Contains(strings.ToLower(p.ContentType), "text/html")
}

package scraper

import (
	"errors"

	"github.com/PuerkitoBio/goquery"

	"github.com/jimezsa/jobharvest/internal/models"
)

// ErrMalformed marks pages that passed validation but lack the
// structure the site extractor depends on. Callers skip the page
// rather than store a partial record.
var ErrMalformed = errors.New("page is missing required structure")

type Extractor interface {
	Site() string
	Extract(doc *goquery.Document, pageURL string) (models.Job, error)
}

package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jimezsa/jobharvest/internal/models"
	"github.com/jimezsa/jobharvest/internal/textproc"
)

type Greenhouse struct{}

func NewGreenhouse() *Greenhouse { return &Greenhouse{} }

func (g *Greenhouse) Site() string { return SiteGreenhouse }

func (g *Greenhouse) Extract(doc *goquery.Document, pageURL string) (models.Job, error) {
	job := models.Job{Site: SiteGreenhouse}

	job.Title = cleanText(doc.Find(`meta[property="og:title"]`).First().AttrOr("content", ""))
	job.CompanyLogo = doc.Find(`meta[property="og:image"]`).First().AttrOr("content", "")

	// The <title> tag reads "Position at Company".
	pageTitle := cleanText(doc.Find("title").First().Text())
	if _, company, found := strings.Cut(pageTitle, " at "); found {
		job.Company = strings.TrimSpace(company)
	} else {
		job.Company = pageTitle
	}
	if job.Title == "" {
		if position, _, found := strings.Cut(pageTitle, " at "); found {
			job.Title = strings.TrimSpace(position)
		}
	}

	job.Location = cleanText(doc.Find("div.location").First().Text())

	if raw, err := doc.Find("div#content").First().Html(); err == nil {
		job.Description = textproc.CleanHTML(raw)
	}

	// Boards annotate employment type as a "Type: Full-Time" paragraph.
	doc.Find("p").EachWithBreak(func(_ int, p *goquery.Selection) bool {
		text := cleanText(p.Text())
		if idx := strings.Index(strings.ToLower(text), "type:"); idx >= 0 {
			job.EmploymentType = strings.ToLower(strings.TrimSpace(text[idx+len("type:"):]))
			return false
		}
		return true
	})

	collectSections(doc, "h2, h3", &job)
	inferWorkTypes(&job, job.Location, job.Description)
	applySalary(&job, job.Description, pageTitle, job.Title)

	if err := finishJob(&job, doc, pageURL); err != nil {
		return models.Job{}, err
	}
	return job, nil
}

package scraper

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jimezsa/jobharvest/internal/models"
	"github.com/jimezsa/jobharvest/internal/textproc"
)

type Ashby struct{}

func NewAshby() *Ashby { return &Ashby{} }

func (a *Ashby) Site() string { return SiteAshby }

var relativeDays = regexp.MustCompile(`(\d+)\s*day`)

func (a *Ashby) Extract(doc *goquery.Document, pageURL string) (models.Job, error) {
	job := models.Job{Site: SiteAshby}

	// Ashby titles read "Position @ Company".
	pageTitle := cleanText(doc.Find("title").First().Text())
	if pageTitle == "" {
		return models.Job{}, ErrMalformed
	}
	if position, company, found := strings.Cut(pageTitle, " @ "); found {
		job.Title = strings.TrimSpace(position)
		job.Company = strings.TrimSpace(company)
	} else {
		job.Company = pageTitle
	}

	job.CompanyLogo = doc.Find(`meta[property="og:image"]`).First().AttrOr("content", "")
	job.Location = cleanText(doc.Find(`div[data-testid="job-location"]`).First().Text())

	if raw, err := doc.Find(`div[data-testid="job-description"]`).First().Html(); err == nil {
		job.Description = textproc.CleanHTML(raw)
	}

	if jobType := cleanText(doc.Find(`div[data-testid="job-type"]`).First().Text()); jobType != "" {
		job.EmploymentType = strings.ToLower(jobType)
	}

	collectSections(doc, "h2, h3, h4", &job)
	inferWorkTypes(&job, job.Location, job.Description)

	compensation := cleanText(doc.Find(`div[data-testid="compensation"]`).First().Text())
	applySalary(&job, compensation, job.Description, pageTitle)

	if err := finishJob(&job, doc, pageURL); err != nil {
		return models.Job{}, err
	}

	// Ashby shows relative posting ages like "3 days ago".
	posted := cleanText(doc.Find(`div[data-testid="job-posted-date"]`).First().Text())
	if match := relativeDays.FindStringSubmatch(posted); match != nil {
		if days, err := strconv.Atoi(match[1]); err == nil {
			job.PostedAt = job.ScrapedAt.Add(-time.Duration(days) * 24 * time.Hour)
		}
	}

	return job, nil
}

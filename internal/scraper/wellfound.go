package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jimezsa/jobharvest/internal/models"
	"github.com/jimezsa/jobharvest/internal/textproc"
)

// Wellfound renders postings from structured data, so extraction leans
// on the JSON-LD JobPosting embed with OpenGraph tags as fallback.
type Wellfound struct{}

func NewWellfound() *Wellfound { return &Wellfound{} }

func (w *Wellfound) Site() string { return SiteWellfound }

func (w *Wellfound) Extract(doc *goquery.Document, pageURL string) (models.Job, error) {
	job := models.Job{Site: SiteWellfound}

	posting, ok := firstJobPosting(doc)
	if ok {
		job.Title = stringValue(posting["title"], posting["name"])
		job.Company = stringValue(mapValue(posting["hiringOrganization"], "name"))
		job.CompanyLogo = stringValue(mapValue(posting["hiringOrganization"], "logo"))
		job.Location = locationFromJSONLD(posting["jobLocation"])
		job.EmploymentType = strings.ToLower(stringValue(posting["employmentType"]))
		job.Description = textproc.CleanHTML(stringValue(posting["description"]))
		if ts, parsed := parsePostedAt(stringValue(posting["datePosted"])); parsed {
			job.PostedAt = ts
		}
		applyJSONLDSalary(&job, posting["baseSalary"])
		if job.Salary == "" {
			applySalary(&job, job.Description)
		}
	}

	if job.Title == "" {
		ogTitle := cleanText(doc.Find(`meta[property="og:title"]`).First().AttrOr("content", ""))
		if position, company, found := strings.Cut(ogTitle, " at "); found {
			job.Title = strings.TrimSpace(position)
			if job.Company == "" {
				job.Company = strings.TrimSpace(company)
			}
		} else {
			job.Title = ogTitle
		}
	}
	if job.CompanyLogo == "" {
		job.CompanyLogo = doc.Find(`meta[property="og:image"]`).First().AttrOr("content", "")
	}

	collectSections(doc, "h2, h3", &job)
	inferWorkTypes(&job, job.Location, job.Description)

	posted := job.PostedAt
	if err := finishJob(&job, doc, pageURL); err != nil {
		return models.Job{}, err
	}
	if !posted.IsZero() {
		job.PostedAt = posted
	}
	return job, nil
}

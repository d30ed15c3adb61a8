package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jimezsa/jobharvest/internal/models"
	"github.com/jimezsa/jobharvest/internal/textproc"
)

// leverPlaceholderLogo is the generic Lever asset shown when a company
// has not uploaded its own logo.
const leverPlaceholderLogo = "/img/lever-logo-full.svg"

type Lever struct{}

func NewLever() *Lever { return &Lever{} }

func (l *Lever) Site() string { return SiteLever }

func (l *Lever) Extract(doc *goquery.Document, pageURL string) (models.Job, error) {
	job := models.Job{Site: SiteLever}

	// Lever titles read "Company - Position".
	pageTitle := cleanText(doc.Find("title").First().Text())
	if pageTitle == "" {
		return models.Job{}, ErrMalformed
	}
	if company, position, found := strings.Cut(pageTitle, "-"); found {
		job.Company = strings.TrimSpace(company)
		job.Title = strings.TrimSpace(position)
	} else {
		job.Company = pageTitle
	}

	if src := doc.Find("img").First().AttrOr("src", ""); src != "" && src != leverPlaceholderLogo {
		job.CompanyLogo = absoluteURL(pageURL, src)
	}

	workplace := cleanText(doc.Find("div.workplaceTypes").First().Text())
	job.Location = cleanText(doc.Find("div.location").First().Text())
	if job.Location == "" {
		job.Location = workplace
	}

	descSel := doc.Find("div.content").First()
	if descSel.Length() == 0 {
		descSel = doc.Find("div.description").First()
	}
	if raw, err := descSel.Html(); err == nil {
		job.Description = textproc.CleanHTML(raw)
	}

	if commitment := cleanText(doc.Find("div.commitment").First().Text()); commitment != "" {
		job.EmploymentType = strings.ToLower(commitment)
	}

	collectSections(doc, "h3, h4", &job)
	inferWorkTypes(&job, workplace, job.Location, job.Description)

	compensation := cleanText(doc.Find("div.compensation").First().Text())
	applySalary(&job, compensation, job.Description, pageTitle)

	if err := finishJob(&job, doc, pageURL); err != nil {
		return models.Job{}, err
	}
	return job, nil
}

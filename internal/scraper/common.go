package scraper

import (
	"html"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jimezsa/jobharvest/internal/models"
	"github.com/jimezsa/jobharvest/internal/textproc"
)

const defaultPostingLifetime = 30 * 24 * time.Hour

// now is swapped in tests so date math is reproducible.
var now = time.Now

func cleanText(value string) string {
	value = html.UnescapeString(value)
	return strings.Join(strings.Fields(value), " ")
}

func absoluteURL(base string, href string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if strings.HasPrefix(href, "//") {
		return "https:" + href
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

func parsePostedAt(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	layouts := []string{
		time.RFC3339,
		time.RFC3339Nano,
		"2006-01-02",
		"2006-01-02T15:04:05-0700",
	}
	for _, layout := range layouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// metaPostedAt reads article:published_time if the page carries it.
func metaPostedAt(doc *goquery.Document) (time.Time, bool) {
	content := doc.Find(`meta[property="article:published_time"]`).First().AttrOr("content", "")
	return parsePostedAt(content)
}

// stampDates fills the posting dates: the published meta when present,
// otherwise scrape time, and a 30-day expiry horizon.
func stampDates(job *models.Job, doc *goquery.Document) {
	job.ScrapedAt = now()
	if ts, ok := metaPostedAt(doc); ok {
		job.PostedAt = ts
	} else {
		job.PostedAt = job.ScrapedAt
	}
	job.ExpiresAt = job.ScrapedAt.Add(defaultPostingLifetime)
	job.Status = "active"
}

// collectSections walks the headings matching headingSel, classifies
// each by phrase, and gathers the list items that follow it until the
// structure changes.
func collectSections(doc *goquery.Document, headingSel string, job *models.Job) {
	doc.Find(headingSel).Each(func(_ int, heading *goquery.Selection) {
		section := textproc.ClassifyHeading(heading.Text())
		if section != textproc.SectionRequirements &&
			section != textproc.SectionQualifications &&
			section != textproc.SectionBenefits {
			return
		}
		items := textproc.CleanList(sectionItems(heading))
		if len(items) == 0 {
			return
		}
		switch section {
		case textproc.SectionRequirements:
			job.Requirements = append(job.Requirements, items...)
		case textproc.SectionQualifications:
			job.Qualifications = append(job.Qualifications, items...)
		case textproc.SectionBenefits:
			job.Benefits = append(job.Benefits, items...)
		}
	})
}

// sectionItems collects list content from the siblings directly after a
// heading, stopping at the first element that is not part of the
// section body.
func sectionItems(heading *goquery.Selection) []string {
	var items []string
	for node := heading.Next(); node.Length() > 0; node = node.Next() {
		switch goquery.NodeName(node) {
		case "ul", "ol":
			node.Find("li").Each(func(_ int, li *goquery.Selection) {
				if text := cleanText(li.Text()); text != "" {
					items = append(items, text)
				}
			})
		case "li":
			if text := cleanText(node.Text()); text != "" {
				items = append(items, text)
			}
		case "p", "div":
			// Bullets rendered as text instead of list markup.
			items = append(items, textproc.ExtractBulletPoints(node.Text())...)
		default:
			return items
		}
	}
	return items
}

// salaryPattern matches "$120,000 - $150,000", "$90k-$120k", and bare
// "$85,000" mentions. First match across the candidate texts wins.
var (
	salaryPattern = regexp.MustCompile(`\$\d{1,3}(?:,\d{3})*(?:\.\d+)?\s*[kK]?(?:\s*(?:-|–|to)\s*\$?\d{1,3}(?:,\d{3})*(?:\.\d+)?\s*[kK]?)?`)
	salaryNumber  = regexp.MustCompile(`(\d{1,3}(?:,\d{3})*(?:\.\d+)?)\s*([kK]?)`)
)

// applySalary scans the candidate texts in priority order and fills the
// salary fields from the first match.
func applySalary(job *models.Job, texts ...string) {
	for _, text := range texts {
		if text == "" {
			continue
		}
		match := salaryPattern.FindString(text)
		if match == "" {
			continue
		}
		job.Salary = cleanText(match)
		job.SalaryCurrency = "$"

		numbers := salaryNumber.FindAllStringSubmatch(match, 2)
		if len(numbers) > 0 {
			job.SalaryMin = expandSalaryNumber(numbers[0])
		}
		if len(numbers) > 1 {
			job.SalaryMax = expandSalaryNumber(numbers[1])
		}

		lower := strings.ToLower(text)
		switch {
		case strings.Contains(lower, "per year") || strings.Contains(lower, "annually") || strings.Contains(lower, "/yr"):
			job.SalaryType = "yearly"
		case strings.Contains(lower, "per hour") || strings.Contains(lower, "hourly") || strings.Contains(lower, "/hr"):
			job.SalaryType = "hourly"
		}
		return
	}
}

func expandSalaryNumber(match []string) int {
	value, err := strconv.ParseFloat(strings.ReplaceAll(match[1], ",", ""), 64)
	if err != nil {
		return 0
	}
	if strings.EqualFold(match[2], "k") {
		value *= 1000
	}
	return int(value)
}

// experienceRules are checked in order against the title first, then
// the description. The first hit wins.
var experienceRules = []struct {
	pattern *regexp.Regexp
	level   string
}{
	{regexp.MustCompile(`(?i)\b(?:senior|sr\.?)\b`), models.LevelSenior},
	{regexp.MustCompile(`(?i)\b(?:junior|jr\.?)\b`), models.LevelJunior},
	{regexp.MustCompile(`(?i)\bmid[\s-]?level\b`), models.LevelMid},
	{regexp.MustCompile(`(?i)\b(?:principal|staff|lead)\b`), models.LevelPrincipal},
	{regexp.MustCompile(`(?i)\b(?:entry\s*-?\s*level|fresh\s*graduates?|new\s*grads?)\b`), models.LevelEntry},
}

func experienceLevel(title, description string) string {
	for _, rule := range experienceRules {
		if rule.pattern.MatchString(title) || rule.pattern.MatchString(description) {
			return rule.level
		}
	}
	return ""
}

// inferWorkTypes scans the given texts for work-arrangement keywords
// and records every arrangement mentioned. Any remote mention also
// flips the remote flag.
func inferWorkTypes(job *models.Job, texts ...string) {
	for _, text := range texts {
		lower := strings.ToLower(text)
		if lower == "" {
			continue
		}
		if strings.Contains(lower, "remote") {
			job.Remote = true
			job.AddWorkType(models.WorkTypeRemote)
		}
		if strings.Contains(lower, "hybrid") {
			job.AddWorkType(models.WorkTypeHybrid)
		}
		if strings.Contains(lower, "on-site") || strings.Contains(lower, "onsite") ||
			strings.Contains(lower, "on site") || strings.Contains(lower, "in office") {
			job.AddWorkType(models.WorkTypeOnSite)
		}
	}
}

// finishJob applies the shared post-extraction policies and computes
// the identity fingerprint. Title and company are mandatory.
func finishJob(job *models.Job, doc *goquery.Document, pageURL string) error {
	if job.Title == "" || job.Company == "" {
		return ErrMalformed
	}
	job.URL = pageURL
	if job.ApplicationURL == "" {
		if pair, ok := Canonical(pageURL, job.Site); ok {
			job.ApplicationURL = pair.ApplyURL
		} else {
			job.ApplicationURL = pageURL
		}
	}
	if job.EmploymentType == "" {
		job.EmploymentType = "full-time"
	}
	if job.ExperienceLevel == "" {
		job.ExperienceLevel = experienceLevel(job.Title, job.Description)
	}
	job.Location = textproc.CleanLocation(job.Location)
	stampDates(job, doc)
	job.SetFingerprint()
	return nil
}

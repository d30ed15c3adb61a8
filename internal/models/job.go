package models

import "time"

// Work arrangement values carried in Job.WorkTypes.
const (
	WorkTypeRemote = "remote"
	WorkTypeHybrid = "hybrid"
	WorkTypeOnSite = "on-site"
)

// Experience levels, matched in order by the extractors.
const (
	LevelEntry     = "entry-level"
	LevelJunior    = "junior"
	LevelMid       = "mid-level"
	LevelSenior    = "senior"
	LevelPrincipal = "principal"
)

// Job is the canonical posting produced by a site extractor.
type Job struct {
	Site            string    `json:"site"`
	Title           string    `json:"title"`
	Company         string    `json:"company"`
	Location        string    `json:"location"`
	Description     string    `json:"description,omitempty"`
	Requirements    []string  `json:"requirements,omitempty"`
	Qualifications  []string  `json:"qualifications,omitempty"`
	Benefits        []string  `json:"benefits,omitempty"`
	Salary          string    `json:"salary,omitempty"`
	SalaryMin       int       `json:"salary_min,omitempty"`
	SalaryMax       int       `json:"salary_max,omitempty"`
	SalaryCurrency  string    `json:"salary_currency,omitempty"`
	SalaryType      string    `json:"salary_type,omitempty"`
	EmploymentType  string    `json:"employment_type,omitempty"`
	ExperienceLevel string    `json:"experience_level,omitempty"`
	WorkTypes       []string  `json:"work_types,omitempty"`
	Remote          bool      `json:"remote,omitempty"`
	URL             string    `json:"url"`
	ApplicationURL  string    `json:"application_url"`
	CompanyLogo     string    `json:"company_logo,omitempty"`
	PostedAt        time.Time `json:"posted_at,omitempty"`
	ExpiresAt       time.Time `json:"expires_at,omitempty"`
	ScrapedAt       time.Time `json:"scraped_at,omitempty"`
	Status          string    `json:"status,omitempty"`
	Fingerprint     string    `json:"fingerprint,omitempty"`
}

// HasWorkType reports whether the job already carries the given arrangement.
func (j *Job) HasWorkType(value string) bool {
	for _, wt := range j.WorkTypes {
		if wt == value {
			return true
		}
	}
	return false
}

// AddWorkType appends an arrangement, keeping the set free of duplicates.
func (j *Job) AddWorkType(value string) {
	if value == "" || j.HasWorkType(value) {
		return
	}
	j.WorkTypes = append(j.WorkTypes, value)
}

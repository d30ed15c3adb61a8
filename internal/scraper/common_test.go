package scraper

import (
	"testing"

	"github.com/jimezsa/jobharvest/internal/models"
)

func TestApplySalaryRange(t *testing.T) {
	var job models.Job
	applySalary(&job, "The range for this role is $120,000 - $150,000 per year.")

	if job.SalaryMin != 120000 || job.SalaryMax != 150000 {
		t.Fatalf("salary bounds = %d..%d", job.SalaryMin, job.SalaryMax)
	}
	if job.SalaryCurrency != "$" || job.SalaryType != "yearly" {
		t.Fatalf("currency %q type %q", job.SalaryCurrency, job.SalaryType)
	}
}

func TestApplySalaryKSuffix(t *testing.T) {
	var job models.Job
	applySalary(&job, "Compensation: $90k-$120k plus equity")

	if job.SalaryMin != 90000 || job.SalaryMax != 120000 {
		t.Fatalf("k suffix expansion broken: %d..%d", job.SalaryMin, job.SalaryMax)
	}
}

func TestApplySalaryFirstTextWins(t *testing.T) {
	var job models.Job
	applySalary(&job, "", "$85,000 per hour of consulting", "$200,000 elsewhere")

	if job.SalaryMin != 85000 || job.SalaryType != "hourly" {
		t.Fatalf("expected first non-empty text to win, got %d %q", job.SalaryMin, job.SalaryType)
	}
}

func TestApplySalaryNoMatch(t *testing.T) {
	var job models.Job
	applySalary(&job, "Competitive compensation and equity")
	if job.Salary != "" || job.SalaryMin != 0 {
		t.Fatalf("no match must leave fields zero: %+v", job)
	}
}

func TestExperienceLevelOrdering(t *testing.T) {
	cases := []struct {
		title, desc, want string
	}{
		{"Senior Backend Engineer", "", models.LevelSenior},
		{"Sr. Platform Engineer", "", models.LevelSenior},
		{"Backend Engineer", "We want a junior developer", models.LevelJunior},
		{"Staff Engineer", "", models.LevelPrincipal},
		{"Engineer", "Great for new grads", models.LevelEntry},
		{"Engineer", "Open to fresh graduates", models.LevelEntry},
		// Title rules win over description mentions further down the list.
		{"Senior Engineer", "mentoring junior engineers", models.LevelSenior},
		{"Backend Engineer", "", ""},
	}
	for _, tc := range cases {
		if got := experienceLevel(tc.title, tc.desc); got != tc.want {
			t.Fatalf("experienceLevel(%q, %q) = %q, want %q", tc.title, tc.desc, got, tc.want)
		}
	}
}

func TestInferWorkTypes(t *testing.T) {
	var job models.Job
	inferWorkTypes(&job, "Remote - US", "hybrid schedule available", "three days in office")

	if !job.Remote {
		t.Fatalf("remote flag must be set")
	}
	for _, want := range []string{models.WorkTypeRemote, models.WorkTypeHybrid, models.WorkTypeOnSite} {
		if !job.HasWorkType(want) {
			t.Fatalf("missing work type %q in %v", want, job.WorkTypes)
		}
	}

	var dedup models.Job
	inferWorkTypes(&dedup, "remote", "fully remote")
	if len(dedup.WorkTypes) != 1 {
		t.Fatalf("work types must not duplicate: %v", dedup.WorkTypes)
	}
}

func TestCollectSections(t *testing.T) {
	doc := mustDoc(t, `<html><body>
<h3>Requirements</h3>
<ul><li>5+ years of Go</li><li>Production Kubernetes</li></ul>
<h3>Nice to have</h3>
<ul><li>Rust exposure</li></ul>
<h3>Benefits</h3>
<ul><li>Health insurance</li></ul>
<h3>About us</h3>
<ul><li>Founded in 2019</li></ul>
</body></html>`)

	var job models.Job
	collectSections(doc, "h3, h4", &job)

	if len(job.Requirements) != 2 || job.Requirements[0] != "5+ years of Go" {
		t.Fatalf("requirements = %v", job.Requirements)
	}
	if len(job.Qualifications) != 1 || job.Qualifications[0] != "Rust exposure" {
		t.Fatalf("qualifications = %v", job.Qualifications)
	}
	if len(job.Benefits) != 1 {
		t.Fatalf("benefits = %v", job.Benefits)
	}
}

func TestSectionItemsStopAtNextHeading(t *testing.T) {
	doc := mustDoc(t, `<html><body>
<h3>Requirements</h3>
<ul><li>Go</li></ul>
<h3>Benefits</h3>
<ul><li>Equity</li></ul>
</body></html>`)

	var job models.Job
	collectSections(doc, "h3", &job)
	if len(job.Requirements) != 1 || len(job.Benefits) != 1 {
		t.Fatalf("sections bled into each other: req=%v ben=%v", job.Requirements, job.Benefits)
	}
}

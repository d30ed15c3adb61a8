package textproc

import (
	"reflect"
	"strings"
	"testing"
)

func TestClassifyHeading(t *testing.T) {
	cases := []struct {
		heading string
		want    string
	}{
		{"What you'll need", SectionRequirements},
		{"Minimum Qualifications", SectionRequirements},
		{"Preferred Qualifications", SectionQualifications},
		{"Nice to have", SectionQualifications},
		{"Perks", SectionBenefits},
		{"What we offer", SectionBenefits},
		{"About the role", SectionSummary},
		{"Our offices", SectionOther},
	}

	for _, tc := range cases {
		if got := ClassifyHeading(tc.heading); got != tc.want {
			t.Fatalf("ClassifyHeading(%q) = %q, want %q", tc.heading, got, tc.want)
		}
	}
}

func TestClassifyHeadingWithContent(t *testing.T) {
	got := ClassifyHeadingWithContent("More about you", "You must have 5 years of Go. Required: strong SQL.")
	if got != SectionRequirements {
		t.Fatalf("expected requirements from content, got %q", got)
	}
}

func TestCleanHTMLPreservesBullets(t *testing.T) {
	fragment := `<div><p>Join us.</p><ul><li>Build APIs</li><li>Ship weekly</li></ul></div>`
	text := CleanHTML(fragment)

	if !strings.Contains(text, "• Build APIs") {
		t.Fatalf("expected bullet marker in output, got %q", text)
	}
	if !strings.Contains(text, "Join us.") {
		t.Fatalf("expected paragraph text, got %q", text)
	}
}

func TestCleanHTMLDropsScripts(t *testing.T) {
	fragment := `<div><script>alert(1)</script><p>Visible</p><style>p{}</style></div>`
	text := CleanHTML(fragment)
	if strings.Contains(text, "alert") || strings.Contains(text, "p{}") {
		t.Fatalf("script/style content leaked: %q", text)
	}
}

func TestCleanHTMLLinksKeepTarget(t *testing.T) {
	text := CleanHTML(`<p>See <a href="https://example.com/jobs">our jobs</a> page.</p>`)
	if !strings.Contains(text, "our jobs (https://example.com/jobs)") {
		t.Fatalf("expected link target in output, got %q", text)
	}
}

func TestExtractBulletPoints(t *testing.T) {
	got := ExtractBulletPoints("• Python\n• Go\nNot a bullet")
	want := []string{"Python", "Go"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ExtractBulletPoints = %v, want %v", got, want)
	}
}

func TestExtractBulletPointsMarkersAndDedup(t *testing.T) {
	text := "1. First point here\n2) Second point here\na) Lettered point\n- First point here\n* X"
	got := ExtractBulletPoints(text)
	want := []string{"First point here", "Second point here", "Lettered point"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ExtractBulletPoints = %v, want %v", got, want)
	}
}

func TestCleanLocation(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"san francisco / ca", "San Francisco, Ca"},
		{"remote work", "Remote"},
		{"work from home", "Remote"},
		{"hybrid - new york", "Hybrid - New York"},
	}
	for _, tc := range cases {
		if got := CleanLocation(tc.in); got != tc.want {
			t.Fatalf("CleanLocation(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTitleCasePreservesTechTerms(t *testing.T) {
	got := TitleCase("senior api engineer, python and aws")
	if got != "Senior API Engineer, Python And AWS" {
		t.Fatalf("unexpected title case: %q", got)
	}
}

func TestCleanList(t *testing.T) {
	got := CleanList([]string{"- Go expertise", "• Go expertise", "  SQL  tuning ", ""})
	want := []string{"Go expertise", "SQL tuning"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("CleanList = %v, want %v", got, want)
	}
}

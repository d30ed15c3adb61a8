package scraper

import "testing"

func TestCleanURLsGreenhouse(t *testing.T) {
	raw := []string{
		"https://boards.greenhouse.io/acme/jobs/12345?gh_jid=12345",
		"https://boards.greenhouse.io/acme/jobs/12345",
		"https://example.com/not-a-board",
	}

	pairs := CleanURLs(raw, SiteGreenhouse)
	if len(pairs) != 1 {
		t.Fatalf("expected 1 pair after dedupe, got %d", len(pairs))
	}
	if pairs[0].DescriptionURL != "https://boards.greenhouse.io/acme/jobs/12345" {
		t.Fatalf("description url = %q", pairs[0].DescriptionURL)
	}
	want := "https://boards.greenhouse.io/embed/job_app?for=acme&token=12345"
	if pairs[0].ApplyURL != want {
		t.Fatalf("apply url = %q, want %q", pairs[0].ApplyURL, want)
	}
}

func TestCleanURLsLeverAndAshby(t *testing.T) {
	lever := CleanURLs([]string{"https://jobs.lever.co/acme/abc-123?lever-origin=applied"}, SiteLever)
	if len(lever) != 1 || lever[0].ApplyURL != "https://jobs.lever.co/acme/abc-123/apply" {
		t.Fatalf("lever pairs = %+v", lever)
	}

	ashby := CleanURLs([]string{"https://jobs.ashbyhq.com/acme/9f8e7d"}, SiteAshby)
	if len(ashby) != 1 || ashby[0].ApplyURL != "https://jobs.ashbyhq.com/acme/9f8e7d/application?embed=js" {
		t.Fatalf("ashby pairs = %+v", ashby)
	}
}

func TestCleanURLsIdempotent(t *testing.T) {
	first := CleanURLs([]string{"https://jobs.lever.co/acme/abc-123/apply"}, SiteLever)
	if len(first) != 1 {
		t.Fatalf("expected 1 pair, got %d", len(first))
	}
	second := CleanURLs([]string{first[0].DescriptionURL}, SiteLever)
	if len(second) != 1 || second[0] != first[0] {
		t.Fatalf("cleaning must be idempotent: %+v vs %+v", first, second)
	}
}

func TestCleanURLsWellfoundUnchanged(t *testing.T) {
	pairs := CleanURLs([]string{"https://wellfound.com/jobs/3021567-backend-engineer"}, SiteWellfound)
	if len(pairs) != 1 || pairs[0].ApplyURL != pairs[0].DescriptionURL {
		t.Fatalf("wellfound pairs = %+v", pairs)
	}
}

func TestSiteForURL(t *testing.T) {
	cases := map[string]string{
		"https://jobs.lever.co/acme/abc":              SiteLever,
		"https://boards.greenhouse.io/acme/jobs/1":    SiteGreenhouse,
		"https://job-boards.greenhouse.io/acme/jobs/1": SiteGreenhouse,
		"https://jobs.ashbyhq.com/acme/1":             SiteAshby,
		"https://wellfound.com/jobs/1":                SiteWellfound,
	}
	for rawURL, want := range cases {
		got, ok := SiteForURL(rawURL)
		if !ok || got != want {
			t.Fatalf("SiteForURL(%q) = %q, %v; want %q", rawURL, got, ok, want)
		}
	}
	if _, ok := SiteForURL("https://example.com/jobs/1"); ok {
		t.Fatalf("unknown host must not resolve")
	}
}

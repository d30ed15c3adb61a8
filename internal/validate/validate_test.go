package validate

import (
	"errors"
	"strings"
	"testing"

	"github.com/jimezsa/jobharvest/internal/network"
)

func page(status int, body string) *network.Page {
	return &network.Page{
		URL:         "https://jobs.lever.co/acme/123",
		StatusCode:  status,
		ContentType: "text/html; charset=utf-8",
		Body:        body,
	}
}

func detailFixture() string {
	desc := strings.Repeat("We build distributed systems for logistics. ", 10)
	return `<html><head><title>Backend Engineer - Acme</title><meta charset="utf-8"></head>
<body><h1>Backend Engineer</h1><div class="content">` + desc + `</div>
<a href="/acme/123/apply">Apply for this job</a></body></html>`
}

func TestValidDetailPasses(t *testing.T) {
	if err := Valid(page(200, detailFixture()), KindDetail); err != nil {
		t.Fatalf("expected valid detail page, got %v", err)
	}
}

func TestNon200Rejected(t *testing.T) {
	if err := Valid(page(503, detailFixture()), KindDetail); err == nil {
		t.Fatalf("503 must be rejected")
	}
}

func TestNonHTMLRejected(t *testing.T) {
	p := page(200, `{"ok":true}`)
	p.ContentType = "application/json"
	if err := Valid(p, KindDetail); err == nil {
		t.Fatalf("json response must be rejected")
	}
}

func TestBlockingPhraseRejected(t *testing.T) {
	body := strings.Replace(detailFixture(), "<h1>Backend Engineer</h1>",
		"<h1>Backend Engineer</h1><p>Please complete the CAPTCHA to continue.</p>", 1)
	err := Valid(page(200, body), KindDetail)
	if err == nil || !strings.Contains(err.Error(), "captcha") {
		t.Fatalf("expected captcha rejection, got %v", err)
	}
	if !errors.Is(err, ErrInvalidContent) {
		t.Fatalf("rejection must wrap ErrInvalidContent, got %v", err)
	}
}

func TestMissingSkeletonRejected(t *testing.T) {
	body := `<div><h1>Backend Engineer</h1>` + strings.Repeat("text ", 100) + `</div>`
	if err := Valid(page(200, body), KindDetail); err == nil {
		t.Fatalf("page without head/title/meta must be rejected")
	}
}

func TestDetailWithoutApplyRejected(t *testing.T) {
	body := strings.Replace(detailFixture(), `<a href="/acme/123/apply">Apply for this job</a>`, "", 1)
	err := Valid(page(200, body), KindDetail)
	if err == nil || !strings.Contains(err.Error(), "apply") {
		t.Fatalf("expected apply-affordance rejection, got %v", err)
	}
}

func TestDetailTooShortRejected(t *testing.T) {
	body := `<html><head><title>x</title><meta charset="utf-8"></head>
<body><h1>Engineer</h1><div>short</div><form></form></body></html>`
	if err := Valid(page(200, body), KindDetail); err == nil {
		t.Fatalf("thin detail page must be rejected")
	}
}

func TestListingNeedsTwoJobLinks(t *testing.T) {
	filler := strings.Repeat("Open roles across engineering and design. ", 15)
	one := `<html><head><title>Acme Careers</title><meta charset="utf-8"></head>
<body><h1>Careers</h1><div>` + filler + `</div>
<a href="/acme/jobs/1">Backend Engineer</a></body></html>`
	if err := Valid(page(200, one), KindListing); err == nil {
		t.Fatalf("single job link must be rejected")
	}

	two := strings.Replace(one, `<a href="/acme/jobs/1">Backend Engineer</a>`,
		`<a href="/acme/jobs/1">Backend Engineer</a><a href="/acme/jobs/2">Designer</a>`, 1)
	if err := Valid(page(200, two), KindListing); err != nil {
		t.Fatalf("two job links must pass, got %v", err)
	}
}

func TestCompanyNeedsLogoOrDescription(t *testing.T) {
	filler := strings.Repeat("Acme ships freight software to two hundred carriers worldwide. ", 20)
	withLogo := `<html><head><title>Acme</title><meta charset="utf-8"></head>
<body><h1>Acme</h1><img src="/logo.png"><div>` + filler + `</div></body></html>`
	if err := Valid(page(200, withLogo), KindCompany); err != nil {
		t.Fatalf("company page with logo must pass, got %v", err)
	}

	bare := `<html><head><title>Acme</title><meta charset="utf-8"></head>
<body><h1>Acme</h1><div>` + strings.Repeat("x", 1200) + `</div></body></html>`
	// No logo, but a long description block still passes.
	if err := Valid(page(200, bare), KindCompany); err != nil {
		t.Fatalf("company page with description must pass, got %v", err)
	}
}

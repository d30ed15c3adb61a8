package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/jimezsa/jobharvest/internal/identity"
	"github.com/jimezsa/jobharvest/internal/models"
	"github.com/jimezsa/jobharvest/internal/network"
	"github.com/jimezsa/jobharvest/internal/proxy"
	"github.com/jimezsa/jobharvest/internal/scraper"
)

func leverDetailPage(url string) *network.Page {
	desc := strings.Repeat("We build freight software for carriers across three continents. ", 10)
	body := `<html><head><title>Acme - Senior Backend Engineer</title><meta charset="utf-8"></head>
<body><h1>Senior Backend Engineer</h1>
<div class="location">Remote - US</div>
<div class="content"><p>` + desc + `</p></div>
<a href="` + url + `/apply">Apply for this job</a></body></html>`
	return &network.Page{URL: url, StatusCode: 200, ContentType: "text/html", Body: body}
}

type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]*network.Page
	errs  map[string]error
	calls []string
}

func (f *fakeFetcher) Fetch(_ context.Context, target string, _ *identity.Identity) (*network.Page, error) {
	f.mu.Lock()
	f.calls = append(f.calls, target)
	f.mu.Unlock()
	if err, ok := f.errs[target]; ok {
		return nil, err
	}
	if page, ok := f.pages[target]; ok {
		return page, nil
	}
	return nil, errors.New("no fixture for " + target)
}

type fakeSink struct {
	mu   sync.Mutex
	jobs []models.Job
	err  error
}

func (s *fakeSink) UpsertJob(_ context.Context, job models.Job) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	s.jobs = append(s.jobs, job)
	s.mu.Unlock()
	return nil
}

func noSleep(context.Context, time.Duration) error { return nil }

func newTestPipeline(fetcher *fakeFetcher, sink *fakeSink, opts ...Option) (*Pipeline, *proxy.Pool) {
	pool := proxy.New(proxy.DefaultConfig(), zerolog.Nop(), nil)
	opts = append(opts, WithSleeper(noSleep))
	return New(fetcher, sink, pool, zerolog.Nop(), opts...), pool
}

func TestRunStoresExtractedJobs(t *testing.T) {
	u1 := "https://jobs.lever.co/acme/job-1"
	u2 := "https://jobs.lever.co/acme/job-2"
	fetcher := &fakeFetcher{pages: map[string]*network.Page{
		u1: leverDetailPage(u1),
		u2: leverDetailPage(u2),
	}}
	sink := &fakeSink{}
	p, _ := newTestPipeline(fetcher, sink)

	stats := p.Run(context.Background(), map[string][]scraper.URLPair{
		scraper.SiteLever: scraper.CleanURLs([]string{u1, u2}, scraper.SiteLever),
	})

	if stats.Attempted != 2 || stats.Extracted != 2 || stats.Upserted != 2 {
		t.Fatalf("stats = %+v", stats)
	}
	if len(sink.jobs) != 2 {
		t.Fatalf("expected 2 stored jobs, got %d", len(sink.jobs))
	}
	for _, job := range sink.jobs {
		if job.Title == "" || job.Company == "" || job.ApplicationURL == "" {
			t.Fatalf("incomplete job stored: %+v", job)
		}
		if !strings.HasSuffix(job.ApplicationURL, "/apply") {
			t.Fatalf("application url = %q", job.ApplicationURL)
		}
	}
}

func TestRunCountsFetchFailures(t *testing.T) {
	u := "https://jobs.lever.co/acme/job-1"
	fetcher := &fakeFetcher{errs: map[string]error{u: errors.New("exhausted retries")}}
	sink := &fakeSink{}
	p, _ := newTestPipeline(fetcher, sink)

	stats := p.Run(context.Background(), map[string][]scraper.URLPair{
		scraper.SiteLever: scraper.CleanURLs([]string{u}, scraper.SiteLever),
	})

	if stats.Failed != 1 || stats.Upserted != 0 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestRunValidationFailureCoolsDomain(t *testing.T) {
	u := "https://jobs.lever.co/acme/job-1"
	blocked := &network.Page{
		URL: u, StatusCode: 200, ContentType: "text/html",
		Body: `<html><head><title>Check</title><meta charset="utf-8"></head><body><p>Please complete the captcha to continue.</p></body></html>`,
	}
	fetcher := &fakeFetcher{pages: map[string]*network.Page{u: blocked}}
	sink := &fakeSink{}
	p, pool := newTestPipeline(fetcher, sink)

	stats := p.Run(context.Background(), map[string][]scraper.URLPair{
		scraper.SiteLever: scraper.CleanURLs([]string{u}, scraper.SiteLever),
	})

	if stats.Failed != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	if !pool.ShouldUseProxy("jobs.lever.co") {
		t.Fatalf("validation failure must cool the domain down")
	}
}

func TestRunMalformedPageIsSkippedNotFailed(t *testing.T) {
	u := "https://jobs.lever.co/acme/job-1"
	// Valid detail shape but no <title>, so extraction cannot name it.
	filler := strings.Repeat("A long description of the role and the team context here. ", 10)
	page := &network.Page{
		URL: u, StatusCode: 200, ContentType: "text/html",
		Body: `<html><head><title> </title><meta charset="utf-8"></head>
<body><h1>Role</h1><div>` + filler + `</div><form></form></body></html>`,
	}
	fetcher := &fakeFetcher{pages: map[string]*network.Page{u: page}}
	sink := &fakeSink{}
	p, _ := newTestPipeline(fetcher, sink)

	stats := p.Run(context.Background(), map[string][]scraper.URLPair{
		scraper.SiteLever: scraper.CleanURLs([]string{u}, scraper.SiteLever),
	})

	if stats.Skipped != 1 || stats.Failed != 0 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestRunSinkFailureCountsExtractedButFailed(t *testing.T) {
	u := "https://jobs.lever.co/acme/job-1"
	fetcher := &fakeFetcher{pages: map[string]*network.Page{u: leverDetailPage(u)}}
	sink := &fakeSink{err: errors.New("connection refused")}
	p, _ := newTestPipeline(fetcher, sink)

	stats := p.Run(context.Background(), map[string][]scraper.URLPair{
		scraper.SiteLever: scraper.CleanURLs([]string{u}, scraper.SiteLever),
	})

	if stats.Extracted != 1 || stats.Failed != 1 || stats.Upserted != 0 {
		t.Fatalf("stats = %+v", stats)
	}
}

type upperEnricher struct{}

func (upperEnricher) Structure(_ context.Context, job models.Job) (models.Job, error) {
	job.Title = strings.ToUpper(job.Title)
	return job, nil
}

func TestRunAppliesEnricher(t *testing.T) {
	u := "https://jobs.lever.co/acme/job-1"
	fetcher := &fakeFetcher{pages: map[string]*network.Page{u: leverDetailPage(u)}}
	sink := &fakeSink{}
	p, _ := newTestPipeline(fetcher, sink, WithEnricher(upperEnricher{}))

	p.Run(context.Background(), map[string][]scraper.URLPair{
		scraper.SiteLever: scraper.CleanURLs([]string{u}, scraper.SiteLever),
	})

	if len(sink.jobs) != 1 || sink.jobs[0].Title != "SENIOR BACKEND ENGINEER" {
		t.Fatalf("enricher not applied: %+v", sink.jobs)
	}
}

// Package pipeline wires discovery, fetching, validation, extraction,
// enrichment, and persistence into one bounded-concurrency pass.
package pipeline

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jimezsa/jobharvest/internal/identity"
	"github.com/jimezsa/jobharvest/internal/models"
	"github.com/jimezsa/jobharvest/internal/network"
	"github.com/jimezsa/jobharvest/internal/proxy"
	"github.com/jimezsa/jobharvest/internal/scraper"
	"github.com/jimezsa/jobharvest/internal/validate"
)

// DefaultWorkers is the number of concurrent scrape sessions.
const DefaultWorkers = 3

// Fetcher retrieves one page with the given identity.
type Fetcher interface {
	Fetch(ctx context.Context, target string, id *identity.Identity) (*network.Page, error)
}

// Sink persists extracted jobs.
type Sink interface {
	UpsertJob(ctx context.Context, job models.Job) error
}

// Enricher restructures a job; errors mean "use the original".
type Enricher interface {
	Structure(ctx context.Context, job models.Job) (models.Job, error)
}

// Stats summarizes one batch for the user-facing report.
type Stats struct {
	Attempted int
	Extracted int
	Upserted  int
	Failed    int
	Skipped   int
}

type task struct {
	site string
	pair scraper.URLPair
}

type Pipeline struct {
	fetcher    Fetcher
	extractors map[string]scraper.Extractor
	sink       Sink
	enricher   Enricher
	pool       *proxy.Pool
	sessions   *Sessions
	workers    int
	sleep      network.Sleeper
	logger     zerolog.Logger
}

// Option tweaks pipeline construction.
type Option func(*Pipeline)

func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithEnricher enables the LLM pass.
func WithEnricher(e Enricher) Option {
	return func(p *Pipeline) { p.enricher = e }
}

// WithSleeper replaces the natural-delay sleeper, for tests.
func WithSleeper(s network.Sleeper) Option {
	return func(p *Pipeline) { p.sleep = s }
}

func WithSessions(s *Sessions) Option {
	return func(p *Pipeline) { p.sessions = s }
}

func New(fetcher Fetcher, sink Sink, pool *proxy.Pool, logger zerolog.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		fetcher:    fetcher,
		extractors: scraper.Registry(),
		sink:       sink,
		pool:       pool,
		sessions:   NewSessions(DefaultSessionTTL),
		workers:    DefaultWorkers,
		sleep:      network.WallClockSleeper,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run processes the cleaned URL pairs for each site and returns the
// batch stats. Workers share the session table so one domain keeps one
// identity across the pass.
func (p *Pipeline) Run(ctx context.Context, batches map[string][]scraper.URLPair) Stats {
	tasks := make(chan task)
	var (
		mu    sync.Mutex
		stats Stats
		wg    sync.WaitGroup
	)

	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range tasks {
				outcome := p.process(ctx, t)
				mu.Lock()
				stats.Attempted++
				switch outcome {
				case outcomeUpserted:
					stats.Extracted++
					stats.Upserted++
				case outcomeExtracted:
					stats.Extracted++
					stats.Failed++
				case outcomeSkipped:
					stats.Skipped++
				case outcomeFailed:
					stats.Failed++
				}
				mu.Unlock()
			}
		}()
	}

	for site, pairs := range batches {
		for _, pair := range pairs {
			select {
			case <-ctx.Done():
				close(tasks)
				wg.Wait()
				return stats
			case tasks <- task{site: site, pair: pair}:
			}
		}
	}
	close(tasks)
	wg.Wait()

	p.logger.Info().
		Int("attempted", stats.Attempted).
		Int("extracted", stats.Extracted).
		Int("upserted", stats.Upserted).
		Int("failed", stats.Failed).
		Int("skipped", stats.Skipped).
		Msg("batch complete")
	return stats
}

type outcome int

const (
	outcomeUpserted outcome = iota
	outcomeExtracted
	outcomeSkipped
	outcomeFailed
)

func (p *Pipeline) process(ctx context.Context, t task) outcome {
	target := t.pair.DescriptionURL
	log := p.logger.With().Str("site", t.site).Str("url", target).Logger()

	extractor, ok := p.extractors[t.site]
	if !ok {
		log.Warn().Msg("no extractor registered")
		return outcomeSkipped
	}

	id := p.sessions.Identity(proxy.Domain(target))
	page, err := p.fetcher.Fetch(ctx, target, id)
	if err != nil {
		log.Warn().Err(err).Msg("fetch failed")
		return outcomeFailed
	}

	if err := validate.Valid(page, validate.KindDetail); err != nil {
		// A 200 that fails validation is treated like a block: the
		// domain cools down and the next attempt rotates.
		p.pool.ReportBlocked(target)
		log.Warn().Err(err).Msg("page failed validation")
		return outcomeFailed
	}

	doc, err := page.Document()
	if err != nil {
		log.Warn().Err(err).Msg("parse failed")
		return outcomeFailed
	}

	job, err := extractor.Extract(doc, target)
	if err != nil {
		// Malformed structure is permanent; no retry, no cooldown.
		log.Warn().Err(err).Msg("extraction failed")
		return outcomeSkipped
	}
	job.ApplicationURL = t.pair.ApplyURL

	if p.enricher != nil {
		if enriched, err := p.enricher.Structure(ctx, job); err == nil {
			job = enriched
		} else {
			log.Debug().Err(err).Msg("enrichment failed, storing raw job")
		}
	}

	if err := p.sink.UpsertJob(ctx, job); err != nil {
		log.Error().Err(err).Msg("upsert failed")
		return outcomeExtracted
	}

	log.Info().Str("title", job.Title).Str("company", job.Company).Msg("job stored")
	p.naturalDelay(ctx, page)
	return outcomeUpserted
}

// naturalDelay pauses roughly as long as a human would skim the page,
// bounded to keep batches moving.
func (p *Pipeline) naturalDelay(ctx context.Context, page *network.Page) {
	words := len(page.Body) / 6
	seconds := float64(words) / 250.0 * 60.0 // ~250 wpm skim rate
	if seconds < 1 {
		seconds = 1
	}
	if seconds > 8 {
		seconds = 8
	}
	jitter := 0.5 + rand.Float64()
	_ = p.sleep(ctx, time.Duration(seconds*jitter*float64(time.Second)))
}

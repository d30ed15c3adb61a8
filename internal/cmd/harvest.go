package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/jimezsa/jobharvest/internal/enrich"
	"github.com/jimezsa/jobharvest/internal/models"
	"github.com/jimezsa/jobharvest/internal/network"
	"github.com/jimezsa/jobharvest/internal/pipeline"
	"github.com/jimezsa/jobharvest/internal/proxy"
	"github.com/jimezsa/jobharvest/internal/store"
)

// harvester bundles everything one pass needs.
type harvester struct {
	pool     *proxy.Pool
	client   *network.Client
	sessions *pipeline.Sessions
	pipe     *pipeline.Pipeline
}

// newHarvester wires the pool, executor, and pipeline around the given
// sink. Enrichment is attached when enabled and an API key exists.
func newHarvester(ctx *Context, sink pipeline.Sink, workers int, enrichJobs bool) (*harvester, error) {
	source, err := proxy.NewFreeListSource()
	if err != nil {
		return nil, fmt.Errorf("proxy source: %w", err)
	}

	pool := proxy.New(proxy.DefaultConfig(), ctx.Logger, proxy.LiveValidator(10*time.Second), source)
	client, err := network.NewClient(pool, ctx.Logger)
	if err != nil {
		return nil, fmt.Errorf("http client: %w", err)
	}

	sessions := pipeline.NewSessions(pipeline.DefaultSessionTTL)
	opts := []pipeline.Option{
		pipeline.WithWorkers(workers),
		pipeline.WithSessions(sessions),
	}
	if enrichJobs {
		if ctx.Config.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("enrichment enabled but no API key configured")
		}
		enricher := enrich.New(ctx.Config.AnthropicAPIKey, ctx.Logger)
		enricher.SetModel(ctx.Config.AnthropicModel)
		opts = append(opts, pipeline.WithEnricher(enricher))
	}

	return &harvester{
		pool:     pool,
		client:   client,
		sessions: sessions,
		pipe:     pipeline.New(client, sink, pool, ctx.Logger, opts...),
	}, nil
}

// runPass discovers and processes one batch, returning its stats.
func (h *harvester) runPass(ctx context.Context, d pipeline.Discoverer) (pipeline.Stats, error) {
	// Top the proxy pool up in the background; the pass starts direct
	// and only needs proxies once a domain degrades.
	go h.pool.Refresh(ctx)

	batches, err := d.Discover(ctx)
	if err != nil {
		return pipeline.Stats{}, fmt.Errorf("discover: %w", err)
	}
	return h.pipe.Run(ctx, batches), nil
}

// openSink connects the Postgres sink from config. A missing DSN is a
// startup error, not a silent no-persist mode.
func openSink(ctx context.Context, c *Context) (*store.Postgres, error) {
	if c.Config.DatabaseURL == "" {
		return nil, fmt.Errorf("no database configured: set JOBHARVEST_DATABASE_URL or database_url in %s", c.ConfigDir)
	}
	pg, err := store.Open(ctx, c.Config.DatabaseURL, c.Logger)
	if err != nil {
		return nil, err
	}
	if err := pg.EnsureSchema(ctx); err != nil {
		pg.Close()
		return nil, err
	}
	return pg, nil
}

// jsonSink writes jobs to stdout instead of persisting, for dry runs.
type jsonSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func newJSONSink(w io.Writer) *jsonSink {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return &jsonSink{enc: enc}
}

func (s *jsonSink) UpsertJob(_ context.Context, job models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(job)
}

func reportStats(c *Context, stats pipeline.Stats) {
	c.UI.Infof("attempted %d, extracted %d, stored %d, failed %d, skipped %d",
		stats.Attempted, stats.Extracted, stats.Upserted, stats.Failed, stats.Skipped)
}

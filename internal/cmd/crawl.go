package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/jimezsa/jobharvest/internal/config"
	"github.com/jimezsa/jobharvest/internal/pipeline"
)

type CrawlCmd struct {
	URLs    []string `arg:"" optional:"" help:"Posting URLs to harvest. When omitted, board listings are crawled."`
	Boards  string   `help:"Comma-separated board listing URLs. Overrides boards.txt."`
	Workers int      `help:"Concurrent scrape sessions." default:"0"`
	Enrich  bool     `help:"Restructure extracted jobs through the LLM."`
	DryRun  bool     `help:"Print jobs as JSON instead of storing them."`
}

func (c *CrawlCmd) Run(cmdCtx *Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	workers := cmdCtx.Config.Workers
	if c.Workers > 0 {
		workers = c.Workers
	}
	enrich := cmdCtx.Config.EnrichJobs || c.Enrich

	var sink pipeline.Sink
	if c.DryRun {
		sink = newJSONSink(cmdCtx.Out)
	} else {
		pg, err := openSink(ctx, cmdCtx)
		if err != nil {
			return err
		}
		defer pg.Close()
		sink = pg
	}

	h, err := newHarvester(cmdCtx, sink, workers, enrich)
	if err != nil {
		return err
	}

	discoverer, err := c.discoverer(cmdCtx, h)
	if err != nil {
		return err
	}

	stats, err := h.runPass(ctx, discoverer)
	if err != nil {
		return err
	}

	reportStats(cmdCtx, stats)
	if lost := stats.Extracted - stats.Upserted; lost > 0 {
		return fmt.Errorf("%d extracted jobs could not be stored", lost)
	}
	return nil
}

func (c *CrawlCmd) discoverer(cmdCtx *Context, h *harvester) (pipeline.Discoverer, error) {
	if len(c.URLs) > 0 {
		return &pipeline.URLList{URLs: c.URLs}, nil
	}

	boards, err := config.LoadBoards(c.Boards)
	if err != nil {
		return nil, err
	}
	if len(boards) == 0 {
		return nil, fmt.Errorf("nothing to harvest: pass posting URLs, --boards, or add entries to boards.txt")
	}
	return &pipeline.BoardCrawl{Fetcher: h.client, Sessions: h.sessions, Boards: boards}, nil
}

package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/jimezsa/jobharvest/internal/config"
	"github.com/jimezsa/jobharvest/internal/pipeline"
	"github.com/jimezsa/jobharvest/internal/scheduler"
	"github.com/jimezsa/jobharvest/internal/store"
)

type RunCmd struct {
	Boards   string `help:"Comma-separated board listing URLs. Overrides boards.txt."`
	Interval int    `help:"Hours between passes." default:"0"`
	Workers  int    `help:"Concurrent scrape sessions." default:"0"`
	Enrich   bool   `help:"Restructure extracted jobs through the LLM."`
}

func (c *RunCmd) Run(cmdCtx *Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	boards, err := config.LoadBoards(c.Boards)
	if err != nil {
		return err
	}
	if len(boards) == 0 {
		return fmt.Errorf("no boards configured: pass --boards or add entries to boards.txt")
	}

	workers := cmdCtx.Config.Workers
	if c.Workers > 0 {
		workers = c.Workers
	}
	interval := cmdCtx.Config.IntervalHours
	if c.Interval > 0 {
		interval = c.Interval
	}
	enrich := cmdCtx.Config.EnrichJobs || c.Enrich

	pg, err := openSink(ctx, cmdCtx)
	if err != nil {
		return err
	}
	defer pg.Close()

	h, err := newHarvester(cmdCtx, pg, workers, enrich)
	if err != nil {
		return err
	}
	discoverer := &pipeline.BoardCrawl{Fetcher: h.client, Sessions: h.sessions, Boards: boards}

	retention := store.DefaultRetention
	if cmdCtx.Config.RetentionDays > 0 {
		retention = time.Duration(cmdCtx.Config.RetentionDays) * 24 * time.Hour
	}

	pass := func(passCtx context.Context) {
		stats, err := h.runPass(passCtx, discoverer)
		if err != nil {
			cmdCtx.Logger.Error().Err(err).Msg("harvest pass failed")
			return
		}
		reportStats(cmdCtx, stats)

		removed, err := pg.Prune(passCtx, retention)
		if err != nil {
			cmdCtx.Logger.Error().Err(err).Msg("prune failed")
		} else if removed > 0 {
			cmdCtx.Logger.Info().Int64("removed", removed).Msg("pruned stale jobs")
		}
	}

	sched := scheduler.New(pass, interval, cmdCtx.Logger)
	if err := sched.Start(ctx); err != nil {
		return err
	}

	cmdCtx.UI.Infof("harvesting %d boards every %dh, Ctrl-C to stop", len(boards), interval)
	<-ctx.Done()
	sched.Stop()
	return nil
}

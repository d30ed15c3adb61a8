package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/jimezsa/jobharvest/internal/proxy"
)

type ProxiesCmd struct {
	Check ProxyCheckCmd `cmd:"" help:"Fetch proxy candidates and probe which ones work."`
}

type ProxyCheckCmd struct {
	Timeout int `help:"Probe timeout in seconds." default:"10"`
	Limit   int `help:"Maximum candidates to probe." default:"20"`
}

type ProxyCheckResult struct {
	Proxy     string `json:"proxy"`
	Status    string `json:"status"`
	LatencyMS int64  `json:"latency_ms"`
}

func (p *ProxyCheckCmd) Run(cmdCtx *Context) error {
	ctx := context.Background()

	source, err := proxy.NewFreeListSource()
	if err != nil {
		return err
	}
	candidates, err := source.Candidates(ctx)
	if err != nil {
		return fmt.Errorf("fetch candidates: %w", err)
	}
	if len(candidates) == 0 {
		return fmt.Errorf("no proxy candidates found")
	}
	if p.Limit > 0 && len(candidates) > p.Limit {
		candidates = candidates[:p.Limit]
	}

	validate := proxy.LiveValidator(time.Duration(p.Timeout) * time.Second)
	results := make([]ProxyCheckResult, 0, len(candidates))
	for _, address := range candidates {
		start := time.Now()
		status := "dead"
		if validate(ctx, address) {
			status = "ok"
		}
		results = append(results, ProxyCheckResult{
			Proxy:     address,
			Status:    status,
			LatencyMS: time.Since(start).Milliseconds(),
		})
	}

	return writeProxyResults(cmdCtx, results)
}

func writeProxyResults(cmdCtx *Context, results []ProxyCheckResult) error {
	if cmdCtx.JSONOutput {
		enc := json.NewEncoder(cmdCtx.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	tw := tabwriter.NewWriter(cmdCtx.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "proxy\tstatus\tlatency_ms")
	for _, res := range results {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", res.Proxy, res.Status, res.LatencyMS)
	}
	return tw.Flush()
}

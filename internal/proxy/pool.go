// Package proxy manages the outbound identity pool: per-domain
// failure/cooldown tracking decides when requests leave directly and
// when they rotate through a validated proxy.
package proxy

import (
	"context"
	"errors"
	"math/rand"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jimezsa/jobharvest/internal/identity"
)

var ErrNoProxies = errors.New("no proxies available")

// Statuses that indicate an explicit block rather than a generic
// failure. They force an immediate domain cooldown.
var blockingStatuses = map[int]struct{}{
	429: {}, 403: {}, 407: {}, 502: {}, 503: {}, 504: {},
}

// IsBlockingStatus reports whether the status forces a cooldown.
func IsBlockingStatus(status int) bool {
	_, ok := blockingStatuses[status]
	return ok
}

// Config bounds pool and domain behavior.
type Config struct {
	// Domain state machine.
	MaxDomainFailures      int           // failures before count-based cooldown
	DirectFailureThreshold int           // degraded failures before routing via proxy
	BlockCooldown          time.Duration // cooldown after a blocking status
	CountCooldown          time.Duration // cooldown after repeated generic failures

	// Proxy record retirement.
	MaxProxyFailures int
	MaxProxyRequests int
	MinSuccessRate   float64
	MaxProxyAge      time.Duration

	// Pool sizing.
	MinPoolSize int
	MaxPoolSize int
}

func DefaultConfig() Config {
	return Config{
		MaxDomainFailures:      3,
		DirectFailureThreshold: 2,
		BlockCooldown:          300 * time.Second,
		CountCooldown:          60 * time.Second,
		MaxProxyFailures:       3,
		MaxProxyRequests:       100,
		MinSuccessRate:         0.7,
		MaxProxyAge:            time.Hour,
		MinPoolSize:            5,
		MaxPoolSize:            20,
	}
}

// Record tracks one proxy's health. Owned exclusively by the pool.
type Record struct {
	Address       string
	Country       string
	RequestCount  int
	FailureCount  int
	SuccessRate   float64
	CooldownUntil time.Time
	LastUsed      time.Time
	SessionStart  time.Time
}

func (r *Record) retired(now time.Time, cfg Config) bool {
	if r.FailureCount >= cfg.MaxProxyFailures {
		return true
	}
	if r.RequestCount >= cfg.MaxProxyRequests {
		return true
	}
	if r.RequestCount > 10 && r.SuccessRate < cfg.MinSuccessRate {
		return true
	}
	if now.Sub(r.SessionStart) > cfg.MaxProxyAge {
		return true
	}
	return false
}

type domainState struct {
	failureCount  int
	cooldownUntil time.Time
	recent        []time.Time // request timestamps, sliding 60s window
}

// RequestConfig is everything the executor needs for one attempt.
type RequestConfig struct {
	Headers map[string]string
	Proxy   string // empty means direct connection
}

// Source supplies candidate proxy addresses (host:port).
type Source interface {
	Candidates(ctx context.Context) ([]string, error)
}

// Validator probes a candidate address and reports whether it works.
type Validator func(ctx context.Context, address string) bool

// Pool is the proxy pool manager. Safe for concurrent use.
type Pool struct {
	mu       sync.Mutex
	cfg      Config
	records  []*Record
	domains  map[string]*domainState
	sources  []Source
	validate Validator
	now      func() time.Time
	rng      *rand.Rand
	logger   zerolog.Logger
}

// New constructs a pool. Sources and validator may be nil, in which
// case Refresh is a no-op and all traffic goes direct.
func New(cfg Config, logger zerolog.Logger, validate Validator, sources ...Source) *Pool {
	return &Pool{
		cfg:      cfg,
		domains:  map[string]*domainState{},
		sources:  sources,
		validate: validate,
		now:      time.Now,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:   logger,
	}
}

// Domain extracts the host a URL's state is tracked under.
func Domain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return strings.ToLower(strings.TrimSpace(rawURL))
	}
	return strings.ToLower(u.Host)
}

func (p *Pool) state(domain string) *domainState {
	ds, ok := p.domains[domain]
	if !ok {
		ds = &domainState{}
		p.domains[domain] = ds
	}
	return ds
}

// expireCooldown resets a domain whose cooldown has passed. Caller
// holds the lock.
func (p *Pool) expireCooldown(ds *domainState) {
	if !ds.cooldownUntil.IsZero() && p.now().After(ds.cooldownUntil) {
		ds.cooldownUntil = time.Time{}
		ds.failureCount = 0
	}
}

// ShouldUseProxy reports whether requests to the domain should route
// through a proxy: true during cooldown, or while degraded past the
// direct-failure threshold.
func (p *Pool) ShouldUseProxy(domain string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	ds := p.state(domain)
	p.expireCooldown(ds)
	if !ds.cooldownUntil.IsZero() && p.now().Before(ds.cooldownUntil) {
		return true
	}
	return ds.failureCount >= p.cfg.DirectFailureThreshold
}

// AcquireConfig returns headers for the identity plus, when the domain
// warrants it, a randomly chosen proxy from the validated pool.
func (p *Pool) AcquireConfig(rawURL string, id *identity.Identity) RequestConfig {
	domain := Domain(rawURL)
	cfg := RequestConfig{Headers: id.Headers(rawURL)}

	p.mu.Lock()
	defer p.mu.Unlock()

	ds := p.state(domain)
	p.expireCooldown(ds)
	p.trackRequest(ds)

	useProxy := (!ds.cooldownUntil.IsZero() && p.now().Before(ds.cooldownUntil)) ||
		ds.failureCount >= p.cfg.DirectFailureThreshold
	if !useProxy {
		return cfg
	}

	p.sweepRetired()
	if len(p.records) == 0 {
		// Degrades to a direct connection, never a hard failure.
		return cfg
	}
	rec := p.records[p.rng.Intn(len(p.records))]
	rec.LastUsed = p.now()
	cfg.Proxy = rec.Address
	return cfg
}

func (p *Pool) trackRequest(ds *domainState) {
	now := p.now()
	cutoff := now.Add(-60 * time.Second)
	kept := ds.recent[:0]
	for _, ts := range ds.recent {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	ds.recent = append(kept, now)
}

// RecentRequests reports how many requests hit the domain in the
// sliding 60-second window.
func (p *Pool) RecentRequests(domain string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	ds := p.state(domain)
	cutoff := p.now().Add(-60 * time.Second)
	count := 0
	for _, ts := range ds.recent {
		if ts.After(cutoff) {
			count++
		}
	}
	return count
}

// ReportSuccess clears the domain's failure state; successes fully
// forgive prior failures. Proxy stats update when one was used.
func (p *Pool) ReportSuccess(rawURL, proxyAddr string) {
	domain := Domain(rawURL)

	p.mu.Lock()
	defer p.mu.Unlock()

	ds := p.state(domain)
	ds.failureCount = 0
	ds.cooldownUntil = time.Time{}

	if rec := p.find(proxyAddr); rec != nil {
		rec.RequestCount++
		n := float64(rec.RequestCount)
		rec.SuccessRate = (rec.SuccessRate*(n-1) + 1) / n
	}
}

// ReportFailure advances the domain state machine. A blocking status
// forces an immediate cooldown regardless of count; generic failures
// escalate once the failure threshold is reached. Pass status 0 for
// transport errors.
func (p *Pool) ReportFailure(rawURL, proxyAddr string, status int) {
	domain := Domain(rawURL)

	p.mu.Lock()
	defer p.mu.Unlock()

	ds := p.state(domain)
	p.expireCooldown(ds)
	ds.failureCount++

	switch {
	case IsBlockingStatus(status):
		ds.cooldownUntil = p.now().Add(p.cfg.BlockCooldown)
		p.logger.Debug().Str("domain", domain).Int("status", status).
			Msg("blocking status, domain cooling down")
	case ds.failureCount >= p.cfg.MaxDomainFailures:
		ds.cooldownUntil = p.now().Add(p.cfg.CountCooldown)
		p.logger.Debug().Str("domain", domain).Int("failures", ds.failureCount).
			Msg("failure threshold reached, domain cooling down")
	}

	if rec := p.find(proxyAddr); rec != nil {
		rec.RequestCount++
		rec.FailureCount++
		n := float64(rec.RequestCount)
		rec.SuccessRate = rec.SuccessRate * (n - 1) / n
	}
}

// ReportBlocked forces an immediate cooldown without an HTTP status,
// used when a 200 response turns out to be a bot wall.
func (p *Pool) ReportBlocked(rawURL string) {
	domain := Domain(rawURL)

	p.mu.Lock()
	defer p.mu.Unlock()

	ds := p.state(domain)
	ds.failureCount++
	ds.cooldownUntil = p.now().Add(p.cfg.BlockCooldown)
	p.logger.Debug().Str("domain", domain).Msg("content block, domain cooling down")
}

// DomainFailures returns the current failure count for a domain.
func (p *Pool) DomainFailures(domain string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	ds := p.state(domain)
	p.expireCooldown(ds)
	return ds.failureCount
}

func (p *Pool) find(address string) *Record {
	if address == "" {
		return nil
	}
	for _, rec := range p.records {
		if rec.Address == address {
			return rec
		}
	}
	return nil
}

// sweepRetired drops exhausted records. Caller holds the lock.
func (p *Pool) sweepRetired() {
	now := p.now()
	kept := p.records[:0]
	for _, rec := range p.records {
		if !rec.retired(now, p.cfg) {
			kept = append(kept, rec)
		}
	}
	p.records = kept
}

// Size reports the validated pool size.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sweepRetired()
	return len(p.records)
}

// Addresses returns the validated addresses, for diagnostics.
func (p *Pool) Addresses() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.records))
	for _, rec := range p.records {
		out = append(out, rec.Address)
	}
	return out
}

// Refresh tops the pool up when it falls under the minimum size:
// candidates are fetched, shuffled, and validated until the target is
// reached or the list is exhausted. Validation failures are silent; an
// empty pool is a degraded state, not an error.
func (p *Pool) Refresh(ctx context.Context) {
	p.mu.Lock()
	p.sweepRetired()
	need := len(p.records) < p.cfg.MinPoolSize
	existing := map[string]struct{}{}
	for _, rec := range p.records {
		existing[rec.Address] = struct{}{}
	}
	p.mu.Unlock()

	if !need || len(p.sources) == 0 || p.validate == nil {
		return
	}

	var candidates []string
	for _, source := range p.sources {
		found, err := source.Candidates(ctx)
		if err != nil {
			p.logger.Warn().Err(err).Msg("proxy source fetch failed")
			continue
		}
		candidates = append(candidates, found...)
	}

	p.mu.Lock()
	p.rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	p.mu.Unlock()

	for _, address := range candidates {
		if ctx.Err() != nil {
			return
		}
		if _, ok := existing[address]; ok {
			continue
		}
		if p.Size() >= p.cfg.MaxPoolSize {
			return
		}
		if !p.validate(ctx, address) {
			continue
		}
		p.logger.Debug().Str("proxy", address).Msg("validated proxy")
		p.mu.Lock()
		// Re-check against the live records: two sources can offer the
		// same address, and the snapshot above predates this append.
		if p.find(address) != nil {
			p.mu.Unlock()
			continue
		}
		p.records = append(p.records, &Record{
			Address:      address,
			SuccessRate:  1.0,
			SessionStart: p.now(),
		})
		done := len(p.records) >= p.cfg.MinPoolSize
		p.mu.Unlock()
		if done {
			return
		}
	}
}

// SetClock overrides the pool's clock, for tests.
func (p *Pool) SetClock(now func() time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.now = now
}

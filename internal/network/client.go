package network

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"time"
	"unicode/utf8"

	fhttp "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
	"github.com/rs/zerolog"
	"golang.org/x/text/encoding/charmap"

	"github.com/jimezsa/jobharvest/internal/identity"
	"github.com/jimezsa/jobharvest/internal/proxy"
)

const (
	maxAttempts  = 3
	maxBodyBytes = 5 << 20
)

// ErrBlocked marks responses where the site actively refused us.
var ErrBlocked = errors.New("request blocked")

// Client fetches pages with a browser-grade TLS fingerprint, routing
// through the proxy pool when a domain is degraded. Safe for use by
// concurrent pipeline workers.
type Client struct {
	pool    *proxy.Pool
	backoff Backoff
	sleep   Sleeper
	logger  zerolog.Logger

	// mu guards the rng and the cached proxied client, which workers
	// share.
	mu          sync.Mutex
	rng         *rand.Rand
	direct      tls_client.HttpClient
	proxied     tls_client.HttpClient
	proxiedAddr string

	// do performs one HTTP exchange via the client matching proxyAddr.
	// Tests swap it out to script responses.
	do func(req *fhttp.Request, proxyAddr string) (*fhttp.Response, error)
}

func NewClient(pool *proxy.Pool, logger zerolog.Logger) (*Client, error) {
	direct, err := tls_client.NewHttpClient(
		tls_client.NewNoopLogger(),
		tls_client.WithClientProfile(profiles.Chrome_120),
		tls_client.WithTimeoutSeconds(30),
		tls_client.WithRandomTLSExtensionOrder(),
	)
	if err != nil {
		return nil, err
	}

	c := &Client{
		pool:    pool,
		backoff: DefaultBackoff(),
		sleep:   WallClockSleeper,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:  logger,
		direct:  direct,
	}
	c.do = c.exchange
	return c, nil
}

// SetSleeper replaces the retry delay, for tests.
func (c *Client) SetSleeper(s Sleeper) { c.sleep = s }

func (c *Client) retryDelay(retry int) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.backoff.Delay(retry, c.rng)
}

func (c *Client) exchange(req *fhttp.Request, proxyAddr string) (*fhttp.Response, error) {
	client, err := c.clientFor(proxyAddr)
	if err != nil {
		return nil, err
	}
	return client.Do(req)
}

// clientFor returns the direct client, or a client bound to the given
// proxy. The last proxied client is reused while the address holds, so
// a cooldown burst against one domain shares a TLS session.
func (c *Client) clientFor(proxyAddr string) (tls_client.HttpClient, error) {
	if proxyAddr == "" {
		return c.direct, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.proxied != nil && c.proxiedAddr == proxyAddr {
		return c.proxied, nil
	}
	client, err := tls_client.NewHttpClient(
		tls_client.NewNoopLogger(),
		tls_client.WithClientProfile(profiles.Chrome_120),
		tls_client.WithTimeoutSeconds(30),
		tls_client.WithRandomTLSExtensionOrder(),
		tls_client.WithProxyUrl("http://"+proxyAddr),
	)
	if err != nil {
		return nil, err
	}
	c.proxied = client
	c.proxiedAddr = proxyAddr
	return client, nil
}

// Fetch retrieves target with the given identity, retrying up to three
// times with exponential backoff. Blocking statuses and transport
// errors are reported to the pool so the domain state machine can
// react; a 2xx response resets the domain.
func (c *Client) Fetch(ctx context.Context, target string, id *identity.Identity) (*Page, error) {
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			if err := c.sleep(ctx, c.retryDelay(attempt-1)); err != nil {
				return nil, err
			}
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		cfg := c.pool.AcquireConfig(target, id)

		req, err := fhttp.NewRequestWithContext(ctx, fhttp.MethodGet, target, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		for k, v := range cfg.Headers {
			req.Header.Set(k, v)
		}

		resp, err := c.do(req, cfg.Proxy)
		if err != nil {
			c.pool.ReportFailure(target, cfg.Proxy, 0)
			lastErr = err
			c.logger.Debug().Err(err).Str("url", target).Int("attempt", attempt).Msg("request failed")
			continue
		}

		raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		resp.Body.Close()
		if err != nil {
			c.pool.ReportFailure(target, cfg.Proxy, 0)
			lastErr = fmt.Errorf("read body: %w", err)
			continue
		}

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			c.pool.ReportSuccess(target, cfg.Proxy)
			return &Page{
				URL:         target,
				StatusCode:  resp.StatusCode,
				ContentType: resp.Header.Get("Content-Type"),
				Body:        decodeBody(raw),
			}, nil
		case proxy.IsBlockingStatus(resp.StatusCode):
			c.pool.ReportFailure(target, cfg.Proxy, resp.StatusCode)
			lastErr = fmt.Errorf("%w: http %d", ErrBlocked, resp.StatusCode)
			c.logger.Warn().Str("url", target).Int("status", resp.StatusCode).Msg("blocked")
		default:
			c.pool.ReportFailure(target, cfg.Proxy, 0)
			lastErr = fmt.Errorf("http %d", resp.StatusCode)
		}
	}

	return nil, fmt.Errorf("fetch %s: %w", target, lastErr)
}

// decodeBody returns the body as UTF-8. Boards occasionally serve
// legacy single-byte encodings without declaring them.
func decodeBody(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}
	for _, cm := range []*charmap.Charmap{charmap.Windows1252, charmap.ISO8859_1} {
		if decoded, err := cm.NewDecoder().Bytes(raw); err == nil {
			return string(decoded)
		}
	}
	return string(raw)
}

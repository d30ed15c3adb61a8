package network

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	fhttp "github.com/bogdanfinn/fhttp"
	"github.com/rs/zerolog"

	"github.com/jimezsa/jobharvest/internal/identity"
	"github.com/jimezsa/jobharvest/internal/proxy"
)

func newTestClient(t *testing.T) (*Client, *proxy.Pool) {
	t.Helper()
	pool := proxy.New(proxy.DefaultConfig(), zerolog.Nop(), nil)
	client, err := NewClient(pool, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	client.SetSleeper(func(context.Context, time.Duration) error { return nil })
	return client, pool
}

func htmlResponse(status int, body string) *fhttp.Response {
	return &fhttp.Response{
		StatusCode: status,
		Header:     fhttp.Header{"Content-Type": []string{"text/html; charset=utf-8"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestFetchSuccess(t *testing.T) {
	client, pool := newTestClient(t)
	client.do = func(req *fhttp.Request, proxyAddr string) (*fhttp.Response, error) {
		if req.Header.Get("User-Agent") == "" {
			t.Fatalf("identity headers not applied")
		}
		return htmlResponse(200, "<html><body>ok</body></html>"), nil
	}

	id := identity.NewWithRand("US", rand.New(rand.NewSource(1)))
	page, err := client.Fetch(context.Background(), "https://jobs.lever.co/acme", id)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if page.StatusCode != 200 || !page.IsHTML() {
		t.Fatalf("unexpected page: %+v", page)
	}
	if pool.ShouldUseProxy("jobs.lever.co") {
		t.Fatalf("success must keep the domain direct")
	}
}

func TestFetchBlockedExhaustsRetries(t *testing.T) {
	client, pool := newTestClient(t)
	calls := 0
	client.do = func(*fhttp.Request, string) (*fhttp.Response, error) {
		calls++
		return htmlResponse(429, "slow down"), nil
	}

	id := identity.NewWithRand("US", rand.New(rand.NewSource(2)))
	_, err := client.Fetch(context.Background(), "https://jobs.ashbyhq.com/acme", id)
	if !errors.Is(err, ErrBlocked) {
		t.Fatalf("expected ErrBlocked, got %v", err)
	}
	if calls != maxAttempts {
		t.Fatalf("expected %d attempts, got %d", maxAttempts, calls)
	}
	if !pool.ShouldUseProxy("jobs.ashbyhq.com") {
		t.Fatalf("429 must push the domain into cooldown")
	}
}

func TestFetchRecoversAfterTransportError(t *testing.T) {
	client, _ := newTestClient(t)
	calls := 0
	client.do = func(*fhttp.Request, string) (*fhttp.Response, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("connection reset")
		}
		return htmlResponse(200, "<html><body>ok</body></html>"), nil
	}

	id := identity.NewWithRand("US", rand.New(rand.NewSource(3)))
	page, err := client.Fetch(context.Background(), "https://boards.greenhouse.io/acme", id)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if calls != 2 || page.StatusCode != 200 {
		t.Fatalf("expected recovery on attempt 2, calls=%d", calls)
	}
}

func TestFetchHonorsCancellation(t *testing.T) {
	client, _ := newTestClient(t)
	client.do = func(*fhttp.Request, string) (*fhttp.Response, error) {
		return htmlResponse(500, "boom"), nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	client.SetSleeper(func(context.Context, time.Duration) error {
		cancel()
		return ctx.Err()
	})

	id := identity.NewWithRand("US", rand.New(rand.NewSource(4)))
	_, err := client.Fetch(ctx, "https://wellfound.com/jobs/1", id)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

// Exercises the shared rng (retry delays) and the proxied-client cache
// from many goroutines at once; run with -race.
func TestFetchSafeForConcurrentWorkers(t *testing.T) {
	client, _ := newTestClient(t)
	client.do = func(*fhttp.Request, string) (*fhttp.Response, error) {
		return htmlResponse(500, "boom"), nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := identity.NewWithRand("US", rand.New(rand.NewSource(int64(n))))
			if _, err := client.Fetch(context.Background(), "https://jobs.lever.co/acme/1", id); err == nil {
				t.Errorf("expected failure after exhausted retries")
			}
			if _, err := client.clientFor(fmt.Sprintf("10.0.0.%d:8080", n%4)); err != nil {
				t.Errorf("clientFor: %v", err)
			}
		}(i)
	}
	wg.Wait()
}

func TestBackoffGrowsAndCaps(t *testing.T) {
	b := Backoff{Base: time.Second, Max: 4 * time.Second}

	if got := b.Delay(1, nil); got != time.Second {
		t.Fatalf("retry 1: got %v", got)
	}
	if got := b.Delay(2, nil); got != 2*time.Second {
		t.Fatalf("retry 2: got %v", got)
	}
	if got := b.Delay(5, nil); got != 4*time.Second {
		t.Fatalf("retry 5 must cap at Max, got %v", got)
	}
}

func TestBackoffJitterStaysBounded(t *testing.T) {
	b := Backoff{Base: time.Second, Max: time.Minute, Jitter: 0.3}
	rng := rand.New(rand.NewSource(5))
	for i := 0; i < 50; i++ {
		d := b.Delay(2, rng)
		if d < 1400*time.Millisecond || d > 2600*time.Millisecond {
			t.Fatalf("jittered delay out of bounds: %v", d)
		}
	}
}

func TestDecodeBodyFallsBackToWindows1252(t *testing.T) {
	latin := []byte{'c', 'a', 'f', 0xE9} // "café" in windows-1252
	if got := decodeBody(latin); got != "café" {
		t.Fatalf("decodeBody = %q", got)
	}
	if got := decodeBody([]byte("plain utf-8 ✓")); got != "plain utf-8 ✓" {
		t.Fatalf("utf-8 passthrough broken: %q", got)
	}
}

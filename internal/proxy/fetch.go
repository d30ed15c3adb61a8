package proxy

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	fhttp "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"

	"github.com/jimezsa/jobharvest/internal/identity"
)

const (
	freeProxyListURL = "https://free-proxy-list.net/"
	// The list site refreshes on a 10-minute cycle; fetching more often
	// only returns the same rows.
	fetchCacheTTL = 10 * time.Minute
)

// FreeListSource scrapes candidate proxies from free-proxy-list.net,
// keeping only HTTPS-capable entries with anonymous or elite anonymity.
type FreeListSource struct {
	mu        sync.Mutex
	client    tls_client.HttpClient
	listURL   string
	cached    []string
	fetchedAt time.Time
}

// NewFreeListSource builds the source with its own short-timeout client.
func NewFreeListSource() (*FreeListSource, error) {
	client, err := tls_client.NewHttpClient(
		tls_client.NewNoopLogger(),
		tls_client.WithClientProfile(profiles.Chrome_120),
		tls_client.WithTimeoutSeconds(10),
	)
	if err != nil {
		return nil, err
	}
	return &FreeListSource{client: client, listURL: freeProxyListURL}, nil
}

// Candidates returns the current candidate list, using the cache while
// it is fresh.
func (s *FreeListSource) Candidates(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.cached) > 0 && time.Since(s.fetchedAt) < fetchCacheTTL {
		return append([]string{}, s.cached...), nil
	}

	req, err := fhttp.NewRequestWithContext(ctx, fhttp.MethodGet, s.listURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", identity.New("").UserAgent())

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("proxy list: http %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, err
	}

	candidates := parseProxyTable(doc)
	if len(candidates) > 0 {
		s.cached = candidates
		s.fetchedAt = time.Now()
	}
	return append([]string{}, candidates...), nil
}

func parseProxyTable(doc *goquery.Document) []string {
	var candidates []string
	doc.Find("table.table-striped tbody tr, table.table-striped tr").Each(func(_ int, row *goquery.Selection) {
		cols := row.Find("td")
		if cols.Length() < 7 {
			return
		}
		ip := strings.TrimSpace(cols.Eq(0).Text())
		port := strings.TrimSpace(cols.Eq(1).Text())
		anonymity := strings.ToLower(strings.TrimSpace(cols.Eq(4).Text()))
		https := strings.ToLower(strings.TrimSpace(cols.Eq(6).Text()))
		if ip == "" || port == "" {
			return
		}
		if https != "yes" {
			return
		}
		if anonymity != "anonymous" && anonymity != "elite proxy" {
			return
		}
		candidates = append(candidates, ip+":"+port)
	})
	return candidates
}

var validationTargets = []string{
	"https://www.google.com",
	"https://www.cloudflare.com",
	"https://www.example.com",
}

// LiveValidator probes a candidate with a lightweight GET against
// known-good endpoints. Any 200 within the timeout passes.
func LiveValidator(timeout time.Duration) Validator {
	return func(ctx context.Context, address string) bool {
		client, err := tls_client.NewHttpClient(
			tls_client.NewNoopLogger(),
			tls_client.WithClientProfile(profiles.Chrome_120),
			tls_client.WithTimeoutSeconds(int(timeout.Seconds())),
			tls_client.WithProxyUrl("http://"+address),
		)
		if err != nil {
			return false
		}

		ua := identity.New("").UserAgent()
		for _, target := range validationTargets {
			if ctx.Err() != nil {
				return false
			}
			req, err := fhttp.NewRequestWithContext(ctx, fhttp.MethodGet, target, nil)
			if err != nil {
				continue
			}
			req.Header.Set("User-Agent", ua)
			resp, err := client.Do(req)
			if err != nil {
				continue
			}
			status := resp.StatusCode
			resp.Body.Close()
			if status == 200 {
				return true
			}
		}
		return false
	}
}

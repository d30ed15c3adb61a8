// Package identity simulates consistent browser fingerprints. One
// Identity is generated per session; every header set derived from it
// stays coherent with the simulated platform and browser.
package identity

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"strings"
	"time"
)

const (
	BrowserChrome  = "Chrome"
	BrowserFirefox = "Firefox"
)

var platforms = []string{"Windows", "macOS", "Linux"}

var resolutions = [][2]int{
	{1920, 1080},
	{1366, 768},
	{1536, 864},
	{1440, 900},
	{1280, 720},
}

var browserVersions = map[string][]string{
	BrowserChrome:  {"120.0.0.0", "119.0.0.0", "118.0.0.0"},
	BrowserFirefox: {"120.0", "119.0", "118.0"},
}

type brand struct {
	Name    string
	Version string
}

// Chrome client-hint brand list. Firefox sends no sec-ch-ua headers.
var chromeBrands = []brand{
	{"Chromium", "120"},
	{"Google Chrome", "120"},
	{"Not=A?Brand", "24"},
}

var commonPlugins = []string{
	"PDF Viewer",
	"Chrome PDF Viewer",
	"Chromium PDF Viewer",
	"Microsoft Edge PDF Viewer",
	"WebKit built-in PDF",
}

var languages = []string{"en-US", "en-GB", "en-CA", "en-AU"}

var countryTimezones = map[string][]string{
	"US": {"America/New_York", "America/Chicago", "America/Denver", "America/Los_Angeles"},
	"GB": {"Europe/London"},
	"CA": {"America/Toronto", "America/Vancouver"},
	"AU": {"Australia/Sydney", "Australia/Melbourne"},
	"DE": {"Europe/Berlin"},
	"FR": {"Europe/Paris"},
	"NL": {"Europe/Amsterdam"},
	"IN": {"Asia/Kolkata"},
	"JP": {"Asia/Tokyo"},
	"BR": {"America/Sao_Paulo"},
}

var fallbackTimezones = []string{
	"America/New_York", "America/Chicago", "America/Los_Angeles",
	"Europe/London", "Europe/Berlin", "Europe/Paris",
	"Asia/Tokyo", "Asia/Singapore", "Australia/Sydney", "UTC",
}

// Identity is an immutable browser fingerprint for one session.
type Identity struct {
	Platform            string
	Browser             string
	BrowserVersion      string
	Resolution          [2]int
	Plugins             []string
	Language            string
	Timezone            string
	ColorDepth          int
	DeviceMemory        int
	HardwareConcurrency int
	DNT                 bool

	CanvasFP uint64
	WebGLFP  uint64
	AudioFP  uint64
}

// New builds a randomized identity. When countryHint matches a known
// country the timezone is drawn from it; otherwise a random common
// timezone is used. Never errors.
func New(countryHint string) *Identity {
	return NewWithRand(countryHint, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewWithRand is New with an injected source, for deterministic tests.
func NewWithRand(countryHint string, rng *rand.Rand) *Identity {
	id := &Identity{
		Platform:            platforms[rng.Intn(len(platforms))],
		Resolution:          resolutions[rng.Intn(len(resolutions))],
		Language:            languages[rng.Intn(len(languages))],
		ColorDepth:          []int{24, 30, 32}[rng.Intn(3)],
		DeviceMemory:        []int{4, 8, 16}[rng.Intn(3)],
		HardwareConcurrency: []int{4, 8, 12, 16}[rng.Intn(4)],
		DNT:                 rng.Float64() > 0.5,
	}

	browsers := []string{BrowserChrome, BrowserFirefox}
	id.Browser = browsers[rng.Intn(len(browsers))]
	versions := browserVersions[id.Browser]
	id.BrowserVersion = versions[rng.Intn(len(versions))]

	pluginCount := 2 + rng.Intn(4)
	perm := rng.Perm(len(commonPlugins))
	for _, idx := range perm[:pluginCount] {
		id.Plugins = append(id.Plugins, commonPlugins[idx])
	}

	id.Timezone = pickTimezone(countryHint, rng)

	id.CanvasFP = surrogate(id.Browser + id.BrowserVersion + id.Platform)
	id.WebGLFP = surrogate(fmt.Sprintf("%dx%d%s%s", id.Resolution[0], id.Resolution[1], id.Platform, id.Browser))
	id.AudioFP = surrogate(id.Browser + id.Platform)

	return id
}

func pickTimezone(countryHint string, rng *rand.Rand) string {
	if countryHint != "" {
		if zones, ok := countryTimezones[strings.ToUpper(strings.TrimSpace(countryHint))]; ok {
			return zones[rng.Intn(len(zones))]
		}
	}
	return fallbackTimezones[rng.Intn(len(fallbackTimezones))]
}

func surrogate(seed string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(seed))
	return h.Sum64()
}

// UserAgent renders the UA string matching the identity.
func (id *Identity) UserAgent() string {
	if id.Browser == BrowserChrome {
		switch id.Platform {
		case "Windows":
			return fmt.Sprintf("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/%s Safari/537.36", id.BrowserVersion)
		case "macOS":
			return fmt.Sprintf("Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/%s Safari/537.36", id.BrowserVersion)
		default:
			return fmt.Sprintf("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/%s Safari/537.36", id.BrowserVersion)
		}
	}
	switch id.Platform {
	case "Windows":
		return fmt.Sprintf("Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:%s) Gecko/20100101 Firefox/%s", id.BrowserVersion, id.BrowserVersion)
	case "macOS":
		return fmt.Sprintf("Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:%s) Gecko/20100101 Firefox/%s", id.BrowserVersion, id.BrowserVersion)
	default:
		return fmt.Sprintf("Mozilla/5.0 (X11; Linux x86_64; rv:%s) Gecko/20100101 Firefox/%s", id.BrowserVersion, id.BrowserVersion)
	}
}

// Headers returns the deterministic header set for this identity.
// Client-hint headers are emitted only for browsers that send them.
func (id *Identity) Headers(url string) map[string]string {
	headers := map[string]string{
		"User-Agent":                id.UserAgent(),
		"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
		"Accept-Language":           fmt.Sprintf("%s,en;q=0.9", id.Language),
		"Accept-Encoding":           "gzip, deflate, br",
		"Connection":                "keep-alive",
		"Upgrade-Insecure-Requests": "1",
		"Sec-Fetch-Dest":            "document",
		"Sec-Fetch-Mode":            "navigate",
		"Sec-Fetch-Site":            "none",
		"Sec-Fetch-User":            "?1",
		"Cache-Control":             "max-age=0",
	}
	if id.DNT {
		headers["DNT"] = "1"
	}
	if id.Browser == BrowserChrome {
		headers["sec-ch-ua"] = id.brandList()
		headers["sec-ch-ua-mobile"] = "?0"
		headers["sec-ch-ua-platform"] = fmt.Sprintf("%q", id.Platform)
	}
	return headers
}

func (id *Identity) brandList() string {
	parts := make([]string, 0, len(chromeBrands))
	for _, b := range chromeBrands {
		parts = append(parts, fmt.Sprintf("%q;v=%q", b.Name, b.Version))
	}
	return strings.Join(parts, ", ")
}

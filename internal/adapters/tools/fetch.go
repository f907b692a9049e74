package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/0xcro3dile/localrag-fts/internal/domain/entities"
	"github.com/0xcro3dile/localrag-fts/internal/domain/ports"
)

// Fetch defaults.
const (
	DefaultFetchTimeout = 5 * time.Second
	DefaultFetchRate    = 2.0
	DefaultFetchBurst   = 4
)

// DefaultAllowedHosts only permits the local machine.
var DefaultAllowedHosts = []string{"localhost", "127.0.0.1"}

var _ ports.Fetcher = (*Fetcher)(nil)

// FetchConfig configures a Fetcher.
type FetchConfig struct {
	AllowedHosts      []string
	Timeout           time.Duration
	MaxBytes          int64
	RequestsPerSecond float64
	Burst             int
}

// Fetcher performs HTTP GETs restricted to an allow list of hosts.
type Fetcher struct {
	allowed  map[string]struct{}
	client   *http.Client
	maxBytes int64
	limiter  *rate.Limiter
}

// NewFetcher creates a Fetcher.
func NewFetcher(cfg FetchConfig) *Fetcher {
	if len(cfg.AllowedHosts) == 0 {
		cfg.AllowedHosts = DefaultAllowedHosts
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultFetchTimeout
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultFetchRate
	}
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultFetchBurst
	}

	allowed := make(map[string]struct{}, len(cfg.AllowedHosts))
	for _, h := range cfg.AllowedHosts {
		allowed[strings.ToLower(h)] = struct{}{}
	}

	f := &Fetcher{
		allowed:  allowed,
		maxBytes: cfg.MaxBytes,
		limiter:  rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
	}
	f.client = &http.Client{Timeout: cfg.Timeout, CheckRedirect: f.checkRedirect}
	return f
}

const maxRedirects = 10

// checkRedirect applies the host allow list to every redirect hop.
func (f *Fetcher) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return fmt.Errorf("stopped after %d redirects", maxRedirects)
	}
	if !f.hostAllowed(req.URL) {
		return fmt.Errorf("%w: redirect to %s", entities.ErrHostNotAllowed, req.URL.Hostname())
	}
	return nil
}

func (f *Fetcher) hostAllowed(u *url.URL) bool {
	_, ok := f.allowed[strings.ToLower(u.Hostname())]
	return ok
}

// Get fetches rawURL. Non-2xx responses are returned as results, not errors.
func (f *Fetcher) Get(ctx context.Context, rawURL string) (*entities.ToolResult, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("parsing url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if !f.hostAllowed(u) {
		return nil, fmt.Errorf("%w: %s", entities.ErrHostNotAllowed, u.Hostname())
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", u.Redacted(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}

	return &entities.ToolResult{
		Tool:    ToolFetchGet,
		Target:  u.String(),
		Status:  resp.StatusCode,
		Content: strings.ToValidUTF8(string(body), ""),
	}, nil
}

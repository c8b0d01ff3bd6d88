package metadata

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/Aktiar0403/ShukkuList1.2/internal/apperr"
	"github.com/Aktiar0403/ShukkuList1.2/internal/logging"
)

const (
	DefaultFetchTimeout = 10 * time.Second
	DefaultMaxAttempts  = 2
	DefaultMaxBodySize  = 5_000_000
	DefaultUserAgent    = "Mozilla/5.0 (compatible; ShukkuListBot/1.0; +https://github.com/shukkulist)"

	maxRedirects = 10
)

var (
	errTooLarge       = errors.New("page too large")
	errPrivateAddress = errors.New("connection to private address is not allowed")
)

// statusError is returned for non-2xx upstream responses.
type statusError struct {
	Code int
}

func (e *statusError) Error() string { return fmt.Sprintf("HTTP %d", e.Code) }

// retryStatus lists upstream statuses worth a second attempt.
var retryStatus = map[int]bool{
	408: true, 413: true, 429: true,
	500: true, 502: true, 503: true, 504: true,
	521: true, 522: true, 524: true,
}

// Options tunes a Fetcher. Zero values fall back to the defaults above.
type Options struct {
	FetchTimeout  time.Duration
	MaxAttempts   int
	MaxBodySize   int64
	UserAgent     string
	AllowPrivate  bool
	UpstreamRate  float64 // requests per second, 0 = unlimited
	UpstreamBurst int
	// NewBackOff builds the delay policy between attempts. Defaults to no delay.
	NewBackOff func() backoff.BackOff
}

func (o Options) withDefaults() Options {
	if o.FetchTimeout <= 0 {
		o.FetchTimeout = DefaultFetchTimeout
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.MaxBodySize <= 0 {
		o.MaxBodySize = DefaultMaxBodySize
	}
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	if o.UpstreamBurst <= 0 {
		o.UpstreamBurst = 1
	}
	if o.NewBackOff == nil {
		o.NewBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	}
	return o
}

// Fetcher resolves product metadata for URLs, serving repeats from a Cache.
type Fetcher struct {
	cache   Cache
	client  *http.Client
	opts    Options
	limiter *rate.Limiter
}

// NewFetcher creates a Fetcher with an SSRF-safe HTTP client.
func NewFetcher(cache Cache, opts Options) *Fetcher {
	return NewFetcherWithClient(cache, nil, opts)
}

// NewFetcherWithClient creates a Fetcher with a custom HTTP client.
// If client is nil, a default client is built from opts.
func NewFetcherWithClient(cache Cache, client *http.Client, opts Options) *Fetcher {
	opts = opts.withDefaults()

	if client == nil {
		transport := &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			DialContext:         (&net.Dialer{Timeout: opts.FetchTimeout}).DialContext,
			TLSHandshakeTimeout: opts.FetchTimeout,
			MaxIdleConns:        20,
			IdleConnTimeout:     90 * time.Second,
		}
		if !opts.AllowPrivate {
			transport.Proxy = nil
			transport.DialContext = guardedDial(opts.FetchTimeout)
		}

		client = &http.Client{
			Transport: otelhttp.NewTransport(transport),
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		}
	}

	var limiter *rate.Limiter
	if opts.UpstreamRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.UpstreamRate), opts.UpstreamBurst)
	}

	return &Fetcher{cache: cache, client: client, opts: opts, limiter: limiter}
}

// page is a downloaded HTML document and the URL it was served from after
// redirects.
type page struct {
	body     []byte
	finalURL *url.URL
}

// Fetch returns metadata for rawURL. A fresh cache entry is returned without
// touching the network. Failures are *apperr.Error values.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Metadata, error) {
	target, err := parseTarget(rawURL)
	if err != nil {
		return nil, apperr.Wrap(apperr.InvalidInput, "Invalid URL format", err)
	}

	log := logging.FromContext(ctx).With("url", rawURL)
	key := CacheKey(rawURL)
	if cached, ok := f.cache.Get(key); ok {
		cacheHits.Add(ctx, 1)
		log.Debug("serving metadata from cache")
		return cached, nil
	}
	cacheMisses.Add(ctx, 1)

	log.Info("fetching metadata")
	p, err := f.download(ctx, target.String())
	if err != nil {
		classified := classify(err)
		recordFetchError(ctx, apperr.KindOf(classified))
		log.Warn("metadata fetch failed", "error", err)
		return nil, classified
	}

	md := buildMetadata(extract(bytes.NewReader(p.body), p.finalURL), p.finalURL)
	f.cache.Put(key, md)
	return md, nil
}

// parseTarget accepts absolute http(s) URLs only.
func parseTarget(rawURL string) (*url.URL, error) {
	if strings.TrimSpace(rawURL) == "" {
		return nil, errors.New("empty url")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("url %q is not absolute", rawURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	return u, nil
}

// download performs the GET with a bounded number of attempts.
func (f *Fetcher) download(ctx context.Context, target string) (*page, error) {
	op := func() (*page, error) {
		p, err := f.attempt(ctx, target)
		if err != nil && !retryable(ctx, err) {
			return nil, backoff.Permanent(err)
		}
		return p, err
	}

	return backoff.Retry(ctx, op,
		backoff.WithBackOff(f.opts.NewBackOff()),
		backoff.WithMaxTries(uint(f.opts.MaxAttempts)),
		backoff.WithNotify(func(err error, next time.Duration) {
			logging.FromContext(ctx).Warn("retrying metadata fetch", "url", target, "error", err, "delay", next)
		}),
	)
}

// attempt performs a single GET bounded by the fetch timeout and body limit.
func (f *Fetcher) attempt(ctx context.Context, target string) (*page, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, f.opts.FetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &statusError{Code: resp.StatusCode}
	}
	if resp.ContentLength > f.opts.MaxBodySize {
		return nil, errTooLarge
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.opts.MaxBodySize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > f.opts.MaxBodySize {
		return nil, errTooLarge
	}

	return &page{body: body, finalURL: resp.Request.URL}, nil
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if errors.Is(err, errTooLarge) || errors.Is(err, errPrivateAddress) {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return retryStatus[se.Code]
	}
	return true
}

// classify maps a download failure onto the caller-facing error taxonomy.
func classify(err error) error {
	var se *statusError
	var dnsErr *net.DNSError
	var netErr net.Error

	switch {
	case errors.Is(err, errTooLarge):
		return apperr.Wrap(apperr.PayloadTooLarge, "Page too large", err)
	case errors.As(err, &se) && se.Code == http.StatusNotFound:
		return apperr.Wrap(apperr.NotFound, "Page not found", err)
	case errors.As(err, &se) && se.Code == http.StatusForbidden:
		return apperr.Wrap(apperr.Forbidden, "Access forbidden", err)
	case errors.Is(err, errPrivateAddress):
		return apperr.Wrap(apperr.Forbidden, "Access forbidden", err)
	case errors.As(err, &dnsErr) && dnsErr.IsNotFound:
		return apperr.Wrap(apperr.NotFound, "Website not found", err)
	case errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		return apperr.Wrap(apperr.Timeout, "Request timeout", err)
	default:
		return apperr.Wrap(apperr.Unknown, "Failed to fetch metadata", err)
	}
}

// buildMetadata cleans scraped fields into the response shape.
func buildMetadata(s *scraped, final *url.URL) *Metadata {
	md := &Metadata{
		Title:       strings.TrimSpace(s.Title),
		Description: strings.TrimSpace(s.Description),
		Image:       s.Image,
		Logo:        s.Logo,
	}
	if final != nil {
		md.URL = final.String()
		md.Site = strings.TrimPrefix(final.Hostname(), "www.")
	}
	if price, ok := detectPrice(s); ok {
		md.Price = &price
	}
	return md
}

// detectPrice prefers the page's structured price and falls back to amounts
// mentioned in the title, then the description.
func detectPrice(s *scraped) (float64, bool) {
	var price float64
	var ok bool

	if s.Price != "" {
		price, ok = ParsePrice(s.Price)
	} else if price, ok = ExtractPrice(s.Title); !ok || price == 0 {
		price, ok = ExtractPrice(s.Description)
	}
	if !ok {
		return 0, false
	}

	price = roundPrice(price)
	if math.IsNaN(price) || math.IsInf(price, 0) || price == 0 {
		return 0, false
	}
	return price, true
}

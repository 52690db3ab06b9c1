// Package fetcher issues rate-limited, cached, retried HTTP requests on
// behalf of one collector. One Fetcher serves one collector instance:
// requests run strictly sequentially and share a single last-request
// clock, so the minimum inter-request delay holds across the whole
// session.
package fetcher

import (
	"context"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/terra35/vanillacost/internal/fetchcache"
	"github.com/terra35/vanillacost/internal/model"
	"github.com/terra35/vanillacost/internal/resilience"
)

// Sentinel failures callers can test with eris/errors Is. Both are
// recoverable per-item failures, never fatal to a session.
var (
	// ErrPermanent marks a 403/404/410 response or a non-transient
	// transport failure; the fetch is not retried.
	ErrPermanent = eris.New("fetcher: permanent failure")
	// ErrExhausted marks a fetch abandoned after all retry attempts.
	ErrExhausted = eris.New("fetcher: retries exhausted")
	// ErrRobotsDenied marks a URL disallowed by the host's robots.txt.
	ErrRobotsDenied = eris.New("fetcher: denied by robots.txt")
)

// State enumerates the retry state machine. Transitions are driven by
// failure classification: Waiting -> InFlight on each attempt,
// InFlight -> Succeeded on 200, InFlight -> PermanentFailure on
// 403/404/410 or a non-transient transport error, InFlight -> Waiting
// on anything else until attempts run out, then ExhaustedRetries.
type State int

const (
	StateIdle State = iota
	StateWaiting
	StateInFlight
	StateSucceeded
	StatePermanentFailure
	StateExhaustedRetries
)

// Options configures a Fetcher.
type Options struct {
	UserAgent      string
	Timeout        time.Duration
	MaxRetries     int
	RateLimitDelay time.Duration
	CacheMaxAge    time.Duration
	RespectRobots  bool
}

// Response is a fetched page, either live or synthesized from cache.
type Response struct {
	URL        string
	StatusCode int
	Headers    map[string]string
	Body       string
	Encoding   string
	FromCache  bool
}

// Fetcher is the rate-limited fetch engine. Not safe for concurrent use;
// the pipeline is sequential by design.
type Fetcher struct {
	client  *http.Client
	cache   *fetchcache.Store
	opts    Options
	limiter *rate.Limiter
	robots  *RobotsGate

	state     State
	cacheHits int
	requests  int
}

// New creates a Fetcher backed by the given cache.
func New(cache *fetchcache.Store, opts Options) *Fetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	if opts.RateLimitDelay == 0 {
		opts.RateLimitDelay = time.Second
	}
	if opts.CacheMaxAge == 0 {
		opts.CacheMaxAge = 24 * time.Hour
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "vanillacost/1.0"
	}

	f := &Fetcher{
		client:  &http.Client{Timeout: opts.Timeout},
		cache:   cache,
		opts:    opts,
		limiter: rate.NewLimiter(rate.Every(opts.RateLimitDelay), 1),
	}
	if opts.RespectRobots {
		f.robots = NewRobotsGate(opts.UserAgent, opts.Timeout)
	}
	return f
}

// CacheHits returns how many fetches were served from cache.
func (f *Fetcher) CacheHits() int { return f.cacheHits }

// Requests returns how many network requests were issued.
func (f *Fetcher) Requests() int { return f.requests }

// LastState returns the terminal state of the most recent fetch.
func (f *Fetcher) LastState() State { return f.state }

// Fetch retrieves the URL using the fetcher's default freshness window.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, params url.Values) (*Response, error) {
	return f.FetchWithMaxAge(ctx, rawURL, params, f.opts.CacheMaxAge)
}

// FetchWithMaxAge retrieves the URL, serving from cache when a fresh
// entry exists. Cache hits consume no rate-limit delay and no network
// quota. Failures return ErrPermanent, ErrExhausted, or ErrRobotsDenied;
// all are recoverable per-item conditions.
func (f *Fetcher) FetchWithMaxAge(ctx context.Context, rawURL string, params url.Values, maxAge time.Duration) (*Response, error) {
	key := fetchcache.Key(rawURL, params)
	if entry, ok := f.cache.Lookup(key, maxAge); ok {
		f.cacheHits++
		zap.L().Debug("fetcher: cache hit", zap.String("url", rawURL))
		return responseFromEntry(entry), nil
	}

	if f.robots != nil && !f.robots.Allowed(ctx, rawURL) {
		return nil, eris.Wrapf(ErrRobotsDenied, "fetcher: %s", rawURL)
	}

	reqURL := rawURL
	if len(params) > 0 {
		reqURL = rawURL + "?" + params.Encode()
	}

	f.state = StateIdle
	var lastErr error

	for attempt := 0; attempt <= f.opts.MaxRetries; attempt++ {
		f.state = StateWaiting
		if attempt == 0 {
			if err := f.waitRateLimit(ctx); err != nil {
				return nil, err
			}
		} else {
			if err := resilience.Sleep(ctx, resilience.Backoff(attempt-1)); err != nil {
				return nil, err
			}
		}

		f.state = StateInFlight
		resp, err := f.do(ctx, reqURL)

		if err != nil {
			if !resilience.IsTransient(err) {
				f.state = StatePermanentFailure
				zap.L().Warn("fetcher: non-transient transport failure, not retrying",
					zap.String("url", rawURL),
					zap.Error(err),
				)
				return nil, eris.Wrapf(ErrPermanent, "fetcher: %s: %v", rawURL, err)
			}
			lastErr = err
			zap.L().Warn("fetcher: transient transport failure, retrying",
				zap.String("url", rawURL),
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)
			continue
		}

		switch resilience.ClassifyStatus(resp.StatusCode) {
		case resilience.OutcomeSuccess:
			f.state = StateSucceeded
			entry := entryFromResponse(resp)
			if err := f.cache.Put(key, entry); err != nil {
				zap.L().Warn("fetcher: cache write failed",
					zap.String("url", rawURL),
					zap.Error(err),
				)
			}
			return resp, nil

		case resilience.OutcomePermanent:
			f.state = StatePermanentFailure
			zap.L().Warn("fetcher: permanent failure, not retrying",
				zap.String("url", rawURL),
				zap.Int("status", resp.StatusCode),
			)
			return nil, eris.Wrapf(ErrPermanent, "fetcher: http %d from %s", resp.StatusCode, rawURL)

		default:
			lastErr = eris.Errorf("fetcher: http %d from %s", resp.StatusCode, rawURL)
			zap.L().Warn("fetcher: transient failure, retrying",
				zap.String("url", rawURL),
				zap.Int("status", resp.StatusCode),
				zap.Int("attempt", attempt+1),
			)
		}
	}

	f.state = StateExhaustedRetries

	zap.L().Error("fetcher: all attempts exhausted",
		zap.String("url", rawURL),
		zap.Int("attempts", f.opts.MaxRetries+1),
		zap.Error(lastErr),
	)
	if lastErr != nil {
		return nil, eris.Wrapf(ErrExhausted, "fetcher: %s: %v", rawURL, lastErr)
	}
	return nil, eris.Wrapf(ErrExhausted, "fetcher: %s", rawURL)
}

// waitRateLimit blocks until the minimum inter-request delay has elapsed
// since the previous network call, plus up to 100ms of jitter so repeated
// runs do not hammer a host in lockstep. The jitter runs before the
// limiter wait so the delay floor between consecutive requests holds
// regardless of the jitter drawn.
func (f *Fetcher) waitRateLimit(ctx context.Context) error {
	if err := resilience.Sleep(ctx, time.Duration(rand.Int64N(int64(100*time.Millisecond)))); err != nil {
		return err
	}
	if err := f.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "fetcher: rate limit wait")
	}
	return nil
}

func (f *Fetcher) do(ctx context.Context, reqURL string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: create request")
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	// Count every attempt that goes out on the wire, not just the ones
	// that complete.
	f.requests++
	httpResp, err := f.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: do request")
	}
	defer httpResp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: read body")
	}

	headers := make(map[string]string, len(httpResp.Header))
	for name := range httpResp.Header {
		headers[name] = httpResp.Header.Get(name)
	}

	return &Response{
		URL:        httpResp.Request.URL.String(),
		StatusCode: httpResp.StatusCode,
		Headers:    headers,
		Body:       string(body),
		Encoding:   "utf-8",
	}, nil
}

func responseFromEntry(e *model.CacheEntry) *Response {
	return &Response{
		URL:        e.URL,
		StatusCode: e.StatusCode,
		Headers:    e.Headers,
		Body:       e.Body,
		Encoding:   e.Encoding,
		FromCache:  true,
	}
}

func entryFromResponse(r *Response) *model.CacheEntry {
	return &model.CacheEntry{
		Timestamp:  time.Now(),
		URL:        r.URL,
		StatusCode: r.StatusCode,
		Headers:    r.Headers,
		Body:       r.Body,
		Encoding:   r.Encoding,
	}
}

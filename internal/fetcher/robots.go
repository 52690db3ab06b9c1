package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/temoto/robotstxt"
	"go.uber.org/zap"
)

// RobotsGate answers whether a URL may be fetched under the host's
// robots.txt. Rulesets are fetched once per host and held for the life
// of the gate. An unreachable robots.txt allows everything: the rate
// limiter is the real throttle, robots compliance is a courtesy.
type RobotsGate struct {
	client    *http.Client
	userAgent string
	byHost    map[string]*robotstxt.RobotsData
}

// NewRobotsGate creates a gate for the given user agent.
func NewRobotsGate(userAgent string, timeout time.Duration) *RobotsGate {
	return &RobotsGate{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		byHost:    make(map[string]*robotstxt.RobotsData),
	}
}

// Allowed reports whether rawURL may be fetched.
func (g *RobotsGate) Allowed(ctx context.Context, rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	data, ok := g.byHost[parsed.Host]
	if !ok {
		data = g.load(ctx, parsed.Scheme, parsed.Host)
		g.byHost[parsed.Host] = data
	}

	allowed := data.TestAgent(parsed.Path, g.userAgent)
	if !allowed {
		zap.L().Warn("fetcher: robots.txt disallows path",
			zap.String("host", parsed.Host),
			zap.String("path", parsed.Path),
		)
	}
	return allowed
}

func (g *RobotsGate) load(ctx context.Context, scheme, host string) *robotstxt.RobotsData {
	allowAll, _ := robotstxt.FromStatusAndBytes(404, nil)

	robotsURL := fmt.Sprintf("%s://%s/robots.txt", scheme, host)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return allowAll
	}
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		zap.L().Debug("fetcher: robots.txt unreachable, allowing",
			zap.String("host", host),
			zap.Error(err),
		)
		return allowAll
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return allowAll
	}
	return data
}

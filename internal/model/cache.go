package model

import "time"

// CacheEntry is a persisted snapshot of one fetch response. Entries are
// written once per successful fetch and never updated in place; a
// re-fetch overwrites the file under the same key.
type CacheEntry struct {
	Key        string            `json:"key"`
	Timestamp  time.Time         `json:"timestamp"`
	URL        string            `json:"url"`
	StatusCode int               `json:"status_code"`
	Headers    map[string]string `json:"headers,omitempty"`
	Body       string            `json:"body"`
	Encoding   string            `json:"encoding,omitempty"`
}

// FreshAt reports whether the entry is within maxAge of now.
func (e *CacheEntry) FreshAt(now time.Time, maxAge time.Duration) bool {
	return now.Sub(e.Timestamp) <= maxAge
}

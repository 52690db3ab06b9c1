// Package fetchcache is a content-addressed, time-bounded cache of fetch
// responses. Entries live as one self-describing JSON file per key under
// the cache directory, fronted by an in-memory layer. The cache is purely
// additive: stale entries are ignored on read, never deleted, which
// trades storage growth for an audit trail of everything ever fetched.
package fetchcache

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// Key derives the deterministic cache key for a request. Two logically
// identical requests collide regardless of parameter ordering: the hash
// covers the normalized URL plus the sorted (name, value) pairs.
func Key(rawURL string, params url.Values) string {
	var b strings.Builder
	b.WriteString(normalizeURL(rawURL))

	if len(params) > 0 {
		names := make([]string, 0, len(params))
		for name := range params {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			values := append([]string(nil), params[name]...)
			sort.Strings(values)
			for _, v := range values {
				b.WriteByte('\n')
				b.WriteString(name)
				b.WriteByte('=')
				b.WriteString(v)
			}
		}
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

func normalizeURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	u.Host = strings.ToLower(u.Host)
	u.Scheme = strings.ToLower(u.Scheme)
	u.Fragment = ""
	return u.String()
}

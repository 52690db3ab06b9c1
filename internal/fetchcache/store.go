package fetchcache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/terra35/vanillacost/internal/model"
)

// Store is the layered fetch cache: a go-cache memory tier over one JSON
// file per key on disk. Disk hits are promoted into memory. Staleness is
// evaluated on read against the caller's freshness window, so the same
// entry can be fresh for one caller and absent for another.
type Store struct {
	dir string
	mem *gocache.Cache
	now func() time.Time
}

// New creates a Store rooted at dir. The directory is created lazily on
// first write.
func New(dir string) *Store {
	return &Store{
		dir: dir,
		mem: gocache.New(24*time.Hour, time.Hour),
		now: time.Now,
	}
}

// Lookup returns the cached entry for key if one exists and is no older
// than maxAge. A missing, stale, or corrupt entry returns ok=false; a
// corrupt file is logged and treated as absent, never surfaced as an
// error.
func (s *Store) Lookup(key string, maxAge time.Duration) (*model.CacheEntry, bool) {
	if v, ok := s.mem.Get(key); ok {
		entry := v.(*model.CacheEntry)
		if entry.FreshAt(s.now(), maxAge) {
			return entry, true
		}
		return nil, false
	}

	data, err := os.ReadFile(s.path(key))
	if err != nil {
		return nil, false
	}

	var entry model.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		zap.L().Warn("fetchcache: corrupt cache entry, treating as absent",
			zap.String("key", key),
			zap.Error(err),
		)
		return nil, false
	}

	s.mem.SetDefault(key, &entry)

	if !entry.FreshAt(s.now(), maxAge) {
		return nil, false
	}
	return &entry, true
}

// Put writes the entry under key, overwriting any previous snapshot.
func (s *Store) Put(key string, entry *model.CacheEntry) error {
	entry.Key = key

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return eris.Wrap(err, "fetchcache: create cache dir")
	}

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return eris.Wrap(err, "fetchcache: marshal entry")
	}

	if err := os.WriteFile(s.path(key), data, 0o644); err != nil {
		return eris.Wrapf(err, "fetchcache: write entry %s", key)
	}

	s.mem.SetDefault(key, entry)
	return nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Package cache memoizes query results per view.
//
// Each view (one open browse tab, say) keeps its own small LRU of
// results. A result is reused only while the library generation and the
// playlist revision it was computed from are still current, so a hit
// always reflects the data a fresh scan would see.
package cache

import (
	"container/list"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/colin969/exodos-launcher/internal/domain"
	"github.com/colin969/exodos-launcher/internal/errors"
	"github.com/colin969/exodos-launcher/internal/filter"
)

// DefaultEntriesPerView is used when Options leaves it unset.
const DefaultEntriesPerView = 4

// GameSource provides consistent game snapshots. *store.Store satisfies it.
type GameSource interface {
	Snapshot(library string) ([]*domain.Game, uint64)
	LibraryGeneration(library string) uint64
}

// PlaylistSource looks playlists up by id. *store.PlaylistStore satisfies it.
type PlaylistSource interface {
	Get(id string) (*domain.Playlist, uint64, bool)
}

// Options configure a Cache.
type Options struct {
	EntriesPerView int
	Logger         *slog.Logger
}

// Stats are cumulative counters.
type Stats struct {
	Hits   uint64 `json:"hits"`
	Misses uint64 `json:"misses"`
	Views  int    `json:"views"`
}

// Cache resolves queries against the store, reusing earlier results.
type Cache struct {
	games     GameSource
	playlists PlaylistSource
	capacity  int
	logger    *slog.Logger

	mu    sync.Mutex
	views map[string]*view

	flight singleflight.Group
	hits   atomic.Uint64
	misses atomic.Uint64
}

// view is one LRU namespace. Front is most recently used.
type view struct {
	order   *list.List
	entries map[uint64]*list.Element
}

type entry struct {
	key    uint64
	result *domain.CachedResult
}

// New creates a cache over the given sources.
func New(games GameSource, playlists PlaylistSource, opts Options) *Cache {
	if opts.EntriesPerView < 1 {
		opts.EntriesPerView = DefaultEntriesPerView
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &Cache{
		games:     games,
		playlists: playlists,
		capacity:  opts.EntriesPerView,
		logger:    opts.Logger,
		views:     make(map[string]*view),
	}
}

// Resolve returns the full ordered result of q for the named view. An
// unchanged query over unchanged data returns the very same
// *CachedResult; anything else is recomputed. Results are shared and
// must not be modified.
func (c *Cache) Resolve(viewName string, q domain.Query) (*domain.CachedResult, error) {
	q = q.Canonical()
	key := q.Key()

	var revision uint64
	if q.Playlist != "" {
		_, rev, ok := c.playlists.Get(q.Playlist)
		if !ok {
			return nil, errors.NotFoundf("playlist %q not found", q.Playlist)
		}
		revision = rev
	}
	generation := c.games.LibraryGeneration(q.Library)

	if res := c.lookup(viewName, key, q, generation, revision); res != nil {
		c.hits.Add(1)
		return res, nil
	}
	c.misses.Add(1)

	flightKey := strconv.FormatUint(key, 16) + ":" + strconv.FormatUint(generation, 10) + ":" + strconv.FormatUint(revision, 10)
	v, err, _ := c.flight.Do(flightKey, func() (any, error) {
		return c.compute(q)
	})
	if err != nil {
		return nil, err
	}
	res := v.(*domain.CachedResult)
	if !res.Query.Equal(q) {
		// Fingerprint collision with a different in-flight query.
		if res, err = c.compute(q); err != nil {
			return nil, err
		}
	}

	c.store(viewName, key, res)
	c.logger.Debug("query resolved", "view", viewName, "library", q.Library,
		"playlist", q.Playlist, "total", res.Total, "generation", res.Generation)
	return res, nil
}

func (c *Cache) lookup(viewName string, key uint64, q domain.Query, generation, revision uint64) *domain.CachedResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.views[viewName]
	if !ok {
		return nil
	}
	el, ok := v.entries[key]
	if !ok {
		return nil
	}
	res := el.Value.(*entry).result
	if res.Generation != generation || res.PlaylistRevision != revision || !res.Query.Equal(q) {
		return nil
	}
	v.order.MoveToFront(el)
	return res
}

// compute scans a snapshot of the library. The snapshot never changes,
// so no mutation can be observed halfway through.
func (c *Cache) compute(q domain.Query) (*domain.CachedResult, error) {
	games, generation := c.games.Snapshot(q.Library)

	var revision uint64
	if q.Playlist != "" {
		pl, rev, ok := c.playlists.Get(q.Playlist)
		if !ok {
			return nil, errors.NotFoundf("playlist %q not found", q.Playlist)
		}
		revision = rev
		ids := pl.GameIDs()
		inPlaylist := make([]*domain.Game, 0, len(ids))
		for _, g := range games {
			if _, ok := ids[g.ID]; ok {
				inPlaylist = append(inPlaylist, g)
			}
		}
		games = inPlaylist
	}

	matched := filter.Apply(games, q.Text, q.Filter)
	filter.Sort(matched, q.OrderBy, q.Reverse())

	return &domain.CachedResult{
		Query:            q,
		Total:            len(matched),
		Games:            matched,
		Generation:       generation,
		PlaylistRevision: revision,
	}, nil
}

func (c *Cache) store(viewName string, key uint64, res *domain.CachedResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.views[viewName]
	if !ok {
		v = &view{order: list.New(), entries: make(map[uint64]*list.Element)}
		c.views[viewName] = v
	}
	if el, ok := v.entries[key]; ok {
		el.Value.(*entry).result = res
		v.order.MoveToFront(el)
		return
	}
	v.entries[key] = v.order.PushFront(&entry{key: key, result: res})
	for v.order.Len() > c.capacity {
		oldest := v.order.Back()
		v.order.Remove(oldest)
		delete(v.entries, oldest.Value.(*entry).key)
	}
}

// InvalidateLibrary drops every cached result that covers lib, including
// results spanning all libraries.
func (c *Cache) InvalidateLibrary(lib string) {
	c.dropWhere(func(q domain.Query) bool {
		return q.Library == "" || q.Library == lib
	})
}

// InvalidatePlaylist drops every cached result restricted to the playlist.
func (c *Cache) InvalidatePlaylist(id string) {
	c.dropWhere(func(q domain.Query) bool { return q.Playlist == id })
}

// InvalidateAll empties every view.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.views)
}

// DropView forgets one view entirely, e.g. when its tab closes.
func (c *Cache) DropView(viewName string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.views, viewName)
}

func (c *Cache) dropWhere(match func(domain.Query) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, v := range c.views {
		for key, el := range v.entries {
			if match(el.Value.(*entry).result.Query) {
				v.order.Remove(el)
				delete(v.entries, key)
			}
		}
	}
}

// Len returns the number of results cached for a view.
func (c *Cache) Len(viewName string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.views[viewName]; ok {
		return v.order.Len()
	}
	return 0
}

// Stats returns hit and miss counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	views := len(c.views)
	c.mu.Unlock()
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load(), Views: views}
}

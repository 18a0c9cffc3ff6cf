// Package dircache serves the parsed contents of a directory of article files
// from memory, re-reading a file only when its modification time changes.
//
// Every call to All stats every matching file. A cached value is reused only
// when the file's current mtime equals the mtime recorded when the value was
// parsed; anything else forces a read and parse. Directory mtimes and
// "recently changed" windows are never consulted.
//
// Known limitation: two writes that land within the same mtime tick of the
// underlying file system are indistinguishable, so the second one is not
// picked up until the file's mtime moves again.
package dircache

import (
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/parser"
	"github.com/starford/folio/internal/storage"
)

// ParseFunc turns raw file content into an article.
type ParseFunc func(data []byte) (*models.Article, error)

type entry struct {
	value   models.Article
	modTime time.Time
	size    int
}

// Cache is a read-through cache over one directory.
type Cache struct {
	dir     string
	enabled bool
	suffix  string

	store   storage.Provider
	parse   ParseFunc
	metrics Metrics
	logger  *slog.Logger
	initErr error

	// mu serializes refresh passes so value and modTime always change together.
	mu        sync.Mutex
	entries   map[string]entry
	hits      uint64
	misses    uint64
	refreshes uint64
}

// Option configures a Cache.
type Option func(*Cache)

// WithProvider replaces the file system provider.
func WithProvider(p storage.Provider) Option {
	return func(c *Cache) { c.store = p }
}

// WithParser replaces the record parser.
func WithParser(fn ParseFunc) Option {
	return func(c *Cache) { c.parse = fn }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(c *Cache) { c.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) { c.logger = l }
}

// WithSuffix selects the file suffix used by the default provider.
func WithSuffix(s string) Option {
	return func(c *Cache) { c.suffix = s }
}

// New creates a cache over dir. With enabled false every call re-reads and
// re-parses every file. New never touches the file system.
func New(dir string, enabled bool, opts ...Option) *Cache {
	c := &Cache{
		dir:     dir,
		enabled: enabled,
		suffix:  storage.DefaultSuffix,
		parse:   parser.Parse,
		entries: make(map[string]entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.metrics == nil {
		c.metrics = NoopMetrics{}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.store == nil {
		fsys, err := storage.NewFS(dir, c.suffix)
		if err != nil {
			c.initErr = err
		} else {
			c.store = fsys
		}
	}
	return c
}

// Dir returns the scanned directory.
func (c *Cache) Dir() string { return c.dir }

// Enabled reports whether values are kept between calls.
func (c *Cache) Enabled() bool { return c.enabled }

// All returns every article currently in the directory, in enumeration order.
// Any failure aborts the whole call; there are no partial results.
func (c *Cache) All() ([]models.Article, error) {
	start := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initErr != nil {
		return nil, c.fail(apperr.New(apperr.KindDirectoryUnreadable, c.dir, c.initErr))
	}

	names, err := c.store.List()
	if err != nil {
		return nil, c.fail(apperr.New(apperr.KindDirectoryUnreadable, c.dir, err))
	}

	out := make([]models.Article, 0, len(names))
	for _, name := range names {
		var a models.Article
		if c.enabled {
			a, err = c.lookup(name)
		} else {
			a, _, err = c.load(name)
		}
		if err != nil {
			return nil, c.fail(err)
		}
		out = append(out, a)
	}

	if c.enabled {
		c.metrics.SetEntries(len(c.entries))
	}
	c.metrics.ObserveScan(time.Since(start), len(names))
	return out, nil
}

// lookup returns the cached value for name, refreshing it when the file's
// mtime no longer matches. Callers hold c.mu.
func (c *Cache) lookup(name string) (models.Article, error) {
	mt, err := c.store.ModTime(name)
	if err != nil {
		return models.Article{}, c.fileError(name, err)
	}

	ent, ok := c.entries[name]
	if ok && ent.modTime.Equal(mt) {
		c.hits++
		c.metrics.Hit()
		return ent.value, nil
	}

	// mt was taken before the read, so a write racing the read leaves an
	// older mtime behind and the next call parses the file again.
	a, size, err := c.load(name)
	if err != nil {
		return models.Article{}, err
	}
	c.entries[name] = entry{value: a, modTime: mt, size: size}

	if ok {
		c.refreshes++
		c.metrics.Refresh()
		c.logger.Debug("dircache: refreshed",
			slog.String("file", name),
			slog.Time("old_mtime", ent.modTime),
			slog.Time("new_mtime", mt))
	} else {
		c.misses++
		c.metrics.Miss()
		c.logger.Debug("dircache: loaded", slog.String("file", name))
	}
	return a, nil
}

// load reads and parses name without touching the entry map.
func (c *Cache) load(name string) (models.Article, int, error) {
	data, err := c.store.Read(name)
	if err != nil {
		return models.Article{}, 0, c.fileError(name, err)
	}
	a, err := c.parse(data)
	if err != nil {
		return models.Article{}, 0, apperr.New(apperr.KindParseFailure, c.path(name), err)
	}
	if a == nil {
		return models.Article{}, 0, apperr.New(apperr.KindParseFailure, c.path(name), errors.New("parser returned no article"))
	}
	out := *a
	out.Source = name
	return out, len(data), nil
}

func (c *Cache) fileError(name string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return apperr.New(apperr.KindFileVanished, c.path(name), err)
	}
	return apperr.New(apperr.KindFileUnreadable, c.path(name), err)
}

func (c *Cache) fail(err error) error {
	kind := apperr.KindOf(err)
	c.metrics.Failure(kind)
	c.logger.Warn("dircache: refresh failed",
		slog.String("dir", c.dir),
		slog.String("kind", kind.String()),
		slog.String("error", err.Error()))
	return err
}

func (c *Cache) path(name string) string {
	return filepath.Join(c.dir, name)
}

// Stats is a point-in-time summary of a cache.
type Stats struct {
	Dir       string `json:"dir"`
	Enabled   bool   `json:"enabled"`
	Entries   int    `json:"entries"`
	Bytes     int64  `json:"bytes"` // raw size of the files behind live entries
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Refreshes uint64 `json:"refreshes"`
}

// Stats returns the current entry count, footprint and counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	var n int64
	for _, e := range c.entries {
		n += int64(e.size)
	}
	return Stats{
		Dir:       c.dir,
		Enabled:   c.enabled,
		Entries:   len(c.entries),
		Bytes:     n,
		Hits:      c.hits,
		Misses:    c.misses,
		Refreshes: c.refreshes,
	}
}

// Package articleservice coordinates the directory cache and the search catalog.
package articleservice

import (
	"context"
	"log/slog"
	"sync"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/dircache"
	"github.com/starford/folio/internal/index"
	"github.com/starford/folio/internal/models"
)

// Stats combines the cache summary with the catalog size.
type Stats struct {
	Cache   dircache.Stats `json:"cache"`
	Indexed int            `json:"indexed"`
}

// Service serves articles from the cache. The catalog is only consulted for
// search and is brought up to date from the cache first.
type Service struct {
	cache  *dircache.Cache
	db     index.Catalog
	logger *slog.Logger

	syncMu sync.Mutex
}

// NewService creates a new article service. db may be nil, in which case
// Search reports apperr.ErrBadRequest.
func NewService(cache *dircache.Cache, db index.Catalog, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{cache: cache, db: db, logger: logger}
}

// List returns every article ordered by date.
func (s *Service) List(_ context.Context, desc bool) ([]models.Article, error) {
	return s.cache.AllByDate(desc)
}

// Get returns the first article with the given id in enumeration order.
func (s *Service) Get(_ context.Context, id string) (*models.Article, error) {
	all, err := s.cache.All()
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == id {
			return &all[i], nil
		}
	}
	return nil, apperr.ErrNotFound
}

// Sync mirrors the current collection into the catalog.
func (s *Service) Sync(ctx context.Context) (index.SyncResult, error) {
	if s.db == nil {
		return index.SyncResult{}, nil
	}
	all, err := s.cache.All()
	if err != nil {
		return index.SyncResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return index.SyncResult{}, err
	}

	s.syncMu.Lock()
	defer s.syncMu.Unlock()
	res, err := index.Sync(s.db, all, s.logger)
	if err != nil {
		return res, err
	}
	if res.Upserted > 0 || res.Deleted > 0 {
		s.logger.Info("catalog synced",
			slog.Int("upserted", res.Upserted),
			slog.Int("deleted", res.Deleted),
			slog.Int("unchanged", res.Unchanged))
	}
	return res, nil
}

// Search syncs the catalog and runs a full-text query against it.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]index.SearchResult, error) {
	if s.db == nil {
		return nil, apperr.ErrBadRequest
	}
	if _, err := s.Sync(ctx); err != nil {
		return nil, err
	}
	results, err := s.db.Search(query, limit)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []index.SearchResult{}
	}
	return results, nil
}

// Stats returns cache counters and the number of catalogued articles.
func (s *Service) Stats(_ context.Context) (Stats, error) {
	out := Stats{Cache: s.cache.Stats()}
	if s.db == nil {
		return out, nil
	}
	n, err := s.db.Count()
	if err != nil {
		return out, err
	}
	out.Indexed = n
	return out, nil
}

package index

import (
	"log/slog"

	"github.com/starford/folio/internal/checksum"
	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/parser"
)

// SyncResult counts the catalog changes made by Sync.
type SyncResult struct {
	Upserted  int
	Deleted   int
	Unchanged int
}

// Sync brings the catalog in line with articles, the full current collection:
//   - new/changed articles are serialized and upserted
//   - ids no longer present are deleted
//
// Per-article failures are logged and skipped; only failing to read the
// existing checksums aborts the sync.
func Sync(db Catalog, articles []models.Article, logger *slog.Logger) (SyncResult, error) {
	var res SyncResult

	checksums, err := db.AllChecksums()
	if err != nil {
		return res, err
	}

	seen := make(map[string]struct{}, len(articles))
	for i := range articles {
		a := &articles[i]
		seen[a.ID] = struct{}{}

		body, err := parser.Marshal(a)
		if err != nil {
			logger.Warn("sync: encode failed", slog.String("id", a.ID), slog.String("error", err.Error()))
			continue
		}
		cs := checksum.SumParts([]byte(a.Source), body)
		if checksums[a.ID] == cs {
			res.Unchanged++
			continue
		}

		row := models.CatalogRow{
			ID:       a.ID,
			Path:     a.Source,
			Date:     a.Date,
			SortAt:   a.Time,
			Checksum: cs,
		}
		if err := db.UpsertArticle(row, body); err != nil {
			logger.Warn("sync: upsert failed", slog.String("id", a.ID), slog.String("error", err.Error()))
			continue
		}
		// A duplicate id later in the collection must see this write.
		checksums[a.ID] = cs
		res.Upserted++
		logger.Debug("sync: indexed", slog.String("id", a.ID), slog.String("path", a.Source))
	}

	// Remove stale entries.
	for id := range checksums {
		if _, ok := seen[id]; ok {
			continue
		}
		if err := db.DeleteArticle(id); err != nil {
			logger.Warn("sync: delete failed", slog.String("id", id), slog.String("error", err.Error()))
			continue
		}
		res.Deleted++
		logger.Debug("sync: removed stale", slog.String("id", id))
	}

	return res, nil
}

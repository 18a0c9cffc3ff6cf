package index

import (
	"github.com/starford/folio/internal/models"
)

// Catalog defines the article catalog operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type Catalog interface {
	UpsertArticle(row models.CatalogRow, body []byte) error
	DeleteArticle(id string) error
	AllChecksums() (map[string]string, error)
	Get(id string) (*models.CatalogRow, []byte, error)
	Count() (int, error)
	Search(query string, limit int) ([]SearchResult, error)
	Close() error
}

// Verify *DB satisfies Catalog at compile time.
var _ Catalog = (*DB)(nil)

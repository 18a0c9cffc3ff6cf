package index

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/models"
)

// SearchResult represents one search hit.
type SearchResult struct {
	ID      string `json:"id"`
	Path    string `json:"path"`
	Date    string `json:"date"`
	Snippet string `json:"snippet"`
}

// UpsertArticle inserts or replaces an article and its FTS entry within a transaction.
func (db *DB) UpsertArticle(row models.CatalogRow, body []byte) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO articles (id, path, date, sort_at, checksum, body, synced_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			path      = excluded.path,
			date      = excluded.date,
			sort_at   = excluded.sort_at,
			checksum  = excluded.checksum,
			body      = excluded.body,
			synced_at = excluded.synced_at
	`, row.ID, row.Path, row.Date, row.SortAt.UTC(), row.Checksum, string(body))
	if err != nil {
		return fmt.Errorf("index: upsert article: %w", err)
	}

	// FTS upsert (no-op when FTS5 tag is absent).
	if err := ftsUpsert(tx, row.ID, string(body)); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteArticle removes an article and its FTS entry.
func (db *DB) DeleteArticle(id string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, id)
	if _, err := tx.Exec(`DELETE FROM articles WHERE id = ?`, id); err != nil {
		return fmt.Errorf("index: delete article: %w", err)
	}
	return tx.Commit()
}

// AllChecksums returns id → checksum for every catalogued article.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT id, checksum FROM articles`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var id, cs string
		if err := rows.Scan(&id, &cs); err != nil {
			return nil, err
		}
		out[id] = cs
	}
	return out, rows.Err()
}

// Get returns the catalog row and stored JSON body for id.
func (db *DB) Get(id string) (*models.CatalogRow, []byte, error) {
	var (
		row  models.CatalogRow
		body string
	)
	err := db.conn.QueryRow(`
		SELECT id, path, date, sort_at, checksum, body
		FROM articles WHERE id = ?
	`, id).Scan(&row.ID, &row.Path, &row.Date, &row.SortAt, &row.Checksum, &body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("index: get %s: %w", id, err)
	}
	return &row, []byte(body), nil
}

// Count returns the number of catalogued articles.
func (db *DB) Count() (int, error) {
	var n int
	if err := db.conn.QueryRow(`SELECT count(*) FROM articles`).Scan(&n); err != nil {
		return 0, fmt.Errorf("index: count: %w", err)
	}
	return n, nil
}

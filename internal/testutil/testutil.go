// Package testutil provides shared test helpers for article directories and databases.
package testutil

import (
	"encoding/json"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/starford/folio/internal/index"
	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/parser"
	"github.com/starford/folio/internal/storage"
)

// TestDB creates a temporary SQLite catalog that is automatically cleaned up.
func TestDB(t testing.TB) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "folio-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// Fixture is a temporary articles directory. Files are named <id>.json.
type Fixture struct {
	t     testing.TB
	Dir   string
	Store *storage.FS
}

// NewFixture creates an empty articles directory under t.TempDir.
func NewFixture(t testing.TB) *Fixture {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir, storage.DefaultSuffix)
	if err != nil {
		t.Fatal(err)
	}
	return &Fixture{t: t, Dir: dir, Store: store}
}

// NewArticle builds an article with optional extra fields.
func NewArticle(id, date string, extra map[string]any) models.Article {
	a := models.Article{ID: id, Date: date, Fields: map[string]json.RawMessage{}}
	for k, v := range extra {
		raw, err := json.Marshal(v)
		if err != nil {
			panic(fmt.Sprintf("testutil: marshal field %s: %v", k, err))
		}
		a.Fields[k] = raw
	}
	if t, err := parser.ParseDate(date); err == nil {
		a.Time = t
	}
	return a
}

// Name returns the file name used for an article id.
func Name(id string) string { return id + storage.DefaultSuffix }

// Path returns the absolute path of the article with the given id.
func (f *Fixture) Path(id string) string { return f.Store.Path(Name(id)) }

// Put writes a as <id>.json and returns the file name.
func (f *Fixture) Put(a models.Article) string {
	f.t.Helper()
	data, err := parser.Marshal(&a)
	if err != nil {
		f.t.Fatalf("marshal %s: %v", a.ID, err)
	}
	name := Name(a.ID)
	f.PutRaw(name, data)
	return name
}

// PutRaw writes raw bytes under name.
func (f *Fixture) PutRaw(name string, data []byte) {
	f.t.Helper()
	if err := f.Store.Write(name, data); err != nil {
		f.t.Fatalf("write %s: %v", name, err)
	}
}

// Seed writes n articles dated one day apart starting at base and returns
// them in write order.
func (f *Fixture) Seed(n int, base time.Time) []models.Article {
	f.t.Helper()
	out := make([]models.Article, 0, n)
	for i := 0; i < n; i++ {
		a := NewArticle(
			fmt.Sprintf("article-%03d", i),
			base.AddDate(0, 0, i).UTC().Format(time.RFC3339),
			map[string]any{"title": fmt.Sprintf("Article %d", i)},
		)
		f.Put(a)
		out = append(out, a)
	}
	return out
}

// ModTime returns the current mtime of name.
func (f *Fixture) ModTime(name string) time.Time {
	f.t.Helper()
	mt, err := f.Store.ModTime(name)
	if err != nil {
		f.t.Fatalf("stat %s: %v", name, err)
	}
	return mt
}

// SetModTime forces the mtime of name. Tests use it to step past the file
// system's timestamp resolution, or to pin a timestamp in place.
func (f *Fixture) SetModTime(name string, mt time.Time) {
	f.t.Helper()
	if err := os.Chtimes(f.Store.Path(name), mt, mt); err != nil {
		f.t.Fatalf("chtimes %s: %v", name, err)
	}
}

// Touch advances the mtime of name by d relative to its current value.
func (f *Fixture) Touch(name string, d time.Duration) {
	f.t.Helper()
	f.SetModTime(name, f.ModTime(name).Add(d))
}

// Remove deletes name.
func (f *Fixture) Remove(name string) {
	f.t.Helper()
	if err := f.Store.Delete(name); err != nil {
		f.t.Fatalf("remove %s: %v", name, err)
	}
}

package articleservice

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/dircache"
	"github.com/starford/folio/internal/testutil"
)

func newTestService(t *testing.T, withDB bool) (*Service, *testutil.Fixture) {
	t.Helper()
	fx := testutil.NewFixture(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cache := dircache.New(fx.Dir, true, dircache.WithLogger(logger))
	if !withDB {
		return NewService(cache, nil, logger), fx
	}
	return NewService(cache, testutil.TestDB(t), logger), fx
}

var base = time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)

func TestList_Ordered(t *testing.T) {
	svc, fx := newTestService(t, false)
	fx.Seed(3, base)

	desc, err := svc.List(context.Background(), true)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(desc) != 3 || desc[0].ID != "article-002" || desc[2].ID != "article-000" {
		t.Errorf("desc order wrong: %v", desc)
	}

	asc, _ := svc.List(context.Background(), false)
	if asc[0].ID != "article-000" {
		t.Errorf("asc[0] = %s", asc[0].ID)
	}
}

func TestGet(t *testing.T) {
	svc, fx := newTestService(t, false)
	fx.Seed(2, base)

	a, err := svc.Get(context.Background(), "article-001")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	var title string
	if _, err := a.Field("title", &title); err != nil || title != "Article 1" {
		t.Errorf("title = %q (err %v)", title, err)
	}

	if _, err := svc.Get(context.Background(), "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestGet_PropagatesParseFailure(t *testing.T) {
	svc, fx := newTestService(t, false)
	fx.PutRaw("broken.json", []byte("{not json"))

	_, err := svc.Get(context.Background(), "anything")
	if !errors.Is(err, apperr.ErrParseFailure) {
		t.Errorf("err = %v, want ErrParseFailure", err)
	}
}

func TestSearch_SeesLatestWrites(t *testing.T) {
	svc, fx := newTestService(t, true)
	ctx := context.Background()

	fx.Put(testutil.NewArticle("first", "2018-01-01", map[string]any{"body": "alpha"}))
	results, err := svc.Search(ctx, "alpha", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %+v, want 1", results)
	}

	name := fx.Put(testutil.NewArticle("first", "2018-01-01", map[string]any{"body": "beta"}))
	fx.Touch(name, time.Second)

	results, _ = svc.Search(ctx, "alpha", 10)
	if len(results) != 0 {
		t.Errorf("stale hit after rewrite: %+v", results)
	}
	results, _ = svc.Search(ctx, "beta", 10)
	if len(results) != 1 || results[0].Path != name {
		t.Errorf("results = %+v, want hit in %s", results, name)
	}

	fx.Remove(name)
	results, _ = svc.Search(ctx, "beta", 10)
	if len(results) != 0 {
		t.Errorf("deleted article still searchable: %+v", results)
	}
}

func TestSearch_WithoutCatalog(t *testing.T) {
	svc, _ := newTestService(t, false)
	if _, err := svc.Search(context.Background(), "x", 1); !errors.Is(err, apperr.ErrBadRequest) {
		t.Errorf("err = %v, want ErrBadRequest", err)
	}
}

func TestStats(t *testing.T) {
	svc, fx := newTestService(t, true)
	fx.Seed(4, base)
	ctx := context.Background()

	if _, err := svc.Sync(ctx); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	st, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.Cache.Entries != 4 || st.Indexed != 4 {
		t.Errorf("stats = %+v", st)
	}
	if st.Cache.Misses != 4 {
		t.Errorf("misses = %d, want 4", st.Cache.Misses)
	}
}

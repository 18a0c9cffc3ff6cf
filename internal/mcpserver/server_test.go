package mcpserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/folio/internal/articleservice"
	"github.com/starford/folio/internal/dircache"
	"github.com/starford/folio/internal/testutil"
)

func testServer(t *testing.T) (*Server, *testutil.Fixture) {
	t.Helper()
	fx := testutil.NewFixture(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cache := dircache.New(fx.Dir, true, dircache.WithLogger(logger))
	svc := articleservice.NewService(cache, testutil.TestDB(t), logger)
	return New(svc, "test"), fx
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no in-process call helper, so dispatch to the handlers directly.
	var (
		result *mcp.CallToolResult
		err    error
	)
	switch name {
	case "list_articles":
		result, err = srv.listArticles(ctx, req)
	case "get_article":
		result, err = srv.getArticle(ctx, req)
	case "search_articles":
		result, err = srv.searchArticles(ctx, req)
	case "cache_stats":
		result, err = srv.cacheStats(ctx, req)
	case "get_article_format":
		result, err = srv.getArticleFormat(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestListArticles(t *testing.T) {
	srv, fx := testServer(t)
	fx.Seed(3, time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC))

	r := callTool(t, srv, "list_articles", map[string]any{"order": "desc"})
	if r.IsError {
		t.Fatalf("list error: %s", resultText(r))
	}
	var got []map[string]any
	if err := json.Unmarshal([]byte(resultText(r)), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 3 || got[0]["id"] != "article-002" {
		t.Errorf("list = %v", got)
	}
}

func TestListArticles_BadOrder(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "list_articles", map[string]any{"order": "up"})
	if !r.IsError {
		t.Error("expected error for invalid order")
	}
}

func TestGetArticle(t *testing.T) {
	srv, fx := testServer(t)
	fx.Put(testutil.NewArticle("hello", "2018-03-02", map[string]any{"title": "Hi"}))

	r := callTool(t, srv, "get_article", map[string]any{"id": "hello"})
	if r.IsError {
		t.Fatalf("get error: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), `"title": "Hi"`) {
		t.Errorf("get result = %q", resultText(r))
	}
}

func TestGetArticleMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "get_article", map[string]any{"id": "nope"})
	if !r.IsError {
		t.Error("expected error for missing article")
	}
}

func TestGetArticle_ReportsParseFailure(t *testing.T) {
	srv, fx := testServer(t)
	fx.PutRaw("broken.json", []byte(`[1,2]`))

	r := callTool(t, srv, "get_article", map[string]any{"id": "x"})
	if !r.IsError || !strings.HasPrefix(resultText(r), "parse_failure: ") {
		t.Errorf("result = %q, want parse_failure error", resultText(r))
	}
}

func TestSearchArticles(t *testing.T) {
	srv, fx := testServer(t)
	fx.Put(testutil.NewArticle("s", "2018-01-01", map[string]any{"body": "findme please"}))

	r := callTool(t, srv, "search_articles", map[string]any{"query": "findme"})
	if r.IsError {
		t.Fatalf("search error: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), `"id": "s"`) {
		t.Errorf("search result = %q", resultText(r))
	}
}

func TestSearchArticles_MissingQuery(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "search_articles", map[string]any{})
	if !r.IsError {
		t.Error("expected error without query")
	}
}

func TestCacheStats(t *testing.T) {
	srv, fx := testServer(t)
	fx.Seed(2, time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC))
	callTool(t, srv, "list_articles", map[string]any{})

	r := callTool(t, srv, "cache_stats", map[string]any{})
	var st articleservice.Stats
	if err := json.Unmarshal([]byte(resultText(r)), &st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st.Cache.Entries != 2 || st.Cache.Misses != 2 {
		t.Errorf("stats = %+v", st.Cache)
	}
}

func TestGetArticleFormat(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "get_article_format", map[string]any{})
	text := resultText(r)
	if !strings.Contains(text, "folio Article Format") {
		t.Errorf("format missing header")
	}
	if text != ArticleFormat {
		t.Error("tool output differs from ArticleFormat constant")
	}
}

func TestFormatResource(t *testing.T) {
	srv, _ := testServer(t)
	contents, err := srv.readFormatResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatal(err)
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok || tc.URI != formatURI || tc.Text != ArticleFormat {
		t.Errorf("resource = %+v", contents[0])
	}
}

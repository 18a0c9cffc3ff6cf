package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// settle gives the broker loop time to process queued requests.
func settle() { time.Sleep(50 * time.Millisecond) }

func drain(ch chan []byte) []string {
	var out []string
	for {
		select {
		case msg := <-ch:
			out = append(out, string(msg))
		default:
			return out
		}
	}
}

func countEvents(msgs []string, event string) int {
	n := 0
	for _, m := range msgs {
		if strings.Contains(m, "event: "+event+"\n") {
			n++
		}
	}
	return n
}

// serve runs the handler until the returned stop func is called and
// returns what it wrote.
func serve(t *testing.T, b *Broker, header http.Header) (stop func() *httptest.ResponseRecorder) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()
	return func() *httptest.ResponseRecorder {
		cancel()
		<-done
		return w
	}
}

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe(0)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestPublish_SequenceIDs(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe(0)
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: "custom", Data: map[string]string{"k": "v"}})
	b.Publish(Event{Type: "custom", Data: map[string]string{"k": "w"}})

	for i, want := range []string{"id: 1\n", "id: 2\n"} {
		select {
		case msg := <-ch:
			if !strings.HasPrefix(string(msg), want) {
				t.Errorf("message %d = %q, want prefix %q", i, msg, want)
			}
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for message")
		}
	}
}

func TestPublishArticleEvent_CollectionThrottle(t *testing.T) {
	b := NewBroker(500 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe(0)
	defer b.Unsubscribe(ch)

	b.PublishArticleEvent(KindCreated, "a.json")
	b.PublishArticleEvent(KindUpdated, "b.json")
	b.PublishArticleEvent("renamed", "c.json")

	time.Sleep(50 * time.Millisecond)
	msgs := drain(ch)

	if n := countEvents(msgs, "article.created") + countEvents(msgs, "article.updated"); n != 2 {
		t.Errorf("article events = %d, want 2", n)
	}
	if n := countEvents(msgs, "collection.changed"); n != 1 {
		t.Errorf("collection events = %d, want 1 (throttled)", n)
	}
	for _, m := range msgs {
		if strings.Contains(m, "c.json") {
			t.Errorf("unknown kind was published: %q", m)
		}
	}
	if !strings.Contains(msgs[0], `"file":"a.json"`) {
		t.Errorf("first payload = %q", msgs[0])
	}
}

func TestSubscribe_ReplaysAfterLastID(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()

	// Events 1..3 with nobody listening.
	for i := 0; i < 3; i++ {
		b.Publish(Event{Type: "custom", Data: i})
	}
	settle()

	ch := b.Subscribe(1)
	defer b.Unsubscribe(ch)
	settle()

	msgs := drain(ch)
	if len(msgs) != 2 || !strings.HasPrefix(msgs[0], "id: 2\n") || !strings.HasPrefix(msgs[1], "id: 3\n") {
		t.Errorf("replay = %q, want ids 2 and 3", msgs)
	}

	fresh := b.Subscribe(0)
	defer b.Unsubscribe(fresh)
	settle()
	if got := drain(fresh); len(got) != 0 {
		t.Errorf("new client without Last-Event-ID got %q", got)
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	stop := serve(t, b, nil)
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.PublishArticleEvent(KindDeleted, "x.json")
	time.Sleep(50 * time.Millisecond)
	w := stop()

	body := w.Body.String()
	if !strings.Contains(body, "event: article.deleted") {
		t.Errorf("handler output missing event: %q", body)
	}
	if w.Header().Get("Content-Type") != "text/event-stream" {
		t.Errorf("content type = %q", w.Header().Get("Content-Type"))
	}

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestSSEHandler_LastEventIDAndPing(t *testing.T) {
	b := NewBroker(time.Hour, WithPing(20*time.Millisecond))
	defer b.Close()

	b.Publish(Event{Type: "first", Data: 1})
	b.Publish(Event{Type: "second", Data: 2})
	settle()

	stop := serve(t, b, http.Header{"Last-Event-Id": []string{"1"}})
	time.Sleep(100 * time.Millisecond)
	body := stop().Body.String()

	if strings.Contains(body, "event: first") || !strings.Contains(body, "event: second") {
		t.Errorf("replay body = %q", body)
	}
	if !strings.Contains(body, ": ping\n\n") {
		t.Errorf("no keepalive in %q", body)
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe(0)
	defer b.Unsubscribe(ch)

	// Buffer holds 64; the rest must be dropped without blocking.
	for i := 0; i < 70; i++ {
		b.Publish(Event{Type: "test", Data: map[string]string{"i": "x"}})
	}
	settle()
	if n := len(drain(ch)); n != clientBuffer {
		t.Errorf("delivered %d, want %d", n, clientBuffer)
	}
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.Subscribe(0)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}

	b.Close()
	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}

	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}

	// Safe no-ops after close.
	b.Publish(Event{Type: "article.updated"})
	b.PublishArticleEvent(KindUpdated, "x.json")
	if got, ok := <-b.Subscribe(0); ok {
		t.Errorf("subscribe after close delivered %q", got)
	}
}

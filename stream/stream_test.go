package stream

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// TestStats verifies the health counters exist.
func TestStats(t *testing.T) {
	h := NewHub(0)
	stats := h.Stats()

	for _, key := range []string{
		"active_connections",
		"max_connections",
		"published_events",
		"dropped_events",
		"rejected_connections",
	} {
		if _, ok := stats[key]; !ok {
			t.Errorf("Expected key %q not found in stats", key)
		}
	}
	if stats["max_connections"] != DefaultMaxClients {
		t.Errorf("max_connections = %v; want %d", stats["max_connections"], DefaultMaxClients)
	}
}

func TestSubscribeUnsubscribe(t *testing.T) {
	h := NewHub(1)

	c, ok := h.Subscribe()
	if !ok {
		t.Fatal("Subscribe() should succeed")
	}
	if h.Clients() != 1 {
		t.Errorf("Clients() = %d; want 1", h.Clients())
	}
	if _, ok := h.Subscribe(); ok {
		t.Error("Subscribe() beyond capacity should fail")
	}
	if got := h.Stats()["rejected_connections"]; got != int64(1) {
		t.Errorf("rejected_connections = %v; want 1", got)
	}

	h.Unsubscribe(c)
	if h.Clients() != 0 {
		t.Errorf("Clients() after Unsubscribe = %d; want 0", h.Clients())
	}
	if _, ok := <-c; ok {
		t.Error("channel should be closed after Unsubscribe")
	}
	// A second unsubscribe must not panic on the closed channel.
	h.Unsubscribe(c)
}

func TestPublishDropsWhenFull(t *testing.T) {
	h := NewHub(1)
	c, _ := h.Subscribe()
	defer h.Unsubscribe(c)

	for i := 0; i < ClientBuffer+3; i++ {
		h.Publish(Event{Type: RenderCreated, ID: "x"})
	}
	if len(c) != ClientBuffer {
		t.Errorf("queued = %d; want %d", len(c), ClientBuffer)
	}
	if got := h.Stats()["dropped_events"]; got != int64(3) {
		t.Errorf("dropped_events = %v; want 3", got)
	}
}

func TestCloseDisconnects(t *testing.T) {
	h := NewHub(2)
	c, _ := h.Subscribe()
	h.Close()
	if _, ok := <-c; ok {
		t.Error("channel should be closed by Close")
	}
	if _, ok := h.Subscribe(); ok {
		t.Error("Subscribe() after Close should fail")
	}
	h.Publish(Event{Type: RenderDeleted}) // ignored
	h.Close()                             // idempotent
}

func TestFormatEvent(t *testing.T) {
	msg, err := formatEvent(Event{Type: RenderDeleted, ID: "abc"})
	if err != nil {
		t.Fatalf("formatEvent() error = %v", err)
	}
	if !strings.HasPrefix(msg, "event: render.deleted\ndata: {") {
		t.Errorf("formatEvent() = %q", msg)
	}
	if !strings.Contains(msg, `"id":"abc"`) || !strings.HasSuffix(msg, "\n\n") {
		t.Errorf("formatEvent() = %q", msg)
	}
}

func TestServeHTTPDeliversEvents(t *testing.T) {
	h := NewHub(4)
	srv := httptest.NewServer(h)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}

	r := bufio.NewReader(resp.Body)
	line, err := r.ReadString('\n')
	if err != nil || line != ": connected\n" {
		t.Fatalf("first line = %q, err = %v", line, err)
	}

	h.Publish(Event{Type: RenderCreated, ID: "r1", Title: "shark"})
	for {
		line, err = r.ReadString('\n')
		if err != nil {
			t.Fatalf("read error = %v", err)
		}
		if strings.HasPrefix(line, "event: ") {
			break
		}
	}
	if line != "event: render.created\n" {
		t.Errorf("event line = %q", line)
	}
	data, _ := r.ReadString('\n')
	if !strings.Contains(data, `"id":"r1"`) {
		t.Errorf("data line = %q", data)
	}
}

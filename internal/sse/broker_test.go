package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker()
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestPublishDelivery(t *testing.T) {
	b := NewBroker()
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: "source.indexed", Data: map[string]string{"path": "a.txt"}})

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: source.indexed") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"path":"a.txt"`) {
			t.Errorf("missing data in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestPublishSourceEvent_Kinds(t *testing.T) {
	b := NewBroker()
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishSourceEvent("indexed", "a.txt")
	b.PublishSourceEvent("removed", "a.txt")

	want := []string{"source.indexed", "source.removed"}
	for _, w := range want {
		select {
		case msg := <-ch:
			if !strings.Contains(string(msg), w) {
				t.Errorf("message %q missing %q", msg, w)
			}
		case <-time.After(time.Second):
			t.Fatalf("timeout waiting for %s", w)
		}
	}
}

func TestPublishAfterClose(t *testing.T) {
	b := NewBroker()
	b.Close()
	// Must not panic or block.
	b.Publish(Event{Type: "source.indexed"})
	b.PublishSourceEvent("removed", "x.txt")
	if b.ClientCount() != 0 {
		t.Error("closed broker reported clients")
	}
}

func TestServeHTTP_StreamsEvents(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(rec, req)
		close(done)
	}()

	// Wait for the subscription to land, then publish.
	deadline := time.Now().Add(2 * time.Second)
	for b.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	b.PublishSourceEvent("indexed", "streamed.txt")
	time.Sleep(100 * time.Millisecond)
	cancel()
	<-done

	body := rec.Body.String()
	if !strings.Contains(body, "event: source.indexed") {
		t.Errorf("stream missing event: %q", body)
	}
	if got := rec.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("content type = %q", got)
	}
}

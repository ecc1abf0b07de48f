package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"assetwatch/internal/assetbus"
	"assetwatch/internal/feed"
	"assetwatch/internal/httpapi"
	"assetwatch/internal/tracker"
	"assetwatch/internal/waiter"
	"assetwatch/pkg/types"
)

// processor is a fake asset processor streaming whatever is sent on events.
type processor struct {
	srv       *httptest.Server
	events    chan types.AssetEvent
	connected chan struct{}
}

func newProcessor(t *testing.T) *processor {
	t.Helper()
	p := &processor{events: make(chan types.AssetEvent, 16), connected: make(chan struct{}, 1)}
	upgrader := websocket.Upgrader{}
	p.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		select {
		case p.connected <- struct{}{}:
		default:
		}
		gone := make(chan struct{})
		go func() {
			defer close(gone)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
		for {
			select {
			case <-gone:
				return
			case e := <-p.events:
				if err := conn.WriteJSON(e); err != nil {
					return
				}
			}
		}
	}))
	t.Cleanup(p.srv.Close)
	return p
}

func (p *processor) url() string { return "ws" + strings.TrimPrefix(p.srv.URL, "http") }

func (p *processor) emit(typ, path string) { p.events <- types.AssetEvent{Type: typ, Path: path} }

// stack is the serve wiring: bus, tracker, HTTP API and an optional feed.
type stack struct {
	srv *httptest.Server
	tr  *tracker.Tracker
	bus *assetbus.Bus
}

func newStack(t *testing.T, feedURL string) *stack {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	bus := assetbus.NewBus()
	tr := tracker.New(bus)
	srv := httptest.NewServer(httpapi.NewMux(tr, bus))
	done := make(chan struct{})
	if feedURL != "" {
		go func() {
			defer close(done)
			_ = feed.Follow(ctx, feedURL, bus, feed.Hooks{}, 20*time.Millisecond)
		}()
	} else {
		close(done)
	}
	t.Cleanup(func() {
		cancel()
		<-done
		srv.Close()
		_ = tr.Close()
	})
	return &stack{srv: srv, tr: tr, bus: bus}
}

func httpGet(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil { t.Fatalf("new req: %v", err) }
	resp, err := http.DefaultClient.Do(req)
	if err != nil { t.Fatalf("do req: %v", err) }
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}

func httpPostJSON(t *testing.T, url string, payload []byte) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if payload != nil {
		r = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, r)
	if err != nil { t.Fatalf("new req: %v", err) }
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil { t.Fatalf("do req: %v", err) }
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}

func mustStatus(t *testing.T, resp *http.Response, body []byte, want int) {
	t.Helper()
	if resp.StatusCode != want { t.Fatalf("status=%d want %d body=%s", resp.StatusCode, want, string(body)) }
}

func finished(t *testing.T, base string) types.FinishedResponse {
	t.Helper()
	resp, body := httpGet(t, base+"/finished")
	mustStatus(t, resp, body, http.StatusOK)
	var fr types.FinishedResponse
	if err := json.Unmarshal(body, &fr); err != nil { t.Fatalf("decode finished: %v", err) }
	return fr
}

func status(t *testing.T, base string) types.StatusResponse {
	t.Helper()
	resp, body := httpGet(t, base+"/status")
	mustStatus(t, resp, body, http.StatusOK)
	var st types.StatusResponse
	if err := json.Unmarshal(body, &st); err != nil { t.Fatalf("decode status: %v", err) }
	return st
}

// eventually polls cond until it holds or a few seconds pass.
func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := waiter.Until(ctx, 10*time.Millisecond, func(context.Context) (bool, error) { return cond(), nil })
	if err != nil { t.Fatalf("%s: %v", what, err) }
}

package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"assetwatch/internal/assetbus"
	"assetwatch/internal/tracker"
	"assetwatch/pkg/types"
)

type mockService struct {
	starts, stops int
	expected      map[string]uint32
	outstanding   []string
	outCalls      int
	snap          tracker.Snapshot
}

func (m *mockService) StartTracking() { m.starts++ }
func (m *mockService) StopTracking()  { m.stops++ }
func (m *mockService) ExpectAsset(path string, count uint32) {
	if m.expected == nil { m.expected = map[string]uint32{} }
	m.expected[path] += count
}
func (m *mockService) Outstanding() []string {
	m.outCalls++
	return m.outstanding
}
func (m *mockService) Snapshot() tracker.Snapshot     { return m.snap }

// newLive wires a real tracker to a bus the way serve does.
func newLive(t *testing.T) (http.Handler, *tracker.Tracker) {
	t.Helper()
	bus := assetbus.NewBus()
	tr := tracker.New(bus)
	t.Cleanup(func() { _ = tr.Close() })
	return NewMux(tr, bus), tr
}

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestTrackingStartStop(t *testing.T) {
	svc := &mockService{}
	h := NewMux(svc, assetbus.NewMemoryPublisher())
	if w := do(h, http.MethodPost, "/tracking/start", ""); w.Code != http.StatusNoContent { t.Fatalf("start status=%d", w.Code) }
	if w := do(h, http.MethodPost, "/tracking/stop", ""); w.Code != http.StatusNoContent { t.Fatalf("stop status=%d", w.Code) }
	if svc.starts != 1 || svc.stops != 1 { t.Fatalf("starts=%d stops=%d", svc.starts, svc.stops) }
}

func TestExpect_DefaultCountIsOne(t *testing.T) {
	svc := &mockService{}
	h := NewMux(svc, assetbus.NewMemoryPublisher())
	if w := do(h, http.MethodPost, "/expect", `{"path":"Models/Foo.fbx"}`); w.Code != http.StatusNoContent { t.Fatalf("status=%d body=%s", w.Code, w.Body.String()) }
	if w := do(h, http.MethodPost, "/expect", `{"path":"Models/Foo.fbx","count":3}`); w.Code != http.StatusNoContent { t.Fatalf("status=%d", w.Code) }
	if w := do(h, http.MethodPost, "/expect", `{"path":"Models/Foo.fbx","count":0}`); w.Code != http.StatusNoContent { t.Fatalf("status=%d", w.Code) }
	if got := svc.expected["Models/Foo.fbx"]; got != 4 { t.Fatalf("expected count 4, got %d", got) }
}

func TestExpect_BadRequests(t *testing.T) {
	svc := &mockService{}
	h := NewMux(svc, assetbus.NewMemoryPublisher())
	if w := do(h, http.MethodPost, "/expect", `not-json`); w.Code != http.StatusBadRequest { t.Fatalf("status=%d", w.Code) }
	if w := do(h, http.MethodPost, "/expect", `{"path":"a","count":-1}`); w.Code != http.StatusBadRequest { t.Fatalf("negative count status=%d", w.Code) }

	req := httptest.NewRequest(http.MethodPost, "/expect", bytes.NewBufferString(`{"path":"a"}`))
	req.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusUnsupportedMediaType { t.Fatalf("status=%d", w.Code) }
	var body types.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil { t.Fatalf("json: %v", err) }
	if body.Code != http.StatusUnsupportedMediaType || body.Error == "" { t.Fatalf("unexpected error body: %+v", body) }
	if len(svc.expected) != 0 { t.Fatalf("no expectation should be recorded: %+v", svc.expected) }
}

func TestExpect_BodyTooLarge(t *testing.T) {
	defer SetMaxBodyBytes(0)
	SetMaxBodyBytes(16)
	h := NewMux(&mockService{}, assetbus.NewMemoryPublisher())
	w := do(h, http.MethodPost, "/expect", `{"path":"`+strings.Repeat("a", 64)+`"}`)
	if w.Code != http.StatusBadRequest { t.Fatalf("expected 400 for too-large body, got %d", w.Code) }
}

func TestFinished(t *testing.T) {
	svc := &mockService{outstanding: []string{"x"}}
	h := NewMux(svc, assetbus.NewMemoryPublisher())
	w := do(h, http.MethodGet, "/finished", "")
	if w.Code != http.StatusOK { t.Fatalf("status=%d", w.Code) }
	var body types.FinishedResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil { t.Fatalf("json: %v", err) }
	if body.Finished || len(body.Outstanding) != 1 || body.Outstanding[0] != "x" { t.Fatalf("unexpected body: %+v", body) }

	svc.outstanding = nil
	w = do(h, http.MethodGet, "/finished", "")
	if !strings.Contains(w.Body.String(), `"outstanding":[]`) { t.Fatalf("expected empty outstanding array, body=%s", w.Body.String()) }
	if !strings.Contains(w.Body.String(), `"finished":true`) { t.Fatalf("expected finished, body=%s", w.Body.String()) }
}

func TestFinished_ReadsTableOnce(t *testing.T) {
	svc := &mockService{}
	h := NewMux(svc, assetbus.NewMemoryPublisher())
	for _, out := range [][]string{{"a", "b"}, nil} {
		svc.outstanding, svc.outCalls = out, 0
		w := do(h, http.MethodGet, "/finished", "")
		var body types.FinishedResponse
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil { t.Fatalf("json: %v", err) }
		if svc.outCalls != 1 { t.Fatalf("table read %d times", svc.outCalls) }
		if body.Finished != (len(body.Outstanding) == 0) { t.Fatalf("finished and outstanding disagree: %+v", body) }
	}
}

func TestStatus(t *testing.T) {
	svc := &mockService{snap: tracker.Snapshot{Tracking: true, Assets: []tracker.AssetStatus{
		{Key: "a", Record: tracker.Record{Expected: 2, Started: 1, Succeeded: 1}},
	}}}
	h := NewMux(svc, assetbus.NewMemoryPublisher())
	w := do(h, http.MethodGet, "/status", "")
	if w.Code != http.StatusOK { t.Fatalf("status=%d", w.Code) }
	var body types.StatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil { t.Fatalf("json: %v", err) }
	if !body.Tracking || len(body.Assets) != 1 { t.Fatalf("unexpected body: %+v", body) }
	if a := body.Assets[0]; a.Key != "a" || a.Expected != 2 || a.Succeeded != 1 || !a.Outstanding { t.Fatalf("unexpected asset: %+v", a) }
}

func TestPostEvent_Publishes(t *testing.T) {
	pub := assetbus.NewMemoryPublisher()
	h := NewMux(&mockService{}, pub)
	if w := do(h, http.MethodPost, "/events", `{"type":"success","path":"A.txt"}`); w.Code != http.StatusAccepted { t.Fatalf("status=%d body=%s", w.Code, w.Body.String()) }
	if w := do(h, http.MethodPost, "/events", `{"type":"melted","path":"A.txt"}`); w.Code != http.StatusBadRequest { t.Fatalf("unknown type status=%d", w.Code) }
	evts := pub.Events()
	if len(evts) != 1 || evts[0].Kind != assetbus.KindSucceeded || evts[0].Path != "A.txt" { t.Fatalf("events=%+v", evts) }
}

func TestLive_ScenarioOverHTTP(t *testing.T) {
	h, tr := newLive(t)
	do(h, http.MethodPost, "/tracking/start", "")
	do(h, http.MethodPost, "/expect", `{"path":"a.txt","count":2}`)
	do(h, http.MethodPost, "/events", `{"type":"started","path":"a.txt"}`)
	do(h, http.MethodPost, "/events", `{"type":"succeeded","path":"a.txt"}`)
	if tr.DidExpectedAssetsFinish() { t.Fatalf("1 of 2 should not be finished") }

	do(h, http.MethodPost, "/events", `{"type":"failed","path":"A.TXT"}`)
	w := do(h, http.MethodGet, "/finished", "")
	var body types.FinishedResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil { t.Fatalf("json: %v", err) }
	if !body.Finished { t.Fatalf("expected finished, got %+v", body) }

	// After stop the tracker is unsubscribed: events no longer land in the table.
	do(h, http.MethodPost, "/tracking/stop", "")
	do(h, http.MethodPost, "/events", `{"type":"started","path":"late"}`)
	if n := len(tr.Snapshot().Assets); n != 0 { t.Fatalf("expected empty table after stop, got %d", n) }
}

func TestSecurityHeaderAndHealthz(t *testing.T) {
	h := NewMux(&mockService{}, assetbus.NewMemoryPublisher())
	w := do(h, http.MethodGet, "/healthz", "")
	if w.Code != http.StatusOK || w.Body.String() != "ok" { t.Fatalf("healthz status=%d body=%q", w.Code, w.Body.String()) }
	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" { t.Fatalf("expected nosniff, got %q", got) }
}

func TestCORSHeaders(t *testing.T) {
	SetCORSOptions(true, []string{"*"}, []string{"GET", "POST", "OPTIONS"}, []string{"Content-Type"})
	defer SetCORSOptions(false, nil, nil, nil)

	h := NewMux(&mockService{}, assetbus.NewMemoryPublisher())
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set("Origin", "http://example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got == "" {
		t.Fatalf("expected CORS header Access-Control-Allow-Origin to be set, got empty")
	}
}

func TestSwaggerDocJSON(t *testing.T) {
	h := NewMux(&mockService{}, assetbus.NewMemoryPublisher())
	w := do(h, http.MethodGet, "/swagger/doc.json", "")
	if w.Code != http.StatusOK { t.Fatalf("status=%d", w.Code) }
	var doc struct {
		Info  struct{ Title string } `json:"info"`
		Paths map[string]json.RawMessage `json:"paths"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil { t.Fatalf("doc.json: %v", err) }
	if doc.Info.Title != "assetwatch API" { t.Fatalf("title=%q", doc.Info.Title) }
	for _, p := range []string{"/tracking/start", "/tracking/stop", "/expect", "/finished", "/status", "/events", "/events/ws"} {
		if _, ok := doc.Paths[p]; !ok { t.Fatalf("swagger doc is missing %s", p) }
	}
}

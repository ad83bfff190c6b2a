package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"paramexport/pkg/types"
)

type recordingRun struct {
	mu    sync.Mutex
	docs  []string
	block chan struct{}
}

func (r *recordingRun) run(doc string, args map[string]string) {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	r.docs = append(r.docs, doc)
	r.mu.Unlock()
}

func postJSON(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/workitems", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func waitStatus(t *testing.T, q *Queue, id, want string) types.WorkItemStatus {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		st, ok := q.Status(id)
		if !ok { t.Fatalf("unknown id %s", id) }
		if st.Status == want { return st }
		if time.Now().After(deadline) { t.Fatalf("status=%s want %s", st.Status, want) }
		time.Sleep(2 * time.Millisecond)
	}
}

func TestSubmitAndStatus(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "Result.ipt")
	rr := &recordingRun{}
	q := NewQueue(4, func(doc string, args map[string]string) {
		rr.run(doc, args)
		_ = os.WriteFile(out, nil, 0o644)
	}, func(string) []string { return []string{out, filepath.Join(dir, "Result.bmp")} })
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)
	h := NewMux(q, Options{Logger: zerolog.Nop()})

	w := postJSON(t, h, `{"document":"/w/SquarePeg.ipt","arguments":{"_1":"/w/params.json"}}`)
	if w.Code != http.StatusAccepted { t.Fatalf("status=%d body=%s", w.Code, w.Body.String()) }
	var st types.WorkItemStatus
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil { t.Fatalf("json: %v", err) }
	if st.ID == "" || st.Document != "/w/SquarePeg.ipt" { t.Fatalf("unexpected status: %+v", st) }

	done := waitStatus(t, q, st.ID, StatusFinished)
	if len(done.Outputs) != 1 || done.Outputs[0] != out { t.Fatalf("outputs=%v", done.Outputs) }
	if done.FinishedAt == 0 { t.Fatalf("finished_at not set") }

	gw := httptest.NewRecorder()
	h.ServeHTTP(gw, httptest.NewRequest(http.MethodGet, "/workitems/"+st.ID, nil))
	if gw.Code != http.StatusOK || !strings.Contains(gw.Body.String(), `"finished"`) { t.Fatalf("get status=%d body=%s", gw.Code, gw.Body.String()) }
}

func TestStatusIgnoresOutputsFromEarlierRuns(t *testing.T) {
	dir := t.TempDir()
	ipt := filepath.Join(dir, "Result.ipt")
	bmp := filepath.Join(dir, "Result.bmp")
	if err := os.WriteFile(bmp, []byte("old"), 0o644); err != nil { t.Fatalf("write: %v", err) }
	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(bmp, old, old); err != nil { t.Fatalf("chtimes: %v", err) }
	// The run saves the part and then fails before rendering.
	q := NewQueue(1, func(string, map[string]string) {
		_ = os.WriteFile(ipt, nil, 0o644)
	}, func(string) []string { return []string{ipt, bmp} })
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)

	st, err := q.Submit(types.WorkItemRequest{Document: "/w/SquarePeg.ipt"})
	if err != nil { t.Fatalf("submit: %v", err) }
	done := waitStatus(t, q, st.ID, StatusFinished)
	if len(done.Outputs) != 1 || done.Outputs[0] != ipt { t.Fatalf("outputs=%v", done.Outputs) }
}

func TestSubmitValidation(t *testing.T) {
	q := NewQueue(1, func(string, map[string]string) {}, nil)
	h := NewMux(q, Options{Logger: zerolog.Nop()})

	req := httptest.NewRequest(http.MethodPost, "/workitems", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusUnsupportedMediaType { t.Fatalf("status=%d", w.Code) }

	if w := postJSON(t, h, `{`); w.Code != http.StatusBadRequest { t.Fatalf("status=%d", w.Code) }
	if w := postJSON(t, h, `{"document":"  "}`); w.Code != http.StatusBadRequest { t.Fatalf("status=%d", w.Code) }

	nf := httptest.NewRecorder()
	h.ServeHTTP(nf, httptest.NewRequest(http.MethodGet, "/workitems/nope", nil))
	if nf.Code != http.StatusNotFound { t.Fatalf("status=%d", nf.Code) }
}

func TestQueueFullReturns429(t *testing.T) {
	rr := &recordingRun{block: make(chan struct{})}
	q := NewQueue(1, rr.run, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)
	h := NewMux(q, Options{Logger: zerolog.Nop()})

	first := postJSON(t, h, `{"document":"/w/a.ipt"}`)
	var st types.WorkItemStatus
	_ = json.Unmarshal(first.Body.Bytes(), &st)
	waitStatus(t, q, st.ID, StatusRunning)
	if w := postJSON(t, h, `{"document":"/w/b.ipt"}`); w.Code != http.StatusAccepted { t.Fatalf("second status=%d", w.Code) }
	if w := postJSON(t, h, `{"document":"/w/c.ipt"}`); w.Code != http.StatusTooManyRequests { t.Fatalf("third status=%d", w.Code) }

	close(rr.block)
	q.Close()
	rr.mu.Lock()
	defer rr.mu.Unlock()
	if len(rr.docs) != 2 || rr.docs[0] != "/w/a.ipt" || rr.docs[1] != "/w/b.ipt" { t.Fatalf("runs=%v", rr.docs) }
}

func TestClosedQueue(t *testing.T) {
	q := NewQueue(1, func(string, map[string]string) {}, nil)
	q.Close()
	h := NewMux(q, Options{Logger: zerolog.Nop()})
	if w := postJSON(t, h, `{"document":"/w/a.ipt"}`); w.Code != http.StatusServiceUnavailable { t.Fatalf("status=%d", w.Code) }
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusServiceUnavailable { t.Fatalf("readyz=%d", w.Code) }
}

func TestHealthMetricsAndSwagger(t *testing.T) {
	q := NewQueue(1, func(string, map[string]string) {}, nil)
	h := NewMux(q, Options{Logger: zerolog.Nop(), Swagger: true, CORSOrigins: []string{"http://ui.local"}})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK || w.Body.String() != "ok" { t.Fatalf("healthz=%d %q", w.Code, w.Body.String()) }

	m := httptest.NewRecorder()
	h.ServeHTTP(m, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !bytes.Contains(m.Body.Bytes(), []byte("paramexport_http_requests_total")) { t.Fatalf("metrics missing request counter") }

	s := httptest.NewRecorder()
	h.ServeHTTP(s, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
	if s.Code != http.StatusOK || !strings.Contains(s.Body.String(), "/workitems") { t.Fatalf("swagger=%d", s.Code) }

	pre := httptest.NewRequest(http.MethodOptions, "/workitems", nil)
	pre.Header.Set("Origin", "http://ui.local")
	pre.Header.Set("Access-Control-Request-Method", http.MethodPost)
	c := httptest.NewRecorder()
	h.ServeHTTP(c, pre)
	if c.Header().Get("Access-Control-Allow-Origin") != "http://ui.local" { t.Fatalf("cors headers=%v", c.Header()) }
}

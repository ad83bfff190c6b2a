package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"paramexport/internal/automation"
	"paramexport/internal/export"
	"paramexport/internal/httpapi"
	"paramexport/internal/localengine"
	"paramexport/internal/logx"
	"paramexport/pkg/types"
)

// newServer wires the real runner, engine and router behind an httptest server.
func newServer(t *testing.T, eng *localengine.Engine, log logx.Logger) *httptest.Server {
	t.Helper()
	runner := automation.Runner{Log: log, Interval: time.Hour}
	q := httpapi.NewQueue(4,
		func(doc string, args map[string]string) { runner.RunPath(eng, doc, args) },
		func(doc string) []string { return export.ExpectedOutputs(localengine.KindForPath(doc), doc) },
	)
	ctx, cancel := context.WithCancel(context.Background())
	q.Start(ctx)
	srv := httptest.NewServer(httpapi.NewMux(q, httpapi.Options{Logger: zerolog.Nop()}))
	t.Cleanup(func() {
		srv.Close()
		q.Close()
		cancel()
	})
	return srv
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
	return p
}

func submit(t *testing.T, base string, req types.WorkItemRequest) types.WorkItemStatus {
	t.Helper()
	b, _ := json.Marshal(req)
	resp, err := http.Post(base+"/workitems", "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("submit status=%d body=%s", resp.StatusCode, body)
	}
	var st types.WorkItemStatus
	if err := json.Unmarshal(body, &st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return st
}

func waitFinished(t *testing.T, base, id string) types.WorkItemStatus {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		resp, err := http.Get(base + "/workitems/" + id)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		var st types.WorkItemStatus
		err = json.NewDecoder(resp.Body).Decode(&st)
		resp.Body.Close()
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if st.Status == httpapi.StatusFinished {
			return st
		}
		if time.Now().After(deadline) {
			t.Fatalf("work item %s still %s", id, st.Status)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

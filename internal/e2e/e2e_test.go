package e2e

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"paramexport/internal/export"
	"paramexport/internal/localengine"
	"paramexport/internal/logx"
	"paramexport/pkg/types"
)

func TestWorkItemPart(t *testing.T) {
	work := t.TempDir()
	doc, err := localengine.WriteModel(work, "SquarePeg.ipt", [][2]string{{"SquarePegSize", "0.25 in"}})
	if err != nil { t.Fatalf("model: %v", err) }
	cs := writeFile(t, t.TempDir(), "params.json", `{"SquarePegSize":"0.24 in"}`)

	mem := logx.NewMemory()
	srv := newServer(t, localengine.New(), mem)
	st := submit(t, srv.URL, types.WorkItemRequest{Document: doc, Arguments: map[string]string{"_1": cs}})
	done := waitFinished(t, srv.URL, st.ID)

	want := export.ExpectedOutputs(types.KindPart, doc)
	if len(done.Outputs) != 2 || done.Outputs[0] != want[0] || done.Outputs[1] != want[1] { t.Fatalf("outputs=%v", done.Outputs) }
	if len(mem.Errors()) != 0 { t.Fatalf("errors=%+v", mem.Errors()) }
}

func TestWorkItemAssembly(t *testing.T) {
	root := t.TempDir()
	work := filepath.Join(root, "Assy")
	if err := os.MkdirAll(work, 0o755); err != nil { t.Fatalf("mkdir: %v", err) }
	doc, _ := localengine.WriteModel(work, "Top.iam", [][2]string{{"Spacing", "10 mm"}})
	cs := writeFile(t, t.TempDir(), "params.json", `{"Spacing":"11 mm"}`)

	eng := localengine.New()
	srv := newServer(t, eng, logx.NewMemory())
	done := waitFinished(t, srv.URL, submit(t, srv.URL, types.WorkItemRequest{Document: doc, Arguments: map[string]string{"_1": cs}}).ID)

	if len(done.Outputs) != 1 || done.Outputs[0] != filepath.Join(root, export.ArchiveFileName) { t.Fatalf("outputs=%v", done.Outputs) }
	if eng.IsOpen(doc) { t.Fatalf("assembly left open") }
}

func TestWorkItemPartialOutputsOnFailure(t *testing.T) {
	work := t.TempDir()
	doc, _ := localengine.WriteModel(work, "SquarePeg.ipt", [][2]string{{"SquarePegSize", "0.25 in"}})
	cs := writeFile(t, t.TempDir(), "params.json", `{"SquarePegSize":"0.3 in"}`)
	eng := localengine.New()
	eng.Faults.Render = errors.New("renderer unavailable")

	mem := logx.NewMemory()
	srv := newServer(t, eng, mem)
	done := waitFinished(t, srv.URL, submit(t, srv.URL, types.WorkItemRequest{Document: doc, Arguments: map[string]string{"_1": cs}}).ID)

	if len(done.Outputs) != 1 || filepath.Base(done.Outputs[0]) != export.PartFileName { t.Fatalf("outputs=%v", done.Outputs) }
	if got := len(mem.Messages("run failed")); got != 1 { t.Fatalf("run failed records=%d", got) }
}

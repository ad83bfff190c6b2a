package params

import (
	"errors"
	"testing"

	"paramexport/internal/engine"
	"paramexport/internal/localengine"
	"paramexport/internal/logx"
	"paramexport/pkg/types"
)

// countingDoc records engine calls made against a wrapped document.
type countingDoc struct {
	engine.Document
	kind    types.DocumentKind
	updates int
	saves   int
	tables  int
}

func (c *countingDoc) Kind() types.DocumentKind { return c.kind }
func (c *countingDoc) Update() error            { c.updates++; return c.Document.Update() }
func (c *countingDoc) Save() error              { c.saves++; return c.Document.Save() }
func (c *countingDoc) Parameters() engine.ParameterTable {
	c.tables++
	return c.Document.Parameters()
}

func openPart(t *testing.T, kind types.DocumentKind) (*localengine.Engine, *countingDoc) {
	t.Helper()
	p, err := localengine.WriteModel(t.TempDir(), "SquarePeg.ipt", [][2]string{
		{"SquarePegSize", "0.25 in"}, {"Height", "2 in"}, {"Chamfer", "1 mm"},
	})
	if err != nil { t.Fatalf("write model: %v", err) }
	eng := localengine.New()
	doc, err := eng.Open(p)
	if err != nil { t.Fatalf("open: %v", err) }
	return eng, &countingDoc{Document: doc, kind: kind}
}

func TestApplySetsExpression(t *testing.T) {
	_, doc := openPart(t, types.KindPart)
	res, err := Pipeline{Log: logx.NewMemory()}.Apply(doc, types.ChangeSet{{Name: "SquarePegSize", Expression: "0.24 in"}})
	if err != nil { t.Fatalf("apply: %v", err) }
	if res.Updated != 1 || len(res.Failed) != 0 { t.Fatalf("res=%+v", res) }
	p, _ := doc.Parameters().Lookup("SquarePegSize")
	if p.Expression != "0.24 in" { t.Fatalf("expression=%q", p.Expression) }
}

func TestApplyPartialFailure(t *testing.T) {
	_, doc := openPart(t, types.KindAssembly)
	mem := logx.NewMemory()
	cs := types.ChangeSet{
		{Name: "SquarePegSize", Expression: "0.3 in"},
		{Name: "NoSuchParam", Expression: "1 in"},
		{Name: "Height", Expression: "tall"},
		{Name: "Chamfer", Expression: "2 mm"},
	}
	res, err := Pipeline{Log: mem}.Apply(doc, cs)
	if err != nil { t.Fatalf("apply: %v", err) }
	if res.Updated != 2 || len(res.Failed) != 2 { t.Fatalf("updated=%d failed=%d", res.Updated, len(res.Failed)) }
	if !res.Failed[0].Missing || res.Failed[0].Name != "NoSuchParam" { t.Fatalf("first failure: %+v", res.Failed[0]) }
	if res.Failed[1].Missing || res.Failed[1].Name != "Height" { t.Fatalf("second failure: %+v", res.Failed[1]) }
	if got := len(mem.Messages("parameter update failed")); got != 2 { t.Fatalf("error logs=%d", got) }
	if len(mem.Errors()) != 2 { t.Fatalf("unexpected extra errors: %+v", mem.Errors()) }
	if doc.updates != 1 || doc.saves != 1 { t.Fatalf("updates=%d saves=%d", doc.updates, doc.saves) }
	for _, f := range res.Failed {
		if !IsParameterUpdate(f) { t.Fatalf("not a ParameterUpdateError: %v", f) }
	}
	p, _ := doc.Parameters().Lookup("Chamfer")
	if p.Expression != "2 mm" { t.Fatalf("valid pair after failures not applied: %q", p.Expression) }
}

func TestApplyUnknownKind(t *testing.T) {
	_, doc := openPart(t, types.KindUnknown)
	mem := logx.NewMemory()
	_, err := Pipeline{Log: mem}.Apply(doc, types.ChangeSet{{Name: "SquarePegSize", Expression: "0.24 in"}})
	if !IsDocumentType(err) { t.Fatalf("expected DocumentTypeError, got %v", err) }
	if doc.tables != 0 || doc.updates != 0 || doc.saves != 0 {
		t.Fatalf("document touched: tables=%d updates=%d saves=%d", doc.tables, doc.updates, doc.saves)
	}
	_, doc = openPart(t, types.DocumentKind(42))
	if _, err := (Pipeline{}).Apply(doc, nil); !IsDocumentType(err) { t.Fatalf("expected DocumentTypeError, got %v", err) }
}

func TestApplySaveFailure(t *testing.T) {
	eng, doc := openPart(t, types.KindPart)
	boom := errors.New("read-only volume")
	eng.Faults.Save = boom
	_, err := Pipeline{}.Apply(doc, types.ChangeSet{{Name: "Height", Expression: "3 in"}})
	if !engine.IsOperation(err) || !errors.Is(err, boom) { t.Fatalf("err=%v", err) }
}

func TestErrorMessages(t *testing.T) {
	e := &ParameterUpdateError{Name: "A", Missing: true}
	if e.Error() != "parameter not found: A" { t.Fatalf("msg=%q", e.Error()) }
	e = &ParameterUpdateError{Name: "A", Expression: "x", Err: errors.New("bad")}
	if e.Error() != `set A = "x": bad` { t.Fatalf("msg=%q", e.Error()) }
	de := &DocumentTypeError{Kind: types.KindUnknown, Path: "/w/a.idw"}
	if de.Error() != "unsupported document type unknown: /w/a.idw" { t.Fatalf("msg=%q", de.Error()) }
}

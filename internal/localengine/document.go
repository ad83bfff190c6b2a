package localengine

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	toml "github.com/pelletier/go-toml/v2"

	"paramexport/internal/engine"
	"paramexport/pkg/types"
)

// Document is an open model file.
type Document struct {
	eng  *Engine
	path string
	kind types.DocumentKind

	mu         sync.Mutex
	params     []engine.Parameter
	index      map[string]int
	pending    map[string]string
	components []string
	closed     bool
}

func (d *Document) Kind() types.DocumentKind { return d.kind }
func (d *Document) FullPath() string         { return d.path }

func (d *Document) Parameters() engine.ParameterTable { return table{d} }

// Pending returns the number of uncommitted parameter edits.
func (d *Document) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Closed reports whether Close succeeded.
func (d *Document) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

func (d *Document) Update() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	if err := d.eng.Faults.Update; err != nil {
		return err
	}
	for name, expr := range d.pending {
		i := d.index[name]
		p := d.params[i]
		v, err := evaluate(expr, p.Units)
		if err != nil {
			return fmt.Errorf("recompute %s: %w", name, err)
		}
		p.Expression, p.Value = expr, v
		d.params[i] = p
	}
	d.pending = nil
	return nil
}

func (d *Document) Save() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	if err := d.eng.Faults.Save; err != nil {
		return err
	}
	return d.writeLocked(d.path)
}

// SaveAs writes a copy of the document to path. The document keeps its own path.
func (d *Document) SaveAs(path string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	if err := d.eng.Faults.SaveAs; err != nil {
		return err
	}
	return d.writeLocked(path)
}

func (d *Document) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	if err := d.eng.Faults.Close; err != nil {
		d.mu.Unlock()
		return err
	}
	d.closed = true
	d.mu.Unlock()
	d.eng.release(d.path)
	return nil
}

func (d *Document) RenderSnapshot(path string, opts engine.SnapshotOptions) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	if err := d.eng.Faults.Render; err != nil {
		return err
	}
	return writeSnapshot(path, opts, d.params)
}

func (d *Document) writeLocked(path string) error {
	mf := modelFile{Components: d.components}
	for _, p := range d.params {
		mf.Parameters = append(mf.Parameters, paramRecord{Name: p.Name, Expression: p.Expression, Units: p.Units})
	}
	b, err := toml.Marshal(mf)
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	return os.WriteFile(path, b, 0o644)
}

type table struct{ d *Document }

func (t table) Lookup(name string) (engine.Parameter, bool) {
	t.d.mu.Lock()
	defer t.d.mu.Unlock()
	i, ok := t.d.index[name]
	if !ok {
		return engine.Parameter{}, false
	}
	return t.d.params[i], true
}

// SetExpression checks expr against the parameter's units and schedules it for
// the next Update.
func (t table) SetExpression(name, expr string) error {
	t.d.mu.Lock()
	defer t.d.mu.Unlock()
	if t.d.closed {
		return ErrClosed
	}
	i, ok := t.d.index[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrParameterNotFound, name)
	}
	if _, err := evaluate(expr, t.d.params[i].Units); err != nil {
		return err
	}
	if t.d.pending == nil {
		t.d.pending = make(map[string]string)
	}
	t.d.pending[name] = expr
	return nil
}

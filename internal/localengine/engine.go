package localengine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	toml "github.com/pelletier/go-toml/v2"

	"paramexport/internal/engine"
	"paramexport/pkg/types"
)

var (
	// ErrClosed is returned by every operation on a closed document.
	ErrClosed = errors.New("document is closed")
	// ErrParameterNotFound is returned by SetExpression for a name the table does not hold.
	ErrParameterNotFound = errors.New("parameter not found")
)

// Faults makes engine calls fail on demand. Zero value injects nothing.
type Faults struct {
	Update error
	Save   error
	SaveAs error
	Close  error
	Render error
}

// Engine opens TOML model files. It tracks which documents are open.
type Engine struct {
	Faults Faults

	mu   sync.Mutex
	open map[string]*Document
}

func New() *Engine { return &Engine{open: make(map[string]*Document)} }

// KindForPath derives the document kind from the file extension.
func KindForPath(path string) types.DocumentKind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ipt":
		return types.KindPart
	case ".iam":
		return types.KindAssembly
	default:
		return types.KindUnknown
	}
}

// Open loads the model file at path. Opening an already open path returns the
// same document.
func (e *Engine) Open(path string) (engine.Document, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if d, ok := e.open[abs]; ok {
		return d, nil
	}
	b, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	d := &Document{eng: e, path: abs, kind: KindForPath(abs), index: make(map[string]int)}
	var mf modelFile
	if err := toml.Unmarshal(b, &mf); err != nil {
		if d.kind != types.KindUnknown {
			return nil, fmt.Errorf("parse %s: %w", filepath.Base(abs), err)
		}
	}
	for _, p := range mf.Parameters {
		v, err := evaluate(p.Expression, p.Units)
		if err != nil {
			return nil, fmt.Errorf("parse %s: parameter %s: %w", filepath.Base(abs), p.Name, err)
		}
		d.index[p.Name] = len(d.params)
		d.params = append(d.params, engine.Parameter{Name: p.Name, Expression: p.Expression, Value: v, Units: p.Units})
	}
	d.components = mf.Components
	e.open[abs] = d
	return d, nil
}

// IsOpen reports whether the document at path is currently open.
func (e *Engine) IsOpen(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.open[abs]
	return ok
}

func (e *Engine) release(path string) {
	e.mu.Lock()
	delete(e.open, path)
	e.mu.Unlock()
}

type modelFile struct {
	Parameters []paramRecord `toml:"parameters"`
	Components []string      `toml:"components,omitempty"`
}

type paramRecord struct {
	Name       string `toml:"name"`
	Expression string `toml:"expression"`
	Units      string `toml:"units,omitempty"`
}

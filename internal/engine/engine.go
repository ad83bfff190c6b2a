// Package engine describes what the pipelines need from the hosting CAD
// application. The host owns every Document; the pipelines only read and mutate
// them through these interfaces.
package engine

import (
	"paramexport/pkg/types"
)

// View selects the camera used for snapshots.
type View int

const (
	ViewTopRightIsometric View = iota
	ViewFront
	ViewTop
)

// SnapshotOptions configures RenderSnapshot.
type SnapshotOptions struct {
	Width  int
	Height int
	View   View
}

// Parameter is a named, document-scoped variable.
type Parameter struct {
	Name       string
	Expression string
	// Value is the evaluated expression in the engine's base unit, valid after Update.
	Value float64
	Units string
}

// ParameterTable is the live parameter collection of a document. Edits are
// pending until the owning document's Update.
type ParameterTable interface {
	Lookup(name string) (Parameter, bool)
	SetExpression(name, expression string) error
}

// Document is an open model.
type Document interface {
	Kind() types.DocumentKind
	FullPath() string
	Parameters() ParameterTable
	// Update applies pending parameter edits and recomputes dependent geometry.
	Update() error
	Save() error
	SaveAs(path string) error
	Close() error
	RenderSnapshot(path string, opts SnapshotOptions) error
}

// Engine opens documents on behalf of the host.
type Engine interface {
	Open(path string) (Document, error)
}

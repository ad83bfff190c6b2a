package types

import "fmt"

// DocumentKind tags the shape of an open CAD document.
type DocumentKind int

const (
	// KindUnknown is any document the pipelines cannot drive (drawings, presentations, ...).
	KindUnknown DocumentKind = iota
	// KindPart is a single-part model.
	KindPart
	// KindAssembly is a multi-part assembly with dependent files next to it.
	KindAssembly
)

func (k DocumentKind) String() string {
	switch k {
	case KindPart:
		return "part"
	case KindAssembly:
		return "assembly"
	case KindUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("DocumentKind(%d)", int(k))
	}
}

// ParameterChange is one name -> expression pair of a change set.
type ParameterChange struct {
	// Parameter name as it appears in the document's parameter table.
	// example: SquarePegSize
	Name string `json:"name" example:"SquarePegSize"`
	// Target expression, units included.
	// example: 0.24 in
	Expression string `json:"expression" example:"0.24 in"`
}

// ChangeSet is an ordered list of parameter changes. Order is the order of the
// source payload.
type ChangeSet []ParameterChange

// Names returns the parameter names in order.
func (cs ChangeSet) Names() []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Name
	}
	return out
}

// ArtifactKind distinguishes export outputs.
type ArtifactKind string

const (
	ArtifactDocument ArtifactKind = "document"
	ArtifactSnapshot ArtifactKind = "snapshot"
	ArtifactArchive  ArtifactKind = "archive"
)

// Artifact is a file produced by the export pipeline. Outputs are never kept in memory.
type Artifact struct {
	Kind ArtifactKind `json:"kind" example:"snapshot"`
	// Absolute path of the written file.
	// example: /work/peg/Result.bmp
	Path string `json:"path" example:"/work/peg/Result.bmp"`
}

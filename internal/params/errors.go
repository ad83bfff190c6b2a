package params

import (
	"errors"
	"fmt"

	"paramexport/pkg/types"
)

// DocumentTypeError signals a document the pipelines do not know how to drive.
// It ends the run.
type DocumentTypeError struct {
	Kind types.DocumentKind
	Path string
}

func (e *DocumentTypeError) Error() string {
	return fmt.Sprintf("unsupported document type %s: %s", e.Kind, e.Path)
}

// ParameterUpdateError is a single parameter that could not be found or whose
// expression the engine rejected. The batch continues past it.
type ParameterUpdateError struct {
	Name       string
	Expression string
	Missing    bool
	Err        error
}

func (e *ParameterUpdateError) Error() string {
	if e.Missing {
		return "parameter not found: " + e.Name
	}
	return fmt.Sprintf("set %s = %q: %v", e.Name, e.Expression, e.Err)
}

func (e *ParameterUpdateError) Unwrap() error { return e.Err }

// IsDocumentType reports whether err is or wraps a *DocumentTypeError.
func IsDocumentType(err error) bool {
	var de *DocumentTypeError
	return errors.As(err, &de)
}

// IsParameterUpdate reports whether err is or wraps a *ParameterUpdateError.
func IsParameterUpdate(err error) bool {
	var pe *ParameterUpdateError
	return errors.As(err, &pe)
}

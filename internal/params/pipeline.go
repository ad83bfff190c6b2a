// Package params applies a change set to a document's parameter table and
// commits the result.
package params

import (
	"time"

	"paramexport/internal/engine"
	"paramexport/internal/liveness"
	"paramexport/internal/logx"
	"paramexport/internal/metrics"
	"paramexport/pkg/types"
)

// Result summarizes one Apply call.
type Result struct {
	Updated int
	Failed  []*ParameterUpdateError
}

// Pipeline applies change sets. Interval is the liveness interval for the
// commit step; zero uses liveness.DefaultInterval.
type Pipeline struct {
	Log      logx.Logger
	Interval time.Duration
}

// Apply sets every expression in cs on doc, in order, then recomputes and saves
// doc once. A parameter that is missing or rejected is logged and skipped. An
// unknown document kind fails before anything is touched.
func (p Pipeline) Apply(doc engine.Document, cs types.ChangeSet) (Result, error) {
	log := logx.OrNop(p.Log)
	var res Result

	tbl, err := parameterTable(doc)
	if err != nil {
		return res, err
	}

	log.Trace("applying parameters", "document", doc.FullPath(), "count", len(cs))
	for _, c := range cs {
		if uerr := setOne(tbl, c); uerr != nil {
			metrics.ParameterUpdate(false)
			res.Failed = append(res.Failed, uerr)
			log.Error(uerr, "parameter update failed", "parameter", c.Name, "expression", c.Expression)
			continue
		}
		metrics.ParameterUpdate(true)
		res.Updated++
		log.Trace("parameter set", "parameter", c.Name, "expression", c.Expression)
	}

	log.Trace("committing document", "document", doc.FullPath())
	err = liveness.Span(log, "commit parameters", p.Interval, func() error {
		if err := doc.Update(); err != nil {
			return engine.Wrap("update", doc.FullPath(), err)
		}
		return engine.Wrap("save", doc.FullPath(), doc.Save())
	})
	if err != nil {
		return res, err
	}
	log.Trace("document committed", "document", doc.FullPath(), "updated", res.Updated, "failed", len(res.Failed))
	return res, nil
}

func parameterTable(doc engine.Document) (engine.ParameterTable, error) {
	switch k := doc.Kind(); k {
	case types.KindPart, types.KindAssembly:
		return doc.Parameters(), nil
	case types.KindUnknown:
		return nil, &DocumentTypeError{Kind: k, Path: doc.FullPath()}
	default:
		return nil, &DocumentTypeError{Kind: k, Path: doc.FullPath()}
	}
}

func setOne(tbl engine.ParameterTable, c types.ParameterChange) *ParameterUpdateError {
	if _, ok := tbl.Lookup(c.Name); !ok {
		return &ParameterUpdateError{Name: c.Name, Expression: c.Expression, Missing: true}
	}
	if err := tbl.SetExpression(c.Name, c.Expression); err != nil {
		return &ParameterUpdateError{Name: c.Name, Expression: c.Expression, Err: err}
	}
	return nil
}

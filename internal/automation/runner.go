// Package automation is the add-in entry point: it receives a document and the
// host's positional arguments, applies the change set named by "_1" and exports
// the results. Failures end the run with one error log entry; nothing is
// returned to the host.
package automation

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"paramexport/internal/engine"
	"paramexport/internal/export"
	"paramexport/internal/logx"
	"paramexport/internal/metrics"
	"paramexport/internal/params"
)

// ChangeSetArg is the positional argument holding the change-set file path.
const ChangeSetArg = "_1"

// ErrNoChangeSet is logged when the host omitted ChangeSetArg.
var ErrNoChangeSet = errors.New("missing change set argument " + ChangeSetArg)

// Runner wires the parameter and export pipelines together.
type Runner struct {
	Log logx.Logger
	// Interval between liveness records; zero uses liveness.DefaultInterval.
	Interval time.Duration
}

// Run applies the change set named by args["_1"] to doc and exports the results.
func (r Runner) Run(doc engine.Document, args map[string]string) {
	log := logx.OrNop(r.Log)
	err := r.run(log, doc, args)
	r.finish(log, doc.FullPath(), err)
}

// RunPath opens the document at path through eng, runs it and closes it again.
// Acting as the host, it owns the document it opened.
func (r Runner) RunPath(eng engine.Engine, path string, args map[string]string) {
	log := logx.OrNop(r.Log)
	doc, err := eng.Open(path)
	if err != nil {
		r.finish(log, path, engine.Wrap("open", path, err))
		return
	}
	err = r.run(log, doc, args)
	if cerr := doc.Close(); cerr != nil {
		log.Trace("close failed", "document", path, "error", cerr.Error())
	}
	r.finish(log, path, err)
}

func (r Runner) run(log logx.Logger, doc engine.Document, args map[string]string) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()

	log.Trace("run start", "document", doc.FullPath(), "kind", doc.Kind().String())
	for _, k := range sortedArgKeys(args) {
		log.Trace("argument", "key", k, "value", args[k])
	}

	path, ok := args[ChangeSetArg]
	if !ok || strings.TrimSpace(path) == "" {
		return ErrNoChangeSet
	}
	cs, err := params.LoadFile(path)
	if err != nil {
		return err
	}

	if _, err := (params.Pipeline{Log: log, Interval: r.Interval}).Apply(doc, cs); err != nil {
		return err
	}
	arts, err := export.Exporter{Log: log, Interval: r.Interval}.Export(doc)
	if err != nil {
		return err
	}
	for _, a := range arts {
		log.Trace("artifact written", "kind", string(a.Kind), "path", a.Path)
	}
	return nil
}

func (r Runner) finish(log logx.Logger, path string, err error) {
	if err != nil {
		metrics.Run(false)
		log.Error(err, "run failed", "document", path, "category", category(err))
		return
	}
	metrics.Run(true)
	log.Trace("run complete", "document", path)
}

// category names the error taxonomy bucket for the log record.
func category(err error) string {
	switch {
	case params.IsDocumentType(err):
		return "document_type"
	case engine.IsOperation(err):
		return "engine_operation"
	default:
		return "input"
	}
}

// sortedArgKeys orders positional keys numerically (_1, _2, ..., _10), other
// keys after them alphabetically.
func sortedArgKeys(args map[string]string) []string {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, aok := positional(keys[i])
		b, bok := positional(keys[j])
		switch {
		case aok && bok:
			return a < b
		case aok != bok:
			return aok
		default:
			return keys[i] < keys[j]
		}
	})
	return keys
}

func positional(k string) (int, bool) {
	if !strings.HasPrefix(k, "_") {
		return 0, false
	}
	n, err := strconv.Atoi(k[1:])
	return n, err == nil
}

// PositionalArgs maps values to "_1", "_2", ... in order.
func PositionalArgs(values []string) map[string]string {
	out := make(map[string]string, len(values))
	for i, v := range values {
		out["_"+strconv.Itoa(i+1)] = v
	}
	return out
}

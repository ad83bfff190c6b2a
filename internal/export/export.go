// Package export derives the output files of a run from an updated document:
// a saved copy and a snapshot for parts, a zipped working folder for assemblies.
package export

import (
	"path/filepath"
	"time"

	"paramexport/internal/engine"
	"paramexport/internal/liveness"
	"paramexport/internal/logx"
	"paramexport/internal/params"
	"paramexport/pkg/types"
)

// Output names agreed with the orchestration layer.
const (
	PartFileName     = "Result.ipt"
	SnapshotFileName = "Result.bmp"
	ArchiveFileName  = "Result.zip"

	SnapshotSize = 200
)

// Exporter writes run outputs next to the source document. Interval is the
// liveness interval for each step; zero uses liveness.DefaultInterval.
type Exporter struct {
	Log      logx.Logger
	Interval time.Duration
}

// Export dispatches on the document kind. Files written before a failure are
// left in place.
func (e Exporter) Export(doc engine.Document) ([]types.Artifact, error) {
	switch k := doc.Kind(); k {
	case types.KindPart:
		return e.exportPart(doc)
	case types.KindAssembly:
		return e.exportAssembly(doc)
	case types.KindUnknown:
		return nil, unsupported(doc)
	default:
		return nil, unsupported(doc)
	}
}

// ExpectedOutputs lists the files Export writes for a document of the given kind.
func ExpectedOutputs(kind types.DocumentKind, docPath string) []string {
	dir := filepath.Dir(docPath)
	switch kind {
	case types.KindPart:
		return []string{filepath.Join(dir, PartFileName), filepath.Join(dir, SnapshotFileName)}
	case types.KindAssembly:
		return []string{filepath.Join(filepath.Dir(dir), ArchiveFileName)}
	case types.KindUnknown:
		return nil
	default:
		return nil
	}
}

func (e Exporter) exportPart(doc engine.Document) ([]types.Artifact, error) {
	log := logx.OrNop(e.Log)
	dir := filepath.Dir(doc.FullPath())
	partPath := filepath.Join(dir, PartFileName)
	snapPath := filepath.Join(dir, SnapshotFileName)

	log.Trace("saving part", "path", partPath)
	err := liveness.Span(log, "save part", e.Interval, func() error {
		return engine.Wrap("save as", partPath, doc.SaveAs(partPath))
	})
	if err != nil {
		return nil, err
	}
	out := []types.Artifact{{Kind: types.ArtifactDocument, Path: partPath}}
	log.Trace("part saved", "path", partPath)

	log.Trace("rendering snapshot", "path", snapPath)
	opts := engine.SnapshotOptions{Width: SnapshotSize, Height: SnapshotSize, View: engine.ViewTopRightIsometric}
	err = liveness.Span(log, "render snapshot", e.Interval, func() error {
		return engine.Wrap("render", snapPath, doc.RenderSnapshot(snapPath, opts))
	})
	if err != nil {
		return out, err
	}
	log.Trace("snapshot rendered", "path", snapPath)
	return append(out, types.Artifact{Kind: types.ArtifactSnapshot, Path: snapPath}), nil
}

func (e Exporter) exportAssembly(doc engine.Document) ([]types.Artifact, error) {
	log := logx.OrNop(e.Log)
	docPath := doc.FullPath()
	dir := filepath.Dir(docPath)
	zipPath := filepath.Join(filepath.Dir(dir), ArchiveFileName)

	log.Trace("saving assembly", "path", docPath)
	// The archive below reads the folder, so the document must be closed first.
	err := liveness.Span(log, "save assembly", e.Interval, func() error {
		if err := doc.Save(); err != nil {
			return engine.Wrap("save", docPath, err)
		}
		return engine.Wrap("close", docPath, doc.Close())
	})
	if err != nil {
		return nil, err
	}
	log.Trace("assembly closed", "path", docPath)

	log.Trace("archiving folder", "dir", dir, "archive", zipPath)
	err = liveness.Span(log, "archive", e.Interval, func() error {
		return engine.Wrap("archive", zipPath, ZipDir(dir, zipPath))
	})
	if err != nil {
		return nil, err
	}
	log.Trace("folder archived", "archive", zipPath)
	return []types.Artifact{{Kind: types.ArtifactArchive, Path: zipPath}}, nil
}

func unsupported(doc engine.Document) error {
	return &params.DocumentTypeError{Kind: doc.Kind(), Path: doc.FullPath()}
}

package export

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/maya2gltf/internal/config"
	"github.com/Faultbox/maya2gltf/internal/snapshot"
	"github.com/Faultbox/maya2gltf/pkg/skin"
)

// MeshSkin pairs an exported mesh with its extracted skin.
type MeshSkin struct {
	Mesh     *snapshot.Mesh
	Skeleton *skin.Skeleton
}

// Result summarizes one export.
type Result struct {
	Path     string // written glTF file
	Meshes   []MeshSkin
	Skipped  []string // meshes not exported (intermediate or hidden)
	Warnings int
}

// Skinned returns how many exported meshes carry a skin.
func (r *Result) Skinned() int {
	n := 0
	for _, m := range r.Meshes {
		if m.Skeleton.IsSkinned() {
			n++
		}
	}
	return n
}

// Exporter converts snapshots to glTF files.
type Exporter struct {
	cfg *config.Config
	log *zap.Logger

	// Stdout receives console skeleton dumps.
	Stdout io.Writer
}

// New creates an exporter. A nil log discards log output.
func New(cfg *config.Config, log *zap.Logger) *Exporter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Exporter{cfg: cfg, log: log, Stdout: os.Stdout}
}

// SkinOptions maps the export settings onto extraction options.
func SkinOptions(cfg *config.Config) skin.Options {
	return skin.Options{
		SkipSkinClusters:    cfg.Export.SkipSkinClusters,
		IgnoreDeformers:     cfg.Export.IgnoreMeshDeformers,
		UsePreBindMatrix:    cfg.Export.SkinUsePreBindMatrixAndMesh,
		BakeScaleFactor:     cfg.BakeScaleFactor(),
		ReportSkewed:        cfg.Export.ReportSkewedInverseBindMatrices,
		MaxNonOrthogonality: cfg.Export.MaxNonOrthogonality,
	}
}

// SceneName returns the configured scene name, or the snapshot file name
// without its extension.
func (e *Exporter) SceneName(snapshotPath string) string {
	if e.cfg.Output.SceneName != "" {
		return e.cfg.Output.SceneName
	}
	base := filepath.Base(snapshotPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// OutputPath returns where the scene's glTF file is written.
func (e *Exporter) OutputPath(sceneName string) string {
	return filepath.Join(e.cfg.Output.Folder, sceneName+e.cfg.FileExtension())
}

// ExportFile converts the snapshot at path and writes the glTF file.
func (e *Exporter) ExportFile(path string) (*Result, error) {
	if err := e.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	snap, err := snapshot.ParseFile(path)
	if err != nil {
		return nil, err
	}
	e.log.Info("loaded scene snapshot",
		zap.String("path", path),
		zap.Int("nodes", len(snap.Nodes())),
		zap.Int("meshes", len(snap.Meshes())),
		zap.Int("skin_clusters", len(snap.SkinClusters())))

	scene := NewScene(snap)
	res, err := e.Extract(scene)
	if err != nil {
		return nil, err
	}

	doc, err := BuildDocument(scene, res.Meshes, DocumentOptions{
		BakeScale: e.cfg.BakeScaleFactor(),
		RootScale: e.cfg.RootScaleFactor(),
		Copyright: e.cfg.Output.Copyright,
	})
	if err != nil {
		return nil, err
	}

	name := e.SceneName(path)
	if err := os.MkdirAll(e.cfg.Output.Folder, 0755); err != nil {
		return nil, fmt.Errorf("creating output folder: %w", err)
	}
	if e.cfg.Output.CleanOutputFolder {
		if err := e.clean(name); err != nil {
			return nil, err
		}
	}

	res.Path = e.OutputPath(name)
	if err := WriteDocument(doc, res.Path, e.cfg.Output.Binary); err != nil {
		return nil, err
	}
	e.log.Info("wrote glTF",
		zap.String("path", res.Path),
		zap.Int("meshes", len(res.Meshes)),
		zap.Int("skinned", res.Skinned()),
		zap.Int("warnings", res.Warnings))

	if e.cfg.Output.DumpSkeletons != "" {
		if err := e.dump(res.Meshes); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// Extract builds the skeleton of every exported mesh, one mesh at a
// time. Host errors abort the session; data issues are logged.
func (e *Exporter) Extract(scene *Scene) (*Result, error) {
	snap := scene.Snapshot()
	extractor := skin.NewExtractor(snap.Host(), scene, SkinOptions(e.cfg))
	res := &Result{}

	meshes := snap.Meshes()
	for i := range meshes {
		mesh := &meshes[i]

		if mesh.Intermediate {
			e.log.Debug("skipping intermediate mesh", zap.String("mesh", mesh.Name))
			res.Skipped = append(res.Skipped, mesh.Name)
			continue
		}
		if e.cfg.Export.VisibleNodesOnly && !snap.Visible(mesh.Node) {
			e.log.Debug("skipping hidden mesh", zap.String("mesh", mesh.Name))
			res.Skipped = append(res.Skipped, mesh.Name)
			continue
		}

		sk, err := extractor.Extract(mesh.Ref())
		if err != nil {
			return nil, fmt.Errorf("extracting skin of %s: %w", mesh.Name, err)
		}
		res.Warnings += e.logDiagnostics(sk.Diagnostics())

		if sk.IsSkinned() {
			e.log.Info(fmt.Sprintf("skin for mesh %s will use %d weights per vertex", mesh.Name, sk.MaxAssignmentsPerVertex()),
				zap.String("mesh", mesh.Name),
				zap.Int("joints", len(sk.Joints())),
				zap.Int("attribute_sets", sk.AssignmentSetCount()))
		}
		res.Meshes = append(res.Meshes, MeshSkin{Mesh: mesh, Skeleton: sk})
	}
	return res, nil
}

// logDiagnostics writes each diagnostic as a structured entry and
// returns the number of warnings.
func (e *Exporter) logDiagnostics(diags []skin.Diagnostic) int {
	warnings := 0
	for _, d := range diags {
		fields := []zap.Field{zap.Stringer("kind", d.Kind)}
		if d.Mesh != "" {
			fields = append(fields, zap.String("mesh", d.Mesh))
		}
		if d.Deformer != "" {
			fields = append(fields, zap.String("deformer", d.Deformer))
		}
		if d.Joint != "" {
			fields = append(fields, zap.String("joint", d.Joint))
		}
		if d.Kind == skin.KindSkewedMatrix {
			fields = append(fields, zap.Float64("deviation", d.Deviation))
		}

		switch d.Severity {
		case skin.SeverityWarning:
			warnings++
			e.log.Warn(d.Message, fields...)
		default:
			e.log.Info(d.Message, fields...)
		}
	}
	return warnings
}

// clean removes earlier outputs of the scene in both formats.
func (e *Exporter) clean(sceneName string) error {
	for _, ext := range []string{e.cfg.Output.GLTFFileExtension, e.cfg.Output.GLBFileExtension} {
		path := filepath.Join(e.cfg.Output.Folder, sceneName+ext)
		err := os.Remove(path)
		switch {
		case err == nil:
			e.log.Debug("removed previous output", zap.String("path", path))
		case !errors.Is(err, os.ErrNotExist):
			return fmt.Errorf("cleaning output folder: %w", err)
		}
	}
	return nil
}

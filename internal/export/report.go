package export

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/maya2gltf/internal/snapshot"
)

// MeshReport describes the skin extracted for one mesh.
type MeshReport struct {
	Mesh          string   `yaml:"mesh"`
	Deformer      string   `yaml:"deformer,omitempty"`
	InputShape    string   `yaml:"input_shape,omitempty"`
	Vertices      int      `yaml:"vertices"`
	Joints        []string `yaml:"joints,omitempty"`
	MaxWeights    int      `yaml:"max_weights_per_vertex"`
	AttributeSets int      `yaml:"attribute_sets"`
	Diagnostics   []string `yaml:"diagnostics,omitempty"`
}

// Inspect extracts the skins of the snapshot at path without writing
// any output. The output folder is not required.
func (e *Exporter) Inspect(path string) ([]MeshReport, error) {
	if err := e.cfg.ValidateExport(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	snap, err := snapshot.ParseFile(path)
	if err != nil {
		return nil, err
	}
	res, err := e.Extract(NewScene(snap))
	if err != nil {
		return nil, err
	}
	return Reports(res.Meshes), nil
}

// Reports summarizes extracted meshes.
func Reports(meshes []MeshSkin) []MeshReport {
	reports := make([]MeshReport, 0, len(meshes))
	for _, m := range meshes {
		sk := m.Skeleton
		r := MeshReport{
			Mesh:     m.Mesh.Name,
			Vertices: len(m.Mesh.Points),
		}
		if d, ok := sk.Deformer(); ok {
			r.Deformer = d.Name
			r.InputShape = string(sk.InputShape())
			r.Vertices = sk.VertexCount()
			r.MaxWeights = sk.MaxAssignmentsPerVertex()
			r.AttributeSets = sk.AssignmentSetCount()
			for _, j := range sk.Joints() {
				r.Joints = append(r.Joints, j.Node.Name)
			}
		}
		for _, d := range sk.Diagnostics() {
			r.Diagnostics = append(r.Diagnostics, d.String())
		}
		reports = append(reports, r)
	}
	return reports
}

// WriteReports encodes reports as a YAML document.
func WriteReports(w io.Writer, reports []MeshReport) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(reports); err != nil {
		return err
	}
	return enc.Close()
}

// Package snapshot loads a YAML description of an authoring scene (the
// transform hierarchy, meshes and skin clusters) and serves it to the
// skin extractor as a host.
package snapshot

import (
	"errors"
	"fmt"
	gomath "math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/maya2gltf/pkg/math"
	"github.com/Faultbox/maya2gltf/pkg/skin"
)

// Snapshot errors.
var (
	ErrUnknownObject   = errors.New("unknown scene object")
	ErrInvalidMatrix   = errors.New("matrix must have 16 elements")
	ErrInvalidSnapshot = errors.New("invalid scene snapshot")
)

// Node is a transform or joint. Rotations are Euler angles in degrees,
// applied in X, Y, Z order. A non-empty Matrix (column-major) replaces
// the TRS channels.
type Node struct {
	Name      string      `yaml:"name"`
	Parent    string      `yaml:"parent,omitempty"`
	Translate [3]float32  `yaml:"translate"`
	Rotate    [3]float32  `yaml:"rotate"`
	Orient    [3]float32  `yaml:"orient"` // joint orient, parent side of Rotate
	Scale     *[3]float32 `yaml:"scale,omitempty"`
	Matrix    []float32   `yaml:"matrix,omitempty"`
	Visible   *bool       `yaml:"visible,omitempty"`
}

// Mesh is a mesh shape parented under a transform node.
type Mesh struct {
	Name         string       `yaml:"name"`
	Node         string       `yaml:"node"`
	Intermediate bool         `yaml:"intermediate"`
	Points       [][3]float32 `yaml:"points"`
}

// Ref returns the extractor's view of the mesh.
func (m *Mesh) Ref() skin.MeshRef {
	return skin.MeshRef{Shape: skin.Handle(m.Name), Name: m.Name}
}

// SkinGeometry is one mesh deformed by a skin cluster. Weights holds one
// row per vertex and one column per influence; missing rows weigh zero.
type SkinGeometry struct {
	Output  string      `yaml:"output"`
	Input   string      `yaml:"input,omitempty"`
	Weights [][]float32 `yaml:"weights"`
}

// SkinCluster is a skin deformer.
type SkinCluster struct {
	Name            string         `yaml:"name"`
	Influences      []string       `yaml:"influences"`
	BindPreMatrices [][]float32    `yaml:"bind_pre_matrices,omitempty"`
	Geometry        []SkinGeometry `yaml:"geometry"`
}

type document struct {
	Nodes        []Node        `yaml:"nodes"`
	Meshes       []Mesh        `yaml:"meshes"`
	SkinClusters []SkinCluster `yaml:"skin_clusters"`
}

// Snapshot is a parsed, validated scene. Object names are unique across
// nodes, meshes and skin clusters.
type Snapshot struct {
	doc document

	nodes    map[string]int
	meshes   map[string]int
	clusters map[string]int
	worlds   []math.Mat4
}

// Parse parses and validates a snapshot from YAML.
func Parse(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := yaml.Unmarshal(data, &s.doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if err := s.index(); err != nil {
		return nil, err
	}
	if err := s.computeWorlds(); err != nil {
		return nil, err
	}
	return &s, nil
}

// ParseFile parses a snapshot from disk.
func ParseFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func (s *Snapshot) index() error {
	s.nodes = make(map[string]int, len(s.doc.Nodes))
	s.meshes = make(map[string]int, len(s.doc.Meshes))
	s.clusters = make(map[string]int, len(s.doc.SkinClusters))

	taken := func(name string) bool {
		_, isNode := s.nodes[name]
		_, isMesh := s.meshes[name]
		_, isCluster := s.clusters[name]
		return isNode || isMesh || isCluster
	}

	for i, n := range s.doc.Nodes {
		if n.Name == "" || taken(n.Name) {
			return fmt.Errorf("%w: node %d has an empty or duplicate name %q", ErrInvalidSnapshot, i, n.Name)
		}
		if n.Matrix != nil && len(n.Matrix) != 16 {
			return fmt.Errorf("node %s: %w, got %d", n.Name, ErrInvalidMatrix, len(n.Matrix))
		}
		s.nodes[n.Name] = i
	}
	for _, n := range s.doc.Nodes {
		if _, ok := s.nodes[n.Parent]; n.Parent != "" && !ok {
			return fmt.Errorf("node %s: parent %q: %w", n.Name, n.Parent, ErrUnknownObject)
		}
	}

	for i, m := range s.doc.Meshes {
		if m.Name == "" || taken(m.Name) {
			return fmt.Errorf("%w: mesh %d has an empty or duplicate name %q", ErrInvalidSnapshot, i, m.Name)
		}
		if _, ok := s.nodes[m.Node]; m.Node != "" && !ok {
			return fmt.Errorf("mesh %s: node %q: %w", m.Name, m.Node, ErrUnknownObject)
		}
		s.meshes[m.Name] = i
	}

	for i, c := range s.doc.SkinClusters {
		if c.Name == "" || taken(c.Name) {
			return fmt.Errorf("%w: skin cluster %d has an empty or duplicate name %q", ErrInvalidSnapshot, i, c.Name)
		}
		if err := s.checkCluster(&c); err != nil {
			return fmt.Errorf("skin cluster %s: %w", c.Name, err)
		}
		s.clusters[c.Name] = i
	}
	return nil
}

func (s *Snapshot) checkCluster(c *SkinCluster) error {
	for _, inf := range c.Influences {
		if _, ok := s.nodes[inf]; !ok {
			return fmt.Errorf("influence %q: %w", inf, ErrUnknownObject)
		}
	}

	if c.BindPreMatrices != nil && len(c.BindPreMatrices) != len(c.Influences) {
		return fmt.Errorf("%w: %d bind pre-matrices for %d influences",
			ErrInvalidSnapshot, len(c.BindPreMatrices), len(c.Influences))
	}
	for i, m := range c.BindPreMatrices {
		if len(m) != 16 {
			return fmt.Errorf("bind pre-matrix %d: %w, got %d", i, ErrInvalidMatrix, len(m))
		}
	}

	for _, g := range c.Geometry {
		mi, ok := s.meshes[g.Output]
		if !ok {
			return fmt.Errorf("output %q: %w", g.Output, ErrUnknownObject)
		}
		if _, ok := s.meshes[g.Input]; g.Input != "" && !ok {
			return fmt.Errorf("input %q: %w", g.Input, ErrUnknownObject)
		}
		if points := len(s.doc.Meshes[mi].Points); len(g.Weights) > points {
			return fmt.Errorf("%w: %d weight rows for %d vertices of %s",
				ErrInvalidSnapshot, len(g.Weights), points, g.Output)
		}
	}
	return nil
}

// computeWorlds resolves every node's world matrix through its parent
// chain.
func (s *Snapshot) computeWorlds() error {
	const (
		unvisited = iota
		visiting
		done
	)

	s.worlds = make([]math.Mat4, len(s.doc.Nodes))
	state := make([]int, len(s.doc.Nodes))

	var visit func(i int) error
	visit = func(i int) error {
		switch state[i] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("%w: node %s is its own ancestor", ErrInvalidSnapshot, s.doc.Nodes[i].Name)
		}
		state[i] = visiting

		world := s.doc.Nodes[i].Local()
		if parent := s.doc.Nodes[i].Parent; parent != "" {
			p := s.nodes[parent]
			if err := visit(p); err != nil {
				return err
			}
			world = s.worlds[p].Mul(world)
		}

		s.worlds[i] = world
		state[i] = done
		return nil
	}

	for i := range s.doc.Nodes {
		if err := visit(i); err != nil {
			return err
		}
	}
	return nil
}

// Local returns the node's transform relative to its parent.
func (n *Node) Local() math.Mat4 {
	if n.Matrix != nil {
		var m math.Mat4
		copy(m[:], n.Matrix)
		return m
	}

	scale := math.Vec3{X: 1, Y: 1, Z: 1}
	if n.Scale != nil {
		scale = math.Vec3FromArray(*n.Scale)
	}

	orient := eulerDegrees(n.Orient)
	rotate := eulerDegrees(n.Rotate)
	return math.Compose(math.Vec3FromArray(n.Translate), orient.Mul(rotate), scale)
}

func eulerDegrees(r [3]float32) math.Quat {
	const toRad = gomath.Pi / 180
	return math.QuatFromEulerXYZ(r[0]*toRad, r[1]*toRad, r[2]*toRad)
}

// Nodes returns the transform hierarchy in file order. Parents may
// follow their children.
func (s *Snapshot) Nodes() []Node { return s.doc.Nodes }

// Meshes returns the mesh shapes in file order.
func (s *Snapshot) Meshes() []Mesh { return s.doc.Meshes }

// SkinClusters returns the skin deformers in file order.
func (s *Snapshot) SkinClusters() []SkinCluster { return s.doc.SkinClusters }

// NodeIndex returns the position of a node in Nodes().
func (s *Snapshot) NodeIndex(name string) (int, bool) {
	i, ok := s.nodes[name]
	return i, ok
}

// Mesh looks a mesh up by name.
func (s *Snapshot) Mesh(name string) (*Mesh, bool) {
	i, ok := s.meshes[name]
	if !ok {
		return nil, false
	}
	return &s.doc.Meshes[i], true
}

// World returns the world matrix of a node or of a mesh's parent node.
// A mesh without a node sits at the origin.
func (s *Snapshot) World(name string) (math.Mat4, error) {
	if i, ok := s.nodes[name]; ok {
		return s.worlds[i], nil
	}
	if i, ok := s.meshes[name]; ok {
		node := s.doc.Meshes[i].Node
		if node == "" {
			return math.Identity(), nil
		}
		return s.worlds[s.nodes[node]], nil
	}
	return math.Mat4{}, fmt.Errorf("%q: %w", name, ErrUnknownObject)
}

// Visible reports whether a node and all of its ancestors are visible.
func (s *Snapshot) Visible(node string) bool {
	for node != "" {
		i, ok := s.nodes[node]
		if !ok {
			return false
		}
		n := &s.doc.Nodes[i]
		if n.Visible != nil && !*n.Visible {
			return false
		}
		node = n.Parent
	}
	return true
}

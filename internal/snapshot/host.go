package snapshot

import (
	"fmt"
	"slices"

	"github.com/Faultbox/maya2gltf/pkg/math"
	"github.com/Faultbox/maya2gltf/pkg/skin"
)

// Host serves a snapshot through the skin extractor's host queries.
// Handles are object names.
type Host struct {
	s *Snapshot
}

// Host returns the snapshot's skin.Host adapter.
func (s *Snapshot) Host() *Host {
	return &Host{s: s}
}

var _ skin.Host = (*Host)(nil)

func (h *Host) cluster(deformer skin.Handle) (*SkinCluster, error) {
	i, ok := h.s.clusters[string(deformer)]
	if !ok {
		return nil, fmt.Errorf("skin cluster %q: %w", deformer, ErrUnknownObject)
	}
	return &h.s.doc.SkinClusters[i], nil
}

func (c *SkinCluster) geometry(output skin.Handle) (*SkinGeometry, error) {
	for i := range c.Geometry {
		if c.Geometry[i].Output == string(output) {
			return &c.Geometry[i], nil
		}
	}
	return nil, fmt.Errorf("skin cluster %s does not deform %q: %w", c.Name, output, ErrUnknownObject)
}

// SkinDeformers lists the skin clusters in file order.
func (h *Host) SkinDeformers() ([]skin.DeformerRef, error) {
	refs := make([]skin.DeformerRef, len(h.s.doc.SkinClusters))
	for i, c := range h.s.doc.SkinClusters {
		refs[i] = skin.DeformerRef{Handle: skin.Handle(c.Name), Name: c.Name}
	}
	return refs, nil
}

// OutputShapes lists the meshes a skin cluster deforms.
func (h *Host) OutputShapes(deformer skin.Handle) ([]skin.Handle, error) {
	c, err := h.cluster(deformer)
	if err != nil {
		return nil, err
	}
	shapes := make([]skin.Handle, len(c.Geometry))
	for i, g := range c.Geometry {
		shapes[i] = skin.Handle(g.Output)
	}
	return shapes, nil
}

// InfluenceObjects lists the joints of a skin cluster.
func (h *Host) InfluenceObjects(deformer skin.Handle) ([]skin.Handle, error) {
	c, err := h.cluster(deformer)
	if err != nil {
		return nil, err
	}
	joints := make([]skin.Handle, len(c.Influences))
	for i, name := range c.Influences {
		joints[i] = skin.Handle(name)
	}
	return joints, nil
}

// BindPreMatrix returns the stored bind pre-matrix of an influence, or
// the inverse of its current world matrix when the snapshot stores none.
func (h *Host) BindPreMatrix(deformer skin.Handle, influence skin.Handle) (math.Mat4, error) {
	c, err := h.cluster(deformer)
	if err != nil {
		return math.Mat4{}, err
	}
	i := slices.Index(c.Influences, string(influence))
	if i < 0 {
		return math.Mat4{}, fmt.Errorf("influence %q of %s: %w", influence, c.Name, ErrUnknownObject)
	}

	if c.BindPreMatrices != nil {
		var m math.Mat4
		copy(m[:], c.BindPreMatrices[i])
		return m, nil
	}

	world, err := h.s.World(string(influence))
	if err != nil {
		return math.Mat4{}, err
	}
	inv, _ := world.Inverse()
	return inv, nil
}

// InputShape returns the geometry feeding the cluster, defaulting to the
// output mesh itself.
func (h *Host) InputShape(deformer skin.Handle, output skin.Handle) (skin.Handle, error) {
	c, err := h.cluster(deformer)
	if err != nil {
		return "", err
	}
	g, err := c.geometry(output)
	if err != nil {
		return "", err
	}
	if g.Input == "" {
		return output, nil
	}
	return skin.Handle(g.Input), nil
}

// WorldMatrix returns the world matrix of a node or mesh.
func (h *Host) WorldMatrix(object skin.Handle) (math.Mat4, error) {
	return h.s.World(string(object))
}

// VertexCount returns the number of points of a mesh.
func (h *Host) VertexCount(shape skin.Handle) (int, error) {
	m, ok := h.s.Mesh(string(shape))
	if !ok {
		return 0, fmt.Errorf("mesh %q: %w", shape, ErrUnknownObject)
	}
	return len(m.Points), nil
}

// Weights appends the weight row of one vertex. Vertices past the stored
// rows weigh zero on every influence.
func (h *Host) Weights(deformer skin.Handle, shape skin.Handle, vertex int, dst []float32) ([]float32, error) {
	c, err := h.cluster(deformer)
	if err != nil {
		return nil, err
	}
	g, err := c.geometry(shape)
	if err != nil {
		return nil, err
	}
	if vertex < 0 {
		return nil, fmt.Errorf("%w: %d", skin.ErrVertexOutOfRange, vertex)
	}

	if vertex < len(g.Weights) {
		return append(dst, g.Weights[vertex]...), nil
	}
	for range c.Influences {
		dst = append(dst, 0)
	}
	return dst, nil
}

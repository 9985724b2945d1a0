package skin

import (
	"errors"
	"fmt"

	"github.com/Faultbox/maya2gltf/pkg/math"
)

var errFake = errors.New("fake host failure")

type fakeDeformer struct {
	name       string
	outputs    []Handle
	influences []Handle
	bindPre    map[Handle]math.Mat4
	input      Handle
	weights    [][]float32 // per vertex; missing rows are all zero
}

// fakeHost is an in-memory scene. Handles equal names.
type fakeHost struct {
	deformers    []*fakeDeformer
	worlds       map[Handle]math.Mat4
	vertexCounts map[Handle]int
	failOp       string
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		worlds:       map[Handle]math.Mat4{},
		vertexCounts: map[Handle]int{},
	}
}

func (h *fakeHost) fail(op string) error {
	if h.failOp == op {
		return errFake
	}
	return nil
}

func (h *fakeHost) deformer(handle Handle) (*fakeDeformer, error) {
	for _, d := range h.deformers {
		if Handle(d.name) == handle {
			return d, nil
		}
	}
	return nil, fmt.Errorf("no deformer %q", handle)
}

func (h *fakeHost) SkinDeformers() ([]DeformerRef, error) {
	if err := h.fail("SkinDeformers"); err != nil {
		return nil, err
	}
	refs := make([]DeformerRef, len(h.deformers))
	for i, d := range h.deformers {
		refs[i] = DeformerRef{Handle: Handle(d.name), Name: d.name}
	}
	return refs, nil
}

func (h *fakeHost) OutputShapes(deformer Handle) ([]Handle, error) {
	if err := h.fail("OutputShapes"); err != nil {
		return nil, err
	}
	d, err := h.deformer(deformer)
	if err != nil {
		return nil, err
	}
	return d.outputs, nil
}

func (h *fakeHost) InfluenceObjects(deformer Handle) ([]Handle, error) {
	if err := h.fail("InfluenceObjects"); err != nil {
		return nil, err
	}
	d, err := h.deformer(deformer)
	if err != nil {
		return nil, err
	}
	return d.influences, nil
}

func (h *fakeHost) BindPreMatrix(deformer Handle, influence Handle) (math.Mat4, error) {
	if err := h.fail("BindPreMatrix"); err != nil {
		return math.Mat4{}, err
	}
	d, err := h.deformer(deformer)
	if err != nil {
		return math.Mat4{}, err
	}
	m, ok := d.bindPre[influence]
	if !ok {
		return math.Mat4{}, fmt.Errorf("no bind pre-matrix for %q", influence)
	}
	return m, nil
}

func (h *fakeHost) InputShape(deformer Handle, output Handle) (Handle, error) {
	if err := h.fail("InputShape"); err != nil {
		return "", err
	}
	d, err := h.deformer(deformer)
	if err != nil {
		return "", err
	}
	if d.input == "" {
		return output, nil
	}
	return d.input, nil
}

func (h *fakeHost) WorldMatrix(object Handle) (math.Mat4, error) {
	if err := h.fail("WorldMatrix"); err != nil {
		return math.Mat4{}, err
	}
	if m, ok := h.worlds[object]; ok {
		return m, nil
	}
	return math.Identity(), nil
}

func (h *fakeHost) VertexCount(shape Handle) (int, error) {
	if err := h.fail("VertexCount"); err != nil {
		return 0, err
	}
	return h.vertexCounts[shape], nil
}

func (h *fakeHost) Weights(deformer Handle, shape Handle, vertex int, dst []float32) ([]float32, error) {
	if err := h.fail("Weights"); err != nil {
		return nil, err
	}
	d, err := h.deformer(deformer)
	if err != nil {
		return nil, err
	}
	if vertex < len(d.weights) {
		return append(dst, d.weights[vertex]...), nil
	}
	for range d.influences {
		dst = append(dst, 0)
	}
	return dst, nil
}

// fakeNodes resolves every handle listed, by position.
type fakeNodes []Handle

func (n fakeNodes) ResolveNode(object Handle) (NodeRef, error) {
	for i, h := range n {
		if h == object {
			return NodeRef{Index: i, Name: string(h)}, nil
		}
	}
	return NodeRef{}, fmt.Errorf("no node for %q", object)
}

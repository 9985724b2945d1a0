package skin

import "github.com/Faultbox/maya2gltf/pkg/math"

// Handle is an opaque identity of a host scene object (deformer, shape
// or transform). Only the host adapter that produced it interprets it.
type Handle string

// DeformerRef identifies a skin deformer found in the scene.
type DeformerRef struct {
	Handle Handle
	Name   string
}

// MeshRef identifies the deformed mesh shape whose skin is extracted.
type MeshRef struct {
	Shape Handle
	Name  string
}

// Host exposes the scene graph queries needed to extract a skin.
// Implementations adapt one authoring host; the extraction code never
// sees host internals.
type Host interface {
	// SkinDeformers enumerates every skin deformer in the scene in a
	// stable order.
	SkinDeformers() ([]DeformerRef, error)

	// OutputShapes lists the shapes a deformer writes to.
	OutputShapes(deformer Handle) ([]Handle, error)

	// InfluenceObjects lists the joints of a deformer. The position in
	// this list is the joint index used by weights.
	InfluenceObjects(deformer Handle) ([]Handle, error)

	// BindPreMatrix returns the stored inverse bind pose of one influence.
	BindPreMatrix(deformer Handle, influence Handle) (math.Mat4, error)

	// InputShape returns the pre-deformation geometry feeding the
	// deformer for the given output shape.
	InputShape(deformer Handle, output Handle) (Handle, error)

	// WorldMatrix returns the current world transform of a shape or
	// transform, in column-major layout.
	WorldMatrix(object Handle) (math.Mat4, error)

	// VertexCount returns the number of vertices of a shape.
	VertexCount(shape Handle) (int, error)

	// Weights appends the weight of every influence for one vertex to
	// dst and returns the extended slice.
	Weights(deformer Handle, shape Handle, vertex int, dst []float32) ([]float32, error)
}

// NodeRef is a weak reference to an exported scene node: an index into
// a node table owned by the export session, plus its display name.
type NodeRef struct {
	Index int
	Name  string
}

// NodeResolver maps a host object to the exported node representing it.
type NodeResolver interface {
	ResolveNode(object Handle) (NodeRef, error)
}

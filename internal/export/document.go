package export

import (
	"errors"
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/maya2gltf/internal/snapshot"
	"github.com/Faultbox/maya2gltf/pkg/math"
	"github.com/Faultbox/maya2gltf/pkg/skin"
)

// Generator is written to the glTF asset.
const Generator = "maya2gltf"

// ErrVertexCountMismatch is returned when a skin's input geometry does
// not have as many points as the deformed mesh.
var ErrVertexCountMismatch = errors.New("input geometry vertex count differs from the skinned mesh")

// DocumentOptions controls glTF assembly.
type DocumentOptions struct {
	BakeScale float32 // folded into every translation and point
	RootScale float32 // applied by an extra root node when not 1
	Copyright string
}

func (o DocumentOptions) bakeScale() float32 {
	if o.BakeScale == 0 {
		return 1
	}
	return o.BakeScale
}

// BuildDocument assembles the glTF document of a scene. Node i of the
// document is scene node i; mesh nodes follow, then the scale root.
func BuildDocument(scene *Scene, meshes []MeshSkin, opts DocumentOptions) (*gltf.Document, error) {
	doc := gltf.NewDocument()
	doc.Asset.Generator = Generator
	doc.Asset.Copyright = opts.Copyright

	snap := scene.Snapshot()
	bake := opts.bakeScale()

	var roots []uint32
	nodes := snap.Nodes()
	for i := range nodes {
		n := &nodes[i]
		doc.Nodes = append(doc.Nodes, &gltf.Node{
			Name:   n.Name,
			Matrix: [16]float32(n.Local().ScaleTranslation(bake)),
		})
	}
	for i, n := range nodes {
		if n.Parent == "" {
			roots = append(roots, uint32(i))
			continue
		}
		p, _ := snap.NodeIndex(n.Parent)
		doc.Nodes[p].Children = append(doc.Nodes[p].Children, uint32(i))
	}

	for _, m := range meshes {
		node, err := addMesh(doc, snap, m, bake)
		if err != nil {
			return nil, fmt.Errorf("mesh %s: %w", m.Mesh.Name, err)
		}
		if p, ok := snap.NodeIndex(m.Mesh.Node); ok {
			doc.Nodes[p].Children = append(doc.Nodes[p].Children, node)
		} else {
			roots = append(roots, node)
		}
	}

	if opts.RootScale != 0 && opts.RootScale != 1 {
		s := opts.RootScale
		doc.Nodes = append(doc.Nodes, &gltf.Node{
			Name:     "scale",
			Matrix:   [16]float32(math.Scale(s, s, s)),
			Children: roots,
		})
		roots = []uint32{uint32(len(doc.Nodes) - 1)}
	}

	doc.Scenes[0].Nodes = roots
	return doc, nil
}

// addMesh appends the mesh node, its point primitive and its skin, and
// returns the node index. Skinned meshes export their input geometry,
// the pose the inverse bind matrices refer to.
func addMesh(doc *gltf.Document, snap *snapshot.Snapshot, m MeshSkin, bake float32) (uint32, error) {
	sk := m.Skeleton
	node := &gltf.Node{Name: m.Mesh.Name}
	doc.Nodes = append(doc.Nodes, node)
	index := uint32(len(doc.Nodes) - 1)

	points := m.Mesh.Points
	if in := sk.InputShape(); sk.IsSkinned() && in != "" && string(in) != m.Mesh.Name {
		if input, ok := snap.Mesh(string(in)); ok {
			if len(input.Points) != len(points) {
				return 0, fmt.Errorf("%w: %s has %d, %s has %d",
					ErrVertexCountMismatch, input.Name, len(input.Points), m.Mesh.Name, len(points))
			}
			points = input.Points
		}
	}
	if len(points) == 0 {
		return index, nil
	}

	positions := make([][3]float32, len(points))
	for i, p := range points {
		positions[i] = math.Vec3FromArray(p).Scale(bake).Array()
	}

	attributes := map[string]uint32{
		"POSITION": modeler.WritePosition(doc, positions),
	}

	if sk.IsSkinned() {
		sets, err := sk.AttributeSets()
		if err != nil {
			return 0, err
		}
		for i, set := range sets {
			attributes[fmt.Sprintf("JOINTS_%d", i)] = modeler.WriteJoints(doc, set.Joints)
			attributes[fmt.Sprintf("WEIGHTS_%d", i)] = modeler.WriteWeights(doc, set.Weights)
		}
		node.Skin = gltf.Index(addSkin(doc, sk))
	}

	doc.Meshes = append(doc.Meshes, &gltf.Mesh{
		Name: m.Mesh.Name,
		Primitives: []*gltf.Primitive{{
			Attributes: attributes,
			Mode:       gltf.PrimitivePoints,
		}},
	})
	node.Mesh = gltf.Index(uint32(len(doc.Meshes) - 1))

	return index, nil
}

// addSkin appends the skin of sk and returns its index.
func addSkin(doc *gltf.Document, sk *skin.Skeleton) uint32 {
	joints := sk.Joints()
	ids := make([]uint32, len(joints))
	mats := make([]math.Mat4, len(joints))
	for i, j := range joints {
		ids[i] = uint32(j.Node.Index)
		mats[i] = j.InverseBindMatrix
	}

	doc.Skins = append(doc.Skins, &gltf.Skin{
		Name:                sk.Mesh(),
		Joints:              ids,
		InverseBindMatrices: gltf.Index(writeMatrices(doc, mats)),
	})
	return uint32(len(doc.Skins) - 1)
}

// writeMatrices stores matrices as a MAT4 accessor. modeler has no
// matrix writer, so the columns go out as VEC4 and the accessor is
// retyped. The buffer view is not vertex data: it carries no target and
// no stride.
func writeMatrices(doc *gltf.Document, mats []math.Mat4) uint32 {
	cols := make([][4]float32, 0, len(mats)*4)
	for _, m := range mats {
		c := m.Columns()
		cols = append(cols, c[0], c[1], c[2], c[3])
	}
	acc := modeler.WriteTangent(doc, cols)
	doc.Accessors[acc].Type = gltf.AccessorMat4
	doc.Accessors[acc].Count /= 4

	view := doc.BufferViews[*doc.Accessors[acc].BufferView]
	view.Target = 0
	view.ByteStride = 0
	return acc
}

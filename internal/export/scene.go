// Package export runs one export session: it walks a scene snapshot,
// extracts the skin of every exported mesh and writes the glTF document.
package export

import (
	"fmt"

	"github.com/Faultbox/maya2gltf/internal/snapshot"
	"github.com/Faultbox/maya2gltf/pkg/skin"
)

// Scene is the node table of an export session. Exported node i is
// snapshot node i, so a NodeRef index addresses both.
type Scene struct {
	snap  *snapshot.Snapshot
	nodes []skin.NodeRef
}

// NewScene builds the node table of snap.
func NewScene(snap *snapshot.Snapshot) *Scene {
	nodes := make([]skin.NodeRef, len(snap.Nodes()))
	for i, n := range snap.Nodes() {
		nodes[i] = skin.NodeRef{Index: i, Name: n.Name}
	}
	return &Scene{snap: snap, nodes: nodes}
}

// Snapshot returns the scene the table was built from.
func (s *Scene) Snapshot() *snapshot.Snapshot { return s.snap }

// Nodes returns the node table.
func (s *Scene) Nodes() []skin.NodeRef { return s.nodes }

// ResolveNode returns the exported node of a joint.
func (s *Scene) ResolveNode(object skin.Handle) (skin.NodeRef, error) {
	i, ok := s.snap.NodeIndex(string(object))
	if !ok {
		return skin.NodeRef{}, fmt.Errorf("no exported node for %q: %w", object, snapshot.ErrUnknownObject)
	}
	return s.nodes[i], nil
}

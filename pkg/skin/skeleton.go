package skin

import (
	"fmt"
	"io"
	"strings"

	"github.com/Faultbox/maya2gltf/pkg/math"
)

// AssignmentsPerSet is the number of joints packed in one JOINTS_n /
// WEIGHTS_n attribute pair.
const AssignmentsPerSet = 4

// Joint is one influence of a skin.
type Joint struct {
	Node              NodeRef // exported node, owned by the export session
	Influence         Handle  // host identity of the joint
	InverseBindMatrix math.Mat4
}

// Skeleton is the skin of one mesh: its joints and, per vertex, the
// weighted joints that deform it.
type Skeleton struct {
	mesh        string
	deformer    *DeformerRef
	joints      []Joint
	assignments *VertexAssignments
	inputShape  Handle
	diagnostics []Diagnostic
}

// Mesh returns the name of the mesh the skeleton belongs to.
func (s *Skeleton) Mesh() string { return s.mesh }

// Deformer returns the selected skin deformer, if any.
func (s *Skeleton) Deformer() (DeformerRef, bool) {
	if s.deformer == nil {
		return DeformerRef{}, false
	}
	return *s.deformer, true
}

// Joints returns the joints in influence order; the position is the
// joint index used by assignments.
func (s *Skeleton) Joints() []Joint { return s.joints }

// VertexAssignments returns the per-vertex assignments.
func (s *Skeleton) VertexAssignments() *VertexAssignments { return s.assignments }

// InputShape returns the pre-deformation geometry, empty when unskinned.
func (s *Skeleton) InputShape() Handle { return s.inputShape }

// Diagnostics returns the non-fatal findings of the extraction.
func (s *Skeleton) Diagnostics() []Diagnostic { return s.diagnostics }

// IsSkinned reports whether a deformer with joints was found. A selected
// deformer without influences leaves the mesh unskinned and is reported
// as a KindNoInfluences diagnostic.
func (s *Skeleton) IsSkinned() bool { return len(s.joints) > 0 }

// VertexCount returns the number of vertices covered.
func (s *Skeleton) VertexCount() int { return s.assignments.Len() }

// MaxAssignmentsPerVertex returns the longest per-vertex list.
func (s *Skeleton) MaxAssignmentsPerVertex() int { return s.assignments.MaxCount() }

// AssignmentSetCount returns how many JOINTS_n/WEIGHTS_n pairs are
// needed to hold every vertex's assignments.
func (s *Skeleton) AssignmentSetCount() int {
	return (s.MaxAssignmentsPerVertex() + AssignmentsPerSet - 1) / AssignmentsPerSet
}

// AttributeSet is one fixed-width JOINTS_n/WEIGHTS_n pair, one element
// per vertex, zero padded.
type AttributeSet struct {
	Joints  [][4]uint16
	Weights [][4]float32
}

// AttributeSets packs the assignments into AssignmentSetCount sets.
// Set n holds the assignments of rank 4n to 4n+3 of every vertex.
func (s *Skeleton) AttributeSets() ([]AttributeSet, error) {
	n := s.VertexCount()
	sets := make([]AttributeSet, s.AssignmentSetCount())
	for i := range sets {
		sets[i] = AttributeSet{
			Joints:  make([][4]uint16, n),
			Weights: make([][4]float32, n),
		}
	}

	for v := 0; v < n; v++ {
		for rank, a := range s.assignments.At(v) {
			if a.JointIndex > 0xFFFF {
				return nil, fmt.Errorf("%w: %d", ErrTooManyJoints, a.JointIndex)
			}
			set := &sets[rank/AssignmentsPerSet]
			set.Joints[v][rank%AssignmentsPerSet] = uint16(a.JointIndex)
			set.Weights[v][rank%AssignmentsPerSet] = a.Weight
		}
	}
	return sets, nil
}

// Dump writes the assignments as a named JSON member, one vertex per line.
func (s *Skeleton) Dump(w io.Writer, name string) error {
	var b strings.Builder

	fmt.Fprintf(&b, "%q: [\n", name)
	for v := 0; v < s.VertexCount(); v++ {
		elems := make([]string, 0, s.MaxAssignmentsPerVertex())
		for _, a := range s.assignments.At(v) {
			elems = append(elems, a.String())
		}
		fmt.Fprintf(&b, "  [ %s ]", strings.Join(elems, ", "))
		if v < s.VertexCount()-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString("]")

	_, err := io.WriteString(w, b.String())
	return err
}

// Package skin extracts vertex-to-joint bindings (skins) from a host scene
// and shapes them for glTF serialization.
package skin

import (
	"fmt"
	"sort"
)

// WeightThreshold is the absolute weight at or below which an influence
// is dropped.
const WeightThreshold float32 = 1e-6

// Assignment is the affinity of one vertex to one joint.
type Assignment struct {
	JointIndex int
	Weight     float32
}

// String returns "[joint, weight]".
func (a Assignment) String() string {
	return fmt.Sprintf("[%d, %.6f]", a.JointIndex, a.Weight)
}

// Span locates the assignments of one vertex inside the shared arena.
type Span struct {
	Start int
	Count int
}

// End returns the exclusive end offset.
func (s Span) End() int {
	return s.Start + s.Count
}

// FilterAndSort keeps the significant entries of a per-joint weight
// vector and orders them by descending weight. Equal weights keep joint
// order. The result reuses dst's storage.
func FilterAndSort(dst []Assignment, weights []float32) []Assignment {
	dst = dst[:0]
	for joint, w := range weights {
		if w > WeightThreshold || w < -WeightThreshold {
			dst = append(dst, Assignment{JointIndex: joint, Weight: w})
		}
	}

	sort.SliceStable(dst, func(i, j int) bool {
		return dst[i].Weight > dst[j].Weight
	})
	return dst
}

// Store accumulates per-vertex assignment lists in one contiguous arena.
// Views into the arena are only handed out by Freeze, once no more
// appends can move it.
type Store struct {
	arena    []Assignment
	spans    []Span
	appended []bool
	maxCount int
	frozen   bool
}

// NewStore creates a store for vertexCount vertices. Vertices that are
// never appended keep an empty span.
func NewStore(vertexCount int) *Store {
	return &Store{
		spans:    make([]Span, vertexCount),
		appended: make([]bool, vertexCount),
	}
}

// Reserve grows the arena capacity to hold at least total assignments.
func (s *Store) Reserve(total int) {
	if s.frozen || cap(s.arena) >= total {
		return
	}
	arena := make([]Assignment, len(s.arena), total)
	copy(arena, s.arena)
	s.arena = arena
}

// Append copies list into the arena and records it as the assignments
// of vertex. Each vertex is appended at most once.
func (s *Store) Append(vertex int, list []Assignment) (Span, error) {
	if s.frozen {
		return Span{}, ErrStoreFrozen
	}
	if vertex < 0 || vertex >= len(s.spans) {
		return Span{}, fmt.Errorf("%w: %d of %d", ErrVertexOutOfRange, vertex, len(s.spans))
	}
	if s.appended[vertex] {
		return Span{}, fmt.Errorf("%w: %d", ErrVertexAppended, vertex)
	}
	s.appended[vertex] = true

	span := Span{Start: len(s.arena), Count: len(list)}
	s.arena = append(s.arena, list...)
	s.spans[vertex] = span

	if span.Count > s.maxCount {
		s.maxCount = span.Count
	}
	return span, nil
}

// Freeze ends the append phase and transfers the arena into an
// immutable VertexAssignments. The store rejects further appends.
func (s *Store) Freeze() *VertexAssignments {
	n := len(s.arena)
	va := &VertexAssignments{
		arena:    s.arena[:n:n],
		spans:    s.spans,
		maxCount: s.maxCount,
	}
	s.arena, s.spans, s.appended, s.frozen = nil, nil, nil, true
	return va
}

// VertexAssignments is the read-only, vertex-indexed view over a frozen
// arena.
type VertexAssignments struct {
	arena    []Assignment
	spans    []Span
	maxCount int
}

// Len returns the number of vertices.
func (va *VertexAssignments) Len() int {
	return len(va.spans)
}

// At returns the assignments of a vertex, heaviest first. The slice
// aliases the arena and must not be modified.
func (va *VertexAssignments) At(vertex int) []Assignment {
	sp := va.spans[vertex]
	return va.arena[sp.Start:sp.End():sp.End()]
}

// Span returns where the assignments of a vertex live in the arena.
func (va *VertexAssignments) Span(vertex int) Span {
	return va.spans[vertex]
}

// ArenaLen returns the total number of stored assignments.
func (va *VertexAssignments) ArenaLen() int {
	return len(va.arena)
}

// MaxCount returns the longest per-vertex list.
func (va *VertexAssignments) MaxCount() int {
	return va.maxCount
}

package skin

import (
	"fmt"
	"slices"
)

// Options configures skin extraction.
type Options struct {
	SkipSkinClusters    bool     // treat every mesh as unskinned
	IgnoreDeformers     []string // deformer names never selected
	UsePreBindMatrix    bool     // BindPreMatrix instead of BindLivePose
	BakeScaleFactor     float32  // uniform scale folded into translations; 0 means 1
	ReportSkewed        bool
	MaxNonOrthogonality float64 // 0 means DefaultMaxNonOrthogonality
}

func (o Options) ignores(name string) bool {
	return slices.Contains(o.IgnoreDeformers, name)
}

func (o Options) bakeScale() float32 {
	if o.BakeScaleFactor == 0 {
		return 1
	}
	return o.BakeScaleFactor
}

func (o Options) maxNonOrthogonality() float64 {
	if o.MaxNonOrthogonality <= 0 {
		return DefaultMaxNonOrthogonality
	}
	return o.MaxNonOrthogonality
}

// Rejection is a deformer that was not selected for a mesh.
type Rejection struct {
	Deformer DeformerRef
	Reason   Diagnostic
}

// Selection is the outcome of choosing the skin deformer of one mesh.
type Selection struct {
	Mesh     MeshRef
	Selected *DeformerRef
	Rejected []Rejection
}

// Diagnostics lists the selection findings in scene enumeration order,
// followed by an unskinned note when nothing was selected.
func (s Selection) Diagnostics() []Diagnostic {
	var diags []Diagnostic
	if s.Selected != nil {
		diags = append(diags, selectedDiag(s.Mesh.Name, s.Selected.Name))
	}
	for _, r := range s.Rejected {
		diags = append(diags, r.Reason)
	}
	if s.Selected == nil {
		diags = append(diags, unskinnedDiag(s.Mesh.Name))
	}
	return diags
}

// SelectDeformer picks the single skin deformer driving mesh. The first
// deformer, in scene order, that outputs to mesh and is not ignored
// wins; later ones are rejected with a warning.
func SelectDeformer(host Host, mesh MeshRef, opts Options) (Selection, error) {
	sel := Selection{Mesh: mesh}

	deformers, err := host.SkinDeformers()
	if err != nil {
		return sel, hostErr("enumerating skin deformers for mesh", mesh.Name, err)
	}

	for _, d := range deformers {
		if opts.ignores(d.Name) {
			sel.Rejected = append(sel.Rejected, Rejection{Deformer: d, Reason: ignoredDiag(mesh.Name, d.Name)})
			continue
		}

		outputs, err := host.OutputShapes(d.Handle)
		if err != nil {
			return sel, hostErr("listing output shapes of deformer", d.Name, err)
		}
		if !slices.Contains(outputs, mesh.Shape) {
			continue
		}

		if sel.Selected == nil {
			selected := d
			sel.Selected = &selected
		} else {
			sel.Rejected = append(sel.Rejected, Rejection{Deformer: d, Reason: extraDiag(mesh.Name, d.Name)})
		}
	}

	return sel, nil
}

// Extractor builds the Skeleton of meshes in one host scene.
type Extractor struct {
	host    Host
	nodes   NodeResolver
	opts    Options
	deriver *BindMatrixDeriver
}

// NewExtractor creates an extractor. nodes maps joints to exported nodes.
func NewExtractor(host Host, nodes NodeResolver, opts Options) *Extractor {
	return &Extractor{
		host:    host,
		nodes:   nodes,
		opts:    opts,
		deriver: NewBindMatrixDeriver(opts),
	}
}

// Extract builds the skeleton of mesh. A mesh without an applicable skin
// deformer yields an unskinned Skeleton, not an error. Any failed host
// query aborts with a *HostError.
func (e *Extractor) Extract(mesh MeshRef) (*Skeleton, error) {
	vertexCount, err := e.host.VertexCount(mesh.Shape)
	if err != nil {
		return nil, hostErr("counting vertices of mesh", mesh.Name, err)
	}

	sk := &Skeleton{mesh: mesh.Name}

	if e.opts.SkipSkinClusters {
		sk.assignments = NewStore(vertexCount).Freeze()
		sk.diagnostics = []Diagnostic{unskinnedDiag(mesh.Name)}
		return sk, nil
	}

	sel, err := SelectDeformer(e.host, mesh, e.opts)
	if err != nil {
		return nil, err
	}
	sk.diagnostics = sel.Diagnostics()

	if sel.Selected == nil {
		sk.assignments = NewStore(vertexCount).Freeze()
		return sk, nil
	}

	deformer := *sel.Selected
	sk.deformer = &deformer

	influences, err := e.host.InfluenceObjects(deformer.Handle)
	if err != nil {
		return nil, hostErr("listing influence objects of deformer", deformer.Name, err)
	}
	if len(influences) == 0 {
		sk.diagnostics = append(sk.diagnostics, noInfluencesDiag(mesh.Name, deformer.Name))
	}

	sk.inputShape, err = e.host.InputShape(deformer.Handle, mesh.Shape)
	if err != nil {
		return nil, hostErr("resolving input geometry of mesh", mesh.Name, err)
	}

	sk.joints, err = e.joints(deformer, mesh, influences, sk)
	if err != nil {
		return nil, err
	}

	sk.assignments, err = e.gather(deformer, mesh, vertexCount, len(influences))
	if err != nil {
		return nil, err
	}

	return sk, nil
}

func (e *Extractor) joints(deformer DeformerRef, mesh MeshRef, influences []Handle, sk *Skeleton) ([]Joint, error) {
	meshWorld, err := e.host.WorldMatrix(mesh.Shape)
	if err != nil {
		return nil, hostErr("reading world matrix of mesh", mesh.Name, err)
	}

	joints := make([]Joint, 0, len(influences))
	for _, influence := range influences {
		node, err := e.nodes.ResolveNode(influence)
		if err != nil {
			return nil, hostErr("resolving exported node of joint", string(influence), err)
		}

		ibm, diags, err := e.deriver.Derive(e.host, deformer, influence, node.Name, meshWorld)
		if err != nil {
			return nil, err
		}
		for i := range diags {
			diags[i].Mesh = mesh.Name
		}
		sk.diagnostics = append(sk.diagnostics, diags...)

		joints = append(joints, Joint{
			Node:              node,
			Influence:         influence,
			InverseBindMatrix: ibm,
		})
	}
	return joints, nil
}

func (e *Extractor) gather(deformer DeformerRef, mesh MeshRef, vertexCount, jointCount int) (*VertexAssignments, error) {
	store := NewStore(vertexCount)
	store.Reserve(vertexCount * 8)

	weights := make([]float32, 0, jointCount)
	list := make([]Assignment, 0, jointCount)

	for vertex := 0; vertex < vertexCount; vertex++ {
		var err error
		weights, err = e.host.Weights(deformer.Handle, mesh.Shape, vertex, weights[:0])
		if err != nil {
			return nil, hostErr("reading skin weights of mesh", fmt.Sprintf("%s vertex %d", mesh.Name, vertex), err)
		}
		if len(weights) != jointCount {
			return nil, fmt.Errorf("mesh %s vertex %d: %w: got %d, want %d",
				mesh.Name, vertex, ErrInconsistentWeights, len(weights), jointCount)
		}

		list = FilterAndSort(list, weights)
		if _, err := store.Append(vertex, list); err != nil {
			return nil, fmt.Errorf("mesh %s: %w", mesh.Name, err)
		}
	}

	return store.Freeze(), nil
}

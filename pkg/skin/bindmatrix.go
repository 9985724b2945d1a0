package skin

import (
	"fmt"

	"github.com/Faultbox/maya2gltf/pkg/math"
)

// DefaultMaxNonOrthogonality is the axes deviation above which an inverse
// bind matrix is reported as skewed.
const DefaultMaxNonOrthogonality = 0.05

// BindPolicy selects where inverse bind matrices come from.
type BindPolicy int

const (
	// BindLivePose derives mesh world * inverse(joint world) from the
	// current pose.
	BindLivePose BindPolicy = iota
	// BindPreMatrix uses the bind pre-matrix stored on the deformer.
	BindPreMatrix
)

// String returns the policy name.
func (p BindPolicy) String() string {
	switch p {
	case BindLivePose:
		return "live-pose"
	case BindPreMatrix:
		return "pre-bind-matrix"
	default:
		return fmt.Sprintf("Unknown(%d)", p)
	}
}

// BindMatrixDeriver computes one inverse bind matrix per joint and checks
// its numerical quality.
type BindMatrixDeriver struct {
	policy              BindPolicy
	bakeScale           float32
	reportSkewed        bool
	maxNonOrthogonality float64
}

// NewBindMatrixDeriver creates a deriver configured from opts.
func NewBindMatrixDeriver(opts Options) *BindMatrixDeriver {
	policy := BindLivePose
	if opts.UsePreBindMatrix {
		policy = BindPreMatrix
	}
	return &BindMatrixDeriver{
		policy:              policy,
		bakeScale:           opts.bakeScale(),
		reportSkewed:        opts.ReportSkewed,
		maxNonOrthogonality: opts.maxNonOrthogonality(),
	}
}

// Policy returns the configured policy.
func (d *BindMatrixDeriver) Policy() BindPolicy {
	return d.policy
}

// Derive returns the inverse bind matrix of one influence of deformer,
// with its translation scaled by the bake factor. Singular and skewed
// results are returned with diagnostics, never as errors.
func (d *BindMatrixDeriver) Derive(host Host, deformer DeformerRef, influence Handle, joint string, meshWorld math.Mat4) (math.Mat4, []Diagnostic, error) {
	var ibm math.Mat4

	switch d.policy {
	case BindPreMatrix:
		m, err := host.BindPreMatrix(deformer.Handle, influence)
		if err != nil {
			return math.Mat4{}, nil, hostErr("reading bind pre-matrix of joint", joint, err)
		}
		ibm = m

	default:
		jointWorld, err := host.WorldMatrix(influence)
		if err != nil {
			return math.Mat4{}, nil, hostErr("reading world matrix of joint", joint, err)
		}
		// A non-invertible joint yields the zero matrix, reported below.
		inv, _ := jointWorld.Inverse()
		ibm = inv.Mul(meshWorld)
	}

	ibm = ibm.ScaleTranslation(d.bakeScale)

	return ibm, d.check(deformer.Name, joint, ibm), nil
}

func (d *BindMatrixDeriver) check(deformer, joint string, ibm math.Mat4) []Diagnostic {
	if ibm.IsSingular() {
		return []Diagnostic{singularDiag(deformer, joint)}
	}
	if d.reportSkewed {
		if e := ibm.AxesNonOrthogonality(); e > d.maxNonOrthogonality {
			return []Diagnostic{skewedDiag(deformer, joint, e)}
		}
	}
	return nil
}

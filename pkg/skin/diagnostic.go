package skin

import "fmt"

// Severity classifies a diagnostic.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
)

// String returns "info" or "warning".
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("Unknown(%d)", s)
	}
}

// DiagnosticKind tells what a diagnostic is about.
type DiagnosticKind int

const (
	KindSelectedDeformer DiagnosticKind = iota // deformer chosen for the mesh
	KindIgnoredDeformer                        // deformer on the ignore list
	KindExtraDeformer                          // second or later deformer on the same mesh
	KindUnskinned                              // no deformer selected
	KindSingularMatrix                         // inverse bind matrix has no inverse
	KindSkewedMatrix                           // inverse bind matrix axes not orthogonal
	KindNoInfluences                           // selected deformer has no joints
)

// String returns a short identifier of the kind.
func (k DiagnosticKind) String() string {
	switch k {
	case KindSelectedDeformer:
		return "selected-deformer"
	case KindIgnoredDeformer:
		return "ignored-deformer"
	case KindExtraDeformer:
		return "extra-deformer"
	case KindUnskinned:
		return "unskinned"
	case KindSingularMatrix:
		return "singular-matrix"
	case KindSkewedMatrix:
		return "skewed-matrix"
	case KindNoInfluences:
		return "no-influences"
	default:
		return fmt.Sprintf("Unknown(%d)", k)
	}
}

// Diagnostic is a non-fatal finding produced while extracting a skin.
// Empty fields do not apply to the kind.
type Diagnostic struct {
	Severity  Severity
	Kind      DiagnosticKind
	Mesh      string
	Deformer  string
	Joint     string
	Deviation float64 // axes non-orthogonality, skewed matrices only
	Message   string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s", d.Severity, d.Message)
}

func selectedDiag(mesh, deformer string) Diagnostic {
	return Diagnostic{
		Severity: SeverityInfo,
		Kind:     KindSelectedDeformer,
		Mesh:     mesh,
		Deformer: deformer,
		Message:  fmt.Sprintf("found skin cluster %s for mesh %s", deformer, mesh),
	}
}

func ignoredDiag(mesh, deformer string) Diagnostic {
	return Diagnostic{
		Severity: SeverityInfo,
		Kind:     KindIgnoredDeformer,
		Mesh:     mesh,
		Deformer: deformer,
		Message:  fmt.Sprintf("ignoring skin cluster %s", deformer),
	}
}

func extraDiag(mesh, deformer string) Diagnostic {
	return Diagnostic{
		Severity: SeverityWarning,
		Kind:     KindExtraDeformer,
		Mesh:     mesh,
		Deformer: deformer,
		Message:  fmt.Sprintf("only a single skin cluster is supported, skipping %s for mesh %s", deformer, mesh),
	}
}

func unskinnedDiag(mesh string) Diagnostic {
	return Diagnostic{
		Severity: SeverityInfo,
		Kind:     KindUnskinned,
		Mesh:     mesh,
		Message:  fmt.Sprintf("%s is not skinned", mesh),
	}
}

func noInfluencesDiag(mesh, deformer string) Diagnostic {
	return Diagnostic{
		Severity: SeverityInfo,
		Kind:     KindNoInfluences,
		Mesh:     mesh,
		Deformer: deformer,
		Message:  fmt.Sprintf("skin cluster %s has no influence objects, %s is exported unskinned", deformer, mesh),
	}
}

func singularDiag(deformer, joint string) Diagnostic {
	return Diagnostic{
		Severity: SeverityWarning,
		Kind:     KindSingularMatrix,
		Deformer: deformer,
		Joint:    joint,
		Message:  fmt.Sprintf("inverse bind matrix of joint '%s' is singular", joint),
	}
}

func skewedDiag(deformer, joint string, deviation float64) Diagnostic {
	return Diagnostic{
		Severity:  SeverityWarning,
		Kind:      KindSkewedMatrix,
		Deformer:  deformer,
		Joint:     joint,
		Deviation: deviation,
		Message:   fmt.Sprintf("inverse bind matrix of joint '%s' is skewed, deviation = %.2f%%", joint, deviation*100),
	}
}

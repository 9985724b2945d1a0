package skin

import (
	"errors"
	"fmt"
)

// Skin extraction errors.
var (
	ErrHostQuery           = errors.New("host query failed")
	ErrInconsistentWeights = errors.New("weight count does not match influence count")
	ErrVertexOutOfRange    = errors.New("vertex index out of range")
	ErrStoreFrozen         = errors.New("assignment store is frozen")
	ErrVertexAppended      = errors.New("vertex assignments already appended")
	ErrTooManyJoints       = errors.New("joint index does not fit in 16 bits")
)

// HostError records a failed host query. It matches ErrHostQuery and the
// underlying cause with errors.Is.
type HostError struct {
	Op      string // what was being queried
	Subject string // mesh, deformer or joint name
	Err     error
}

func (e *HostError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Subject, e.Err)
}

func (e *HostError) Unwrap() []error {
	return []error{ErrHostQuery, e.Err}
}

func hostErr(op, subject string, err error) error {
	return &HostError{Op: op, Subject: subject, Err: err}
}

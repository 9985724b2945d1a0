package math

import (
	"testing"
)

func TestVec3Array(t *testing.T) {
	a := [3]float32{1, 2, 3}
	v := Vec3FromArray(a)
	if v != (Vec3{1, 2, 3}) {
		t.Errorf("Vec3FromArray() = %v, want (1, 2, 3)", v)
	}
	if v.Array() != a {
		t.Errorf("Array() = %v, want %v", v.Array(), a)
	}
	if got := v.Scale(2); got != (Vec3{2, 4, 6}) {
		t.Errorf("Scale(2) = %v, want (2, 4, 6)", got)
	}
}

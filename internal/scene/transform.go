package scene

import (
	"math"

	dmat3 "github.com/flywave/go3d/float64/mat3"
	dvec3 "github.com/flywave/go3d/float64/vec3"
)

// Transform is an affine transform: world = Matrix*local + Offset.
// Matrix is column-major (Matrix[c] is column c).
type Transform struct {
	Matrix dmat3.T
	Offset dvec3.T
}

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{Matrix: dmat3.T{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}}
}

// Translation returns a pure translation.
func Translation(x, y, z float64) Transform {
	t := Identity()
	t.Offset = dvec3.T{x, y, z}
	return t
}

// Scaling returns a non-uniform scale.
func Scaling(x, y, z float64) Transform {
	return Transform{Matrix: dmat3.T{{x, 0, 0}, {0, y, 0}, {0, 0, z}}}
}

// FromColumns builds a linear transform from a column-major 3x3 array.
func FromColumns(m [9]float32) Transform {
	var t Transform
	for c := 0; c < 3; c++ {
		for r := 0; r < 3; r++ {
			t.Matrix[c][r] = float64(m[c*3+r])
		}
	}
	return t
}

// AxisAngle returns a rotation of angle radians about axis. A zero axis
// yields the identity.
func AxisAngle(axis dvec3.T, angle float64) Transform {
	l := math.Sqrt(axis[0]*axis[0] + axis[1]*axis[1] + axis[2]*axis[2])
	if l < 1e-6 {
		return Identity()
	}
	x, y, z := axis[0]/l, axis[1]/l, axis[2]/l
	c, s := math.Cos(angle), math.Sin(angle)
	t := 1 - c
	return Transform{Matrix: dmat3.T{
		{t*x*x + c, t*x*y + s*z, t*x*z - s*y},
		{t*x*y - s*z, t*y*y + c, t*y*z + s*x},
		{t*x*z + s*y, t*y*z - s*x, t*z*z + c},
	}}
}

// Quaternion returns the rotation of the quaternion (x, y, z, w).
func Quaternion(q [4]float64) Transform {
	l := math.Sqrt(q[0]*q[0] + q[1]*q[1] + q[2]*q[2] + q[3]*q[3])
	if l < 1e-9 {
		return Identity()
	}
	x, y, z, w := q[0]/l, q[1]/l, q[2]/l, q[3]/l
	return Transform{Matrix: dmat3.T{
		{1 - 2*(y*y+z*z), 2 * (x*y + z*w), 2 * (x*z - y*w)},
		{2 * (x*y - z*w), 1 - 2*(x*x+z*z), 2 * (y*z + x*w)},
		{2 * (x*z + y*w), 2 * (y*z - x*w), 1 - 2*(x*x+y*y)},
	}}
}

// Determinant returns the determinant of the linear part. A non-positive
// value means the transform mirrors geometry.
func (t Transform) Determinant() float64 {
	return t.Matrix.Determinant()
}

// ApplyLinear transforms a direction (rotation/scale only).
func (t Transform) ApplyLinear(v dvec3.T) dvec3.T {
	m := &t.Matrix
	return dvec3.T{
		m[0][0]*v[0] + m[1][0]*v[1] + m[2][0]*v[2],
		m[0][1]*v[0] + m[1][1]*v[1] + m[2][1]*v[2],
		m[0][2]*v[0] + m[1][2]*v[1] + m[2][2]*v[2],
	}
}

// Apply transforms a position.
func (t Transform) Apply(v dvec3.T) dvec3.T {
	r := t.ApplyLinear(v)
	return dvec3.T{r[0] + t.Offset[0], r[1] + t.Offset[1], r[2] + t.Offset[2]}
}

// Mul returns t applied after o (t * o).
func (t Transform) Mul(o Transform) Transform {
	var r Transform
	for c := 0; c < 3; c++ {
		r.Matrix[c] = t.ApplyLinear(o.Matrix[c])
	}
	r.Offset = t.Apply(o.Offset)
	return r
}

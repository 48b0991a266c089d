package math

// Mat3x4 is an affine 3x4 matrix (3 rows, 4 columns) stored as its four columns: the upper 3x3
// linear part plus a translation column. It is the on-disk shape of the
// entity table's local/global matrices (§3: "3x4 local matrix, 3x4 global
// matrix"), serialized column-major (§4.1).
type Mat3x4 struct {
	// Columns, 3 components each: X, Y, Z, Translation.
	C0, C1, C2, C3 Vec3
}

func Mat3x4FromMat4(m Mat4) Mat3x4 {
	// Mat4.Data is column-major (see NewMat4Identity/Mul), 4 floats per column.
	col := func(i int) Vec3 {
		o := i * 4
		return Vec3{m.Data[o], m.Data[o+1], m.Data[o+2]}
	}
	return Mat3x4{C0: col(0), C1: col(1), C2: col(2), C3: col(3)}
}

// Mat3 is a 3x3 linear matrix, used for the entity table's normal matrix
// (inverse-transpose of the upper 3x3 of the global transform).
type Mat3 struct {
	C0, C1, C2 Vec3
}

func Mat3FromMat4Upper(m Mat4) Mat3 {
	a := Mat3x4FromMat4(m)
	return Mat3{C0: a.C0, C1: a.C1, C2: a.C2}
}

func (m Mat3) Transposed() Mat3 {
	return Mat3{
		C0: Vec3{m.C0.X, m.C1.X, m.C2.X},
		C1: Vec3{m.C0.Y, m.C1.Y, m.C2.Y},
		C2: Vec3{m.C0.Z, m.C1.Z, m.C2.Z},
	}
}

func (m Mat3) Determinant() float32 {
	return m.C0.X*(m.C1.Y*m.C2.Z-m.C2.Y*m.C1.Z) -
		m.C1.X*(m.C0.Y*m.C2.Z-m.C2.Y*m.C0.Z) +
		m.C2.X*(m.C0.Y*m.C1.Z-m.C1.Y*m.C0.Z)
}

// Inverse returns the matrix inverse, or the identity if singular (the
// scene loader should never hit a singular transform in practice, but a
// degenerate entity scale must not crash the pipeline per §7 Structural).
func (m Mat3) Inverse() Mat3 {
	det := m.Determinant()
	if det > -1e-12 && det < 1e-12 {
		return Mat3{C0: Vec3{1, 0, 0}, C1: Vec3{0, 1, 0}, C2: Vec3{0, 0, 1}}
	}
	invDet := 1.0 / det
	cof := Mat3{
		C0: Vec3{
			m.C1.Y*m.C2.Z - m.C2.Y*m.C1.Z,
			-(m.C1.X*m.C2.Z - m.C2.X*m.C1.Z),
			m.C1.X*m.C2.Y - m.C2.X*m.C1.Y,
		},
		C1: Vec3{
			-(m.C0.Y*m.C2.Z - m.C2.Y*m.C0.Z),
			m.C0.X*m.C2.Z - m.C2.X*m.C0.Z,
			-(m.C0.X*m.C2.Y - m.C2.X*m.C0.Y),
		},
		C2: Vec3{
			m.C0.Y*m.C1.Z - m.C1.Y*m.C0.Z,
			-(m.C0.X*m.C1.Z - m.C1.X*m.C0.Z),
			m.C0.X*m.C1.Y - m.C1.X*m.C0.Y,
		},
	}
	adj := cof.Transposed()
	return Mat3{
		C0: adj.C0.MulScalar(invDet),
		C1: adj.C1.MulScalar(invDet),
		C2: adj.C2.MulScalar(invDet),
	}
}

// NormalMatrix is the inverse-transpose of the upper 3x3 of a global
// transform, used to transform normals correctly under non-uniform scale.
func NormalMatrix(global Mat4) Mat3 {
	return Mat3FromMat4Upper(global).Inverse().Transposed()
}

// AffineTransform is the entity/shape transform: an invertible 4x4 matrix
// plus its cached inverse, matching §3 Entity's "affine transform (stored
// and inverted)".
type AffineTransform struct {
	Matrix  Mat4
	Inverse Mat4
}

func NewAffineTransform(m Mat4) AffineTransform {
	return AffineTransform{Matrix: m, Inverse: m.Inverse()}
}

func IdentityAffineTransform() AffineTransform {
	return NewAffineTransform(NewMat4Identity())
}

// Compose returns parent-then-child composition (child's local transform
// expressed in parent's space), matching Transform.GetWorld's convention.
func (a AffineTransform) Compose(parent AffineTransform) AffineTransform {
	return NewAffineTransform(a.Matrix.Mul(parent.Matrix))
}

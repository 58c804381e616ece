// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package linalg

import "math"

// Quat is a rotation quaternion with vector part V and scalar part W.
type Quat struct {
	V Vec3
	W float32
}

// QuatIdent returns the identity rotation.
func QuatIdent() Quat {
	return Quat{W: 1}
}

// QuatFromAxisAngle builds a rotation of angle radians about axis.
func QuatFromAxisAngle(axis Vec3, angle float32) Quat {
	s := float32(math.Sin(float64(angle * 0.5)))
	c := float32(math.Cos(float64(angle * 0.5)))
	return Quat{V: axis.Normalize().Mul(s), W: c}
}

// Mul composes two rotations; q.Mul(o) applies o first.
func (q Quat) Mul(o Quat) Quat {
	return Quat{
		V: q.V.Cross(o.V).Add(o.V.Mul(q.W)).Add(q.V.Mul(o.W)),
		W: q.W*o.W - q.V.Dot(o.V),
	}
}

// Dot returns the 4D dot product of two quaternions.
func (q Quat) Dot(o Quat) float32 {
	return q.V.Dot(o.V) + q.W*o.W
}

// Len returns the norm of q.
func (q Quat) Len() float32 {
	return float32(math.Sqrt(float64(q.Dot(q))))
}

// Normalize returns the unit quaternion of q. The zero quaternion becomes
// the identity.
func (q Quat) Normalize() Quat {
	l := q.Len()
	if l == 0 {
		return QuatIdent()
	}
	return Quat{V: q.V.Mul(1 / l), W: q.W / l}
}

// Conjugate returns the inverse rotation of a unit quaternion.
func (q Quat) Conjugate() Quat {
	return Quat{V: q.V.Mul(-1), W: q.W}
}

// Rotate rotates v by q.
func (q Quat) Rotate(v Vec3) Vec3 {
	cross := q.V.Cross(v)
	return v.Add(cross.Mul(2 * q.W)).Add(q.V.Mul(2).Cross(cross))
}

// Mat4 returns the rotation matrix of q.
func (q Quat) Mat4() Mat4 {
	w, x, y, z := q.W, q.V[0], q.V[1], q.V[2]
	return Mat4{
		1 - 2*y*y - 2*z*z, 2*x*y - 2*w*z, 2*x*z + 2*w*y, 0,
		2*x*y + 2*w*z, 1 - 2*x*x - 2*z*z, 2*y*z - 2*w*x, 0,
		2*x*z - 2*w*y, 2*y*z + 2*w*x, 1 - 2*x*x - 2*y*y, 0,
		0, 0, 0, 1,
	}
}

// QuatFromBasis returns the rotation whose matrix has the columns x, y
// and z. The basis must be orthonormal.
func QuatFromBasis(x, y, z Vec3) Quat {
	m00, m01, m02 := x[0], y[0], z[0]
	m10, m11, m12 := x[1], y[1], z[1]
	m20, m21, m22 := x[2], y[2], z[2]

	sqrt := func(v float32) float32 { return float32(math.Sqrt(float64(v))) }

	switch trace := m00 + m11 + m22; {
	case trace > 0:
		s := 0.5 / sqrt(trace+1)
		return Quat{V: Vec3{(m21 - m12) * s, (m02 - m20) * s, (m10 - m01) * s}, W: 0.25 / s}
	case m00 > m11 && m00 > m22:
		s := 2 * sqrt(1+m00-m11-m22)
		return Quat{V: Vec3{0.25 * s, (m01 + m10) / s, (m02 + m20) / s}, W: (m21 - m12) / s}
	case m11 > m22:
		s := 2 * sqrt(1+m11-m00-m22)
		return Quat{V: Vec3{(m01 + m10) / s, 0.25 * s, (m12 + m21) / s}, W: (m02 - m20) / s}
	default:
		s := 2 * sqrt(1+m22-m00-m11)
		return Quat{V: Vec3{(m02 + m20) / s, (m12 + m21) / s, 0.25 * s}, W: (m10 - m01) / s}
	}
}

// QuatLookAt returns the orientation of an object at eye whose -Z axis
// points at target.
func QuatLookAt(eye, target, up Vec3) Quat {
	z := eye.Sub(target).Normalize()
	x := up.Cross(z).Normalize()
	y := z.Cross(x)
	return QuatFromBasis(x, y, z).Normalize()
}

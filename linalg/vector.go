// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package linalg provides the small vector, matrix and quaternion toolkit
// shared by the camera, the G-buffer pass and the screen-space stages.
//
// Types are defined over golang.org/x/image/math/f32 so values convert to
// and from the f32 arrays without copying. Matrices are row major
// (m[4*row+col]), matching the f32 package documentation.
package linalg

import (
	"math"

	"golang.org/x/image/math/f32"
)

// Vec2 is a 2 component vector.
type Vec2 f32.Vec2

// Vec3 is a 3 component vector.
type Vec3 f32.Vec3

// Vec4 is a 4 component vector.
type Vec4 f32.Vec4

// XY builds a Vec2.
func XY(x, y float32) Vec2 { return Vec2{x, y} }

// XYZ builds a Vec3.
func XYZ(x, y, z float32) Vec3 { return Vec3{x, y, z} }

// XYZW builds a Vec4.
func XYZW(x, y, z, w float32) Vec4 { return Vec4{x, y, z, w} }

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v[0] + o[0], v[1] + o[1]} }

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v[0] - o[0], v[1] - o[1]} }

// Mul scales v by s.
func (v Vec2) Mul(s float32) Vec2 { return Vec2{v[0] * s, v[1] * s} }

// Vec4 expands v to a homogeneous point with the given z and w.
func (v Vec3) Vec4(w float32) Vec4 { return Vec4{v[0], v[1], v[2], w} }

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v[0] + o[0], v[1] + o[1], v[2] + o[2]} }

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v[0] - o[0], v[1] - o[1], v[2] - o[2]} }

// Mul scales v by s.
func (v Vec3) Mul(s float32) Vec3 { return Vec3{v[0] * s, v[1] * s, v[2] * s} }

// MulVec multiplies component-wise.
func (v Vec3) MulVec(o Vec3) Vec3 { return Vec3{v[0] * o[0], v[1] * o[1], v[2] * o[2]} }

// Dot returns the dot product.
func (v Vec3) Dot(o Vec3) float32 { return v[0]*o[0] + v[1]*o[1] + v[2]*o[2] }

// Cross returns the cross product.
func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v[1]*o[2] - v[2]*o[1],
		v[2]*o[0] - v[0]*o[2],
		v[0]*o[1] - v[1]*o[0],
	}
}

// LenSq returns the squared length.
func (v Vec3) LenSq() float32 { return v.Dot(v) }

// Len returns the length.
func (v Vec3) Len() float32 { return float32(math.Sqrt(float64(v.Dot(v)))) }

// DistanceSq returns the squared distance between two points.
func (v Vec3) DistanceSq(o Vec3) float32 { return v.Sub(o).LenSq() }

// Normalize returns v scaled to unit length. The zero vector is returned
// unchanged.
func (v Vec3) Normalize() Vec3 {
	l := v.Len()
	if l == 0 {
		return v
	}
	return v.Mul(1 / l)
}

// Reflect reflects the incident vector v about the unit normal n.
func (v Vec3) Reflect(n Vec3) Vec3 {
	return v.Sub(n.Mul(2 * v.Dot(n)))
}

// Vec3 drops the w component.
func (v Vec4) Vec3() Vec3 { return Vec3{v[0], v[1], v[2]} }

// PerspectiveDivide returns xyz/w.
func (v Vec4) PerspectiveDivide() Vec3 {
	if v[3] == 0 {
		return v.Vec3()
	}
	inv := 1 / v[3]
	return Vec3{v[0] * inv, v[1] * inv, v[2] * inv}
}

// Dot returns the 4 component dot product.
func (v Vec4) Dot(o Vec4) float32 {
	return v[0]*o[0] + v[1]*o[1] + v[2]*o[2] + v[3]*o[3]
}

// Lerp linearly interpolates between a and b.
func Lerp(a, b, t float32) float32 { return a + (b-a)*t }

// Clamp limits x to [lo, hi].
func Clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Abs returns |x|.
func Abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

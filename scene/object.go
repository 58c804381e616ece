// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scene

import (
	"math"

	"github.com/gogpu/ssgi/linalg"
)

// Material describes the surface of an object.
type Material struct {
	Albedo    linalg.Vec3
	Roughness float32
	Metalness float32
	Emissive  linalg.Vec3
}

// Shape is geometry in object space.
type Shape interface {
	// Intersect returns the nearest hit distance along the ray with t > 0
	// and the outward normal there.
	Intersect(origin, dir linalg.Vec3) (t float32, normal linalg.Vec3, ok bool)
}

// Sphere is centred at the origin.
type Sphere struct {
	Radius float32
}

// Intersect implements Shape.
func (s Sphere) Intersect(origin, dir linalg.Vec3) (float32, linalg.Vec3, bool) {
	a := dir.Dot(dir)
	b := origin.Dot(dir)
	c := origin.Dot(origin) - s.Radius*s.Radius
	disc := b*b - a*c
	if disc < 0 {
		return 0, linalg.Vec3{}, false
	}
	sq := float32(math.Sqrt(float64(disc)))
	t := (-b - sq) / a
	if t <= epsilon {
		t = (-b + sq) / a
		if t <= epsilon {
			return 0, linalg.Vec3{}, false
		}
	}
	n := origin.Add(dir.Mul(t)).Normalize()
	return t, n, true
}

// Plane is a Width × Depth rectangle in the XZ plane facing +Y.
type Plane struct {
	Width, Depth float32
}

// Intersect implements Shape.
func (p Plane) Intersect(origin, dir linalg.Vec3) (float32, linalg.Vec3, bool) {
	if dir[1] == 0 {
		return 0, linalg.Vec3{}, false
	}
	t := -origin[1] / dir[1]
	if t <= epsilon {
		return 0, linalg.Vec3{}, false
	}
	hit := origin.Add(dir.Mul(t))
	if linalg.Abs(hit[0]) > p.Width/2 || linalg.Abs(hit[2]) > p.Depth/2 {
		return 0, linalg.Vec3{}, false
	}
	n := linalg.Vec3{0, 1, 0}
	if dir[1] > 0 {
		n = linalg.Vec3{0, -1, 0}
	}
	return t, n, true
}

// Box is an axis-aligned box centred at the origin.
type Box struct {
	Half linalg.Vec3
}

// Intersect implements Shape.
func (b Box) Intersect(origin, dir linalg.Vec3) (float32, linalg.Vec3, bool) {
	tNear := float32(math.Inf(-1))
	tFar := float32(math.Inf(1))
	axis := -1
	for i := range 3 {
		if dir[i] == 0 {
			if linalg.Abs(origin[i]) > b.Half[i] {
				return 0, linalg.Vec3{}, false
			}
			continue
		}
		t0 := (-b.Half[i] - origin[i]) / dir[i]
		t1 := (b.Half[i] - origin[i]) / dir[i]
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		if t0 > tNear {
			tNear = t0
			axis = i
		}
		tFar = min(tFar, t1)
		if tNear > tFar {
			return 0, linalg.Vec3{}, false
		}
	}
	if axis < 0 || tNear <= epsilon {
		return 0, linalg.Vec3{}, false
	}
	var n linalg.Vec3
	n[axis] = 1
	if dir[axis] > 0 {
		n[axis] = -1
	}
	return tNear, n, true
}

const epsilon = 1e-4

// Object places a shape in the world.
type Object struct {
	Name     string
	Shape    Shape
	Material Material
	Position linalg.Vec3
	Rotation linalg.Quat
	Visible  bool
}

// NewObject creates a visible object at the origin.
func NewObject(name string, shape Shape, m Material) *Object {
	return &Object{
		Name:     name,
		Shape:    shape,
		Material: m,
		Rotation: linalg.QuatIdent(),
		Visible:  true,
	}
}

// World returns the object-to-world matrix.
func (o *Object) World() linalg.Mat4 {
	return linalg.Compose(o.Position, o.Rotation)
}

// intersect tests a world-space ray against the object.
func (o *Object) intersect(origin, dir linalg.Vec3) (float32, linalg.Vec3, bool) {
	inv := o.Rotation.Conjugate()
	lo := inv.Rotate(origin.Sub(o.Position))
	ld := inv.Rotate(dir)
	t, n, ok := o.Shape.Intersect(lo, ld)
	if !ok {
		return 0, linalg.Vec3{}, false
	}
	return t, o.Rotation.Rotate(n), true
}

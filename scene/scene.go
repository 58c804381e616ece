// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package scene is a small 3D scene graph: a camera, ray-traced objects, a
// sun and an environment map.
//
// The screen-space passes only need what a rasterizer would hand them, so
// Trace plays the role of rasterization: it resolves the visible surface
// under a pixel.
package scene

import (
	"iter"
	"math"

	"github.com/gogpu/ssgi/linalg"
)

// Sun is a directional light.
type Sun struct {
	// Direction points from the surface towards the light.
	Direction linalg.Vec3
	Color     linalg.Vec3
	Intensity float32
}

// Scene holds the objects and lights of a frame.
type Scene struct {
	Objects     []*Object
	Sun         Sun
	Environment *Environment

	// Background is returned for rays that miss everything when no
	// environment is set.
	Background linalg.Vec3
}

// New creates an empty scene with a white sun shining straight down.
func New() *Scene {
	return &Scene{
		Sun: Sun{
			Direction: linalg.Vec3{0, 1, 0},
			Color:     linalg.Vec3{1, 1, 1},
			Intensity: 1,
		},
	}
}

// Add appends objects.
func (s *Scene) Add(objects ...*Object) {
	s.Objects = append(s.Objects, objects...)
}

// TraverseVisible yields the visible objects.
func (s *Scene) TraverseVisible() iter.Seq[*Object] {
	return func(yield func(*Object) bool) {
		for _, o := range s.Objects {
			if o.Visible && !yield(o) {
				return
			}
		}
	}
}

// Hit is the nearest visible surface along a ray.
type Hit struct {
	Object   *Object
	Distance float32
	Point    linalg.Vec3
	Normal   linalg.Vec3
}

// Trace returns the nearest visible surface along the ray.
func (s *Scene) Trace(origin, dir linalg.Vec3) (Hit, bool) {
	best := Hit{Distance: float32(math.Inf(1))}
	for o := range s.TraverseVisible() {
		t, n, ok := o.intersect(origin, dir)
		if ok && t < best.Distance {
			best = Hit{Object: o, Distance: t, Normal: n}
		}
	}
	if best.Object == nil {
		return Hit{}, false
	}
	best.Point = origin.Add(dir.Mul(best.Distance))
	return best, true
}

// Occluded reports whether anything visible lies along the ray.
func (s *Scene) Occluded(origin, dir linalg.Vec3) bool {
	for o := range s.TraverseVisible() {
		if _, _, ok := o.intersect(origin, dir); ok {
			return true
		}
	}
	return false
}

// Sky returns the radiance arriving from direction dir.
func (s *Scene) Sky(dir linalg.Vec3) linalg.Vec3 {
	if s.Environment != nil {
		return s.Environment.SampleDir(dir, 0)
	}
	return s.Background
}

// OverrideVisibility hides every object not in keep and returns a function
// restoring the previous visibility.
func (s *Scene) OverrideVisibility(keep func(*Object) bool) (restore func()) {
	saved := make([]bool, len(s.Objects))
	for i, o := range s.Objects {
		saved[i] = o.Visible
		if o.Visible && !keep(o) {
			o.Visible = false
		}
	}
	return func() {
		for i, o := range s.Objects {
			if i < len(saved) {
				o.Visible = saved[i]
			}
		}
	}
}

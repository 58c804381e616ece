// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scene

import (
	"math"

	"github.com/gogpu/ssgi/linalg"
)

// ViewOffset shifts the frustum by a sub-rectangle of a larger virtual
// image, in pixels of that image.
type ViewOffset struct {
	FullWidth, FullHeight float32
	X, Y                  float32
	Width, Height         float32
}

// Camera is a perspective camera looking down its local -Z axis.
//
// The projection is rebuilt from the parameters by UpdateProjection, so
// clearing a view offset restores exactly the matrix the camera had before
// the offset was set.
type Camera struct {
	Position linalg.Vec3
	Rotation linalg.Quat

	// Fov is the vertical field of view in degrees.
	Fov    float32
	Aspect float32
	Near   float32
	Far    float32

	view    ViewOffset
	hasView bool

	projection        linalg.Mat4
	projectionInverse linalg.Mat4
}

// NewCamera creates a camera at the origin.
func NewCamera(fov, aspect, near, far float32) *Camera {
	c := &Camera{
		Rotation: linalg.QuatIdent(),
		Fov:      fov,
		Aspect:   aspect,
		Near:     near,
		Far:      far,
	}
	c.UpdateProjection()
	return c
}

// LookAt orients the camera towards target with +Y up.
func (c *Camera) LookAt(target linalg.Vec3) {
	c.Rotation = linalg.QuatLookAt(c.Position, target, linalg.Vec3{0, 1, 0})
}

// UpdateProjection rebuilds the projection matrices. Call it after changing
// Fov, Aspect, Near or Far.
func (c *Camera) UpdateProjection() {
	c.projection = c.frustum(c.hasView)
	c.projectionInverse = c.projection.Inverse()
}

func (c *Camera) frustum(withView bool) linalg.Mat4 {
	top := c.Near * float32(math.Tan(float64(c.Fov)*math.Pi/360))
	height := 2 * top
	width := c.Aspect * height
	left := -0.5 * width

	if withView {
		v := c.view
		left += v.X * width / v.FullWidth
		top -= v.Y * height / v.FullHeight
		width *= v.Width / v.FullWidth
		height *= v.Height / v.FullHeight
	}
	return linalg.Frustum(left, left+width, top-height, top, c.Near, c.Far)
}

// SetViewOffset renders a sub-rectangle of a larger virtual image. Passing
// the full size with a fractional x and y jitters the projection by a
// sub-pixel amount.
func (c *Camera) SetViewOffset(fullWidth, fullHeight, x, y, width, height float32) {
	c.view = ViewOffset{
		FullWidth:  fullWidth,
		FullHeight: fullHeight,
		X:          x,
		Y:          y,
		Width:      width,
		Height:     height,
	}
	c.hasView = true
	c.UpdateProjection()
}

// ClearViewOffset removes the view offset.
func (c *Camera) ClearViewOffset() {
	c.view = ViewOffset{}
	c.hasView = false
	c.UpdateProjection()
}

// ViewOffset returns the active view offset, if any.
func (c *Camera) ViewOffset() (ViewOffset, bool) {
	return c.view, c.hasView
}

// Projection returns the projection matrix, including any view offset.
func (c *Camera) Projection() linalg.Mat4 { return c.projection }

// ProjectionInverse returns the inverse of Projection.
func (c *Camera) ProjectionInverse() linalg.Mat4 { return c.projectionInverse }

// UnjitteredProjection returns the projection without the view offset.
func (c *Camera) UnjitteredProjection() linalg.Mat4 { return c.frustum(false) }

// World returns the camera-to-world matrix.
func (c *Camera) World() linalg.Mat4 { return linalg.Compose(c.Position, c.Rotation) }

// View returns the world-to-camera matrix.
func (c *Camera) View() linalg.Mat4 { return c.World().Inverse() }

// ViewProjection returns Projection * View.
func (c *Camera) ViewProjection() linalg.Mat4 { return c.projection.Mul(c.View()) }

// Ray returns the world-space primary ray through the normalized screen
// coordinate (u, v), where (0, 0) is the top-left corner.
func (c *Camera) Ray(u, v float32) (origin, dir linalg.Vec3) {
	ndc := linalg.Vec4{u*2 - 1, 1 - v*2, -1, 1}
	p := c.projectionInverse.MulVec4(ndc).PerspectiveDivide()
	dir = c.Rotation.Rotate(p).Normalize()
	return c.Position, dir
}

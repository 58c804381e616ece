// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scene

import (
	"math"

	"github.com/gogpu/ssgi/linalg"
	"github.com/gogpu/ssgi/render"
)

// Mapping is how an environment texture is addressed.
type Mapping int

// Texture mappings.
const (
	MappingUV Mapping = iota
	MappingEquirectangular
	MappingCube
)

// String returns the mapping name.
func (m Mapping) String() string {
	switch m {
	case MappingUV:
		return "uv"
	case MappingEquirectangular:
		return "equirectangular"
	case MappingCube:
		return "cube"
	default:
		return "unknown"
	}
}

// Filter is a texture filter mode.
type Filter int

// Filter modes.
const (
	FilterNearest Filter = iota
	FilterLinear
	FilterLinearMipmapLinear
)

// Environment is the lighting map of a scene.
//
// Prepare box-filters the mip levels from level 0 when GenerateMipmaps is
// set and the minification filter uses mipmaps. Level n is half the size of level n-1 until
// both dimensions reach 1.
type Environment struct {
	Texture         *render.Texture
	Mapping         Mapping
	GenerateMipmaps bool
	MinFilter       Filter
	MagFilter       Filter

	needsUpdate bool
	version     int
	mips        []*render.Texture
}

// NewEnvironment wraps a texture.
func NewEnvironment(tex *render.Texture, mapping Mapping) *Environment {
	return &Environment{
		Texture:   tex,
		Mapping:   mapping,
		MinFilter: FilterLinear,
		MagFilter: FilterLinear,
	}
}

// SetNeedsUpdate marks the texture contents or sampling state changed.
func (e *Environment) SetNeedsUpdate() {
	e.needsUpdate = true
	e.version++
}

// NeedsUpdate reports whether a change is pending upload.
func (e *Environment) NeedsUpdate() bool { return e.needsUpdate }

// Version counts SetNeedsUpdate calls.
func (e *Environment) Version() int { return e.version }

// MaxMipLevel returns floor(log2(max(width, height))), the index of the
// 1×1 level.
func (e *Environment) MaxMipLevel() int {
	if e.Texture == nil {
		return 0
	}
	d := max(e.Texture.Width(), e.Texture.Height())
	return int(math.Floor(math.Log2(float64(d))))
}

// Levels returns the number of prepared mip levels, at least 1.
func (e *Environment) Levels() int {
	return max(1, len(e.mips))
}

// Mip returns prepared level n, clamped to the available levels.
func (e *Environment) Mip(n int) *render.Texture {
	if len(e.mips) == 0 {
		return e.Texture
	}
	return e.mips[min(max(n, 0), len(e.mips)-1)]
}

// Prepare rebuilds the mip chain if the environment changed since the
// last call. Call it before sampling from several goroutines.
func (e *Environment) Prepare() {
	if e.mips != nil && !e.needsUpdate {
		return
	}
	e.needsUpdate = false
	e.mips = append(e.mips[:0], e.Texture)
	if !e.GenerateMipmaps || e.MinFilter != FilterLinearMipmapLinear {
		return
	}
	for range e.MaxMipLevel() {
		e.mips = append(e.mips, downsample(e.mips[len(e.mips)-1]))
	}
}

// downsample halves src with a 2×2 box filter, clamping at odd edges.
func downsample(src *render.Texture) *render.Texture {
	w, h := src.Width(), src.Height()
	dst := render.NewTexture(render.TextureDescriptor{
		Label:  src.Label(),
		Width:  max(1, w/2),
		Height: max(1, h/2),
		Format: src.Format(),
	})
	for y := range dst.Height() {
		for x := range dst.Width() {
			sx, sy := x*2, y*2
			a := src.At(sx, sy)
			b := src.At(sx+1, sy)
			c := src.At(sx, sy+1)
			d := src.At(sx+1, sy+1)
			var avg linalg.Vec4
			for i := range avg {
				avg[i] = (a[i] + b[i] + c[i] + d[i]) / 4
			}
			dst.Set(x, y, avg)
		}
	}
	return dst
}

// EquirectUV maps a world direction to equirectangular coordinates.
func EquirectUV(dir linalg.Vec3) (u, v float32) {
	u = float32(math.Atan2(float64(dir[2]), float64(dir[0]))/(2*math.Pi)) + 0.5
	v = float32(math.Acos(float64(linalg.Clamp(dir[1], -1, 1))) / math.Pi)
	return u, v
}

// SampleDir returns the radiance from direction dir at mip level lod,
// blending the two nearest levels. Non-equirectangular maps return zero.
func (e *Environment) SampleDir(dir linalg.Vec3, lod float32) linalg.Vec3 {
	if e == nil || e.Texture == nil || e.Mapping != MappingEquirectangular {
		return linalg.Vec3{}
	}
	u, v := EquirectUV(dir.Normalize())

	lod = linalg.Clamp(lod, 0, float32(e.Levels()-1))
	lo := int(lod)
	a := e.Mip(lo).Sample(u, v).Vec3()
	if frac := lod - float32(lo); frac > 0 {
		b := e.Mip(lo+1).Sample(u, v).Vec3()
		return a.Add(b.Sub(a).Mul(frac))
	}
	return a
}

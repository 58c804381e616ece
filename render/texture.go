// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/ssgi/linalg"
)

// Texture is a 2D image of float RGBA texels.
//
// Texel (0, 0) is the top-left corner. Normalized coordinates put texel
// centres at ((x+0.5)/w, (y+0.5)/h), matching the full-screen vertex stage.
//
// Reads outside the image clamp to the edge. Concurrent reads are safe;
// writes to disjoint rows are safe.
type Texture struct {
	label  string
	width  int
	height int
	format gputypes.TextureFormat
	usage  TextureUsage
	pix    []linalg.Vec4
}

// NewTexture allocates a zeroed texture. Sizes below 1 are raised to 1.
func NewTexture(desc TextureDescriptor) *Texture {
	t := &Texture{
		label:  desc.Label,
		format: desc.Format,
		usage:  desc.Usage,
	}
	t.resize(desc.Width, desc.Height)
	return t
}

func (t *Texture) resize(width, height int) {
	t.width = max(1, width)
	t.height = max(1, height)
	t.pix = make([]linalg.Vec4, t.width*t.height)
}

// Label returns the debug label.
func (t *Texture) Label() string { return t.label }

// Width returns the texture width in pixels.
func (t *Texture) Width() int { return t.width }

// Height returns the texture height in pixels.
func (t *Texture) Height() int { return t.height }

// Format returns the texture pixel format.
func (t *Texture) Format() gputypes.TextureFormat { return t.format }

// Usage returns the usage flags.
func (t *Texture) Usage() TextureUsage { return t.usage }

// Pix returns the texels in row-major order. The slice aliases the texture.
func (t *Texture) Pix() []linalg.Vec4 { return t.pix }

// At returns the texel at (x, y), clamped to the image.
func (t *Texture) At(x, y int) linalg.Vec4 {
	x = min(max(x, 0), t.width-1)
	y = min(max(y, 0), t.height-1)
	return t.pix[y*t.width+x]
}

// Set stores a texel. Out-of-range coordinates are ignored.
func (t *Texture) Set(x, y int, v linalg.Vec4) {
	if x < 0 || y < 0 || x >= t.width || y >= t.height {
		return
	}
	t.pix[y*t.width+x] = v
}

// Load returns the texel containing the normalized coordinate (u, v), the
// way textureLoad(tex, vec2<i32>(uv * size)) does.
func (t *Texture) Load(u, v float32) linalg.Vec4 {
	return t.At(int(math.Floor(float64(u*float32(t.width)))), int(math.Floor(float64(v*float32(t.height)))))
}

// Sample returns the bilinearly filtered value at (u, v) with clamp-to-edge
// addressing.
func (t *Texture) Sample(u, v float32) linalg.Vec4 {
	fx := float64(u*float32(t.width)) - 0.5
	fy := float64(v*float32(t.height)) - 0.5
	x0 := math.Floor(fx)
	y0 := math.Floor(fy)
	tx := float32(fx - x0)
	ty := float32(fy - y0)
	ix, iy := int(x0), int(y0)

	a := t.At(ix, iy)
	b := t.At(ix+1, iy)
	c := t.At(ix, iy+1)
	d := t.At(ix+1, iy+1)

	var out linalg.Vec4
	for i := range out {
		top := a[i] + (b[i]-a[i])*tx
		bottom := c[i] + (d[i]-c[i])*tx
		out[i] = top + (bottom-top)*ty
	}
	return out
}

// Fill sets every texel to v.
func (t *Texture) Fill(v linalg.Vec4) {
	for i := range t.pix {
		t.pix[i] = v
	}
}

// Clear zeroes every texel.
func (t *Texture) Clear() {
	clear(t.pix)
}

// CopyFrom copies src into t. Mismatched sizes are a programming error and
// panic.
func (t *Texture) CopyFrom(src *Texture) {
	if src.width != t.width || src.height != t.height {
		panic(fmt.Sprintf("render: copy %q (%dx%d) into %q (%dx%d)",
			src.label, src.width, src.height, t.label, t.width, t.height))
	}
	copy(t.pix, src.pix)
}

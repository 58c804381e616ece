// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package velocity

import (
	"github.com/gogpu/ssgi/internal/halton"
	"github.com/gogpu/ssgi/scene"
)

// Jitter cycles the camera through sub-pixel Halton offsets, one per frame.
type Jitter struct {
	points []halton.Point
	index  int
}

// NewJitter creates a jitter over count Halton points. Counts below 1 use
// halton.DefaultCount.
func NewJitter(count int) *Jitter {
	if count < 1 {
		count = halton.DefaultCount
	}
	return &Jitter{points: halton.Generate(count)}
}

// Index returns the index of the offset used by the last Apply.
func (j *Jitter) Index() int { return j.index }

// Len returns the sequence length.
func (j *Jitter) Len() int { return len(j.points) }

// Apply clears any previous offset, advances to the next point and offsets
// cam by it, scaled by scale pixels of a width × height image.
func (j *Jitter) Apply(cam *scene.Camera, width, height int, scale float32) halton.Point {
	j.Clear(cam)

	j.index = (j.index + 1) % len(j.points)
	p := j.points[j.index]

	w, h := float32(width), float32(height)
	cam.SetViewOffset(w, h, float32(p.X)*scale, float32(p.Y)*scale, w, h)
	return p
}

// Clear restores the unjittered projection of cam.
func (j *Jitter) Clear(cam *scene.Camera) {
	if _, ok := cam.ViewOffset(); ok {
		cam.ClearViewOffset()
	}
}

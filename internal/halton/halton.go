// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package halton generates base-2/base-3 Halton points used to jitter the
// camera projection by a sub-pixel offset each frame.
package halton

import (
	"iter"
	"slices"
)

// DefaultCount is the length of the jitter cycle.
const DefaultCount = 16

// Point is a sub-pixel offset in (-0.5, 0.5) on both axes.
type Point struct {
	X, Y float64
}

// Radical returns the radical inverse of index in the given base, which is
// the index-th element of the 1D Halton sequence. Index 0 maps to 0.
func Radical(index, base int) float64 {
	f := 1.0
	r := 0.0
	for i := index; i > 0; i /= base {
		f /= float64(base)
		r += f * float64(i%base)
	}
	return r
}

// Points returns a lazy sequence of count Halton(2,3) points centered on
// zero. The sequence is finite and deterministic; ranging over it again
// restarts from the first point. A non-positive count yields nothing.
func Points(count int) iter.Seq[Point] {
	return func(yield func(Point) bool) {
		for i := 1; i <= count; i++ {
			p := Point{
				X: Radical(i, 2) - 0.5,
				Y: Radical(i, 3) - 0.5,
			}
			if !yield(p) {
				return
			}
		}
	}
}

// Generate collects the first count points.
func Generate(count int) []Point {
	return slices.Collect(Points(count))
}

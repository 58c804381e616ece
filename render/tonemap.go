// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import "github.com/gogpu/ssgi/linalg"

// ToneMapping maps linear HDR color to display range.
type ToneMapping struct {
	Name     string
	Exposure float32
	Map      func(c linalg.Vec3) linalg.Vec3
}

// Apply tone-maps c after exposure. A zero ToneMapping passes color
// through.
func (tm ToneMapping) Apply(c linalg.Vec3) linalg.Vec3 {
	if tm.Map == nil {
		return c
	}
	e := tm.Exposure
	if e == 0 {
		e = 1
	}
	return tm.Map(c.Mul(e))
}

// NoToneMapping leaves colors linear.
func NoToneMapping() ToneMapping {
	return ToneMapping{Name: "none", Exposure: 1, Map: func(c linalg.Vec3) linalg.Vec3 { return c }}
}

// ReinhardToneMapping is c / (1 + c) per channel.
func ReinhardToneMapping(exposure float32) ToneMapping {
	return ToneMapping{Name: "reinhard", Exposure: exposure, Map: func(c linalg.Vec3) linalg.Vec3 {
		return linalg.Vec3{c[0] / (1 + c[0]), c[1] / (1 + c[1]), c[2] / (1 + c[2])}
	}}
}

// ACESFilmicToneMapping is the Narkowicz fit of the ACES curve.
func ACESFilmicToneMapping(exposure float32) ToneMapping {
	return ToneMapping{Name: "aces", Exposure: exposure, Map: func(c linalg.Vec3) linalg.Vec3 {
		var out linalg.Vec3
		for i, x := range c {
			out[i] = linalg.Clamp((x*(2.51*x+0.03))/(x*(2.43*x+0.59)+0.14), 0, 1)
		}
		return out
	}}
}

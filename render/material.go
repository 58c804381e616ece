// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"maps"

	"github.com/gogpu/ssgi/linalg"
	"github.com/gogpu/ssgi/shader"
)

// Fragment is the per-pixel invocation state handed to a FragmentFunc.
type Fragment struct {
	// X and Y are the pixel coordinates in the bound target.
	X, Y int

	// U and V are the normalized coordinates of the pixel centre.
	U, V float32

	// Out holds one color per target attachment, zeroed before each call.
	Out []linalg.Vec4
}

// FragmentFunc shades one pixel. It runs concurrently for different rows
// and must not write shared state.
type FragmentFunc func(f *Fragment)

// Material is a full-screen program: a WGSL source configured through
// defines and uniforms, plus the fragment stage the software device runs.
type Material struct {
	// Name labels draws and compiled programs.
	Name string

	// Program selects the built-in WGSL source.
	Program shader.Name

	// Defines are compile-time switches. Call SetNeedsUpdate after changing
	// them.
	Defines shader.Defines

	// Uniforms are per-draw parameters.
	Uniforms Uniforms

	// Fragment is the fragment stage.
	Fragment FragmentFunc

	needsUpdate bool
	version     int
}

// NewMaterial creates a material that needs compiling before its first
// draw.
func NewMaterial(name string, program shader.Name, fragment FragmentFunc) *Material {
	return &Material{
		Name:        name,
		Program:     program,
		Defines:     shader.Defines{},
		Uniforms:    Uniforms{},
		Fragment:    fragment,
		needsUpdate: true,
	}
}

// SetNeedsUpdate marks the program stale so the next draw rebuilds it.
func (m *Material) SetNeedsUpdate() {
	m.needsUpdate = true
	m.version++
}

// NeedsUpdate reports whether the program must be rebuilt.
func (m *Material) NeedsUpdate() bool { return m.needsUpdate }

// Version counts SetNeedsUpdate calls.
func (m *Material) Version() int { return m.version }

// Source returns the assembled WGSL of the program under the current
// defines.
func (m *Material) Source() string {
	return shader.Assemble(shader.Source(m.Program), m.Defines, shader.Flags[m.Program])
}

func (m *Material) markCompiled() { m.needsUpdate = false }

// Uniforms maps parameter names to values. Values are float32, int, bool,
// linalg vectors and matrices, or *Texture.
type Uniforms map[string]any

// Set stores a value.
func (u Uniforms) Set(name string, v any) { u[name] = v }

// Float returns a numeric uniform as float32, or 0.
func (u Uniforms) Float(name string) float32 {
	switch v := u[name].(type) {
	case float32:
		return v
	case float64:
		return float32(v)
	case int:
		return float32(v)
	case bool:
		if v {
			return 1
		}
	}
	return 0
}

// Int returns a numeric uniform as int, or 0.
func (u Uniforms) Int(name string) int {
	switch v := u[name].(type) {
	case int:
		return v
	case float32:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

// Bool returns a boolean uniform, or false.
func (u Uniforms) Bool(name string) bool {
	v, _ := u[name].(bool)
	return v
}

// Texture returns a texture uniform, or nil.
func (u Uniforms) Texture(name string) *Texture {
	v, _ := u[name].(*Texture)
	return v
}

// Mat4 returns a matrix uniform, or the identity.
func (u Uniforms) Mat4(name string) linalg.Mat4 {
	if v, ok := u[name].(linalg.Mat4); ok {
		return v
	}
	return linalg.Ident4()
}

// Vec3 returns a vector uniform, or zero.
func (u Uniforms) Vec3(name string) linalg.Vec3 {
	v, _ := u[name].(linalg.Vec3)
	return v
}

// Snapshot returns an independent copy.
func (u Uniforms) Snapshot() Uniforms { return maps.Clone(u) }

// Diff returns the names whose values differ between u and o, including
// names present in only one of them.
func (u Uniforms) Diff(o Uniforms) []string {
	var names []string
	for k, v := range u {
		if w, ok := o[k]; !ok || w != v {
			names = append(names, k)
		}
	}
	for k := range o {
		if _, ok := u[k]; !ok {
			names = append(names, k)
		}
	}
	return names
}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package denoise

import (
	"testing"

	"github.com/gogpu/ssgi/linalg"
	"github.com/gogpu/ssgi/render"
)

const size = 16

type fixture struct {
	dev                    *render.SoftwareDevice
	pass                   *Pass
	diffuse, specular      *render.Texture
	moments, depth, normal *render.Texture
}

func newTexture() *render.Texture {
	return render.NewTexture(render.TextureDescriptor{Width: size, Height: size})
}

// newFixture builds a flat surface facing the camera at depth 1 with unit
// luminance variance everywhere.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	dev := render.NewSoftwareDevice(render.WithWorkers(2))
	t.Cleanup(dev.Close)

	f := &fixture{
		dev:      dev,
		pass:     NewPass(dev),
		diffuse:  newTexture(),
		specular: newTexture(),
		moments:  newTexture(),
		depth:    newTexture(),
		normal:   newTexture(),
	}
	f.pass.SetSize(size, size)
	f.depth.Fill(linalg.Vec4{1, 1, 0, 1})
	f.normal.Fill(linalg.Vec4{0, 0, 1, 0.5})
	f.moments.Fill(linalg.Vec4{0, 1, 0, 1})

	u := f.pass.Material().Uniforms
	u.Set("inputDiffuseTexture", f.diffuse)
	u.Set("inputSpecularTexture", f.specular)
	u.Set("momentsTexture", f.moments)
	u.Set("depthTexture", f.depth)
	u.Set("normalTexture", f.normal)
	return f
}

func (f *fixture) render(t *testing.T) {
	t.Helper()
	if err := f.pass.Render(f.dev); err != nil {
		t.Fatalf("Render: %v", err)
	}
}

func checker(tex *render.Texture, lo, hi float32) {
	for y := range size {
		for x := range size {
			v := lo
			if (x+y)%2 == 0 {
				v = hi
			}
			tex.Set(x, y, linalg.Vec4{v, v, v, 1})
		}
	}
}

func variance(tex *render.Texture) float32 {
	var sum, sumSq float32
	for _, p := range tex.Pix() {
		sum += p[0]
		sumSq += p[0] * p[0]
	}
	n := float32(len(tex.Pix()))
	mean := sum / n
	return sumSq/n - mean*mean
}

func TestIterationsDrawCount(t *testing.T) {
	tests := []struct {
		iterations int
		wantDraws  int
	}{
		{0, 0},
		{1, 1},
		{3, 3},
		{5, 5},
	}

	for _, tt := range tests {
		f := newFixture(t)
		f.pass.Iterations = tt.iterations
		f.render(t)
		if got := f.dev.Draws("DenoisePass"); got != tt.wantDraws {
			t.Errorf("Iterations=%d: draws = %d, want %d", tt.iterations, got, tt.wantDraws)
		}
	}
}

func TestZeroIterationsPassThrough(t *testing.T) {
	f := newFixture(t)
	f.pass.Iterations = 0
	f.render(t)
	if f.pass.DiffuseTexture() != f.diffuse || f.pass.SpecularTexture() != f.specular {
		t.Error("zero iterations should return the inputs")
	}
}

func TestFilterReducesNoise(t *testing.T) {
	f := newFixture(t)
	checker(f.diffuse, 0, 2)
	checker(f.specular, 0, 2)
	f.pass.Iterations = 2
	f.render(t)

	before := variance(f.diffuse)
	if got := variance(f.pass.DiffuseTexture()); got > before/4 {
		t.Errorf("diffuse variance %v, want below %v", got, before/4)
	}
	if got := variance(f.pass.SpecularTexture()); got > before/4 {
		t.Errorf("specular variance %v, want below %v", got, before/4)
	}
}

func TestDepthEdgeIsPreserved(t *testing.T) {
	f := newFixture(t)
	for y := range size {
		for x := range size {
			if x >= size/2 {
				f.depth.Set(x, y, linalg.Vec4{10, 1, 0, 1})
				f.diffuse.Set(x, y, linalg.Vec4{0, 0, 0, 1})
				continue
			}
			f.diffuse.Set(x, y, linalg.Vec4{1, 1, 1, 1})
		}
	}
	f.render(t)

	got := f.pass.DiffuseTexture().At(size/2-1, size/2)[0]
	if got < 0.99 {
		t.Errorf("pixel next to the depth edge = %v, want ~1", got)
	}
}

func TestZeroStrengthDisablesSignal(t *testing.T) {
	f := newFixture(t)
	checker(f.diffuse, 0, 2)
	checker(f.specular, 0, 2)
	f.pass.Material().Uniforms.Set("denoiseDiffuse", float32(0))
	f.render(t)

	for i, p := range f.pass.DiffuseTexture().Pix() {
		if p != f.diffuse.Pix()[i] {
			t.Fatalf("diffuse texel %d changed to %v with strength 0", i, p)
		}
	}
	if variance(f.pass.SpecularTexture()) >= variance(f.specular) {
		t.Error("specular was not filtered")
	}
}

func TestBackgroundUntouched(t *testing.T) {
	f := newFixture(t)
	checker(f.diffuse, 0, 2)
	f.depth.Fill(linalg.Vec4{})
	f.render(t)

	for i, p := range f.pass.DiffuseTexture().Pix() {
		if p != f.diffuse.Pix()[i] {
			t.Fatalf("background texel %d changed", i)
		}
	}
}

func TestDirectLightGuidesEdges(t *testing.T) {
	f := newFixture(t)
	direct := newTexture()
	for y := range size {
		for x := range size {
			if x >= size/2 {
				f.diffuse.Set(x, y, linalg.Vec4{0, 0, 0, 1})
				direct.Set(x, y, linalg.Vec4{100, 100, 100, 1})
				continue
			}
			f.diffuse.Set(x, y, linalg.Vec4{1, 1, 1, 1})
		}
	}
	f.diffuse.Set(4, 4, linalg.Vec4{0, 0, 0, 1})

	m := f.pass.Material()
	m.Uniforms.Set("directLightTexture", direct)
	m.Defines.Enable("useDirectLight")
	m.SetNeedsUpdate()
	f.render(t)

	// The right half differs in direct light by far more than the variance
	// allows, so it does not bleed into the left half.
	if got := f.pass.DiffuseTexture().At(size/2-1, 8)[0]; got < 0.99 {
		t.Errorf("left edge pixel = %v, want ~1", got)
	}
	if got := f.pass.DiffuseTexture().At(4, 4)[0]; got <= 0 {
		t.Errorf("dark pixel inside the left half was not filtered: %v", got)
	}
}

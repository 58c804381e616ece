// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package denoise implements the spatial half of SVGF: repeated à-trous
// passes of an edge-stopping blur over the accumulated diffuse and
// specular light.
package denoise

import (
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/ssgi/linalg"
	"github.com/gogpu/ssgi/render"
	"github.com/gogpu/ssgi/shader"
)

// Attachment indices of the ping-pong targets.
const (
	Diffuse = iota
	Specular
)

// DefaultIterations is the number of filter passes per frame.
const DefaultIterations = 1

// lumaEpsilon keeps the luminance edge-stop finite on flat regions.
const lumaEpsilon = 1e-4

type params struct {
	step        int
	kernel      int
	strengthD   float32
	strengthS   float32
	depthPhi    float32
	normalPhi   float32
	roughPhi    float32
	jitter      float32
	jitterRough float32

	diffuse, specular *render.Texture
	moments           *render.Texture
	depth, normal     *render.Texture
	direct            *render.Texture
}

// Pass filters diffuse and specular light with Iterations à-trous passes.
// Pass i samples taps 2^i texels apart over a (2·denoiseKernel+1)² window.
//
// Defines: useDirectLight.
//
// Uniforms: denoiseKernel, denoiseDiffuse, denoiseSpecular, depthPhi,
// normalPhi, roughnessPhi, jitter, jitterRoughness and the textures
// inputDiffuseTexture, inputSpecularTexture, momentsTexture, depthTexture,
// normalTexture and directLightTexture.
//
// A strength of 0 disables filtering of that signal.
type Pass struct {
	// Iterations is the number of filter passes per frame. Zero passes the
	// input through.
	Iterations int

	targets     [2]*render.Target
	material    *render.Material
	p           params
	directLight bool
	out         int
}

// NewPass creates a pass at 1×1.
func NewPass(dev render.Device) *Pass {
	p := &Pass{Iterations: DefaultIterations, out: -1}
	for i := range p.targets {
		p.targets[i] = dev.CreateTarget("denoise", 1, 1,
			render.Attachment{Name: "diffuse", Format: gputypes.TextureFormatRGBA16Float},
			render.Attachment{Name: "specular", Format: gputypes.TextureFormatRGBA16Float},
		)
	}

	m := render.NewMaterial("DenoisePass", shader.Denoise, p.shade)
	m.Uniforms.Set("denoiseKernel", 2)
	m.Uniforms.Set("denoiseDiffuse", float32(10))
	m.Uniforms.Set("denoiseSpecular", float32(10))
	m.Uniforms.Set("depthPhi", float32(2))
	m.Uniforms.Set("normalPhi", float32(50))
	m.Uniforms.Set("roughnessPhi", float32(1))
	m.Uniforms.Set("jitter", float32(0))
	m.Uniforms.Set("jitterRoughness", float32(1))
	p.material = m
	return p
}

// Material returns the filter material.
func (p *Pass) Material() *render.Material { return p.material }

// SetSize reallocates both ping-pong targets.
func (p *Pass) SetSize(width, height int) {
	for _, t := range p.targets {
		t.SetSize(width, height)
	}
	p.out = -1
}

// DiffuseTexture returns the filtered diffuse light of the last Render.
// With zero iterations it is the input.
func (p *Pass) DiffuseTexture() *render.Texture {
	if p.out < 0 {
		return p.material.Uniforms.Texture("inputDiffuseTexture")
	}
	return p.targets[p.out].Texture(Diffuse)
}

// SpecularTexture returns the filtered specular light of the last Render.
// With zero iterations it is the input.
func (p *Pass) SpecularTexture() *render.Texture {
	if p.out < 0 {
		return p.material.Uniforms.Texture("inputSpecularTexture")
	}
	return p.targets[p.out].Texture(Specular)
}

// Render runs Iterations filter passes, alternating between the two
// targets. The last target written stays bound.
func (p *Pass) Render(dev render.Device) error {
	m := p.material
	if m.NeedsUpdate() {
		p.directLight = m.Defines.Has("useDirectLight")
	}

	u := m.Uniforms
	p.p = params{
		kernel:      max(0, u.Int("denoiseKernel")),
		strengthD:   u.Float("denoiseDiffuse"),
		strengthS:   u.Float("denoiseSpecular"),
		depthPhi:    u.Float("depthPhi"),
		normalPhi:   u.Float("normalPhi"),
		roughPhi:    u.Float("roughnessPhi"),
		jitter:      u.Float("jitter"),
		jitterRough: u.Float("jitterRoughness"),
		diffuse:     u.Texture("inputDiffuseTexture"),
		specular:    u.Texture("inputSpecularTexture"),
		moments:     u.Texture("momentsTexture"),
		depth:       u.Texture("depthTexture"),
		normal:      u.Texture("normalTexture"),
	}
	if p.directLight {
		p.p.direct = u.Texture("directLightTexture")
	}

	p.out = -1
	for i := range p.Iterations {
		dst := i % 2
		p.p.step = 1 << i
		dev.SetRenderTarget(p.targets[dst])
		if err := dev.Draw(m); err != nil {
			return err
		}
		p.out = dst
		p.p.diffuse = p.targets[dst].Texture(Diffuse)
		p.p.specular = p.targets[dst].Texture(Specular)
	}
	return nil
}

// Dispose releases both targets.
func (p *Pass) Dispose() {
	p.SetSize(1, 1)
}

func (p *Pass) roughness(n linalg.Vec4) float32 {
	return min(1, p.p.jitter+p.p.jitterRough*n[3])
}

func (p *Pass) geometryWeight(z, zq float32, n, nq linalg.Vec4) float32 {
	par := &p.p
	wz := math.Exp(-float64(par.depthPhi * linalg.Abs(z-zq) / max(z, 1e-4)))
	wn := math.Pow(float64(max(0, n.Vec3().Dot(nq.Vec3()))), float64(par.normalPhi))
	wr := math.Exp(-float64(par.roughPhi * linalg.Abs(p.roughness(n)-p.roughness(nq))))
	return float32(wz * wn * wr)
}

// guide returns the luminance the diffuse edge-stop compares. With direct
// light enabled it includes the direct light at the same position.
func (p *Pass) guide(c linalg.Vec3, x, y int) float32 {
	l := luminance(c)
	if d := p.p.direct; d != nil {
		w, h := p.p.depth.Width(), p.p.depth.Height()
		l += luminance(d.Sample((float32(x)+0.5)/float32(w), (float32(y)+0.5)/float32(h)).Vec3())
	}
	return l
}

func (p *Pass) shade(f *render.Fragment) {
	par := &p.p
	if par.diffuse == nil || par.specular == nil || par.depth == nil || par.normal == nil {
		return
	}
	centerD := par.diffuse.At(f.X, f.Y)
	centerS := par.specular.At(f.X, f.Y)
	f.Out[Diffuse], f.Out[Specular] = centerD, centerS

	depth := par.depth.At(f.X, f.Y)
	if depth[1] == 0 {
		return
	}
	n := par.normal.At(f.X, f.Y)

	var sigmaD, sigmaS float32
	if par.moments != nil {
		mo := par.moments.At(f.X, f.Y)
		sigmaD = float32(math.Sqrt(float64(max(0, mo[1]-mo[0]*mo[0]))))
		sigmaS = float32(math.Sqrt(float64(max(0, mo[3]-mo[2]*mo[2]))))
	}
	lumD := p.guide(centerD.Vec3(), f.X, f.Y)
	lumS := luminance(centerS.Vec3())

	w, h := par.depth.Width(), par.depth.Height()
	var sumD, sumS linalg.Vec3
	var wD, wS float32
	for dy := -par.kernel; dy <= par.kernel; dy++ {
		for dx := -par.kernel; dx <= par.kernel; dx++ {
			x, y := f.X+dx*par.step, f.Y+dy*par.step
			if x < 0 || y < 0 || x >= w || y >= h {
				continue
			}
			dq := par.depth.At(x, y)
			if dq[1] == 0 {
				continue
			}
			g := p.geometryWeight(depth[0], dq[0], n, par.normal.At(x, y))
			cd := par.diffuse.At(x, y).Vec3()
			cs := par.specular.At(x, y).Vec3()
			ld := g * float32(math.Exp(-float64(linalg.Abs(lumD-p.guide(cd, x, y))/(sigmaD*par.strengthD+lumaEpsilon))))
			ls := g * float32(math.Exp(-float64(linalg.Abs(lumS-luminance(cs))/(sigmaS*par.strengthS+lumaEpsilon))))
			sumD = sumD.Add(cd.Mul(ld))
			sumS = sumS.Add(cs.Mul(ls))
			wD += ld
			wS += ls
		}
	}

	if par.strengthD > 0 && wD > 0 {
		f.Out[Diffuse] = sumD.Mul(1 / wD).Vec4(centerD[3])
	}
	if par.strengthS > 0 && wS > 0 {
		f.Out[Specular] = sumS.Mul(1 / wS).Vec4(centerS[3])
	}
}

func luminance(c linalg.Vec3) float32 {
	return c.Dot(linalg.Vec3{0.2126, 0.7152, 0.0722})
}

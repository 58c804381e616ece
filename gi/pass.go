// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gi traces screen-space rays through the depth buffer and returns
// one noisy frame of indirect diffuse and specular light.
package gi

import (
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/ssgi/linalg"
	"github.com/gogpu/ssgi/render"
	"github.com/gogpu/ssgi/scene"
	"github.com/gogpu/ssgi/shader"
)

// Attachment indices of the pass target.
const (
	Diffuse = iota
	Specular
)

// Default define values.
const (
	DefaultSteps       = 20
	DefaultRefineSteps = 5
	DefaultSPP         = 1
)

// program is the define-derived configuration of the ray marcher. It is
// rebuilt only when the material needs an update, the way a GPU program is
// recompiled.
type program struct {
	steps          int
	refineSteps    int
	spp            int
	sunMultiplier  float32
	useEnvMap      bool
	useDirectLight bool
	missedRays     bool
}

// params is the uniform snapshot of one draw.
type params struct {
	projection        linalg.Mat4
	inverseProjection linalg.Mat4
	cameraRotation    linalg.Quat
	viewRotation      linalg.Quat

	rayDistance       float32
	thickness         float32
	jitter            float32
	jitterRoughness   float32
	maxRoughness      float32
	envBlur           float32
	maxEnvMapMipLevel float32
	maxEnvLuminance   float32
	importance        bool
	frame             uint32

	depth, normal, emissive, direct *render.Texture
}

// Pass ray-marches indirect light at the working resolution.
//
// Defines: steps, refineSteps, spp, sunMultiplier, missedRays, USE_ENVMAP,
// useDirectLight.
//
// Uniforms: rayDistance, thickness, jitter, jitterRoughness, maxRoughness,
// envBlur, maxEnvMapMipLevel, maxEnvLuminance, importanceSampling and the
// input textures depthTexture, normalTexture, diffuseTexture,
// emissiveTexture, directLightTexture.
type Pass struct {
	Camera *scene.Camera

	// Environment is sampled by missed rays when USE_ENVMAP is defined.
	Environment *scene.Environment

	// Target holds the noisy diffuse and specular light.
	Target *render.Target

	material *render.Material
	prog     program
	p        params
	frames   uint32
}

// NewPass creates a pass at 1×1.
func NewPass(dev render.Device, cam *scene.Camera) *Pass {
	p := &Pass{Camera: cam}
	p.Target = dev.CreateTarget("ssgi", 1, 1,
		render.Attachment{Name: "diffuse", Format: gputypes.TextureFormatRGBA16Float},
		render.Attachment{Name: "specular", Format: gputypes.TextureFormatRGBA16Float},
	)

	m := render.NewMaterial("SSGIMaterial", shader.SSGI, p.shade)
	m.Defines.SetInt("steps", DefaultSteps)
	m.Defines.SetInt("refineSteps", DefaultRefineSteps)
	m.Defines.SetInt("spp", DefaultSPP)
	m.Uniforms.Set("rayDistance", float32(10))
	m.Uniforms.Set("thickness", float32(10))
	m.Uniforms.Set("jitter", float32(0))
	m.Uniforms.Set("jitterRoughness", float32(1))
	m.Uniforms.Set("maxRoughness", float32(1))
	m.Uniforms.Set("envBlur", float32(0.5))
	m.Uniforms.Set("maxEnvMapMipLevel", float32(0))
	m.Uniforms.Set("maxEnvLuminance", float32(50))
	m.Uniforms.Set("importanceSampling", true)
	p.material = m
	return p
}

// Material returns the ray-march material.
func (p *Pass) Material() *render.Material { return p.material }

// DiffuseTexture returns the noisy diffuse light.
func (p *Pass) DiffuseTexture() *render.Texture { return p.Target.Texture(Diffuse) }

// SpecularTexture returns the noisy specular light.
func (p *Pass) SpecularTexture() *render.Texture { return p.Target.Texture(Specular) }

// SetSize reallocates the target.
func (p *Pass) SetSize(width, height int) {
	p.Target.SetSize(width, height)
}

// Render traces one frame. The pass target stays bound afterwards.
func (p *Pass) Render(dev render.Device) error {
	m := p.material
	if m.NeedsUpdate() {
		p.prog = program{
			steps:          max(1, m.Defines.Int("steps", DefaultSteps)),
			refineSteps:    max(0, m.Defines.Int("refineSteps", DefaultRefineSteps)),
			spp:            max(1, m.Defines.Int("spp", DefaultSPP)),
			sunMultiplier:  float32(m.Defines.Float("sunMultiplier", 1)),
			useEnvMap:      m.Defines.Has("USE_ENVMAP"),
			useDirectLight: m.Defines.Has("useDirectLight"),
			missedRays:     m.Defines.Has("missedRays"),
		}
	}

	u := m.Uniforms
	p.p = params{
		projection:        p.Camera.Projection(),
		inverseProjection: p.Camera.ProjectionInverse(),
		cameraRotation:    p.Camera.Rotation,
		viewRotation:      p.Camera.Rotation.Conjugate(),
		rayDistance:       u.Float("rayDistance"),
		thickness:         u.Float("thickness"),
		jitter:            u.Float("jitter"),
		jitterRoughness:   u.Float("jitterRoughness"),
		maxRoughness:      u.Float("maxRoughness"),
		envBlur:           u.Float("envBlur"),
		maxEnvMapMipLevel: u.Float("maxEnvMapMipLevel"),
		maxEnvLuminance:   u.Float("maxEnvLuminance"),
		importance:        u.Bool("importanceSampling"),
		frame:             p.frames,
		depth:             u.Texture("depthTexture"),
		normal:            u.Texture("normalTexture"),
		emissive:          u.Texture("emissiveTexture"),
		direct:            u.Texture("directLightTexture"),
	}
	p.frames++

	if p.prog.useEnvMap && p.Environment != nil {
		p.Environment.Prepare()
	}

	dev.SetRenderTarget(p.Target)
	return dev.Draw(m)
}

// Dispose releases the target.
func (p *Pass) Dispose() {
	p.Target.SetSize(1, 1)
}

func (p *Pass) shade(f *render.Fragment) {
	par := &p.p
	if par.depth == nil || par.normal == nil {
		return
	}
	depth := par.depth.Load(f.U, f.V)
	if depth[1] == 0 {
		return
	}
	nt := par.normal.Load(f.U, f.V)
	roughness := min(1, par.jitter+par.jitterRoughness*nt[3])

	pos := p.viewPosition(f.U, f.V, depth[0])
	n := par.viewRotation.Rotate(nt.Vec3()).Normalize()
	v := pos.Normalize()

	var diffuse, specular linalg.Vec3
	rng := newRNG(uint32(f.X), uint32(f.Y), par.frame)
	for range p.prog.spp {
		r1, r2 := rng.next(), rng.next()
		diffuse = diffuse.Add(p.diffuseSample(pos, n, r1, r2))
		if roughness <= par.maxRoughness {
			refl := v.Reflect(n)
			dir := lerp3(refl, cosineDirection(n, r1, r2), roughness*roughness).Normalize()
			specular = specular.Add(p.march(pos, dir, roughness))
		}
	}

	inv := 1 / float32(p.prog.spp)
	f.Out[Diffuse] = diffuse.Mul(inv).Vec4(1)
	f.Out[Specular] = specular.Mul(inv).Vec4(1)
}

// diffuseSample returns one estimate of the irradiance-weighted light
// arriving at pos. Without importance sampling directions are uniform over
// the hemisphere and weighted by 2·cosθ.
func (p *Pass) diffuseSample(pos, n linalg.Vec3, r1, r2 float32) linalg.Vec3 {
	if p.p.importance {
		return p.march(pos, cosineDirection(n, r1, r2), 1)
	}
	dir := uniformDirection(n, r1, r2)
	return p.march(pos, dir, 1).Mul(2 * max(0, dir.Dot(n)))
}

func (p *Pass) viewPosition(u, v, depth float32) linalg.Vec3 {
	ndc := linalg.Vec4{u*2 - 1, 1 - v*2, -1, 1}
	dir := p.p.inverseProjection.MulVec4(ndc).PerspectiveDivide()
	return dir.Mul(depth / -dir[2])
}

func (p *Pass) projectUV(pos linalg.Vec3) (float32, float32) {
	ndc := p.p.projection.MulVec4(pos.Vec4(1)).PerspectiveDivide()
	return ndc[0]*0.5 + 0.5, 0.5 - ndc[1]*0.5
}

// sceneDepth returns the linear depth at uv, with background at infinity.
func (p *Pass) sceneDepth(u, v float32) float32 {
	d := p.p.depth.Load(u, v)
	if d[1] == 0 {
		return float32(math.Inf(1))
	}
	return d[0]
}

func onScreen(u, v float32) bool {
	return u >= 0 && v >= 0 && u <= 1 && v <= 1
}

// march steps a view-space ray through the depth buffer. A hit returns the
// light leaving the surface found there; a miss returns the environment.
func (p *Pass) march(origin, dir linalg.Vec3, roughness float32) linalg.Vec3 {
	par := &p.p
	step := dir.Mul(par.rayDistance / float32(p.prog.steps))
	pos, prev := origin, origin
	inside := true

	for range p.prog.steps {
		prev = pos
		pos = pos.Add(step)
		if pos[2] >= 0 {
			inside = false
			break
		}
		u, v := p.projectUV(pos)
		if !onScreen(u, v) {
			inside = false
			break
		}
		diff := -pos[2] - p.sceneDepth(u, v)
		if diff > 0 && diff < par.thickness {
			lo, hi := prev, pos
			for range p.prog.refineSteps {
				mid := lo.Add(hi).Mul(0.5)
				mu, mv := p.projectUV(mid)
				if -mid[2] > p.sceneDepth(mu, mv) {
					hi = mid
				} else {
					lo = mid
				}
			}
			hu, hv := p.projectUV(hi)
			return p.hitLight(hu, hv)
		}
	}

	if inside || p.prog.missedRays {
		return p.sampleEnv(par.cameraRotation.Rotate(dir), roughness)
	}
	return linalg.Vec3{}
}

func (p *Pass) hitLight(u, v float32) linalg.Vec3 {
	var light linalg.Vec3
	if p.p.emissive != nil {
		light = p.p.emissive.Sample(u, v).Vec3()
	}
	if p.prog.useDirectLight && p.p.direct != nil {
		light = light.Add(p.p.direct.Sample(u, v).Vec3().Mul(p.prog.sunMultiplier))
	}
	return light
}

func (p *Pass) sampleEnv(dir linalg.Vec3, roughness float32) linalg.Vec3 {
	if !p.prog.useEnvMap || p.Environment == nil {
		return linalg.Vec3{}
	}
	lod := roughness * p.p.envBlur * p.p.maxEnvMapMipLevel
	c := p.Environment.SampleDir(dir, lod)
	if l := luminance(c); l > p.p.maxEnvLuminance {
		return c.Mul(p.p.maxEnvLuminance / l)
	}
	return c
}

func luminance(c linalg.Vec3) float32 {
	return c.Dot(linalg.Vec3{0.2126, 0.7152, 0.0722})
}

func lerp3(a, b linalg.Vec3, t float32) linalg.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

// cosineDirection returns a cosine-weighted direction about n.
func cosineDirection(n linalg.Vec3, r1, r2 float32) linalg.Vec3 {
	phi := 2 * math.Pi * float64(r1)
	sinTheta := float32(math.Sqrt(float64(r2)))
	t, b := tangentFrame(n)
	return t.Mul(float32(math.Cos(phi)) * sinTheta).
		Add(b.Mul(float32(math.Sin(phi)) * sinTheta)).
		Add(n.Mul(float32(math.Sqrt(float64(1 - r2))))).
		Normalize()
}

// uniformDirection returns a uniformly distributed direction about n.
func uniformDirection(n linalg.Vec3, r1, r2 float32) linalg.Vec3 {
	t, b := tangentFrame(n)
	phi := 2 * math.Pi * float64(r1)
	sinTheta := float32(math.Sqrt(float64(1 - r2*r2)))
	return t.Mul(float32(math.Cos(phi)) * sinTheta).
		Add(b.Mul(float32(math.Sin(phi)) * sinTheta)).
		Add(n.Mul(r2)).
		Normalize()
}

func tangentFrame(n linalg.Vec3) (t, b linalg.Vec3) {
	up := linalg.Vec3{1, 0, 0}
	if linalg.Abs(n[0]) > 0.9 {
		up = linalg.Vec3{0, 1, 0}
	}
	t = up.Cross(n).Normalize()
	return t, n.Cross(t)
}

// rng is a per-pixel PCG hash stream.
type rng struct{ state uint32 }

func newRNG(x, y, frame uint32) rng {
	return rng{state: pcg(x + pcg(y+pcg(frame)))}
}

func (r *rng) next() float32 {
	r.state = pcg(r.state)
	return float32(r.state>>8) / (1 << 24)
}

func pcg(v uint32) uint32 {
	state := v*747796405 + 2891336453
	word := ((state >> ((state >> 28) + 4)) ^ state) * 277803737
	return (word >> 22) ^ word
}

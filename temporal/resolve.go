// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package temporal reprojects accumulated lighting into the current frame,
// rejects history that does not belong to the same surface and blends the
// new noisy samples in.
package temporal

import (
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/ssgi/linalg"
	"github.com/gogpu/ssgi/render"
	"github.com/gogpu/ssgi/scene"
	"github.com/gogpu/ssgi/shader"
	"github.com/gogpu/ssgi/velocity"
)

// Attachment indices of the resolve target.
const (
	Diffuse = iota
	Specular
	Moments
	Validity
)

// Default define values.
const (
	DefaultCorrectionRadius           = 1
	DefaultMaxNeighborDepthDifference = 0.05
)

// MotionEpsilon is the camera translation and rotation distance above which
// the sample counter restarts.
const MotionEpsilon = 1e-6

// Attachments is the layout of the resolve target.
//
//   - diffuse, specular: .rgb accumulated light, .a pixel age in frames
//   - moments: first and second luminance moments, diffuse in .xy and
//     specular in .zw
//   - validity: 1 where history was reused, 0 where it was rejected
var Attachments = []render.Attachment{
	{Name: "diffuse", Format: gputypes.TextureFormatRGBA16Float},
	{Name: "specular", Format: gputypes.TextureFormatRGBA16Float},
	{Name: "moments", Format: gputypes.TextureFormatRGBA16Float},
	{Name: "validity", Format: gputypes.TextureFormatRGBA8Unorm},
}

// History is the state carried between frames.
type History struct {
	Diffuse  *render.Texture
	Specular *render.Texture
	Moments  *render.Texture

	// Camera transform stored at the last reset.
	Position linalg.Vec3
	Rotation linalg.Quat

	// Samples counts the frames accumulated since the last reset.
	Samples int
}

// observe advances the sample counter for a camera at pos, rot. It returns
// true when the camera moved and the counter restarted.
func (h *History) observe(pos linalg.Vec3, rot linalg.Quat) bool {
	moved := pos.DistanceSq(h.Position) > MotionEpsilon ||
		8*(1-rot.Dot(h.Rotation)) > MotionEpsilon
	if moved {
		h.Position, h.Rotation = pos, rot
		h.Samples = 1
		return true
	}
	h.Samples++
	return false
}

func (h *History) reset() {
	h.Position = linalg.Vec3{}
	h.Rotation = linalg.QuatIdent()
	h.Samples = 0
}

// AdaptiveWeight returns the history weight of a pixel that has been
// valid for age frames while the counter stands at samples. It grows as
// 1 − 1/n and never exceeds blend.
func AdaptiveWeight(samples, age int, blend float32) float32 {
	n := max(1, min(samples, age))
	return min(1-1/float32(n), blend)
}

type program struct {
	correctionRadius           int
	maxNeighborDepthDifference float32
	neighborhoodClamping       bool
	dilation                   bool
	logTransform               bool
	reflectionsOnly            bool
}

type params struct {
	blend               float32
	correction          float32
	maxNormalDifference float32
	constantBlend       bool
	fullAccumulate      bool
	samples             int

	diffuse, specular *render.Texture

	velocity, depth, normal   *render.Texture
	lastDepth, lastNormal     *render.Texture
	histD, histS, histMoments *render.Texture
}

// ResolvePass accumulates the noisy output of the ray marcher over time.
//
// Defines: correctionRadius, maxNeighborDepthDifference,
// neighborhoodClamping, dilation, logTransform, reflectionsOnly.
//
// Uniforms: blend, correction, constantBlend, fullAccumulate,
// maxNormalDifference, jitter, jitterRoughness and the input textures
// inputDiffuseTexture and inputSpecularTexture.
type ResolvePass struct {
	Camera *scene.Camera

	// Velocity supplies motion, depth and normals and owns the previous
	// frame snapshots.
	Velocity *velocity.Pass

	Target  *render.Target
	History History

	material *render.Material
	dev      render.Device
	prog     program
	p        params
}

// NewResolvePass creates a pass at 1×1.
func NewResolvePass(dev render.Device, cam *scene.Camera, vel *velocity.Pass) *ResolvePass {
	p := &ResolvePass{Camera: cam, Velocity: vel, dev: dev}
	p.Target = dev.CreateTarget("temporalResolve", 1, 1, Attachments...)
	p.allocateHistory()
	p.History.reset()

	m := render.NewMaterial("TemporalResolveMaterial", shader.TemporalResolve, p.shade)
	m.Defines.SetInt("correctionRadius", DefaultCorrectionRadius)
	m.Defines.SetFloat("maxNeighborDepthDifference", DefaultMaxNeighborDepthDifference)
	m.Defines.Enable("neighborhoodClamping")
	m.Uniforms.Set("blend", float32(0.9))
	m.Uniforms.Set("correction", float32(1))
	m.Uniforms.Set("constantBlend", false)
	m.Uniforms.Set("fullAccumulate", false)
	m.Uniforms.Set("maxNormalDifference", float32(0))
	m.Uniforms.Set("jitter", float32(0))
	m.Uniforms.Set("jitterRoughness", float32(1))
	p.material = m
	return p
}

func (p *ResolvePass) allocateHistory() {
	desc := func(label string, i int) render.TextureDescriptor {
		return render.TextureDescriptor{
			Label:  label,
			Width:  p.Target.Width(),
			Height: p.Target.Height(),
			Format: Attachments[i].Format,
			Usage:  render.TextureUsageCopyDst | render.TextureUsageTextureBinding,
		}
	}
	p.History.Diffuse = p.dev.CreateTexture(desc("accumulatedDiffuse", Diffuse))
	p.History.Specular = p.dev.CreateTexture(desc("accumulatedSpecular", Specular))
	p.History.Moments = p.dev.CreateTexture(desc("accumulatedMoments", Moments))
}

// Material returns the resolve material.
func (p *ResolvePass) Material() *render.Material { return p.material }

// DiffuseTexture returns the accumulated diffuse light.
func (p *ResolvePass) DiffuseTexture() *render.Texture { return p.Target.Texture(Diffuse) }

// SpecularTexture returns the accumulated specular light.
func (p *ResolvePass) SpecularTexture() *render.Texture { return p.Target.Texture(Specular) }

// MomentsTexture returns the luminance moments.
func (p *ResolvePass) MomentsTexture() *render.Texture { return p.Target.Texture(Moments) }

// ValidityTexture returns the disocclusion mask of the last frame.
func (p *ResolvePass) ValidityTexture() *render.Texture { return p.Target.Texture(Validity) }

// Samples returns the current sample counter.
func (p *ResolvePass) Samples() int { return p.History.Samples }

// SetSize reallocates the target and zeroes the history.
func (p *ResolvePass) SetSize(width, height int) {
	p.Target.SetSize(width, height)
	p.allocateHistory()
	p.History.reset()
}

// ValidFraction returns the share of pixels that reused history in the
// last frame.
func (p *ResolvePass) ValidFraction() float64 {
	pix := p.ValidityTexture().Pix()
	valid := 0
	for _, v := range pix {
		if v[0] > 0 {
			valid++
		}
	}
	return float64(valid) / float64(len(pix))
}

// Render resolves one frame, stores it as history and asks the velocity
// pass to snapshot its buffers. The velocity pass target stays bound.
func (p *ResolvePass) Render(dev render.Device) error {
	m := p.material
	if m.NeedsUpdate() {
		p.prog = program{
			correctionRadius:           max(0, m.Defines.Int("correctionRadius", DefaultCorrectionRadius)),
			maxNeighborDepthDifference: float32(m.Defines.Float("maxNeighborDepthDifference", DefaultMaxNeighborDepthDifference)),
			neighborhoodClamping:       m.Defines.Has("neighborhoodClamping"),
			dilation:                   m.Defines.Has("dilation"),
			logTransform:               m.Defines.Has("logTransform"),
			reflectionsOnly:            m.Defines.Has("reflectionsOnly"),
		}
	}

	u := m.Uniforms
	full := u.Bool("fullAccumulate")
	if full {
		p.History.Samples++
	} else if p.History.observe(p.Camera.Position, p.Camera.Rotation) {
		slogger().Debug("temporal: camera moved, sample counter reset")
	}

	v := p.Velocity
	p.p = params{
		blend:               u.Float("blend"),
		correction:          u.Float("correction"),
		maxNormalDifference: u.Float("maxNormalDifference"),
		constantBlend:       u.Bool("constantBlend"),
		fullAccumulate:      full,
		samples:             p.History.Samples,
		diffuse:             u.Texture("inputDiffuseTexture"),
		specular:            u.Texture("inputSpecularTexture"),
		velocity:            v.VelocityTexture(),
		depth:               v.DepthTexture(),
		normal:              v.NormalTexture(),
		lastDepth:           v.LastDepthTexture,
		lastNormal:          v.LastNormalTexture,
		histD:               p.History.Diffuse,
		histS:               p.History.Specular,
		histMoments:         p.History.Moments,
	}

	dev.SetRenderTarget(p.Target)
	if err := dev.Draw(m); err != nil {
		return err
	}
	dev.CopyFramebufferToTexture(Diffuse, p.History.Diffuse)
	dev.CopyFramebufferToTexture(Specular, p.History.Specular)
	dev.CopyFramebufferToTexture(Moments, p.History.Moments)
	v.CopySnapshots(dev)
	return nil
}

// Dispose releases the target and the history.
func (p *ResolvePass) Dispose() {
	p.SetSize(1, 1)
}

func (p *ResolvePass) valid(f *render.Fragment, prevU, prevV float32, vel, depth linalg.Vec4) bool {
	par := &p.p
	if prevU < 0 || prevV < 0 || prevU > 1 || prevV > 1 {
		return false
	}
	w, h := par.lastDepth.Width(), par.lastDepth.Height()
	cx, cy := int(prevU*float32(w)), int(prevV*float32(h))
	if depth[1] == 0 {
		return par.lastDepth.At(cx, cy)[1] == 0
	}

	radius := 0
	if p.prog.dilation {
		radius = 1
	}
	found := false
	for y := -radius; y <= radius && !found; y++ {
		for x := -radius; x <= radius; x++ {
			if p.depthMatches(vel[2], par.lastDepth.At(cx+x, cy+y)) {
				found = true
				break
			}
		}
	}
	if !found {
		return false
	}

	if par.maxNormalDifference > 0 {
		n := par.normal.At(f.X, f.Y).Vec3()
		ln := par.lastNormal.At(cx, cy).Vec3()
		if 1-n.Dot(ln) > par.maxNormalDifference {
			return false
		}
	}
	return true
}

func (p *ResolvePass) depthMatches(expected float32, last linalg.Vec4) bool {
	if last[1] == 0 {
		return false
	}
	return linalg.Abs(expected-last[0])/max(expected, 1e-4) <= p.prog.maxNeighborDepthDifference
}

func (p *ResolvePass) weight(age int) float32 {
	par := &p.p
	switch {
	case par.constantBlend:
		return par.blend
	case par.fullAccumulate:
		return 1 - 1/float32(max(1, par.samples))
	default:
		return AdaptiveWeight(par.samples, age, par.blend)
	}
}

// clampHistory clamps history into the colour box of the new samples
// around (x, y), widened by correction times its extent.
func (p *ResolvePass) clampHistory(history linalg.Vec3, input *render.Texture, x, y int) linalg.Vec3 {
	if !p.prog.neighborhoodClamping {
		return history
	}
	lo := linalg.Vec3{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32}
	hi := linalg.Vec3{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32}
	r := p.prog.correctionRadius
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			c := input.At(x+dx, y+dy)
			for i := range 3 {
				lo[i] = min(lo[i], c[i])
				hi[i] = max(hi[i], c[i])
			}
		}
	}
	for i := range 3 {
		widen := (hi[i] - lo[i]) * p.p.correction
		history[i] = linalg.Clamp(history[i], lo[i]-widen, hi[i]+widen)
	}
	return history
}

func (p *ResolvePass) encode(c linalg.Vec3) linalg.Vec3 {
	if !p.prog.logTransform {
		return c
	}
	for i := range 3 {
		c[i] = float32(math.Log1p(float64(c[i])))
	}
	return c
}

func (p *ResolvePass) decode(c linalg.Vec3) linalg.Vec3 {
	if !p.prog.logTransform {
		return c
	}
	for i := range 3 {
		c[i] = float32(math.Expm1(float64(c[i])))
	}
	return c
}

func (p *ResolvePass) mix(cur, hist linalg.Vec3, w float32) linalg.Vec3 {
	a, b := p.encode(cur), p.encode(hist)
	return p.decode(a.Add(b.Sub(a).Mul(w)))
}

func (p *ResolvePass) shade(f *render.Fragment) {
	par := &p.p
	if par.diffuse == nil || par.specular == nil {
		return
	}
	vel := par.velocity.At(f.X, f.Y)
	depth := par.depth.At(f.X, f.Y)
	prevU, prevV := f.U-vel[0], f.V-vel[1]

	newD := par.diffuse.At(f.X, f.Y).Vec3()
	newS := par.specular.At(f.X, f.Y).Vec3()
	lumD, lumS := luminance(newD), luminance(newS)

	age := 1
	var w float32
	var histD, histS linalg.Vec3
	var histM linalg.Vec4
	valid := p.valid(f, prevU, prevV, vel, depth)
	if valid {
		last := par.histD.Load(prevU, prevV)
		age = int(last[3]) + 1
		w = p.weight(age)
		histD = p.clampHistory(last.Vec3(), par.diffuse, f.X, f.Y)
		histS = p.clampHistory(par.histS.Load(prevU, prevV).Vec3(), par.specular, f.X, f.Y)
		histM = par.histMoments.Load(prevU, prevV)
	}

	wd := w
	if p.prog.reflectionsOnly {
		wd = 0
	}
	d := p.mix(newD, histD, wd)
	s := p.mix(newS, histS, w)

	f.Out[Diffuse] = d.Vec4(float32(age))
	f.Out[Specular] = s.Vec4(float32(age))
	f.Out[Moments] = linalg.Vec4{
		linalg.Lerp(lumD, histM[0], wd),
		linalg.Lerp(lumD*lumD, histM[1], wd),
		linalg.Lerp(lumS, histM[2], w),
		linalg.Lerp(lumS*lumS, histM[3], w),
	}
	if valid {
		f.Out[Validity] = linalg.Vec4{1, 1, 1, 1}
	}
}

func luminance(c linalg.Vec3) float32 {
	return c.Dot(linalg.Vec3{0.2126, 0.7152, 0.0722})
}

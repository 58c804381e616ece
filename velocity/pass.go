// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package velocity renders the per-pixel motion and geometry buffers of a
// frame and keeps snapshots of them for the next frame.
package velocity

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/ssgi/linalg"
	"github.com/gogpu/ssgi/render"
	"github.com/gogpu/ssgi/scene"
	"github.com/gogpu/ssgi/shader"
)

// Attachment indices of the pass target.
const (
	Velocity = iota
	Depth
	Normal
	Diffuse
	Emissive
)

// Attachments is the layout of the pass target.
//
//   - velocity: .xy uv offset from the previous frame, .z view depth of the
//     same surface under the previous camera, .w geometry flag
//   - depth: .r linear view depth, .g geometry flag
//   - normal: .xyz world normal, .w roughness
//   - diffuse: .rgb albedo, .a metalness
//   - emissive: .rgb emission
var Attachments = []render.Attachment{
	{Name: "velocity", Format: gputypes.TextureFormatRGBA16Float},
	{Name: "depth", Format: gputypes.TextureFormatRGBA32Float},
	{Name: "normal", Format: gputypes.TextureFormatRGBA16Float},
	{Name: "diffuse", Format: gputypes.TextureFormatRGBA8Unorm},
	{Name: "emissive", Format: gputypes.TextureFormatRGBA16Float},
}

// objectFrame is the per-object transform state of one draw.
type objectFrame struct {
	world     linalg.Mat4
	invWorld  linalg.Mat4
	prevWorld linalg.Mat4
	moved     bool
}

// Pass renders velocity, depth and the rest of the geometry buffer.
//
// Motion is measured between the unjittered current and previous
// view-projection matrices, so camera jitter never shows up as velocity.
type Pass struct {
	Scene  *scene.Scene
	Camera *scene.Camera

	// Target holds the current frame, laid out as Attachments.
	Target *render.Target

	// Snapshots of the previous frame, filled by CopySnapshots.
	LastVelocityTexture *render.Texture
	LastDepthTexture    *render.Texture
	LastNormalTexture   *render.Texture

	material *render.Material
	dev      render.Device

	prevWorld map[*scene.Object]linalg.Mat4
	prevView  linalg.Mat4
	prevProj  linalg.Mat4
	hasPrev   bool

	// per-draw state read by the fragment stage
	objects  map[*scene.Object]objectFrame
	view     linalg.Mat4
	viewProj linalg.Mat4
	prevVP   linalg.Mat4
}

// NewPass creates a pass at 1×1.
func NewPass(dev render.Device, s *scene.Scene, cam *scene.Camera) *Pass {
	p := &Pass{
		Scene:     s,
		Camera:    cam,
		dev:       dev,
		prevWorld: make(map[*scene.Object]linalg.Mat4),
		objects:   make(map[*scene.Object]objectFrame),
	}
	p.Target = dev.CreateTarget("velocity", 1, 1, Attachments...)
	p.material = render.NewMaterial("VelocityDepthNormalMaterial", shader.GBuffer, p.shade)
	p.allocateSnapshots()
	return p
}

func (p *Pass) allocateSnapshots() {
	desc := func(label string, a render.Attachment) render.TextureDescriptor {
		return render.TextureDescriptor{
			Label:  label,
			Width:  p.Target.Width(),
			Height: p.Target.Height(),
			Format: a.Format,
			Usage:  render.TextureUsageCopyDst | render.TextureUsageTextureBinding,
		}
	}
	p.LastVelocityTexture = p.dev.CreateTexture(desc("lastVelocity", Attachments[Velocity]))
	p.LastDepthTexture = p.dev.CreateTexture(desc("lastDepth", Attachments[Depth]))
	p.LastNormalTexture = p.dev.CreateTexture(desc("lastNormal", Attachments[Normal]))
}

// Material returns the geometry material.
func (p *Pass) Material() *render.Material { return p.material }

// VelocityTexture returns the current velocity buffer.
func (p *Pass) VelocityTexture() *render.Texture { return p.Target.Texture(Velocity) }

// DepthTexture returns the current depth buffer.
func (p *Pass) DepthTexture() *render.Texture { return p.Target.Texture(Depth) }

// NormalTexture returns the current normal/roughness buffer.
func (p *Pass) NormalTexture() *render.Texture { return p.Target.Texture(Normal) }

// DiffuseTexture returns the current albedo/metalness buffer.
func (p *Pass) DiffuseTexture() *render.Texture { return p.Target.Texture(Diffuse) }

// EmissiveTexture returns the current emission buffer.
func (p *Pass) EmissiveTexture() *render.Texture { return p.Target.Texture(Emissive) }

// SetSize reallocates the target and the snapshots. Snapshots start empty,
// so the next frame finds no history to reproject.
func (p *Pass) SetSize(width, height int) {
	p.Target.SetSize(width, height)
	p.allocateSnapshots()
}

// Render draws the geometry buffer into the pass target. The target stays
// bound afterwards; callers restore their own.
func (p *Pass) Render(dev render.Device) error {
	p.prepare()
	dev.SetRenderTarget(p.Target)
	err := dev.Draw(p.material)
	p.commit()
	return err
}

func (p *Pass) prepare() {
	cam := p.Camera
	proj := cam.UnjitteredProjection()
	p.view = cam.View()
	p.viewProj = proj.Mul(p.view)
	if !p.hasPrev {
		p.prevView, p.prevProj = p.view, proj
	}
	p.prevVP = p.prevProj.Mul(p.prevView)

	clear(p.objects)
	for o := range p.Scene.TraverseVisible() {
		world := o.World()
		prev, ok := p.prevWorld[o]
		if !ok {
			prev = world
		}
		p.objects[o] = objectFrame{
			world:     world,
			invWorld:  world.Inverse(),
			prevWorld: prev,
			moved:     prev != world,
		}
	}
}

func (p *Pass) commit() {
	p.prevView = p.view
	p.prevProj = p.Camera.UnjitteredProjection()
	p.hasPrev = true
	for o, f := range p.objects {
		p.prevWorld[o] = f.world
	}
}

// ResetHistory forgets the previous camera and object transforms.
func (p *Pass) ResetHistory() {
	p.hasPrev = false
	clear(p.prevWorld)
}

func screenUV(clip linalg.Vec4) linalg.Vec2 {
	ndc := clip.PerspectiveDivide()
	return linalg.Vec2{ndc[0]*0.5 + 0.5, 0.5 - ndc[1]*0.5}
}

func (p *Pass) shade(f *render.Fragment) {
	origin, dir := p.Camera.Ray(f.U, f.V)
	hit, ok := p.Scene.Trace(origin, dir)
	if !ok {
		cur := screenUV(p.viewProj.MulVec4(dir.Vec4(0)))
		prev := screenUV(p.prevVP.MulVec4(dir.Vec4(0)))
		v := cur.Sub(prev)
		f.Out[Velocity] = linalg.Vec4{v[0], v[1], 0, 0}
		return
	}

	obj := p.objects[hit.Object]
	world := hit.Point.Vec4(1)
	prevWorld := world
	if obj.moved {
		local := obj.invWorld.MulVec4(world)
		prevWorld = obj.prevWorld.MulVec4(local)
	}

	cur := screenUV(p.viewProj.MulVec4(world))
	prev := screenUV(p.prevVP.MulVec4(prevWorld))
	v := cur.Sub(prev)

	depth := -p.view.MulVec4(world)[2]
	prevDepth := -p.prevView.MulVec4(prevWorld)[2]

	m := hit.Object.Material
	f.Out[Velocity] = linalg.Vec4{v[0], v[1], prevDepth, 1}
	f.Out[Depth] = linalg.Vec4{depth, 1, 0, 1}
	f.Out[Normal] = hit.Normal.Vec4(m.Roughness)
	f.Out[Diffuse] = m.Albedo.Vec4(m.Metalness)
	f.Out[Emissive] = m.Emissive.Vec4(1)
}

// CopySnapshots copies the current velocity, depth and normal buffers into
// the Last* textures. Call it after every consumer of the current frame has
// drawn. It binds the pass target.
func (p *Pass) CopySnapshots(dev render.Device) {
	dev.SetRenderTarget(p.Target)
	dev.CopyFramebufferToTexture(Depth, p.LastDepthTexture)
	dev.CopyFramebufferToTexture(Velocity, p.LastVelocityTexture)
	dev.CopyFramebufferToTexture(Normal, p.LastNormalTexture)
}

// Dispose drops the buffers and the transform history.
func (p *Pass) Dispose() {
	p.ResetHistory()
	clear(p.objects)
	p.Target.SetSize(1, 1)
	p.allocateSnapshots()
}

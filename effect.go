// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package ssgi

import (
	"math"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/ssgi/compose"
	"github.com/gogpu/ssgi/denoise"
	"github.com/gogpu/ssgi/frame"
	"github.com/gogpu/ssgi/gi"
	"github.com/gogpu/ssgi/internal/halton"
	"github.com/gogpu/ssgi/render"
	"github.com/gogpu/ssgi/scene"
	"github.com/gogpu/ssgi/temporal"
	"github.com/gogpu/ssgi/velocity"
)

// iblResetFrames is how many display frames the IBL flags stay set after
// an Update.
const iblResetFrames = 2

type size struct {
	width, height int
	scale         float32
}

// Effect runs the screen-space global illumination pipeline for one scene
// and camera on a device.
//
// Update draws a frame; Set and Get change the configuration at run time.
// An Effect is not safe for concurrent use.
type Effect struct {
	scene  *scene.Scene
	camera *scene.Camera
	dev    render.Device

	opts  Options
	table map[string]option

	ownVelocity *velocity.Pass
	velocity    *velocity.Pass
	jitter      *velocity.Jitter
	gi          *gi.Pass
	temporal    *temporal.ResolvePass
	denoise     *denoise.Pass
	compose     *compose.Pass

	sceneTarget *render.Target
	renderer    scene.Renderer
	selection   *Selection

	queue    frame.Queue
	loop     *frame.Loop
	ibl      *IBLFlags
	iblReset *frame.Delay

	env      *scene.Environment
	lastSize size

	frames int
	times  timings
	total  time.Duration
}

// NewEffect creates an effect for s seen through cam, drawing on dev.
//
// Every option is applied once, so the stages start in the configured
// state. When Options.Width and Options.Height are set the effect is sized
// immediately; otherwise call SetSize before the first Update.
func NewEffect(s *scene.Scene, cam *scene.Camera, dev render.Device, opts ...EffectOption) *Effect {
	eo := defaultEffectOptions()
	for _, opt := range opts {
		opt(&eo)
	}

	e := &Effect{
		scene:     s,
		camera:    cam,
		dev:       dev,
		opts:      eo.options,
		table:     newOptionTable(),
		jitter:    velocity.NewJitter(halton.DefaultCount),
		selection: NewSelection(),
		queue:     eo.queue,
		ibl:       eo.ibl,
		times:     make(timings),
	}
	if e.queue == nil {
		e.loop = frame.NewLoop()
		e.queue = e.loop
	}
	if e.ibl == nil {
		e.ibl = SharedIBLFlags()
	}

	e.ownVelocity = velocity.NewPass(dev, s, cam)
	e.velocity = e.ownVelocity
	if eo.velocity != nil {
		e.velocity = eo.velocity
	}

	e.gi = gi.NewPass(dev, cam)
	e.temporal = temporal.NewResolvePass(dev, cam, e.velocity)
	e.denoise = denoise.NewPass(dev)
	e.compose = compose.NewPass(dev)
	e.sceneTarget = dev.CreateTarget("scene", 1, 1,
		render.Attachment{Name: "color", Format: gputypes.TextureFormatRGBA16Float})

	e.renderer = eo.renderer
	if e.renderer == nil {
		r := scene.NewDirectRenderer()
		r.IBL = e.ibl
		e.renderer = r
	}

	e.applyAll()

	if e.opts.Width > 0 && e.opts.Height > 0 {
		e.SetSize(e.opts.Width, e.opts.Height, true)
	}

	Logger().Info("ssgi: effect created",
		"width", e.lastSize.width, "height", e.lastSize.height,
		"externalVelocity", e.velocity != e.ownVelocity)
	return e
}

// Selection returns the objects drawn by the RenderScene path.
func (e *Effect) Selection() *Selection { return e.selection }

// FrameQueue returns the queue that runs the deferred IBL reset. Without
// WithFrameQueue it is a *frame.Loop the host must Tick once per display
// frame.
func (e *Effect) FrameQueue() frame.Queue { return e.queue }

// IBL returns the flags toggled around each frame.
func (e *Effect) IBL() *IBLFlags { return e.ibl }

// VelocityPass returns the velocity pass in use.
func (e *Effect) VelocityPass() *velocity.Pass { return e.velocity }

// Output returns the composed frame at output resolution.
func (e *Effect) Output() *render.Texture { return e.compose.Texture() }

// WorkingSize returns the resolution of the ray march, accumulation and
// filter.
func (e *Effect) WorkingSize() (width, height int) {
	return e.gi.Target.Width(), e.gi.Target.Height()
}

func workingSize(width, height int, scale float32) (int, int) {
	w := int(math.Round(float64(width) * float64(scale)))
	h := int(math.Round(float64(height) * float64(scale)))
	return max(1, w), max(1, h)
}

// SetSize sets the output size. The stages run at the size scaled by
// Options.ResolutionScale. Nothing happens when neither the size nor the
// scale changed since the last call, unless force is set.
//
// A velocity pass supplied by the host is not resized; the host keeps it at
// the working resolution.
func (e *Effect) SetSize(width, height int, force bool) {
	if width <= 0 || height <= 0 {
		return
	}
	next := size{width: width, height: height, scale: e.opts.ResolutionScale}
	if !force && next == e.lastSize {
		return
	}

	ww, wh := workingSize(width, height, next.scale)
	for _, p := range e.workingPasses() {
		p.SetSize(ww, wh)
	}
	e.compose.SetSize(width, height)
	e.sceneTarget.SetSize(width, height)
	e.lastSize = next

	Logger().Debug("ssgi: resized",
		"width", width, "height", height, "workWidth", ww, "workHeight", wh)
}

// SetVelocityPass shares a velocity pass rendered by the host. The effect
// stops rendering its own. Nil returns to the owned pass.
func (e *Effect) SetVelocityPass(p *velocity.Pass) {
	if p == nil {
		p = e.ownVelocity
		ww, wh := e.WorkingSize()
		p.SetSize(ww, wh)
	}
	e.velocity = p
	e.temporal.Velocity = p
}

// keepEnvMapUpdated binds the scene environment to the ray march when it
// changed since the last frame.
func (e *Effect) keepEnvMapUpdated() {
	env := e.scene.Environment
	if env == e.env {
		return
	}
	e.env = env

	m := e.gi.Material()
	if env != nil && env.Mapping == scene.MappingEquirectangular {
		if !env.GenerateMipmaps {
			env.GenerateMipmaps = true
			env.MinFilter = scene.FilterLinearMipmapLinear
			env.MagFilter = scene.FilterLinearMipmapLinear
			env.SetNeedsUpdate()
		}
		e.gi.Environment = env
		m.Uniforms.Set("maxEnvMapMipLevel", float32(env.MaxMipLevel()))
		m.Defines.Enable("USE_ENVMAP")
	} else {
		e.gi.Environment = nil
		m.Defines.Disable("USE_ENVMAP")
	}
	m.SetNeedsUpdate()
	Logger().Debug("ssgi: environment changed", "envmap", e.gi.Environment != nil)
}

// stage runs one pipeline stage and records its duration. Errors are
// logged; the frame goes on with whatever the stage left in its target.
func (e *Effect) stage(name string, fn func() error) {
	start := time.Now()
	err := fn()
	e.times[name] = time.Since(start)
	if err != nil {
		Logger().Warn("ssgi: stage failed", "stage", name, "err", err)
	}
}

// Update renders one frame from input, the direct-lit scene at output
// resolution. With Options.RenderScene the effect renders that buffer
// itself from the selection and input is ignored.
func (e *Effect) Update(input *render.Texture) {
	start := time.Now()
	clear(e.times)

	e.keepEnvMapUpdated()

	if e.opts.CameraJitter {
		ww, wh := e.WorkingSize()
		e.jitter.Apply(e.camera, ww, wh, e.opts.JitterScale)
		defer e.jitter.Clear(e.camera)
	}

	sceneBuffer := input
	if e.opts.RenderScene {
		e.stage(StageScene, e.renderScene)
		sceneBuffer = e.sceneTarget.Texture(0)
	}

	if e.opts.RenderVelocity && e.velocity == e.ownVelocity {
		e.stage(StageVelocity, func() error { return e.velocity.Render(e.dev) })
	}

	v := e.velocity
	g := e.gi.Material().Uniforms
	g.Set("depthTexture", v.DepthTexture())
	g.Set("normalTexture", v.NormalTexture())
	g.Set("diffuseTexture", v.DiffuseTexture())
	g.Set("emissiveTexture", v.EmissiveTexture())
	g.Set("directLightTexture", sceneBuffer)
	e.stage(StageGI, func() error { return e.gi.Render(e.dev) })

	t := e.temporal.Material().Uniforms
	t.Set("inputDiffuseTexture", e.gi.DiffuseTexture())
	t.Set("inputSpecularTexture", e.gi.SpecularTexture())
	e.stage(StageTemporal, func() error { return e.temporal.Render(e.dev) })

	d := e.denoise.Material().Uniforms
	d.Set("inputDiffuseTexture", e.temporal.DiffuseTexture())
	d.Set("inputSpecularTexture", e.temporal.SpecularTexture())
	d.Set("momentsTexture", e.temporal.MomentsTexture())
	d.Set("depthTexture", v.DepthTexture())
	d.Set("normalTexture", v.NormalTexture())
	d.Set("directLightTexture", sceneBuffer)
	e.stage(StageDenoise, func() error { return e.denoise.Render(e.dev) })

	c := e.compose.Material().Uniforms
	c.Set("sceneTexture", sceneBuffer)
	c.Set("diffuseTexture", v.DiffuseTexture())
	c.Set("diffuseLightTexture", e.denoise.DiffuseTexture())
	c.Set("specularLightTexture", e.denoise.SpecularTexture())
	e.stage(StageCompose, func() error { return e.compose.Render(e.dev) })

	e.requestIBL()

	e.frames++
	e.total = time.Since(start)
}

func (e *Effect) renderScene() error {
	restore := e.scene.OverrideVisibility(e.selection.Has)
	defer restore()
	return e.renderer.Render(e.dev, e.scene, e.camera, e.sceneTarget)
}

// requestIBL switches the host's ambient image-based light off and
// schedules it back on two display frames later. A reset still pending
// from the previous frame is withdrawn first.
func (e *Effect) requestIBL() {
	full := !e.opts.DiffuseOnly && !e.opts.SpecularOnly
	e.ibl.set(full || e.opts.DiffuseOnly, full || e.opts.SpecularOnly)

	e.iblReset.Cancel()
	flags := e.ibl
	e.iblReset = frame.After(e.queue, iblResetFrames, func() { flags.set(false, false) })
}

// Stats returns statistics of the last Update.
func (e *Effect) Stats() Stats {
	ww, wh := e.WorkingSize()
	return Stats{
		Frames:        e.frames,
		Samples:       e.temporal.Samples(),
		ValidFraction: e.temporal.ValidFraction(),
		Width:         e.compose.Target.Width(),
		Height:        e.compose.Target.Height(),
		WorkWidth:     ww,
		WorkHeight:    wh,
		Stages:        e.times.stages(),
		Total:         e.total,
	}
}

var (
	_ render.Pass = (*velocity.Pass)(nil)
	_ render.Pass = (*gi.Pass)(nil)
	_ render.Pass = (*temporal.ResolvePass)(nil)
	_ render.Pass = (*denoise.Pass)(nil)
	_ render.Pass = (*compose.Pass)(nil)
)

// workingPasses lists the passes that run at working resolution. An
// external velocity pass is sized by its owner.
func (e *Effect) workingPasses() []render.Pass {
	passes := []render.Pass{e.gi, e.temporal, e.denoise}
	if e.velocity == e.ownVelocity {
		passes = append(passes, e.velocity)
	}
	return passes
}

// Dispose releases every target, withdraws a pending IBL reset and clears
// the IBL flags. The device stays open.
func (e *Effect) Dispose() {
	e.iblReset.Cancel()
	e.iblReset = nil
	e.ibl.set(false, false)

	e.jitter.Clear(e.camera)
	for _, p := range []render.Pass{e.ownVelocity, e.gi, e.temporal, e.denoise, e.compose} {
		p.Dispose()
	}
	e.sceneTarget.SetSize(1, 1)
	e.lastSize = size{}
	e.env = nil

	Logger().Info("ssgi: effect disposed", "frames", e.frames)
}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package ssgi

import (
	"github.com/gogpu/ssgi/frame"
	"github.com/gogpu/ssgi/scene"
	"github.com/gogpu/ssgi/velocity"
)

// Options is the configuration record of an Effect. Each field is also
// reachable at run time through Effect.Set under its camel-case name
// ("distance", "spp", "denoiseIterations", ...).
type Options struct {
	// Ray march.
	Distance           float32 // world-space ray length
	Thickness          float32 // depth below a surface that still counts as a hit
	MaxRoughness       float32 // surfaces rougher than this get no specular rays
	EnvBlur            float32 // environment mip bias for rough missed rays
	MaxEnvLuminance    float32 // clamp on environment samples
	ImportanceSampling bool
	Steps              int
	RefineSteps        int
	SPP                int
	MissedRays         bool // rays leaving the screen sample the environment
	SunMultiplier      float32

	// Temporal accumulation.
	Blend                      float32
	Correction                 float32
	CorrectionRadius           float32
	ConstantBlend              bool
	FullAccumulate             bool
	NeighborhoodClamping       bool
	Dilation                   bool
	LogTransform               bool
	ReflectionsOnly            bool
	MaxNormalDifference        float32
	MaxNeighborDepthDifference float32

	// Spatial filter.
	DenoiseIterations int
	DenoiseKernel     int
	DenoiseDiffuse    float32
	DenoiseSpecular   float32
	DepthPhi          float32
	NormalPhi         float32
	RoughnessPhi      float32

	// Shared by the ray march, the accumulation and the filter.
	Jitter          float32
	JitterRoughness float32

	// Composition.
	DiffuseOnly  bool
	SpecularOnly bool

	// Controller.
	ResolutionScale float32
	RenderScene     bool // re-render the selection as the direct-lit buffer
	RenderVelocity  bool // render the owned velocity pass every frame
	CameraJitter    bool // sub-pixel Halton jitter of the camera
	JitterScale     float32

	// Initial output size. Zero leaves the effect at 1×1 until SetSize.
	Width, Height int
}

// DefaultOptions returns the default configuration.
func DefaultOptions() Options {
	return Options{
		Distance:           10,
		Thickness:          10,
		MaxRoughness:       1,
		EnvBlur:            0.5,
		MaxEnvLuminance:    50,
		ImportanceSampling: true,
		Steps:              20,
		RefineSteps:        5,
		SPP:                1,
		SunMultiplier:      1,

		Blend:                      0.9,
		Correction:                 1,
		CorrectionRadius:           1,
		NeighborhoodClamping:       true,
		MaxNeighborDepthDifference: 0.05,

		DenoiseIterations: 1,
		DenoiseKernel:     2,
		DenoiseDiffuse:    10,
		DenoiseSpecular:   10,
		DepthPhi:          2,
		NormalPhi:         50,
		RoughnessPhi:      1,

		JitterRoughness: 1,

		ResolutionScale: 1,
		RenderVelocity:  true,
		JitterScale:     1,
	}
}

// EffectOption configures an Effect during creation.
//
// Example:
//
//	loop := frame.NewLoop()
//	fx := ssgi.NewEffect(sc, cam, dev,
//		ssgi.WithOptions(opts),
//		ssgi.WithFrameQueue(loop),
//	)
type EffectOption func(*effectOptions)

type effectOptions struct {
	options  Options
	queue    frame.Queue
	ibl      *IBLFlags
	velocity *velocity.Pass
	renderer scene.Renderer
}

func defaultEffectOptions() effectOptions {
	return effectOptions{
		options: DefaultOptions(),
		ibl:     SharedIBLFlags(),
	}
}

// WithOptions replaces the whole configuration record.
func WithOptions(o Options) EffectOption {
	return func(eo *effectOptions) {
		eo.options = o
	}
}

// WithFrameQueue sets the display-frame queue that runs the deferred IBL
// release. Without it the effect creates its own frame.Loop, reachable via
// Effect.FrameQueue.
func WithFrameQueue(q frame.Queue) EffectOption {
	return func(eo *effectOptions) {
		eo.queue = q
	}
}

// WithIBLFlags sets the flags the effect toggles around each frame.
// The default is SharedIBLFlags.
func WithIBLFlags(f *IBLFlags) EffectOption {
	return func(eo *effectOptions) {
		eo.ibl = f
	}
}

// WithVelocityPass shares a velocity pass the host renders itself. The
// effect then never renders or resizes it.
func WithVelocityPass(p *velocity.Pass) EffectOption {
	return func(eo *effectOptions) {
		eo.velocity = p
	}
}

// WithSceneRenderer sets the renderer of the RenderScene path. The
// default is a scene.DirectRenderer bound to the effect's IBL flags.
func WithSceneRenderer(r scene.Renderer) EffectOption {
	return func(eo *effectOptions) {
		eo.renderer = r
	}
}

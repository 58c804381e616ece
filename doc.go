// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package ssgi implements screen-space global illumination as a
// post-processing effect.
//
// # Overview
//
// Each frame the effect ray-marches the depth and normal buffers to gather
// one noisy sample of indirect diffuse and specular light, accumulates it
// over time, filters it with an edge-stopping à-trous blur (SVGF) and adds
// it to the directly lit image supplied by the host.
//
// # Quick Start
//
//	dev := render.NewSoftwareDevice()
//	defer dev.Close()
//
//	loop := frame.NewLoop()
//	fx := ssgi.NewEffect(sc, cam, dev,
//		ssgi.WithOptions(ssgi.DefaultOptions()),
//		ssgi.WithFrameQueue(loop),
//	)
//	fx.SetSize(1280, 720, false)
//
//	for frame := range frames {
//		fx.Update(directLit)
//		loop.Tick()
//		present(fx.Output())
//	}
//
// # Pipeline
//
// The stages run in a fixed order on every Update:
//   - velocity: motion, depth, normal, albedo and emission buffers
//   - gi: screen-space ray march at the working resolution
//   - temporal: reprojection, disocclusion test and accumulation
//   - denoise: DenoiseIterations edge-stopping filter passes
//   - compose: direct + indirect light, tone-mapped by the device
//
// The previous-frame snapshots of the velocity pass are copied after the
// temporal stage has read them.
//
// # Configuration
//
// Options are set once at construction through WithOptions, or changed at
// run time with Effect.Set. Every option name maps to a fixed set of
// parameter writes on the stages that depend on it; nothing else is
// touched.
//
// # Image-based lighting
//
// While the effect supplies indirect light, the host's own ambient IBL
// would count it twice. Update disables it through IBLFlags and schedules
// the release two frames later on the frame queue.
package ssgi

// Version information.
const (
	// Version is the current version of the library.
	Version = "0.1.0"

	// VersionMajor is the major version.
	VersionMajor = 0

	// VersionMinor is the minor version.
	VersionMinor = 1

	// VersionPatch is the patch version.
	VersionPatch = 0
)

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render is the host-device layer the screen-space passes draw
// through.
//
// # Key Principle
//
// Passes RECEIVE a device, they never create GPU resources on their own.
// Everything a pass allocates goes through Device: multi-attachment render
// targets, persistent textures, and full-screen draws of a Material.
//
// # Core Types
//
//   - Device: allocates targets, binds one, draws materials into it and
//     copies attachments into persistent textures
//   - Target: a set of named attachments that always share one size
//   - Texture: a 2D float RGBA image with bilinear sampling
//   - Material: a full-screen program (WGSL source, defines, uniforms) with
//     its fragment stage
//   - ToneMapping: the host's tone-mapping operator
//
// # Software Device
//
// SoftwareDevice executes the fragment stage of every material on the CPU,
// spreading bands of rows over a worker pool the way a GPU spreads
// fragments over its cores. Draws are synchronous: when Draw returns, every
// attachment holds the new frame.
//
// A SoftwareDevice created WithShaderCache also assembles the WGSL program
// of each material and compiles it through naga whenever the material's
// defines change, so configuration errors surface as draw errors.
//
// # Thread Safety
//
// Devices are NOT thread-safe. A device and the passes using it belong to
// one goroutine.
package render

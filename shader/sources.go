// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package shader holds the WGSL programs of the screen-space passes and
// turns them into compiled modules.
//
// Passes never patch shader text. They configure a program declaratively
// through Defines; Assemble turns the defines into WGSL constants and Cache
// compiles each distinct result once through naga.
package shader

import (
	_ "embed"
)

// Embedded WGSL shader sources.

//go:embed wgsl/fullscreen.wgsl
var fullscreenSource string

//go:embed wgsl/copy.wgsl
var copySource string

//go:embed wgsl/gbuffer.wgsl
var gbufferSource string

//go:embed wgsl/direct.wgsl
var directSource string

//go:embed wgsl/ssgi.wgsl
var ssgiSource string

//go:embed wgsl/temporal_resolve.wgsl
var temporalResolveSource string

//go:embed wgsl/denoise.wgsl
var denoiseSource string

//go:embed wgsl/compose.wgsl
var composeSource string

// Name identifies a built-in program.
type Name string

// Built-in programs.
const (
	Copy            Name = "copy"
	GBuffer         Name = "gbuffer"
	Direct          Name = "direct"
	SSGI            Name = "ssgi"
	TemporalResolve Name = "temporal_resolve"
	Denoise         Name = "denoise"
	Compose         Name = "compose"
)

// Flags lists the presence flags each program tests. Assemble declares all
// of them so that absent flags compile as false.
var Flags = map[Name][]string{
	Copy:            nil,
	GBuffer:         nil,
	Direct:          nil,
	SSGI:            {"missedRays", "USE_ENVMAP", "useDirectLight"},
	TemporalResolve: {"neighborhoodClamping", "dilation", "logTransform", "reflectionsOnly"},
	Denoise:         {"useDirectLight"},
	Compose:         nil,
}

// Source returns the WGSL source of a built-in program. Full-screen
// programs are prefixed with the shared vertex stage. Unknown names return
// an empty string.
func Source(name Name) string {
	switch name {
	case Copy:
		return fullscreenSource + "\n" + copySource
	case GBuffer:
		return gbufferSource
	case Direct:
		return directSource
	case SSGI:
		return fullscreenSource + "\n" + ssgiSource
	case TemporalResolve:
		return fullscreenSource + "\n" + temporalResolveSource
	case Denoise:
		return fullscreenSource + "\n" + denoiseSource
	case Compose:
		return fullscreenSource + "\n" + composeSource
	default:
		return ""
	}
}

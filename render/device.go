// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// Device errors.
var (
	// ErrNoTarget is returned by Draw when no render target is bound.
	ErrNoTarget = errors.New("render: no render target bound")

	// ErrNoFragment is returned by Draw for a material without a fragment
	// stage.
	ErrNoFragment = errors.New("render: material has no fragment stage")
)

// DeviceHandle provides GPU device access from the host application.
//
// DeviceHandle is an alias for gpucontext.DeviceProvider. A device built on
// a host GPU reports the host's handle; the software device reports
// NullDeviceHandle unless the host supplies one WithDeviceHandle.
type DeviceHandle = gpucontext.DeviceProvider

// Device executes full-screen programs for the screen-space passes.
type Device interface {
	// CreateTarget allocates a render target with the given attachments.
	CreateTarget(label string, width, height int, attachments ...Attachment) *Target

	// CreateTexture allocates a persistent texture.
	CreateTexture(desc TextureDescriptor) *Texture

	// SetRenderTarget binds the target subsequent draws write to. Nil
	// unbinds.
	SetRenderTarget(t *Target)

	// RenderTarget returns the bound target.
	RenderTarget() *Target

	// Draw runs the material over every pixel of the bound target.
	Draw(m *Material) error

	// CopyFramebufferToTexture copies one attachment of the bound target
	// into dst. Sizes must match.
	CopyFramebufferToTexture(attachment int, dst *Texture)

	// ToneMapping returns the host's tone-mapping operator.
	ToneMapping() ToneMapping

	// Handle returns the GPU device handle of the host.
	Handle() DeviceHandle
}

// Pass is one screen-space stage. An effect composes passes and drives
// them in order.
type Pass interface {
	// SetSize reallocates the pass's targets. History held by the pass
	// is discarded.
	SetSize(width, height int)

	// Render binds the pass's target and draws. Callers restore their own
	// target afterwards.
	Render(dev Device) error

	// Dispose releases the pass's targets.
	Dispose()
}

// TextureDescriptor describes parameters for creating a texture.
// This mirrors the WebGPU GPUTextureDescriptor specification.
type TextureDescriptor struct {
	// Label is an optional debug label for the texture.
	Label string

	// Width is the texture width in pixels.
	Width int

	// Height is the texture height in pixels.
	Height int

	// Format is the texture pixel format.
	Format gputypes.TextureFormat

	// Usage specifies how the texture will be used.
	Usage TextureUsage
}

// TextureUsage specifies how a texture can be used.
// These flags can be combined with bitwise OR.
type TextureUsage uint32

const (
	// TextureUsageCopySrc allows the texture to be used as a copy source.
	TextureUsageCopySrc TextureUsage = 1 << iota

	// TextureUsageCopyDst allows the texture to be used as a copy destination.
	TextureUsageCopyDst

	// TextureUsageTextureBinding allows the texture to be used in a texture binding.
	TextureUsageTextureBinding

	// TextureUsageRenderAttachment allows the texture to be used as a render attachment.
	TextureUsageRenderAttachment
)

// NullDeviceHandle is a DeviceHandle that provides nil implementations.
// Used for CPU-only rendering where no GPU is available.
type NullDeviceHandle struct{}

// Device returns nil for the null device.
func (NullDeviceHandle) Device() gpucontext.Device { return nil }

// Queue returns nil for the null device.
func (NullDeviceHandle) Queue() gpucontext.Queue { return nil }

// Adapter returns nil for the null device.
func (NullDeviceHandle) Adapter() gpucontext.Adapter { return nil }

// AdapterInfo reports an unknown adapter for the null device.
func (NullDeviceHandle) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{Type: gpucontext.AdapterTypeUnknown}
}

// SurfaceFormat returns undefined format for the null device.
func (NullDeviceHandle) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatUndefined
}

// Ensure NullDeviceHandle implements DeviceHandle.
var _ DeviceHandle = NullDeviceHandle{}

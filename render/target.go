// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"github.com/gogpu/gputypes"
)

// Attachment names one color output of a Target.
type Attachment struct {
	Name   string
	Format gputypes.TextureFormat
}

// Target is a set of named attachments sharing one size.
//
// Draws write attachment i from output i of the material's fragment stage.
// SetSize reallocates every attachment at once, so the attachments can never
// disagree on dimensions.
type Target struct {
	label       string
	width       int
	height      int
	attachments []Attachment
	textures    []*Texture
	index       map[string]int

	// onAlloc reports each reallocation to the owning device.
	onAlloc func()
}

// NewTarget creates a target outside of any device. Targets from
// Device.CreateTarget additionally report reallocations to the device.
func NewTarget(label string, width, height int, attachments ...Attachment) *Target {
	t := newTarget(label, attachments, nil)
	t.allocate(width, height)
	return t
}

func newTarget(label string, attachments []Attachment, onAlloc func()) *Target {
	t := &Target{
		onAlloc:     onAlloc,
		label:       label,
		attachments: attachments,
		textures:    make([]*Texture, len(attachments)),
		index:       make(map[string]int, len(attachments)),
	}
	for i, a := range attachments {
		t.index[a.Name] = i
	}
	return t
}

func (t *Target) allocate(width, height int) {
	t.width = max(1, width)
	t.height = max(1, height)
	for i, a := range t.attachments {
		t.textures[i] = NewTexture(TextureDescriptor{
			Label:  t.label + "." + a.Name,
			Width:  t.width,
			Height: t.height,
			Format: a.Format,
			Usage:  TextureUsageRenderAttachment | TextureUsageTextureBinding | TextureUsageCopySrc,
		})
	}
	if t.onAlloc != nil {
		t.onAlloc()
	}
}

// SetSize reallocates every attachment at the new size. Contents are lost
// and previously returned textures are detached from the target. Sizes
// below 1 are raised to 1.
func (t *Target) SetSize(width, height int) {
	t.allocate(width, height)
}

// Label returns the debug label.
func (t *Target) Label() string { return t.label }

// Width returns the target width in pixels.
func (t *Target) Width() int { return t.width }

// Height returns the target height in pixels.
func (t *Target) Height() int { return t.height }

// Len returns the number of attachments.
func (t *Target) Len() int { return len(t.textures) }

// Attachments returns the attachment layout.
func (t *Target) Attachments() []Attachment { return t.attachments }

// Texture returns attachment i.
func (t *Target) Texture(i int) *Texture { return t.textures[i] }

// Named returns the attachment called name, or nil.
func (t *Target) Named(name string) *Texture {
	i, ok := t.index[name]
	if !ok {
		return nil
	}
	return t.textures[i]
}

// Clear zeroes every attachment.
func (t *Target) Clear() {
	for _, tex := range t.textures {
		tex.Clear()
	}
}

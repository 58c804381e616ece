// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/gogpu/ssgi/internal/parallel"
	"github.com/gogpu/ssgi/linalg"
	"github.com/gogpu/ssgi/shader"
)

// SoftwareDevice is a CPU Device.
//
// Every Draw runs the material's fragment stage for each pixel of the bound
// target, in bands of rows spread over a worker pool. The device keeps
// per-material draw counts and a reallocation counter so callers can observe
// exactly what a frame did.
//
// Example:
//
//	dev := render.NewSoftwareDevice()
//	defer dev.Close()
//
//	target := dev.CreateTarget("gi", 320, 240,
//	    render.Attachment{Name: "diffuse", Format: gputypes.TextureFormatRGBA16Float})
//	dev.SetRenderTarget(target)
//	if err := dev.Draw(material); err != nil {
//	    log.Printf("draw failed: %v", err)
//	}
type SoftwareDevice struct {
	pool   *parallel.Pool
	target *Target
	tone   ToneMapping
	handle DeviceHandle
	cache  *shader.Cache

	// fragments reuses per-band invocation state between draws.
	fragments sync.Pool

	draws       map[string]int
	allocations int
	copies      int
}

// DeviceOption configures a SoftwareDevice.
type DeviceOption func(*SoftwareDevice)

// WithWorkers sets the number of shading goroutines. Zero uses GOMAXPROCS.
func WithWorkers(n int) DeviceOption {
	return func(d *SoftwareDevice) {
		d.pool = parallel.NewPool(n)
	}
}

// WithShaderCache makes the device compile the WGSL program of a material
// whenever its defines change.
func WithShaderCache(c *shader.Cache) DeviceOption {
	return func(d *SoftwareDevice) {
		d.cache = c
	}
}

// WithDeviceHandle sets the handle reported by Handle.
func WithDeviceHandle(h DeviceHandle) DeviceOption {
	return func(d *SoftwareDevice) {
		d.handle = h
	}
}

// WithToneMapping sets the host tone-mapping operator. The default is
// ACES filmic at exposure 1.
func WithToneMapping(tm ToneMapping) DeviceOption {
	return func(d *SoftwareDevice) {
		d.tone = tm
	}
}

// NewSoftwareDevice creates a CPU device.
func NewSoftwareDevice(opts ...DeviceOption) *SoftwareDevice {
	d := &SoftwareDevice{
		tone:   ACESFilmicToneMapping(1),
		handle: NullDeviceHandle{},
		draws:  make(map[string]int),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.pool == nil {
		d.pool = parallel.NewPool(0)
	}
	return d
}

// CreateTarget allocates a render target.
func (d *SoftwareDevice) CreateTarget(label string, width, height int, attachments ...Attachment) *Target {
	var t *Target
	t = newTarget(label, attachments, func() {
		d.allocations++
		slogger().Debug("render: target allocated",
			"label", t.label, "width", t.width, "height", t.height)
	})
	t.allocate(width, height)
	return t
}

// CreateTexture allocates a persistent texture.
func (d *SoftwareDevice) CreateTexture(desc TextureDescriptor) *Texture {
	return NewTexture(desc)
}

// SetRenderTarget binds t.
func (d *SoftwareDevice) SetRenderTarget(t *Target) { d.target = t }

// RenderTarget returns the bound target.
func (d *SoftwareDevice) RenderTarget() *Target { return d.target }

// Draw shades every pixel of the bound target with m.
func (d *SoftwareDevice) Draw(m *Material) error {
	t := d.target
	if t == nil {
		return fmt.Errorf("%s: %w", m.Name, ErrNoTarget)
	}
	if m.Fragment == nil {
		return fmt.Errorf("%s: %w", m.Name, ErrNoFragment)
	}
	if m.NeedsUpdate() {
		if err := d.compile(m); err != nil {
			return err
		}
	}

	width, height := t.width, t.height
	outputs := len(t.textures)
	invW := 1 / float32(width)
	invH := 1 / float32(height)

	d.pool.Bands(height, func(y0, y1 int) {
		f, _ := d.fragments.Get().(*Fragment)
		if f == nil {
			f = &Fragment{}
		}
		if cap(f.Out) < outputs {
			f.Out = make([]linalg.Vec4, outputs)
		}
		f.Out = f.Out[:outputs]

		for y := y0; y < y1; y++ {
			f.Y = y
			f.V = (float32(y) + 0.5) * invH
			row := y * width
			for x := range width {
				f.X = x
				f.U = (float32(x) + 0.5) * invW
				clear(f.Out)
				m.Fragment(f)
				for i, tex := range t.textures {
					tex.pix[row+x] = f.Out[i]
				}
			}
		}
		d.fragments.Put(f)
	})

	d.draws[m.Name]++
	return nil
}

func (d *SoftwareDevice) compile(m *Material) error {
	if d.cache != nil {
		if _, err := d.cache.Compile(m.Name, m.Source()); err != nil {
			return err
		}
	}
	m.markCompiled()
	slogger().Debug("render: program rebuilt", "material", m.Name, "version", m.Version())
	return nil
}

// CopyFramebufferToTexture copies attachment i of the bound target into
// dst. It panics when no target is bound or the sizes differ.
func (d *SoftwareDevice) CopyFramebufferToTexture(attachment int, dst *Texture) {
	if d.target == nil {
		panic("render: CopyFramebufferToTexture without a bound target")
	}
	dst.CopyFrom(d.target.textures[attachment])
	d.copies++
}

// ToneMapping returns the host tone-mapping operator.
func (d *SoftwareDevice) ToneMapping() ToneMapping { return d.tone }

// Handle returns the GPU device handle.
func (d *SoftwareDevice) Handle() DeviceHandle { return d.handle }

// Draws returns how many times a material with the given name was drawn
// since the last ResetStats.
func (d *SoftwareDevice) Draws(name string) int { return d.draws[name] }

// Allocations returns how many target reallocations happened since the
// last ResetStats, including initial allocations.
func (d *SoftwareDevice) Allocations() int { return d.allocations }

// Copies returns the number of framebuffer copies since the last
// ResetStats.
func (d *SoftwareDevice) Copies() int { return d.copies }

// ResetStats zeroes the counters.
func (d *SoftwareDevice) ResetStats() {
	clear(d.draws)
	d.allocations = 0
	d.copies = 0
}

// LogStats writes the counters at debug level.
func (d *SoftwareDevice) LogStats() {
	attrs := make([]any, 0, 2*len(d.draws)+4)
	attrs = append(attrs, slog.Int("allocations", d.allocations), slog.Int("copies", d.copies))
	for name, n := range d.draws {
		attrs = append(attrs, slog.Int(name, n))
	}
	slogger().Debug("render: frame stats", attrs...)
}

// Close stops the worker pool. The device stays usable and shades on the
// calling goroutine afterwards.
func (d *SoftwareDevice) Close() {
	d.pool.Close()
}

// Ensure SoftwareDevice implements Device.
var _ Device = (*SoftwareDevice)(nil)

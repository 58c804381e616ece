// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package compose adds denoised indirect light to the direct-lit scene and
// tone-maps the result with the host's operator.
package compose

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/ssgi/linalg"
	"github.com/gogpu/ssgi/render"
	"github.com/gogpu/ssgi/shader"
)

type params struct {
	diffuseOnly  bool
	specularOnly bool
	tone         render.ToneMapping

	scene, albedo     *render.Texture
	diffuse, specular *render.Texture
}

// Pass writes the final color at output resolution. The indirect light is
// sampled bilinearly, so it may come from a smaller working resolution.
//
// Uniforms: diffuseOnly, specularOnly and the textures sceneTexture,
// diffuseTexture (albedo and metalness), diffuseLightTexture and
// specularLightTexture.
type Pass struct {
	Target *render.Target

	material *render.Material
	p        params
}

// NewPass creates a pass at 1×1.
func NewPass(dev render.Device) *Pass {
	p := &Pass{}
	p.Target = dev.CreateTarget("compose", 1, 1,
		render.Attachment{Name: "color", Format: gputypes.TextureFormatRGBA8Unorm})
	m := render.NewMaterial("ComposeMaterial", shader.Compose, p.shade)
	m.Uniforms.Set("diffuseOnly", false)
	m.Uniforms.Set("specularOnly", false)
	p.material = m
	return p
}

// Material returns the composition material.
func (p *Pass) Material() *render.Material { return p.material }

// Texture returns the composed color.
func (p *Pass) Texture() *render.Texture { return p.Target.Texture(0) }

// SetSize reallocates the output.
func (p *Pass) SetSize(width, height int) {
	p.Target.SetSize(width, height)
}

// Render composes one frame with the tone mapping of dev. The output target
// stays bound.
func (p *Pass) Render(dev render.Device) error {
	u := p.material.Uniforms
	p.p = params{
		diffuseOnly:  u.Bool("diffuseOnly"),
		specularOnly: u.Bool("specularOnly"),
		tone:         dev.ToneMapping(),
		scene:        u.Texture("sceneTexture"),
		albedo:       u.Texture("diffuseTexture"),
		diffuse:      u.Texture("diffuseLightTexture"),
		specular:     u.Texture("specularLightTexture"),
	}
	dev.SetRenderTarget(p.Target)
	return dev.Draw(p.material)
}

// Dispose releases the output.
func (p *Pass) Dispose() {
	p.Target.SetSize(1, 1)
}

// Compose returns direct light plus the enabled indirect terms before tone
// mapping. Albedo carries metalness in its alpha channel.
func Compose(direct linalg.Vec3, albedo linalg.Vec4, diffuse, specular linalg.Vec3, diffuseOnly, specularOnly bool) linalg.Vec3 {
	c := direct
	if !specularOnly {
		c = c.Add(albedo.Vec3().MulVec(diffuse).Mul(1 - albedo[3]))
	}
	if !diffuseOnly {
		c = c.Add(specular)
	}
	return c
}

func (p *Pass) shade(f *render.Fragment) {
	par := &p.p
	if par.scene == nil {
		return
	}
	direct := par.scene.Sample(f.U, f.V)
	var albedo linalg.Vec4
	var diffuse, specular linalg.Vec3
	if par.albedo != nil {
		albedo = par.albedo.Sample(f.U, f.V)
	}
	if par.diffuse != nil {
		diffuse = par.diffuse.Sample(f.U, f.V).Vec3()
	}
	if par.specular != nil {
		specular = par.specular.Sample(f.U, f.V).Vec3()
	}
	c := Compose(direct.Vec3(), albedo, diffuse, specular, par.diffuseOnly, par.specularOnly)
	f.Out[0] = par.tone.Apply(c).Vec4(direct[3])
}

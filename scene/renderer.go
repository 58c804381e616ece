// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scene

import (
	"github.com/gogpu/ssgi/linalg"
	"github.com/gogpu/ssgi/render"
	"github.com/gogpu/ssgi/shader"
)

// Renderer draws the directly lit scene.
//
// Render binds target on dev and leaves it bound.
type Renderer interface {
	Render(dev render.Device, s *Scene, cam *Camera, target *render.Target) error
}

// IBL reports whether image-based ambient light is suppressed. The
// diffuse part comes from irradiance and the specular part from radiance.
type IBL interface {
	IrradianceDisabled() bool
	RadianceDisabled() bool
}

// DirectRenderer shades visible surfaces with the sun, a shadow ray, their
// emission and, when the scene has an environment, image-based ambient
// light. Misses show the sky.
type DirectRenderer struct {
	// IBL, when set, can switch off the ambient terms.
	IBL IBL

	material *render.Material

	scene  *Scene
	camera *Camera
}

// NewDirectRenderer creates a direct-light renderer.
func NewDirectRenderer() *DirectRenderer {
	r := &DirectRenderer{}
	r.material = render.NewMaterial("DirectLight", shader.Direct, r.shade)
	return r
}

// Render implements Renderer.
func (r *DirectRenderer) Render(dev render.Device, s *Scene, cam *Camera, target *render.Target) error {
	r.scene, r.camera = s, cam
	if s.Environment != nil {
		s.Environment.Prepare()
	}
	dev.SetRenderTarget(target)
	return dev.Draw(r.material)
}

func (r *DirectRenderer) shade(f *render.Fragment) {
	origin, dir := r.camera.Ray(f.U, f.V)
	hit, ok := r.scene.Trace(origin, dir)
	if !ok {
		f.Out[0] = r.scene.Sky(dir).Vec4(1)
		return
	}
	c := Shade(r.scene, hit).Add(r.ambient(hit, dir))
	f.Out[0] = c.Vec4(1)
}

// ambient returns the image-based light reflected at hit for a view ray
// along dir.
func (r *DirectRenderer) ambient(hit Hit, dir linalg.Vec3) linalg.Vec3 {
	env := r.scene.Environment
	if env == nil || env.Mapping != MappingEquirectangular {
		return linalg.Vec3{}
	}
	m := hit.Object.Material
	top := float32(env.Levels() - 1)

	var c linalg.Vec3
	if r.IBL == nil || !r.IBL.IrradianceDisabled() {
		irradiance := env.SampleDir(hit.Normal, top)
		c = c.Add(m.Albedo.MulVec(irradiance).Mul(1 - m.Metalness))
	}
	if r.IBL == nil || !r.IBL.RadianceDisabled() {
		f0 := lerp3(linalg.Vec3{0.04, 0.04, 0.04}, m.Albedo, m.Metalness)
		radiance := env.SampleDir(dir.Reflect(hit.Normal), m.Roughness*top)
		c = c.Add(f0.MulVec(radiance))
	}
	return c
}

func lerp3(a, b linalg.Vec3, t float32) linalg.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

// Shade returns the direct radiance leaving a hit towards the viewer:
// emission plus diffuse sunlight when the sun is not shadowed.
func Shade(s *Scene, hit Hit) linalg.Vec3 {
	m := hit.Object.Material
	color := m.Emissive
	l := s.Sun.Direction.Normalize()
	ndl := hit.Normal.Dot(l)
	if ndl <= 0 || s.Sun.Intensity == 0 {
		return color
	}
	if s.Occluded(hit.Point.Add(hit.Normal.Mul(epsilon*10)), l) {
		return color
	}
	diffuse := m.Albedo.MulVec(s.Sun.Color).Mul(ndl * s.Sun.Intensity * (1 - m.Metalness))
	return color.Add(diffuse)
}

// Ensure DirectRenderer implements Renderer.
var _ Renderer = (*DirectRenderer)(nil)

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"fmt"
	"image/png"
	"math"
	"os"

	"github.com/gogpu/ssgi/linalg"
	"github.com/gogpu/ssgi/render"
	"github.com/gogpu/ssgi/scene"
)

var orbitTarget = linalg.Vec3{0, 1, 0}

// demoScene builds an open box with a red and a green wall, a tall block
// and a glowing sphere.
func demoScene(aspect float32) (*scene.Scene, *scene.Camera) {
	s := scene.New()
	s.Sun.Direction = linalg.Vec3{0.4, 1, 0.6}
	s.Sun.Intensity = 2
	s.Background = linalg.Vec3{0.05, 0.07, 0.1}

	white := scene.Material{Albedo: linalg.Vec3{0.8, 0.8, 0.8}, Roughness: 0.9}
	wall := func(name string, half, pos linalg.Vec3, m scene.Material) *scene.Object {
		o := scene.NewObject(name, scene.Box{Half: half}, m)
		o.Position = pos
		return o
	}

	floor := scene.NewObject("floor", scene.Plane{Width: 6, Depth: 6}, white)
	back := wall("back", linalg.Vec3{2, 1.5, 0.05}, linalg.Vec3{0, 1.5, -2}, white)
	left := wall("left", linalg.Vec3{0.05, 1.5, 2}, linalg.Vec3{-2, 1.5, 0},
		scene.Material{Albedo: linalg.Vec3{0.8, 0.1, 0.1}, Roughness: 0.8})
	right := wall("right", linalg.Vec3{0.05, 1.5, 2}, linalg.Vec3{2, 1.5, 0},
		scene.Material{Albedo: linalg.Vec3{0.1, 0.8, 0.1}, Roughness: 0.8})

	block := wall("block", linalg.Vec3{0.4, 0.8, 0.4}, linalg.Vec3{-0.7, 0.8, -0.6},
		scene.Material{Albedo: linalg.Vec3{0.9, 0.9, 0.9}, Roughness: 0.3})
	block.Rotation = linalg.QuatFromAxisAngle(linalg.Vec3{0, 1, 0}, 0.4)

	ball := scene.NewObject("ball", scene.Sphere{Radius: 0.5}, scene.Material{
		Albedo:    linalg.Vec3{0.9, 0.7, 0.3},
		Roughness: 0.1,
		Metalness: 1,
		Emissive:  linalg.Vec3{0.5, 0.35, 0.1},
	})
	ball.Position = linalg.Vec3{0.8, 0.5, 0.3}

	s.Add(floor, back, left, right, block, ball)

	cam := scene.NewCamera(50, aspect, 0.1, 100)
	cam.Position = linalg.Vec3{0, 2, 6}
	cam.LookAt(orbitTarget)
	return s, cam
}

// orbitCamera turns the camera about the vertical axis through the scene
// centre.
func orbitCamera(cam *scene.Camera, degrees float32) {
	q := linalg.QuatFromAxisAngle(linalg.Vec3{0, 1, 0}, degrees*math.Pi/180)
	cam.Position = orbitTarget.Add(q.Rotate(cam.Position.Sub(orbitTarget)))
	cam.LookAt(orbitTarget)
}

// loadEnvironment reads an sRGB equirectangular PNG.
func loadEnvironment(path string) (*scene.Environment, error) {
	f, err := os.Open(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("environment %s: %w", path, err)
	}
	return scene.NewEnvironment(render.FromImage(img, true), scene.MappingEquirectangular), nil
}

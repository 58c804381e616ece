// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"image"
	"image/png"
	"math"
	"os"
)

// ToImage converts the texture to an 8-bit image. Channels are clamped to
// [0, 1]; with srgb set, color channels are gamma encoded.
func (t *Texture) ToImage(srgb bool) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, t.width, t.height))
	for i, c := range t.pix {
		o := i * 4
		for ch := range 3 {
			v := c[ch]
			if srgb {
				v = encodeSRGB(v)
			}
			img.Pix[o+ch] = to8(v)
		}
		img.Pix[o+3] = to8(c[3])
	}
	return img
}

// FromImage creates a texture from an image, decoding sRGB color when srgb
// is set.
func FromImage(img image.Image, srgb bool) *Texture {
	b := img.Bounds()
	t := NewTexture(TextureDescriptor{Width: b.Dx(), Height: b.Dy()})
	for y := range b.Dy() {
		for x := range b.Dx() {
			r, g, bl, a := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			c := [4]float32{float32(r) / 0xffff, float32(g) / 0xffff, float32(bl) / 0xffff, float32(a) / 0xffff}
			if srgb {
				for ch := range 3 {
					c[ch] = decodeSRGB(c[ch])
				}
			}
			t.pix[y*t.width+x] = c
		}
	}
	return t
}

// SavePNG writes the texture to a PNG file.
func (t *Texture) SavePNG(path string, srgb bool) error {
	f, err := os.Create(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()
	return png.Encode(f, t.ToImage(srgb))
}

func to8(v float32) uint8 {
	return uint8(math.Round(float64(min(1, max(0, v)) * 255)))
}

func encodeSRGB(v float32) float32 {
	if v <= 0.0031308 {
		return v * 12.92
	}
	return 1.055*float32(math.Pow(float64(v), 1/2.4)) - 0.055
}

func decodeSRGB(v float32) float32 {
	if v <= 0.04045 {
		return v / 12.92
	}
	return float32(math.Pow((float64(v)+0.055)/1.055, 2.4))
}

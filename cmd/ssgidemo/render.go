// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/ssgi"
	"github.com/gogpu/ssgi/frame"
	"github.com/gogpu/ssgi/render"
	"github.com/gogpu/ssgi/scene"
	"github.com/gogpu/ssgi/shader"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
	xdraw "golang.org/x/image/draw"
)

var errBadSetting = errors.New("option override must look like name=value")

// renderFrames renders the demo scene and saves the last frame.
func renderFrames(ctx *cli.Context) error {
	setupLogging(ctx)

	width, height := ctx.Int("width"), ctx.Int("height")
	if width <= 0 || height <= 0 {
		return errors.New("width and height must be positive")
	}
	tone, err := toneMapping(ctx.String("tonemap"), float32(ctx.Float64("exposure")))
	if err != nil {
		return err
	}

	devOpts := []render.DeviceOption{render.WithToneMapping(tone)}
	if n := ctx.Int("workers"); n > 0 {
		devOpts = append(devOpts, render.WithWorkers(n))
	}
	var cache *shader.Cache
	if ctx.Bool("validate-shaders") {
		cache = shader.NewCache()
		defer cache.Destroy()
		devOpts = append(devOpts, render.WithShaderCache(cache))
	}
	dev := render.NewSoftwareDevice(devOpts...)
	defer dev.Close()

	sc, cam := demoScene(float32(width) / float32(height))
	if path := ctx.String("env"); path != "" {
		env, err := loadEnvironment(path)
		if err != nil {
			return err
		}
		sc.Environment = env
	}

	opts := ssgi.DefaultOptions()
	opts.Width, opts.Height = width, height
	opts.ResolutionScale = float32(ctx.Float64("resolution-scale"))
	opts.RenderScene = ctx.Bool("render-scene")
	opts.CameraJitter = ctx.Bool("jitter")

	loop := frame.NewLoop()
	fx := ssgi.NewEffect(sc, cam, dev, ssgi.WithOptions(opts), ssgi.WithFrameQueue(loop))
	defer fx.Dispose()

	for _, kv := range ctx.StringSlice("set") {
		if err := applySetting(fx, kv); err != nil {
			return err
		}
	}
	fx.Selection().Add(sc.Objects...)

	direct := scene.NewDirectRenderer()
	direct.IBL = fx.IBL()
	lit := dev.CreateTarget("direct", width, height,
		render.Attachment{Name: "color", Format: gputypes.TextureFormatRGBA16Float})

	orbit := float32(ctx.Float64("orbit"))
	frames := max(1, ctx.Int("frames"))
	start := time.Now()
	for i := range frames {
		if orbit != 0 && i > 0 {
			orbitCamera(cam, orbit)
		}

		var input *render.Texture
		if !fx.Options().RenderScene {
			if err := direct.Render(dev, sc, cam, lit); err != nil {
				return err
			}
			input = lit.Texture(0)
		}
		fx.Update(input)
		loop.Tick()
	}
	elapsed := time.Since(start)

	printStats(os.Stdout, fx.Stats(), frames, elapsed)
	dev.LogStats()
	if cache != nil {
		logger.Info("shaders validated", "programs", cache.Len(), "compiles", cache.Compiles())
	}

	out := ctx.String("out")
	if err := savePNG(fx.Output(), out, ctx.Int("display-scale")); err != nil {
		return err
	}
	logger.Info("frame saved", "path", out, "width", width, "height", height)
	return nil
}

// applySetting parses name=value and sets it on fx using the option kind.
func applySetting(fx *ssgi.Effect, kv string) error {
	name, raw, ok := strings.Cut(kv, "=")
	if !ok {
		return fmt.Errorf("%w: %q", errBadSetting, kv)
	}
	kind, err := fx.OptionKind(name)
	if err != nil {
		return err
	}

	var v any
	switch kind {
	case ssgi.KindFloat:
		f, perr := strconv.ParseFloat(raw, 32)
		v, err = float32(f), perr
	case ssgi.KindInt:
		v, err = strconv.Atoi(raw)
	case ssgi.KindBool:
		v, err = strconv.ParseBool(raw)
	}
	if err != nil {
		return fmt.Errorf("option %s: %w", name, err)
	}
	return fx.Set(name, v)
}

func toneMapping(name string, exposure float32) (render.ToneMapping, error) {
	switch strings.ToLower(name) {
	case "none", "linear":
		return render.NoToneMapping(), nil
	case "reinhard":
		return render.ReinhardToneMapping(exposure), nil
	case "aces":
		return render.ACESFilmicToneMapping(exposure), nil
	}
	return render.ToneMapping{}, fmt.Errorf("unknown tone mapping %q", name)
}

// savePNG writes tex, upscaled by an integer factor.
func savePNG(tex *render.Texture, path string, scale int) error {
	var img image.Image = tex.ToImage(true)
	if scale > 1 {
		b := img.Bounds()
		dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*scale, b.Dy()*scale))
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
		img = dst
	}

	f, err := os.Create(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func printStats(w io.Writer, st ssgi.Stats, frames int, elapsed time.Duration) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Stage", "Last frame", "% of frame"})
	for _, s := range st.Stages {
		if s.Skipped {
			table.Append([]string{s.Name, "-", "-"})
			continue
		}
		pct := 0.0
		if st.Total > 0 {
			pct = 100 * float64(s.Duration) / float64(st.Total)
		}
		table.Append([]string{s.Name, s.Duration.String(), fmt.Sprintf("%02.1f %%", pct)})
	}
	table.SetFooter([]string{"TOTAL", st.Total.String(), ""})
	table.Render()

	summary := tablewriter.NewWriter(&buf)
	summary.SetAutoFormatHeaders(false)
	summary.SetHeader([]string{"Frames", "Samples", "Valid history", "Output", "Working", "Avg frame"})
	summary.Append([]string{
		strconv.Itoa(frames),
		strconv.Itoa(st.Samples),
		fmt.Sprintf("%.1f %%", 100*st.ValidFraction),
		fmt.Sprintf("%dx%d", st.Width, st.Height),
		fmt.Sprintf("%dx%d", st.WorkWidth, st.WorkHeight),
		(elapsed / time.Duration(frames)).String(),
	})
	summary.Render()

	_, _ = io.Copy(w, &buf)
}

// listOptions prints every effect option with its kind and default.
func listOptions(ctx *cli.Context) error {
	setupLogging(ctx)

	dev := render.NewSoftwareDevice(render.WithWorkers(1))
	defer dev.Close()
	sc, cam := demoScene(1)
	fx := ssgi.NewEffect(sc, cam, dev, ssgi.WithFrameQueue(frame.NewLoop()), ssgi.WithIBLFlags(&ssgi.IBLFlags{}))
	defer fx.Dispose()

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Option", "Kind", "Default"})
	for _, name := range fx.OptionNames() {
		kind, _ := fx.OptionKind(name)
		v, _ := fx.Get(name)
		table.Append([]string{name, kind.String(), fmt.Sprint(v)})
	}
	table.Render()
	_, err := io.Copy(os.Stdout, &buf)
	return err
}

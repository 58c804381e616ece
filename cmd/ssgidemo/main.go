// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command ssgidemo renders a small scene with screen-space global
// illumination on the software device and writes the result as PNG.
package main

import (
	"fmt"
	"os"

	"github.com/gogpu/ssgi"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "ssgidemo"
	app.Usage = "render a demo scene with screen-space global illumination"
	app.Version = ssgi.Version
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "render",
			Usage: "render frames and save the last one",
			Description: `
Render the demo scene for a number of frames so that the temporal
accumulation converges, then write the composed frame to a PNG file.

Options of the effect can be overridden with --set name=value, for example
--set distance=5 --set missedRays=true.`,
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "width",
					Value: 320,
					Usage: "frame width",
				},
				cli.IntFlag{
					Name:  "height",
					Value: 240,
					Usage: "frame height",
				},
				cli.IntFlag{
					Name:  "frames, n",
					Value: 16,
					Usage: "number of frames to accumulate",
				},
				cli.Float64Flag{
					Name:  "resolution-scale",
					Value: 1,
					Usage: "working resolution of the ray march relative to the frame",
				},
				cli.Float64Flag{
					Name:  "orbit",
					Value: 0,
					Usage: "camera orbit in degrees per frame",
				},
				cli.StringFlag{
					Name:  "tonemap",
					Value: "aces",
					Usage: "tone mapping operator: none, reinhard or aces",
				},
				cli.Float64Flag{
					Name:  "exposure",
					Value: 1,
					Usage: "exposure applied before tone mapping",
				},
				cli.StringFlag{
					Name:  "env",
					Usage: "equirectangular PNG used as environment map",
				},
				cli.BoolFlag{
					Name:  "render-scene",
					Usage: "let the effect render the direct-lit buffer itself",
				},
				cli.BoolFlag{
					Name:  "jitter",
					Usage: "enable sub-pixel camera jitter",
				},
				cli.StringSliceFlag{
					Name:  "set, s",
					Value: &cli.StringSlice{},
					Usage: "override an effect option (name=value)",
				},
				cli.IntFlag{
					Name:  "display-scale",
					Value: 1,
					Usage: "upscale the saved image by this factor",
				},
				cli.BoolFlag{
					Name:  "validate-shaders",
					Usage: "compile every program with naga while drawing",
				},
				cli.IntFlag{
					Name:  "workers",
					Value: 0,
					Usage: "software device worker count (0 = GOMAXPROCS)",
				},
				cli.StringFlag{
					Name:  "out, o",
					Value: "ssgi.png",
					Usage: "image filename for the rendered frame",
				},
			},
			Action: renderFrames,
		},
		{
			Name:   "options",
			Usage:  "list the effect options with their kinds and defaults",
			Action: listOptions,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// ledfx plays color animations on a WS2812B LED grid connected to the MOSI
// pin of an SPI port.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image/color"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/GermanBionicSystems/ledmatrix/console"
	"github.com/GermanBionicSystems/ledmatrix/effects"
	"github.com/GermanBionicSystems/ledmatrix/powerline"
	"github.com/GermanBionicSystems/ledmatrix/ws2812"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

var names = map[string]func(rotate bool, svg string) (effects.Effect, error){
	"blink": func(bool, string) (effects.Effect, error) {
		return &effects.Blink{Color: color.NRGBA{G: 0x20, A: 0xff}}, nil
	},
	"rainbow": func(bool, string) (effects.Effect, error) {
		return &effects.Rainbow{}, nil
	},
	"fade": func(bool, string) (effects.Effect, error) {
		return effects.Fade{}, nil
	},
	"directional": func(rotate bool, _ string) (effects.Effect, error) {
		return &effects.Directional{Rotate: rotate}, nil
	},
	"heart": func(bool, string) (effects.Effect, error) {
		return effects.Heart{}, nil
	},
	"snake": func(bool, string) (effects.Effect, error) {
		return &effects.Snake{}, nil
	},
	"icon": func(_ bool, svg string) (effects.Effect, error) {
		if svg == "" {
			return nil, errors.New("-svg is required with -effect icon")
		}
		return effects.LoadIcon(svg)
	},
}

func effectNames() string {
	var l []string
	for n := range names {
		l = append(l, n)
	}
	sort.Strings(l)
	return strings.Join(l, ", ")
}

func mainImpl(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("ledfx", flag.ContinueOnError)
	fs.SetOutput(out)
	spiName := fs.String("spi", "", "SPI port to use")
	name := fs.String("effect", "rainbow", "one of: "+effectNames())
	speed := fs.Uint("speed", uint(effects.DefaultRunOpts.Speed), "hue step per frame")
	brightness := fs.Float64("brightness", effects.DefaultRunOpts.Brightness, "0 to 1")
	rotate := fs.Bool("rotate", false, "vertical instead of horizontal for -effect directional")
	svg := fs.String("svg", "", "SVG file for -effect icon")
	width := fs.Int("width", ws2812.DefaultOpts.Width, "LEDs per row")
	height := fs.Int("height", ws2812.DefaultOpts.Height, "rows")
	intensity := fs.Uint("intensity", uint(ws2812.DefaultOpts.Intensity), "global intensity 0-255")
	frames := fs.Int("frames", 0, "stop after that many frames, 0 runs until interrupted")
	fake := fs.Bool("fake", false, "draw the LEDs on the terminal instead of using SPI")
	power := fs.String("power", "", "GPIO line powering the LEDs, as chip:offset")
	verbose := fs.Bool("v", false, "verbose mode")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 0 {
		return fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}
	if *speed > 255 || *intensity > 255 {
		return errors.New("-speed and -intensity must be at most 255")
	}

	log := logrus.New()
	log.SetOutput(os.Stderr)
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	newEffect, ok := names[*name]
	if !ok {
		return fmt.Errorf("unknown effect %q, use one of: %s", *name, effectNames())
	}
	e, err := newEffect(*rotate, *svg)
	if err != nil {
		return err
	}

	line, err := powerline.Enable(*power)
	if err != nil {
		return err
	}
	defer line.Close()

	var p spi.PortCloser
	if *fake {
		p = console.NewWS2812Port(console.New(&console.Opts{W: *width, H: *height, Out: out}))
	} else {
		if _, err := host.Init(); err != nil {
			return err
		}
		if p, err = spireg.Open(*spiName); err != nil {
			return err
		}
	}
	defer p.Close()

	d, err := ws2812.NewSPI(p, &ws2812.Opts{Width: *width, Height: *height, Intensity: uint8(*intensity)})
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"effect": *name, "device": d.String()}).Debug("starting")
	opts := effects.RunOpts{Speed: uint8(*speed), Brightness: *brightness, Frames: *frames}
	if err := effects.Run(ctx, d, e, &opts); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := mainImpl(ctx, os.Args[1:], os.Stdout)
	stop()
	if err != nil && !errors.Is(err, flag.ErrHelp) {
		fmt.Fprintf(os.Stderr, "ledfx: %s.\n", err)
		os.Exit(1)
	}
}

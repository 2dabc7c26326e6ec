// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package effects renders color animations for small RGB LED grids, like an
// 8x8 WS2812B panel.
//
// An Effect draws one frame at a time into an image; Run drives an Effect on
// any display.Drawer at a fixed frame interval.
package effects

import (
	"context"
	"errors"
	"image"
	"image/color"
	"time"

	"periph.io/x/conn/v3/display"
)

// Effect draws animation frames.
type Effect interface {
	// Frame draws frame number step into img. hue is the running hue offset,
	// which Run advances by RunOpts.Speed every frame.
	Frame(img *image.NRGBA, step int, hue uint8)
	// Interval is the natural frame duration of the effect.
	Interval() time.Duration
}

// RunOpts controls Run.
type RunOpts struct {
	// Interval overrides the effect's frame duration when non-zero.
	Interval time.Duration
	// Speed is the hue increment per frame.
	Speed uint8
	// Brightness scales every color, 0 to 1. Zero is full brightness.
	Brightness float64
	// Frames stops after that many frames. 0 runs until ctx is done.
	Frames int
}

// DefaultRunOpts is a slow hue cycle at half brightness.
var DefaultRunOpts = RunOpts{Speed: 2, Brightness: 0.5}

// Run draws e on d until ctx is done or opts.Frames frames were shown, then
// halts d. It returns nil when the frame count was reached and ctx.Err() on
// cancellation.
func Run(ctx context.Context, d display.Drawer, e Effect, opts *RunOpts) (err error) {
	if opts == nil {
		opts = &DefaultRunOpts
	}
	if opts.Brightness < 0 || opts.Brightness > 1 {
		return errors.New("effects: brightness must be between 0 and 1")
	}
	brightness := opts.Brightness
	if brightness == 0 {
		brightness = 1
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = e.Interval()
	}
	defer func() {
		if herr := d.Halt(); err == nil {
			err = herr
		}
	}()

	img := image.NewNRGBA(d.Bounds())
	t := time.NewTicker(interval)
	defer t.Stop()
	var hue uint8
	for step := 0; opts.Frames == 0 || step < opts.Frames; step++ {
		clear(img.Pix)
		e.Frame(img, step, hue)
		dim(img, brightness)
		if err := d.Draw(d.Bounds(), img, img.Bounds().Min); err != nil {
			return err
		}
		hue += opts.Speed
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	return nil
}

func dim(img *image.NRGBA, brightness float64) {
	if brightness == 1 {
		return
	}
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = uint8(float64(img.Pix[i]) * brightness)
		img.Pix[i+1] = uint8(float64(img.Pix[i+1]) * brightness)
		img.Pix[i+2] = uint8(float64(img.Pix[i+2]) * brightness)
	}
}

// HSV converts a hue at full saturation and value to RGB. The hue circle is
// split in 6 regions of 43 steps.
func HSV(h uint8) color.NRGBA {
	region := h / 43
	remainder := (h - region*43) * 6
	q := 255 - remainder
	t := remainder
	c := color.NRGBA{A: 255}
	switch region {
	case 0:
		c.R, c.G, c.B = 255, t, 0
	case 1:
		c.R, c.G, c.B = q, 255, 0
	case 2:
		c.R, c.G, c.B = 0, 255, t
	case 3:
		c.R, c.G, c.B = 0, q, 255
	case 4:
		c.R, c.G, c.B = t, 0, 255
	default:
		c.R, c.G, c.B = 255, 0, q
	}
	return c
}

// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package console emulates LED hardware on a terminal using ANSI color codes.
//
// Dev is a 2D display.Drawer that prints every frame in place. MAX7219Port and
// WS2812Port are fake SPI ports: the real drivers connect to them, and the
// bytes they would have put on the bus are decoded and shown on a Dev.
//
// Useful while you are waiting for your matrix modules to come by mail.
package console

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"sync"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"periph.io/x/conn/v3/display"
)

// Opts represents the options available for this display.
type Opts struct {
	W, H    int
	Palette *ansi256.Palette
	// Out defaults to a colorable stdout.
	Out io.Writer

	_ struct{}
}

// Dev is a 2D LED grid emulator that outputs to the console.
type Dev struct {
	mu      sync.Mutex
	w       io.Writer
	width   int
	height  int
	palette ansi256.Palette

	pixels []byte
	buf    bytes.Buffer
	drawn  bool
}

// New returns a Dev that displays at the console.
func New(opts *Opts) *Dev {
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	w := opts.Out
	if w == nil {
		w = colorable.NewColorableStdout()
	}
	return &Dev{
		w:       w,
		width:   opts.W,
		height:  opts.H,
		palette: *p,
		pixels:  make([]byte, 3*opts.W*opts.H),
	}
}

func (d *Dev) String() string {
	return fmt.Sprintf("console.Dev{%dx%d}", d.width, d.height)
}

// Halt implements conn.Resource.
//
// It resets the terminal colors so the console is not corrupted.
func (d *Dev) Halt() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := d.w.Write([]byte("\033[0m"))
	d.drawn = false
	return err
}

// Write accepts a stream of raw RGB pixels, row by row, and writes it to the
// console.
func (d *Dev) Write(pixels []byte) (int, error) {
	if len(pixels)%3 != 0 {
		return 0, errors.New("console: invalid RGB stream length")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	copy(d.pixels, pixels)
	if err := d.refreshLocked(); err != nil {
		return 0, err
	}
	return len(pixels), nil
}

// Pixels returns a copy of the current RGB frame.
func (d *Dev) Pixels() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]byte(nil), d.pixels...)
}

// ColorModel implements display.Drawer.
func (d *Dev) ColorModel() color.Model {
	return color.NRGBAModel
}

// Bounds implements display.Drawer.
func (d *Dev) Bounds() image.Rectangle {
	return image.Rect(0, 0, d.width, d.height)
}

// Draw implements display.Drawer.
func (d *Dev) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	r = r.Intersect(d.Bounds())
	d.mu.Lock()
	defer d.mu.Unlock()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			r16, g16, b16, _ := src.At(sp.X+x-r.Min.X, sp.Y+y-r.Min.Y).RGBA()
			i := 3 * (y*d.width + x)
			d.pixels[i] = byte(r16 >> 8)
			d.pixels[i+1] = byte(g16 >> 8)
			d.pixels[i+2] = byte(b16 >> 8)
		}
	}
	return d.refreshLocked()
}

// Text returns a writer for lines printed between frames, like status
// messages sharing the terminal. Text written through it stays visible: the
// next frame is drawn below it instead of over the previous frame.
func (d *Dev) Text() io.Writer {
	return textWriter{d}
}

type textWriter struct {
	d *Dev
}

func (t textWriter) Write(p []byte) (int, error) {
	t.d.mu.Lock()
	defer t.d.mu.Unlock()
	t.d.drawn = false
	return t.d.w.Write(p)
}

func (d *Dev) refreshLocked() error {
	// This code is designed to minimize the amount of memory allocated per call.
	d.buf.Reset()
	if d.drawn && d.height > 0 {
		// Move back up to redraw the previous frame in place.
		fmt.Fprintf(&d.buf, "\033[%dA", d.height)
	}
	for y := 0; y < d.height; y++ {
		_, _ = d.buf.WriteString("\r\033[0m")
		for x := 0; x < d.width; x++ {
			i := 3 * (y*d.width + x)
			c := color.NRGBA{d.pixels[i], d.pixels[i+1], d.pixels[i+2], 255}
			_, _ = io.WriteString(&d.buf, d.palette.Block(c))
		}
		_, _ = d.buf.WriteString("\033[0m\n")
	}
	d.drawn = true
	_, err := d.buf.WriteTo(d.w)
	return err
}

var _ display.Drawer = &Dev{}
var _ fmt.Stringer = &Dev{}

// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package max7219

import (
	"context"
	"errors"
	"image"
	"image/color"
	"time"

	"periph.io/x/conn/v3/display"
)

// DefaultMessageDelay is the time each column step of ShowMessage stays on
// the display.
const DefaultMessageDelay = 50 * time.Millisecond

var errNotMatrix = errors.New("max7219: operation requires DecodeNone (matrix) mode")

// Font renders text into pixel columns, left to right. Bit n of a column is
// raster line n, counting from the top.
type Font interface {
	Columns(text string) []byte
}

// GlyphFont is a Font built from a glyph table in the same layout as
// CP437Glyphs: indexed by code point, most significant bit on the left.
// Runes outside the table render as '?'.
type GlyphFont [][]byte

// Columns implements Font.
func (g GlyphFont) Columns(text string) []byte {
	cols := make([]byte, 0, len(text)*8)
	for _, r := range text {
		if r < 0 || int(r) >= len(g) {
			r = '?'
		}
		glyph := g[r]
		for c := 0; c < 8; c++ {
			var col byte
			for line, b := range glyph {
				if b&(0x80>>c) != 0 {
					col |= 1 << line
				}
			}
			cols = append(cols, col)
		}
	}
	return cols
}

// MessageOpts controls ShowMessage.
type MessageOpts struct {
	// Font defaults to GlyphFont(CP437Glyphs).
	Font Font
	// Delay between two column steps. Defaults to DefaultMessageDelay.
	Delay time.Duration
}

// ShowMessage scrolls text across the matrix from right to left, one LED
// column per step, until the last column has left the display. It blocks
// until the animation completes or ctx is cancelled, in which case ctx.Err()
// is returned.
//
// opts may be nil.
func (d *Dev) ShowMessage(ctx context.Context, text string, opts *MessageOpts) error {
	if d.decode != DecodeNone {
		return errNotMatrix
	}
	var font Font = GlyphFont(CP437Glyphs)
	delay := DefaultMessageDelay
	if opts != nil {
		if opts.Font != nil {
			font = opts.Font
		}
		if opts.Delay > 0 {
			delay = opts.Delay
		}
	}
	cols := font.Columns(text)
	width := d.units * 8

	t := time.NewTicker(delay)
	defer t.Stop()
	for step := 1; step <= len(cols)+width; step++ {
		d.mu.Lock()
		d.drawColumnsLocked(cols, step-width)
		err := d.WriteCascadedUnits(d.fb)
		d.mu.Unlock()
		if err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	return nil
}

// drawColumnsLocked fills the frame buffer with cols, where display column x
// shows cols[x+offset].
func (d *Dev) drawColumnsLocked(cols []byte, offset int) {
	for x := 0; x < d.units*8; x++ {
		var col byte
		if i := x + offset; i >= 0 && i < len(cols) {
			col = cols[i]
		}
		for y := 0; y < int(d.digits); y++ {
			d.setLocked(x, y, col&(1<<y) != 0)
		}
	}
}

func (d *Dev) setLocked(x, y int, on bool) {
	raster := d.fb[x/8]
	bit := byte(1) << (x % 8)
	if on {
		raster[y] |= bit
	} else {
		raster[y] &^= bit
	}
}

// Pixel sets the LED at x, y in the frame buffer. Coordinates outside the
// display are ignored. Call Flush to send the frame buffer to the device.
func (d *Dev) Pixel(x, y int, on bool) {
	if !image.Pt(x, y).In(d.Bounds()) {
		return
	}
	d.mu.Lock()
	d.setLocked(x, y, on)
	d.mu.Unlock()
}

// Flush writes the frame buffer to the device.
func (d *Dev) Flush() error {
	if d.decode != DecodeNone {
		return errNotMatrix
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.WriteCascadedUnits(d.fb)
}

// ColorModel implements display.Drawer.
func (d *Dev) ColorModel() color.Model {
	return BitModel
}

// Bounds implements display.Drawer. Unit 0 is the left most matrix.
func (d *Dev) Bounds() image.Rectangle {
	return image.Rect(0, 0, d.units*8, int(d.digits))
}

// Draw implements display.Drawer.
//
// Pixels brighter than mid gray are turned on.
func (d *Dev) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	if d.decode != DecodeNone {
		return errNotMatrix
	}
	r = r.Intersect(d.Bounds())
	d.mu.Lock()
	defer d.mu.Unlock()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			c := src.At(sp.X+x-r.Min.X, sp.Y+y-r.Min.Y)
			d.setLocked(x, y, BitModel.Convert(c) == On)
		}
	}
	return d.WriteCascadedUnits(d.fb)
}

// On and Off are the two colors of BitModel.
var (
	On  = color.Gray{Y: 0xff}
	Off = color.Gray{}
)

// BitModel converts any color to On or Off.
var BitModel = color.ModelFunc(func(c color.Color) color.Color {
	if color.GrayModel.Convert(c).(color.Gray).Y >= 0x80 {
		return On
	}
	return Off
})

var _ display.Drawer = &Dev{}

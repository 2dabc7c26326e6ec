// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package ws2812 drives WS2812B LED strips and grids using a plain SPI port.
//
// The WS2812B protocol is a single wire, self clocked, pulse width encoded
// stream. Running the SPI clock at 6.4MHz makes one SPI byte last 1.25µs, the
// length of one WS2812B bit. A 0 bit is sent as 0xC0 (a short high pulse) and
// a 1 bit as 0xFC (a long high pulse). Only MOSI needs to be wired to DIN.
//
// Colors are sent in green, red, blue order. Trailing zero bytes hold the line
// low long enough for the LEDs to latch the frame.
package ws2812

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"

	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

const (
	// Bit0 is the SPI byte encoding a 0 bit.
	Bit0 byte = 0xC0
	// Bit1 is the SPI byte encoding a 1 bit.
	Bit1 byte = 0xFC
	// Frequency is the SPI clock giving one WS2812B bit per SPI byte.
	Frequency = 6400 * physic.KiloHertz

	// latchBytes keeps the line low for more than 50µs after a frame.
	latchBytes = 48
)

// DefaultOpts is an 8x8 grid at full intensity.
var DefaultOpts = Opts{
	Width:     8,
	Height:    8,
	Intensity: 255,
}

// Opts defines the options for the device.
type Opts struct {
	// Width and Height of the grid. A strip is Width LEDs by 1.
	Width, Height int
	// Intensity scales every color, 0-255.
	Intensity uint8
}

// Dev is a WS2812B chain. LEDs are indexed row by row: y*Width+x.
type Dev struct {
	mu        sync.Mutex
	conn      spi.Conn
	width     int
	height    int
	intensity uint8
	rgb       []byte
	buf       []byte
}

// NewSPI returns a Dev driving the chain connected to the MOSI line of p.
func NewSPI(p spi.Port, opts *Opts) (*Dev, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, errors.New("ws2812: invalid grid size")
	}
	c, err := p.Connect(Frequency, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("ws2812: %w", err)
	}
	n := opts.Width * opts.Height
	return &Dev{
		conn:      c,
		width:     opts.Width,
		height:    opts.Height,
		intensity: opts.Intensity,
		rgb:       make([]byte, 3*n),
		buf:       make([]byte, 24*n+latchBytes),
	}, nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("ws2812.Dev{%s, %dx%d}", d.conn, d.width, d.height)
}

// Len returns the number of LEDs.
func (d *Dev) Len() int {
	return d.width * d.height
}

// SetIntensity changes the brightness applied on the next write.
func (d *Dev) SetIntensity(intensity uint8) {
	d.mu.Lock()
	d.intensity = intensity
	d.mu.Unlock()
}

// Halt implements conn.Resource. It turns every LED off.
func (d *Dev) Halt() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	clear(d.rgb)
	return d.flushLocked()
}

// Write accepts a stream of raw RGB pixels and sends it to the LEDs. Extra
// bytes past the last LED are ignored.
func (d *Dev) Write(pixels []byte) (int, error) {
	if len(pixels)%3 != 0 {
		return 0, errors.New("ws2812: invalid RGB stream length")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	n := copy(d.rgb, pixels)
	if err := d.flushLocked(); err != nil {
		return 0, err
	}
	return n, nil
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
			c := color.NRGBAModel.Convert(src.At(sp.X+x-r.Min.X, sp.Y+y-r.Min.Y)).(color.NRGBA)
			i := 3 * (y*d.width + x)
			d.rgb[i] = c.R
			d.rgb[i+1] = c.G
			d.rgb[i+2] = c.B
		}
	}
	return d.flushLocked()
}

func (d *Dev) flushLocked() error {
	grb := make([]byte, len(d.rgb))
	for i := 0; i < len(d.rgb); i += 3 {
		grb[i] = scale(d.rgb[i+1], d.intensity)
		grb[i+1] = scale(d.rgb[i], d.intensity)
		grb[i+2] = scale(d.rgb[i+2], d.intensity)
	}
	Encode(d.buf, grb)
	clear(d.buf[24*d.Len():])
	if err := d.conn.Tx(d.buf, nil); err != nil {
		return fmt.Errorf("ws2812: %w", err)
	}
	return nil
}

func scale(v, intensity uint8) uint8 {
	return uint8(uint16(v) * uint16(intensity) / 255)
}

// Encode writes the SPI symbols for grb into dst, 8 bytes per input byte,
// most significant bit first. It returns the number of bytes written.
//
// dst must be at least 8*len(grb) long.
func Encode(dst, grb []byte) int {
	for i, v := range grb {
		for bit := 7; bit >= 0; bit-- {
			if v&(1<<bit) != 0 {
				dst[i*8+7-bit] = Bit1
			} else {
				dst[i*8+7-bit] = Bit0
			}
		}
	}
	return 8 * len(grb)
}

// Decode is the reverse of Encode. It stops at the first byte that is not a
// WS2812B symbol, like the latch, and returns the number of whole bytes
// decoded into dst.
func Decode(dst, stream []byte) int {
	n := 0
	for ; n < len(dst) && 8*n+8 <= len(stream); n++ {
		var v byte
		for _, s := range stream[8*n : 8*n+8] {
			if s&0xC0 != 0xC0 {
				return n
			}
			v <<= 1
			// A 1 keeps the line high well past the middle of the bit.
			if s&0x0C != 0 {
				v |= 1
			}
		}
		dst[n] = v
	}
	return n
}

var _ display.Drawer = &Dev{}

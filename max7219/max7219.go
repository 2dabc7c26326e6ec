// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package max7219 drives Maxim MAX7219/MAX7221 LED controllers, alone or
// daisy-chained, wired either to numeric 7-segment digits or to 8x8 LED
// matrices.
//
// Digit displays use the chip's Code B decoder: Write and WriteInt accept
// ASCII digits and a handful of letters. Matrix displays use raw mode, a
// glyph table and a frame buffer, so the device can be used as a
// display.Drawer, addressed pixel by pixel, or asked to scroll a text message
// across the cascaded units.
//
// Datasheet
//
// https://www.analog.com/media/en/technical-documentation/data-sheets/MAX7219-MAX7221.pdf
package max7219

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// DecodeMode selects how digit registers are interpreted.
type DecodeMode byte

const (
	// DecodeB is used for numeric segment displays: writing 0 lights the
	// segments drawing the character 0.
	DecodeB DecodeMode = 0xff
	// DecodeNone is raw mode: every bit set in a digit register lights the
	// matching segment, or matrix LED.
	DecodeNone DecodeMode = 0
)

const (
	// ClearDigit blanks a Code B digit.
	ClearDigit byte = 0x0f
	// MinusSign is the Code B minus sign.
	MinusSign byte = 0x0a
	// DecimalPoint is OR'ed with a Code B digit to light its decimal point.
	DecimalPoint byte = 0x80
)

// Registers. Digit registers are 1 to 8.
const (
	regNoop        byte = 0x00
	regDecodeMode  byte = 0x09
	regIntensity   byte = 0x0a
	regScanLimit   byte = 0x0b
	regShutdown    byte = 0x0c
	regDisplayTest byte = 0x0f
)

// Dev is a chain of MAX7219 units.
type Dev struct {
	mu     sync.Mutex
	conn   spi.Conn
	decode DecodeMode
	// units is the number of daisy-chained chips. Unit 0 is the left most.
	units int
	// digits is the number of digits, or matrix lines, per unit.
	digits byte
	// glyphs is indexed by character code, each glyph holding one byte per
	// raster line, bit 0 being the left most LED.
	glyphs [][]byte
	// fb is the matrix frame buffer, one raster per unit, in the glyph layout.
	fb [][]byte
}

// NewSPI returns a Dev for units chips of numDigits digits each.
//
// A single unit starts in DecodeB mode, multiple units in DecodeNone.
func NewSPI(p spi.Port, units, numDigits int) (*Dev, error) {
	mode := DecodeB
	if units > 1 {
		mode = DecodeNone
	}
	return newDev(p, units, numDigits, mode)
}

// NewMatrix returns a Dev driving cascaded 8x8 LED matrices, left most first.
//
// The device is put in DecodeNone mode and loaded with CP437Glyphs, ready for
// ShowMessage, Draw or Pixel.
func NewMatrix(p spi.Port, cascaded int) (*Dev, error) {
	d, err := newDev(p, cascaded, 8, DecodeNone)
	if err != nil {
		return nil, err
	}
	d.SetGlyphs(CP437Glyphs, true)
	return d, nil
}

func newDev(p spi.Port, units, numDigits int, mode DecodeMode) (*Dev, error) {
	if units <= 0 {
		return nil, errors.New("max7219: invalid value for number of cascaded units")
	}
	if numDigits <= 0 || numDigits > 8 {
		return nil, errors.New("max7219: invalid value for number of digits")
	}
	// It works in Mode0, Mode2 and Mode3.
	c, err := p.Connect(10*physic.MegaHertz, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("max7219: %w", err)
	}
	d := &Dev{conn: c, digits: byte(numDigits), units: units, fb: make([][]byte, units)}
	for i := range d.fb {
		d.fb[i] = make([]byte, numDigits)
	}
	if err := d.init(mode); err != nil {
		return nil, err
	}
	return d, nil
}

// init leaves test mode, sets a medium intensity and the scan limit, then
// selects mode and blanks the display.
func (d *Dev) init(mode DecodeMode) error {
	cmds := [...][2]byte{
		{regDisplayTest, 0},
		{regShutdown, 0},
		{regIntensity, 8},
		{regScanLimit, d.digits - 1},
		{regShutdown, 1},
	}
	for _, c := range cmds {
		if err := d.sendCommand(c[0], c[1]); err != nil {
			return fmt.Errorf("max7219: %w", err)
		}
	}
	if err := d.SetDecode(mode); err != nil {
		return fmt.Errorf("max7219: %w", err)
	}
	return d.Clear()
}

// sendCommand writes register on every unit of the chain.
func (d *Dev) sendCommand(register, data byte) error {
	w := make([]byte, 0, 2*d.units)
	for i := 0; i < d.units; i++ {
		w = append(w, register, data)
	}
	return d.conn.Tx(w, nil)
}

func (d *Dev) String() string {
	return fmt.Sprintf("max7219.Dev{%s, units:%d, digits:%d}", d.conn, d.units, d.digits)
}

// Units returns the number of cascaded max7219 units.
func (d *Dev) Units() int {
	return d.units
}

// Digits returns the number of digits, or raster lines, per unit.
func (d *Dev) Digits() int {
	return int(d.digits)
}

// Halt implements conn.Resource.
//
// It puts every unit in shutdown mode. The display content is kept and comes
// back with Shutdown(false).
func (d *Dev) Halt() error {
	return d.Shutdown(true)
}

// Shutdown enters (true) or leaves (false) shutdown mode on every unit.
func (d *Dev) Shutdown(on bool) error {
	if on {
		return d.sendCommand(regShutdown, 0)
	}
	return d.sendCommand(regShutdown, 1)
}

// SetGlyphs sets the character set used to write text on matrices. Pass true
// for reverse when the glyphs have their left most LED in the most
// significant bit.
//
// Only the characters actually written need a glyph.
func (d *Dev) SetGlyphs(glyphs [][]byte, reverse bool) {
	if reverse {
		glyphs = reverseGlyphs(glyphs)
	}
	d.glyphs = glyphs
}

// SetDecode selects Code B decoding or raw mode on every digit.
func (d *Dev) SetDecode(mode DecodeMode) error {
	d.decode = mode
	return d.sendCommand(regDecodeMode, byte(mode))
}

// SetIntensity sets the brightness, from 0 to 15. Brighter draws more current.
func (d *Dev) SetIntensity(intensity byte) error {
	return d.sendCommand(regIntensity, intensity&0x0f)
}

// TestDisplay lights every LED at full intensity while on. Mind the current
// draw of long chains.
func (d *Dev) TestDisplay(on bool) error {
	var v byte
	if on {
		v = 1
	}
	return d.sendCommand(regDisplayTest, v)
}

// Clear blanks every digit or matrix LED, and the frame buffer.
func (d *Dev) Clear() error {
	d.mu.Lock()
	for _, raster := range d.fb {
		clear(raster)
	}
	d.mu.Unlock()
	if d.units == 1 && d.decode != DecodeNone {
		return d.Write(d.blank())
	}
	w := make([][]byte, d.units)
	for i := range w {
		w[i] = d.blank()
	}
	return d.WriteCascadedUnits(w)
}

// blank is the content of an empty unit in the current decode mode.
func (d *Dev) blank() []byte {
	b := make([]byte, d.digits)
	if d.decode == DecodeB {
		for i := range b {
			b[i] = ClearDigit
		}
	}
	return b
}

// Write sends text to the display.
//
// In DecodeNone mode, every byte is a character code in the glyph table,
// one character per unit, right aligned.
//
// In DecodeB mode, ASCII digits, '-', ' ', 'E', 'H', 'L', 'P' are converted to
// Code B, and '.' lights the decimal point of the preceding digit. The text
// is right aligned over the whole chain.
func (d *Dev) Write(text []byte) error {
	if d.decode == DecodeNone {
		return d.writeChars(text)
	}
	codes := convertBytes(text)
	if d.units > 1 {
		return d.writeCodesCascaded(codes)
	}
	// Characters go from the left most digit, the highest register.
	digit := d.digits
	for _, c := range codes {
		if digit == 0 {
			break
		}
		if err := d.conn.Tx([]byte{digit, c}, nil); err != nil {
			return err
		}
		digit--
	}
	return nil
}

// writeCodesCascaded right aligns Code B values over every unit.
func (d *Dev) writeCodesCascaded(codes []byte) error {
	w := make([][]byte, d.units)
	for i := range w {
		w[i] = d.blank()
	}
	pos := d.units*int(d.digits) - 1
	for i := len(codes) - 1; i >= 0 && pos >= 0; i-- {
		w[pos/int(d.digits)][pos%int(d.digits)] = codes[i]
		pos--
	}
	return d.WriteCascadedUnits(w)
}

// writeChars renders character codes with the glyph table, right aligned,
// one per unit.
func (d *Dev) writeChars(text []byte) error {
	if d.glyphs == nil {
		return errors.New("max7219: no glyphs set, call SetGlyphs first")
	}
	w := make([][]byte, d.units)
	for i := range w {
		w[i] = make([]byte, 8)
		copy(w[i], d.glyphs[' '])
	}
	c := len(text) - 1
	for u := d.units - 1; u >= 0 && c >= 0; u-- {
		w[u] = d.glyphs[text[c]]
		c--
	}
	return d.WriteCascadedUnits(w)
}

// WriteInt displays value, right aligned. Matrices show one digit per unit.
func (d *Dev) WriteInt(value int) error {
	width := d.units
	if d.decode != DecodeNone {
		width *= int(d.digits)
	}
	return d.Write([]byte(fmt.Sprintf("%*d", width, value)))
}

// WriteCascadedUnits writes one raster per unit. rasters[0] goes to the left
// most unit, that is the last one in the chain.
//
// Every digit register is written in one transaction for the whole chain, so
// the data for the furthest unit is shifted in first.
func (d *Dev) WriteCascadedUnits(rasters [][]byte) error {
	n := int(d.digits)
	w := make([]byte, 0, 2*len(rasters))
	for line := 0; line < n; line++ {
		w = w[:0]
		for u := len(rasters) - 1; u >= 0; u-- {
			w = append(w, byte(line+1), rasters[u][n-1-line])
		}
		if err := d.conn.Tx(w, nil); err != nil {
			return err
		}
	}
	return nil
}

// WriteCascadedUnit writes raster to the unit at offset only; the other units
// receive no-ops and keep their content.
func (d *Dev) WriteCascadedUnit(offset int, raster []byte) error {
	n := int(d.digits)
	w := make([]byte, 0, 2*d.units)
	for line := 0; line < n; line++ {
		w = w[:0]
		for u := d.units - 1; u >= 0; u-- {
			if u == offset {
				w = append(w, byte(line+1), raster[n-1-line])
			} else {
				w = append(w, regNoop, 0)
			}
		}
		if err := d.conn.Tx(w, nil); err != nil {
			return err
		}
	}
	return nil
}

// ScrollChars scrolls text from right to left, scrollCount times, one step per
// interval.
//
// On matrices a step is one LED column and the text wraps around. On digit
// displays a step is one digit and text that fits is displayed without
// scrolling for the same duration.
//
// It blocks until done or ctx is cancelled.
func (d *Dev) ScrollChars(ctx context.Context, text []byte, scrollCount int, interval time.Duration) error {
	if d.decode == DecodeNone {
		return d.scrollGlyphs(ctx, text, scrollCount, interval)
	}
	return d.scrollDigits(ctx, text, scrollCount, interval)
}

func (d *Dev) scrollGlyphs(ctx context.Context, text []byte, scrollCount int, interval time.Duration) error {
	if d.glyphs == nil {
		return errors.New("max7219: no glyphs set, call SetGlyphs first")
	}
	// Copy the glyphs since they are shifted in place.
	rasters := make([][]byte, len(text))
	for i, c := range text {
		rasters[i] = make([]byte, 8)
		copy(rasters[i], d.glyphs[c])
	}
	if err := d.WriteCascadedUnits(rasters); err != nil {
		return err
	}
	return tick(ctx, scrollCount*len(text)*int(d.digits), interval, func() error {
		shiftBytes(rasters)
		return d.WriteCascadedUnits(rasters)
	})
}

func (d *Dev) scrollDigits(ctx context.Context, text []byte, scrollCount int, interval time.Duration) error {
	codes := convertBytes(text)
	window := int(d.digits) * d.units
	if len(codes) <= window {
		if err := d.Write(codes); err != nil {
			return err
		}
		return tick(ctx, scrollCount*len(codes), interval, func() error { return nil })
	}
	// The text, a blank, then the text again so the window can wrap around.
	loop := make([]byte, 0, 2*len(codes)+1)
	loop = append(loop, codes...)
	loop = append(loop, ClearDigit)
	loop = append(loop, codes...)
	pos := 0
	steps := scrollCount * len(codes)
	if steps == 0 {
		return nil
	}
	if err := d.Write(loop[pos : pos+window]); err != nil {
		return err
	}
	return tick(ctx, steps-1, interval, func() error {
		if pos++; pos > len(codes) {
			pos = 0
		}
		return d.Write(loop[pos : pos+window])
	})
}

// tick calls step n times, once per interval, after waiting interval first.
// It returns after the last wait.
func tick(ctx context.Context, n int, interval time.Duration, step func() error) error {
	if n <= 0 {
		return nil
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

// shiftBytes shifts a row of rasters left by one LED column, wrapping the
// left most column around to the right end.
func shiftBytes(rasters [][]byte) {
	const leftMost, rightMost byte = 0x01, 0x80
	last := len(rasters) - 1
	wrap := make([]byte, len(rasters[0]))
	copy(wrap, rasters[0])
	for u := 0; u <= last; u++ {
		next := wrap
		if u < last {
			next = rasters[u+1]
		}
		for line := range rasters[u] {
			b := rasters[u][line] >> 1
			if next[line]&leftMost != 0 {
				b |= rightMost
			}
			rasters[u][line] = b
		}
	}
}

// convertBytes converts ASCII to Code B values. '.' is merged into the
// preceding digit.
func convertBytes(text []byte) []byte {
	codes := make([]byte, 0, len(text))
	for i, c := range text {
		switch {
		case c >= '0' && c <= '9':
			codes = append(codes, c-'0')
		case c == '.':
			if i > 0 && len(codes) > 0 {
				codes[len(codes)-1] |= DecimalPoint
			}
		default:
			if v, ok := codeB[c]; ok {
				c = v
			}
			codes = append(codes, c)
		}
	}
	return codes
}

var codeB = map[byte]byte{
	' ': ClearDigit,
	'-': MinusSign,
	'E': 0x0b,
	'H': 0x0c,
	'L': 0x0d,
	'P': 0x0e,
}

// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package sevensegment presents a row of 7-segment digits as a text display.
//
// It wraps a digit device, typically a max7219.Dev wired to one or more
// 7-segment modules, switches it to raw (no decode) mode and does the
// character to segment conversion itself. This gives a wider character set
// than the controller's Code B font.
//
// Segment bits follow the max7219 no-decode layout:
//
//	bit: 7  6 5 4 3 2 1 0
//	seg: DP A B C D E F G
package sevensegment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
	"unicode"

	"github.com/GermanBionicSystems/ledmatrix/max7219"
)

// DefaultDelay is the marquee step duration of ShowMessage.
const DefaultDelay = 250 * time.Millisecond

// ErrOverflow is returned by SetText when the text needs more digits than the
// device has.
var ErrOverflow = errors.New("sevensegment: text does not fit the display")

// Device is the digit device being wrapped. *max7219.Dev implements it.
type Device interface {
	SetDecode(mode max7219.DecodeMode) error
	WriteCascadedUnits(bytes [][]byte) error
	Units() int
	Digits() int
}

// Dev is a virtual text display made of 7-segment digits.
type Dev struct {
	// Delay is the marquee step duration used by ShowMessage.
	Delay time.Duration

	mu   sync.Mutex
	dev  Device
	text string
}

// New wraps dev. The device is put in DecodeNone mode and cleared.
func New(dev Device) (*Dev, error) {
	if err := dev.SetDecode(max7219.DecodeNone); err != nil {
		return nil, fmt.Errorf("sevensegment: %w", err)
	}
	d := &Dev{Delay: DefaultDelay, dev: dev}
	if err := d.Clear(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("sevensegment{%v}", d.dev)
}

// Width returns the number of digits available.
func (d *Dev) Width() int {
	return d.dev.Units() * d.dev.Digits()
}

// Text returns the text last set with SetText.
func (d *Dev) Text() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.text
}

// SetText displays s, left aligned. A '.' lights the decimal point of the
// preceding digit instead of using a digit of its own.
func (d *Dev) SetText(s string) error {
	segs := Encode(s)
	if len(segs) > d.Width() {
		return ErrOverflow
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.writeLocked(segs); err != nil {
		return err
	}
	d.text = s
	return nil
}

// Clear blanks every digit.
func (d *Dev) Clear() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.text = ""
	return d.writeLocked(nil)
}

// Halt implements conn.Resource. It blanks the display.
func (d *Dev) Halt() error {
	return d.Clear()
}

// ShowMessage scrolls text through the digits from right to left, one digit
// per Delay, until it has left the display. It blocks until done or ctx is
// cancelled.
func (d *Dev) ShowMessage(ctx context.Context, text string) error {
	segs := Encode(text)
	width := d.Width()
	delay := d.Delay
	if delay <= 0 {
		delay = DefaultDelay
	}
	window := make([]byte, width)
	t := time.NewTicker(delay)
	defer t.Stop()
	for step := 1; step <= len(segs)+width; step++ {
		for ix := range window {
			window[ix] = 0
			if i := ix + step - width; i >= 0 && i < len(segs) {
				window[ix] = segs[i]
			}
		}
		d.mu.Lock()
		err := d.writeLocked(window)
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
	d.mu.Lock()
	d.text = ""
	d.mu.Unlock()
	return nil
}

// writeLocked sends segs to the device, left aligned and blank padded.
func (d *Dev) writeLocked(segs []byte) error {
	units, digits := d.dev.Units(), d.dev.Digits()
	w := make([][]byte, units)
	for u := range w {
		w[u] = make([]byte, digits)
		for ix := 0; ix < digits; ix++ {
			if pos := u*digits + ix; pos < len(segs) {
				w[u][ix] = segs[pos]
			}
		}
	}
	if err := d.dev.WriteCascadedUnits(w); err != nil {
		return fmt.Errorf("sevensegment: %w", err)
	}
	return nil
}

// Encode converts s into segment bytes. Unknown characters render blank.
func Encode(s string) []byte {
	segs := make([]byte, 0, len(s))
	for _, r := range s {
		if r == '.' {
			if n := len(segs); n > 0 && segs[n-1]&dp == 0 {
				segs[n-1] |= dp
			} else {
				segs = append(segs, dp)
			}
			continue
		}
		segs = append(segs, segment(r))
	}
	return segs
}

const dp = 0x80

func segment(r rune) byte {
	if b, ok := segments[r]; ok {
		return b
	}
	// Fall back to the other case when only one is drawable.
	if b, ok := segments[unicode.ToUpper(r)]; ok {
		return b
	}
	if b, ok := segments[unicode.ToLower(r)]; ok {
		return b
	}
	return 0
}

var segments = map[rune]byte{
	' ': 0x00,
	'-': 0x01,
	'_': 0x08,
	'=': 0x09,
	'"': 0x22,
	'\'': 0x02,
	'°': 0x63,
	'0': 0x7e,
	'1': 0x30,
	'2': 0x6d,
	'3': 0x79,
	'4': 0x33,
	'5': 0x5b,
	'6': 0x5f,
	'7': 0x70,
	'8': 0x7f,
	'9': 0x7b,
	'A': 0x77,
	'b': 0x1f,
	'C': 0x4e,
	'c': 0x0d,
	'd': 0x3d,
	'E': 0x4f,
	'F': 0x47,
	'G': 0x5e,
	'H': 0x37,
	'h': 0x17,
	'I': 0x30,
	'J': 0x3c,
	'L': 0x0e,
	'n': 0x15,
	'O': 0x7e,
	'o': 0x1d,
	'P': 0x67,
	'q': 0x73,
	'r': 0x05,
	'S': 0x5b,
	't': 0x0f,
	'U': 0x3e,
	'u': 0x1c,
	'y': 0x3b,
}

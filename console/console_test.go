// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package console

import (
	"bytes"
	"image"
	"image/color"
	"io"
	"strings"
	"testing"

	"github.com/GermanBionicSystems/ledmatrix/max7219"
	"github.com/GermanBionicSystems/ledmatrix/ws2812"
	"github.com/google/go-cmp/cmp"
)

func TestDev(t *testing.T) {
	var out bytes.Buffer
	d := New(&Opts{W: 2, H: 2, Out: &out})
	if got := d.Bounds(); got != image.Rect(0, 0, 2, 2) {
		t.Fatalf("Bounds() = %v", got)
	}
	if _, err := d.Write([]byte{1, 2}); err == nil {
		t.Error("expected error for partial pixel")
	}
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(1, 1, color.NRGBA{R: 0xff, A: 0xff})
	if err := d.Draw(d.Bounds(), img, image.Point{}); err != nil {
		t.Fatal(err)
	}
	want := []byte{0, 0, 0, 0, 0, 0, 0, 0, 0, 0xff, 0, 0}
	if diff := cmp.Diff(d.Pixels(), want); diff != "" {
		t.Errorf("pixels difference (-got +want):\n%s", diff)
	}
	if n := strings.Count(out.String(), "\n"); n != 2 {
		t.Errorf("expected 2 rows, got %d", n)
	}
	out.Reset()
	if _, err := d.Write(want); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out.String(), "\033[2A") {
		t.Errorf("second frame should redraw in place, got %q", out.String())
	}
}

func TestText(t *testing.T) {
	var out bytes.Buffer
	d := New(&Opts{W: 1, H: 2, Out: &out})
	if _, err := d.Write(make([]byte, 6)); err != nil {
		t.Fatal(err)
	}
	if _, err := io.WriteString(d.Text(), "status\n"); err != nil {
		t.Fatal(err)
	}
	out.Reset()
	if _, err := d.Write(make([]byte, 6)); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out.String(), "\033[2A") {
		t.Errorf("frame after text must not move over it, got %q", out.String())
	}
	out.Reset()
	if _, err := d.Write(make([]byte, 6)); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out.String(), "\033[2A") {
		t.Errorf("consecutive frames should redraw in place, got %q", out.String())
	}
}

func TestMAX7219Port(t *testing.T) {
	d := New(&Opts{W: 16, H: 8, Out: &bytes.Buffer{}})
	p := NewMAX7219Port(2, d)
	m, err := max7219.NewMatrix(p, 2)
	if err != nil {
		t.Fatal(err)
	}
	m.Pixel(0, 0, true)
	m.Pixel(9, 7, true)
	if err := m.Flush(); err != nil {
		t.Fatal(err)
	}
	pixels := d.Pixels()
	lit := func(x, y int) bool {
		i := 3 * (y*16 + x)
		return pixels[i] == p.On[0] && pixels[i+1] == p.On[1] && pixels[i+2] == p.On[2]
	}
	for y := 0; y < 8; y++ {
		for x := 0; x < 16; x++ {
			want := (x == 0 && y == 0) || (x == 9 && y == 7)
			if lit(x, y) != want {
				t.Errorf("pixel %d,%d lit=%t, want %t", x, y, lit(x, y), want)
			}
		}
	}

	if err := m.Halt(); err != nil {
		t.Fatal(err)
	}
	for _, b := range d.Pixels() {
		if b != 0 {
			t.Fatal("shutdown should blank the emulated matrix")
		}
	}
	if _, err := p.Connect(0, 0, 8); err == nil {
		t.Error("second Connect should fail")
	}
}

func TestWS2812Port(t *testing.T) {
	d := New(&Opts{W: 2, H: 1, Out: &bytes.Buffer{}})
	p := NewWS2812Port(d)
	s, err := ws2812.NewSPI(p, &ws2812.Opts{Width: 2, Height: 1, Intensity: 255})
	if err != nil {
		t.Fatal(err)
	}
	rgb := []byte{0x11, 0x22, 0x33, 0x44, 0x55, 0x66}
	if _, err := s.Write(rgb); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(d.Pixels(), rgb); diff != "" {
		t.Errorf("pixels difference (-got +want):\n%s", diff)
	}
}

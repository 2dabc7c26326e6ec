// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ws2812

import (
	"image"
	"image/color"
	"testing"

	"github.com/google/go-cmp/cmp"
	"periph.io/x/conn/v3/spi/spitest"
)

func TestEncode(t *testing.T) {
	dst := make([]byte, 16)
	if n := Encode(dst, []byte{0xA5, 0x01}); n != 16 {
		t.Fatalf("Encode() = %d", n)
	}
	want := []byte{
		Bit1, Bit0, Bit1, Bit0, Bit0, Bit1, Bit0, Bit1,
		Bit0, Bit0, Bit0, Bit0, Bit0, Bit0, Bit0, Bit1,
	}
	if diff := cmp.Diff(dst, want); diff != "" {
		t.Errorf("Encode() difference (-got +want):\n%s", diff)
	}
	got := make([]byte, 2)
	if n := Decode(got, append(dst, 0, 0, 0)); n != 2 {
		t.Fatalf("Decode() = %d", n)
	}
	if diff := cmp.Diff(got, []byte{0xA5, 0x01}); diff != "" {
		t.Errorf("Decode() difference (-got +want):\n%s", diff)
	}
}

func TestDecodeStopsAtLatch(t *testing.T) {
	stream := make([]byte, 8+latchBytes)
	Encode(stream, []byte{0x42})
	dst := make([]byte, 4)
	if n := Decode(dst, stream); n != 1 {
		t.Errorf("Decode() = %d, want 1", n)
	}
}

func TestNewSPIInvalid(t *testing.T) {
	if _, err := NewSPI(&spitest.Record{}, &Opts{Width: 0, Height: 8}); err == nil {
		t.Error("expected error for empty grid")
	}
}

func TestWriteGRB(t *testing.T) {
	record := &spitest.Record{}
	d, err := NewSPI(record, &Opts{Width: 2, Height: 1, Intensity: 255})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.Write([]byte{0x01, 0x02, 0x03, 0xff, 0x00, 0x80}); err != nil {
		t.Fatal(err)
	}
	if len(record.Ops) != 1 {
		t.Fatalf("expected one transfer, got %d", len(record.Ops))
	}
	w := record.Ops[0].W
	if len(w) != 2*24+latchBytes {
		t.Fatalf("unexpected transfer length %d", len(w))
	}
	grb := make([]byte, 6)
	if n := Decode(grb, w); n != 6 {
		t.Fatalf("Decode() = %d", n)
	}
	if diff := cmp.Diff(grb, []byte{0x02, 0x01, 0x03, 0x00, 0xff, 0x80}); diff != "" {
		t.Errorf("GRB difference (-got +want):\n%s", diff)
	}
	for _, b := range w[48:] {
		if b != 0 {
			t.Fatal("latch must be zero")
		}
	}
}

func TestIntensity(t *testing.T) {
	record := &spitest.Record{}
	d, err := NewSPI(record, &Opts{Width: 1, Height: 1, Intensity: 0x80})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.Write([]byte{0xff, 0x00, 0x40}); err != nil {
		t.Fatal(err)
	}
	grb := make([]byte, 3)
	Decode(grb, record.Ops[0].W)
	if diff := cmp.Diff(grb, []byte{0x00, 0x80, 0x20}); diff != "" {
		t.Errorf("GRB difference (-got +want):\n%s", diff)
	}
}

func TestDrawAndHalt(t *testing.T) {
	record := &spitest.Record{}
	d, err := NewSPI(record, &DefaultOpts)
	if err != nil {
		t.Fatal(err)
	}
	if got := d.Bounds(); got != image.Rect(0, 0, 8, 8) {
		t.Fatalf("Bounds() = %v", got)
	}
	img := image.NewNRGBA(d.Bounds())
	img.SetNRGBA(1, 2, color.NRGBA{R: 0x10, G: 0x20, B: 0x30, A: 0xff})
	if err := d.Draw(d.Bounds(), img, image.Point{}); err != nil {
		t.Fatal(err)
	}
	grb := make([]byte, 3*64)
	Decode(grb, record.Ops[0].W)
	i := 3 * (2*8 + 1)
	if diff := cmp.Diff(grb[i:i+3], []byte{0x20, 0x10, 0x30}); diff != "" {
		t.Errorf("pixel difference (-got +want):\n%s", diff)
	}

	if err := d.Halt(); err != nil {
		t.Fatal(err)
	}
	Decode(grb, record.Ops[1].W)
	for _, b := range grb {
		if b != 0 {
			t.Fatal("Halt() must turn every LED off")
		}
	}
}

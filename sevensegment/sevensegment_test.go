// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sevensegment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/GermanBionicSystems/ledmatrix/max7219"
	"github.com/google/go-cmp/cmp"
	"periph.io/x/conn/v3/conntest"
	"periph.io/x/conn/v3/spi/spitest"
)

func newDev(t *testing.T, units, digits int) (*Dev, *spitest.Record) {
	t.Helper()
	record := &spitest.Record{}
	m, err := max7219.NewSPI(record, units, digits)
	if err != nil {
		t.Fatal(err)
	}
	d, err := New(m)
	if err != nil {
		t.Fatal(err)
	}
	record.Ops = nil
	return d, record
}

func TestEncode(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want []byte
	}{
		{"", []byte{}},
		{"12.5", []byte{0x30, 0x6d | dp, 0x5b}},
		{".5", []byte{dp, 0x5b}},
		{"1..", []byte{0x30 | dp, dp}},
		{"aB-", []byte{0x77, 0x1f, 0x01}},
		{"#", []byte{0x00}},
	} {
		if diff := cmp.Diff(Encode(tc.in), tc.want); diff != "" {
			t.Errorf("Encode(%q) difference (-got +want):\n%s", tc.in, diff)
		}
	}
}

func TestSetText(t *testing.T) {
	d, record := newDev(t, 1, 8)
	if err := d.SetText("12.5"); err != nil {
		t.Fatal(err)
	}
	want := []conntest.IO{
		{W: []byte{0x1, 0x00}},
		{W: []byte{0x2, 0x00}},
		{W: []byte{0x3, 0x00}},
		{W: []byte{0x4, 0x00}},
		{W: []byte{0x5, 0x00}},
		{W: []byte{0x6, 0x5b}},
		{W: []byte{0x7, 0xed}},
		{W: []byte{0x8, 0x30}},
	}
	if diff := cmp.Diff(record.Ops, want); diff != "" {
		t.Errorf("ops difference (-got +want):\n%s", diff)
	}
	if got := d.Text(); got != "12.5" {
		t.Errorf("Text() = %q", got)
	}
}

func TestSetTextOverflow(t *testing.T) {
	d, record := newDev(t, 1, 4)
	if err := d.SetText("12345"); !errors.Is(err, ErrOverflow) {
		t.Errorf("expected ErrOverflow, got %v", err)
	}
	if len(record.Ops) != 0 {
		t.Errorf("expected no writes, got %d", len(record.Ops))
	}
	// Decimal points don't take a digit.
	if err := d.SetText("1.2.3.4."); err != nil {
		t.Error(err)
	}
}

func TestCascaded(t *testing.T) {
	d, record := newDev(t, 2, 2)
	if w := d.Width(); w != 4 {
		t.Fatalf("Width() = %d", w)
	}
	if err := d.SetText("123"); err != nil {
		t.Fatal(err)
	}
	want := []conntest.IO{
		{W: []byte{0x1, 0x00, 0x1, 0x6d}},
		{W: []byte{0x2, 0x79, 0x2, 0x30}},
	}
	if diff := cmp.Diff(record.Ops, want); diff != "" {
		t.Errorf("ops difference (-got +want):\n%s", diff)
	}
}

func TestShowMessage(t *testing.T) {
	d, record := newDev(t, 1, 4)
	d.Delay = time.Millisecond
	if err := d.ShowMessage(context.Background(), "Hi"); err != nil {
		t.Fatal(err)
	}
	frames := 2 + 4
	if len(record.Ops) != frames*4 {
		t.Fatalf("expected %d operations, received %d", frames*4, len(record.Ops))
	}
	// First frame: 'H' on the right most digit (register 1).
	if diff := cmp.Diff(record.Ops[0].W, []byte{0x1, 0x37}); diff != "" {
		t.Errorf("first write difference (-got +want):\n%s", diff)
	}
	for _, op := range record.Ops[len(record.Ops)-4:] {
		if op.W[1] != 0 {
			t.Errorf("last frame should be blank, got %#v", op.W)
		}
	}
}

func TestShowMessageCancel(t *testing.T) {
	d, _ := newDev(t, 1, 8)
	d.Delay = time.Hour
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := d.ShowMessage(ctx, "Hello"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

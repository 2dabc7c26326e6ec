// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"periph.io/x/conn/v3/conntest"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi/spitest"
)

func sent() []byte {
	b := make([]byte, bufferSize)
	copy(b, message)
	return b
}

func TestLoopback(t *testing.T) {
	p := &spitest.Playback{
		Playback: conntest.Playback{
			Ops: []conntest.IO{{W: sent(), R: sent()}},
		},
	}
	var out bytes.Buffer
	if err := loopback(p, physic.MegaHertz, &out); err != nil {
		t.Fatal(err)
	}
	want := "Sent: " + message + "\nReceived: " + message + "\nLoopback test successful!\n"
	if out.String() != want {
		t.Errorf("got %q, want %q", out.String(), want)
	}
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestLoopbackMismatch(t *testing.T) {
	p := &spitest.Playback{
		Playback: conntest.Playback{
			Ops: []conntest.IO{{W: sent(), R: make([]byte, bufferSize)}},
		},
	}
	var out bytes.Buffer
	if err := loopback(p, physic.MegaHertz, &out); !errors.Is(err, errMismatch) {
		t.Fatalf("loopback() = %v", err)
	}
	if !strings.HasSuffix(out.String(), "Received: \nLoopback test failed, data mismatch.\n") {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestCString(t *testing.T) {
	if s := cstring([]byte{'a', 'b', 0, 'c'}); s != "ab" {
		t.Errorf("cstring() = %q", s)
	}
	if s := cstring([]byte("abc")); s != "abc" {
		t.Errorf("cstring() = %q", s)
	}
}

// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFakeEffects(t *testing.T) {
	for _, name := range []string{"blink", "rainbow", "fade", "directional", "heart", "snake"} {
		var out bytes.Buffer
		args := []string{"-fake", "-effect", name, "-frames", "2", "-width", "4", "-height", "4"}
		if err := mainImpl(context.Background(), args, &out); err != nil {
			t.Errorf("%s: %v", name, err)
		}
		if out.Len() == 0 {
			t.Errorf("%s: nothing drawn", name)
		}
	}
}

func TestFakeIcon(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dot.svg")
	svg := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 8 8"><circle cx="4" cy="4" r="3"/></svg>`
	if err := os.WriteFile(path, []byte(svg), 0o644); err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	if err := mainImpl(context.Background(), []string{"-fake", "-effect", "icon", "-svg", path, "-frames", "1"}, &out); err != nil {
		t.Fatal(err)
	}
}

func TestBadArgs(t *testing.T) {
	data := [][]string{
		{"-fake", "-effect", "sparkle"},
		{"-fake", "-effect", "icon"},
		{"-fake", "-brightness", "3", "-frames", "1"},
		{"-fake", "-speed", "300"},
		{"extra"},
	}
	for _, args := range data {
		if err := mainImpl(context.Background(), args, &bytes.Buffer{}); err == nil {
			t.Errorf("%v should fail", args)
		}
	}
}

// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package matrixtext

import (
	"testing"

	"github.com/GermanBionicSystems/ledmatrix/max7219"
)

var _ max7219.Font = &FaceFont{}

func TestGoMono(t *testing.T) {
	f, err := GoMono(8)
	if err != nil {
		t.Fatal(err)
	}
	cols := f.Columns("Hi")
	if len(cols) == 0 {
		t.Fatal("expected columns")
	}
	lit := 0
	for _, c := range cols {
		if c != 0 {
			lit++
		}
	}
	if lit == 0 {
		t.Error("text rendered blank")
	}
	if got := f.Columns(""); got != nil {
		t.Errorf("Columns(\"\") = %v", got)
	}
}

func TestWiderText(t *testing.T) {
	f, err := GoRegular(8)
	if err != nil {
		t.Fatal(err)
	}
	if a, b := len(f.Columns("i")), len(f.Columns("iiii")); b <= a {
		t.Errorf("longer text should be wider: %d <= %d", b, a)
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load("does-not-exist.ttf", 8); err == nil {
		t.Error("expected error")
	}
}

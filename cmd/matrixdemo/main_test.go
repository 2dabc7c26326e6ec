// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/GermanBionicSystems/ledmatrix/runner"
)

func TestFake(t *testing.T) {
	var out bytes.Buffer
	code := mainImpl(context.Background(), []string{"-fake", "-delay", "1ms", "-message", "Hi"}, &out)
	if code != 0 {
		t.Fatalf("exit code %d, output:\n%s", code, out.String())
	}
	s := out.String()
	i := strings.Index(s, runner.InitializedLine)
	j := strings.Index(s, runner.DisplayedLine)
	if i < 0 || j < i {
		t.Errorf("unexpected output:\n%s", s)
	}
	if strings.Contains(s, runner.ErrorPrefix) {
		t.Errorf("unexpected error:\n%s", s)
	}
}

// screen replays terminal output handling line feeds, carriage returns and
// cursor up sequences, and returns the visible lines. Other escape sequences
// are dropped.
func screen(out string) []string {
	var lines [][]rune
	row, col := 0, 0
	rs := []rune(out)
	for i := 0; i < len(rs); i++ {
		switch r := rs[i]; {
		case r == '\n':
			row++
			col = 0
		case r == '\r':
			col = 0
		case r == 0x1b && i+1 < len(rs) && rs[i+1] == '[':
			j := i + 2
			n := 0
			for ; j < len(rs) && rs[j] >= '0' && rs[j] <= '9' || j < len(rs) && rs[j] == ';'; j++ {
				if rs[j] != ';' {
					n = n*10 + int(rs[j]-'0')
				}
			}
			if j < len(rs) && rs[j] == 'A' {
				row = max(row-n, 0)
			}
			i = j
		default:
			for len(lines) <= row {
				lines = append(lines, nil)
			}
			for len(lines[row]) <= col {
				lines[row] = append(lines[row], ' ')
			}
			lines[row][col] = r
			col++
		}
	}
	visible := make([]string, len(lines))
	for i, l := range lines {
		visible[i] = strings.TrimRight(string(l), " ")
	}
	return visible
}

func TestFakeStatusLinesStayVisible(t *testing.T) {
	var out bytes.Buffer
	if code := mainImpl(context.Background(), []string{"-fake", "-delay", "1ms", "-message", "Hi"}, &out); code != 0 {
		t.Fatalf("exit code %d", code)
	}
	lines := screen(out.String())
	i := slices.Index(lines, runner.InitializedLine)
	j := slices.Index(lines, runner.DisplayedLine)
	if i < 0 || j <= i {
		t.Errorf("status lines not visible on screen:\n%s", strings.Join(lines, "\n"))
	}
}

func TestCascadedInvalid(t *testing.T) {
	for _, v := range []string{"0", "-3"} {
		var out bytes.Buffer
		if code := mainImpl(context.Background(), []string{"-fake", "-cascaded", v}, &out); code != 2 {
			t.Errorf("-cascaded %s: exit code %d", v, code)
		}
		if strings.Contains(out.String(), runner.InitializedLine) {
			t.Errorf("-cascaded %s: device must not be acquired", v)
		}
	}
}

func TestPowerLineFails(t *testing.T) {
	var out bytes.Buffer
	code := mainImpl(context.Background(), []string{"-fake", "-power", "not-a-line", "-strict"}, &out)
	if code != 1 {
		t.Errorf("exit code %d", code)
	}
	s := out.String()
	if !strings.Contains(s, runner.ErrorPrefix) || !strings.Contains(s, runner.RemediationHint) {
		t.Errorf("unexpected output:\n%s", s)
	}
	if strings.Contains(s, runner.InitializedLine) {
		t.Errorf("device must not be reported initialized:\n%s", s)
	}
}

func TestFakeSevenSegment(t *testing.T) {
	var out bytes.Buffer
	code := mainImpl(context.Background(), []string{"-fake", "-sevensegment", "-delay", "1ms", "-halt"}, &out)
	if code != 0 || !strings.Contains(out.String(), runner.DisplayedLine) {
		t.Fatalf("exit code %d, output:\n%s", code, out.String())
	}
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "demo.yaml")
	cfg := "cascaded: 2\nmessage: Yo\nscroll_delay: 1ms\nintensity: 3\n"
	if err := os.WriteFile(path, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	if code := mainImpl(context.Background(), []string{"-fake", "-config", path}, &out); code != 0 {
		t.Fatalf("exit code %d, output:\n%s", code, out.String())
	}
	if !strings.Contains(out.String(), runner.DisplayedLine) {
		t.Errorf("unexpected output:\n%s", out.String())
	}
}

func TestBadConfig(t *testing.T) {
	var out bytes.Buffer
	if code := mainImpl(context.Background(), []string{"-config", "missing.yaml"}, &out); code != 2 {
		t.Errorf("exit code %d", code)
	}
}

func TestHardwareMissing(t *testing.T) {
	var out bytes.Buffer
	code := mainImpl(context.Background(), []string{"-spi", "no-such-spi-port"}, &out)
	if code != 0 {
		t.Errorf("non strict exit code %d", code)
	}
	s := out.String()
	if !strings.Contains(s, runner.ErrorPrefix) || !strings.Contains(s, runner.RemediationHint) {
		t.Errorf("unexpected output:\n%s", s)
	}
	if strings.Contains(s, runner.InitializedLine) {
		t.Errorf("device must not be reported initialized:\n%s", s)
	}

	out.Reset()
	if code := mainImpl(context.Background(), []string{"-spi", "no-such-spi-port", "-strict"}, &out); code != 1 {
		t.Errorf("strict exit code %d", code)
	}
}

func TestUsage(t *testing.T) {
	var out bytes.Buffer
	if code := mainImpl(context.Background(), []string{"extra"}, &out); code != 2 {
		t.Errorf("exit code %d", code)
	}
}

// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package ledmatrix is a container for LED display drivers and the programs
// using them.
//
// max7219 drives chained MAX7219 8x8 matrices and digit displays, and
// sevensegment turns the latter into a text display. ws2812 drives WS2812B
// RGB grids, animated by effects. console emulates both on a terminal.
//
// cmd/matrixdemo scrolls "Hello world!" on a matrix and reports the outcome;
// its session logic lives in runner.
package ledmatrix

// Copyright 2026 The mathlib Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package shapefun provides linear triangle shape functions as symbolic
// expressions of area coordinates (r, s, t).
//
// Example:
//
//	n1, _ := shapefun.NewTriangleLinear(1, [3]shapefun.Point{{0, 0}, {1, 0}, {0, 1}}, 1)
//	dx, _ := n1.Diff("x") // constant physical derivative
//	v, _ := dx.Apply(1, 0, 0)
package shapefun

import (
	"github.com/mathlib-go/mathlib/internal/shapefun"
)

// Point is a vertex in the physical plane.
type Point = shapefun.Point

// Triangle holds the geometry coefficients of a linear triangle.
type Triangle = shapefun.Triangle

// Shape is one linear shape function.
type Shape = shapefun.Shape

// Errors. Test with errors.Is.
var (
	ErrIndex       = shapefun.ErrIndex
	ErrOrientation = shapefun.ErrOrientation
)

// Coordinate names.
const (
	VarX = shapefun.VarX
	VarY = shapefun.VarY
)

// NewTriangle computes the coefficients of a counter-clockwise triangle.
func NewTriangle(v [3]Point) (*Triangle, error) { return shapefun.NewTriangle(v) }

// NewTriangleLinear builds shape function id (1, 2 or 3) scaled by coef.
func NewTriangleLinear(id int, v [3]Point, coef float64) (*Shape, error) {
	return shapefun.NewTriangleLinear(id, v, coef)
}

// Copyright 2024 The daex Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package kernels

import (
	"math"

	"github.com/pkg/errors"
)

// BinaryFunc is an elementwise binary operation.
type BinaryFunc func(x, y float64) float64

func addFunc(x, y float64) float64 { return x + y }
func subFunc(x, y float64) float64 { return x - y }
func mulFunc(x, y float64) float64 { return x * y }
func divFunc(x, y float64) float64 { return x / y }

// Elementwise applies op with broadcasting: a scalar broadcasts against an
// array; two arrays must have equal dimensions. Sparse operands are
// densified.
func Elementwise(op BinaryFunc, x, y Value) (Value, error) {
	xs, xScalar := x.(Scalar)
	ys, yScalar := y.(Scalar)
	if xScalar && yScalar {
		return Scalar(op(float64(xs), float64(ys))), nil
	}
	if xScalar {
		yd := ToDense(y)
		z := make([]float64, len(yd.Data))
		for i, yi := range yd.Data {
			z[i] = op(float64(xs), yi)
		}
		return NewDense(yd.Rows, yd.Cols, z), nil
	}
	if yScalar {
		xd := ToDense(x)
		z := make([]float64, len(xd.Data))
		for i, xi := range xd.Data {
			z[i] = op(xi, float64(ys))
		}
		return NewDense(xd.Rows, xd.Cols, z), nil
	}
	xd, yd := ToDense(x), ToDense(y)
	if xd.Rows != yd.Rows || xd.Cols != yd.Cols {
		return nil, errors.Wrapf(ErrShape, "cannot combine %dx%d with %dx%d elementwise",
			xd.Rows, xd.Cols, yd.Rows, yd.Cols)
	}
	z := make([]float64, len(xd.Data))
	for i, xi := range xd.Data {
		z[i] = op(xi, yd.Data[i])
	}
	return NewDense(xd.Rows, xd.Cols, z), nil
}

// mergeCSR applies op to two sparse matrices over the union of their
// sparsity patterns. Missing entries are zero.
func mergeCSR(op BinaryFunc, x, y *CSR) (*CSR, error) {
	if x.Rows != y.Rows || x.Cols != y.Cols {
		return nil, errors.Wrapf(ErrShape, "cannot combine sparse %dx%d with %dx%d",
			x.Rows, x.Cols, y.Rows, y.Cols)
	}
	z := &CSR{Rows: x.Rows, Cols: x.Cols, RowPtr: make([]int, x.Rows+1)}
	for i := 0; i < x.Rows; i++ {
		kx, ky := x.RowPtr[i], y.RowPtr[i]
		for kx < x.RowPtr[i+1] || ky < y.RowPtr[i+1] {
			var col int
			var xv, yv float64
			switch {
			case ky >= y.RowPtr[i+1] || (kx < x.RowPtr[i+1] && x.ColIdx[kx] < y.ColIdx[ky]):
				col, xv = x.ColIdx[kx], x.Data[kx]
				kx++
			case kx >= x.RowPtr[i+1] || y.ColIdx[ky] < x.ColIdx[kx]:
				col, yv = y.ColIdx[ky], y.Data[ky]
				ky++
			default:
				col, xv, yv = x.ColIdx[kx], x.Data[kx], y.Data[ky]
				kx++
				ky++
			}
			if v := op(xv, yv); v != 0 {
				z.ColIdx = append(z.ColIdx, col)
				z.Data = append(z.Data, v)
			}
		}
		z.RowPtr[i+1] = len(z.Data)
	}
	return z, nil
}

func scaleCSR(m *CSR, f func(float64) float64) *CSR {
	data := make([]float64, len(m.Data))
	for i, v := range m.Data {
		data[i] = f(v)
	}
	return &CSR{Rows: m.Rows, Cols: m.Cols, RowPtr: m.RowPtr, ColIdx: m.ColIdx, Data: data}
}

// Add returns x + y. Two sparse operands stay sparse.
func Add(x, y Value) (Value, error) {
	if xm, ok := x.(*CSR); ok {
		if ym, ok := y.(*CSR); ok {
			return mergeCSR(addFunc, xm, ym)
		}
	}
	return Elementwise(addFunc, x, y)
}

// Sub returns x - y. Two sparse operands stay sparse.
func Sub(x, y Value) (Value, error) {
	if xm, ok := x.(*CSR); ok {
		if ym, ok := y.(*CSR); ok {
			return mergeCSR(subFunc, xm, ym)
		}
	}
	return Elementwise(subFunc, x, y)
}

// Mul returns the elementwise product x * y. A sparse operand scaled by a
// scalar stays sparse; a sparse pair multiplies over the union pattern.
func Mul(x, y Value) (Value, error) {
	if xm, ok := x.(*CSR); ok {
		switch y := y.(type) {
		case Scalar:
			return scaleCSR(xm, func(v float64) float64 { return v * float64(y) }), nil
		case *CSR:
			return mergeCSR(mulFunc, xm, y)
		}
	}
	if ym, ok := y.(*CSR); ok {
		if x, ok := x.(Scalar); ok {
			return scaleCSR(ym, func(v float64) float64 { return v * float64(x) }), nil
		}
	}
	return Elementwise(mulFunc, x, y)
}

// Div returns the elementwise quotient x / y. A sparse numerator divided by
// a scalar stays sparse.
func Div(x, y Value) (Value, error) {
	if xm, ok := x.(*CSR); ok {
		if y, ok := y.(Scalar); ok {
			return scaleCSR(xm, func(v float64) float64 { return v / float64(y) }), nil
		}
	}
	return Elementwise(divFunc, x, y)
}

// Pow returns x raised to y elementwise.
func Pow(x, y Value) (Value, error) {
	return Elementwise(math.Pow, x, y)
}

// Minimum returns the elementwise minimum of x and y.
func Minimum(x, y Value) (Value, error) {
	return Elementwise(math.Min, x, y)
}

// Maximum returns the elementwise maximum of x and y.
func Maximum(x, y Value) (Value, error) {
	return Elementwise(math.Max, x, y)
}

func heaviside(cmp func(x, y float64) bool) BinaryFunc {
	return func(x, y float64) float64 {
		if cmp(x, y) {
			return 1
		}
		return 0
	}
}

// Less returns the 0/1-valued result of x < y elementwise.
func Less(x, y Value) (Value, error) {
	return Elementwise(heaviside(func(x, y float64) bool { return x < y }), x, y)
}

// LessEqual returns the 0/1-valued result of x <= y elementwise.
func LessEqual(x, y Value) (Value, error) {
	return Elementwise(heaviside(func(x, y float64) bool { return x <= y }), x, y)
}

// Greater returns the 0/1-valued result of x > y elementwise.
func Greater(x, y Value) (Value, error) {
	return Elementwise(heaviside(func(x, y float64) bool { return x > y }), x, y)
}

// GreaterEqual returns the 0/1-valued result of x >= y elementwise.
func GreaterEqual(x, y Value) (Value, error) {
	return Elementwise(heaviside(func(x, y float64) bool { return x >= y }), x, y)
}

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
	"github.com/pkg/errors"
)

// MatMul returns the matrix product x @ y. The product of two sparse
// matrices is sparse; a dense operand forces a dense result.
func MatMul(x, y Value) (Value, error) {
	xr, xc := x.Dims()
	yr, yc := y.Dims()
	if xc != yr {
		return nil, errors.Wrapf(ErrShape, "cannot matrix-multiply %dx%d by %dx%d", xr, xc, yr, yc)
	}
	xm, xSparse := x.(*CSR)
	ym, ySparse := y.(*CSR)
	if xSparse && ySparse {
		return matMulCSR(xm, ym), nil
	}
	if xSparse {
		return matMulCSRDense(xm, ToDense(y)), nil
	}
	return matMulDense(ToDense(x), ToDense(y)), nil
}

func matMulDense(x, y *Dense) *Dense {
	z := Zeros(x.Rows, y.Cols)
	for i := 0; i < x.Rows; i++ {
		for k := 0; k < x.Cols; k++ {
			xik := x.At(i, k)
			if xik == 0 {
				continue
			}
			for j := 0; j < y.Cols; j++ {
				z.Data[i*y.Cols+j] += xik * y.At(k, j)
			}
		}
	}
	return z
}

func matMulCSRDense(x *CSR, y *Dense) *Dense {
	z := Zeros(x.Rows, y.Cols)
	for i := 0; i < x.Rows; i++ {
		for k := x.RowPtr[i]; k < x.RowPtr[i+1]; k++ {
			xik := x.Data[k]
			row := x.ColIdx[k]
			for j := 0; j < y.Cols; j++ {
				z.Data[i*y.Cols+j] += xik * y.At(row, j)
			}
		}
	}
	return z
}

// matMulCSR multiplies two sparse matrices with a dense row accumulator.
func matMulCSR(x, y *CSR) *CSR {
	z := &CSR{Rows: x.Rows, Cols: y.Cols, RowPtr: make([]int, x.Rows+1)}
	acc := make([]float64, y.Cols)
	marked := make([]bool, y.Cols)
	for i := 0; i < x.Rows; i++ {
		for k := x.RowPtr[i]; k < x.RowPtr[i+1]; k++ {
			xik := x.Data[k]
			r := x.ColIdx[k]
			for ky := y.RowPtr[r]; ky < y.RowPtr[r+1]; ky++ {
				acc[y.ColIdx[ky]] += xik * y.Data[ky]
				marked[y.ColIdx[ky]] = true
			}
		}
		for j := 0; j < y.Cols; j++ {
			if !marked[j] {
				continue
			}
			if acc[j] != 0 {
				z.ColIdx = append(z.ColIdx, j)
				z.Data = append(z.Data, acc[j])
			}
			acc[j] = 0
			marked[j] = false
		}
		z.RowPtr[i+1] = len(z.Data)
	}
	return z
}

// RowScale multiplies (or, with divide set, divides) every row i of the
// matrix m by the vector entry v[i]. This is the matrix absorbed when an
// elementwise product against a matrix-vector result is folded into the
// matrix factor.
func RowScale(m Value, v *Dense, divide bool) (Value, error) {
	rows, cols := m.Dims()
	if v.Cols != 1 || v.Rows != rows {
		return nil, errors.Wrapf(ErrShape, "cannot row-scale %dx%d matrix by %dx%d vector",
			rows, cols, v.Rows, v.Cols)
	}
	scale := func(i int, x float64) float64 {
		if divide {
			return x / v.Data[i]
		}
		return x * v.Data[i]
	}
	switch m := m.(type) {
	case *Dense:
		z := Zeros(m.Rows, m.Cols)
		for i := 0; i < m.Rows; i++ {
			for j := 0; j < m.Cols; j++ {
				z.Data[i*m.Cols+j] = scale(i, m.At(i, j))
			}
		}
		return z, nil
	case *CSR:
		data := make([]float64, len(m.Data))
		for i := 0; i < m.Rows; i++ {
			for k := m.RowPtr[i]; k < m.RowPtr[i+1]; k++ {
				data[k] = scale(i, m.Data[k])
			}
		}
		return &CSR{Rows: m.Rows, Cols: m.Cols, RowPtr: m.RowPtr, ColIdx: m.ColIdx, Data: data}, nil
	}
	return nil, errors.Wrapf(ErrShape, "cannot row-scale a scalar")
}

// Concat stacks values vertically into one dense array. All operands must
// have the same number of columns; scalars count as 1x1.
func Concat(values ...Value) (Value, error) {
	if len(values) == 0 {
		return nil, errors.Wrap(ErrShape, "cannot concatenate zero arrays")
	}
	_, cols := values[0].Dims()
	rows := 0
	for _, v := range values {
		vr, vc := v.Dims()
		if vc != cols {
			return nil, errors.Wrapf(ErrShape, "cannot concatenate arrays with %d and %d columns", cols, vc)
		}
		rows += vr
	}
	z := Zeros(rows, cols)
	at := 0
	for _, v := range values {
		d := ToDense(v)
		copy(z.Data[at:], d.Data)
		at += len(d.Data)
	}
	return z, nil
}

// SparseStack stacks matrices vertically into one sparse matrix. Dense
// operands are converted.
func SparseStack(values ...Value) (Value, error) {
	if len(values) == 0 {
		return nil, errors.Wrap(ErrShape, "cannot stack zero matrices")
	}
	_, cols := values[0].Dims()
	z := &CSR{Cols: cols, RowPtr: []int{0}}
	for _, v := range values {
		vr, vc := v.Dims()
		if vc != cols {
			return nil, errors.Wrapf(ErrShape, "cannot stack matrices with %d and %d columns", cols, vc)
		}
		var m *CSR
		if vm, ok := v.(*CSR); ok {
			m = vm
		} else {
			m = CSRFromDense(ToDense(v))
		}
		base := len(z.Data)
		z.ColIdx = append(z.ColIdx, m.ColIdx...)
		z.Data = append(z.Data, m.Data...)
		for i := 1; i <= vr; i++ {
			z.RowPtr = append(z.RowPtr, base+m.RowPtr[i])
		}
		z.Rows += vr
	}
	return z, nil
}

// IndexAt returns the single entry at row i of a column vector (or of a
// scalar, for i == 0).
func IndexAt(v Value, i int) (Scalar, error) {
	rows, cols := v.Dims()
	if cols != 1 || i < 0 || i >= rows {
		return 0, errors.Wrapf(ErrShape, "index %d out of range for %dx%d value", i, rows, cols)
	}
	switch v := v.(type) {
	case Scalar:
		return v, nil
	case *CSR:
		if v.RowPtr[i] < v.RowPtr[i+1] {
			return Scalar(v.Data[v.RowPtr[i]]), nil
		}
		return 0, nil
	}
	return Scalar(ToDense(v).Data[i]), nil
}

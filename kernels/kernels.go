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

// Package kernels implements the numeric values produced by evaluating an
// expression graph, and the kernels combining them: broadcasting elementwise
// operations, dense and sparse matrix products, concatenation and stacking.
//
// Three value representations exist: Scalar, Dense (row-major, column
// vectors have Cols==1) and CSR (compressed sparse row). Kernels keep sparse
// operands sparse unless a dense operand forces densification.
package kernels

import (
	"github.com/pkg/errors"
)

// ErrShape is wrapped by every shape-mismatch error from this package.
var ErrShape = errors.New("shape error")

// Value is a numeric value: a Scalar, a *Dense array or a *CSR sparse
// matrix.
type Value interface {
	// Dims returns the number of rows and columns. Scalars are 1x1.
	Dims() (rows, cols int)

	value()
}

// Scalar is a single float value.
type Scalar float64

// Dims returns 1, 1.
func (Scalar) Dims() (int, int) { return 1, 1 }

func (Scalar) value() {}

// Dense is a dense row-major array. Vectors are stored as single-column
// matrices.
type Dense struct {
	Rows, Cols int
	Data       []float64
}

// NewDense returns a dense rows x cols array backed by data. data must hold
// rows*cols values.
func NewDense(rows, cols int, data []float64) *Dense {
	if len(data) != rows*cols {
		panic(errors.Errorf("dense %dx%d needs %d values, got %d", rows, cols, rows*cols, len(data)))
	}
	return &Dense{Rows: rows, Cols: cols, Data: data}
}

// NewVector returns a column vector holding data.
func NewVector(data []float64) *Dense {
	return NewDense(len(data), 1, data)
}

// Zeros returns a dense rows x cols array of zeros.
func Zeros(rows, cols int) *Dense {
	return &Dense{Rows: rows, Cols: cols, Data: make([]float64, rows*cols)}
}

// Dims returns the array dimensions.
func (d *Dense) Dims() (int, int) { return d.Rows, d.Cols }

// At returns the element at row i, column j.
func (d *Dense) At(i, j int) float64 { return d.Data[i*d.Cols+j] }

func (*Dense) value() {}

// CSR is a sparse matrix in compressed sparse row form: RowPtr has Rows+1
// entries and row i's non-zeros live at positions RowPtr[i]:RowPtr[i+1] of
// ColIdx and Data.
type CSR struct {
	Rows, Cols int
	RowPtr     []int
	ColIdx     []int
	Data       []float64
}

// Dims returns the matrix dimensions.
func (m *CSR) Dims() (int, int) { return m.Rows, m.Cols }

func (*CSR) value() {}

// NewCSR builds a sparse matrix from coordinate triples. Triples must be
// sorted by row then column, with no duplicates.
func NewCSR(rows, cols int, rowIdx, colIdx []int, data []float64) *CSR {
	rowPtr := make([]int, rows+1)
	for _, i := range rowIdx {
		rowPtr[i+1]++
	}
	for i := 0; i < rows; i++ {
		rowPtr[i+1] += rowPtr[i]
	}
	return &CSR{Rows: rows, Cols: cols, RowPtr: rowPtr, ColIdx: colIdx, Data: data}
}

// CSRFromDense converts a dense array to sparse form, dropping zeros.
func CSRFromDense(d *Dense) *CSR {
	m := &CSR{Rows: d.Rows, Cols: d.Cols, RowPtr: make([]int, d.Rows+1)}
	for i := 0; i < d.Rows; i++ {
		for j := 0; j < d.Cols; j++ {
			if v := d.At(i, j); v != 0 {
				m.ColIdx = append(m.ColIdx, j)
				m.Data = append(m.Data, v)
			}
		}
		m.RowPtr[i+1] = len(m.Data)
	}
	return m
}

// ToDense converts the sparse matrix to dense form.
func (m *CSR) ToDense() *Dense {
	d := Zeros(m.Rows, m.Cols)
	for i := 0; i < m.Rows; i++ {
		for k := m.RowPtr[i]; k < m.RowPtr[i+1]; k++ {
			d.Data[i*m.Cols+m.ColIdx[k]] = m.Data[k]
		}
	}
	return d
}

// ToDense returns the value in dense form, converting sparse matrices and
// wrapping scalars as 1x1 arrays.
func ToDense(v Value) *Dense {
	switch v := v.(type) {
	case Scalar:
		return NewDense(1, 1, []float64{float64(v)})
	case *Dense:
		return v
	case *CSR:
		return v.ToDense()
	}
	panic(errors.Errorf("unknown value type %T", v))
}

// Flatten returns the value's entries as a flat slice in row-major order.
func Flatten(v Value) []float64 {
	return ToDense(v).Data
}

// IsZero reports whether every entry of the value is zero.
func IsZero(v Value) bool {
	switch v := v.(type) {
	case Scalar:
		return v == 0
	case *Dense:
		for _, x := range v.Data {
			if x != 0 {
				return false
			}
		}
		return true
	case *CSR:
		for _, x := range v.Data {
			if x != 0 {
				return false
			}
		}
		return true
	}
	return false
}

// IsOne reports whether every entry of the value is one. A sparse matrix of
// ones would be fully dense, so only scalar and dense forms qualify.
func IsOne(v Value) bool {
	switch v := v.(type) {
	case Scalar:
		return v == 1
	case *Dense:
		for _, x := range v.Data {
			if x != 1 {
				return false
			}
		}
		return true
	}
	return false
}

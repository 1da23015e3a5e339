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

package kernels_test

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"

	"github.com/daex-org/daex/kernels"
)

func diag(t *testing.T, entries ...float64) *kernels.CSR {
	t.Helper()
	n := len(entries)
	rowIdx := make([]int, n)
	colIdx := make([]int, n)
	for i := range entries {
		rowIdx[i] = i
		colIdx[i] = i
	}
	return kernels.NewCSR(n, n, rowIdx, colIdx, entries)
}

func TestElementwiseBroadcast(t *testing.T) {
	tests := []struct {
		name string
		op   func(x, y kernels.Value) (kernels.Value, error)
		x, y kernels.Value
		want []float64
	}{
		{
			name: "scalar-scalar add",
			op:   kernels.Add,
			x:    kernels.Scalar(2), y: kernels.Scalar(3),
			want: []float64{5},
		},
		{
			name: "scalar broadcasts over vector",
			op:   kernels.Mul,
			x:    kernels.Scalar(2), y: kernels.NewVector([]float64{1, 2, 3}),
			want: []float64{2, 4, 6},
		},
		{
			name: "vector against scalar",
			op:   kernels.Sub,
			x:    kernels.NewVector([]float64{5, 6}), y: kernels.Scalar(1),
			want: []float64{4, 5},
		},
		{
			name: "equal-shaped vectors",
			op:   kernels.Div,
			x:    kernels.NewVector([]float64{4, 9}), y: kernels.NewVector([]float64{2, 3}),
			want: []float64{2, 3},
		},
		{
			name: "pow",
			op:   kernels.Pow,
			x:    kernels.NewVector([]float64{2, 3}), y: kernels.Scalar(2),
			want: []float64{4, 9},
		},
		{
			name: "elementwise minimum",
			op:   kernels.Minimum,
			x:    kernels.NewVector([]float64{1, 5}), y: kernels.NewVector([]float64{3, 2}),
			want: []float64{1, 2},
		},
		{
			name: "elementwise maximum",
			op:   kernels.Maximum,
			x:    kernels.NewVector([]float64{1, 5}), y: kernels.NewVector([]float64{3, 2}),
			want: []float64{3, 5},
		},
		{
			name: "less-equal is 0/1 valued",
			op:   kernels.LessEqual,
			x:    kernels.NewVector([]float64{1, 2}), y: kernels.NewVector([]float64{2, 1}),
			want: []float64{1, 0},
		},
		{
			name: "greater",
			op:   kernels.Greater,
			x:    kernels.Scalar(2), y: kernels.NewVector([]float64{1, 3}),
			want: []float64{1, 0},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := test.op(test.x, test.y)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(test.want, kernels.Flatten(got)); diff != "" {
				t.Errorf("result mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestElementwiseShapeMismatch(t *testing.T) {
	_, err := kernels.Add(kernels.NewVector([]float64{1, 2}), kernels.NewVector([]float64{1, 2, 3}))
	if !errors.Is(err, kernels.ErrShape) {
		t.Errorf("got error %v but want a shape error", err)
	}
}

func TestSparseElementwiseStaysSparse(t *testing.T) {
	x := diag(t, 1, 2)
	y := diag(t, 3, 4)
	got, err := kernels.Add(x, y)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := got.(*kernels.CSR); !ok {
		t.Fatalf("sum of two sparse matrices has type %T but want *CSR", got)
	}
	if diff := cmp.Diff([]float64{4, 0, 0, 6}, kernels.Flatten(got)); diff != "" {
		t.Errorf("sum mismatch (-want +got):\n%s", diff)
	}

	scaled, err := kernels.Mul(x, kernels.Scalar(3))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := scaled.(*kernels.CSR); !ok {
		t.Fatalf("scalar-scaled sparse matrix has type %T but want *CSR", scaled)
	}
	if diff := cmp.Diff([]float64{3, 0, 0, 6}, kernels.Flatten(scaled)); diff != "" {
		t.Errorf("scaling mismatch (-want +got):\n%s", diff)
	}
}

func TestSparseUnionMerge(t *testing.T) {
	// Patterns only partially overlap: the merge walks the union.
	x := kernels.NewCSR(2, 2, []int{0, 1}, []int{0, 1}, []float64{1, 2})
	y := kernels.NewCSR(2, 2, []int{0, 1}, []int{1, 1}, []float64{5, 7})
	got, err := kernels.Sub(x, y)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]float64{1, -5, 0, -5}, kernels.Flatten(got)); diff != "" {
		t.Errorf("difference mismatch (-want +got):\n%s", diff)
	}
}

func TestMatMul(t *testing.T) {
	a := kernels.NewDense(2, 2, []float64{1, 2, 3, 4})
	v := kernels.NewVector([]float64{5, 6})
	tests := []struct {
		name string
		x, y kernels.Value
		want []float64
	}{
		{name: "dense by vector", x: a, y: v, want: []float64{17, 39}},
		{name: "sparse by vector", x: diag(t, 2, 3), y: v, want: []float64{10, 18}},
		{
			name: "dense by dense",
			x:    a, y: kernels.NewDense(2, 2, []float64{1, 0, 0, 2}),
			want: []float64{1, 4, 3, 8},
		},
		{
			name: "sparse by sparse",
			x:    diag(t, 2, 3), y: diag(t, 4, 5),
			want: []float64{8, 0, 0, 15},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := kernels.MatMul(test.x, test.y)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(test.want, kernels.Flatten(got)); diff != "" {
				t.Errorf("product mismatch (-want +got):\n%s", diff)
			}
		})
	}

	if got, err := kernels.MatMul(diag(t, 1, 2), diag(t, 3, 4)); err != nil {
		t.Fatal(err)
	} else if _, ok := got.(*kernels.CSR); !ok {
		t.Errorf("product of two sparse matrices has type %T but want *CSR", got)
	}

	if _, err := kernels.MatMul(a, kernels.NewDense(3, 1, []float64{1, 2, 3})); !errors.Is(err, kernels.ErrShape) {
		t.Errorf("got error %v for 2x2 @ 3x1 but want a shape error", err)
	}
}

func TestRowScale(t *testing.T) {
	m := kernels.NewDense(2, 2, []float64{1, 2, 3, 4})
	v := kernels.NewVector([]float64{2, 10})
	got, err := kernels.RowScale(m, v, false)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]float64{2, 4, 30, 40}, kernels.Flatten(got)); diff != "" {
		t.Errorf("row scaling mismatch (-want +got):\n%s", diff)
	}

	sp, err := kernels.RowScale(diag(t, 4, 20), v, true)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := sp.(*kernels.CSR); !ok {
		t.Fatalf("row-scaled sparse matrix has type %T but want *CSR", sp)
	}
	if diff := cmp.Diff([]float64{2, 0, 0, 2}, kernels.Flatten(sp)); diff != "" {
		t.Errorf("row division mismatch (-want +got):\n%s", diff)
	}

	if _, err := kernels.RowScale(m, kernels.NewVector([]float64{1, 2, 3}), false); !errors.Is(err, kernels.ErrShape) {
		t.Errorf("got error %v for mismatched vector but want a shape error", err)
	}
}

func TestConcatAndStack(t *testing.T) {
	got, err := kernels.Concat(
		kernels.NewVector([]float64{1, 2}),
		kernels.Scalar(3),
		kernels.NewVector([]float64{4}),
	)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]float64{1, 2, 3, 4}, kernels.Flatten(got)); diff != "" {
		t.Errorf("concatenation mismatch (-want +got):\n%s", diff)
	}

	st, err := kernels.SparseStack(diag(t, 1, 2), kernels.NewDense(1, 2, []float64{5, 6}))
	if err != nil {
		t.Fatal(err)
	}
	sm, ok := st.(*kernels.CSR)
	if !ok {
		t.Fatalf("stack has type %T but want *CSR", st)
	}
	if sm.Rows != 3 || sm.Cols != 2 {
		t.Fatalf("stack is %dx%d but want 3x2", sm.Rows, sm.Cols)
	}
	if diff := cmp.Diff([]float64{1, 0, 0, 2, 5, 6}, kernels.Flatten(st)); diff != "" {
		t.Errorf("stack mismatch (-want +got):\n%s", diff)
	}

	if _, err := kernels.Concat(kernels.NewVector([]float64{1}), kernels.NewDense(1, 2, []float64{1, 2})); !errors.Is(err, kernels.ErrShape) {
		t.Errorf("got error %v for mixed column counts but want a shape error", err)
	}
}

func TestUnary(t *testing.T) {
	v := kernels.NewVector([]float64{1, 4, 9})
	if diff := cmp.Diff([]float64{1, 2, 3}, kernels.Flatten(kernels.Apply(math.Sqrt, v))); diff != "" {
		t.Errorf("sqrt mismatch (-want +got):\n%s", diff)
	}
	neg := kernels.Neg(diag(t, 1, 2))
	if _, ok := neg.(*kernels.CSR); !ok {
		t.Fatalf("negated sparse matrix has type %T but want *CSR", neg)
	}
	if diff := cmp.Diff([]float64{-1, 0, 0, -2}, kernels.Flatten(neg)); diff != "" {
		t.Errorf("negation mismatch (-want +got):\n%s", diff)
	}
	if got := kernels.Min(v); got != 1 {
		t.Errorf("min is %v but want 1", got)
	}
	if got := kernels.Max(v); got != 9 {
		t.Errorf("max is %v but want 9", got)
	}
}

func TestIndexAt(t *testing.T) {
	v := kernels.NewVector([]float64{7, 8, 9})
	got, err := kernels.IndexAt(v, 1)
	if err != nil {
		t.Fatal(err)
	}
	if got != 8 {
		t.Errorf("v[1] is %v but want 8", got)
	}
	if _, err := kernels.IndexAt(v, 3); !errors.Is(err, kernels.ErrShape) {
		t.Errorf("got error %v for an out-of-range index but want a shape error", err)
	}
}

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

package interp_test

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/pkg/errors"

	"github.com/daex-org/daex/expr"
	"github.com/daex-org/daex/interp"
	"github.com/daex-org/daex/kernels"
)

func slice(t *testing.T, start, stop int) *expr.StateVector {
	t.Helper()
	sv, err := expr.NewStateSlice(start, stop)
	if err != nil {
		t.Fatal(err)
	}
	return sv
}

func binary(t *testing.T, op func(l, r expr.Node) (*expr.Binary, error), l, r expr.Node) expr.Node {
	t.Helper()
	n, err := op(l, r)
	if err != nil {
		t.Fatal(err)
	}
	return n
}

func evaluate(t *testing.T, n expr.Node, tv float64, y []float64, inputs interp.Inputs) []float64 {
	t.Helper()
	v, err := interp.Evaluate(n, tv, y, inputs)
	if err != nil {
		t.Fatal(err)
	}
	return kernels.Flatten(v)
}

func TestEvaluateArithmetic(t *testing.T) {
	a := slice(t, 0, 1)
	b := slice(t, 1, 2)
	y := []float64{2, 3}

	tests := []struct {
		name string
		node expr.Node
		want []float64
	}{
		{name: "product", node: binary(t, expr.Mul, a, b), want: []float64{6}},
		{name: "difference", node: binary(t, expr.Sub, b, a), want: []float64{1}},
		{name: "quotient", node: binary(t, expr.Div, b, a), want: []float64{1.5}},
		{name: "power", node: binary(t, expr.Pow, a, b), want: []float64{8}},
		{
			name: "negation",
			node: expr.Neg(binary(t, expr.Add, a, b)),
			want: []float64{-5},
		},
		{
			name: "inner is elementwise",
			node: binary(t, expr.Inner, slice(t, 0, 2), slice(t, 0, 2)),
			want: []float64{4, 9},
		},
		{
			name: "heaviside",
			node: binary(t, expr.LessEqual, expr.NewVector([]float64{2, 4}), slice(t, 0, 2)),
			want: []float64{1, 0},
		},
		{
			name: "elementwise maximum",
			node: binary(t, expr.Maximum, expr.NewVector([]float64{1, 5}), slice(t, 0, 2)),
			want: []float64{2, 5},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if diff := cmp.Diff(test.want, evaluate(t, test.node, 0, y, nil)); diff != "" {
				t.Errorf("result mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEvaluateTime(t *testing.T) {
	n := binary(t, expr.Mul, slice(t, 0, 1), expr.NewTime())
	if got := evaluate(t, n, 3, []float64{2}, nil); got[0] != 6 {
		t.Errorf("a*t at t=3, y=[2] is %v but want 6", got[0])
	}
}

func TestEvaluateParameters(t *testing.T) {
	n := binary(t, expr.Add, expr.NewParameter("D"), expr.NewInputParameter("I"))
	got := evaluate(t, n, 0, nil, interp.Inputs{"D": 2, "I": 5})
	if got[0] != 7 {
		t.Errorf("D+I is %v but want 7", got[0])
	}
	if _, err := interp.Evaluate(n, 0, nil, interp.Inputs{"D": 2}); !errors.Is(err, expr.ErrUnresolvedParameter) {
		t.Errorf("got error %v for a missing binding but want an unresolved-parameter error", err)
	}
}

func TestEvaluateStateVector(t *testing.T) {
	sv, err := expr.NewStateVector([]expr.YSlice{{Start: 0, Stop: 2}, {Start: 3, Stop: 4}})
	if err != nil {
		t.Fatal(err)
	}
	got := evaluate(t, sv, 0, []float64{10, 11, 12, 13}, nil)
	if diff := cmp.Diff([]float64{10, 11, 13}, got); diff != "" {
		t.Errorf("slices mismatch (-want +got):\n%s", diff)
	}
	if _, err := interp.Evaluate(sv, 0, []float64{10, 11}, nil); !errors.Is(err, expr.ErrShape) {
		t.Errorf("got error %v for a short state array but want a shape error", err)
	}
}

func TestEvaluateMatMulChain(t *testing.T) {
	a := expr.NewDenseMatrix(2, 2, []float64{1, 2, 3, 4})
	bm, err := expr.NewMatrix(kernels.NewCSR(2, 2, []int{0, 1}, []int{0, 1}, []float64{1, 4}))
	if err != nil {
		t.Fatal(err)
	}
	v := slice(t, 0, 2)
	n := binary(t, expr.MatMul, a, binary(t, expr.MatMul, bm, v))
	got := evaluate(t, n, 0, []float64{2, 3}, nil)
	// [[1,2],[3,4]] @ [[1,0],[0,4]] @ [2,3] = [[1,2],[3,4]] @ [2,12]
	if diff := cmp.Diff([]float64{26, 54}, got); diff != "" {
		t.Errorf("chain mismatch (-want +got):\n%s", diff)
	}
}

func TestEvaluateFunctions(t *testing.T) {
	v := slice(t, 0, 2)
	cos, err := expr.NewFunction(expr.FuncCos, v)
	if err != nil {
		t.Fatal(err)
	}
	got := evaluate(t, cos, 0, []float64{0, math.Pi}, nil)
	if diff := cmp.Diff([]float64{1, -1}, got, cmpopts.EquateApprox(0, 1e-15)); diff != "" {
		t.Errorf("cos mismatch (-want +got):\n%s", diff)
	}

	min, err := expr.NewFunction(expr.FuncMin, v)
	if err != nil {
		t.Fatal(err)
	}
	if got := evaluate(t, min, 0, []float64{4, -2}, nil); got[0] != -2 {
		t.Errorf("min reduction is %v but want -2", got[0])
	}
}

func TestEvaluateConcatenations(t *testing.T) {
	flat, err := expr.NewFlatConcatenation(slice(t, 0, 2), expr.NewVector([]float64{9}))
	if err != nil {
		t.Fatal(err)
	}
	got := evaluate(t, flat, 0, []float64{1, 2}, nil)
	if diff := cmp.Diff([]float64{1, 2, 9}, got); diff != "" {
		t.Errorf("flat concatenation mismatch (-want +got):\n%s", diff)
	}

	stack, err := expr.NewSparseStack(
		expr.NewDenseMatrix(1, 2, []float64{1, 0}),
		expr.NewDenseMatrix(2, 2, []float64{0, 2, 3, 0}),
	)
	if err != nil {
		t.Fatal(err)
	}
	v, err := interp.Evaluate(stack, 0, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := v.(*kernels.CSR); !ok {
		t.Fatalf("stack evaluates to %T but want *CSR", v)
	}
	if diff := cmp.Diff([]float64{1, 0, 0, 2, 3, 0}, kernels.Flatten(v)); diff != "" {
		t.Errorf("stack mismatch (-want +got):\n%s", diff)
	}
}

func TestEvaluateIndex(t *testing.T) {
	idx, err := expr.NewIndex(slice(t, 0, 3), 1)
	if err != nil {
		t.Fatal(err)
	}
	if got := evaluate(t, idx, 0, []float64{5, 6, 7}, nil); got[0] != 6 {
		t.Errorf("index is %v but want 6", got[0])
	}
}

func TestEvaluateUnresolvedNodes(t *testing.T) {
	v := expr.NewVariable("c", expr.WithDomain(expr.OnDomain("separator")))
	g, err := expr.NewGradient(v)
	if err != nil {
		t.Fatal(err)
	}
	for _, n := range []expr.Node{v, expr.NewVariableDot("c"), expr.NewSymbol("s"), g,
		expr.NewFunctionParameter("D", expr.NewParameter("c"))} {
		if _, err := interp.Evaluate(n, 0, nil, nil); !errors.Is(err, expr.ErrNotImplemented) {
			t.Errorf("got error %v evaluating %s but want a not-implemented error", err, n)
		}
	}
}

func TestEvaluateSharedSubtree(t *testing.T) {
	// The same node referenced twice evaluates consistently through the memo.
	sq := binary(t, expr.Mul, slice(t, 0, 1), slice(t, 0, 1))
	n := binary(t, expr.Add, sq, sq)
	if got := evaluate(t, n, 0, []float64{3}, nil); got[0] != 18 {
		t.Errorf("x^2 + x^2 at x=3 is %v but want 18", got[0])
	}
}

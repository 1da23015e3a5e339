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

package expr_test

import (
	"testing"

	"github.com/pkg/errors"

	"github.com/daex-org/daex/expr"
	"github.com/daex-org/daex/kernels"
	"github.com/daex-org/daex/units"
)

func mustSlice(t *testing.T, start, stop int, opts ...expr.Option) *expr.StateVector {
	t.Helper()
	sv, err := expr.NewStateSlice(start, stop, opts...)
	if err != nil {
		t.Fatal(err)
	}
	return sv
}

func TestStructuralID(t *testing.T) {
	a1 := expr.NewParameter("A")
	a2 := expr.NewParameter("A")
	b := expr.NewParameter("B")
	if a1.ID() != a2.ID() {
		t.Errorf("two Parameter(A) leaves have ids %d and %d but want equal ids", a1.ID(), a2.ID())
	}
	if a1.ID() == b.ID() {
		t.Error("Parameter(A) and Parameter(B) share an id")
	}

	s1, err := expr.Add(a1, b)
	if err != nil {
		t.Fatal(err)
	}
	s2, err := expr.Add(a2, b)
	if err != nil {
		t.Fatal(err)
	}
	if s1.ID() != s2.ID() {
		t.Error("structurally equal sums have distinct ids")
	}
	d, err := expr.Sub(a1, b)
	if err != nil {
		t.Fatal(err)
	}
	if s1.ID() == d.ID() {
		t.Error("a sum and a difference over the same children share an id")
	}
	if expr.NewScalar(1).ID() == expr.NewScalar(2).ID() {
		t.Error("distinct scalar literals share an id")
	}
	withUnits := expr.NewScalar(1, expr.WithUnits(units.MustParse("[m]")))
	if expr.NewScalar(1).ID() == withUnits.ID() {
		t.Error("a dimensionless literal and a dimensioned literal share an id")
	}
	onDomain := expr.NewScalar(1, expr.WithDomain(expr.OnDomain("negative electrode")))
	if expr.NewScalar(1).ID() == onDomain.ID() {
		t.Error("a region-free literal and a domained literal share an id")
	}
}

func TestBinaryUnits(t *testing.T) {
	metre := expr.WithUnits(units.MustParse("[m]"))
	second := expr.WithUnits(units.MustParse("[s]"))
	x := expr.NewParameter("x", metre)
	y := expr.NewParameter("y", second)

	if _, err := expr.Add(x, y); !errors.Is(err, units.Err) {
		t.Errorf("got error %v adding [m] to [s] but want a units error", err)
	}
	p, err := expr.Mul(x, y)
	if err != nil {
		t.Fatal(err)
	}
	if got := p.Units().String(); got != "[m.s]" {
		t.Errorf("product units are %s but want [m.s]", got)
	}
	q, err := expr.Div(x, y)
	if err != nil {
		t.Fatal(err)
	}
	if got := q.Units().String(); got != "[m.s-1]" {
		t.Errorf("quotient units are %s but want [m.s-1]", got)
	}

	sq, err := expr.Pow(x, expr.NewScalar(2))
	if err != nil {
		t.Fatal(err)
	}
	if got := sq.Units().String(); got != "[m2]" {
		t.Errorf("square units are %s but want [m2]", got)
	}
	if _, err := expr.Pow(x, expr.NewScalar(0.5)); !errors.Is(err, units.Err) {
		t.Errorf("got error %v raising [m] to 0.5 but want a units error", err)
	}
	if _, err := expr.Pow(x, expr.NewParameter("n")); !errors.Is(err, units.Err) {
		t.Errorf("got error %v raising [m] to a symbolic power but want a units error", err)
	}

	// Comparisons produce unitless 0/1 arrays whatever the operands carry.
	lt, err := expr.Less(x, expr.NewParameter("z", metre))
	if err != nil {
		t.Fatal(err)
	}
	if !lt.Units().IsDimensionless() {
		t.Errorf("comparison units are %s but want dimensionless", lt.Units())
	}

	// A dimensionless literal broadcasts into minimum/maximum.
	if _, err := expr.Minimum(x, expr.NewScalar(0)); err != nil {
		t.Errorf("minimum against a plain literal fails: %v", err)
	}
	if _, err := expr.Minimum(x, y); !errors.Is(err, units.Err) {
		t.Errorf("got error %v for minimum of [m] and [s] but want a units error", err)
	}
}

func TestBinaryDomains(t *testing.T) {
	neg := expr.NewParameter("a", expr.WithDomain(expr.OnDomain("negative electrode")))
	pos := expr.NewParameter("b", expr.WithDomain(expr.OnDomain("positive electrode")))
	free := expr.NewParameter("c")

	if _, err := expr.Add(neg, pos); !errors.Is(err, expr.ErrDomain) {
		t.Errorf("got error %v combining distinct domains but want a domain error", err)
	}
	sum, err := expr.Add(neg, free)
	if err != nil {
		t.Fatal(err)
	}
	if !sum.Domain().Equal(neg.Domain()) {
		t.Errorf("sum domain is %s but want %s", sum.Domain(), neg.Domain())
	}
}

func TestBinaryShapes(t *testing.T) {
	v2 := mustSlice(t, 0, 2)
	v3 := mustSlice(t, 0, 3)
	if _, err := expr.Add(v2, v3); !errors.Is(err, expr.ErrShape) {
		t.Errorf("got error %v adding 2x1 to 3x1 but want a shape error", err)
	}

	sum, err := expr.Add(expr.NewScalar(1), v2)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Shape() != (expr.Shape{Rows: 2, Cols: 1}) {
		t.Errorf("scalar+vector shape is %v but want 2x1", sum.Shape())
	}

	m := expr.NewDenseMatrix(2, 3, []float64{1, 2, 3, 4, 5, 6})
	mm, err := expr.MatMul(m, v3)
	if err != nil {
		t.Fatal(err)
	}
	if mm.Shape() != (expr.Shape{Rows: 2, Cols: 1}) {
		t.Errorf("2x3 @ 3x1 shape is %v but want 2x1", mm.Shape())
	}
	if _, err := expr.MatMul(m, v2); !errors.Is(err, expr.ErrShape) {
		t.Errorf("got error %v for 2x3 @ 2x1 but want a shape error", err)
	}
}

func TestDivisionByLiteralZero(t *testing.T) {
	if _, err := expr.Div(expr.NewParameter("a"), expr.NewScalar(0)); !errors.Is(err, expr.ErrZeroDivision) {
		t.Errorf("got error %v dividing by a literal zero but want a zero-division error", err)
	}
}

func TestFunctionUnits(t *testing.T) {
	if _, err := expr.NewFunction(expr.FuncCos, expr.NewParameter("x", expr.WithUnits(units.MustParse("[m]")))); !errors.Is(err, units.Err) {
		t.Errorf("got error %v applying cos to [m] but want a units error", err)
	}
	f, err := expr.NewFunction(expr.FuncMin, mustSlice(t, 0, 4, expr.WithDomain(expr.OnDomain("separator"))))
	if err != nil {
		t.Fatal(err)
	}
	if !f.Shape().IsScalar() {
		t.Errorf("min reduction shape is %v but want scalar", f.Shape())
	}
	if !f.Domain().IsEmpty() {
		t.Errorf("min reduction domain is %s but want empty", f.Domain())
	}
}

func TestStateVector(t *testing.T) {
	if _, err := expr.NewStateSlice(2, 2); !errors.Is(err, expr.ErrShape) {
		t.Errorf("got error %v for an empty slice but want a shape error", err)
	}
	sv, err := expr.NewStateVector([]expr.YSlice{{Start: 0, Stop: 2}, {Start: 4, Stop: 7}})
	if err != nil {
		t.Fatal(err)
	}
	if sv.Shape() != (expr.Shape{Rows: 5, Cols: 1}) {
		t.Errorf("state vector shape is %v but want 5x1", sv.Shape())
	}
	if got := sv.String(); got != "y[0:2]++y[4:7]" {
		t.Errorf("state vector renders as %q", got)
	}
}

func TestSpatialOperators(t *testing.T) {
	free := expr.NewVariable("c")
	if _, err := expr.NewGradient(free); !errors.Is(err, expr.ErrDomain) {
		t.Errorf("got error %v for a gradient without a domain but want a domain error", err)
	}
	v := expr.NewVariable("c", expr.WithDomain(expr.OnDomain("separator")))
	g, err := expr.NewGradient(v)
	if err != nil {
		t.Fatal(err)
	}
	if got := g.String(); got != "grad(c)" {
		t.Errorf("gradient renders as %q", got)
	}
	bv := expr.NewBoundaryValue(v, "left")
	if !bv.Domain().IsEmpty() {
		t.Errorf("boundary value domain is %s but want empty", bv.Domain())
	}
}

func TestConcatenation(t *testing.T) {
	neg := expr.NewVariable("c_n", expr.WithDomain(expr.OnDomain("negative electrode")))
	sep := expr.NewVariable("c_s", expr.WithDomain(expr.OnDomain("separator")))

	c, err := expr.NewConcatenation(neg, sep)
	if err != nil {
		t.Fatal(err)
	}
	want := expr.OnDomain("negative electrode", "separator")
	if !c.Domain().Equal(want) {
		t.Errorf("concatenation domain is %s but want %s", c.Domain(), want)
	}

	if _, err := expr.NewConcatenation(neg, neg); !errors.Is(err, expr.ErrDomain) {
		t.Errorf("got error %v for a repeated domain but want a domain error", err)
	}
	if _, err := expr.NewConcatenation(neg, expr.NewVariable("c")); !errors.Is(err, expr.ErrDomain) {
		t.Errorf("got error %v for a region-free child but want a domain error", err)
	}

	volt := expr.WithUnits(units.MustParse("[V]"))
	if _, err := expr.NewConcatenation(neg, expr.NewVariable("phi", volt, expr.WithDomain(expr.OnDomain("separator")))); !errors.Is(err, units.Err) {
		t.Errorf("got error %v for mixed units but want a units error", err)
	}
}

func TestDomainConcatenation(t *testing.T) {
	neg := mustSlice(t, 0, 2, expr.WithDomain(expr.OnDomain("negative electrode")))
	sep := mustSlice(t, 2, 5, expr.WithDomain(expr.OnDomain("separator")))
	dc, err := expr.NewDomainConcatenation([]expr.Node{neg, sep}, []int{2, 3})
	if err != nil {
		t.Fatal(err)
	}
	if dc.Shape() != (expr.Shape{Rows: 5, Cols: 1}) {
		t.Errorf("domain concatenation shape is %v but want 5x1", dc.Shape())
	}
	if _, err := expr.NewDomainConcatenation([]expr.Node{neg, sep}, []int{2, 4}); !errors.Is(err, expr.ErrShape) {
		t.Errorf("got error %v for a section size mismatch but want a shape error", err)
	}
}

func TestMatrixLiteral(t *testing.T) {
	if _, err := expr.NewMatrix(kernels.Scalar(1)); !errors.Is(err, expr.ErrShape) {
		t.Errorf("got error %v wrapping a scalar as a matrix but want a shape error", err)
	}
	sp, err := expr.NewMatrix(kernels.NewCSR(2, 2, []int{0, 1}, []int{0, 1}, []float64{1, 4}))
	if err != nil {
		t.Fatal(err)
	}
	if !sp.Sparse() {
		t.Error("CSR-backed literal does not report sparse")
	}
	if got := sp.String(); got != "SparseMatrix(2x2)" {
		t.Errorf("sparse literal renders as %q", got)
	}
}

func TestIndexRange(t *testing.T) {
	v := mustSlice(t, 0, 3)
	idx, err := expr.NewIndex(v, 2)
	if err != nil {
		t.Fatal(err)
	}
	if !idx.Shape().IsScalar() {
		t.Errorf("index shape is %v but want scalar", idx.Shape())
	}
	if _, err := expr.NewIndex(v, 3); !errors.Is(err, expr.ErrShape) {
		t.Errorf("got error %v for an out-of-range index but want a shape error", err)
	}
}

func TestStringForms(t *testing.T) {
	a := mustSlice(t, 0, 1)
	b := mustSlice(t, 1, 2)
	mul, err := expr.Mul(a, b)
	if err != nil {
		t.Fatal(err)
	}
	if got := mul.String(); got != "(y[0:1] * y[1:2])" {
		t.Errorf("product renders as %q", got)
	}
	min, err := expr.Minimum(a, b)
	if err != nil {
		t.Fatal(err)
	}
	if got := min.String(); got != "minimum(y[0:1], y[1:2])" {
		t.Errorf("minimum renders as %q", got)
	}
	pow, err := expr.Pow(a, expr.NewScalar(2))
	if err != nil {
		t.Fatal(err)
	}
	if got := pow.String(); got != "(y[0:1] ** 2)" {
		t.Errorf("power renders as %q", got)
	}
}

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

package expr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/daex-org/daex/kernels"
	"github.com/daex-org/daex/units"
)

// Option attaches a domain or units to a leaf node at construction.
type Option func(*symbol)

// WithDomain sets the leaf's spatial domain.
func WithDomain(d Domain) Option {
	return func(s *symbol) { s.domain = d }
}

// WithUnits sets the leaf's dimensional units.
func WithUnits(u units.Units) Option {
	return func(s *symbol) { s.units = u }
}

// Scalar is a constant scalar literal.
type Scalar struct {
	symbol
	Value float64
}

// NewScalar returns a scalar literal.
func NewScalar(v float64, opts ...Option) *Scalar {
	n := &Scalar{Value: v}
	n.kind = KindScalar
	n.shape = ScalarShape
	for _, opt := range opts {
		opt(&n.symbol)
	}
	n.id = hashNode(KindScalar, hashDomainUnits(floatPayload(v), n.domain, n.units))
	return n
}

// String renders the literal value.
func (n *Scalar) String() string {
	return strconv.FormatFloat(n.Value, 'g', -1, 64)
}

// Vector is a constant dense column-vector literal.
type Vector struct {
	symbol
	Values *kernels.Dense
}

// NewVector returns a column-vector literal holding data.
func NewVector(data []float64, opts ...Option) *Vector {
	n := &Vector{Values: kernels.NewVector(append([]float64{}, data...))}
	n.kind = KindVector
	n.shape = Shape{Rows: len(data), Cols: 1}
	for _, opt := range opts {
		opt(&n.symbol)
	}
	payload := append(intPayload(len(data)), floatPayload(data...)...)
	n.id = hashNode(KindVector, hashDomainUnits(payload, n.domain, n.units))
	return n
}

// String renders the vector's length, not its entries.
func (n *Vector) String() string {
	return fmt.Sprintf("Vector(%d)", n.shape.Rows)
}

// Matrix is a constant matrix literal, dense or sparse.
type Matrix struct {
	symbol
	Value kernels.Value
}

// NewMatrix returns a matrix literal from a dense or sparse value.
func NewMatrix(v kernels.Value, opts ...Option) (*Matrix, error) {
	var payload []byte
	switch m := v.(type) {
	case *kernels.Dense:
		payload = append(intPayload(0, m.Rows, m.Cols), floatPayload(m.Data...)...)
	case *kernels.CSR:
		payload = append(intPayload(1, m.Rows, m.Cols), intPayload(m.ColIdx...)...)
		payload = append(payload, intPayload(m.RowPtr...)...)
		payload = append(payload, floatPayload(m.Data...)...)
	default:
		return nil, errors.Wrapf(ErrShape, "matrix literal needs a dense or sparse value, got %T", v)
	}
	n := &Matrix{Value: v}
	n.kind = KindMatrix
	rows, cols := v.Dims()
	n.shape = Shape{Rows: rows, Cols: cols}
	for _, opt := range opts {
		opt(&n.symbol)
	}
	n.id = hashNode(KindMatrix, hashDomainUnits(payload, n.domain, n.units))
	return n, nil
}

// NewDenseMatrix returns a dense matrix literal from row-major data.
func NewDenseMatrix(rows, cols int, data []float64, opts ...Option) *Matrix {
	n, err := NewMatrix(kernels.NewDense(rows, cols, data), opts...)
	if err != nil {
		panic(err)
	}
	return n
}

// Sparse reports whether the literal is stored in sparse form.
func (n *Matrix) Sparse() bool {
	_, ok := n.Value.(*kernels.CSR)
	return ok
}

// String renders the matrix's dimensions.
func (n *Matrix) String() string {
	rows, cols := n.Value.Dims()
	if n.Sparse() {
		return fmt.Sprintf("SparseMatrix(%dx%d)", rows, cols)
	}
	return fmt.Sprintf("Matrix(%dx%d)", rows, cols)
}

// named is the common state of name-carrying leaves.
type named struct {
	symbol
	Name string
}

func newNamed(kind Kind, name string, shape Shape, opts ...Option) named {
	n := named{Name: name}
	n.kind = kind
	n.shape = shape
	for _, opt := range opts {
		opt(&n.symbol)
	}
	n.id = hashNode(kind, hashDomainUnits([]byte(name), n.domain, n.units))
	return n
}

// String renders the leaf's name.
func (n *named) String() string { return n.Name }

// Parameter is a named model parameter, resolved from the input bindings at
// evaluation time.
type Parameter struct{ named }

// NewParameter returns a named parameter leaf.
func NewParameter(name string, opts ...Option) *Parameter {
	return &Parameter{newNamed(KindParameter, name, ScalarShape, opts...)}
}

// InputParameter is a named parameter supplied to the solver per call, by
// position in the compiled routine's parameter array.
type InputParameter struct{ named }

// NewInputParameter returns a named input-parameter leaf.
func NewInputParameter(name string, opts ...Option) *InputParameter {
	return &InputParameter{newNamed(KindInputParameter, name, ScalarShape, opts...)}
}

// Variable is a named state quantity before discretization binds it to a
// slice of the solver state.
type Variable struct{ named }

// NewVariable returns a named variable leaf.
func NewVariable(name string, opts ...Option) *Variable {
	return &Variable{newNamed(KindVariable, name, UnknownShape, opts...)}
}

// VariableDot is the time derivative of a named variable.
type VariableDot struct{ named }

// NewVariableDot returns the time-derivative leaf of the named variable.
func NewVariableDot(name string, opts ...Option) *VariableDot {
	return &VariableDot{newNamed(KindVariableDot, name, UnknownShape, opts...)}
}

// Symbol is an abstract placeholder with no evaluation semantics. Asking to
// evaluate, simplify or compile one fails with ErrNotImplemented.
type Symbol struct{ named }

// NewSymbol returns an abstract placeholder leaf.
func NewSymbol(name string, opts ...Option) *Symbol {
	return &Symbol{newNamed(KindSymbol, name, UnknownShape, opts...)}
}

// Time is the scalar time value passed to every evaluation.
type Time struct{ symbol }

// NewTime returns the time leaf.
func NewTime() *Time {
	n := &Time{}
	n.kind = KindTime
	n.shape = ScalarShape
	n.units = units.MustParse("[s]")
	n.id = hashNode(KindTime, nil)
	return n
}

// String renders the time leaf.
func (n *Time) String() string { return "t" }

// YSlice is a half-open range of the solver's flat state array.
type YSlice struct {
	Start, Stop int
}

func (s YSlice) String() string {
	return fmt.Sprintf("y[%d:%d]", s.Start, s.Stop)
}

// StateVector references one or more slices of the flat state array.
// Disjoint slices evaluate to their concatenation in the stored order.
type StateVector struct {
	symbol
	Slices []YSlice
}

// NewStateVector returns a node referencing the given slices of the state
// array.
func NewStateVector(slices []YSlice, opts ...Option) (*StateVector, error) {
	if len(slices) == 0 {
		return nil, errors.Wrap(ErrShape, "state vector needs at least one slice")
	}
	size := 0
	for _, s := range slices {
		if s.Start < 0 || s.Stop <= s.Start {
			return nil, errors.Wrapf(ErrShape, "invalid state slice %s", s)
		}
		size += s.Stop - s.Start
	}
	n := &StateVector{Slices: append([]YSlice{}, slices...)}
	n.kind = KindStateVector
	n.shape = Shape{Rows: size, Cols: 1}
	for _, opt := range opts {
		opt(&n.symbol)
	}
	var payload []byte
	for _, s := range slices {
		payload = append(payload, intPayload(s.Start, s.Stop)...)
	}
	n.id = hashNode(KindStateVector, hashDomainUnits(payload, n.domain, n.units))
	return n, nil
}

// NewStateSlice returns a StateVector over the single range [start, stop).
func NewStateSlice(start, stop int, opts ...Option) (*StateVector, error) {
	return NewStateVector([]YSlice{{Start: start, Stop: stop}}, opts...)
}

// String renders the referenced slices.
func (n *StateVector) String() string {
	parts := make([]string, len(n.Slices))
	for i, s := range n.Slices {
		parts[i] = s.String()
	}
	return strings.Join(parts, "++")
}

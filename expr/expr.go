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

// Package expr is the symbolic expression graph describing a system of
// differential-algebraic equations.
//
// Nodes are immutable values forming a DAG: a node may be referenced by any
// number of parents and must never be modified after construction. Every
// node carries a spatial domain, a dimensional units vector and a structural
// id derived from its kind and its children's ids, so two nodes with equal
// ids are interchangeable. Units, domains and shapes are validated eagerly
// when nodes combine.
//
// The set of node kinds is closed. Arithmetic and comparison operators share
// the Binary node with an Op tag, as go/ast does for expressions; structural
// operators (concatenation, stacking, indexing, spatial operators) are their
// own types. Evaluation, simplification and compilation switch exhaustively
// over this set in the interp, simplify and codegen packages.
package expr

import (
	"encoding/binary"
	"hash/fnv"
	"math"

	"github.com/daex-org/daex/units"
)

// Kind tags every node variant, including one tag per binary operator.
type Kind int

// Node kinds.
const (
	KindInvalid Kind = iota

	// Leaves.
	KindScalar
	KindVector
	KindMatrix
	KindParameter
	KindInputParameter
	KindVariable
	KindVariableDot
	KindSymbol
	KindTime
	KindStateVector

	// Binary operators.
	KindAdd
	KindSub
	KindMul
	KindDiv
	KindPow
	KindMatMul
	KindInner
	KindMinimum
	KindMaximum
	KindLess
	KindLessEqual
	KindGreater
	KindGreaterEqual

	// Unary operators and functions.
	KindNegate
	KindFunction
	KindFunctionParameter

	// Spatial operators, inert until a mesh is bound.
	KindGradient
	KindDivergence
	KindIntegral
	KindBoundaryIntegral
	KindBoundaryValue
	KindDeltaFunction

	// Array assembly.
	KindConcatenation
	KindFlatConcatenation
	KindDomainConcatenation
	KindSparseStack
	KindIndex
)

var kindNames = map[Kind]string{
	KindScalar:              "Scalar",
	KindVector:              "Vector",
	KindMatrix:              "Matrix",
	KindParameter:           "Parameter",
	KindInputParameter:      "InputParameter",
	KindVariable:            "Variable",
	KindVariableDot:         "VariableDot",
	KindSymbol:              "Symbol",
	KindTime:                "Time",
	KindStateVector:         "StateVector",
	KindAdd:                 "Add",
	KindSub:                 "Sub",
	KindMul:                 "Mul",
	KindDiv:                 "Div",
	KindPow:                 "Pow",
	KindMatMul:              "MatMul",
	KindInner:               "Inner",
	KindMinimum:             "Minimum",
	KindMaximum:             "Maximum",
	KindLess:                "Less",
	KindLessEqual:           "LessEqual",
	KindGreater:             "Greater",
	KindGreaterEqual:        "GreaterEqual",
	KindNegate:              "Negate",
	KindFunction:            "Function",
	KindFunctionParameter:   "FunctionParameter",
	KindGradient:            "Gradient",
	KindDivergence:          "Divergence",
	KindIntegral:            "Integral",
	KindBoundaryIntegral:    "BoundaryIntegral",
	KindBoundaryValue:       "BoundaryValue",
	KindDeltaFunction:       "DeltaFunction",
	KindConcatenation:       "Concatenation",
	KindFlatConcatenation:   "FlatConcatenation",
	KindDomainConcatenation: "DomainConcatenation",
	KindSparseStack:         "SparseStack",
	KindIndex:               "Index",
}

// String returns the kind's name.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "Invalid"
}

// Shape is the number of rows and columns a node evaluates to. Scalars are
// 1x1. A shape can be unknown until discretization (Variable, Parameter
// placeholders, spatial operators).
type Shape struct {
	Rows, Cols int
}

// ScalarShape is the shape of a scalar-valued node.
var ScalarShape = Shape{Rows: 1, Cols: 1}

// UnknownShape marks nodes whose extent is not known before a mesh is
// bound.
var UnknownShape = Shape{Rows: -1, Cols: -1}

// Known reports whether the shape's extent is determined.
func (s Shape) Known() bool { return s.Rows >= 0 }

// IsScalar reports whether the shape is 1x1.
func (s Shape) IsScalar() bool { return s.Rows == 1 && s.Cols == 1 }

// Node is one element of the expression DAG.
//
// Implementations live in this package only: the variant set is closed so
// that every consumer can match exhaustively.
type Node interface {
	// Kind returns the variant tag.
	Kind() Kind

	// ID returns the structural identity hash: equal ids mean structurally
	// equal subgraphs. Safe as a memoization and deduplication key.
	ID() uint64

	// Children returns the node's operands, in order. The returned slice
	// must not be modified.
	Children() []Node

	// Domain returns the spatial region(s) the node is defined over.
	Domain() Domain

	// Units returns the node's dimensional units.
	Units() units.Units

	// Shape returns the node's evaluated extent, if known.
	Shape() Shape

	// String returns a readable rendering of the subtree, used in error
	// messages.
	String() string

	// node restricts implementations to this package.
	node()
}

// symbol carries the state common to every node variant.
type symbol struct {
	kind     Kind
	id       uint64
	children []Node
	domain   Domain
	units    units.Units
	shape    Shape
}

func (s *symbol) Kind() Kind         { return s.kind }
func (s *symbol) ID() uint64         { return s.id }
func (s *symbol) Children() []Node   { return s.children }
func (s *symbol) Domain() Domain     { return s.domain }
func (s *symbol) Units() units.Units { return s.units }
func (s *symbol) Shape() Shape       { return s.shape }
func (s *symbol) node()              {}

// hashNode derives a structural id from the node kind, a payload
// distinguishing nodes of the same kind (a literal's bits, a name, an index)
// and the children's ids.
func hashNode(kind Kind, payload []byte, children ...Node) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(kind))
	h.Write(buf[:])
	h.Write(payload)
	for _, c := range children {
		binary.LittleEndian.PutUint64(buf[:], c.ID())
		h.Write(buf[:])
	}
	return h.Sum64()
}

func floatPayload(vs ...float64) []byte {
	buf := make([]byte, 8*len(vs))
	for i, v := range vs {
		binary.LittleEndian.PutUint64(buf[8*i:], math.Float64bits(v))
	}
	return buf
}

func intPayload(vs ...int) []byte {
	buf := make([]byte, 8*len(vs))
	for i, v := range vs {
		binary.LittleEndian.PutUint64(buf[8*i:], uint64(v))
	}
	return buf
}

// hashDomainUnits folds a node's domain and units into its payload so that
// otherwise identical literals on different regions or with different
// dimensions keep distinct ids.
func hashDomainUnits(payload []byte, d Domain, u units.Units) []byte {
	out := append([]byte{}, payload...)
	out = append(out, []byte(d.String())...)
	out = append(out, []byte(u.String())...)
	return out
}

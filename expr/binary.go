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
	"math"

	"github.com/pkg/errors"

	"github.com/daex-org/daex/units"
)

// Binary is a two-operand operator node. The operator is the node's Kind,
// as go/ast tags BinaryExpr with a token.
type Binary struct {
	symbol
	Left, Right Node
}

var binaryOpSymbols = map[Kind]string{
	KindAdd:          "+",
	KindSub:          "-",
	KindMul:          "*",
	KindDiv:          "/",
	KindPow:          "**",
	KindMatMul:       "@",
	KindInner:        "inner",
	KindMinimum:      "minimum",
	KindMaximum:      "maximum",
	KindLess:         "<",
	KindLessEqual:    "<=",
	KindGreater:      ">",
	KindGreaterEqual: ">=",
}

// String renders the operation in infix or call form.
func (n *Binary) String() string {
	switch n.kind {
	case KindInner, KindMinimum, KindMaximum:
		return fmt.Sprintf("%s(%s, %s)", binaryOpSymbols[n.kind], n.Left, n.Right)
	}
	return fmt.Sprintf("(%s %s %s)", n.Left, binaryOpSymbols[n.kind], n.Right)
}

// broadcast combines two elementwise operand shapes: a scalar broadcasts
// against any array, equal shapes pass through, anything else is a shape
// error. Unknown shapes stay unknown.
func broadcast(a, b Shape) (Shape, bool) {
	if !a.Known() || !b.Known() {
		return UnknownShape, true
	}
	if a.IsScalar() {
		return b, true
	}
	if b.IsScalar() || a == b {
		return a, true
	}
	return Shape{}, false
}

func composeBinaryUnits(kind Kind, l, r Node) (units.Units, error) {
	lu, ru := l.Units(), r.Units()
	switch kind {
	case KindAdd:
		return lu.Add(ru)
	case KindSub:
		return lu.Sub(ru)
	case KindMul, KindInner, KindMatMul:
		return lu.Mul(ru), nil
	case KindDiv:
		return lu.Div(ru), nil
	case KindPow:
		if lu.IsDimensionless() {
			return units.Dimensionless(), nil
		}
		s, ok := r.(*Scalar)
		if !ok || s.Value != math.Trunc(s.Value) {
			return units.Units{}, errors.Wrapf(units.Err,
				"cannot raise %s with units %s to the non-integer power %s", l, lu, r)
		}
		return lu.Pow(int(s.Value)), nil
	case KindMinimum, KindMaximum:
		// Same-units rule as addition, with dimensionless literals allowed
		// to broadcast.
		switch {
		case lu.IsDimensionless():
			return ru, nil
		case ru.IsDimensionless():
			return lu, nil
		default:
			return lu.Add(ru)
		}
	case KindLess, KindLessEqual, KindGreater, KindGreaterEqual:
		// Heaviside results are 0/1 valued and carry no units.
		return units.Dimensionless(), nil
	}
	return units.Units{}, errors.Errorf("kind %s is not a binary operator", kind)
}

// NewBinary returns the binary operator node of the given kind over l and
// r. kind must be a binary operator kind.
func NewBinary(kind Kind, l, r Node) (*Binary, error) {
	if !IsBinaryKind(kind) {
		return nil, errors.Errorf("kind %s is not a binary operator", kind)
	}
	return newBinary(kind, l, r)
}

func newBinary(kind Kind, l, r Node) (*Binary, error) {
	domain, ok := combineDomains(l.Domain(), r.Domain())
	if !ok {
		return nil, errors.Wrapf(ErrDomain, "cannot combine %s over %s with %s over %s",
			l, l.Domain(), r, r.Domain())
	}
	u, err := composeBinaryUnits(kind, l, r)
	if err != nil {
		return nil, errors.Wrapf(err, "in %s %s %s", l, binaryOpSymbols[kind], r)
	}
	var shape Shape
	if kind == KindMatMul {
		ls, rs := l.Shape(), r.Shape()
		if ls.Known() && rs.Known() && ls.Cols != rs.Rows {
			return nil, errors.Wrapf(ErrShape, "cannot matrix-multiply %s (%dx%d) by %s (%dx%d)",
				l, ls.Rows, ls.Cols, r, rs.Rows, rs.Cols)
		}
		if ls.Known() && rs.Known() {
			shape = Shape{Rows: ls.Rows, Cols: rs.Cols}
		} else {
			shape = UnknownShape
		}
	} else {
		shape, ok = broadcast(l.Shape(), r.Shape())
		if !ok {
			return nil, errors.Wrapf(ErrShape, "cannot combine %s (%dx%d) with %s (%dx%d) elementwise",
				l, l.Shape().Rows, l.Shape().Cols, r, r.Shape().Rows, r.Shape().Cols)
		}
	}
	if kind == KindDiv {
		if s, ok := r.(*Scalar); ok && s.Value == 0 {
			return nil, errors.Wrapf(ErrZeroDivision, "in %s / %s", l, r)
		}
	}
	n := &Binary{Left: l, Right: r}
	n.kind = kind
	n.children = []Node{l, r}
	n.domain = domain
	n.units = u
	n.shape = shape
	n.id = hashNode(kind, nil, l, r)
	return n, nil
}

// Add returns l + r.
func Add(l, r Node) (*Binary, error) { return newBinary(KindAdd, l, r) }

// Sub returns l - r.
func Sub(l, r Node) (*Binary, error) { return newBinary(KindSub, l, r) }

// Mul returns the elementwise product l * r.
func Mul(l, r Node) (*Binary, error) { return newBinary(KindMul, l, r) }

// Div returns the elementwise quotient l / r. A literal zero denominator is
// rejected at construction.
func Div(l, r Node) (*Binary, error) { return newBinary(KindDiv, l, r) }

// Pow returns l raised to the power r. For a dimensioned base the exponent
// must be an integer scalar literal.
func Pow(l, r Node) (*Binary, error) { return newBinary(KindPow, l, r) }

// MatMul returns the matrix product l @ r.
func MatMul(l, r Node) (*Binary, error) { return newBinary(KindMatMul, l, r) }

// Inner returns the elementwise (Hadamard) product of l and r.
func Inner(l, r Node) (*Binary, error) { return newBinary(KindInner, l, r) }

// Minimum returns the elementwise minimum of l and r.
func Minimum(l, r Node) (*Binary, error) { return newBinary(KindMinimum, l, r) }

// Maximum returns the elementwise maximum of l and r.
func Maximum(l, r Node) (*Binary, error) { return newBinary(KindMaximum, l, r) }

// Less returns the Heaviside node l < r, evaluating to a 0/1 array.
func Less(l, r Node) (*Binary, error) { return newBinary(KindLess, l, r) }

// LessEqual returns the Heaviside node l <= r.
func LessEqual(l, r Node) (*Binary, error) { return newBinary(KindLessEqual, l, r) }

// Greater returns the Heaviside node l > r.
func Greater(l, r Node) (*Binary, error) { return newBinary(KindGreater, l, r) }

// GreaterEqual returns the Heaviside node l >= r.
func GreaterEqual(l, r Node) (*Binary, error) { return newBinary(KindGreaterEqual, l, r) }

// IsBinaryKind reports whether kind tags a Binary node.
func IsBinaryKind(kind Kind) bool {
	_, ok := binaryOpSymbols[kind]
	return ok
}

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

// Negate is the unary minus operator.
type Negate struct {
	symbol
	Child Node
}

// Neg returns -c.
func Neg(c Node) *Negate {
	n := &Negate{Child: c}
	n.kind = KindNegate
	n.children = []Node{c}
	n.domain = c.Domain()
	n.units = c.Units()
	n.shape = c.Shape()
	n.id = hashNode(KindNegate, nil, c)
	return n
}

// String renders the negation.
func (n *Negate) String() string { return fmt.Sprintf("(-%s)", n.Child) }

// Index selects the single entry at row I of a column-vector-valued child.
type Index struct {
	symbol
	Child Node
	I     int
}

// NewIndex returns child[i].
func NewIndex(c Node, i int) (*Index, error) {
	if s := c.Shape(); s.Known() && (i < 0 || i >= s.Rows || s.Cols != 1) {
		return nil, errors.Wrapf(ErrShape, "index %d out of range for %s (%dx%d)", i, c, s.Rows, s.Cols)
	}
	n := &Index{Child: c, I: i}
	n.kind = KindIndex
	n.children = []Node{c}
	n.domain = c.Domain()
	n.units = c.Units()
	n.shape = ScalarShape
	n.id = hashNode(KindIndex, intPayload(i), c)
	return n, nil
}

// String renders the indexing operation.
func (n *Index) String() string { return fmt.Sprintf("%s[%d]", n.Child, n.I) }

// FuncName identifies an elementwise function or a min/max reduction. The
// set is closed; unknown functions cannot be represented.
type FuncName int

// Supported functions.
const (
	FuncExp FuncName = iota
	FuncLog
	FuncLog10
	FuncSin
	FuncSinh
	FuncCos
	FuncCosh
	FuncTanh
	FuncSqrt
	FuncArcsinh
	FuncArctan
	FuncMin
	FuncMax
)

var funcNames = [...]string{
	FuncExp:     "exp",
	FuncLog:     "log",
	FuncLog10:   "log10",
	FuncSin:     "sin",
	FuncSinh:    "sinh",
	FuncCos:     "cos",
	FuncCosh:    "cosh",
	FuncTanh:    "tanh",
	FuncSqrt:    "sqrt",
	FuncArcsinh: "asinh",
	FuncArctan:  "atan",
	FuncMin:     "min",
	FuncMax:     "max",
}

// String returns the function's name, which is also the name emitted by the
// code generator.
func (f FuncName) String() string { return funcNames[f] }

// IsReduction reports whether the function reduces an array to a scalar.
func (f FuncName) IsReduction() bool { return f == FuncMin || f == FuncMax }

// Func returns the scalar implementation of an elementwise function.
// Reductions have no single-value form and return nil.
func (f FuncName) Func() func(float64) float64 {
	switch f {
	case FuncExp:
		return math.Exp
	case FuncLog:
		return math.Log
	case FuncLog10:
		return math.Log10
	case FuncSin:
		return math.Sin
	case FuncSinh:
		return math.Sinh
	case FuncCos:
		return math.Cos
	case FuncCosh:
		return math.Cosh
	case FuncTanh:
		return math.Tanh
	case FuncSqrt:
		return math.Sqrt
	case FuncArcsinh:
		return math.Asinh
	case FuncArctan:
		return math.Atan
	}
	return nil
}

// Function applies a known function to its child, elementwise for array
// children. Min and Max reduce the child to a scalar instead.
//
// Transcendental functions are only defined on dimensionless arguments; the
// result is always dimensionless.
type Function struct {
	symbol
	Fn    FuncName
	Child Node
}

// NewFunction returns fn applied to c.
func NewFunction(fn FuncName, c Node) (*Function, error) {
	if !c.Units().IsDimensionless() {
		return nil, errors.Wrapf(units.Err, "cannot apply %s to %s with units %s", fn, c, c.Units())
	}
	n := &Function{Fn: fn, Child: c}
	n.kind = KindFunction
	n.children = []Node{c}
	n.domain = c.Domain()
	if fn.IsReduction() {
		n.shape = ScalarShape
		n.domain = EmptyDomain
	} else {
		n.shape = c.Shape()
	}
	n.id = hashNode(KindFunction, intPayload(int(fn)), c)
	return n, nil
}

// String renders the function call.
func (n *Function) String() string { return fmt.Sprintf("%s(%s)", n.Fn, n.Child) }

// FunctionParameter is a named, not yet resolved function of its arguments.
// It has no evaluation semantics until model processing substitutes a
// concrete expression for it; simplification passes it through untouched.
type FunctionParameter struct {
	symbol
	Name string
	Args []Node
}

// NewFunctionParameter returns the unresolved function name applied to
// args.
func NewFunctionParameter(name string, args ...Node) *FunctionParameter {
	n := &FunctionParameter{Name: name, Args: args}
	n.kind = KindFunctionParameter
	n.children = args
	if len(args) > 0 {
		n.domain = args[0].Domain()
	}
	n.shape = UnknownShape
	n.id = hashNode(KindFunctionParameter, []byte(name), args...)
	return n
}

// String renders the unresolved call.
func (n *FunctionParameter) String() string {
	s := n.Name + "("
	for i, a := range n.Args {
		if i > 0 {
			s += ", "
		}
		s += a.String()
	}
	return s + ")"
}

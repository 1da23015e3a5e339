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

// Package codegen translates an expression node into Julia source.
//
// The generated routine follows the solver calling convention
// f(dy, y, p, t): dy is the output buffer, y the flat state array, p the
// input-parameter array and t the scalar time. Each distinct sub-node gets
// exactly one intermediate binding, so a DAG node shared by several parents
// is computed once no matter how often it is referenced.
package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/daex-org/daex/base/ordered"
	"github.com/daex-org/daex/expr"
	"github.com/daex-org/daex/kernels"
)

// Option configures the generated routine.
type Option func(*generator)

// WithName sets the name of the generated function. The default is "f".
func WithName(name string) Option {
	return func(g *generator) { g.name = name }
}

// WithInputOrder fixes the position of each input parameter in the p
// argument: the parameter named names[i] is read from p[i+1]. Compiling a
// node that references a name outside this list fails.
func WithInputOrder(names ...string) Option {
	return func(g *generator) { g.inputs = names }
}

// Julia compiles n into the source of a Julia routine filling dy with the
// value of n. The routine's numeric results match direct evaluation of n.
func Julia(n expr.Node, opts ...Option) (string, error) {
	g := &generator{name: "f", bindings: ordered.NewMap[uint64, string]()}
	for _, opt := range opts {
		opt(g)
	}
	out := g.emit(n)
	if g.errs != nil {
		return "", g.errs
	}
	var b strings.Builder
	if g.needsSparse {
		b.WriteString("using SparseArrays\n\n")
	}
	fmt.Fprintf(&b, "function %s(dy, y, p, t)\n", g.name)
	for _, line := range g.body {
		b.WriteString("    " + line + "\n")
	}
	b.WriteString("    dy .= " + out + "\n")
	b.WriteString("    nothing\n")
	b.WriteString("end\n")
	return b.String(), nil
}

type generator struct {
	name   string
	inputs []string

	// bindings maps node id to the Julia expression standing for the node:
	// either an intermediate variable name or an inlined literal.
	bindings *ordered.Map[uint64, string]
	body     []string
	next     int

	needsSparse bool
	errs        error
}

// bind stores src as the next intermediate variable and returns its name.
func (g *generator) bind(n expr.Node, src string) string {
	g.next++
	name := "x" + strconv.Itoa(g.next)
	g.body = append(g.body, name+" = "+src)
	g.bindings.Store(n.ID(), name)
	return name
}

func (g *generator) fail(err error) string {
	g.errs = multierr.Append(g.errs, err)
	return "#error#"
}

// emit returns the Julia expression for n, emitting bindings for n's
// subtree as a side effect.
func (g *generator) emit(n expr.Node) string {
	if ref, ok := g.bindings.Load(n.ID()); ok {
		return ref
	}
	switch n := n.(type) {
	case *expr.Scalar:
		ref := number(n.Value)
		g.bindings.Store(n.ID(), ref)
		return ref
	case *expr.Time:
		return "t"
	case *expr.InputParameter:
		for i, name := range g.inputs {
			if name == n.Name {
				ref := fmt.Sprintf("p[%d]", i+1)
				g.bindings.Store(n.ID(), ref)
				return ref
			}
		}
		return g.fail(errors.Wrapf(expr.ErrUnresolvedParameter,
			"input parameter %s is not in the input order", n.Name))
	case *expr.Vector:
		return g.bind(n, vectorLiteral(n.Values))
	case *expr.Matrix:
		if m, ok := n.Value.(*kernels.CSR); ok {
			g.needsSparse = true
			return g.bind(n, sparseLiteral(m))
		}
		return g.bind(n, denseLiteral(n.Value.(*kernels.Dense)))
	case *expr.StateVector:
		return g.bind(n, stateRef(n.Slices))
	case *expr.Binary:
		return g.emitBinary(n)
	case *expr.Negate:
		return g.bind(n, "-"+g.emit(n.Child))
	case *expr.Function:
		c := g.emit(n.Child)
		switch n.Fn {
		case expr.FuncMin:
			return g.bind(n, "minimum("+c+")")
		case expr.FuncMax:
			return g.bind(n, "maximum("+c+")")
		}
		return g.bind(n, n.Fn.String()+".("+c+")")
	case *expr.Index:
		return g.bind(n, fmt.Sprintf("%s[%d]", g.emit(n.Child), n.I+1))
	case *expr.Concatenation:
		return g.bind(n, g.vcat(n.Children()))
	case *expr.FlatConcatenation:
		return g.bind(n, g.vcat(n.Children()))
	case *expr.DomainConcatenation:
		return g.bind(n, g.vcat(n.Children()))
	case *expr.SparseStack:
		g.needsSparse = true
		return g.bind(n, "sparse("+g.vcat(n.Children())+")")
	}
	return g.fail(errors.Wrapf(expr.ErrNotImplemented, "cannot compile %s node %s", n.Kind(), n))
}

var binaryOps = map[expr.Kind]string{
	expr.KindAdd:          ".+",
	expr.KindSub:          ".-",
	expr.KindMul:          ".*",
	expr.KindDiv:          "./",
	expr.KindPow:          ".^",
	expr.KindMatMul:       "*",
	expr.KindInner:        ".*",
	expr.KindLess:         ".<",
	expr.KindLessEqual:    ".<=",
	expr.KindGreater:      ".>",
	expr.KindGreaterEqual: ".>=",
}

func (g *generator) emitBinary(n *expr.Binary) string {
	l, r := g.emit(n.Left), g.emit(n.Right)
	switch n.Kind() {
	case expr.KindMinimum:
		return g.bind(n, "min.("+l+", "+r+")")
	case expr.KindMaximum:
		return g.bind(n, "max.("+l+", "+r+")")
	}
	op, ok := binaryOps[n.Kind()]
	if !ok {
		return g.fail(errors.Wrapf(expr.ErrNotImplemented, "cannot compile %s node %s", n.Kind(), n))
	}
	return g.bind(n, l+" "+op+" "+r)
}

func (g *generator) vcat(children []expr.Node) string {
	parts := make([]string, len(children))
	for i, c := range children {
		parts[i] = g.emit(c)
	}
	return "vcat(" + strings.Join(parts, ", ") + ")"
}

// number renders a float literal, parenthesized when negative so it can be
// inlined next to an infix operator.
func number(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if strings.HasPrefix(s, "-") {
		return "(" + s + ")"
	}
	return s
}

// stateRef renders a state-vector reference: a bare element for a single
// entry, a view for one slice, a concatenation of views otherwise. Slice
// bounds shift to Julia's 1-based inclusive ranges.
func stateRef(slices []expr.YSlice) string {
	one := func(s expr.YSlice) string {
		if s.Stop-s.Start == 1 {
			return fmt.Sprintf("y[%d]", s.Start+1)
		}
		return fmt.Sprintf("@view y[%d:%d]", s.Start+1, s.Stop)
	}
	if len(slices) == 1 {
		return one(slices[0])
	}
	parts := make([]string, len(slices))
	for i, s := range slices {
		if s.Stop-s.Start == 1 {
			parts[i] = fmt.Sprintf("y[%d]", s.Start+1)
		} else {
			parts[i] = fmt.Sprintf("@view(y[%d:%d])", s.Start+1, s.Stop)
		}
	}
	return "vcat(" + strings.Join(parts, ", ") + ")"
}

func vectorLiteral(v *kernels.Dense) string {
	parts := make([]string, len(v.Data))
	for i, x := range v.Data {
		parts[i] = strconv.FormatFloat(x, 'g', -1, 64)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func denseLiteral(m *kernels.Dense) string {
	rows := make([]string, m.Rows)
	for i := 0; i < m.Rows; i++ {
		cols := make([]string, m.Cols)
		for j := 0; j < m.Cols; j++ {
			cols[j] = strconv.FormatFloat(m.At(i, j), 'g', -1, 64)
		}
		rows[i] = strings.Join(cols, " ")
	}
	return "[" + strings.Join(rows, "; ") + "]"
}

// sparseLiteral renders a sparse matrix as its coordinate triples:
// sparse(I, J, V, m, n) with 1-based indices.
func sparseLiteral(m *kernels.CSR) string {
	var is, js, vs []string
	for i := 0; i < m.Rows; i++ {
		for k := m.RowPtr[i]; k < m.RowPtr[i+1]; k++ {
			is = append(is, strconv.Itoa(i+1))
			js = append(js, strconv.Itoa(m.ColIdx[k]+1))
			vs = append(vs, strconv.FormatFloat(m.Data[k], 'g', -1, 64))
		}
	}
	return fmt.Sprintf("sparse([%s], [%s], [%s], %d, %d)",
		strings.Join(is, ", "), strings.Join(js, ", "), strings.Join(vs, ", "),
		m.Rows, m.Cols)
}

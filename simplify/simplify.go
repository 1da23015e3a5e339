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

// Package simplify rewrites an expression node into an equivalent node that
// is no more expensive to evaluate. Evaluation semantics are preserved
// exactly: for every valid (t, y, inputs), the simplified node evaluates to
// the same value as the original.
//
// The rewrite is bottom-up: children are simplified first, then an ordered
// rule set runs on the node until no rule fires. Every rule either folds a
// subtree into a literal or strictly reduces the node count, so the loop
// terminates and one pass reaches a fixed point (simplify is idempotent on
// its own output). Shared subtrees are rewritten once through a memo map
// keyed by node id, local to the top-level call.
package simplify

import (
	"github.com/pkg/errors"

	"github.com/daex-org/daex/expr"
	"github.com/daex-org/daex/interp"
	"github.com/daex-org/daex/kernels"
	"github.com/daex-org/daex/units"
)

// Simplify returns a cheaper node evaluating to the same values as n.
func Simplify(n expr.Node) (expr.Node, error) {
	s := &simplifier{}
	s.memo[0] = map[uint64]expr.Node{}
	s.memo[1] = map[uint64]expr.Node{}
	return s.simplify(n, false)
}

type simplifier struct {
	// memo maps node id to its simplified form, one map per matmul-operand
	// context since rules differ there.
	memo [2]map[uint64]expr.Node
}

func ctxIndex(inMatMul bool) int {
	if inMatMul {
		return 1
	}
	return 0
}

// simplify rewrites n bottom-up. inMatMul is set while rewriting the
// operand of a matrix product: the elementwise fold-into-matrix rules are
// disabled there, because materializing a folded matrix inside a product
// chain can force an asymptotically larger intermediate than the original
// expression.
func (s *simplifier) simplify(n expr.Node, inMatMul bool) (expr.Node, error) {
	if v, ok := s.memo[ctxIndex(inMatMul)][n.ID()]; ok {
		return v, nil
	}
	out, err := s.simplifyNode(n, inMatMul)
	if err != nil {
		return nil, err
	}
	s.memo[ctxIndex(inMatMul)][n.ID()] = out
	return out, nil
}

func (s *simplifier) simplifyNode(n expr.Node, inMatMul bool) (expr.Node, error) {
	switch n.Kind() {
	case expr.KindSymbol:
		return nil, errors.Wrapf(expr.ErrNotImplemented,
			"cannot simplify abstract placeholder %s", n)
	case expr.KindScalar, expr.KindVector, expr.KindMatrix,
		expr.KindParameter, expr.KindInputParameter,
		expr.KindVariable, expr.KindVariableDot,
		expr.KindTime, expr.KindStateVector:
		return n, nil
	}
	cur, err := s.rebuildChildren(n, inMatMul)
	if err != nil {
		return nil, err
	}
	for {
		next, err := s.rewrite(cur, inMatMul)
		if err != nil {
			return nil, err
		}
		if next.ID() == cur.ID() {
			return next, nil
		}
		cur = next
	}
}

// rebuildChildren simplifies n's children and reconstructs n over them.
// Reconstruction re-runs the constructors, so units, domains and shapes are
// revalidated.
func (s *simplifier) rebuildChildren(n expr.Node, inMatMul bool) (expr.Node, error) {
	childCtx := inMatMul || n.Kind() == expr.KindMatMul
	children := n.Children()
	kids := make([]expr.Node, len(children))
	changed := false
	for i, c := range children {
		k, err := s.simplify(c, childCtx)
		if err != nil {
			return nil, err
		}
		kids[i] = k
		changed = changed || k.ID() != c.ID()
	}
	if !changed {
		return n, nil
	}
	return rebuild(n, kids)
}

func rebuild(n expr.Node, kids []expr.Node) (expr.Node, error) {
	switch n := n.(type) {
	case *expr.Binary:
		return expr.NewBinary(n.Kind(), kids[0], kids[1])
	case *expr.Negate:
		return expr.Neg(kids[0]), nil
	case *expr.Function:
		return expr.NewFunction(n.Fn, kids[0])
	case *expr.FunctionParameter:
		return expr.NewFunctionParameter(n.Name, kids...), nil
	case *expr.SpatialOperator:
		return n.WithChild(kids[0]), nil
	case *expr.Index:
		return expr.NewIndex(kids[0], n.I)
	case *expr.Concatenation:
		return expr.NewConcatenation(kids...)
	case *expr.FlatConcatenation:
		return expr.NewFlatConcatenation(kids...)
	case *expr.DomainConcatenation:
		return expr.NewDomainConcatenation(kids, n.Sizes)
	case *expr.SparseStack:
		return expr.NewSparseStack(kids...)
	}
	return nil, errors.Wrapf(expr.ErrNotImplemented, "cannot rebuild node %s", n)
}

// rewrite applies one round of rules to a node whose children are already
// simplified.
func (s *simplifier) rewrite(n expr.Node, inMatMul bool) (expr.Node, error) {
	if lit, ok, err := foldConstant(n); ok || err != nil {
		return lit, err
	}
	switch n := n.(type) {
	case *expr.Binary:
		return rewriteBinary(n, inMatMul)
	case *expr.Negate:
		// --x reduces to x.
		if neg, ok := n.Child.(*expr.Negate); ok {
			return neg.Child, nil
		}
	case *expr.SpatialOperator:
		// The spatial derivative of a constant is zero everywhere.
		switch n.Kind() {
		case expr.KindGradient, expr.KindDivergence:
			if isConstant(n.Child) {
				return zeroLiteral(n.Child.Shape(), n.Units(), n.Domain()), nil
			}
		}
	case *expr.Concatenation:
		if merged, ok := mergeStateVectors(n, n.Children()); ok {
			return merged, nil
		}
	case *expr.FlatConcatenation:
		if merged, ok := mergeStateVectors(n, n.Children()); ok {
			return merged, nil
		}
	}
	return n, nil
}

// isConstant reports whether n is a literal node.
func isConstant(n expr.Node) bool {
	switch n.Kind() {
	case expr.KindScalar, expr.KindVector, expr.KindMatrix:
		return true
	}
	return false
}

func isConstantZero(n expr.Node) bool {
	switch n := n.(type) {
	case *expr.Scalar:
		return n.Value == 0
	case *expr.Vector:
		return kernels.IsZero(n.Values)
	case *expr.Matrix:
		return kernels.IsZero(n.Value)
	}
	return false
}

func isConstantOne(n expr.Node) bool {
	switch n := n.(type) {
	case *expr.Scalar:
		return n.Value == 1
	case *expr.Vector:
		return kernels.IsOne(n.Values)
	case *expr.Matrix:
		return kernels.IsOne(n.Value)
	}
	return false
}

// scalarLiteral returns the value of a dimensionless scalar literal.
// Scalars carrying units are excluded: folding them into a bare coefficient
// would drop their dimensions.
func scalarLiteral(n expr.Node) (float64, bool) {
	s, ok := n.(*expr.Scalar)
	if !ok || !s.Units().IsDimensionless() {
		return 0, false
	}
	return s.Value, true
}

// foldConstant evaluates an operator over only literal children into a
// single literal node. Spatial operators and unresolved function parameters
// are never folded: they have no evaluation semantics yet.
func foldConstant(n expr.Node) (expr.Node, bool, error) {
	switch n.Kind() {
	case expr.KindScalar, expr.KindVector, expr.KindMatrix,
		expr.KindFunctionParameter,
		expr.KindGradient, expr.KindDivergence, expr.KindIntegral,
		expr.KindBoundaryIntegral, expr.KindBoundaryValue, expr.KindDeltaFunction:
		return nil, false, nil
	}
	if len(n.Children()) == 0 {
		return nil, false, nil
	}
	for _, c := range n.Children() {
		if !isConstant(c) {
			return nil, false, nil
		}
	}
	v, err := interp.Evaluate(n, 0, nil, nil)
	if err != nil {
		return nil, false, errors.Wrapf(err, "folding constant %s", n)
	}
	return literal(v, n.Units(), n.Domain()), true, nil
}

// literal wraps an evaluated value as a node carrying the given units and
// domain.
func literal(v kernels.Value, u units.Units, d expr.Domain) expr.Node {
	opts := []expr.Option{expr.WithUnits(u), expr.WithDomain(d)}
	switch v := v.(type) {
	case kernels.Scalar:
		return expr.NewScalar(float64(v), opts...)
	case *kernels.Dense:
		if v.Cols == 1 && v.Rows == 1 {
			return expr.NewScalar(v.Data[0], opts...)
		}
		if v.Cols == 1 {
			return expr.NewVector(v.Data, opts...)
		}
	}
	m, err := expr.NewMatrix(v, opts...)
	if err != nil {
		panic(err)
	}
	return m
}

// zeroLiteral returns a zero node of the given shape. Unknown shapes
// degrade to a scalar zero.
func zeroLiteral(shape expr.Shape, u units.Units, d expr.Domain) expr.Node {
	opts := []expr.Option{expr.WithUnits(u), expr.WithDomain(d)}
	if !shape.Known() || shape.IsScalar() {
		return expr.NewScalar(0, opts...)
	}
	if shape.Cols == 1 {
		return expr.NewVector(make([]float64, shape.Rows), opts...)
	}
	m, err := expr.NewMatrix(kernels.Zeros(shape.Rows, shape.Cols), opts...)
	if err != nil {
		panic(err)
	}
	return m
}

// onesLiteral returns a ones node of the given known shape.
func onesLiteral(shape expr.Shape, u units.Units, d expr.Domain) expr.Node {
	m := kernels.Zeros(shape.Rows, shape.Cols)
	for i := range m.Data {
		m.Data[i] = 1
	}
	return literal(m, u, d)
}

// mergeStateVectors folds a concatenation of state-vector children into a
// single node over the merged slices, coalescing ranges that are contiguous
// in the flat state array.
func mergeStateVectors(n expr.Node, children []expr.Node) (expr.Node, bool) {
	var slices []expr.YSlice
	for _, c := range children {
		sv, ok := c.(*expr.StateVector)
		if !ok {
			return nil, false
		}
		for _, sl := range sv.Slices {
			if len(slices) > 0 && slices[len(slices)-1].Stop == sl.Start {
				slices[len(slices)-1].Stop = sl.Stop
				continue
			}
			slices = append(slices, sl)
		}
	}
	if len(slices) == 0 {
		return nil, false
	}
	merged, err := expr.NewStateVector(slices,
		expr.WithUnits(n.Units()), expr.WithDomain(n.Domain()))
	if err != nil {
		return nil, false
	}
	return merged, true
}

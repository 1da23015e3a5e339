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

package simplify

import (
	"github.com/daex-org/daex/expr"
	"github.com/daex-org/daex/kernels"
	"github.com/daex-org/daex/units"
)

func rewriteBinary(n *expr.Binary, inMatMul bool) (expr.Node, error) {
	switch n.Kind() {
	case expr.KindAdd, expr.KindSub:
		return collectTerms(n)
	case expr.KindMul, expr.KindDiv:
		return rewriteMulDiv(n, inMatMul)
	case expr.KindPow:
		return rewritePow(n)
	case expr.KindMatMul:
		return rewriteMatMul(n)
	case expr.KindInner:
		if isConstantZero(n.Left) || isConstantZero(n.Right) {
			return zeroLiteral(n.Shape(), n.Units(), n.Domain()), nil
		}
	}
	return n, nil
}

// term is one addend of a flattened sum: coef times a non-constant node.
type term struct {
	coef float64
	node expr.Node
}

// collectTerms flattens a tree of additions, subtractions and negations
// into a constant part plus coefficient-weighted terms, merges terms with
// the same structural id, and rebuilds the canonical chain: constant first,
// then positive terms, then the negative remainder. A+A becomes 2*A and
// A-A becomes a zero of A's shape.
//
// A subtraction of a non-reducible sum is flattened to (-A) - C rather than
// distributed any further; the policy is deliberately asymmetric so that no
// term ever picks up a spurious sign.
func collectTerms(n *expr.Binary) (expr.Node, error) {
	var constSum float64
	hasConst := false
	var terms []term
	index := map[uint64]int{}

	var walk func(m expr.Node, sign float64)
	walk = func(m expr.Node, sign float64) {
		switch m := m.(type) {
		case *expr.Binary:
			switch m.Kind() {
			case expr.KindAdd:
				walk(m.Left, sign)
				walk(m.Right, sign)
				return
			case expr.KindSub:
				walk(m.Left, sign)
				walk(m.Right, -sign)
				return
			case expr.KindMul:
				// k*A contributes A with coefficient k.
				if v, ok := scalarLiteral(m.Left); ok {
					walk(m.Right, sign*v)
					return
				}
				if v, ok := scalarLiteral(m.Right); ok {
					walk(m.Left, sign*v)
					return
				}
			}
		case *expr.Negate:
			walk(m.Child, -sign)
			return
		case *expr.Scalar:
			// Every addend carries n's units, so scalar literals merge into
			// one constant regardless of their own units tag.
			constSum += sign * m.Value
			hasConst = true
			return
		}
		if i, ok := index[m.ID()]; ok {
			terms[i].coef += sign
			return
		}
		index[m.ID()] = len(terms)
		terms = append(terms, term{coef: sign, node: m})
	}
	walk(n, 1)

	// Drop cancelled terms and constant zero arrays whose shape another
	// term still provides.
	var kept []term
	for i, t := range terms {
		if t.coef == 0 {
			continue
		}
		if isConstantZero(t.node) && !t.node.Shape().IsScalar() {
			covered := false
			for j, o := range terms {
				if j != i && o.coef != 0 && o.node.Shape() == t.node.Shape() {
					covered = true
					break
				}
			}
			if covered {
				continue
			}
		}
		kept = append(kept, t)
	}

	out, err := buildSum(n, constSum, hasConst, kept)
	if err != nil {
		return nil, err
	}
	// Rebroadcast if dropping terms shrank the shape (e.g. b + A - A with
	// array A): the sum must keep its original extent.
	if n.Shape().Known() && out.Shape().Known() && out.Shape() != n.Shape() {
		return expr.Add(out, zeroLiteral(n.Shape(), n.Units(), n.Domain()))
	}
	return out, nil
}

func scaledTerm(t term) (expr.Node, error) {
	coef := t.coef
	if coef < 0 {
		coef = -coef
	}
	if coef == 1 {
		return t.node, nil
	}
	return expr.Mul(expr.NewScalar(coef), t.node)
}

func buildSum(n *expr.Binary, constSum float64, hasConst bool, terms []term) (expr.Node, error) {
	var chain expr.Node
	var negatives []term
	for _, t := range terms {
		if t.coef < 0 {
			negatives = append(negatives, t)
			continue
		}
		tn, err := scaledTerm(t)
		if err != nil {
			return nil, err
		}
		if chain == nil {
			chain = tn
			continue
		}
		if chain, err = expr.Add(chain, tn); err != nil {
			return nil, err
		}
	}
	// A single subtracted unscaled term hangs off the positive chain as a
	// plain difference. Anything else stays a (-A) - C chain of its own,
	// added to the positives, so a subtracted sum is never distributed over
	// the minuend.
	if len(negatives) == 1 && chain != nil && negatives[0].coef == -1 {
		tn, err := scaledTerm(negatives[0])
		if err != nil {
			return nil, err
		}
		if chain, err = expr.Sub(chain, tn); err != nil {
			return nil, err
		}
	} else if len(negatives) > 0 {
		var neg expr.Node
		for _, t := range negatives {
			tn, err := scaledTerm(t)
			if err != nil {
				return nil, err
			}
			if neg == nil {
				neg = expr.Neg(tn)
				continue
			}
			if neg, err = expr.Sub(neg, tn); err != nil {
				return nil, err
			}
		}
		if chain == nil {
			chain = neg
		} else {
			var err error
			if chain, err = expr.Add(chain, neg); err != nil {
				return nil, err
			}
		}
	}
	if !hasConst || (constSum == 0 && chain != nil) {
		if chain == nil {
			return zeroLiteral(n.Shape(), n.Units(), n.Domain()), nil
		}
		return chain, nil
	}
	cNode := expr.NewScalar(constSum, expr.WithUnits(n.Units()))
	if chain == nil {
		return cNode, nil
	}
	return expr.Add(cNode, chain)
}

// factor is one operand of a flattened product; inv marks denominator
// factors.
type factor struct {
	node expr.Node
	inv  bool
}

func rewriteMulDiv(n *expr.Binary, inMatMul bool) (expr.Node, error) {
	if isConstantZero(n.Left) || (n.Kind() == expr.KindMul && isConstantZero(n.Right)) {
		return zeroLiteral(n.Shape(), n.Units(), n.Domain()), nil
	}
	if isConstantOne(n.Right) && n.Right.Units().IsDimensionless() && shapeCovers(n.Left, n) {
		return n.Left, nil
	}
	if n.Kind() == expr.KindMul && isConstantOne(n.Left) && n.Left.Units().IsDimensionless() && shapeCovers(n.Right, n) {
		return n.Right, nil
	}
	if !inMatMul {
		if out, ok, err := foldIntoMatMul(n); ok || err != nil {
			return out, err
		}
	}
	return flattenMulDiv(n)
}

func shapeCovers(x expr.Node, n expr.Node) bool {
	return x.Shape() == n.Shape()
}

// flattenMulDiv folds dimensionless scalar literals of a product/quotient
// chain into one leading coefficient: e*(e*c) becomes 4*c, c/2 becomes
// 0.5*c, e/(e*c) becomes 1/c.
func flattenMulDiv(n *expr.Binary) (expr.Node, error) {
	coef := 1.0
	ok := true
	var factors []factor
	var walk func(m expr.Node, inv bool)
	walk = func(m expr.Node, inv bool) {
		switch m := m.(type) {
		case *expr.Binary:
			switch m.Kind() {
			case expr.KindMul:
				walk(m.Left, inv)
				walk(m.Right, inv)
				return
			case expr.KindDiv:
				walk(m.Left, inv)
				walk(m.Right, !inv)
				return
			}
		case *expr.Negate:
			coef = -coef
			walk(m.Child, inv)
			return
		}
		if v, lit := scalarLiteral(m); lit {
			if inv {
				if v == 0 {
					ok = false
					return
				}
				coef /= v
			} else {
				coef *= v
			}
			return
		}
		factors = append(factors, factor{node: m, inv: inv})
	}
	walk(n, false)
	if !ok {
		return n, nil
	}
	if coef == 0 {
		return zeroLiteral(n.Shape(), n.Units(), n.Domain()), nil
	}

	chain := func(fs []expr.Node) (expr.Node, error) {
		var out expr.Node
		for _, f := range fs {
			if out == nil {
				out = f
				continue
			}
			var err error
			if out, err = expr.Mul(out, f); err != nil {
				return nil, err
			}
		}
		return out, nil
	}
	var num, den []expr.Node
	for _, f := range factors {
		if f.inv {
			den = append(den, f.node)
		} else {
			num = append(num, f.node)
		}
	}
	numChain, err := chain(num)
	if err != nil {
		return nil, err
	}
	denChain, err := chain(den)
	if err != nil {
		return nil, err
	}
	var numerator expr.Node
	switch {
	case numChain == nil:
		numerator = expr.NewScalar(coef, expr.WithUnits(numeratorUnits(n, denChain)))
	case coef == 1:
		numerator = numChain
	case coef == -1:
		numerator = expr.Neg(numChain)
	default:
		if numerator, err = expr.Mul(expr.NewScalar(coef), numChain); err != nil {
			return nil, err
		}
	}
	if denChain == nil {
		return numerator, nil
	}
	return expr.Div(numerator, denChain)
}

// numeratorUnits gives the units of the rebuilt numerator so that the
// quotient keeps n's units.
func numeratorUnits(n expr.Node, den expr.Node) units.Units {
	if den == nil {
		return n.Units()
	}
	return n.Units().Mul(den.Units())
}

func rewritePow(n *expr.Binary) (expr.Node, error) {
	if v, ok := scalarLiteral(n.Right); ok {
		if v == 0 {
			// x**0 keeps x's extent: a ones array for array-valued x.
			if sh := n.Shape(); sh.Known() && !sh.IsScalar() {
				return onesLiteral(sh, n.Units(), n.Domain()), nil
			}
			return expr.NewScalar(1, expr.WithDomain(n.Domain())), nil
		}
		if v == 1 && shapeCovers(n.Left, n) {
			return n.Left, nil
		}
	}
	// 0**x is zero for a symbolic exponent; 0**0 never reaches here since a
	// constant exponent folds eagerly.
	if isConstantZero(n.Left) && !isConstant(n.Right) {
		return zeroLiteral(n.Shape(), n.Units(), n.Domain()), nil
	}
	return n, nil
}

// constMatrixValue returns the numeric value of a matrix or vector
// literal.
func constMatrixValue(n expr.Node) (kernels.Value, bool) {
	switch n := n.(type) {
	case *expr.Matrix:
		return n.Value, true
	case *expr.Vector:
		return n.Values, true
	}
	return nil, false
}

// rewriteMatMul hoists constant matrix-matrix products out of the
// per-evaluation path: M2 @ (M1 @ v) with constant M1, M2 becomes
// (M2·M1) @ v with the product precomputed. (M2 @ M1) @ v needs no rule:
// its left child folds to a literal on its own.
func rewriteMatMul(n *expr.Binary) (expr.Node, error) {
	if isConstantZero(n.Left) || isConstantZero(n.Right) {
		return zeroLiteral(n.Shape(), n.Units(), n.Domain()), nil
	}
	lv, ok := constMatrixValue(n.Left)
	if !ok {
		return n, nil
	}
	r, ok := n.Right.(*expr.Binary)
	if !ok || r.Kind() != expr.KindMatMul || isConstant(r.Right) {
		return n, nil
	}
	rv, ok := constMatrixValue(r.Left)
	if !ok {
		return n, nil
	}
	prod, err := kernels.MatMul(lv, rv)
	if err != nil {
		return nil, err
	}
	lit := literal(prod, n.Left.Units().Mul(r.Left.Units()), n.Left.Domain())
	return expr.MatMul(lit, r.Right)
}

// foldIntoMatMul absorbs a constant elementwise factor or divisor into the
// constant matrix of a matrix-vector product: (M @ x) * v becomes
// (rowscale(M, v)) @ x, and (M @ x) / c becomes (M/c) @ x. Disabled inside
// matrix-product operands, where materializing the folded matrix can make
// the enclosing product chain asymptotically more expensive.
func foldIntoMatMul(n *expr.Binary) (expr.Node, bool, error) {
	try := func(mm, other expr.Node, divide bool) (expr.Node, bool, error) {
		b, ok := mm.(*expr.Binary)
		if !ok || b.Kind() != expr.KindMatMul {
			return nil, false, nil
		}
		mv, ok := constMatrixValue(b.Left)
		if !ok || isConstant(b.Right) || !other.Units().IsDimensionless() {
			return nil, false, nil
		}
		var folded kernels.Value
		var err error
		switch o := other.(type) {
		case *expr.Scalar:
			c := o.Value
			if divide {
				if c == 0 {
					return nil, false, nil
				}
				c = 1 / c
			}
			folded, err = kernels.Mul(mv, kernels.Scalar(c))
		case *expr.Vector:
			rows, _ := mv.Dims()
			if b.Right.Shape().Cols != 1 || o.Values.Rows != rows {
				return nil, false, nil
			}
			if divide {
				// A zero divisor entry would bake an infinite row into
				// the folded matrix.
				for _, x := range o.Values.Data {
					if x == 0 {
						return nil, false, nil
					}
				}
			}
			folded, err = kernels.RowScale(mv, o.Values, divide)
		default:
			return nil, false, nil
		}
		if err != nil {
			return nil, false, err
		}
		out, err := expr.MatMul(literal(folded, b.Left.Units(), b.Left.Domain()), b.Right)
		return out, err == nil, err
	}

	if out, ok, err := try(n.Left, n.Right, n.Kind() == expr.KindDiv); ok || err != nil {
		return out, ok, err
	}
	if n.Kind() == expr.KindMul {
		if out, ok, err := try(n.Right, n.Left, false); ok || err != nil {
			return out, ok, err
		}
	}
	return nil, false, nil
}

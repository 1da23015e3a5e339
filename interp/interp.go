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

// Package interp evaluates expression nodes directly, without compilation.
// This is the interpreted execution mode used by the solver for residual
// and Jacobian computation.
//
// Evaluation is a pure recursive walk over the DAG. Shared subtrees are
// computed once per call through a memo map keyed by node id; the memo is
// local to the call, so concurrent evaluations need no synchronization.
package interp

import (
	"github.com/pkg/errors"

	"github.com/daex-org/daex/expr"
	"github.com/daex-org/daex/kernels"
)

// Inputs binds parameter and input-parameter names to values.
type Inputs map[string]float64

// Evaluate computes the numeric value of n at time t, state y and the given
// parameter bindings.
func Evaluate(n expr.Node, t float64, y []float64, inputs Inputs) (kernels.Value, error) {
	e := &evaluator{t: t, y: y, inputs: inputs, memo: map[uint64]kernels.Value{}}
	return e.eval(n)
}

type evaluator struct {
	t      float64
	y      []float64
	inputs Inputs
	memo   map[uint64]kernels.Value
}

func (e *evaluator) eval(n expr.Node) (kernels.Value, error) {
	if v, ok := e.memo[n.ID()]; ok {
		return v, nil
	}
	v, err := e.evalNode(n)
	if err != nil {
		return nil, err
	}
	e.memo[n.ID()] = v
	return v, nil
}

func (e *evaluator) evalNode(n expr.Node) (kernels.Value, error) {
	switch n := n.(type) {
	case *expr.Scalar:
		return kernels.Scalar(n.Value), nil
	case *expr.Vector:
		return n.Values, nil
	case *expr.Matrix:
		return n.Value, nil
	case *expr.Time:
		return kernels.Scalar(e.t), nil
	case *expr.Parameter:
		return e.lookup(n.Name, n)
	case *expr.InputParameter:
		return e.lookup(n.Name, n)
	case *expr.StateVector:
		return e.slice(n)
	case *expr.Binary:
		return e.evalBinary(n)
	case *expr.Negate:
		v, err := e.eval(n.Child)
		if err != nil {
			return nil, err
		}
		return kernels.Neg(v), nil
	case *expr.Function:
		return e.evalFunction(n)
	case *expr.Index:
		v, err := e.eval(n.Child)
		if err != nil {
			return nil, err
		}
		return kernels.IndexAt(v, n.I)
	case *expr.Concatenation:
		vs, err := e.evalAll(n.Children())
		if err != nil {
			return nil, err
		}
		return kernels.Concat(vs...)
	case *expr.FlatConcatenation:
		vs, err := e.evalAll(n.Children())
		if err != nil {
			return nil, err
		}
		return kernels.Concat(vs...)
	case *expr.DomainConcatenation:
		return e.evalDomainConcat(n)
	case *expr.SparseStack:
		vs, err := e.evalAll(n.Children())
		if err != nil {
			return nil, err
		}
		return kernels.SparseStack(vs...)
	case *expr.Variable, *expr.VariableDot, *expr.Symbol,
		*expr.FunctionParameter, *expr.SpatialOperator:
		return nil, errors.Wrapf(expr.ErrNotImplemented,
			"cannot evaluate %s node %s before it is resolved", n.Kind(), n)
	}
	return nil, errors.Wrapf(expr.ErrNotImplemented, "cannot evaluate node %s", n)
}

func (e *evaluator) evalAll(children []expr.Node) ([]kernels.Value, error) {
	vs := make([]kernels.Value, len(children))
	for i, c := range children {
		v, err := e.eval(c)
		if err != nil {
			return nil, err
		}
		vs[i] = v
	}
	return vs, nil
}

func (e *evaluator) lookup(name string, n expr.Node) (kernels.Value, error) {
	v, ok := e.inputs[name]
	if !ok {
		return nil, errors.Wrapf(expr.ErrUnresolvedParameter, "no value bound for %s", n)
	}
	return kernels.Scalar(v), nil
}

func (e *evaluator) slice(n *expr.StateVector) (kernels.Value, error) {
	data := make([]float64, 0, n.Shape().Rows)
	for _, s := range n.Slices {
		if s.Stop > len(e.y) {
			return nil, errors.Wrapf(expr.ErrShape,
				"state slice %s out of range for state of length %d", s, len(e.y))
		}
		data = append(data, e.y[s.Start:s.Stop]...)
	}
	return kernels.NewVector(data), nil
}

func (e *evaluator) evalBinary(n *expr.Binary) (kernels.Value, error) {
	l, err := e.eval(n.Left)
	if err != nil {
		return nil, err
	}
	r, err := e.eval(n.Right)
	if err != nil {
		return nil, err
	}
	var v kernels.Value
	switch n.Kind() {
	case expr.KindAdd:
		v, err = kernels.Add(l, r)
	case expr.KindSub:
		v, err = kernels.Sub(l, r)
	case expr.KindMul, expr.KindInner:
		v, err = kernels.Mul(l, r)
	case expr.KindDiv:
		v, err = kernels.Div(l, r)
	case expr.KindPow:
		v, err = kernels.Pow(l, r)
	case expr.KindMatMul:
		v, err = kernels.MatMul(l, r)
	case expr.KindMinimum:
		v, err = kernels.Minimum(l, r)
	case expr.KindMaximum:
		v, err = kernels.Maximum(l, r)
	case expr.KindLess:
		v, err = kernels.Less(l, r)
	case expr.KindLessEqual:
		v, err = kernels.LessEqual(l, r)
	case expr.KindGreater:
		v, err = kernels.Greater(l, r)
	case expr.KindGreaterEqual:
		v, err = kernels.GreaterEqual(l, r)
	default:
		return nil, errors.Wrapf(expr.ErrNotImplemented, "cannot evaluate operator %s", n.Kind())
	}
	if err != nil {
		return nil, errors.Wrapf(err, "evaluating %s", n)
	}
	return v, nil
}

func (e *evaluator) evalFunction(n *expr.Function) (kernels.Value, error) {
	v, err := e.eval(n.Child)
	if err != nil {
		return nil, err
	}
	switch n.Fn {
	case expr.FuncMin:
		return kernels.Min(v), nil
	case expr.FuncMax:
		return kernels.Max(v), nil
	}
	return kernels.Apply(n.Fn.Func(), v), nil
}

func (e *evaluator) evalDomainConcat(n *expr.DomainConcatenation) (kernels.Value, error) {
	vs := make([]kernels.Value, len(n.Children()))
	for i, c := range n.Children() {
		v, err := e.eval(c)
		if err != nil {
			return nil, err
		}
		if rows, _ := v.Dims(); rows != n.Sizes[i] {
			return nil, errors.Wrapf(expr.ErrShape,
				"%s evaluated to %d rows but its domain section has %d mesh points", c, rows, n.Sizes[i])
		}
		vs[i] = v
	}
	return kernels.Concat(vs...)
}

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
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/daex-org/daex/units"
)

func renderChildren(children []Node) string {
	parts := make([]string, len(children))
	for i, c := range children {
		parts[i] = c.String()
	}
	return strings.Join(parts, ", ")
}

// concatShape sums the children's row counts. The result is unknown if any
// child's extent is unknown.
func concatShape(children []Node) (Shape, error) {
	rows, cols := 0, 1
	for i, c := range children {
		s := c.Shape()
		if !s.Known() {
			return UnknownShape, nil
		}
		if i == 0 {
			cols = s.Cols
		} else if s.Cols != cols {
			return Shape{}, errors.Wrapf(ErrShape, "cannot concatenate %s with %d columns after %d columns",
				c, s.Cols, cols)
		}
		rows += s.Rows
	}
	return Shape{Rows: rows, Cols: cols}, nil
}

// concatUnits requires every child to carry the same units, as addition
// does.
func concatUnits(children []Node) (units.Units, error) {
	var err error
	u := children[0].Units()
	for _, c := range children[1:] {
		if !u.Equal(c.Units()) {
			err = multierr.Append(err, errors.Wrapf(units.Err,
				"cannot concatenate %s with units %s after units %s", c, c.Units(), u))
		}
	}
	if err != nil {
		return units.Units{}, err
	}
	return u, nil
}

// Concatenation joins variables defined over adjacent domains into one
// quantity over the combined domain. Children must each live on a distinct,
// non-empty domain.
type Concatenation struct {
	symbol
}

// NewConcatenation returns the domain-ordered concatenation of children.
func NewConcatenation(children ...Node) (*Concatenation, error) {
	if len(children) == 0 {
		return nil, errors.Wrap(ErrShape, "cannot concatenate zero nodes")
	}
	var err error
	seen := map[string]bool{}
	var regions []string
	for _, c := range children {
		if c.Domain().IsEmpty() {
			err = multierr.Append(err, errors.Wrapf(ErrDomain,
				"cannot concatenate %s without a domain", c))
			continue
		}
		for _, region := range c.Domain().Primary {
			if seen[region] {
				err = multierr.Append(err, errors.Wrapf(ErrDomain,
					"domain %q appears twice in concatenation of %s", region, renderChildren(children)))
			}
			seen[region] = true
			regions = append(regions, region)
		}
	}
	if err != nil {
		return nil, err
	}
	u, err := concatUnits(children)
	if err != nil {
		return nil, err
	}
	shape, err := concatShape(children)
	if err != nil {
		return nil, err
	}
	n := &Concatenation{}
	n.kind = KindConcatenation
	n.children = append([]Node{}, children...)
	n.domain = Domain{Primary: regions, Secondary: children[0].Domain().Secondary}
	n.units = u
	n.shape = shape
	n.id = hashNode(KindConcatenation, nil, children...)
	return n, nil
}

// String renders the concatenation.
func (n *Concatenation) String() string {
	return "concatenation(" + renderChildren(n.children) + ")"
}

// FlatConcatenation joins the raw evaluated arrays of its children in
// order, with no domain bookkeeping. This is the assembly form used for the
// final residual vector handed to the solver.
type FlatConcatenation struct {
	symbol
}

// NewFlatConcatenation returns the raw vertical concatenation of children.
func NewFlatConcatenation(children ...Node) (*FlatConcatenation, error) {
	if len(children) == 0 {
		return nil, errors.Wrap(ErrShape, "cannot concatenate zero nodes")
	}
	shape, err := concatShape(children)
	if err != nil {
		return nil, err
	}
	n := &FlatConcatenation{}
	n.kind = KindFlatConcatenation
	n.children = append([]Node{}, children...)
	n.shape = shape
	n.id = hashNode(KindFlatConcatenation, nil, children...)
	return n, nil
}

// String renders the concatenation.
func (n *FlatConcatenation) String() string {
	return "flat_concatenation(" + renderChildren(n.children) + ")"
}

// DomainConcatenation joins per-region quantities into one array whose row
// layout follows the mesh: child i fills Sizes[i] rows in domain order.
// The sizes come from the bound mesh, so the result's extent is always
// known.
type DomainConcatenation struct {
	symbol

	// Sizes is the number of mesh points each child covers.
	Sizes []int
}

// NewDomainConcatenation returns the mesh-ordered concatenation of
// children, where sizes lists the number of rows each child occupies.
func NewDomainConcatenation(children []Node, sizes []int) (*DomainConcatenation, error) {
	if len(children) == 0 || len(children) != len(sizes) {
		return nil, errors.Wrapf(ErrShape, "domain concatenation needs one size per child, got %d children and %d sizes",
			len(children), len(sizes))
	}
	var err error
	rows := 0
	for i, c := range children {
		if s := c.Shape(); s.Known() && s.Rows != sizes[i] {
			err = multierr.Append(err, errors.Wrapf(ErrShape,
				"%s has %d rows but its domain section has %d mesh points", c, s.Rows, sizes[i]))
		}
		rows += sizes[i]
	}
	if err != nil {
		return nil, err
	}
	u, err := concatUnits(children)
	if err != nil {
		return nil, err
	}
	var regions []string
	for _, c := range children {
		regions = append(regions, c.Domain().Primary...)
	}
	n := &DomainConcatenation{Sizes: append([]int{}, sizes...)}
	n.kind = KindDomainConcatenation
	n.children = append([]Node{}, children...)
	n.domain = Domain{Primary: regions}
	n.units = u
	n.shape = Shape{Rows: rows, Cols: 1}
	n.id = hashNode(KindDomainConcatenation, intPayload(sizes...), children...)
	return n, nil
}

// String renders the concatenation.
func (n *DomainConcatenation) String() string {
	return "domain_concatenation(" + renderChildren(n.children) + ")"
}

// SparseStack stacks matrix-valued children vertically into one sparse
// matrix, the assembly form for block Jacobians.
type SparseStack struct {
	symbol
}

// NewSparseStack returns the vertical sparse stack of children.
func NewSparseStack(children ...Node) (*SparseStack, error) {
	if len(children) == 0 {
		return nil, errors.Wrap(ErrShape, "cannot stack zero nodes")
	}
	shape, err := concatShape(children)
	if err != nil {
		return nil, err
	}
	n := &SparseStack{}
	n.kind = KindSparseStack
	n.children = append([]Node{}, children...)
	n.shape = shape
	n.id = hashNode(KindSparseStack, nil, children...)
	return n, nil
}

// String renders the stack.
func (n *SparseStack) String() string {
	return "sparse_stack(" + renderChildren(n.children) + ")"
}

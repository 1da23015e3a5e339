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

	"github.com/pkg/errors"
)

// SpatialOperator is a continuous operator (gradient, divergence, integral,
// boundary value, delta function) awaiting discretization. Until a mesh
// binds it to concrete sparse matrices it cannot be evaluated or compiled;
// simplification passes it through with simplified children, except over a
// constant operand where gradient and divergence fold to zero.
type SpatialOperator struct {
	symbol
	Child Node

	// Side is the boundary side for boundary values and delta functions
	// ("left" or "right").
	Side string

	// Region names the integration region or spatial variable.
	Region string
}

func newSpatial(kind Kind, c Node, side, region string, domain Domain, shape Shape) *SpatialOperator {
	n := &SpatialOperator{Child: c, Side: side, Region: region}
	n.kind = kind
	n.children = []Node{c}
	n.domain = domain
	n.units = c.Units()
	n.shape = shape
	n.id = hashNode(kind, []byte(side+"\x00"+region), c)
	return n
}

// NewGradient returns the spatial gradient of c. The operand must live on a
// domain.
func NewGradient(c Node) (*SpatialOperator, error) {
	if c.Domain().IsEmpty() && !c.Shape().IsScalar() {
		return nil, errors.Wrapf(ErrDomain, "cannot take gradient of %s without a domain", c)
	}
	return newSpatial(KindGradient, c, "", "", c.Domain(), UnknownShape), nil
}

// NewDivergence returns the spatial divergence of c.
func NewDivergence(c Node) (*SpatialOperator, error) {
	if c.Domain().IsEmpty() && !c.Shape().IsScalar() {
		return nil, errors.Wrapf(ErrDomain, "cannot take divergence of %s without a domain", c)
	}
	return newSpatial(KindDivergence, c, "", "", c.Domain(), UnknownShape), nil
}

// NewIntegral returns the integral of c over the spatial variable named by
// region. The result has no spatial extent.
func NewIntegral(c Node, region string) *SpatialOperator {
	return newSpatial(KindIntegral, c, "", region, EmptyDomain, UnknownShape)
}

// NewBoundaryIntegral returns the integral of c over the named boundary
// region.
func NewBoundaryIntegral(c Node, region string) *SpatialOperator {
	return newSpatial(KindBoundaryIntegral, c, "", region, EmptyDomain, UnknownShape)
}

// NewBoundaryValue returns the value of c at the given side of its domain.
func NewBoundaryValue(c Node, side string) *SpatialOperator {
	return newSpatial(KindBoundaryValue, c, side, "", EmptyDomain, UnknownShape)
}

// NewDeltaFunction returns c localized at the given side of the named
// domain.
func NewDeltaFunction(c Node, side string, domain Domain) *SpatialOperator {
	return newSpatial(KindDeltaFunction, c, side, "", domain, UnknownShape)
}

// WithChild returns the same operator applied to a different child,
// keeping the side, region and domain. Used by rewriters that simplify the
// operand of an inert operator.
func (n *SpatialOperator) WithChild(c Node) *SpatialOperator {
	return newSpatial(n.kind, c, n.Side, n.Region, n.domain, n.shape)
}

// String renders the operator applied to its child.
func (n *SpatialOperator) String() string {
	switch n.kind {
	case KindGradient:
		return fmt.Sprintf("grad(%s)", n.Child)
	case KindDivergence:
		return fmt.Sprintf("div(%s)", n.Child)
	case KindIntegral:
		return fmt.Sprintf("integral(%s, %s)", n.Child, n.Region)
	case KindBoundaryIntegral:
		return fmt.Sprintf("boundary_integral(%s, %s)", n.Child, n.Region)
	case KindBoundaryValue:
		return fmt.Sprintf("boundary_value(%s, %s)", n.Child, n.Side)
	case KindDeltaFunction:
		return fmt.Sprintf("delta(%s, %s)", n.Child, n.Side)
	}
	return fmt.Sprintf("spatial(%s)", n.Child)
}

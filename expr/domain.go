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
	"slices"
	"strings"
)

// Domain is the spatial region(s) a node is defined over. Secondary and
// tertiary regions extend the primary one for multi-scale quantities
// (e.g. a particle variable within an electrode within a current
// collector).
type Domain struct {
	Primary   []string
	Secondary []string
	Tertiary  []string
}

// EmptyDomain is the domain of scalars and other region-free quantities.
var EmptyDomain = Domain{}

// OnDomain returns a Domain over the given primary regions.
func OnDomain(regions ...string) Domain {
	return Domain{Primary: regions}
}

// IsEmpty reports whether no region is set.
func (d Domain) IsEmpty() bool {
	return len(d.Primary) == 0 && len(d.Secondary) == 0 && len(d.Tertiary) == 0
}

// Equal reports whether both domains list the same regions at every level.
func (d Domain) Equal(o Domain) bool {
	return slices.Equal(d.Primary, o.Primary) &&
		slices.Equal(d.Secondary, o.Secondary) &&
		slices.Equal(d.Tertiary, o.Tertiary)
}

// String renders the domain for error messages and structural hashing.
func (d Domain) String() string {
	if d.IsEmpty() {
		return "()"
	}
	s := "(" + strings.Join(d.Primary, ",")
	if len(d.Secondary) > 0 {
		s += ";" + strings.Join(d.Secondary, ",")
	}
	if len(d.Tertiary) > 0 {
		s += ";" + strings.Join(d.Tertiary, ",")
	}
	return s + ")"
}

// combineDomains returns the domain of a node combining operands over a and
// b. An empty domain broadcasts onto any other; otherwise the domains must
// be equal.
func combineDomains(a, b Domain) (Domain, bool) {
	if a.IsEmpty() {
		return b, true
	}
	if b.IsEmpty() || a.Equal(b) {
		return a, true
	}
	return Domain{}, false
}

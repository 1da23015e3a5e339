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

// Package units implements the dimensional algebra attached to expression
// nodes. A Units value is a map from base-unit name to integer exponent,
// kept in a canonical form: derived units (joule, watt, coulomb, farad,
// siemens, ohm) are decomposed into the base set on construction and no
// stored exponent is zero.
package units

import (
	"maps"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	expmaps "golang.org/x/exp/maps"
)

// Err is wrapped by every error returned from this package.
var Err = errors.New("units error")

// Canonical base units. Volt is kept as a base unit: the electrochemical
// models this package serves express most derived quantities more naturally
// over {A, V} than over {kg, m2, s-3}.
var baseUnits = []string{"m", "kg", "s", "A", "K", "mol", "cd", "h", "V"}

// Derived units accepted on input and decomposed into the base set.
var derivedUnits = []string{"J", "W", "S", "F", "C", "Ohm"}

func known(name string) bool {
	for _, u := range baseUnits {
		if u == name {
			return true
		}
	}
	for _, u := range derivedUnits {
		if u == name {
			return true
		}
	}
	return false
}

// Units is an immutable dimensional exponent vector.
// The zero value is dimensionless.
type Units struct {
	dims map[string]int
}

// Dimensionless returns the empty unit vector.
func Dimensionless() Units {
	return Units{}
}

// New builds a Units value from an exponent map. The map is reformatted into
// canonical form; zero exponents are dropped. Unknown unit names are an
// error.
func New(dims map[string]int) (Units, error) {
	for name := range dims {
		if !known(name) {
			return Units{}, errors.Wrapf(Err, "unit %q not recognized (known units: %s, %s)",
				name, strings.Join(baseUnits, ","), strings.Join(derivedUnits, ","))
		}
	}
	return Units{dims: reformat(dims)}, nil
}

var unitToken = regexp.MustCompile(`^([a-zA-Z]+)(-?[0-9]+)?$`)

// Parse reads the canonical bracketed string form, e.g. "[m.s-1]" or "[-]"
// for dimensionless. Derived units are accepted and decomposed, so
// Parse("[J.C-1]") equals Parse("[V]").
func Parse(s string) (Units, error) {
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return Units{}, errors.Wrapf(Err, "units should start with '[' and end with ']' (found %q)", s)
	}
	body := s[1 : len(s)-1]
	if body == "" || body == "-" {
		return Units{}, nil
	}
	dims := map[string]int{}
	for _, tok := range strings.Split(body, ".") {
		m := unitToken.FindStringSubmatch(tok)
		if m == nil {
			return Units{}, errors.Wrapf(Err, "cannot parse unit token %q in %q", tok, s)
		}
		name := m[1]
		amount := 1
		if m[2] != "" {
			var err error
			amount, err = strconv.Atoi(m[2])
			if err != nil {
				return Units{}, errors.Wrapf(Err, "cannot parse exponent in unit token %q", tok)
			}
		}
		if !known(name) {
			return Units{}, errors.Wrapf(Err, "unit %q not recognized (known units: %s, %s)",
				name, strings.Join(baseUnits, ","), strings.Join(derivedUnits, ","))
		}
		dims[name] += amount
	}
	return Units{dims: reformat(dims)}, nil
}

// MustParse is Parse for statically known strings. It panics on error.
func MustParse(s string) Units {
	u, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return u
}

// reformat decomposes derived units into the canonical base set and drops
// zero exponents. Order matters: F introduces C, J and F introduce V and C,
// so C is decomposed last among the coulomb-producing rules.
func reformat(dims map[string]int) map[string]int {
	out := map[string]int{}
	maps.Copy(out, dims)
	if n := out["J"]; n != 0 {
		delete(out, "J")
		out["V"] += n
		out["C"] += n
	}
	if n := out["F"]; n != 0 {
		delete(out, "F")
		out["C"] += n
		out["V"] -= n
	}
	if n := out["C"]; n != 0 {
		delete(out, "C")
		out["A"] += n
		out["s"] += n
	}
	if n := out["W"]; n != 0 {
		delete(out, "W")
		out["V"] += n
		out["A"] += n
	}
	if n := out["S"]; n != 0 {
		delete(out, "S")
		out["A"] += n
		out["V"] -= n
	}
	if n := out["Ohm"]; n != 0 {
		delete(out, "Ohm")
		out["V"] += n
		out["A"] -= n
	}
	for name, amount := range out {
		if amount == 0 {
			delete(out, name)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// IsDimensionless reports whether no unit carries a non-zero exponent.
func (u Units) IsDimensionless() bool {
	return len(u.dims) == 0
}

// Equal reports exact equality of the canonical exponent maps.
func (u Units) Equal(o Units) bool {
	return maps.Equal(u.dims, o.dims)
}

// Add composes units under addition: both operands must carry the same
// units.
func (u Units) Add(o Units) (Units, error) {
	if !u.Equal(o) {
		return Units{}, errors.Wrapf(Err, "cannot add different units %s and %s", u, o)
	}
	return u, nil
}

// Sub composes units under subtraction: both operands must carry the same
// units.
func (u Units) Sub(o Units) (Units, error) {
	if !u.Equal(o) {
		return Units{}, errors.Wrapf(Err, "cannot subtract different units %s and %s", u, o)
	}
	return u, nil
}

// Mul composes units under multiplication by summing exponents.
func (u Units) Mul(o Units) Units {
	dims := map[string]int{}
	maps.Copy(dims, u.dims)
	for name, amount := range o.dims {
		dims[name] += amount
	}
	return Units{dims: reformat(dims)}
}

// Div composes units under division by subtracting exponents.
func (u Units) Div(o Units) Units {
	dims := map[string]int{}
	maps.Copy(dims, u.dims)
	for name, amount := range o.dims {
		dims[name] -= amount
	}
	return Units{dims: reformat(dims)}
}

// Pow multiplies every exponent by power. Only integer powers are defined
// for dimensioned operands.
func (u Units) Pow(power int) Units {
	dims := map[string]int{}
	for name, amount := range u.dims {
		dims[name] = amount * power
	}
	return Units{dims: reformat(dims)}
}

// String returns the canonical bracketed form: positive exponents sorted by
// name, then negative exponents sorted by name, exponent 1 omitted, "[-]"
// for dimensionless. The form is deterministic and usable as a cache key.
func (u Units) String() string {
	if len(u.dims) == 0 {
		return "[-]"
	}
	names := expmaps.Keys(u.dims)
	sort.Strings(names)
	var parts []string
	for _, name := range names {
		if amount := u.dims[name]; amount == 1 {
			parts = append(parts, name)
		} else if amount > 1 {
			parts = append(parts, name+strconv.Itoa(amount))
		}
	}
	for _, name := range names {
		if amount := u.dims[name]; amount < 0 {
			parts = append(parts, name+strconv.Itoa(amount))
		}
	}
	return "[" + strings.Join(parts, ".") + "]"
}

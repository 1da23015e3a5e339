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

package kernels

import "math"

// Apply applies f elementwise. Sparse operands are densified because f need
// not map zero to zero.
func Apply(f func(float64) float64, v Value) Value {
	if s, ok := v.(Scalar); ok {
		return Scalar(f(float64(s)))
	}
	d := ToDense(v)
	z := make([]float64, len(d.Data))
	for i, x := range d.Data {
		z[i] = f(x)
	}
	return NewDense(d.Rows, d.Cols, z)
}

// Neg returns -v. Sparsity is preserved.
func Neg(v Value) Value {
	if m, ok := v.(*CSR); ok {
		return scaleCSR(m, func(x float64) float64 { return -x })
	}
	return Apply(func(x float64) float64 { return -x }, v)
}

// Min returns the smallest entry of v.
func Min(v Value) Scalar {
	if s, ok := v.(Scalar); ok {
		return s
	}
	min := math.Inf(1)
	for _, x := range Flatten(v) {
		min = math.Min(min, x)
	}
	return Scalar(min)
}

// Max returns the largest entry of v.
func Max(v Value) Scalar {
	if s, ok := v.(Scalar); ok {
		return s
	}
	max := math.Inf(-1)
	for _, x := range Flatten(v) {
		max = math.Max(max, x)
	}
	return Scalar(max)
}

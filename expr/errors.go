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
	"github.com/pkg/errors"

	"github.com/daex-org/daex/kernels"
	"github.com/daex-org/daex/units"
)

// Sentinels for the error taxonomy. Unit errors wrap units.Err and shape
// errors wrap kernels.ErrShape so a caller can match any failure with
// errors.Is regardless of the package it originated in.
var (
	// ErrDomain reports incompatible spatial domains combined in one
	// operation.
	ErrDomain = errors.New("domain error")

	// ErrUnresolvedParameter reports a named parameter or input missing at
	// evaluation or compilation time.
	ErrUnresolvedParameter = errors.New("unresolved parameter")

	// ErrNotImplemented reports an operation requested for a node kind that
	// defines none, such as evaluating an abstract placeholder.
	ErrNotImplemented = errors.New("not implemented")

	// ErrUnits is the unit-mismatch sentinel, re-exported from the units
	// package.
	ErrUnits = units.Err

	// ErrShape is the shape-mismatch sentinel, re-exported from the kernels
	// package.
	ErrShape = kernels.ErrShape

	// ErrZeroDivision reports a division whose denominator is a literal
	// zero.
	ErrZeroDivision = errors.New("division by zero")
)

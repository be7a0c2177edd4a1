// Copyright 2021 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ssacfg

import (
	"github.com/google/go-secret-flow/internal/pkg/dataflow"
	"github.com/google/go-secret-flow/internal/pkg/propagation"
	"github.com/google/go-secret-flow/internal/pkg/report"
	"github.com/google/go-secret-flow/internal/pkg/taint"
	"golang.org/x/tools/go/ssa"
)

// Analyze builds the graph of fn and propagates secrets through it.
// Leaks are reported to r with fn as their procedure.
// It returns ErrNoBody, wrapped, if fn has no body.
func Analyze(fn *ssa.Function, r report.Reporter, opts propagation.Options) (*Graph, *dataflow.Result[taint.Set], error) {
	g, err := New(fn)
	if err != nil {
		return nil, nil, err
	}
	res, err := propagation.New(fn, r, NewClassifier(), opts).Run(g)
	if err != nil {
		return nil, nil, err
	}
	return g, res, nil
}

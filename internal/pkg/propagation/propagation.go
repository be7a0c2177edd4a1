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

// Package propagation tracks secrets through the statements of a single
// procedure and reports the places where they escape it.
//
// A variable becomes tainted when it is assigned the result of the secret
// operation, or a copy of a tainted variable. It is cleaned when a constant
// is assigned to it. A tainted variable escapes when it is passed to a
// virtual call or returned.
package propagation

import (
	"fmt"

	"github.com/google/go-secret-flow/internal/pkg/cfg"
	"github.com/google/go-secret-flow/internal/pkg/dataflow"
	"github.com/google/go-secret-flow/internal/pkg/ir"
	"github.com/google/go-secret-flow/internal/pkg/report"
	"github.com/google/go-secret-flow/internal/pkg/taint"
	"github.com/rs/zerolog"
)

// DefaultSecretOperation is the secret operation used when none is configured.
const DefaultSecretOperation = "getSecret"

// Options configure an Analysis.
type Options struct {
	// SecretOperation is the name of the statically bound call whose result
	// is a secret. Names are matched without regard to case.
	SecretOperation string

	// Logger receives debug and trace events. Logging is disabled if nil.
	Logger *zerolog.Logger
}

// An Analysis propagates secrets through one procedure.
// It is not safe for concurrent use; analyze procedures in parallel with
// one Analysis each.
type Analysis struct {
	proc       report.Procedure
	reporter   report.Reporter
	classifier ir.Classifier
	secretOp   string
	logger     zerolog.Logger

	// reported holds the leaks already sent to the reporter during Run.
	reported map[leak]bool
}

type leak struct {
	origin, site cfg.Node
}

// New returns an Analysis of proc. Leaks are sent to reporter, and the
// shape of each statement is obtained from classifier.
func New(proc report.Procedure, reporter report.Reporter, classifier ir.Classifier, opts Options) *Analysis {
	a := &Analysis{
		proc:       proc,
		reporter:   reporter,
		classifier: classifier,
		secretOp:   opts.SecretOperation,
		logger:     zerolog.Nop(),
		reported:   map[leak]bool{},
	}
	if a.secretOp == "" {
		a.secretOp = DefaultSecretOperation
	}
	if opts.Logger != nil {
		a.logger = opts.Logger.With().Stringer("procedure", proc).Logger()
	}
	return a
}

// Run analyzes the procedure whose control-flow graph is g, and returns the
// facts holding before and after each statement.
// Each distinct (origin, site) leak is reported once.
func (a *Analysis) Run(g cfg.Graph) (*dataflow.Result[taint.Set], error) {
	a.reported = map[leak]bool{}
	a.logger.Debug().Int("statements", len(g.Nodes())).Msg("analyzing procedure")

	solver := &dataflow.Forward[taint.Set]{
		Lattice:  taint.Lattice{},
		Transfer: a.Transfer,
		OnChange: func(n cfg.Node, prev, next taint.Set) {
			a.logger.Trace().Stringer("statement", n).Stringer("facts", next).Msg("facts changed")
		},
	}
	res, err := solver.Solve(g)
	if err != nil {
		return nil, fmt.Errorf("analyzing %v: %w", a.proc, err)
	}
	a.logger.Debug().
		Int("evaluations", res.Evaluations).
		Int("leaks", len(a.reported)).
		Msg("fixpoint reached")
	return res, nil
}

// Transfer computes the facts holding after n from the facts in holding
// before it, and reports the leaks that happen at n. It does not modify in.
func (a *Analysis) Transfer(n cfg.Node, in taint.Set) (taint.Set, error) {
	stmt := a.classifier.Classify(n)
	a.logger.Trace().Stringer("statement", n).Str("shape", shape(stmt)).Msg("transfer")

	t := &transfer{
		analysis: a,
		node:     n,
		in:       in,
		gen:      taint.Set{},
		kill:     taint.Set{},
	}
	ir.StmtSwitch(t, stmt)
	if t.err != nil {
		return nil, t.err
	}

	// Kills are applied once the whole statement has been scanned.
	out := make(taint.Set, len(in)+len(t.gen))
	for f := range in {
		if !t.kill.Has(f) {
			out.Add(f)
		}
	}
	for f := range t.gen {
		out.Add(f)
	}
	return out, nil
}

func (a *Analysis) report(origin, site cfg.Node) error {
	l := leak{origin: origin, site: site}
	if a.reported[l] {
		return nil
	}
	a.reported[l] = true
	a.logger.Debug().Stringer("origin", origin).Stringer("site", site).Msg("secret escapes")
	if err := a.reporter.Report(a.proc, origin, site); err != nil {
		return fmt.Errorf("reporting leak of %v at %v: %w", origin, site, err)
	}
	return nil
}

func shape(s ir.Stmt) string {
	if s == nil {
		return "<nil>"
	}
	return s.String()
}

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

package propagation

import (
	"strings"

	"github.com/google/go-secret-flow/internal/pkg/cfg"
	"github.com/google/go-secret-flow/internal/pkg/ir"
	"github.com/google/go-secret-flow/internal/pkg/taint"
)

// transfer visits the statement at node and the values it uses.
// It only reads in: facts to remove are collected in kill and facts to add
// in gen, and both are applied by Analysis.Transfer.
type transfer struct {
	analysis *Analysis
	node     cfg.Node
	in       taint.Set
	gen      taint.Set
	kill     taint.Set

	// def is the variable defined by the statement being visited, if any.
	def ir.Var
	err error
}

func (t *transfer) DoAssign(s *ir.Assign) {
	if len(s.Defs) == 0 {
		// Without a definition the uses can still let a secret escape.
		t.visitUses(s.Uses)
		return
	}
	t.def = s.Defs[0]
	if !t.def.IsValid() {
		t.def = ir.Var{}
	}
	t.visitUses(s.Uses)
}

func (t *transfer) DoInvoke(s *ir.Invoke) {
	t.def = ir.Var{}
	ir.ValueSwitch(t, s.Call)
}

func (t *transfer) DoReturn(s *ir.Return) {
	for _, r := range s.Results {
		if v, ok := r.(*ir.Variable); ok {
			t.escape(v.Var)
		}
	}
}

func (t *transfer) DoOther(*ir.Other) {}

func (t *transfer) visitUses(uses []ir.Value) {
	for _, u := range uses {
		ir.ValueSwitch(t, u)
	}
}

func (t *transfer) DoVirtualCall(c *ir.VirtualCall) {
	for _, a := range c.Args {
		if v, ok := a.(*ir.Variable); ok {
			t.escape(v.Var)
		}
	}
}

func (t *transfer) DoStaticCall(c *ir.StaticCall) {
	if !t.def.IsValid() || !strings.EqualFold(c.Method, t.analysis.secretOp) {
		return
	}
	// A fresh secret replaces whatever the variable held before.
	t.killDef()
	for f := range t.gen {
		if f.Var == t.def {
			t.gen.Remove(f)
		}
	}
	t.gen.Add(taint.NewFact(t.node, t.def))
}

func (t *transfer) DoConstant(*ir.Constant) {
	if t.def.IsValid() {
		t.killDef()
	}
}

func (t *transfer) DoVariable(v *ir.Variable) {
	if t.def.IsValid() && t.in.Tainted(v.Var) {
		t.gen.Add(taint.NewFact(t.node, t.def))
	}
}

func (t *transfer) DoOpaque(*ir.Opaque) {}

func (t *transfer) killDef() {
	for _, f := range t.in.Of(t.def) {
		t.kill.Add(f)
	}
}

// escape reports every secret held by v as leaking at the current node.
func (t *transfer) escape(v ir.Var) {
	if t.err != nil || !v.IsValid() {
		return
	}
	for _, f := range t.in.Facts() {
		if f.Var != v {
			continue
		}
		if err := t.analysis.report(f.Origin, t.node); err != nil {
			t.err = err
			return
		}
	}
}

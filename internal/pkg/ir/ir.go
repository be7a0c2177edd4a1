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

// Package ir describes statements by the shapes that matter to taint
// propagation. Statements and values are closed sets of variants: the only
// way to inspect them is through StmtOp and ValueOp, which must implement a
// method for every variant. Adding a variant therefore breaks the build of
// every consumer until it handles the new shape.
package ir

import (
	"fmt"
	"strings"

	"github.com/google/go-secret-flow/internal/pkg/cfg"
)

// A Stmt is one of *Assign, *Invoke, *Return or *Other.
type Stmt interface {
	fmt.Stringer
	accept(StmtOp)
}

// A StmtOp must implement methods for ALL statement shapes.
type StmtOp interface {
	DoAssign(*Assign)
	DoInvoke(*Invoke)
	DoReturn(*Return)
	DoOther(*Other)
}

// StmtSwitch calls the method of op matching the shape of s.
// A nil statement is treated as *Other.
func StmtSwitch(op StmtOp, s Stmt) {
	if s == nil {
		op.DoOther(&Other{})
		return
	}
	s.accept(op)
}

// Assign defines variables from the values it uses.
// Statements are single-assignment, so Defs holds at most one Var in practice.
type Assign struct {
	Defs []Var
	Uses []Value
}

// Invoke is a call whose result, if any, is not assigned.
type Invoke struct {
	Call Value
}

// Return yields values to the caller.
type Return struct {
	Results []Value
}

// Other is any statement that neither defines variables nor lets values
// escape: branches, jumps, no-ops.
type Other struct{}

func (s *Assign) accept(op StmtOp) { op.DoAssign(s) }
func (s *Invoke) accept(op StmtOp) { op.DoInvoke(s) }
func (s *Return) accept(op StmtOp) { op.DoReturn(s) }
func (s *Other) accept(op StmtOp)  { op.DoOther(s) }

func (s *Assign) String() string {
	var defs []string
	for _, d := range s.Defs {
		defs = append(defs, d.Name())
	}
	return fmt.Sprintf("%s := %s", strings.Join(defs, ", "), joinValues(s.Uses))
}

func (s *Invoke) String() string { return fmt.Sprintf("invoke %v", s.Call) }

func (s *Return) String() string { return "return " + joinValues(s.Results) }

func (s *Other) String() string { return "other" }

// A Value is one of *VirtualCall, *StaticCall, *Constant, *Variable or *Opaque.
type Value interface {
	fmt.Stringer
	accept(ValueOp)
}

// A ValueOp must implement methods for ALL value shapes.
type ValueOp interface {
	DoVirtualCall(*VirtualCall)
	DoStaticCall(*StaticCall)
	DoConstant(*Constant)
	DoVariable(*Variable)
	DoOpaque(*Opaque)
}

// ValueSwitch calls the method of op matching the shape of v.
// A nil value is treated as *Opaque.
func ValueSwitch(op ValueOp, v Value) {
	if v == nil {
		op.DoOpaque(&Opaque{})
		return
	}
	v.accept(op)
}

// VirtualCall is a call whose target is chosen at run time from the
// dynamic type of its receiver. Args does not include the receiver.
type VirtualCall struct {
	Method string
	Args   []Value
}

// StaticCall is a call whose target is fixed at compile time.
type StaticCall struct {
	Method string
	Args   []Value
}

// Constant is a literal.
type Constant struct {
	Text string
}

// Variable reads a local or a field.
type Variable struct {
	Var Var
}

// Opaque is any value the analysis does not look into, such as arithmetic,
// conversions and builtin calls.
type Opaque struct {
	Desc string
}

func (v *VirtualCall) accept(op ValueOp) { op.DoVirtualCall(v) }
func (v *StaticCall) accept(op ValueOp)  { op.DoStaticCall(v) }
func (v *Constant) accept(op ValueOp)    { op.DoConstant(v) }
func (v *Variable) accept(op ValueOp)    { op.DoVariable(v) }
func (v *Opaque) accept(op ValueOp)      { op.DoOpaque(v) }

func (v *VirtualCall) String() string {
	return fmt.Sprintf("virtual %s(%s)", v.Method, joinValues(v.Args))
}

func (v *StaticCall) String() string {
	return fmt.Sprintf("static %s(%s)", v.Method, joinValues(v.Args))
}

func (v *Constant) String() string { return v.Text }

func (v *Variable) String() string { return v.Var.Name() }

func (v *Opaque) String() string {
	if v.Desc == "" {
		return "?"
	}
	return "?" + v.Desc
}

func joinValues(vs []Value) string {
	var parts []string
	for _, v := range vs {
		if v == nil {
			parts = append(parts, "?")
			continue
		}
		parts = append(parts, v.String())
	}
	return strings.Join(parts, ", ")
}

// A Classifier tells the shape of the statement at a node.
type Classifier interface {
	Classify(n cfg.Node) Stmt
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(n cfg.Node) Stmt

func (f ClassifierFunc) Classify(n cfg.Node) Stmt { return f(n) }

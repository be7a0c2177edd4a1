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
	"go/token"
	"go/types"

	"github.com/google/go-secret-flow/internal/pkg/cfg"
	"github.com/google/go-secret-flow/internal/pkg/ir"
	"github.com/google/go-secret-flow/internal/pkg/utils"
	"github.com/google/go-secret-flow/internal/pkg/varargs"
	"golang.org/x/tools/go/ssa"
)

// A FieldSlot identifies a struct field. Accesses through any value of the
// struct type refer to the same slot.
type FieldSlot struct {
	Field *types.Var
	Owner string
}

func (s *FieldSlot) Name() string { return s.Owner + "." + s.Field.Name() }

// A Classifier gives the shape of SSA instructions.
// It caches its answers and is not safe for concurrent use.
type Classifier struct {
	stmts  map[cfg.Node]ir.Stmt
	fields map[*types.Var]*FieldSlot
}

func NewClassifier() *Classifier {
	return &Classifier{
		stmts:  map[cfg.Node]ir.Stmt{},
		fields: map[*types.Var]*FieldSlot{},
	}
}

// Classify returns the statement at n. Nodes that are not *Node are Other.
func (c *Classifier) Classify(n cfg.Node) ir.Stmt {
	if s, ok := c.stmts[n]; ok {
		return s
	}
	var s ir.Stmt = &ir.Other{}
	if node, ok := n.(*Node); ok {
		s = c.classify(node.Instr)
	}
	c.stmts[n] = s
	return s
}

func (c *Classifier) classify(instr ssa.Instruction) ir.Stmt {
	switch instr := instr.(type) {
	case *ssa.Call:
		call := c.call(instr.Common())
		if instr.Common().Signature().Results().Len() == 0 {
			return &ir.Invoke{Call: call}
		}
		return define(instr, call)

	case *ssa.Store:
		def, ok := c.addressed(instr.Addr)
		if !ok {
			return &ir.Other{}
		}
		return &ir.Assign{Defs: []ir.Var{def}, Uses: []ir.Value{operand(instr.Val)}}

	case *ssa.UnOp:
		if instr.Op != token.MUL {
			return define(instr, &ir.Opaque{Desc: instr.Op.String()})
		}
		src, ok := c.addressed(instr.X)
		if !ok {
			return define(instr, &ir.Opaque{Desc: "load"})
		}
		return define(instr, &ir.Variable{Var: src})

	case *ssa.Field:
		return define(instr, &ir.Variable{Var: c.field(instr.X.Type(), instr.Field)})

	case *ssa.Phi:
		return define(instr, operands(instr.Edges)...)

	case *ssa.MakeInterface:
		return define(instr, operand(instr.X))
	case *ssa.ChangeType:
		return define(instr, operand(instr.X))
	case *ssa.ChangeInterface:
		return define(instr, operand(instr.X))
	case *ssa.Extract:
		return define(instr, operand(instr.Tuple))

	case *ssa.Return:
		return &ir.Return{Results: operands(instr.Results)}

	case ssa.Value:
		return define(instr, &ir.Opaque{Desc: opcode(instr)})
	}
	return &ir.Other{}
}

func define(v ssa.Value, uses ...ir.Value) *ir.Assign {
	return &ir.Assign{Defs: []ir.Var{ir.Local(v)}, Uses: uses}
}

// call classifies the value of a call. Interface method calls and calls
// through function values are virtual; the receiver is not an argument.
// Variadic arguments count as arguments of the call.
func (c *Classifier) call(common *ssa.CallCommon) ir.Value {
	args := operands(varargs.Expand(common))
	if common.IsInvoke() {
		return &ir.VirtualCall{Method: common.Method.Name(), Args: args}
	}
	if b, ok := common.Value.(*ssa.Builtin); ok {
		return &ir.Opaque{Desc: b.Name()}
	}
	if callee := common.StaticCallee(); callee != nil {
		if o := callee.Origin(); o != nil {
			callee = o
		}
		return &ir.StaticCall{Method: callee.Name(), Args: args}
	}
	return &ir.VirtualCall{Method: common.Value.Name(), Args: args}
}

// addressed returns the variable stored at addr, if addr is a slot the
// analysis tracks: a local allocation, a struct field or a global.
func (c *Classifier) addressed(addr ssa.Value) (ir.Var, bool) {
	switch a := addr.(type) {
	case *ssa.Alloc:
		return ir.Local(a), true
	case *ssa.FieldAddr:
		v := c.field(a.X.Type(), a.Field)
		return v, v.IsValid()
	case *ssa.Global:
		return ir.Field(a), true
	}
	return ir.Var{}, false
}

func (c *Classifier) field(t types.Type, index int) ir.Var {
	t = utils.Dereference(t)
	st, ok := t.Underlying().(*types.Struct)
	if !ok || index >= st.NumFields() {
		return ir.Var{}
	}
	f := st.Field(index)
	if s, ok := c.fields[f]; ok {
		return ir.Field(s)
	}
	_, owner := utils.DecomposeType(t)
	if owner == "" {
		owner = "struct"
	}
	s := &FieldSlot{Field: f, Owner: owner}
	c.fields[f] = s
	return ir.Field(s)
}

func operand(v ssa.Value) ir.Value {
	if k, ok := v.(*ssa.Const); ok {
		if k.Value == nil {
			return &ir.Constant{Text: "nil"}
		}
		return &ir.Constant{Text: k.Value.ExactString()}
	}
	return &ir.Variable{Var: ir.Local(v)}
}

func operands(vs []ssa.Value) []ir.Value {
	out := make([]ir.Value, 0, len(vs))
	for _, v := range vs {
		out = append(out, operand(v))
	}
	return out
}

func opcode(v ssa.Value) string {
	switch v := v.(type) {
	case *ssa.BinOp:
		return v.Op.String()
	case *ssa.Convert:
		return "convert"
	case *ssa.TypeAssert:
		return "typeassert"
	case *ssa.Alloc:
		return "alloc"
	}
	return ""
}

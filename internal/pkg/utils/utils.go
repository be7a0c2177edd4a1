// Copyright 2020 Google LLC
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

// Package utils names the types and functions the analysis works with.
package utils

import (
	"fmt"
	"go/types"
	"strings"

	"golang.org/x/tools/go/ssa"
)

// Dereference strips any number of pointer indirections from t.
func Dereference(t types.Type) types.Type {
	for {
		p, ok := t.Underlying().(*types.Pointer)
		if !ok {
			return t
		}
		t = p.Elem()
	}
}

// DecomposeType returns the package path and name of a named type or an
// alias. Both are empty for other types.
func DecomposeType(t types.Type) (path, name string) {
	named, ok := t.(interface{ Obj() *types.TypeName })
	if !ok {
		return "", ""
	}
	obj := named.Obj()
	if obj.Pkg() != nil {
		path = obj.Pkg().Path()
	}
	return path, obj.Name()
}

// DecomposeFunction returns the package path, receiver type name and name
// of the function f belongs to, as written in its source: a closure
// belongs to the function declaring it and an instance of a generic
// function to the generic function. recv is empty for functions without a
// receiver, path for functions outside any package.
func DecomposeFunction(f *ssa.Function) (path, recv, name string) {
	for f.Parent() != nil {
		f = f.Parent()
	}
	if o := f.Origin(); o != nil {
		f = o
	}
	if f.Pkg != nil {
		path = f.Pkg.Pkg.Path()
	}
	if r := f.Signature.Recv(); r != nil {
		_, recv = DecomposeType(Dereference(r.Type()))
	}
	return path, recv, f.Name()
}

// CanonicalName describes an SSA node: "name = instruction" for
// instructions producing a value, the instruction or value alone
// otherwise.
func CanonicalName(n ssa.Node) string {
	v, isValue := n.(ssa.Value)
	instr, isInstr := n.(ssa.Instruction)
	switch {
	case isValue && isInstr && v.Name() != "":
		return v.Name() + " = " + instr.String()
	case isInstr:
		return instr.String()
	case isValue:
		return v.Name()
	}
	if m, ok := n.(ssa.Member); ok {
		return m.Name()
	}
	return ""
}

// TrimmedType returns the SSA node type of n, e.g. "Call" for *ssa.Call.
func TrimmedType(n ssa.Node) string {
	return strings.TrimPrefix(fmt.Sprintf("%T", n), "*ssa.")
}

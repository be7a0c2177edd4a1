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

package utils

import (
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"strings"
	"testing"

	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

const src = `package p

type foo struct{ name string }

type bar struct{ foo }

func (b *bar) Method() {}

func (b bar) Value() func() {
	return func() {}
}

func id[T any](v T) T { return v }

func useID() int { return id(1) }

func deref(p **foo) string { return (*p).name }

func plain() {}
`

func buildPackage(t *testing.T) *ssa.Package {
	t.Helper()
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "p.go", src, 0)
	if err != nil {
		t.Fatal(err)
	}
	pkg := types.NewPackage("example.com/p", "p")
	ssaPkg, _, err := ssautil.BuildPackage(
		&types.Config{Importer: importer.Default()}, fset, pkg, []*ast.File{f}, ssa.SanityCheckFunctions)
	if err != nil {
		t.Fatal(err)
	}
	return ssaPkg
}

func TestDereference(t *testing.T) {
	pkg := buildPackage(t)
	param := pkg.Func("deref").Params[0]

	got := Dereference(param.Type())
	if got.String() != "example.com/p.foo" {
		t.Errorf("Dereference(%v) = %v, want example.com/p.foo", param.Type(), got)
	}

	path, name := DecomposeType(got)
	if path != "example.com/p" || name != "foo" {
		t.Errorf("DecomposeType(%v) = %q, %q, want example.com/p, foo", got, path, name)
	}

	if path, name := DecomposeType(param.Type()); path != "" || name != "" {
		t.Errorf("DecomposeType(%v) = %q, %q, want empty strings for a pointer", param.Type(), path, name)
	}
}

func TestDecomposeFunction(t *testing.T) {
	pkg := buildPackage(t)
	barType := pkg.Type("bar").Type()
	method := pkg.Prog.MethodValue(pkg.Prog.MethodSets.MethodSet(types.NewPointer(barType)).Lookup(pkg.Pkg, "Method"))
	closure := pkg.Prog.MethodValue(pkg.Prog.MethodSets.MethodSet(barType).Lookup(pkg.Pkg, "Value")).AnonFuncs[0]
	instance := calledFunction(t, pkg.Func("useID"))

	testCases := []struct {
		fn                         *ssa.Function
		wantPath, wantRecv, wantFn string
	}{
		{pkg.Func("plain"), "example.com/p", "", "plain"},
		{method, "example.com/p", "bar", "Method"},
		{closure, "example.com/p", "bar", "Value"},
		{instance, "example.com/p", "", "id"},
	}
	for _, tt := range testCases {
		path, recv, name := DecomposeFunction(tt.fn)
		if path != tt.wantPath || recv != tt.wantRecv || name != tt.wantFn {
			t.Errorf("DecomposeFunction(%v) = %q, %q, %q, want %q, %q, %q", tt.fn, path, recv, name, tt.wantPath, tt.wantRecv, tt.wantFn)
		}
	}
}

// calledFunction returns the static callee of the first call in fn.
func calledFunction(t *testing.T, fn *ssa.Function) *ssa.Function {
	t.Helper()
	for _, b := range fn.Blocks {
		for _, instr := range b.Instrs {
			if c, ok := instr.(*ssa.Call); ok && c.Common().StaticCallee() != nil {
				return c.Common().StaticCallee()
			}
		}
	}
	t.Fatalf("no static call in %v", fn)
	return nil
}

func TestCanonicalName(t *testing.T) {
	fn := buildPackage(t).Func("deref")
	instrs := fn.Blocks[0].Instrs
	load, ret := instrs[0], instrs[len(instrs)-1]

	if got := CanonicalName(load.(ssa.Node)); !strings.HasPrefix(got, "t0 = *p") {
		t.Errorf("CanonicalName(load) = %q, want it to start with %q", got, "t0 = *p")
	}
	if got := CanonicalName(ret.(ssa.Node)); !strings.HasPrefix(got, "return ") {
		t.Errorf("CanonicalName(return) = %q, want it to start with %q", got, "return ")
	}
	if got := CanonicalName(fn.Params[0]); got != "p" {
		t.Errorf("CanonicalName(param) = %q, want p", got)
	}
	if got := TrimmedType(ret.(ssa.Node)); got != "Return" {
		t.Errorf("TrimmedType(return) = %q, want Return", got)
	}
}

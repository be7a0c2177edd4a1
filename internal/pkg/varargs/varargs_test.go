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

package varargs

import (
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

const src = `package p

func sink(prefix string, args ...interface{}) {}

func none() {
	sink("p")
}

func two(a, b string) {
	sink("p", a, b)
}

func spread(xs []interface{}) {
	sink("p", xs...)
}
`

func build(t *testing.T) *ssa.Package {
	t.Helper()
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "p.go", src, 0)
	if err != nil {
		t.Fatal(err)
	}
	pkg, _, err := ssautil.BuildPackage(
		&types.Config{Importer: importer.Default()}, fset, types.NewPackage("example.com/p", "p"), []*ast.File{f}, ssa.SanityCheckFunctions)
	if err != nil {
		t.Fatal(err)
	}
	return pkg
}

// firstCall returns the first call to sink in fn.
func firstCall(t *testing.T, fn *ssa.Function) *ssa.CallCommon {
	t.Helper()
	for _, b := range fn.Blocks {
		for _, instr := range b.Instrs {
			if c, ok := instr.(*ssa.Call); ok {
				if callee := c.Common().StaticCallee(); callee != nil && callee.Name() == "sink" {
					return c.Common()
				}
			}
		}
	}
	t.Fatalf("no call to sink in %v", fn)
	return nil
}

func names(vs []ssa.Value) []string {
	var out []string
	for _, v := range vs {
		// Members are the interface conversions of the arguments.
		if mi, ok := v.(*ssa.MakeInterface); ok {
			v = mi.X
		}
		out = append(out, v.Name())
	}
	return out
}

func TestMembers(t *testing.T) {
	pkg := build(t)
	testCases := []struct {
		fn     string
		want   []string
		wantOK bool
	}{
		{fn: "two", want: []string{"a", "b"}, wantOK: true},
		{fn: "none", want: nil, wantOK: false},
		{fn: "spread", want: nil, wantOK: false},
	}
	for _, tt := range testCases {
		t.Run(tt.fn, func(t *testing.T) {
			got, ok := Members(firstCall(t, pkg.Func(tt.fn)))
			if ok != tt.wantOK {
				t.Errorf("Members() ok = %v, want %v", ok, tt.wantOK)
			}
			if diff := cmp.Diff(tt.want, names(got)); diff != "" {
				t.Errorf("Members() diff (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExpand(t *testing.T) {
	pkg := build(t)
	got := names(Expand(firstCall(t, pkg.Func("two"))))
	// The constant prefix keeps its SSA name.
	want := []string{`"p":string`, "a", "b"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Expand() diff (-want +got):\n%s", diff)
	}
}

func TestExpandWithoutVariadicSlice(t *testing.T) {
	pkg := build(t)
	call := firstCall(t, pkg.Func("spread"))
	if got := Expand(call); len(got) != len(call.Args) {
		t.Errorf("Expand() = %v, want the arguments unchanged", got)
	}
}

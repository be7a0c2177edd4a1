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

// Package varargs recovers the values passed to a variadic parameter.
//
// SSA passes the variadic arguments of a call as a slice of a fresh array,
// filled by one IndexAddr/Store pair per argument before the call.
package varargs

import (
	"golang.org/x/tools/go/ssa"
)

// Members returns the values stored into the variadic slice of call, in
// argument order, and whether the call has such a slice. A call spreading
// an existing slice (f(xs...)) has none.
func Members(call *ssa.CallCommon) ([]ssa.Value, bool) {
	if !call.Signature().Variadic() || len(call.Args) == 0 {
		return nil, false
	}
	sl, ok := call.Args[len(call.Args)-1].(*ssa.Slice)
	if !ok {
		return nil, false
	}
	a, ok := sl.X.(*ssa.Alloc)
	if !ok || (a.Comment != "varargs" && a.Comment != "slicelit") {
		return nil, false
	}

	var members []ssa.Value
	for _, r := range *a.Referrers() {
		idx, ok := r.(*ssa.IndexAddr)
		if !ok || idx.Referrers() == nil {
			continue
		}
		for _, use := range *idx.Referrers() {
			if s, ok := use.(*ssa.Store); ok && s.Addr == idx {
				members = append(members, s.Val)
			}
		}
	}
	return members, true
}

// Expand returns the arguments of call with its variadic slice, if any,
// replaced by the values stored into it.
func Expand(call *ssa.CallCommon) []ssa.Value {
	members, ok := Members(call)
	if !ok {
		return call.Args
	}
	args := make([]ssa.Value, 0, len(call.Args)-1+len(members))
	args = append(args, call.Args[:len(call.Args)-1]...)
	return append(args, members...)
}

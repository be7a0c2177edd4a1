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

package ir

import "fmt"

// VarKind distinguishes locals from fields.
type VarKind uint8

const (
	invalidVar VarKind = iota
	// LocalVar is a variable of the procedure's own frame.
	LocalVar
	// FieldVar is a declared slot outside the frame: a struct field or a package-level variable.
	FieldVar
)

func (k VarKind) String() string {
	switch k {
	case LocalVar:
		return "local"
	case FieldVar:
		return "field"
	default:
		return "invalid"
	}
}

// A Var refers to a declared variable slot.
// Two Vars are equal iff they have the same kind and the same slot.
// The zero Var refers to nothing and is not valid.
type Var struct {
	kind VarKind
	slot interface{}
}

// Local returns a reference to a local slot.
// The slot must be comparable.
func Local(slot interface{}) Var {
	return Var{kind: LocalVar, slot: slot}
}

// Field returns a reference to a field slot.
// The slot must be comparable.
func Field(slot interface{}) Var {
	return Var{kind: FieldVar, slot: slot}
}

func (v Var) Kind() VarKind { return v.kind }

// Slot returns the identity the Var was built from.
func (v Var) Slot() interface{} { return v.slot }

func (v Var) IsLocal() bool { return v.kind == LocalVar }

func (v Var) IsField() bool { return v.kind == FieldVar }

// IsValid reports whether v is exactly one of a local or a field.
func (v Var) IsValid() bool {
	return (v.kind == LocalVar || v.kind == FieldVar) && v.slot != nil
}

// Name returns a human readable name for the slot.
func (v Var) Name() string {
	switch s := v.slot.(type) {
	case interface{ Name() string }:
		return s.Name()
	case fmt.Stringer:
		return s.String()
	case nil:
		return "<nil>"
	default:
		return fmt.Sprint(s)
	}
}

func (v Var) String() string {
	return fmt.Sprintf("%s %s", v.kind, v.Name())
}

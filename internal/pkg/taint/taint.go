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

// Package taint contains the facts tracked by the secret propagation
// analysis and the lattice they form.
package taint

import (
	"fmt"
	"sort"

	"github.com/google/go-secret-flow/internal/pkg/cfg"
	"github.com/google/go-secret-flow/internal/pkg/ir"
)

// A Fact records that Var is tainted, and that the taint was last
// established by the statement Origin.
type Fact struct {
	Origin cfg.Node
	Var    ir.Var
}

// NewFact returns the fact that v was tainted at origin.
// NewFact panics if v is neither a local nor a field.
func NewFact(origin cfg.Node, v ir.Var) Fact {
	if !v.IsValid() {
		panic(fmt.Sprintf("taint: fact for invalid variable %v at %v", v, origin))
	}
	return Fact{Origin: origin, Var: v}
}

func (f Fact) String() string {
	return fmt.Sprintf("%s <- %v", f.Var.Name(), f.Origin)
}

// A Set is a set of facts. A nil Set is empty and can be read, but not written.
type Set map[Fact]struct{}

// NewSet returns a set holding the given facts.
func NewSet(facts ...Fact) Set {
	s := make(Set, len(facts))
	for _, f := range facts {
		s[f] = struct{}{}
	}
	return s
}

// Add inserts f into s.
func (s Set) Add(f Fact) { s[f] = struct{}{} }

// Remove deletes f from s.
func (s Set) Remove(f Fact) { delete(s, f) }

// Has reports whether f is in s.
func (s Set) Has(f Fact) bool {
	_, ok := s[f]
	return ok
}

func (s Set) Len() int { return len(s) }

// Clone returns a copy of s that shares no storage with it.
func (s Set) Clone() Set {
	c := make(Set, len(s))
	for f := range s {
		c[f] = struct{}{}
	}
	return c
}

// Union returns a new set holding the facts of both s and o.
func (s Set) Union(o Set) Set {
	u := make(Set, len(s)+len(o))
	for f := range s {
		u[f] = struct{}{}
	}
	for f := range o {
		u[f] = struct{}{}
	}
	return u
}

// Equal reports whether s and o hold the same facts.
func (s Set) Equal(o Set) bool {
	if len(s) != len(o) {
		return false
	}
	for f := range s {
		if !o.Has(f) {
			return false
		}
	}
	return true
}

// SubsetOf reports whether every fact of s is also in o.
func (s Set) SubsetOf(o Set) bool {
	for f := range s {
		if !o.Has(f) {
			return false
		}
	}
	return true
}

// Of returns the facts about v.
func (s Set) Of(v ir.Var) []Fact {
	var facts []Fact
	for f := range s {
		if f.Var == v {
			facts = append(facts, f)
		}
	}
	return facts
}

// Tainted reports whether s holds any fact about v.
func (s Set) Tainted(v ir.Var) bool {
	for f := range s {
		if f.Var == v {
			return true
		}
	}
	return false
}

// Facts returns the facts of s ordered by their String form.
func (s Set) Facts() []Fact {
	facts := make([]Fact, 0, len(s))
	for f := range s {
		facts = append(facts, f)
	}
	sort.Slice(facts, func(i, j int) bool { return facts[i].String() < facts[j].String() })
	return facts
}

func (s Set) String() string {
	return fmt.Sprintf("%v", s.Facts())
}

// Lattice is the may-analysis lattice of fact sets: the bottom element is
// the empty set and the join is set union.
type Lattice struct{}

// Bottom returns the initial set of every node.
func (Lattice) Bottom() Set { return Set{} }

// Entry returns the initial set at the entry of the procedure.
func (Lattice) Entry() Set { return Set{} }

// Merge returns the union of a and b.
func (Lattice) Merge(a, b Set) Set { return a.Union(b) }

// Copy returns a snapshot of src.
func (Lattice) Copy(src Set) Set { return src.Clone() }

// Equal reports whether a and b hold the same facts.
func (Lattice) Equal(a, b Set) bool { return a.Equal(b) }

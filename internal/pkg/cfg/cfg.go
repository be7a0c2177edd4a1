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

// Package cfg defines the statement-level control-flow graph consumed by the
// dataflow engine. A graph covers a single procedure; exception edges are
// plain successor edges.
package cfg

import (
	"errors"
	"fmt"
	"go/token"
	"slices"
)

// A Node is a statement of the procedure being analyzed.
// Nodes are compared by identity, so implementations are usually pointers.
type Node interface {
	String() string
	Pos() token.Pos
}

// A Graph is the control-flow graph of one procedure.
type Graph interface {
	// Nodes returns every node of the graph, in a stable order.
	Nodes() []Node
	// Entry returns the node execution starts at.
	Entry() Node
	// Preds returns the nodes with an edge to n.
	Preds(n Node) []Node
	// Succs returns the nodes n has an edge to, including exception edges.
	Succs(n Node) []Node
}

// ErrInvalidGraph is wrapped by every error reported by Validate.
var ErrInvalidGraph = errors.New("invalid control-flow graph")

// Validate checks that g is well formed: it has nodes, its entry is one of
// them, every edge ends at a known node, and the predecessor and successor
// relations agree with each other.
func Validate(g Graph) error {
	nodes := g.Nodes()
	if len(nodes) == 0 {
		return fmt.Errorf("%w: graph has no nodes", ErrInvalidGraph)
	}
	known := make(map[Node]bool, len(nodes))
	for _, n := range nodes {
		if known[n] {
			return fmt.Errorf("%w: node %q is listed twice", ErrInvalidGraph, n)
		}
		known[n] = true
	}
	if entry := g.Entry(); entry == nil || !known[entry] {
		return fmt.Errorf("%w: entry %v is not a node of the graph", ErrInvalidGraph, entry)
	}

	for _, n := range nodes {
		for _, s := range g.Succs(n) {
			if !known[s] {
				return fmt.Errorf("%w: successor %q of %q is not a node of the graph", ErrInvalidGraph, s, n)
			}
			if !slices.Contains(g.Preds(s), n) {
				return fmt.Errorf("%w: %q is a successor of %q but not the other way around", ErrInvalidGraph, s, n)
			}
		}
		for _, p := range g.Preds(n) {
			if !known[p] {
				return fmt.Errorf("%w: predecessor %q of %q is not a node of the graph", ErrInvalidGraph, p, n)
			}
			if !slices.Contains(g.Succs(p), n) {
				return fmt.Errorf("%w: %q is a predecessor of %q but not the other way around", ErrInvalidGraph, p, n)
			}
		}
	}
	return nil
}

// Adjacency is a Graph backed by adjacency lists.
// The zero value is not usable; use NewAdjacency.
type Adjacency struct {
	entry Node
	nodes []Node
	known map[Node]bool
	preds map[Node][]Node
	succs map[Node][]Node
}

// NewAdjacency returns a graph containing only its entry node.
func NewAdjacency(entry Node) *Adjacency {
	a := &Adjacency{
		entry: entry,
		known: map[Node]bool{},
		preds: map[Node][]Node{},
		succs: map[Node][]Node{},
	}
	a.AddNode(entry)
	return a
}

// AddNode adds n to the graph. Adding a node twice has no effect.
func (a *Adjacency) AddNode(n Node) {
	if a.known[n] {
		return
	}
	a.known[n] = true
	a.nodes = append(a.nodes, n)
}

// AddEdge adds an edge between from and to, adding the nodes as needed.
// Duplicate edges are ignored.
func (a *Adjacency) AddEdge(from, to Node) {
	a.AddNode(from)
	a.AddNode(to)
	if slices.Contains(a.succs[from], to) {
		return
	}
	a.succs[from] = append(a.succs[from], to)
	a.preds[to] = append(a.preds[to], from)
}

func (a *Adjacency) Nodes() []Node       { return a.nodes }
func (a *Adjacency) Entry() Node         { return a.entry }
func (a *Adjacency) Preds(n Node) []Node { return a.preds[n] }
func (a *Adjacency) Succs(n Node) []Node { return a.succs[n] }

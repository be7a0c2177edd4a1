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

package cfg

import (
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/traverse"
)

// A GonumNode wraps a Node so that it can be stored in a gonum graph.
type GonumNode struct {
	id   int64
	Node Node
}

// ID implements graph.Node.
func (n GonumNode) ID() int64 { return n.id }

// Directed returns a gonum view of g. Node IDs are the indices of the nodes
// in g.Nodes(). The wrap function builds the gonum node stored for each
// statement; when it is nil, GonumNode is used.
//
// gonum's simple graphs have no self edges, so a node that loops back to
// itself is represented without that edge.
func Directed(g Graph, wrap func(id int64, n Node) graph.Node) (*simple.DirectedGraph, map[Node]int64) {
	if wrap == nil {
		wrap = func(id int64, n Node) graph.Node { return GonumNode{id: id, Node: n} }
	}
	dg := simple.NewDirectedGraph()
	ids := make(map[Node]int64, len(g.Nodes()))
	for i, n := range g.Nodes() {
		ids[n] = int64(i)
		dg.AddNode(wrap(int64(i), n))
	}
	for _, n := range g.Nodes() {
		from := ids[n]
		for _, s := range g.Succs(n) {
			to, ok := ids[s]
			if !ok || to == from {
				continue
			}
			dg.SetEdge(dg.NewEdge(dg.Node(from), dg.Node(to)))
		}
	}
	return dg, ids
}

// Reachable returns the nodes of g that can be reached from its entry,
// in the order of g.Nodes().
func Reachable(g Graph) []Node {
	dg, ids := Directed(g, nil)
	entry, ok := ids[g.Entry()]
	if !ok {
		return nil
	}

	seen := map[int64]bool{}
	dfs := traverse.DepthFirst{
		Visit: func(n graph.Node) { seen[n.ID()] = true },
	}
	dfs.Walk(dg, dg.Node(entry), nil)

	var reachable []Node
	for _, n := range g.Nodes() {
		if seen[ids[n]] {
			reachable = append(reachable, n)
		}
	}
	return reachable
}

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

// Package ssacfg presents Go SSA functions to the propagation analysis.
// Each SSA instruction is one statement of the control-flow graph.
package ssacfg

import (
	"errors"
	"fmt"
	"go/token"

	"github.com/google/go-secret-flow/internal/pkg/cfg"
	"github.com/google/go-secret-flow/internal/pkg/utils"
	"golang.org/x/tools/go/ssa"
)

// ErrNoBody is returned for functions that have no SSA blocks, such as
// external or assembly functions.
var ErrNoBody = errors.New("function has no body")

// A Node is a single SSA instruction.
type Node struct {
	Instr ssa.Instruction
}

func (n *Node) String() string {
	if sn, ok := n.Instr.(ssa.Node); ok {
		return utils.CanonicalName(sn)
	}
	return n.Instr.String()
}

func (n *Node) Pos() token.Pos { return n.Instr.Pos() }

// A Graph is the instruction-level control-flow graph of a function.
type Graph struct {
	*cfg.Adjacency
	Func *ssa.Function

	nodes map[ssa.Instruction]*Node
}

// New builds the control-flow graph of fn.
//
// Instructions of a block are linked in order, and the last instruction of
// a block is linked to the first instruction of each successor block. If fn
// has a recover block, every call and panic also has an edge to it.
func New(fn *ssa.Function) (*Graph, error) {
	if len(fn.Blocks) == 0 || len(fn.Blocks[0].Instrs) == 0 {
		return nil, fmt.Errorf("%v: %w", fn, ErrNoBody)
	}

	g := &Graph{
		Func:  fn,
		nodes: map[ssa.Instruction]*Node{},
	}
	first := map[*ssa.BasicBlock]*Node{}
	for _, b := range fn.Blocks {
		var prev *Node
		for _, instr := range b.Instrs {
			n := &Node{Instr: instr}
			g.nodes[instr] = n
			if g.Adjacency == nil {
				g.Adjacency = cfg.NewAdjacency(n)
			}
			if prev == nil {
				first[b] = n
				g.AddNode(n)
			} else {
				g.AddEdge(prev, n)
			}
			prev = n
		}
	}

	for _, b := range fn.Blocks {
		if len(b.Instrs) == 0 {
			continue
		}
		last := g.nodes[b.Instrs[len(b.Instrs)-1]]
		for _, s := range b.Succs {
			if f, ok := first[s]; ok {
				g.AddEdge(last, f)
			}
		}
	}

	if fn.Recover != nil {
		if handler, ok := first[fn.Recover]; ok {
			g.addExceptionEdges(handler)
		}
	}
	return g, nil
}

func (g *Graph) addExceptionEdges(handler *Node) {
	for _, n := range g.Nodes() {
		switch n.(*Node).Instr.(type) {
		case *ssa.Call, *ssa.Panic:
			g.AddEdge(n, handler)
		}
	}
}

// Node returns the node of instr, or nil if instr is not part of the graph.
func (g *Graph) Node(instr ssa.Instruction) *Node {
	return g.nodes[instr]
}

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

// Package dataflow implements a generic forward dataflow solver over a
// cfg.Graph. The solver knows nothing about the facts it propagates: the
// client provides the lattice operations and the transfer function.
package dataflow

import (
	"fmt"

	"github.com/google/go-secret-flow/internal/pkg/cfg"
)

// A Lattice provides the operations the solver needs on flow values of type F.
// Merge must be monotone for the solver to terminate.
type Lattice[F any] interface {
	// Bottom is the initial flow value of every node.
	Bottom() F
	// Entry is the flow value entering the procedure.
	Entry() F
	// Merge joins two flow values. It must not modify its arguments.
	Merge(a, b F) F
	// Copy returns a snapshot of a flow value sharing no storage with it.
	Copy(src F) F
	// Equal reports whether two flow values are the same.
	Equal(a, b F) bool
}

// A TransferFunc computes the flow value leaving n from the one entering it.
// It must not retain or modify in.
type TransferFunc[F any] func(n cfg.Node, in F) (F, error)

// Forward solves forward dataflow problems.
type Forward[F any] struct {
	Lattice  Lattice[F]
	Transfer TransferFunc[F]

	// OnChange, if non-nil, is called each time the OUT value stored for a
	// node changes, with the previous and the new value.
	OnChange func(n cfg.Node, prev, next F)
}

// Result holds the solution computed by Forward.Solve.
type Result[F any] struct {
	In  map[cfg.Node]F
	Out map[cfg.Node]F

	// Evaluations counts the calls made to the transfer function.
	Evaluations int
}

// Solve computes, for every node n of g,
//
//	OUT[n] = Transfer(n, Merge(OUT[p] for every predecessor p of n))
//
// where the entry node also merges Lattice.Entry. Nodes that cannot be
// reached from the entry keep the Bottom value.
//
// Solve returns an error wrapping cfg.ErrInvalidGraph if g is malformed, and
// stops at the first error returned by the transfer function.
func (f *Forward[F]) Solve(g cfg.Graph) (*Result[F], error) {
	if err := cfg.Validate(g); err != nil {
		return nil, err
	}

	res := &Result[F]{
		In:  make(map[cfg.Node]F, len(g.Nodes())),
		Out: make(map[cfg.Node]F, len(g.Nodes())),
	}
	for _, n := range g.Nodes() {
		res.In[n] = f.Lattice.Bottom()
		res.Out[n] = f.Lattice.Bottom()
	}

	wl := newWorklist(cfg.Reachable(g))
	entry := g.Entry()
	for !wl.empty() {
		n := wl.pop()

		in := f.Lattice.Bottom()
		if n == entry {
			in = f.Lattice.Merge(in, f.Lattice.Entry())
		}
		for _, p := range g.Preds(n) {
			in = f.Lattice.Merge(in, res.Out[p])
		}
		res.In[n] = in

		out, err := f.Transfer(n, in)
		res.Evaluations++
		if err != nil {
			return nil, fmt.Errorf("transfer at %v: %w", n, err)
		}
		if f.Lattice.Equal(out, res.Out[n]) {
			continue
		}

		if f.OnChange != nil {
			f.OnChange(n, res.Out[n], out)
		}
		res.Out[n] = f.Lattice.Copy(out)
		for _, s := range g.Succs(n) {
			wl.push(s)
		}
	}
	return res, nil
}

// worklist is a FIFO queue of nodes that holds each node at most once.
type worklist struct {
	queue   []cfg.Node
	pending map[cfg.Node]bool
}

func newWorklist(nodes []cfg.Node) *worklist {
	wl := &worklist{pending: make(map[cfg.Node]bool, len(nodes))}
	for _, n := range nodes {
		wl.push(n)
	}
	return wl
}

func (wl *worklist) push(n cfg.Node) {
	if wl.pending[n] {
		return
	}
	wl.pending[n] = true
	wl.queue = append(wl.queue, n)
}

func (wl *worklist) pop() cfg.Node {
	n := wl.queue[0]
	wl.queue = wl.queue[1:]
	delete(wl.pending, n)
	return n
}

func (wl *worklist) empty() bool {
	return len(wl.queue) == 0
}

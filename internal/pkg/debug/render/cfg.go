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

// Package render produces text representations of analyzed functions.
package render

import (
	"fmt"
	"strings"

	"github.com/google/go-secret-flow/internal/pkg/cfg"
	"github.com/google/go-secret-flow/internal/pkg/taint"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/encoding/dot"
)

// factNode is a statement together with the facts holding after it.
type factNode struct {
	id    int64
	stmt  cfg.Node
	facts taint.Set
	entry bool
}

func (n factNode) ID() int64 { return n.id }

func (n factNode) DOTID() string { return fmt.Sprintf("n%d", n.id) }

func (n factNode) Attributes() []encoding.Attribute {
	lines := []string{n.stmt.String()}
	for _, f := range n.facts.Facts() {
		lines = append(lines, f.String())
	}
	attrs := []encoding.Attribute{
		{Key: "label", Value: strings.Join(lines, "\n")},
		{Key: "shape", Value: "box"},
	}
	if n.facts.Len() > 0 {
		attrs = append(attrs, encoding.Attribute{Key: "color", Value: "red"})
	}
	if n.entry {
		attrs = append(attrs, encoding.Attribute{Key: "style", Value: "bold"})
	}
	return attrs
}

// CFG renders DOT source for g. Each statement is labelled with the facts
// in out; statements holding facts are drawn in red.
func CFG(name string, g cfg.Graph, out map[cfg.Node]taint.Set) ([]byte, error) {
	entry := g.Entry()
	dg, _ := cfg.Directed(g, func(id int64, n cfg.Node) graph.Node {
		return factNode{id: id, stmt: n, facts: out[n], entry: n == entry}
	})
	return dot.Marshal(dg, name, "", "\t")
}

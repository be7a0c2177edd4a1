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

// Package report defines where the propagation analysis sends the leaks it
// finds, and a few reusable destinations.
package report

import (
	"fmt"
	"go/token"
	"sort"
	"sync"

	"github.com/google/go-secret-flow/internal/pkg/cfg"
	"github.com/samber/lo"
)

// A Procedure is the function a leak was found in.
type Procedure interface {
	String() string
	Pos() token.Pos
}

// A Reporter receives leaks: a value tainted at origin escapes at site.
// Reporters may be called any number of times, including zero.
type Reporter interface {
	Report(proc Procedure, origin, site cfg.Node) error
}

// Func adapts a function to the Reporter interface.
type Func func(proc Procedure, origin, site cfg.Node) error

func (f Func) Report(proc Procedure, origin, site cfg.Node) error {
	return f(proc, origin, site)
}

// A Leak is one reported escape of a secret.
type Leak struct {
	Procedure Procedure
	Origin    cfg.Node
	Site      cfg.Node
}

func (l Leak) String() string {
	return fmt.Sprintf("%v: secret from %v escapes at %v", l.Procedure, l.Origin, l.Site)
}

// Dedup forwards each distinct leak to its underlying Reporter once.
// It is safe for concurrent use if the underlying Reporter is.
type Dedup struct {
	r Reporter

	mu   sync.Mutex
	seen map[Leak]bool
}

// NewDedup returns a Reporter that drops leaks r has already received.
func NewDedup(r Reporter) *Dedup {
	return &Dedup{r: r, seen: map[Leak]bool{}}
}

func (d *Dedup) Report(proc Procedure, origin, site cfg.Node) error {
	l := Leak{Procedure: proc, Origin: origin, Site: site}
	d.mu.Lock()
	if d.seen[l] {
		d.mu.Unlock()
		return nil
	}
	d.seen[l] = true
	d.mu.Unlock()
	return d.r.Report(proc, origin, site)
}

// A Collector records every leak it receives.
// It is safe for concurrent use.
type Collector struct {
	mu    sync.Mutex
	leaks []Leak
}

func (c *Collector) Report(proc Procedure, origin, site cfg.Node) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.leaks = append(c.leaks, Leak{Procedure: proc, Origin: origin, Site: site})
	return nil
}

// Leaks returns the distinct leaks received so far, ordered by the
// position of their site, then by their text.
func (c *Collector) Leaks() []Leak {
	c.mu.Lock()
	leaks := lo.Uniq(c.leaks)
	c.mu.Unlock()

	sort.SliceStable(leaks, func(i, j int) bool {
		pi, pj := leaks[i].Site.Pos(), leaks[j].Site.Pos()
		if pi != pj {
			return pi < pj
		}
		return leaks[i].String() < leaks[j].String()
	})
	return leaks
}

// ByProcedure groups leaks by the name of the procedure they were found in.
func ByProcedure(leaks []Leak) map[string][]Leak {
	return lo.GroupBy(leaks, func(l Leak) string { return l.Procedure.String() })
}

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

// Package debug writes the state of analyzed functions to files.
package debug

import (
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/go-secret-flow/internal/pkg/cfg"
	"github.com/google/go-secret-flow/internal/pkg/debug/render"
	"github.com/google/go-secret-flow/internal/pkg/ssacfg"
	"github.com/google/go-secret-flow/internal/pkg/taint"
)

// Dump writes the SSA listing and the DOT control-flow graph of the
// function of g to dir, annotated with the facts in out.
func Dump(dir string, g *ssacfg.Graph, out map[cfg.Node]taint.Set) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	name := FileName(g.Func.String())
	src, err := render.CFG(g.Func.String(), g, out)
	if err != nil {
		return fmt.Errorf("rendering %v: %w", g.Func, err)
	}
	if err := WriteGraph(dir, name, src); err != nil {
		return err
	}
	return WriteSSA(dir, name, render.SSA(g, out))
}

// WriteSSA writes out an SSA listing to a file.
func WriteSSA(dir, fnName, source string) error {
	return writeOut(dir, fnName+".ssa", []byte(source))
}

// WriteGraph writes out the DOT source representing a graph to a file.
func WriteGraph(dir, fnName string, source []byte) error {
	return writeOut(dir, fnName+".dot", source)
}

func writeOut(dir, filename string, content []byte) error {
	return os.WriteFile(filepath.Join(dir, filename), content, 0o666)
}

// FileName turns a function name such as "(*example.com/p.T).M" into a
// name usable as a file name. Names that differ only in characters that
// are replaced, like "F$1" and "F_1", get different hash suffixes.
func FileName(fnName string) string {
	h := fnv.New32a()
	h.Write([]byte(fnName))
	return fmt.Sprintf("%s-%08x", sanitize(fnName), h.Sum32())
}

func sanitize(fnName string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
			return r
		}
		return '_'
	}, fnName)
	return strings.Trim(mapped, "_.")
}

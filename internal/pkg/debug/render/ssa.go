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

package render

import (
	"fmt"
	"strings"

	"github.com/google/go-secret-flow/internal/pkg/cfg"
	"github.com/google/go-secret-flow/internal/pkg/ssacfg"
	"github.com/google/go-secret-flow/internal/pkg/taint"
	"github.com/google/go-secret-flow/internal/pkg/utils"
	"golang.org/x/tools/go/ssa"
)

// SSA lists the instructions of the function of g block by block, each
// followed by the facts holding after it.
func SSA(g *ssacfg.Graph, out map[cfg.Node]taint.Set) string {
	var b strings.Builder
	for i, blk := range g.Func.Blocks {
		fmt.Fprintf(&b, "%d: %s\n", i, blk.Comment)
		for j, instr := range blk.Instrs {
			fmt.Fprintf(&b, "\t%d(%-12s): %s\n", j, utils.TrimmedType(instr.(ssa.Node)), utils.CanonicalName(instr.(ssa.Node)))
			if facts := out[g.Node(instr)]; facts.Len() > 0 {
				fmt.Fprintf(&b, "\t\t%v\n", facts)
			}
		}
	}
	return b.String()
}

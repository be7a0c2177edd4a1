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

// Package batch analyzes every function of a set of packages in parallel.
package batch

import (
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/token"
	"runtime"
	"sort"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"

	"github.com/google/go-secret-flow/internal/pkg/cfg"
	"github.com/google/go-secret-flow/internal/pkg/config"
	"github.com/google/go-secret-flow/internal/pkg/debug"
	"github.com/google/go-secret-flow/internal/pkg/report"
	"github.com/google/go-secret-flow/internal/pkg/ssacfg"
	"github.com/google/go-secret-flow/internal/pkg/suppression"
	"github.com/google/go-secret-flow/internal/pkg/utils"
)

// LoadMode has the bits packages.Load needs to set for SSA construction.
const LoadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedCompiledGoFiles |
	packages.NeedImports |
	packages.NeedDeps |
	packages.NeedTypes |
	packages.NeedSyntax |
	packages.NeedTypesInfo |
	packages.NeedTypesSizes

// Options control a batch run.
type Options struct {
	// Dir is the directory packages are loaded from. Defaults to the
	// current directory.
	Dir string
	// Env is the environment of the go command. Defaults to os.Environ().
	Env []string
	// Concurrency is the number of functions analyzed at once.
	// Defaults to GOMAXPROCS.
	Concurrency int
	// Logger receives progress events. Defaults to a disabled logger.
	Logger *zerolog.Logger
}

// Result is the outcome of a batch run.
type Result struct {
	// Leaks are the leaks found, ordered by position.
	Leaks []report.Leak
	// Analyzed counts the functions whose body was analyzed.
	Analyzed int
	// Excluded counts the functions skipped by configuration.
	Excluded int
	// Fset holds the positions of the leaks.
	Fset *token.FileSet
}

// A Program is a set of loaded packages in SSA form.
type Program struct {
	SSA *ssa.Program
	// Packages are the packages matching the load patterns.
	Packages []*ssa.Package

	files      map[*ssa.Package][]*ast.File
	suppressed map[*ssa.Package]suppression.ResultType
}

// Load loads the packages matching patterns and builds their SSA form.
func Load(patterns []string, opts Options) (*Program, error) {
	conf := &packages.Config{
		Mode: LoadMode,
		Dir:  opts.Dir,
		Env:  opts.Env,
	}
	pkgs, err := packages.Load(conf, patterns...)
	if err != nil {
		return nil, fmt.Errorf("loading packages: %w", err)
	}
	if len(pkgs) == 0 {
		return nil, fmt.Errorf("no packages match %v", patterns)
	}
	var loadErrs []error
	packages.Visit(pkgs, nil, func(p *packages.Package) {
		for _, e := range p.Errors {
			loadErrs = append(loadErrs, e)
		}
	})
	if len(loadErrs) > 0 {
		return nil, fmt.Errorf("loading packages: %w", errors.Join(loadErrs...))
	}

	prog, ssaPkgs := ssautil.AllPackages(pkgs, ssa.InstantiateGenerics)
	prog.Build()

	p := &Program{
		SSA:        prog,
		files:      map[*ssa.Package][]*ast.File{},
		suppressed: map[*ssa.Package]suppression.ResultType{},
	}
	// ssaPkgs[i] is the SSA form of pkgs[i].
	for i, sp := range ssaPkgs {
		if sp == nil {
			continue
		}
		p.Packages = append(p.Packages, sp)
		p.files[sp] = pkgs[i].Syntax
		p.suppressed[sp] = suppression.Find(prog.Fset, pkgs[i].Syntax)
	}
	return p, nil
}

// Functions returns the source functions of the packages, including
// closures and instances of generic functions, sorted by name.
func (p *Program) Functions() []*ssa.Function {
	var fns []*ssa.Function
	for fn := range ssautil.AllFunctions(p.SSA) {
		src := fn
		if o := fn.Origin(); o != nil {
			src = o
		}
		if !lo.Contains(p.Packages, src.Pkg) || src.Synthetic != "" {
			continue
		}
		// Generic bodies are analyzed through their instances.
		if fn.TypeParams().Len() > 0 && fn.Origin() == nil {
			continue
		}
		fns = append(fns, fn)
	}
	sort.Slice(fns, func(i, j int) bool { return fns[i].String() < fns[j].String() })
	return fns
}

// IsSuppressed reports whether a secretflow:ignore comment in the source
// of fn covers pos.
func (p *Program) IsSuppressed(fn *ssa.Function, pos token.Pos) bool {
	for fn.Parent() != nil {
		fn = fn.Parent()
	}
	if o := fn.Origin(); o != nil {
		fn = o
	}
	return p.suppressed[fn.Pkg].IsSuppressedAt(p.files[fn.Pkg], pos)
}

// Run analyzes every function of the packages matching patterns under
// conf. Each function is analyzed by its own task on a pool of workers.
// Errors of individual functions are joined into the returned error; the
// result then holds what the other functions produced.
func Run(ctx context.Context, patterns []string, conf *config.Config, opts Options) (*Result, error) {
	prog, err := Load(patterns, opts)
	if err != nil {
		return nil, err
	}
	return analyze(ctx, prog, conf, opts.Concurrency, opts.Logger)
}

func analyze(ctx context.Context, prog *Program, conf *config.Config, concurrency int, logger *zerolog.Logger) (*Result, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}
	fns := prog.Functions()
	logger.Info().Int("functions", len(fns)).Int("workers", concurrency).Msg("starting batch analysis")
	pool, err := ants.NewPool(concurrency)
	if err != nil {
		return nil, fmt.Errorf("creating worker pool: %w", err)
	}
	defer pool.Release()

	collector := &report.Collector{}
	res := &Result{Fset: prog.SSA.Fset}
	var (
		mu   sync.Mutex
		errs []error
		wg   sync.WaitGroup
	)
	fail := func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}

	for _, fn := range fns {
		if ctx.Err() != nil {
			break
		}
		if conf.IsExcluded(utils.DecomposeFunction(fn)) {
			logger.Debug().Stringer("procedure", fn).Msg("excluded by configuration")
			res.Excluded++
			continue
		}

		fn := fn
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					fail(fmt.Errorf("analyzing %v: panic: %v", fn, r))
				}
			}()
			if ctx.Err() != nil {
				return
			}
			analyzed, err := analyzeFunction(fn, unlessSuppressed(prog, fn, collector, logger), conf, logger)
			if err != nil {
				fail(fmt.Errorf("%v: %w", fn, err))
				return
			}
			if analyzed {
				mu.Lock()
				res.Analyzed++
				mu.Unlock()
			}
		})
		if err != nil {
			wg.Done()
			fail(fmt.Errorf("submitting %v: %w", fn, err))
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		errs = append(errs, err)
	}
	res.Leaks = collector.Leaks()
	logger.Info().
		Int("analyzed", res.Analyzed).
		Int("excluded", res.Excluded).
		Int("leaks", len(res.Leaks)).
		Msg("batch analysis done")
	return res, errors.Join(errs...)
}

// unlessSuppressed forwards to r the leaks of fn whose site is not covered
// by a suppressing comment. Sites without a position are attributed to fn.
func unlessSuppressed(prog *Program, fn *ssa.Function, r report.Reporter, logger *zerolog.Logger) report.Reporter {
	return report.Func(func(proc report.Procedure, origin, site cfg.Node) error {
		pos := site.Pos()
		if !pos.IsValid() {
			pos = fn.Pos()
		}
		if prog.IsSuppressed(fn, pos) {
			logger.Debug().Stringer("procedure", fn).Stringer("site", site).Msg("leak suppressed by comment")
			return nil
		}
		return r.Report(proc, origin, site)
	})
}

// analyzeFunction reports whether fn had a body to analyze.
func analyzeFunction(fn *ssa.Function, r report.Reporter, conf *config.Config, logger *zerolog.Logger) (bool, error) {
	g, out, err := ssacfg.Analyze(fn, r, conf.PropagationOptions(logger))
	if errors.Is(err, ssacfg.ErrNoBody) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if conf.DebugOutput != "" {
		if err := debug.Dump(conf.DebugOutput, g, out.Out); err != nil {
			logger.Warn().Err(err).Stringer("procedure", fn).Msg("could not write debug output")
		}
	}
	return true, nil
}

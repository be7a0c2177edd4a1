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

// Package secretflow defines an analyzer reporting secrets that escape the
// function they were obtained in.
package secretflow

import (
	"errors"
	"fmt"
	"go/token"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/buildssa"
	"golang.org/x/tools/go/ssa"

	"github.com/google/go-secret-flow/internal/pkg/cfg"
	"github.com/google/go-secret-flow/internal/pkg/config"
	"github.com/google/go-secret-flow/internal/pkg/debug"
	"github.com/google/go-secret-flow/internal/pkg/logging"
	"github.com/google/go-secret-flow/internal/pkg/report"
	"github.com/google/go-secret-flow/internal/pkg/ssacfg"
	"github.com/google/go-secret-flow/internal/pkg/suppression"
	"github.com/google/go-secret-flow/internal/pkg/utils"
)

var Analyzer = &analysis.Analyzer{
	Name:  "secretflow",
	Run:   run,
	Flags: config.FlagSet,
	Doc: `reports secrets escaping the function that obtained them

A value returned by a call to the secret operation (getSecret by default)
is a secret, and so is any copy of it. A secret escapes when it is passed
to an interface method or a function value, or when it is returned.`,
	Requires: []*analysis.Analyzer{
		buildssa.Analyzer,
		suppression.Analyzer,
	},
}

func run(pass *analysis.Pass) (interface{}, error) {
	conf, err := config.ReadConfig()
	if err != nil {
		return nil, err
	}
	logger, closeLog, err := logging.Setup(logging.Options{Level: conf.LogLevel})
	if err != nil {
		return nil, err
	}
	defer closeLog()

	ssaInput := pass.ResultOf[buildssa.Analyzer].(*buildssa.SSA)
	suppressed := pass.ResultOf[suppression.Analyzer].(suppression.ResultType)

	for _, fn := range ssaInput.SrcFuncs {
		if conf.IsExcluded(utils.DecomposeFunction(fn)) {
			logger.Debug().Stringer("procedure", fn).Msg("excluded by configuration")
			continue
		}
		if err := analyzeFunction(pass, conf, logger, suppressed, fn); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

func analyzeFunction(pass *analysis.Pass, conf *config.Config, logger *zerolog.Logger, suppressed suppression.ResultType, fn *ssa.Function) error {
	reporter := report.Func(func(_ report.Procedure, origin, site cfg.Node) error {
		pos := site.Pos()
		if !pos.IsValid() {
			pos = fn.Pos()
		}
		if suppressed.IsSuppressedAt(pass.Files, pos) {
			logger.Debug().Stringer("site", site).Msg("leak suppressed by comment")
			return nil
		}
		reportLeak(pass, conf, origin, pos)
		return nil
	})

	g, res, err := ssacfg.Analyze(fn, reporter, conf.PropagationOptions(logger))
	if errors.Is(err, ssacfg.ErrNoBody) {
		return nil
	}
	if err != nil {
		return err
	}

	if conf.DebugOutput != "" {
		if err := debug.Dump(conf.DebugOutput, g, res.Out); err != nil {
			logger.Warn().Err(err).Stringer("procedure", fn).Msg("could not write debug output")
		}
	}
	return nil
}

func reportLeak(pass *analysis.Pass, conf *config.Config, origin cfg.Node, pos token.Pos) {
	var b strings.Builder
	b.WriteString("a secret escapes this function")
	if p := origin.Pos(); p.IsValid() {
		fmt.Fprintf(&b, "\n secret: %v", pass.Fset.Position(p))
	}
	if conf.ReportMessage != "" {
		fmt.Fprintf(&b, "\n %v", conf.ReportMessage)
	}
	pass.Reportf(pos, "%s", b.String())
}

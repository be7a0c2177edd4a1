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

// secretflow-batch analyzes all functions of the given packages in parallel
// and prints the secrets escaping them, grouped by function.
//
// Flags may also be set from the environment, e.g. SECRETFLOW_CONCURRENCY=8
// or SECRETFLOW_LOG_LEVEL=debug. It exits with status 3 if leaks are found.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/google/go-secret-flow/internal/pkg/batch"
	"github.com/google/go-secret-flow/internal/pkg/config"
	"github.com/google/go-secret-flow/internal/pkg/logging"
	"github.com/google/go-secret-flow/internal/pkg/report"
)

const (
	keyConfig      = "config"
	keyConcurrency = "concurrency"
	keyLogLevel    = "log.level"
	keyLogOutput   = "log.output"
	keyDotDir      = "dot-dir"
	keyNoColor     = "no-color"
)

const exitLeaks = 3

// errLeaks is returned by the command when the analysis found leaks.
var errLeaks = errors.New("leaks found")

var flags = pflag.NewFlagSet("secretflow-batch", pflag.ExitOnError)

func init() {
	flags.StringP(keyConfig, "c", "", "path to analysis configuration file (defaults apply if empty)")
	flags.IntP(keyConcurrency, "j", 0, "number of functions analyzed at once (0 means GOMAXPROCS)")
	flags.String(keyLogLevel, "", "log level (trace, debug, info, warn, error); logging is off if empty")
	flags.String(keyLogOutput, "stderr", "semicolon-separated log destinations: stdout, stderr or file paths")
	flags.String(keyDotDir, "", "directory receiving a DOT graph of each analyzed function")
	flags.Bool(keyNoColor, false, "disable colored output")
}

var rootCmd = &cobra.Command{
	Use:          "secretflow-batch [packages]",
	Short:        "Report secrets escaping the functions of Go packages",
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		leaks, err := run(cmd, args)
		if err != nil {
			return err
		}
		if leaks > 0 {
			return errLeaks
		}
		return nil
	},
}

func main() {
	rootCmd.Flags().AddFlagSet(flags)
	if err := viper.BindPFlags(flags); err != nil {
		panic(fmt.Errorf("failed to bind flags: %w", err))
	}
	viper.SetEnvPrefix("SECRETFLOW")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil && !errors.Is(err, errLeaks) {
		fmt.Fprintln(os.Stderr, "secretflow-batch:", err)
	}
	os.Exit(exitCode(err))
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errLeaks):
		return exitLeaks
	default:
		return 1
	}
}

func run(cmd *cobra.Command, patterns []string) (int, error) {
	conf, err := loadConfig(viper.GetString(keyConfig))
	if err != nil {
		return 0, err
	}
	if dir := viper.GetString(keyDotDir); dir != "" {
		conf.DebugOutput = dir
	}
	level := viper.GetString(keyLogLevel)
	if level == "" {
		level = conf.LogLevel
	}
	logger, closeLog, err := logging.Setup(logging.Options{
		Level:   level,
		Outputs: viper.GetString(keyLogOutput),
	})
	if err != nil {
		return 0, err
	}
	defer closeLog()

	color.NoColor = color.NoColor || viper.GetBool(keyNoColor)

	res, err := batch.Run(cmd.Context(), patterns, conf, batch.Options{
		Concurrency: viper.GetInt(keyConcurrency),
		Logger:      logger,
	})
	if res != nil {
		printLeaks(cmd.OutOrStdout(), res)
	}
	if err != nil {
		return 0, err
	}
	return len(res.Leaks), nil
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Parse(nil)
	}
	return config.Load(path)
}

func printLeaks(w io.Writer, res *batch.Result) {
	procColor := color.New(color.FgCyan, color.Bold)
	siteColor := color.New(color.FgRed)
	posColor := color.New(color.Faint)

	byProc := report.ByProcedure(res.Leaks)
	procs := lo.Keys(byProc)
	sort.Strings(procs)
	for _, proc := range procs {
		procColor.Fprintln(w, proc)
		for _, l := range byProc[proc] {
			siteColor.Fprintf(w, "  %v", l.Site)
			if p := l.Site.Pos(); p.IsValid() {
				posColor.Fprintf(w, " (%v)", res.Fset.Position(p))
			}
			fmt.Fprintf(w, "\n    secret from %v", l.Origin)
			if p := l.Origin.Pos(); p.IsValid() {
				posColor.Fprintf(w, " (%v)", res.Fset.Position(p))
			}
			fmt.Fprintln(w)
		}
	}
	summary := color.GreenString("no leaks found")
	if n := len(res.Leaks); n > 0 {
		summary = color.RedString("%d leaks in %d functions", n, len(procs))
	}
	fmt.Fprintf(w, "%s (%d functions analyzed, %d excluded)\n", summary, res.Analyzed, res.Excluded)
}

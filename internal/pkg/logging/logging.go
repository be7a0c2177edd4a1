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

// Package logging builds the loggers used by the analysis drivers.
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Options describe a logger.
type Options struct {
	// Level is a zerolog level name. Logging is disabled if empty.
	Level string
	// Outputs is a semicolon-separated list of destinations: "stdout",
	// "stderr" or file paths. Defaults to "stderr".
	Outputs string
	// Caller adds the file and line of each log call.
	Caller bool
}

// Setup builds the logger described by opts. The returned function closes
// the files opened for it.
func Setup(opts Options) (*zerolog.Logger, func() error, error) {
	noop := func() error { return nil }
	if opts.Level == "" {
		l := zerolog.Nop()
		return &l, noop, nil
	}
	level, err := zerolog.ParseLevel(opts.Level)
	if err != nil {
		return nil, noop, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
	}

	outputs := opts.Outputs
	if outputs == "" {
		outputs = "stderr"
	}
	var writers []io.Writer
	var files []*os.File
	closeAll := func() error {
		var errs []error
		for _, f := range files {
			errs = append(errs, f.Close())
		}
		return errors.Join(errs...)
	}
	for _, out := range strings.Split(outputs, ";") {
		switch out = strings.TrimSpace(out); out {
		case "":
		case "stdout":
			writers = append(writers, zerolog.ConsoleWriter{Out: os.Stdout})
		case "stderr":
			writers = append(writers, zerolog.ConsoleWriter{Out: os.Stderr})
		default:
			f, err := os.OpenFile(out, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
			if err != nil {
				_ = closeAll()
				return nil, noop, fmt.Errorf("opening log file: %w", err)
			}
			files = append(files, f)
			writers = append(writers, zerolog.SyncWriter(f))
		}
	}

	l := New(zerolog.MultiLevelWriter(writers...), level, opts.Caller)
	return l, closeAll, nil
}

// New returns a logger writing JSON events to w.
func New(w io.Writer, level zerolog.Level, caller bool) *zerolog.Logger {
	ctx := zerolog.New(w).Level(level).With().Timestamp()
	if caller {
		ctx = ctx.Caller()
	}
	l := ctx.Logger()
	return &l
}

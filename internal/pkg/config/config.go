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

// Package config reads the configuration of the secret propagation analysis.
package config

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"sigs.k8s.io/yaml"

	"github.com/google/go-secret-flow/internal/pkg/config/regexp"
	"github.com/google/go-secret-flow/internal/pkg/propagation"
)

// FlagSet should be used by analyzers to reuse -config flag.
var FlagSet flag.FlagSet
var configFile string

func init() {
	FlagSet.StringVar(&configFile, "config", "config.yaml", "path to analysis configuration file")
}

// Config holds the analysis settings.
type Config struct {
	// SecretOperation names the call whose result is a secret.
	// Names are compared without regard to case. Defaults to getSecret.
	SecretOperation string
	// Exclude lists functions that are not analyzed.
	Exclude []funcMatcher
	// ReportMessage is appended to every reported leak.
	ReportMessage string
	// DebugOutput is a directory receiving a DOT graph of each analyzed
	// function, annotated with the facts holding after each instruction.
	DebugOutput string
	// LogLevel is a zerolog level name. Logging is off when empty.
	LogLevel string
}

// IsExcluded determines if a function matches one of the exclusion patterns.
func (c Config) IsExcluded(path, recv, name string) bool {
	for _, pm := range c.Exclude {
		if pm.MatchFunction(path, recv, name) {
			return true
		}
	}
	return false
}

// PropagationOptions returns the options of an analysis run with c.
func (c Config) PropagationOptions(logger *zerolog.Logger) propagation.Options {
	return propagation.Options{
		SecretOperation: c.SecretOperation,
		Logger:          logger,
	}
}

type stringMatcher interface {
	MatchString(string) bool
}

type literalMatcher string

func (lm literalMatcher) MatchString(s string) bool {
	return string(lm) == s
}

type vacuousMatcher struct{}

func (vacuousMatcher) MatchString(s string) bool {
	return true
}

// Returns the first non-nil matcher.  If all are nil, returns a vacuousMatcher.
func matcherFrom(lm *literalMatcher, r *regexp.Regexp) stringMatcher {
	switch {
	case lm != nil:
		return lm
	case r != nil:
		return r
	default:
		return vacuousMatcher{}
	}
}

// A funcMatcher matches functions by package path, receiver type and name.
// Each attribute is matched either literally or by a regexp (the RE keys).
// Attributes left out match anything.
type funcMatcher struct {
	Package  stringMatcher
	Receiver stringMatcher
	Method   stringMatcher
}

// this type uses the default unmarshaler and mirrors configuration key-value pairs
type rawFuncMatcher struct {
	Package    *literalMatcher
	Receiver   *literalMatcher
	Method     *literalMatcher
	PackageRE  *regexp.Regexp
	ReceiverRE *regexp.Regexp
	MethodRE   *regexp.Regexp
}

func (fm *funcMatcher) UnmarshalJSON(data []byte) error {
	raw := rawFuncMatcher{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	// validation: do not double-specify any attribute with literal and regexp
	if raw.Package != nil && raw.PackageRE != nil {
		return fmt.Errorf("expected at most one of Package, PackageRE to be configured")
	}
	if raw.Receiver != nil && raw.ReceiverRE != nil {
		return fmt.Errorf("expected at most one of Receiver, ReceiverRE to be configured")
	}
	if raw.Method != nil && raw.MethodRE != nil {
		return fmt.Errorf("expected at most one of Method, MethodRE to be configured")
	}

	*fm = funcMatcher{
		Package:  matcherFrom(raw.Package, raw.PackageRE),
		Receiver: matcherFrom(raw.Receiver, raw.ReceiverRE),
		Method:   matcherFrom(raw.Method, raw.MethodRE),
	}
	return nil
}

func (fm funcMatcher) MatchFunction(path, receiver, name string) bool {
	return fm.Package.MatchString(path) && fm.Receiver.MatchString(receiver) && fm.Method.MatchString(name)
}

// Parse decodes a YAML configuration. Unknown keys are an error.
func Parse(data []byte) (*Config, error) {
	c := new(Config)
	if err := yaml.UnmarshalStrict(data, c); err != nil {
		return nil, fmt.Errorf("error parsing analysis config: %w", err)
	}
	if c.SecretOperation == "" {
		c.SecretOperation = propagation.DefaultSecretOperation
	}
	if c.LogLevel != "" {
		if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
			return nil, fmt.Errorf("error parsing analysis config: LogLevel: %w", err)
		}
	}
	return c, nil
}

// Load reads and decodes the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading analysis config: %w", err)
	}
	return Parse(data)
}

var readFileOnce sync.Once
var readConfigCached *Config
var readConfigCachedErr error

// ReadConfig loads the file named by the -config flag of FlagSet.
// The file is read once; later calls return the same result.
func ReadConfig() (*Config, error) {
	readFileOnce.Do(func() {
		readConfigCached, readConfigCachedErr = Load(configFile)
	})
	return readConfigCached, readConfigCachedErr
}

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

package config

import (
	"strings"
	"testing"

	"sigs.k8s.io/yaml"

	"github.com/google/go-secret-flow/internal/pkg/config/regexp"
)

func TestFuncMatcherRejects(t *testing.T) {
	testCases := []struct {
		desc, yaml, wantErr string
	}{
		{
			desc:    "unknown key",
			yaml:    "Function: Open",
			wantErr: "unknown field",
		},
		{
			desc:    "package twice",
			yaml:    "{Package: example.com/vault, PackageRE: vault}",
			wantErr: "Package, PackageRE",
		},
		{
			desc:    "receiver twice",
			yaml:    "{Receiver: Vault, ReceiverRE: V}",
			wantErr: "Receiver, ReceiverRE",
		},
		{
			desc:    "method twice",
			yaml:    "{Method: Open, MethodRE: ^Open}",
			wantErr: "Method, MethodRE",
		},
		{
			desc:    "bad regexp",
			yaml:    `MethodRE: "("`,
			wantErr: "missing closing )",
		},
	}

	for _, tt := range testCases {
		t.Run(tt.desc, func(t *testing.T) {
			var fm funcMatcher
			err := yaml.UnmarshalStrict([]byte(tt.yaml), &fm)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("unmarshaling %q: got error %v, want one mentioning %q", tt.yaml, err, tt.wantErr)
			}
		})
	}
}

func TestIsExcluded(t *testing.T) {
	conf, err := Parse([]byte(`
Exclude:
- Package: example.com/vault
  Receiver: Vault
  Method: Open
- PackageRE: _test$
- MethodRE: ^(Test|Benchmark)
`))
	if err != nil {
		t.Fatal(err)
	}

	testCases := []struct {
		path, recv, name string
		want             bool
	}{
		{"example.com/vault", "Vault", "Open", true},
		{"example.com/vault", "Cache", "Open", false},
		{"example.com/vault", "", "Open", false},
		{"example.com/vaults", "Vault", "Open", false},
		{"example.com/vault_test", "", "helper", true},
		{"example.com/app", "", "TestLogin", true},
		{"example.com/app", "Server", "BenchmarkServe", true},
		{"example.com/app", "", "Login", false},
	}
	for _, tt := range testCases {
		if got := conf.IsExcluded(tt.path, tt.recv, tt.name); got != tt.want {
			t.Errorf("IsExcluded(%q, %q, %q) = %v, want %v", tt.path, tt.recv, tt.name, got, tt.want)
		}
	}
}

func TestEmptyMatcherMatchesEverything(t *testing.T) {
	var fm funcMatcher
	if err := yaml.UnmarshalStrict([]byte("{}"), &fm); err != nil {
		t.Fatal(err)
	}
	if !fm.MatchFunction("example.com/any", "T", "M") {
		t.Error("an empty matcher does not match example.com/any.(T).M")
	}
}

func TestStringMatchers(t *testing.T) {
	testCases := []struct {
		m    stringMatcher
		s    string
		want bool
	}{
		{literalMatcher("Open"), "Open", true},
		{literalMatcher("Open"), "OpenAll", false},
		{regexp.New("^Open"), "OpenAll", true},
		{regexp.New("^Open"), "Reopen", false},
		{vacuousMatcher{}, "", true},
	}
	for _, tt := range testCases {
		if got := tt.m.MatchString(tt.s); got != tt.want {
			t.Errorf("(%T %v).MatchString(%q) = %v, want %v", tt.m, tt.m, tt.s, got, tt.want)
		}
	}
}

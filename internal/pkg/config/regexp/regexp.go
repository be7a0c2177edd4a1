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

// Package regexp provides a regular expression that can be read from a
// configuration file.
package regexp

import (
	"encoding/json"
	"regexp"
)

// Regexp is a compiled regular expression.
// The zero value matches every string.
type Regexp struct {
	r *regexp.Regexp
}

// New compiles expr. It panics if expr is not a valid expression.
func New(expr string) *Regexp {
	return &Regexp{r: regexp.MustCompile(expr)}
}

// UnmarshalJSON compiles the expression held by a JSON string.
func (mr *Regexp) UnmarshalJSON(data []byte) error {
	var expr string
	if err := json.Unmarshal(data, &expr); err != nil {
		return err
	}
	r, err := regexp.Compile(expr)
	if err != nil {
		return err
	}
	mr.r = r
	return nil
}

// MatchString reports whether s contains a match of the expression.
func (mr *Regexp) MatchString(s string) bool {
	if mr == nil || mr.r == nil {
		return true
	}
	return mr.r.MatchString(s)
}

func (mr *Regexp) String() string {
	if mr == nil || mr.r == nil {
		return ""
	}
	return mr.r.String()
}

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

package regexp

import (
	"encoding/json"
	"testing"
)

func TestUnmarshalJSON(t *testing.T) {
	testCases := []struct {
		desc       string
		in         []byte
		wantMatch  string
		wantReject string
		wantErr    bool
	}{
		{
			desc:       "valid regex",
			in:         []byte(`"^hello$"`),
			wantMatch:  "hello",
			wantReject: "hello world",
		},
		{
			desc:      "unanchored regex",
			in:        []byte(`"secret"`),
			wantMatch: "getSecretOrsecret",
		},
		{
			desc:    "empty input",
			in:      []byte(""),
			wantErr: true,
		},
		{
			desc:    "not a string",
			in:      []byte("42"),
			wantErr: true,
		},
		{
			desc:    "invalid regex",
			in:      []byte(`"["`),
			wantErr: true,
		},
	}

	for _, tt := range testCases {
		t.Run(tt.desc, func(t *testing.T) {
			got := &Regexp{}
			err := json.Unmarshal(tt.in, &got)

			if tt.wantErr != (err != nil) {
				t.Fatalf("json.Unmarshal(%s) = %v, want error: %v", tt.in, err, tt.wantErr)
			}
			if !got.MatchString(tt.wantMatch) {
				t.Errorf("MatchString(%q) = false, want true", tt.wantMatch)
			}
			if tt.wantReject != "" && got.MatchString(tt.wantReject) {
				t.Errorf("MatchString(%q) = true, want false", tt.wantReject)
			}
		})
	}
}

func TestZeroValueMatchesEverything(t *testing.T) {
	var nilRegexp *Regexp
	for _, r := range []*Regexp{{}, nilRegexp} {
		if !r.MatchString("anything") {
			t.Errorf("%#v.MatchString() = false, want true", r)
		}
		if r.String() != "" {
			t.Errorf("%#v.String() = %q, want empty", r, r.String())
		}
	}
	if got := New("a+b").String(); got != "a+b" {
		t.Errorf("New(\"a+b\").String() = %q", got)
	}
}

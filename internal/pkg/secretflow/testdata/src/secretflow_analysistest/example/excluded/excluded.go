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

package excluded

type Sink interface {
	Put(s string)
}

func getSecret() string { return "hunter2" }

func IgnoredByConfig(k Sink) {
	k.Put(getSecret())
}

func IgnoredToo() string {
	return getSecret()
}

func IgnoredOuter(k Sink) func() {
	return func() {
		k.Put(getSecret())
	}
}

func NotIgnored(k Sink) {
	k.Put(getSecret()) // want "a secret escapes this function"
}

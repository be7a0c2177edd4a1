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

package core

type Sink interface {
	Put(s string)
}

type Logger interface {
	Log(args ...interface{})
}

type Holder struct {
	Secret string
}

var leaked string

func getSecret() string { return "hunter2" }

func consume(s string) {}

func ReturnSecret() string {
	return getSecret() // want "a secret escapes this function\n secret: .*core.go:36"
}

func PutSecret(k Sink) {
	k.Put(getSecret()) // want "a secret escapes this function"
}

func CaseDoesNotMatter(k Sink) {
	k.Put(GETSECRET()) // want "a secret escapes this function"
}

func GETSECRET() string { return "" }

func PassToStaticFunction() {
	consume(getSecret())
}

func Overwritten(k Sink) {
	s := getSecret()
	s = "public"
	k.Put(s)
}

func Branch(k Sink, c bool) {
	s := "public"
	if c {
		s = getSecret()
	}
	k.Put(s) // want "a secret escapes this function"
}

func Loop(k Sink, n int) {
	s := ""
	for i := 0; i < n; i++ {
		k.Put(s) // want "a secret escapes this function"
		s = getSecret()
	}
}

func ThroughField(h *Holder) string {
	h.Secret = getSecret()
	return h.Secret // want "a secret escapes this function"
}

func ThroughGlobal() string {
	leaked = getSecret()
	return leaked // want "a secret escapes this function"
}

func Boxed() interface{} {
	var v interface{} = getSecret()
	return v // want "a secret escapes this function"
}

func FuncValue(f func(string)) {
	f(getSecret()) // want "a secret escapes this function"
}

func Closure(k Sink) func() {
	return func() {
		k.Put(getSecret()) // want "a secret escapes this function"
	}
}

func Variadic(l Logger) {
	l.Log("password", getSecret()) // want "a secret escapes this function"
}

func SpreadLiteral(l Logger) {
	args := []interface{}{getSecret()}
	l.Log(args...) // want "a secret escapes this function"
}

// Secrets stored into a slice that is not passed right away are not tracked.
func SpreadLater(l Logger) {
	args := make([]interface{}, 1)
	args[0] = getSecret()
	l.Log(args...)
}

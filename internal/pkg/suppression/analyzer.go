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

// Package suppression defines an analyzer that identifies statements
// suppressed by a comment.
package suppression

import (
	"go/ast"
	"go/token"
	"reflect"
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/ast/astutil"
)

// ResultType is a set of nodes that are suppressed by a comment.
type ResultType map[ast.Node]bool

func (rt ResultType) IsSuppressed(n ast.Node) bool {
	_, ok := rt[n]
	return ok
}

// IsSuppressedAt reports whether the statement at pos is suppressed.
// A suppressing comment may be attached to the statement, to the call
// expression at pos, or to the name of the function being called.
func (rt ResultType) IsSuppressedAt(files []*ast.File, pos token.Pos) bool {
	if !pos.IsValid() {
		return false
	}
	for _, f := range files {
		if pos < f.Pos() || f.End() < pos {
			continue
		}
		// path runs from the innermost node enclosing pos up to the file.
		path, _ := astutil.PathEnclosingInterval(f, pos, pos)
		if len(path) < 2 {
			return false
		}
		if ce, ok := path[0].(*ast.CallExpr); ok {
			if rt.IsSuppressed(ce.Fun) {
				return true
			}
			switch t := ce.Fun.(type) {
			case *ast.Ident:
				/*
					Log( // secretflow:ignore
				*/
				if rt.IsSuppressed(t) {
					return true
				}
			case *ast.SelectorExpr:
				/*
					logger.Log( // secretflow:ignore
				*/
				if rt.IsSuppressed(t.Sel) {
					return true
				}
			}
		}
		for _, n := range path[:len(path)-1] {
			if rt.IsSuppressed(n) {
				return true
			}
			if _, ok := n.(ast.Stmt); ok {
				break
			}
		}
		return false
	}
	return false
}

var Analyzer = &analysis.Analyzer{
	Name:       "suppression",
	Doc:        "This analyzer identifies ast nodes that are suppressed by comments.",
	Run:        run,
	ResultType: reflect.TypeOf(new(ResultType)).Elem(),
}

func run(pass *analysis.Pass) (interface{}, error) {
	return Find(pass.Fset, pass.Files), nil
}

// Find returns the nodes of files that carry a suppressing comment.
func Find(fset *token.FileSet, files []*ast.File) ResultType {
	result := ResultType{}
	for _, f := range files {
		for node, commentGroups := range ast.NewCommentMap(fset, f, f.Comments) {
			for _, cg := range commentGroups {
				if isSuppressingCommentGroup(cg) {
					result[node] = true
				}
			}
		}
	}
	return result
}

// isSuppressingCommentGroup looks at the raw comments, since
// CommentGroup.Text drops "//name:value" directives.
func isSuppressingCommentGroup(commentGroup *ast.CommentGroup) bool {
	for _, c := range commentGroup.List {
		text := strings.TrimSuffix(c.Text, "*/")
		for _, line := range strings.Split(text, "\n") {
			trimmed := strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(line), "//"), "/*"))
			if strings.HasPrefix(trimmed, doNotReport) {
				return true
			}
		}
	}
	return false
}

const doNotReport = "secretflow:ignore"

// Copyright 2018 The CUE Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package future collects the names imported from `__future__` at the top
// of a module, stopping at the first statement that is not a docstring or
// a `from __future__ import ...` line, exactly as a real future statement
// must appear near the top of a Python module.
package future

import "github.com/pyforks/beniget-ng/ast"

// Imports is the set of names collected from `__future__` import
// statements at the top of a module.
type Imports struct {
	names map[string]bool
}

// Has reports whether name was imported from `__future__`.
func (i *Imports) Has(name string) bool {
	if i == nil {
		return false
	}
	return i.names[name]
}

// HasAnnotations reports whether `from __future__ import annotations` is in
// effect, enabling PEP 563 deferred annotation evaluation.
func (i *Imports) HasAnnotations() bool { return i.Has("annotations") }

// Collect scans the leading statements of module for `from __future__
// import ...` lines. Only a module docstring, blank/comment lines (which
// never appear as AST nodes), and other future statements may precede a
// future import; the first statement that is not one of those stops the
// scan, matching the interpreter's own restriction on where a future
// statement may appear.
func Collect(module *ast.Module) *Imports {
	imp := &Imports{names: make(map[string]bool)}
	for _, stmt := range module.Body {
		if !scanStmt(stmt, imp) {
			break
		}
	}
	return imp
}

// scanStmt processes one leading module statement, returning false if the
// scan should stop (a non-docstring, non-future statement was reached).
func scanStmt(stmt ast.Stmt, imp *Imports) bool {
	switch n := stmt.(type) {
	case *ast.ImportFrom:
		if n.Level != 0 || n.Module != "__future__" {
			return false
		}
		for _, al := range n.Names {
			imp.names[al.Name] = true
		}
		return true
	case *ast.ExprStmt:
		if isStringConstant(n.Value) {
			return true // docstring; keep scanning
		}
		return false
	default:
		return false
	}
}

func isStringConstant(e ast.Expr) bool {
	c, ok := e.(*ast.Constant)
	if !ok {
		return false
	}
	_, isString := c.Value.(string)
	return isString
}

// IsStubModule reports whether a module's filename marks it as a type-stub
// file (".pyi"), in which case every annotation is treated as deferred
// regardless of whether `from __future__ import annotations` was seen.
func IsStubModule(filename string) bool {
	return len(filename) >= 4 && filename[len(filename)-4:] == ".pyi"
}

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

package resolve

import (
	"github.com/pyforks/beniget-ng/ast"
	"github.com/pyforks/beniget-ng/defs"
	"github.com/pyforks/beniget-ng/diag"
	"github.com/pyforks/beniget-ng/internal/future"
)

// Result is the output of a single Analyze call: the def-use chains, the
// per-scope locals tables, the resolved import table, and any diagnostics
// collected along the way.
type Result struct {
	// Chains maps every binding-producing or read AST node to the Def that
	// represents it.
	Chains map[ast.Node]*defs.Def
	// Locals maps each scope node to the Defs it declares, in the order
	// they were first bound.
	Locals map[ast.Node][]*defs.Def
	// Imports maps each import alias node to its resolved origin.
	Imports map[*ast.Alias]ImportInfo
	// Builtins is the table of synthetic builtin Defs, seeded into the
	// module scope's frame when analysis starts so that lookups find them
	// like any other reaching definition. Exposed so
	// that downstream tooling (e.g. the invert package) can enumerate
	// every Def that might appear as a reaching definition, not only the
	// ones backed by a node in Chains.
	Builtins map[string]*defs.Def
	// Diags holds every warning raised during analysis (warnings never
	// abort it) plus any malformed-import diagnostics.
	Diags diag.List
}

// Analyze runs the def-use chain engine over module and returns the
// computed chains, locals, imports, and diagnostics. One Engine, created
// fresh inside this call, analyzes exactly one module and is never reused.
func Analyze(module *ast.Module, opts Options) *Result {
	e := NewEngine(opts)
	return e.analyze(module)
}

// analyze drives the whole pass: determine deferred-annotation mode from
// the module prologue, walk the module body, then drain the deferred body
// queue and the deferred annotation queue, in that order.
func (e *Engine) analyze(module *ast.Module) *Result {
	e.module = module

	if future.Collect(module).HasAnnotations() {
		e.futureAnno = true
	}

	e.deferredAnnotations = append(e.deferredAnnotations, nil)

	e.pushScope(module, module.Body, false)

	// Seed every builtin into the module frame, so name lookups bottom out
	// on the builtin table the same way any other reaching definition is
	// found. A wildcard import bound in an inner frame still yields the
	// builtin alongside its star Defs; a lookup that reaches the module
	// frame holding both gets only the builtin.
	for name, d := range e.builtins {
		e.definitionsStack[0][name] = newDefset(d)
	}

	e.processBody(module.Body)

	e.drainDeferredBodies()
	e.drainDeferredAnnotations()

	e.popScope()
	e.deferredAnnotations = e.deferredAnnotations[:len(e.deferredAnnotations)-1]

	return &Result{
		Chains:   e.chains,
		Locals:   e.locals,
		Imports:  e.imports,
		Builtins: e.builtins,
		Diags:    e.diags,
	}
}

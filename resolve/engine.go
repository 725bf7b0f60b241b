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

// Package resolve implements the def-use chain engine: a stack-based
// walker that threads a scope/definition stack through a module's
// statements, producing a Def (package defs) for every binding and wiring
// each read to the definitions that reach it.
//
// The engine is a single mutable struct carrying parallel stacks of frames
// through a recursive-descent walk, pushed and popped around each nested
// scope: function, class, lambda, comprehension, module, and PEP-695
// type-parameter scopes, with two-step (declare, then later define)
// handling of function and lambda bodies.
package resolve

import (
	"github.com/pyforks/beniget-ng/ast"
	"github.com/pyforks/beniget-ng/defs"
	"github.com/pyforks/beniget-ng/diag"
	"github.com/pyforks/beniget-ng/internal/future"
	"github.com/pyforks/beniget-ng/internal/ordered"
	"github.com/pyforks/beniget-ng/internal/prescan"
	"github.com/pyforks/beniget-ng/token"
)

// defset is the per-name bucket of an active definition frame: every Def
// currently reaching uses of that name at this point in the walk.
type defset = *ordered.Set[*defs.Def]

func newDefset(d ...*defs.Def) defset {
	s := ordered.New[*defs.Def]()
	for _, v := range d {
		s.Add(v)
	}
	return s
}

// definitions is one frame of the definitions stack: a name -> defset map.
type definitions map[string]defset

func newDefinitions() definitions { return make(definitions) }

func (d definitions) clone() definitions {
	c := make(definitions, len(d))
	for k, v := range d {
		c[k] = v.Clone()
	}
	return c
}

func addToDefinition(d definitions, name string, one *defs.Def) {
	s, ok := d[name]
	if !ok {
		s = ordered.New[*defs.Def]()
		d[name] = s
	}
	s.Add(one)
}

func addManyToDefinition(d definitions, name string, many defset) {
	s, ok := d[name]
	if !ok {
		s = ordered.New[*defs.Def]()
		d[name] = s
	}
	for _, v := range many.Slice() {
		s.Add(v)
	}
}

// nonlocalTarget is one `nonlocal` write route: the absolute index of the
// enclosing definitions frame the rebinding applies to, and the scope node
// that owns that frame (where the rebinding Def is recorded as a local).
type nonlocalTarget struct {
	frame int
	scope ast.Node
}

// undefEntry records a Def created for a name that was unresolved at the
// point it was read, together with the "*"-wildcard Defs (if any) that were
// also in scope, so it can be patched up if the name turns out to be bound
// later in the same frame (e.g. a loop body reading a variable the loop
// itself assigns).
type undefEntry struct {
	def   *defs.Def
	stars []*defs.Def
}

// deferredFunc is one entry of the deferred function/lambda body queue: the
// declaration-step snapshot of every stack needed to resume processing that
// body later, once the rest of the enclosing scope has been populated.
type deferredFunc struct {
	node              ast.Node
	definitions       []definitions
	scopes            []ast.Node
	scopeDepths       []int
	globals           []map[string]bool
	precomputedLocals []*prescan.Result
}

// deferredAnnotation is one entry of the deferred-annotation queue used
// when PEP 563 (`from __future__ import annotations`) or stub-mode
// defers an annotation expression's evaluation until the whole module has
// been walked.
type deferredAnnotation struct {
	expr     ast.Expr
	heads    []ast.Node
	callback func(*defs.Def)
}

// Engine carries all mutable state for one analysis pass. One Engine
// analyses exactly one module; create a new Engine per module.
type Engine struct {
	filename   string
	modname    string
	isPackage  bool
	isStub     bool
	futureAnno bool

	// annotationMode is set for the duration of drainDeferredAnnotations:
	// while true, visitName resolves Load/Del reads through
	// computeAnnotationDefs (module-scope-last order) instead of the
	// regular computeDefs walk.
	annotationMode bool

	builtins map[string]*defs.Def

	chains  map[ast.Node]*defs.Def
	locals  map[ast.Node][]*defs.Def
	imports map[*ast.Alias]ImportInfo

	module *ast.Module

	deferred            []deferredFunc
	deferredAnnotations [][]deferredAnnotation

	definitionsStack []definitions
	scopeDepths      []int
	globalsStack     []map[string]bool
	precomputedStack []*prescan.Result
	scopes           []ast.Node

	// nonlocalsStack records, per open scope, the write routes created by
	// its `nonlocal` statements: name -> the enclosing definitions frame
	// (and its owning scope) that subsequent writes of that name rebind.
	nonlocalsStack []map[string]nonlocalTarget

	undefs []map[string][]undefEntry

	breaks    []definitions
	continues []definitions

	deadcode int

	diags diag.List
}

// ImportInfo is the resolved origin of one import alias, re-exported from
// package importresolve so callers of package resolve need only one import.
type ImportInfo struct {
	OriginModule string
	ImportedName string
}

// Target returns the fully qualified name of the imported symbol:
// "module.name", or just "module" when ImportedName is empty.
func (i ImportInfo) Target() string {
	if i.ImportedName != "" {
		return i.OriginModule + "." + i.ImportedName
	}
	return i.OriginModule
}

// Options configures one analysis run.
type Options struct {
	// Filename is the POSIX-like source path, used for stub-mode detection
	// (a ".pyi" suffix) and in diagnostic messages.
	Filename string
	// ModName is the fully qualified dotted module name. A name ending in
	// ".__init__" marks the module as a package.
	ModName string
	// FutureAnnotations manually enables PEP 563 semantics even without a
	// `from __future__ import annotations` statement in the source.
	FutureAnnotations bool
	// IsStub manually enables stub-file semantics (implies
	// FutureAnnotations); automatically enabled when Filename ends in
	// ".pyi".
	IsStub bool
}

// NewEngine creates an Engine ready to analyze a single module.
func NewEngine(opts Options) *Engine {
	modname := opts.ModName
	isPackage := false
	if len(modname) > len(".__init__") && modname[len(modname)-len(".__init__"):] == ".__init__" {
		modname = modname[:len(modname)-len(".__init__")]
		isPackage = true
	}
	isStub := opts.IsStub || future.IsStubModule(opts.Filename)
	return &Engine{
		filename:   opts.Filename,
		modname:    modname,
		isPackage:  isPackage,
		isStub:     isStub,
		futureAnno: opts.FutureAnnotations || isStub,
		builtins:   defs.NewBuiltinTable(),
		chains:     make(map[ast.Node]*defs.Def),
		locals:     make(map[ast.Node][]*defs.Def),
		imports:    make(map[*ast.Alias]ImportInfo),
	}
}

// warnf reports a syntactic-misuse warning: the offending subtree is
// skipped, analysis continues.
func (e *Engine) warnf(node ast.Node, format string, args ...interface{}) {
	e.diags.Warnf(diag.KindSyntax, e.posOf(node), format, args...)
}

// posOf returns node's position with the analyzer's filename filled in when
// the parser left it blank, so every diagnostic renders a full
// "<filename>:<line>:<col>" location.
func (e *Engine) posOf(node ast.Node) token.Position {
	if node == nil {
		return token.Position{Filename: e.filename}
	}
	p := node.Pos()
	if p.Filename == "" {
		p.Filename = e.filename
	}
	return p
}

func (e *Engine) unboundIdentifier(name string, node ast.Node) {
	e.diags.Warnf(diag.KindUnbound, e.posOf(node), "unbound identifier %q", name)
}

func (e *Engine) readBeforeAssign(name string, node ast.Node) {
	e.diags.Warnf(diag.KindReadBeforeAssign, e.posOf(node), "local variable %q referenced before assignment", name)
}

// defFor returns the Def already recorded for node, creating and recording
// a fresh one if none exists yet (the `chains.setdefault` idiom).
func (e *Engine) defFor(node ast.Node) *defs.Def {
	if d, ok := e.chains[node]; ok {
		return d
	}
	d := defs.NewFromNode(node)
	e.chains[node] = d
	return d
}

// addToLocals records dnode as one of the bindings visible directly within
// the innermost (or scopeIndexFromEnd-th from the end) active scope, unless
// name was declared global in any scope on the stack, in which case it is routed
// to the module scope instead.
func (e *Engine) addToLocals(name string, dnode *defs.Def, scopeIndexFromEnd int) {
	if e.isGlobalName(name) {
		e.setOrExtendGlobal(name, dnode)
		return
	}
	scope := e.scopes[len(e.scopes)+scopeIndexFromEnd]
	for _, existing := range e.locals[scope] {
		if existing == dnode {
			return
		}
	}
	e.locals[scope] = append(e.locals[scope], dnode)
}

func (e *Engine) isGlobalName(name string) bool {
	for _, g := range e.globalsStack {
		if g[name] {
			return true
		}
	}
	return false
}

// setDefinition replaces name's binding in the frame at stack index
// (len(definitionsStack)+index), marking every previously live Def it
// overwrites as no-longer-live unless that Def might still be reachable
// through another still-open definition frame.
func (e *Engine) setDefinition(name string, one *defs.Def, index int) {
	e.setDefinitionMany(name, newDefset(one), index)
}

func (e *Engine) setDefinitionMany(name string, many defset, index int) {
	if e.deadcode > 0 {
		return
	}
	i := len(e.definitionsStack) + index
	frame := e.definitionsStack[i]
	if existing, ok := frame[name]; ok {
		for _, d := range existing.Slice() {
			if d.IsSynthetic() {
				continue // builtins and markers are never marked killed
			}
			if many.Has(d) {
				continue // re-declared conditionally: still reachable
			}
			killedElsewhere := false
			for _, other := range e.definitionsStack[:i] {
				if s, ok := other[name]; ok && s.Has(d) {
					killedElsewhere = true
					break
				}
			}
			if killedElsewhere {
				continue
			}
			d.Live = false
		}
	}
	frame[name] = many
}

func (e *Engine) extendDefinition(name string, many defset) {
	if e.deadcode > 0 {
		return
	}
	addManyToDefinition(e.definitionsStack[len(e.definitionsStack)-1], name, many)
}

func (e *Engine) extendDefinitionOne(name string, one *defs.Def) {
	if e.deadcode > 0 {
		return
	}
	addToDefinition(e.definitionsStack[len(e.definitionsStack)-1], name, one)
}

func (e *Engine) extendGlobal(name string, one *defs.Def) {
	if e.deadcode > 0 {
		return
	}
	if _, ok := e.definitionsStack[0][name]; !ok {
		e.locals[e.module] = append(e.locals[e.module], one)
	}
	addToDefinition(e.definitionsStack[0], name, one)
}

func (e *Engine) setOrExtendGlobal(name string, one *defs.Def) {
	if e.deadcode > 0 {
		return
	}
	if _, ok := e.definitionsStack[0][name]; !ok {
		e.locals[e.module] = append(e.locals[e.module], one)
	}
	addToDefinition(e.definitionsStack[0], name, one)
}

// pushScope opens a new scope frame (module, class, function, lambda,
// comprehension, or def695 type-parameter scope).
func (e *Engine) pushScope(node ast.Node, body []ast.Stmt, isDef695 bool) {
	e.scopes = append(e.scopes, node)
	e.scopeDepths = append(e.scopeDepths, -1)
	e.definitionsStack = append(e.definitionsStack, newDefinitions())
	e.globalsStack = append(e.globalsStack, make(map[string]bool))
	e.precomputedStack = append(e.precomputedStack, prescan.Collect(body, isDef695))
	e.nonlocalsStack = append(e.nonlocalsStack, make(map[string]nonlocalTarget))
}

// pushScopeWithPrecomputed opens a new scope frame whose precomputed-locals
// result was already computed by a caller that doesn't have a plain
// statement list to hand prescan.Collect -- a Lambda or comprehension/
// generator-expression scope, whose "body" is an expression (or a set of
// generator clauses), not a []ast.Stmt.
func (e *Engine) pushScopeWithPrecomputed(node ast.Node, pre *prescan.Result) {
	e.scopes = append(e.scopes, node)
	e.scopeDepths = append(e.scopeDepths, -1)
	e.definitionsStack = append(e.definitionsStack, newDefinitions())
	e.globalsStack = append(e.globalsStack, make(map[string]bool))
	e.precomputedStack = append(e.precomputedStack, pre)
	e.nonlocalsStack = append(e.nonlocalsStack, make(map[string]nonlocalTarget))
}

func (e *Engine) popScope() {
	e.nonlocalsStack = e.nonlocalsStack[:len(e.nonlocalsStack)-1]
	e.precomputedStack = e.precomputedStack[:len(e.precomputedStack)-1]
	e.globalsStack = e.globalsStack[:len(e.globalsStack)-1]
	e.definitionsStack = e.definitionsStack[:len(e.definitionsStack)-1]
	e.scopeDepths = e.scopeDepths[:len(e.scopeDepths)-1]
	e.scopes = e.scopes[:len(e.scopes)-1]
}

// nonlocalRoute returns the write route a `nonlocal` statement in the
// current scope established for name, if any.
func (e *Engine) nonlocalRoute(name string) (nonlocalTarget, bool) {
	if len(e.nonlocalsStack) == 0 {
		return nonlocalTarget{}, false
	}
	t, ok := e.nonlocalsStack[len(e.nonlocalsStack)-1][name]
	return t, ok
}

// scopeOwningFrame maps an absolute definitions-frame index back to the
// scope whose region of the stack it falls in, using the per-scope depth
// counters (each scope owns -depth consecutive frames, bottom up).
func (e *Engine) scopeOwningFrame(i int) (ast.Node, bool) {
	start := 0
	for j := 0; j < len(e.scopes) && j < len(e.scopeDepths); j++ {
		n := -e.scopeDepths[j]
		if i < start+n {
			return e.scopes[j], true
		}
		start += n
	}
	return nil, false
}

// setNonlocalDefinition rebinds name in the enclosing frame a `nonlocal`
// statement routed it to. The replaced Defs lose liveness (the rebinding
// dominates the remainder of the enclosing scope unless an outer frame
// still carries them), and their users transfer onto the new Def: a read
// that resolved against the old binding may equally observe the rebound
// one once the inner function runs.
func (e *Engine) setNonlocalDefinition(name string, dnode *defs.Def, target nonlocalTarget) {
	if e.deadcode > 0 {
		return
	}
	if target.frame >= len(e.definitionsStack) {
		return
	}
	frame := e.definitionsStack[target.frame]
	if existing, ok := frame[name]; ok {
		for _, d := range existing.Slice() {
			if d.IsSynthetic() || d == dnode {
				continue
			}
			killedElsewhere := false
			for _, other := range e.definitionsStack[:target.frame] {
				if s, ok := other[name]; ok && s.Has(d) {
					killedElsewhere = true
					break
				}
			}
			if !killedElsewhere {
				d.Live = false
			}
			for _, u := range d.Users() {
				dnode.AddUser(u)
			}
		}
	}
	frame[name] = newDefset(dnode)
	if target.scope != nil {
		for _, existing := range e.locals[target.scope] {
			if existing == dnode {
				return
			}
		}
		e.locals[target.scope] = append(e.locals[target.scope], dnode)
	}
}

// pushDefinitionContext opens a nested definitions frame within the
// current scope (used for if/while/for/try/match branch bodies) without
// opening a new scope.
func (e *Engine) pushDefinitionContext(initial definitions) definitions {
	e.definitionsStack = append(e.definitionsStack, initial)
	e.scopeDepths[len(e.scopeDepths)-1]--
	return e.definitionsStack[len(e.definitionsStack)-1]
}

func (e *Engine) popDefinitionContext() {
	e.scopeDepths[len(e.scopeDepths)-1]++
	e.definitionsStack = e.definitionsStack[:len(e.definitionsStack)-1]
}

// switchScope swaps the entire scope/definitions/depths/globals/
// precomputed-locals state, returning a function that restores it. This
// underlies both the deferred function/lambda body queue and a
// comprehension's outer-iterable evaluation, which both need to resume
// processing against a stack snapshot captured earlier in the walk rather
// than the current top of stack.
func (e *Engine) switchScope(definitionsStack []definitions, scopes []ast.Node, scopeDepths []int, globalsStack []map[string]bool, precomputedStack []*prescan.Result) func() {
	oldDefs, oldScopes, oldDepths, oldGlobals, oldPrecomputed :=
		e.definitionsStack, e.scopes, e.scopeDepths, e.globalsStack, e.precomputedStack
	e.definitionsStack, e.scopes, e.scopeDepths, e.globalsStack, e.precomputedStack =
		definitionsStack, scopes, scopeDepths, globalsStack, precomputedStack
	return func() {
		e.definitionsStack, e.scopes, e.scopeDepths, e.globalsStack, e.precomputedStack =
			oldDefs, oldScopes, oldDepths, oldGlobals, oldPrecomputed
	}
}

func cloneDefinitionsStack(s []definitions) []definitions {
	out := make([]definitions, len(s))
	copy(out, s)
	return out
}

func cloneScopesStack(s []ast.Node) []ast.Node {
	out := make([]ast.Node, len(s))
	copy(out, s)
	return out
}

func cloneIntStack(s []int) []int {
	out := make([]int, len(s))
	copy(out, s)
	return out
}

func cloneGlobalsStack(s []map[string]bool) []map[string]bool {
	out := make([]map[string]bool, len(s))
	copy(out, s)
	return out
}

func clonePrecomputedStack(s []*prescan.Result) []*prescan.Result {
	out := make([]*prescan.Result, len(s))
	copy(out, s)
	return out
}

// invalidNameLookup reports whether looking up name in defs (the set of
// frames belonging to one scope level) must be rejected because name is
// meant to be a local of scope but hasn't been bound on this code path yet
// -- Python's "local variable referenced before assignment" error, detected
// statically.
func (e *Engine) invalidNameLookup(name string, scope ast.Node, precomputed *prescan.Result, localDefs []definitions) bool {
	if !precomputed.Locals[name] {
		return false
	}
	isLocal := false
	for _, d := range localDefs {
		if _, ok := d[name]; ok {
			isLocal = true
			break
		}
		if _, ok := d["*"]; ok {
			isLocal = true
			break
		}
	}
	switch scope.(type) {
	case *ast.ClassDef, *ast.TypeParamScope:
		// At class (or def695) scope, a name may still resolve to a
		// module-level global even though it also has a local definition:
		// `class bar: a = a` succeeds even though `def foo(): a = a` fails.
		if isLocal {
			return false
		}
		n := -e.scopeDepths[0]
		for _, topLevel := range e.definitionsStack[:n] {
			if _, ok := topLevel[name]; ok {
				return false
			}
			if _, ok := topLevel["*"]; ok {
				return false
			}
		}
		return true
	default:
		return !isLocal
	}
}

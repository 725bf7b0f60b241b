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
	"github.com/pyforks/beniget-ng/internal/prescan"
)

// visitFunctionDef handles `def`/`async def`. At the declaration step it installs the
// function's own Def where it is textually written, visits everything
// that must see the *enclosing* scope (defaults, decorators, and --
// unless deferred -- annotations), then snapshots every stack and enqueues
// the body for the definition step, run once the enclosing scope finishes.
//
// insideDef695 is true only when visitDef695 calls back into this method
// for the payload of a PEP-695 type-parameter scope: the function's own
// name then installs two frames up (in the scope enclosing the synthetic
// wrapper) instead of in the wrapper scope itself, so the name stays
// visible both inside and outside the wrapper.
func (e *Engine) visitFunctionDef(n *ast.FunctionDef, s step, insideDef695 bool) {
	if s == definitionStep {
		e.pushScope(n, n.Body, false)
		e.bindParamList(n.Args)
		e.processBody(n.Body)
		e.popScope()
		return
	}

	dnode := e.defFor(n)
	e.addToLocals(n.Name, dnode, -1)

	if !insideDef695 {
		// Defaults and decorators evaluate in the enclosing scope, before
		// any type-parameter wrapper scope is entered.
		if n.Args != nil {
			for _, d := range n.Args.KwDefaults {
				if d != nil {
					e.visitExpr(d).AddUser(dnode)
				}
			}
			for _, d := range n.Args.Defaults {
				e.visitExpr(d).AddUser(dnode)
			}
		}
		for _, dec := range n.Decorators {
			if e.isStub {
				e.deferAnnotation(dec, nil, nil)
			} else {
				e.visitExpr(dec)
			}
		}
		if len(n.TypeParams) > 0 {
			e.visitDef695(wrapDef695(n, n.TypeParams))
			return
		}
	}

	e.visitParamAnnotations(n.Args, n.Returns, insideDef695)

	// The name binds only after everything the declaration itself reads has
	// been visited, so `f = 1` followed by `def f(x=f)` resolves the default
	// to the earlier binding.
	index := -1
	if insideDef695 {
		index = -2
	}
	e.setDefinition(n.Name, dnode, index)

	e.deferred = append(e.deferred, deferredFunc{
		node:              n,
		definitions:       cloneDefinitionsStack(e.definitionsStack),
		scopes:            cloneScopesStack(e.scopes),
		scopeDepths:       cloneIntStack(e.scopeDepths),
		globals:           cloneGlobalsStack(e.globalsStack),
		precomputedLocals: clonePrecomputedStack(e.precomputedStack),
	})
}

// visitLambda handles a lambda expression the same two-step way as
// visitFunctionDef, except the result of the declaration step is the
// Lambda's own Def -- needed immediately, since (unlike a `def`) a lambda
// is itself an expression with a value at the point it is written.
func (e *Engine) visitLambda(n *ast.Lambda, s step) *defs.Def {
	dnode := e.defFor(n)
	if s == definitionStep {
		e.pushScopeWithPrecomputed(n, prescan.CollectLambda(n.Args, n.Body))
		e.bindParamList(n.Args)
		e.visitExpr(n.Body).AddUser(dnode)
		e.popScope()
		return dnode
	}

	if n.Args != nil {
		for _, d := range n.Args.Defaults {
			e.visitExpr(d).AddUser(dnode)
		}
		for _, d := range n.Args.KwDefaults {
			if d != nil {
				e.visitExpr(d).AddUser(dnode)
			}
		}
	}

	e.deferred = append(e.deferred, deferredFunc{
		node:              n,
		definitions:       cloneDefinitionsStack(e.definitionsStack),
		scopes:            cloneScopesStack(e.scopes),
		scopeDepths:       cloneIntStack(e.scopeDepths),
		globals:           cloneGlobalsStack(e.globalsStack),
		precomputedLocals: clonePrecomputedStack(e.precomputedStack),
	})
	return dnode
}

// bindParamList binds every parameter of args -- positional-only, regular
// positional, `*args`, keyword-only, `**kwargs` -- as a fresh Def of the
// newly-pushed scope. Annotations are ignored here: visitParamAnnotations
// (or, for a Lambda, nothing -- lambdas cannot carry annotations) already
// visited them against the enclosing scope during the declaration step.
func (e *Engine) bindParamList(args *ast.Arguments) {
	if args == nil {
		return
	}
	for _, a := range args.PosOnlyArgs {
		e.bindParam(a)
	}
	for _, a := range args.Args {
		e.bindParam(a)
	}
	if args.Vararg != nil {
		e.bindParam(args.Vararg)
	}
	for _, a := range args.KwOnlyArgs {
		e.bindParam(a)
	}
	if args.Kwarg != nil {
		e.bindParam(args.Kwarg)
	}
}

// bindParam installs a's own Def (keyed on the *ast.Arg node itself, so
// defs.Def.Name() recovers its identifier directly) as a Store-context
// binding of the current (innermost) scope.
func (e *Engine) bindParam(a *ast.Arg) {
	if a == nil {
		return
	}
	dnode := e.defFor(a)
	e.setDefinition(a.Name, dnode, -1)
	e.addToLocals(a.Name, dnode, -1)
}

// visitParamAnnotations visits every parameter annotation and the return
// annotation of a function declaration, either eagerly (against the
// enclosing scope, the ordinary case) or -- in deferred-annotation mode --
// validated and queued to resolve once the whole module has been walked.
func (e *Engine) visitParamAnnotations(args *ast.Arguments, returns ast.Expr, insideDef695 bool) {
	annotate := func(a ast.Expr) {
		if a == nil {
			return
		}
		if insideDef695 || e.futureAnno {
			if err := e.validateDeferredBody(a, insideDef695); err != nil {
				e.warnf(a, "%s", err)
				return
			}
		}
		if !e.futureAnno {
			e.visitExpr(a)
			return
		}
		e.deferAnnotation(a, nil, nil)
	}
	each := func() {
		if args == nil {
			return
		}
		for _, a := range args.PosOnlyArgs {
			annotate(a.Annotation)
		}
		for _, a := range args.Args {
			annotate(a.Annotation)
		}
		if args.Vararg != nil {
			annotate(args.Vararg.Annotation)
		}
		for _, a := range args.KwOnlyArgs {
			annotate(a.Annotation)
		}
		if args.Kwarg != nil {
			annotate(args.Kwarg.Annotation)
		}
	}
	// In deferred mode the return annotation queues ahead of the parameter
	// annotations; evaluated eagerly it follows them.
	if e.futureAnno {
		annotate(returns)
		each()
	} else {
		each()
		annotate(returns)
	}
}

// visitClassDef handles `class`: unlike a function,
// a class body is walked immediately, in its own new scope, right after
// bases/keywords/decorators are visited in the enclosing one -- there is no
// declaration/definition split, since a class body executes at class
// creation time, not lazily.
func (e *Engine) visitClassDef(n *ast.ClassDef, insideDef695 bool) {
	dnode := e.defFor(n)
	e.addToLocals(n.Name, dnode, -1)

	if !insideDef695 {
		for _, dec := range n.Decorators {
			if e.isStub {
				e.deferAsUserOf(dec, dnode)
			} else {
				e.visitExpr(dec).AddUser(dnode)
			}
		}
		if len(n.TypeParams) > 0 {
			e.visitDef695(wrapDef695(n, n.TypeParams))
			return
		}
	}

	for _, b := range n.Bases {
		if insideDef695 {
			if err := e.validateDeferredBody(b, insideDef695); err != nil {
				e.warnf(b, "%s", err)
				continue
			}
		}
		if e.isStub {
			e.deferAsUserOf(b, dnode)
		} else {
			e.visitExpr(b).AddUser(dnode)
		}
	}
	for _, kw := range n.Keywords {
		if insideDef695 {
			if err := e.validateDeferredBody(kw.Value, insideDef695); err != nil {
				e.warnf(kw.Value, "%s", err)
				continue
			}
		}
		if e.isStub {
			e.deferAsUserOf(kw.Value, dnode)
		} else {
			e.visitExpr(kw.Value).AddUser(dnode)
		}
	}

	e.pushScope(n, n.Body, false)
	dclass := defs.NewClassMarker()
	e.setDefinition("__class__", dclass, -1)
	e.locals[n] = append(e.locals[n], dclass)
	e.processBody(n.Body)
	e.popScope()

	// The class name binds only once its body has executed: a base
	// expression `class A(A)` resolves to whatever A meant before this
	// statement, and the body itself cannot see the class being defined.
	index := -1
	if insideDef695 {
		index = -2
	}
	e.setDefinition(n.Name, dnode, index)
}

// visitTypeAliasStmt handles PEP-695's `type Name[T] = value`: the value
// is always resolved as a deferred annotation (it is, definitionally, a
// forward-reference-friendly lazy binding), regardless of whether the
// module is otherwise in deferred-annotation mode.
func (e *Engine) visitTypeAliasStmt(n *ast.TypeAliasStmt, insideDef695 bool) {
	// The binding Def wraps the alias's Name node, so the statement node
	// keeps a chain entry of its own without doubling as the binding.
	dname := e.defFor(n.Name)
	e.addToLocals(n.Name.Id, dname, -1)

	if !insideDef695 && len(n.TypeParams) > 0 {
		e.visitDef695(wrapDef695(n, n.TypeParams))
		return
	}

	e.defFor(n)
	if err := e.validateTypeAliasValue(n.Value, insideDef695); err != nil {
		e.warnf(n.Value, "%s", err)
	} else {
		e.deferAnnotation(n.Value, nil, nil)
	}

	index := -1
	if insideDef695 {
		index = -2
	}
	e.setDefinition(n.Name.Id, dname, index)
}

// validateTypeAliasValue runs the annotation-body validator over a
// `type X = value` right-hand side, with the within-class-scope variant on
// top whenever the scope the alias binds into is a class body -- a type
// alias defers unconditionally, so it is validated unconditionally too,
// unlike parameter annotations which only validate in deferred mode.
func (e *Engine) validateTypeAliasValue(v ast.Expr, insideDef695 bool) error {
	if err := validateAnnotationBody(v); err != nil {
		return err
	}
	parentIdx := len(e.scopes) - 1
	if insideDef695 {
		parentIdx = len(e.scopes) - 2
	}
	if parentIdx >= 0 && isClassScope(e.scopes[parentIdx]) {
		return validateAnnotationBodyWithinClassScope(v)
	}
	return nil
}

// parentIsClassScope reports whether the scope enclosing the current
// def695 wrapper (two frames up: the wrapper itself is on top) is a class
// body -- the condition the "within class scope" validator gates on, since a type-parameter scope immediately nested in a class
// cannot see names a comprehension/lambda/generator-expression would
// introduce reaching back into the class namespace.
func (e *Engine) parentIsClassScope(insideDef695 bool) bool {
	if !insideDef695 || len(e.scopes) < 2 {
		return false
	}
	return isClassScope(e.scopes[len(e.scopes)-2])
}

// validateDeferredBody runs the plain annotation-body validator, and --
// when node sits in a def695 scope directly nested in a class body -- the
// stricter within-class-scope variant on top.
func (e *Engine) validateDeferredBody(node ast.Node, insideDef695 bool) error {
	if err := validateAnnotationBody(node); err != nil {
		return err
	}
	if e.parentIsClassScope(insideDef695) {
		if err := validateAnnotationBodyWithinClassScope(node); err != nil {
			return err
		}
	}
	return nil
}

// wrapDef695 synthesizes the "def695" wrapper statement around a function,
// class, or type-alias that declares PEP-695 type parameters; this wrapper is never produced by a parser, only by
// the walker itself.
func wrapDef695(target ast.Stmt, params []ast.TypeParam) *ast.TypeParamScope {
	return &ast.TypeParamScope{Params: params, Target: target}
}

func def695TargetName(target ast.Stmt) string {
	switch n := target.(type) {
	case *ast.FunctionDef:
		return n.Name
	case *ast.ClassDef:
		return n.Name
	case *ast.TypeAliasStmt:
		return n.Name.Id
	default:
		return ""
	}
}

// visitDef695 enters the synthetic type-parameter wrapper scope: binds
// each type parameter, then visits the wrapped declaration marked "already
// inside def695" so it installs its own name two frames up instead of
// re-wrapping.
func (e *Engine) visitDef695(n *ast.TypeParamScope) {
	dnode := e.defFor(n.Target)
	e.pushScopeWithPrecomputed(n, prescan.CollectDef695(n.Params, def695TargetName(n.Target)))
	for _, tp := range n.Params {
		if err := validateAnnotationBody(tp); err != nil {
			e.warnf(tp, "%s", err)
			continue
		}
		e.visitTypeParam(tp).AddUser(dnode)
	}
	switch target := n.Target.(type) {
	case *ast.FunctionDef:
		e.visitFunctionDef(target, declarationStep, true)
	case *ast.ClassDef:
		e.visitClassDef(target, true)
	case *ast.TypeAliasStmt:
		e.visitTypeAliasStmt(target, true)
	}
	e.popScope()
}

// visitTypeParam binds one PEP-695 type-parameter declaration. A TypeVar's
// bound is always resolved as a deferred annotation, since
// it may refer to names declared later in the same or an enclosing scope;
// its subtree was already validated by visitDef695 before this is called.
func (e *Engine) visitTypeParam(tp ast.TypeParam) *defs.Def {
	switch t := tp.(type) {
	case *ast.TypeVar:
		d := e.defFor(t)
		e.setDefinition(t.Name, d, -1)
		e.addToLocals(t.Name, d, -1)
		if t.Bound != nil {
			e.deferAnnotation(t.Bound, nil, nil)
		}
		return d
	case *ast.TypeVarTuple:
		d := e.defFor(t)
		e.setDefinition(t.Name, d, -1)
		e.addToLocals(t.Name, d, -1)
		return d
	case *ast.ParamSpec:
		d := e.defFor(t)
		e.setDefinition(t.Name, d, -1)
		e.addToLocals(t.Name, d, -1)
		return d
	}
	return e.defFor(tp)
}

// deferAsUserOf queues expr for deferred-annotation-style resolution
// (capturing the current scope stack as its lookup heads) and wires the
// result as a user of dnode once resolved.
func (e *Engine) deferAsUserOf(expr ast.Expr, dnode *defs.Def) {
	e.deferAnnotation(expr, nil, func(d *defs.Def) { d.AddUser(dnode) })
}

// deferAnnotation queues expr to be resolved after the module body has
// been fully walked, against heads -- the scope
// stack in effect where expr was written, captured now since by the time
// the deferred-annotation queue drains every scope will have been popped.
// heads defaults to a snapshot of the current scope stack when nil.
func (e *Engine) deferAnnotation(expr ast.Expr, heads []ast.Node, cb func(*defs.Def)) {
	if heads == nil {
		heads = append([]ast.Node(nil), e.scopes...)
	}
	top := len(e.deferredAnnotations) - 1
	e.deferredAnnotations[top] = append(e.deferredAnnotations[top], deferredAnnotation{
		expr: expr, heads: heads, callback: cb,
	})
}

// drainDeferredBodies processes the function/lambda body queue in FIFO
// order. A body declared while another
// deferred body is itself being processed is appended to the same queue
// and is therefore still picked up by this loop, since it re-reads
// len(e.deferred) on every iteration rather than ranging over a snapshot.
func (e *Engine) drainDeferredBodies() {
	for i := 0; i < len(e.deferred); i++ {
		item := e.deferred[i]
		restore := e.switchScope(item.definitions, item.scopes, item.scopeDepths, item.globals, item.precomputedLocals)
		switch n := item.node.(type) {
		case *ast.FunctionDef:
			e.visitFunctionDef(n, definitionStep, false)
		case *ast.Lambda:
			e.visitLambda(n, definitionStep)
		}
		restore()
	}
	e.deferred = nil
}

// drainDeferredAnnotations processes the deferred-annotation queue in FIFO
// order, after drainDeferredBodies has
// already run. Each entry's heads snapshot stands in for the live scope
// stack (since the scopes themselves are long popped by this point);
// annotationMode routes Name reads through computeAnnotationDefs for the
// duration.
func (e *Engine) drainDeferredAnnotations() {
	if len(e.deferredAnnotations) == 0 {
		return
	}
	top := len(e.deferredAnnotations) - 1
	e.annotationMode = true
	defer func() { e.annotationMode = false }()

	for i := 0; i < len(e.deferredAnnotations[top]); i++ {
		item := e.deferredAnnotations[top][i]
		savedScopes := e.scopes
		e.scopes = item.heads
		d := e.visitExpr(item.expr)
		e.scopes = savedScopes
		if item.callback != nil {
			item.callback(d)
		}
	}
	e.deferredAnnotations[top] = nil
}

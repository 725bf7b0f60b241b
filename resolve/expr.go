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

// visitExpr dispatches one expression, recording (or reusing) its Def and
// wiring every sub-expression it reads as a user of that Def.
func (e *Engine) visitExpr(expr ast.Expr) *defs.Def {
	switch n := expr.(type) {
	case *ast.Name:
		return e.visitName(n, false, false)

	case *ast.Attribute:
		dnode := e.defFor(n)
		e.visitExpr(n.Value).AddUser(dnode)
		return dnode

	case *ast.Subscript:
		dnode := e.defFor(n)
		e.visitExpr(n.Value).AddUser(dnode)
		e.visitExpr(n.Slice).AddUser(dnode)
		return dnode

	case *ast.Starred:
		if n.Ctx == ast.Store {
			return e.visitExpr(n.Value)
		}
		dnode := e.defFor(n)
		e.visitExpr(n.Value).AddUser(dnode)
		return dnode

	case *ast.Tuple:
		return e.visitSequence(n, n.Elts, n.Ctx)

	case *ast.ListExpr:
		return e.visitSequence(n, n.Elts, n.Ctx)

	case *ast.SetExpr:
		dnode := e.defFor(n)
		for _, el := range n.Elts {
			e.visitExpr(el).AddUser(dnode)
		}
		return dnode

	case *ast.DictExpr:
		dnode := e.defFor(n)
		for i, v := range n.Values {
			if n.Keys[i] != nil {
				e.visitExpr(n.Keys[i]).AddUser(dnode)
			}
			e.visitExpr(v).AddUser(dnode)
		}
		return dnode

	case *ast.Call:
		return e.visitCall(n)

	case *ast.BinOp:
		dnode := e.defFor(n)
		e.visitExpr(n.Left).AddUser(dnode)
		e.visitExpr(n.Right).AddUser(dnode)
		return dnode

	case *ast.UnaryOp:
		dnode := e.defFor(n)
		e.visitExpr(n.Operand).AddUser(dnode)
		return dnode

	case *ast.BoolOp:
		dnode := e.defFor(n)
		for _, v := range n.Values {
			e.visitExpr(v).AddUser(dnode)
		}
		return dnode

	case *ast.Compare:
		dnode := e.defFor(n)
		e.visitExpr(n.Left).AddUser(dnode)
		for _, c := range n.Comparators {
			e.visitExpr(c).AddUser(dnode)
		}
		return dnode

	case *ast.IfExp:
		dnode := e.defFor(n)
		e.visitExpr(n.Test).AddUser(dnode)
		e.visitExpr(n.Body).AddUser(dnode)
		e.visitExpr(n.Orelse).AddUser(dnode)
		return dnode

	case *ast.Lambda:
		return e.visitLambda(n, declarationStep)

	case *ast.NamedExpr:
		return e.visitNamedExpr(n)

	case *ast.Constant:
		return e.defFor(n)

	case *ast.JoinedStr:
		dnode := e.defFor(n)
		for _, v := range n.Values {
			e.visitExpr(v).AddUser(dnode)
		}
		return dnode

	case *ast.FormattedValue:
		dnode := e.defFor(n)
		e.visitExpr(n.Value).AddUser(dnode)
		if n.FormatSpec != nil {
			e.visitExpr(n.FormatSpec).AddUser(dnode)
		}
		return dnode

	case *ast.Await:
		dnode := e.defFor(n)
		e.visitExpr(n.Value).AddUser(dnode)
		return dnode

	case *ast.Yield:
		dnode := e.defFor(n)
		if n.Value != nil {
			e.visitExpr(n.Value).AddUser(dnode)
		}
		return dnode

	case *ast.YieldFrom:
		dnode := e.defFor(n)
		e.visitExpr(n.Value).AddUser(dnode)
		return dnode

	case *ast.ListComp:
		return e.visitComprehensionScope(listCompAdapter{n}, n.Generators, n.Elt)
	case *ast.SetComp:
		return e.visitComprehensionScope(setCompAdapter{n}, n.Generators, n.Elt)
	case *ast.DictComp:
		return e.visitComprehensionScope(dictCompAdapter{n}, n.Generators, n.Key, n.Value)
	case *ast.GeneratorExp:
		return e.visitComprehensionScope(generatorExpAdapter{n}, n.Generators, n.Elt)

	case *ast.SliceExpr:
		dnode := e.defFor(n)
		if n.Lower != nil {
			e.visitExpr(n.Lower).AddUser(dnode)
		}
		if n.Upper != nil {
			e.visitExpr(n.Upper).AddUser(dnode)
		}
		if n.Step != nil {
			e.visitExpr(n.Step).AddUser(dnode)
		}
		return dnode
	}
	return e.defFor(expr)
}

// visitSequence handles Tuple/List: a Load-context literal wires each
// element as a user of the sequence's own Def; a Store-context sequence is
// a destructuring target, handled by visitDestructured instead.
func (e *Engine) visitSequence(node ast.Expr, elts []ast.Expr, ctx ast.ExprContext) *defs.Def {
	if ctx == ast.Store {
		return e.visitDestructured(node, elts)
	}
	dnode := e.defFor(node)
	for _, el := range elts {
		e.visitExpr(el).AddUser(dnode)
	}
	return dnode
}

// visitDestructured handles a Store-context Tuple/List target: each Name
// element binds directly in Store context, each Subscript/Starred/
// Attribute element is visited as-is, and each nested Tuple/List element
// recurses.
// Some parsers mark the elements of a destructuring target as Load and only
// the parent List/Tuple as Store, so the Store context is forced here.
func (e *Engine) visitDestructured(node ast.Expr, elts []ast.Expr) *defs.Def {
	dnode := e.defFor(node)
	for _, elt := range elts {
		switch el := elt.(type) {
		case *ast.Name:
			e.visitNameCtx(el, ast.Store, false, false)
		case *ast.Subscript, *ast.Starred, *ast.Attribute:
			e.visitExpr(el)
		case *ast.Tuple:
			e.visitDestructured(el, el.Elts)
		case *ast.ListExpr:
			e.visitDestructured(el, el.Elts)
		}
	}
	return dnode
}

// visitCall visits a function call: func and every argument/keyword become
// users of the call's own Def, except in stub mode when the callee matches
// typing.TypeVar (or typing_extensions.TypeVar), in which case every
// argument's evaluation is deferred exactly like an annotation -- a
// TypeVar() call's bound/constraint arguments are themselves forward
// references.
func (e *Engine) visitCall(n *ast.Call) *defs.Def {
	dnode := e.defFor(n)
	e.visitExpr(n.Func).AddUser(dnode)

	if e.isStub && e.matchesTypingName(nil, n.Func, "TypeVar") {
		for _, arg := range n.Args {
			d := dnode
			e.deferAnnotation(arg, nil, func(darg *defs.Def) { darg.AddUser(d) })
		}
		for _, kw := range n.Keywords {
			d := dnode
			e.deferAnnotation(kw.Value, nil, func(dkw *defs.Def) { dkw.AddUser(d) })
		}
		return dnode
	}

	for _, arg := range n.Args {
		e.visitExpr(arg).AddUser(dnode)
	}
	for _, kw := range n.Keywords {
		e.visitExpr(kw.Value).AddUser(dnode)
	}
	return dnode
}

// visitNamedExpr handles the walrus operator: the value's Def is recorded,
// and (since a NamedExpr's target is always a bare Name per the grammar)
// the target binds with named_expr semantics -- hoisted to the first
// enclosing non-comprehension scope.
func (e *Engine) visitNamedExpr(n *ast.NamedExpr) *defs.Def {
	dnode := e.defFor(n)
	e.visitExpr(n.Value).AddUser(dnode)
	e.visitName(n.Target, false, true)
	return dnode
}

// isComprehensionScope reports whether n is one of the four comprehension/
// generator-expression node kinds, which share the walrus-hoisting and
// outer-iterable-in-enclosing-scope rules.
func isComprehensionScope(n ast.Node) bool {
	switch n.(type) {
	case *ast.ListComp, *ast.SetComp, *ast.DictComp, *ast.GeneratorExp:
		return true
	default:
		return false
	}
}

// firstNonComprehensionScope returns the index (from the end, e.g. -1 for
// the innermost) and node of the first enclosing scope that is not itself a
// comprehension/generator-expression scope -- where a walrus target
// assigned inside a comprehension actually binds.
func (e *Engine) firstNonComprehensionScope() (int, ast.Node) {
	index := -1
	scope := e.scopes[len(e.scopes)+index]
	for isComprehensionScope(scope) {
		index--
		scope = e.scopes[len(e.scopes)+index]
	}
	return index, scope
}

// visitName is the central name-resolution routine: Store/Param bind a new
// Def (honoring `global` and `nonlocal` routing and walrus hoisting),
// Load/Del resolve the Defs currently reaching this read and wire them as
// its inputs. Parameter annotations never pass through here; they are
// visited directly by visitFunctionDef against the enclosing scope.
func (e *Engine) visitName(node *ast.Name, skipAnnotation bool, namedExpr bool) *defs.Def {
	return e.visitNameCtx(node, node.Ctx, skipAnnotation, namedExpr)
}

// visitNameCtx is visitName with the expression context supplied by the
// caller instead of read off the node: an augmented assignment reads its
// target before writing it, and a destructuring element binds even though
// some parsers leave its context as Load -- in both cases the node itself
// must keep its chain entry, so the context is overridden here rather than
// by mutating the node or visiting a synthetic copy.
func (e *Engine) visitNameCtx(node *ast.Name, ctx ast.ExprContext, skipAnnotation bool, namedExpr bool) *defs.Def {
	switch ctx {
	case ast.Param, ast.Store:
		dnode := e.defFor(node)
		if e.isGlobalName(node.Id) {
			e.setOrExtendGlobal(node.Id, dnode)
		} else if target, ok := e.nonlocalRoute(node.Id); ok {
			e.setNonlocalDefinition(node.Id, dnode, target)
		} else {
			index, enclosing := -1, ast.Node(e.scopes[len(e.scopes)-1])
			if namedExpr {
				index, enclosing = e.firstNonComprehensionScope()
			}
			if index < -1 && isClassScope(enclosing) {
				e.warnf(node, "assignment expression within a comprehension cannot be used in a class body")
				return dnode
			}
			e.setDefinition(node.Id, dnode, index)
			e.addToLocals(node.Id, dnode, index)
		}
		return dnode

	case ast.Load, ast.Del:
		dnode, ok := e.chains[node]
		if !ok {
			dnode = defs.NewFromNode(node)
		}
		var found []*defs.Def
		if e.annotationMode {
			found = e.computeAnnotationDefs(node, e.scopes, false)
		} else {
			found = e.computeDefs(node, false)
		}
		for _, d := range found {
			d.AddUser(dnode)
		}
		if !ok {
			e.chains[node] = dnode
		}
		return dnode
	}
	return e.defFor(node)
}

// visitComprehensionScope handles ListComp/SetComp/DictComp/GeneratorExp:
// validates the comprehension first (rejecting a walrus in any of its
// iterables, and a walrus that rebinds one of its own iteration variables),
// then pushes its own scope and visits each generator clause followed by
// its result expression(s) -- elt for list/set/generator, key and value for
// dict.
func (e *Engine) visitComprehensionScope(node comprehensionExpr, gens []*ast.Comprehension, results ...ast.Expr) *defs.Def {
	dnode := e.defFor(node.asNode())
	if err := validateComprehension(node); err != nil {
		e.warnf(node.asNode(), "%s", err)
		return dnode
	}

	e.pushScopeWithPrecomputed(node.asNode(), prescan.CollectComprehension(gens, results...))
	for i, gen := range gens {
		e.visitComprehensionClause(gen, i != 0).AddUser(dnode)
	}
	for _, r := range results {
		e.visitExpr(r).AddUser(dnode)
	}
	e.popScope()
	return dnode
}

// visitComprehensionClause visits one `for target in iter [if cond]*`
// clause. The outermost clause's iterable is evaluated in the enclosing
// scope (Python evaluates a comprehension's first iterable eagerly, before
// the comprehension's own scope exists), so isNested false temporarily
// truncates every parallel stack by one frame -- the comprehension's own,
// not-yet-populated frame -- for the duration of that one sub-expression.
//
// Every parallel stack is truncated by one frame so the index arithmetic
// stays aligned, globalsStack included -- harmless, since a comprehension's
// own frame never carries a `global` declaration of its own by the time its
// outermost iterable is evaluated.
//
// Each truncated stack is cloned: a scope pushed while the iterable is
// being visited (a nested comprehension, say) would otherwise append into
// the same backing array that still holds this comprehension's own frame.
func (e *Engine) visitComprehensionClause(gen *ast.Comprehension, isNested bool) *defs.Def {
	dnode := e.defFor(gen)
	if !isNested {
		restore := e.switchScope(
			cloneDefinitionsStack(e.definitionsStack[:len(e.definitionsStack)-1]),
			cloneScopesStack(e.scopes[:len(e.scopes)-1]),
			cloneIntStack(e.scopeDepths[:len(e.scopeDepths)-1]),
			cloneGlobalsStack(e.globalsStack[:len(e.globalsStack)-1]),
			clonePrecomputedStack(e.precomputedStack[:len(e.precomputedStack)-1]),
		)
		d := e.visitExpr(gen.Iter)
		restore()
		d.AddUser(dnode)
	} else {
		e.visitExpr(gen.Iter).AddUser(dnode)
	}
	e.visitExpr(gen.Target)
	for _, ifExpr := range gen.Ifs {
		e.visitExpr(ifExpr).AddUser(dnode)
	}
	return dnode
}

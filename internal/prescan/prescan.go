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

// Package prescan implements the local pre-scan: a shallow traversal of a scope's body that collects every name that will
// end up bound somewhere in that scope, without yet resolving order or
// reaching definitions. The engine in package resolve consults this result
// before processing a scope's statements, since a name assigned anywhere in
// a function body is local to that function for its entire body (including
// before the assignment textually occurs), exactly as Python's own
// `locals()` would see it.
package prescan

import "github.com/pyforks/beniget-ng/ast"

// Result is the outcome of a pre-scan: names that will be bound somewhere
// in the scope, and names declared `global`/`nonlocal` (which are excluded
// from Locals, since they resolve outside the scope).
type Result struct {
	Locals    map[string]bool
	NonLocals map[string]bool
}

func newResult() *Result {
	return &Result{Locals: make(map[string]bool), NonLocals: make(map[string]bool)}
}

// Collect scans body, the statements of a module, function, class, or
// def695 type-parameter scope. def695 enables the type-parameter variant,
// in which TypeVar/TypeVarTuple/ParamSpec declarations bind their name into
// Locals exactly like a nested FunctionDef does; outside a def695 scope
// those nodes never appear at this level, so the distinction only matters
// when Collect is invoked on a type-parameter scope's own synthetic body.
func Collect(body []ast.Stmt, def695 bool) *Result {
	r := newResult()
	for _, s := range body {
		collectStmt(s, r, def695)
	}
	return r
}

func collectStmt(s ast.Stmt, r *Result, def695 bool) {
	switch n := s.(type) {
	case *ast.FunctionDef:
		r.Locals[n.Name] = true // no recursion: nested body is its own scope

	case *ast.ClassDef:
		r.Locals[n.Name] = true // no recursion

	case *ast.Global:
		for _, name := range n.Names {
			r.NonLocals[name] = true
		}
	case *ast.Nonlocal:
		for _, name := range n.Names {
			r.NonLocals[name] = true
		}

	case *ast.Import:
		for _, al := range n.Names {
			if al.AsName != "" {
				r.Locals[al.AsName] = true
			} else {
				r.Locals[firstDotted(al.Name)] = true
			}
		}
	case *ast.ImportFrom:
		for _, al := range n.Names {
			if al.AsName != "" {
				r.Locals[al.AsName] = true
			} else {
				r.Locals[al.Name] = true
			}
		}

	case *ast.Assign:
		for _, t := range n.Targets {
			collectExpr(t, r, def695)
		}
		collectExpr(n.Value, r, def695)
	case *ast.AugAssign:
		collectExpr(n.Target, r, def695)
		collectExpr(n.Value, r, def695)
	case *ast.AnnAssign:
		collectExpr(n.Target, r, def695)
		collectExpr(n.Annotation, r, def695)
		if n.Value != nil {
			collectExpr(n.Value, r, def695)
		}

	case *ast.If:
		collectExpr(n.Test, r, def695)
		for _, s := range n.Body {
			collectStmt(s, r, def695)
		}
		for _, s := range n.Orelse {
			collectStmt(s, r, def695)
		}
	case *ast.While:
		collectExpr(n.Test, r, def695)
		for _, s := range n.Body {
			collectStmt(s, r, def695)
		}
		for _, s := range n.Orelse {
			collectStmt(s, r, def695)
		}
	case *ast.For:
		collectExpr(n.Target, r, def695)
		collectExpr(n.Iter, r, def695)
		for _, s := range n.Body {
			collectStmt(s, r, def695)
		}
		for _, s := range n.Orelse {
			collectStmt(s, r, def695)
		}
	case *ast.Try:
		for _, s := range n.Body {
			collectStmt(s, r, def695)
		}
		for _, h := range n.Handlers {
			if h.TypeExpr != nil {
				collectExpr(h.TypeExpr, r, def695)
			}
			// An `except ... as name` binding desugars to a Store-context
			// Name in the grammar this analyzer is ported from, so it is
			// local exactly like any other assignment target.
			if h.Name != "" && !r.NonLocals[h.Name] {
				r.Locals[h.Name] = true
			}
			for _, s := range h.Body {
				collectStmt(s, r, def695)
			}
		}
		for _, s := range n.Orelse {
			collectStmt(s, r, def695)
		}
		for _, s := range n.Finalbody {
			collectStmt(s, r, def695)
		}
	case *ast.With:
		for _, it := range n.Items {
			collectExpr(it.ContextExpr, r, def695)
			if it.OptionalVars != nil {
				collectExpr(it.OptionalVars, r, def695)
			}
		}
		for _, s := range n.Body {
			collectStmt(s, r, def695)
		}
	case *ast.Match:
		collectExpr(n.Subject, r, def695)
		for _, c := range n.Cases {
			collectPattern(c.Pattern, r, def695)
			if c.Guard != nil {
				collectExpr(c.Guard, r, def695)
			}
			for _, s := range c.Body {
				collectStmt(s, r, def695)
			}
		}

	case *ast.Return:
		if n.Value != nil {
			collectExpr(n.Value, r, def695)
		}
	case *ast.Delete:
		// Del-context names are never added: only Store contexts are.
		for _, t := range n.Targets {
			collectExpr(t, r, def695)
		}
	case *ast.Raise:
		if n.Exc != nil {
			collectExpr(n.Exc, r, def695)
		}
		if n.Cause != nil {
			collectExpr(n.Cause, r, def695)
		}
	case *ast.Assert:
		collectExpr(n.Test, r, def695)
		if n.Msg != nil {
			collectExpr(n.Msg, r, def695)
		}
	case *ast.ExprStmt:
		collectExpr(n.Value, r, def695)
	case *ast.TypeAliasStmt:
		collectExpr(n.Name, r, def695)
		if n.Value != nil {
			collectExpr(n.Value, r, def695)
		}

	case *ast.TypeParamScope:
		inner := Collect(nil, true)
		for _, tp := range n.Params {
			collectTypeParam(tp, inner)
		}
		for k := range inner.Locals {
			r.Locals[k] = true
		}
		collectStmt(n.Target, r, def695)

	case *ast.Pass, *ast.Break, *ast.Continue:
		// leaf statements, nothing to collect
	}
}

// CollectComprehension scans a comprehension or generator expression's own
// generator clauses (target, iter, ifs) plus its result expression(s) --
// elt for a list/set/generator comprehension, or key and value for a dict
// comprehension. Each generator's Store-context target names register as
// locals of the comprehension's own scope, while any Lambda or nested
// comprehension reachable from ifs/elt/iter remains opaque via the
// ordinary collectExpr skip handling.
func CollectComprehension(gens []*ast.Comprehension, results ...ast.Expr) *Result {
	r := newResult()
	for _, g := range gens {
		collectExpr(g.Target, r, false)
		collectExpr(g.Iter, r, false)
		for _, ifExpr := range g.Ifs {
			collectExpr(ifExpr, r, false)
		}
	}
	for _, e := range results {
		if e != nil {
			collectExpr(e, r, false)
		}
	}
	return r
}

// CollectLambda scans a lambda's own scope: its parameter defaults and
// annotations plus its body expression. Lambda parameters themselves are
// bound directly by the engine at definition time, not discovered here --
// a parameter's identifier is a plain string field, not a Store-context
// Name.
func CollectLambda(args *ast.Arguments, body ast.Expr) *Result {
	r := newResult()
	if args != nil {
		for _, d := range args.Defaults {
			collectExpr(d, r, false)
		}
		for _, d := range args.KwDefaults {
			if d != nil {
				collectExpr(d, r, false)
			}
		}
		for _, a := range args.PosOnlyArgs {
			if a.Annotation != nil {
				collectExpr(a.Annotation, r, false)
			}
		}
		for _, a := range args.Args {
			if a.Annotation != nil {
				collectExpr(a.Annotation, r, false)
			}
		}
		if args.Vararg != nil && args.Vararg.Annotation != nil {
			collectExpr(args.Vararg.Annotation, r, false)
		}
		for _, a := range args.KwOnlyArgs {
			if a.Annotation != nil {
				collectExpr(a.Annotation, r, false)
			}
		}
		if args.Kwarg != nil && args.Kwarg.Annotation != nil {
			collectExpr(args.Kwarg.Annotation, r, false)
		}
	}
	collectExpr(body, r, false)
	return r
}

// CollectDef695 scans a PEP-695 type-parameter wrapper's own scope: the
// type parameters it declares (each binds its name the same way a nested
// FunctionDef binds just its own name, no recursion) plus the wrapped
// function/class/type-alias's own name, which is visible inside the
// wrapper scope as well as outside it.
func CollectDef695(params []ast.TypeParam, targetName string) *Result {
	r := newResult()
	for _, tp := range params {
		collectTypeParam(tp, r)
	}
	if targetName != "" {
		r.Locals[targetName] = true
	}
	return r
}

func collectTypeParam(tp ast.TypeParam, r *Result) {
	switch t := tp.(type) {
	case *ast.TypeVar:
		r.Locals[t.Name] = true
	case *ast.TypeVarTuple:
		r.Locals[t.Name] = true
	case *ast.ParamSpec:
		r.Locals[t.Name] = true
	}
}

// collectExpr recurses through an expression looking only for Name nodes
// bound in Store context; Lambda bodies and comprehension/generator bodies
// introduce their own scope and are never descended into.
func collectExpr(e ast.Expr, r *Result, def695 bool) {
	switch n := e.(type) {
	case *ast.Name:
		if n.Ctx == ast.Store && !r.NonLocals[n.Id] {
			r.Locals[n.Id] = true
		}
	case *ast.Attribute:
		collectExpr(n.Value, r, def695)
	case *ast.Subscript:
		collectExpr(n.Value, r, def695)
		collectExpr(n.Slice, r, def695)
	case *ast.Starred:
		collectExpr(n.Value, r, def695)
	case *ast.Tuple:
		for _, el := range n.Elts {
			collectExpr(el, r, def695)
		}
	case *ast.ListExpr:
		for _, el := range n.Elts {
			collectExpr(el, r, def695)
		}
	case *ast.SetExpr:
		for _, el := range n.Elts {
			collectExpr(el, r, def695)
		}
	case *ast.DictExpr:
		for i := range n.Values {
			if n.Keys[i] != nil {
				collectExpr(n.Keys[i], r, def695)
			}
			collectExpr(n.Values[i], r, def695)
		}
	case *ast.Call:
		collectExpr(n.Func, r, def695)
		for _, a := range n.Args {
			collectExpr(a, r, def695)
		}
		for _, kw := range n.Keywords {
			collectExpr(kw.Value, r, def695)
		}
	case *ast.BinOp:
		collectExpr(n.Left, r, def695)
		collectExpr(n.Right, r, def695)
	case *ast.UnaryOp:
		collectExpr(n.Operand, r, def695)
	case *ast.BoolOp:
		for _, v := range n.Values {
			collectExpr(v, r, def695)
		}
	case *ast.Compare:
		collectExpr(n.Left, r, def695)
		for _, c := range n.Comparators {
			collectExpr(c, r, def695)
		}
	case *ast.IfExp:
		collectExpr(n.Test, r, def695)
		collectExpr(n.Body, r, def695)
		collectExpr(n.Orelse, r, def695)
	case *ast.NamedExpr:
		collectExpr(n.Target, r, def695)
		collectExpr(n.Value, r, def695)
	case *ast.JoinedStr:
		for _, v := range n.Values {
			collectExpr(v, r, def695)
		}
	case *ast.FormattedValue:
		collectExpr(n.Value, r, def695)
		if n.FormatSpec != nil {
			collectExpr(n.FormatSpec, r, def695)
		}
	case *ast.Await:
		collectExpr(n.Value, r, def695)
	case *ast.Yield:
		if n.Value != nil {
			collectExpr(n.Value, r, def695)
		}
	case *ast.YieldFrom:
		collectExpr(n.Value, r, def695)
	case *ast.SliceExpr:
		if n.Lower != nil {
			collectExpr(n.Lower, r, def695)
		}
		if n.Upper != nil {
			collectExpr(n.Upper, r, def695)
		}
		if n.Step != nil {
			collectExpr(n.Step, r, def695)
		}
	case *ast.Constant:
		// leaf

	case *ast.Lambda, *ast.ListComp, *ast.SetComp, *ast.DictComp, *ast.GeneratorExp:
		// introduces its own scope: never descended into
	}
}

func collectPattern(p ast.Pattern, r *Result, def695 bool) {
	switch n := p.(type) {
	case *ast.MatchValue:
		collectExpr(n.Value, r, def695)
	case *ast.MatchSingleton:
		collectExpr(n.Value, r, def695)
	case *ast.MatchSequence:
		for _, sub := range n.Patterns {
			collectPattern(sub, r, def695)
		}
	case *ast.MatchMapping:
		for _, k := range n.Keys {
			collectExpr(k, r, def695)
		}
		for _, sub := range n.Patterns {
			collectPattern(sub, r, def695)
		}
	case *ast.MatchClass:
		collectExpr(n.Cls, r, def695)
		for _, sub := range n.Patterns {
			collectPattern(sub, r, def695)
		}
		for _, sub := range n.KwdPatterns {
			collectPattern(sub, r, def695)
		}
	case *ast.MatchStar, *ast.MatchAs:
		// capture names are plain strings, not Name nodes: the engine binds
		// them directly when it visits the pattern.
		if as, ok := n.(*ast.MatchAs); ok && as.Pattern != nil {
			collectPattern(as.Pattern, r, def695)
		}
	case *ast.MatchOr:
		for _, sub := range n.Patterns {
			collectPattern(sub, r, def695)
		}
	}
}

func firstDotted(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			return s[:i]
		}
	}
	return s
}

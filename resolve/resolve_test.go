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

package resolve_test

import (
	"testing"

	"github.com/go-quicktest/qt"

	"github.com/pyforks/beniget-ng/ast"
	"github.com/pyforks/beniget-ng/defs"
	"github.com/pyforks/beniget-ng/diag"
	"github.com/pyforks/beniget-ng/resolve"
)

func store(id string) *ast.Name { return &ast.Name{Id: id, Ctx: ast.Store} }
func load(id string) *ast.Name  { return &ast.Name{Id: id, Ctx: ast.Load} }

// x = 1; x -- the single def of x reaches the one use.
func TestSimpleDefAndUse(t *testing.T) {
	x := store("x")
	use := load("x")
	module := &ast.Module{Body: []ast.Stmt{
		&ast.Assign{Targets: []ast.Expr{x}, Value: &ast.Constant{Value: 1}},
		&ast.ExprStmt{Value: use},
	}}

	res := resolve.Analyze(module, resolve.Options{Filename: "m.py", ModName: "m"})

	qt.Assert(t, qt.HasLen(res.Diags, 0))
	xdef := res.Chains[x]
	qt.Assert(t, qt.IsNotNil(xdef))
	qt.Assert(t, qt.IsTrue(xdef.Live))

	useDef := res.Chains[use]
	qt.Assert(t, qt.IsNotNil(useDef))
	users := xdef.Users()
	qt.Assert(t, qt.HasLen(users, 1))
	qt.Assert(t, qt.Equals(users[0], useDef))
}

// if cond: x = 1
// else:    x = 2
// x -- both branch defs of x reach the use, and both stay live.
func TestConditionalDefinitionJoinsBothBranches(t *testing.T) {
	xThen := store("x")
	xElse := store("x")
	use := load("x")
	module := &ast.Module{Body: []ast.Stmt{
		&ast.Assign{Targets: []ast.Expr{store("cond")}, Value: &ast.Constant{Value: true}},
		&ast.If{
			Test:   load("cond"),
			Body:   []ast.Stmt{&ast.Assign{Targets: []ast.Expr{xThen}, Value: &ast.Constant{Value: 1}}},
			Orelse: []ast.Stmt{&ast.Assign{Targets: []ast.Expr{xElse}, Value: &ast.Constant{Value: 2}}},
		},
		&ast.ExprStmt{Value: use},
	}}

	res := resolve.Analyze(module, resolve.Options{Filename: "m.py", ModName: "m"})
	qt.Assert(t, qt.HasLen(res.Diags, 0))

	thenDef, elseDef := res.Chains[xThen], res.Chains[xElse]
	qt.Assert(t, qt.IsTrue(thenDef.Live))
	qt.Assert(t, qt.IsTrue(elseDef.Live))

	useDef := res.Chains[use]
	qt.Assert(t, qt.HasLen(thenDef.Users(), 1))
	qt.Assert(t, qt.Equals(thenDef.Users()[0], useDef))
	qt.Assert(t, qt.HasLen(elseDef.Users(), 1))
	qt.Assert(t, qt.Equals(elseDef.Users()[0], useDef))
}

// x = 1; x = 2; x -- the second def shadows the first, which is no
// longer live, and only the second def gets the use as a user.
func TestOverwriteKillsLiveness(t *testing.T) {
	x1 := store("x")
	x2 := store("x")
	use := load("x")
	module := &ast.Module{Body: []ast.Stmt{
		&ast.Assign{Targets: []ast.Expr{x1}, Value: &ast.Constant{Value: 1}},
		&ast.Assign{Targets: []ast.Expr{x2}, Value: &ast.Constant{Value: 2}},
		&ast.ExprStmt{Value: use},
	}}

	res := resolve.Analyze(module, resolve.Options{Filename: "m.py", ModName: "m"})
	qt.Assert(t, qt.HasLen(res.Diags, 0))

	def1, def2 := res.Chains[x1], res.Chains[x2]
	qt.Assert(t, qt.IsFalse(def1.Live))
	qt.Assert(t, qt.IsTrue(def2.Live))
	qt.Assert(t, qt.HasLen(def1.Users(), 0))
	qt.Assert(t, qt.HasLen(def2.Users(), 1))
}

// A module-level walrus inside a comprehension hoists to the enclosing
// (module) scope rather than staying local to the comprehension.
func TestWalrusHoistsToEnclosingScope(t *testing.T) {
	walrusTarget := store("y")
	use := load("y")
	module := &ast.Module{Body: []ast.Stmt{
		&ast.ExprStmt{Value: &ast.ListComp{
			Elt: &ast.NamedExpr{Target: walrusTarget, Value: &ast.Constant{Value: 1}},
			Generators: []*ast.Comprehension{
				{Target: store("_"), Iter: &ast.ListExpr{Elts: []ast.Expr{&ast.Constant{Value: 1}}}},
			},
		}},
		&ast.ExprStmt{Value: use},
	}}

	res := resolve.Analyze(module, resolve.Options{Filename: "m.py", ModName: "m"})
	qt.Assert(t, qt.HasLen(res.Diags, 0))

	ydef := res.Chains[walrusTarget]
	qt.Assert(t, qt.IsNotNil(ydef))
	// y is recorded as a local of the module, not of the comprehension.
	found := false
	for _, d := range res.Locals[module] {
		if d == ydef {
			found = true
		}
	}
	qt.Assert(t, qt.IsTrue(found))
}

// A stub module (".pyi") resolves a forward reference: a function
// referring to a class defined later in the same module.
func TestStubModeForwardReference(t *testing.T) {
	classUse := load("Later")
	laterClass := &ast.ClassDef{Name: "Later", Body: []ast.Stmt{&ast.Pass{}}}
	param := &ast.Arg{Name: "x", Annotation: classUse}
	fn := &ast.FunctionDef{
		Name: "f",
		Args: &ast.Arguments{Args: []*ast.Arg{param}},
		Body: []ast.Stmt{&ast.Pass{}},
	}
	module := &ast.Module{Body: []ast.Stmt{fn, laterClass}}

	res := resolve.Analyze(module, resolve.Options{Filename: "m.pyi", ModName: "m"})
	qt.Assert(t, qt.HasLen(res.Diags, 0))

	classDef := res.Chains[laterClass]
	useDef := res.Chains[classUse]
	qt.Assert(t, qt.IsNotNil(classDef))

	found := false
	for _, u := range classDef.Users() {
		if u == useDef {
			found = true
		}
	}
	qt.Assert(t, qt.IsTrue(found))
}

// `nonlocal` inside a nested function rebinds the enclosing function's
// variable rather than creating a new local.
func TestNonlocalRebindsEnclosing(t *testing.T) {
	outerAssign := store("n")
	innerAssign := store("n")
	use := load("n")

	inner := &ast.FunctionDef{
		Name: "inner",
		Args: &ast.Arguments{},
		Body: []ast.Stmt{
			&ast.Nonlocal{Names: []string{"n"}},
			&ast.Assign{Targets: []ast.Expr{innerAssign}, Value: &ast.Constant{Value: 2}},
		},
	}
	outer := &ast.FunctionDef{
		Name: "outer",
		Args: &ast.Arguments{},
		Body: []ast.Stmt{
			&ast.Assign{Targets: []ast.Expr{outerAssign}, Value: &ast.Constant{Value: 1}},
			inner,
			&ast.ExprStmt{Value: &ast.Call{Func: &ast.Name{Id: "inner", Ctx: ast.Load}}},
			&ast.ExprStmt{Value: use},
		},
	}
	module := &ast.Module{Body: []ast.Stmt{outer}}

	res := resolve.Analyze(module, resolve.Options{Filename: "m.py", ModName: "m"})
	qt.Assert(t, qt.HasLen(res.Diags, 0))

	innerDef := res.Chains[innerAssign]
	useDef := res.Chains[use]
	found := false
	for _, u := range innerDef.Users() {
		if u == useDef {
			found = true
		}
	}
	qt.Assert(t, qt.IsTrue(found))
}

func TestUnboundIdentifierWarns(t *testing.T) {
	use := load("never_defined")
	module := &ast.Module{Body: []ast.Stmt{
		&ast.ExprStmt{Value: use},
	}}

	res := resolve.Analyze(module, resolve.Options{Filename: "m.py", ModName: "m"})
	qt.Assert(t, qt.HasLen(res.Diags, 1))
	qt.Assert(t, qt.StringContains(res.Diags[0].Message, "never_defined"))
}

func TestBuiltinNameResolvesWithoutWarning(t *testing.T) {
	use := load("print")
	module := &ast.Module{Body: []ast.Stmt{
		&ast.ExprStmt{Value: &ast.Call{Func: use, Args: []ast.Expr{&ast.Constant{Value: "hi"}}}},
	}}

	res := resolve.Analyze(module, resolve.Options{Filename: "m.py", ModName: "m"})
	qt.Assert(t, qt.HasLen(res.Diags, 0))
	qt.Assert(t, qt.IsNotNil(res.Builtins["print"]))
}

func TestImportRecordsOrigin(t *testing.T) {
	alias := &ast.Alias{Name: "n"}
	stmt := &ast.ImportFrom{Module: "pkg", Names: []*ast.Alias{alias}}
	module := &ast.Module{Body: []ast.Stmt{stmt}}

	res := resolve.Analyze(module, resolve.Options{Filename: "m.py", ModName: "m"})
	qt.Assert(t, qt.HasLen(res.Diags, 0))
	info, ok := res.Imports[alias]
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(info.OriginModule, "pkg"))
	qt.Assert(t, qt.Equals(info.ImportedName, "n"))
}

// def foo[T](x: T) -> T: return x -- the PEP-695 type parameter T is bound
// in the synthetic def695 wrapper scope and reaches both the parameter and
// return annotations, which are resolved against that scope rather than
// the enclosing module.
func TestDef695TypeParamReachesAnnotations(t *testing.T) {
	paramAnno := load("T")
	returnAnno := load("T")
	param := &ast.Arg{Name: "x", Annotation: paramAnno}
	fn := &ast.FunctionDef{
		Name:       "foo",
		Args:       &ast.Arguments{Args: []*ast.Arg{param}},
		Body:       []ast.Stmt{&ast.Return{Value: load("x")}},
		Returns:    returnAnno,
		TypeParams: []ast.TypeParam{&ast.TypeVar{Name: "T"}},
	}
	module := &ast.Module{Body: []ast.Stmt{fn}}

	res := resolve.Analyze(module, resolve.Options{Filename: "m.py", ModName: "m"})
	qt.Assert(t, qt.HasLen(res.Diags, 0))

	var typeVarDef *defs.Def
	for _, scopeLocals := range res.Locals {
		for _, d := range scopeLocals {
			if d.Name() == "T" {
				typeVarDef = d
			}
		}
	}
	qt.Assert(t, qt.IsNotNil(typeVarDef))

	paramUse, returnUse := res.Chains[paramAnno], res.Chains[returnAnno]
	foundParam, foundReturn := false, false
	for _, u := range typeVarDef.Users() {
		if u == paramUse {
			foundParam = true
		}
		if u == returnUse {
			foundReturn = true
		}
	}
	qt.Assert(t, qt.IsTrue(foundParam))
	qt.Assert(t, qt.IsTrue(foundReturn))
}

// try: x = 1
// except Exception: x = 2
// finally: pass
// x -- both the try-body def and the handler's def reach the use
// after try/except/finally merging.
func TestTryExceptFinallyMergesBodyAndHandlerDefs(t *testing.T) {
	xTry := store("x")
	xExcept := store("x")
	use := load("x")
	module := &ast.Module{Body: []ast.Stmt{
		&ast.Try{
			Body: []ast.Stmt{&ast.Assign{Targets: []ast.Expr{xTry}, Value: &ast.Constant{Value: 1}}},
			Handlers: []*ast.ExceptHandler{
				{
					TypeExpr: load("Exception"),
					Body:     []ast.Stmt{&ast.Assign{Targets: []ast.Expr{xExcept}, Value: &ast.Constant{Value: 2}}},
				},
			},
			Finalbody: []ast.Stmt{&ast.Pass{}},
		},
		&ast.ExprStmt{Value: use},
	}}

	res := resolve.Analyze(module, resolve.Options{Filename: "m.py", ModName: "m"})
	qt.Assert(t, qt.HasLen(res.Diags, 0))

	tryDef, exceptDef := res.Chains[xTry], res.Chains[xExcept]
	qt.Assert(t, qt.IsTrue(tryDef.Live))
	qt.Assert(t, qt.IsTrue(exceptDef.Live))

	useDef := res.Chains[use]
	foundTry, foundExcept := false, false
	for _, u := range tryDef.Users() {
		if u == useDef {
			foundTry = true
		}
	}
	for _, u := range exceptDef.Users() {
		if u == useDef {
			foundExcept = true
		}
	}
	qt.Assert(t, qt.IsTrue(foundTry))
	qt.Assert(t, qt.IsTrue(foundExcept))
}

// match cond:
//
//	case 1: x = 1
//	case _: x = 2
//
// x -- both case-body defs of x reach the use, merged pairwise the
// same way if/else branches are.
func TestMatchStatementMergesCaseDefs(t *testing.T) {
	xCase1 := store("x")
	xCase2 := store("x")
	use := load("x")
	module := &ast.Module{Body: []ast.Stmt{
		&ast.Assign{Targets: []ast.Expr{store("cond")}, Value: &ast.Constant{Value: 1}},
		&ast.Match{
			Subject: load("cond"),
			Cases: []*ast.MatchCase{
				{
					Pattern: &ast.MatchValue{Value: &ast.Constant{Value: 1}},
					Body:    []ast.Stmt{&ast.Assign{Targets: []ast.Expr{xCase1}, Value: &ast.Constant{Value: 1}}},
				},
				{
					Pattern: &ast.MatchAs{},
					Body:    []ast.Stmt{&ast.Assign{Targets: []ast.Expr{xCase2}, Value: &ast.Constant{Value: 2}}},
				},
			},
		},
		&ast.ExprStmt{Value: use},
	}}

	res := resolve.Analyze(module, resolve.Options{Filename: "m.py", ModName: "m"})
	qt.Assert(t, qt.HasLen(res.Diags, 0))

	def1, def2 := res.Chains[xCase1], res.Chains[xCase2]
	qt.Assert(t, qt.IsTrue(def1.Live))
	qt.Assert(t, qt.IsTrue(def2.Live))

	useDef := res.Chains[use]
	found1, found2 := false, false
	for _, u := range def1.Users() {
		if u == useDef {
			found1 = true
		}
	}
	for _, u := range def2.Users() {
		if u == useDef {
			found2 = true
		}
	}
	qt.Assert(t, qt.IsTrue(found1))
	qt.Assert(t, qt.IsTrue(found2))
}

// while cond:
//
//	y
//	y = 1
//
// the two-pass loop approximation lets the read of y -- unbound on the
// first textual pass -- resolve against the binding later in the same
// body, since the body is visited a second time to pick up this back-edge.
func TestWhileLoopTwoPassPicksUpBackEdge(t *testing.T) {
	use := load("y")
	yAssign := store("y")
	module := &ast.Module{Body: []ast.Stmt{
		&ast.Assign{Targets: []ast.Expr{store("cond")}, Value: &ast.Constant{Value: true}},
		&ast.While{
			Test: load("cond"),
			Body: []ast.Stmt{
				&ast.ExprStmt{Value: use},
				&ast.Assign{Targets: []ast.Expr{yAssign}, Value: &ast.Constant{Value: 1}},
			},
		},
	}}

	res := resolve.Analyze(module, resolve.Options{Filename: "m.py", ModName: "m"})
	qt.Assert(t, qt.HasLen(res.Diags, 0))

	ydef := res.Chains[yAssign]
	useDef := res.Chains[use]
	qt.Assert(t, qt.IsNotNil(ydef))
	found := false
	for _, u := range ydef.Users() {
		if u == useDef {
			found = true
		}
	}
	qt.Assert(t, qt.IsTrue(found))
}

// from pkg import *
// mystery
// A name with no visible definition resolves against the wildcard import
// instead of warning: the star binding is an opaque source of names.
func TestWildcardImportResolvesUnknownNames(t *testing.T) {
	star := &ast.Alias{Name: "*"}
	use := load("mystery")
	module := &ast.Module{Body: []ast.Stmt{
		&ast.ImportFrom{Module: "pkg", Names: []*ast.Alias{star}},
		&ast.ExprStmt{Value: use},
	}}

	res := resolve.Analyze(module, resolve.Options{Filename: "m.py", ModName: "m"})
	qt.Assert(t, qt.HasLen(res.Diags, 0))

	starDef := res.Chains[star]
	useDef := res.Chains[use]
	qt.Assert(t, qt.IsNotNil(starDef))
	found := false
	for _, u := range starDef.Users() {
		if u == useDef {
			found = true
		}
	}
	qt.Assert(t, qt.IsTrue(found))
}

// Reading a name the scope will bind later, outside any loop, is a
// read-before-assignment, reported distinctly from a plain unbound
// identifier.
func TestReadBeforeAssignmentWarns(t *testing.T) {
	use := load("x")
	module := &ast.Module{Body: []ast.Stmt{
		&ast.ExprStmt{Value: use},
		&ast.Assign{Targets: []ast.Expr{store("x")}, Value: &ast.Constant{Value: 1}},
	}}

	res := resolve.Analyze(module, resolve.Options{Filename: "m.py", ModName: "m"})
	qt.Assert(t, qt.HasLen(res.Diags, 1))
	qt.Assert(t, qt.Equals(res.Diags[0].Kind, diag.KindReadBeforeAssign))
	qt.Assert(t, qt.StringContains(res.Diags[0].Message, "referenced before assignment"))
}

// A = 1
// class A(A): pass
// The base expression resolves to the earlier binding: a class's own name
// only binds once its body has executed.
func TestClassBaseSeesPriorBinding(t *testing.T) {
	aOld := store("A")
	base := load("A")
	cls := &ast.ClassDef{Name: "A", Bases: []ast.Expr{base}, Body: []ast.Stmt{&ast.Pass{}}}
	module := &ast.Module{Body: []ast.Stmt{
		&ast.Assign{Targets: []ast.Expr{aOld}, Value: &ast.Constant{Value: 1}},
		cls,
	}}

	res := resolve.Analyze(module, resolve.Options{Filename: "m.py", ModName: "m"})
	qt.Assert(t, qt.HasLen(res.Diags, 0))

	oldDef := res.Chains[aOld]
	baseDef := res.Chains[base]
	found := false
	for _, u := range oldDef.Users() {
		if u == baseDef {
			found = true
		}
	}
	qt.Assert(t, qt.IsTrue(found))
	// The class statement replaces the assignment along the only path.
	qt.Assert(t, qt.IsFalse(oldDef.Live))
	qt.Assert(t, qt.IsTrue(res.Chains[cls].Live))
}

// f = 1
// def f(x=f): pass
// The default value resolves to the earlier binding, which the function
// statement then replaces.
func TestFunctionDefaultSeesPriorBinding(t *testing.T) {
	fOld := store("f")
	defaultUse := load("f")
	fn := &ast.FunctionDef{
		Name: "f",
		Args: &ast.Arguments{
			Args:     []*ast.Arg{{Name: "x"}},
			Defaults: []ast.Expr{defaultUse},
		},
		Body: []ast.Stmt{&ast.Pass{}},
	}
	module := &ast.Module{Body: []ast.Stmt{
		&ast.Assign{Targets: []ast.Expr{fOld}, Value: &ast.Constant{Value: 1}},
		fn,
	}}

	res := resolve.Analyze(module, resolve.Options{Filename: "m.py", ModName: "m"})
	qt.Assert(t, qt.HasLen(res.Diags, 0))

	oldDef := res.Chains[fOld]
	useDef := res.Chains[defaultUse]
	found := false
	for _, u := range oldDef.Users() {
		if u == useDef {
			found = true
		}
	}
	qt.Assert(t, qt.IsTrue(found))
	qt.Assert(t, qt.IsFalse(oldDef.Live))
}

// x = 1
// x += 2
// The augmented target reads the prior def (becoming its user via the
// target's own chain entry) and then replaces it.
func TestAugAssignReadsThenRebinds(t *testing.T) {
	x1 := store("x")
	target := &ast.Name{Id: "x", Ctx: ast.Store}
	module := &ast.Module{Body: []ast.Stmt{
		&ast.Assign{Targets: []ast.Expr{x1}, Value: &ast.Constant{Value: 1}},
		&ast.AugAssign{Target: target, Op: "+", Value: &ast.Constant{Value: 2}},
	}}

	res := resolve.Analyze(module, resolve.Options{Filename: "m.py", ModName: "m"})
	qt.Assert(t, qt.HasLen(res.Diags, 0))

	def1 := res.Chains[x1]
	targetDef := res.Chains[target]
	qt.Assert(t, qt.IsNotNil(targetDef))
	found := false
	for _, u := range def1.Users() {
		if u == targetDef {
			found = true
		}
	}
	qt.Assert(t, qt.IsTrue(found))
	qt.Assert(t, qt.IsFalse(def1.Live))
	qt.Assert(t, qt.IsTrue(targetDef.Live))
}

func TestIdempotentAnalysis(t *testing.T) {
	build := func() *ast.Module {
		return &ast.Module{Body: []ast.Stmt{
			&ast.Assign{Targets: []ast.Expr{store("x")}, Value: &ast.Constant{Value: 1}},
			&ast.ExprStmt{Value: load("x")},
		}}
	}

	m1, m2 := build(), build()
	r1 := resolve.Analyze(m1, resolve.Options{Filename: "m.py", ModName: "m"})
	r2 := resolve.Analyze(m2, resolve.Options{Filename: "m.py", ModName: "m"})

	qt.Assert(t, qt.Equals(len(r1.Chains), len(r2.Chains)))
	qt.Assert(t, qt.Equals(len(r1.Locals[m1]), len(r2.Locals[m2])))
	names1 := make([]string, 0, len(r1.Locals[m1]))
	for _, d := range r1.Locals[m1] {
		names1 = append(names1, d.Name())
	}
	names2 := make([]string, 0, len(r2.Locals[m2]))
	for _, d := range r2.Locals[m2] {
		names2 = append(names2, d.Name())
	}
	qt.Assert(t, qt.DeepEquals(names1, names2))
}

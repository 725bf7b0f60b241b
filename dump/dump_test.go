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

package dump_test

import (
	"testing"

	"github.com/go-quicktest/qt"

	"github.com/pyforks/beniget-ng/ast"
	"github.com/pyforks/beniget-ng/defs"
	"github.com/pyforks/beniget-ng/dump"
	"github.com/pyforks/beniget-ng/internal/ancestor"
	"github.com/pyforks/beniget-ng/resolve"
)

func TestDefRendersUsers(t *testing.T) {
	x := &ast.Name{Id: "x", Ctx: ast.Store}
	use := &ast.Name{Id: "x", Ctx: ast.Load}
	module := &ast.Module{Body: []ast.Stmt{
		&ast.Assign{Targets: []ast.Expr{x}, Value: &ast.Constant{Value: 1}},
		&ast.ExprStmt{Value: use},
	}}

	res := resolve.Analyze(module, resolve.Options{Filename: "m.py", ModName: "m"})
	xdef := res.Chains[x]
	useDef := res.Chains[use]

	want := "x -> (x -> ())"
	got := dump.Def(xdef)
	qt.Assert(t, qt.Equals(got, want))
	qt.Assert(t, qt.Equals(dump.Def(useDef), "x -> ()"))
}

// from b import c, d
// c()
// The alias c's chain renders exactly as the canonical fixture: the alias,
// its one read, and the call depending on that read.
func TestDefRendersImportChain(t *testing.T) {
	cAlias := &ast.Alias{Name: "c"}
	dAlias := &ast.Alias{Name: "d"}
	cUse := &ast.Name{Id: "c", Ctx: ast.Load}
	module := &ast.Module{Body: []ast.Stmt{
		&ast.ImportFrom{Module: "b", Names: []*ast.Alias{cAlias, dAlias}},
		&ast.ExprStmt{Value: &ast.Call{Func: cUse}},
	}}

	res := resolve.Analyze(module, resolve.Options{Filename: "m.py", ModName: "m"})

	var names []string
	var userCounts []int
	for _, d := range res.Locals[module] {
		names = append(names, d.Name())
		userCounts = append(userCounts, len(d.Users()))
	}
	qt.Assert(t, qt.DeepEquals(names, []string{"c", "d"}))
	qt.Assert(t, qt.DeepEquals(userCounts, []int{1, 0}))

	qt.Assert(t, qt.Equals(dump.Def(res.Chains[cAlias]), "c -> (c -> (Call -> ()))"))
}

// Two Defs that are mutual users of each other must not recurse forever:
// the second visit along a path is rendered as "(#k)".
func TestDefCutsCycles(t *testing.T) {
	a := defs.NewBuiltin("a")
	b := defs.NewBuiltin("b")
	a.AddUser(b)
	b.AddUser(a)

	got := dump.Def(a)
	want := "a -> (b -> ((#0)))"
	qt.Assert(t, qt.Equals(got, want))
}

func TestLocalsSortsDeterministically(t *testing.T) {
	b := defs.NewBuiltin("b")
	a := defs.NewBuiltin("a")

	got := dump.Locals([]*defs.Def{b, a})
	want := "a: a -> ()\nb: b -> ()"
	qt.Assert(t, qt.Equals(got, want))
}

func TestQualNameNestedFunction(t *testing.T) {
	name := &ast.Name{Id: "z", Ctx: ast.Load}
	ret := &ast.Return{Value: name}
	inner := &ast.FunctionDef{Name: "inner", Args: &ast.Arguments{}, Body: []ast.Stmt{ret}}
	outer := &ast.FunctionDef{Name: "outer", Args: &ast.Arguments{}, Body: []ast.Stmt{inner}}
	module := &ast.Module{Body: []ast.Stmt{outer}}

	idx := ancestor.Build(module)
	got := dump.QualName(idx, name)
	qt.Assert(t, qt.Equals(got, "outer.inner.z"))
}

func TestQualNameModuleLevel(t *testing.T) {
	module := &ast.Module{Body: []ast.Stmt{&ast.Pass{}}}
	idx := ancestor.Build(module)
	got := dump.QualName(idx, module)
	qt.Assert(t, qt.Equals(got, "<module>"))
}

func TestDumpVerboseIncludesName(t *testing.T) {
	d := defs.NewBuiltin("print")
	got := dump.DumpVerbose(d)
	qt.Assert(t, qt.StringContains(got, "print"))
}

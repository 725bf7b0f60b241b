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

package invert_test

import (
	"fmt"
	"testing"

	"github.com/go-quicktest/qt"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/pyforks/beniget-ng/ast"
	"github.com/pyforks/beniget-ng/defs"
	"github.com/pyforks/beniget-ng/invert"
	"github.com/pyforks/beniget-ng/resolve"
)

func TestBuildInvertsSimpleDef(t *testing.T) {
	x := &ast.Name{Id: "x", Ctx: ast.Store}
	use := &ast.Name{Id: "x", Ctx: ast.Load}
	module := &ast.Module{Body: []ast.Stmt{
		&ast.Assign{Targets: []ast.Expr{x}, Value: &ast.Constant{Value: 1}},
		&ast.ExprStmt{Value: use},
	}}

	res := resolve.Analyze(module, resolve.Options{Filename: "m.py", ModName: "m"})
	chains := invert.Build(res, module)

	reaching := chains.Of(use)
	qt.Assert(t, qt.HasLen(reaching, 1))
	qt.Assert(t, qt.Equals(reaching[0], res.Chains[x]))
}

func TestBuildIsTotalOverNames(t *testing.T) {
	x := &ast.Name{Id: "x", Ctx: ast.Store}
	module := &ast.Module{Body: []ast.Stmt{
		&ast.Assign{Targets: []ast.Expr{x}, Value: &ast.Constant{Value: 1}},
	}}

	res := resolve.Analyze(module, resolve.Options{Filename: "m.py", ModName: "m"})
	chains := invert.Build(res, module)

	// x is never read, so it gets an empty (not missing) entry.
	reaching := chains.Of(x)
	qt.Assert(t, qt.HasLen(reaching, 0))
	qt.Assert(t, qt.Equals(chains.Len(), 1))
}

func TestBuildIncludesBuiltins(t *testing.T) {
	use := &ast.Name{Id: "print", Ctx: ast.Load}
	module := &ast.Module{Body: []ast.Stmt{
		&ast.ExprStmt{Value: &ast.Call{Func: use}},
	}}

	res := resolve.Analyze(module, resolve.Options{Filename: "m.py", ModName: "m"})
	chains := invert.Build(res, module)

	reaching := chains.Of(use)
	qt.Assert(t, qt.HasLen(reaching, 1))
	qt.Assert(t, qt.IsTrue(reaching[0].IsBuiltin()))
}

// TestInversionRoundTrips checks the §8 round-trip property: rebuilding
// def->use pairs from the inverted use->def view reproduces the forward
// chains, set-equal and order-free.
func TestInversionRoundTrips(t *testing.T) {
	x := &ast.Name{Id: "x", Ctx: ast.Store}
	use1 := &ast.Name{Id: "x", Ctx: ast.Load}
	use2 := &ast.Name{Id: "x", Ctx: ast.Load}
	module := &ast.Module{Body: []ast.Stmt{
		&ast.Assign{Targets: []ast.Expr{x}, Value: &ast.Constant{Value: 1}},
		&ast.ExprStmt{Value: use1},
		&ast.ExprStmt{Value: use2},
	}}

	res := resolve.Analyze(module, resolve.Options{Filename: "m.py", ModName: "m"})
	chains := invert.Build(res, module)

	// Identify Defs and Names by address string so cmp.Diff compares plain
	// string keys/slices instead of reflecting into unexported node fields.
	key := func(d *defs.Def) string { return fmt.Sprintf("%p", d) }
	nameKey := func(n *ast.Name) string { return fmt.Sprintf("%p", n) }

	forward := map[string][]string{}
	record := func(d *defs.Def) {
		k := key(d)
		if _, ok := forward[k]; ok {
			return
		}
		var names []string
		for _, user := range d.Users() {
			if n, ok := user.Node.(*ast.Name); ok {
				names = append(names, nameKey(n))
			}
		}
		forward[k] = names
	}
	for _, d := range res.Chains {
		record(d)
	}
	for _, d := range res.Builtins {
		record(d)
	}

	rebuilt := map[string][]string{}
	ast.Walk(module,
		func(n ast.Node) bool {
			name, ok := n.(*ast.Name)
			if !ok {
				return true
			}
			for _, d := range chains.Of(name) {
				rebuilt[key(d)] = append(rebuilt[key(d)], nameKey(name))
			}
			return true
		},
		func(ast.Node) {},
	)
	for k := range forward {
		if _, ok := rebuilt[k]; !ok {
			rebuilt[k] = nil
		}
	}

	diff := cmp.Diff(forward, rebuilt, cmpopts.SortSlices(func(a, b string) bool { return a < b }))
	qt.Assert(t, qt.Equals(diff, ""))
}

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

package ancestor_test

import (
	"testing"

	"github.com/go-quicktest/qt"
	"github.com/google/go-cmp/cmp"

	"github.com/pyforks/beniget-ng/ast"
	"github.com/pyforks/beniget-ng/internal/ancestor"
)

func TestBuildParent(t *testing.T) {
	ret := &ast.Return{Value: &ast.Name{Id: "x", Ctx: ast.Load}}
	fn := &ast.FunctionDef{Name: "f", Args: &ast.Arguments{}, Body: []ast.Stmt{ret}}
	module := &ast.Module{Body: []ast.Stmt{fn}}

	idx := ancestor.Build(module)

	qt.Assert(t, qt.Equals(idx.Parent(ret), ast.Node(fn)))
	qt.Assert(t, qt.Equals(idx.Parent(fn), ast.Node(module)))
	qt.Assert(t, qt.IsNil(idx.Parent(module)))
}

func TestBuildParents(t *testing.T) {
	name := &ast.Name{Id: "x", Ctx: ast.Load}
	ret := &ast.Return{Value: name}
	fn := &ast.FunctionDef{Name: "f", Args: &ast.Arguments{}, Body: []ast.Stmt{ret}}
	module := &ast.Module{Body: []ast.Stmt{fn}}

	idx := ancestor.Build(module)

	sameNode := cmp.Comparer(func(a, b ast.Node) bool { return a == b })
	qt.Assert(t, qt.CmpEquals(idx.Parents(name), []ast.Node{module, fn, ret}, sameNode))
}

func TestParentFunction(t *testing.T) {
	name := &ast.Name{Id: "x", Ctx: ast.Load}
	ret := &ast.Return{Value: name}
	fn := &ast.FunctionDef{Name: "f", Args: &ast.Arguments{}, Body: []ast.Stmt{ret}}
	cls := &ast.ClassDef{Name: "C", Body: []ast.Stmt{fn}}
	module := &ast.Module{Body: []ast.Stmt{cls}}

	idx := ancestor.Build(module)

	got, ok := idx.ParentFunction(name)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(got, fn))

	_, ok = idx.ParentFunction(cls)
	qt.Assert(t, qt.IsFalse(ok))
}

func TestParentMatchingNoMatch(t *testing.T) {
	module := &ast.Module{Body: []ast.Stmt{&ast.Pass{}}}
	idx := ancestor.Build(module)
	_, ok := idx.ParentMatching(module.Body[0], func(ast.Node) bool { return false })
	qt.Assert(t, qt.IsFalse(ok))
}

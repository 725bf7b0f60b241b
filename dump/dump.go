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

// Package dump renders a Def and its transitive users as a deterministic
// string, stable across runs and suitable as a test fixture.
//
// A Def already on the current path is replaced by "(#k)", k being the
// position at which it was first seen along that path, so a cyclic user
// graph still terminates. The numbering is local to each path, not global
// to the whole dump.
package dump

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kr/pretty"

	"github.com/pyforks/beniget-ng/ast"
	"github.com/pyforks/beniget-ng/defs"
	"github.com/pyforks/beniget-ng/internal/ancestor"
)

// Def renders d and its transitive users, e.g. "x -> (y -> (), z -> ())".
func Def(d *defs.Def) string {
	return str(d, map[*defs.Def]int{})
}

func str(d *defs.Def, seen map[*defs.Def]int) string {
	if k, ok := seen[d]; ok {
		return fmt.Sprintf("(#%d)", k)
	}
	next := make(map[*defs.Def]int, len(seen)+1)
	for k, v := range seen {
		next[k] = v
	}
	next[d] = len(seen)

	users := d.Users()
	parts := make([]string, len(users))
	for i, u := range users {
		parts[i] = str(u, next)
	}
	return fmt.Sprintf("%s -> (%s)", d.Name(), strings.Join(parts, ", "))
}

// DumpVerbose renders d's exported fields and its immediate users with
// github.com/kr/pretty, for ad-hoc inspection while developing against this
// package. Unlike Def, it does not cut cycles or guarantee a stable
// ordering across Go map fields it happens to traverse, so it is not meant
// for test fixtures -- use Def or Locals for those.
func DumpVerbose(d *defs.Def) string {
	return pretty.Sprint(struct {
		Name  string
		Live  bool
		Users []string
	}{
		Name: d.Name(),
		Live: d.Live,
		Users: func() []string {
			users := d.Users()
			names := make([]string, len(users))
			for i, u := range users {
				names[i] = u.Name()
			}
			return names
		}(),
	})
}

// Locals renders every Def declared directly in scope, one per line in the
// form "name: <Def dump>", with the lines sorted as plain strings. Intended for
// comparing a scope's bindings against a golden fixture regardless of the
// nondeterminism of Go map iteration upstream of this package.
func Locals(scope []*defs.Def) string {
	lines := make([]string, len(scope))
	for i, d := range scope {
		lines[i] = fmt.Sprintf("%s: %s", d.Name(), Def(d))
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n")
}

// Chains renders every Name node's reaching definitions from a use-def
// Chains table (see package invert), one line per Name in source order,
// as "<pos>: <name> <- (<def dump>, ...)".
func Chains(names []*ast.Name, of func(*ast.Name) []*defs.Def) string {
	var b strings.Builder
	for i, n := range names {
		if i > 0 {
			b.WriteByte('\n')
		}
		reaching := of(n)
		parts := make([]string, len(reaching))
		for j, d := range reaching {
			parts[j] = str(d, map[*defs.Def]int{})
		}
		fmt.Fprintf(&b, "%s: %s <- (%s)", n.Pos(), n.Id, strings.Join(parts, ", "))
	}
	return b.String()
}

// QualName renders a dotted path from the module root down to node, using
// idx to walk node's ancestor chain: the names of the enclosing classes and
// functions, then node's own name when node is a function, class or Name
// ("Outer.inner.x"), or "<module>" when there is no part at all. Intended
// to give dump fixtures a stable, readable handle on *where* a Def or use
// lives without printing raw line/column positions, which a formatter
// upstream of this package may reflow.
func QualName(idx *ancestor.Index, node ast.Node) string {
	var parts []string
	for _, anc := range idx.Parents(node) {
		switch n := anc.(type) {
		case *ast.FunctionDef:
			parts = append(parts, n.Name)
		case *ast.ClassDef:
			parts = append(parts, n.Name)
		}
	}
	switch n := node.(type) {
	case *ast.FunctionDef:
		parts = append(parts, n.Name)
	case *ast.ClassDef:
		parts = append(parts, n.Name)
	case *ast.Name:
		parts = append(parts, n.Id)
	}
	if len(parts) == 0 {
		return "<module>"
	}
	return strings.Join(parts, ".")
}

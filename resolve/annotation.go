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
	"fmt"

	"github.com/pyforks/beniget-ng/ast"
	"github.com/pyforks/beniget-ng/defs"
)

// errNotFound is returned by lookupAnnotationNameDefs for a builtin name, a
// wildcard-imported name, or a genuinely unbound one -- all three fall back
// to the regular (non-annotation) lookup in computeAnnotationDefs.
type errNotFound struct{ msg string }

func (e *errNotFound) Error() string { return e.msg }

// lookupAnnotationNameDefs resolves name using the scope chain heads
// describes (module first, then each enclosing scope, direct scope last).
// lookupInScopes walks the list built by getLookupScopes from its last
// element back, so the direct scope is searched first, then the enclosing
// closed scopes from inner to outer, and the module scope last --
// annotations resolve against the innermost runtime namespaces before
// falling back to globals. A direct PEP-695 type-parameter scope is
// searched the same way, with the class scope spliced in for it searched
// right after it.
func (e *Engine) lookupAnnotationNameDefs(name string, heads []ast.Node) ([]*defs.Def, error) {
	scopes, err := getLookupScopes(heads)
	if err != nil {
		return nil, err
	}
	result, err := e.lookupInScopes(name, scopes, true)
	if err == nil {
		return result, nil
	}
	if defs.IsBuiltinName(name) {
		return nil, &errNotFound{msg: fmt.Sprintf("%s is a builtin", name)}
	}
	if _, err2 := e.lookupInScopes(name, scopes, false); err2 == nil {
		return nil, &errNotFound{msg: fmt.Sprintf("%q is killed", name)}
	}
	return nil, &errNotFound{msg: fmt.Sprintf("%q not found in enclosing scopes", name)}
}

// closedScope reports whether a scope kind participates in the
// "other_scopes" search tier of getLookupScopes: function, lambda, and
// comprehension/generator bodies, plus def695 wrapper scopes.
func closedScope(n ast.Node) bool {
	switch n.(type) {
	case *ast.FunctionDef, *ast.Lambda,
		*ast.ListComp, *ast.SetComp, *ast.DictComp, *ast.GeneratorExp,
		*ast.TypeParamScope:
		return true
	default:
		return false
	}
}

// getLookupScopes reorders heads (module first, direct scope last) into the
// scope search order used by lookupAnnotationNameDefs: the module scope,
// every enclosing closed scope in outer-to-inner order, then the direct
// scope -- with the enclosing class scope spliced back in immediately
// before a def695 direct scope, since a type-parameter scope immediately
// within a class body can still see that class's own namespace.
func getLookupScopes(heads []ast.Node) ([]ast.Node, error) {
	if len(heads) == 0 {
		return nil, fmt.Errorf("invalid heads: must include at least one element")
	}
	rest := append([]ast.Node(nil), heads...)
	direct := []ast.Node{rest[len(rest)-1]}
	rest = rest[:len(rest)-1]
	if len(rest) == 0 {
		return direct, nil
	}
	global := rest[0]
	rest = rest[1:]

	if len(rest) > 0 {
		if _, ok := direct[0].(*ast.TypeParamScope); ok {
			if _, ok := rest[len(rest)-1].(*ast.ClassDef); ok {
				direct = append([]ast.Node{rest[len(rest)-1]}, direct...)
				rest = rest[:len(rest)-1]
			}
		}
	}

	var other []ast.Node
	for _, s := range rest {
		if closedScope(s) {
			other = append(other, s)
		}
	}
	result := append([]ast.Node{global}, other...)
	result = append(result, direct...)
	return result, nil
}

// lookupInScopes searches scopes from the innermost (last) outward for a
// live (or, with onlyLive false, any) Def named name among that scope's
// locals.
func (e *Engine) lookupInScopes(name string, scopes []ast.Node, onlyLive bool) ([]*defs.Def, error) {
	context := scopes[len(scopes)-1]
	var found []*defs.Def
	for _, loc := range e.locals[context] {
		if loc.Name() != name {
			continue
		}
		if onlyLive && !loc.Live {
			continue
		}
		found = append(found, loc)
	}
	if len(found) > 0 {
		return found, nil
	}
	if len(scopes) == 1 {
		return nil, &errNotFound{msg: fmt.Sprintf("%q not found", name)}
	}
	return e.lookupInScopes(name, scopes[:len(scopes)-1], onlyLive)
}

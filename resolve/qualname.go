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

import "github.com/pyforks/beniget-ng/ast"

// matchesQualname reports whether expr, evaluated as an annotation-scope
// name lookup rooted at heads, refers to one of qnames: either a plain Name
// bound by an import whose resolved target is one of qnames, a plain Name
// bound to a module-level definition whose "modname.defname" is one of
// qnames, or an Attribute access whose base recursively matches the
// qnames' module part. Used to recognize `typing.TypeAlias`/`TypeVar` (or
// their typing_extensions twin) however the stub imported it.
func (e *Engine) matchesQualname(heads []ast.Node, expr ast.Expr, qnames map[string]bool) bool {
	switch n := expr.(type) {
	case *ast.Name:
		found, err := e.lookupAnnotationNameDefs(n.Id, resolveHeads(heads, e.scopes))
		if err != nil {
			return false
		}
		for _, d := range found {
			if al, ok := d.Node.(*ast.Alias); ok {
				if info, ok := e.imports[al]; ok && qnames[info.Target()] {
					return true
				}
				continue
			}
			if qnames[e.modname+"."+d.Name()] {
				return true
			}
			break
		}
		return false

	case *ast.Attribute:
		for qn := range qnames {
			mod, _, name := rpartitionDot(qn)
			if mod != "" && n.Attr == name {
				if e.matchesQualname(heads, n.Value, map[string]bool{mod: true}) {
					return true
				}
			}
		}
		return false

	default:
		return false
	}
}

// matchesTypingName reports whether expr refers to `typing.<name>` or
// `typing_extensions.<name>`, however it was imported into the current
// module -- by plain name, by alias, or via attribute access on an
// imported `typing` module.
func (e *Engine) matchesTypingName(heads []ast.Node, expr ast.Expr, name string) bool {
	return e.matchesQualname(heads, expr, map[string]bool{
		"typing." + name:            true,
		"typing_extensions." + name: true,
	})
}

// resolveHeads returns heads if non-nil, else a copy of current, matching
// every other deferred-lookup entry point's "nil means capture the current
// scope stack" convention.
func resolveHeads(heads []ast.Node, current []ast.Node) []ast.Node {
	if heads != nil {
		return heads
	}
	return append([]ast.Node(nil), current...)
}

// rpartitionDot splits s on its last '.', Python str.rpartition style: if s
// has no dot, mod is "" and name is s unchanged.
func rpartitionDot(s string) (mod, sep, name string) {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '.' {
			return s[:i], ".", s[i+1:]
		}
	}
	return "", "", s
}

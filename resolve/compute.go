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
)

// computeDefs performs the live name lookup: starting at the innermost
// scope and walking outward, skipping class scopes (except the innermost
// one) since they require fully-qualified access, honoring `global`
// declarations, and falling back to a synthetic unresolved Def -- recorded
// for later patch-up if an enclosing loop later turns out to
// define the name -- when nothing reaches it.
func (e *Engine) computeDefs(node *ast.Name, quiet bool) []*defs.Def {
	name := node.Id
	var stars []*defs.Def
	var lookedUp []definitions
	localReadBlocked := false

	if e.isGlobalName(name) {
		n := -e.scopeDepths[0]
		lookedUp = append(lookedUp, e.definitionsStack[:n]...)
	} else {
		// The three parallel stacks are consumed innermost-first in lockstep,
		// stopping at the shortest one: during the deferred-annotation drain
		// the scope list stands in for scopes long since popped, so it may be
		// longer than the live depth/precomputed stacks.
		nScopes, nDepths, nPre := len(e.scopes), len(e.scopeDepths), len(e.precomputedStack)
		depth := e.scopeDepths[nDepths-1]
		precomputed := e.precomputedStack[nPre-1]
		baseScope := e.scopes[nScopes-1]
		frameStart := len(e.definitionsStack) + depth
		frames := e.definitionsStack[frameStart:]
		isDef695 := isTypeParamScope(baseScope)

		if e.invalidNameLookup(name, baseScope, precomputed, frames) {
			localReadBlocked = true
		} else {
			lookedUp = append(lookedUp, reverseDefinitions(frames)...)

			steps := nScopes - 1
			if nDepths-1 < steps {
				steps = nDepths - 1
			}
			if nPre-1 < steps {
				steps = nPre - 1
			}
			lvl := depth
			for j := 1; j <= steps; j++ {
				scope := e.scopes[nScopes-1-j]
				d := e.scopeDepths[nDepths-1-j]
				pc := e.precomputedStack[nPre-1-j]
				if !isClassScope(scope) || isDef695 {
					frameLo := len(e.definitionsStack) + lvl + d
					frameHi := len(e.definitionsStack) + lvl
					frames := e.definitionsStack[frameLo:frameHi]
					if e.invalidNameLookup(name, baseScope, pc, frames) {
						break
					}
					lookedUp = append(lookedUp, reverseDefinitions(frames)...)
				}
				lvl += d
			}
		}
	}

	for _, frame := range lookedUp {
		if s, ok := frame[name]; ok {
			if len(stars) == 0 {
				return s.Slice()
			}
			return append(append([]*defs.Def(nil), stars...), s.Slice()...)
		}
		if s, ok := frame["*"]; ok {
			stars = append(stars, s.Slice()...)
		}
	}

	d := e.defFor(node)
	if len(e.undefs) > 0 {
		top := e.undefs[len(e.undefs)-1]
		top[name] = append(top[name], undefEntry{def: d, stars: stars})
	}

	if len(stars) > 0 {
		return append(append([]*defs.Def(nil), stars...), d)
	}
	if len(e.undefs) == 0 && !quiet {
		if localReadBlocked {
			e.readBeforeAssign(name, node)
		} else {
			e.unboundIdentifier(name, node)
		}
	}
	return []*defs.Def{d}
}

func isClassScope(n ast.Node) bool {
	_, ok := n.(*ast.ClassDef)
	return ok
}

func isTypeParamScope(n ast.Node) bool {
	_, ok := n.(*ast.TypeParamScope)
	return ok
}

func reverseDefinitions(frames []definitions) []definitions {
	out := make([]definitions, len(frames))
	for i, f := range frames {
		out[len(frames)-1-i] = f
	}
	return out
}

// computeAnnotationDefs resolves a name appearing in a deferred annotation,
// using the module-scope-last lookup order of lookupAnnotationNameDefs, and
// falling back to the regular lookup (for builtins and wildcard imports)
// when that fails.
func (e *Engine) computeAnnotationDefs(node *ast.Name, heads []ast.Node, quiet bool) []*defs.Def {
	if d, err := e.lookupAnnotationNameDefs(node.Id, heads); err == nil {
		return d
	}
	return e.computeDefs(node, quiet)
}

// processUndefs reconciles the innermost undef buffer against the
// definitions that ended up in scope by the end of the frame: a name read
// before it appeared bound, but which the same frame did eventually bind
// (e.g. a loop variable assigned later in the loop body), gets every one of
// its placeholder Def's users transferred onto the real definition instead.
func (e *Engine) processUndefs() {
	top := e.undefs[len(e.undefs)-1]
	current := e.definitionsStack[len(e.definitionsStack)-1]
	for name, entries := range top {
		if real, ok := current[name]; ok {
			for _, newDef := range real.Slice() {
				for _, entry := range entries {
					for _, user := range entry.def.Users() {
						newDef.AddUser(user)
					}
				}
			}
		} else {
			for _, entry := range entries {
				if len(entry.stars) == 0 {
					e.unboundIdentifier(name, entry.def.Node)
				}
			}
		}
	}
	e.undefs = e.undefs[:len(e.undefs)-1]
}

// processBody walks stmts in order, tracking the dead-code counter: once a
// Break/Continue/Raise is seen, every following sibling statement is
// processed under "deadcode" so any definitions it would make are
// discarded rather than considered reachable.
func (e *Engine) processBody(stmts []ast.Stmt) {
	deadcodeEntered := false
	for _, stmt := range stmts {
		e.visitStmt(stmt)
		switch stmt.(type) {
		case *ast.Break, *ast.Continue, *ast.Raise:
			if !deadcodeEntered {
				deadcodeEntered = true
				e.deadcode++
			}
		}
	}
	if deadcodeEntered {
		e.deadcode--
	}
}

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

// visitPattern visits one match-statement pattern, wiring it (and, for the
// composite kinds, its children) into the def-use graph the same way the
// corresponding expression form would: MatchSequence mimics a Load-context
// list, MatchMapping mimics a dict, MatchClass mimics a call.
func (e *Engine) visitPattern(p ast.Pattern) *defs.Def {
	switch n := p.(type) {
	case *ast.MatchValue:
		dnode := e.defFor(n)
		e.visitExpr(n.Value)
		return dnode

	case *ast.MatchSingleton:
		dnode := e.defFor(n)
		e.visitExpr(n.Value)
		return dnode

	case *ast.MatchSequence:
		dnode := e.defFor(n)
		for _, sub := range n.Patterns {
			e.visitPattern(sub).AddUser(dnode)
		}
		return dnode

	case *ast.MatchMapping:
		dnode := e.defFor(n)
		for _, k := range n.Keys {
			if k != nil {
				e.visitExpr(k).AddUser(dnode)
			}
		}
		for _, sub := range n.Patterns {
			e.visitPattern(sub).AddUser(dnode)
		}
		if n.Rest != "" {
			e.visitName(&ast.Name{Id: n.Rest, Ctx: ast.Store}, false, false)
		}
		return dnode

	case *ast.MatchClass:
		dnode := e.defFor(n)
		e.visitExpr(n.Cls).AddUser(dnode)
		for _, sub := range n.Patterns {
			e.visitPattern(sub).AddUser(dnode)
		}
		for _, sub := range n.KwdPatterns {
			e.visitPattern(sub).AddUser(dnode)
		}
		return dnode

	case *ast.MatchStar:
		dnode := e.defFor(n)
		if n.Name != "" {
			e.visitName(&ast.Name{Id: n.Name, Ctx: ast.Store}, false, false)
		}
		return dnode

	case *ast.MatchAs:
		dnode := e.defFor(n)
		if n.Pattern != nil {
			e.visitPattern(n.Pattern)
		}
		if n.Name != "" {
			e.visitName(&ast.Name{Id: n.Name, Ctx: ast.Store}, false, false)
		}
		return dnode

	case *ast.MatchOr:
		dnode := e.defFor(n)
		for _, sub := range n.Patterns {
			e.visitPattern(sub).AddUser(dnode)
		}
		return dnode
	}
	return e.defFor(p)
}

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
	"github.com/pyforks/beniget-ng/diag"
	"github.com/pyforks/beniget-ng/importresolve"
	"github.com/pyforks/beniget-ng/internal/ordered"
)

// step distinguishes the two passes a function or lambda body is processed
// in: declare its name and default/annotation expressions where it is
// textually written, then (once the rest of the enclosing scope has been
// populated) walk its body against the scope snapshot captured at
// declaration time.
type step int

const (
	declarationStep step = iota
	definitionStep
)

// visitStmt dispatches one statement. Statements that need the two-step
// declare/define treatment are entered here at their declaration step.
func (e *Engine) visitStmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.Assign:
		e.visitAssign(n)
	case *ast.AugAssign:
		e.visitAugAssign(n)
	case *ast.AnnAssign:
		e.visitAnnAssign(n)
	case *ast.If:
		e.visitIf(n)
	case *ast.While:
		e.visitWhile(n)
	case *ast.For:
		e.visitFor(n)
	case *ast.Try:
		e.visitTry(n)
	case *ast.With:
		e.visitWith(n)
	case *ast.Match:
		e.visitMatch(n)
	case *ast.FunctionDef:
		e.visitFunctionDef(n, declarationStep, false)
	case *ast.ClassDef:
		e.visitClassDef(n, false)
	case *ast.Return:
		if n.Value != nil {
			e.visitExpr(n.Value)
		}
	case *ast.Delete:
		for _, t := range n.Targets {
			e.visitExpr(t)
		}
	case *ast.Pass:
	case *ast.Break:
		e.visitBreak()
	case *ast.Continue:
		e.visitContinue()
	case *ast.Raise:
		if n.Exc != nil {
			e.visitExpr(n.Exc)
		}
		if n.Cause != nil {
			e.visitExpr(n.Cause)
		}
	case *ast.Assert:
		e.visitExpr(n.Test)
		if n.Msg != nil {
			e.visitExpr(n.Msg)
		}
	case *ast.Global:
		for _, name := range n.Names {
			e.globalsStack[len(e.globalsStack)-1][name] = true
		}
	case *ast.Nonlocal:
		e.visitNonlocal(n)
	case *ast.Import:
		e.visitImport(n)
	case *ast.ImportFrom:
		e.visitImportFrom(n)
	case *ast.ExprStmt:
		e.visitExpr(n.Value)
	case *ast.TypeAliasStmt:
		e.visitTypeAliasStmt(n, false)
	case *ast.TypeParamScope:
		e.visitDef695(n)
	}
}

func (e *Engine) visitBreak() {
	frame := e.definitionsStack[len(e.definitionsStack)-1]
	target := e.breaks[len(e.breaks)-1]
	for name, s := range frame {
		addManyToDefinition(target, name, s)
	}
	e.definitionsStack[len(e.definitionsStack)-1] = newDefinitions()
}

func (e *Engine) visitContinue() {
	frame := e.definitionsStack[len(e.definitionsStack)-1]
	target := e.continues[len(e.continues)-1]
	for name, s := range frame {
		addManyToDefinition(target, name, s)
	}
	e.definitionsStack[len(e.definitionsStack)-1] = newDefinitions()
}

func (e *Engine) visitAssign(n *ast.Assign) {
	e.visitExpr(n.Value)
	for _, t := range n.Targets {
		e.visitExpr(t)
	}
}

func (e *Engine) visitAugAssign(n *ast.AugAssign) {
	dvalue := e.visitExpr(n.Value)
	if name, ok := n.Target.(*ast.Name); ok {
		// The target is read first, as if it were in Load context, then
		// written back as a fresh definition of the same node.
		dtarget := e.visitNameCtx(name, ast.Load, false, false)
		dvalue.AddUser(dtarget)
		if e.isGlobalName(name.Id) {
			e.extendGlobal(name.Id, dtarget)
		} else if target, ok := e.nonlocalRoute(name.Id); ok {
			e.setNonlocalDefinition(name.Id, dtarget, target)
		} else {
			loadedFromStar := false
			for _, d := range e.computeDefs(name, true) {
				if d.Name() == "*" {
					loadedFromStar = true
				}
			}
			e.setDefinition(name.Id, dtarget, -1)
			if loadedFromStar {
				e.locals[e.scopes[len(e.scopes)-1]] = append(e.locals[e.scopes[len(e.scopes)-1]], dtarget)
			}
		}
	} else {
		e.visitExpr(n.Target).AddUser(dvalue)
	}
}

func (e *Engine) visitAnnAssign(n *ast.AnnAssign) {
	if n.Value != nil && e.isStub && e.matchesTypingName(nil, n.Annotation, "TypeAlias") {
		e.deferAnnotation(n.Value, nil, nil)
	} else if n.Value != nil {
		e.visitExpr(n.Value)
	}
	if !e.futureAnno {
		e.visitExpr(n.Annotation)
	} else if err := validateAnnotationBody(n.Annotation); err != nil {
		e.warnf(n.Annotation, "%s", err)
	} else {
		e.deferAnnotation(n.Annotation, nil, nil)
	}
	e.visitExpr(n.Target)
}

func (e *Engine) visitIf(n *ast.If) {
	e.visitExpr(n.Test)

	bodyDefs := e.pushDefinitionContext(e.definitionsStack[len(e.definitionsStack)-1].clone())
	e.processBody(n.Body)
	e.popDefinitionContext()

	orelseDefs := e.pushDefinitionContext(e.definitionsStack[len(e.definitionsStack)-1].clone())
	e.processBody(n.Orelse)
	e.popDefinitionContext()

	for name, s := range bodyDefs {
		if o, ok := orelseDefs[name]; ok {
			e.setDefinitionMany(name, ordered.Union(s, o), -1)
		} else {
			e.extendDefinition(name, s)
		}
	}
	for name, s := range orelseDefs {
		if _, ok := bodyDefs[name]; ok {
			continue
		}
		e.extendDefinition(name, s)
	}
}

func (e *Engine) visitWhile(n *ast.While) {
	e.pushDefinitionContext(e.definitionsStack[len(e.definitionsStack)-1].clone())
	e.undefs = append(e.undefs, map[string][]undefEntry{})
	e.breaks = append(e.breaks, newDefinitions())
	e.continues = append(e.continues, newDefinitions())
	e.processBody(n.Orelse)
	e.popDefinitionContext()

	bodyDefs := e.pushDefinitionContext(e.definitionsStack[len(e.definitionsStack)-1].clone())

	e.visitExpr(n.Test)
	e.processBody(n.Body)
	e.processUndefs()

	continueDefs := e.continues[len(e.continues)-1]
	e.continues = e.continues[:len(e.continues)-1]
	for name, s := range continueDefs {
		e.extendDefinition(name, s)
	}
	e.continues = append(e.continues, newDefinitions())

	e.visitExpr(n.Test)
	e.processBody(n.Body)

	e.visitExpr(n.Test)

	orelseDefs := e.pushDefinitionContext(e.definitionsStack[len(e.definitionsStack)-1].clone())
	e.processBody(n.Orelse)
	e.popDefinitionContext()

	e.popDefinitionContext()

	breakDefs := e.breaks[len(e.breaks)-1]
	e.breaks = e.breaks[:len(e.breaks)-1]
	continueDefs = e.continues[len(e.continues)-1]
	e.continues = e.continues[:len(e.continues)-1]

	for name, s := range continueDefs {
		e.extendDefinition(name, s)
	}
	for name, s := range breakDefs {
		e.extendDefinition(name, s)
	}
	for name, s := range orelseDefs {
		e.extendDefinition(name, s)
	}
	for name, s := range bodyDefs {
		e.extendDefinition(name, s)
	}
}

func (e *Engine) visitFor(n *ast.For) {
	e.visitExpr(n.Iter)

	e.breaks = append(e.breaks, newDefinitions())
	e.continues = append(e.continues, newDefinitions())
	e.undefs = append(e.undefs, map[string][]undefEntry{})

	bodyDefs := e.pushDefinitionContext(e.definitionsStack[len(e.definitionsStack)-1].clone())

	e.visitExpr(n.Target)
	e.processBody(n.Body)
	e.processUndefs()

	continueDefs := e.continues[len(e.continues)-1]
	e.continues = e.continues[:len(e.continues)-1]
	for name, s := range continueDefs {
		e.extendDefinition(name, s)
	}
	e.continues = append(e.continues, newDefinitions())

	e.visitExpr(n.Target)
	e.processBody(n.Body)

	orelseDefs := e.pushDefinitionContext(newDefinitions())
	e.processBody(n.Orelse)
	e.popDefinitionContext()

	breakDefs := e.breaks[len(e.breaks)-1]
	e.breaks = e.breaks[:len(e.breaks)-1]
	continueDefs = e.continues[len(e.continues)-1]
	e.continues = e.continues[:len(e.continues)-1]

	e.popDefinitionContext()

	for name, s := range orelseDefs {
		e.extendDefinition(name, s)
	}
	for name, s := range continueDefs {
		e.extendDefinition(name, s)
	}
	for name, s := range breakDefs {
		e.extendDefinition(name, s)
	}
	for name, s := range bodyDefs {
		e.extendDefinition(name, s)
	}
}

func (e *Engine) visitTry(n *ast.Try) {
	failsafeDefs := e.pushDefinitionContext(e.definitionsStack[len(e.definitionsStack)-1].clone())
	e.processBody(n.Body)
	e.processBody(n.Orelse)
	e.popDefinitionContext()

	for name, s := range failsafeDefs {
		e.extendDefinition(name, s)
	}

	for _, h := range n.Handlers {
		handlerDefs := e.pushDefinitionContext(newDefinitions())
		e.visitExceptHandler(h)
		e.popDefinitionContext()
		for name, s := range handlerDefs {
			e.extendDefinition(name, s)
		}
	}

	e.processBody(n.Finalbody)
}

func (e *Engine) visitExceptHandler(h *ast.ExceptHandler) {
	dnode := e.defFor(h)
	if h.TypeExpr != nil {
		e.visitExpr(h.TypeExpr).AddUser(dnode)
	}
	if h.Name != "" {
		// An `except ... as name` binding behaves like a Store-context Name.
		e.visitName(&ast.Name{Id: h.Name, Ctx: ast.Store}, false, false).AddUser(dnode)
	}
	e.processBody(h.Body)
}

func (e *Engine) visitWith(n *ast.With) {
	for _, it := range n.Items {
		e.visitWithItem(it)
	}
	e.processBody(n.Body)
}

func (e *Engine) visitWithItem(it *ast.WithItem) {
	dnode := e.defFor(it)
	e.visitExpr(it.ContextExpr).AddUser(dnode)
	if it.OptionalVars != nil {
		e.visitExpr(it.OptionalVars)
	}
}

func (e *Engine) visitMatch(n *ast.Match) {
	e.visitExpr(n.Subject)

	var caseDefs []definitions
	for _, kase := range n.Cases {
		if kase.Guard != nil {
			e.visitExpr(kase.Guard)
		}
		e.visitPattern(kase.Pattern)

		cd := e.pushDefinitionContext(e.definitionsStack[len(e.definitionsStack)-1].clone())
		e.processBody(kase.Body)
		e.popDefinitionContext()
		caseDefs = append(caseDefs, cd)
	}

	if len(caseDefs) == 0 {
		return
	}
	bodyDefs, orelseDefs, rest := caseDefs[0], definitions(nil), caseDefs[1:]
	if len(rest) > 0 {
		orelseDefs, rest = rest[0], rest[1:]
	}
	for {
		for name, s := range bodyDefs {
			if o, ok := orelseDefs[name]; ok {
				e.setDefinitionMany(name, ordered.Union(s, o), -1)
			} else {
				e.extendDefinition(name, s)
			}
		}
		for name, s := range orelseDefs {
			if _, ok := bodyDefs[name]; !ok {
				e.extendDefinition(name, s)
			}
		}
		if len(rest) == 0 {
			break
		}
		bodyDefs = e.definitionsStack[len(e.definitionsStack)-1]
		orelseDefs, rest = rest[0], rest[1:]
	}
}

// visitNonlocal searches the enclosing non-class frames, outermost-skipped-
// last, for an existing binding of each name. On success the current scope
// gains a write route: subsequent stores of the name rebind the enclosing
// frame rather than creating an inner local.
func (e *Engine) visitNonlocal(n *ast.Nonlocal) {
	for _, name := range n.Names {
		found := false
		for i := len(e.definitionsStack) - 1; i >= 0; i-- {
			if i == len(e.definitionsStack)-1 {
				continue // the current frame itself is never the target
			}
			if _, ok := e.definitionsStack[i][name]; !ok {
				continue
			}
			owner, ok := e.scopeOwningFrame(i)
			if !ok {
				continue
			}
			if isClassScope(owner) {
				continue // class namespaces are invisible to nonlocal
			}
			if isTypeParamScope(owner) {
				e.warnf(n, "names defined in annotation scopes cannot be rebound with nonlocal statements")
				found = true
				break
			}
			e.nonlocalsStack[len(e.nonlocalsStack)-1][name] = nonlocalTarget{frame: i, scope: owner}
			found = true
			break
		}
		if !found {
			e.unboundIdentifier(name, n)
		}
	}
}

func (e *Engine) warnImportOriginShape(al *ast.Alias, origin string) {
	e.warnf(al, "import origin %q does not look like a well-formed dotted module path", origin)
}

func (e *Engine) visitImport(n *ast.Import) {
	infos, err := importresolve.ParseImport(n, e.modname, e.isPackage, e.warnImportOriginShape)
	if err != nil {
		e.diags.Add(&diag.Error{Kind: diag.KindMalformedImport, Pos: e.posOf(n), Message: err.Error()})
		return
	}
	for _, al := range n.Names {
		dalias := e.defFor(al)
		base := firstDottedName(al.Name)
		name := al.AsName
		if name == "" {
			name = base
		}
		e.setDefinition(name, dalias, -1)
		e.addToLocals(name, dalias, -1)
		if info, ok := infos[al]; ok {
			e.imports[al] = ImportInfo(info)
		}
	}
}

func (e *Engine) visitImportFrom(n *ast.ImportFrom) {
	infos, err := importresolve.ParseImport(n, e.modname, e.isPackage, e.warnImportOriginShape)
	if err != nil {
		e.diags.Add(&diag.Error{Kind: diag.KindMalformedImport, Pos: e.posOf(n), Message: err.Error()})
		return
	}
	for _, al := range n.Names {
		dalias := e.defFor(al)
		if al.Name == "*" {
			e.extendDefinitionOne("*", dalias)
		} else {
			name := al.AsName
			if name == "" {
				name = al.Name
			}
			e.setDefinition(name, dalias, -1)
		}
		name := al.AsName
		if name == "" {
			name = al.Name
		}
		e.addToLocals(name, dalias, -1)
		if info, ok := infos[al]; ok {
			e.imports[al] = ImportInfo(info)
		}
	}
}

func firstDottedName(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			return s[:i]
		}
	}
	return s
}


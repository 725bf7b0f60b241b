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

package ast

// A Visitor's Before method is invoked for each node encountered by Walk. If
// the returned Visitor w is non-nil, Walk visits each child of node with w,
// followed by a call to w.After(node).
type Visitor interface {
	Before(node Node) (w Visitor)
	After(node Node)
}

// Walk traverses an AST in depth-first order, calling before for each node
// before descending into its children and after once its children (if any)
// have been visited. If before returns false, children are not visited and
// after is not called for that node.
func Walk(node Node, before func(Node) bool, after func(Node)) {
	if node == nil {
		return
	}
	if !before(node) {
		return
	}
	walkChildren(node, before, after)
	after(node)
}

// WalkVisitor traverses an AST in depth-first order with a Visitor.
func WalkVisitor(node Node, v Visitor) {
	if node == nil || v == nil {
		return
	}
	w := v.Before(node)
	if w == nil {
		return
	}
	walkChildren(node, func(n Node) bool {
		WalkVisitor(n, w)
		return false
	}, func(Node) {})
	w.After(node)
}

func walkStmts(list []Stmt, before func(Node) bool, after func(Node)) {
	for _, s := range list {
		Walk(s, before, after)
	}
}

func walkExprs(list []Expr, before func(Node) bool, after func(Node)) {
	for _, e := range list {
		Walk(e, before, after)
	}
}

func walkChildren(node Node, before func(Node) bool, after func(Node)) {
	switch n := node.(type) {
	case *Module:
		walkStmts(n.Body, before, after)

	// Statements.
	case *Assign:
		walkExprs(n.Targets, before, after)
		Walk(n.Value, before, after)
	case *AugAssign:
		Walk(n.Target, before, after)
		Walk(n.Value, before, after)
	case *AnnAssign:
		Walk(n.Target, before, after)
		Walk(n.Annotation, before, after)
		Walk(n.Value, before, after)
	case *If:
		Walk(n.Test, before, after)
		walkStmts(n.Body, before, after)
		walkStmts(n.Orelse, before, after)
	case *While:
		Walk(n.Test, before, after)
		walkStmts(n.Body, before, after)
		walkStmts(n.Orelse, before, after)
	case *For:
		Walk(n.Target, before, after)
		Walk(n.Iter, before, after)
		walkStmts(n.Body, before, after)
		walkStmts(n.Orelse, before, after)
	case *Try:
		walkStmts(n.Body, before, after)
		for _, h := range n.Handlers {
			Walk(h.TypeExpr, before, after)
			walkStmts(h.Body, before, after)
		}
		walkStmts(n.Orelse, before, after)
		walkStmts(n.Finalbody, before, after)
	case *With:
		for _, it := range n.Items {
			Walk(it.ContextExpr, before, after)
			Walk(it.OptionalVars, before, after)
		}
		walkStmts(n.Body, before, after)
	case *Match:
		Walk(n.Subject, before, after)
		for _, c := range n.Cases {
			Walk(c.Pattern, before, after)
			Walk(c.Guard, before, after)
			walkStmts(c.Body, before, after)
		}
	case *FunctionDef:
		walkArguments(n.Args, before, after)
		walkExprs(n.Decorators, before, after)
		Walk(n.Returns, before, after)
		for _, tp := range n.TypeParams {
			Walk(tp, before, after)
		}
		walkStmts(n.Body, before, after)
	case *ClassDef:
		walkExprs(n.Bases, before, after)
		for _, kw := range n.Keywords {
			Walk(kw.Value, before, after)
		}
		walkExprs(n.Decorators, before, after)
		for _, tp := range n.TypeParams {
			Walk(tp, before, after)
		}
		walkStmts(n.Body, before, after)
	case *Return:
		Walk(n.Value, before, after)
	case *Delete:
		walkExprs(n.Targets, before, after)
	case *Pass, *Break, *Continue:
		// leaf nodes
	case *Raise:
		Walk(n.Exc, before, after)
		Walk(n.Cause, before, after)
	case *Assert:
		Walk(n.Test, before, after)
		Walk(n.Msg, before, after)
	case *Global, *Nonlocal:
		// leaf nodes; names carry no sub-expressions
	case *Import:
		// aliases carry no sub-expressions
	case *ImportFrom:
		// aliases carry no sub-expressions
	case *ExprStmt:
		Walk(n.Value, before, after)
	case *TypeAliasStmt:
		Walk(n.Name, before, after)
		for _, tp := range n.TypeParams {
			Walk(tp, before, after)
		}
		Walk(n.Value, before, after)
	case *TypeParamScope:
		for _, tp := range n.Params {
			Walk(tp, before, after)
		}
		Walk(n.Target, before, after)

	// Expressions.
	case *Name:
		// leaf node
	case *Attribute:
		Walk(n.Value, before, after)
	case *Subscript:
		Walk(n.Value, before, after)
		Walk(n.Slice, before, after)
	case *Starred:
		Walk(n.Value, before, after)
	case *Tuple:
		walkExprs(n.Elts, before, after)
	case *ListExpr:
		walkExprs(n.Elts, before, after)
	case *SetExpr:
		walkExprs(n.Elts, before, after)
	case *DictExpr:
		for i := range n.Values {
			if n.Keys[i] != nil {
				Walk(n.Keys[i], before, after)
			}
			Walk(n.Values[i], before, after)
		}
	case *Call:
		Walk(n.Func, before, after)
		walkExprs(n.Args, before, after)
		for _, kw := range n.Keywords {
			Walk(kw.Value, before, after)
		}
	case *BinOp:
		Walk(n.Left, before, after)
		Walk(n.Right, before, after)
	case *UnaryOp:
		Walk(n.Operand, before, after)
	case *BoolOp:
		walkExprs(n.Values, before, after)
	case *Compare:
		Walk(n.Left, before, after)
		walkExprs(n.Comparators, before, after)
	case *IfExp:
		Walk(n.Test, before, after)
		Walk(n.Body, before, after)
		Walk(n.Orelse, before, after)
	case *Lambda:
		walkArguments(n.Args, before, after)
		Walk(n.Body, before, after)
	case *NamedExpr:
		Walk(n.Target, before, after)
		Walk(n.Value, before, after)
	case *Constant:
		// leaf node
	case *JoinedStr:
		walkExprs(n.Values, before, after)
	case *FormattedValue:
		Walk(n.Value, before, after)
		Walk(n.FormatSpec, before, after)
	case *Await:
		Walk(n.Value, before, after)
	case *Yield:
		Walk(n.Value, before, after)
	case *YieldFrom:
		Walk(n.Value, before, after)
	case *ListComp:
		walkComprehensions(n.Generators, before, after)
		Walk(n.Elt, before, after)
	case *SetComp:
		walkComprehensions(n.Generators, before, after)
		Walk(n.Elt, before, after)
	case *DictComp:
		walkComprehensions(n.Generators, before, after)
		Walk(n.Key, before, after)
		Walk(n.Value, before, after)
	case *GeneratorExp:
		walkComprehensions(n.Generators, before, after)
		Walk(n.Elt, before, after)
	case *SliceExpr:
		Walk(n.Lower, before, after)
		Walk(n.Upper, before, after)
		Walk(n.Step, before, after)

	// Patterns.
	case *MatchValue:
		Walk(n.Value, before, after)
	case *MatchSingleton:
		Walk(n.Value, before, after)
	case *MatchSequence:
		for _, p := range n.Patterns {
			Walk(p, before, after)
		}
	case *MatchMapping:
		walkExprs(n.Keys, before, after)
		for _, p := range n.Patterns {
			Walk(p, before, after)
		}
	case *MatchClass:
		Walk(n.Cls, before, after)
		for _, p := range n.Patterns {
			Walk(p, before, after)
		}
		for _, p := range n.KwdPatterns {
			Walk(p, before, after)
		}
	case *MatchStar:
		// leaf node
	case *MatchAs:
		if n.Pattern != nil {
			Walk(n.Pattern, before, after)
		}
	case *MatchOr:
		for _, p := range n.Patterns {
			Walk(p, before, after)
		}

	// Type parameters.
	case *TypeVar:
		Walk(n.Bound, before, after)
	case *TypeVarTuple:
		// leaf node
	case *ParamSpec:
		// leaf node
	}
}

func walkComprehensions(list []*Comprehension, before func(Node) bool, after func(Node)) {
	for _, c := range list {
		Walk(c.Target, before, after)
		Walk(c.Iter, before, after)
		walkExprs(c.Ifs, before, after)
	}
}

func walkArguments(a *Arguments, before func(Node) bool, after func(Node)) {
	if a == nil {
		return
	}
	for _, arg := range a.PosOnlyArgs {
		Walk(arg.Annotation, before, after)
	}
	for _, arg := range a.Args {
		Walk(arg.Annotation, before, after)
	}
	if a.Vararg != nil {
		Walk(a.Vararg.Annotation, before, after)
	}
	for _, arg := range a.KwOnlyArgs {
		Walk(arg.Annotation, before, after)
	}
	if a.Kwarg != nil {
		Walk(a.Kwarg.Annotation, before, after)
	}
	walkExprs(a.Defaults, before, after)
	for _, d := range a.KwDefaults {
		if d != nil {
			Walk(d, before, after)
		}
	}
}

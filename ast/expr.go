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

func (*Name) exprNode()           {}
func (*Attribute) exprNode()      {}
func (*Subscript) exprNode()      {}
func (*Starred) exprNode()        {}
func (*Tuple) exprNode()          {}
func (*ListExpr) exprNode()       {}
func (*SetExpr) exprNode()        {}
func (*DictExpr) exprNode()       {}
func (*Call) exprNode()           {}
func (*BinOp) exprNode()          {}
func (*UnaryOp) exprNode()        {}
func (*BoolOp) exprNode()         {}
func (*Compare) exprNode()        {}
func (*IfExp) exprNode()          {}
func (*Lambda) exprNode()         {}
func (*NamedExpr) exprNode()      {}
func (*Constant) exprNode()       {}
func (*JoinedStr) exprNode()      {}
func (*FormattedValue) exprNode() {}
func (*Await) exprNode()          {}
func (*Yield) exprNode()          {}
func (*YieldFrom) exprNode()      {}
func (*ListComp) exprNode()       {}
func (*SetComp) exprNode()        {}
func (*DictComp) exprNode()       {}
func (*GeneratorExp) exprNode()   {}
func (*SliceExpr) exprNode()      {}

// Name is an identifier used as a read, write, deletion, or parameter.
type Name struct {
	pos
	Id  string
	Ctx ExprContext
}

// Attribute is `value.attr`; only Value is resolved (the attribute name
// itself is never a binding site: disambiguating dynamic attribute writes
// is out of scope).
type Attribute struct {
	pos
	Value Expr
	Attr  string
	Ctx   ExprContext
}

type Subscript struct {
	pos
	Value Expr
	Slice Expr
	Ctx   ExprContext
}

// Starred is `*value` in either a store context (destructuring target) or
// a load context (call/list unpacking).
type Starred struct {
	pos
	Value Expr
	Ctx   ExprContext
}

type Tuple struct {
	pos
	Elts []Expr
	Ctx  ExprContext
}

type ListExpr struct {
	pos
	Elts []Expr
	Ctx  ExprContext
}

type SetExpr struct {
	pos
	Elts []Expr
}

// DictExpr is a dict literal; Keys[i] == nil marks a `**value` unpacking
// entry, in which case Values[i] is the unpacked expression.
type DictExpr struct {
	pos
	Keys   []Expr
	Values []Expr
}

type Call struct {
	pos
	Func     Expr
	Args     []Expr
	Keywords []*Keyword
}

type BinOp struct {
	pos
	Left  Expr
	Op    string
	Right Expr
}

type UnaryOp struct {
	pos
	Op      string
	Operand Expr
}

type BoolOp struct {
	pos
	Op     string
	Values []Expr
}

type Compare struct {
	pos
	Left        Expr
	Ops         []string
	Comparators []Expr
}

type IfExp struct {
	pos
	Test   Expr
	Body   Expr
	Orelse Expr
}

type Lambda struct {
	pos
	Args *Arguments
	Body Expr
}

// NamedExpr is the walrus operator `target := value`. Target is always a
// Name in Store context; the grammar restricts walrus targets to
// identifiers.
type NamedExpr struct {
	pos
	Target *Name
	Value  Expr
}

// Constant is any literal: number, string, bytes, bool, None, Ellipsis.
type Constant struct {
	pos
	Value interface{}
}

// JoinedStr is an f-string; Values interleaves Constant string fragments
// and FormattedValue expressions.
type JoinedStr struct {
	pos
	Values []Expr
}

type FormattedValue struct {
	pos
	Value      Expr
	FormatSpec Expr // nil if absent
}

type Await struct {
	pos
	Value Expr
}

type Yield struct {
	pos
	Value Expr // nil for bare `yield`
}

type YieldFrom struct {
	pos
	Value Expr
}

type ListComp struct {
	pos
	Elt        Expr
	Generators []*Comprehension
}

type SetComp struct {
	pos
	Elt        Expr
	Generators []*Comprehension
}

type DictComp struct {
	pos
	Key        Expr
	Value      Expr
	Generators []*Comprehension
}

type GeneratorExp struct {
	pos
	Elt        Expr
	Generators []*Comprehension
}

type SliceExpr struct {
	pos
	Lower Expr
	Upper Expr
	Step  Expr
}

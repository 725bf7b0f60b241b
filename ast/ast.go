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

// Package ast declares the node types that make up the syntax tree the
// analyzer consumes. The parser that produces these trees is an external
// collaborator; this package only defines the node set (statements,
// expressions, patterns, type-parameter nodes) so that the rest of the
// module has something concrete to walk: small interfaces
// (Node/Expr/Stmt/Pattern/TypeParam), one struct per production, positions
// carried on every node.
package ast

import "github.com/pyforks/beniget-ng/token"

// A Node is any node in the tree. Every node carries the position of its
// first token so diagnostics (diag.Error) can be rendered with a location.
type Node interface {
	Pos() token.Position
}

// An Expr is implemented by all expression nodes.
type Expr interface {
	Node
	exprNode()
}

// A Stmt is implemented by all statement nodes.
type Stmt interface {
	Node
	stmtNode()
}

// A Pattern is implemented by all match-statement pattern nodes.
type Pattern interface {
	Node
	patternNode()
}

// A TypeParam is implemented by the PEP-695-style type-parameter nodes:
// TypeVar, TypeVarTuple, ParamSpec.
type TypeParam interface {
	Node
	typeParamNode()
}

// ExprContext tags how a Name/Attribute/Subscript/Starred/List/Tuple is
// used: as a read, a write, a deletion, or a parameter binding.
type ExprContext int

const (
	Load ExprContext = iota
	Store
	Del
	Param
)

// Module is the root of the tree: a single source file.
type Module struct {
	Body     []Stmt
	Position token.Position
}

func (m *Module) Pos() token.Position { return m.Position }

// pos is embedded by every concrete node to satisfy Node with minimal
// boilerplate; it deliberately holds only a Position, no comment-carrying
// extras, since this analyzer never prints source back out.
type pos struct{ Position token.Position }

func (p pos) Pos() token.Position { return p.Position }

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

// Package defs implements the definition record: one Def per
// binding-producing AST node, or per read identifier with no resolvable
// definition, carrying an ordered set of user Defs and a liveness flag.
//
// Defs are ordinary pointer-linked Go values. The users graph can contain
// cycles (mutual recursion, self-reference); Go's garbage collector
// reclaims cycles natively, so an index-arena encoding of the edges would
// buy nothing here.
package defs

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/pyforks/beniget-ng/ast"
	"github.com/pyforks/beniget-ng/internal/ordered"
)

// Def models one binding or unbound placeholder and the set of Defs that
// read or otherwise depend on it.
type Def struct {
	// Node is the AST node that produced this Def: an assignment target, a
	// parameter, an import alias, a class/function header, a pattern
	// capture, a walrus target, an exception capture, or a read Name with
	// no reaching definition. Nil for a synthetic Def (a builtin sentinel
	// or the __class__ marker).
	Node ast.Node

	// builtinName and classMarker distinguish the two kinds of synthetic
	// Def: a builtin sentinel (wraps an opaque identity, never marked
	// non-live) and the per-class-body __class__ marker.
	builtinName string
	classMarker bool
	sentinel    uuid.UUID

	users *ordered.Set[*Def]
	Live  bool
}

// NewFromNode creates a Def wrapping a real AST node. Live starts true; it
// is cleared only when a later, same-name Def in the same frame dominates
// the rest of the scope along every path.
func NewFromNode(n ast.Node) *Def {
	return &Def{Node: n, users: ordered.New[*Def](), Live: true}
}

// NewBuiltin creates a synthetic Def for a builtin name. Builtins wrap an
// opaque sentinel rather than an AST node and are never marked non-live,
// since nothing in the analyzed module can overwrite the language's
// builtin namespace within this analysis' scope.
func NewBuiltin(name string) *Def {
	return &Def{builtinName: name, sentinel: uuid.New(), users: ordered.New[*Def](), Live: true}
}

// NewClassMarker creates the synthetic `__class__` Def installed at the
// top of every class body.
func NewClassMarker() *Def {
	return &Def{classMarker: true, sentinel: uuid.New(), users: ordered.New[*Def](), Live: true}
}

// IsBuiltin reports whether this Def wraps a builtin sentinel.
func (d *Def) IsBuiltin() bool { return d.builtinName != "" }

// IsSynthetic reports whether this Def has no backing AST node at all.
func (d *Def) IsSynthetic() bool { return d.Node == nil }

// AddUser records that other reads or otherwise depends on d. Idempotent:
// adding the same user twice has no additional effect.
func (d *Def) AddUser(other *Def) {
	d.users.Add(other)
}

// Users returns the Defs that depend on d, in the order they were added.
func (d *Def) Users() []*Def {
	return d.users.Slice()
}

// Name returns a human name derived from the node kind: the identifier
// for a name/arg/alias/except-name/match-capture, the declared name for a
// class/function/typevar, or the node's kind name otherwise.
func (d *Def) Name() string {
	if d.classMarker {
		return "__class__"
	}
	if d.IsBuiltin() {
		return d.builtinName
	}
	switch n := d.Node.(type) {
	case *ast.Name:
		return n.Id
	case *ast.Arg:
		return n.Name
	case *ast.Alias:
		if n.AsName != "" {
			return n.AsName
		}
		return firstDotted(n.Name)
	case *ast.FunctionDef:
		return n.Name
	case *ast.ClassDef:
		return n.Name
	case *ast.TypeVar:
		return n.Name
	case *ast.TypeVarTuple:
		return n.Name
	case *ast.ParamSpec:
		return n.Name
	case *ast.ExceptHandler:
		if n.Name != "" {
			return n.Name
		}
	case *ast.MatchStar:
		if n.Name != "" {
			return n.Name
		}
	case *ast.MatchAs:
		if n.Name != "" {
			return n.Name
		}
	case *ast.MatchMapping:
		if n.Rest != "" {
			return n.Rest
		}
	case *ast.TypeAliasStmt:
		return n.Name.Id
	}
	return nodeKindName(d.Node)
}

// nodeKindName renders an unnamed node's kind, e.g. "Call" or "BinOp", the
// form the dump surface prints for Defs that carry no identifier.
func nodeKindName(n ast.Node) string {
	s := fmt.Sprintf("%T", n)
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '.' {
			return s[i+1:]
		}
	}
	return s
}

func firstDotted(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			return s[:i]
		}
	}
	return s
}

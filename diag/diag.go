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

// Package diag defines the side-channel diagnostics the analyzer reports:
// warnings about unbound identifiers, reads before assignment, and
// syntactic misuse, plus the one kind of error (a malformed import) that is
// fatal to the analysis of the node that triggered it: a positioned Error
// type and a sortable List, sized for a single-module, single-pass
// analyzer (no multi-file path tracking, no wrapping chains).
package diag

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pyforks/beniget-ng/token"
)

// Kind classifies a diagnostic so callers and tests can assert on the
// failure mode without parsing the message text.
type Kind int

const (
	// KindUnbound is a read of a name with no reaching definition, or a
	// nonlocal statement with no enclosing binding.
	KindUnbound Kind = iota
	// KindReadBeforeAssign is a read of a name that is a precomputed local
	// of the current scope but has no definition installed on this path.
	KindReadBeforeAssign
	// KindSyntax covers disallowed walrus/yield/await placements and other
	// structural misuse that downgrades to a warning and skips a subtree.
	KindSyntax
	// KindMalformedImport is fatal to the analysis of the offending import
	// node.
	KindMalformedImport
)

func (k Kind) String() string {
	switch k {
	case KindUnbound:
		return "unbound identifier"
	case KindReadBeforeAssign:
		return "read before assignment"
	case KindSyntax:
		return "syntax"
	case KindMalformedImport:
		return "malformed import"
	default:
		return "diagnostic"
	}
}

// Error is a single positioned diagnostic.
type Error struct {
	Kind    Kind
	Pos     token.Position
	Message string
}

// Error implements the error interface, rendering the "W: <message> at
// <filename>:<line>:<col>" warning shape. Fatal malformed-import errors
// use the same rendering since they too carry a message and a position;
// callers distinguish them via Kind.
func (e *Error) Error() string {
	return fmt.Sprintf("W: %s at %s", e.Message, e.Pos)
}

// List is an ordered collection of diagnostics, append-only and sorted by
// position on demand rather than eagerly, since the analyzer appends
// warnings in traversal order and callers usually want them in that
// order, not sorted.
type List []*Error

// Add appends a diagnostic to the list.
func (l *List) Add(e *Error) {
	*l = append(*l, e)
}

// Warnf appends a warning of the given kind at the given position.
func (l *List) Warnf(kind Kind, pos token.Position, format string, args ...interface{}) {
	l.Add(&Error{Kind: kind, Pos: pos, Message: fmt.Sprintf(format, args...)})
}

// SortByPosition returns a copy of the list sorted by filename, line and
// column, with ties broken by original (insertion) order.
func (l List) SortByPosition() List {
	sorted := make(List, len(l))
	copy(sorted, l)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Pos, sorted[j].Pos
		if a.Filename != b.Filename {
			return a.Filename < b.Filename
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})
	return sorted
}

// Error implements the error interface so a List can be returned wherever a
// single error is expected; it renders one diagnostic per line.
func (l List) Error() string {
	lines := make([]string, len(l))
	for i, e := range l {
		lines[i] = e.Error()
	}
	return strings.Join(lines, "\n")
}

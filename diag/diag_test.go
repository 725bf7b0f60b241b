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

package diag_test

import (
	"testing"

	"github.com/go-quicktest/qt"

	"github.com/pyforks/beniget-ng/diag"
	"github.com/pyforks/beniget-ng/token"
)

func TestErrorRendering(t *testing.T) {
	e := &diag.Error{
		Kind:    diag.KindUnbound,
		Pos:     token.Position{Filename: "m.py", Line: 3, Column: 5},
		Message: `unbound identifier "x"`,
	}
	qt.Assert(t, qt.Equals(e.Error(), `W: unbound identifier "x" at m.py:3:5`))
}

func TestListWarnf(t *testing.T) {
	var l diag.List
	l.Warnf(diag.KindUnbound, token.Position{Filename: "m.py", Line: 1, Column: 1}, "bad %s", "x")
	qt.Assert(t, qt.Equals(len(l), 1))
	qt.Assert(t, qt.Equals(l[0].Kind, diag.KindUnbound))
	qt.Assert(t, qt.Equals(l[0].Message, "bad x"))
}

func TestSortByPosition(t *testing.T) {
	var l diag.List
	l.Add(&diag.Error{Pos: token.Position{Filename: "b.py", Line: 1, Column: 1}, Message: "second file"})
	l.Add(&diag.Error{Pos: token.Position{Filename: "a.py", Line: 5, Column: 1}, Message: "later line"})
	l.Add(&diag.Error{Pos: token.Position{Filename: "a.py", Line: 2, Column: 9}, Message: "earlier line, later col"})
	l.Add(&diag.Error{Pos: token.Position{Filename: "a.py", Line: 2, Column: 1}, Message: "earlier col"})

	sorted := l.SortByPosition()
	var messages []string
	for _, e := range sorted {
		messages = append(messages, e.Message)
	}
	qt.Assert(t, qt.DeepEquals(messages, []string{
		"earlier col", "earlier line, later col", "later line", "second file",
	}))
	// The original list is untouched.
	qt.Assert(t, qt.Equals(l[0].Message, "second file"))
}

func TestSortByPositionStableOnTies(t *testing.T) {
	var l diag.List
	pos := token.Position{Filename: "a.py", Line: 1, Column: 1}
	l.Add(&diag.Error{Pos: pos, Message: "first"})
	l.Add(&diag.Error{Pos: pos, Message: "second"})

	sorted := l.SortByPosition()
	qt.Assert(t, qt.Equals(sorted[0].Message, "first"))
	qt.Assert(t, qt.Equals(sorted[1].Message, "second"))
}

func TestListErrorJoinsLines(t *testing.T) {
	var l diag.List
	l.Warnf(diag.KindUnbound, token.Position{Filename: "m.py", Line: 1, Column: 1}, "a")
	l.Warnf(diag.KindSyntax, token.Position{Filename: "m.py", Line: 2, Column: 1}, "b")
	qt.Assert(t, qt.Equals(l.Error(), "W: a at m.py:1:1\nW: b at m.py:2:1"))
}

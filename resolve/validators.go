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
	"fmt"

	"github.com/pyforks/beniget-ng/ast"
)

// invalidSyntaxError reports a construct that is syntactically forbidden in
// an annotation-like evaluation context.
type invalidSyntaxError struct {
	msg string
	at  ast.Node
}

func (e *invalidSyntaxError) Error() string { return e.msg }

var humanNodeName = map[string]string{
	"*ast.NamedExpr":    "assignment expression",
	"*ast.Yield":        "yield keyword",
	"*ast.YieldFrom":    "yield keyword",
	"*ast.Await":        "await keyword",
	"*ast.ListComp":     "comprehension",
	"*ast.SetComp":      "comprehension",
	"*ast.DictComp":     "comprehension",
	"*ast.GeneratorExp": "generator expression",
	"*ast.Lambda":       "lambda expression",
}

func describe(n ast.Node) string {
	if name, ok := humanNodeName[fmt.Sprintf("%T", n)]; ok {
		return name
	}
	return "current syntax"
}

// validateAnnotationBody rejects the walrus operator, yield, and await
// appearing anywhere within an annotation-like expression: these require a
// runtime evaluation context an annotation does not have.
func validateAnnotationBody(node ast.Node) error {
	var found error
	ast.Walk(node, func(n ast.Node) bool {
		if found != nil {
			return false
		}
		switch n.(type) {
		case *ast.NamedExpr, *ast.Yield, *ast.YieldFrom, *ast.Await:
			found = &invalidSyntaxError{
				msg: fmt.Sprintf("%s cannot be used in annotation-like scopes", describe(n)),
				at:  n,
			}
			return false
		}
		return true
	}, func(ast.Node) {})
	return found
}

// validateAnnotationBodyWithinClassScope additionally rejects any construct
// that introduces a nested scope, since a PEP-695 type-parameter scope
// immediately within a class body cannot see comprehension/lambda-created
// scopes reach back into the class namespace.
func validateAnnotationBodyWithinClassScope(node ast.Node) error {
	var found error
	ast.Walk(node, func(n ast.Node) bool {
		if found != nil {
			return false
		}
		switch n.(type) {
		case *ast.ListComp, *ast.GeneratorExp, *ast.SetComp, *ast.DictComp, *ast.Lambda:
			found = &invalidSyntaxError{
				msg: fmt.Sprintf("%s cannot be used in annotation scope within class scope", describe(n)),
				at:  n,
			}
			return false
		}
		return true
	}, func(ast.Node) {})
	return found
}

// validateComprehension rejects a named expression in a comprehension's
// iterable expression, and a named expression that rebinds one of the
// comprehension's own iteration variables.
func validateComprehension(node comprehensionExpr) error {
	iterNames := make(map[string]bool)
	for _, gen := range node.comprehensions() {
		var namedExprInIter error
		ast.Walk(gen.Iter, func(n ast.Node) bool {
			if _, ok := n.(*ast.NamedExpr); ok {
				namedExprInIter = &invalidSyntaxError{
					msg: "assignment expression cannot be used in a comprehension iterable expression",
					at:  n,
				}
				return false
			}
			return namedExprInIter == nil
		}, func(ast.Node) {})
		if namedExprInIter != nil {
			return namedExprInIter
		}
		ast.Walk(gen.Target, func(n ast.Node) bool {
			if name, ok := n.(*ast.Name); ok && name.Ctx == ast.Store {
				iterNames[name.Id] = true
			}
			return true
		}, func(ast.Node) {})
	}

	var rebind error
	ast.Walk(node.asNode(), func(n ast.Node) bool {
		if rebind != nil {
			return false
		}
		ne, ok := n.(*ast.NamedExpr)
		if ok && iterNames[ne.Target.Id] {
			rebind = &invalidSyntaxError{
				msg: fmt.Sprintf("assignment expression cannot rebind comprehension iteration variable %q", ne.Target.Id),
				at:  n,
			}
			return false
		}
		return true
	}, func(ast.Node) {})
	return rebind
}

// comprehensionExpr is implemented by the four comprehension/generator
// expression node kinds, letting validateComprehension share one
// implementation across them.
type comprehensionExpr interface {
	ast.Expr
	comprehensions() []*ast.Comprehension
	asNode() ast.Node
}

type listCompAdapter struct{ *ast.ListComp }

func (a listCompAdapter) comprehensions() []*ast.Comprehension { return a.Generators }
func (a listCompAdapter) asNode() ast.Node                     { return a.ListComp }

type setCompAdapter struct{ *ast.SetComp }

func (a setCompAdapter) comprehensions() []*ast.Comprehension { return a.Generators }
func (a setCompAdapter) asNode() ast.Node                     { return a.SetComp }

type dictCompAdapter struct{ *ast.DictComp }

func (a dictCompAdapter) comprehensions() []*ast.Comprehension { return a.Generators }
func (a dictCompAdapter) asNode() ast.Node                     { return a.DictComp }

type generatorExpAdapter struct{ *ast.GeneratorExp }

func (a generatorExpAdapter) comprehensions() []*ast.Comprehension { return a.Generators }
func (a generatorExpAdapter) asNode() ast.Node                     { return a.GeneratorExp }

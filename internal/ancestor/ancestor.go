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

// Package ancestor builds the ancestor index: for every node reachable
// from a module, the chain of nodes visited from the module root down to
// it.
package ancestor

import "github.com/pyforks/beniget-ng/ast"

// Index maps each node to the list of nodes on the path from the module
// root to it, root first, node itself excluded.
type Index struct {
	parents map[ast.Node][]ast.Node
}

// Build walks module and records every node's ancestor chain.
func Build(module *ast.Module) *Index {
	idx := &Index{parents: make(map[ast.Node][]ast.Node)}
	var current []ast.Node
	ast.Walk(module,
		func(n ast.Node) bool {
			idx.parents[n] = append([]ast.Node(nil), current...)
			current = append(current, n)
			return true
		},
		func(ast.Node) {
			current = current[:len(current)-1]
		},
	)
	return idx
}

// Parent returns the immediate parent of node, or nil if node is the module
// root or was never visited by Build.
func (idx *Index) Parent(node ast.Node) ast.Node {
	p := idx.parents[node]
	if len(p) == 0 {
		return nil
	}
	return p[len(p)-1]
}

// Parents returns the full ancestor chain of node, root first. The caller
// must not mutate the returned slice.
func (idx *Index) Parents(node ast.Node) []ast.Node {
	return idx.parents[node]
}

// ParentMatching returns the nearest ancestor of node for which match
// returns true, searching from the immediate parent outward. ok is false
// if no ancestor matches.
func (idx *Index) ParentMatching(node ast.Node, match func(ast.Node) bool) (result ast.Node, ok bool) {
	chain := idx.parents[node]
	for i := len(chain) - 1; i >= 0; i-- {
		if match(chain[i]) {
			return chain[i], true
		}
	}
	return nil, false
}

// ParentFunction returns the nearest enclosing FunctionDef, if any.
func (idx *Index) ParentFunction(node ast.Node) (*ast.FunctionDef, bool) {
	n, ok := idx.ParentMatching(node, func(n ast.Node) bool {
		_, is := n.(*ast.FunctionDef)
		return is
	})
	if !ok {
		return nil, false
	}
	return n.(*ast.FunctionDef), true
}
